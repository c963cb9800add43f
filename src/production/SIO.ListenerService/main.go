package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sioactions "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Actions"
	container "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Container"
	"gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.ListenerService/listener"
	siomodels "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Models"
	sioqueue "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Queue"
	implementation "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Repository/Implementation"
	siorouter "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Router"
	siotriggers "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Triggers"
)

func main() {
	// Initialize dependency injection container
	ctr, err := container.NewListenerContainer()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize container: %v", err))
	}
	defer ctr.Shutdown(context.Background())

	logger := ctr.GetLogger()
	logger.Info("Starting MQTT Listener Service")

	config := ctr.GetConfig()

	db, err := ctr.GetDatabase()
	if err != nil {
		logger.FatalWithError(err, "Failed to get database connection")
	}

	// Ensure core tables exist
	schemaCtx, schemaCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer schemaCancel()
	if err := implementation.EnsureSchema(schemaCtx, db); err != nil {
		logger.FatalWithError(err, "Failed to ensure database schema")
	}

	// Create repositories
	deviceRepo := implementation.NewPostgresDeviceRepository(db)
	thingRepo := implementation.NewPostgresThingRepository(db)
	variableRepo := implementation.NewPostgresCloudVariableRepository(db)
	triggerRepo := implementation.NewPostgresTriggerRepository(db)

	// MongoDB holds the historical value archive; it is optional
	var readingRepo *implementation.MongoReadingRepository
	if mongoClient, err := ctr.GetMongo(); err != nil {
		logger.ErrorWithError(err, "MongoDB unavailable, value history disabled")
	} else {
		readingRepo = implementation.NewMongoReadingRepository(mongoClient, config.Mongo.Database, config.Mongo.Collection)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start the action task queue
	queue := sioqueue.New(config.Queue, logger)
	queue.Start(ctx)
	defer queue.Stop()

	// Wire trigger pipeline: evaluator -> claim -> queued action
	mailer := sioactions.NewSMTPMailer(config.SMTP)
	executor := sioactions.NewExecutor(triggerRepo, variableRepo, thingRepo, mailer, logger)
	dispatcher := siotriggers.NewDispatcher(triggerRepo, queue, executor, logger)

	// Wire the topic router
	router := siorouter.New(deviceRepo, thingRepo, variableRepo, logger)
	if readingRepo != nil {
		router.WithReadingArchive(readingRepo)
	}
	router.OnVariableUpdated(dispatcher.HandleVariableUpdated)
	router.OnStatusChanged(func(_ context.Context, event siomodels.DeviceStatusChanged) {
		logger.Logger.Info().
			Str("device_id", event.Device.DeviceID).
			Str("old_status", string(event.OldStatus)).
			Str("new_status", string(event.NewStatus)).
			Msg("Device status changed")
	})

	// Connect to the broker and start consuming
	lst := listener.New(config.MQTT, router, logger)
	if err := lst.Start(ctx); err != nil {
		logger.FatalWithError(err, "Failed to start MQTT listener")
	}
	defer lst.Stop()

	go startHealthServer(ctr, lst)

	logger.Info("MQTT listener running... press Ctrl+C to stop")

	// Wait for shutdown signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("Shutting down...")
}

// startHealthServer starts a simple HTTP server for health checks
func startHealthServer(ctr *container.ListenerContainer, lst *listener.Listener) {
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		mqttStatus := "disconnected"
		if lst.IsConnected() {
			mqttStatus = "connected"
		}

		dbStatus := "connected"
		if db, err := ctr.GetDatabase(); err != nil {
			dbStatus = "disconnected"
		} else if err := db.PingContext(ctx); err != nil {
			dbStatus = "disconnected"
		}

		status := "healthy"
		if mqttStatus != "connected" || dbStatus != "connected" {
			status = "unhealthy"
		}

		w.Header().Set("Content-Type", "application/json")
		if status == "healthy" {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		fmt.Fprintf(w, `{
			"status": "%s",
			"timestamp": "%s",
			"services": {
				"mqtt": "%s",
				"postgres": "%s"
			}
		}`, status, time.Now().UTC().Format(time.RFC3339), mqttStatus, dbStatus)
	})

	port := ctr.GetConfig().Server.Port
	logger := ctr.GetLogger()
	logger.Info("Health server starting on port " + port)

	if err := http.ListenAndServe(":"+port, nil); err != nil {
		logger.FatalWithError(err, "Failed to start health server")
	}
}
