package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.ApiService/controllers"
	"gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.ApiService/health"
	"gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.ApiService/middleware"
	container "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Container"
	siologger "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Logger"
	provisioning "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Provisioning"
	publisher "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Publisher"
	sioqueue "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Queue"
	implementation "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Repository/Implementation"
	mongodriver "go.mongodb.org/mongo-driver/mongo"

	sioconfig "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Config"
)

func main() {
	// Initialize dependency injection container
	ctr, err := container.NewApiContainer()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize container: %v", err))
	}
	defer ctr.Shutdown(context.Background())

	logger := ctr.GetLogger()
	logger.Info("Starting Device API Service")

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

	var mongoClient *mongodriver.Client
	if client, err := ctr.GetMongo(); err != nil {
		logger.ErrorWithError(err, "MongoDB unavailable, readiness will report it as absent")
	} else {
		mongoClient = client
	}

	// Create repositories
	deviceRepo := implementation.NewPostgresDeviceRepository(db)
	thingRepo := implementation.NewPostgresThingRepository(db)

	// Provisioning hands out MQTT credentials and topic maps
	provisioner := provisioning.NewService(deviceRepo, config.MQTT, logger)

	// Outbound publishes run through the task queue over a shared MQTT client
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue := sioqueue.New(sioconfig.QueueConfig{
		Workers:     2,
		BufferSize:  1024,
		MaxAttempts: 3,
		RetryDelay:  time.Second,
	}, logger)
	queue.Start(ctx)
	defer queue.Stop()

	mqttClient := connectBroker(config.MQTT, logger)
	defer func() {
		if mqttClient.IsConnected() {
			mqttClient.Disconnect(500)
		}
	}()
	pub := publisher.New(mqttClient, queue, logger)

	// Create middleware and controllers
	deviceAuth := middleware.NewDeviceAuthMiddleware(deviceRepo)
	healthChecker := health.NewHealthChecker(db, mongoClient)

	provisionController := controllers.NewProvisionController(deviceRepo, thingRepo, provisioner, logger)
	deviceController := controllers.NewDeviceController(deviceRepo, thingRepo, logger, deviceAuth)
	internalController := controllers.NewInternalController(pub)
	healthController := controllers.NewHealthController(healthChecker)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Configure CORS from config
	corsConfig := cors.Config{
		AllowOrigins:     config.CORS.AllowedOrigins,
		AllowMethods:     config.CORS.AllowedMethods,
		AllowHeaders:     config.CORS.AllowedHeaders,
		AllowCredentials: config.CORS.AllowCredentials,
		MaxAge:           time.Duration(config.CORS.MaxAge) * time.Second,
	}
	router.Use(cors.New(corsConfig))

	// Register all routes
	provisionController.RegisterRoutes(router)
	deviceController.RegisterRoutes(router)
	internalController.RegisterRoutes(router)
	healthController.RegisterRoutes(router)

	port := config.Server.Port

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  config.Server.ReadTimeout,
		WriteTimeout: config.Server.WriteTimeout,
		IdleTimeout:  config.Server.IdleTimeout,
	}

	// Start HTTP server in a goroutine
	go func() {
		logger.Info("HTTP server starting on port " + port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.FatalWithError(err, "Failed to start HTTP server")
		}
	}()

	logger.Info("Device API service running... press Ctrl+C to stop")

	// Wait for shutdown signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("Shutting down...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithError(err, "Server forced to shutdown")
	}
}

// connectBroker establishes the shared outbound MQTT connection. Connection
// failures are retried in the background; publishes queue until it is up.
func connectBroker(cfg sioconfig.MQTTConfig, logger *siologger.Logger) mqtt.Client {
	// each API instance gets its own client id; this connection holds no
	// subscriptions, so session state does not matter
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL()).
		SetClientID(cfg.ClientID + "-" + uuid.NewString()[:8]).
		SetCleanSession(true).
		SetKeepAlive(cfg.KeepAlive).
		SetPingTimeout(cfg.PingTimeout).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	if cfg.BrokerUser != "" {
		opts.SetUsername(cfg.BrokerUser)
		opts.SetPassword(cfg.BrokerPass)
	}

	client := mqtt.NewClient(opts)
	if tk := client.Connect(); tk.Wait() && tk.Error() != nil {
		logger.ErrorWithError(tk.Error(), "MQTT broker not reachable, retrying in background")
	} else {
		logger.Info("Connected to MQTT broker")
	}
	return client
}
