package container

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/lib/pq"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	config "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Config"
	logger "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Logger"
)

// Container manages shared dependencies and their lifecycle
type Container struct {
	database config.DatabaseConfig
	mongoCfg config.MongoConfig
	logger   *logger.Logger

	db    *sql.DB
	mongo *mongo.Client

	mu           sync.Mutex
	cleanupFuncs []func() error
}

// ListenerContainer holds dependencies for the MQTT listener service
type ListenerContainer struct {
	*Container
	config *config.ListenerConfig
}

// ApiContainer holds dependencies for the device API service
type ApiContainer struct {
	*Container
	config *config.ApiConfig
}

// NewListenerContainer loads listener configuration and wires the container
func NewListenerContainer() (*ListenerContainer, error) {
	cfg, err := config.LoadListenerConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load listener configuration: %w", err)
	}

	log := logger.NewLogger(&cfg.Logging)

	return &ListenerContainer{
		Container: &Container{database: cfg.Database, mongoCfg: cfg.Mongo, logger: log},
		config:    cfg,
	}, nil
}

// NewApiContainer loads API configuration and wires the container
func NewApiContainer() (*ApiContainer, error) {
	cfg, err := config.LoadApiConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load API configuration: %w", err)
	}

	log := logger.NewLogger(&cfg.Logging)

	return &ApiContainer{
		Container: &Container{database: cfg.Database, mongoCfg: cfg.Mongo, logger: log},
		config:    cfg,
	}, nil
}

// GetConfig returns the listener configuration
func (c *ListenerContainer) GetConfig() *config.ListenerConfig {
	return c.config
}

// GetConfig returns the API configuration
func (c *ApiContainer) GetConfig() *config.ApiConfig {
	return c.config
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logger.Logger {
	return c.logger
}

// GetDatabase returns the PostgreSQL connection, opening it on first use
func (c *Container) GetDatabase() (*sql.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return c.db, nil
	}

	db, err := sql.Open("postgres", c.database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(c.database.MaxConns)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	c.db = db
	c.cleanupFuncs = append(c.cleanupFuncs, db.Close)
	return c.db, nil
}

// GetMongo returns the MongoDB client, connecting on first use
func (c *Container) GetMongo() (*mongo.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mongo != nil {
		return c.mongo, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(c.mongoCfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	c.mongo = client
	c.cleanupFuncs = append(c.cleanupFuncs, func() error {
		return client.Disconnect(context.Background())
	})
	return c.mongo, nil
}

// Shutdown gracefully releases all held resources
func (c *Container) Shutdown(ctx context.Context) error {
	c.logger.Info("Shutting down container...")

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := len(c.cleanupFuncs) - 1; i >= 0; i-- {
		if err := c.cleanupFuncs[i](); err != nil {
			c.logger.ErrorWithError(err, "Error during cleanup")
		}
	}
	c.cleanupFuncs = nil

	c.logger.Info("Container shutdown complete")
	return nil
}
