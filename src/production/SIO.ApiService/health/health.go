package health

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// HealthChecker provides health check functionality
type HealthChecker struct {
	db    *sql.DB
	mongo *mongo.Client
}

// NewHealthChecker creates a new health checker. The mongo client may be nil
// when the readings archive is disabled.
func NewHealthChecker(db *sql.DB, mongoClient *mongo.Client) *HealthChecker {
	return &HealthChecker{db: db, mongo: mongoClient}
}

// PingPostgres checks if the PostgreSQL connection is healthy
func (h *HealthChecker) PingPostgres(ctx context.Context) error {
	if h.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	if err := h.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	var result int
	if err := h.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database query failed: %w", err)
	}
	return nil
}

// PingMongo checks if the MongoDB connection is healthy
func (h *HealthChecker) PingMongo(ctx context.Context) error {
	if h.mongo == nil {
		return fmt.Errorf("mongo client is nil")
	}
	return h.mongo.Ping(ctx, readpref.Primary())
}

// GetHealthStatus returns the current health status
func (h *HealthChecker) GetHealthStatus(ctx context.Context) map[string]interface{} {
	checks := make(map[string]interface{})
	overallStatus := "ok"

	if err := h.PingPostgres(ctx); err != nil {
		checks["postgres"] = map[string]interface{}{"status": "error", "error": err.Error()}
		overallStatus = "degraded"
	} else {
		checks["postgres"] = map[string]interface{}{"status": "ok"}
	}

	if h.mongo != nil {
		if err := h.PingMongo(ctx); err != nil {
			checks["mongo"] = map[string]interface{}{"status": "error", "error": err.Error()}
			overallStatus = "degraded"
		} else {
			checks["mongo"] = map[string]interface{}{"status": "ok"}
		}
	}

	return map[string]interface{}{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   "1.0.0",
		"checks":    checks,
	}
}
