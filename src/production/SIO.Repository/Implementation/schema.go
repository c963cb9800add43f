package implementation

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema statements honor the platform's uniqueness constraints:
// devices.device_id and (thing_id, variable_name).
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS devices (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL,
		device_id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT 'generic',
		status TEXT NOT NULL DEFAULT 'provisioning',
		secret_key TEXT NOT NULL,
		last_activity_at TIMESTAMPTZ,
		metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS things (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL,
		device_id BIGINT UNIQUE REFERENCES devices(id) ON DELETE SET NULL,
		uuid TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		timezone TEXT NOT NULL DEFAULT 'UTC',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS cloud_variables (
		id BIGSERIAL PRIMARY KEY,
		thing_id BIGINT NOT NULL REFERENCES things(id) ON DELETE CASCADE,
		uuid TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		variable_name TEXT NOT NULL,
		type TEXT NOT NULL,
		permission TEXT NOT NULL DEFAULT 'read_write',
		update_policy TEXT NOT NULL DEFAULT 'on_change',
		update_parameter NUMERIC(10,2),
		min_value NUMERIC(10,2),
		max_value NUMERIC(10,2),
		last_value JSONB,
		value_updated_at TIMESTAMPTZ,
		persist BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (thing_id, variable_name)
	)`,
	`CREATE TABLE IF NOT EXISTS triggers (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL,
		cloud_variable_id BIGINT NOT NULL REFERENCES cloud_variables(id) ON DELETE CASCADE,
		uuid TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		operator TEXT NOT NULL,
		value TEXT NOT NULL,
		action_type TEXT NOT NULL,
		action_config JSONB,
		is_active BOOLEAN NOT NULL DEFAULT true,
		last_triggered_at TIMESTAMPTZ,
		cooldown_seconds INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_triggers_variable_active
		ON triggers (cloud_variable_id) WHERE is_active`,
}

// EnsureSchema creates the tables if they do not exist
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
