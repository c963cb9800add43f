package implementation

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	siomodels "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Models"
)

type PostgresDeviceRepository struct {
	db *sql.DB
}

func NewPostgresDeviceRepository(db *sql.DB) *PostgresDeviceRepository {
	return &PostgresDeviceRepository{db: db}
}

func (r *PostgresDeviceRepository) CreateDevice(ctx context.Context, device *siomodels.Device) error {
	query := `
		INSERT INTO devices (user_id, device_id, name, type, status, secret_key, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING id, created_at, updated_at
	`

	metaJSON, err := json.Marshal(ensureMapNotNull(device.Metadata))
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	return r.db.QueryRowContext(ctx, query,
		device.UserID, device.DeviceID, device.Name, string(device.Type),
		string(device.Status), device.SecretKey, metaJSON,
	).Scan(&device.ID, &device.CreatedAt, &device.UpdatedAt)
}

func (r *PostgresDeviceRepository) GetByDeviceID(ctx context.Context, deviceID string) (*siomodels.Device, error) {
	query := `
		SELECT id, user_id, device_id, name, type, status, secret_key, last_activity_at, metadata, created_at, updated_at
		FROM devices WHERE device_id = $1
	`

	var device siomodels.Device
	var metaJSON []byte

	err := r.db.QueryRowContext(ctx, query, deviceID).Scan(
		&device.ID, &device.UserID, &device.DeviceID, &device.Name,
		&device.Type, &device.Status, &device.SecretKey,
		&device.LastActivityAt, &metaJSON, &device.CreatedAt, &device.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(metaJSON, &device.Metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}

	return &device, nil
}

// TransitionStatus performs the compare-and-write as a single statement.
// The row is locked, the prior status inspected, and the write applied only
// when the status actually changes, so overlapping status messages for the
// same device cannot both observe a transition.
func (r *PostgresDeviceRepository) TransitionStatus(ctx context.Context, deviceID string, newStatus siomodels.DeviceStatus, refreshActivity bool) (siomodels.DeviceStatus, bool, error) {
	query := `
		UPDATE devices d
		SET status = $2,
		    last_activity_at = CASE WHEN $3 THEN now() ELSE d.last_activity_at END,
		    updated_at = now()
		FROM (SELECT id, status FROM devices WHERE device_id = $1 FOR UPDATE) prev
		WHERE d.id = prev.id AND prev.status <> $2
		RETURNING prev.status
	`

	var oldStatus string
	err := r.db.QueryRowContext(ctx, query, deviceID, string(newStatus), refreshActivity).Scan(&oldStatus)
	if err == sql.ErrNoRows {
		// Unknown device or status already equal: no transition
		return newStatus, false, nil
	}
	if err != nil {
		return "", false, err
	}

	return siomodels.DeviceStatus(oldStatus), true, nil
}

func (r *PostgresDeviceRepository) UpdateLastActivity(ctx context.Context, id int64, now time.Time) error {
	query := `UPDATE devices SET last_activity_at = $2, updated_at = now() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, now)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func (r *PostgresDeviceRepository) SetMetadata(ctx context.Context, id int64, key string, value interface{}) error {
	query := `
		UPDATE devices
		SET metadata = jsonb_set(COALESCE(metadata, '{}'::jsonb), ARRAY[$2], $3::jsonb),
		    updated_at = now()
		WHERE id = $1
	`

	valueJSON, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata value: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, id, key, valueJSON)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}

	return nil
}
