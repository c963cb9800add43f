package implementation

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	siomodels "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Models"
)

type PostgresThingRepository struct {
	db *sql.DB
}

func NewPostgresThingRepository(db *sql.DB) *PostgresThingRepository {
	return &PostgresThingRepository{db: db}
}

func (r *PostgresThingRepository) GetByUUID(ctx context.Context, uuid string) (*siomodels.Thing, error) {
	thing, err := r.getThing(ctx, `WHERE uuid = $1`, uuid)
	if err != nil {
		return nil, err
	}
	return r.loadRelations(ctx, thing)
}

func (r *PostgresThingRepository) GetByID(ctx context.Context, id int64) (*siomodels.Thing, error) {
	return r.getThing(ctx, `WHERE id = $1`, id)
}

func (r *PostgresThingRepository) GetByDeviceRecordID(ctx context.Context, deviceID int64) (*siomodels.Thing, error) {
	thing, err := r.getThing(ctx, `WHERE device_id = $1`, deviceID)
	if err != nil {
		return nil, err
	}
	variables, err := r.listVariables(ctx, thing.ID)
	if err != nil {
		return nil, err
	}
	thing.Variables = variables
	return thing, nil
}

func (r *PostgresThingRepository) getThing(ctx context.Context, where string, arg interface{}) (*siomodels.Thing, error) {
	query := `
		SELECT id, user_id, device_id, uuid, name, timezone, created_at, updated_at
		FROM things ` + where

	var thing siomodels.Thing
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&thing.ID, &thing.UserID, &thing.DeviceID, &thing.UUID,
		&thing.Name, &thing.Timezone, &thing.CreatedAt, &thing.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &thing, nil
}

func (r *PostgresThingRepository) loadRelations(ctx context.Context, thing *siomodels.Thing) (*siomodels.Thing, error) {
	variables, err := r.listVariables(ctx, thing.ID)
	if err != nil {
		return nil, err
	}
	thing.Variables = variables

	if thing.DeviceID != nil {
		device, err := r.getDeviceByID(ctx, *thing.DeviceID)
		if err != nil && err != sql.ErrNoRows {
			return nil, err
		}
		thing.Device = device
	}

	return thing, nil
}

func (r *PostgresThingRepository) listVariables(ctx context.Context, thingID int64) ([]siomodels.CloudVariable, error) {
	query := `
		SELECT id, thing_id, uuid, name, variable_name, type, permission, update_policy,
		       update_parameter, min_value, max_value, last_value, value_updated_at, persist,
		       created_at, updated_at
		FROM cloud_variables
		WHERE thing_id = $1
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, thingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var variables []siomodels.CloudVariable
	for rows.Next() {
		variable, err := scanVariable(rows)
		if err != nil {
			return nil, err
		}
		variables = append(variables, *variable)
	}

	return variables, rows.Err()
}

func (r *PostgresThingRepository) getDeviceByID(ctx context.Context, id int64) (*siomodels.Device, error) {
	query := `
		SELECT id, user_id, device_id, name, type, status, secret_key, last_activity_at, metadata, created_at, updated_at
		FROM devices WHERE id = $1
	`

	var device siomodels.Device
	var metaJSON []byte

	err := r.db.QueryRowContext(ctx, query, id).Scan(
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
