package implementation

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	siomodels "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Models"
)

type PostgresCloudVariableRepository struct {
	db *sql.DB
}

func NewPostgresCloudVariableRepository(db *sql.DB) *PostgresCloudVariableRepository {
	return &PostgresCloudVariableRepository{db: db}
}

func (r *PostgresCloudVariableRepository) GetByID(ctx context.Context, id int64) (*siomodels.CloudVariable, error) {
	query := `
		SELECT id, thing_id, uuid, name, variable_name, type, permission, update_policy,
		       update_parameter, min_value, max_value, last_value, value_updated_at, persist,
		       created_at, updated_at
		FROM cloud_variables WHERE id = $1
	`

	return scanVariable(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresCloudVariableRepository) UpdateValue(ctx context.Context, id int64, value map[string]interface{}, updatedAt time.Time) error {
	query := `
		UPDATE cloud_variables
		SET last_value = $2, value_updated_at = $3, updated_at = now()
		WHERE id = $1
	`

	valueJSON, err := json.Marshal(ensureMapNotNull(value))
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, id, valueJSON, updatedAt)
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

// rowScanner covers both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanVariable(row rowScanner) (*siomodels.CloudVariable, error) {
	var variable siomodels.CloudVariable
	var valueJSON []byte

	err := row.Scan(
		&variable.ID, &variable.ThingID, &variable.UUID, &variable.Name,
		&variable.VariableName, &variable.Type, &variable.Permission,
		&variable.UpdatePolicy, &variable.UpdateParameter,
		&variable.MinValue, &variable.MaxValue, &valueJSON,
		&variable.ValueUpdatedAt, &variable.Persist,
		&variable.CreatedAt, &variable.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(valueJSON) > 0 {
		if err := json.Unmarshal(valueJSON, &variable.LastValue); err != nil {
			return nil, fmt.Errorf("failed to unmarshal last_value: %w", err)
		}
	}

	return &variable, nil
}
