package implementation

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	siomodels "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Models"
)

type PostgresTriggerRepository struct {
	db *sql.DB
}

func NewPostgresTriggerRepository(db *sql.DB) *PostgresTriggerRepository {
	return &PostgresTriggerRepository{db: db}
}

const triggerColumns = `id, user_id, cloud_variable_id, uuid, name, operator, value,
	action_type, action_config, is_active, last_triggered_at, cooldown_seconds,
	created_at, updated_at`

func (r *PostgresTriggerRepository) GetByID(ctx context.Context, id int64) (*siomodels.Trigger, error) {
	query := `SELECT ` + triggerColumns + ` FROM triggers WHERE id = $1`
	return scanTrigger(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresTriggerRepository) ListActiveByVariable(ctx context.Context, variableID int64) ([]siomodels.Trigger, error) {
	query := `
		SELECT ` + triggerColumns + `
		FROM triggers
		WHERE cloud_variable_id = $1 AND is_active = true
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, variableID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var triggers []siomodels.Trigger
	for rows.Next() {
		trigger, err := scanTrigger(rows)
		if err != nil {
			return nil, err
		}
		triggers = append(triggers, *trigger)
	}

	return triggers, rows.Err()
}

// ClaimFiring is the de-duplication boundary for trigger actions: the cooldown
// check and the last_triggered_at write happen in one statement, so two racing
// evaluations of the same trigger cannot both claim the firing.
func (r *PostgresTriggerRepository) ClaimFiring(ctx context.Context, triggerID int64, now time.Time) (bool, error) {
	query := `
		UPDATE triggers
		SET last_triggered_at = $2, updated_at = now()
		WHERE id = $1
		  AND (cooldown_seconds = 0
		       OR last_triggered_at IS NULL
		       OR last_triggered_at + (cooldown_seconds * interval '1 second') <= $2)
	`

	result, err := r.db.ExecContext(ctx, query, triggerID, now)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected == 1, nil
}

func scanTrigger(row rowScanner) (*siomodels.Trigger, error) {
	var trigger siomodels.Trigger
	var configJSON []byte

	err := row.Scan(
		&trigger.ID, &trigger.UserID, &trigger.CloudVariableID, &trigger.UUID,
		&trigger.Name, &trigger.Operator, &trigger.Value,
		&trigger.ActionType, &configJSON, &trigger.IsActive,
		&trigger.LastTriggeredAt, &trigger.CooldownSeconds,
		&trigger.CreatedAt, &trigger.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(configJSON) > 0 {
		if err := json.Unmarshal(configJSON, &trigger.ActionConfig); err != nil {
			return nil, fmt.Errorf("failed to unmarshal action_config: %w", err)
		}
	}

	return &trigger, nil
}
