package siorouter

import (
	"context"
	"database/sql"
	"reflect"

	siomodels "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Models"
)

// applyBatch resolves each variable by name within the thing and applies its
// value under the variable's update policy. Unknown names are skipped without
// aborting the batch; the linked device's last activity is refreshed once at
// the end, best-effort.
func (r *Router) applyBatch(ctx context.Context, thingUUID string, data map[string]interface{}) {
	thing, err := r.things.GetByUUID(ctx, thingUUID)
	if err == sql.ErrNoRows {
		r.logger.Logger.Warn().Str("thing_uuid", thingUUID).Msg("Thing not found")
		return
	}
	if err != nil {
		r.logger.Logger.Error().Err(err).Str("thing_uuid", thingUUID).Msg("Failed to load thing")
		return
	}

	for variableName, raw := range data {
		variable := thing.VariableByName(variableName)
		if variable == nil {
			r.logger.Logger.Debug().Str("thing_uuid", thingUUID).Str("variable_name", variableName).Msg("Unknown variable")
			continue
		}

		if _, err := r.applyValue(ctx, thing, variable, raw); err != nil {
			r.logger.Logger.Error().Err(err).Str("thing_uuid", thingUUID).Str("variable_name", variableName).Msg("Failed to update variable value")
		}
	}

	if thing.DeviceID != nil {
		if err := r.devices.UpdateLastActivity(ctx, *thing.DeviceID, r.now()); err != nil && err != sql.ErrNoRows {
			r.logger.Logger.Error().Err(err).Str("thing_uuid", thingUUID).Msg("Failed to refresh device activity")
		}
	}
}

// applyValue applies one raw value to a variable. Under on_change a value
// structurally equal to the stored one is a no-op; under periodically the
// value is always applied and always emitted. Returns whether an update
// happened.
func (r *Router) applyValue(ctx context.Context, thing *siomodels.Thing, variable *siomodels.CloudVariable, raw interface{}) (bool, error) {
	newValue := siomodels.WrapValue(raw)
	oldValue := variable.LastValue

	if variable.UpdatePolicy == siomodels.UpdateOnChange && reflect.DeepEqual(oldValue, newValue) {
		return false, nil
	}

	appliedAt := r.now()
	if err := r.variables.UpdateValue(ctx, variable.ID, newValue, appliedAt); err != nil {
		return false, err
	}

	variable.LastValue = newValue
	variable.ValueUpdatedAt = &appliedAt

	if variable.Persist && r.readings != nil {
		reading := siomodels.Reading{
			ThingUUID:    thing.UUID,
			VariableName: variable.VariableName,
			Value:        newValue,
			RecordedAt:   appliedAt,
		}
		if err := r.readings.InsertReading(ctx, reading); err != nil {
			r.logger.Logger.Error().Err(err).Str("variable_name", variable.VariableName).Msg("Failed to archive reading")
		}
	}

	if r.onVariableUpdated != nil {
		r.onVariableUpdated(ctx, siomodels.CloudVariableUpdated{
			Variable: variable,
			OldValue: oldValue,
			NewValue: newValue,
		})
	}

	return true, nil
}
