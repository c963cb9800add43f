package sioactions

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-resty/resty/v2"
	logger "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Logger"
	siomodels "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Models"
	interfaces "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Repository/Interfaces"
)

const webhookTimeout = 10 * time.Second

// Executor performs the terminal side effect of a fired trigger. A missing
// action config is a configuration error: logged, not retried. Transport
// failures are returned to the task queue, which retries them.
type Executor struct {
	triggers  interfaces.TriggerRepository
	variables interfaces.CloudVariableRepository
	things    interfaces.ThingRepository
	mailer    Mailer
	http      *resty.Client
	logger    *logger.Logger
}

func NewExecutor(
	triggers interfaces.TriggerRepository,
	variables interfaces.CloudVariableRepository,
	things interfaces.ThingRepository,
	mailer Mailer,
	log *logger.Logger,
) *Executor {
	return &Executor{
		triggers:  triggers,
		variables: variables,
		things:    things,
		mailer:    mailer,
		http:      resty.New().SetTimeout(webhookTimeout),
		logger:    log.WithComponent("actions"),
	}
}

// ExecuteTrigger runs the action configured on a trigger by its action type
func (e *Executor) ExecuteTrigger(ctx context.Context, triggerID int64) error {
	trigger, err := e.triggers.GetByID(ctx, triggerID)
	if err == sql.ErrNoRows {
		e.logger.Logger.Warn().Int64("trigger_id", triggerID).Msg("Trigger vanished before action execution")
		return nil
	}
	if err != nil {
		return err
	}

	switch trigger.ActionType {
	case siomodels.ActionEmail:
		return e.sendEmail(ctx, trigger)
	case siomodels.ActionWebhook:
		return e.fireWebhook(ctx, trigger)
	default:
		e.logger.Logger.Warn().
			Int64("trigger_id", trigger.ID).
			Str("action_type", string(trigger.ActionType)).
			Msg("Unimplemented trigger action type")
		return nil
	}
}

// loadContext resolves the variable and owning thing a trigger references
func (e *Executor) loadContext(ctx context.Context, trigger *siomodels.Trigger) (*siomodels.CloudVariable, *siomodels.Thing, error) {
	variable, err := e.variables.GetByID(ctx, trigger.CloudVariableID)
	if err != nil {
		return nil, nil, err
	}

	thing, err := e.things.GetByID(ctx, variable.ThingID)
	if err != nil {
		return nil, nil, err
	}

	return variable, thing, nil
}
