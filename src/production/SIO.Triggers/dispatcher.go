package siotriggers

import (
	"context"
	"fmt"
	"time"

	logger "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Logger"
	siomodels "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Models"
	sioqueue "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Queue"
	interfaces "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Repository/Interfaces"
)

// ActionRunner executes the side effect of a fired trigger
type ActionRunner interface {
	ExecuteTrigger(ctx context.Context, triggerID int64) error
}

// Dispatcher reacts to variable updates: it evaluates every active trigger on
// the variable, claims the firing against the cooldown window, and enqueues
// at most one action task per satisfied trigger.
type Dispatcher struct {
	triggers interfaces.TriggerRepository
	queue    *sioqueue.Queue
	runner   ActionRunner
	logger   *logger.Logger
	now      func() time.Time
}

func NewDispatcher(triggers interfaces.TriggerRepository, queue *sioqueue.Queue, runner ActionRunner, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		triggers: triggers,
		queue:    queue,
		runner:   runner,
		logger:   log.WithComponent("trigger-dispatcher"),
		now:      time.Now,
	}
}

// HandleVariableUpdated is invoked synchronously on every applied variable
// update; the enqueued action task is the only asynchronous step.
func (d *Dispatcher) HandleVariableUpdated(ctx context.Context, event siomodels.CloudVariableUpdated) {
	currentValue, ok := event.NewValue["value"]
	if !ok || currentValue == nil {
		// Structured values without a scalar field cannot satisfy a trigger
		return
	}

	triggers, err := d.triggers.ListActiveByVariable(ctx, event.Variable.ID)
	if err != nil {
		d.logger.Logger.Error().Err(err).Int64("variable_id", event.Variable.ID).Msg("Failed to load triggers")
		return
	}

	for i := range triggers {
		trigger := &triggers[i]

		if !Evaluate(trigger, currentValue) {
			continue
		}

		claimed, err := d.triggers.ClaimFiring(ctx, trigger.ID, d.now())
		if err != nil {
			d.logger.Logger.Error().Err(err).Int64("trigger_id", trigger.ID).Msg("Failed to claim trigger firing")
			continue
		}
		if !claimed {
			// Within the cooldown window, or another evaluation won the race
			continue
		}

		d.logger.Logger.Info().
			Int64("trigger_id", trigger.ID).
			Str("trigger", trigger.Name).
			Str("variable_name", event.Variable.VariableName).
			Msg("Trigger fired")

		triggerID := trigger.ID
		task := sioqueue.TaskFunc{
			TaskName: fmt.Sprintf("execute-trigger-action:%d", triggerID),
			Fn: func(ctx context.Context) error {
				return d.runner.ExecuteTrigger(ctx, triggerID)
			},
		}
		if err := d.queue.Enqueue(task); err != nil {
			d.logger.Logger.Error().Err(err).Int64("trigger_id", triggerID).Msg("Failed to enqueue trigger action")
		}
	}
}
