package interfaces

import (
	"context"
	"time"

	siomodels "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Models"
)

type TriggerRepository interface {
	GetByID(ctx context.Context, id int64) (*siomodels.Trigger, error)

	// ListActiveByVariable returns active triggers referencing a variable
	ListActiveByVariable(ctx context.Context, variableID int64) ([]siomodels.Trigger, error)

	// ClaimFiring records last_triggered_at = now iff the trigger is outside
	// its cooldown window, as one atomic compare-and-set. Returns whether this
	// caller won the claim. A zero cooldown always claims.
	ClaimFiring(ctx context.Context, triggerID int64, now time.Time) (bool, error)
}
