package interfaces

import (
	"context"
	"time"

	siomodels "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Models"
)

type CloudVariableRepository interface {
	GetByID(ctx context.Context, id int64) (*siomodels.CloudVariable, error)

	// UpdateValue persists a new value and its timestamp
	UpdateValue(ctx context.Context, id int64, value map[string]interface{}, updatedAt time.Time) error
}
