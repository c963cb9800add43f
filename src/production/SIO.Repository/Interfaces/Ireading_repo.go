package interfaces

import (
	"context"

	siomodels "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Models"
)

type ReadingRepository interface {
	// InsertReading archives one applied value of a persisted variable
	InsertReading(ctx context.Context, reading siomodels.Reading) error
}
