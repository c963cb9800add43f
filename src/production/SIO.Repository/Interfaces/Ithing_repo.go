package interfaces

import (
	"context"

	siomodels "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Models"
)

type ThingRepository interface {
	// GetByUUID loads a thing with its variables and linked device
	GetByUUID(ctx context.Context, uuid string) (*siomodels.Thing, error)

	// GetByID loads a thing record without relations
	GetByID(ctx context.Context, id int64) (*siomodels.Thing, error)

	// GetByDeviceRecordID loads the thing linked to a device row, with variables
	GetByDeviceRecordID(ctx context.Context, deviceID int64) (*siomodels.Thing, error)
}
