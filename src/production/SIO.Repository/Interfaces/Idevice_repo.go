package interfaces

import (
	"context"
	"time"

	siomodels "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Models"
)

type DeviceRepository interface {
	// Create device with a pre-hashed secret key
	CreateDevice(ctx context.Context, device *siomodels.Device) error

	// Read device by its public identifier
	GetByDeviceID(ctx context.Context, deviceID string) (*siomodels.Device, error)

	// TransitionStatus writes newStatus iff the stored status differs, as a
	// single atomic step. Returns the prior status and whether a row changed.
	// refreshActivity additionally bumps last_activity_at on transition.
	TransitionStatus(ctx context.Context, deviceID string, newStatus siomodels.DeviceStatus, refreshActivity bool) (siomodels.DeviceStatus, bool, error)

	// UpdateLastActivity bumps last_activity_at to now
	UpdateLastActivity(ctx context.Context, id int64, now time.Time) error

	// SetMetadata writes a single key into the device metadata map
	SetMetadata(ctx context.Context, id int64, key string, value interface{}) error
}
