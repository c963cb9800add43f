package siorouter

import (
	"context"
	"database/sql"
	"sync"
	"time"

	logger "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Logger"
	siomodels "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Models"
)

// In-memory repository fakes shared by the router tests.

type fakeDeviceRepo struct {
	mu              sync.Mutex
	devices         map[string]*siomodels.Device
	activityBumps   map[int64]int
	lookupCalls     int
	transitionCalls int
}

func newFakeDeviceRepo(devices ...*siomodels.Device) *fakeDeviceRepo {
	repo := &fakeDeviceRepo{
		devices:       make(map[string]*siomodels.Device),
		activityBumps: make(map[int64]int),
	}
	for _, d := range devices {
		repo.devices[d.DeviceID] = d
	}
	return repo
}

func (f *fakeDeviceRepo) CreateDevice(_ context.Context, device *siomodels.Device) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.devices[device.DeviceID] = device
	return nil
}

func (f *fakeDeviceRepo) GetByDeviceID(_ context.Context, deviceID string) (*siomodels.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookupCalls++
	device, ok := f.devices[deviceID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *device
	return &copied, nil
}

func (f *fakeDeviceRepo) TransitionStatus(_ context.Context, deviceID string, newStatus siomodels.DeviceStatus, refreshActivity bool) (siomodels.DeviceStatus, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transitionCalls++

	device, ok := f.devices[deviceID]
	if !ok {
		return newStatus, false, nil
	}

	old := device.Status
	if old == newStatus {
		return old, false, nil
	}

	device.Status = newStatus
	if refreshActivity {
		f.activityBumps[device.ID]++
	}
	return old, true, nil
}

func (f *fakeDeviceRepo) UpdateLastActivity(_ context.Context, id int64, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activityBumps[id]++
	return nil
}

func (f *fakeDeviceRepo) SetMetadata(_ context.Context, id int64, key string, value interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, device := range f.devices {
		if device.ID == id {
			if device.Metadata == nil {
				device.Metadata = make(map[string]interface{})
			}
			device.Metadata[key] = value
			return nil
		}
	}
	return sql.ErrNoRows
}

type fakeThingRepo struct {
	mu          sync.Mutex
	things      map[string]*siomodels.Thing
	lookupCalls int
}

func newFakeThingRepo(things ...*siomodels.Thing) *fakeThingRepo {
	repo := &fakeThingRepo{things: make(map[string]*siomodels.Thing)}
	for _, t := range things {
		repo.things[t.UUID] = t
	}
	return repo
}

func (f *fakeThingRepo) GetByUUID(_ context.Context, uuid string) (*siomodels.Thing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookupCalls++
	thing, ok := f.things[uuid]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return thing, nil
}

func (f *fakeThingRepo) GetByID(_ context.Context, id int64) (*siomodels.Thing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, thing := range f.things {
		if thing.ID == id {
			return thing, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeThingRepo) GetByDeviceRecordID(_ context.Context, deviceID int64) (*siomodels.Thing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, thing := range f.things {
		if thing.DeviceID != nil && *thing.DeviceID == deviceID {
			return thing, nil
		}
	}
	return nil, sql.ErrNoRows
}

type variableUpdate struct {
	ID    int64
	Value map[string]interface{}
}

type fakeVariableRepo struct {
	mu      sync.Mutex
	updates []variableUpdate
}

func (f *fakeVariableRepo) GetByID(_ context.Context, _ int64) (*siomodels.CloudVariable, error) {
	return nil, sql.ErrNoRows
}

func (f *fakeVariableRepo) UpdateValue(_ context.Context, id int64, value map[string]interface{}, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, variableUpdate{ID: id, Value: value})
	return nil
}

func (f *fakeVariableRepo) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updates)
}

type fakeReadingRepo struct {
	mu       sync.Mutex
	readings []siomodels.Reading
}

func (f *fakeReadingRepo) InsertReading(_ context.Context, reading siomodels.Reading) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readings = append(f.readings, reading)
	return nil
}

func newTestRouter(devices *fakeDeviceRepo, things *fakeThingRepo, variables *fakeVariableRepo) *Router {
	return New(devices, things, variables, logger.NewNopLogger())
}
