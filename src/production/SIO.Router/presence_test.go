package siorouter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	siomodels "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Models"
)

func testDevice(status siomodels.DeviceStatus) *siomodels.Device {
	return &siomodels.Device{
		ID:       1,
		DeviceID: "dev-1",
		Name:     "Greenhouse Node",
		Status:   status,
	}
}

func collectStatusEvents(router *Router) *[]siomodels.DeviceStatusChanged {
	events := &[]siomodels.DeviceStatusChanged{}
	router.OnStatusChanged(func(_ context.Context, event siomodels.DeviceStatusChanged) {
		*events = append(*events, event)
	})
	return events
}

func TestOnlineTransitionEmitsEvent(t *testing.T) {
	devices := newFakeDeviceRepo(testDevice(siomodels.DeviceOffline))
	router := newTestRouter(devices, newFakeThingRepo(), &fakeVariableRepo{})
	events := collectStatusEvents(router)

	router.HandleMessage(context.Background(), "smartiot/dev-1/status", []byte(`{"status":"online"}`))

	require.Len(t, *events, 1)
	event := (*events)[0]
	assert.Equal(t, siomodels.DeviceOffline, event.OldStatus)
	assert.Equal(t, siomodels.DeviceOnline, event.NewStatus)
	assert.Equal(t, "dev-1", event.Device.DeviceID)

	// coming online also counts as activity
	assert.Equal(t, 1, devices.activityBumps[1])
}

func TestRepeatedOnlineIsIdempotent(t *testing.T) {
	devices := newFakeDeviceRepo(testDevice(siomodels.DeviceOffline))
	router := newTestRouter(devices, newFakeThingRepo(), &fakeVariableRepo{})
	events := collectStatusEvents(router)

	payload := []byte(`{"status":"online"}`)
	router.HandleMessage(context.Background(), "smartiot/dev-1/status", payload)
	router.HandleMessage(context.Background(), "smartiot/dev-1/status", payload)
	router.HandleMessage(context.Background(), "smartiot/dev-1/status", payload)

	assert.Len(t, *events, 1)
}

func TestOfflineLastWillPayload(t *testing.T) {
	devices := newFakeDeviceRepo(testDevice(siomodels.DeviceOnline))
	router := newTestRouter(devices, newFakeThingRepo(), &fakeVariableRepo{})
	events := collectStatusEvents(router)

	// the broker's LWT is the bare literal, not JSON
	router.HandleMessage(context.Background(), "smartiot/dev-1/status", []byte("offline"))

	require.Len(t, *events, 1)
	assert.Equal(t, siomodels.DeviceOnline, (*events)[0].OldStatus)
	assert.Equal(t, siomodels.DeviceOffline, (*events)[0].NewStatus)

	// an abrupt disconnect does not refresh activity
	assert.Zero(t, devices.activityBumps[1])
}

func TestOnlineOfflineRoundTripEmitsBoth(t *testing.T) {
	devices := newFakeDeviceRepo(testDevice(siomodels.DeviceOffline))
	router := newTestRouter(devices, newFakeThingRepo(), &fakeVariableRepo{})
	events := collectStatusEvents(router)

	router.HandleMessage(context.Background(), "smartiot/dev-1/status", []byte(`{"status":"online"}`))
	router.HandleMessage(context.Background(), "smartiot/dev-1/status", []byte("offline"))
	router.HandleMessage(context.Background(), "smartiot/dev-1/status", []byte(`{"status":"online"}`))

	require.Len(t, *events, 3)
	assert.Equal(t, siomodels.DeviceOnline, (*events)[0].NewStatus)
	assert.Equal(t, siomodels.DeviceOffline, (*events)[1].NewStatus)
	assert.Equal(t, siomodels.DeviceOnline, (*events)[2].NewStatus)
}

func TestUnknownDeviceStatusIgnored(t *testing.T) {
	devices := newFakeDeviceRepo()
	router := newTestRouter(devices, newFakeThingRepo(), &fakeVariableRepo{})
	events := collectStatusEvents(router)

	router.HandleMessage(context.Background(), "smartiot/ghost/status", []byte(`{"status":"online"}`))

	assert.Empty(t, *events)
	assert.Zero(t, devices.transitionCalls)
}

func TestUnrecognizedStatusPayloadIgnored(t *testing.T) {
	devices := newFakeDeviceRepo(testDevice(siomodels.DeviceOffline))
	router := newTestRouter(devices, newFakeThingRepo(), &fakeVariableRepo{})
	events := collectStatusEvents(router)

	router.HandleMessage(context.Background(), "smartiot/dev-1/status", []byte(`{"status":"sleeping"}`))
	router.HandleMessage(context.Background(), "smartiot/dev-1/status", []byte("garbage"))

	assert.Empty(t, *events)
	assert.Zero(t, devices.transitionCalls)
}
