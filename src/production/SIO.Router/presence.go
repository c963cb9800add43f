package siorouter

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"

	siomodels "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Models"
)

// offlinePayload is the broker's last-will payload for an abrupt disconnect
var offlinePayload = []byte("offline")

type statusPayload struct {
	Status   string `json:"status"`
	DeviceID string `json:"device_id"`
}

// handleStatus applies an online/offline transition idempotently. The
// status-changed hook runs iff the stored status actually changed, which the
// repository guarantees with an atomic compare-and-write per device row.
func (r *Router) handleStatus(ctx context.Context, deviceID string, payload []byte) {
	device, err := r.devices.GetByDeviceID(ctx, deviceID)
	if err == sql.ErrNoRows {
		r.logger.Logger.Debug().Str("device_id", deviceID).Msg("Unknown device for status")
		return
	}
	if err != nil {
		r.logger.Logger.Error().Err(err).Str("device_id", deviceID).Msg("Failed to load device for status")
		return
	}

	if bytes.Equal(payload, offlinePayload) {
		r.transition(ctx, device, siomodels.DeviceOffline, false)
		return
	}

	var status statusPayload
	if err := json.Unmarshal(payload, &status); err == nil && status.Status == string(siomodels.DeviceOnline) {
		r.transition(ctx, device, siomodels.DeviceOnline, true)
		return
	}

	r.logger.Logger.Debug().Str("device_id", deviceID).Str("payload", string(payload)).Msg("Unrecognized status payload")
}

func (r *Router) transition(ctx context.Context, device *siomodels.Device, newStatus siomodels.DeviceStatus, refreshActivity bool) {
	oldStatus, changed, err := r.devices.TransitionStatus(ctx, device.DeviceID, newStatus, refreshActivity)
	if err != nil {
		r.logger.Logger.Error().Err(err).Str("device_id", device.DeviceID).Str("status", string(newStatus)).Msg("Failed to transition device status")
		return
	}
	if !changed {
		return
	}

	device.Status = newStatus
	r.logger.Logger.Info().
		Str("device_id", device.DeviceID).
		Str("old_status", string(oldStatus)).
		Str("new_status", string(newStatus)).
		Msg("Device status changed")

	if r.onStatusChanged != nil {
		r.onStatusChanged(ctx, siomodels.DeviceStatusChanged{
			Device:    device,
			OldStatus: oldStatus,
			NewStatus: newStatus,
		})
	}
}
