package siomodels

// DeviceStatusChanged is emitted when a device's presence state actually
// transitions. Duplicate status messages do not produce one.
type DeviceStatusChanged struct {
	Device    *Device
	OldStatus DeviceStatus
	NewStatus DeviceStatus
}

// CloudVariableUpdated is emitted when a variable's value is applied under its
// update policy. OldValue may be nil for a first write.
type CloudVariableUpdated struct {
	Variable *CloudVariable
	OldValue map[string]interface{}
	NewValue map[string]interface{}
}
