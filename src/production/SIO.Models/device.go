package siomodels

import "time"

// DeviceStatus is the presence state of a device
type DeviceStatus string

const (
	DeviceOnline       DeviceStatus = "online"
	DeviceOffline      DeviceStatus = "offline"
	DeviceProvisioning DeviceStatus = "provisioning"
)

// Label returns the human-readable name of the status
func (s DeviceStatus) Label() string {
	switch s {
	case DeviceOnline:
		return "Online"
	case DeviceOffline:
		return "Offline"
	case DeviceProvisioning:
		return "Provisioning"
	default:
		return string(s)
	}
}

// Color returns the dashboard indicator color for the status
func (s DeviceStatus) Color() string {
	switch s {
	case DeviceOnline:
		return "green"
	case DeviceOffline:
		return "red"
	case DeviceProvisioning:
		return "yellow"
	default:
		return "gray"
	}
}

// DeviceType identifies the hardware family of a device
type DeviceType string

const (
	DeviceArduino     DeviceType = "arduino"
	DeviceEsp32       DeviceType = "esp32"
	DeviceEsp8266     DeviceType = "esp8266"
	DeviceStm32       DeviceType = "stm32"
	DeviceRaspberryPi DeviceType = "raspberry_pi"
	DeviceGeneric     DeviceType = "generic"
)

// Label returns the human-readable name of the device type
func (t DeviceType) Label() string {
	switch t {
	case DeviceArduino:
		return "Arduino"
	case DeviceEsp32:
		return "ESP32"
	case DeviceEsp8266:
		return "ESP8266"
	case DeviceStm32:
		return "STM32"
	case DeviceRaspberryPi:
		return "Raspberry Pi"
	default:
		return "Generic"
	}
}

// Device represents a physical device connecting over MQTT.
// SecretKey holds a bcrypt hash; the plaintext is shown once at creation.
type Device struct {
	ID             int64                  `json:"id" db:"id"`
	UserID         int64                  `json:"user_id" db:"user_id"`
	DeviceID       string                 `json:"device_id" db:"device_id"`
	Name           string                 `json:"name" db:"name"`
	Type           DeviceType             `json:"type" db:"type"`
	Status         DeviceStatus           `json:"status" db:"status"`
	SecretKey      string                 `json:"-" db:"secret_key"`
	LastActivityAt *time.Time             `json:"last_activity_at,omitempty" db:"last_activity_at"`
	Metadata       map[string]interface{} `json:"metadata,omitempty" db:"metadata"`
	CreatedAt      time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at" db:"updated_at"`
}

// IsOnline reports whether the device is currently online
func (d *Device) IsOnline() bool {
	return d.Status == DeviceOnline
}

// IsOffline reports whether the device is currently offline
func (d *Device) IsOffline() bool {
	return d.Status == DeviceOffline
}

// GetMetadata returns a metadata value by key
func (d *Device) GetMetadata(key string) (interface{}, bool) {
	if d.Metadata == nil {
		return nil, false
	}
	v, ok := d.Metadata[key]
	return v, ok
}
