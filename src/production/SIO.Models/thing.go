package siomodels

import "time"

// Thing groups related cloud variables and is optionally bound to one device.
// Its UUID is the identifier used in topic addressing.
type Thing struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	DeviceID  *int64    `json:"device_id,omitempty" db:"device_id"`
	UUID      string    `json:"uuid" db:"uuid"`
	Name      string    `json:"name" db:"name"`
	Timezone  string    `json:"timezone" db:"timezone"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Loaded relations, not columns
	Variables []CloudVariable `json:"variables,omitempty" db:"-"`
	Device    *Device         `json:"device,omitempty" db:"-"`
}

// VariableByName resolves a variable by its sketch name (exact, case-sensitive)
func (t *Thing) VariableByName(name string) *CloudVariable {
	for i := range t.Variables {
		if t.Variables[i].VariableName == name {
			return &t.Variables[i]
		}
	}
	return nil
}
