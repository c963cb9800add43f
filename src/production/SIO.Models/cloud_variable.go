package siomodels

import "time"

// CloudVariableType is the declared type of a cloud variable
type CloudVariableType string

const (
	TypeInt         CloudVariableType = "int"
	TypeFloat       CloudVariableType = "float"
	TypeBoolean     CloudVariableType = "boolean"
	TypeString      CloudVariableType = "string"
	TypeTemperature CloudVariableType = "temperature"
	TypeHumidity    CloudVariableType = "humidity"
	TypeLuminosity  CloudVariableType = "luminosity"
	TypePercentage  CloudVariableType = "percentage"
	TypeVoltage     CloudVariableType = "voltage"
	TypeCurrent     CloudVariableType = "current"
	TypePower       CloudVariableType = "power"
	TypePressure    CloudVariableType = "pressure"
	TypeSpeed       CloudVariableType = "speed"
	TypeLocation    CloudVariableType = "location"
	TypeColor       CloudVariableType = "color"
	TypeSwitch      CloudVariableType = "switch"
	TypeDimmedLight CloudVariableType = "dimmed_light"
)

// Label returns the human-readable name of the variable type
func (t CloudVariableType) Label() string {
	switch t {
	case TypeInt:
		return "Integer"
	case TypeDimmedLight:
		return "Dimmed Light"
	default:
		if len(t) == 0 {
			return ""
		}
		return string(t[0]-'a'+'A') + string(t[1:])
	}
}

// DeclarationType returns the C++ type used in generated device sketches
func (t CloudVariableType) DeclarationType() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBoolean:
		return "bool"
	case TypeString:
		return "String"
	case TypeTemperature:
		return "CloudTemperature"
	case TypeHumidity:
		return "CloudHumidity"
	case TypeLuminosity:
		return "CloudLuminosity"
	case TypePercentage:
		return "CloudPercentage"
	case TypeVoltage:
		return "CloudVoltage"
	case TypeCurrent:
		return "CloudCurrent"
	case TypePower:
		return "CloudPower"
	case TypePressure:
		return "CloudPressure"
	case TypeSpeed:
		return "CloudSpeed"
	case TypeLocation:
		return "CloudLocation"
	case TypeColor:
		return "CloudColor"
	case TypeSwitch:
		return "CloudSwitch"
	case TypeDimmedLight:
		return "CloudDimmedLight"
	default:
		return "String"
	}
}

// VariablePermission governs whether the cloud may write to the variable
type VariablePermission string

const (
	PermissionReadOnly  VariablePermission = "read_only"
	PermissionReadWrite VariablePermission = "read_write"
)

// VariableUpdatePolicy governs when an incoming value is applied
type VariableUpdatePolicy string

const (
	// UpdateOnChange suppresses updates whose value equals the stored value
	UpdateOnChange VariableUpdatePolicy = "on_change"
	// UpdatePeriodically always applies; the parameter is the republish interval
	UpdatePeriodically VariableUpdatePolicy = "periodically"
)

// CloudVariable is a named, typed data point belonging to one thing.
// VariableName is unique within the owning thing.
type CloudVariable struct {
	ID              int64                  `json:"id" db:"id"`
	ThingID         int64                  `json:"thing_id" db:"thing_id"`
	UUID            string                 `json:"uuid" db:"uuid"`
	Name            string                 `json:"name" db:"name"`
	VariableName    string                 `json:"variable_name" db:"variable_name"`
	Type            CloudVariableType      `json:"type" db:"type"`
	Permission      VariablePermission     `json:"permission" db:"permission"`
	UpdatePolicy    VariableUpdatePolicy   `json:"update_policy" db:"update_policy"`
	UpdateParameter *float64               `json:"update_parameter,omitempty" db:"update_parameter"`
	MinValue        *float64               `json:"min_value,omitempty" db:"min_value"`
	MaxValue        *float64               `json:"max_value,omitempty" db:"max_value"`
	LastValue       map[string]interface{} `json:"last_value,omitempty" db:"last_value"`
	ValueUpdatedAt  *time.Time             `json:"value_updated_at,omitempty" db:"value_updated_at"`
	Persist         bool                   `json:"persist" db:"persist"`
	CreatedAt       time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at" db:"updated_at"`
}

// Declaration renders the C++ declaration for generated sketches
func (v *CloudVariable) Declaration() string {
	return v.Type.DeclarationType() + " " + v.VariableName + ";"
}

// CurrentScalar returns the scalar stored under the "value" key, if any
func (v *CloudVariable) CurrentScalar() (interface{}, bool) {
	if v.LastValue == nil {
		return nil, false
	}
	raw, ok := v.LastValue["value"]
	if !ok || raw == nil {
		return nil, false
	}
	return raw, true
}

// WrapValue normalizes a raw value into the stored representation:
// scalars become {"value": v}, structured objects pass through unchanged.
func WrapValue(raw interface{}) map[string]interface{} {
	if m, ok := raw.(map[string]interface{}); ok {
		return m
	}
	return map[string]interface{}{"value": raw}
}
