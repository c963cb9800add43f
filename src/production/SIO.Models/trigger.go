package siomodels

import "time"

// TriggerOperator is the comparison applied between a variable value and the
// trigger threshold
type TriggerOperator string

const (
	OperatorEquals         TriggerOperator = "equals"
	OperatorNotEquals      TriggerOperator = "not_equals"
	OperatorGreaterThan    TriggerOperator = "greater_than"
	OperatorLessThan       TriggerOperator = "less_than"
	OperatorGreaterOrEqual TriggerOperator = "greater_or_equal"
	OperatorLessOrEqual    TriggerOperator = "less_or_equal"
)

// Label returns the human-readable name of the operator
func (o TriggerOperator) Label() string {
	switch o {
	case OperatorEquals:
		return "Equals"
	case OperatorNotEquals:
		return "Not Equals"
	case OperatorGreaterThan:
		return "Greater Than"
	case OperatorLessThan:
		return "Less Than"
	case OperatorGreaterOrEqual:
		return "Greater or Equal"
	case OperatorLessOrEqual:
		return "Less or Equal"
	default:
		return string(o)
	}
}

// Symbol returns the comparison symbol shown in notifications
func (o TriggerOperator) Symbol() string {
	switch o {
	case OperatorEquals:
		return "=="
	case OperatorNotEquals:
		return "!="
	case OperatorGreaterThan:
		return ">"
	case OperatorLessThan:
		return "<"
	case OperatorGreaterOrEqual:
		return ">="
	case OperatorLessOrEqual:
		return "<="
	default:
		return "?"
	}
}

// TriggerActionType identifies the side effect a firing trigger performs
type TriggerActionType string

const (
	ActionEmail            TriggerActionType = "email"
	ActionWebhook          TriggerActionType = "webhook"
	ActionPushNotification TriggerActionType = "push_notification"
)

// Label returns the human-readable name of the action type
func (t TriggerActionType) Label() string {
	switch t {
	case ActionEmail:
		return "Email"
	case ActionWebhook:
		return "Webhook"
	case ActionPushNotification:
		return "Push Notification"
	default:
		return string(t)
	}
}

// IsImplemented reports whether an executor exists for this action type
func (t TriggerActionType) IsImplemented() bool {
	return t == ActionEmail || t == ActionWebhook
}

// Trigger is a standing rule on one cloud variable: when the variable's value
// satisfies the comparison, the configured action fires, subject to a cooldown.
type Trigger struct {
	ID              int64                  `json:"id" db:"id"`
	UserID          int64                  `json:"user_id" db:"user_id"`
	CloudVariableID int64                  `json:"cloud_variable_id" db:"cloud_variable_id"`
	UUID            string                 `json:"uuid" db:"uuid"`
	Name            string                 `json:"name" db:"name"`
	Operator        TriggerOperator        `json:"operator" db:"operator"`
	Value           string                 `json:"value" db:"value"`
	ActionType      TriggerActionType      `json:"action_type" db:"action_type"`
	ActionConfig    map[string]interface{} `json:"action_config,omitempty" db:"action_config"`
	IsActive        bool                   `json:"is_active" db:"is_active"`
	LastTriggeredAt *time.Time             `json:"last_triggered_at,omitempty" db:"last_triggered_at"`
	CooldownSeconds int                    `json:"cooldown_seconds" db:"cooldown_seconds"`
	CreatedAt       time.Time              `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at" db:"updated_at"`
}

// IsOnCooldown reports whether the trigger fired within its cooldown window
func (t *Trigger) IsOnCooldown(now time.Time) bool {
	if t.CooldownSeconds == 0 || t.LastTriggeredAt == nil {
		return false
	}
	return t.LastTriggeredAt.Add(time.Duration(t.CooldownSeconds) * time.Second).After(now)
}

// ConfigString returns a string field from the action config
func (t *Trigger) ConfigString(key string) string {
	if t.ActionConfig == nil {
		return ""
	}
	if s, ok := t.ActionConfig[key].(string); ok {
		return s
	}
	return ""
}
