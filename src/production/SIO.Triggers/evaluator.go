package siotriggers

import (
	"strconv"

	siomodels "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Models"
)

// Evaluate decides whether a trigger's condition is met by the current value.
// When both sides parse as numbers they compare as float64, including exact
// equality for equals/not_equals; otherwise both sides compare as strings.
// Pure: no side effects, safe to call concurrently.
func Evaluate(trigger *siomodels.Trigger, currentValue interface{}) bool {
	current, currentIsNumeric := numericValue(currentValue)
	threshold, thresholdIsNumeric := parseFloat(trigger.Value)

	if currentIsNumeric && thresholdIsNumeric {
		return compareNumeric(current, trigger.Operator, threshold)
	}

	return compareString(stringValue(currentValue), trigger.Operator, trigger.Value)
}

func compareNumeric(current float64, operator siomodels.TriggerOperator, threshold float64) bool {
	switch operator {
	case siomodels.OperatorEquals:
		return current == threshold
	case siomodels.OperatorNotEquals:
		return current != threshold
	case siomodels.OperatorGreaterThan:
		return current > threshold
	case siomodels.OperatorLessThan:
		return current < threshold
	case siomodels.OperatorGreaterOrEqual:
		return current >= threshold
	case siomodels.OperatorLessOrEqual:
		return current <= threshold
	default:
		return false
	}
}

func compareString(current string, operator siomodels.TriggerOperator, threshold string) bool {
	switch operator {
	case siomodels.OperatorEquals:
		return current == threshold
	case siomodels.OperatorNotEquals:
		return current != threshold
	case siomodels.OperatorGreaterThan:
		return current > threshold
	case siomodels.OperatorLessThan:
		return current < threshold
	case siomodels.OperatorGreaterOrEqual:
		return current >= threshold
	case siomodels.OperatorLessOrEqual:
		return current <= threshold
	default:
		return false
	}
}

// numericValue extracts a float64 from a decoded JSON value. Numeric strings
// count as numeric, matching how devices sometimes publish quoted numbers.
func numericValue(v interface{}) (float64, bool) {
	switch value := v.(type) {
	case float64:
		return value, true
	case int:
		return float64(value), true
	case int64:
		return float64(value), true
	case string:
		return parseFloat(value)
	default:
		return 0, false
	}
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

func stringValue(v interface{}) string {
	switch value := v.(type) {
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	default:
		return ""
	}
}
