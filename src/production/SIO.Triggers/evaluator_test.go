package siotriggers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	siomodels "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Models"
)

func TestEvaluateNumericComparisons(t *testing.T) {
	tests := []struct {
		name      string
		operator  siomodels.TriggerOperator
		threshold string
		current   interface{}
		want      bool
	}{
		{"greater than satisfied", siomodels.OperatorGreaterThan, "100", 150.0, true},
		{"greater than boundary", siomodels.OperatorGreaterThan, "100", 100.0, false},
		{"greater than unmet", siomodels.OperatorGreaterThan, "100", 50.0, false},
		{"less than satisfied", siomodels.OperatorLessThan, "0", -3.5, true},
		{"less than unmet", siomodels.OperatorLessThan, "0", 0.0, false},
		{"greater or equal boundary", siomodels.OperatorGreaterOrEqual, "100", 100.0, true},
		{"less or equal boundary", siomodels.OperatorLessOrEqual, "100", 100.0, true},
		{"equals exact", siomodels.OperatorEquals, "42", 42.0, true},
		{"equals is exact float equality", siomodels.OperatorEquals, "42", 42.0001, false},
		{"not equals", siomodels.OperatorNotEquals, "42", 42.0001, true},
		{"integer current value", siomodels.OperatorGreaterThan, "10", 11, true},
		{"numeric string current value", siomodels.OperatorGreaterThan, "10", "12.5", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trigger := &siomodels.Trigger{Operator: tt.operator, Value: tt.threshold}
			assert.Equal(t, tt.want, Evaluate(trigger, tt.current))
		})
	}
}

func TestEvaluateStringFallback(t *testing.T) {
	tests := []struct {
		name      string
		operator  siomodels.TriggerOperator
		threshold string
		current   interface{}
		want      bool
	}{
		{"string equals", siomodels.OperatorEquals, "open", "open", true},
		{"string not equals", siomodels.OperatorNotEquals, "open", "closed", true},
		{"string equals unmet", siomodels.OperatorEquals, "open", "closed", false},
		{"lexicographic greater", siomodels.OperatorGreaterThan, "apple", "banana", true},
		{"bool against string threshold", siomodels.OperatorEquals, "true", true, true},
		{"number against text threshold compares as string", siomodels.OperatorEquals, "hot", 42.0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trigger := &siomodels.Trigger{Operator: tt.operator, Value: tt.threshold}
			assert.Equal(t, tt.want, Evaluate(trigger, tt.current))
		})
	}
}

func TestEvaluateUnknownOperator(t *testing.T) {
	trigger := &siomodels.Trigger{Operator: "between", Value: "10"}
	assert.False(t, Evaluate(trigger, 5.0))
}
