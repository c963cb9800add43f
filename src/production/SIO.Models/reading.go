package siomodels

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reading is one archived value of a persisted cloud variable, stored in Mongo
type Reading struct {
	ID           primitive.ObjectID     `bson:"_id,omitempty" json:"id,omitempty"`
	ThingUUID    string                 `bson:"thing_uuid" json:"thing_uuid"`
	VariableName string                 `bson:"variable_name" json:"variable_name"`
	Value        map[string]interface{} `bson:"value" json:"value"`
	RecordedAt   time.Time              `bson:"recorded_at" json:"recorded_at"`
}
