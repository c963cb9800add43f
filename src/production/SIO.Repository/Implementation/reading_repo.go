package implementation

import (
	"context"

	siomodels "gitlab.com/smartiotlabs/sio.cloud_server/src/production/SIO.Models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoReadingRepository archives applied values of persisted variables
type MongoReadingRepository struct {
	collection *mongo.Collection
}

func NewMongoReadingRepository(client *mongo.Client, database, collection string) *MongoReadingRepository {
	return &MongoReadingRepository{
		collection: client.Database(database).Collection(collection),
	}
}

func (r *MongoReadingRepository) InsertReading(ctx context.Context, reading siomodels.Reading) error {
	_, err := r.collection.InsertOne(ctx, reading)
	return err
}

// ListReadings returns the most recent archived values for one variable
func (r *MongoReadingRepository) ListReadings(ctx context.Context, thingUUID, variableName string, limit int64) ([]siomodels.Reading, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "recorded_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.M{
		"thing_uuid":    thingUUID,
		"variable_name": variableName,
	}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var readings []siomodels.Reading
	if err := cursor.All(ctx, &readings); err != nil {
		return nil, err
	}

	return readings, nil
}
