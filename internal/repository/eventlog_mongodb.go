package repository

import (
	"context"
	"fmt"
	"log"
	"time"

	"facet-inventory-api/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoEventLogRepository implements EventLogRepository using MongoDB.
// It records reservation and alert activity for the admin surface.
type MongoEventLogRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoEventLogRepository creates a new MongoDB event log repository.
func NewMongoEventLogRepository(uri, database, collection string) (*MongoEventLogRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clientOpts := options.Client().ApplyURI(uri).SetRetryWrites(true)
	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	coll := client.Database(database).Collection(collection)

	indexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	}
	if _, err := coll.Indexes().CreateOne(ctx, indexModel); err != nil {
		log.Printf("[MongoDB] Warning: failed to create event log index: %v", err)
	}

	log.Printf("[MongoEventLogRepository] Connected to %s/%s", database, collection)
	return &MongoEventLogRepository{client: client, collection: coll}, nil
}

// InsertEvent appends one audit row.
func (r *MongoEventLogRepository) InsertEvent(ctx context.Context, rec *model.EventRecord) error {
	if _, err := r.collection.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// GetRecentEvents returns audit rows newest first, with the total count.
func (r *MongoEventLogRepository) GetRecentEvents(ctx context.Context, limit, offset int) ([]model.EventRecord, int64, error) {
	total, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list events: %w", err)
	}
	defer cursor.Close(ctx)

	var recs []model.EventRecord
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, 0, fmt.Errorf("failed to decode events: %w", err)
	}

	return recs, total, nil
}

// Close closes the MongoDB connection.
func (r *MongoEventLogRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}

// Ensure MongoEventLogRepository implements EventLogRepository
var _ EventLogRepository = (*MongoEventLogRepository)(nil)
