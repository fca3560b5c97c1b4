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

// MongoSnapshotRepository implements SnapshotRepository using MongoDB.
type MongoSnapshotRepository struct {
	client     *mongo.Client
	db         *mongo.Database
	collection *mongo.Collection
}

// snapshotDocument represents a snapshot document in MongoDB.
type snapshotDocument struct {
	ProductID string    `bson:"product_id"`
	Quantity  int       `bson:"quantity"`
	Reserved  int       `bson:"reserved"`
	Status    string    `bson:"status"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// NewMongoSnapshotRepository creates a new MongoDB snapshot repository.
func NewMongoSnapshotRepository(uri, database, collection string) (*MongoSnapshotRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(50).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(5 * time.Minute).
		SetRetryWrites(true)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(database)
	coll := db.Collection(collection)

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "product_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := coll.Indexes().CreateOne(ctx, indexModel); err != nil {
		log.Printf("[MongoDB] Warning: failed to create index: %v", err)
	}

	log.Printf("[MongoDB] Connected to %s/%s", database, collection)
	return &MongoSnapshotRepository{
		client:     client,
		db:         db,
		collection: coll,
	}, nil
}

// UpsertSnapshot inserts or updates one snapshot document.
func (r *MongoSnapshotRepository) UpsertSnapshot(ctx context.Context, rec model.SnapshotRecord) error {
	filter := bson.M{"product_id": rec.ProductID}
	update := bson.M{
		"$set": bson.M{
			"quantity":   rec.Quantity,
			"reserved":   rec.Reserved,
			"status":     string(rec.Status),
			"updated_at": rec.UpdatedAt,
		},
	}

	opts := options.Update().SetUpsert(true)
	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert snapshot: %w", err)
	}
	return nil
}

// BatchUpsertSnapshots upserts multiple snapshot documents in one bulk write.
func (r *MongoSnapshotRepository) BatchUpsertSnapshots(ctx context.Context, recs []model.SnapshotRecord) error {
	if len(recs) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, len(recs))
	for i, rec := range recs {
		filter := bson.M{"product_id": rec.ProductID}
		update := bson.M{
			"$set": bson.M{
				"quantity":   rec.Quantity,
				"reserved":   rec.Reserved,
				"status":     string(rec.Status),
				"updated_at": rec.UpdatedAt,
			},
		}
		models[i] = mongo.NewUpdateOneModel().SetFilter(filter).SetUpdate(update).SetUpsert(true)
	}

	opts := options.BulkWrite().SetOrdered(false)
	if _, err := r.collection.BulkWrite(ctx, models, opts); err != nil {
		return fmt.Errorf("failed to batch upsert: %w", err)
	}

	log.Printf("[MongoDB] Batch upserted %d snapshots", len(recs))
	return nil
}

// GetSnapshot retrieves one document, or nil when the product is unknown.
func (r *MongoSnapshotRepository) GetSnapshot(ctx context.Context, productID string) (*model.SnapshotRecord, error) {
	var doc snapshotDocument
	err := r.collection.FindOne(ctx, bson.M{"product_id": productID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	return docToRecord(doc), nil
}

// ListSnapshots returns all persisted documents.
func (r *MongoSnapshotRepository) ListSnapshots(ctx context.Context) ([]model.SnapshotRecord, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer cursor.Close(ctx)

	var recs []model.SnapshotRecord
	for cursor.Next(ctx) {
		var doc snapshotDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot: %w", err)
		}
		recs = append(recs, *docToRecord(doc))
	}
	return recs, cursor.Err()
}

// DeleteStale removes documents not updated within the threshold.
func (r *MongoSnapshotRepository) DeleteStale(ctx context.Context, threshold time.Duration) (int64, error) {
	cutoff := time.Now().Add(-threshold)

	filter := bson.M{"updated_at": bson.M{"$lt": cutoff}}
	result, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale snapshots: %w", err)
	}

	if result.DeletedCount > 0 {
		log.Printf("[MongoDB] Pruned %d stale snapshot documents (threshold: %v)", result.DeletedCount, threshold)
	}

	return result.DeletedCount, nil
}

// GetStats returns statistics about the snapshot collection.
func (r *MongoSnapshotRepository) GetStats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})
	stats["status"] = "connected"

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return stats, err
	}
	stats["total_snapshots"] = count

	opts := options.FindOne().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	var doc snapshotDocument
	if err := r.collection.FindOne(ctx, bson.M{}, opts).Decode(&doc); err == nil {
		stats["last_update"] = doc.UpdatedAt
	}

	result := r.db.RunCommand(ctx, bson.D{{Key: "collStats", Value: r.collection.Name()}})
	var collStats bson.M
	if err := result.Decode(&collStats); err == nil {
		if size, ok := collStats["size"].(int64); ok {
			stats["db_size_bytes"] = size
		} else if size, ok := collStats["size"].(int32); ok {
			stats["db_size_bytes"] = int64(size)
		}
	}

	return stats, nil
}

// Close closes the MongoDB connection.
func (r *MongoSnapshotRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}

func docToRecord(doc snapshotDocument) *model.SnapshotRecord {
	return &model.SnapshotRecord{
		ProductID: doc.ProductID,
		Quantity:  doc.Quantity,
		Reserved:  doc.Reserved,
		Status:    model.StockStatus(doc.Status),
		UpdatedAt: doc.UpdatedAt,
	}
}

// Ensure MongoSnapshotRepository implements SnapshotRepository
var _ SnapshotRepository = (*MongoSnapshotRepository)(nil)
