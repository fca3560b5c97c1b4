package repository

import (
	"context"
	"time"

	"facet-inventory-api/internal/model"
)

// SnapshotRepository defines snapshot persistence methods. The
// in-memory manager remains authoritative while the process runs;
// persisted rows only seed the warm start and survive restarts.
type SnapshotRepository interface {
	// UpsertSnapshot inserts or updates one snapshot row.
	UpsertSnapshot(ctx context.Context, rec model.SnapshotRecord) error

	// BatchUpsertSnapshots inserts or updates multiple rows efficiently.
	BatchUpsertSnapshots(ctx context.Context, recs []model.SnapshotRecord) error

	// GetSnapshot retrieves one row, or nil when the product is unknown.
	GetSnapshot(ctx context.Context, productID string) (*model.SnapshotRecord, error)

	// ListSnapshots returns all persisted rows for the warm start.
	ListSnapshots(ctx context.Context) ([]model.SnapshotRecord, error)

	// DeleteStale removes rows not updated within the threshold.
	DeleteStale(ctx context.Context, threshold time.Duration) (int64, error)

	// GetStats returns statistics about the snapshot database.
	GetStats(ctx context.Context) (map[string]interface{}, error)

	// Close closes the repository connection.
	Close() error
}

// AccountRepository defines storefront client account access methods.
type AccountRepository interface {
	// GetAccountByCustomer finds the client account id for a customer.
	GetAccountByCustomer(ctx context.Context, customerID string) (int64, error)

	// ValidateKeyAndDevice validates a key+device+customer combination
	// for session token generation.
	ValidateKeyAndDevice(ctx context.Context, key, deviceID, customerID string) (*model.AccountValidation, error)
}

// EventLogRepository defines the reservation/alert audit trail.
type EventLogRepository interface {
	InsertEvent(ctx context.Context, rec *model.EventRecord) error
	GetRecentEvents(ctx context.Context, limit, offset int) ([]model.EventRecord, int64, error)
	Close() error
}
