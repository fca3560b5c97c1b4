package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facet-inventory-api/internal/model"
)

func newTestRepo(t *testing.T) *SQLiteSnapshotRepository {
	t.Helper()

	repo, err := NewSQLiteSnapshotRepository(filepath.Join(t.TempDir(), "stock.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testRecord(productID string, qty int, updatedAt time.Time) model.SnapshotRecord {
	return model.SnapshotRecord{
		ProductID: productID,
		Quantity:  qty,
		Reserved:  0,
		Status:    model.StatusInStock,
		UpdatedAt: updatedAt,
	}
}

func TestSQLiteUpsertAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rec := testRecord("ring-001", 10, time.Now())
	require.NoError(t, repo.UpsertSnapshot(ctx, rec))

	got, err := repo.GetSnapshot(ctx, "ring-001")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 10, got.Quantity)

	// Upsert replaces on conflict.
	rec.Quantity = 3
	rec.Status = model.StatusLowStock
	require.NoError(t, repo.UpsertSnapshot(ctx, rec))

	got, err = repo.GetSnapshot(ctx, "ring-001")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Quantity)
	assert.Equal(t, model.StatusLowStock, got.Status)
}

func TestSQLiteGetMissingReturnsNil(t *testing.T) {
	repo := newTestRepo(t)

	got, err := repo.GetSnapshot(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteBatchUpsertAndList(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	recs := []model.SnapshotRecord{
		testRecord("ring-001", 10, time.Now()),
		testRecord("necklace-002", 2, time.Now()),
		testRecord("bracelet-003", 0, time.Now()),
	}
	require.NoError(t, repo.BatchUpsertSnapshots(ctx, recs))

	got, err := repo.ListSnapshots(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestSQLiteDeleteStale(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertSnapshot(ctx, testRecord("old", 1, time.Now().Add(-48*time.Hour))))
	require.NoError(t, repo.UpsertSnapshot(ctx, testRecord("fresh", 1, time.Now())))

	deleted, err := repo.DeleteStale(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	got, err := repo.GetSnapshot(ctx, "old")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = repo.GetSnapshot(ctx, "fresh")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestSQLiteGetStats(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.UpsertSnapshot(ctx, testRecord("ring-001", 10, time.Now())))

	stats, err := repo.GetStats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats["total_snapshots"])
}
