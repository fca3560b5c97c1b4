package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"facet-inventory-api/internal/model"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// SQLiteSnapshotRepository implements SnapshotRepository using SQLite.
// Thread-safe with WAL mode for high-concurrency reads.
type SQLiteSnapshotRepository struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteSnapshotRepository creates a new SQLite snapshot repository.
// dbPath is the path to the SQLite database file (e.g., "./data/stock.db")
func NewSQLiteSnapshotRepository(dbPath string) (*SQLiteSnapshotRepository, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite only supports 1 writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := createSnapshotTable(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[SQLiteSnapshotRepository] Initialized with database: %s", dbPath)
	return &SQLiteSnapshotRepository{db: db}, nil
}

func createSnapshotTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS stock_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_id TEXT NOT NULL UNIQUE,
		quantity INTEGER NOT NULL DEFAULT 0,
		reserved INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_product ON stock_snapshots(product_id);
	CREATE INDEX IF NOT EXISTS idx_updated_at ON stock_snapshots(updated_at);
	`
	_, err := db.Exec(query)
	return err
}

// UpsertSnapshot inserts or updates one snapshot row.
func (r *SQLiteSnapshotRepository) UpsertSnapshot(ctx context.Context, rec model.SnapshotRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := `
		INSERT INTO stock_snapshots (product_id, quantity, reserved, status, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(product_id) DO UPDATE SET
			quantity = excluded.quantity,
			reserved = excluded.reserved,
			status = excluded.status,
			updated_at = excluded.updated_at`

	_, err := r.db.ExecContext(ctx, query, rec.ProductID, rec.Quantity, rec.Reserved, string(rec.Status), rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot: %w", err)
	}
	return nil
}

// BatchUpsertSnapshots inserts or updates multiple rows in one transaction.
func (r *SQLiteSnapshotRepository) BatchUpsertSnapshots(ctx context.Context, recs []model.SnapshotRecord) error {
	if len(recs) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO stock_snapshots (product_id, quantity, reserved, status, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(product_id) DO UPDATE SET
			quantity = excluded.quantity,
			reserved = excluded.reserved,
			status = excluded.status,
			updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range recs {
		_, err := stmt.ExecContext(ctx, rec.ProductID, rec.Quantity, rec.Reserved, string(rec.Status), rec.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to batch upsert %s: %w", rec.ProductID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetSnapshot retrieves one row, or nil when the product is unknown.
func (r *SQLiteSnapshotRepository) GetSnapshot(ctx context.Context, productID string) (*model.SnapshotRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := `SELECT product_id, quantity, reserved, status, updated_at FROM stock_snapshots WHERE product_id = ?`

	var rec model.SnapshotRecord
	var status string
	err := r.db.QueryRowContext(ctx, query, productID).Scan(&rec.ProductID, &rec.Quantity, &rec.Reserved, &status, &rec.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	rec.Status = model.StockStatus(status)

	return &rec, nil
}

// ListSnapshots returns all persisted rows.
func (r *SQLiteSnapshotRepository) ListSnapshots(ctx context.Context) ([]model.SnapshotRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows, err := r.db.QueryContext(ctx, `SELECT product_id, quantity, reserved, status, updated_at FROM stock_snapshots`)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var recs []model.SnapshotRecord
	for rows.Next() {
		var rec model.SnapshotRecord
		var status string
		if err := rows.Scan(&rec.ProductID, &rec.Quantity, &rec.Reserved, &status, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		rec.Status = model.StockStatus(status)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// DeleteStale removes rows not updated within the threshold.
func (r *SQLiteSnapshotRepository) DeleteStale(ctx context.Context, threshold time.Duration) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-threshold)

	result, err := r.db.ExecContext(ctx, `DELETE FROM stock_snapshots WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale snapshots: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		log.Printf("[SQLite] Pruned %d stale snapshot rows (threshold: %v)", deleted, threshold)
	}

	return deleted, nil
}

// GetStats returns statistics about the snapshot database.
func (r *SQLiteSnapshotRepository) GetStats(ctx context.Context) (map[string]interface{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := make(map[string]interface{})

	var count int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM stock_snapshots").Scan(&count); err != nil {
		return nil, err
	}
	stats["total_snapshots"] = count

	var lastUpdate sql.NullTime
	if err := r.db.QueryRowContext(ctx, "SELECT MAX(updated_at) FROM stock_snapshots").Scan(&lastUpdate); err == nil && lastUpdate.Valid {
		stats["last_update"] = lastUpdate.Time
	}

	var pageCount, pageSize int64
	r.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount)
	r.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
	stats["db_size_bytes"] = pageCount * pageSize

	return stats, nil
}

// Close closes the database connection.
func (r *SQLiteSnapshotRepository) Close() error {
	return r.db.Close()
}

// Ensure SQLiteSnapshotRepository implements SnapshotRepository
var _ SnapshotRepository = (*SQLiteSnapshotRepository)(nil)
