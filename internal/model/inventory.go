package model

import "time"

// StockStatus describes the availability band of a product.
type StockStatus string

const (
	StatusInStock    StockStatus = "in-stock"
	StatusLowStock   StockStatus = "low-stock"
	StatusOutOfStock StockStatus = "out-of-stock"
)

// StockSnapshot is the last known stock state of one product.
// Available is always derived as Quantity - Reserved, never set directly.
type StockSnapshot struct {
	ProductID   string      `json:"product_id"`
	Quantity    int         `json:"quantity"`
	Reserved    int         `json:"reserved"`
	Available   int         `json:"available"`
	Status      StockStatus `json:"status"`
	LastUpdated time.Time   `json:"last_updated"`
}

// SnapshotUpdate is the shape accepted from the external feed.
// Quantity is the absolute unit count owned; Reserved is optional and
// only honored on initial load (afterwards the ledger owns it).
type SnapshotUpdate struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Reserved  *int   `json:"reserved,omitempty"`
}

// SnapshotRecord is a snapshot row queued for persistence.
type SnapshotRecord struct {
	ProductID string      `json:"product_id"`
	Quantity  int         `json:"quantity"`
	Reserved  int         `json:"reserved"`
	Status    StockStatus `json:"status"`
	UpdatedAt time.Time   `json:"updated_at"`
}
