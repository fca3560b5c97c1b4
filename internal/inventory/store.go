package inventory

import (
	"time"

	"facet-inventory-api/internal/model"
)

// recordStore holds the authoritative in-memory snapshot per product.
// It has no lock of its own: all access is serialized by the manager.
type recordStore struct {
	threshold int
	items     map[string]*model.StockSnapshot
}

func newRecordStore(lowStockThreshold int) *recordStore {
	return &recordStore{
		threshold: lowStockThreshold,
		items:     make(map[string]*model.StockSnapshot),
	}
}

// get returns the live snapshot or nil for unknown products. The read
// is total: unknown ids are not an error.
func (s *recordStore) get(productID string) *model.StockSnapshot {
	return s.items[productID]
}

// list returns copies of all known snapshots.
func (s *recordStore) list() []model.StockSnapshot {
	out := make([]model.StockSnapshot, 0, len(s.items))
	for _, snap := range s.items {
		out = append(out, *snap)
	}
	return out
}

// setQuantity applies an absolute quantity from the feed, creating the
// snapshot on first sight. reserved is only honored for new products
// (afterwards the ledger owns the reserved count).
func (s *recordStore) setQuantity(productID string, quantity int, reserved *int) *model.StockSnapshot {
	snap, ok := s.items[productID]
	if !ok {
		snap = &model.StockSnapshot{ProductID: productID}
		if reserved != nil && *reserved > 0 {
			snap.Reserved = *reserved
		}
		s.items[productID] = snap
	}
	if quantity < 0 {
		quantity = 0
	}
	snap.Quantity = quantity
	s.recompute(snap)
	return snap
}

// adjustReserved shifts the reserved count by delta. Only the ledger's
// reserve/release path calls this.
func (s *recordStore) adjustReserved(productID string, delta int) *model.StockSnapshot {
	snap := s.items[productID]
	if snap == nil {
		return nil
	}
	snap.Reserved += delta
	if snap.Reserved < 0 {
		snap.Reserved = 0
	}
	s.recompute(snap)
	return snap
}

// recompute derives Available and Status and stamps LastUpdated.
// Available is clamped at zero when the feed reports fewer units than
// are currently reserved.
func (s *recordStore) recompute(snap *model.StockSnapshot) {
	snap.Available = snap.Quantity - snap.Reserved
	if snap.Available < 0 {
		snap.Available = 0
	}

	switch {
	case snap.Available == 0:
		snap.Status = model.StatusOutOfStock
	case snap.Available <= s.threshold:
		snap.Status = model.StatusLowStock
	default:
		snap.Status = model.StatusInStock
	}
	snap.LastUpdated = time.Now()
}
