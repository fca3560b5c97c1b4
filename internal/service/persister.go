package service

import (
	"context"
	"log"
	"time"

	"facet-inventory-api/internal/cache"
	"facet-inventory-api/internal/inventory"
	"facet-inventory-api/internal/model"
	"facet-inventory-api/internal/repository"

	"facet-inventory-api/pkg/uid"
)

const persistTimeout = 10 * time.Second

// SnapshotPersister funnels manager events into durable storage: every
// snapshot change goes to the Redis write-behind buffer (or straight to
// the repository when Redis is absent), and reservation/alert activity
// is appended to the audit log when one is configured.
type SnapshotPersister struct {
	bus      *inventory.Bus
	repo     repository.SnapshotRepository
	buffer   *cache.RedisSnapshotBuffer
	eventLog repository.EventLogRepository
	subID    string
}

// NewSnapshotPersister creates a persister bound to the manager's bus.
// repo is required; buffer and eventLog are optional.
func NewSnapshotPersister(
	bus *inventory.Bus,
	repo repository.SnapshotRepository,
	buffer *cache.RedisSnapshotBuffer,
	eventLog repository.EventLogRepository,
) *SnapshotPersister {
	return &SnapshotPersister{
		bus:      bus,
		repo:     repo,
		buffer:   buffer,
		eventLog: eventLog,
	}
}

// Start registers the bus listener.
func (p *SnapshotPersister) Start() {
	p.subID = p.bus.Subscribe(p.handle,
		inventory.EventInventoryUpdated,
		inventory.EventStockReserved,
		inventory.EventReservationReleased,
		inventory.EventInventoryAlert,
	)
	log.Printf("[SnapshotPersister] Started (buffer: %v, audit: %v)", p.buffer != nil, p.eventLog != nil)
}

// Stop removes the bus listener.
func (p *SnapshotPersister) Stop() {
	if p.subID != "" {
		p.bus.Unsubscribe(p.subID)
		p.subID = ""
	}
}

func (p *SnapshotPersister) handle(ev inventory.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if ev.Snapshot != nil {
		p.persistSnapshot(ctx, ev.Snapshot)
	}
	if p.eventLog != nil {
		p.appendAudit(ctx, ev)
	}
}

func (p *SnapshotPersister) persistSnapshot(ctx context.Context, snap *model.StockSnapshot) {
	rec := model.SnapshotRecord{
		ProductID: snap.ProductID,
		Quantity:  snap.Quantity,
		Reserved:  snap.Reserved,
		Status:    snap.Status,
		UpdatedAt: snap.LastUpdated,
	}

	if p.buffer != nil {
		if err := p.buffer.Add(ctx, rec); err != nil {
			log.Printf("[SnapshotPersister] Buffer add failed for %s: %v", rec.ProductID, err)
		}
		return
	}

	if err := p.repo.UpsertSnapshot(ctx, rec); err != nil {
		log.Printf("[SnapshotPersister] Upsert failed for %s: %v", rec.ProductID, err)
	}
}

func (p *SnapshotPersister) appendAudit(ctx context.Context, ev inventory.Event) {
	rec := &model.EventRecord{
		ID:        uid.New(),
		Type:      string(ev.Type),
		CreatedAt: ev.At,
	}
	switch {
	case ev.Reservation != nil:
		rec.ProductID = ev.Reservation.ProductID
		rec.Quantity = ev.Reservation.Quantity
		rec.SessionID = ev.Reservation.SessionID
		rec.Detail = string(ev.Reservation.Type)
	case ev.Alert != nil:
		rec.ProductID = ev.Alert.ProductID
		rec.Detail = string(ev.Alert.Type)
	case ev.Snapshot != nil:
		rec.ProductID = ev.Snapshot.ProductID
		rec.Quantity = ev.Snapshot.Quantity
	}

	if err := p.eventLog.InsertEvent(ctx, rec); err != nil {
		log.Printf("[SnapshotPersister] Audit insert failed: %v", err)
	}
}

// CreateFlushFunc creates a flush function for the Redis buffer.
func CreateFlushFunc(repo repository.SnapshotRepository) cache.FlushFunc {
	return func(ctx context.Context, recs []model.SnapshotRecord) error {
		return repo.BatchUpsertSnapshots(ctx, recs)
	}
}
