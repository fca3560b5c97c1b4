package inventory

import (
	"log"
	"sync"
	"time"

	"facet-inventory-api/internal/model"

	"facet-inventory-api/pkg/uid"
)

// Config holds the policy knobs for the manager.
type Config struct {
	// LowStockThreshold is the available count at or below which a
	// product is considered low-stock.
	LowStockThreshold int

	// CartHoldTTL / CheckoutHoldTTL are the reservation lifetimes per
	// hold type.
	CartHoldTTL     time.Duration
	CheckoutHoldTTL time.Duration
}

// DefaultConfig returns the default manager policy.
func DefaultConfig() Config {
	return Config{
		LowStockThreshold: 5,
		CartHoldTTL:       30 * time.Minute,
		CheckoutHoldTTL:   10 * time.Minute,
	}
}

// ConnectionStatus reports whether the feed has delivered data yet and
// how many consumers are registered.
type ConnectionStatus struct {
	Connected   bool `json:"connected"`
	Subscribers int  `json:"subscribers"`
}

// Manager composes the record store, reservation ledger, alert
// generator and event bus behind a single public interface. All
// mutation goes through its methods; the internal components carry no
// locks of their own.
//
// Events are collected while the lock is held and emitted after it is
// released, so listeners may call back into read methods.
type Manager struct {
	mu          sync.RWMutex
	cfg         Config
	bus         *Bus
	store       *recordStore
	ledger      *ledger
	alerts      *alertGenerator
	subscribers map[string]struct{}
	loaded      bool
}

// NewManager creates a manager with the given policy. Zero-value
// config fields fall back to defaults.
func NewManager(cfg Config) *Manager {
	def := DefaultConfig()
	if cfg.LowStockThreshold <= 0 {
		cfg.LowStockThreshold = def.LowStockThreshold
	}
	if cfg.CartHoldTTL == 0 {
		cfg.CartHoldTTL = def.CartHoldTTL
	}
	if cfg.CheckoutHoldTTL == 0 {
		cfg.CheckoutHoldTTL = def.CheckoutHoldTTL
	}

	return &Manager{
		cfg:         cfg,
		bus:         NewBus(),
		store:       newRecordStore(cfg.LowStockThreshold),
		ledger:      newLedger(),
		alerts:      newAlertGenerator(),
		subscribers: make(map[string]struct{}),
	}
}

// Events exposes the bus for consumers that react to changes without
// polling.
func (m *Manager) Events() *Bus {
	return m.bus
}

// LoadInitialInventory ingests a snapshot batch, seeds alert baselines
// and emits a single inventory-loaded event. The first successful call
// flips the connection status to connected.
func (m *Manager) LoadInitialInventory(updates []model.SnapshotUpdate) {
	m.mu.Lock()
	for _, u := range updates {
		if u.ProductID == "" {
			continue
		}
		snap := m.store.setQuantity(u.ProductID, u.Quantity, u.Reserved)
		m.alerts.seed(snap)
	}
	m.loaded = true
	m.mu.Unlock()

	log.Printf("[InventoryManager] Loaded %d snapshots", len(updates))
	m.bus.Emit(Event{Type: EventInventoryLoaded})
}

// IngestBatch routes a snapshot batch: the first batch after startup
// is treated as the initial load, later batches apply item by item so
// each change produces its own update event. Returns the number of
// updates applied.
func (m *Manager) IngestBatch(updates []model.SnapshotUpdate) int {
	m.mu.RLock()
	loaded := m.loaded
	m.mu.RUnlock()

	if !loaded {
		m.LoadInitialInventory(updates)
		return len(updates)
	}

	applied := 0
	for _, u := range updates {
		if u.ProductID == "" {
			continue
		}
		m.IngestUpdate(u)
		applied++
	}
	return applied
}

// IngestUpdate applies one incremental feed update, creating the
// snapshot on first sight, and returns the resulting state.
func (m *Manager) IngestUpdate(u model.SnapshotUpdate) model.StockSnapshot {
	m.mu.Lock()
	snap := m.store.setQuantity(u.ProductID, u.Quantity, u.Reserved)
	out := *snap
	events := m.eventsFor(EventInventoryUpdated, &out, nil)
	m.mu.Unlock()

	m.emit(events)
	return out
}

// Reserve places a hold against a product's available stock. The
// read-check-write runs under the manager lock, so concurrent reserve
// calls can never oversell.
func (m *Manager) Reserve(productID string, quantity int, sessionID string, holdType model.HoldType, userID string) (*model.Reservation, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if holdType == "" {
		holdType = model.HoldCart
	}

	m.mu.Lock()
	snap := m.store.get(productID)
	if snap == nil {
		m.mu.Unlock()
		return nil, ErrProductNotFound
	}
	if quantity > snap.Available {
		m.mu.Unlock()
		return nil, ErrInsufficientStock
	}

	now := time.Now()
	res := &model.Reservation{
		ID:        uid.New(),
		ProductID: productID,
		Quantity:  quantity,
		SessionID: sessionID,
		UserID:    userID,
		Type:      holdType,
		CreatedAt: now,
		ExpiresAt: now.Add(m.holdTTL(holdType)),
	}
	m.ledger.add(res)
	updated := *m.store.adjustReserved(productID, quantity)

	out := *res
	events := m.eventsFor(EventStockReserved, &updated, &out)
	m.mu.Unlock()

	m.emit(events)
	return &out, nil
}

// Release removes a hold and returns its units to the available pool.
func (m *Manager) Release(reservationID string) error {
	m.mu.Lock()
	res := m.ledger.get(reservationID)
	if res == nil {
		m.mu.Unlock()
		return ErrReservationNotFound
	}
	events := m.releaseLocked(res)
	m.mu.Unlock()

	m.emit(events)
	return nil
}

// SweepExpired releases every reservation past its expiry, exactly as
// Release would, and returns the number released. It is driven by a
// periodic scheduler.
func (m *Manager) SweepExpired() int {
	m.mu.Lock()
	expired := m.ledger.expired(time.Now())
	var events []Event
	for _, res := range expired {
		events = append(events, m.releaseLocked(res)...)
	}
	m.mu.Unlock()

	if len(expired) > 0 {
		log.Printf("[InventoryManager] Swept %d expired reservations", len(expired))
	}
	m.emit(events)
	return len(expired)
}

// releaseLocked performs the shared release path. Callers hold the lock.
func (m *Manager) releaseLocked(res *model.Reservation) []Event {
	m.ledger.remove(res)
	updated := *m.store.adjustReserved(res.ProductID, -res.Quantity)
	out := *res
	return m.eventsFor(EventReservationReleased, &updated, &out)
}

// eventsFor builds the primary event plus any alert the status
// transition produced. Callers hold the lock; payloads are copies.
func (m *Manager) eventsFor(typ EventType, snap *model.StockSnapshot, res *model.Reservation) []Event {
	events := []Event{{Type: typ, Snapshot: snap, Reservation: res}}
	if alert := m.alerts.observe(m.store.get(snap.ProductID)); alert != nil {
		alertCopy := *alert
		events = append(events, Event{Type: EventInventoryAlert, Snapshot: snap, Alert: &alertCopy})
	}
	return events
}

func (m *Manager) emit(events []Event) {
	for _, ev := range events {
		m.bus.Emit(ev)
	}
}

func (m *Manager) holdTTL(t model.HoldType) time.Duration {
	if t == model.HoldCheckout {
		return m.cfg.CheckoutHoldTTL
	}
	return m.cfg.CartHoldTTL
}

// GetInventory returns a copy of the product's snapshot, or nil for
// unknown products. The read is total, not an error.
func (m *Manager) GetInventory(productID string) *model.StockSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := m.store.get(productID)
	if snap == nil {
		return nil
	}
	out := *snap
	return &out
}

// GetAllInventory returns copies of every known snapshot.
func (m *Manager) GetAllInventory() []model.StockSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.store.list()
}

// GetAlerts returns all alerts in creation order, dismissed included.
func (m *Manager) GetAlerts() []model.Alert {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.alerts.list()
}

// ActiveReservations returns the number of live holds.
func (m *Manager) ActiveReservations() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ledger.count()
}

// DismissAlert marks an alert dismissed. Dismissing an unknown or
// already dismissed alert is a no-op.
func (m *Manager) DismissAlert(alertID string) {
	m.mu.Lock()
	alert, changed := m.alerts.dismiss(alertID)
	var events []Event
	if changed {
		alertCopy := *alert
		events = append(events, Event{Type: EventAlertDismissed, Alert: &alertCopy})
	}
	m.mu.Unlock()

	m.emit(events)
}

// Subscribe registers a consumer id. Duplicate calls with the same id
// are idempotent; the subscriber-added event fires only on a real add.
func (m *Manager) Subscribe(subscriberID string) {
	if subscriberID == "" {
		subscriberID = uid.New()
	}

	m.mu.Lock()
	_, exists := m.subscribers[subscriberID]
	if !exists {
		m.subscribers[subscriberID] = struct{}{}
	}
	m.mu.Unlock()

	if !exists {
		m.bus.Emit(Event{Type: EventSubscriberAdded, SubscriberID: subscriberID})
	}
}

// Unsubscribe removes a consumer id. Unknown ids are a no-op.
func (m *Manager) Unsubscribe(subscriberID string) {
	m.mu.Lock()
	_, exists := m.subscribers[subscriberID]
	if exists {
		delete(m.subscribers, subscriberID)
	}
	m.mu.Unlock()

	if exists {
		m.bus.Emit(Event{Type: EventSubscriberRemoved, SubscriberID: subscriberID})
	}
}

// ConnectionStatus reports feed and subscriber state.
func (m *Manager) ConnectionStatus() ConnectionStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return ConnectionStatus{
		Connected:   m.loaded,
		Subscribers: len(m.subscribers),
	}
}
