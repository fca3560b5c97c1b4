package inventory

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facet-inventory-api/internal/model"
)

func newTestManager() *Manager {
	return NewManager(Config{LowStockThreshold: 5})
}

func loadTestInventory(m *Manager) {
	m.LoadInitialInventory([]model.SnapshotUpdate{
		{ProductID: "ring-001", Quantity: 10},
		{ProductID: "necklace-002", Quantity: 3},
		{ProductID: "bracelet-003", Quantity: 0},
	})
}

// collectEvents subscribes a recorder and returns the captured slice
// plus its guarding mutex.
func collectEvents(m *Manager, types ...EventType) (*[]Event, *sync.Mutex) {
	var (
		mu     sync.Mutex
		events []Event
	)
	m.Events().Subscribe(func(ev Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	}, types...)
	return &events, &mu
}

func TestLoadInitialInventory(t *testing.T) {
	m := newTestManager()
	events, _ := collectEvents(m)

	loadTestInventory(m)

	all := m.GetAllInventory()
	assert.Len(t, all, 3)
	assert.True(t, m.ConnectionStatus().Connected)

	// One loaded event, no per-item updates, no baseline alerts.
	require.Len(t, *events, 1)
	assert.Equal(t, EventInventoryLoaded, (*events)[0].Type)
	assert.Empty(t, m.GetAlerts())
}

func TestIngestUpdateComputesStatus(t *testing.T) {
	m := newTestManager()
	loadTestInventory(m)

	snap := m.IngestUpdate(model.SnapshotUpdate{ProductID: "ring-001", Quantity: 4})
	assert.Equal(t, 4, snap.Available)
	assert.Equal(t, model.StatusLowStock, snap.Status)

	snap = m.IngestUpdate(model.SnapshotUpdate{ProductID: "ring-001", Quantity: 0})
	assert.Equal(t, model.StatusOutOfStock, snap.Status)

	snap = m.IngestUpdate(model.SnapshotUpdate{ProductID: "ring-001", Quantity: 50})
	assert.Equal(t, model.StatusInStock, snap.Status)
}

func TestIngestUpdateCreatesUnknownProduct(t *testing.T) {
	m := newTestManager()
	loadTestInventory(m)

	snap := m.IngestUpdate(model.SnapshotUpdate{ProductID: "earring-004", Quantity: 7})
	assert.Equal(t, "earring-004", snap.ProductID)
	assert.Equal(t, 7, snap.Available)

	got := m.GetInventory("earring-004")
	require.NotNil(t, got)
	assert.Equal(t, 7, got.Quantity)
}

func TestReserveReducesAvailable(t *testing.T) {
	m := newTestManager()
	loadTestInventory(m)

	res, err := m.Reserve("ring-001", 3, "sess-1", model.HoldCart, "")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, 3, res.Quantity)
	assert.Equal(t, model.HoldCart, res.Type)

	snap := m.GetInventory("ring-001")
	require.NotNil(t, snap)
	assert.Equal(t, 10, snap.Quantity)
	assert.Equal(t, 3, snap.Reserved)
	assert.Equal(t, 7, snap.Available)
	assert.Equal(t, 1, m.ActiveReservations())
}

func TestReserveErrors(t *testing.T) {
	m := newTestManager()
	loadTestInventory(m)

	_, err := m.Reserve("ring-001", 0, "sess-1", model.HoldCart, "")
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = m.Reserve("ring-001", -4, "sess-1", model.HoldCart, "")
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = m.Reserve("no-such-product", 1, "sess-1", model.HoldCart, "")
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = m.Reserve("ring-001", 11, "sess-1", model.HoldCart, "")
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// Failed attempts leave state untouched.
	snap := m.GetInventory("ring-001")
	assert.Equal(t, 0, snap.Reserved)
	assert.Equal(t, 10, snap.Available)
	assert.Equal(t, 0, m.ActiveReservations())
}

func TestReserveExactlyAvailable(t *testing.T) {
	m := newTestManager()
	loadTestInventory(m)

	res, err := m.Reserve("necklace-002", 3, "sess-1", model.HoldCheckout, "user-9")
	require.NoError(t, err)
	assert.Equal(t, "user-9", res.UserID)

	snap := m.GetInventory("necklace-002")
	assert.Equal(t, 0, snap.Available)
	assert.Equal(t, model.StatusOutOfStock, snap.Status)

	_, err = m.Reserve("necklace-002", 1, "sess-2", model.HoldCart, "")
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestReleaseRoundTrip(t *testing.T) {
	m := newTestManager()
	loadTestInventory(m)

	before := m.GetInventory("ring-001").Available

	res, err := m.Reserve("ring-001", 4, "sess-1", model.HoldCart, "")
	require.NoError(t, err)

	require.NoError(t, m.Release(res.ID))

	snap := m.GetInventory("ring-001")
	assert.Equal(t, before, snap.Available)
	assert.Equal(t, 0, snap.Reserved)
	assert.Equal(t, 0, m.ActiveReservations())

	// Releasing twice reports the hold as gone.
	assert.ErrorIs(t, m.Release(res.ID), ErrReservationNotFound)
}

func TestReleaseUnknownReservation(t *testing.T) {
	m := newTestManager()
	loadTestInventory(m)

	assert.ErrorIs(t, m.Release("not-a-real-id"), ErrReservationNotFound)
}

func TestHoldTTLPerType(t *testing.T) {
	m := NewManager(Config{
		LowStockThreshold: 5,
		CartHoldTTL:       30 * time.Minute,
		CheckoutHoldTTL:   10 * time.Minute,
	})
	loadTestInventory(m)

	cart, err := m.Reserve("ring-001", 1, "sess-1", model.HoldCart, "")
	require.NoError(t, err)
	checkout, err := m.Reserve("ring-001", 1, "sess-1", model.HoldCheckout, "")
	require.NoError(t, err)

	cartTTL := cart.ExpiresAt.Sub(cart.CreatedAt)
	checkoutTTL := checkout.ExpiresAt.Sub(checkout.CreatedAt)
	assert.Equal(t, 30*time.Minute, cartTTL)
	assert.Equal(t, 10*time.Minute, checkoutTTL)
}

func TestSweepExpiredReleasesHolds(t *testing.T) {
	// Negative TTL makes every hold born expired.
	m := NewManager(Config{
		LowStockThreshold: 5,
		CartHoldTTL:       -time.Minute,
		CheckoutHoldTTL:   10 * time.Minute,
	})
	loadTestInventory(m)

	_, err := m.Reserve("ring-001", 2, "sess-1", model.HoldCart, "")
	require.NoError(t, err)
	kept, err := m.Reserve("ring-001", 3, "sess-1", model.HoldCheckout, "")
	require.NoError(t, err)

	events, mu := collectEvents(m, EventReservationReleased)

	released := m.SweepExpired()
	assert.Equal(t, 1, released)
	assert.Equal(t, 1, m.ActiveReservations())

	snap := m.GetInventory("ring-001")
	assert.Equal(t, 3, snap.Reserved)
	assert.Equal(t, 7, snap.Available)

	mu.Lock()
	require.Len(t, *events, 1)
	assert.Equal(t, 2, (*events)[0].Reservation.Quantity)
	mu.Unlock()

	// The unexpired checkout hold survives a second sweep.
	assert.Equal(t, 0, m.SweepExpired())
	require.NoError(t, m.Release(kept.ID))
}

func TestNoOversellUnderConcurrency(t *testing.T) {
	m := newTestManager()
	m.LoadInitialInventory([]model.SnapshotUpdate{
		{ProductID: "ring-001", Quantity: 50},
	})

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Reserve("ring-001", 1, "sess", model.HoldCart, ""); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, succeeded)

	snap := m.GetInventory("ring-001")
	assert.Equal(t, 50, snap.Reserved)
	assert.Equal(t, 0, snap.Available)
	assert.Equal(t, model.StatusOutOfStock, snap.Status)
}

func TestReserveEmitsEvents(t *testing.T) {
	m := newTestManager()
	loadTestInventory(m)
	events, _ := collectEvents(m)

	res, err := m.Reserve("ring-001", 2, "sess-1", model.HoldCart, "")
	require.NoError(t, err)

	require.Len(t, *events, 1)
	ev := (*events)[0]
	assert.Equal(t, EventStockReserved, ev.Type)
	require.NotNil(t, ev.Reservation)
	assert.Equal(t, res.ID, ev.Reservation.ID)
	require.NotNil(t, ev.Snapshot)
	assert.Equal(t, 8, ev.Snapshot.Available)
	assert.False(t, ev.At.IsZero())
}

func TestAlertOnThresholdCrossing(t *testing.T) {
	m := newTestManager()
	loadTestInventory(m)
	events, _ := collectEvents(m, EventInventoryAlert)

	// 10 -> 4 crosses into low-stock.
	m.IngestUpdate(model.SnapshotUpdate{ProductID: "ring-001", Quantity: 4})

	require.Len(t, *events, 1)
	alert := (*events)[0].Alert
	require.NotNil(t, alert)
	assert.Equal(t, model.AlertLowStock, alert.Type)
	assert.Equal(t, model.SeverityWarning, alert.Severity)

	// Staying low-stock emits nothing new.
	m.IngestUpdate(model.SnapshotUpdate{ProductID: "ring-001", Quantity: 3})
	assert.Len(t, *events, 1)

	// Dropping to zero escalates.
	m.IngestUpdate(model.SnapshotUpdate{ProductID: "ring-001", Quantity: 0})
	require.Len(t, *events, 2)
	assert.Equal(t, model.AlertOutOfStock, (*events)[1].Alert.Type)
	assert.Equal(t, model.SeverityError, (*events)[1].Alert.Severity)

	// Restocking well above threshold announces recovery.
	m.IngestUpdate(model.SnapshotUpdate{ProductID: "ring-001", Quantity: 20})
	require.Len(t, *events, 3)
	assert.Equal(t, model.AlertRestock, (*events)[2].Alert.Type)
	assert.Equal(t, model.SeveritySuccess, (*events)[2].Alert.Severity)
}

func TestAlertTriggeredByReservation(t *testing.T) {
	m := newTestManager()
	loadTestInventory(m)
	events, _ := collectEvents(m, EventInventoryAlert)

	// Reserving enough of ring-001 pushes available into low-stock.
	_, err := m.Reserve("ring-001", 6, "sess-1", model.HoldCart, "")
	require.NoError(t, err)

	require.Len(t, *events, 1)
	assert.Equal(t, model.AlertLowStock, (*events)[0].Alert.Type)
}

func TestDismissAlertIdempotent(t *testing.T) {
	m := newTestManager()
	loadTestInventory(m)

	m.IngestUpdate(model.SnapshotUpdate{ProductID: "ring-001", Quantity: 0})
	alerts := m.GetAlerts()
	require.Len(t, alerts, 1)

	events, _ := collectEvents(m, EventAlertDismissed)

	m.DismissAlert(alerts[0].ID)
	m.DismissAlert(alerts[0].ID)
	m.DismissAlert("no-such-alert")

	assert.Len(t, *events, 1)

	got := m.GetAlerts()
	require.Len(t, got, 1)
	assert.True(t, got[0].Dismissed)
}

func TestSubscribeUnsubscribeSymmetry(t *testing.T) {
	m := newTestManager()
	events, _ := collectEvents(m, EventSubscriberAdded, EventSubscriberRemoved)

	m.Subscribe("client-a")
	assert.Equal(t, 1, m.ConnectionStatus().Subscribers)

	// Duplicate subscribe is a no-op.
	m.Subscribe("client-a")
	assert.Equal(t, 1, m.ConnectionStatus().Subscribers)

	m.Subscribe("client-b")
	assert.Equal(t, 2, m.ConnectionStatus().Subscribers)

	m.Unsubscribe("client-a")
	m.Unsubscribe("client-a")
	assert.Equal(t, 1, m.ConnectionStatus().Subscribers)

	require.Len(t, *events, 3)
	assert.Equal(t, EventSubscriberAdded, (*events)[0].Type)
	assert.Equal(t, "client-a", (*events)[0].SubscriberID)
	assert.Equal(t, EventSubscriberAdded, (*events)[1].Type)
	assert.Equal(t, "client-b", (*events)[1].SubscriberID)
	assert.Equal(t, EventSubscriberRemoved, (*events)[2].Type)
	assert.Equal(t, "client-a", (*events)[2].SubscriberID)
}

func TestIngestBatchAfterLoadEmitsPerItem(t *testing.T) {
	m := newTestManager()
	loadTestInventory(m)
	events, _ := collectEvents(m, EventInventoryUpdated)

	applied := m.IngestBatch([]model.SnapshotUpdate{
		{ProductID: "ring-001", Quantity: 8},
		{ProductID: "necklace-002", Quantity: 9},
		{ProductID: "", Quantity: 1},
	})

	assert.Equal(t, 2, applied)
	assert.Len(t, *events, 2)
}

func TestGetInventoryReturnsCopy(t *testing.T) {
	m := newTestManager()
	loadTestInventory(m)

	snap := m.GetInventory("ring-001")
	require.NotNil(t, snap)
	snap.Quantity = 999

	assert.Equal(t, 10, m.GetInventory("ring-001").Quantity)
	assert.Nil(t, m.GetInventory("no-such-product"))
}
