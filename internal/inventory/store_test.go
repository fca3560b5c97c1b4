package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facet-inventory-api/internal/model"
)

func TestStoreCreatesOnFirstSight(t *testing.T) {
	s := newRecordStore(5)

	snap := s.setQuantity("p1", 12, nil)
	require.NotNil(t, snap)
	assert.Equal(t, 12, snap.Quantity)
	assert.Equal(t, 0, snap.Reserved)
	assert.Equal(t, 12, snap.Available)
	assert.Equal(t, model.StatusInStock, snap.Status)
	assert.False(t, snap.LastUpdated.IsZero())
}

func TestStoreStatusBands(t *testing.T) {
	s := newRecordStore(5)

	assert.Equal(t, model.StatusOutOfStock, s.setQuantity("p1", 0, nil).Status)
	assert.Equal(t, model.StatusLowStock, s.setQuantity("p1", 1, nil).Status)
	assert.Equal(t, model.StatusLowStock, s.setQuantity("p1", 5, nil).Status)
	assert.Equal(t, model.StatusInStock, s.setQuantity("p1", 6, nil).Status)
}

func TestStoreReservedOnlyHonoredForNewProducts(t *testing.T) {
	s := newRecordStore(5)

	two := 2
	snap := s.setQuantity("p1", 10, &two)
	assert.Equal(t, 2, snap.Reserved)
	assert.Equal(t, 8, snap.Available)

	// Feed-supplied reserved is ignored once the product exists.
	nine := 9
	snap = s.setQuantity("p1", 10, &nine)
	assert.Equal(t, 2, snap.Reserved)
}

func TestStoreNegativeQuantityClampedToZero(t *testing.T) {
	s := newRecordStore(5)

	snap := s.setQuantity("p1", -3, nil)
	assert.Equal(t, 0, snap.Quantity)
	assert.Equal(t, model.StatusOutOfStock, snap.Status)
}

func TestStoreAvailableClampedWhenFeedDropsBelowReserved(t *testing.T) {
	s := newRecordStore(5)

	s.setQuantity("p1", 10, nil)
	s.adjustReserved("p1", 6)

	// Feed now reports fewer units than are held.
	snap := s.setQuantity("p1", 4, nil)
	assert.Equal(t, 6, snap.Reserved)
	assert.Equal(t, 0, snap.Available)
	assert.Equal(t, model.StatusOutOfStock, snap.Status)
}

func TestStoreAdjustReserved(t *testing.T) {
	s := newRecordStore(5)
	s.setQuantity("p1", 10, nil)

	snap := s.adjustReserved("p1", 3)
	assert.Equal(t, 3, snap.Reserved)
	assert.Equal(t, 7, snap.Available)

	snap = s.adjustReserved("p1", -3)
	assert.Equal(t, 0, snap.Reserved)

	// Over-release clamps at zero rather than going negative.
	snap = s.adjustReserved("p1", -5)
	assert.Equal(t, 0, snap.Reserved)

	assert.Nil(t, s.adjustReserved("unknown", 1))
}

func TestStoreListCopies(t *testing.T) {
	s := newRecordStore(5)
	s.setQuantity("p1", 10, nil)
	s.setQuantity("p2", 3, nil)

	list := s.list()
	require.Len(t, list, 2)
	list[0].Quantity = 999

	for _, snap := range s.list() {
		assert.NotEqual(t, 999, snap.Quantity)
	}
}
