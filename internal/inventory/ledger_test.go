package inventory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facet-inventory-api/internal/model"
)

func testHold(id, productID string, qty int, expiresAt time.Time) *model.Reservation {
	return &model.Reservation{
		ID:        id,
		ProductID: productID,
		Quantity:  qty,
		SessionID: "sess",
		Type:      model.HoldCart,
		CreatedAt: time.Now(),
		ExpiresAt: expiresAt,
	}
}

func TestLedgerAddGetRemove(t *testing.T) {
	l := newLedger()
	future := time.Now().Add(time.Hour)

	l.add(testHold("r1", "p1", 2, future))
	l.add(testHold("r2", "p1", 3, future))
	l.add(testHold("r3", "p2", 1, future))

	assert.Equal(t, 3, l.count())
	assert.Equal(t, 5, l.activeQuantity("p1"))
	assert.Equal(t, 1, l.activeQuantity("p2"))
	assert.Equal(t, 0, l.activeQuantity("p3"))

	res := l.get("r2")
	require.NotNil(t, res)
	l.remove(res)

	assert.Equal(t, 2, l.count())
	assert.Equal(t, 2, l.activeQuantity("p1"))
	assert.Nil(t, l.get("r2"))
}

func TestLedgerExpired(t *testing.T) {
	l := newLedger()
	now := time.Now()

	l.add(testHold("r1", "p1", 1, now.Add(-time.Minute)))
	l.add(testHold("r2", "p1", 1, now.Add(time.Minute)))
	l.add(testHold("r3", "p2", 1, now.Add(-time.Second)))

	expired := l.expired(now)
	assert.Len(t, expired, 2)

	ids := map[string]bool{}
	for _, res := range expired {
		ids[res.ID] = true
	}
	assert.True(t, ids["r1"])
	assert.True(t, ids["r3"])
}
