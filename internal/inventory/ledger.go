package inventory

import (
	"time"

	"facet-inventory-api/internal/model"
)

// ledger tracks active reservations. Like the record store it carries
// no lock: the manager serializes every mutation so the sum of active
// hold quantities always equals the snapshot's Reserved field.
type ledger struct {
	holds     map[string]*model.Reservation
	byProduct map[string]map[string]struct{}
}

func newLedger() *ledger {
	return &ledger{
		holds:     make(map[string]*model.Reservation),
		byProduct: make(map[string]map[string]struct{}),
	}
}

func (l *ledger) get(id string) *model.Reservation {
	return l.holds[id]
}

func (l *ledger) add(res *model.Reservation) {
	l.holds[res.ID] = res
	ids, ok := l.byProduct[res.ProductID]
	if !ok {
		ids = make(map[string]struct{})
		l.byProduct[res.ProductID] = ids
	}
	ids[res.ID] = struct{}{}
}

func (l *ledger) remove(res *model.Reservation) {
	delete(l.holds, res.ID)
	if ids, ok := l.byProduct[res.ProductID]; ok {
		delete(ids, res.ID)
		if len(ids) == 0 {
			delete(l.byProduct, res.ProductID)
		}
	}
}

// activeQuantity sums the held units for one product.
func (l *ledger) activeQuantity(productID string) int {
	total := 0
	for id := range l.byProduct[productID] {
		if res := l.holds[id]; res != nil {
			total += res.Quantity
		}
	}
	return total
}

// expired returns the reservations past their expiry at now.
func (l *ledger) expired(now time.Time) []*model.Reservation {
	var out []*model.Reservation
	for _, res := range l.holds {
		if res.Expired(now) {
			out = append(out, res)
		}
	}
	return out
}

func (l *ledger) count() int {
	return len(l.holds)
}
