package inventory

import (
	"time"

	"facet-inventory-api/internal/model"

	"facet-inventory-api/pkg/uid"
)

// alertGenerator turns status transitions into alerts. It keeps the
// last seen status per product and the accumulated alert list;
// undismissed alerts are deduplicated by (productID, type).
type alertGenerator struct {
	lastStatus map[string]model.StockStatus
	alerts     []*model.Alert
	open       map[string]*model.Alert // productID + "/" + type, undismissed only
}

func newAlertGenerator() *alertGenerator {
	return &alertGenerator{
		lastStatus: make(map[string]model.StockStatus),
		open:       make(map[string]*model.Alert),
	}
}

// seed records a baseline status without emitting. Used during the
// initial bulk load.
func (g *alertGenerator) seed(snap *model.StockSnapshot) {
	g.lastStatus[snap.ProductID] = snap.Status
}

// observe compares the snapshot's status against the last seen one and
// returns a new alert when the transition crosses a threshold boundary,
// or nil. Products with no recorded baseline only seed it.
func (g *alertGenerator) observe(snap *model.StockSnapshot) *model.Alert {
	prev, seen := g.lastStatus[snap.ProductID]
	g.lastStatus[snap.ProductID] = snap.Status
	if !seen || prev == snap.Status {
		return nil
	}

	var (
		typ      model.AlertType
		severity model.AlertSeverity
	)
	switch {
	case snap.Status == model.StatusOutOfStock:
		typ, severity = model.AlertOutOfStock, model.SeverityError
	case prev == model.StatusInStock && snap.Status == model.StatusLowStock:
		typ, severity = model.AlertLowStock, model.SeverityWarning
	case snap.Status == model.StatusInStock:
		typ, severity = model.AlertRestock, model.SeveritySuccess
	default:
		// out-of-stock -> low-stock is a partial restock; no alert.
		return nil
	}

	key := snap.ProductID + "/" + string(typ)
	if _, dup := g.open[key]; dup {
		return nil
	}

	alert := &model.Alert{
		ID:        uid.New(),
		ProductID: snap.ProductID,
		Type:      typ,
		Severity:  severity,
		CreatedAt: time.Now(),
	}
	g.alerts = append(g.alerts, alert)
	g.open[key] = alert
	return alert
}

// dismiss marks an alert dismissed. Idempotent: unknown or already
// dismissed ids change nothing and report false.
func (g *alertGenerator) dismiss(id string) (*model.Alert, bool) {
	for _, alert := range g.alerts {
		if alert.ID != id {
			continue
		}
		if alert.Dismissed {
			return alert, false
		}
		alert.Dismissed = true
		delete(g.open, alert.ProductID+"/"+string(alert.Type))
		return alert, true
	}
	return nil, false
}

// list returns copies of all alerts in creation order.
func (g *alertGenerator) list() []model.Alert {
	out := make([]model.Alert, len(g.alerts))
	for i, alert := range g.alerts {
		out[i] = *alert
	}
	return out
}
