package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facet-inventory-api/internal/model"
)

func snapWithStatus(productID string, status model.StockStatus) *model.StockSnapshot {
	return &model.StockSnapshot{ProductID: productID, Status: status}
}

func TestObserveWithoutBaselineOnlySeeds(t *testing.T) {
	g := newAlertGenerator()

	alert := g.observe(snapWithStatus("p1", model.StatusLowStock))
	assert.Nil(t, alert)

	// Baseline is now recorded; the next transition fires.
	alert = g.observe(snapWithStatus("p1", model.StatusOutOfStock))
	require.NotNil(t, alert)
	assert.Equal(t, model.AlertOutOfStock, alert.Type)
}

func TestObserveTransitions(t *testing.T) {
	tests := []struct {
		name     string
		from     model.StockStatus
		to       model.StockStatus
		wantType model.AlertType
		wantSev  model.AlertSeverity
		wantNil  bool
	}{
		{name: "in to low", from: model.StatusInStock, to: model.StatusLowStock, wantType: model.AlertLowStock, wantSev: model.SeverityWarning},
		{name: "in to out", from: model.StatusInStock, to: model.StatusOutOfStock, wantType: model.AlertOutOfStock, wantSev: model.SeverityError},
		{name: "low to out", from: model.StatusLowStock, to: model.StatusOutOfStock, wantType: model.AlertOutOfStock, wantSev: model.SeverityError},
		{name: "low to in", from: model.StatusLowStock, to: model.StatusInStock, wantType: model.AlertRestock, wantSev: model.SeveritySuccess},
		{name: "out to in", from: model.StatusOutOfStock, to: model.StatusInStock, wantType: model.AlertRestock, wantSev: model.SeveritySuccess},
		{name: "out to low partial restock", from: model.StatusOutOfStock, to: model.StatusLowStock, wantNil: true},
		{name: "no change", from: model.StatusInStock, to: model.StatusInStock, wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newAlertGenerator()
			g.seed(snapWithStatus("p1", tt.from))

			alert := g.observe(snapWithStatus("p1", tt.to))
			if tt.wantNil {
				assert.Nil(t, alert)
				return
			}
			require.NotNil(t, alert)
			assert.Equal(t, tt.wantType, alert.Type)
			assert.Equal(t, tt.wantSev, alert.Severity)
			assert.Equal(t, "p1", alert.ProductID)
			assert.False(t, alert.Dismissed)
		})
	}
}

func TestObserveDeduplicatesUndismissed(t *testing.T) {
	g := newAlertGenerator()
	g.seed(snapWithStatus("p1", model.StatusInStock))

	first := g.observe(snapWithStatus("p1", model.StatusLowStock))
	require.NotNil(t, first)

	// Bounce back up and down again: the low-stock alert is still open,
	// so only the restock fires.
	restock := g.observe(snapWithStatus("p1", model.StatusInStock))
	require.NotNil(t, restock)
	dup := g.observe(snapWithStatus("p1", model.StatusLowStock))
	assert.Nil(t, dup)

	// Dismissing reopens the slot.
	_, changed := g.dismiss(first.ID)
	require.True(t, changed)
	g.observe(snapWithStatus("p1", model.StatusInStock))
	again := g.observe(snapWithStatus("p1", model.StatusLowStock))
	assert.NotNil(t, again)
}

func TestDismiss(t *testing.T) {
	g := newAlertGenerator()
	g.seed(snapWithStatus("p1", model.StatusInStock))
	alert := g.observe(snapWithStatus("p1", model.StatusOutOfStock))
	require.NotNil(t, alert)

	got, changed := g.dismiss(alert.ID)
	require.True(t, changed)
	assert.True(t, got.Dismissed)

	// Second dismiss changes nothing.
	got, changed = g.dismiss(alert.ID)
	assert.False(t, changed)
	assert.True(t, got.Dismissed)

	// Unknown id.
	got, changed = g.dismiss("missing")
	assert.False(t, changed)
	assert.Nil(t, got)
}

func TestListPreservesCreationOrder(t *testing.T) {
	g := newAlertGenerator()
	g.seed(snapWithStatus("p1", model.StatusInStock))
	g.seed(snapWithStatus("p2", model.StatusInStock))

	g.observe(snapWithStatus("p1", model.StatusLowStock))
	g.observe(snapWithStatus("p2", model.StatusOutOfStock))
	g.observe(snapWithStatus("p1", model.StatusInStock))

	alerts := g.list()
	require.Len(t, alerts, 3)
	assert.Equal(t, model.AlertLowStock, alerts[0].Type)
	assert.Equal(t, model.AlertOutOfStock, alerts[1].Type)
	assert.Equal(t, model.AlertRestock, alerts[2].Type)
}
