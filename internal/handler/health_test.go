package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facet-inventory-api/internal/inventory"
	"facet-inventory-api/internal/model"
)

func TestHealth(t *testing.T) {
	h := New(inventory.NewManager(inventory.Config{}), "1.2.3")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	h.Health(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Success bool           `json:"success"`
		Data    HealthResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.True(t, env.Success)
	assert.Equal(t, "healthy", env.Data.Status)
	assert.Equal(t, "1.2.3", env.Data.Version)
}

func TestReadyWaitsForFeed(t *testing.T) {
	manager := inventory.NewManager(inventory.Config{})
	h := New(manager, "1.0.0")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ready", nil)
	rec := httptest.NewRecorder()
	h.Ready(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	manager.LoadInitialInventory([]model.SnapshotUpdate{
		{ProductID: "ring-001", Quantity: 1},
	})

	rec = httptest.NewRecorder()
	h.Ready(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatus(t *testing.T) {
	manager := inventory.NewManager(inventory.Config{})
	manager.LoadInitialInventory(nil)
	manager.Subscribe("client-a")

	h := New(manager, "1.0.0")

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	h.Status(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store, no-cache, must-revalidate", rec.Header().Get("Cache-Control"))

	var env struct {
		Data StatusResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "facet-inventory-api", env.Data.Service)
	assert.Equal(t, "ok", env.Data.Checks.Feed)
	assert.Equal(t, 1, env.Data.Checks.Subscribers)
}
