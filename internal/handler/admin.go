package handler

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"facet-inventory-api/internal/cache"
	"facet-inventory-api/internal/inventory"
	"facet-inventory-api/internal/repository"

	"facet-inventory-api/pkg/apierror"
	"facet-inventory-api/pkg/response"
)

// AdminHandler serves operational endpoints: stats, health detail and
// the audit event log.
type AdminHandler struct {
	manager  *inventory.Manager
	buffer   *cache.RedisSnapshotBuffer
	repo     repository.SnapshotRepository
	eventLog repository.EventLogRepository
	dbType   string
}

// NewAdminHandler creates an admin handler. buffer and eventLog may be
// nil when the deployment runs without Redis or Mongo.
func NewAdminHandler(manager *inventory.Manager, buffer *cache.RedisSnapshotBuffer, repo repository.SnapshotRepository, eventLog repository.EventLogRepository, dbType string) *AdminHandler {
	return &AdminHandler{
		manager:  manager,
		buffer:   buffer,
		repo:     repo,
		eventLog: eventLog,
		dbType:   dbType,
	}
}

// GetStats handles GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	status := h.manager.ConnectionStatus()
	stats := map[string]interface{}{
		"uptime_seconds": int64(time.Since(StartTime).Seconds()),
		"inventory": map[string]interface{}{
			"connected":           status.Connected,
			"subscribers":         status.Subscribers,
			"products":            len(h.manager.GetAllInventory()),
			"active_reservations": h.manager.ActiveReservations(),
			"alerts":              len(h.manager.GetAlerts()),
			"bus_listeners":       h.manager.Events().ListenerCount(),
		},
		"runtime": map[string]interface{}{
			"goroutines":      runtime.NumGoroutine(),
			"memory_alloc_mb": float64(memStats.Alloc) / 1024 / 1024,
			"gc_runs":         memStats.NumGC,
		},
	}

	if h.buffer != nil {
		pending, err := h.buffer.Count(ctx)
		bufferStats := map[string]interface{}{
			"enabled": true,
			"pending": pending,
		}
		if err != nil {
			bufferStats["error"] = err.Error()
		}
		stats["buffer"] = bufferStats
	} else {
		stats["buffer"] = map[string]interface{}{"enabled": false}
	}

	if h.repo != nil {
		dbStats, err := h.repo.GetStats(ctx)
		if err != nil {
			dbStats = map[string]interface{}{"error": err.Error()}
		}
		dbStats["type"] = h.dbType
		stats["database"] = dbStats
	}

	response.OK(w, stats)
}

// GetHealth handles GET /api/v1/admin/health - dependency-level detail
// beyond the public health check.
func (h *AdminHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	checks := map[string]string{}
	healthy := true

	if h.repo != nil {
		if _, err := h.repo.GetStats(ctx); err != nil {
			checks["database"] = "error: " + err.Error()
			healthy = false
		} else {
			checks["database"] = "ok"
		}
	} else {
		checks["database"] = "disabled"
	}

	if h.buffer != nil {
		if _, err := h.buffer.Count(ctx); err != nil {
			checks["buffer"] = "error: " + err.Error()
			healthy = false
		} else {
			checks["buffer"] = "ok"
		}
	} else {
		checks["buffer"] = "disabled"
	}

	if h.manager.ConnectionStatus().Connected {
		checks["inventory-feed"] = "ok"
	} else {
		checks["inventory-feed"] = "waiting"
	}

	statusText := "healthy"
	statusCode := http.StatusOK
	if !healthy {
		statusText = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	response.JSON(w, statusCode, map[string]interface{}{
		"status": statusText,
		"checks": checks,
	})
}

// GetEvents handles GET /api/v1/admin/events - paginated audit trail.
func (h *AdminHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	if h.eventLog == nil {
		response.Error(w, apierror.ServiceUnavailable("Event log is not configured"))
		return
	}

	limit := 50
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	events, total, err := h.eventLog.GetRecentEvents(r.Context(), limit, offset)
	if err != nil {
		response.Error(w, apierror.InternalError("Failed to read event log"))
		return
	}

	response.OK(w, map[string]interface{}{
		"events": events,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}
