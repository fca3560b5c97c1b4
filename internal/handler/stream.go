package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"facet-inventory-api/internal/inventory"
	"facet-inventory-api/internal/model"

	"facet-inventory-api/pkg/uid"
)

const (
	streamWriteTimeout = 10 * time.Second
	streamPingInterval = 30 * time.Second
	streamEventBuffer  = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Origin is enforced by the CORS layer; tokens gate the upgrade.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// streamFrame is the wire format pushed to stream clients. The first
// frame carries the full snapshot list; every frame after that is a
// single bus event.
type streamFrame struct {
	Type      string                `json:"type"`
	Snapshots []model.StockSnapshot `json:"snapshots,omitempty"`
	Event     *inventory.Event      `json:"event,omitempty"`
	At        time.Time             `json:"at"`
}

// StreamHandler upgrades clients to a WebSocket and forwards every bus
// event for the lifetime of the connection. Each connection counts as
// one manager subscriber, so connect and disconnect show up as
// subscriber-added and subscriber-removed events.
type StreamHandler struct {
	manager *inventory.Manager
}

// NewStreamHandler creates a stream handler.
func NewStreamHandler(manager *inventory.Manager) *StreamHandler {
	return &StreamHandler{manager: manager}
}

// Stream handles GET /api/v1/stream
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Stream] upgrade failed: %v", err)
		return
	}

	subscriberID := uid.New()
	h.manager.Subscribe(subscriberID)
	log.Printf("[Stream] client %s connected", subscriberID)

	// Buffered so slow clients drop events instead of blocking the bus.
	events := make(chan inventory.Event, streamEventBuffer)
	subID := h.manager.Events().Subscribe(func(ev inventory.Event) {
		select {
		case events <- ev:
		default:
			log.Printf("[Stream] client %s lagging, dropping %s", subscriberID, ev.Type)
		}
	})

	defer func() {
		h.manager.Events().Unsubscribe(subID)
		h.manager.Unsubscribe(subscriberID)
		conn.Close()
		log.Printf("[Stream] client %s disconnected", subscriberID)
	}()

	// Initial state frame so clients never have to poll after connect.
	conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	if err := conn.WriteJSON(streamFrame{
		Type:      "snapshot",
		Snapshots: h.manager.GetAllInventory(),
		At:        time.Now().UTC(),
	}); err != nil {
		return
	}

	// Read pump: we never expect client frames, but reading drives
	// close/pong handling and detects disconnects.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(streamPingInterval)
	defer ping.Stop()

	for {
		select {
		case ev := <-events:
			conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			frame := streamFrame{Type: "event", Event: &ev, At: time.Now().UTC()}
			if err := conn.WriteJSON(frame); err != nil {
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
