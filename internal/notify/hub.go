package notify

import (
	"encoding/json"
	"log"
	"sync"

	"quotewire/internal/models"

	"github.com/gorilla/websocket"
)

// Event is the wire envelope pushed to websocket subscribers.
type Event struct {
	Type    string `json:"type"` // "cycle", "quotes", "source_disabled", "provider_disabled"
	Payload any    `json:"payload"`
}

// Hub broadcasts pipeline events to connected websocket subscribers. Slow or
// dead connections are dropped rather than allowed to block the broadcast.
type Hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

func NewHub() *Hub {
	return &Hub{conns: make(map[*websocket.Conn]bool)}
}

// Register adds a subscriber connection. The hub owns the connection from
// this point and closes it on broadcast failure.
func (h *Hub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	h.conns[conn] = true
	h.mu.Unlock()
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	if h.conns[conn] {
		delete(h.conns, conn)
		conn.Close()
	}
	h.mu.Unlock()
}

// SubscriberCount reports the number of connected subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *Hub) broadcast(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[notify] failed to marshal event %s: %v", event.Type, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			delete(h.conns, conn)
			conn.Close()
		}
	}
}

func (h *Hub) SourceDisabled(source models.Source) {
	h.broadcast(Event{Type: "source_disabled", Payload: source})
}

func (h *Hub) ProviderDisabled(provider models.HistoricalProvider) {
	h.broadcast(Event{Type: "provider_disabled", Payload: provider})
}

func (h *Hub) CycleCompleted(summary models.CycleSummary) {
	h.broadcast(Event{Type: "cycle", Payload: summary})
}

func (h *Hub) QuotesPublished(quotes []models.Quote) {
	if len(quotes) == 0 {
		return
	}
	h.broadcast(Event{Type: "quotes", Payload: quotes})
}
