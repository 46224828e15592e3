package websocket

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dukerupert/chistopro/internal/events"
)

// Message is a change notification pushed to every connected UI. Clients
// reload the entity it names.
type Message struct {
	Type        string    `json:"type"`
	Entity      string    `json:"entity"`
	Action      string    `json:"action"`
	ChecklistID string    `json:"checklist_id,omitempty"`
	At          time.Time `json:"at"`
}

// MessageFromEvent splits an event type such as "checklist_completed" into
// entity and action.
func MessageFromEvent(ev events.Event) Message {
	entity, action, _ := strings.Cut(string(ev.Type), "_")
	return Message{
		Type:        string(ev.Type),
		Entity:      entity,
		Action:      action,
		ChecklistID: ev.ChecklistID,
		At:          ev.At,
	}
}

// Hub maintains the set of active WebSocket clients and broadcasts messages.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	current func() string
	logger  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger.With("component", "websocket"),
	}
}

// SetCurrentChecklist sets the lookup used to name the current checklist in
// the welcome message sent to each new client.
func (h *Hub) SetCurrentChecklist(fn func() string) {
	h.mu.Lock()
	h.current = fn
	h.mu.Unlock()
}

// welcome tells a new client which checklist is current, so it can load it
// without waiting for the next change.
func (h *Hub) welcome() ([]byte, error) {
	h.mu.RLock()
	current := h.current
	h.mu.RUnlock()

	msg := Message{
		Type:   "session_connected",
		Entity: "session",
		Action: "connected",
		At:     time.Now().UTC(),
	}
	if current != nil {
		msg.ChecklistID = current()
	}
	return json.Marshal(msg)
}

// HandleEvent is an events.Handler that broadcasts every event.
func (h *Hub) HandleEvent(ev events.Event) {
	h.Broadcast(MessageFromEvent(ev))
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast sends a message to all connected clients.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("client buffer full, dropping message", "type", msg.Type)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
