package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dukerupert/listkeeper/internal/store"
)

// Entities that are not repository records.
const (
	EntityToast    = "toast"
	EntitySettings = "settings"
	EntityBackup   = "backup"
)

// Message represents a real-time sync notification broadcast to all clients.
type Message struct {
	Type   string         `json:"type"`
	Entity string         `json:"entity"`
	Action string         `json:"action"`
	ID     string         `json:"id,omitempty"`
	ListID string         `json:"listId,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// NewMessage creates a Message with the Type field derived from entity and action.
func NewMessage(entity, action, id string, extra map[string]any) Message {
	return Message{
		Type:   fmt.Sprintf("%s_%s", entity, action),
		Entity: entity,
		Action: action,
		ID:     id,
		Extra:  extra,
	}
}

// MessageFromEvent converts a committed repository change into a Message.
func MessageFromEvent(e store.Event) Message {
	id := e.ListID
	if e.ItemID != "" {
		id = e.ItemID
	}
	msg := NewMessage(e.Entity, e.Action, id, e.Extra)
	msg.ListID = e.ListID
	return msg
}

// Hub maintains the set of active WebSocket clients and broadcasts messages.
// It is both the repository's event publisher and a toast notifier.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
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

// Broadcast sends a message to every client that wants it.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if !c.wants(msg) {
			continue
		}
		select {
		case c.send <- data:
		default:
			// Client buffer full, drop message to avoid blocking
		}
	}
}

// Publish broadcasts a repository change.
func (h *Hub) Publish(_ context.Context, e store.Event) {
	h.Broadcast(MessageFromEvent(e))
}

func (h *Hub) Success(_ context.Context, msg string) {
	h.Broadcast(NewMessage(EntityToast, "success", "", map[string]any{"message": msg}))
}

func (h *Hub) Error(_ context.Context, msg string) {
	h.Broadcast(NewMessage(EntityToast, "error", "", map[string]any{"message": msg}))
}

// BroadcastDebug tells clients the debug switch changed.
func (h *Hub) BroadcastDebug(on bool) {
	h.Broadcast(NewMessage(EntitySettings, "updated", "debug", map[string]any{"debug": on}))
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
