package websocket

import (
	"log/slog"
	"sync"

	"github.com/savcinema/voicereview-service/internal/types"
)

// Hub maintains the set of connected admin dashboard sessions and fans
// moderation events out to them.
type Hub struct {
	// Registered clients mapped by admin ID; one session per admin
	clients map[string]*Client

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Mutex to protect clients map
	mu sync.RWMutex

	// Channel to broadcast events
	broadcast chan *types.Event
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *types.Event),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			// If the admin already has a connection, close the old one
			if existing, exists := h.clients[client.adminID]; exists {
				close(existing.send)
				slog.Info("Replaced existing WebSocket connection", slog.String("admin_id", client.adminID))
			}
			h.clients[client.adminID] = client
			h.mu.Unlock()
			slog.Info("WebSocket client connected", slog.String("admin_id", client.adminID))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.adminID]; ok {
				delete(h.clients, client.adminID)
				close(client.send)
				slog.Info("WebSocket client disconnected", slog.String("admin_id", client.adminID))
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.broadcastToAll(event)
		}
	}
}

// RegisterClient registers a new client
func (h *Hub) RegisterClient(client *Client) {
	h.register <- client
}

// UnregisterClient unregisters a client
func (h *Hub) UnregisterClient(client *Client) {
	h.unregister <- client
}

// BroadcastToAdmins sends an event to every connected admin session
func (h *Hub) BroadcastToAdmins(event *types.Event) {
	select {
	case h.broadcast <- event:
	default:
		slog.Warn("Broadcast channel is full, dropping event", slog.String("type", string(event.Type)))
	}
}

func (h *Hub) broadcastToAll(event *types.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for adminID, client := range h.clients {
		err := client.SendEvent(event)
		if err != nil {
			slog.Error("Failed to send event to client",
				slog.String("admin_id", adminID),
				slog.String("error", err.Error()))
			go func(c *Client) {
				h.unregister <- c
			}(client)
		}
	}
}

// HasClients reports whether any admin session is connected
func (h *Hub) HasClients() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients) > 0
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}
