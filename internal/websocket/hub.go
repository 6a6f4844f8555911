package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ikkim/storefront-backend/pkg/logger"
)

const sendBufferSize = 16

// CartUpdate is pushed to every open session of a user whose cart changed.
type CartUpdate struct {
	Type      string `json:"type"`
	ItemCount int    `json:"count"`
}

const cartUpdatedType = "cart_updated"

// Client is one websocket session. A user may hold several (tabs, devices).
type Client struct {
	hub    *Hub
	conn   *Conn
	UserID uint
	Send   chan []byte
}

type userEvent struct {
	userID  uint
	payload []byte
}

// Hub fans cart badge updates out to a user's sessions. All map mutation
// happens on the Run goroutine; the RWMutex only guards reads from other
// goroutines.
type Hub struct {
	clients map[uint]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	events     chan userEvent
	done       chan struct{}

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint]map[*Client]struct{}),
		register:   make(chan *Client, 64),
		unregister: make(chan *Client, 64),
		events:     make(chan userEvent, 256),
		done:       make(chan struct{}),
	}
}

// NewClient creates a session bound to hub. conn may be nil in tests.
func (h *Hub) NewClient(userID uint, conn *Conn) *Client {
	return &Client{
		hub:    h,
		conn:   conn,
		UserID: userID,
		Send:   make(chan []byte, sendBufferSize),
	}
}

// Run processes registrations and events until ctx is cancelled, then closes
// every session.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for userID, sessions := range h.clients {
				for client := range sessions {
					close(client.Send)
				}
				delete(h.clients, userID)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			sessions, ok := h.clients[client.UserID]
			if !ok {
				sessions = make(map[*Client]struct{})
				h.clients[client.UserID] = sessions
			}
			sessions[client] = struct{}{}
			total := len(sessions)
			h.mu.Unlock()
			logger.Debug("WebSocket client registered", map[string]interface{}{
				"user_id":        client.UserID,
				"total_sessions": total,
			})

		case client := <-h.unregister:
			h.remove(client)

		case ev := <-h.events:
			h.mu.RLock()
			var stalled []*Client
			for client := range h.clients[ev.userID] {
				select {
				case client.Send <- ev.payload:
				default:
					stalled = append(stalled, client)
				}
			}
			h.mu.RUnlock()
			for _, client := range stalled {
				logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
					"user_id": client.UserID,
				})
				h.remove(client)
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sessions, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	if _, ok := sessions[client]; !ok {
		return
	}
	delete(sessions, client)
	close(client.Send)
	if len(sessions) == 0 {
		delete(h.clients, client.UserID)
	}
}

// Register adds a session. It is a no-op once the hub has stopped.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// NotifyCartChanged queues a badge update for userID. Updates are dropped,
// never blocked on, when the hub is saturated or stopped.
func (h *Hub) NotifyCartChanged(userID uint, itemCount int) {
	if !h.IsUserOnline(userID) {
		return
	}
	payload, err := encodeCartUpdate(itemCount)
	if err != nil {
		logger.Error("Failed to marshal cart update", err, nil)
		return
	}

	select {
	case h.events <- userEvent{userID: userID, payload: payload}:
	default:
		logger.Warn("Cart update dropped, hub is busy", map[string]interface{}{
			"user_id": userID,
		})
	}
}

// SendCartCount queues the current badge for one session before it is
// started. It reports false when the buffer is full.
func (c *Client) SendCartCount(itemCount int) bool {
	payload, err := encodeCartUpdate(itemCount)
	if err != nil {
		return false
	}
	select {
	case c.Send <- payload:
		return true
	default:
		return false
	}
}

func encodeCartUpdate(itemCount int) ([]byte, error) {
	return json.Marshal(CartUpdate{Type: cartUpdatedType, ItemCount: itemCount})
}

// IsUserOnline reports whether userID has at least one open session.
func (h *Hub) IsUserOnline(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// SessionCount is the number of open sessions for userID.
func (h *Hub) SessionCount(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
