package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/welldanyogia/webrana-loveletters-backend/internal/models"
	"github.com/welldanyogia/webrana-loveletters-backend/internal/services"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	MessageTypePing        MessageType = "ping"
	MessageTypePong        MessageType = "pong"
	MessageTypeNewMessage  MessageType = "new_message"
	MessageTypeMessageRead MessageType = "message_read"
	MessageTypeError       MessageType = "error"
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    MessageType `json:"type"`
	Message interface{} `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// NewMessagePayload is pushed to the recipient when a letter is delivered.
// It never carries content or the secret code.
type NewMessagePayload struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Locked    bool      `json:"locked"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageReadPayload is pushed to the sender the first time a letter is read
type MessageReadPayload struct {
	ID        string    `json:"id"`
	Recipient string    `json:"recipient"`
	ReadAt    time.Time `json:"read_at"`
}

// Hub maintains the set of active clients and pushes events to them by username
type Hub struct {
	// Connected clients per username
	clients map[string]map[*Client]bool

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Outgoing events
	broadcast chan *broadcastMessage

	// Closed when Run returns
	done chan struct{}

	mu sync.RWMutex

	logger *slog.Logger
}

type broadcastMessage struct {
	username string
	message  []byte
}

var _ services.Notifier = (*Hub)(nil)

// NewHub creates a new Hub instance
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *broadcastMessage, 256),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run starts the hub's main loop. It returns when ctx is cancelled, closing
// every client's send channel.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for username, set := range h.clients {
				for client := range set {
					close(client.send)
				}
				delete(h.clients, username)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.username] == nil {
				h.clients[client.username] = make(map[*Client]bool)
			}
			h.clients[client.username][client] = true
			h.mu.Unlock()
			if h.logger != nil {
				h.logger.Debug("client registered", slog.String("username", client.username))
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if set, ok := h.clients[client.username]; ok {
				if _, ok := set[client]; ok {
					delete(set, client)
					close(client.send)
				}
				if len(set) == 0 {
					delete(h.clients, client.username)
				}
			}
			h.mu.Unlock()
			if h.logger != nil {
				h.logger.Debug("client unregistered", slog.String("username", client.username))
			}

		case msg := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients[msg.username] {
				select {
				case client.send <- msg.message:
				default:
					// Client buffer full, skip
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a client to the hub. It reports false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount returns the number of open connections
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

// NotifyNewMessage tells the recipient a letter has arrived
func (h *Hub) NotifyNewMessage(recipient string, msg *models.Message) {
	h.send(recipient, MessageTypeNewMessage, &NewMessagePayload{
		ID:        msg.ID,
		Sender:    msg.Sender,
		Locked:    msg.IsGated(),
		CreatedAt: msg.CreatedAt,
	})
}

// NotifyMessageRead tells the sender their letter was read
func (h *Hub) NotifyMessageRead(sender string, msg *models.Message) {
	payload := &MessageReadPayload{ID: msg.ID, Recipient: msg.Recipient}
	if msg.ReadAt != nil {
		payload.ReadAt = *msg.ReadAt
	}
	h.send(sender, MessageTypeMessageRead, payload)
}

// send queues an event without blocking the caller; events are dropped when
// the queue is full.
func (h *Hub) send(username string, kind MessageType, payload interface{}) {
	data, err := json.Marshal(WSMessage{Type: kind, Message: payload})
	if err != nil {
		if h.logger != nil {
			h.logger.Error("failed to marshal broadcast message", slog.Any("error", err))
		}
		return
	}

	select {
	case h.broadcast <- &broadcastMessage{username: username, message: data}:
	default:
		if h.logger != nil {
			h.logger.Warn("push queue full, dropping event",
				slog.String("type", string(kind)),
				slog.String("username", username))
		}
	}
}
