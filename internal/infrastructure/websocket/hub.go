package websocket

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/swapspot/swapspot/internal/infrastructure/logger"
	"go.uber.org/zap"
)

const MessageUnreadCount = "unread_count"

type PushMessage struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

func NewUnreadCountMessage(count int64) *PushMessage {
	return &PushMessage{
		Type: MessageUnreadCount,
		Data: map[string]any{"count": count},
	}
}

// Hub tracks one push connection per user and fans notification events out to
// them.
type Hub struct {
	logger     *logger.Logger
	clients    map[uint]*PushClient
	register   chan *PushClient
	unregister chan *PushClient
	done       chan struct{}
	mu         sync.RWMutex
	upgrader   websocket.Upgrader
}

func NewHub(logger *logger.Logger) *Hub {
	return &Hub{
		logger:     logger,
		clients:    make(map[uint]*PushClient),
		register:   make(chan *PushClient),
		unregister: make(chan *PushClient),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	defer h.cleanup()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("push hub shutting down")
			return
		case client := <-h.register:
			h.mu.Lock()
			if existing, exists := h.clients[client.UserID]; exists {
				close(existing.send)
			}
			h.clients[client.UserID] = client
			h.mu.Unlock()
			h.logger.Debug("push client registered", zap.Uint("userID", client.UserID))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, exists := h.clients[client.UserID]; exists {
				delete(h.clients, client.UserID)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Debug("push client unregistered", zap.Uint("userID", client.UserID))
		}
	}
}

// NotifyUser queues a message for one user; a disconnected user or a full
// send buffer drops the message.
func (h *Hub) NotifyUser(userID uint, message *PushMessage) {
	h.mu.RLock()
	client, exists := h.clients[userID]
	h.mu.RUnlock()

	if !exists {
		return
	}

	select {
	case client.send <- message:
	default:
		h.logger.Warn("push buffer full, dropping message", zap.Uint("userID", userID))
	}
}

func (h *Hub) Upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	return h.upgrader.Upgrade(w, r, nil)
}

// RegisterClient hands a connection to the run loop. Returns false when the
// hub has already shut down; the caller closes the connection itself then.
func (h *Hub) RegisterClient(client *PushClient) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) UnregisterClient(client *PushClient) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Done closes when the run loop has exited.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

func (h *Hub) cleanup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, client := range h.clients {
		close(client.send)
		client.conn.Close()
		h.logger.Debug("closed push connection", zap.Uint("userID", userID))
	}
	h.clients = make(map[uint]*PushClient)
}
