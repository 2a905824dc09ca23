// Package wsapi pushes live deal/notification/stats events to connected
// dashboard operators over WebSocket, adapted from the reference hub's
// registration/broadcast loop (SPEC_FULL §11).
package wsapi

import (
	"bytes"
	"encoding/json"
	"sync"

	"arbitrage/internal/models"
	"arbitrage/pkg/utils"
)

var jsonBufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 512))
	},
}

// Hub fans broadcast messages out to every registered client. Slow
// clients (send buffer full) are dropped rather than allowed to stall the
// broadcast loop for everyone else.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	logger     *utils.Logger
}

func NewHub(logger *utils.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
	}
}

// Run processes registration, deregistration, and broadcast; it has no stop
// signal and never returns. Callers launch it once as a background
// goroutine: go hub.Run().
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			var slow []*Client
			for _, client := range clients {
				select {
				case client.send <- message:
				default:
					slow = append(slow, client)
				}
			}

			if len(slow) > 0 {
				h.mu.Lock()
				for _, client := range slow {
					if _, ok := h.clients[client]; ok {
						delete(h.clients, client)
						close(client.send)
					}
				}
				h.mu.Unlock()
			}
		}
	}
}

func (h *Hub) send(message interface{}) {
	buf := jsonBufferPool.Get().(*bytes.Buffer)
	buf.Reset()

	if err := json.NewEncoder(buf).Encode(message); err != nil {
		if h.logger != nil {
			h.logger.Warn("wsapi: failed to marshal broadcast message", utils.Err(err))
		}
		jsonBufferPool.Put(buf)
		return
	}

	data := buf.Bytes()
	if len(data) > 0 && data[len(data)-1] == '\n' {
		data = data[:len(data)-1]
	}
	payload := make([]byte, len(data))
	copy(payload, data)
	jsonBufferPool.Put(buf)

	h.broadcast <- payload
}

// Broadcast satisfies service.Broadcaster.
func (h *Hub) Broadcast(n *models.Notification) {
	h.send(newNotificationMessage(n))
}

// BroadcastStats satisfies service.StatsBroadcaster.
func (h *Hub) BroadcastStats(s *models.ScannerStats) {
	h.send(newStatsMessage(s))
}

// ClientCount reports the number of currently connected dashboard clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
