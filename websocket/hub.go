package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/rohanpatil-prog/AI-Call-Audit/metrics"
	"github.com/rohanpatil-prog/AI-Call-Audit/models"
)

type sessionMessage struct {
	sessionID string
	data      []byte
}

// Hub manages player connections, grouped by audit session.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	broadcast chan sessionMessage

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	stop chan struct{}

	mutex            sync.RWMutex
	connectedClients int
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan sessionMessage, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		stop:       make(chan struct{}),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mutex.Lock()
			h.clients[client] = true
			h.connectedClients = len(h.clients)
			h.mutex.Unlock()
			metrics.PlayerClients.Set(float64(h.connectedClients))
			log.WithFields(log.Fields{
				"session_id": client.sessionID,
				"clients":    h.connectedClients,
			}).Info("player.connected")

		case client := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.connectedClients = len(h.clients)
			}
			h.mutex.Unlock()
			metrics.PlayerClients.Set(float64(h.connectedClients))
			log.WithFields(log.Fields{
				"session_id": client.sessionID,
				"clients":    h.connectedClients,
			}).Info("player.disconnected")

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				if client.sessionID != message.sessionID {
					continue
				}
				select {
				case client.send <- message.data:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.connectedClients = len(h.clients)
			h.mutex.Unlock()

		case <-h.stop:
			h.mutex.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.connectedClients = 0
			h.mutex.Unlock()
			return
		}
	}
}

// Stop closes every client and ends Run.
func (h *Hub) Stop() {
	close(h.stop)
}

// BroadcastTo sends a message to every player attached to the session.
func (h *Hub) BroadcastTo(sessionID string, message models.BroadcastMessage) {
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now()
	}
	data, err := json.Marshal(message)
	if err != nil {
		log.Errorf("Failed to marshal broadcast message: %v", err)
		return
	}

	select {
	case h.broadcast <- sessionMessage{sessionID: sessionID, data: data}:
	default:
		log.Warnf("Broadcast queue full, dropping %s message for %s", message.Type, sessionID)
	}
}

// ClientCount returns the number of connected players
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.connectedClients
}
