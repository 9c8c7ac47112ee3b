// Package realtime pushes per-user events over websockets.
package realtime

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"nutricoach/api/internal/domain"

	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	KindDailyUpdated = "daily.updated"

	writeWait    = 10 * time.Second
	pingInterval = 25 * time.Second
	pongWait     = 60 * time.Second
)

// Event is the JSON message sent to subscribers.
type Event struct {
	Kind  string                 `json:"kind"`
	Daily *domain.DailyNutrition `json:"daily,omitempty"`
}

// Publisher delivers events to every live connection of a user.
type Publisher interface {
	Publish(userID primitive.ObjectID, event Event)
}

// Client is one websocket connection. gorilla/websocket allows a single
// concurrent writer, so all writes go through writeMu.
type Client struct {
	UserID  primitive.ObjectID
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *Client) write(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, data)
}

// Hub tracks connections per user.
type Hub struct {
	mu      sync.RWMutex
	clients map[primitive.ObjectID]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[primitive.ObjectID]map[*Client]struct{})}
}

// Register starts tracking conn for userID.
func (h *Hub) Register(userID primitive.ObjectID, conn *websocket.Conn) *Client {
	c := &Client{UserID: userID, conn: conn}
	h.mu.Lock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*Client]struct{})
	}
	h.clients[userID][c] = struct{}{}
	h.mu.Unlock()
	return c
}

// Unregister stops tracking c and closes its connection.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if set := h.clients[c.UserID]; set != nil {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.UserID)
		}
	}
	h.mu.Unlock()
	_ = c.conn.Close()
}

// Connections returns the number of live connections of a user.
func (h *Hub) Connections(userID primitive.ObjectID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Publish sends event to all of the user's connections. Failed writes drop
// the connection.
func (h *Hub) Publish(userID primitive.ObjectID, event Event) {
	msg, err := json.Marshal(event)
	if err != nil {
		log.Printf("ERROR: Failed to marshal realtime event %s: %v", event.Kind, err)
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.write(websocket.TextMessage, msg); err != nil {
			h.Unregister(c)
		}
	}
}

// Serve keeps c alive with pings and blocks until the peer goes away.
// Incoming messages are read and discarded; the channel is server-to-client.
func (h *Hub) Serve(c *Client) {
	defer h.Unregister(c)

	done := make(chan struct{})
	go func() {
		t := time.NewTicker(pingInterval)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				if err := c.write(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()
	defer close(done)

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
