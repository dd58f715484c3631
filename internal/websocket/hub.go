// Package websocket pushes completed analysis results to the dashboard.
// The hub holds at most one active client: the dashboard tab that
// connected last wins.
package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/guardview/guardview/internal/logger"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is the frame sent to the dashboard.
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"`
}

// Hub manages the single active connection.
type Hub struct {
	client     *Client // nil when no dashboard is connected
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	log        *logger.Logger
}

// NewHub creates a hub.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        log,
	}
}

// Client represents one active WebSocket connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Run processes connection changes and outgoing frames until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			if h.client != nil {
				close(h.client.send)
				h.client = nil
			}
			h.mutex.Unlock()
			return

		case client := <-h.register:
			h.mutex.Lock()
			// A newer dashboard tab replaces the old one.
			if h.client != nil {
				close(h.client.send)
			}
			h.client = client
			h.mutex.Unlock()
			h.log.Info("dashboard connected")

		case client := <-h.unregister:
			h.mutex.Lock()
			if h.client == client {
				close(h.client.send)
				h.client = nil
				h.log.Info("dashboard disconnected")
			}
			h.mutex.Unlock()

		case message := <-h.broadcast:
			// Full lock: the slow-client drop below writes h.client,
			// which Broadcast reads concurrently under RLock.
			h.mutex.Lock()
			if h.client != nil {
				select {
				case h.client.send <- message:
				default:
					// Slow client, drop the connection.
					h.log.Warn("client send channel full, closing connection")
					close(h.client.send)
					h.client = nil
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Broadcast sends a typed frame to the active client, if any.
func (h *Hub) Broadcast(messageType string, data interface{}) {
	msg := Message{
		Type:      messageType,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}

	jsonData, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("marshal websocket message failed", err)
		return
	}

	h.mutex.RLock()
	clientExists := h.client != nil
	h.mutex.RUnlock()

	if !clientExists {
		h.log.Debug("no active dashboard, dropping frame", logger.Str("type", messageType))
		return
	}
	h.broadcast <- jsonData
}

// ServeWS upgrades an HTTP request into the dashboard connection.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("websocket upgrade failed", err)
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 64),
	}

	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	for {
		// Reads are only needed to detect disconnects.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("websocket read ended", logger.Str("reason", err.Error()))
			}
			break
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for {
		message, ok := <-c.send
		if !ok {
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
		c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}
