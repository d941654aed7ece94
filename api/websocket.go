package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	sendBuffer = 64
	// allDevices subscribes a client to every event.
	allDevices = "all"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 16 * 1024,
}

type Client struct {
	hub  *WebSocketHub
	conn *websocket.Conn
	send chan []byte

	mu         sync.RWMutex
	subscribed map[string]bool
}

func (c *Client) wants(deviceID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.subscribed[deviceID] || c.subscribed[allDevices]
}

func (c *Client) setSubscription(deviceID string, on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if on {
		c.subscribed[deviceID] = true
	} else {
		delete(c.subscribed, deviceID)
	}
}

// subscription is the only message clients send.
type subscription struct {
	Type     string `json:"type"` // subscribe, unsubscribe
	DeviceID string `json:"device_id"`
}

// WebSocketHub fans job and discovery events out to connected clients.
type WebSocketHub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	logger     *zap.Logger
}

func NewWebSocketHub(logger *zap.Logger) *WebSocketHub {
	return &WebSocketHub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.Named("ws"),
	}
}

// Run serves registrations until ctx is done, then closes every client.
func (h *WebSocketHub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client connected", zap.Int("clients", n))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client disconnected", zap.Int("clients", n))

		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return
		}
	}
}

// ClientCount reports the number of connected clients.
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastToDevice sends message to clients subscribed to deviceID or to
// every device.
func (h *WebSocketHub) BroadcastToDevice(deviceID string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if client.wants(deviceID) {
			h.deliver(client, data)
		}
	}
}

// BroadcastToAll sends a message to all connected clients.
func (h *WebSocketHub) BroadcastToAll(message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("failed to marshal event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		h.deliver(client, data)
	}
}

// deliver drops the oldest queued message when a client falls behind.
func (h *WebSocketHub) deliver(client *Client, data []byte) {
	select {
	case client.send <- data:
		return
	default:
	}
	select {
	case <-client.send:
	default:
	}
	select {
	case client.send <- data:
	default:
		h.logger.Warn("client channel full, dropping event")
	}
}

func HandleWebSocket(hub *WebSocketHub, c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		hub.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBuffer),
		subscribed: make(map[string]bool),
	}
	select {
	case hub.register <- client:
	case <-hub.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump applies subscription messages from the client.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}

		var msg subscription
		if err := json.Unmarshal(message, &msg); err != nil || msg.DeviceID == "" {
			continue
		}
		switch msg.Type {
		case "subscribe":
			c.setSubscription(msg.DeviceID, true)
			c.hub.logger.Debug("client subscribed", zap.String("device_id", msg.DeviceID))
		case "unsubscribe":
			c.setSubscription(msg.DeviceID, false)
			c.hub.logger.Debug("client unsubscribed", zap.String("device_id", msg.DeviceID))
		}
	}
}

// writePump writes queued events and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
