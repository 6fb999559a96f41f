package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
}

// Client is one connected websocket, keyed by player.
type Client struct {
	conn     *websocket.Conn
	playerID int64
	send     chan []byte
}

// Hub tracks connected clients. One connection per player; a new
// connection replaces the old one.
type Hub struct {
	clients map[int64]*Client
	mu      sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{clients: make(map[int64]*Client)}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	if old, exists := h.clients[c.playerID]; exists {
		close(old.send)
	}
	h.clients[c.playerID] = c
	h.mu.Unlock()
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	if h.clients[c.playerID] == c {
		delete(h.clients, c.playerID)
		close(c.send)
	}
	h.mu.Unlock()
}

// SendToPlayer delivers a message to the player's connection if one exists.
func (h *Hub) SendToPlayer(playerID int64, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("[WS] Error marshaling message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if client, exists := h.clients[playerID]; exists {
		select {
		case client.send <- data:
		default:
			log.Printf("[WS] SendToPlayer dropped message for player %d (buffer full)", playerID)
		}
	}
}

// Broadcast delivers a message to every connected client.
func (h *Hub) Broadcast(message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("[WS] Error marshaling message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for playerID, client := range h.clients {
		select {
		case client.send <- data:
		default:
			log.Printf("[WS] Broadcast dropped message for player %d (buffer full)", playerID)
		}
	}
}

// HandleConnection upgrades the request and pumps events to the client
// until it disconnects. The player identifies itself by query param.
func HandleConnection(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID, err := strconv.ParseInt(c.Query("player_id"), 10, 64)
		if err != nil || playerID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid player_id"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[WS] Upgrade failed for player %d: %v", playerID, err)
			return
		}

		client := &Client{conn: conn, playerID: playerID, send: make(chan []byte, 64)}
		hub.add(client)
		log.Printf("[WS] Player %d connected", playerID)

		go client.writePump()
		client.readPump(hub)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[WS] Write error for player %d: %v", c.playerID, err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains inbound frames so pings and close frames are handled.
// Clients do not send commands over the socket; it is a one-way event feed.
func (c *Client) readPump(hub *Hub) {
	defer func() {
		hub.remove(c)
		c.conn.Close()
		log.Printf("[WS] Player %d disconnected", c.playerID)
	}()
	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
