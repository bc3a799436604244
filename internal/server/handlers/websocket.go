// internal/server/handlers/websocket.go

package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// WebSocketClient represents a connected WebSocket client
type WebSocketClient struct {
	conn     *websocket.Conn
	natsConn *nats.Conn
	natsSub  *nats.Subscription

	mu     sync.Mutex
	closed bool
	send   chan []byte
}

// WebSocketConfig contains configuration for WebSocket connections
type WebSocketConfig struct {
	// Time allowed to write a message to the peer
	WriteWait time.Duration

	// Time allowed to read the next pong message from the peer
	PongWait time.Duration

	// Send pings to peer with this period
	PingPeriod time.Duration

	// Maximum message size allowed from peer
	MaxMessageSize int64
}

// DefaultWebSocketConfig returns the default WebSocket configuration
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     (60 * time.Second * 9) / 10,
		MaxMessageSize: 1024,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// In production, this should be more restrictive
		return true
	},
}

// PulseWebSocketHandler streams pulse updates to connected clients. Each
// update published on eventsTopic is forwarded as one JSON message; on
// connect, the most recent result is sent immediately when available.
func PulseWebSocketHandler(natsConn *nats.Conn, provider PulseProvider, eventsTopic string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error().Err(err).Msg("failed to upgrade to WebSocket")
			return
		}

		client := &WebSocketClient{
			conn:     conn,
			send:     make(chan []byte, 16),
			natsConn: natsConn,
		}

		go client.writePump()
		go client.readPump()

		if natsConn != nil {
			sub, err := natsConn.Subscribe(eventsTopic, func(msg *nats.Msg) {
				client.trySend(msg.Data)
			})
			if err != nil {
				log.Error().Err(err).Msg("failed to subscribe to pulse updates")
				client.closeConnection()
				return
			}
			client.natsSub = sub
		}

		if result := provider.Latest(); result != nil {
			if data, err := json.Marshal(result); err == nil {
				client.trySend(data)
			}
		}

		log.Debug().Str("remote", r.RemoteAddr).Msg("new pulse WebSocket connection")
	}
}

// readPump drains client messages to keep the connection alive. Clients
// never send application data; only pongs and close frames matter.
func (c *WebSocketClient) readPump() {
	config := DefaultWebSocketConfig()

	defer func() {
		c.closeConnection()
	}()

	c.conn.SetReadLimit(config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(config.PongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Msg("WebSocket read error")
			}
			break
		}
	}
}

// writePump pumps queued updates to the WebSocket connection
func (c *WebSocketClient) writePump() {
	config := DefaultWebSocketConfig()
	ticker := time.NewTicker(config.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// trySend queues a message unless the client has shut down or its buffer is
// full. Sends hold the same mutex that marks the channel closed, so a
// subscription callback racing closeConnection can never hit a closed
// channel.
func (c *WebSocketClient) trySend(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- message:
		return true
	default:
		// Slow consumer, drop the update. The next one carries the
		// full state anyway.
		return false
	}
}

// closeConnection closes the WebSocket connection and cleans up resources.
// Safe to call more than once.
func (c *WebSocketClient) closeConnection() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()

	if c.natsSub != nil {
		c.natsSub.Unsubscribe()
	}
	c.conn.Close()
}
