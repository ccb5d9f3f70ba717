package realtime

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	sl "github.com/14kear/sso-prettyslog/slogpretty/errors"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096

	welcomeText   = "Connected to Voting System WebSocket!"
	welcomeSender = "system"
)

// Client is one WebSocket connection. The hub owns send and rooms; the
// pumps only read send until it is closed.
type Client struct {
	id    string
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	rooms map[string]struct{}
}

func newClient(h *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:    uuid.NewString(),
		hub:   h,
		conn:  conn,
		send:  make(chan []byte, h.cfg.SendBuffer),
		rooms: make(map[string]struct{}),
	}
}

// ServeHTTP upgrades the request and attaches the connection to the hub.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", sl.Err(err))
		return
	}

	c := newClient(h, conn)
	welcome, err := encodeFrame(EventMessage, Welcome{
		Text:      welcomeText,
		SenderID:  welcomeSender,
		Timestamp: h.now().UTC(),
	})
	if err == nil {
		c.send <- welcome
	}

	if !h.Register(c) {
		_ = conn.Close()
		return
	}
	h.log.Debug("client connected", slog.String("client", c.id), slog.String("remote", r.RemoteAddr))

	go c.writePump()
	go c.readPump()
}

// readPump handles join-bill and leave-bill frames until the connection
// fails, then unregisters the client.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	pongWait := 2 * c.hub.cfg.PingInterval
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug("client read failed", slog.String("client", c.id), sl.Err(err))
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(msg, &frame); err != nil {
			c.hub.log.Debug("malformed frame", slog.String("client", c.id), sl.Err(err))
			continue
		}

		var billID string
		if err := json.Unmarshal(frame.Data, &billID); err != nil || billID == "" {
			continue
		}

		switch frame.Event {
		case EventJoinBill:
			c.hub.Join(c, billID)
		case EventLeaveBill:
			c.hub.Leave(c, billID)
		}
	}
}

// writePump drains send and keeps the connection alive with pings. It exits
// when the hub closes send or a write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.hub.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
