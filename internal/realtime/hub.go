// Package realtime fans out vote and bill status events to WebSocket clients
// grouped in per-bill rooms. Delivery is best effort and at most once: there
// is no queue for disconnected clients and no replay.
package realtime

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/14kear/council-voting/internal/entity"
	sl "github.com/14kear/sso-prettyslog/slogpretty/errors"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	DefaultSendBuffer   = 32
	DefaultQueueSize    = 256
	DefaultPingInterval = 30 * time.Second
)

type Config struct {
	SendBuffer   int
	QueueSize    int
	PingInterval time.Duration
	AllowOrigins []string
}

type envelope struct {
	room    string // empty means every client
	event   string
	payload []byte
}

type subscription struct {
	client *Client
	room   string
	join   bool
}

// Hub owns room membership. All membership state is confined to the Run
// goroutine; everything else talks to it over channels.
type Hub struct {
	log      *slog.Logger
	cfg      Config
	metrics  *hubMetrics
	upgrader websocket.Upgrader
	now      func() time.Time

	register   chan *Client
	unregister chan *Client
	subscribe  chan subscription
	broadcast  chan envelope
	done       chan struct{}

	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}
}

func NewHub(log *slog.Logger, cfg Config, promRegistry prometheus.Registerer) *Hub {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = DefaultSendBuffer
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = DefaultPingInterval
	}

	h := &Hub{
		log:        log.With(slog.String("component", "realtime")),
		cfg:        cfg,
		metrics:    newHubMetrics(promRegistry),
		now:        time.Now,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		subscribe:  make(chan subscription),
		broadcast:  make(chan envelope, cfg.QueueSize),
		done:       make(chan struct{}),
		clients:    make(map[*Client]struct{}),
		rooms:      make(map[string]map[*Client]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// Run processes membership changes and broadcasts until ctx is cancelled,
// then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.remove(c)
			}
			h.log.Info("hub stopped")
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.metrics.clients.Inc()
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.remove(c)
			}
		case sub := <-h.subscribe:
			if _, ok := h.clients[sub.client]; !ok {
				continue
			}
			if sub.join {
				h.join(sub.client, sub.room)
			} else {
				h.leave(sub.client, sub.room)
			}
		case env := <-h.broadcast:
			h.deliver(env)
		}
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Register adds c to the hub. It reports false if the hub is stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) Join(c *Client, billID string) {
	select {
	case h.subscribe <- subscription{client: c, room: roomFor(billID), join: true}:
	case <-h.done:
	}
}

func (h *Hub) Leave(c *Client, billID string) {
	select {
	case h.subscribe <- subscription{client: c, room: roomFor(billID)}:
	case <-h.done:
	}
}

// PublishVote emits vote-update to clients watching the bill.
func (h *Hub) PublishVote(billID string, vote entity.Vote) {
	view := VoteView{
		ID:        vote.ID,
		Option:    vote.Option,
		CreatedAt: vote.CreatedAt,
	}
	if vote.User != nil {
		view.VoterName = vote.User.Name
	}

	h.publish(roomFor(billID), EventVoteUpdate, VoteUpdate{
		BillID:    billID,
		Vote:      view,
		Timestamp: h.now().UTC(),
	})
}

// PublishBillStatus emits bill-status-update to every connected client.
func (h *Hub) PublishBillStatus(billID string, status entity.BillStatus) {
	h.publish("", EventBillStatusUpdate, BillStatusUpdate{
		BillID:    billID,
		Status:    status,
		Timestamp: h.now().UTC(),
	})
}

// publish never blocks the caller; a full queue drops the event.
func (h *Hub) publish(room, event string, data any) {
	payload, err := encodeFrame(event, data)
	if err != nil {
		h.log.Error("failed to encode event", slog.String("event", event), sl.Err(err))
		return
	}

	select {
	case h.broadcast <- envelope{room: room, event: event, payload: payload}:
		h.metrics.published.WithLabelValues(event).Inc()
	default:
		h.metrics.dropped.WithLabelValues(dropQueueFull).Inc()
		h.log.Warn("event queue full, dropping event", slog.String("event", event), slog.String("room", room))
	}
}

func (h *Hub) deliver(env envelope) {
	targets := h.clients
	if env.room != "" {
		targets = h.rooms[env.room]
	}

	for c := range targets {
		select {
		case c.send <- env.payload:
		default:
			// Slow client: disconnect, it recovers by polling.
			h.metrics.dropped.WithLabelValues(dropSlowClient).Inc()
			h.log.Warn("client send buffer full, disconnecting",
				slog.String("client", c.id), slog.String("event", env.event))
			h.remove(c)
		}
	}
}

func (h *Hub) join(c *Client, room string) {
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
		h.metrics.rooms.Inc()
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
	h.log.Debug("client joined room", slog.String("client", c.id), slog.String("room", room))
}

func (h *Hub) leave(c *Client, room string) {
	delete(c.rooms, room)
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, room)
		h.metrics.rooms.Dec()
	}
	h.log.Debug("client left room", slog.String("client", c.id), slog.String("room", room))
}

func (h *Hub) remove(c *Client) {
	for room := range c.rooms {
		h.leave(c, room)
	}
	delete(h.clients, c)
	close(c.send)
	h.metrics.clients.Dec()
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.cfg.AllowOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.cfg.AllowOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}
