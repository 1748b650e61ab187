package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// Broadcaster pushes lifecycle events to every live subscriber.
type Broadcaster interface {
	Publish(e *Event)
}

// Hub owns the set of live subscriber connections. Publishing is
// best-effort: a subscriber that cannot keep up, or whose transport has
// failed, is removed from the set rather than retried. Delivery to the
// remaining subscribers is unaffected.
type Hub struct {
	conns  map[int]*Conn
	nextID int
	mu     sync.RWMutex

	context context.Context
	connWg  *sync.WaitGroup
	logger  *slog.Logger

	upgrader        websocket.Upgrader
	WriteStreamSize int
}

var defaultUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type HubOption func(*Hub)

func WithCheckOrigin(f func(r *http.Request) bool) HubOption {
	return func(h *Hub) {
		h.upgrader.CheckOrigin = f
	}
}

func NewHub(ctx context.Context, wg *sync.WaitGroup, logger *slog.Logger, opts ...HubOption) *Hub {
	h := &Hub{
		conns:           make(map[int]*Conn),
		context:         ctx,
		connWg:          wg,
		logger:          logger,
		upgrader:        defaultUpgrader,
		WriteStreamSize: 100,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Connect upgrades the request to a websocket and registers the connection
// as a subscriber. There is no replay of history; the client is expected to
// fetch the current message list separately on connect.
func (h *Hub) Connect(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	wsConn := &Conn{
		id:          id,
		conn:        conn,
		context:     h.context,
		writeStream: make(chan *Event, h.WriteStreamSize),
		closed:      make(chan struct{}),
		ticker:      time.NewTicker(pingPeriod),
		logger:      h.logger.With(slog.String("connection", fmt.Sprintf("subscriber:%d", id))),
		notifyDisconnect: func() {
			h.Unregister(id)
		},
	}
	h.conns[id] = wsConn
	h.mu.Unlock()

	h.connWg.Add(1)
	go func() {
		defer h.connWg.Done()
		wsConn.readLoop()
	}()
	h.connWg.Add(1)
	go func() {
		defer h.connWg.Done()
		wsConn.writeLoop()
	}()

	return nil
}

// Unregister removes the connection with the given id from the subscriber
// set and closes its write stream. It is idempotent.
func (h *Hub) Unregister(id int) {
	h.mu.Lock()
	conn, ok := h.conns[id]
	if ok {
		delete(h.conns, id)
	}
	h.mu.Unlock()
	if !ok {
		return
	}
	conn.close()
	h.logger.Info("subscriber removed", slog.Int("connection", id))
}

// Publish sends the event to every currently registered subscriber. The
// subscriber set is snapshotted under the read lock so removals triggered by
// failed sends do not mutate the set while it is iterated.
func (h *Hub) Publish(e *Event) {
	h.mu.RLock()
	conns := make([]*Conn, 0, len(h.conns))
	for _, conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if !conn.trySend(e) {
			// The write stream is full or closed: the subscriber cannot keep
			// up. Drop it rather than block delivery to the others.
			h.logger.Warn("dropping slow subscriber", slog.Int("connection", conn.id))
			h.Unregister(conn.id)
		}
	}
}

// Len returns the number of live subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
