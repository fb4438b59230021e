package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"fundingarb/internal/domain"
	"fundingarb/internal/funding"
)

const requestTimeout = 90 * time.Second

// SnapshotSource is what the hub needs from the funding service: the cache
// contract for explicit refresh requests, and the cached snapshot for
// first-connect pushes.
type SnapshotSource interface {
	GetSnapshot(ctx context.Context) (domain.Snapshot, error)
	CachedSnapshot() (domain.Snapshot, bool)
}

type clientMessage struct {
	Type string `json:"type"`
}

// Hub is the push distribution layer: it registers subscribers, sends the
// cached snapshot on connect, answers per-subscriber refresh requests, and
// fans periodic snapshots out to everyone.
type Hub struct {
	source   SnapshotSource
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[uuid.UUID]*Client
}

func NewHub(source SnapshotSource) *Hub {
	return &Hub{
		source:  source,
		clients: make(map[uuid.UUID]*Client),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// HandleUpgrade upgrades the connection and registers the subscriber. The
// currently cached snapshot is pushed immediately when one exists; a missing
// cache never forces a refresh here.
func (h *Hub) HandleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	client := newClient(conn)
	h.register(client)
	go client.writeLoop()
	go h.readLoop(client)

	if snapshot, ok := h.source.CachedSnapshot(); ok {
		client.enqueue(funding.NewSnapshotView(snapshot))
	}
}

// Broadcast sends the snapshot to every connected subscriber. A subscriber
// whose send buffer is already full is dropped rather than blocking the
// fan-out.
func (h *Hub) Broadcast(snapshot domain.Snapshot) {
	view := funding.NewSnapshotView(snapshot)

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if !c.enqueue(view) {
			logrus.Warnf("Dropping slow subscriber %s", c.ID)
			h.unregister(c)
		}
	}
}

// Subscribers returns the current connection count.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
	logrus.Debugf("Subscriber %s connected", c.ID)
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	_, present := h.clients[c.ID]
	delete(h.clients, c.ID)
	h.mu.Unlock()
	if present {
		c.close()
		logrus.Debugf("Subscriber %s disconnected", c.ID)
	}
}

func (h *Hub) readLoop(c *Client) {
	defer h.unregister(c)
	for {
		var msg clientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg.Type == "refresh" {
			h.serveRefresh(c)
		}
	}
}

// serveRefresh answers one subscriber's explicit request through the cache
// contract; the result goes to that subscriber only.
func (h *Hub) serveRefresh(c *Client) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	snapshot, err := h.source.GetSnapshot(ctx)
	if err != nil {
		c.enqueue(funding.NewErrorView(err))
		return
	}
	c.enqueue(funding.NewSnapshotView(snapshot))
}
