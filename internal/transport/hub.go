// Package transport implements the per-peer fan-out: WebSocket upgrade,
// the Reader/Writer pump pair, and the per-room broadcast topic lifecycle.
package transport

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Fouche-Hugo/draft-together/internal/bus"
	"github.com/Fouche-Hugo/draft-together/internal/draftmodel"
	"github.com/Fouche-Hugo/draft-together/internal/logging"
	"github.com/Fouche-Hugo/draft-together/internal/metrics"
	"github.com/Fouche-Hugo/draft-together/internal/registry"
	"github.com/Fouche-Hugo/draft-together/internal/validation"
)

// topicEntry pairs an in-process topic with the cancel func for its
// (optional) cross-instance relay subscription.
type topicEntry struct {
	topic  *bus.Topic
	cancel context.CancelFunc
}

// roomRegistry is the subset of *registry.Registry the hub and its clients
// need, narrowed to a test seam so unit tests can drive Hub against a fake
// registry instead of a live draft store.
type roomRegistry interface {
	Acquire(ctx context.Context, roomID string) error
	Mutate(ctx context.Context, roomID string, edit draftmodel.Edit) error
	Draft(ctx context.Context, roomID string) (draftmodel.Draft, error)
	IncPeers(roomID string) int
	DecPeers(roomID string) int
	FlushAndEvict(ctx context.Context, roomID string) error
}

// Hub is the process-wide coordinator of room fan-out: one upgraded
// connection becomes one Client, and Hub owns the per-room topic each
// Client subscribes to.
type Hub struct {
	registry   roomRegistry
	validation *validation.Set
	relay      *bus.Relay

	upgrader websocket.Upgrader

	mu     sync.Mutex
	topics map[string]topicEntry
}

// NewHub wires a Hub to the room registry, the validation set, and an
// optional cross-instance broadcast relay (nil disables it).
func NewHub(reg *registry.Registry, val *validation.Set, relay *bus.Relay) *Hub {
	return newHub(reg, val, relay)
}

// newHub accepts the narrowed roomRegistry interface, used directly by
// tests to substitute a fake registry.
func newHub(reg roomRegistry, val *validation.Set, relay *bus.Relay) *Hub {
	return &Hub{
		registry:   reg,
		validation: val,
		relay:      relay,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		topics: make(map[string]topicEntry),
	}
}

// ServeWs upgrades the request at /ws/:room_id and starts the pump pair.
func (h *Hub) ServeWs(c *gin.Context) {
	roomID := c.Param("room_id")
	ctx := c.Request.Context()

	if _, err := uuid.Parse(roomID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room id must be a UUID"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Error(ctx, "websocket upgrade failed", zap.String("room_id", roomID), zap.Error(err))
		return
	}

	h.HandleConnection(ctx, conn, roomID)
}

// HandleConnection drives the Joining state: hydrate the room, bump its
// peer count, subscribe to its topic, and start the two pumps.
func (h *Hub) HandleConnection(ctx context.Context, conn wsConnection, roomID string) {
	if err := h.registry.Acquire(ctx, roomID); err != nil {
		logging.Error(ctx, "failed to acquire room on join", zap.String("room_id", roomID), zap.Error(err))
		conn.Close()
		return
	}

	h.registry.IncPeers(roomID)
	metrics.IncConnection()

	topic := h.topicFor(roomID)
	signal, unsubscribe := topic.Subscribe()

	cctx, cancel := context.WithCancel(context.Background())
	client := &Client{
		conn:   conn,
		hub:    h,
		roomID: roomID,
		topic:  topic,
		signal: signal,
		cancel: cancel,
	}

	go func() {
		client.readPump(cctx)
		unsubscribe()
	}()
	go client.writePump(cctx)
}

// leave drives the Draining->Closed transition: dec_peers, and on the last
// leaver, write back through the registry and release the room's topic.
func (h *Hub) leave(ctx context.Context, roomID string) {
	if n := h.registry.DecPeers(roomID); n > 0 {
		return
	}

	if err := h.registry.FlushAndEvict(ctx, roomID); err != nil {
		logging.Error(ctx, "write-back on last leaver failed", zap.String("room_id", roomID), zap.Error(err))
	}
	h.releaseTopic(roomID)
}

func (h *Hub) topicFor(roomID string) *bus.Topic {
	h.mu.Lock()
	defer h.mu.Unlock()

	if te, ok := h.topics[roomID]; ok {
		return te.topic
	}

	topic := bus.NewTopic()
	relayCtx, cancel := context.WithCancel(context.Background())
	h.relay.Subscribe(relayCtx, roomID, topic.Publish)

	h.topics[roomID] = topicEntry{topic: topic, cancel: cancel}
	return topic
}

func (h *Hub) releaseTopic(roomID string) {
	h.mu.Lock()
	te, ok := h.topics[roomID]
	if ok {
		delete(h.topics, roomID)
	}
	h.mu.Unlock()

	if ok {
		te.cancel()
	}
}
