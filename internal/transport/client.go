package transport

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Fouche-Hugo/draft-together/internal/bus"
	"github.com/Fouche-Hugo/draft-together/internal/draftmodel"
	"github.com/Fouche-Hugo/draft-together/internal/logging"
	"github.com/Fouche-Hugo/draft-together/internal/metrics"
)

// wsConnection is the subset of *websocket.Conn the client pumps need,
// narrowed to a test seam so unit tests can drive Client without a real
// socket.
type wsConnection interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
	SetWriteDeadline(t time.Time) error
}

const writeWait = 10 * time.Second

// Client is one connected peer's Joining/Active/Draining/Closed session, per
// the fan-out state machine: Reader consumes inbound edits, Writer relays
// the room's broadcast topic back to the socket. A failure in either pump
// cancels the other through ctx.
type Client struct {
	conn   wsConnection
	hub    *Hub
	roomID string
	topic  *bus.Topic
	signal <-chan struct{}
	cancel context.CancelFunc
}

// readPump consumes inbound edits until the socket errs or is closed by the
// sibling writePump. It owns the Draining->Closed transition: dec_peers and,
// on last-leaver, write-back and eviction.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.cancel()
		c.conn.Close()
		metrics.DecConnection()
		c.hub.leave(context.Background(), c.roomID)
	}()

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var edit draftmodel.Edit
		if err := json.Unmarshal(data, &edit); err != nil {
			logging.Error(ctx, "malformed peer message", zap.String("room_id", c.roomID), zap.Error(err))
			metrics.WebsocketEvents.WithLabelValues("edit", "malformed").Inc()
			continue
		}

		if !c.hub.validation.Contains(edit.ChampionID) {
			logging.Error(ctx, "invalid champion id in edit",
				zap.String("room_id", c.roomID), zap.Int("champion_id", edit.ChampionID))
			metrics.WebsocketEvents.WithLabelValues("edit", "invalid_champion").Inc()
			continue
		}

		start := time.Now()
		if err := c.hub.registry.Mutate(ctx, c.roomID, edit); err != nil {
			logging.Error(ctx, "failed to apply edit", zap.String("room_id", c.roomID), zap.Error(err))
			metrics.WebsocketEvents.WithLabelValues("edit", "storage_error").Inc()
			return
		}
		metrics.MessageProcessingDuration.WithLabelValues("edit").Observe(time.Since(start).Seconds())
		metrics.DraftEditsTotal.WithLabelValues("applied").Inc()
		metrics.WebsocketEvents.WithLabelValues("edit", "applied").Inc()

		c.topic.Publish()
		if err := c.hub.relay.Publish(ctx, c.roomID); err != nil {
			logging.Warn(ctx, "broadcast relay publish failed", zap.String("room_id", c.roomID), zap.Error(err))
		}
	}
}

// writePump relays every "draft changed" wakeup as a fresh JSON frame.
func (c *Client) writePump(ctx context.Context) {
	defer c.conn.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.signal:
			draft, err := c.hub.registry.Draft(ctx, c.roomID)
			if err != nil {
				logging.Error(ctx, "failed to read draft for broadcast", zap.String("room_id", c.roomID), zap.Error(err))
				c.cancel()
				return
			}

			data, err := json.Marshal(draft)
			if err != nil {
				logging.Error(ctx, "failed to encode draft", zap.String("room_id", c.roomID), zap.Error(err))
				continue
			}

			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logging.Error(ctx, "socket write failed", zap.String("room_id", c.roomID), zap.Error(err))
				c.cancel()
				return
			}
		}
	}
}
