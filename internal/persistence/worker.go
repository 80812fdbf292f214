// Package persistence runs the periodic safety-net flush: every live room
// held by the registry gets written back to the draft store on a fixed
// interval, independent of the write-back that already happens when a
// room's last peer leaves.
package persistence

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Fouche-Hugo/draft-together/internal/draftmodel"
	"github.com/Fouche-Hugo/draft-together/internal/logging"
	"github.com/Fouche-Hugo/draft-together/internal/metrics"
	"github.com/Fouche-Hugo/draft-together/internal/registry"
)

const defaultFlushPeriod = 30 * time.Second

// draftSaver is the subset of *store.DraftStore the worker needs, narrowed
// to a test seam so unit tests can drive Worker against a fake store
// instead of a live Postgres connection.
type draftSaver interface {
	Save(ctx context.Context, id int, d draftmodel.Draft) error
}

// Worker periodically snapshots every live room and saves it, logging and
// continuing past any single room's storage error rather than aborting the
// run.
type Worker struct {
	registry *registry.Registry
	drafts   draftSaver
	period   time.Duration
}

// Option customizes a Worker; used by tests to shrink the flush period.
type Option func(*Worker)

// WithPeriod overrides the flush interval.
func WithPeriod(period time.Duration) Option {
	return func(w *Worker) { w.period = period }
}

// NewWorker constructs a Worker with the default 30s flush period.
func NewWorker(reg *registry.Registry, drafts draftSaver, opts ...Option) *Worker {
	w := &Worker{registry: reg, drafts: drafts, period: defaultFlushPeriod}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run starts the flush loop as a goroutine and returns immediately; it runs
// until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	go w.loop(ctx)
}

func (w *Worker) loop(ctx context.Context) {
	ticker := time.NewTicker(w.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

// flush saves every live room's current draft, logging and continuing past
// any single room's storage error.
func (w *Worker) flush(ctx context.Context) {
	rooms := w.registry.SnapshotAll()
	for _, room := range rooms {
		if err := w.drafts.Save(ctx, room.RowID, room.Draft); err != nil {
			logging.Error(ctx, "periodic flush failed", zap.String("room_id", room.RoomID), zap.Error(err))
			metrics.PersistenceFlushesTotal.WithLabelValues("error").Inc()
			continue
		}
		metrics.PersistenceFlushesTotal.WithLabelValues("ok").Inc()
	}
}
