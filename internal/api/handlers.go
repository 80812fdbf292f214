// Package api implements the read-only REST surface: fetching a room's
// current draft (acquiring/creating it if absent) and listing the champion
// catalog.
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Fouche-Hugo/draft-together/internal/champion"
	"github.com/Fouche-Hugo/draft-together/internal/draftmodel"
	"github.com/Fouche-Hugo/draft-together/internal/logging"
	"github.com/Fouche-Hugo/draft-together/internal/registry"
	"github.com/Fouche-Hugo/draft-together/internal/store"
)

// draftReader is the subset of *registry.Registry the read API needs,
// narrowed to a test seam so handler tests can run without a live draft
// store.
type draftReader interface {
	Draft(ctx context.Context, roomID string) (draftmodel.Draft, error)
}

// championLister is the subset of *store.CatalogStore the read API needs.
type championLister interface {
	ListChampions(ctx context.Context) ([]champion.Champion, error)
}

// Handlers wires the read API to the room registry and champion catalog.
type Handlers struct {
	registry draftReader
	catalog  championLister
}

// NewHandlers constructs a Handlers.
func NewHandlers(reg *registry.Registry, catalog *store.CatalogStore) *Handlers {
	return newHandlers(reg, catalog)
}

// newHandlers accepts the narrowed interfaces, used directly by tests.
func newHandlers(reg draftReader, catalog championLister) *Handlers {
	return &Handlers{registry: reg, catalog: catalog}
}

// GetDraft returns the current draft for a room, creating it if this is the
// first anyone has asked for it.
// GET /draft/:room_id
func (h *Handlers) GetDraft(c *gin.Context) {
	roomID := c.Param("room_id")
	ctx := c.Request.Context()

	if _, err := uuid.Parse(roomID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room id must be a UUID"})
		return
	}

	draft, err := h.registry.Draft(ctx, roomID)
	if err != nil {
		logging.Error(ctx, "failed to load draft", zap.String("room_id", roomID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load draft"})
		return
	}

	c.JSON(http.StatusOK, draft)
}

// GetChampions returns the full champion catalog, including role data the
// in-memory validation set does not track.
// GET /champions
func (h *Handlers) GetChampions(c *gin.Context) {
	ctx := c.Request.Context()

	champions, err := h.catalog.ListChampions(ctx)
	if err != nil {
		logging.Error(ctx, "failed to list champions", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list champions"})
		return
	}

	c.JSON(http.StatusOK, champions)
}
