// Package gateway issues owner-scoped create/delete requests. It
// never touches the snapshot: the reload triggered by the resulting
// change notification is the single code path that updates it, so an
// optimistic local view can never diverge from the authoritative one.
package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/pinstack/pinstack/internal/backend"
	"github.com/pinstack/pinstack/internal/domain"
	"github.com/pinstack/pinstack/internal/logger"
)

// Gateway applies mutations for the currently signed-in identity.
type Gateway struct {
	mutation backend.Mutation
	log      logger.Logger

	// now is swappable for tests.
	now func() time.Time
}

// New creates a gateway.
func New(mutation backend.Mutation, log logger.Logger) *Gateway {
	return &Gateway{
		mutation: mutation,
		log:      log,
		now:      time.Now,
	}
}

// Add validates and inserts a bookmark owned by identity. An empty or
// whitespace-only URL is rejected before any backend call. The
// returned bookmark is what was sent, not what the snapshot will show;
// the snapshot catches up via the change notification.
func (g *Gateway) Add(ctx context.Context, identity domain.Identity, rawURL, title string) (domain.Bookmark, error) {
	if g.mutation == nil {
		return domain.Bookmark{}, fmt.Errorf("%w: mutation capability unavailable", domain.ErrConfigMissing)
	}

	url := strings.TrimSpace(rawURL)
	if url == "" {
		return domain.Bookmark{}, fmt.Errorf("%w: url must not be empty", domain.ErrValidation)
	}

	bm := domain.Bookmark{
		ID:        ulid.Make().String(),
		OwnerID:   identity.ID,
		URL:       url,
		Title:     strings.TrimSpace(title),
		CreatedAt: g.now().UTC(),
	}

	if err := g.mutation.InsertBookmark(ctx, bm); err != nil {
		return domain.Bookmark{}, fmt.Errorf("failed to add bookmark: %w", err)
	}

	g.log.Info("bookmark added",
		logger.String("id", bm.ID),
		logger.String("owner", identity.ID))
	return bm, nil
}

// Remove deletes the bookmark constrained to (id, owner). The owner
// constraint is defense in depth on top of the backend's own policy;
// a record not owned by identity removes zero rows, same as one that
// is already gone, and neither is an error.
func (g *Gateway) Remove(ctx context.Context, identity domain.Identity, id string) error {
	if g.mutation == nil {
		return fmt.Errorf("%w: mutation capability unavailable", domain.ErrConfigMissing)
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: bookmark id must not be empty", domain.ErrValidation)
	}

	if err := g.mutation.DeleteBookmark(ctx, identity.ID, id); err != nil {
		return fmt.Errorf("failed to remove bookmark: %w", err)
	}

	g.log.Info("bookmark removed",
		logger.String("id", id),
		logger.String("owner", identity.ID))
	return nil
}
