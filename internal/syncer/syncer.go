// Package syncer keeps an in-memory snapshot of the signed-in
// identity's bookmarks consistent with the backend. Every change
// notification triggers a full reload; the snapshot is always replaced
// whole, never patched. That trades a larger read per change for
// freedom from merge-conflict and ordering bugs, which is the right
// trade at bookmark write volumes.
package syncer

import (
	"context"
	"fmt"
	"sync"

	"github.com/pinstack/pinstack/internal/backend"
	"github.com/pinstack/pinstack/internal/domain"
	"github.com/pinstack/pinstack/internal/logger"
)

// Syncer maintains the snapshot for exactly one identity at a time.
// While nobody is authenticated the snapshot is empty and no change
// subscription is held.
type Syncer struct {
	query backend.Query
	feed  backend.ChangeFeed
	log   logger.Logger

	mu       sync.RWMutex
	owner    *domain.Identity
	snapshot []domain.Bookmark
	unsub    backend.Unsubscribe
	trigger  chan struct{}
	stopCh   chan struct{}

	onSnapshot func([]domain.Bookmark)
	onError    func(error)
}

// New creates an inactive syncer.
func New(query backend.Query, feed backend.ChangeFeed, log logger.Logger) *Syncer {
	return &Syncer{
		query: query,
		feed:  feed,
		log:   log,
	}
}

// OnSnapshot registers the snapshot listener. Register before Activate.
func (s *Syncer) OnSnapshot(fn func([]domain.Bookmark)) {
	s.onSnapshot = fn
}

// OnError registers the listener for surfaced reload errors.
// Errors are reported, never retried automatically.
func (s *Syncer) OnError(fn func(error)) {
	s.onError = fn
}

// Snapshot returns a copy of the current snapshot.
func (s *Syncer) Snapshot() []domain.Bookmark {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Bookmark, len(s.snapshot))
	copy(out, s.snapshot)
	return out
}

// Active reports whether a change subscription is currently held.
func (s *Syncer) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unsub != nil
}

// Activate binds the syncer to an identity: any previous binding is
// torn down first (snapshot cleared, subscription released), then a
// change subscription is opened and the initial load performed.
//
// A failed initial load leaves the syncer active with an empty
// snapshot and returns the surfaced error; the next notification
// reloads again. A failed subscription is fatal to the activation.
func (s *Syncer) Activate(ctx context.Context, identity domain.Identity) error {
	s.Deactivate()

	if s.query == nil || s.feed == nil {
		return fmt.Errorf("%w: query or change-feed capability unavailable", domain.ErrConfigMissing)
	}

	trigger := make(chan struct{}, 1)
	stopCh := make(chan struct{})

	// Subscribe before the initial load so a mutation racing the load
	// still lands a notification; the extra reload is idempotent.
	unsub, err := s.feed.SubscribeChanges(identity.ID, func() {
		// Coalesce notification bursts: one pending reload is enough,
		// it reflects backend truth at the time it runs.
		select {
		case trigger <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return fmt.Errorf("failed to open change subscription: %w", err)
	}

	s.mu.Lock()
	id := identity
	s.owner = &id
	s.unsub = unsub
	s.trigger = trigger
	s.stopCh = stopCh
	s.mu.Unlock()

	go s.loop(ctx, trigger, stopCh)

	s.log.Info("synchronizer activated",
		logger.String("owner", identity.Email))

	return s.Reload(ctx)
}

// Deactivate releases the change subscription and clears the snapshot.
// Safe to call when already inactive. The subscription is released
// before anything else so no notification for the old identity can
// race a new activation.
func (s *Syncer) Deactivate() {
	s.mu.Lock()
	unsub := s.unsub
	stopCh := s.stopCh
	cleared := s.snapshot != nil
	s.owner = nil
	s.unsub = nil
	s.trigger = nil
	s.stopCh = nil
	s.snapshot = nil
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	if stopCh != nil {
		close(stopCh)
	}
	if cleared {
		s.publish([]domain.Bookmark{})
	}
}

// Reload replaces the whole snapshot with a fresh query result. On
// failure the previous snapshot stays in place: a stale-but-valid view
// beats an empty one. Results for an identity that is no longer bound
// are dropped.
func (s *Syncer) Reload(ctx context.Context) error {
	s.mu.RLock()
	owner := s.owner
	s.mu.RUnlock()

	if owner == nil {
		return nil
	}

	bookmarks, err := s.query.ListBookmarks(ctx, owner.ID)
	if err != nil {
		err = fmt.Errorf("failed to reload bookmarks: %w", err)
		s.log.Warn("reload failed, keeping previous snapshot",
			logger.Error(err))
		s.reportError(err)
		return err
	}
	domain.SortSnapshot(bookmarks)

	s.mu.Lock()
	if s.owner == nil || s.owner.ID != owner.ID {
		// Identity changed while the query was in flight.
		s.mu.Unlock()
		return nil
	}
	s.snapshot = bookmarks
	s.mu.Unlock()

	s.publish(bookmarks)
	return nil
}

// loop serializes notification-triggered reloads for one activation.
func (s *Syncer) loop(ctx context.Context, trigger <-chan struct{}, stopCh <-chan struct{}) {
	for {
		select {
		case <-trigger:
			// Error already surfaced via OnError inside Reload.
			_ = s.Reload(ctx)
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Syncer) publish(bookmarks []domain.Bookmark) {
	if s.onSnapshot != nil {
		s.onSnapshot(bookmarks)
	}
}

func (s *Syncer) reportError(err error) {
	if s.onError != nil {
		s.onError(err)
	}
}
