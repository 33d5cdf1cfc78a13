// Package memory is an in-process implementation of the backend
// capabilities. It backs dev mode (seeded from a YAML file) and the
// integration tests; semantics mirror the redis backend, including
// owner-scoped deletes and change notifications on every mutation.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/pinstack/pinstack/internal/backend"
	"github.com/pinstack/pinstack/internal/domain"
)

type userRecord struct {
	identity     domain.Identity
	passwordHash []byte
}

// Backend holds all state behind one mutex. Callbacks are invoked
// outside the lock so subscribers may call back into the backend.
type Backend struct {
	mu         sync.RWMutex
	users      map[string]userRecord                  // lowercased email -> user
	bookmarks  map[string]map[string]domain.Bookmark  // owner ID -> bookmark ID -> bookmark
	current    *domain.Identity                       // signed-in identity, nil when none
	nextSub    int                                    // subscription handle counter
	authSubs   map[int]func(*domain.Identity)         // auth state listeners
	changeSubs map[string]map[int]func()              // owner ID -> listeners
}

// New creates an empty in-memory backend.
func New() *Backend {
	return &Backend{
		users:      make(map[string]userRecord),
		bookmarks:  make(map[string]map[string]domain.Bookmark),
		authSubs:   make(map[int]func(*domain.Identity)),
		changeSubs: make(map[string]map[int]func()),
	}
}

// SaveUser registers a principal that can sign in. passwordHash is a
// bcrypt hash; the seed mapper produces it. The signature matches the
// redis store so the seed path provisions either backend.
func (b *Backend) SaveUser(ctx context.Context, identity domain.Identity, passwordHash []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.users[strings.ToLower(identity.Email)] = userRecord{
		identity:     identity,
		passwordHash: passwordHash,
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────
// Auth capability
// ─────────────────────────────────────────────────────────────────

func (b *Backend) CurrentSession(ctx context.Context) (*domain.Identity, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.current == nil {
		return nil, nil
	}
	id := *b.current
	return &id, nil
}

func (b *Backend) SubscribeAuth(onChange func(*domain.Identity)) (backend.Unsubscribe, error) {
	b.mu.Lock()
	b.nextSub++
	id := b.nextSub
	b.authSubs[id] = onChange
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.authSubs, id)
			b.mu.Unlock()
		})
	}, nil
}

func (b *Backend) SignIn(ctx context.Context, creds backend.Credentials) error {
	b.mu.Lock()
	user, ok := b.users[strings.ToLower(strings.TrimSpace(creds.Email))]
	if !ok {
		b.mu.Unlock()
		return fmt.Errorf("%w: unknown account", domain.ErrAuth)
	}
	if err := bcrypt.CompareHashAndPassword(user.passwordHash, []byte(creds.Password)); err != nil {
		b.mu.Unlock()
		return fmt.Errorf("%w: invalid credentials", domain.ErrAuth)
	}
	identity := user.identity
	b.current = &identity
	subs := b.authListeners()
	b.mu.Unlock()

	for _, fn := range subs {
		fn(&identity)
	}
	return nil
}

func (b *Backend) SignOut(ctx context.Context) error {
	b.mu.Lock()
	b.current = nil
	subs := b.authListeners()
	b.mu.Unlock()

	for _, fn := range subs {
		fn(nil)
	}
	return nil
}

// authListeners snapshots the listener set; caller must hold b.mu.
func (b *Backend) authListeners() []func(*domain.Identity) {
	subs := make([]func(*domain.Identity), 0, len(b.authSubs))
	for _, fn := range b.authSubs {
		subs = append(subs, fn)
	}
	return subs
}

// ─────────────────────────────────────────────────────────────────
// Query capability
// ─────────────────────────────────────────────────────────────────

func (b *Backend) ListBookmarks(ctx context.Context, ownerID string) ([]domain.Bookmark, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	owned := b.bookmarks[ownerID]
	list := make([]domain.Bookmark, 0, len(owned))
	for _, bm := range owned {
		list = append(list, bm)
	}
	domain.SortSnapshot(list)
	return list, nil
}

// ─────────────────────────────────────────────────────────────────
// Mutation capability
// ─────────────────────────────────────────────────────────────────

func (b *Backend) InsertBookmark(ctx context.Context, bm domain.Bookmark) error {
	b.mu.Lock()
	owned, ok := b.bookmarks[bm.OwnerID]
	if !ok {
		owned = make(map[string]domain.Bookmark)
		b.bookmarks[bm.OwnerID] = owned
	}
	owned[bm.ID] = bm
	subs := b.changeListeners(bm.OwnerID)
	b.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
	return nil
}

func (b *Backend) DeleteBookmark(ctx context.Context, ownerID, id string) error {
	b.mu.Lock()
	owned := b.bookmarks[ownerID]
	if _, ok := owned[id]; !ok {
		// Missing or foreign record: zero rows removed, not an error.
		b.mu.Unlock()
		return nil
	}
	delete(owned, id)
	subs := b.changeListeners(ownerID)
	b.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────
// Change-feed capability
// ─────────────────────────────────────────────────────────────────

func (b *Backend) SubscribeChanges(ownerID string, onAny func()) (backend.Unsubscribe, error) {
	b.mu.Lock()
	b.nextSub++
	id := b.nextSub
	owned, ok := b.changeSubs[ownerID]
	if !ok {
		owned = make(map[int]func())
		b.changeSubs[ownerID] = owned
	}
	owned[id] = onAny
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.changeSubs[ownerID], id)
			b.mu.Unlock()
		})
	}, nil
}

// changeListeners snapshots an owner's listener set; caller must hold b.mu.
func (b *Backend) changeListeners(ownerID string) []func() {
	owned := b.changeSubs[ownerID]
	subs := make([]func(), 0, len(owned))
	for _, fn := range owned {
		subs = append(subs, fn)
	}
	return subs
}

// ChangeSubscriberCount reports how many change subscriptions are live
// for an owner. Used by readiness reporting and tests.
func (b *Backend) ChangeSubscriberCount(ownerID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.changeSubs[ownerID])
}
