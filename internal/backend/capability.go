// Package backend defines the capability interfaces the client core
// depends on. Implementations live in subpackages (redis for
// production, memory for dev and tests); the core never knows which
// one it is talking to.
package backend

import (
	"context"

	"github.com/pinstack/pinstack/internal/domain"
)

// Unsubscribe releases a subscription. The core holds at most one
// handle per subscription kind at a time and must call it on every
// exit path. Calling it more than once is a no-op.
type Unsubscribe func()

// Credentials identify a principal for sign-in.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Auth exposes identity state and sign-in/out.
//
// SignIn and SignOut report only whether the request was accepted;
// the resulting state change is delivered through the SubscribeAuth
// callback, never through the call's own return value.
type Auth interface {
	// CurrentSession returns the already-valid identity, or nil when
	// nobody is signed in.
	CurrentSession(ctx context.Context) (*domain.Identity, error)

	// SubscribeAuth registers a callback invoked on every auth state
	// change with the new identity (nil on sign-out).
	SubscribeAuth(onChange func(*domain.Identity)) (Unsubscribe, error)

	SignIn(ctx context.Context, creds Credentials) error
	SignOut(ctx context.Context) error
}

// Query reads an owner's full record set.
type Query interface {
	// ListBookmarks returns every bookmark owned by ownerID, ordered
	// by created_at descending.
	ListBookmarks(ctx context.Context, ownerID string) ([]domain.Bookmark, error)
}

// Mutation applies owner-scoped writes.
type Mutation interface {
	InsertBookmark(ctx context.Context, bm domain.Bookmark) error

	// DeleteBookmark deletes the bookmark only if it is owned by
	// ownerID. Deleting a missing or foreign record removes zero rows
	// and is not an error.
	DeleteBookmark(ctx context.Context, ownerID, id string) error
}

// ChangeFeed delivers change notifications for an owner's records.
// A notification says only "something changed"; subscribers are
// expected to re-read, not patch.
type ChangeFeed interface {
	SubscribeChanges(ownerID string, onAny func()) (Unsubscribe, error)
}

// Backend bundles all four capabilities.
type Backend interface {
	Auth
	Query
	Mutation
	ChangeFeed
}
