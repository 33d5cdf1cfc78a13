// Package session owns the client's authentication state machine:
// Unauthenticated, Authenticating, or Authenticated with an identity.
// Transitions arrive through the auth capability's subscription, never
// through the sign-in/out calls themselves.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/pinstack/pinstack/internal/backend"
	"github.com/pinstack/pinstack/internal/domain"
	"github.com/pinstack/pinstack/internal/logger"
)

// Tracker exposes the current session state and notifies listeners on
// every transition. Listeners run outside the lock and in registration
// order.
type Tracker struct {
	auth backend.Auth
	log  logger.Logger

	mu        sync.Mutex
	state     domain.SessionState
	listeners []func(domain.SessionState)
	unsub     backend.Unsubscribe

	// deliverMu serializes listener delivery with the state write it
	// belongs to, so concurrent transitions cannot reach listeners in
	// an order that disagrees with the state sequence.
	deliverMu sync.Mutex
}

// New creates a tracker in the Unauthenticated state.
func New(auth backend.Auth, log logger.Logger) *Tracker {
	return &Tracker{
		auth:  auth,
		log:   log,
		state: domain.SessionState{Phase: domain.Unauthenticated},
	}
}

// OnChange registers a transition listener. Register before
// Initialize so the listener sees the restored session.
func (t *Tracker) OnChange(fn func(domain.SessionState)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, fn)
}

// State returns the current session state.
func (t *Tracker) State() domain.SessionState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Initialize restores any already-valid session and subscribes to auth
// state changes for the lifetime of the client process.
func (t *Tracker) Initialize(ctx context.Context) error {
	if t.auth == nil {
		return fmt.Errorf("%w: auth capability unavailable", domain.ErrConfigMissing)
	}

	identity, err := t.auth.CurrentSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}

	unsub, err := t.auth.SubscribeAuth(t.onAuthChange)
	if err != nil {
		return fmt.Errorf("failed to subscribe to auth changes: %w", err)
	}

	t.mu.Lock()
	t.unsub = unsub
	t.mu.Unlock()

	if identity != nil {
		t.log.Info("restored existing session",
			logger.String("email", identity.Email))
	}
	t.apply(identity)
	return nil
}

// SignIn moves to Authenticating and delegates to the auth capability.
// Completion is observed only via the auth subscription; a rejected
// request reverts to the prior stable state.
func (t *Tracker) SignIn(ctx context.Context, creds backend.Credentials) error {
	if t.auth == nil {
		return fmt.Errorf("%w: auth capability unavailable", domain.ErrConfigMissing)
	}

	prev := t.setPhase(domain.Authenticating)

	if err := t.auth.SignIn(ctx, creds); err != nil {
		t.restore(prev)
		return fmt.Errorf("sign-in rejected: %w", err)
	}
	return nil
}

// SignOut moves to Authenticating (busy) and delegates to the auth
// capability; the subscription delivers the Unauthenticated state.
func (t *Tracker) SignOut(ctx context.Context) error {
	if t.auth == nil {
		return fmt.Errorf("%w: auth capability unavailable", domain.ErrConfigMissing)
	}

	prev := t.setPhase(domain.Authenticating)

	if err := t.auth.SignOut(ctx); err != nil {
		t.restore(prev)
		return fmt.Errorf("sign-out rejected: %w", err)
	}
	return nil
}

// Close releases the auth subscription. Called once at process
// teardown.
func (t *Tracker) Close() {
	t.mu.Lock()
	unsub := t.unsub
	t.unsub = nil
	t.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// onAuthChange is the subscription callback delivering the new
// identity (nil on sign-out).
func (t *Tracker) onAuthChange(identity *domain.Identity) {
	t.apply(identity)
}

func (t *Tracker) apply(identity *domain.Identity) {
	next := domain.SessionState{Phase: domain.Unauthenticated}
	if identity != nil {
		next = domain.SessionState{Phase: domain.Authenticated, Identity: identity}
	}
	t.transition(next)
}

// setPhase switches to a busy phase keeping the previous state for a
// possible revert. The identity is dropped from the visible state so
// no dependent treats a busy transition as still-authenticated.
func (t *Tracker) setPhase(phase domain.SessionPhase) domain.SessionState {
	t.mu.Lock()
	prev := t.state
	t.mu.Unlock()

	t.transition(domain.SessionState{Phase: phase})
	return prev
}

func (t *Tracker) restore(prev domain.SessionState) {
	t.transition(prev)
}

func (t *Tracker) transition(next domain.SessionState) {
	t.deliverMu.Lock()
	defer t.deliverMu.Unlock()

	t.mu.Lock()
	t.state = next
	listeners := make([]func(domain.SessionState), len(t.listeners))
	copy(listeners, t.listeners)
	t.mu.Unlock()

	for _, fn := range listeners {
		fn(next)
	}
}
