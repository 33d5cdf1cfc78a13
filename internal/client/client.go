// Package client is the top-level controller owning the session
// tracker, the record syncer, and the mutation gateway. Its lifecycle
// is tied to process start/stop; there is no ambient singleton state.
// UI surfaces (the HTTP/WebSocket layer) observe it through Subscribe.
package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/pinstack/pinstack/internal/backend"
	"github.com/pinstack/pinstack/internal/domain"
	"github.com/pinstack/pinstack/internal/gateway"
	"github.com/pinstack/pinstack/internal/logger"
	"github.com/pinstack/pinstack/internal/session"
	"github.com/pinstack/pinstack/internal/syncer"
)

// EventType tags the events fanned out to UI subscribers.
type EventType string

const (
	// EventSession carries a session state transition.
	EventSession EventType = "session"
	// EventSnapshot carries a full replacement of the bookmark list.
	EventSnapshot EventType = "snapshot"
	// EventError carries a surfaced, displayable error message.
	EventError EventType = "error"
)

// Event is one update pushed to UI subscribers.
type Event struct {
	Type      EventType            `json:"type"`
	Session   *domain.SessionState `json:"session,omitempty"`
	Bookmarks []domain.Bookmark    `json:"bookmarks,omitempty"`
	Message   string               `json:"message,omitempty"`
}

// Client wires the three core components together.
type Client struct {
	log     logger.Logger
	tracker *session.Tracker
	syncer  *syncer.Syncer
	gateway *gateway.Gateway

	mu      sync.Mutex
	runCtx  context.Context
	subs    map[int]chan Event
	nextSub int
	lastErr string
}

// New builds a client on top of a backend.
func New(b backend.Backend, log logger.Logger) *Client {
	return &Client{
		log:     log,
		tracker: session.New(b, log),
		syncer:  syncer.New(b, b, log),
		gateway: gateway.New(b, log),
		subs:    make(map[int]chan Event),
	}
}

// Start wires the components and restores any persisted session.
// ctx bounds every background reload; Stop (or ctx cancellation) ends
// the client.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	c.runCtx = ctx
	c.mu.Unlock()

	c.syncer.OnSnapshot(func(bookmarks []domain.Bookmark) {
		c.broadcast(Event{Type: EventSnapshot, Bookmarks: bookmarks})
	})
	c.syncer.OnError(func(err error) {
		c.surface(err)
	})
	c.tracker.OnChange(c.handleSession)

	if err := c.tracker.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize session tracker: %w", err)
	}
	return nil
}

// Stop tears the client down: syncer first (releases the change
// subscription and clears the snapshot), then the auth subscription.
func (c *Client) Stop() {
	c.syncer.Deactivate()
	c.tracker.Close()
}

// handleSession re-derives the syncer's state on every session
// transition. Anything but Authenticated clears the snapshot and drops
// the subscription before a different identity can become current, so
// one identity's data is never visible under another's session.
func (c *Client) handleSession(state domain.SessionState) {
	if state.SignedIn() {
		c.mu.Lock()
		ctx := c.runCtx
		c.mu.Unlock()
		if ctx == nil {
			ctx = context.Background()
		}

		if err := c.syncer.Activate(ctx, *state.Identity); err != nil {
			c.surface(err)
		}
	} else {
		c.syncer.Deactivate()
	}

	c.broadcast(Event{Type: EventSession, Session: &state})
}

// ─────────────────────────────────────────────────────────────────
// Operations exposed to the UI layer
// ─────────────────────────────────────────────────────────────────

// State returns the current session state.
func (c *Client) State() domain.SessionState {
	return c.tracker.State()
}

// Snapshot returns the current bookmark snapshot.
func (c *Client) Snapshot() []domain.Bookmark {
	return c.syncer.Snapshot()
}

// LastError returns the most recent surfaced error message, empty when
// none. It is informational; errors are never retried automatically.
func (c *Client) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// SignIn begins a sign-in; completion arrives via a session event.
func (c *Client) SignIn(ctx context.Context, creds backend.Credentials) error {
	return c.tracker.SignIn(ctx, creds)
}

// SignOut begins a sign-out; completion arrives via a session event.
func (c *Client) SignOut(ctx context.Context) error {
	return c.tracker.SignOut(ctx)
}

// Add creates a bookmark for the signed-in identity.
func (c *Client) Add(ctx context.Context, url, title string) (domain.Bookmark, error) {
	state := c.tracker.State()
	if !state.SignedIn() {
		return domain.Bookmark{}, fmt.Errorf("%w: not signed in", domain.ErrAuth)
	}
	return c.gateway.Add(ctx, *state.Identity, url, title)
}

// Remove deletes a bookmark owned by the signed-in identity.
func (c *Client) Remove(ctx context.Context, id string) error {
	state := c.tracker.State()
	if !state.SignedIn() {
		return fmt.Errorf("%w: not signed in", domain.ErrAuth)
	}
	return c.gateway.Remove(ctx, *state.Identity, id)
}

// ─────────────────────────────────────────────────────────────────
// Event fan-out
// ─────────────────────────────────────────────────────────────────

// Subscribe registers a UI listener. The returned cancel must be
// called when the listener goes away. Slow listeners lose events
// rather than block the core; a lost snapshot event is recovered by
// the next one or by reading Snapshot directly.
func (c *Client) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)

	c.mu.Lock()
	c.nextSub++
	id := c.nextSub
	c.subs[id] = ch
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			close(ch)
			c.mu.Unlock()
		})
	}
}

// broadcast delivers under the lock so a concurrent cancel cannot
// close a channel mid-send. Sends never block.
func (c *Client) broadcast(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, ch := range c.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (c *Client) surface(err error) {
	c.mu.Lock()
	c.lastErr = err.Error()
	c.mu.Unlock()

	c.log.Warn("surfaced error", logger.Error(err))
	c.broadcast(Event{Type: EventError, Message: err.Error()})
}
