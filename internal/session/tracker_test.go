package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/pinstack/pinstack/internal/backend"
	"github.com/pinstack/pinstack/internal/domain"
	"github.com/pinstack/pinstack/internal/logger"
)

// fakeAuth delivers state changes synchronously through its
// subscription, mimicking the backend contract.
type fakeAuth struct {
	mu         sync.Mutex
	current    *domain.Identity
	identity   domain.Identity // identity handed out on successful sign-in
	signInErr  error
	signOutErr error
	subs       []func(*domain.Identity)
	released   int
}

func (f *fakeAuth) CurrentSession(ctx context.Context) (*domain.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current, nil
}

func (f *fakeAuth) SubscribeAuth(onChange func(*domain.Identity)) (backend.Unsubscribe, error) {
	f.mu.Lock()
	f.subs = append(f.subs, onChange)
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.released++
		f.mu.Unlock()
	}, nil
}

func (f *fakeAuth) SignIn(ctx context.Context, creds backend.Credentials) error {
	if f.signInErr != nil {
		return f.signInErr
	}
	f.mu.Lock()
	identity := f.identity
	f.current = &identity
	subs := append([]func(*domain.Identity){}, f.subs...)
	f.mu.Unlock()
	for _, fn := range subs {
		fn(&identity)
	}
	return nil
}

func (f *fakeAuth) SignOut(ctx context.Context) error {
	if f.signOutErr != nil {
		return f.signOutErr
	}
	f.mu.Lock()
	f.current = nil
	subs := append([]func(*domain.Identity){}, f.subs...)
	f.mu.Unlock()
	for _, fn := range subs {
		fn(nil)
	}
	return nil
}

// recorder collects every observed transition.
type recorder struct {
	mu     sync.Mutex
	states []domain.SessionState
}

func (r *recorder) record(s domain.SessionState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recorder) phases() []domain.SessionPhase {
	r.mu.Lock()
	defer r.mu.Unlock()
	phases := make([]domain.SessionPhase, 0, len(r.states))
	for _, s := range r.states {
		phases = append(phases, s.Phase)
	}
	return phases
}

func newTestTracker(auth *fakeAuth) (*Tracker, *recorder) {
	tr := New(auth, logger.New("error", false))
	rec := &recorder{}
	tr.OnChange(rec.record)
	return tr, rec
}

func TestInitializeWithoutSession(t *testing.T) {
	tr, _ := newTestTracker(&fakeAuth{})

	if err := tr.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if got := tr.State().Phase; got != domain.Unauthenticated {
		t.Errorf("State().Phase = %v, want Unauthenticated", got)
	}
}

func TestInitializeRestoresExistingSession(t *testing.T) {
	auth := &fakeAuth{current: &domain.Identity{ID: "u1", Email: "alice@example.com"}}
	tr, _ := newTestTracker(auth)

	if err := tr.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	state := tr.State()
	if !state.SignedIn() {
		t.Fatalf("State() = %+v, want Authenticated", state)
	}
	if state.Identity.ID != "u1" {
		t.Errorf("Identity.ID = %s, want u1", state.Identity.ID)
	}
}

func TestSignInCompletesViaSubscription(t *testing.T) {
	auth := &fakeAuth{identity: domain.Identity{ID: "u1", Email: "alice@example.com"}}
	tr, rec := newTestTracker(auth)

	if err := tr.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if err := tr.SignIn(context.Background(), backend.Credentials{Email: "alice@example.com", Password: "pw"}); err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}

	// Initialize -> Unauthenticated, SignIn -> Authenticating, then
	// the subscription delivers Authenticated.
	want := []domain.SessionPhase{domain.Unauthenticated, domain.Authenticating, domain.Authenticated}
	got := rec.phases()
	if len(got) != len(want) {
		t.Fatalf("observed phases %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("observed phases %v, want %v", got, want)
		}
	}
}

func TestSignInFailureReverts(t *testing.T) {
	auth := &fakeAuth{signInErr: fmt.Errorf("%w: invalid credentials", domain.ErrAuth)}
	tr, _ := newTestTracker(auth)

	if err := tr.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	err := tr.SignIn(context.Background(), backend.Credentials{Email: "alice@example.com", Password: "nope"})
	if !errors.Is(err, domain.ErrAuth) {
		t.Fatalf("SignIn() error = %v, want wrapped ErrAuth", err)
	}
	if got := tr.State().Phase; got != domain.Unauthenticated {
		t.Errorf("State().Phase after failed sign-in = %v, want Unauthenticated", got)
	}
}

func TestSignOutDeliversUnauthenticated(t *testing.T) {
	auth := &fakeAuth{current: &domain.Identity{ID: "u1"}}
	tr, _ := newTestTracker(auth)

	if err := tr.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if err := tr.SignOut(context.Background()); err != nil {
		t.Fatalf("SignOut() error = %v", err)
	}
	if got := tr.State().Phase; got != domain.Unauthenticated {
		t.Errorf("State().Phase = %v, want Unauthenticated", got)
	}
}

func TestSignOutFailureRestoresAuthenticatedState(t *testing.T) {
	auth := &fakeAuth{
		current:    &domain.Identity{ID: "u1"},
		signOutErr: fmt.Errorf("%w: backend offline", domain.ErrAuth),
	}
	tr, _ := newTestTracker(auth)

	if err := tr.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if err := tr.SignOut(context.Background()); err == nil {
		t.Fatal("SignOut() error = nil, want error")
	}

	state := tr.State()
	if !state.SignedIn() || state.Identity.ID != "u1" {
		t.Errorf("State() after failed sign-out = %+v, want still Authenticated(u1)", state)
	}
}

func TestCloseReleasesAuthSubscription(t *testing.T) {
	auth := &fakeAuth{}
	tr, _ := newTestTracker(auth)

	if err := tr.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	tr.Close()
	tr.Close() // idempotent

	auth.mu.Lock()
	released := auth.released
	auth.mu.Unlock()
	if released != 1 {
		t.Errorf("auth subscription released %d times, want 1", released)
	}
}

func TestConcurrentTransitionsDeliverInOrder(t *testing.T) {
	tr := New(&fakeAuth{}, logger.New("error", false))
	rec := &recorder{}
	tr.OnChange(rec.record)

	identities := []*domain.Identity{
		{ID: "u1", Email: "alice@example.com"},
		{ID: "u2", Email: "bob@example.com"},
		nil,
	}

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(identity *domain.Identity) {
			defer wg.Done()
			tr.apply(identity)
		}(identities[i%len(identities)])
	}
	wg.Wait()

	// Whatever interleaving won, the last delivered state must be the
	// one the tracker settled on.
	rec.mu.Lock()
	last := rec.states[len(rec.states)-1]
	rec.mu.Unlock()

	settled := tr.State()
	if last.Phase != settled.Phase {
		t.Fatalf("last delivered phase = %v, settled phase = %v", last.Phase, settled.Phase)
	}
	if last.SignedIn() != settled.SignedIn() {
		t.Fatalf("last delivered state = %+v, settled state = %+v", last, settled)
	}
	if last.SignedIn() && last.Identity.ID != settled.Identity.ID {
		t.Fatalf("last delivered identity = %s, settled identity = %s",
			last.Identity.ID, settled.Identity.ID)
	}
}

func TestMissingAuthCapability(t *testing.T) {
	tr := New(nil, logger.New("error", false))
	if err := tr.Initialize(context.Background()); !errors.Is(err, domain.ErrConfigMissing) {
		t.Errorf("Initialize() error = %v, want ErrConfigMissing", err)
	}
}
