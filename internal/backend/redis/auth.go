package redis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/pinstack/pinstack/internal/backend"
	"github.com/pinstack/pinstack/internal/domain"
	"github.com/pinstack/pinstack/internal/logger"
)

// sessionClaims is the JWT payload for a signed-in identity.
type sessionClaims struct {
	jwt.RegisteredClaims
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

// CurrentSession returns the identity from the persisted session
// token, or nil when there is no valid token. A missing, expired, or
// malformed token means "nobody signed in", never an error.
func (s *Store) CurrentSession(ctx context.Context) (*domain.Identity, error) {
	if len(s.opts.Secret) == 0 {
		return nil, fmt.Errorf("%w: session secret not set", domain.ErrConfigMissing)
	}

	raw, err := os.ReadFile(s.opts.TokenPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: failed to read session token: %v", domain.ErrAuth, err)
	}

	identity, err := s.parseToken(strings.TrimSpace(string(raw)))
	if err != nil {
		s.log.Debug("persisted session token rejected", logger.Error(err))
		return nil, nil
	}

	s.mu.Lock()
	s.current = identity
	s.mu.Unlock()
	return identity, nil
}

// SignIn verifies credentials against the stored account and, on
// success, persists a fresh session token and notifies auth
// subscribers. The new state reaches callers only through the
// subscription.
func (s *Store) SignIn(ctx context.Context, creds backend.Credentials) error {
	email := strings.ToLower(strings.TrimSpace(creds.Email))

	user, err := s.getUser(ctx, email)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrAuth, err)
	}
	if user == nil {
		return fmt.Errorf("%w: unknown account", domain.ErrAuth)
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(creds.Password)); err != nil {
		return fmt.Errorf("%w: invalid credentials", domain.ErrAuth)
	}

	token, err := s.mintToken(user.Identity)
	if err != nil {
		return fmt.Errorf("%w: failed to mint session token: %v", domain.ErrAuth, err)
	}
	if err := os.WriteFile(s.opts.TokenPath, []byte(token), 0o600); err != nil {
		return fmt.Errorf("%w: failed to persist session token: %v", domain.ErrAuth, err)
	}

	identity := user.Identity
	s.mu.Lock()
	s.current = &identity
	subs := s.authListeners()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(&identity)
	}
	return nil
}

// SignOut discards the persisted token and notifies subscribers.
func (s *Store) SignOut(ctx context.Context) error {
	if err := os.Remove(s.opts.TokenPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: failed to remove session token: %v", domain.ErrAuth, err)
	}

	s.mu.Lock()
	s.current = nil
	subs := s.authListeners()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(nil)
	}
	return nil
}

// SubscribeAuth registers an in-process auth state listener. Auth
// state is per client process; Redis holds the accounts, not the live
// session events.
func (s *Store) SubscribeAuth(onChange func(*domain.Identity)) (backend.Unsubscribe, error) {
	s.mu.Lock()
	s.nextSub++
	id := s.nextSub
	s.authSubs[id] = onChange
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.authSubs, id)
			s.mu.Unlock()
		})
	}, nil
}

// authListeners snapshots the listener set; caller must hold s.mu.
func (s *Store) authListeners() []func(*domain.Identity) {
	subs := make([]func(*domain.Identity), 0, len(s.authSubs))
	for _, fn := range s.authSubs {
		subs = append(subs, fn)
	}
	return subs
}

func (s *Store) mintToken(identity domain.Identity) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.opts.SessionTTL)),
		},
		Email:  identity.Email,
		Name:   identity.Name,
		Avatar: identity.AvatarURL,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.opts.Secret)
}

func (s *Store) parseToken(raw string) (*domain.Identity, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.opts.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	return &domain.Identity{
		ID:        claims.Subject,
		Email:     claims.Email,
		Name:      claims.Name,
		AvatarURL: claims.Avatar,
	}, nil
}
