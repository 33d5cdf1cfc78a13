// Package redis is the production backend: bookmarks and accounts
// live in Redis, change notifications ride Redis pub/sub, and the
// session token is a JWT persisted on disk so a restarted client
// resumes its session.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pinstack/pinstack/internal/domain"
	"github.com/pinstack/pinstack/internal/logger"
)

// Options configures the session side of the store.
type Options struct {
	Secret     []byte        // HMAC key for session tokens
	TokenPath  string        // where the signed session token is persisted
	SessionTTL time.Duration // token lifetime
}

// Store implements all backend capabilities on Redis.
type Store struct {
	client *redis.Client
	log    logger.Logger
	opts   Options

	mu       sync.Mutex
	current  *domain.Identity
	nextSub  int
	authSubs map[int]func(*domain.Identity)
}

// NewStore creates a Redis-backed store.
func NewStore(client *redis.Client, opts Options, log logger.Logger) *Store {
	return &Store{
		client:   client,
		log:      log,
		opts:     opts,
		authSubs: make(map[int]func(*domain.Identity)),
	}
}

// ─────────────────────────────────────────────────────────────────
// Query capability
// ─────────────────────────────────────────────────────────────────

// ListBookmarks returns every bookmark owned by ownerID, newest first.
// Ordering comes from the per-owner ZSET scored by creation time;
// score ties fall back to reverse-lexical member order, which matches
// ID-descending because IDs are ULIDs.
func (s *Store) ListBookmarks(ctx context.Context, ownerID string) ([]domain.Bookmark, error) {
	ids, err := s.client.ZRevRange(ctx, OwnerSetKey(ownerID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list bookmark ids: %v", domain.ErrQuery, err)
	}

	if len(ids) == 0 {
		return []domain.Bookmark{}, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, BookmarkKey(ownerID, id))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch bookmarks: %v", domain.ErrQuery, err)
	}

	bookmarks := make([]domain.Bookmark, 0, len(values))
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			// Index entry without a value; skip and let the next
			// mutation resync the set.
			s.log.Warn("bookmark id without value, skipping",
				logger.String("id", ids[i]))
			continue
		}

		var bm domain.Bookmark
		if err := json.Unmarshal([]byte(raw), &bm); err != nil {
			s.log.Warn("failed to unmarshal bookmark, skipping",
				logger.String("id", ids[i]),
				logger.Error(err))
			continue
		}
		bookmarks = append(bookmarks, bm)
	}

	return bookmarks, nil
}

// ─────────────────────────────────────────────────────────────────
// Mutation capability
// ─────────────────────────────────────────────────────────────────

// InsertBookmark stores a bookmark and publishes a change notification
// on the owner's channel.
func (s *Store) InsertBookmark(ctx context.Context, bm domain.Bookmark) error {
	data, err := json.Marshal(bm)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal bookmark: %v", domain.ErrMutation, err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, BookmarkKey(bm.OwnerID, bm.ID), data, 0)
	pipe.ZAdd(ctx, OwnerSetKey(bm.OwnerID), redis.Z{
		Score:  float64(bm.CreatedAt.UnixNano()),
		Member: bm.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: failed to save bookmark: %v", domain.ErrMutation, err)
	}

	s.publishChange(ctx, bm.OwnerID, "insert")
	return nil
}

// DeleteBookmark removes the bookmark only if it belongs to ownerID.
// The owner is baked into the key, so a foreign or missing record
// removes zero rows; that case is silent, same as "already gone".
func (s *Store) DeleteBookmark(ctx context.Context, ownerID, id string) error {
	removed, err := s.client.Del(ctx, BookmarkKey(ownerID, id)).Result()
	if err != nil {
		return fmt.Errorf("%w: failed to delete bookmark: %v", domain.ErrMutation, err)
	}

	if err := s.client.ZRem(ctx, OwnerSetKey(ownerID), id).Err(); err != nil {
		return fmt.Errorf("%w: failed to remove bookmark from set: %v", domain.ErrMutation, err)
	}

	if removed > 0 {
		s.publishChange(ctx, ownerID, "delete")
	}
	return nil
}

// publishChange is best effort: subscribers reconcile by reloading,
// so a lost notification costs freshness, not correctness.
func (s *Store) publishChange(ctx context.Context, ownerID, kind string) {
	if err := s.client.Publish(ctx, ChangesChannel(ownerID), kind).Err(); err != nil {
		s.log.Warn("failed to publish change notification",
			logger.String("owner", ownerID),
			logger.String("kind", kind),
			logger.Error(err))
	}
}

// ─────────────────────────────────────────────────────────────────
// Accounts
// ─────────────────────────────────────────────────────────────────

// userRecord is the stored account shape.
type userRecord struct {
	Identity     domain.Identity `json:"identity"`
	PasswordHash []byte          `json:"password_hash"`
}

// SaveUser provisions an account. Used by the seed path and by
// operator tooling; the client core never calls it.
func (s *Store) SaveUser(ctx context.Context, identity domain.Identity, passwordHash []byte) error {
	data, err := json.Marshal(userRecord{Identity: identity, PasswordHash: passwordHash})
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	if err := s.client.Set(ctx, UserKey(identity.Email), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func (s *Store) getUser(ctx context.Context, email string) (*userRecord, error) {
	data, err := s.client.Get(ctx, UserKey(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	var user userRecord
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return &user, nil
}
