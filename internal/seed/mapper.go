package seed

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/pinstack/pinstack/internal/domain"
)

// User is a mapped seed account ready to be applied to a backend.
type User struct {
	Identity     domain.Identity
	PasswordHash []byte
	Bookmarks    []domain.Bookmark
}

// Mapper converts the seed config to domain users and bookmarks.
type Mapper struct{}

// NewMapper creates a seed mapper.
func NewMapper() *Mapper {
	return &Mapper{}
}

// MapUsers converts the seed config. Entries without an email or a
// password are rejected; bookmark entries without a URL are skipped.
func (m *Mapper) MapUsers(config Config) ([]User, error) {
	if len(config.Users) == 0 {
		return nil, fmt.Errorf("no users found in seed config")
	}

	users := make([]User, 0, len(config.Users))
	now := time.Now().UTC()

	for _, entry := range config.Users {
		email := strings.TrimSpace(entry.Email)
		if email == "" {
			return nil, fmt.Errorf("seed user without email")
		}
		if entry.Password == "" {
			return nil, fmt.Errorf("seed user %s without password", email)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(entry.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password for %s: %w", email, err)
		}

		identity := domain.Identity{
			ID:        uuid.NewString(),
			Email:     email,
			Name:      strings.TrimSpace(entry.Name),
			AvatarURL: strings.TrimSpace(entry.Avatar),
		}

		bookmarks := make([]domain.Bookmark, 0, len(entry.Marks))
		for _, mark := range entry.Marks {
			url := strings.TrimSpace(mark.URL)
			if url == "" {
				continue
			}
			bookmarks = append(bookmarks, domain.Bookmark{
				ID:        ulid.Make().String(),
				OwnerID:   identity.ID,
				URL:       url,
				Title:     strings.TrimSpace(mark.Title),
				CreatedAt: now,
			})
		}

		users = append(users, User{
			Identity:     identity,
			PasswordHash: hash,
			Bookmarks:    bookmarks,
		})
	}

	return users, nil
}
