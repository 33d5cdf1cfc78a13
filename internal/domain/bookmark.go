package domain

import (
	"sort"
	"time"
)

// Bookmark is a single saved link, private to its owner.
//
// Bookmarks are immutable once created: there is no edit operation.
// A bookmark is either inserted or deleted, never updated in place.
type Bookmark struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is the canonical unique identifier (ULID).
	ID string `json:"id"`

	// OwnerID references the Identity this bookmark belongs to.
	// Every read and write is scoped to this owner.
	OwnerID string `json:"owner_id"`

	// ─────────────────────────────
	// Content
	// ─────────────────────────────

	// URL is the saved link. Required, never empty.
	URL string `json:"url"`

	// Title is an optional human label. Empty means untitled.
	Title string `json:"title,omitempty"`

	// ─────────────────────────────
	// Metadata
	// ─────────────────────────────

	// CreatedAt is set once at insert time and drives snapshot ordering.
	CreatedAt time.Time `json:"created_at"`
}

// SortSnapshot orders bookmarks newest-first (created_at descending).
// Ties on CreatedAt are broken by ID descending so the order is stable
// across backends.
func SortSnapshot(bookmarks []Bookmark) {
	sort.SliceStable(bookmarks, func(i, j int) bool {
		if !bookmarks[i].CreatedAt.Equal(bookmarks[j].CreatedAt) {
			return bookmarks[i].CreatedAt.After(bookmarks[j].CreatedAt)
		}
		return bookmarks[i].ID > bookmarks[j].ID
	})
}
