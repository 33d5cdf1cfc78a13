package domain

import (
	"testing"
	"time"
)

func TestSortSnapshot(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		bookmarks []Bookmark
		wantOrder []string
	}{
		{
			name:      "empty",
			bookmarks: nil,
			wantOrder: nil,
		},
		{
			name: "newest first",
			bookmarks: []Bookmark{
				{ID: "a", CreatedAt: base},
				{ID: "b", CreatedAt: base.Add(2 * time.Hour)},
				{ID: "c", CreatedAt: base.Add(time.Hour)},
			},
			wantOrder: []string{"b", "c", "a"},
		},
		{
			name: "created_at tie broken by id descending",
			bookmarks: []Bookmark{
				{ID: "aaa", CreatedAt: base},
				{ID: "zzz", CreatedAt: base},
				{ID: "mmm", CreatedAt: base},
			},
			wantOrder: []string{"zzz", "mmm", "aaa"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SortSnapshot(tt.bookmarks)

			if len(tt.bookmarks) != len(tt.wantOrder) {
				t.Fatalf("SortSnapshot() len = %d, want %d", len(tt.bookmarks), len(tt.wantOrder))
			}
			for i, id := range tt.wantOrder {
				if tt.bookmarks[i].ID != id {
					t.Errorf("position %d = %s, want %s", i, tt.bookmarks[i].ID, id)
				}
			}
		})
	}
}

func TestSessionStateSignedIn(t *testing.T) {
	tests := []struct {
		name  string
		state SessionState
		want  bool
	}{
		{
			name:  "unauthenticated",
			state: SessionState{Phase: Unauthenticated},
			want:  false,
		},
		{
			name:  "authenticating",
			state: SessionState{Phase: Authenticating},
			want:  false,
		},
		{
			name:  "authenticated with identity",
			state: SessionState{Phase: Authenticated, Identity: &Identity{ID: "u1"}},
			want:  true,
		},
		{
			name:  "authenticated phase without identity",
			state: SessionState{Phase: Authenticated},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.SignedIn(); got != tt.want {
				t.Errorf("SignedIn() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSessionStateSameIdentity(t *testing.T) {
	alice := SessionState{Phase: Authenticated, Identity: &Identity{ID: "alice"}}
	aliceAgain := SessionState{Phase: Authenticated, Identity: &Identity{ID: "alice"}}
	bob := SessionState{Phase: Authenticated, Identity: &Identity{ID: "bob"}}
	signedOut := SessionState{Phase: Unauthenticated}

	if !alice.SameIdentity(aliceAgain) {
		t.Error("SameIdentity() = false for the same principal")
	}
	if alice.SameIdentity(bob) {
		t.Error("SameIdentity() = true for different principals")
	}
	if alice.SameIdentity(signedOut) {
		t.Error("SameIdentity() = true against an unauthenticated state")
	}
}
