package redis

import "testing"

func TestKeys(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{
			name: "bookmark key is owner scoped",
			got:  BookmarkKey("u1", "01ARZ"),
			want: "pinstack:bookmark:u1:01ARZ",
		},
		{
			name: "owner set key",
			got:  OwnerSetKey("u1"),
			want: "pinstack:bookmarks:u1",
		},
		{
			name: "user key",
			got:  UserKey("alice@example.com"),
			want: "pinstack:user:alice@example.com",
		},
		{
			name: "changes channel",
			got:  ChangesChannel("u1"),
			want: "pinstack:changes:u1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestUserKeyNormalizesEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
	}{
		{name: "mixed case", email: "Alice@Example.com"},
		{name: "surrounding whitespace", email: "  alice@example.com "},
		{name: "both", email: " ALICE@EXAMPLE.COM "},
	}

	want := UserKey("alice@example.com")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserKey(tt.email); got != want {
				t.Errorf("UserKey(%q) = %q, want %q", tt.email, got, want)
			}
		})
	}
}

func TestBookmarkKeysNeverCollideAcrossOwners(t *testing.T) {
	if BookmarkKey("u1", "x") == BookmarkKey("u2", "x") {
		t.Error("same bookmark id under different owners must map to different keys")
	}
}
