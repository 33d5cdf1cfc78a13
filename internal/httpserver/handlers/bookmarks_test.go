package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/pinstack/pinstack/internal/backend"
	"github.com/pinstack/pinstack/internal/backend/memory"
	"github.com/pinstack/pinstack/internal/client"
	"github.com/pinstack/pinstack/internal/domain"
	"github.com/pinstack/pinstack/internal/httpserver/deps"
	"github.com/pinstack/pinstack/internal/logger"
)

func newTestDeps(t *testing.T) deps.Deps {
	t.Helper()

	b := memory.New()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	identity := domain.Identity{ID: "u1", Email: "alice@example.com", Name: "Alice"}
	if err := b.SaveUser(context.Background(), identity, hash); err != nil {
		t.Fatalf("SaveUser: %v", err)
	}

	c := client.New(b, logger.New("error", false))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		c.Stop()
		cancel()
	})
	if err := c.Start(ctx); err != nil {
		t.Fatalf("client.Start: %v", err)
	}

	return deps.Deps{
		Logger:    logger.New("error", false),
		StartTime: time.Now(),
		TimeNow:   time.Now,
		Client:    c,
		Ready:     func() bool { return true },
	}
}

func signInTestUser(t *testing.T, d deps.Deps) {
	t.Helper()
	err := d.Client.SignIn(context.Background(), backend.Credentials{
		Email:    "alice@example.com",
		Password: "secret",
	})
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met in time: %s", msg)
}

func TestListBookmarksEmpty(t *testing.T) {
	d := newTestDeps(t)
	signInTestUser(t, d)

	req := httptest.NewRequest(http.MethodGet, "/api/bookmarks", nil)
	rec := httptest.NewRecorder()
	ListBookmarks(d)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Bookmarks []domain.Bookmark `json:"bookmarks"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Bookmarks) != 0 {
		t.Errorf("bookmarks = %v, want empty", body.Bookmarks)
	}
}

func TestAddBookmark(t *testing.T) {
	d := newTestDeps(t)
	signInTestUser(t, d)

	req := httptest.NewRequest(http.MethodPost, "/api/bookmarks",
		strings.NewReader(`{"url": "https://a.example", "title": "A"}`))
	rec := httptest.NewRecorder()
	AddBookmark(d)(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body: %s)", rec.Code, rec.Body.String())
	}
	var bm domain.Bookmark
	if err := json.NewDecoder(rec.Body).Decode(&bm); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if bm.URL != "https://a.example" || bm.OwnerID != "u1" {
		t.Errorf("bookmark = %+v, want url and owner set", bm)
	}

	// The snapshot catches up via the notification reload, not the response.
	waitFor(t, func() bool { return len(d.Client.Snapshot()) == 1 }, "snapshot reloaded")
}

func TestAddBookmarkValidation(t *testing.T) {
	d := newTestDeps(t)
	signInTestUser(t, d)

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "empty url", body: `{"url": "   "}`, want: http.StatusUnprocessableEntity},
		{name: "malformed json", body: `{`, want: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/bookmarks", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			AddBookmark(d)(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestAddBookmarkUnauthenticated(t *testing.T) {
	d := newTestDeps(t)

	req := httptest.NewRequest(http.MethodPost, "/api/bookmarks",
		strings.NewReader(`{"url": "https://a.example"}`))
	rec := httptest.NewRecorder()
	AddBookmark(d)(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRemoveBookmark(t *testing.T) {
	d := newTestDeps(t)
	signInTestUser(t, d)

	bm, err := d.Client.Add(context.Background(), "https://a.example", "")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	waitFor(t, func() bool { return len(d.Client.Snapshot()) == 1 }, "snapshot loaded")

	r := chi.NewRouter()
	r.Delete("/api/bookmarks/{id}", RemoveBookmark(d))

	req := httptest.NewRequest(http.MethodDelete, "/api/bookmarks/"+bm.ID, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	waitFor(t, func() bool { return len(d.Client.Snapshot()) == 0 }, "snapshot reloaded after remove")

	// Deleting it again is "already gone", still 204.
	req = httptest.NewRequest(http.MethodDelete, "/api/bookmarks/"+bm.ID, nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("repeat delete status = %d, want 204", rec.Code)
	}
}
