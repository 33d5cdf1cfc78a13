package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/pinstack/pinstack/internal/httpserver/deps"
	"github.com/pinstack/pinstack/internal/httpserver/handlers"
)

func init() { Register(registerBookmarks) }

func registerBookmarks(r chi.Router, d deps.Deps) {
	r.Get("/api/bookmarks", handlers.ListBookmarks(d))
	r.Post("/api/bookmarks", handlers.AddBookmark(d))
	r.Delete("/api/bookmarks/{id}", handlers.RemoveBookmark(d))
}
