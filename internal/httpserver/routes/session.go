package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/pinstack/pinstack/internal/httpserver/deps"
	"github.com/pinstack/pinstack/internal/httpserver/handlers"
)

func init() { Register(registerSession) }

func registerSession(r chi.Router, d deps.Deps) {
	r.Get("/api/session", handlers.GetSession(d))
	r.Post("/api/session/signin", handlers.SignIn(d))
	r.Post("/api/session/signout", handlers.SignOut(d))
}
