package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pinstack/pinstack/internal/backend"
	"github.com/pinstack/pinstack/internal/domain"
	"github.com/pinstack/pinstack/internal/httpserver/deps"
	"github.com/pinstack/pinstack/internal/logger"
)

// GetSession returns the current session state and last surfaced error.
func GetSession(d deps.Deps) http.HandlerFunc {
	type response struct {
		Session   domain.SessionState `json:"session"`
		LastError string              `json:"last_error,omitempty"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, response{
			Session:   d.Client.State(),
			LastError: d.Client.LastError(),
		})
	}
}

// SignIn begins an asynchronous sign-in. A 202 means the request was
// accepted; completion is observed on /api/events (or by polling
// /api/session), never in this response.
func SignIn(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var creds backend.Credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			writeError(w, fmt.Errorf("%w: invalid sign-in payload", domain.ErrValidation))
			return
		}

		if err := d.Client.SignIn(r.Context(), creds); err != nil {
			d.Logger.Warn("sign-in rejected", logger.Error(err))
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusAccepted, d.Client.State())
	}
}

// SignOut begins an asynchronous sign-out.
func SignOut(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Client.SignOut(r.Context()); err != nil {
			d.Logger.Warn("sign-out rejected", logger.Error(err))
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusAccepted, d.Client.State())
	}
}
