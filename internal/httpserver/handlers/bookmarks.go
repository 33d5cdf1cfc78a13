package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pinstack/pinstack/internal/domain"
	"github.com/pinstack/pinstack/internal/httpserver/deps"
	"github.com/pinstack/pinstack/internal/logger"
)

// ListBookmarks serves the current snapshot. This is the client's
// materialized view, not a direct backend query: it is exactly what
// the synchronizer last loaded.
func ListBookmarks(d deps.Deps) http.HandlerFunc {
	type response struct {
		Bookmarks []domain.Bookmark `json:"bookmarks"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, response{Bookmarks: d.Client.Snapshot()})
	}
}

// AddBookmark creates a bookmark for the signed-in identity. The
// response carries the inserted record, but the snapshot updates only
// through the change-notification reload.
func AddBookmark(d deps.Deps) http.HandlerFunc {
	type request struct {
		URL   string `json:"url"`
		Title string `json:"title"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, fmt.Errorf("%w: invalid bookmark payload", domain.ErrValidation))
			return
		}

		bm, err := d.Client.Add(r.Context(), req.URL, req.Title)
		if err != nil {
			d.Logger.Warn("add bookmark failed", logger.Error(err))
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, bm)
	}
}

// RemoveBookmark deletes a bookmark owned by the signed-in identity.
// Deleting an unknown id is indistinguishable from "already gone" and
// still answers 204.
func RemoveBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		if err := d.Client.Remove(r.Context(), id); err != nil {
			d.Logger.Warn("remove bookmark failed", logger.Error(err))
			writeError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
