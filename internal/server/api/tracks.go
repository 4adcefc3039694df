// Package api provides the HTTP API handlers of the Natya engine.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/natya/internal/track"
)

// TracksHandler serves the reference track catalog.
type TracksHandler struct {
	library *track.Library
}

// NewTracksHandler creates a TracksHandler over the given library.
func NewTracksHandler(l *track.Library) *TracksHandler {
	return &TracksHandler{library: l}
}

// ServeHTTP routes /api/tracks and /api/tracks/{id}.
func (h *TracksHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/tracks")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		h.list(w)
		return
	}
	h.get(w, path)
}

type listTracksResponse struct {
	Tracks []track.Summary `json:"tracks"`
}

func (h *TracksHandler) list(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, listTracksResponse{Tracks: h.library.Summaries()})
}

func (h *TracksHandler) get(w http.ResponseWriter, id string) {
	t, err := h.library.Get(id)
	if err != nil {
		if errors.Is(err, track.ErrNotFound) {
			writeError(w, http.StatusNotFound, "track not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, t.Summary())
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
