package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/natya/internal/game"
	"github.com/ayusman/natya/internal/score"
	"github.com/ayusman/natya/internal/track"
)

// GameHandler controls the play loop: start a session against a track,
// stop it early, and query whether one is running.
type GameHandler struct {
	game *game.Game
}

// NewGameHandler creates a GameHandler over the given game.
func NewGameHandler(g *game.Game) *GameHandler {
	return &GameHandler{game: g}
}

// ServeHTTP routes /api/game, /api/game/start, and /api/game/stop.
func (h *GameHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/game")
	path = strings.TrimPrefix(path, "/")

	switch path {
	case "":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.status(w)
	case "start":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.start(w, r)
	case "stop":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.stop(w)
	default:
		http.NotFound(w, r)
	}
}

type gameStatusResponse struct {
	Active    bool   `json:"active"`
	SessionID string `json:"sessionId,omitempty"`
	TrackID   string `json:"trackId,omitempty"`
}

type startGameRequest struct {
	TrackID string `json:"trackId"`
}

type stopGameResponse struct {
	Result *score.Result `json:"result"`
}

func (h *GameHandler) status(w http.ResponseWriter) {
	resp := gameStatusResponse{}
	if s := h.game.Session(); s != nil {
		resp.Active = true
		resp.SessionID = s.ID()
		resp.TrackID = s.TrackID()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *GameHandler) start(w http.ResponseWriter, r *http.Request) {
	var req startGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TrackID == "" {
		writeError(w, http.StatusBadRequest, "trackId is required")
		return
	}

	if err := h.game.StartSession(req.TrackID); err != nil {
		switch {
		case errors.Is(err, track.ErrNotFound):
			writeError(w, http.StatusNotFound, "track not found")
		case errors.Is(err, game.ErrSessionActive):
			writeError(w, http.StatusConflict, "a session is already active")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	h.status(w)
}

func (h *GameHandler) stop(w http.ResponseWriter) {
	res, err := h.game.StopSession()
	if err != nil {
		if errors.Is(err, game.ErrNoSession) {
			writeError(w, http.StatusConflict, "no active session")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, stopGameResponse{Result: res})
}
