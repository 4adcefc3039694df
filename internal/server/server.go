// Package server provides the HTTP surface of the Natya engine for the
// companion UI: track listings, session history, mode control, a live
// score feed, and a camera preview stream.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/natya/internal/capture"
	"github.com/ayusman/natya/internal/detect"
	"github.com/ayusman/natya/internal/game"
	"github.com/ayusman/natya/internal/server/api"
	"github.com/ayusman/natya/internal/store"
	"github.com/ayusman/natya/internal/track"
)

// Config holds the server's collaborators. Nil entries disable the
// corresponding routes.
type Config struct {
	StaticDir    string
	Store        *store.Store
	Library      *track.Library
	Game         *game.Game
	Orchestrator *detect.Orchestrator
	Camera       capture.Camera
}

// Server is the engine's HTTP handler.
type Server struct {
	config Config
	mux    *http.ServeMux
	live   *LiveHandler
	start  time.Time
}

// New creates a Server and wires its routes.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Library != nil {
		tracksHandler := api.NewTracksHandler(s.config.Library)
		s.mux.Handle("/api/tracks", tracksHandler)
		s.mux.Handle("/api/tracks/", tracksHandler)
	}

	if s.config.Store != nil {
		sessionsHandler := api.NewSessionsHandler(s.config.Store)
		s.mux.Handle("/api/sessions", sessionsHandler)
		s.mux.Handle("/api/sessions/", sessionsHandler)
	}

	if s.config.Orchestrator != nil {
		s.mux.Handle("/api/mode", api.NewModeHandler(s.config.Orchestrator))
	}

	if s.config.Game != nil {
		gameHandler := api.NewGameHandler(s.config.Game)
		s.mux.Handle("/api/game", gameHandler)
		s.mux.Handle("/api/game/", gameHandler)

		s.live = NewLiveHandler()
		s.config.Game.OnFrame(s.live.Publish)
		s.mux.Handle("/api/live", s.live)
	}

	if s.config.Camera != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Camera))
	}

	if s.config.StaticDir != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
