package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/natya/internal/detect"
	"github.com/ayusman/natya/internal/mode"
	"github.com/ayusman/natya/internal/perf"
)

// ModeHandler exposes detection-mode state and selection.
type ModeHandler struct {
	orch *detect.Orchestrator
}

// NewModeHandler creates a ModeHandler over the given orchestrator.
func NewModeHandler(o *detect.Orchestrator) *ModeHandler {
	return &ModeHandler{orch: o}
}

type modeResponse struct {
	Mode      mode.Mode   `json:"mode"`
	Effective mode.Mode   `json:"effective"`
	Metrics   *perf.Stats `json:"metrics,omitempty"`
}

type setModeRequest struct {
	Mode string `json:"mode"`
}

// ServeHTTP handles GET and PUT on /api/mode.
func (h *ModeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w)
	case http.MethodPut:
		h.set(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ModeHandler) get(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, modeResponse{
		Mode:      h.orch.CurrentMode(),
		Effective: h.orch.EffectiveMode(),
		Metrics:   h.orch.PerformanceMetrics(),
	})
}

func (h *ModeHandler) set(w http.ResponseWriter, r *http.Request) {
	var req setModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	m, err := mode.Parse(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.orch.SetMode(m); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.get(w)
}
