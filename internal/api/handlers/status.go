package handlers

import (
	"net/http"

	"github.com/matiasleandrokruk/ideaforge/internal/infra/llm"
)

// ReadinessSource reports the warm-up state. *llm.Warmer satisfies it.
type ReadinessSource interface {
	Readiness() llm.Readiness
}

// StatusHandler serves liveness, readiness and model status.
type StatusHandler struct {
	readiness ReadinessSource
	model     llm.ModelMeta
}

// NewStatusHandler creates a StatusHandler. A nil readiness source means
// warm-up is disabled and the service reports ready immediately.
func NewStatusHandler(readiness ReadinessSource, model llm.ModelMeta) *StatusHandler {
	return &StatusHandler{readiness: readiness, model: model}
}

// Health handles GET /health.
func (h *StatusHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready handles GET /ready: 200 once the model is loaded, 503 before.
func (h *StatusHandler) Ready(w http.ResponseWriter, _ *http.Request) {
	snap := h.snapshot()
	status := http.StatusServiceUnavailable
	if snap.State == llm.ReadinessReady {
		status = http.StatusOK
	}
	writeJSON(w, status, snap)
}

// ModelStatus handles GET /api/model-status.
func (h *StatusHandler) ModelStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.snapshot())
}

func (h *StatusHandler) snapshot() llm.Readiness {
	if h.readiness == nil {
		return llm.Readiness{State: llm.ReadinessReady, Provider: h.model.Provider, Model: h.model.ID}
	}
	snap := h.readiness.Readiness()
	if snap.Provider == "" {
		snap.Provider = h.model.Provider
	}
	if snap.Model == "" {
		snap.Model = h.model.ID
	}
	return snap
}
