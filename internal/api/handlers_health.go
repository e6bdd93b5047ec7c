package api

import (
	"net/http"

	"github.com/parley-dev/parley/internal/models"
)

type HealthHandler struct {
	interactions *InteractionHandler
	backend      string
}

func NewHealthHandler(interactions *InteractionHandler, backend string) *HealthHandler {
	return &HealthHandler{interactions: interactions, backend: backend}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.interactions.mu.Lock()
	st := h.interactions.store.Stats()
	h.interactions.mu.Unlock()

	writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:       "ok",
		Backend:      h.backend,
		Interactions: st.Interactions,
	})
}
