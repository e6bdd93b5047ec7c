package api

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/parley-dev/parley/internal/attachments"
	"github.com/parley-dev/parley/internal/interactions"
	"github.com/parley-dev/parley/internal/metrics"
	"github.com/parley-dev/parley/internal/models"
)

// InteractionHandler serves the ask_user and plan_review request handlers
// plus the history panel endpoints. The store is single-caller by contract,
// so the handler serializes access with one mutex.
type InteractionHandler struct {
	mu    sync.Mutex
	store *interactions.Store
}

func NewInteractionHandler(store *interactions.Store) *InteractionHandler {
	return &InteractionHandler{store: store}
}

// SaveAskUser handles POST /interactions/ask_user
func (h *InteractionHandler) SaveAskUser(w http.ResponseWriter, r *http.Request) {
	var params models.AskUserParams
	if err := decodeJSON(r, &params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if params.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	// Fill in MIME types the caller left blank.
	for i := range params.Attachments {
		if params.Attachments[i].MimeType == "" {
			params.Attachments[i].MimeType = attachments.DetectMime(params.Attachments[i].Name)
		}
	}

	h.mu.Lock()
	id, err := h.store.SaveAskUser(params)
	h.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	metrics.InteractionsSaved.WithLabelValues(string(models.TypeAskUser)).Inc()
	writeJSON(w, http.StatusCreated, models.SaveResponse{ID: id})
}

// SavePlanReview handles POST /interactions/plan_review
func (h *InteractionHandler) SavePlanReview(w http.ResponseWriter, r *http.Request) {
	var params models.PlanReviewParams
	if err := decodeJSON(r, &params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if params.Plan == "" {
		writeError(w, http.StatusBadRequest, "plan is required")
		return
	}
	if params.Mode != "" && !params.Mode.IsValid() {
		writeError(w, http.StatusBadRequest, "invalid mode")
		return
	}
	if params.Status != "" && !params.Status.IsValid() {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	h.mu.Lock()
	id, err := h.store.SavePlanReview(params)
	h.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	metrics.InteractionsSaved.WithLabelValues(string(models.TypePlanReview)).Inc()
	writeJSON(w, http.StatusCreated, models.SaveResponse{ID: id})
}

// Get handles GET /interactions/{id}
func (h *InteractionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	h.mu.Lock()
	rec := h.store.Get(id)
	h.mu.Unlock()

	if rec == nil {
		writeError(w, http.StatusNotFound, "interaction not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// List handles GET /interactions with an optional ?type= filter.
func (h *InteractionHandler) List(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if t := r.URL.Query().Get("type"); t != "" {
		typ := models.InteractionType(t)
		if !typ.IsValid() {
			writeError(w, http.StatusBadRequest, "invalid type")
			return
		}
		writeJSON(w, http.StatusOK, models.ListResponse{Interactions: h.store.ByType(typ)})
		return
	}
	writeJSON(w, http.StatusOK, models.ListResponse{Interactions: h.store.All()})
}

// ListPending handles GET /interactions/pending
func (h *InteractionHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	recs := h.store.PendingPlanReviews()
	h.mu.Unlock()
	writeJSON(w, http.StatusOK, models.ListResponse{Interactions: recs})
}

// ListCompleted handles GET /interactions/completed
func (h *InteractionHandler) ListCompleted(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	recs := h.store.Completed()
	h.mu.Unlock()
	writeJSON(w, http.StatusOK, models.ListResponse{Interactions: recs})
}

// Stats handles GET /interactions/stats
func (h *InteractionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	st := h.store.Stats()
	h.mu.Unlock()
	writeJSON(w, http.StatusOK, st)
}

// Update handles PATCH /interactions/{id}
func (h *InteractionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var fields models.UpdateFields
	if err := decodeJSON(r, &fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	h.mu.Lock()
	err := h.store.Update(id, fields)
	rec := h.store.Get(id)
	h.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if rec == nil {
		// Unknown id is a store-level no-op; the HTTP surface reports it.
		writeError(w, http.StatusNotFound, "interaction not found")
		return
	}

	metrics.InteractionsUpdated.Inc()
	writeJSON(w, http.StatusOK, rec)
}

// Respond handles POST /interactions/{id}/respond — attaches the human's
// answer to an ask_user record.
func (h *InteractionHandler) Respond(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req models.RespondRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	rec := h.store.Get(id)
	if rec == nil {
		writeError(w, http.StatusNotFound, "interaction not found")
		return
	}
	if rec.Type != models.TypeAskUser {
		writeError(w, http.StatusBadRequest, "interaction is not an ask_user")
		return
	}

	fields := models.UpdateFields{Response: &req.Response}
	if req.SelectedOptionLabels != nil {
		fields.SelectedOptionLabels = req.SelectedOptionLabels
	}
	if err := h.store.Update(id, fields); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	metrics.InteractionsUpdated.Inc()
	writeJSON(w, http.StatusOK, h.store.Get(id))
}

// Resolve handles POST /interactions/{id}/resolve — applies the human's
// decision to a pending plan review. Late or duplicate resolutions are
// rejected against the record's pending state, not just its existence.
func (h *InteractionHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req models.ResolveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if !req.Status.IsValid() || req.Status == models.StatusPending {
		writeError(w, http.StatusBadRequest, "status must be approved, recreateWithChanges, or cancelled")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.store.Get(id) == nil {
		writeError(w, http.StatusNotFound, "interaction not found")
		return
	}
	if h.store.GetPending(id) == nil {
		metrics.ResolutionConflicts.Inc()
		writeError(w, http.StatusConflict, "interaction is not pending")
		return
	}

	fields := models.UpdateFields{Status: &req.Status}
	if req.RequiredRevisions != nil {
		fields.RequiredRevisions = req.RequiredRevisions
	}
	if err := h.store.Update(id, fields); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	metrics.InteractionsUpdated.Inc()
	writeJSON(w, http.StatusOK, h.store.Get(id))
}

// Delete handles DELETE /interactions/{id}
func (h *InteractionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	h.mu.Lock()
	existed := h.store.Get(id) != nil
	err := h.store.Delete(id)
	h.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if existed {
		metrics.InteractionsDeleted.Inc()
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteMany handles POST /interactions/delete
func (h *InteractionHandler) DeleteMany(w http.ResponseWriter, r *http.Request) {
	var req models.DeleteManyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	h.mu.Lock()
	before := h.store.Stats().Interactions
	err := h.store.DeleteMany(req.IDs)
	after := h.store.Stats().Interactions
	h.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	metrics.InteractionsDeleted.Add(float64(before - after))
	w.WriteHeader(http.StatusNoContent)
}

// ClearAll handles DELETE /interactions — removes everything except pending
// plan reviews.
func (h *InteractionHandler) ClearAll(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	before := h.store.Stats().Interactions
	err := h.store.ClearAll()
	after := h.store.Stats().Interactions
	h.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	metrics.InteractionsDeleted.Add(float64(before - after))
	w.WriteHeader(http.StatusNoContent)
}
