package models

// SaveResponse is returned from POST /interactions/ask_user and
// POST /interactions/plan_review.
type SaveResponse struct {
	ID string `json:"id"`
}

// RespondRequest is the payload for POST /interactions/{id}/respond.
type RespondRequest struct {
	Response             string              `json:"response"`
	SelectedOptionLabels map[string][]string `json:"selectedOptionLabels,omitempty"`
}

// ResolveRequest is the payload for POST /interactions/{id}/resolve.
type ResolveRequest struct {
	Status            ReviewStatus `json:"status"`
	RequiredRevisions []Revision   `json:"requiredRevisions,omitempty"`
}

// DeleteManyRequest is the payload for POST /interactions/delete.
type DeleteManyRequest struct {
	IDs []string `json:"ids"`
}

// ListResponse is returned from the interaction list endpoints.
type ListResponse struct {
	Interactions []Interaction `json:"interactions"`
}

// HealthResponse is returned from GET /health.
type HealthResponse struct {
	Status       string `json:"status"`
	Backend      string `json:"backend"`
	Interactions int    `json:"interactions"`
}
