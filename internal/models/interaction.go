package models

// InteractionType discriminates the two record variants sharing the
// interaction envelope.
type InteractionType string

const (
	TypeAskUser    InteractionType = "ask_user"
	TypePlanReview InteractionType = "plan_review"
)

func (t InteractionType) IsValid() bool {
	return t == TypeAskUser || t == TypePlanReview
}

// ReviewMode controls how a plan review is presented to the human.
type ReviewMode string

const (
	ModeReview      ReviewMode = "review"
	ModeSummary     ReviewMode = "summary"
	ModeProgress    ReviewMode = "progress"
	ModeWalkthrough ReviewMode = "walkthrough"
	ModeDisplay     ReviewMode = "display"
)

var validReviewModes = map[ReviewMode]bool{
	ModeReview:      true,
	ModeSummary:     true,
	ModeProgress:    true,
	ModeWalkthrough: true,
	ModeDisplay:     true,
}

func (m ReviewMode) IsValid() bool {
	return validReviewModes[m]
}

// ReviewStatus is the resolution state of a plan review. Only plan_review
// records carry a status; ask_user records are completed the moment they
// exist.
type ReviewStatus string

const (
	StatusPending             ReviewStatus = "pending"
	StatusApproved            ReviewStatus = "approved"
	StatusRecreateWithChanges ReviewStatus = "recreateWithChanges"
	StatusCancelled           ReviewStatus = "cancelled"
)

var validReviewStatuses = map[ReviewStatus]bool{
	StatusPending:             true,
	StatusApproved:            true,
	StatusRecreateWithChanges: true,
	StatusCancelled:           true,
}

func (s ReviewStatus) IsValid() bool {
	return validReviewStatuses[s]
}

// Attachment is a file or resource attached to an ask_user question.
// MimeType is filled in at the HTTP edge by extension lookup; it is not part
// of the caller-supplied payload contract.
type Attachment struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
}

// Revision is one requested change on a plan under review.
type Revision struct {
	RevisedPart         string `json:"revisedPart"`
	RevisorInstructions string `json:"revisorInstructions"`
}

// Interaction is one persisted record of a human-in-the-loop exchange.
//
// The two variants share the id/type/timestamp envelope; variant fields are
// omitempty so each record serializes only its own body. Type-agnostic
// operations must touch envelope fields only.
type Interaction struct {
	ID        string          `json:"id"`
	Type      InteractionType `json:"type"`
	Timestamp int64           `json:"timestamp"` // epoch milliseconds

	// Shared by both variants.
	Title string `json:"title,omitempty"`

	// ask_user body.
	Question             string              `json:"question,omitempty"`
	AgentName            string              `json:"agentName,omitempty"`
	Response             *string             `json:"response,omitempty"`
	Attachments          []Attachment        `json:"attachments,omitempty"`
	Options              []string            `json:"options,omitempty"`
	SelectedOptionLabels map[string][]string `json:"selectedOptionLabels,omitempty"`
	IsDebug              *bool               `json:"isDebug,omitempty"`

	// plan_review body.
	Plan              string       `json:"plan,omitempty"`
	Mode              ReviewMode   `json:"mode,omitempty"`
	Status            ReviewStatus `json:"status,omitempty"`
	RequiredRevisions []Revision   `json:"requiredRevisions,omitempty"`
}

// IsPending reports whether the record is a plan review still awaiting human
// resolution. This is the only state that survives a bulk clear.
func (i *Interaction) IsPending() bool {
	return i.Type == TypePlanReview && i.Status == StatusPending
}

// IsCompleted is the structural complement of IsPending: every ask_user
// record (answered or not) and every resolved plan review.
func (i *Interaction) IsCompleted() bool {
	return !i.IsPending()
}

// AskUserParams are the caller-supplied fields for a new ask_user record.
// Only Question is mandatory; the store persists optional fields as given.
type AskUserParams struct {
	Question             string              `json:"question"`
	Title                string              `json:"title,omitempty"`
	AgentName            string              `json:"agentName,omitempty"`
	Response             *string             `json:"response,omitempty"`
	Attachments          []Attachment        `json:"attachments,omitempty"`
	Options              []string            `json:"options,omitempty"`
	SelectedOptionLabels map[string][]string `json:"selectedOptionLabels,omitempty"`
	IsDebug              *bool               `json:"isDebug,omitempty"`
}

// PlanReviewParams are the caller-supplied fields for a new plan_review
// record. Only Plan is mandatory; Mode defaults to "review" and Status to
// "pending" when omitted.
type PlanReviewParams struct {
	Plan              string       `json:"plan"`
	Title             string       `json:"title,omitempty"`
	Mode              ReviewMode   `json:"mode,omitempty"`
	Status            ReviewStatus `json:"status,omitempty"`
	RequiredRevisions []Revision   `json:"requiredRevisions,omitempty"`
}

// UpdateFields is a partial record for in-place merges. Nil means "leave the
// field unchanged"; a non-nil pointer or non-nil slice/map overwrites.
type UpdateFields struct {
	Title                *string             `json:"title,omitempty"`
	Question             *string             `json:"question,omitempty"`
	AgentName            *string             `json:"agentName,omitempty"`
	Response             *string             `json:"response,omitempty"`
	Attachments          []Attachment        `json:"attachments,omitempty"`
	Options              []string            `json:"options,omitempty"`
	SelectedOptionLabels map[string][]string `json:"selectedOptionLabels,omitempty"`
	IsDebug              *bool               `json:"isDebug,omitempty"`
	Plan                 *string             `json:"plan,omitempty"`
	Mode                 *ReviewMode         `json:"mode,omitempty"`
	Status               *ReviewStatus       `json:"status,omitempty"`
	RequiredRevisions    []Revision          `json:"requiredRevisions,omitempty"`
}

// Stats summarizes the collection for the UI panel header.
type Stats struct {
	Interactions   int `json:"interactions"`
	PendingReviews int `json:"pendingReviews"`
}
