// Package interactions owns the persisted collection of human-in-the-loop
// interaction records: ask_user confirmations and plan_review submissions.
//
// The store materializes the whole collection in memory and writes it back
// through its key-value context as one unit on every mutation. Collections
// run to hundreds or low thousands of records, with one caller process.
package interactions

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/parley-dev/parley/internal/models"
	"github.com/parley-dev/parley/internal/storage"
)

// collectionKey is the single key the store owns in its context.
const collectionKey = "interactions"

// ID prefixes per record variant.
const (
	askPrefix    = "ask"
	reviewPrefix = "review"
)

// Store is the interaction repository. It is not safe for concurrent use;
// callers serialize access (the HTTP layer holds one lock around it).
type Store struct {
	kv    storage.Context
	items []models.Interaction // insertion order, authoritative
	now   func() time.Time
}

// NewStore binds a store to its persisted key-value context and loads the
// existing collection.
func NewStore(kv storage.Context) (*Store, error) {
	s := &Store{kv: kv, now: time.Now}

	raw, err := kv.Get(collectionKey)
	if err != nil {
		return nil, fmt.Errorf("load interactions: %w", err)
	}
	if raw != nil {
		if err := json.Unmarshal(raw, &s.items); err != nil {
			return nil, fmt.Errorf("decode interactions: %w", err)
		}
	}
	return s, nil
}

// persist writes the full collection back before the mutating call returns.
func (s *Store) persist() error {
	raw, err := json.Marshal(s.items)
	if err != nil {
		return fmt.Errorf("encode interactions: %w", err)
	}
	if err := s.kv.Set(collectionKey, raw); err != nil {
		return fmt.Errorf("persist interactions: %w", err)
	}
	return nil
}

// newID builds <prefix>_<millis>_<random>. The random suffix makes two
// records created in the same millisecond distinct.
func newID(prefix string, millis int64) string {
	suffix := uuid.NewString()[:8]
	return fmt.Sprintf("%s_%d_%s", prefix, millis, suffix)
}

// SaveAskUser appends a new ask_user record and returns its ID. Only the
// question is mandatory; optional fields are stored as given.
func (s *Store) SaveAskUser(p models.AskUserParams) (string, error) {
	ts := s.now().UnixMilli()
	rec := models.Interaction{
		ID:                   newID(askPrefix, ts),
		Type:                 models.TypeAskUser,
		Timestamp:            ts,
		Title:                p.Title,
		Question:             p.Question,
		AgentName:            p.AgentName,
		Response:             p.Response,
		Attachments:          p.Attachments,
		Options:              p.Options,
		SelectedOptionLabels: p.SelectedOptionLabels,
		IsDebug:              p.IsDebug,
	}
	s.items = append(s.items, rec)
	if err := s.persist(); err != nil {
		return "", err
	}
	return rec.ID, nil
}

// SavePlanReview appends a new plan_review record and returns its ID. Mode
// defaults to "review" and status to "pending" when omitted; anything else
// is stored as given.
func (s *Store) SavePlanReview(p models.PlanReviewParams) (string, error) {
	mode := p.Mode
	if mode == "" {
		mode = models.ModeReview
	}
	status := p.Status
	if status == "" {
		status = models.StatusPending
	}
	ts := s.now().UnixMilli()
	rec := models.Interaction{
		ID:                newID(reviewPrefix, ts),
		Type:              models.TypePlanReview,
		Timestamp:         ts,
		Title:             p.Title,
		Plan:              p.Plan,
		Mode:              mode,
		Status:            status,
		RequiredRevisions: p.RequiredRevisions,
	}
	s.items = append(s.items, rec)
	if err := s.persist(); err != nil {
		return "", err
	}
	return rec.ID, nil
}

// Get returns the record at id, or nil when absent. Absence is an expected
// outcome, not an error.
func (s *Store) Get(id string) *models.Interaction {
	for i := range s.items {
		if s.items[i].ID == id {
			rec := s.items[i]
			return &rec
		}
	}
	return nil
}

// GetPending returns the record at id only while it is a plan review still
// awaiting resolution. A record in any other state reads as absent, which is
// how resolution handlers reject late or duplicate resolutions.
func (s *Store) GetPending(id string) *models.Interaction {
	rec := s.Get(id)
	if rec == nil || !rec.IsPending() {
		return nil
	}
	return rec
}

// Update merges the given fields into the record at id. Unknown ids are a
// silent no-op and trigger no write.
func (s *Store) Update(id string, f models.UpdateFields) error {
	for i := range s.items {
		if s.items[i].ID != id {
			continue
		}
		merge(&s.items[i], f)
		return s.persist()
	}
	return nil
}

func merge(rec *models.Interaction, f models.UpdateFields) {
	if f.Title != nil {
		rec.Title = *f.Title
	}
	if f.Question != nil {
		rec.Question = *f.Question
	}
	if f.AgentName != nil {
		rec.AgentName = *f.AgentName
	}
	if f.Response != nil {
		rec.Response = f.Response
	}
	if f.Attachments != nil {
		rec.Attachments = f.Attachments
	}
	if f.Options != nil {
		rec.Options = f.Options
	}
	if f.SelectedOptionLabels != nil {
		rec.SelectedOptionLabels = f.SelectedOptionLabels
	}
	if f.IsDebug != nil {
		rec.IsDebug = f.IsDebug
	}
	if f.Plan != nil {
		rec.Plan = *f.Plan
	}
	if f.Mode != nil {
		rec.Mode = *f.Mode
	}
	if f.Status != nil {
		rec.Status = *f.Status
	}
	if f.RequiredRevisions != nil {
		rec.RequiredRevisions = f.RequiredRevisions
	}
}

// Delete removes the record at id; unknown ids are a silent no-op.
func (s *Store) Delete(id string) error {
	return s.DeleteMany([]string{id})
}

// DeleteMany removes every record whose id is in ids. Ids not present are
// ignored; an empty input leaves the collection untouched.
func (s *Store) DeleteMany(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	kept := s.items[:0]
	removed := false
	for _, rec := range s.items {
		if drop[rec.ID] {
			removed = true
			continue
		}
		kept = append(kept, rec)
	}
	s.items = kept
	if !removed {
		return nil
	}
	return s.persist()
}

// ClearAll removes every record except pending plan reviews, preserving
// their relative order.
func (s *Store) ClearAll() error {
	kept := s.items[:0]
	for _, rec := range s.items {
		if rec.IsPending() {
			kept = append(kept, rec)
		}
	}
	s.items = kept
	return s.persist()
}

// All returns every record, newest first. Records sharing a timestamp keep
// their insertion order.
func (s *Store) All() []models.Interaction {
	out := make([]models.Interaction, len(s.items))
	copy(out, s.items)
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Timestamp > out[b].Timestamp
	})
	return out
}

// PendingPlanReviews returns plan reviews awaiting resolution, newest first.
func (s *Store) PendingPlanReviews() []models.Interaction {
	return s.filter(func(rec *models.Interaction) bool {
		return rec.IsPending()
	})
}

// Completed returns every ask_user record plus every resolved plan review,
// newest first.
func (s *Store) Completed() []models.Interaction {
	return s.filter(func(rec *models.Interaction) bool {
		return rec.IsCompleted()
	})
}

// ByType returns every record of the given type, newest first, regardless of
// status.
func (s *Store) ByType(t models.InteractionType) []models.Interaction {
	return s.filter(func(rec *models.Interaction) bool {
		return rec.Type == t
	})
}

func (s *Store) filter(keep func(*models.Interaction) bool) []models.Interaction {
	out := []models.Interaction{}
	for _, rec := range s.All() {
		if keep(&rec) {
			out = append(out, rec)
		}
	}
	return out
}

// Stats counts the collection and its pending plan reviews.
func (s *Store) Stats() models.Stats {
	st := models.Stats{Interactions: len(s.items)}
	for i := range s.items {
		if s.items[i].IsPending() {
			st.PendingReviews++
		}
	}
	return st
}
