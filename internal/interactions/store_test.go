package interactions

import (
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/parley-dev/parley/internal/models"
	"github.com/parley-dev/parley/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	kv, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test kv: %v", err)
	}
	t.Cleanup(func() { kv.Close() })

	s, err := NewStore(kv)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return s
}

// fakeClock hands the store strictly increasing millisecond timestamps.
func fakeClock(startMillis int64) func() time.Time {
	ms := startMillis
	return func() time.Time {
		ms++
		return time.UnixMilli(ms)
	}
}

func strPtr(s string) *string { return &s }

func TestSaveAskUser(t *testing.T) {
	s := newTestStore(t)

	t.Run("returns ask-prefixed id and stores all fields", func(t *testing.T) {
		debug := true
		before := time.Now().UnixMilli()
		id, err := s.SaveAskUser(models.AskUserParams{
			Question:  "Deploy to staging?",
			Title:     "Deployment",
			AgentName: "builder",
			Attachments: []models.Attachment{
				{ID: "a1", Name: "diff.patch", URI: "file:///tmp/diff.patch"},
			},
			Options:              []string{"Yes", "No"},
			SelectedOptionLabels: map[string][]string{"choice": {"Yes"}},
			IsDebug:              &debug,
		})
		after := time.Now().UnixMilli()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasPrefix(id, "ask_") {
			t.Fatalf("expected ask_ prefix, got %q", id)
		}

		rec := s.Get(id)
		if rec == nil {
			t.Fatal("expected record, got nil")
		}
		if rec.Type != models.TypeAskUser {
			t.Fatalf("expected type ask_user, got %q", rec.Type)
		}
		if rec.Question != "Deploy to staging?" || rec.Title != "Deployment" || rec.AgentName != "builder" {
			t.Fatalf("fields not stored as given: %+v", rec)
		}
		if len(rec.Attachments) != 1 || rec.Attachments[0].Name != "diff.patch" {
			t.Fatalf("attachments not stored: %+v", rec.Attachments)
		}
		if len(rec.Options) != 2 || rec.SelectedOptionLabels["choice"][0] != "Yes" {
			t.Fatalf("options not stored: %+v", rec)
		}
		if rec.IsDebug == nil || !*rec.IsDebug {
			t.Fatal("isDebug not stored")
		}
		if rec.Response != nil {
			t.Fatal("response should be absent until answered")
		}
		if rec.Timestamp < before || rec.Timestamp > after {
			t.Fatalf("timestamp %d outside [%d, %d]", rec.Timestamp, before, after)
		}
	})

	t.Run("id timestamp component brackets the call", func(t *testing.T) {
		before := time.Now().UnixMilli()
		id, err := s.SaveAskUser(models.AskUserParams{Question: "q"})
		after := time.Now().UnixMilli()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		parts := strings.Split(id, "_")
		if len(parts) != 3 {
			t.Fatalf("expected <prefix>_<millis>_<random>, got %q", id)
		}
		ts, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			t.Fatalf("id timestamp not numeric: %v", err)
		}
		if ts < before || ts > after {
			t.Fatalf("id timestamp %d outside [%d, %d]", ts, before, after)
		}
		if parts[2] == "" {
			t.Fatal("expected non-empty random suffix")
		}
	})

	t.Run("ids are unique within the same millisecond", func(t *testing.T) {
		s := newTestStore(t)
		s.now = func() time.Time { return time.UnixMilli(42) }

		seen := map[string]bool{}
		for i := 0; i < 200; i++ {
			id, err := s.SaveAskUser(models.AskUserParams{Question: "q"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if seen[id] {
				t.Fatalf("duplicate id %q", id)
			}
			seen[id] = true
		}
	})
}

func TestSavePlanReview(t *testing.T) {
	s := newTestStore(t)

	t.Run("defaults mode and status", func(t *testing.T) {
		id, err := s.SavePlanReview(models.PlanReviewParams{Plan: "x"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasPrefix(id, "review_") {
			t.Fatalf("expected review_ prefix, got %q", id)
		}

		rec := s.Get(id)
		if rec == nil {
			t.Fatal("expected record, got nil")
		}
		if rec.Mode != models.ModeReview {
			t.Fatalf("expected default mode review, got %q", rec.Mode)
		}
		if rec.Status != models.StatusPending {
			t.Fatalf("expected default status pending, got %q", rec.Status)
		}
	})

	t.Run("stores explicit mode and status as given", func(t *testing.T) {
		id, err := s.SavePlanReview(models.PlanReviewParams{
			Plan:   "## plan",
			Title:  "Refactor",
			Mode:   models.ModeWalkthrough,
			Status: models.StatusApproved,
			RequiredRevisions: []models.Revision{
				{RevisedPart: "step 2", RevisorInstructions: "use the existing helper"},
			},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		rec := s.Get(id)
		if rec.Mode != models.ModeWalkthrough || rec.Status != models.StatusApproved {
			t.Fatalf("mode/status not stored as given: %+v", rec)
		}
		if len(rec.RequiredRevisions) != 1 || rec.RequiredRevisions[0].RevisedPart != "step 2" {
			t.Fatalf("requiredRevisions not stored: %+v", rec.RequiredRevisions)
		}
	})
}

func TestGet(t *testing.T) {
	s := newTestStore(t)

	if rec := s.Get("ask_1_missing"); rec != nil {
		t.Fatalf("expected nil for unknown id, got %+v", rec)
	}

	id, _ := s.SaveAskUser(models.AskUserParams{Question: "q"})
	if rec := s.Get(id); rec == nil || rec.ID != id {
		t.Fatalf("expected record %q back, got %+v", id, rec)
	}
}

func TestGetPending(t *testing.T) {
	s := newTestStore(t)

	pendingID, _ := s.SavePlanReview(models.PlanReviewParams{Plan: "p"})
	approvedID, _ := s.SavePlanReview(models.PlanReviewParams{Plan: "p", Status: models.StatusApproved})
	askID, _ := s.SaveAskUser(models.AskUserParams{Question: "q"})

	if rec := s.GetPending(pendingID); rec == nil || rec.ID != pendingID {
		t.Fatalf("expected pending review back, got %+v", rec)
	}
	if rec := s.GetPending(approvedID); rec != nil {
		t.Fatalf("approved review must read as absent, got %+v", rec)
	}
	if rec := s.GetPending(askID); rec != nil {
		t.Fatalf("ask_user must read as absent, got %+v", rec)
	}
	if rec := s.GetPending("review_0_nope"); rec != nil {
		t.Fatalf("unknown id must read as absent, got %+v", rec)
	}
}

func TestUpdate(t *testing.T) {
	s := newTestStore(t)

	reviewID, _ := s.SavePlanReview(models.PlanReviewParams{Plan: "p", Title: "t"})
	askID, _ := s.SaveAskUser(models.AskUserParams{Question: "q"})

	t.Run("merges only the given fields", func(t *testing.T) {
		status := models.StatusApproved
		if err := s.Update(reviewID, models.UpdateFields{Status: &status}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		rec := s.Get(reviewID)
		if rec.Status != models.StatusApproved {
			t.Fatalf("expected approved, got %q", rec.Status)
		}
		if rec.Plan != "p" || rec.Title != "t" || rec.Mode != models.ModeReview {
			t.Fatalf("untargeted fields changed: %+v", rec)
		}

		other := s.Get(askID)
		if other.Question != "q" || other.Response != nil {
			t.Fatalf("other record affected: %+v", other)
		}
	})

	t.Run("attaches a response to an ask_user", func(t *testing.T) {
		if err := s.Update(askID, models.UpdateFields{Response: strPtr("ship it")}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		rec := s.Get(askID)
		if rec.Response == nil || *rec.Response != "ship it" {
			t.Fatalf("response not attached: %+v", rec)
		}
	})

	t.Run("unknown id is a silent no-op", func(t *testing.T) {
		before := s.All()
		if err := s.Update("ask_0_nope", models.UpdateFields{Response: strPtr("x")}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		after := s.All()
		if len(before) != len(after) {
			t.Fatalf("collection changed: %d -> %d", len(before), len(after))
		}
	})

	t.Run("never changes the id", func(t *testing.T) {
		if err := s.Update(reviewID, models.UpdateFields{Plan: strPtr("new plan")}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec := s.Get(reviewID); rec == nil || rec.ID != reviewID {
			t.Fatalf("id changed or record lost: %+v", rec)
		}
	})
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)

	id1, _ := s.SaveAskUser(models.AskUserParams{Question: "one"})
	id2, _ := s.SaveAskUser(models.AskUserParams{Question: "two"})

	if err := s.Delete(id1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Get(id1) != nil {
		t.Fatal("deleted record still present")
	}
	if s.Get(id2) == nil {
		t.Fatal("other record removed")
	}

	// Unknown id is tolerated.
	if err := s.Delete("ask_0_nope"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDeleteMany(t *testing.T) {
	s := newTestStore(t)

	id1, _ := s.SaveAskUser(models.AskUserParams{Question: "one"})
	id2, _ := s.SaveAskUser(models.AskUserParams{Question: "two"})
	id3, _ := s.SaveAskUser(models.AskUserParams{Question: "three"})

	t.Run("empty input is a no-op", func(t *testing.T) {
		if err := s.DeleteMany(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := s.Stats().Interactions; got != 3 {
			t.Fatalf("expected 3 records, got %d", got)
		}
	})

	t.Run("removes exactly the given ids", func(t *testing.T) {
		if err := s.DeleteMany([]string{id1, id3, "ask_0_nope"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.Get(id1) != nil || s.Get(id3) != nil {
			t.Fatal("targeted records survived")
		}
		if s.Get(id2) == nil {
			t.Fatal("untargeted record removed")
		}
	})
}

func TestClearAll(t *testing.T) {
	s := newTestStore(t)

	answered, _ := s.SaveAskUser(models.AskUserParams{Question: "q", Response: strPtr("a")})
	pending, _ := s.SavePlanReview(models.PlanReviewParams{Plan: "p"})
	approved, _ := s.SavePlanReview(models.PlanReviewParams{Plan: "p", Status: models.StatusApproved})

	if err := s.ClearAll(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.Get(answered) != nil || s.Get(approved) != nil {
		t.Fatal("non-pending records survived clear")
	}
	rec := s.Get(pending)
	if rec == nil || !rec.IsPending() {
		t.Fatalf("pending review did not survive clear: %+v", rec)
	}
	if got := s.Stats().Interactions; got != 1 {
		t.Fatalf("expected exactly 1 survivor, got %d", got)
	}
}

func TestAllOrdering(t *testing.T) {
	t.Run("newest first", func(t *testing.T) {
		s := newTestStore(t)
		s.now = fakeClock(1_700_000_000_000)

		id1, _ := s.SaveAskUser(models.AskUserParams{Question: "first"})
		id2, _ := s.SavePlanReview(models.PlanReviewParams{Plan: "second"})
		id3, _ := s.SaveAskUser(models.AskUserParams{Question: "third"})

		all := s.All()
		if len(all) != 3 {
			t.Fatalf("expected 3 records, got %d", len(all))
		}
		if all[0].ID != id3 || all[1].ID != id2 || all[2].ID != id1 {
			t.Fatalf("expected reverse save order, got %v %v %v", all[0].ID, all[1].ID, all[2].ID)
		}
	})

	t.Run("timestamp ties keep insertion order", func(t *testing.T) {
		s := newTestStore(t)
		s.now = func() time.Time { return time.UnixMilli(99) }

		a, _ := s.SaveAskUser(models.AskUserParams{Question: "a"})
		b, _ := s.SaveAskUser(models.AskUserParams{Question: "b"})

		all := s.All()
		if all[0].ID != a || all[1].ID != b {
			t.Fatalf("tied records reordered: %v %v", all[0].ID, all[1].ID)
		}
	})
}

func TestFilters(t *testing.T) {
	s := newTestStore(t)
	s.now = fakeClock(1_700_000_000_000)

	ask, _ := s.SaveAskUser(models.AskUserParams{Question: "q", Response: strPtr("a")})
	pending1, _ := s.SavePlanReview(models.PlanReviewParams{Plan: "p1"})
	pending2, _ := s.SavePlanReview(models.PlanReviewParams{Plan: "p2"})
	approved, _ := s.SavePlanReview(models.PlanReviewParams{Plan: "p3", Status: models.StatusApproved})

	t.Run("PendingPlanReviews", func(t *testing.T) {
		got := s.PendingPlanReviews()
		if len(got) != 2 {
			t.Fatalf("expected 2 pending, got %d", len(got))
		}
		if got[0].ID != pending2 || got[1].ID != pending1 {
			t.Fatalf("wrong pending set/order: %v %v", got[0].ID, got[1].ID)
		}
	})

	t.Run("Completed", func(t *testing.T) {
		got := s.Completed()
		if len(got) != 2 {
			t.Fatalf("expected 2 completed, got %d", len(got))
		}
		if got[0].ID != approved || got[1].ID != ask {
			t.Fatalf("wrong completed set/order: %v %v", got[0].ID, got[1].ID)
		}
	})

	t.Run("ByType ignores status", func(t *testing.T) {
		reviews := s.ByType(models.TypePlanReview)
		if len(reviews) != 3 {
			t.Fatalf("expected 3 plan reviews, got %d", len(reviews))
		}
		asks := s.ByType(models.TypeAskUser)
		if len(asks) != 1 || asks[0].ID != ask {
			t.Fatalf("expected 1 ask_user, got %+v", asks)
		}
	})
}

func TestStats(t *testing.T) {
	s := newTestStore(t)

	st := s.Stats()
	if st.Interactions != 0 || st.PendingReviews != 0 {
		t.Fatalf("expected zeros on empty store, got %+v", st)
	}

	s.SaveAskUser(models.AskUserParams{Question: "q"})
	s.SavePlanReview(models.PlanReviewParams{Plan: "p"})
	s.SavePlanReview(models.PlanReviewParams{Plan: "p", Status: models.StatusApproved})

	st = s.Stats()
	if st.Interactions != 3 {
		t.Fatalf("expected 3 interactions, got %d", st.Interactions)
	}
	if st.PendingReviews != 1 {
		t.Fatalf("expected 1 pending review, got %d", st.PendingReviews)
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	open := func() (*Store, storage.Context) {
		t.Helper()
		kv, err := storage.OpenSQLite(path)
		if err != nil {
			t.Fatalf("open kv: %v", err)
		}
		s, err := NewStore(kv)
		if err != nil {
			t.Fatalf("create store: %v", err)
		}
		return s, kv
	}

	s1, kv1 := open()
	askID, _ := s1.SaveAskUser(models.AskUserParams{Question: "q"})
	reviewID, _ := s1.SavePlanReview(models.PlanReviewParams{Plan: "p"})
	status := models.StatusCancelled
	if err := s1.Update(reviewID, models.UpdateFields{Status: &status}); err != nil {
		t.Fatalf("update: %v", err)
	}
	kv1.Close()

	s2, kv2 := open()
	defer kv2.Close()

	if rec := s2.Get(askID); rec == nil || rec.Question != "q" {
		t.Fatalf("ask_user did not survive restart: %+v", rec)
	}
	rec := s2.Get(reviewID)
	if rec == nil || rec.Status != models.StatusCancelled {
		t.Fatalf("post-mutation state not durable: %+v", rec)
	}
}

// failingContext simulates a broken persistence layer.
type failingContext struct{}

func (failingContext) Get(string) ([]byte, error) { return nil, nil }
func (failingContext) Set(string, []byte) error   { return errors.New("disk unavailable") }
func (failingContext) Close() error               { return nil }

func TestPersistenceFailurePropagates(t *testing.T) {
	s, err := NewStore(failingContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := s.SaveAskUser(models.AskUserParams{Question: "q"}); err == nil {
		t.Fatal("expected persistence failure to propagate")
	}
}
