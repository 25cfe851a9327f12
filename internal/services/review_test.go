package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketlens/brandscope-backend/internal/logger"
	"github.com/marketlens/brandscope-backend/internal/types"
)

type fakeSuggestionRepo struct {
	byID map[uuid.UUID]*types.CorrectionSuggestion
}

func newFakeSuggestionRepo(suggestions ...*types.CorrectionSuggestion) *fakeSuggestionRepo {
	f := &fakeSuggestionRepo{byID: map[uuid.UUID]*types.CorrectionSuggestion{}}
	for _, s := range suggestions {
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		f.byID[s.ID] = s
	}
	return f
}

func (f *fakeSuggestionRepo) CreateBatch(_ context.Context, _ *gorm.DB, suggestions []*types.CorrectionSuggestion) ([]*types.CorrectionSuggestion, error) {
	for _, s := range suggestions {
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		f.byID[s.ID] = s
	}
	return suggestions, nil
}

func (f *fakeSuggestionRepo) GetByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*types.CorrectionSuggestion, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s
	return &copied, nil
}

func (f *fakeSuggestionRepo) ListByRunAndState(_ context.Context, _ *gorm.DB, runID uuid.UUID, state types.SuggestionState) ([]*types.CorrectionSuggestion, error) {
	var out []*types.CorrectionSuggestion
	for _, s := range f.byID {
		if s.RunID == runID && s.State == state {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSuggestionRepo) UpdateState(_ context.Context, _ *gorm.DB, id uuid.UUID, state types.SuggestionState, reviewer string) error {
	s, ok := f.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if s.State.Terminal() {
		return fmt.Errorf("suggestion %s already resolved", id)
	}
	s.State = state
	if reviewer != "" {
		s.Reviewer = reviewer
	}
	return nil
}

func (f *fakeSuggestionRepo) ExpireOlderThan(context.Context, *gorm.DB, time.Time) (int64, error) {
	return 0, nil
}

type fakeApplier struct {
	applied   int
	reviewers []string
	fail      bool
}

func (f *fakeApplier) ApplyBatch(_ context.Context, _ uuid.UUID, suggestions []*types.CorrectionSuggestion, reviewer string) ([]*types.KnowledgeRecord, error) {
	if f.fail {
		return nil, fmt.Errorf("store unavailable")
	}
	f.applied += len(suggestions)
	f.reviewers = append(f.reviewers, reviewer)
	return nil, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func pendingSuggestion() *types.CorrectionSuggestion {
	return &types.CorrectionSuggestion{
		ID:              uuid.New(),
		RunID:           uuid.New(),
		VerticalID:      uuid.New(),
		TargetRef:       "brand:kleenex",
		Action:          types.ActionReject,
		State:           types.SuggestionPendingReview,
		ConfidenceLevel: types.ConfidenceHigh,
	}
}

func TestApplyCommitsAndTransitions(t *testing.T) {
	s := pendingSuggestion()
	repo := newFakeSuggestionRepo(s)
	applier := &fakeApplier{}
	svc := NewReviewService(testLogger(t), repo, applier)

	resolved, err := svc.Apply(context.Background(), s.ID, "alice")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if resolved.State != types.SuggestionUserApplied || resolved.Reviewer != "alice" {
		t.Fatalf("resolved = %+v", resolved)
	}
	if applier.applied != 1 {
		t.Fatalf("knowledge writes = %d, want 1", applier.applied)
	}
	// The durable record is tagged "user"; the individual's name lives on
	// the suggestion only.
	if len(applier.reviewers) != 1 || applier.reviewers[0] != types.ReviewerUser {
		t.Fatalf("knowledge reviewer = %v, want %q", applier.reviewers, types.ReviewerUser)
	}
	if repo.byID[s.ID].State != types.SuggestionUserApplied {
		t.Fatalf("stored state = %q", repo.byID[s.ID].State)
	}
}

func TestApplyFailedStoreKeepsSuggestionPending(t *testing.T) {
	s := pendingSuggestion()
	repo := newFakeSuggestionRepo(s)
	svc := NewReviewService(testLogger(t), repo, &fakeApplier{fail: true})

	if _, err := svc.Apply(context.Background(), s.ID, "alice"); err == nil {
		t.Fatalf("expected error on store failure")
	}
	if repo.byID[s.ID].State != types.SuggestionPendingReview {
		t.Fatalf("state = %q, want still pending_review", repo.byID[s.ID].State)
	}
}

func TestRejectDoesNotTouchKnowledgeStore(t *testing.T) {
	s := pendingSuggestion()
	repo := newFakeSuggestionRepo(s)
	applier := &fakeApplier{}
	svc := NewReviewService(testLogger(t), repo, applier)

	resolved, err := svc.Reject(context.Background(), s.ID, "alice")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if resolved.State != types.SuggestionRejected {
		t.Fatalf("state = %q, want rejected", resolved.State)
	}
	if applier.applied != 0 {
		t.Fatalf("knowledge writes = %d, want 0", applier.applied)
	}
}

func TestResolvedSuggestionCannotBeReapplied(t *testing.T) {
	s := pendingSuggestion()
	s.State = types.SuggestionUserApplied
	repo := newFakeSuggestionRepo(s)
	svc := NewReviewService(testLogger(t), repo, &fakeApplier{})

	if _, err := svc.Apply(context.Background(), s.ID, "bob"); err == nil {
		t.Fatalf("expected terminal-state error")
	}
	if _, err := svc.Reject(context.Background(), s.ID, "bob"); err == nil {
		t.Fatalf("expected terminal-state error")
	}
}

func TestReviewerRequired(t *testing.T) {
	s := pendingSuggestion()
	svc := NewReviewService(testLogger(t), newFakeSuggestionRepo(s), &fakeApplier{})
	if _, err := svc.Apply(context.Background(), s.ID, ""); err == nil {
		t.Fatalf("expected reviewer-required error")
	}
}
