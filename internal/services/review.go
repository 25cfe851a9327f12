package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/marketlens/brandscope-backend/internal/corrections"
	"github.com/marketlens/brandscope-backend/internal/logger"
	"github.com/marketlens/brandscope-backend/internal/repos"
	"github.com/marketlens/brandscope-backend/internal/types"
)

// ReviewService resolves pending suggestions by hand. Apply commits the
// correction to the knowledge store under the reviewer's name; Reject closes
// it without effect. Both are terminal.
type ReviewService struct {
	log         *logger.Logger
	suggestions repos.SuggestionRepo
	writer      corrections.KnowledgeApplier
}

func NewReviewService(baseLog *logger.Logger, suggestions repos.SuggestionRepo, writer corrections.KnowledgeApplier) *ReviewService {
	return &ReviewService{
		log:         baseLog.With("service", "ReviewService"),
		suggestions: suggestions,
		writer:      writer,
	}
}

func (s *ReviewService) ListPending(ctx context.Context, runID uuid.UUID) ([]*types.CorrectionSuggestion, error) {
	return s.suggestions.ListByRunAndState(ctx, nil, runID, types.SuggestionPendingReview)
}

func (s *ReviewService) Apply(ctx context.Context, id uuid.UUID, reviewer string) (*types.CorrectionSuggestion, error) {
	if reviewer == "" {
		return nil, fmt.Errorf("reviewer required")
	}
	suggestion, err := s.suggestions.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if suggestion.State.Terminal() {
		return nil, fmt.Errorf("suggestion %s already resolved as %s", id, suggestion.State)
	}
	// Durable records tag human applies uniformly as "user"; the individual
	// reviewer's name stays on the suggestion.
	if _, err := s.writer.ApplyBatch(ctx, suggestion.VerticalID, []*types.CorrectionSuggestion{suggestion}, types.ReviewerUser); err != nil {
		return nil, fmt.Errorf("apply to knowledge store: %w", err)
	}
	if err := s.suggestions.UpdateState(ctx, nil, id, types.SuggestionUserApplied, reviewer); err != nil {
		return nil, err
	}
	suggestion.State = types.SuggestionUserApplied
	suggestion.Reviewer = reviewer
	s.log.Info("Suggestion applied by reviewer", "suggestion_id", id, "reviewer", reviewer)
	return suggestion, nil
}

func (s *ReviewService) Reject(ctx context.Context, id uuid.UUID, reviewer string) (*types.CorrectionSuggestion, error) {
	if reviewer == "" {
		return nil, fmt.Errorf("reviewer required")
	}
	suggestion, err := s.suggestions.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if suggestion.State.Terminal() {
		return nil, fmt.Errorf("suggestion %s already resolved as %s", id, suggestion.State)
	}
	if err := s.suggestions.UpdateState(ctx, nil, id, types.SuggestionRejected, reviewer); err != nil {
		return nil, err
	}
	suggestion.State = types.SuggestionRejected
	suggestion.Reviewer = reviewer
	s.log.Info("Suggestion rejected by reviewer", "suggestion_id", id, "reviewer", reviewer)
	return suggestion, nil
}
