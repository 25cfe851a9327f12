package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketlens/brandscope-backend/internal/logger"
	"github.com/marketlens/brandscope-backend/internal/types"
)

type SuggestionRepo interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, suggestions []*types.CorrectionSuggestion) ([]*types.CorrectionSuggestion, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CorrectionSuggestion, error)
	ListByRunAndState(ctx context.Context, tx *gorm.DB, runID uuid.UUID, state types.SuggestionState) ([]*types.CorrectionSuggestion, error)
	UpdateState(ctx context.Context, tx *gorm.DB, id uuid.UUID, state types.SuggestionState, reviewer string) error
	ExpireOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type suggestionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSuggestionRepo(db *gorm.DB, baseLog *logger.Logger) SuggestionRepo {
	return &suggestionRepo{db: db, log: baseLog.With("repo", "SuggestionRepo")}
}

func (r *suggestionRepo) handle(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *suggestionRepo) CreateBatch(ctx context.Context, tx *gorm.DB, suggestions []*types.CorrectionSuggestion) ([]*types.CorrectionSuggestion, error) {
	if len(suggestions) == 0 {
		return []*types.CorrectionSuggestion{}, nil
	}
	for _, s := range suggestions {
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
	}
	if err := r.handle(tx).WithContext(ctx).Create(&suggestions).Error; err != nil {
		return nil, err
	}
	return suggestions, nil
}

func (r *suggestionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CorrectionSuggestion, error) {
	var out types.CorrectionSuggestion
	if err := r.handle(tx).WithContext(ctx).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *suggestionRepo) ListByRunAndState(ctx context.Context, tx *gorm.DB, runID uuid.UUID, state types.SuggestionState) ([]*types.CorrectionSuggestion, error) {
	var out []*types.CorrectionSuggestion
	if err := r.handle(tx).WithContext(ctx).
		Where("run_id = ? AND state = ?", runID, state).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateState transitions a suggestion. Terminal states are immutable; a
// transition out of one fails instead of silently rewriting history.
func (r *suggestionRepo) UpdateState(ctx context.Context, tx *gorm.DB, id uuid.UUID, state types.SuggestionState, reviewer string) error {
	now := time.Now().UTC()
	updates := map[string]interface{}{"state": state}
	if reviewer != "" {
		updates["reviewer"] = reviewer
	}
	if state.Terminal() {
		updates["resolved_at"] = &now
	}
	terminal := []types.SuggestionState{
		types.SuggestionAutoApplied, types.SuggestionUserApplied,
		types.SuggestionRejected, types.SuggestionExpired,
	}
	res := r.handle(tx).WithContext(ctx).
		Model(&types.CorrectionSuggestion{}).
		Where("id = ? AND state NOT IN ?", id, terminal).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("suggestion %s not found or already resolved", id)
	}
	return nil
}

// ExpireOlderThan moves stale proposed/pending suggestions to expired.
func (r *suggestionRepo) ExpireOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	now := time.Now().UTC()
	res := r.handle(tx).WithContext(ctx).
		Model(&types.CorrectionSuggestion{}).
		Where("state IN ? AND created_at < ?", []types.SuggestionState{types.SuggestionProposed, types.SuggestionPendingReview}, cutoff).
		Updates(map[string]interface{}{"state": types.SuggestionExpired, "resolved_at": &now})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
