package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketlens/brandscope-backend/internal/logger"
	"github.com/marketlens/brandscope-backend/internal/types"
)

type CandidateRepo interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, candidates []*types.Candidate) ([]*types.Candidate, error)
	ListByRun(ctx context.Context, tx *gorm.DB, runID uuid.UUID) ([]*types.Candidate, error)
	CountByRun(ctx context.Context, tx *gorm.DB, runID uuid.UUID) (int64, error)
}

type candidateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCandidateRepo(db *gorm.DB, baseLog *logger.Logger) CandidateRepo {
	return &candidateRepo{db: db, log: baseLog.With("repo", "CandidateRepo")}
}

func (r *candidateRepo) handle(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *candidateRepo) CreateBatch(ctx context.Context, tx *gorm.DB, candidates []*types.Candidate) ([]*types.Candidate, error) {
	if len(candidates) == 0 {
		return []*types.Candidate{}, nil
	}
	for _, c := range candidates {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
	}
	if err := r.handle(tx).WithContext(ctx).Create(&candidates).Error; err != nil {
		return nil, err
	}
	return candidates, nil
}

func (r *candidateRepo) ListByRun(ctx context.Context, tx *gorm.DB, runID uuid.UUID) ([]*types.Candidate, error) {
	var out []*types.Candidate
	if err := r.handle(tx).WithContext(ctx).
		Where("run_id = ?", runID).
		Order("created_at ASC, rank ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *candidateRepo) CountByRun(ctx context.Context, tx *gorm.DB, runID uuid.UUID) (int64, error) {
	var n int64
	if err := r.handle(tx).WithContext(ctx).
		Model(&types.Candidate{}).
		Where("run_id = ?", runID).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
