package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketlens/brandscope-backend/internal/logger"
	"github.com/marketlens/brandscope-backend/internal/types"
)

type CanonicalEntityRepo interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, entities []*types.CanonicalEntity) ([]*types.CanonicalEntity, error)
	ListByRun(ctx context.Context, tx *gorm.DB, runID uuid.UUID, acceptedOnly bool) ([]*types.CanonicalEntity, error)
	DeleteByRun(ctx context.Context, tx *gorm.DB, runID uuid.UUID) error
}

type canonicalEntityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCanonicalEntityRepo(db *gorm.DB, baseLog *logger.Logger) CanonicalEntityRepo {
	return &canonicalEntityRepo{db: db, log: baseLog.With("repo", "CanonicalEntityRepo")}
}

func (r *canonicalEntityRepo) handle(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *canonicalEntityRepo) CreateBatch(ctx context.Context, tx *gorm.DB, entities []*types.CanonicalEntity) ([]*types.CanonicalEntity, error) {
	if len(entities) == 0 {
		return []*types.CanonicalEntity{}, nil
	}
	for _, e := range entities {
		if e.ID == uuid.Nil {
			e.ID = uuid.New()
		}
	}
	if err := r.handle(tx).WithContext(ctx).Create(&entities).Error; err != nil {
		return nil, err
	}
	return entities, nil
}

func (r *canonicalEntityRepo) ListByRun(ctx context.Context, tx *gorm.DB, runID uuid.UUID, acceptedOnly bool) ([]*types.CanonicalEntity, error) {
	q := r.handle(tx).WithContext(ctx).Where("run_id = ?", runID)
	if acceptedOnly {
		q = q.Where("relevance_accepted = ?", true)
	}
	var out []*types.CanonicalEntity
	if err := q.Order("canonical_label ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteByRun clears a previous pass's result set so a re-run stays
// idempotent instead of accumulating duplicates.
func (r *canonicalEntityRepo) DeleteByRun(ctx context.Context, tx *gorm.DB, runID uuid.UUID) error {
	return r.handle(tx).WithContext(ctx).
		Where("run_id = ?", runID).
		Delete(&types.CanonicalEntity{}).Error
}
