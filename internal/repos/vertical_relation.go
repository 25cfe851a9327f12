package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketlens/brandscope-backend/internal/logger"
	"github.com/marketlens/brandscope-backend/internal/types"
)

type VerticalRelationRepo interface {
	ListForVertical(ctx context.Context, tx *gorm.DB, verticalID uuid.UUID) ([]*types.VerticalRelation, error)
	Create(ctx context.Context, tx *gorm.DB, rel *types.VerticalRelation) (*types.VerticalRelation, error)
}

type verticalRelationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVerticalRelationRepo(db *gorm.DB, baseLog *logger.Logger) VerticalRelationRepo {
	return &verticalRelationRepo{db: db, log: baseLog.With("repo", "VerticalRelationRepo")}
}

func (r *verticalRelationRepo) handle(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *verticalRelationRepo) ListForVertical(ctx context.Context, tx *gorm.DB, verticalID uuid.UUID) ([]*types.VerticalRelation, error) {
	var out []*types.VerticalRelation
	if err := r.handle(tx).WithContext(ctx).
		Where("vertical_a = ? OR vertical_b = ?", verticalID, verticalID).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *verticalRelationRepo) Create(ctx context.Context, tx *gorm.DB, rel *types.VerticalRelation) (*types.VerticalRelation, error) {
	if rel.ID == uuid.Nil {
		rel.ID = uuid.New()
	}
	if err := r.handle(tx).WithContext(ctx).Create(rel).Error; err != nil {
		return nil, err
	}
	return rel, nil
}
