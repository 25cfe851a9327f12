package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketlens/brandscope-backend/internal/logger"
	"github.com/marketlens/brandscope-backend/internal/types"
)

type AliasPairRepo interface {
	Create(ctx context.Context, tx *gorm.DB, pair *types.AliasPair) (*types.AliasPair, error)
	// ListForVertical returns the vertical's own pairs plus the global ones.
	ListForVertical(ctx context.Context, tx *gorm.DB, verticalID uuid.UUID) ([]*types.AliasPair, error)
}

type aliasPairRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAliasPairRepo(db *gorm.DB, baseLog *logger.Logger) AliasPairRepo {
	return &aliasPairRepo{db: db, log: baseLog.With("repo", "AliasPairRepo")}
}

func (r *aliasPairRepo) handle(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *aliasPairRepo) Create(ctx context.Context, tx *gorm.DB, pair *types.AliasPair) (*types.AliasPair, error) {
	if pair.ID == uuid.Nil {
		pair.ID = uuid.New()
	}
	if err := r.handle(tx).WithContext(ctx).Create(pair).Error; err != nil {
		return nil, err
	}
	return pair, nil
}

func (r *aliasPairRepo) ListForVertical(ctx context.Context, tx *gorm.DB, verticalID uuid.UUID) ([]*types.AliasPair, error) {
	var out []*types.AliasPair
	if err := r.handle(tx).WithContext(ctx).
		Where("vertical_id = ? OR vertical_id = ?", verticalID, uuid.Nil).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
