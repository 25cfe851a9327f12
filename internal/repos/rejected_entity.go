package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketlens/brandscope-backend/internal/logger"
	"github.com/marketlens/brandscope-backend/internal/types"
)

type RejectedEntityRepo interface {
	// CreateIfAbsent stores a rejection once per (vertical, type, name).
	CreateIfAbsent(ctx context.Context, tx *gorm.DB, rejected *types.RejectedEntity) error
	ListNames(ctx context.Context, tx *gorm.DB, verticalID uuid.UUID, entityType types.EntityType) ([]string, error)
}

type rejectedEntityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRejectedEntityRepo(db *gorm.DB, baseLog *logger.Logger) RejectedEntityRepo {
	return &rejectedEntityRepo{db: db, log: baseLog.With("repo", "RejectedEntityRepo")}
}

func (r *rejectedEntityRepo) handle(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *rejectedEntityRepo) CreateIfAbsent(ctx context.Context, tx *gorm.DB, rejected *types.RejectedEntity) error {
	h := r.handle(tx).WithContext(ctx)
	var n int64
	err := h.Model(&types.RejectedEntity{}).
		Where("vertical_id = ? AND entity_type = ? AND name = ?", rejected.VerticalID, rejected.EntityType, rejected.Name).
		Count(&n).Error
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if rejected.ID == uuid.Nil {
		rejected.ID = uuid.New()
	}
	return h.Create(rejected).Error
}

func (r *rejectedEntityRepo) ListNames(ctx context.Context, tx *gorm.DB, verticalID uuid.UUID, entityType types.EntityType) ([]string, error) {
	var names []string
	if err := r.handle(tx).WithContext(ctx).
		Model(&types.RejectedEntity{}).
		Where("vertical_id = ? AND entity_type = ?", verticalID, entityType).
		Pluck("name", &names).Error; err != nil {
		return nil, err
	}
	return names, nil
}
