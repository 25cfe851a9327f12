package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketlens/brandscope-backend/internal/logger"
	"github.com/marketlens/brandscope-backend/internal/types"
)

type KnowledgeRecordRepo interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, records []*types.KnowledgeRecord) ([]*types.KnowledgeRecord, error)
	ListByVertical(ctx context.Context, tx *gorm.DB, verticalID uuid.UUID) ([]*types.KnowledgeRecord, error)
	// MaxVersion returns the store's current monotonic version counter.
	MaxVersion(ctx context.Context, tx *gorm.DB) (int64, error)
	// ListExemplars returns records eligible as few-shot exemplars, per
	// types.KnowledgeRecord.ExemplarEligible: HIGH/VERY_HIGH confidence, or
	// any record a human reviewer applied.
	ListExemplars(ctx context.Context, tx *gorm.DB, verticalID uuid.UUID, limit int) ([]*types.KnowledgeRecord, error)
}

type knowledgeRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewKnowledgeRecordRepo(db *gorm.DB, baseLog *logger.Logger) KnowledgeRecordRepo {
	return &knowledgeRecordRepo{db: db, log: baseLog.With("repo", "KnowledgeRecordRepo")}
}

func (r *knowledgeRecordRepo) handle(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *knowledgeRecordRepo) CreateBatch(ctx context.Context, tx *gorm.DB, records []*types.KnowledgeRecord) ([]*types.KnowledgeRecord, error) {
	if len(records) == 0 {
		return []*types.KnowledgeRecord{}, nil
	}
	for _, rec := range records {
		if rec.ID == uuid.Nil {
			rec.ID = uuid.New()
		}
	}
	if err := r.handle(tx).WithContext(ctx).Create(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *knowledgeRecordRepo) ListByVertical(ctx context.Context, tx *gorm.DB, verticalID uuid.UUID) ([]*types.KnowledgeRecord, error) {
	var out []*types.KnowledgeRecord
	if err := r.handle(tx).WithContext(ctx).
		Where("vertical_id = ?", verticalID).
		Order("version ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *knowledgeRecordRepo) MaxVersion(ctx context.Context, tx *gorm.DB) (int64, error) {
	var v *int64
	if err := r.handle(tx).WithContext(ctx).
		Model(&types.KnowledgeRecord{}).
		Select("MAX(version)").
		Scan(&v).Error; err != nil {
		return 0, err
	}
	if v == nil {
		return 0, nil
	}
	return *v, nil
}

func (r *knowledgeRecordRepo) ListExemplars(ctx context.Context, tx *gorm.DB, verticalID uuid.UUID, limit int) ([]*types.KnowledgeRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	eligible := []types.ConfidenceLevel{types.ConfidenceHigh, types.ConfidenceVeryHigh}
	var own []*types.KnowledgeRecord
	if err := r.handle(tx).WithContext(ctx).
		Where("vertical_id = ? AND (confidence_level IN ? OR reviewer = ?)", verticalID, eligible, types.ReviewerUser).
		Order("version DESC").
		Limit(limit).
		Find(&own).Error; err != nil {
		return nil, err
	}
	if len(own) >= limit {
		return own, nil
	}
	// Fill the remainder from sibling verticals for exemplar diversity.
	var other []*types.KnowledgeRecord
	if err := r.handle(tx).WithContext(ctx).
		Where("vertical_id <> ? AND (confidence_level IN ? OR reviewer = ?)", verticalID, eligible, types.ReviewerUser).
		Order("version DESC").
		Limit(limit-len(own)).
		Find(&other).Error; err != nil {
		return nil, err
	}
	return append(own, other...), nil
}
