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

type ConsolidationRunRepo interface {
	Create(ctx context.Context, tx *gorm.DB, run *types.ConsolidationRun) (*types.ConsolidationRun, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ConsolidationRun, error)
	// ClaimNextRunnable atomically claims the oldest pending sealed run.
	// Returns nil when nothing is runnable.
	ClaimNextRunnable(ctx context.Context, tx *gorm.DB, staleRunning time.Duration) (*types.ConsolidationRun, error)
	SealCandidates(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	// Cancel marks a not-yet-claimed run cancelled. Running and finished
	// runs are left alone.
	Cancel(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	SetStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status types.RunStatus, errMsg string) error
	SaveCounts(ctx context.Context, tx *gorm.DB, run *types.ConsolidationRun) error
}

type consolidationRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConsolidationRunRepo(db *gorm.DB, baseLog *logger.Logger) ConsolidationRunRepo {
	return &consolidationRunRepo{db: db, log: baseLog.With("repo", "ConsolidationRunRepo")}
}

func (r *consolidationRunRepo) handle(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *consolidationRunRepo) Create(ctx context.Context, tx *gorm.DB, run *types.ConsolidationRun) (*types.ConsolidationRun, error) {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.Status == "" {
		run.Status = types.RunStatusPending
	}
	if err := r.handle(tx).WithContext(ctx).Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

func (r *consolidationRunRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ConsolidationRun, error) {
	var out types.ConsolidationRun
	if err := r.handle(tx).WithContext(ctx).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *consolidationRunRepo) ClaimNextRunnable(ctx context.Context, tx *gorm.DB, staleRunning time.Duration) (*types.ConsolidationRun, error) {
	now := time.Now().UTC()
	staleCutoff := now.Add(-staleRunning)
	var claimed *types.ConsolidationRun
	err := r.handle(tx).WithContext(ctx).Transaction(func(inner *gorm.DB) error {
		var run types.ConsolidationRun
		err := inner.
			Where("candidates_sealed = ?", true).
			Where("status = ? OR (status = ? AND locked_at < ?)", types.RunStatusPending, types.RunStatusRunning, staleCutoff).
			Order("created_at ASC").
			First(&run).Error
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		res := inner.Model(&types.ConsolidationRun{}).
			Where("id = ? AND (status = ? OR (status = ? AND locked_at < ?))",
				run.ID, types.RunStatusPending, types.RunStatusRunning, staleCutoff).
			Updates(map[string]interface{}{"status": types.RunStatusRunning, "locked_at": &now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil // lost the race to another worker
		}
		run.Status = types.RunStatusRunning
		run.LockedAt = &now
		claimed = &run
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *consolidationRunRepo) SealCandidates(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return r.handle(tx).WithContext(ctx).
		Model(&types.ConsolidationRun{}).
		Where("id = ?", id).
		Update("candidates_sealed", true).Error
}

func (r *consolidationRunRepo) Cancel(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	now := time.Now().UTC()
	res := r.handle(tx).WithContext(ctx).
		Model(&types.ConsolidationRun{}).
		Where("id = ? AND status = ?", id, types.RunStatusPending).
		Updates(map[string]interface{}{
			"status":       types.RunStatusCancelled,
			"completed_at": &now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("run %s not found or no longer cancellable", id)
	}
	return nil
}

func (r *consolidationRunRepo) SetStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status types.RunStatus, errMsg string) error {
	updates := map[string]interface{}{"status": status, "error": errMsg}
	if status == types.RunStatusCompleted || status == types.RunStatusFailed || status == types.RunStatusCancelled {
		now := time.Now().UTC()
		updates["completed_at"] = &now
	}
	return r.handle(tx).WithContext(ctx).
		Model(&types.ConsolidationRun{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *consolidationRunRepo) SaveCounts(ctx context.Context, tx *gorm.DB, run *types.ConsolidationRun) error {
	return r.handle(tx).WithContext(ctx).
		Model(&types.ConsolidationRun{}).
		Where("id = ?", run.ID).
		Updates(map[string]interface{}{
			"candidate_count":      run.CandidateCount,
			"entity_count":         run.EntityCount,
			"accepted_count":       run.AcceptedCount,
			"auto_applied_count":   run.AutoAppliedCount,
			"pending_review_count": run.PendingReviewCnt,
		}).Error
}
