package types

import (
	"time"

	"github.com/google/uuid"
)

type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusCancelled RunStatus = "cancelled"
	RunStatusFailed    RunStatus = "failed"
)

// ConsolidationRun is one end-of-job consolidation pass over a vertical's
// collected candidates. The run only becomes claimable once the extractor
// marks candidate collection complete (the fan-in barrier).
type ConsolidationRun struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	VerticalID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"vertical_id"`
	VerticalName      string     `gorm:"column:vertical_name;not null" json:"vertical_name"`
	Status            RunStatus  `gorm:"column:status;not null;index" json:"status"`
	CandidatesSealed  bool       `gorm:"column:candidates_sealed;not null;default:false;index" json:"candidates_sealed"`
	CandidateCount    int        `gorm:"column:candidate_count;not null;default:0" json:"candidate_count"`
	EntityCount       int        `gorm:"column:entity_count;not null;default:0" json:"entity_count"`
	AcceptedCount     int        `gorm:"column:accepted_count;not null;default:0" json:"accepted_count"`
	AutoAppliedCount  int        `gorm:"column:auto_applied_count;not null;default:0" json:"auto_applied_count"`
	PendingReviewCnt  int        `gorm:"column:pending_review_count;not null;default:0" json:"pending_review_count"`
	Error             string     `gorm:"column:error" json:"error,omitempty"`
	LockedAt          *time.Time `gorm:"column:locked_at;index" json:"locked_at,omitempty"`
	CompletedAt       *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreatedAt         time.Time  `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (ConsolidationRun) TableName() string { return "consolidation_run" }
