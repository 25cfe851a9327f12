package types

import (
	"time"

	"github.com/google/uuid"
)

// ReviewerUser tags records a human reviewer applied. Records written by the
// correction engine carry the judge model identifier instead.
const ReviewerUser = "user"

// KnowledgeRecord is a durable, append-only correction applied to the shared
// knowledge store. Propagated copies keep provenance back to the origin
// vertical so a later retraction in one vertical never mutates another's
// history.
type KnowledgeRecord struct {
	ID               uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	VerticalID       uuid.UUID        `gorm:"type:uuid;not null;index" json:"vertical_id"`
	EntityKey        string           `gorm:"column:entity_key;not null;index" json:"entity_key"`
	Action           CorrectionAction `gorm:"column:action;not null" json:"action"`
	CorrectValue     string           `gorm:"column:correct_value" json:"correct_value,omitempty"`
	Reason           string           `gorm:"column:reason" json:"reason"`
	Evidence         string           `gorm:"column:evidence" json:"evidence"`
	Reviewer         string           `gorm:"column:reviewer;not null" json:"reviewer"`
	ConfidenceLevel  ConfidenceLevel  `gorm:"column:confidence_level;not null" json:"confidence_level"`
	Version          int64            `gorm:"column:version;not null;index" json:"version"`
	OriginVerticalID uuid.UUID        `gorm:"type:uuid;index" json:"origin_vertical_id"`
	OriginRecordID   uuid.UUID        `gorm:"type:uuid" json:"origin_record_id"`
	CreatedAt        time.Time        `gorm:"not null;default:now()" json:"created_at"`
}

func (KnowledgeRecord) TableName() string { return "knowledge_record" }

// Propagated reports whether the record is a copy-on-write duplicate from
// another vertical.
func (r *KnowledgeRecord) Propagated() bool {
	return r.OriginVerticalID != uuid.Nil && r.OriginVerticalID != r.VerticalID
}

// ExemplarEligible reports whether the record can serve as a few-shot
// exemplar. A human apply outranks the model's claimed confidence, so
// user-reviewed records qualify at any level; everything else needs HIGH or
// better.
func (r *KnowledgeRecord) ExemplarEligible() bool {
	return r.Reviewer == ReviewerUser || r.ConfidenceLevel.Rank() >= ConfidenceHigh.Rank()
}
