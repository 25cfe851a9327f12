package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Review flags raised during consolidation. An empty flag means the entity
// passed every automatic check.
const (
	ReviewFlagNone                   = ""
	ReviewFlagNeedsReview            = "needs_review"
	ReviewFlagConflictingTranslation = "conflicting_translation"
	ReviewFlagConflictingAlias       = "conflicting_alias"
	ReviewFlagAmbiguousMerge         = "ambiguous_merge_conflict"
)

const (
	MergeConfidenceHigh = "high"
	MergeConfidenceLow  = "low"
)

// CanonicalEntity is the deduplicated representation of one real-world
// brand or product within a consolidation run. Mutated only by merge
// operations while the run is in flight, then persisted as part of the
// run's result set.
type CanonicalEntity struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	RunID              uuid.UUID      `gorm:"type:uuid;not null;index" json:"run_id"`
	VerticalID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"vertical_id"`
	CanonicalLabel     string         `gorm:"column:canonical_label;not null" json:"canonical_label"`
	EnglishLabel       string         `gorm:"column:english_label" json:"english_label,omitempty"`
	ChineseLabel       string         `gorm:"column:chinese_label" json:"chinese_label,omitempty"`
	EntityType         EntityType     `gorm:"column:entity_type;not null;index" json:"entity_type"`
	Aliases            datatypes.JSON `gorm:"type:jsonb;column:aliases" json:"aliases"`
	MemberCandidateIDs datatypes.JSON `gorm:"type:jsonb;column:member_candidate_ids" json:"member_candidate_ids"`
	RelevanceAccepted  bool           `gorm:"column:relevance_accepted;not null;default:false;index" json:"relevance_accepted"`
	ReviewFlag         string         `gorm:"column:review_flag;index" json:"review_flag,omitempty"`
	MergeConfidence    string         `gorm:"column:merge_confidence;not null;default:'high'" json:"merge_confidence"`
	CreatedAt          time.Time      `gorm:"not null;default:now()" json:"created_at"`
}

func (CanonicalEntity) TableName() string { return "canonical_entity" }
