package types

import (
	"time"

	"github.com/google/uuid"
)

type CorrectionAction string

const (
	ActionValidate CorrectionAction = "validate"
	ActionReplace  CorrectionAction = "replace"
	ActionReject   CorrectionAction = "reject"
	ActionAdd      CorrectionAction = "add"
)

type ConfidenceLevel string

const (
	ConfidenceLow      ConfidenceLevel = "LOW"
	ConfidenceMedium   ConfidenceLevel = "MEDIUM"
	ConfidenceHigh     ConfidenceLevel = "HIGH"
	ConfidenceVeryHigh ConfidenceLevel = "VERY_HIGH"
)

// Rank orders confidence levels; unknown levels rank below LOW.
func (l ConfidenceLevel) Rank() int {
	switch l {
	case ConfidenceLow:
		return 1
	case ConfidenceMedium:
		return 2
	case ConfidenceHigh:
		return 3
	case ConfidenceVeryHigh:
		return 4
	default:
		return 0
	}
}

// ScoreInBucket reports whether score falls in the level's numeric bucket:
// LOW [0, 0.5), MEDIUM [0.5, 0.75), HIGH [0.75, 0.9), VERY_HIGH [0.9, 1].
// A level claiming a score outside its bucket is internally inconsistent.
func (l ConfidenceLevel) ScoreInBucket(score float64) bool {
	switch l {
	case ConfidenceLow:
		return score >= 0 && score < 0.5
	case ConfidenceMedium:
		return score >= 0.5 && score < 0.75
	case ConfidenceHigh:
		return score >= 0.75 && score < 0.9
	case ConfidenceVeryHigh:
		return score >= 0.9 && score <= 1
	default:
		return false
	}
}

type SuggestionState string

const (
	SuggestionProposed      SuggestionState = "proposed"
	SuggestionAutoApplied   SuggestionState = "auto_applied"
	SuggestionPendingReview SuggestionState = "pending_review"
	SuggestionUserApplied   SuggestionState = "user_applied"
	SuggestionRejected      SuggestionState = "rejected"
	SuggestionExpired       SuggestionState = "expired"
)

// Terminal reports whether no further transition is allowed from s.
func (s SuggestionState) Terminal() bool {
	switch s {
	case SuggestionAutoApplied, SuggestionUserApplied, SuggestionRejected, SuggestionExpired:
		return true
	default:
		return false
	}
}

// CorrectionSuggestion is one audit finding from the judge model. It moves
// through proposed -> {auto_applied | pending_review} -> {user_applied |
// rejected}, or expires untouched past the retention window.
type CorrectionSuggestion struct {
	ID              uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	RunID           uuid.UUID        `gorm:"type:uuid;not null;index" json:"run_id"`
	VerticalID      uuid.UUID        `gorm:"type:uuid;not null;index" json:"vertical_id"`
	TargetRef       string           `gorm:"column:target_ref;not null" json:"target_ref"`
	Action          CorrectionAction `gorm:"column:action;not null" json:"action"`
	WrongName       string           `gorm:"column:wrong_name" json:"wrong_name,omitempty"`
	CorrectName     string           `gorm:"column:correct_name" json:"correct_name,omitempty"`
	Reason          string           `gorm:"column:reason" json:"reason"`
	EvidenceQuote   string           `gorm:"column:evidence_quote" json:"evidence_quote"`
	ConfidenceLevel ConfidenceLevel  `gorm:"column:confidence_level;not null" json:"confidence_level"`
	ConfidenceScore float64          `gorm:"column:confidence_score;not null" json:"confidence_score"`
	State           SuggestionState  `gorm:"column:state;not null;index" json:"state"`
	Reviewer        string           `gorm:"column:reviewer" json:"reviewer,omitempty"`
	CreatedAt       time.Time        `gorm:"not null;default:now();index" json:"created_at"`
	ResolvedAt      *time.Time       `gorm:"column:resolved_at" json:"resolved_at,omitempty"`
}

func (CorrectionSuggestion) TableName() string { return "correction_suggestion" }
