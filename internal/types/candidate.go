package types

import (
	"time"

	"github.com/google/uuid"
)

// EntityType distinguishes brand rows from product rows. A merge never
// crosses this boundary.
type EntityType string

const (
	EntityTypeBrand   EntityType = "brand"
	EntityTypeProduct EntityType = "product"
)

type Language string

const (
	LanguageEnglish Language = "en"
	LanguageChinese Language = "zh"
	LanguageMixed   Language = "mixed"
)

// Candidate is one raw brand/product mention proposed by one extraction
// pass. Candidates are immutable; many of them collapse into a single
// CanonicalEntity during consolidation.
type Candidate struct {
	ID                  uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	RunID               uuid.UUID  `gorm:"type:uuid;not null;index" json:"run_id"`
	RawName             string     `gorm:"column:raw_name;not null" json:"raw_name"`
	EntityType          EntityType `gorm:"column:entity_type;not null;index" json:"entity_type"`
	Language            Language   `gorm:"column:language;not null" json:"language"`
	EvidenceSnippet     string     `gorm:"column:evidence_snippet" json:"evidence_snippet"`
	Rank                int        `gorm:"column:rank;not null;default:0" json:"rank"`
	ExtractorConfidence float64    `gorm:"column:extractor_confidence;not null;default:0" json:"extractor_confidence"`
	CreatedAt           time.Time  `gorm:"not null;default:now()" json:"created_at"`
}

func (Candidate) TableName() string { return "candidate" }
