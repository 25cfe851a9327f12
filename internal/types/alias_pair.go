package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	AliasPairSourceKnowledgeStore = "knowledge_store"
	AliasPairSourceInferred       = "inferred"
)

// AliasPair is an attested correct (English, Chinese) label pairing for one
// entity. VerticalID of uuid.Nil marks a global pair. Rows are immutable;
// only the knowledge store writer (or seed data) creates them.
type AliasPair struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	English    string    `gorm:"column:english;not null;index" json:"english"`
	Chinese    string    `gorm:"column:chinese;not null;index" json:"chinese"`
	VerticalID uuid.UUID `gorm:"type:uuid;index" json:"vertical_id"`
	Source     string    `gorm:"column:source;not null" json:"source"`
	CreatedAt  time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (AliasPair) TableName() string { return "alias_pair" }
