package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	RelationSuperset   = "superset"
	RelationEquivalent = "equivalent"
)

// VerticalRelation links two market verticals that may share knowledge.
// Produced by the vertical matcher collaborator; read-only here.
type VerticalRelation struct {
	ID                   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	VerticalA            uuid.UUID `gorm:"type:uuid;not null;index" json:"vertical_a"`
	VerticalB            uuid.UUID `gorm:"type:uuid;not null;index" json:"vertical_b"`
	SimilarityConfidence float64   `gorm:"column:similarity_confidence;not null" json:"similarity_confidence"`
	Direction            string    `gorm:"column:direction;not null" json:"direction"`
	CreatedAt            time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (VerticalRelation) TableName() string { return "vertical_relation" }
