package types

import (
	"time"

	"github.com/google/uuid"
)

// RejectedEntity records a name that failed a consolidation check, kept for
// audit and reused as negative knowledge on later runs.
type RejectedEntity struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	VerticalID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"vertical_id"`
	EntityType      EntityType `gorm:"column:entity_type;not null" json:"entity_type"`
	Name            string     `gorm:"column:name;not null;index" json:"name"`
	RejectionReason string     `gorm:"column:rejection_reason;not null" json:"rejection_reason"`
	ExampleContext  string     `gorm:"column:example_context" json:"example_context,omitempty"`
	CreatedAt       time.Time  `gorm:"not null;default:now()" json:"created_at"`
}

func (RejectedEntity) TableName() string { return "rejected_entity" }
