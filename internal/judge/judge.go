package judge

import (
	"context"

	"github.com/google/uuid"

	"github.com/marketlens/brandscope-backend/internal/types"
)

// EntityReview is one consolidated entity presented for audit.
type EntityReview struct {
	TargetRef  string
	Label      string
	EntityType types.EntityType
	Aliases    []string
	Evidence   string
}

// Batch is one audit request: the vertical's entities plus few-shot
// exemplars drawn from previously accepted corrections.
type Batch struct {
	VerticalID   uuid.UUID
	VerticalName string
	Entities     []EntityReview
	Exemplars    []*types.KnowledgeRecord
}

// Judge audits a batch of consolidated entities and proposes corrections.
// Implementations must only return suggestions that passed schema
// validation; malformed model output is discarded, never surfaced.
type Judge interface {
	Evaluate(ctx context.Context, batch Batch) ([]*types.CorrectionSuggestion, error)
	Name() string
}
