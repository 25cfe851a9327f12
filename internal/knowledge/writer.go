package knowledge

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketlens/brandscope-backend/internal/logger"
	"github.com/marketlens/brandscope-backend/internal/normalize"
	"github.com/marketlens/brandscope-backend/internal/repos"
	"github.com/marketlens/brandscope-backend/internal/types"
)

// Writer persists accepted corrections to the shared knowledge store and
// propagates them copy-on-write to related verticals. Commits for one
// vertical are serialized; a propagated copy is a new row with provenance,
// never a shared reference.
type Writer struct {
	db        *gorm.DB
	log       *logger.Logger
	records   repos.KnowledgeRecordRepo
	relations repos.VerticalRelationRepo
	pairs     repos.AliasPairRepo

	propagationThreshold float64

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewWriter(db *gorm.DB, baseLog *logger.Logger, records repos.KnowledgeRecordRepo, relations repos.VerticalRelationRepo, pairs repos.AliasPairRepo, propagationThreshold float64) *Writer {
	return &Writer{
		db:                   db,
		log:                  baseLog.With("component", "KnowledgeWriter"),
		records:              records,
		relations:            relations,
		pairs:                pairs,
		propagationThreshold: propagationThreshold,
		locks:                map[uuid.UUID]*sync.Mutex{},
	}
}

func (w *Writer) verticalLock(verticalID uuid.UUID) *sync.Mutex {
	w.mu.Lock()
	defer w.mu.Unlock()
	lock, ok := w.locks[verticalID]
	if !ok {
		lock = &sync.Mutex{}
		w.locks[verticalID] = lock
	}
	return lock
}

// ApplyBatch writes one batch of accepted suggestions atomically: either
// every record in the batch (including propagated copies) commits, or none
// does. A partial judge failure therefore cannot leave the store
// half-updated.
func (w *Writer) ApplyBatch(ctx context.Context, verticalID uuid.UUID, suggestions []*types.CorrectionSuggestion, reviewer string) ([]*types.KnowledgeRecord, error) {
	if len(suggestions) == 0 {
		return nil, nil
	}
	lock := w.verticalLock(verticalID)
	lock.Lock()
	defer lock.Unlock()

	var written []*types.KnowledgeRecord
	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		version, err := w.records.MaxVersion(ctx, tx)
		if err != nil {
			return fmt.Errorf("knowledge version: %w", err)
		}
		targets, err := w.propagationTargets(ctx, tx, verticalID)
		if err != nil {
			return fmt.Errorf("propagation targets: %w", err)
		}

		var batch []*types.KnowledgeRecord
		for _, s := range suggestions {
			version++
			origin := recordFromSuggestion(s, verticalID, reviewer, version)
			batch = append(batch, origin)
			for _, target := range targets {
				version++
				copied := recordFromSuggestion(s, target, reviewer, version)
				copied.OriginVerticalID = verticalID
				copied.OriginRecordID = origin.ID
				batch = append(batch, copied)
			}
			if pair := aliasPairFromSuggestion(s, verticalID); pair != nil {
				if _, err := w.pairs.Create(ctx, tx, pair); err != nil {
					return fmt.Errorf("alias pair: %w", err)
				}
			}
		}
		if _, err := w.records.CreateBatch(ctx, tx, batch); err != nil {
			return fmt.Errorf("knowledge records: %w", err)
		}
		written = batch
		return nil
	})
	if err != nil {
		return nil, err
	}
	w.log.Info("Knowledge batch committed",
		"vertical_id", verticalID,
		"reviewer", reviewer,
		"suggestions", len(suggestions),
		"records", len(written))
	return written, nil
}

// propagationTargets resolves the verticals a record is duplicated into:
// equivalent relations propagate both ways, superset relations only from
// the superset side down.
func (w *Writer) propagationTargets(ctx context.Context, tx *gorm.DB, origin uuid.UUID) ([]uuid.UUID, error) {
	relations, err := w.relations.ListForVertical(ctx, tx, origin)
	if err != nil {
		return nil, err
	}
	var targets []uuid.UUID
	for _, rel := range relations {
		if rel.SimilarityConfidence < w.propagationThreshold {
			continue
		}
		switch rel.Direction {
		case types.RelationEquivalent:
			targets = append(targets, counterpart(rel, origin))
		case types.RelationSuperset:
			if rel.VerticalA == origin {
				targets = append(targets, rel.VerticalB)
			}
		}
	}
	return targets, nil
}

func counterpart(rel *types.VerticalRelation, origin uuid.UUID) uuid.UUID {
	if rel.VerticalA == origin {
		return rel.VerticalB
	}
	return rel.VerticalA
}

func recordFromSuggestion(s *types.CorrectionSuggestion, verticalID uuid.UUID, reviewer string, version int64) *types.KnowledgeRecord {
	entityKey := s.WrongName
	if entityKey == "" {
		entityKey = s.TargetRef
	}
	return &types.KnowledgeRecord{
		ID:              uuid.New(),
		VerticalID:      verticalID,
		EntityKey:       entityKey,
		Action:          s.Action,
		CorrectValue:    s.CorrectName,
		Reason:          s.Reason,
		Evidence:        s.EvidenceQuote,
		Reviewer:        reviewer,
		ConfidenceLevel: s.ConfidenceLevel,
		Version:         version,
	}
}

// aliasPairFromSuggestion derives a new attested pair when a validate/add
// correction carries both an English and a Chinese label.
func aliasPairFromSuggestion(s *types.CorrectionSuggestion, verticalID uuid.UUID) *types.AliasPair {
	if s.Action != types.ActionValidate && s.Action != types.ActionAdd {
		return nil
	}
	label := s.CorrectName
	if label == "" {
		label = s.TargetRef
	}
	english := normalize.EnglishPart(label)
	chinese := normalize.ChinesePart(label)
	if english == "" || chinese == "" {
		return nil
	}
	return &types.AliasPair{
		ID:         uuid.New(),
		English:    english,
		Chinese:    chinese,
		VerticalID: verticalID,
		Source:     types.AliasPairSourceKnowledgeStore,
	}
}
