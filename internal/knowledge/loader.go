package knowledge

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/marketlens/brandscope-backend/internal/logger"
	"github.com/marketlens/brandscope-backend/internal/repos"
	"github.com/marketlens/brandscope-backend/internal/types"
)

// Loader builds the immutable per-job Snapshot from the durable store.
type Loader struct {
	log        *logger.Logger
	records    repos.KnowledgeRecordRepo
	aliasPairs repos.AliasPairRepo
	rejected   repos.RejectedEntityRepo
}

func NewLoader(baseLog *logger.Logger, records repos.KnowledgeRecordRepo, aliasPairs repos.AliasPairRepo, rejected repos.RejectedEntityRepo) *Loader {
	return &Loader{
		log:        baseLog.With("component", "KnowledgeLoader"),
		records:    records,
		aliasPairs: aliasPairs,
		rejected:   rejected,
	}
}

func (l *Loader) Load(ctx context.Context, verticalID uuid.UUID, exemplarLimit int) (*Snapshot, error) {
	version, err := l.records.MaxVersion(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("knowledge version: %w", err)
	}
	pairs, err := l.aliasPairs.ListForVertical(ctx, nil, verticalID)
	if err != nil {
		return nil, fmt.Errorf("alias pairs: %w", err)
	}
	records, err := l.records.ListByVertical(ctx, nil, verticalID)
	if err != nil {
		return nil, fmt.Errorf("knowledge records: %w", err)
	}
	exemplars, err := l.records.ListExemplars(ctx, nil, verticalID, exemplarLimit)
	if err != nil {
		return nil, fmt.Errorf("exemplars: %w", err)
	}

	data := SnapshotData{
		AliasPairs:  pairs,
		AliasGroups: map[string][]string{},
		Exemplars:   exemplars,
	}
	vocab := map[string]struct{}{}
	for _, rec := range records {
		switch rec.Action {
		case types.ActionReject:
			data.RejectedNames = append(data.RejectedNames, rec.EntityKey)
		case types.ActionReplace:
			if rec.CorrectValue != "" {
				data.AliasGroups[rec.CorrectValue] = append(data.AliasGroups[rec.CorrectValue], rec.EntityKey)
				addVocabulary(vocab, rec.CorrectValue)
			}
		case types.ActionValidate, types.ActionAdd:
			canonical := rec.CorrectValue
			if canonical == "" {
				canonical = rec.EntityKey
			}
			if _, ok := data.AliasGroups[canonical]; !ok {
				data.AliasGroups[canonical] = nil
			}
			if rec.EntityKey != "" && rec.EntityKey != canonical {
				data.AliasGroups[canonical] = append(data.AliasGroups[canonical], rec.EntityKey)
			}
			addVocabulary(vocab, canonical)
		}
	}

	for _, brandType := range []types.EntityType{types.EntityTypeBrand, types.EntityTypeProduct} {
		names, err := l.rejected.ListNames(ctx, nil, verticalID, brandType)
		if err != nil {
			return nil, fmt.Errorf("rejected names: %w", err)
		}
		data.RejectedNames = append(data.RejectedNames, names...)
	}

	for word := range vocab {
		data.Vocabulary = append(data.Vocabulary, word)
	}

	l.log.Debug("Knowledge snapshot loaded",
		"vertical_id", verticalID,
		"version", version,
		"alias_pairs", len(pairs),
		"alias_groups", len(data.AliasGroups),
		"rejected", len(data.RejectedNames),
		"exemplars", len(exemplars))

	return NewSnapshot(verticalID, version, data), nil
}

func addVocabulary(vocab map[string]struct{}, label string) {
	for _, word := range strings.Fields(strings.ToLower(label)) {
		if len([]rune(word)) < 2 {
			continue
		}
		vocab[word] = struct{}{}
	}
}
