package knowledge

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketlens/brandscope-backend/internal/types"
)

type fakeRelationRepo struct {
	relations []*types.VerticalRelation
}

func (f *fakeRelationRepo) ListForVertical(_ context.Context, _ *gorm.DB, verticalID uuid.UUID) ([]*types.VerticalRelation, error) {
	var out []*types.VerticalRelation
	for _, rel := range f.relations {
		if rel.VerticalA == verticalID || rel.VerticalB == verticalID {
			out = append(out, rel)
		}
	}
	return out, nil
}

func (f *fakeRelationRepo) Create(_ context.Context, _ *gorm.DB, rel *types.VerticalRelation) (*types.VerticalRelation, error) {
	f.relations = append(f.relations, rel)
	return rel, nil
}

func TestPropagationTargets(t *testing.T) {
	babyCare := uuid.New()
	maternity := uuid.New()
	diapers := uuid.New()
	automotive := uuid.New()

	relations := &fakeRelationRepo{relations: []*types.VerticalRelation{
		// Equivalent: propagates both ways.
		{VerticalA: babyCare, VerticalB: maternity, Direction: types.RelationEquivalent, SimilarityConfidence: 0.9},
		// Superset: baby care covers diapers, propagates down only.
		{VerticalA: babyCare, VerticalB: diapers, Direction: types.RelationSuperset, SimilarityConfidence: 0.95},
		// Below threshold: never propagates.
		{VerticalA: babyCare, VerticalB: automotive, Direction: types.RelationEquivalent, SimilarityConfidence: 0.3},
	}}
	w := &Writer{relations: relations, propagationThreshold: 0.8}

	targets, err := w.propagationTargets(context.Background(), nil, babyCare)
	if err != nil {
		t.Fatalf("targets: %v", err)
	}
	if len(targets) != 2 {
		t.Fatalf("targets = %v, want maternity and diapers", targets)
	}
	seen := map[uuid.UUID]bool{}
	for _, id := range targets {
		seen[id] = true
	}
	if !seen[maternity] || !seen[diapers] {
		t.Fatalf("targets = %v, want %v and %v", targets, maternity, diapers)
	}

	// From the subset side the superset relation is inert; the equivalent
	// one still propagates back up.
	fromDiapers, err := w.propagationTargets(context.Background(), nil, diapers)
	if err != nil {
		t.Fatalf("targets from subset: %v", err)
	}
	if len(fromDiapers) != 0 {
		t.Fatalf("subset-side targets = %v, want none", fromDiapers)
	}

	fromMaternity, err := w.propagationTargets(context.Background(), nil, maternity)
	if err != nil {
		t.Fatalf("targets from equivalent: %v", err)
	}
	if len(fromMaternity) != 1 || fromMaternity[0] != babyCare {
		t.Fatalf("equivalent-side targets = %v, want [%v]", fromMaternity, babyCare)
	}
}

func TestRecordFromSuggestionProvenance(t *testing.T) {
	origin := uuid.New()
	target := uuid.New()
	s := &types.CorrectionSuggestion{
		TargetRef:       "brand:babycare",
		Action:          types.ActionReplace,
		WrongName:       "Baby Care Co",
		CorrectName:     "Babycare",
		Reason:          "corporate suffix variant",
		ConfidenceLevel: types.ConfidenceVeryHigh,
	}

	rec := recordFromSuggestion(s, origin, "system", 7)
	if rec.EntityKey != "Baby Care Co" || rec.CorrectValue != "Babycare" {
		t.Fatalf("record = %+v", rec)
	}
	if rec.Version != 7 || rec.Propagated() {
		t.Fatalf("origin record must not look propagated: %+v", rec)
	}

	copied := recordFromSuggestion(s, target, "system", 8)
	copied.OriginVerticalID = origin
	copied.OriginRecordID = rec.ID
	if !copied.Propagated() {
		t.Fatalf("copy with provenance must report propagated")
	}
}

func TestAliasPairFromSuggestion(t *testing.T) {
	vertical := uuid.New()

	bilingual := &types.CorrectionSuggestion{
		Action:      types.ActionValidate,
		CorrectName: "Unicharm 尤妮佳",
	}
	pair := aliasPairFromSuggestion(bilingual, vertical)
	if pair == nil {
		t.Fatalf("bilingual validate must yield a pair")
	}
	if pair.English != "Unicharm" || pair.Chinese != "尤妮佳" {
		t.Fatalf("pair = %+v", pair)
	}
	if pair.Source != types.AliasPairSourceKnowledgeStore {
		t.Fatalf("source = %q", pair.Source)
	}

	monolingual := &types.CorrectionSuggestion{
		Action:      types.ActionValidate,
		CorrectName: "Pampers",
	}
	if aliasPairFromSuggestion(monolingual, vertical) != nil {
		t.Fatalf("monolingual name must not yield a pair")
	}

	rejection := &types.CorrectionSuggestion{
		Action:      types.ActionReject,
		CorrectName: "Unicharm 尤妮佳",
	}
	if aliasPairFromSuggestion(rejection, vertical) != nil {
		t.Fatalf("reject action must not yield a pair")
	}
}
