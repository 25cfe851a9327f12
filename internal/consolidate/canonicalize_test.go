package consolidate

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/marketlens/brandscope-backend/internal/knowledge"
	"github.com/marketlens/brandscope-backend/internal/logger"
	"github.com/marketlens/brandscope-backend/internal/types"
)

type fakeEmbedder struct {
	scores map[string]float64
	calls  int
	fail   bool
}

func pairKey(a, b string) string {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la > lb {
		la, lb = lb, la
	}
	return la + "|" + lb
}

func (f *fakeEmbedder) Similarity(_ context.Context, a, b string) (float64, error) {
	f.calls++
	if f.fail {
		return 0, fmt.Errorf("embedding backend unavailable")
	}
	if score, ok := f.scores[pairKey(a, b)]; ok {
		return score, nil
	}
	return 0.1, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func brand(raw string) *types.Candidate {
	return &types.Candidate{
		ID:         uuid.New(),
		RawName:    raw,
		EntityType: types.EntityTypeBrand,
		Language:   types.LanguageEnglish,
	}
}

func emptySnapshot() *knowledge.Snapshot {
	return knowledge.NewSnapshot(uuid.New(), 0, knowledge.SnapshotData{})
}

func consolidateAll(t *testing.T, c *Canonicalizer, candidates []*types.Candidate) []*Entity {
	t.Helper()
	entities, err := c.Consolidate(context.Background(), candidates)
	if err != nil {
		t.Fatalf("consolidate: %v", err)
	}
	return entities
}

func findEntity(t *testing.T, entities []*Entity, label string) *Entity {
	t.Helper()
	for _, e := range entities {
		if e.Label == label {
			return e
		}
	}
	t.Fatalf("no entity labelled %q in %d entities", label, len(entities))
	return nil
}

func TestSubstringMergePrefersShortestLabel(t *testing.T) {
	c := NewCanonicalizer(testLogger(t), emptySnapshot(), nil, DefaultConfig())
	entities := consolidateAll(t, c, []*types.Candidate{
		brand("Ford"),
		brand("Ford Motor Company of Canada"),
	})
	if len(entities) != 1 {
		t.Fatalf("expected 1 entity, got %d", len(entities))
	}
	e := entities[0]
	if e.Label != "Ford" {
		t.Fatalf("label = %q, want Ford", e.Label)
	}
	if len(e.Members) != 2 {
		t.Fatalf("members = %d, want 2", len(e.Members))
	}
}

func TestExactKeyMergeIgnoresSpacingAndCase(t *testing.T) {
	c := NewCanonicalizer(testLogger(t), emptySnapshot(), nil, DefaultConfig())
	entities := consolidateAll(t, c, []*types.Candidate{
		brand("Babycare"),
		brand("Baby Care"),
		brand("BABYCARE"),
	})
	if len(entities) != 1 {
		t.Fatalf("expected 1 entity, got %d", len(entities))
	}
	if got := len(entities[0].Members); got != 3 {
		t.Fatalf("members = %d, want 3", got)
	}
}

func TestEmbeddingMergeAboveThreshold(t *testing.T) {
	emb := &fakeEmbedder{scores: map[string]float64{
		pairKey("VW", "Volkswagen"): 0.93,
	}}
	c := NewCanonicalizer(testLogger(t), emptySnapshot(), emb, DefaultConfig())
	entities := consolidateAll(t, c, []*types.Candidate{
		brand("VW"),
		brand("Volkswagen"),
	})
	if len(entities) != 1 {
		t.Fatalf("expected 1 entity, got %d", len(entities))
	}
	if entities[0].Label != "VW" {
		t.Fatalf("label = %q, want VW", entities[0].Label)
	}
	if entities[0].MergeConfidence != types.MergeConfidenceHigh {
		t.Fatalf("merge confidence = %q, want high", entities[0].MergeConfidence)
	}
}

func TestEmbeddingBelowThresholdStaysSplit(t *testing.T) {
	emb := &fakeEmbedder{scores: map[string]float64{
		pairKey("Kleenex", "Pampers"): 0.42,
	}}
	c := NewCanonicalizer(testLogger(t), emptySnapshot(), emb, DefaultConfig())
	entities := consolidateAll(t, c, []*types.Candidate{
		brand("Kleenex"),
		brand("Pampers"),
	})
	if len(entities) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(entities))
	}
}

func TestEmbedderFailureSkipsMerge(t *testing.T) {
	emb := &fakeEmbedder{fail: true}
	c := NewCanonicalizer(testLogger(t), emptySnapshot(), emb, DefaultConfig())
	entities := consolidateAll(t, c, []*types.Candidate{
		brand("VW"),
		brand("Volkswagen"),
	})
	if len(entities) != 2 {
		t.Fatalf("expected 2 entities on embedder failure, got %d", len(entities))
	}
}

func TestKnownAliasMerge(t *testing.T) {
	snap := knowledge.NewSnapshot(uuid.New(), 1, knowledge.SnapshotData{
		AliasGroups: map[string][]string{
			"Volkswagen": {"VW", "大众"},
		},
	})
	c := NewCanonicalizer(testLogger(t), snap, nil, DefaultConfig())
	entities := consolidateAll(t, c, []*types.Candidate{
		brand("VW"),
		brand("大众"),
	})
	if len(entities) != 1 {
		t.Fatalf("expected 1 entity, got %d", len(entities))
	}
	if entities[0].Label != "VW" {
		t.Fatalf("label = %q, want VW (shortest recognized surface)", entities[0].Label)
	}
}

func TestAmbiguousAliasFlagged(t *testing.T) {
	snap := knowledge.NewSnapshot(uuid.New(), 1, knowledge.SnapshotData{
		AliasGroups: map[string][]string{
			"Alpha Motors": {"AM"},
			"Apex Mobility": {"AM"},
		},
	})
	c := NewCanonicalizer(testLogger(t), snap, nil, DefaultConfig())
	entities := consolidateAll(t, c, []*types.Candidate{brand("AM")})
	if len(entities) != 1 {
		t.Fatalf("expected 1 entity, got %d", len(entities))
	}
	if entities[0].ReviewFlag != types.ReviewFlagAmbiguousMerge {
		t.Fatalf("review flag = %q, want %q", entities[0].ReviewFlag, types.ReviewFlagAmbiguousMerge)
	}
}

func TestParentheticalBindsTranslationAlias(t *testing.T) {
	c := NewCanonicalizer(testLogger(t), emptySnapshot(), nil, DefaultConfig())
	entities := consolidateAll(t, c, []*types.Candidate{
		brand("Unicharm (尤妮佳)"),
		brand("尤妮佳"),
	})
	if len(entities) != 1 {
		t.Fatalf("expected 1 entity, got %d", len(entities))
	}
	e := entities[0]
	if e.ChineseLabel != "尤妮佳" {
		t.Fatalf("chinese label = %q, want 尤妮佳", e.ChineseLabel)
	}
	if e.EnglishLabel != "Unicharm" {
		t.Fatalf("english label = %q, want Unicharm", e.EnglishLabel)
	}
}

func TestMergesNeverCrossEntityType(t *testing.T) {
	c := NewCanonicalizer(testLogger(t), emptySnapshot(), nil, DefaultConfig())
	product := &types.Candidate{
		ID:         uuid.New(),
		RawName:    "Ford",
		EntityType: types.EntityTypeProduct,
		Language:   types.LanguageEnglish,
	}
	entities := consolidateAll(t, c, []*types.Candidate{brand("Ford"), product})
	if len(entities) != 2 {
		t.Fatalf("expected 2 entities across types, got %d", len(entities))
	}
}

func TestEmptyKeyCandidatesDropped(t *testing.T) {
	c := NewCanonicalizer(testLogger(t), emptySnapshot(), nil, DefaultConfig())
	entities := consolidateAll(t, c, []*types.Candidate{
		brand("!!!"),
		brand("(。。。)"),
		brand("Ford"),
	})
	if len(entities) != 1 {
		t.Fatalf("expected 1 entity, got %d", len(entities))
	}
	if entities[0].Label != "Ford" {
		t.Fatalf("label = %q, want Ford", entities[0].Label)
	}
}

func TestConsolidateIsDeterministic(t *testing.T) {
	input := []*types.Candidate{
		brand("Ford"),
		brand("Ford Motor Company"),
		brand("Babycare"),
		brand("Baby Care"),
		brand("Kleenex"),
	}
	c := NewCanonicalizer(testLogger(t), emptySnapshot(), nil, DefaultConfig())
	first := consolidateAll(t, c, input)
	second := consolidateAll(t, c, input)
	if len(first) != len(second) {
		t.Fatalf("entity counts differ across runs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Label != second[i].Label {
			t.Fatalf("labels differ at %d: %q vs %q", i, first[i].Label, second[i].Label)
		}
	}
	findEntity(t, first, "Ford")
	findEntity(t, first, "Babycare")
	findEntity(t, first, "Kleenex")
}

func TestTransitiveMultiRuleMergeLowersConfidence(t *testing.T) {
	// "Ford" joins "Ford Motor" by substring, and "Ford Motor" joins
	// "福特汽车" by embedding. The component spans two non-exact rules.
	emb := &fakeEmbedder{scores: map[string]float64{
		pairKey("Ford Motor", "福特汽车"): 0.95,
		pairKey("Ford", "福特汽车"):       0.95,
	}}
	c := NewCanonicalizer(testLogger(t), emptySnapshot(), emb, DefaultConfig())
	entities := consolidateAll(t, c, []*types.Candidate{
		brand("Ford"),
		brand("Ford Motor"),
		brand("福特汽车"),
	})
	if len(entities) != 1 {
		t.Fatalf("expected 1 entity, got %d", len(entities))
	}
	if entities[0].MergeConfidence != types.MergeConfidenceLow {
		t.Fatalf("merge confidence = %q, want low", entities[0].MergeConfidence)
	}
}
