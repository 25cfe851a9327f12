package crosslingual

import (
	"testing"

	"github.com/google/uuid"

	"github.com/marketlens/brandscope-backend/internal/consolidate"
	"github.com/marketlens/brandscope-backend/internal/knowledge"
	"github.com/marketlens/brandscope-backend/internal/logger"
	"github.com/marketlens/brandscope-backend/internal/types"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func snapshotWithPairs(pairs ...*types.AliasPair) *knowledge.Snapshot {
	return knowledge.NewSnapshot(uuid.New(), 1, knowledge.SnapshotData{AliasPairs: pairs})
}

func bilingual(english, chinese string) *consolidate.Entity {
	return &consolidate.Entity{
		Label:           english,
		EnglishLabel:    english,
		ChineseLabel:    chinese,
		EntityType:      types.EntityTypeBrand,
		MergeConfidence: types.MergeConfidenceHigh,
	}
}

func TestKnownPairValidates(t *testing.T) {
	snap := snapshotWithPairs(&types.AliasPair{English: "Huggies", Chinese: "好奇"})
	checker := NewChecker(testLogger(t), snap)

	e := bilingual("Huggies", "好奇")
	results := checker.Check([]*consolidate.Entity{e})
	if results[0].Outcome != OutcomeValidated {
		t.Fatalf("outcome = %q, want validated", results[0].Outcome)
	}
	if e.ReviewFlag != types.ReviewFlagNone {
		t.Fatalf("review flag = %q, want none", e.ReviewFlag)
	}
}

func TestUnknownPairNeedsReview(t *testing.T) {
	checker := NewChecker(testLogger(t), snapshotWithPairs())

	e := bilingual("Huggies", "好奇")
	results := checker.Check([]*consolidate.Entity{e})
	if results[0].Outcome != OutcomeNeedsReview {
		t.Fatalf("outcome = %q, want needs_review", results[0].Outcome)
	}
	if e.ReviewFlag != types.ReviewFlagNeedsReview {
		t.Fatalf("review flag = %q, want needs_review", e.ReviewFlag)
	}
}

func TestConflictRestoresAttestedLabel(t *testing.T) {
	snap := snapshotWithPairs(&types.AliasPair{English: "Huggies", Chinese: "好奇"})
	checker := NewChecker(testLogger(t), snap)

	// Some extraction pass invented "Curiosity Baby" as the English name for
	// the attested Chinese label.
	e := bilingual("Curiosity Baby", "好奇")
	results := checker.Check([]*consolidate.Entity{e})
	if results[0].Outcome != OutcomeConflict {
		t.Fatalf("outcome = %q, want conflict", results[0].Outcome)
	}
	if e.EnglishLabel != "Huggies" {
		t.Fatalf("english label = %q, want attested Huggies", e.EnglishLabel)
	}
	if e.ReviewFlag != types.ReviewFlagConflictingTranslation {
		t.Fatalf("review flag = %q, want conflicting_translation", e.ReviewFlag)
	}
	found := false
	for _, alias := range e.Aliases {
		if alias == "Curiosity Baby" {
			found = true
		}
	}
	if !found {
		t.Fatalf("invented label not retained as alias: %v", e.Aliases)
	}
}

func TestDuplicateClaimsBothFlagged(t *testing.T) {
	checker := NewChecker(testLogger(t), snapshotWithPairs())

	a := bilingual("Moony", "尤妮佳")
	b := bilingual("Unicharm", "尤妮佳")
	checker.Check([]*consolidate.Entity{a, b})

	if a.ReviewFlag != types.ReviewFlagConflictingAlias {
		t.Fatalf("first entity flag = %q, want conflicting_alias", a.ReviewFlag)
	}
	if b.ReviewFlag != types.ReviewFlagConflictingAlias {
		t.Fatalf("second entity flag = %q, want conflicting_alias", b.ReviewFlag)
	}
}

func TestMonolingualEntitySkipped(t *testing.T) {
	checker := NewChecker(testLogger(t), snapshotWithPairs())

	e := &consolidate.Entity{Label: "Kleenex", EnglishLabel: "Kleenex", EntityType: types.EntityTypeBrand}
	results := checker.Check([]*consolidate.Entity{e})
	if results[0].Outcome != OutcomeSkipped {
		t.Fatalf("outcome = %q, want skipped", results[0].Outcome)
	}
	if e.ReviewFlag != types.ReviewFlagNone {
		t.Fatalf("review flag = %q, want none", e.ReviewFlag)
	}
}
