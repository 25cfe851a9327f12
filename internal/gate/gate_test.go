package gate

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

func entityWithEvidence(name, evidence string) *consolidate.Entity {
	return &consolidate.Entity{
		Label:      name,
		EntityType: types.EntityTypeBrand,
		Members: []*types.Candidate{{
			ID:              uuid.New(),
			RawName:         name,
			EntityType:      types.EntityTypeBrand,
			EvidenceSnippet: evidence,
		}},
	}
}

func babyGate(t *testing.T, snap *knowledge.Snapshot) *Gate {
	t.Helper()
	return New(testLogger(t), snap, Config{
		ProximityWindow: 40,
		SeedKeywords:    []string{"diaper", "diapers", "纸尿裤"},
	})
}

func TestKeywordNearMentionAccepts(t *testing.T) {
	g := babyGate(t, knowledge.NewSnapshot(uuid.New(), 0, knowledge.SnapshotData{}))
	e := entityWithEvidence("Pampers", "Pampers diapers are among the most recommended for newborns.")
	decisions := g.Evaluate([]*consolidate.Entity{e})
	if !decisions[0].Accepted {
		t.Fatalf("expected accept, got reason %q", decisions[0].Reason)
	}
	if decisions[0].Reason != ReasonKeywordNearMention {
		t.Fatalf("reason = %q, want keyword_near_mention", decisions[0].Reason)
	}
}

func TestNoKeywordRejectsOffVertical(t *testing.T) {
	g := babyGate(t, knowledge.NewSnapshot(uuid.New(), 0, knowledge.SnapshotData{}))
	e := entityWithEvidence("Kleenex", "Kleenex facial tissue is a household staple in many regions.")
	decisions := g.Evaluate([]*consolidate.Entity{e})
	if decisions[0].Accepted {
		t.Fatalf("expected rejection for off-vertical entity")
	}
	if decisions[0].Reason != ReasonOffVertical {
		t.Fatalf("reason = %q, want off_vertical", decisions[0].Reason)
	}
}

func TestChineseKeywordProximityCountsRunes(t *testing.T) {
	g := babyGate(t, knowledge.NewSnapshot(uuid.New(), 0, knowledge.SnapshotData{}))
	e := entityWithEvidence("好奇", "好奇的纸尿裤在妈妈社区里口碑很好。")
	decisions := g.Evaluate([]*consolidate.Entity{e})
	if !decisions[0].Accepted || decisions[0].Reason != ReasonKeywordNearMention {
		t.Fatalf("accepted=%v reason=%q, want near-mention accept", decisions[0].Accepted, decisions[0].Reason)
	}
}

func TestKeywordOutsideWindowRejects(t *testing.T) {
	g := New(testLogger(t), knowledge.NewSnapshot(uuid.New(), 0, knowledge.SnapshotData{}), Config{
		ProximityWindow: 10,
		SeedKeywords:    []string{"diapers"},
	})
	evidence := "Pampers was mentioned once. " +
		"Much later in an unrelated paragraph the author finally talks about diapers."
	e := entityWithEvidence("Pampers", evidence)
	decisions := g.Evaluate([]*consolidate.Entity{e})
	if decisions[0].Accepted {
		t.Fatalf("keyword ~60 runes from the mention must not pass a 10-rune window")
	}
	if decisions[0].Reason != ReasonOffVertical {
		t.Fatalf("reason = %q, want off_vertical", decisions[0].Reason)
	}
}

func TestKeywordCountsWhenMentionAbsentFromSnippet(t *testing.T) {
	g := New(testLogger(t), knowledge.NewSnapshot(uuid.New(), 0, knowledge.SnapshotData{}), Config{
		ProximityWindow: 10,
		SeedKeywords:    []string{"diapers"},
	})
	// The snippet was extracted for this candidate but paraphrases the name,
	// so no window can be measured. Keyword presence still counts, weakly.
	e := entityWithEvidence("Pampers", "The P&G flagship line of diapers leads the category.")
	decisions := g.Evaluate([]*consolidate.Entity{e})
	if !decisions[0].Accepted {
		t.Fatalf("expected weak-evidence accept for mention-free snippet")
	}
	if decisions[0].Reason != ReasonKeywordInEvidence {
		t.Fatalf("reason = %q, want keyword_in_evidence", decisions[0].Reason)
	}
}

func TestPreviouslyRejectedNameFailsImmediately(t *testing.T) {
	snap := knowledge.NewSnapshot(uuid.New(), 1, knowledge.SnapshotData{
		RejectedNames: []string{"Kleenex"},
	})
	g := babyGate(t, snap)
	e := entityWithEvidence("Kleenex", "Kleenex diapers are great.")
	decisions := g.Evaluate([]*consolidate.Entity{e})
	if decisions[0].Accepted {
		t.Fatalf("expected rejection via negative knowledge")
	}
	if decisions[0].Reason != ReasonPreviouslyRejected {
		t.Fatalf("reason = %q, want previously_rejected", decisions[0].Reason)
	}
}

func TestSnapshotVocabularyAugmentsKeywords(t *testing.T) {
	snap := knowledge.NewSnapshot(uuid.New(), 1, knowledge.SnapshotData{
		Vocabulary: []string{"stroller"},
	})
	g := New(testLogger(t), snap, Config{ProximityWindow: 40})
	e := entityWithEvidence("Bugaboo", "The Bugaboo stroller line dominates the premium segment.")
	decisions := g.Evaluate([]*consolidate.Entity{e})
	if !decisions[0].Accepted {
		t.Fatalf("expected accept via snapshot vocabulary keyword")
	}
}

func TestEmptyKeywordSetIsInert(t *testing.T) {
	g := New(testLogger(t), knowledge.NewSnapshot(uuid.New(), 0, knowledge.SnapshotData{}), Config{})
	e := entityWithEvidence("Anything", "no vertical signal at all")
	decisions := g.Evaluate([]*consolidate.Entity{e})
	if !decisions[0].Accepted {
		t.Fatalf("gate with no keywords must accept everything")
	}
}
