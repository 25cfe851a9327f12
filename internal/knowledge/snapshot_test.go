package knowledge

import (
	"testing"

	"github.com/google/uuid"

	"github.com/marketlens/brandscope-backend/internal/types"
)

func TestGroupsForResolvesAliasesAndSuffixes(t *testing.T) {
	snap := NewSnapshot(uuid.New(), 3, SnapshotData{
		AliasGroups: map[string][]string{
			"Ford": {"Ford Motor"},
		},
	})

	for _, name := range []string{"Ford", "ford", "Ford Motor", "Ford Motor Company"} {
		groups := snap.GroupsFor(name)
		if len(groups) != 1 || groups[0] != "Ford" {
			t.Fatalf("GroupsFor(%q) = %v, want [Ford]", name, groups)
		}
	}
	if groups := snap.GroupsFor("Toyota"); groups != nil {
		t.Fatalf("GroupsFor unknown = %v, want nil", groups)
	}
}

func TestCanonicalForAmbiguousName(t *testing.T) {
	snap := NewSnapshot(uuid.New(), 1, SnapshotData{
		AliasGroups: map[string][]string{
			"Alpha Motors":  {"AM"},
			"Apex Mobility": {"AM"},
		},
	})
	if _, ok := snap.CanonicalFor("AM"); ok {
		t.Fatalf("ambiguous name must not resolve")
	}
	if canonical, ok := snap.CanonicalFor("Alpha Motors"); !ok || canonical != "Alpha Motors" {
		t.Fatalf("CanonicalFor(Alpha Motors) = %q, %v", canonical, ok)
	}
}

func TestCheckPairOutcomes(t *testing.T) {
	snap := NewSnapshot(uuid.New(), 1, SnapshotData{
		AliasPairs: []*types.AliasPair{
			{English: "Huggies", Chinese: "好奇"},
		},
	})

	outcome, _ := snap.CheckPair("Huggies", "好奇")
	if outcome != PairKnown {
		t.Fatalf("attested pair outcome = %v, want known", outcome)
	}

	outcome, attested := snap.CheckPair("Curiosity Baby", "好奇")
	if outcome != PairConflict {
		t.Fatalf("contradicted pair outcome = %v, want conflict", outcome)
	}
	if attested == nil || attested.English != "Huggies" {
		t.Fatalf("attested = %+v, want the Huggies pair", attested)
	}

	outcome, _ = snap.CheckPair("Pampers", "帮宝适")
	if outcome != PairUnknown {
		t.Fatalf("unknown pair outcome = %v, want unknown", outcome)
	}
}

func TestAttestedPairActsAsAliasGroup(t *testing.T) {
	snap := NewSnapshot(uuid.New(), 1, SnapshotData{
		AliasPairs: []*types.AliasPair{
			{English: "Unicharm", Chinese: "尤妮佳"},
		},
	})
	canonical, ok := snap.CanonicalFor("尤妮佳")
	if !ok || canonical != "Unicharm" {
		t.Fatalf("CanonicalFor(尤妮佳) = %q, %v", canonical, ok)
	}
}

func TestIsRejectedNormalizesNames(t *testing.T) {
	snap := NewSnapshot(uuid.New(), 1, SnapshotData{
		RejectedNames: []string{"Kleenex"},
	})
	if !snap.IsRejected("KLEENEX") {
		t.Fatalf("case variant must count as rejected")
	}
	if snap.IsRejected("Pampers") {
		t.Fatalf("unrelated name flagged rejected")
	}
}
