package knowledge

import (
	"github.com/google/uuid"

	"github.com/marketlens/brandscope-backend/internal/normalize"
	"github.com/marketlens/brandscope-backend/internal/types"
)

// PairOutcome classifies a (english, chinese) label pair against attested
// alias pairs.
type PairOutcome int

const (
	PairUnknown PairOutcome = iota
	PairKnown
	PairConflict
)

// SnapshotData is the raw material a snapshot is built from. Tests construct
// it directly; production code goes through Loader.
type SnapshotData struct {
	AliasPairs    []*types.AliasPair
	AliasGroups   map[string][]string // canonical label -> aliases
	RejectedNames []string
	Vocabulary    []string
	Exemplars     []*types.KnowledgeRecord
}

// Snapshot is an immutable per-job read view of the knowledge store.
// "Current knowledge" for a consolidation pass is always the snapshot taken
// at job start; concurrent writers never mutate it.
type Snapshot struct {
	verticalID uuid.UUID
	version    int64

	groupsByKey   map[string][]string // normalized key -> distinct canonical labels
	pairsByEnKey  map[string][]*types.AliasPair
	pairsByZhKey  map[string][]*types.AliasPair
	rejectedKeys  map[string]struct{}
	vocabulary    []string
	exemplars     []*types.KnowledgeRecord
}

func NewSnapshot(verticalID uuid.UUID, version int64, data SnapshotData) *Snapshot {
	s := &Snapshot{
		verticalID:   verticalID,
		version:      version,
		groupsByKey:  map[string][]string{},
		pairsByEnKey: map[string][]*types.AliasPair{},
		pairsByZhKey: map[string][]*types.AliasPair{},
		rejectedKeys: map[string]struct{}{},
		vocabulary:   append([]string(nil), data.Vocabulary...),
		exemplars:    append([]*types.KnowledgeRecord(nil), data.Exemplars...),
	}
	for canonical, aliases := range data.AliasGroups {
		s.indexGroupMember(canonical, canonical)
		for _, alias := range aliases {
			s.indexGroupMember(alias, canonical)
		}
	}
	for _, pair := range data.AliasPairs {
		enKey := normalize.Key(pair.English)
		zhKey := normalize.Key(pair.Chinese)
		if enKey != "" {
			s.pairsByEnKey[enKey] = append(s.pairsByEnKey[enKey], pair)
		}
		if zhKey != "" {
			s.pairsByZhKey[zhKey] = append(s.pairsByZhKey[zhKey], pair)
		}
		// An attested pair is also an alias group: both labels name the
		// same entity.
		if enKey != "" && zhKey != "" {
			s.indexGroupMember(pair.English, pair.English)
			s.indexGroupMember(pair.Chinese, pair.English)
		}
	}
	for _, name := range data.RejectedNames {
		if key := normalize.Key(name); key != "" {
			s.rejectedKeys[key] = struct{}{}
		}
	}
	return s
}

func (s *Snapshot) indexGroupMember(member, canonical string) {
	key := normalize.Key(member)
	if key == "" {
		return
	}
	for _, existing := range s.groupsByKey[key] {
		if existing == canonical {
			return
		}
	}
	s.groupsByKey[key] = append(s.groupsByKey[key], canonical)
}

func (s *Snapshot) VerticalID() uuid.UUID { return s.verticalID }
func (s *Snapshot) Version() int64        { return s.version }

// GroupsFor returns every distinct canonical label the name is a known alias
// of. More than one result means the name is ambiguous across alias groups.
// The lookup retries with corporate suffixes stripped.
func (s *Snapshot) GroupsFor(name string) []string {
	if groups := s.groupsByKey[normalize.Key(name)]; len(groups) > 0 {
		return groups
	}
	stripped := normalize.StripBrandSuffix(name)
	if stripped != "" && stripped != name {
		return s.groupsByKey[normalize.Key(stripped)]
	}
	return nil
}

// CanonicalFor resolves a name to its single known canonical label. The
// second return is false when the name is unknown or ambiguous.
func (s *Snapshot) CanonicalFor(name string) (string, bool) {
	groups := s.GroupsFor(name)
	if len(groups) == 1 {
		return groups[0], true
	}
	return "", false
}

// CheckPair classifies an (english, chinese) label pair. On PairConflict the
// returned pair is the attested one contradicting the candidate pair.
func (s *Snapshot) CheckPair(english, chinese string) (PairOutcome, *types.AliasPair) {
	enKey := normalize.Key(english)
	zhKey := normalize.Key(chinese)
	if enKey == "" || zhKey == "" {
		return PairUnknown, nil
	}
	for _, pair := range s.pairsByEnKey[enKey] {
		if normalize.Key(pair.Chinese) == zhKey {
			return PairKnown, pair
		}
	}
	// The chinese label is attested against a different english label: the
	// candidate's english side is the invented one (or vice versa).
	if pairs := s.pairsByZhKey[zhKey]; len(pairs) > 0 {
		return PairConflict, pairs[0]
	}
	if pairs := s.pairsByEnKey[enKey]; len(pairs) > 0 {
		return PairConflict, pairs[0]
	}
	return PairUnknown, nil
}

// IsRejected reports whether the name was previously rejected for this
// vertical (negative knowledge from earlier runs).
func (s *Snapshot) IsRejected(name string) bool {
	_, ok := s.rejectedKeys[normalize.Key(name)]
	return ok
}

// Vocabulary returns validated category vocabulary used to augment the
// relevance gate's keyword set.
func (s *Snapshot) Vocabulary() []string {
	return s.vocabulary
}

// Exemplars returns records eligible as few-shot exemplars for judge calls.
func (s *Snapshot) Exemplars() []*types.KnowledgeRecord {
	return s.exemplars
}
