package gate

import (
	"strings"

	"github.com/marketlens/brandscope-backend/internal/consolidate"
	"github.com/marketlens/brandscope-backend/internal/knowledge"
	"github.com/marketlens/brandscope-backend/internal/logger"
)

// Decision explains why the gate accepted or rejected one entity.
type Decision struct {
	Entity   *consolidate.Entity
	Accepted bool
	Reason   string
}

const (
	ReasonKeywordNearMention = "keyword_near_mention"
	ReasonKeywordInEvidence  = "keyword_in_evidence"
	ReasonPreviouslyRejected = "previously_rejected"
	ReasonOffVertical        = "off_vertical"
)

type Config struct {
	// ProximityWindow is the maximum rune distance between a mention and a
	// vertical keyword for the keyword to count as evidence.
	ProximityWindow int
	// SeedKeywords come from the vertical's calibration file; the snapshot's
	// validated vocabulary is merged in at construction.
	SeedKeywords []string
}

func DefaultConfig() Config {
	return Config{ProximityWindow: 120}
}

// Gate filters consolidated entities down to those plausibly relevant to the
// vertical. An entity passes when a vertical keyword appears near one of its
// mentions in evidence text; previously rejected names fail immediately.
type Gate struct {
	log      *logger.Logger
	snapshot *knowledge.Snapshot
	keywords []string
	window   int
}

func New(baseLog *logger.Logger, snapshot *knowledge.Snapshot, cfg Config) *Gate {
	seen := map[string]struct{}{}
	var keywords []string
	add := func(word string) {
		word = strings.ToLower(strings.TrimSpace(word))
		if word == "" {
			return
		}
		if _, ok := seen[word]; ok {
			return
		}
		seen[word] = struct{}{}
		keywords = append(keywords, word)
	}
	for _, w := range cfg.SeedKeywords {
		add(w)
	}
	if snapshot != nil {
		for _, w := range snapshot.Vocabulary() {
			add(w)
		}
	}
	window := cfg.ProximityWindow
	if window <= 0 {
		window = DefaultConfig().ProximityWindow
	}
	return &Gate{
		log:      baseLog.With("component", "RelevanceGate"),
		snapshot: snapshot,
		keywords: keywords,
		window:   window,
	}
}

// Evaluate decides every entity and mutates RelevanceAccepted implicitly via
// the caller (the gate itself only reports; persistence stays upstream).
// With no keywords configured the gate is inert and accepts everything.
func (g *Gate) Evaluate(entities []*consolidate.Entity) []Decision {
	decisions := make([]Decision, 0, len(entities))
	for _, e := range entities {
		decisions = append(decisions, g.evaluateOne(e))
	}
	return decisions
}

func (g *Gate) evaluateOne(e *consolidate.Entity) Decision {
	if g.snapshot != nil && g.rejectedBefore(e) {
		return Decision{Entity: e, Accepted: false, Reason: ReasonPreviouslyRejected}
	}
	if len(g.keywords) == 0 {
		return Decision{Entity: e, Accepted: true, Reason: ReasonKeywordInEvidence}
	}
	weak := false
	for _, cand := range e.Members {
		snippet := strings.ToLower(cand.EvidenceSnippet)
		if snippet == "" {
			continue
		}
		mention := strings.ToLower(strings.TrimSpace(cand.RawName))
		switch g.matchSnippet(snippet, mention) {
		case matchNear:
			return Decision{Entity: e, Accepted: true, Reason: ReasonKeywordNearMention}
		case matchWeak:
			weak = true
		}
	}
	if weak {
		return Decision{Entity: e, Accepted: true, Reason: ReasonKeywordInEvidence}
	}
	return Decision{Entity: e, Accepted: false, Reason: ReasonOffVertical}
}

func (g *Gate) rejectedBefore(e *consolidate.Entity) bool {
	if g.snapshot.IsRejected(e.Label) {
		return true
	}
	for _, alias := range e.Aliases {
		if g.snapshot.IsRejected(alias) {
			return true
		}
	}
	return false
}

type matchKind int

const (
	matchNone matchKind = iota
	matchWeak
	matchNear
)

// matchSnippet looks for a keyword within the proximity window of the
// mention. When the mention is present, only in-window keywords count: a
// keyword elsewhere in the snippet is no evidence for this mention. When the
// snippet never contains the mention string, no window exists; a keyword
// anywhere is weak evidence, since the snippet was extracted for this
// candidate in the first place.
func (g *Gate) matchSnippet(snippet, mention string) matchKind {
	mentionAt := -1
	if mention != "" {
		if i := strings.Index(snippet, mention); i >= 0 {
			mentionAt = runeOffset(snippet, i)
		}
	}
	kind := matchNone
	for _, keyword := range g.keywords {
		byteIdx := 0
		for {
			i := strings.Index(snippet[byteIdx:], keyword)
			if i < 0 {
				break
			}
			abs := byteIdx + i
			if mentionAt >= 0 {
				distance := runeOffset(snippet, abs) - mentionAt
				if distance < 0 {
					distance = -distance
				}
				if distance <= g.window {
					return matchNear
				}
			} else {
				kind = matchWeak
			}
			byteIdx = abs + len(keyword)
		}
	}
	return kind
}

// runeOffset converts a byte index into a rune offset so distances are
// script-independent.
func runeOffset(s string, byteIdx int) int {
	return len([]rune(s[:byteIdx]))
}
