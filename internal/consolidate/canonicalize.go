package consolidate

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/marketlens/brandscope-backend/internal/knowledge"
	"github.com/marketlens/brandscope-backend/internal/logger"
	"github.com/marketlens/brandscope-backend/internal/normalize"
	"github.com/marketlens/brandscope-backend/internal/types"
)

// Embedder supplies cosine similarity between two surface forms. The
// canonicalizer only consumes scores; computing embeddings is the
// collaborator's concern.
type Embedder interface {
	Similarity(ctx context.Context, a, b string) (float64, error)
}

type Config struct {
	// EmbedSimilarityThreshold is the minimum cosine similarity for an
	// embedding-based merge. Calibration parameter, never hardcoded per
	// vertical.
	EmbedSimilarityThreshold float64
	EmbedTimeout             time.Duration
	EmbedConcurrency         int
	// MaxEmbedPairs caps the number of pairwise similarity lookups per
	// pass to bound judge-run cost on very noisy inputs.
	MaxEmbedPairs int
}

func DefaultConfig() Config {
	return Config{
		EmbedSimilarityThreshold: 0.88,
		EmbedTimeout:             2500 * time.Millisecond,
		EmbedConcurrency:         8,
		MaxEmbedPairs:            2000,
	}
}

// Entity is one consolidated component before persistence.
type Entity struct {
	Label           string
	EnglishLabel    string
	ChineseLabel    string
	EntityType      types.EntityType
	Aliases         []string
	Members         []*types.Candidate
	ReviewFlag      string
	MergeConfidence string
}

// Canonicalizer merges a run's candidates into the minimal set of canonical
// entities via a cascading match policy: exact key, substring containment,
// known alias lookup, then embedding similarity. Merges never cross entity
// type and never involve an empty normalized key.
type Canonicalizer struct {
	log      *logger.Logger
	snapshot *knowledge.Snapshot
	embedder Embedder
	cfg      Config
}

func NewCanonicalizer(baseLog *logger.Logger, snapshot *knowledge.Snapshot, embedder Embedder, cfg Config) *Canonicalizer {
	return &Canonicalizer{
		log:      baseLog.With("component", "Canonicalizer"),
		snapshot: snapshot,
		embedder: embedder,
		cfg:      cfg,
	}
}

// Consolidate collapses the full candidate set of one job. Candidates whose
// normalized key is empty carry no usable signal and are dropped (they are
// recorded upstream as extraction noise).
func (c *Canonicalizer) Consolidate(ctx context.Context, candidates []*types.Candidate) ([]*Entity, error) {
	byType := map[types.EntityType][]*types.Candidate{}
	for _, cand := range candidates {
		byType[cand.EntityType] = append(byType[cand.EntityType], cand)
	}
	var out []*Entity
	// Deterministic type order keeps re-runs comparable.
	for _, entityType := range []types.EntityType{types.EntityTypeBrand, types.EntityTypeProduct} {
		group := byType[entityType]
		if len(group) == 0 {
			continue
		}
		entities, err := c.consolidateType(ctx, entityType, group)
		if err != nil {
			return nil, err
		}
		out = append(out, entities...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EntityType != out[j].EntityType {
			return out[i].EntityType < out[j].EntityType
		}
		return out[i].Label < out[j].Label
	})
	return out, nil
}

type member struct {
	key        string
	surfaces   map[string]struct{}
	candidates []*types.Candidate
}

func (c *Canonicalizer) consolidateType(ctx context.Context, entityType types.EntityType, candidates []*types.Candidate) ([]*Entity, error) {
	uf := newUnionFind()
	members := map[string]*member{}
	ambiguous := map[string]struct{}{} // roots flagged ambiguous_merge_conflict (by any member key)

	addSurface := func(key, surface string, cand *types.Candidate) {
		m, ok := members[key]
		if !ok {
			m = &member{key: key, surfaces: map[string]struct{}{}}
			members[key] = m
			uf.add(key)
		}
		m.surfaces[surface] = struct{}{}
		if cand != nil {
			m.candidates = append(m.candidates, cand)
		}
	}

	dropped := 0
	for _, cand := range candidates {
		key := normalize.Key(cand.RawName)
		if key == "" {
			dropped++
			continue
		}
		addSurface(key, strings.TrimSpace(cand.RawName), cand)
		// Parenthetical segments ride along as aliases of the same mention:
		// "Unicharm (尤妮佳)" binds 尤妮佳 to unicharm.
		for _, alias := range normalize.Parentheticals(cand.RawName) {
			aliasKey := normalize.Key(alias)
			if aliasKey == "" || aliasKey == key {
				continue
			}
			addSurface(aliasKey, alias, nil)
			uf.union(key, aliasKey, RuleExact)
		}
	}
	if dropped > 0 {
		c.log.Debug("Dropped candidates with empty normalized key", "entity_type", entityType, "count", dropped)
	}

	keys := make([]string, 0, len(members))
	for key := range members {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	// Substring containment: the shorter key's surface is the better label.
	for i, a := range keys {
		for _, b := range keys[i+1:] {
			if len(a) == len(b) {
				continue
			}
			short, long := a, b
			if len(short) > len(long) {
				short, long = long, short
			}
			if strings.Contains(long, short) {
				uf.union(short, long, RuleSubstring)
			}
		}
	}

	// Known alias lookup: keys resolving into the same alias group merge
	// regardless of surface similarity. A key matching several distinct
	// groups transitively unions them and is flagged, never silently
	// tie-broken.
	for _, key := range keys {
		groups := c.lookupGroups(members[key])
		if len(groups) == 0 {
			continue
		}
		if len(groups) > 1 {
			ambiguous[key] = struct{}{}
		}
		for _, canonical := range groups {
			canonicalKey := normalize.Key(canonical)
			if canonicalKey == "" {
				continue
			}
			addSurface(canonicalKey, canonical, nil)
			uf.union(key, canonicalKey, RuleAlias)
		}
	}

	// Embedding similarity is the only step that touches the network: the
	// remaining unmerged pairs go through a bounded pool with per-call
	// timeouts, and any failure skips the merge (fail toward splitting).
	if c.embedder != nil {
		c.embeddingMerges(ctx, uf, members, keys)
	}

	var out []*Entity
	for _, componentKeys := range uf.components() {
		sort.Strings(componentKeys)
		entity := c.buildEntity(entityType, uf, members, componentKeys)
		if entity == nil {
			continue
		}
		for _, key := range componentKeys {
			if _, ok := ambiguous[key]; ok {
				entity.ReviewFlag = types.ReviewFlagAmbiguousMerge
				break
			}
		}
		out = append(out, entity)
	}
	return out, nil
}

func (c *Canonicalizer) lookupGroups(m *member) []string {
	if c.snapshot == nil {
		return nil
	}
	seen := map[string]struct{}{}
	var out []string
	for surface := range m.surfaces {
		for _, canonical := range c.snapshot.GroupsFor(surface) {
			if _, ok := seen[canonical]; ok {
				continue
			}
			seen[canonical] = struct{}{}
			out = append(out, canonical)
		}
	}
	sort.Strings(out)
	return out
}

type simPair struct {
	a, b  string
	score float64
	ok    bool
}

func (c *Canonicalizer) embeddingMerges(ctx context.Context, uf *unionFind, members map[string]*member, keys []string) {
	var pairs []*simPair
	for i, a := range keys {
		for _, b := range keys[i+1:] {
			if uf.sameSet(a, b) {
				continue
			}
			pairs = append(pairs, &simPair{a: a, b: b})
			if c.cfg.MaxEmbedPairs > 0 && len(pairs) >= c.cfg.MaxEmbedPairs {
				break
			}
		}
		if c.cfg.MaxEmbedPairs > 0 && len(pairs) >= c.cfg.MaxEmbedPairs {
			c.log.Warn("Embedding pair budget exhausted, remaining pairs stay split", "budget", c.cfg.MaxEmbedPairs)
			break
		}
	}
	if len(pairs) == 0 {
		return
	}

	concurrency := c.cfg.EmbedConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, pair := range pairs {
		pair := pair
		g.Go(func() error {
			callCtx := gctx
			var cancel context.CancelFunc
			if c.cfg.EmbedTimeout > 0 {
				callCtx, cancel = context.WithTimeout(gctx, c.cfg.EmbedTimeout)
				defer cancel()
			}
			surfaceA := anySurface(members[pair.a])
			surfaceB := anySurface(members[pair.b])
			score, err := c.embedder.Similarity(callCtx, surfaceA, surfaceB)
			if err != nil {
				// Skipping the merge is the safe degradation: the gate can
				// still reject the duplicate downstream.
				c.log.Debug("Similarity lookup failed, skipping merge", "a", surfaceA, "b", surfaceB, "error", err)
				return nil
			}
			mu.Lock()
			pair.score = score
			pair.ok = true
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	// Apply merges serially: the union-find is single-writer.
	for _, pair := range pairs {
		if pair.ok && pair.score >= c.cfg.EmbedSimilarityThreshold {
			uf.union(pair.a, pair.b, RuleEmbedding)
		}
	}
}

func anySurface(m *member) string {
	if m == nil {
		return ""
	}
	surfaces := make([]string, 0, len(m.surfaces))
	for s := range m.surfaces {
		surfaces = append(surfaces, s)
	}
	sort.Strings(surfaces)
	if len(surfaces) == 0 {
		return ""
	}
	return surfaces[0]
}

func (c *Canonicalizer) buildEntity(entityType types.EntityType, uf *unionFind, members map[string]*member, componentKeys []string) *Entity {
	var candidates []*types.Candidate
	surfaceSet := map[string]struct{}{}
	for _, key := range componentKeys {
		m := members[key]
		if m == nil {
			continue
		}
		candidates = append(candidates, m.candidates...)
		for s := range m.surfaces {
			surfaceSet[s] = struct{}{}
		}
	}
	// Every canonical entity needs at least one member candidate;
	// alias-only components (e.g. a knowledge canonical nobody mentioned)
	// are not entities.
	if len(candidates) == 0 {
		return nil
	}

	surfaces := make([]string, 0, len(surfaceSet))
	for s := range surfaceSet {
		surfaces = append(surfaces, s)
	}
	sort.Strings(surfaces)

	label := c.chooseLabel(surfaces)
	entity := &Entity{
		Label:           label,
		EnglishLabel:    chooseScriptLabel(surfaces, normalize.EnglishPart),
		ChineseLabel:    chooseScriptLabel(surfaces, normalize.ChinesePart),
		EntityType:      entityType,
		Members:         candidates,
		MergeConfidence: types.MergeConfidenceHigh,
	}
	for _, s := range surfaces {
		if s != label {
			entity.Aliases = append(entity.Aliases, s)
		}
	}
	if uf.ruleSpan(componentKeys[0]) > 1 {
		entity.MergeConfidence = types.MergeConfidenceLow
	}
	return entity
}

// chooseLabel prefers the shortest surface with a recognized script, then
// falls back to a label attested in the knowledge store.
func (c *Canonicalizer) chooseLabel(surfaces []string) string {
	best := ""
	for _, s := range surfaces {
		if !normalize.HasLatin(s) && !normalize.HasChinese(s) {
			continue
		}
		if best == "" || labelLess(s, best) {
			best = s
		}
	}
	if best != "" {
		return best
	}
	if c.snapshot != nil {
		for _, s := range surfaces {
			if canonical, ok := c.snapshot.CanonicalFor(s); ok {
				return canonical
			}
		}
	}
	if len(surfaces) > 0 {
		return surfaces[0]
	}
	return ""
}

// labelLess orders label candidates by normalized length, then raw length,
// then case-folded text, so "Ford" beats "Ford Motor Company of Canada".
func labelLess(a, b string) bool {
	ka, kb := normalize.Key(a), normalize.Key(b)
	if len(ka) != len(kb) {
		return len(ka) < len(kb)
	}
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return strings.ToLower(a) < strings.ToLower(b)
}

func chooseScriptLabel(surfaces []string, extract func(string) string) string {
	best := ""
	for _, s := range surfaces {
		part := extract(s)
		if part == "" {
			continue
		}
		if best == "" || labelLess(part, best) {
			best = part
		}
	}
	return best
}
