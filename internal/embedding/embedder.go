package embedding

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/marketlens/brandscope-backend/internal/logger"
	"github.com/marketlens/brandscope-backend/internal/normalize"
)

// EmbedClient is the provider call this package needs. Satisfied by
// clients/openai.Client.
type EmbedClient interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

// VectorCache is an optional durable cache; a nil cache degrades to the
// in-process map only. Satisfied by clients/redis.VectorCache.
type VectorCache interface {
	Get(ctx context.Context, key string) ([]float32, bool, error)
	Set(ctx context.Context, key string, vec []float32, ttl time.Duration) error
}

type Config struct {
	CacheTTL time.Duration
}

func DefaultConfig() Config {
	return Config{CacheTTL: 7 * 24 * time.Hour}
}

// Embedder computes cosine similarity between surface forms, caching vectors
// per normalized key. Brand vocabularies repeat heavily across runs, so the
// cache absorbs most of the provider traffic.
type Embedder struct {
	log    *logger.Logger
	client EmbedClient
	cache  VectorCache
	cfg    Config

	mu    sync.RWMutex
	local map[string][]float32
}

func NewEmbedder(baseLog *logger.Logger, client EmbedClient, cache VectorCache, cfg Config) *Embedder {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultConfig().CacheTTL
	}
	return &Embedder{
		log:    baseLog.With("component", "Embedder"),
		client: client,
		cache:  cache,
		cfg:    cfg,
		local:  map[string][]float32{},
	}
}

// Similarity returns the cosine similarity of the two surface forms in
// [-1, 1]. Both vectors resolve through the cache; only misses hit the
// provider, batched into a single call.
func (e *Embedder) Similarity(ctx context.Context, a, b string) (float64, error) {
	vecs, err := e.vectors(ctx, []string{a, b})
	if err != nil {
		return 0, err
	}
	return cosine(vecs[0], vecs[1])
}

func (e *Embedder) vectors(ctx context.Context, surfaces []string) ([][]float32, error) {
	out := make([][]float32, len(surfaces))
	var missing []int
	for i, surface := range surfaces {
		key := cacheKey(surface)
		if vec := e.lookup(ctx, key); vec != nil {
			out[i] = vec
			continue
		}
		missing = append(missing, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	inputs := make([]string, len(missing))
	for j, i := range missing {
		inputs[j] = surfaces[i]
	}
	fetched, err := e.client.Embed(ctx, inputs)
	if err != nil {
		return nil, fmt.Errorf("embed %d surfaces: %w", len(inputs), err)
	}
	if len(fetched) != len(inputs) {
		return nil, fmt.Errorf("embed returned %d vectors for %d inputs", len(fetched), len(inputs))
	}
	for j, i := range missing {
		out[i] = fetched[j]
		e.store(ctx, cacheKey(surfaces[i]), fetched[j])
	}
	return out, nil
}

func (e *Embedder) lookup(ctx context.Context, key string) []float32 {
	e.mu.RLock()
	vec, ok := e.local[key]
	e.mu.RUnlock()
	if ok {
		return vec
	}
	if e.cache == nil {
		return nil
	}
	vec, found, err := e.cache.Get(ctx, key)
	if err != nil {
		// Cache trouble never fails a similarity check.
		e.log.Debug("Vector cache read failed", "key", key, "error", err)
		return nil
	}
	if !found {
		return nil
	}
	e.mu.Lock()
	e.local[key] = vec
	e.mu.Unlock()
	return vec
}

func (e *Embedder) store(ctx context.Context, key string, vec []float32) {
	e.mu.Lock()
	e.local[key] = vec
	e.mu.Unlock()
	if e.cache == nil {
		return
	}
	if err := e.cache.Set(ctx, key, vec, e.cfg.CacheTTL); err != nil {
		e.log.Debug("Vector cache write failed", "key", key, "error", err)
	}
}

func cacheKey(surface string) string {
	if key := normalize.Key(surface); key != "" {
		return key
	}
	return surface
}

func cosine(a, b []float32) (float64, error) {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0, fmt.Errorf("cosine: vector lengths %d and %d", len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, fmt.Errorf("cosine: zero vector")
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
