package embedding

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/marketlens/brandscope-backend/internal/logger"
)

type fakeEmbedClient struct {
	vectors map[string][]float32
	calls   int
}

func (f *fakeEmbedClient) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	f.calls++
	out := make([][]float32, len(inputs))
	for i, input := range inputs {
		vec, ok := f.vectors[input]
		if !ok {
			vec = []float32{1, 0, 0}
		}
		out[i] = vec
	}
	return out, nil
}

type fakeCache struct {
	data map[string][]float32
	sets int
}

func newFakeCache() *fakeCache { return &fakeCache{data: map[string][]float32{}} }

func (f *fakeCache) Get(_ context.Context, key string) ([]float32, bool, error) {
	vec, ok := f.data[key]
	return vec, ok, nil
}

func (f *fakeCache) Set(_ context.Context, key string, vec []float32, _ time.Duration) error {
	f.data[key] = vec
	f.sets++
	return nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func TestSimilarityCosine(t *testing.T) {
	client := &fakeEmbedClient{vectors: map[string][]float32{
		"VW":         {1, 0, 0},
		"Volkswagen": {0.9, 0.1, 0},
		"Kleenex":    {0, 1, 0},
	}}
	e := NewEmbedder(testLogger(t), client, nil, DefaultConfig())

	near, err := e.Similarity(context.Background(), "VW", "Volkswagen")
	if err != nil {
		t.Fatalf("similarity: %v", err)
	}
	if near < 0.98 {
		t.Fatalf("similar pair scored %v, want > 0.98", near)
	}

	far, err := e.Similarity(context.Background(), "VW", "Kleenex")
	if err != nil {
		t.Fatalf("similarity: %v", err)
	}
	if math.Abs(far) > 0.01 {
		t.Fatalf("orthogonal pair scored %v, want ~0", far)
	}
}

func TestRepeatLookupsServedFromCache(t *testing.T) {
	client := &fakeEmbedClient{vectors: map[string][]float32{}}
	e := NewEmbedder(testLogger(t), client, nil, DefaultConfig())

	if _, err := e.Similarity(context.Background(), "Pampers", "Huggies"); err != nil {
		t.Fatalf("first: %v", err)
	}
	if client.calls != 1 {
		t.Fatalf("calls = %d, want 1 batched call", client.calls)
	}
	if _, err := e.Similarity(context.Background(), "Pampers", "Huggies"); err != nil {
		t.Fatalf("second: %v", err)
	}
	if client.calls != 1 {
		t.Fatalf("calls = %d after repeat, want still 1", client.calls)
	}
}

func TestDurableCachePopulatedAndRead(t *testing.T) {
	cache := newFakeCache()
	client := &fakeEmbedClient{vectors: map[string][]float32{}}
	e := NewEmbedder(testLogger(t), client, cache, DefaultConfig())

	if _, err := e.Similarity(context.Background(), "Pampers", "Huggies"); err != nil {
		t.Fatalf("similarity: %v", err)
	}
	if cache.sets != 2 {
		t.Fatalf("cache sets = %d, want 2", cache.sets)
	}

	// A fresh embedder sharing the durable cache never calls the provider.
	client2 := &fakeEmbedClient{vectors: map[string][]float32{}}
	e2 := NewEmbedder(testLogger(t), client2, cache, DefaultConfig())
	if _, err := e2.Similarity(context.Background(), "Pampers", "Huggies"); err != nil {
		t.Fatalf("similarity: %v", err)
	}
	if client2.calls != 0 {
		t.Fatalf("provider calls = %d with warm cache, want 0", client2.calls)
	}
}

func TestSpacingVariantsShareCacheKey(t *testing.T) {
	client := &fakeEmbedClient{vectors: map[string][]float32{}}
	e := NewEmbedder(testLogger(t), client, nil, DefaultConfig())

	if _, err := e.Similarity(context.Background(), "Baby Care", "Pampers"); err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, err := e.Similarity(context.Background(), "Babycare", "Pampers"); err != nil {
		t.Fatalf("second: %v", err)
	}
	if client.calls != 1 {
		t.Fatalf("calls = %d, want 1 (variants share the normalized key)", client.calls)
	}
}
