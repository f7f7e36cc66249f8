package embedding

import (
	"context"
	"testing"
)

func TestEmbeddingCache_GetSet(t *testing.T) {
	c := NewEmbeddingCache(2)
	if v, ok := c.Get("a"); ok || v != nil {
		t.Fatal("expected miss")
	}
	c.Set("a", []float32{1, 2, 3})
	v, ok := c.Get("a")
	if !ok || len(v) != 3 || v[0] != 1 {
		t.Errorf("Get: got %v, %v", v, ok)
	}
	c.Set("b", []float32{4, 5})
	c.Set("c", []float32{6}) // evicts a
	if _, ok := c.Get("a"); ok {
		t.Error("expected a to be evicted")
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("expected b to remain")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("expected c to be present")
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

type countingEmbedder struct {
	*MockEmbedder
	calls int
}

func (e *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls++
	return e.MockEmbedder.Embed(ctx, text)
}

func TestCachedEmbedder(t *testing.T) {
	base := &countingEmbedder{MockEmbedder: NewMockEmbedder(4)}
	c := NewCachedEmbedder(base, 10)
	ctx := context.Background()

	first, err := c.Embed(ctx, "red shoes")
	if err != nil {
		t.Fatal(err)
	}
	first[0] = 99 // must not leak into the cache

	second, err := c.Embed(ctx, "red shoes")
	if err != nil {
		t.Fatal(err)
	}
	if base.calls != 1 {
		t.Errorf("base calls = %d, want 1", base.calls)
	}
	if second[0] == 99 {
		t.Error("cached vector was mutated through a returned slice")
	}
	if c.Dimensions() != 4 {
		t.Errorf("Dimensions() = %d", c.Dimensions())
	}

	batch, err := c.EmbedBatch(ctx, []string{"red shoes", "blue hat"})
	if err != nil {
		t.Fatal(err)
	}
	if len(batch) != 2 || base.calls != 2 {
		t.Errorf("batch len=%d calls=%d", len(batch), base.calls)
	}
}
