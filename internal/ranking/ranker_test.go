package ranking

import (
	"context"
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"github.com/hyperjump/etalase/internal/embedding"
	"github.com/hyperjump/etalase/internal/models"
	"github.com/hyperjump/etalase/internal/vector"
)

func buildIndex(t *testing.T, vecs map[string][]float32, order ...string) *vector.Index {
	t.Helper()
	items := make([]*models.Item, len(order))
	for i, id := range order {
		items[i] = &models.Item{ID: models.ItemID(id), Name: id}
	}
	idx, err := vector.Build(context.Background(), items, func(_ context.Context, it *models.Item) ([]float32, error) {
		return vecs[it.ID.String()], nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return idx
}

func TestRanker_Rank(t *testing.T) {
	idx := buildIndex(t, map[string][]float32{
		"a": {1, 0, 0},
		"b": {0.9, 0.1, 0},
		"c": {0, 1, 0},
	}, "a", "b", "c")

	got, err := NewRanker().Rank([]float32{1, 0, 0}, idx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Rank() = %v, want %v", got, want)
	}
}

func TestRanker_ResultLength(t *testing.T) {
	idx := buildIndex(t, map[string][]float32{
		"1": {1, 0}, "2": {0, 1}, "3": {1, 1},
	}, "1", "2", "3")
	r := NewRanker()

	tests := []struct {
		k    int
		want int
	}{
		{-1, 0},
		{0, 0},
		{1, 1},
		{3, 3},
		{10, 3},
	}
	for _, tt := range tests {
		got, err := r.Rank([]float32{1, 0}, idx, tt.k)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != tt.want {
			t.Errorf("k=%d: len = %d, want %d", tt.k, len(got), tt.want)
		}
	}
}

func TestRanker_EmptyIndex(t *testing.T) {
	idx := buildIndex(t, nil)
	got, err := NewRanker().Rank([]float32{1, 0}, idx, 5)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil result, got %v", got)
	}
	if got, _ := NewRanker().Rank([]float32{1}, nil, 5); len(got) != 0 {
		t.Errorf("nil index: %v", got)
	}
}

func TestRanker_NonIncreasingScores(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	vecs := make(map[string][]float32)
	var order []string
	for i := 0; i < 50; i++ {
		id := string(rune('A' + i%26)) + string(rune('a'+i/26))
		v := make([]float32, 8)
		for j := range v {
			v[j] = rng.Float32()*2 - 1
		}
		vecs[id] = v
		order = append(order, id)
	}
	idx := buildIndex(t, vecs, order...)
	query := []float32{0.5, -0.1, 0.3, 0.9, -0.7, 0.2, 0, 0.4}

	results, err := NewRanker().RankScored(query, idx, 20)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 20 {
		t.Fatalf("len = %d", len(results))
	}
	for i := 0; i+1 < len(results); i++ {
		if results[i].Score < results[i+1].Score {
			t.Fatalf("scores not sorted at %d: %f < %f", i, results[i].Score, results[i+1].Score)
		}
	}
}

func TestRanker_Deterministic(t *testing.T) {
	idx := buildIndex(t, map[string][]float32{
		"1": {1, 2}, "2": {2, 1}, "3": {1, 1}, "4": {-1, 0},
	}, "1", "2", "3", "4")
	r := NewRanker()
	first, _ := r.Rank([]float32{1, 1.5}, idx, 4)
	second, _ := r.Rank([]float32{1, 1.5}, idx, 4)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("rank not deterministic: %v vs %v", first, second)
	}
}

func TestRanker_TiesKeepIndexOrder(t *testing.T) {
	idx := buildIndex(t, map[string][]float32{
		"x": {0, 1}, "y": {0, 2}, "z": {0, 3}, "w": {1, 0},
	}, "x", "y", "z", "w")

	got, err := NewRanker().Rank([]float32{0, 1}, idx, 4)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"x", "y", "z", "w"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Rank() = %v, want %v", got, want)
	}
}

func TestRanker_ZeroQuery(t *testing.T) {
	idx := buildIndex(t, map[string][]float32{"1": {1, 0}, "2": {0, 1}}, "1", "2")
	results, err := NewRanker().RankScored([]float32{0, 0}, idx, 2)
	if err != nil {
		t.Fatal(err)
	}
	for _, res := range results {
		if res.Score != 0 {
			t.Errorf("zero query should score 0, got %f", res.Score)
		}
	}
	if results[0].ID != "1" {
		t.Errorf("all-zero scores should keep index order, got %v", results)
	}
}

func TestRanker_DimensionMismatch(t *testing.T) {
	idx := buildIndex(t, map[string][]float32{"1": {1, 0}}, "1")
	_, err := NewRanker().Rank([]float32{1, 0, 0}, idx, 1)
	if !errors.Is(err, vector.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRanker_RedShoesScenario(t *testing.T) {
	items := []*models.Item{
		{ID: "1", Name: "Red Shoes", Description: "leather running shoes", Tags: []string{"shoes", "red"}},
		{ID: "2", Name: "Blue Hat", Description: "wool hat", Tags: []string{"hat", "blue"}},
	}
	e := embedding.NewMockEmbedder(64)
	ctx := context.Background()
	idx, err := vector.Build(ctx, items, vector.EmbedWith(e))
	if err != nil {
		t.Fatal(err)
	}
	query, err := e.Embed(ctx, items[0].EmbeddingText())
	if err != nil {
		t.Fatal(err)
	}

	got, err := NewRanker().Rank(query, idx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"1"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Rank() = %v, want %v", got, want)
	}
}
