package vector

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"scaled", []float32{1, 2, 3}, []float32{2, 4, 6}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 1}, []float32{-1, -1}, -1},
		{"zero norm", []float32{0, 0, 0}, []float32{1, 2, 3}, 0},
		{"both zero", []float32{0, 0}, []float32{0, 0}, 0},
		{"empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CosineSimilarity(tt.a, tt.b)
			if err != nil {
				t.Fatal(err)
			}
			if math.IsNaN(got) {
				t.Fatal("similarity is NaN")
			}
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("CosineSimilarity() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestCosineSimilarity_Symmetric(t *testing.T) {
	a := []float32{0.3, -0.7, 0.1, 0.9}
	b := []float32{-0.2, 0.4, 0.8, 0.05}
	ab, _ := CosineSimilarity(a, b)
	ba, _ := CosineSimilarity(b, a)
	if ab != ba {
		t.Errorf("similarity not symmetric: %v vs %v", ab, ba)
	}
	if ab < -1 || ab > 1 {
		t.Errorf("similarity out of range: %v", ab)
	}
}

func TestCosineSimilarity_Range(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	randVec := func(dim int) []float32 {
		v := make([]float32, dim)
		for i := range v {
			v[i] = float32(rng.Float64()*2 - 1)
		}
		return v
	}
	for i := 0; i < 10000; i++ {
		a, b := randVec(8), randVec(8)
		self, err := CosineSimilarity(a, a)
		if err != nil {
			t.Fatal(err)
		}
		if self > 1 || self < 1-1e-6 {
			t.Fatalf("CosineSimilarity(a, a) = %v for %v", self, a)
		}
		neg := make([]float32, len(a))
		for j, v := range a {
			neg[j] = -v
		}
		if s, _ := CosineSimilarity(a, neg); s < -1 || s > -1+1e-6 {
			t.Fatalf("CosineSimilarity(a, -a) = %v for %v", s, a)
		}
		if s, _ := CosineSimilarity(a, b); s < -1 || s > 1 {
			t.Fatalf("CosineSimilarity = %v out of range for %v, %v", s, a, b)
		}
	}
}

func TestCosineSimilarity_DimensionMismatch(t *testing.T) {
	_, err := CosineSimilarity([]float32{1, 2}, []float32{1, 2, 3})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestL2Norm(t *testing.T) {
	if got := L2Norm([]float32{3, 4}); math.Abs(got-5) > 1e-9 {
		t.Errorf("L2Norm = %f, want 5", got)
	}
	if got := L2Norm(nil); got != 0 {
		t.Errorf("L2Norm(nil) = %f", got)
	}
}
