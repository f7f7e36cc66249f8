package utils

import (
	"math"
	"testing"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		s      string
		maxLen int
		want   string
	}{
		{"short", "hello", 10, "hello"},
		{"long", "hello world", 5, "hello..."},
		{"zero", "x", 0, "x"},
		{"negative", "ab", -1, "ab"},
		{"multibyte", "héllo wörld", 4, "héll..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.s, tt.maxLen); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.s, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestTruncateWords(t *testing.T) {
	tests := []struct {
		s        string
		maxWords int
		want     string
	}{
		{"", 3, ""},
		{"one two", 3, "one two"},
		{"one two three four", 3, "one two three..."},
		{"one two", 0, "one two"},
	}
	for _, tt := range tests {
		if got := TruncateWords(tt.s, tt.maxWords); got != tt.want {
			t.Errorf("TruncateWords(%q, %d) = %q, want %q", tt.s, tt.maxWords, got, tt.want)
		}
	}
}

func TestSingleLine(t *testing.T) {
	if got := SingleLine("  leather\nrunning \t shoes "); got != "leather running shoes" {
		t.Errorf("SingleLine = %q", got)
	}
}

func TestNormalizeL2(t *testing.T) {
	x := []float32{3, 4}
	NormalizeL2(x)
	if math.Abs(float64(x[0])-0.6) > 1e-6 || math.Abs(float64(x[1])-0.8) > 1e-6 {
		t.Errorf("NormalizeL2 = %v", x)
	}
	zero := []float32{0, 0}
	NormalizeL2(zero)
	if zero[0] != 0 || zero[1] != 0 {
		t.Errorf("zero vector changed: %v", zero)
	}
}
