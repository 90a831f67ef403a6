package vision

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a        []float32
		b        []float32
		expected float64
	}{
		{
			name:     "identical vectors",
			a:        []float32{1, 2, 3},
			b:        []float32{1, 2, 3},
			expected: 1.0,
		},
		{
			name:     "opposite vectors",
			a:        []float32{1, 0, 0},
			b:        []float32{-1, 0, 0},
			expected: -1.0,
		},
		{
			name:     "orthogonal vectors",
			a:        []float32{1, 0},
			b:        []float32{0, 1},
			expected: 0.0,
		},
		{
			name:     "mismatched lengths",
			a:        []float32{1, 2, 3},
			b:        []float32{1, 2},
			expected: 0.0,
		},
		{
			name:     "zero vector",
			a:        []float32{0, 0, 0},
			b:        []float32{1, 2, 3},
			expected: 0.0,
		},
		{
			name:     "empty vectors",
			a:        []float32{},
			b:        []float32{},
			expected: 0.0,
		},
		{
			name:     "scale invariant",
			a:        []float32{1, 2, 3},
			b:        []float32{10, 20, 30},
			expected: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CosineSimilarity(tt.a, tt.b)
			if math.Abs(result-tt.expected) > 1e-5 {
				t.Errorf("CosineSimilarity(%v, %v) = %v, want %v", tt.a, tt.b, result, tt.expected)
			}
		})
	}
}

func TestCosineSimilarity_Symmetric(t *testing.T) {
	a := []float32{0.3, -0.7, 0.2, 0.6}
	b := []float32{-0.1, 0.4, 0.9, -0.2}

	ab := CosineSimilarity(a, b)
	ba := CosineSimilarity(b, a)

	if math.Abs(ab-ba) > 1e-12 {
		t.Errorf("similarity not symmetric: sim(a,b)=%v sim(b,a)=%v", ab, ba)
	}
}

func TestCosineSimilarity_SelfIsOne(t *testing.T) {
	v := []float32{0.12, -0.53, 0.81, 0.02, -0.33}
	if sim := CosineSimilarity(v, v); math.Abs(sim-1.0) > 1e-5 {
		t.Errorf("self similarity = %v, want 1.0", sim)
	}
}

func TestL2Normalize(t *testing.T) {
	v := L2Normalize([]float32{3, 4})

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if math.Abs(math.Sqrt(norm)-1.0) > 1e-6 {
		t.Errorf("expected unit norm, got %v", math.Sqrt(norm))
	}
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("unexpected normalized vector: %v", v)
	}
}

func TestL2Normalize_ZeroVector(t *testing.T) {
	v := L2Normalize([]float32{0, 0, 0})
	for i, x := range v {
		if x != 0 {
			t.Errorf("zero vector changed at index %d: %v", i, x)
		}
	}
}

func TestL2Normalize_DotEqualsCosine(t *testing.T) {
	a := L2Normalize([]float32{0.5, -1.5, 2.0})
	b := L2Normalize([]float32{1.0, 0.25, -0.75})

	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}

	if sim := CosineSimilarity(a, b); math.Abs(sim-dot) > 1e-6 {
		t.Errorf("cosine %v != dot product %v for unit vectors", sim, dot)
	}
}
