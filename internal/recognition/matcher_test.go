package recognition

import (
	"math"
	"testing"
)

func gallery(entries ...Enrolled) []Enrolled {
	return entries
}

func TestBestMatch_ThresholdBoundary(t *testing.T) {
	// The query has cosine similarity exactly 3/5 with "edge": integer
	// components keep the computation exact in floating point.
	query := []float32{1, 0}
	edge := []float32{3, 4}

	tests := []struct {
		name      string
		threshold float64
		wantMatch bool
	}{
		{"just below threshold", 0.59999, true},
		{"exactly at threshold", 0.6, false}, // strictly greater-than, not >=
		{"just above threshold", 0.60001, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := BestMatch(query, gallery(Enrolled{StudentID: "edge", Embedding: edge}), tt.threshold, nil)
			if ok != tt.wantMatch {
				t.Errorf("threshold %v: match = %v, want %v", tt.threshold, ok, tt.wantMatch)
			}
		})
	}
}

func TestBestMatch_PicksHighestSimilarity(t *testing.T) {
	query := []float32{1, 0, 0}
	g := gallery(
		Enrolled{StudentID: "low", Embedding: []float32{0.5, 0.5, 0.707}},
		Enrolled{StudentID: "high", Embedding: []float32{0.99, 0.1, 0.1}},
		Enrolled{StudentID: "mid", Embedding: []float32{0.8, 0.6, 0}},
	)

	match, ok := BestMatch(query, g, 0.5, nil)
	if !ok {
		t.Fatal("expected a match")
	}
	if match.StudentID != "high" {
		t.Errorf("expected student 'high', got %q", match.StudentID)
	}
}

func TestBestMatch_IdenticalEmbeddingWins(t *testing.T) {
	stored := []float32{0.3, -0.4, 0.5, 0.7}
	query := append([]float32(nil), stored...)

	g := gallery(
		Enrolled{StudentID: "a", Embedding: []float32{0.7, 0.5, -0.4, 0.3}},
		Enrolled{StudentID: "k", Embedding: stored},
		Enrolled{StudentID: "b", Embedding: []float32{-0.3, 0.4, -0.5, -0.7}},
	)

	// Identical embedding has similarity 1.0, which beats any threshold < 1.
	match, ok := BestMatch(query, g, 0.999, nil)
	if !ok {
		t.Fatal("expected a match")
	}
	if match.StudentID != "k" {
		t.Errorf("expected student 'k', got %q", match.StudentID)
	}
	if math.Abs(match.Similarity-1.0) > 1e-5 {
		t.Errorf("expected similarity 1.0, got %v", match.Similarity)
	}
}

func TestBestMatch_LengthMismatchExcluded(t *testing.T) {
	query := []float32{1, 0, 0}
	g := gallery(
		// 512-dim legacy entry must be excluded, not scored as 0 and compared.
		Enrolled{StudentID: "legacy", Embedding: make([]float32, 512)},
	)

	if _, ok := BestMatch(query, g, -1.0, nil); ok {
		t.Error("mismatched-length entry must never be a candidate, even with threshold -1")
	}
}

func TestBestMatch_EmptyGallery(t *testing.T) {
	if _, ok := BestMatch([]float32{1, 0}, nil, 0.5, nil); ok {
		t.Error("empty gallery must return no match")
	}
}

func TestBestMatch_ZeroNormScoresZero(t *testing.T) {
	query := []float32{1, 0}
	g := gallery(Enrolled{StudentID: "zero", Embedding: []float32{0, 0}})

	if _, ok := BestMatch(query, g, 0.1, nil); ok {
		t.Error("zero-norm embedding must not match above a positive threshold")
	}
}

func TestMatchAll_FirstClaimedWins(t *testing.T) {
	alice := []float32{1, 0, 0}
	bob := []float32{0, 1, 0}
	g := gallery(
		Enrolled{StudentID: "alice", Embedding: alice},
		Enrolled{StudentID: "bob", Embedding: bob},
	)

	// Both queries are closest to alice; the second must not claim her again.
	q1 := []float32{0.99, 0.14, 0}
	q2 := []float32{0.98, 0.19, 0}

	matches := MatchAll([][]float32{q1, q2}, g, 0.5)

	claimedBy := make(map[string]int)
	for _, m := range matches {
		claimedBy[m.StudentID]++
	}
	if claimedBy["alice"] != 1 {
		t.Errorf("alice claimed %d times, want exactly 1", claimedBy["alice"])
	}
	for _, m := range matches {
		if m.StudentID == "alice" && m.FaceIndex != 0 {
			t.Errorf("alice claimed by face %d, want face 0 (photo order)", m.FaceIndex)
		}
	}
}

func TestMatchAll_SecondFaceFallsThrough(t *testing.T) {
	s := []float32{1, 0}
	g := gallery(Enrolled{StudentID: "s", Embedding: s})

	q1 := []float32{0.99, 0.141}
	q2 := []float32{0.98, 0.199}

	matches := MatchAll([][]float32{q1, q2}, g, 0.5)

	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].StudentID != "s" || matches[0].FaceIndex != 0 {
		t.Errorf("unexpected match %+v", matches[0])
	}
}

func TestMatchAll_SkipsFailedEmbeddings(t *testing.T) {
	g := gallery(Enrolled{StudentID: "s", Embedding: []float32{1, 0}})

	// A nil query stands for a face whose embedding failed upstream.
	matches := MatchAll([][]float32{nil, {0.99, 0.141}}, g, 0.5)

	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].FaceIndex != 1 {
		t.Errorf("expected face index 1, got %d", matches[0].FaceIndex)
	}
}

func TestMatchAll_AtMostOneMatchPerStudent(t *testing.T) {
	g := gallery(
		Enrolled{StudentID: "a", Embedding: []float32{1, 0, 0}},
		Enrolled{StudentID: "b", Embedding: []float32{0, 1, 0}},
		Enrolled{StudentID: "c", Embedding: []float32{0, 0, 1}},
	)

	queries := [][]float32{
		{0.99, 0.1, 0.1},
		{0.1, 0.99, 0.1},
		{0.98, 0.15, 0.1}, // closest to a, already claimed
		{0.1, 0.1, 0.99},
	}

	matches := MatchAll(queries, g, 0.5)

	seen := make(map[string]bool)
	for _, m := range matches {
		if seen[m.StudentID] {
			t.Errorf("student %q matched more than once", m.StudentID)
		}
		seen[m.StudentID] = true
	}
}
