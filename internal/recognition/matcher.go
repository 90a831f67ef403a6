// Package recognition resolves detected faces to enrolled students by cosine
// similarity over face embeddings.
package recognition

import (
	"github.com/kozaktomas/rollcall/internal/vision"
)

// Enrolled pairs a student with their stored reference embedding.
type Enrolled struct {
	StudentID string
	Embedding []float32
}

// Match pairs a detected face with the enrolled student it resolved to,
// carrying the similarity that produced it. Matches only exist within one
// recognition pass.
type Match struct {
	StudentID  string
	FaceIndex  int
	Similarity float64
}

// BestMatch scans the gallery for the single best match of a query embedding.
// Gallery entries whose embedding length differs from the query are skipped
// (corrupted or legacy data), as are students in the claimed set. A candidate
// wins only with similarity strictly greater than both the running best and
// the threshold. Returns false when no candidate exceeds the threshold; an
// empty gallery always returns false.
func BestMatch(query []float32, gallery []Enrolled, threshold float64, claimed map[string]bool) (Match, bool) {
	best := Match{FaceIndex: -1}
	bestSim := threshold

	for _, entry := range gallery {
		if len(entry.Embedding) != len(query) {
			continue
		}
		if claimed[entry.StudentID] {
			continue
		}
		sim := vision.CosineSimilarity(query, entry.Embedding)
		if sim > bestSim {
			bestSim = sim
			best.StudentID = entry.StudentID
			best.Similarity = sim
		}
	}

	return best, best.StudentID != ""
}

// MatchAll resolves a batch of query embeddings from one photo against the
// gallery. Faces are processed in photo order and each student can be claimed
// by at most one face: first claimed wins, so one enrolled student cannot
// absorb two different detected faces.
func MatchAll(queries [][]float32, gallery []Enrolled, threshold float64) []Match {
	claimed := make(map[string]bool, len(gallery))
	matches := make([]Match, 0, len(queries))

	for i, query := range queries {
		if len(query) == 0 {
			continue
		}
		match, ok := BestMatch(query, gallery, threshold, claimed)
		if !ok {
			continue
		}
		match.FaceIndex = i
		claimed[match.StudentID] = true
		matches = append(matches, match)
	}

	return matches
}
