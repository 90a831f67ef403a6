package attendance

import (
	"github.com/kozaktomas/rollcall/internal/recognition"
)

// Resolve converts matcher outcomes into a status map covering every roster
// student exactly once. Students matched in this pass are PRESENT; everyone
// else is ABSENT.
//
// The unmatched-means-absent default is a deliberate, silent policy: a missed
// detection marks a present student absent, so callers surface the result for
// review before saving. Recognition never produces LATE; that is only set by
// a manual override.
//
// Matches referring to students outside the roster are ignored. An empty
// roster yields an empty map regardless of how many faces were detected.
func Resolve(rosterIDs []string, matches []recognition.Match) map[string]Status {
	statuses := make(map[string]Status, len(rosterIDs))
	for _, id := range rosterIDs {
		statuses[id] = Absent
	}

	for _, m := range matches {
		if _, ok := statuses[m.StudentID]; ok {
			statuses[m.StudentID] = Present
		}
	}

	return statuses
}
