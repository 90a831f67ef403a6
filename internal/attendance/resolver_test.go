package attendance

import (
	"testing"
	"time"

	"github.com/kozaktomas/rollcall/internal/recognition"
)

func TestResolve_MatchedPresentRestAbsent(t *testing.T) {
	roster := []string{"alice", "bob", "carol"}
	matches := []recognition.Match{
		{StudentID: "alice", FaceIndex: 0, Similarity: 0.92},
	}

	statuses := Resolve(roster, matches)

	if len(statuses) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(statuses))
	}
	if statuses["alice"] != Present {
		t.Errorf("alice = %s, want PRESENT", statuses["alice"])
	}
	if statuses["bob"] != Absent {
		t.Errorf("bob = %s, want ABSENT", statuses["bob"])
	}
	if statuses["carol"] != Absent {
		t.Errorf("carol = %s, want ABSENT", statuses["carol"])
	}
}

func TestResolve_EmptyRoster(t *testing.T) {
	matches := []recognition.Match{
		{StudentID: "ghost", FaceIndex: 0, Similarity: 0.99},
	}

	statuses := Resolve(nil, matches)

	if len(statuses) != 0 {
		t.Errorf("expected empty map for empty roster, got %v", statuses)
	}
}

func TestResolve_NoMatches(t *testing.T) {
	roster := []string{"a", "b", "c", "d"}

	statuses := Resolve(roster, nil)

	if len(statuses) != len(roster) {
		t.Fatalf("expected %d entries, got %d", len(roster), len(statuses))
	}
	for id, status := range statuses {
		if status != Absent {
			t.Errorf("%s = %s, want ABSENT (zero detected faces)", id, status)
		}
	}
}

func TestResolve_IgnoresMatchesOutsideRoster(t *testing.T) {
	roster := []string{"alice"}
	matches := []recognition.Match{
		{StudentID: "intruder", FaceIndex: 0, Similarity: 0.95},
	}

	statuses := Resolve(roster, matches)

	if len(statuses) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(statuses))
	}
	if statuses["alice"] != Absent {
		t.Errorf("alice = %s, want ABSENT", statuses["alice"])
	}
}

func TestResolve_Invariant(t *testing.T) {
	// For any roster and any match subset, the output covers every roster
	// student exactly once with PRESENT entries equal to the matched subset.
	roster := []string{"s1", "s2", "s3", "s4", "s5"}
	matched := map[string]bool{"s2": true, "s5": true}

	var matches []recognition.Match
	i := 0
	for id := range matched {
		matches = append(matches, recognition.Match{StudentID: id, FaceIndex: i, Similarity: 0.8})
		i++
	}

	statuses := Resolve(roster, matches)

	if len(statuses) != len(roster) {
		t.Fatalf("expected %d entries, got %d", len(roster), len(statuses))
	}
	for _, id := range roster {
		status, ok := statuses[id]
		if !ok {
			t.Errorf("missing roster student %s", id)
			continue
		}
		if status != Present && status != Absent {
			t.Errorf("%s = %s, want PRESENT or ABSENT only", id, status)
		}
		if matched[id] && status != Present {
			t.Errorf("%s matched but resolved %s", id, status)
		}
		if !matched[id] && status != Absent {
			t.Errorf("%s unmatched but resolved %s", id, status)
		}
	}
}

func TestResolve_Scenario(t *testing.T) {
	// Roster Alice+Bob, one face matching Alice at 0.92 with threshold 0.6:
	// the matcher resolves Alice, and the resolver marks Bob absent.
	roster := []string{"alice", "bob"}
	matches := []recognition.Match{{StudentID: "alice", FaceIndex: 0, Similarity: 0.92}}

	statuses := Resolve(roster, matches)

	if statuses["alice"] != Present || statuses["bob"] != Absent {
		t.Errorf("got alice=%s bob=%s, want alice=PRESENT bob=ABSENT", statuses["alice"], statuses["bob"])
	}
}

func TestRecordID(t *testing.T) {
	ts := time.Date(2026, 3, 9, 14, 30, 0, 0, time.UTC)

	if got := RecordID("stu-42", ts); got != "stu-42_2026-03-09" {
		t.Errorf("RecordID = %q, want stu-42_2026-03-09", got)
	}

	// Same student, same calendar day, different time: identical key, so the
	// later save supersedes the earlier record.
	later := ts.Add(5 * time.Hour)
	if RecordID("stu-42", ts) != RecordID("stu-42", later) {
		t.Error("record key must be stable within one calendar day")
	}
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		input   string
		want    Status
		wantErr bool
	}{
		{"PRESENT", Present, false},
		{"ABSENT", Absent, false},
		{"LATE", Late, false},
		{"present", "", true},
		{"", "", true},
		{"UNKNOWN", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStatus(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStatus(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseStatus(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}
