// Package attendance turns recognition results into per-student attendance
// state and defines the attendance record identity.
package attendance

import (
	"fmt"
	"time"
)

// Status is a student's attendance state for one session.
type Status string

const (
	Present Status = "PRESENT"
	Absent  Status = "ABSENT"
	Late    Status = "LATE"
)

// Valid reports whether s is a known attendance status.
func (s Status) Valid() bool {
	switch s {
	case Present, Absent, Late:
		return true
	}
	return false
}

// ParseStatus converts stored text into a Status.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.Valid() {
		return "", fmt.Errorf("unknown attendance status %q", s)
	}
	return status, nil
}

// RecordID builds the composite attendance record key {studentId}_{yyyy-MM-dd}.
// The key enforces at most one record per student per calendar day; saving the
// same pair again supersedes the earlier record.
func RecordID(studentID string, t time.Time) string {
	return studentID + "_" + t.Format("2006-01-02")
}
