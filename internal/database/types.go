package database

import (
	"strings"
	"time"
)

// Student is a roster member. The embedding is set once at enrollment and
// stays immutable until re-enrollment; it is nil for students who have not
// been enrolled yet, who are then excluded from face matching.
type Student struct {
	ID            string
	FirstName     string
	MiddleInitial string
	LastName      string
	GuardianPhone string
	Grade         string
	Section       string
	OwnerID       string
	Embedding     []float32
	FaceEnrolled  bool
	CreatedAt     time.Time
}

// FullName joins the name parts, skipping a blank middle initial.
func (s *Student) FullName() string {
	if strings.TrimSpace(s.MiddleInitial) == "" {
		return s.FirstName + " " + s.LastName
	}
	return s.FirstName + " " + s.MiddleInitial + " " + s.LastName
}

// AttendanceRecord is an immutable attendance snapshot. The ID is the
// composite {studentId}_{yyyy-MM-dd} key, so one record exists per student
// per calendar day; saving the same day again supersedes the old record.
type AttendanceRecord struct {
	ID          string
	StudentID   string
	StudentName string
	Grade       string
	Section     string
	Status      string
	RecordedAt  time.Time
	OwnerID     string
}
