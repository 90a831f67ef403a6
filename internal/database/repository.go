package database

import (
	"context"
	"time"
)

// StudentReader provides read-only access to the roster.
type StudentReader interface {
	// List returns all students of a grade/section, ordered by last name.
	List(ctx context.Context, grade, section string) ([]Student, error)
	// Get retrieves a student by id, returns nil if not found.
	Get(ctx context.Context, id string) (*Student, error)
	// FindByName looks a student up by full name. Names are normalized
	// before comparison (lowercase, no diacritics, dashes to spaces) so
	// "jan-novak" matches "Jan Novák".
	FindByName(ctx context.Context, name string) (*Student, error)
	// FindSimilar returns students whose enrolled embedding is closest to
	// the query by cosine distance, with the distances. Students without an
	// embedding are never returned.
	FindSimilar(ctx context.Context, embedding []float32, limit int) ([]Student, []float64, error)
}

// StudentWriter provides write access to the roster.
type StudentWriter interface {
	StudentReader

	// Create inserts a new student.
	Create(ctx context.Context, s *Student) error
	// UpdateEmbedding stores the enrollment embedding and marks the student
	// as face-enrolled. Passing nil clears the enrollment.
	UpdateEmbedding(ctx context.Context, id string, embedding []float32) error
	// Delete removes a student.
	Delete(ctx context.Context, id string) error
}

// AttendanceReader provides read-only access to attendance history.
type AttendanceReader interface {
	// ListByClass returns records for a grade/section within [from, to],
	// newest first.
	ListByClass(ctx context.Context, grade, section string, from, to time.Time) ([]AttendanceRecord, error)
	// ListByStudent returns up to limit records for a student, newest first.
	ListByStudent(ctx context.Context, studentID string, limit int) ([]AttendanceRecord, error)
}

// AttendanceWriter persists finalized attendance sessions.
type AttendanceWriter interface {
	AttendanceReader

	// SaveDay writes one record per student in a single transaction. Each
	// record is upserted on its composite day key, superseding any existing
	// record for the same student and day. All or nothing: a failure rolls
	// the whole session back.
	SaveDay(ctx context.Context, records []AttendanceRecord) error
}
