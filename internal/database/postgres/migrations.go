package postgres

import (
	"context"
	"fmt"
)

// Migrate creates the schema. Idempotent; runs at startup.
func (p *Pool) Migrate(ctx context.Context, embeddingDim int) error {
	// pgvector stores the enrolled face embeddings, unaccent backs the
	// normalized name lookups.
	for _, ext := range []string{"vector", "unaccent"} {
		if _, err := p.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS "+ext); err != nil {
			return fmt.Errorf("failed to create %s extension: %w", ext, err)
		}
	}

	createStudents := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS students (
			id             VARCHAR(255) PRIMARY KEY,
			first_name     VARCHAR(255) NOT NULL,
			middle_initial VARCHAR(16)  NOT NULL DEFAULT '',
			last_name      VARCHAR(255) NOT NULL,
			guardian_phone VARCHAR(64)  NOT NULL DEFAULT '',
			grade          VARCHAR(64)  NOT NULL,
			section        VARCHAR(64)  NOT NULL,
			owner_id       VARCHAR(255) NOT NULL DEFAULT '',
			embedding      vector(%d),
			face_enrolled  BOOLEAN NOT NULL DEFAULT FALSE,
			created_at     TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`, embeddingDim)

	if _, err := p.Exec(ctx, createStudents); err != nil {
		return fmt.Errorf("failed to create students table: %w", err)
	}

	if _, err := p.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS idx_students_class
		ON students (grade, section, last_name)
	`); err != nil {
		return fmt.Errorf("failed to create students class index: %w", err)
	}

	// id is the composite {studentId}_{yyyy-MM-dd} key, giving the per-day
	// uniqueness guarantee directly to the upsert.
	createAttendance := `
		CREATE TABLE IF NOT EXISTS attendance (
			id           VARCHAR(255) PRIMARY KEY,
			student_id   VARCHAR(255) NOT NULL,
			student_name VARCHAR(512) NOT NULL,
			grade        VARCHAR(64)  NOT NULL,
			section      VARCHAR(64)  NOT NULL,
			status       VARCHAR(16)  NOT NULL,
			recorded_at  TIMESTAMP WITH TIME ZONE NOT NULL,
			owner_id     VARCHAR(255) NOT NULL DEFAULT ''
		)
	`

	if _, err := p.Exec(ctx, createAttendance); err != nil {
		return fmt.Errorf("failed to create attendance table: %w", err)
	}

	if _, err := p.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS idx_attendance_class
		ON attendance (grade, section, recorded_at DESC)
	`); err != nil {
		return fmt.Errorf("failed to create attendance class index: %w", err)
	}

	if _, err := p.Exec(ctx, `
		CREATE INDEX IF NOT EXISTS idx_attendance_student
		ON attendance (student_id, recorded_at DESC)
	`); err != nil {
		return fmt.Errorf("failed to create attendance student index: %w", err)
	}

	return nil
}
