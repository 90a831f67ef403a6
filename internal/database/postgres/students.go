package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/pgvector/pgvector-go"

	"github.com/kozaktomas/rollcall/internal/database"
	"github.com/kozaktomas/rollcall/internal/embedding"
)

// StudentRepository provides PostgreSQL-backed roster storage.
type StudentRepository struct {
	pool *Pool
}

// NewStudentRepository creates a new PostgreSQL student repository.
func NewStudentRepository(pool *Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

const studentColumns = `
	id, first_name, middle_initial, last_name, guardian_phone,
	grade, section, owner_id, embedding::text, face_enrolled, created_at
`

// parseStoredVector parses pgvector's text representation "[x,y,...]".
func parseStoredVector(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	return embedding.ParseText(s)
}

// scanStudent reads one student row. A NULL embedding means the student is
// not enrolled; a stored embedding that fails to parse is treated the same
// way, so corrupt data degrades to "absent from matching" instead of failing
// the whole roster load.
func scanStudent(scanner interface{ Scan(...any) error }, extra ...any) (*database.Student, error) {
	var s database.Student
	var embText sql.NullString
	var createdAt sql.NullTime

	dest := []any{
		&s.ID, &s.FirstName, &s.MiddleInitial, &s.LastName, &s.GuardianPhone,
		&s.Grade, &s.Section, &s.OwnerID, &embText, &s.FaceEnrolled, &createdAt,
	}
	dest = append(dest, extra...)

	if err := scanner.Scan(dest...); err != nil {
		return nil, err
	}

	if createdAt.Valid {
		s.CreatedAt = createdAt.Time
	}
	if embText.Valid {
		if vec, err := parseStoredVector(embText.String); err == nil {
			s.Embedding = vec
		}
	}
	return &s, nil
}

// List returns all students of a grade/section, ordered by last name.
func (r *StudentRepository) List(ctx context.Context, grade, section string) ([]database.Student, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM students
		WHERE grade = $1 AND section = $2
		ORDER BY last_name, first_name
	`, studentColumns)

	rows, err := r.pool.Query(ctx, query, grade, section)
	if err != nil {
		return nil, fmt.Errorf("query students: %w", err)
	}
	defer rows.Close()

	var students []database.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate students: %w", err)
	}
	return students, nil
}

// Get retrieves a student by id, returns nil if not found.
func (r *StudentRepository) Get(ctx context.Context, id string) (*database.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE id = $1", studentColumns)

	s, err := scanStudent(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	return s, nil
}

// FindByName looks a student up by normalized full name, so "jan-novak"
// matches "Jan Novák". Returns nil if no student matches.
func (r *StudentRepository) FindByName(ctx context.Context, name string) (*database.Student, error) {
	normalized := database.NormalizeName(name)

	// Mirror NormalizeName in SQL: lowercase, remove diacritics, dashes to spaces.
	query := fmt.Sprintf(`
		SELECT %s FROM students
		WHERE LOWER(REPLACE(unaccent(TRIM(
			CASE WHEN middle_initial = '' THEN first_name || ' ' || last_name
			     ELSE first_name || ' ' || middle_initial || ' ' || last_name
			END)), '-', ' ')) = $1
		LIMIT 1
	`, studentColumns)

	s, err := scanStudent(r.pool.QueryRow(ctx, query, normalized))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find student by name: %w", err)
	}
	return s, nil
}

// FindSimilar returns the enrolled students closest to the query embedding
// by cosine distance, with the distances. Unenrolled students are excluded.
func (r *StudentRepository) FindSimilar(ctx context.Context, emb []float32, limit int) ([]database.Student, []float64, error) {
	query := fmt.Sprintf(`
		SELECT %s, embedding <=> $1 AS distance
		FROM students
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1
		LIMIT $2
	`, studentColumns)

	rows, err := r.pool.Query(ctx, query, pgvector.NewVector(emb), limit)
	if err != nil {
		return nil, nil, fmt.Errorf("query similar students: %w", err)
	}
	defer rows.Close()

	var students []database.Student
	var distances []float64
	for rows.Next() {
		var distance float64
		s, err := scanStudent(rows, &distance)
		if err != nil {
			return nil, nil, fmt.Errorf("scan similar student: %w", err)
		}
		students = append(students, *s)
		distances = append(distances, distance)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate similar students: %w", err)
	}
	return students, distances, nil
}

// Create inserts a new student.
func (r *StudentRepository) Create(ctx context.Context, s *database.Student) error {
	query := `
		INSERT INTO students (
			id, first_name, middle_initial, last_name, guardian_phone,
			grade, section, owner_id, face_enrolled
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE)
	`

	_, err := r.pool.Exec(ctx, query,
		s.ID, s.FirstName, s.MiddleInitial, s.LastName, s.GuardianPhone,
		s.Grade, s.Section, s.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("insert student: %w", err)
	}
	return nil
}

// UpdateEmbedding stores the enrollment embedding and marks the student as
// face-enrolled. Passing nil clears the enrollment.
func (r *StudentRepository) UpdateEmbedding(ctx context.Context, id string, emb []float32) error {
	var result sql.Result
	var err error

	if emb == nil {
		result, err = r.pool.Exec(ctx,
			"UPDATE students SET embedding = NULL, face_enrolled = FALSE WHERE id = $1", id)
	} else {
		result, err = r.pool.Exec(ctx,
			"UPDATE students SET embedding = $2, face_enrolled = TRUE WHERE id = $1",
			id, pgvector.NewVector(emb))
	}
	if err != nil {
		return fmt.Errorf("update embedding: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update embedding result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("student %s not found", id)
	}
	return nil
}

// Delete removes a student.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, "DELETE FROM students WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return nil
}
