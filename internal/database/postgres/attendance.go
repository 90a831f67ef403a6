package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/kozaktomas/rollcall/internal/database"
)

// AttendanceRepository provides PostgreSQL-backed attendance storage.
type AttendanceRepository struct {
	pool *Pool
}

// NewAttendanceRepository creates a new PostgreSQL attendance repository.
func NewAttendanceRepository(pool *Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// SaveDay writes one record per student in a single transaction. Records are
// upserted on the composite {studentId}_{yyyy-MM-dd} key: saving the same
// student/day pair again supersedes the earlier record instead of appending
// a duplicate. All or nothing; a failure rolls the whole session back.
func (r *AttendanceRepository) SaveDay(ctx context.Context, records []database.AttendanceRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	upsert := `
		INSERT INTO attendance (
			id, student_id, student_name, grade, section, status, recorded_at, owner_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			student_name = EXCLUDED.student_name,
			status       = EXCLUDED.status,
			recorded_at  = EXCLUDED.recorded_at,
			owner_id     = EXCLUDED.owner_id
	`

	stmt, err := tx.PrepareContext(ctx, upsert)
	if err != nil {
		return fmt.Errorf("prepare attendance upsert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			rec.ID, rec.StudentID, rec.StudentName, rec.Grade, rec.Section,
			rec.Status, rec.RecordedAt, rec.OwnerID,
		); err != nil {
			return fmt.Errorf("upsert attendance record %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit attendance session: %w", err)
	}
	return nil
}

const attendanceColumns = `
	id, student_id, student_name, grade, section, status, recorded_at, owner_id
`

func scanRecords(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]database.AttendanceRecord, error) {
	var records []database.AttendanceRecord
	for rows.Next() {
		var rec database.AttendanceRecord
		if err := rows.Scan(
			&rec.ID, &rec.StudentID, &rec.StudentName, &rec.Grade, &rec.Section,
			&rec.Status, &rec.RecordedAt, &rec.OwnerID,
		); err != nil {
			return nil, fmt.Errorf("scan attendance record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance records: %w", err)
	}
	return records, nil
}

// ListByClass returns records for a grade/section within [from, to], newest first.
func (r *AttendanceRepository) ListByClass(ctx context.Context, grade, section string, from, to time.Time) ([]database.AttendanceRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM attendance
		WHERE grade = $1 AND section = $2 AND recorded_at BETWEEN $3 AND $4
		ORDER BY recorded_at DESC, student_name
	`, attendanceColumns)

	rows, err := r.pool.Query(ctx, query, grade, section, from, to)
	if err != nil {
		return nil, fmt.Errorf("query class attendance: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ListByStudent returns up to limit records for a student, newest first.
func (r *AttendanceRepository) ListByStudent(ctx context.Context, studentID string, limit int) ([]database.AttendanceRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM attendance
		WHERE student_id = $1
		ORDER BY recorded_at DESC
		LIMIT $2
	`, attendanceColumns)

	rows, err := r.pool.Query(ctx, query, studentID, limit)
	if err != nil {
		return nil, fmt.Errorf("query student attendance: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}
