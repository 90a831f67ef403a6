package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/rollcall/internal/attendance"
	"github.com/kozaktomas/rollcall/internal/config"
	"github.com/kozaktomas/rollcall/internal/database"
	"github.com/kozaktomas/rollcall/internal/database/postgres"
)

var attendanceMarkCmd = &cobra.Command{
	Use:   "mark",
	Short: "Manually set a student's status for a day",
	Long: `Manually correct one student's attendance. This is the only way a
student becomes LATE; recognition only ever produces PRESENT or ABSENT.
Marking a day that already has a record supersedes it.

Examples:
  rollcall attendance mark --id 4f7c... --status LATE
  rollcall attendance mark --name "Jan Novak" --status PRESENT --date 2026-03-09`,
	RunE: runAttendanceMark,
}

func init() {
	attendanceCmd.AddCommand(attendanceMarkCmd)

	attendanceMarkCmd.Flags().String("id", "", "Student id")
	attendanceMarkCmd.Flags().String("name", "", "Student full name (alternative to --id)")
	attendanceMarkCmd.Flags().String("status", "", "PRESENT, ABSENT or LATE (required)")
	attendanceMarkCmd.Flags().String("date", "", "Day to mark (yyyy-MM-dd, defaults to today)")
	attendanceMarkCmd.MarkFlagRequired("status")
}

func runAttendanceMark(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	status, err := attendance.ParseStatus(mustGetString(cmd, "status"))
	if err != nil {
		return err
	}

	at := time.Now()
	if v := mustGetString(cmd, "date"); v != "" {
		day, err := time.Parse("2006-01-02", v)
		if err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
		at = day
	}

	id := mustGetString(cmd, "id")
	name := mustGetString(cmd, "name")
	if id == "" && name == "" {
		return fmt.Errorf("either --id or --name is required")
	}

	pool, err := connectDatabase(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	studentRepo := postgres.NewStudentRepository(pool)

	var student *database.Student
	if id != "" {
		student, err = studentRepo.Get(ctx, id)
	} else {
		student, err = studentRepo.FindByName(ctx, name)
	}
	if err != nil {
		return fmt.Errorf("failed to look up student: %w", err)
	}
	if student == nil {
		return fmt.Errorf("student not found")
	}

	record := database.AttendanceRecord{
		ID:          attendance.RecordID(student.ID, at),
		StudentID:   student.ID,
		StudentName: student.FullName(),
		Grade:       student.Grade,
		Section:     student.Section,
		Status:      string(status),
		RecordedAt:  at,
		OwnerID:     student.OwnerID,
	}

	repo := postgres.NewAttendanceRepository(pool)
	if err := repo.SaveDay(ctx, []database.AttendanceRecord{record}); err != nil {
		return fmt.Errorf("failed to save attendance: %w", err)
	}

	fmt.Printf("Marked %s as %s for %s\n", student.FullName(), status, at.Format("2006-01-02"))
	return nil
}
