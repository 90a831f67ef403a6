package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/rollcall/internal/attendance"
	"github.com/kozaktomas/rollcall/internal/config"
	"github.com/kozaktomas/rollcall/internal/database"
	"github.com/kozaktomas/rollcall/internal/database/postgres"
	"github.com/kozaktomas/rollcall/internal/recognition"
)

var attendanceTakeCmd = &cobra.Command{
	Use:   "take",
	Short: "Take attendance for a class from a photo",
	Long: `Run one attendance capture: recognize the faces in a class photo
against the enrolled roster, mark matched students PRESENT and everyone
else ABSENT, and save the session. Re-taking attendance for the same day
supersedes the earlier records.

Guardians of absent students are notified by SMS when a gateway is
configured; pass --no-sms to suppress that.

Examples:
  rollcall attendance take --grade 7 --section A --photo class.jpg
  rollcall attendance take --grade 7 --section A --photo class.jpg --no-sms`,
	RunE: runAttendanceTake,
}

func init() {
	attendanceCmd.AddCommand(attendanceTakeCmd)

	attendanceTakeCmd.Flags().String("grade", "", "Grade (required)")
	attendanceTakeCmd.Flags().String("section", "", "Section (required)")
	attendanceTakeCmd.Flags().String("photo", "", "Path to the class photo (required)")
	attendanceTakeCmd.Flags().Bool("no-sms", false, "Skip guardian SMS notifications")
	attendanceTakeCmd.MarkFlagRequired("grade")
	attendanceTakeCmd.MarkFlagRequired("section")
	attendanceTakeCmd.MarkFlagRequired("photo")
}

func runAttendanceTake(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	data, err := os.ReadFile(mustGetString(cmd, "photo"))
	if err != nil {
		return fmt.Errorf("failed to read photo: %w", err)
	}
	img, err := recognition.DecodeImage(data)
	if err != nil {
		return err
	}

	pool, err := connectDatabase(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	studentRepo := postgres.NewStudentRepository(pool)
	attendanceRepo := postgres.NewAttendanceRepository(pool)

	grade := mustGetString(cmd, "grade")
	section := mustGetString(cmd, "section")
	students, err := studentRepo.List(ctx, grade, section)
	if err != nil {
		return fmt.Errorf("failed to load class roster: %w", err)
	}
	if len(students) == 0 {
		return fmt.Errorf("no students in grade %s section %s", grade, section)
	}

	gallery := make([]recognition.Enrolled, 0, len(students))
	for i := range students {
		if students[i].FaceEnrolled && students[i].Embedding != nil {
			gallery = append(gallery, recognition.Enrolled{
				StudentID: students[i].ID,
				Embedding: students[i].Embedding,
			})
		}
	}
	fmt.Printf("Roster: %d students, %d with enrolled faces\n", len(students), len(gallery))

	pipeline, closePipeline, err := buildPipeline(cfg)
	if err != nil {
		return err
	}
	defer closePipeline()

	matches, err := pipeline.Recognize(ctx, img, gallery)
	if err != nil {
		return err
	}

	rosterIDs := make([]string, len(students))
	for i := range students {
		rosterIDs[i] = students[i].ID
	}
	statuses := attendance.Resolve(rosterIDs, matches)

	now := time.Now()
	records := make([]database.AttendanceRecord, 0, len(students))
	present := 0
	for i := range students {
		s := &students[i]
		status := statuses[s.ID]
		if status == attendance.Present {
			present++
		}
		records = append(records, database.AttendanceRecord{
			ID:          attendance.RecordID(s.ID, now),
			StudentID:   s.ID,
			StudentName: s.FullName(),
			Grade:       s.Grade,
			Section:     s.Section,
			Status:      string(status),
			RecordedAt:  now,
			OwnerID:     s.OwnerID,
		})
		fmt.Printf("  %-30s %s\n", s.FullName(), status)
	}

	if err := attendanceRepo.SaveDay(ctx, records); err != nil {
		return fmt.Errorf("failed to save attendance: %w", err)
	}
	fmt.Printf("\nSaved: %d present, %d absent\n", present, len(students)-present)

	if mustGetBool(cmd, "no-sms") {
		return nil
	}
	guardian := buildGuardian(cfg)
	if guardian == nil {
		return nil
	}

	notifyCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	sent := guardian.NotifySession(notifyCtx, students, statuses, now)
	fmt.Printf("Notified %d guardians\n", sent)
	return nil
}
