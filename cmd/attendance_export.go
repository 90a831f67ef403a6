package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/rollcall/internal/config"
	"github.com/kozaktomas/rollcall/internal/database/postgres"
)

var attendanceExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export attendance records to CSV",
	Long: `Export the attendance history of a class to a CSV file.

Examples:
  rollcall attendance export --grade 7 --section A --out march.csv --from 2026-03-01 --to 2026-03-31`,
	RunE: runAttendanceExport,
}

func init() {
	attendanceCmd.AddCommand(attendanceExportCmd)

	attendanceExportCmd.Flags().String("grade", "", "Grade (required)")
	attendanceExportCmd.Flags().String("section", "", "Section (required)")
	attendanceExportCmd.Flags().String("from", "", "Start date (yyyy-MM-dd)")
	attendanceExportCmd.Flags().String("to", "", "End date (yyyy-MM-dd)")
	attendanceExportCmd.Flags().String("out", "", "Output CSV file (required)")
	attendanceExportCmd.MarkFlagRequired("grade")
	attendanceExportCmd.MarkFlagRequired("section")
	attendanceExportCmd.MarkFlagRequired("out")
}

func runAttendanceExport(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	from, to, err := parseDateRange(cmd)
	if err != nil {
		return err
	}

	pool, err := connectDatabase(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo := postgres.NewAttendanceRepository(pool)
	records, err := repo.ListByClass(ctx, mustGetString(cmd, "grade"), mustGetString(cmd, "section"), from, to)
	if err != nil {
		return fmt.Errorf("failed to list attendance: %w", err)
	}

	out, err := os.Create(mustGetString(cmd, "out"))
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	writer := csv.NewWriter(out)
	if err := writer.Write([]string{"date", "student_id", "student_name", "grade", "section", "status", "recorded_at"}); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	for i := range records {
		rec := &records[i]
		row := []string{
			rec.RecordedAt.Format("2006-01-02"),
			rec.StudentID,
			rec.StudentName,
			rec.Grade,
			rec.Section,
			rec.Status,
			rec.RecordedAt.Format(time.RFC3339),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}

	fmt.Printf("Exported %d records to %s\n", len(records), mustGetString(cmd, "out"))
	return nil
}
