package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/rollcall/internal/config"
	"github.com/kozaktomas/rollcall/internal/database/postgres"
)

var attendanceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List attendance records for a class",
	Long: `List attendance records for a grade/section, newest first.
Defaults to the last 7 days.

Examples:
  rollcall attendance list --grade 7 --section A
  rollcall attendance list --grade 7 --section A --from 2026-03-01 --to 2026-03-31`,
	RunE: runAttendanceList,
}

func init() {
	attendanceCmd.AddCommand(attendanceListCmd)

	attendanceListCmd.Flags().String("grade", "", "Grade (required)")
	attendanceListCmd.Flags().String("section", "", "Section (required)")
	attendanceListCmd.Flags().String("from", "", "Start date (yyyy-MM-dd)")
	attendanceListCmd.Flags().String("to", "", "End date (yyyy-MM-dd)")
	attendanceListCmd.MarkFlagRequired("grade")
	attendanceListCmd.MarkFlagRequired("section")
}

// parseDateRange resolves the --from/--to flags, defaulting to the last 7 days.
func parseDateRange(cmd *cobra.Command) (time.Time, time.Time, error) {
	to := time.Now()
	from := to.AddDate(0, 0, -7)

	if v := mustGetString(cmd, "from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return from, to, fmt.Errorf("invalid --from date: %w", err)
		}
		from = t
	}
	if v := mustGetString(cmd, "to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return from, to, fmt.Errorf("invalid --to date: %w", err)
		}
		to = t.AddDate(0, 0, 1) // include the whole end day
	}
	return from, to, nil
}

func runAttendanceList(cmd *cobra.Command, args []string) error {
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

	if len(records) == 0 {
		fmt.Println("No attendance records in this range")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tNAME\tSTATUS")
	for i := range records {
		rec := &records[i]
		fmt.Fprintf(w, "%s\t%s\t%s\n", rec.RecordedAt.Format("2006-01-02"), rec.StudentName, rec.Status)
	}
	w.Flush()

	fmt.Printf("\n%d records\n", len(records))
	return nil
}
