package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/rollcall/internal/config"
	"github.com/kozaktomas/rollcall/internal/database/postgres"
)

var studentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List students of a class",
	Long: `List all students of a grade/section with their enrollment state.

Examples:
  rollcall student list --grade 7 --section A`,
	RunE: runStudentList,
}

func init() {
	studentCmd.AddCommand(studentListCmd)

	studentListCmd.Flags().String("grade", "", "Grade (required)")
	studentListCmd.Flags().String("section", "", "Section (required)")
	studentListCmd.MarkFlagRequired("grade")
	studentListCmd.MarkFlagRequired("section")
}

func runStudentList(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	pool, err := connectDatabase(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo := postgres.NewStudentRepository(pool)
	students, err := repo.List(context.Background(), mustGetString(cmd, "grade"), mustGetString(cmd, "section"))
	if err != nil {
		return fmt.Errorf("failed to list students: %w", err)
	}

	if len(students) == 0 {
		fmt.Println("No students in this class")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tGUARDIAN\tENROLLED")
	enrolled := 0
	for i := range students {
		s := &students[i]
		mark := "no"
		if s.FaceEnrolled {
			mark = "yes"
			enrolled++
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.ID, s.FullName(), s.GuardianPhone, mark)
	}
	w.Flush()

	fmt.Printf("\n%d students, %d with enrolled faces\n", len(students), enrolled)
	return nil
}
