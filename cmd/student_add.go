package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/rollcall/internal/config"
	"github.com/kozaktomas/rollcall/internal/database"
	"github.com/kozaktomas/rollcall/internal/database/postgres"
)

var studentAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a student to the roster",
	Long: `Add a single student to the roster.

Examples:
  rollcall student add --first-name Jan --last-name Novak --grade 7 --section A
  rollcall student add --first-name Eva --middle-initial K --last-name Mala --grade 7 --section A --guardian-phone +420123456789`,
	RunE: runStudentAdd,
}

func init() {
	studentCmd.AddCommand(studentAddCmd)

	studentAddCmd.Flags().String("first-name", "", "First name (required)")
	studentAddCmd.Flags().String("middle-initial", "", "Middle initial")
	studentAddCmd.Flags().String("last-name", "", "Last name (required)")
	studentAddCmd.Flags().String("guardian-phone", "", "Guardian phone number for SMS notifications")
	studentAddCmd.Flags().String("grade", "", "Grade (required)")
	studentAddCmd.Flags().String("section", "", "Section (required)")
	studentAddCmd.MarkFlagRequired("first-name")
	studentAddCmd.MarkFlagRequired("last-name")
	studentAddCmd.MarkFlagRequired("grade")
	studentAddCmd.MarkFlagRequired("section")
}

func runStudentAdd(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	pool, err := connectDatabase(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	student := &database.Student{
		ID:            uuid.NewString(),
		FirstName:     mustGetString(cmd, "first-name"),
		MiddleInitial: mustGetString(cmd, "middle-initial"),
		LastName:      mustGetString(cmd, "last-name"),
		GuardianPhone: mustGetString(cmd, "guardian-phone"),
		Grade:         mustGetString(cmd, "grade"),
		Section:       mustGetString(cmd, "section"),
	}

	repo := postgres.NewStudentRepository(pool)
	if err := repo.Create(context.Background(), student); err != nil {
		return fmt.Errorf("failed to add student: %w", err)
	}

	fmt.Printf("Added %s (id %s) to grade %s section %s\n",
		student.FullName(), student.ID, student.Grade, student.Section)
	fmt.Println("Enroll a face with: rollcall student enroll --id", student.ID, "--photo <file>")
	return nil
}
