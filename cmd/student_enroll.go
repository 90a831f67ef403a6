package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/rollcall/internal/config"
	"github.com/kozaktomas/rollcall/internal/database"
	"github.com/kozaktomas/rollcall/internal/database/postgres"
	"github.com/kozaktomas/rollcall/internal/recognition"
)

var studentEnrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Enroll a student's face from a photo",
	Long: `Enroll a student's reference face from a photo file.
The photo must contain exactly one face. Re-enrolling replaces the
previous reference embedding.

Examples:
  rollcall student enroll --id 4f7c... --photo jan.jpg
  rollcall student enroll --name "Jan Novak" --photo jan.jpg`,
	RunE: runStudentEnroll,
}

func init() {
	studentCmd.AddCommand(studentEnrollCmd)

	studentEnrollCmd.Flags().String("id", "", "Student id")
	studentEnrollCmd.Flags().String("name", "", "Student full name (alternative to --id)")
	studentEnrollCmd.Flags().String("photo", "", "Path to the enrollment photo (required)")
	studentEnrollCmd.MarkFlagRequired("photo")
}

func runStudentEnroll(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	pool, err := connectDatabase(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo := postgres.NewStudentRepository(pool)

	id := mustGetString(cmd, "id")
	name := mustGetString(cmd, "name")
	if id == "" && name == "" {
		return fmt.Errorf("either --id or --name is required")
	}

	var student *database.Student
	if id != "" {
		student, err = repo.Get(ctx, id)
	} else {
		student, err = repo.FindByName(ctx, name)
	}
	if err != nil {
		return fmt.Errorf("failed to look up student: %w", err)
	}
	if student == nil {
		return fmt.Errorf("student not found")
	}

	data, err := os.ReadFile(mustGetString(cmd, "photo"))
	if err != nil {
		return fmt.Errorf("failed to read photo: %w", err)
	}
	img, err := recognition.DecodeImage(data)
	if err != nil {
		return err
	}

	pipeline, closePipeline, err := buildPipeline(cfg)
	if err != nil {
		return err
	}
	defer closePipeline()

	emb, err := pipeline.EmbedSingle(ctx, img)
	if err != nil {
		return fmt.Errorf("enrollment failed: %w", err)
	}

	if err := repo.UpdateEmbedding(ctx, student.ID, emb); err != nil {
		return fmt.Errorf("failed to store enrollment: %w", err)
	}

	fmt.Printf("Enrolled %s (%d-dim embedding)\n", student.FullName(), len(emb))
	return nil
}
