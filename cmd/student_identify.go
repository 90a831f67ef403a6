package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/rollcall/internal/config"
	"github.com/kozaktomas/rollcall/internal/database/postgres"
	"github.com/kozaktomas/rollcall/internal/recognition"
)

var studentIdentifyCmd = &cobra.Command{
	Use:   "identify",
	Short: "Find the enrolled students closest to a face photo",
	Long: `Identify who a photo shows by searching the enrolled embeddings.
The photo must contain exactly one face. Candidates are printed closest
first with their cosine distance; this never marks attendance.

Examples:
  rollcall student identify --photo unknown.jpg
  rollcall student identify --photo unknown.jpg --limit 10`,
	RunE: runStudentIdentify,
}

func init() {
	studentCmd.AddCommand(studentIdentifyCmd)

	studentIdentifyCmd.Flags().String("photo", "", "Path to the photo (required)")
	studentIdentifyCmd.Flags().Int("limit", 5, "Number of candidates to show")
	studentIdentifyCmd.MarkFlagRequired("photo")
}

func runStudentIdentify(cmd *cobra.Command, args []string) error {
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

	pipeline, closePipeline, err := buildPipeline(cfg)
	if err != nil {
		return err
	}
	defer closePipeline()

	emb, err := pipeline.EmbedSingle(ctx, img)
	if err != nil {
		return err
	}

	pool, err := connectDatabase(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo := postgres.NewStudentRepository(pool)
	students, distances, err := repo.FindSimilar(ctx, emb, mustGetInt(cmd, "limit"))
	if err != nil {
		return fmt.Errorf("similarity search failed: %w", err)
	}

	if len(students) == 0 {
		fmt.Println("No enrolled students to compare against")
		return nil
	}

	fmt.Printf("Closest matches:\n")
	for i := range students {
		fmt.Printf("  %d. %s (grade %s section %s, distance %.4f)\n",
			i+1, students[i].FullName(), students[i].Grade, students[i].Section, distances[i])
	}
	return nil
}
