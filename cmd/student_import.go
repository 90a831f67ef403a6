package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/rollcall/internal/config"
	"github.com/kozaktomas/rollcall/internal/database"
	"github.com/kozaktomas/rollcall/internal/database/postgres"
)

var studentImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import students from a CSV file",
	Long: `Import a class roster from a CSV file.

The file must have a header row with these columns:
  first_name,middle_initial,last_name,guardian_phone,grade,section

Examples:
  rollcall student import --file roster.csv`,
	RunE: runStudentImport,
}

func init() {
	studentCmd.AddCommand(studentImportCmd)

	studentImportCmd.Flags().String("file", "", "Path to the CSV roster (required)")
	studentImportCmd.MarkFlagRequired("file")
}

// csvColumnIndex maps the header row to column positions.
func csvColumnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, col := range header {
		idx[strings.TrimSpace(strings.ToLower(col))] = i
	}
	for _, required := range []string{"first_name", "last_name", "grade", "section"} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("missing required CSV column %q", required)
		}
	}
	return idx, nil
}

func csvField(record []string, idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func runStudentImport(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	file, err := os.Open(mustGetString(cmd, "file"))
	if err != nil {
		return fmt.Errorf("failed to open roster file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}
	idx, err := csvColumnIndex(header)
	if err != nil {
		return err
	}

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read CSV: %w", err)
		}
		records = append(records, record)
	}

	if len(records) == 0 {
		fmt.Println("Roster file is empty")
		return nil
	}

	pool, err := connectDatabase(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo := postgres.NewStudentRepository(pool)

	bar := progressbar.NewOptions(len(records),
		progressbar.OptionSetDescription("Importing students"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)

	imported, skipped := 0, 0
	for _, record := range records {
		student := &database.Student{
			ID:            uuid.NewString(),
			FirstName:     csvField(record, idx, "first_name"),
			MiddleInitial: csvField(record, idx, "middle_initial"),
			LastName:      csvField(record, idx, "last_name"),
			GuardianPhone: csvField(record, idx, "guardian_phone"),
			Grade:         csvField(record, idx, "grade"),
			Section:       csvField(record, idx, "section"),
		}

		if student.FirstName == "" || student.LastName == "" {
			skipped++
			bar.Add(1)
			continue
		}

		if err := repo.Create(ctx, student); err != nil {
			skipped++
			bar.Add(1)
			continue
		}
		imported++
		bar.Add(1)
	}
	fmt.Println()

	fmt.Printf("\nImported %d students, skipped %d\n", imported, skipped)
	return nil
}
