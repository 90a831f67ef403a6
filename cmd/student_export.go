package cmd

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/rollcall/internal/config"
	"github.com/kozaktomas/rollcall/internal/database/postgres"
	"github.com/kozaktomas/rollcall/internal/embedding"
)

var studentExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export enrolled face embeddings to a backup file",
	Long: `Export the enrolled face embeddings of a class to a backup file.
Each entry carries the student id and the versioned binary embedding, so
a restore onto a different embedding model is rejected instead of
producing silent mismatches.

Examples:
  rollcall student export --grade 7 --section A --out class7a.emb`,
	RunE: runStudentExport,
}

func init() {
	studentCmd.AddCommand(studentExportCmd)

	studentExportCmd.Flags().String("grade", "", "Grade (required)")
	studentExportCmd.Flags().String("section", "", "Section (required)")
	studentExportCmd.Flags().String("out", "", "Output file (required)")
	studentExportCmd.MarkFlagRequired("grade")
	studentExportCmd.MarkFlagRequired("section")
	studentExportCmd.MarkFlagRequired("out")
}

// writeBackupEntry writes one length-prefixed id plus its encoded embedding.
func writeBackupEntry(out *os.File, id string, emb []float32) error {
	blob := embedding.EncodeBinary(emb)

	var lens [6]byte
	binary.LittleEndian.PutUint16(lens[0:2], uint16(len(id)))
	binary.LittleEndian.PutUint32(lens[2:6], uint32(len(blob)))

	if _, err := out.Write(lens[:]); err != nil {
		return err
	}
	if _, err := out.WriteString(id); err != nil {
		return err
	}
	if _, err := out.Write(blob); err != nil {
		return err
	}
	return nil
}

func runStudentExport(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	pool, err := connectDatabase(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo := postgres.NewStudentRepository(pool)
	students, err := repo.List(ctx, mustGetString(cmd, "grade"), mustGetString(cmd, "section"))
	if err != nil {
		return fmt.Errorf("failed to list students: %w", err)
	}

	out, err := os.Create(mustGetString(cmd, "out"))
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer out.Close()

	exported := 0
	for i := range students {
		if students[i].Embedding == nil {
			continue
		}
		if err := writeBackupEntry(out, students[i].ID, students[i].Embedding); err != nil {
			return fmt.Errorf("failed to write backup: %w", err)
		}
		exported++
	}

	fmt.Printf("Exported %d enrollments (of %d students) to %s\n",
		exported, len(students), mustGetString(cmd, "out"))
	return nil
}
