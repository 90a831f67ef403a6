package cmd

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/rollcall/internal/config"
	"github.com/kozaktomas/rollcall/internal/database/postgres"
	"github.com/kozaktomas/rollcall/internal/embedding"
)

var studentRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore enrolled face embeddings from a backup file",
	Long: `Restore face enrollments from a backup created with "student export".
Embeddings whose dimension does not match the configured model are
rejected; re-enroll those students instead.

Examples:
  rollcall student restore --file class7a.emb`,
	RunE: runStudentRestore,
}

func init() {
	studentCmd.AddCommand(studentRestoreCmd)

	studentRestoreCmd.Flags().String("file", "", "Backup file (required)")
	studentRestoreCmd.MarkFlagRequired("file")
}

// readBackupEntry reads one length-prefixed id plus its encoded embedding.
// Returns io.EOF at a clean end of file.
func readBackupEntry(in io.Reader, expectedDim int) (string, []float32, error) {
	var lens [6]byte
	if _, err := io.ReadFull(in, lens[:]); err != nil {
		return "", nil, err
	}
	idLen := binary.LittleEndian.Uint16(lens[0:2])
	blobLen := binary.LittleEndian.Uint32(lens[2:6])

	id := make([]byte, idLen)
	if _, err := io.ReadFull(in, id); err != nil {
		return "", nil, fmt.Errorf("truncated backup entry: %w", err)
	}
	blob := make([]byte, blobLen)
	if _, err := io.ReadFull(in, blob); err != nil {
		return "", nil, fmt.Errorf("truncated backup entry: %w", err)
	}

	emb, err := embedding.DecodeBinary(blob, expectedDim)
	if err != nil {
		return string(id), nil, err
	}
	return string(id), emb, nil
}

func runStudentRestore(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	ctx := context.Background()

	in, err := os.Open(mustGetString(cmd, "file"))
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer in.Close()

	pool, err := connectDatabase(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo := postgres.NewStudentRepository(pool)

	restored, failed := 0, 0
	for {
		id, emb, err := readBackupEntry(in, cfg.Recognizer.EmbeddingDim)
		if err == io.EOF {
			break
		}
		if err != nil && emb == nil && id != "" {
			fmt.Printf("Skipping %s: %v\n", id, err)
			failed++
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read backup: %w", err)
		}

		if err := repo.UpdateEmbedding(ctx, id, emb); err != nil {
			fmt.Printf("Skipping %s: %v\n", id, err)
			failed++
			continue
		}
		restored++
	}

	fmt.Printf("Restored %d enrollments, skipped %d\n", restored, failed)
	return nil
}
