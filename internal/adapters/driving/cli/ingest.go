package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/calder-labs/notari/internal/core/domain"
	"github.com/calder-labs/notari/internal/parser"
)

// ingestUser is the --user flag for the ingest command.
var ingestUser string

// ingestTimeout bounds one-shot ingestion of a single file.
const ingestTimeout = 5 * time.Minute

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest a local file",
	Long: `Parses a local file (.pdf, .md, .txt), indexes its content, and
waits for ingestion to finish.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestUser, "user", "u", "default", "Owner of the document")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if documentService == nil || ingestor == nil {
		return errors.New("document service not configured")
	}

	path := args[0]
	if !parser.Supported(path) {
		return fmt.Errorf("unsupported file type: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	text, err := parser.Parse(path, data)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), ingestTimeout)
	defer cancel()

	// One-shot mode: run the workers just for this document.
	go ingestor.Start(ctx) //nolint:errcheck
	defer ingestor.Stop()  //nolint:errcheck

	doc, err := documentService.Upload(ctx, ingestUser, filepath.Base(path), text)
	if err != nil {
		return fmt.Errorf("uploading document: %w", err)
	}

	cmd.Printf("Ingesting %s as %s...\n", path, doc.ID)

	status, err := waitForTerminal(ctx, doc.ID)
	if err != nil {
		return err
	}

	cmd.Printf("Document %s: %s\n", doc.ID, status)
	if status == domain.StatusFailed {
		return errors.New("ingestion failed")
	}
	return nil
}

// waitForTerminal polls the document status until it stops changing.
// An empty document never leaves "processing"; the chunk count makes
// that visible immediately, so the poll also stops once the queue has
// drained and the status is stable.
func waitForTerminal(ctx context.Context, documentID string) (domain.DocumentStatus, error) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	stable := 0
	last := domain.StatusProcessing
	for {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("waiting for ingestion: %w", ctx.Err())
		case <-ticker.C:
			status, err := documentService.Status(ctx, documentID)
			if err != nil {
				return "", fmt.Errorf("checking status: %w", err)
			}
			if status.IsTerminal() {
				return status, nil
			}
			if status == last {
				stable++
			} else {
				stable = 0
				last = status
			}
			// Several seconds without movement: report as-is.
			if stable > 50 {
				return status, nil
			}
		}
	}
}
