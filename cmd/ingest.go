package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file.pdf ...]",
	Short: "Ingest reference PDFs into the knowledge base",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	ctx := context.Background()

	a, err := setup(ctx, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	var failed int
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", path, err)
			failed++
			continue
		}

		result, err := a.Ingester.IngestPDF(ctx, filepath.Base(path), data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error ingesting %s: %v\n", path, err)
			failed++
			continue
		}

		fmt.Printf("%s: %d pages, %d chunks stored", path, result.Pages, result.Stored)
		if result.Failed > 0 {
			fmt.Printf(" (%d failed)", result.Failed)
		}
		fmt.Println()
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(args))
	}
	return nil
}
