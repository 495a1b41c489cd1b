package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var reembedCmd = &cobra.Command{
	Use:   "reembed",
	Short: "Regenerate embeddings for all active chunks",
	Long: `Regenerates the stored embedding of every chunk belonging to an
active document, one chunk at a time. Run after switching the embedder
model. Individual failures are tallied and reported, not fatal.`,
	RunE: runReembed,
}

func init() {
	rootCmd.AddCommand(reembedCmd)
}

func runReembed(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	ctx := context.Background()

	a, err := setup(ctx, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.Ingester.Reembed(ctx)
	if err != nil {
		return fmt.Errorf("re-embedding: %w", err)
	}

	fmt.Printf("Re-embedded %d of %d chunks", result.Updated, result.Total)
	if result.Failed > 0 {
		fmt.Printf(" (%d failed)", result.Failed)
	}
	fmt.Println()
	return nil
}
