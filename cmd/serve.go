package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/edgecity/opsmail/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	logger := newLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := setup(ctx, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Config.ValidateServe(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	server := api.NewServer(api.ServerConfig{
		Pool:          a.Pool,
		Pipeline:      a.Pipeline,
		Retriever:     a.Retriever,
		Ingester:      a.Ingester,
		Documents:     a.Documents,
		Queries:       a.Queries,
		Facts:         a.Facts,
		InboundSecret: a.Config.InboundSecret,
		Logger:        logger,
	})

	logger.Info("starting opsmail API", "version", AppVersion, "addr", a.Config.HTTPAddr)
	return server.Run(ctx, a.Config.HTTPAddr)
}
