// Package cmd wires the opsmail commands: the HTTP server, document
// ingestion, one-off questions and database maintenance.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/edgecity/opsmail/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "opsmail",
	Short: "opsmail answers participant emails from your reference documents",
	Long: `opsmail ingests reference PDFs, answers participant emails with a
retrieval pipeline, flags factual conflicts, and routes every draft
through human review before anything is sent.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newLogger builds the process logger. DEBUG in the environment
// enables debug level; OPSMAIL_LOG_JSON switches to JSON output.
func newLogger() log.Logger {
	cfg := log.Config{}
	if os.Getenv("DEBUG") != "" {
		cfg.Level = slog.LevelDebug
	}
	if os.Getenv("OPSMAIL_LOG_JSON") != "" {
		cfg.JSON = true
	}
	return log.New(cfg)
}
