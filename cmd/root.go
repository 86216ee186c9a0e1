// Package cmd holds the command-line entry points.
package cmd

import (
	"context"
	"fmt"
	"os"

	"mesocratic/config"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "mesocratic",
	Short:         "Campaign finance ledger and compliance reporting",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return configureLogging(config.Get())
	},
}

func init() {
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newFollowUpCmd())
	rootCmd.AddCommand(newContributorsCmd())
	rootCmd.AddCommand(newLedgerCmd())
	rootCmd.AddCommand(newAuditCmd())
	rootCmd.AddCommand(newMigrateCmd())
}

// Execute runs the command tree with the given context
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func configureLogging(cfg *config.Config) error {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)

	if cfg.Environment == "production" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}
