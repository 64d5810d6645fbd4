// Package commands defines all Cobra CLI commands for the shiksha binary.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/shiksha-ai/shiksha-go/internal/audit"
	"github.com/shiksha-ai/shiksha-go/internal/config"
	"github.com/shiksha-ai/shiksha-go/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "shiksha",
		Short: "Shiksha — an AI teaching assistant grounded in your textbooks",
		Long: `Shiksha is a retrieval-augmented backend for schools.

It ingests textbook PDFs into a vector store, answers student questions
grounded in specific pages, auto-generates question papers, corrects
handwritten answer sheets with OCR, takes photo attendance, and maintains
a class leaderboard.

Model provider is selected via the MODEL_PROVIDER environment variable
or a YAML config file (~/.shiksha/config.yaml).
See 'shiksha --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.New()

			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			// Emit structured audit log for every command invocation.
			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.shiksha/config.yaml)")

	root.AddCommand(
		NewServeCmd(),
		NewIngestCmd(),
		NewAskCmd(),
		NewPaperCmd(),
		NewSeedLeaderboardCmd(),
		NewVersionCmd(),
	)

	return root
}
