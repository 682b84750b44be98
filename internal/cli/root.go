// Package cli implements the pocketbook command line tool for maintaining the
// ledger store directly.
package cli

import (
	"context"
	"os"

	"github.com/dafibh/pocketbook/pocketbook-backend/internal/app"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Opener builds the application the commands operate on
type Opener func(ctx context.Context) (*app.App, error)

// OpenFromEnv loads configuration from the environment and wires the app
func OpenFromEnv(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg)
}

// NewRootCommand returns the pocketbook command with every subcommand
func NewRootCommand(open Opener) *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "pocketbook",
		Short:         "Maintain the pocketbook ledger store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := zerolog.WarnLevel
			if verbose {
				level = zerolog.DebugLevel
			}
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level)
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output")

	rootCmd.AddCommand(
		newInitCmd(open),
		newResetCmd(open),
		newSummaryCmd(open),
		newRebuildCmd(open),
		newExportCmd(open),
		newImportCmd(open),
	)
	return rootCmd
}

// withApp opens the app, runs fn and closes the app
func withApp(cmd *cobra.Command, open Opener, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}
