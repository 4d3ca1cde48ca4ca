// Package cli implements the faceveil command line tool: probe, analyze,
// render and preview over local video files without the API server.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/veilworks/faceveil/internal/config"
)

// Version is the application version.
const Version = "0.1.0"

var (
	verbose bool
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:     "faceveil",
	Short:   "Face-blur video anonymization toolkit",
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = config.NewCLILogger(verbose)
		slog.SetDefault(logger)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
