package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	verbose  bool
	logLevel = new(slog.LevelVar)
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tagger",
		Short: "Media library tagging tool with ML-powered image classification",
		Long: `Tagger scans a media library and maintains a catalog of descriptive tags.

Images are classified with a local TensorFlow Serving model or a hosted vision
model, text files are mined for keywords, and 3D model bundles are indexed with
their thumbnails. Results land in a JSON or SQLite catalog that hand-edited
tags survive across rescans.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			logLevel.Set(level)
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	// Add subcommands
	cmd.AddCommand(newScanCmd())
	cmd.AddCommand(newCatalogCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newFetchCmd())

	return cmd
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
