package cmd

import (
	"fmt"
	"log/slog"

	"github.com/lehigh-university-libraries/tagger/internal/config"
	"github.com/lehigh-university-libraries/tagger/internal/fetch"
	"github.com/spf13/cobra"
)

func newFetchCmd() *cobra.Command {
	var (
		configPath string
		dir        string
	)

	cmd := &cobra.Command{
		Use:   "fetch URL...",
		Short: "Download media files into the library",
		Long: `Fetch downloads each URL into the library root, naming the file from the
URL and the response content type. Supported content types are the image
formats the scanner handles, plain text, and binary glTF models.`,
		Example: `  tagger fetch https://example.com/photos/sunset.jpg
  tagger fetch --dir /mnt/media https://example.com/models/chair.glb`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("dir") {
				cfg.Scan.Root = dir
			}

			fetcher := fetch.NewFetcher()
			failures := 0
			for _, rawURL := range args {
				path, err := fetcher.Fetch(cmd.Context(), rawURL, cfg.Scan.Root)
				if err != nil {
					slog.Error("Failed to fetch file", "url", rawURL, "error", err)
					failures++
					continue
				}
				fmt.Printf("Saved %s\n", path)
			}

			if failures > 0 {
				return fmt.Errorf("failed to fetch %d of %d files", failures, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file")
	cmd.Flags().StringVar(&dir, "dir", "", "Directory to download into (defaults to the library root)")

	return cmd
}
