package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lehigh-university-libraries/tagger/internal/catalog"
	"github.com/lehigh-university-libraries/tagger/internal/classifier"
	"github.com/lehigh-university-libraries/tagger/internal/config"
	"github.com/lehigh-university-libraries/tagger/internal/gemini"
	"github.com/lehigh-university-libraries/tagger/internal/openai"
	"github.com/lehigh-university-libraries/tagger/internal/report"
	"github.com/lehigh-university-libraries/tagger/internal/tagging"
	"github.com/lehigh-university-libraries/tagger/internal/tfserving"
	"github.com/spf13/cobra"
)

func newScanCmd() *cobra.Command {
	var (
		configPath   string
		dir          string
		catalogPath  string
		storeBackend string
		provider     string
		endpoint     string
		model        string
		labels       string
		reportDir    string
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the media library and refresh the tag catalog",
		Long: `Scan walks the top level of the library root, tags every image, text file,
standalone 3D model, and model folder it finds, and saves the merged catalog.

Files already in the catalog keep their tags; only entries whose tag list is
empty are re-tagged. Unsupported files are skipped.`,
		Example: `  # Scan ./data with a local TensorFlow Serving classifier
  tagger scan

  # Scan another library into a SQLite catalog
  tagger scan --dir /mnt/media --store sqlite --catalog /mnt/media/tags.db

  # Use a hosted vision model instead
  tagger scan --provider openai --model gpt-4o

  # Keep a YAML report of the run
  tagger scan --report reports/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := config.Load(configPath)
			if err != nil {
				return err
			}

			// Flags beat file and environment values.
			if cmd.Flags().Changed("dir") {
				cfg.Scan.Root = dir
			}
			if cmd.Flags().Changed("catalog") {
				cfg.Store.Path = catalogPath
			}
			if cmd.Flags().Changed("store") {
				cfg.Store.Backend = strings.ToLower(strings.TrimSpace(storeBackend))
			}
			if cmd.Flags().Changed("provider") {
				cfg.Classifier.Provider = strings.ToLower(strings.TrimSpace(provider))
				// Keep the tfserving default model from leaking into a
				// hosted provider; each provider resolves its own default.
				if !cmd.Flags().Changed("model") && cfg.Classifier.Provider != "tfserving" {
					cfg.Classifier.Model = ""
				}
			}
			if cmd.Flags().Changed("endpoint") {
				cfg.Classifier.Endpoint = strings.TrimRight(endpoint, "/")
			}
			if cmd.Flags().Changed("model") {
				cfg.Classifier.Model = model
			}
			if cmd.Flags().Changed("labels") {
				cfg.Classifier.Labels = labels
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			if !verbose {
				logLevel.Set(parseLevel(cfg.Logging.Level))
			}

			return executeScan(cmd.Context(), cfg, reportDir)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file")
	cmd.Flags().StringVar(&dir, "dir", "", "Library root to scan")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "Catalog file or database path")
	cmd.Flags().StringVar(&storeBackend, "store", "", "Catalog backend (json or sqlite)")
	cmd.Flags().StringVar(&provider, "provider", "", "Classification provider (tfserving, openai, or gemini)")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "TensorFlow Serving base URL")
	cmd.Flags().StringVar(&model, "model", "", "Model name for the chosen provider")
	cmd.Flags().StringVar(&labels, "labels", "", "Path to a newline-separated label vocabulary")
	cmd.Flags().StringVar(&reportDir, "report", "", "Write a YAML run report into this directory")

	return cmd
}

func executeScan(ctx context.Context, cfg *config.Config, reportDir string) error {
	fmt.Println("Setting up model...")
	c, err := buildClassifier(cfg)
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	fmt.Println("Processing files...")
	service := tagging.NewService(store, c)
	summary, err := service.ProcessDirectory(ctx, cfg.Scan.Root)
	if err != nil {
		return err
	}

	slog.Info("Scan complete",
		"images", summary.Processed[catalog.TypeImage],
		"text files", summary.Processed[catalog.TypeText],
		"models", summary.Processed[catalog.Type3D],
		"skipped", summary.Skipped,
		"errors", len(summary.Errors),
		"duration", summary.Duration)

	if reportDir != "" {
		path, err := report.Save(reportDir, report.Config{
			Root:     cfg.Scan.Root,
			Catalog:  cfg.Store.Path,
			Store:    cfg.Store.Backend,
			Provider: cfg.Classifier.Provider,
			Model:    cfg.Classifier.Model,
		}, summary)
		if err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		fmt.Printf("Report saved to %s\n", path)
	}

	fmt.Printf("Done! Results saved to %s\n", cfg.Store.Path)
	return nil
}

func buildClassifier(cfg *config.Config) (classifier.Classifier, error) {
	switch cfg.Classifier.Provider {
	case "tfserving":
		model := tfserving.New(cfg.Classifier.Endpoint, cfg.Classifier.Model)
		var labels []string
		if cfg.Classifier.Labels != "" {
			var err error
			labels, err = classifier.LoadLabels(cfg.Classifier.Labels)
			if err != nil {
				return nil, fmt.Errorf("failed to load labels: %w", err)
			}
		}
		return classifier.NewLocal(model, labels), nil
	case "openai":
		return openai.New(cfg.Classifier.Model), nil
	case "gemini":
		return gemini.New(cfg.Classifier.Model), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Classifier.Provider)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (catalog.Store, func(), error) {
	switch cfg.Store.Backend {
	case "sqlite":
		store, err := catalog.OpenSQLite(ctx, cfg.Store.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite catalog: %w", err)
		}
		closer := func() {
			if err := store.Close(); err != nil {
				slog.Warn("Failed to close sqlite catalog", "error", err)
			}
		}
		return store, closer, nil
	default:
		return catalog.NewJSONStore(cfg.Store.Path), func() {}, nil
	}
}
