package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/tagger/internal/catalog"
	"github.com/lehigh-university-libraries/tagger/internal/config"
	"github.com/spf13/cobra"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and manage the tag catalog",
		Long: `Catalog groups the commands that operate on an existing tag catalog
without scanning the library: listing entries, exporting and importing
flat files, and migrating legacy catalogs between backends.`,
	}

	cmd.AddCommand(newCatalogListCmd())
	cmd.AddCommand(newCatalogExportCmd())
	cmd.AddCommand(newCatalogImportCmd())
	cmd.AddCommand(newCatalogMigrateCmd())

	return cmd
}

// loadStoreConfig resolves the catalog location the way scan does, from
// config file plus the shared --catalog/--store overrides.
func loadStoreConfig(cmd *cobra.Command, configPath, catalogPath, storeBackend string) (*config.Config, error) {
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("catalog") {
		cfg.Store.Path = catalogPath
	}
	if cmd.Flags().Changed("store") {
		cfg.Store.Backend = strings.ToLower(strings.TrimSpace(storeBackend))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func addStoreFlags(cmd *cobra.Command, configPath, catalogPath, storeBackend *string) {
	cmd.Flags().StringVar(configPath, "config", "", "Path to config file")
	cmd.Flags().StringVar(catalogPath, "catalog", "", "Catalog file or database path")
	cmd.Flags().StringVar(storeBackend, "store", "", "Catalog backend (json or sqlite)")
}

func newCatalogListCmd() *cobra.Command {
	var (
		configPath   string
		catalogPath  string
		storeBackend string
		typeFilter   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog entries in a table",
		Example: `  # List everything in the default catalog
  tagger catalog list

  # Only 3D model entries from a SQLite catalog
  tagger catalog list --store sqlite --catalog tags.db --type 3d`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadStoreConfig(cmd, configPath, catalogPath, storeBackend)
			if err != nil {
				return err
			}
			return executeCatalogList(cmd.Context(), cfg, strings.ToLower(strings.TrimSpace(typeFilter)))
		},
	}

	addStoreFlags(cmd, &configPath, &catalogPath, &storeBackend)
	cmd.Flags().StringVar(&typeFilter, "type", "", "Only show entries of this type (image, text, or 3d)")

	return cmd
}

func executeCatalogList(ctx context.Context, cfg *config.Config, typeFilter string) error {
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	cat, err := store.Load(ctx)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(cat.Files))
	for _, row := range catalog.Rows(cat) {
		if typeFilter != "" && row.Type != typeFilter {
			continue
		}
		rows = append(rows, []string{
			row.Path,
			row.Type,
			topTags(row.Tags, 5),
			strconv.FormatInt(row.FileSize, 10),
			row.LastAnalyzed,
		})
	}

	headers := []string{"PATH", "TYPE", "TAGS", "SIZE", "LAST ANALYZED"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft}
	fmt.Println(renderTable(headers, rows, aligns))
	fmt.Printf("%d entries\n", len(rows))
	return nil
}

func topTags(tags []catalog.RowTag, limit int) string {
	names := make([]string, 0, limit)
	for _, t := range tags {
		if len(names) == limit {
			break
		}
		names = append(names, t.Tag)
	}
	return strings.Join(names, ", ")
}

func newCatalogExportCmd() *cobra.Command {
	var (
		configPath   string
		catalogPath  string
		storeBackend string
		format       string
	)

	cmd := &cobra.Command{
		Use:   "export [path]",
		Short: "Export the catalog to a JSONL or parquet file",
		Long: `Export flattens the catalog into one row per file and writes it to the
given path. The codec is picked from the extension (.jsonl or .parquet)
unless --format overrides it.`,
		Example: `  tagger catalog export tags.jsonl
  tagger catalog export --store sqlite --catalog tags.db tags.parquet`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadStoreConfig(cmd, configPath, catalogPath, storeBackend)
			if err != nil {
				return err
			}
			return executeCatalogExport(cmd.Context(), cfg, args[0], strings.ToLower(strings.TrimSpace(format)))
		},
	}

	addStoreFlags(cmd, &configPath, &catalogPath, &storeBackend)
	cmd.Flags().StringVar(&format, "format", "", "Export format (jsonl or parquet)")

	return cmd
}

func executeCatalogExport(ctx context.Context, cfg *config.Config, path, format string) error {
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	cat, err := store.Load(ctx)
	if err != nil {
		return err
	}

	if err := catalog.Export(cat, path, format); err != nil {
		return err
	}
	fmt.Printf("Exported %d entries to %s\n", len(cat.Files), path)
	return nil
}

func newCatalogImportCmd() *cobra.Command {
	var (
		configPath   string
		catalogPath  string
		storeBackend string
		format       string
	)

	cmd := &cobra.Command{
		Use:   "import [path]",
		Short: "Import entries from a JSONL or parquet file",
		Long: `Import reads exported rows and merges them into the catalog. Imported
entries replace existing entries with the same path.`,
		Example: `  tagger catalog import tags.jsonl
  tagger catalog import --store sqlite --catalog tags.db tags.parquet`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadStoreConfig(cmd, configPath, catalogPath, storeBackend)
			if err != nil {
				return err
			}
			return executeCatalogImport(cmd.Context(), cfg, args[0], strings.ToLower(strings.TrimSpace(format)))
		},
	}

	addStoreFlags(cmd, &configPath, &catalogPath, &storeBackend)
	cmd.Flags().StringVar(&format, "format", "", "Import format (jsonl or parquet)")

	return cmd
}

func executeCatalogImport(ctx context.Context, cfg *config.Config, path, format string) error {
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	cat, err := store.Load(ctx)
	if err != nil {
		return err
	}

	count, err := catalog.Import(cat, path, format)
	if err != nil {
		return err
	}
	if err := store.Save(ctx, cat); err != nil {
		return err
	}
	fmt.Printf("Imported %d entries into %s\n", count, cfg.Store.Path)
	return nil
}

func newCatalogMigrateCmd() *cobra.Command {
	var (
		configPath   string
		catalogPath  string
		storeBackend string
	)

	cmd := &cobra.Command{
		Use:   "migrate [path]",
		Short: "Migrate a legacy JSON catalog into the configured backend",
		Long: `Migrate reads a catalog JSON file, upgrades legacy document shapes
(such as the old top-level "images" key), and saves the result through
the configured backend. Unlike scan, malformed input is an error here
rather than a fresh start.`,
		Example: `  # Normalize a legacy file in place
  tagger catalog migrate data/tags.json

  # Move a JSON catalog into SQLite
  tagger catalog migrate --store sqlite --catalog tags.db data/tags.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadStoreConfig(cmd, configPath, catalogPath, storeBackend)
			if err != nil {
				return err
			}
			return executeCatalogMigrate(cmd.Context(), cfg, args[0])
		},
	}

	addStoreFlags(cmd, &configPath, &catalogPath, &storeBackend)

	return cmd
}

func executeCatalogMigrate(ctx context.Context, cfg *config.Config, source string) error {
	raw, err := os.ReadFile(source)
	if err != nil {
		return fmt.Errorf("failed to read catalog file: %w", err)
	}

	cat, err := catalog.Migrate(raw)
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := store.Save(ctx, cat); err != nil {
		return err
	}
	fmt.Printf("Migrated %d entries to %s\n", len(cat.Files), cfg.Store.Path)
	return nil
}
