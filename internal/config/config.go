package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

const (
	defaultRoot        = "data"
	defaultBackend     = "json"
	defaultCatalogPath = "data/tags.json"
	defaultProvider    = "tfserving"
	defaultEndpoint    = "http://localhost:8501"
	defaultModel       = "resnet50"
	defaultLogLevel    = "info"
)

// Scan contains configuration for the library walk.
type Scan struct {
	Root string `toml:"root"`
}

// Store contains configuration for catalog persistence.
type Store struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
}

// Classifier contains configuration for the image classification
// provider.
type Classifier struct {
	Provider string `toml:"provider"`
	Endpoint string `toml:"endpoint"`
	Model    string `toml:"model"`
	Labels   string `toml:"labels"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level string `toml:"level"`
}

// Config encapsulates all configuration values for tagger.
type Config struct {
	Scan       Scan       `toml:"scan"`
	Store      Store      `toml:"store"`
	Classifier Classifier `toml:"classifier"`
	Logging    Logging    `toml:"logging"`
}

// Default returns a Config populated with the built-in defaults.
func Default() Config {
	cfg := Config{}
	cfg.Scan.Root = defaultRoot
	cfg.Store.Backend = defaultBackend
	cfg.Store.Path = defaultCatalogPath
	cfg.Classifier.Provider = defaultProvider
	cfg.Classifier.Endpoint = defaultEndpoint
	cfg.Classifier.Model = defaultModel
	cfg.Logging.Level = defaultLogLevel
	return cfg
}

// DefaultConfigPath returns the path of the per-user configuration
// file.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/tagger/config.toml")
}

// Load locates, parses, normalizes and validates a configuration file.
// It returns the config, the resolved path, and whether a file was
// actually read. An empty path searches ./tagger.toml and the per-user
// location; no file at all means pure defaults.
func Load(path string) (*Config, string, bool, error) {
	cfg := Config{}

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("failed to open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", false, fmt.Errorf("config file not found: %s", expanded)
			}
			return "", false, fmt.Errorf("failed to stat config: %w", err)
		}
		return expanded, true, nil
	}

	projectPath, err := filepath.Abs("tagger.toml")
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	userPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(userPath); err == nil && !info.IsDir() {
		return userPath, true, nil
	}

	return userPath, false, nil
}

// normalize fills each empty field from its environment variable and
// then the built-in default, and canonicalizes enum values. File
// values always win over the environment.
func (c *Config) normalize() {
	c.Scan.Root = strings.TrimSpace(c.Scan.Root)
	if c.Scan.Root == "" {
		c.Scan.Root = defaultRoot
	}
	if expanded, err := expandPath(c.Scan.Root); err == nil {
		c.Scan.Root = expanded
	}

	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	if c.Store.Backend == "" {
		c.Store.Backend = defaultBackend
	}
	c.Store.Path = strings.TrimSpace(c.Store.Path)
	if c.Store.Path == "" {
		c.Store.Path = defaultCatalogPath
	}
	if expanded, err := expandPath(c.Store.Path); err == nil {
		c.Store.Path = expanded
	}

	c.Classifier.Provider = strings.ToLower(strings.TrimSpace(c.Classifier.Provider))
	if c.Classifier.Provider == "" {
		c.Classifier.Provider = strings.ToLower(strings.TrimSpace(os.Getenv("TAGGING_PROVIDER")))
	}
	if c.Classifier.Provider == "" {
		c.Classifier.Provider = defaultProvider
	}

	c.Classifier.Endpoint = strings.TrimSpace(c.Classifier.Endpoint)
	if c.Classifier.Endpoint == "" {
		c.Classifier.Endpoint = strings.TrimSpace(os.Getenv("TFSERVING_URL"))
	}
	if c.Classifier.Endpoint == "" && c.Classifier.Provider == defaultProvider {
		c.Classifier.Endpoint = defaultEndpoint
	}
	c.Classifier.Endpoint = strings.TrimRight(c.Classifier.Endpoint, "/")

	c.Classifier.Model = strings.TrimSpace(c.Classifier.Model)
	if c.Classifier.Provider == defaultProvider {
		if c.Classifier.Model == "" {
			c.Classifier.Model = strings.TrimSpace(os.Getenv("TFSERVING_MODEL"))
		}
		if c.Classifier.Model == "" {
			c.Classifier.Model = defaultModel
		}
	}

	c.Classifier.Labels = strings.TrimSpace(c.Classifier.Labels)
	if c.Classifier.Labels == "" {
		c.Classifier.Labels = strings.TrimSpace(os.Getenv("TAGGING_LABELS"))
	}
	if c.Classifier.Labels != "" {
		if expanded, err := expandPath(c.Classifier.Labels); err == nil {
			c.Classifier.Labels = expanded
		}
	}

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "json", "sqlite":
	default:
		return fmt.Errorf("store.backend must be json or sqlite, got %q", c.Store.Backend)
	}

	switch c.Classifier.Provider {
	case "tfserving", "openai", "gemini":
	default:
		return fmt.Errorf("classifier.provider must be tfserving, openai or gemini, got %q", c.Classifier.Provider)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}

	if c.Scan.Root == "" {
		return errors.New("scan.root must be set")
	}
	if c.Store.Path == "" {
		return errors.New("store.path must be set")
	}
	return nil
}

// WriteSample writes the commented sample configuration to path. An
// existing file is only overwritten with force.
func WriteSample(path string, force bool) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}

	if _, err := os.Stat(expanded); err == nil && !force {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", expanded)
	}

	if dir := filepath.Dir(expanded); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(expanded, []byte(sampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to write sample config: %w", err)
	}
	return nil
}

// expandPath resolves a leading ~ against the user home directory.
// Relative paths stay relative to the working directory, matching how
// the scanner treats its default "data" root.
func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	return filepath.Clean(pathValue), nil
}
