package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/tagger/internal/tagging"
	"gopkg.in/yaml.v3"
)

// Config represents the configuration section of the scan report
type Config struct {
	Root     string `yaml:"root"`
	Catalog  string `yaml:"catalog"`
	Store    string `yaml:"store"`
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

// Report represents a complete scan run
type Report struct {
	RunID     string         `yaml:"runid"`
	Timestamp string         `yaml:"timestamp"`
	Duration  string         `yaml:"duration"`
	Config    Config         `yaml:"config"`
	Processed map[string]int `yaml:"processed"`
	Skipped   int            `yaml:"skipped"`
	Errors    []string       `yaml:"errors,omitempty"`
}

// Save writes the scan summary to a timestamped YAML file under dir
// and returns the written path.
func Save(dir string, cfg Config, summary *tagging.Summary) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")

	rep := Report{
		RunID:     uuid.NewString(),
		Timestamp: timestamp,
		Duration:  summary.Duration.String(),
		Config:    cfg,
		Processed: summary.Processed,
		Skipped:   summary.Skipped,
		Errors:    summary.Errors,
	}

	data, err := yaml.Marshal(&rep)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}

	filename := filepath.Join(dir, fmt.Sprintf("scan-%s.yaml", timestamp))
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write YAML file: %w", err)
	}

	return filename, nil
}
