package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// JSONStore persists the catalog as pretty-printed JSON on disk. This is
// the default backend and matches the hand-editable format curators
// already maintain.
type JSONStore struct {
	path string
}

// NewJSONStore returns a store backed by the JSON file at path.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Path returns the backing file location.
func (s *JSONStore) Path() string {
	return s.path
}

// Load reads and migrates the catalog. A missing or empty file yields an
// empty catalog; unreadable or malformed content is logged and also
// yields an empty catalog, so a damaged file never blocks a scan.
func (s *JSONStore) Load(ctx context.Context) (*Catalog, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Debug("No existing catalog", "path", s.path)
			return New(), nil
		}
		slog.Warn("Unable to read catalog, starting fresh", "path", s.path, "err", err)
		return New(), nil
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return New(), nil
	}

	cat, err := Migrate(raw)
	if err != nil {
		slog.Warn("Invalid catalog file, starting fresh", "path", s.path, "err", err)
		return New(), nil
	}
	return cat, nil
}

// Save writes the catalog, creating the parent directory if needed.
func (s *JSONStore) Save(ctx context.Context, c *Catalog) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create catalog directory: %w", err)
		}
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	return nil
}
