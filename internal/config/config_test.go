package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"
)

// isolate keeps the resolver away from any real config files.
func isolate(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("TAGGING_PROVIDER", "")
	t.Setenv("TFSERVING_URL", "")
	t.Setenv("TFSERVING_MODEL", "")
	t.Setenv("TAGGING_LABELS", "")
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, _, exists, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("Expected no config file to be found")
	}
	if cfg.Scan.Root != "data" {
		t.Errorf("Expected root data, got %s", cfg.Scan.Root)
	}
	if cfg.Store.Backend != "json" {
		t.Errorf("Expected backend json, got %s", cfg.Store.Backend)
	}
	if cfg.Store.Path != "data/tags.json" {
		t.Errorf("Expected path data/tags.json, got %s", cfg.Store.Path)
	}
	if cfg.Classifier.Provider != "tfserving" {
		t.Errorf("Expected provider tfserving, got %s", cfg.Classifier.Provider)
	}
	if cfg.Classifier.Endpoint != "http://localhost:8501" {
		t.Errorf("Expected default endpoint, got %s", cfg.Classifier.Endpoint)
	}
	if cfg.Classifier.Model != "resnet50" {
		t.Errorf("Expected model resnet50, got %s", cfg.Classifier.Model)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Expected level info, got %s", cfg.Logging.Level)
	}
}

func TestLoadExplicitFile(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "custom.toml")
	content := `
[scan]
root = "media"

[store]
backend = "SQLite"
path = "media/catalog.db"

[classifier]
provider = "OpenAI"
model = "gpt-4o-mini"

[logging]
level = "DEBUG"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("Expected config file to be read")
	}
	if resolved != path {
		t.Errorf("Expected resolved path %s, got %s", path, resolved)
	}
	if cfg.Scan.Root != "media" {
		t.Errorf("Expected root media, got %s", cfg.Scan.Root)
	}
	if cfg.Store.Backend != "sqlite" {
		t.Errorf("Expected backend lowercased, got %s", cfg.Store.Backend)
	}
	if cfg.Classifier.Provider != "openai" {
		t.Errorf("Expected provider lowercased, got %s", cfg.Classifier.Provider)
	}
	if cfg.Classifier.Model != "gpt-4o-mini" {
		t.Errorf("Expected configured model, got %s", cfg.Classifier.Model)
	}
	if cfg.Classifier.Endpoint != "" {
		t.Errorf("Expected no endpoint for openai, got %s", cfg.Classifier.Endpoint)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected level lowercased, got %s", cfg.Logging.Level)
	}
}

func TestLoadExplicitFileMissing(t *testing.T) {
	isolate(t)

	if _, _, _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("Expected error for missing explicit config")
	}
}

func TestLoadProjectFile(t *testing.T) {
	isolate(t)

	content := "[scan]\nroot = \"library\"\n"
	if err := os.WriteFile("tagger.toml", []byte(content), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, _, exists, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("Expected project config file to be found")
	}
	if cfg.Scan.Root != "library" {
		t.Errorf("Expected root library, got %s", cfg.Scan.Root)
	}
}

func TestLoadEnvFallbacks(t *testing.T) {
	isolate(t)
	t.Setenv("TAGGING_PROVIDER", "GEMINI")
	t.Setenv("TFSERVING_URL", "http://models:8501/")

	cfg, _, _, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Classifier.Provider != "gemini" {
		t.Errorf("Expected provider from env, got %s", cfg.Classifier.Provider)
	}
	if cfg.Classifier.Endpoint != "http://models:8501" {
		t.Errorf("Expected trimmed endpoint from env, got %s", cfg.Classifier.Endpoint)
	}
	if cfg.Classifier.Model != "" {
		t.Errorf("Expected no model default for gemini, got %s", cfg.Classifier.Model)
	}
}

func TestFileWinsOverEnv(t *testing.T) {
	isolate(t)
	t.Setenv("TAGGING_PROVIDER", "openai")

	path := filepath.Join(t.TempDir(), "custom.toml")
	if err := os.WriteFile(path, []byte("[classifier]\nprovider = \"tfserving\"\n"), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Classifier.Provider != "tfserving" {
		t.Errorf("Expected file value to win, got %s", cfg.Classifier.Provider)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(c *Config) {}},
		{name: "bad backend", mutate: func(c *Config) { c.Store.Backend = "postgres" }, wantErr: true},
		{name: "bad provider", mutate: func(c *Config) { c.Classifier.Provider = "ollama" }, wantErr: true},
		{name: "bad level", mutate: func(c *Config) { c.Logging.Level = "trace" }, wantErr: true},
		{name: "empty root", mutate: func(c *Config) { c.Scan.Root = "" }, wantErr: true},
		{name: "empty path", mutate: func(c *Config) { c.Store.Path = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("Expected valid config, got %v", err)
			}
		})
	}
}

func TestExpandPathTilde(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/media/tags.json")
	if err != nil {
		t.Fatalf("expandPath failed: %v", err)
	}
	want := filepath.Join(home, "media", "tags.json")
	if got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}

	rel, err := expandPath("data")
	if err != nil {
		t.Fatalf("expandPath failed: %v", err)
	}
	if rel != "data" {
		t.Errorf("Expected relative path untouched, got %s", rel)
	}
}

func TestWriteSample(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "conf", "tagger.toml")

	if err := WriteSample(path, false); err != nil {
		t.Fatalf("WriteSample failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("sample config does not parse: %v", err)
	}
	if cfg.Classifier.Provider != "tfserving" {
		t.Errorf("Expected sample provider tfserving, got %s", cfg.Classifier.Provider)
	}

	if err := WriteSample(path, false); err == nil {
		t.Fatal("Expected error overwriting without force")
	}
	if err := WriteSample(path, true); err != nil {
		t.Fatalf("WriteSample with force failed: %v", err)
	}
}
