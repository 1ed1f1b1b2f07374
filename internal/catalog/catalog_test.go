package catalog

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMigrate(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantPaths []string
		wantErr   bool
	}{
		{
			name:      "current document",
			raw:       `{"files": {"photo.jpg": {"type": "image", "tags": [], "last_analyzed": "t", "file_size": 1}}}`,
			wantPaths: []string{"photo.jpg"},
		},
		{
			name:      "legacy images key",
			raw:       `{"images": {"old.png": {"type": "image", "tags": [], "last_analyzed": "t", "file_size": 2}}}`,
			wantPaths: []string{"old.png"},
		},
		{
			name:      "both keys prefers files",
			raw:       `{"images": {"old.png": {}}, "files": {"new.png": {}}}`,
			wantPaths: []string{"new.png"},
		},
		{
			name:      "missing files key",
			raw:       `{}`,
			wantPaths: []string{},
		},
		{
			name:      "null document",
			raw:       `null`,
			wantPaths: []string{},
		},
		{
			name:    "not an object",
			raw:     `[1, 2, 3]`,
			wantErr: true,
		},
		{
			name:    "invalid json",
			raw:     `{"files": `,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat, err := Migrate([]byte(tt.raw))
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Migrate failed: %v", err)
			}
			if len(cat.Files) != len(tt.wantPaths) {
				t.Errorf("Expected %d entries, got %d", len(tt.wantPaths), len(cat.Files))
			}
			for _, path := range tt.wantPaths {
				if _, ok := cat.Files[path]; !ok {
					t.Errorf("Expected entry for %s", path)
				}
			}
		})
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	raw := `{"images": {"old.png": {"type": "image", "tags": [{"tag": "red", "confidence": "100.00%"}], "last_analyzed": "t", "file_size": 2}}}`

	first, err := Migrate([]byte(raw))
	if err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	store := NewJSONStore(filepath.Join(t.TempDir(), "tags.json"))
	ctx := context.Background()
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	second, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(second.Files) != 1 {
		t.Fatalf("Expected 1 entry after re-migration, got %d", len(second.Files))
	}
	e, ok := second.Files["old.png"]
	if !ok {
		t.Fatal("Expected old.png to survive re-migration")
	}
	if len(e.Tags) != 1 || e.Tags[0].Tag != "red" {
		t.Errorf("Expected tags to survive re-migration, got %+v", e.Tags)
	}
}

func TestRenameImagesKeyTwice(t *testing.T) {
	doc := mustDoc(t, `{"images": {"a.png": {}}}`)

	if err := renameImagesKey(doc); err != nil {
		t.Fatalf("first apply failed: %v", err)
	}
	if err := renameImagesKey(doc); err != nil {
		t.Fatalf("second apply failed: %v", err)
	}

	if _, ok := doc["images"]; ok {
		t.Error("Expected images key to be removed")
	}
	if _, ok := doc["files"]; !ok {
		t.Error("Expected files key to be present")
	}
}

func TestJSONStoreLoad(t *testing.T) {
	tests := []struct {
		name    string
		content string
		write   bool
		want    int
	}{
		{name: "missing file", write: false, want: 0},
		{name: "empty file", content: "", write: true, want: 0},
		{name: "whitespace only", content: "  \n\t", write: true, want: 0},
		{name: "corrupt json", content: `{"files": {`, write: true, want: 0},
		{name: "wrong shape", content: `[]`, write: true, want: 0},
		{
			name:    "valid catalog",
			content: `{"files": {"a.jpg": {"type": "image", "tags": [], "last_analyzed": "t", "file_size": 3}}}`,
			write:   true,
			want:    1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "tags.json")
			if tt.write {
				if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
					t.Fatalf("write fixture: %v", err)
				}
			}

			cat, err := NewJSONStore(path).Load(context.Background())
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if len(cat.Files) != tt.want {
				t.Errorf("Expected %d entries, got %d", tt.want, len(cat.Files))
			}
		})
	}
}

func TestJSONStoreSaveCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data", "tags.json")
	store := NewJSONStore(path)
	ctx := context.Background()

	cat := New()
	cat.Files["photo.jpg"] = Entry{
		Type:         TypeImage,
		Tags:         []Tag{{Tag: "red", Confidence: "100.00%"}},
		Color:        "red",
		Dimensions:   "10x10",
		LastAnalyzed: "2026-01-02T15:04:05Z",
		FileSize:     42,
	}

	if err := store.Save(ctx, cat); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved catalog: %v", err)
	}
	if !strings.Contains(string(raw), "\n  \"files\"") {
		t.Error("Expected two-space indented output")
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	got, ok := loaded.Files["photo.jpg"]
	if !ok {
		t.Fatal("Expected photo.jpg entry after round trip")
	}
	if got.Color != "red" || got.FileSize != 42 || got.Dimensions != "10x10" {
		t.Errorf("Entry did not round-trip: %+v", got)
	}
}

func TestJSONStoreOmitsEmptyOptionalFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.json")
	store := NewJSONStore(path)
	ctx := context.Background()

	cat := New()
	cat.Files["notes.txt"] = Entry{
		Type:         TypeText,
		Tags:         []Tag{{Tag: "cat", Confidence: "66.67%"}},
		LastAnalyzed: "t",
		FileSize:     9,
	}
	if err := store.Save(ctx, cat); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved catalog: %v", err)
	}
	for _, field := range []string{"color", "dimensions", "thumbnail"} {
		if strings.Contains(string(raw), field) {
			t.Errorf("Expected %s to be omitted for text entries", field)
		}
	}
}

func TestMemStoreIsolation(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	cat := New()
	cat.Files["a.txt"] = Entry{Type: TypeText, Tags: []Tag{{Tag: "one", Confidence: "100.00%"}}, LastAnalyzed: "t", FileSize: 1}
	if err := store.Save(ctx, cat); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Mutating the saved catalog must not leak into the store.
	cat.Files["a.txt"] = Entry{Type: TypeText, Tags: nil, LastAnalyzed: "t2", FileSize: 2}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	e := loaded.Files["a.txt"]
	if len(e.Tags) != 1 || e.FileSize != 1 {
		t.Errorf("Store contents changed through caller mutation: %+v", e)
	}

	// And mutating a loaded copy must not change later loads.
	e.Tags[0].Tag = "changed"
	again, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if again.Files["a.txt"].Tags[0].Tag != "one" {
		t.Error("Loaded catalog aliases store memory")
	}
}

func TestCloneCopiesThumbnail(t *testing.T) {
	thumb := "chair/thumbnail.png"
	cat := New()
	cat.Files["chair/chair.glb"] = Entry{Type: Type3D, Tags: []Tag{}, LastAnalyzed: "t", FileSize: 5, Thumbnail: &thumb}

	clone := cat.Clone()
	*clone.Files["chair/chair.glb"].Thumbnail = "other.png"

	if *cat.Files["chair/chair.glb"].Thumbnail != "chair/thumbnail.png" {
		t.Error("Clone shares thumbnail pointer with original")
	}
}

func mustDoc(t *testing.T, raw string) map[string]json.RawMessage {
	t.Helper()
	doc := map[string]json.RawMessage{}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}
