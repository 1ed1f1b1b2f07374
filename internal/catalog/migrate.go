package catalog

import (
	"encoding/json"
	"fmt"
)

// migration is one idempotent rewrite of the raw catalog document.
// Migrations run in order on every load, so each step must be a no-op
// when the document is already in its target shape.
type migration struct {
	name  string
	apply func(doc map[string]json.RawMessage) error
}

var migrations = []migration{
	{name: "rename-images-key", apply: renameImagesKey},
	{name: "ensure-files-key", apply: ensureFilesKey},
}

// renameImagesKey moves the legacy top-level "images" mapping to
// "files". When both keys exist the current one wins and the legacy key
// is dropped.
func renameImagesKey(doc map[string]json.RawMessage) error {
	legacy, ok := doc["images"]
	if !ok {
		return nil
	}
	if _, ok := doc["files"]; !ok {
		doc["files"] = legacy
	}
	delete(doc, "images")
	return nil
}

func ensureFilesKey(doc map[string]json.RawMessage) error {
	if _, ok := doc["files"]; !ok {
		doc["files"] = json.RawMessage("{}")
	}
	return nil
}

// Migrate parses raw catalog bytes, applies the ordered migration steps
// to the document, and decodes the result.
func Migrate(raw []byte) (*Catalog, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog document: %w", err)
	}
	if doc == nil {
		doc = map[string]json.RawMessage{}
	}

	for _, m := range migrations {
		if err := m.apply(doc); err != nil {
			return nil, fmt.Errorf("apply migration %s: %w", m.name, err)
		}
	}

	var files map[string]Entry
	if err := json.Unmarshal(doc["files"], &files); err != nil {
		return nil, fmt.Errorf("parse files mapping: %w", err)
	}
	if files == nil {
		files = map[string]Entry{}
	}
	return &Catalog{Files: files}, nil
}
