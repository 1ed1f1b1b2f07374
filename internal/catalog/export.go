package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// Row is the flattened entry shape used by the JSONL and parquet
// codecs. Tags keep their confidences so an export/import round trip is
// lossless.
type Row struct {
	Path         string   `json:"path" parquet:"path"`
	Type         string   `json:"type" parquet:"type"`
	Tags         []RowTag `json:"tags" parquet:"tags,list"`
	Color        string   `json:"color,omitempty" parquet:"color,optional"`
	Dimensions   string   `json:"dimensions,omitempty" parquet:"dimensions,optional"`
	LastAnalyzed string   `json:"last_analyzed" parquet:"last_analyzed"`
	FileSize     int64    `json:"file_size" parquet:"file_size"`
	Thumbnail    string   `json:"thumbnail,omitempty" parquet:"thumbnail,optional"`
}

// RowTag mirrors Tag with parquet field tags.
type RowTag struct {
	Tag        string `json:"tag" parquet:"tag"`
	Confidence string `json:"confidence" parquet:"confidence"`
}

// Rows flattens the catalog into export rows, sorted by path.
func Rows(c *Catalog) []Row {
	paths := make([]string, 0, len(c.Files))
	for path := range c.Files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	rows := make([]Row, 0, len(paths))
	for _, path := range paths {
		e := c.Files[path]
		row := Row{
			Path:         path,
			Type:         e.Type,
			Tags:         make([]RowTag, 0, len(e.Tags)),
			Color:        e.Color,
			Dimensions:   e.Dimensions,
			LastAnalyzed: e.LastAnalyzed,
			FileSize:     e.FileSize,
		}
		for _, t := range e.Tags {
			row.Tags = append(row.Tags, RowTag{Tag: t.Tag, Confidence: t.Confidence})
		}
		if e.Thumbnail != nil {
			row.Thumbnail = *e.Thumbnail
		}
		rows = append(rows, row)
	}
	return rows
}

// Export writes the catalog to path, picking the codec from the
// extension (.jsonl/.json or .parquet) unless format is set.
func Export(c *Catalog, path, format string) error {
	if format == "" {
		format = formatForExt(path)
	}

	rows := Rows(c)
	switch format {
	case "jsonl":
		return exportJSONL(rows, path)
	case "parquet":
		return exportParquet(rows, path)
	default:
		return fmt.Errorf("unsupported export format: %s (supported: jsonl, parquet)", format)
	}
}

func formatForExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return "parquet"
	default:
		return "jsonl"
	}
}

func exportJSONL(rows []Row, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("encode row %s: %w", row.Path, err)
		}
	}
	return nil
}

func exportParquet(rows []Row, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[Row](file)
	if len(rows) > 0 {
		if _, err := writer.Write(rows); err != nil {
			return fmt.Errorf("write parquet rows: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}
