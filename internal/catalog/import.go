package catalog

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"
)

// Import reads rows from path (codec from extension unless format is
// set) and merges them into the catalog, replacing entries whose paths
// collide. It returns the number of rows applied.
func Import(c *Catalog, path, format string) (int, error) {
	if format == "" {
		format = formatForExt(path)
	}

	var (
		rows []Row
		err  error
	)
	switch format {
	case "jsonl":
		rows, err = importJSONL(path)
	case "parquet":
		rows, err = importParquet(path)
	default:
		return 0, fmt.Errorf("unsupported import format: %s (supported: jsonl, parquet)", format)
	}
	if err != nil {
		return 0, err
	}

	for _, row := range rows {
		c.Files[row.Path] = rowToEntry(row)
	}
	return len(rows), nil
}

func rowToEntry(row Row) Entry {
	e := Entry{
		Type:         row.Type,
		Tags:         make([]Tag, 0, len(row.Tags)),
		Color:        row.Color,
		Dimensions:   row.Dimensions,
		LastAnalyzed: row.LastAnalyzed,
		FileSize:     row.FileSize,
	}
	for _, t := range row.Tags {
		e.Tags = append(e.Tags, Tag{Tag: t.Tag, Confidence: t.Confidence})
	}
	if row.Thumbnail != "" {
		thumb := row.Thumbnail
		e.Thumbnail = &thumb
	}
	return e
}

func importJSONL(path string) ([]Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open import file: %w", err)
	}
	defer file.Close()

	var rows []Row
	scanner := bufio.NewScanner(file)

	// Large tag lists can push lines past the default buffer.
	const maxCapacity = 10 * 1024 * 1024
	buf := make([]byte, maxCapacity)
	scanner.Buffer(buf, maxCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var row Row
		if err := json.Unmarshal(line, &row); err != nil {
			return nil, fmt.Errorf("parse row at line %d: %w", lineNum, err)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read import file: %w", err)
	}
	return rows, nil
}

func importParquet(path string) ([]Row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open import file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat import file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[Row](pf)
	defer reader.Close()

	var rows []Row
	batch := make([]Row, 128)
	for {
		n, err := reader.Read(batch)
		if n > 0 {
			rows = append(rows, batch[:n]...)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read parquet rows: %w", err)
		}
	}
	return rows, nil
}
