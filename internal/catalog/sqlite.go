package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists the catalog in an embedded SQLite database. It
// satisfies the same Store contract as the JSON file, for libraries too
// large to hand-edit.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// sqliteMigrations run in order inside one transaction; applied versions
// are recorded in schema_migrations so each step runs exactly once.
var sqliteMigrations = []struct {
	version string
	sql     string
}{
	{
		version: "0001_create_files",
		sql: `CREATE TABLE IF NOT EXISTS files (
	path TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	tags TEXT NOT NULL,
	color TEXT,
	dimensions TEXT,
	last_analyzed TEXT NOT NULL,
	file_size INTEGER NOT NULL,
	thumbnail TEXT
)`,
	},
}

// OpenSQLite initializes or connects to the catalog database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create catalog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &SQLiteStore{db: db, path: path}
	if err := store.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) applyMigrations(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY)"); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	for _, m := range sqliteMigrations {
		var count int
		row := tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM schema_migrations WHERE version = ?", m.version)
		if err := row.Scan(&count); err != nil {
			return fmt.Errorf("scan migration version: %w", err)
		}
		if count > 0 {
			continue
		}
		if _, err := tx.ExecContext(ctx, m.sql); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.version, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", m.version); err != nil {
			return fmt.Errorf("record migration %s: %w", m.version, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migrations: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the backing database location.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Load reads every row into a catalog.
func (s *SQLiteStore) Load(ctx context.Context) (*Catalog, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT path, type, tags, color, dimensions, last_analyzed, file_size, thumbnail FROM files ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}
	defer rows.Close()

	cat := New()
	for rows.Next() {
		var (
			path, typ, tagsJSON, lastAnalyzed string
			color, dimensions, thumbnail      sql.NullString
			fileSize                          int64
		)
		if err := rows.Scan(&path, &typ, &tagsJSON, &color, &dimensions, &lastAnalyzed, &fileSize, &thumbnail); err != nil {
			return nil, fmt.Errorf("scan file row: %w", err)
		}

		var tags []Tag
		if err := json.Unmarshal([]byte(tagsJSON), &tags); err != nil {
			return nil, fmt.Errorf("parse tags for %s: %w", path, err)
		}

		e := Entry{
			Type:         typ,
			Tags:         tags,
			Color:        color.String,
			Dimensions:   dimensions.String,
			LastAnalyzed: lastAnalyzed,
			FileSize:     fileSize,
		}
		if thumbnail.Valid {
			t := thumbnail.String
			e.Thumbnail = &t
		}
		cat.Files[path] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate file rows: %w", err)
	}
	return cat, nil
}

// Save rewrites the files table from the catalog in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, c *Catalog) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM files"); err != nil {
		return fmt.Errorf("clear files: %w", err)
	}

	paths := make([]string, 0, len(c.Files))
	for path := range c.Files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		e := c.Files[path]
		tagsJSON, err := json.Marshal(e.Tags)
		if err != nil {
			return fmt.Errorf("marshal tags for %s: %w", path, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO files (path, type, tags, color, dimensions, last_analyzed, file_size, thumbnail)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			path, e.Type, string(tagsJSON),
			nullableString(e.Color), nullableString(e.Dimensions),
			e.LastAnalyzed, e.FileSize, e.Thumbnail,
		); err != nil {
			return fmt.Errorf("insert %s: %w", path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
