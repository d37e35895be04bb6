package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS ocr_page_cache (
	cache_key  TEXT PRIMARY KEY,
	result     BLOB NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// SQLiteCache stores OCR page results in a local SQLite file.
type SQLiteCache struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// OpenSQLiteCache opens (creating if needed) the cache database at path.
func OpenSQLiteCache(ctx context.Context, path string, logger *slog.Logger) (*SQLiteCache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	// WAL mode for concurrent readers while a page is being written
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating cache table: %w", err)
	}
	logger.Debug("sqlite cache ready", "path", path)
	return &SQLiteCache{db: db, path: path, logger: logger}, nil
}

func (c *SQLiteCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := c.db.QueryRowContext(ctx, `SELECT result FROM ocr_page_cache WHERE cache_key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (c *SQLiteCache) Put(ctx context.Context, key string, value []byte) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO ocr_page_cache (cache_key, result) VALUES (?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET result = excluded.result, created_at = CURRENT_TIMESTAMP`,
		key, value)
	return err
}

// Path returns the database file path.
func (c *SQLiteCache) Path() string {
	return c.path
}

func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
