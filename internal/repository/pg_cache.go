package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgSchema = `CREATE TABLE IF NOT EXISTS ocr_page_cache (
	cache_key  TEXT PRIMARY KEY,
	result     BYTEA NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PGCache stores OCR page results in Postgres.
type PGCache struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPGCache(pool *pgxpool.Pool, logger *slog.Logger) *PGCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &PGCache{pool: pool, logger: logger}
}

func (c *PGCache) EnsureSchema(ctx context.Context) error {
	_, err := c.pool.Exec(ctx, pgSchema)
	return err
}

func (c *PGCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := c.pool.QueryRow(ctx, `SELECT result FROM ocr_page_cache WHERE cache_key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (c *PGCache) Put(ctx context.Context, key string, value []byte) error {
	_, err := c.pool.Exec(ctx,
		`INSERT INTO ocr_page_cache (cache_key, result) VALUES ($1, $2)
		 ON CONFLICT (cache_key) DO UPDATE SET result = EXCLUDED.result, created_at = now()`,
		key, value)
	return err
}

func (c *PGCache) Close() error {
	c.logger.Info("closing database connections")
	c.pool.Close()
	return nil
}
