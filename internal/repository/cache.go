package repository

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/ocr"
)

// PageCache is an ocr.Cache that must be closed.
type PageCache interface {
	ocr.Cache
	io.Closer
}

// OpenCache picks a backend from the DSN: postgres:// and postgresql:// use
// pgx, anything else is treated as a SQLite file path (an optional "sqlite:"
// prefix is stripped).
func OpenCache(ctx context.Context, cfg Config, logger *slog.Logger) (PageCache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, common.NewAppError("CONFIG_ERROR", "OCR_CACHE_DSN is empty", common.ErrConfiguration)
	}

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		pool, err := OpenPool(ctx, cfg, logger)
		if err != nil {
			return nil, common.Kind(common.ErrConfiguration, "CACHE_OPEN", "open postgres cache", err)
		}
		if err := HealthCheck(ctx, pool, 5*time.Second, logger); err != nil {
			pool.Close()
			return nil, common.Kind(common.ErrConfiguration, "CACHE_OPEN", "ping postgres cache", err)
		}
		c := NewPGCache(pool, logger)
		if err := c.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, common.Kind(common.ErrConfiguration, "CACHE_OPEN", "create cache table", err)
		}
		return c, nil
	}

	c, err := OpenSQLiteCache(ctx, strings.TrimPrefix(dsn, "sqlite:"), logger)
	if err != nil {
		return nil, common.Kind(common.ErrConfiguration, "CACHE_OPEN", "open sqlite cache", err)
	}
	return c, nil
}
