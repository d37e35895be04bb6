package ocr

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
)

// Cache stores serialized page results by key. Implementations live in
// internal/repository.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
}

// Cached serves repeated pages from a Cache. Cache failures are logged and
// never fail recognition.
type Cached struct {
	next     Recognizer
	cache    Cache
	provider string
	logger   *slog.Logger
}

func NewCached(next Recognizer, cache Cache, provider string, logger *slog.Logger) *Cached {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{next: next, cache: cache, provider: provider, logger: logger}
}

// CacheKey is "<provider>:<sha256 of the image>".
func CacheKey(provider string, image []byte) string {
	sum := sha256.Sum256(image)
	return provider + ":" + hex.EncodeToString(sum[:])
}

func (c *Cached) Recognize(ctx context.Context, image []byte) (Result, error) {
	key := CacheKey(c.provider, image)

	raw, ok, err := c.cache.Get(ctx, key)
	switch {
	case err != nil:
		c.logger.Warn("ocr.cache.get_failed", "key", key, "error", err)
	case ok:
		var res Result
		if err := json.Unmarshal(raw, &res); err == nil {
			c.logger.Debug("ocr.cache.hit", "key", key)
			return res, nil
		}
		c.logger.Warn("ocr.cache.corrupt", "key", key)
	}

	res, err := c.next.Recognize(ctx, image)
	if err != nil {
		return Result{}, err
	}
	if raw, err := json.Marshal(res); err == nil {
		if err := c.cache.Put(ctx, key, raw); err != nil {
			c.logger.Warn("ocr.cache.put_failed", "key", key, "error", err)
		}
	}
	return res, nil
}
