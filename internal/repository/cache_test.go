package repository

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/ocr"
)

func exerciseCache(t *testing.T, c ocr.Cache) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, "k1", []byte(`{"text":"a"}`)))
	v, ok, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"text":"a"}`, string(v))

	require.NoError(t, c.Put(ctx, "k1", []byte(`{"text":"b"}`)))
	v, _, err = c.Get(ctx, "k1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"b"}`, string(v))
}

func TestSQLiteCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.db")
	c, err := OpenSQLiteCache(context.Background(), path, nil)
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, path, c.Path())
	exerciseCache(t, c)
}

func TestSQLiteCache_ConcurrentPuts(t *testing.T) {
	c, err := OpenSQLiteCache(context.Background(), filepath.Join(t.TempDir(), "cache.db"), nil)
	require.NoError(t, err)
	defer c.Close()

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, c.Put(context.Background(), "shared", []byte{byte(i)}))
		}()
	}
	wg.Wait()

	_, ok, err := c.Get(context.Background(), "shared")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOpenCache_SQLitePrefix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.db")
	c, err := OpenCache(context.Background(), Config{DSN: "sqlite:" + path}, nil)
	require.NoError(t, err)
	defer c.Close()
	exerciseCache(t, c)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestOpenCache_EmptyDSN(t *testing.T) {
	_, err := OpenCache(context.Background(), Config{}, nil)
	assert.ErrorIs(t, err, common.ErrConfiguration)
}

func TestPGCache(t *testing.T) {
	dsn := os.Getenv("DOCEXTRACT_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("DOCEXTRACT_TEST_PG_DSN not set")
	}
	c, err := OpenCache(context.Background(), Config{DSN: dsn}, nil)
	require.NoError(t, err)
	defer c.Close()
	exerciseCache(t, c)
}
