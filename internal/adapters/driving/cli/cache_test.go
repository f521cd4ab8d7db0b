package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheCmd_ErrorsWithoutCache(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "", "cache")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestCacheInfo(t *testing.T) {
	setupTestServices(t)
	cache := &mockCacheManager{vectors: 42}
	cacheOpener = func() (CacheManager, error) { return cache, nil }

	out, err := execute(t, "", "cache")
	require.NoError(t, err)
	assert.Contains(t, out, "Path:    /cache/embeddings.db")
	assert.Contains(t, out, "Vectors: 42")
	assert.True(t, cache.closed)
	assert.False(t, cache.cleared)
}

func TestCacheClear(t *testing.T) {
	t.Run("removes vectors", func(t *testing.T) {
		setupTestServices(t)
		cache := &mockCacheManager{vectors: 7}
		cacheOpener = func() (CacheManager, error) { return cache, nil }

		out, err := execute(t, "", "cache", "clear")
		require.NoError(t, err)
		assert.True(t, cache.cleared)
		assert.True(t, cache.closed)
		assert.Contains(t, out, "Removed 7 cached embeddings from /cache/embeddings.db")
	})

	t.Run("open error", func(t *testing.T) {
		setupTestServices(t)
		cacheOpener = func() (CacheManager, error) { return nil, errors.New("cache.path is not set") }

		_, err := execute(t, "", "cache", "clear")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cache.path is not set")
	})

	t.Run("store error", func(t *testing.T) {
		setupTestServices(t)
		cache := &mockCacheManager{err: errors.New("database is locked")}
		cacheOpener = func() (CacheManager, error) { return cache, nil }

		_, err := execute(t, "", "cache", "clear")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database is locked")
		assert.True(t, cache.closed)
	})
}
