package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "0 */6 * * *", cfg.Schedule)
	assert.Equal(t, 3*time.Second, cfg.RequestDelay)
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL)
	assert.Equal(t, CacheRedis, cfg.CacheBackend)
	assert.False(t, cfg.StoreClickHouse)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("SCRAPE_QUERY", "data engineer")
	t.Setenv("SCRAPE_PAGES", "5")
	t.Setenv("REQUEST_DELAY", "500ms")
	t.Setenv("STORE_CLICKHOUSE", "true")
	t.Setenv("CACHE_BACKEND", CacheMemory)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "data engineer", cfg.Query)
	assert.Equal(t, 5, cfg.Pages)
	assert.Equal(t, 500*time.Millisecond, cfg.RequestDelay)
	assert.True(t, cfg.StoreClickHouse)
	assert.Equal(t, CacheMemory, cfg.CacheBackend)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	t.Setenv("SCRAPE_PAGES", "0")
	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("SCRAPE_PAGES", "1")
	t.Setenv("BOARD_URL", "not a url")
	_, err = LoadConfig()
	assert.Error(t, err)
}
