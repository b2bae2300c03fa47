package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"skilltrends/common/cache/memory"
	"skilltrends/common/cache/redis"
	"skilltrends/services/processing/internal/config"
	"skilltrends/services/processing/internal/pipeline"
	"skilltrends/services/processing/internal/source"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	return cfg
}

func TestNewCache(t *testing.T) {
	cfg := testConfig(t)
	assert.IsType(t, &memory.Cache{}, NewCache(cfg))

	cfg.CacheBackend = config.CacheRedis
	c := NewCache(cfg)
	assert.IsType(t, &redis.Cache{}, c)
	require.NoError(t, c.Close())
}

func TestNewSource(t *testing.T) {
	cfg := testConfig(t)
	scrape := source.NewScrapeSource()
	ctx := context.Background()

	src, release, err := NewSource(ctx, cfg, scrape, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &source.HTTPSource{}, src)
	assert.NoError(t, release())

	cfg.Source = config.SourceScrape
	src, _, err = NewSource(ctx, cfg, scrape, zap.NewNop())
	require.NoError(t, err)
	assert.Same(t, scrape, src)

	cfg.Source = "bogus"
	_, _, err = NewSource(ctx, cfg, scrape, zap.NewNop())
	assert.Error(t, err)
}

func TestPipelineOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.csv")
	csv := "title,description,date_time,salary_yearly\n" +
		"Analyst,Python and SQL,2023-01-01,90000\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	cfg := testConfig(t)
	cfg.Source = config.SourceFile
	cfg.DatasetFile = path

	rules, err := NewRules(cfg)
	require.NoError(t, err)
	src, _, err := NewSource(context.Background(), cfg, nil, zap.NewNop())
	require.NoError(t, err)

	p := NewPipeline(cfg, rules, src, NewCache(cfg), zap.NewNop())
	res := p.Load(context.Background())
	require.Equal(t, pipeline.ProvenanceReal, res.Provenance)
	require.Len(t, res.Data.Records, 1)
	assert.Equal(t, []string{"python", "sql"}, res.Data.Records[0].Skills)
}
