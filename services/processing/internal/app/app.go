// Package app holds the constructors that assemble the processing pipeline
// from configuration. The fx service and the CLI share them.
package app

import (
	"context"
	"fmt"

	"skilltrends/common/cache"
	"skilltrends/common/cache/memory"
	"skilltrends/common/cache/redis"
	"skilltrends/common/database"
	"skilltrends/common/skills"
	"skilltrends/services/processing/internal/aggregator"
	"skilltrends/services/processing/internal/bucketer"
	"skilltrends/services/processing/internal/config"
	"skilltrends/services/processing/internal/normalizer"
	"skilltrends/services/processing/internal/pipeline"
	"skilltrends/services/processing/internal/source"
	"skilltrends/services/processing/internal/synthetic"

	"go.uber.org/zap"
)

func NewCache(cfg *config.Config) cache.Cache {
	opts := cache.Options{
		DefaultTTL:    cfg.CacheTTL,
		RedisURL:      cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
	}
	if cfg.CacheBackend == config.CacheRedis {
		return redis.New(opts)
	}
	return memory.New(opts)
}

func NewRules(cfg *config.Config) (skills.Rules, error) {
	return skills.LoadRules(cfg.SkillRulesFile)
}

// NewSource returns the configured source and a release func for any
// connection it opened.
func NewSource(ctx context.Context, cfg *config.Config, scrape *source.ScrapeSource, logger *zap.Logger) (source.Source, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Source {
	case config.SourceFile:
		return source.NewFileSource(cfg.DatasetFile), noop, nil
	case config.SourceRemote:
		return source.NewHTTPSource(cfg.DatasetURL, cfg.HTTPTimeout, logger), noop, nil
	case config.SourceScrape:
		return scrape, noop, nil
	case config.SourceClickHouse:
		db, err := database.New(ctx, database.Options{
			DSN:             cfg.ClickHouseDSN,
			MaxOpenConns:    cfg.ClickHouseMaxOpenConns,
			MaxIdleConns:    cfg.ClickHouseMaxIdleConns,
			ConnMaxLifetime: cfg.ClickHouseConnMaxLife,
			Username:        cfg.ClickHouseUsername,
			Password:        cfg.ClickHousePassword,
			Database:        cfg.ClickHouseDatabase,
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
		return source.NewClickHouseSource(db.Conn(), cfg.ClickHouseTable, logger), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown source %q", cfg.Source)
	}
}

func NewAggregatorOptions(cfg *config.Config) aggregator.Options {
	return aggregator.Options{
		NoiseThreshold: cfg.TrendNoiseThreshold,
		GrowthFloor:    cfg.GrowthFloor,
		MinSupport:     cfg.MinSupport,
		CandidateLimit: cfg.PayCandidateLimit,
		TopMinCount:    cfg.TopSkillsMinCount,
	}
}

// NewPipeline assembles the pipeline over src and c.
func NewPipeline(cfg *config.Config, rules skills.Rules, src source.Source, c cache.Cache, logger *zap.Logger) *pipeline.Pipeline {
	return pipeline.New(
		src,
		c,
		normalizer.New(skills.NewExtractor(rules), cfg.NormalizerSeed, logger),
		bucketer.New(cfg.PeriodWidthDays, cfg.TrendMinSpanDays),
		aggregator.New(skills.NewClassifier(rules), NewAggregatorOptions(cfg)),
		synthetic.New(cfg.SyntheticSeed, cfg.GrowthFloor),
		pipeline.Options{
			MaxRows:    cfg.MaxRows,
			CacheTTL:   cfg.CacheTTL,
			MaxRetries: cfg.MaxRetries,
			RetryDelay: cfg.RetryDelay,
		},
		logger,
	)
}
