package main

import (
	"context"
	"log"

	"skilltrends/common/cache"
	"skilltrends/common/cache/memory"
	"skilltrends/common/cache/redis"
	"skilltrends/common/database"
	"skilltrends/common/skills"
	"skilltrends/common/telemetry"
	"skilltrends/services/ingestion/internal/config"
	"skilltrends/services/ingestion/internal/messaging"
	"skilltrends/services/ingestion/internal/scheduler"
	"skilltrends/services/ingestion/internal/scraper"
	"skilltrends/services/ingestion/internal/storage"

	"github.com/nats-io/nats.go"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const serviceName = "ingestion-service"

func newLogger() (*zap.Logger, error) {
	return zap.NewProduction()
}

func newNATSConnection(cfg *config.Config, lc fx.Lifecycle) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Timeout(cfg.NATSConnTimeout),
		nats.Name(serviceName),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
	}
	nc, err := nats.Connect(cfg.NATSURL, opts...)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return nc.Drain()
		},
	})
	return nc, nil
}

func newCache(cfg *config.Config, lc fx.Lifecycle) cache.Cache {
	opts := cache.Options{
		DefaultTTL:    cfg.CacheTTL,
		RedisURL:      cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
	}
	var c cache.Cache
	if cfg.CacheBackend == config.CacheRedis {
		c = redis.New(opts)
	} else {
		c = memory.New(opts)
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return c.Close()
		},
	})
	return c
}

func newExtractor(cfg *config.Config) (*skills.Extractor, error) {
	rules, err := skills.LoadRules(cfg.SkillRulesFile)
	if err != nil {
		return nil, err
	}
	return skills.NewExtractor(rules), nil
}

func newJobScheduler(cfg *config.Config, client scraper.Client, publisher messaging.Publisher, logger *zap.Logger, lc fx.Lifecycle) (*scheduler.JobScheduler, error) {
	var store scheduler.Store
	if cfg.StoreClickHouse {
		db, err := database.New(context.Background(), database.Options{
			DSN:             cfg.ClickHouseDSN,
			MaxOpenConns:    cfg.ClickHouseMaxOpenConns,
			MaxIdleConns:    cfg.ClickHouseMaxIdleConns,
			ConnMaxLifetime: cfg.ClickHouseConnMaxLife,
			Username:        cfg.ClickHouseUsername,
			Password:        cfg.ClickHousePassword,
			Database:        cfg.ClickHouseDatabase,
		}, logger)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return db.Close()
			},
		})
		store = storage.NewStore(storage.NewConn(db.Conn()), cfg.ClickHouseTable, logger)
	}
	return scheduler.NewJobScheduler(client, publisher, store, logger, cfg), nil
}

func initTelemetry(cfg *config.Config, lc fx.Lifecycle) error {
	shutdown, err := telemetry.InitTracer(context.Background(), serviceName, cfg.OTelCollectorURL)
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			shutdown()
			return nil
		},
	})
	return nil
}

func startScheduler(s *scheduler.JobScheduler, logger *zap.Logger, lc fx.Lifecycle) {
	runCtx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting ingestion service")
			return s.Start(runCtx)
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			return s.Stop(ctx)
		},
	})
}

func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			newLogger,
			newNATSConnection,
			newCache,
			newExtractor,
			scraper.NewClient,
			messaging.NewPublisher,
			newJobScheduler,
		),
		fx.Invoke(
			initTelemetry,
			startScheduler,
		),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal(err)
	}

	<-app.Done()

	if err := app.Stop(context.Background()); err != nil {
		log.Fatal(err)
	}
}
