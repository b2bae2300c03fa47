package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"skilltrends/common/cache"
	"skilltrends/common/skills"
	"skilltrends/common/telemetry"
	"skilltrends/services/processing/internal/app"
	"skilltrends/services/processing/internal/config"
	"skilltrends/services/processing/internal/events"
	"skilltrends/services/processing/internal/pipeline"
	"skilltrends/services/processing/internal/source"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const serviceName = "processing-service"

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return zap.NewProduction()
}

func newNATSConnection(cfg *config.Config, lc fx.Lifecycle) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Timeout(cfg.NATSConnTimeout),
		nats.Name(serviceName),
		nats.RetryOnFailedConnect(true),
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
	c := app.NewCache(cfg)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return c.Close()
		},
	})
	return c
}

func newSource(cfg *config.Config, scrape *source.ScrapeSource, logger *zap.Logger, lc fx.Lifecycle) (source.Source, error) {
	src, release, err := app.NewSource(context.Background(), cfg, scrape, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return release()
		},
	})
	logger.Info("Dataset source configured",
		zap.String("source", cfg.Source),
		zap.String("id", src.ID()),
	)
	return src, nil
}

func newPipeline(cfg *config.Config, rules skills.Rules, src source.Source, c cache.Cache, logger *zap.Logger) *pipeline.Pipeline {
	return app.NewPipeline(cfg, rules, src, c, logger)
}

func newTracer() trace.Tracer {
	return telemetry.GetTracer("skilltrends/processing")
}

func initTelemetry(cfg *config.Config, logger *zap.Logger, lc fx.Lifecycle) error {
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
	if cfg.OTelCollectorURL != "" {
		logger.Info("Tracing enabled", zap.String("collector", cfg.OTelCollectorURL))
	}
	return nil
}

func main() {
	fxApp := fx.New(
		fx.Provide(
			config.LoadConfig,
			newLogger,
			newNATSConnection,
			newCache,
			app.NewRules,
			source.NewScrapeSource,
			newSource,
			newPipeline,
			newTracer,
			events.NewHandler,
		),
		fx.Invoke(
			initTelemetry,
			func(handler *events.Handler, lc fx.Lifecycle) error {
				return handler.RegisterSubscriptions(lc)
			},
		),
	)

	startCtx := context.Background()
	if err := fxApp.Start(startCtx); err != nil {
		log.Fatal(err)
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	stopCtx := context.Background()
	if err := fxApp.Stop(stopCtx); err != nil {
		log.Fatal(err)
	}
}
