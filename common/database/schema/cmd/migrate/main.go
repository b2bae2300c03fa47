package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"skilltrends/common/database"
	"skilltrends/common/database/schema"
	"skilltrends/common/database/schema/migrations"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := database.New(ctx, database.Options{
		DSN:             getEnv("CLICKHOUSE_DSN", "127.0.0.1:9000"),
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
		Username:        getEnv("CLICKHOUSE_USERNAME", "default"),
		Password:        getEnv("CLICKHOUSE_PASSWORD", ""),
		Database:        getEnv("CLICKHOUSE_DATABASE", "skilltrends"),
	}, logger)
	if err != nil {
		logger.Fatal("Failed to connect to ClickHouse", zap.Error(err))
	}
	defer db.Close()

	migrator := schema.NewMigrator(db.Conn(), logger)
	all := migrations.All()

	if len(os.Args) > 1 && os.Args[1] == "down" {
		target := 0
		if len(os.Args) > 2 {
			if target, err = strconv.Atoi(os.Args[2]); err != nil {
				logger.Fatal("Invalid rollback target", zap.String("target", os.Args[2]))
			}
		}
		n, err := migrator.Rollback(ctx, all, target)
		if err != nil {
			logger.Fatal("Failed to roll back migrations", zap.Error(err))
		}
		logger.Info("Rollback completed", zap.Int("reverted", n), zap.Int("target", target))
		return
	}

	n, err := migrator.Migrate(ctx, all)
	if err != nil {
		logger.Fatal("Failed to apply migrations", zap.Int("applied", n), zap.Error(err))
	}

	logger.Info("All migrations completed successfully", zap.Int("applied", n))
}
