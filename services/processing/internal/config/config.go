package config

import (
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	SourceRemote     = "remote"
	SourceFile       = "file"
	SourceClickHouse = "clickhouse"
	SourceScrape     = "scrape"

	CacheMemory = "memory"
	CacheRedis  = "redis"
)

const DefaultDatasetURL = "https://storage.googleapis.com/gsearch_share/gsearch_jobs.csv"

type Config struct {
	Source      string `validate:"oneof=remote file clickhouse scrape"`
	DatasetURL  string `validate:"required_if=Source remote"`
	DatasetFile string `validate:"required_if=Source file"`
	MaxRows     int    `validate:"gte=0"`

	CacheBackend  string        `validate:"oneof=memory redis"`
	CacheTTL      time.Duration `validate:"gt=0"`
	RedisAddr     string        `validate:"required_if=CacheBackend redis"`
	RedisPassword string
	RedisDB       int `validate:"gte=0"`

	MinSupport          int     `validate:"gte=1"`
	TrendNoiseThreshold float64 `validate:"gte=0,lte=100"`
	PeriodWidthDays     int     `validate:"gte=1"`
	TrendMinSpanDays    int     `validate:"gte=0"`
	GrowthFloor         float64 `validate:"gt=0"`
	PayCandidateLimit   int     `validate:"gte=1"`
	TopSkillsMinCount   int     `validate:"gte=1"`
	SyntheticSeed       int64
	NormalizerSeed      int64
	SkillRulesFile      string

	NATSURL         string
	NATSConnTimeout time.Duration

	ClickHouseDSN          string
	ClickHouseMaxOpenConns int
	ClickHouseMaxIdleConns int
	ClickHouseConnMaxLife  time.Duration
	ClickHouseUsername     string
	ClickHousePassword     string
	ClickHouseDatabase     string
	ClickHouseTable        string `validate:"required_if=Source clickhouse"`

	OTelCollectorURL string

	HTTPTimeout time.Duration `validate:"gt=0"`
	MaxRetries  int           `validate:"gte=1"`
	RetryDelay  time.Duration `validate:"gte=0"`
}

// LoadConfig reads the environment, after merging any .env file in the
// working directory, and validates the result.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		Source:      getEnvString("SOURCE", SourceRemote),
		DatasetURL:  getEnvString("DATASET_URL", DefaultDatasetURL),
		DatasetFile: getEnvString("DATASET_FILE", ""),
		MaxRows:     getEnvInt("MAX_ROWS", 1000),

		CacheBackend:  getEnvString("CACHE_BACKEND", CacheMemory),
		CacheTTL:      getEnvDuration("CACHE_TTL", 24*time.Hour),
		RedisAddr:     getEnvString("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnvString("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MinSupport:          getEnvInt("MIN_SUPPORT", 10),
		TrendNoiseThreshold: getEnvFloat("TREND_NOISE_THRESHOLD", 1),
		PeriodWidthDays:     getEnvInt("PERIOD_WIDTH_DAYS", 90),
		TrendMinSpanDays:    getEnvInt("TREND_MIN_SPAN_DAYS", 180),
		GrowthFloor:         getEnvFloat("GROWTH_FLOOR", 0.1),
		PayCandidateLimit:   getEnvInt("PAY_CANDIDATE_LIMIT", 200),
		TopSkillsMinCount:   getEnvInt("TOP_SKILLS_MIN_COUNT", 5),
		SyntheticSeed:       int64(getEnvInt("SYNTHETIC_SEED", 42)),
		NormalizerSeed:      int64(getEnvInt("NORMALIZER_SEED", 42)),
		SkillRulesFile:      getEnvString("SKILL_RULES_FILE", ""),

		NATSURL:         getEnvString("NATS_URL", "nats://localhost:4222"),
		NATSConnTimeout: getEnvDuration("NATS_CONN_TIMEOUT", 10*time.Second),

		ClickHouseDSN:          getEnvString("CLICKHOUSE_DSN", "localhost:9000"),
		ClickHouseMaxOpenConns: getEnvInt("CLICKHOUSE_MAX_OPEN_CONNS", 10),
		ClickHouseMaxIdleConns: getEnvInt("CLICKHOUSE_MAX_IDLE_CONNS", 5),
		ClickHouseConnMaxLife:  getEnvDuration("CLICKHOUSE_CONN_MAX_LIFE", time.Hour),
		ClickHouseUsername:     getEnvString("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword:     getEnvString("CLICKHOUSE_PASSWORD", ""),
		ClickHouseDatabase:     getEnvString("CLICKHOUSE_DATABASE", "skilltrends"),
		ClickHouseTable:        getEnvString("CLICKHOUSE_TABLE", "job_postings"),

		OTelCollectorURL: getEnvString("OTEL_COLLECTOR_URL", ""),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 60*time.Second),
		MaxRetries:  getEnvInt("MAX_RETRIES", 3),
		RetryDelay:  getEnvDuration("RETRY_DELAY", 2*time.Second),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

var validate = validator.New()

func (c *Config) Validate() error {
	return validate.Struct(c)
}

func (c *Config) PeriodWidth() time.Duration {
	return time.Duration(c.PeriodWidthDays) * 24 * time.Hour
}

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
