package config

import (
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

type Config struct {
	BoardURL       string `validate:"required,url"`
	Query          string `validate:"required"`
	Location       string
	Pages          int `validate:"gte=1"`
	UserAgent      string
	HTTPTimeout    time.Duration `validate:"gt=0"`
	RequestDelay   time.Duration `validate:"gte=0"`
	SkillRulesFile string

	// Schedule is a cron spec, for example "0 */6 * * *" or "@every 6h".
	Schedule   string `validate:"required"`
	RunOnStart bool
	MaxRetries int           `validate:"gte=1"`
	RetryDelay time.Duration `validate:"gte=0"`

	NATSURL         string
	NATSConnTimeout time.Duration

	CacheBackend  string `validate:"oneof=memory redis"`
	RedisAddr     string `validate:"required_if=CacheBackend redis"`
	RedisPassword string
	RedisDB       int           `validate:"gte=0"`
	CacheTTL      time.Duration `validate:"gt=0"`

	StoreClickHouse        bool
	ClickHouseDSN          string
	ClickHouseMaxOpenConns int
	ClickHouseMaxIdleConns int
	ClickHouseConnMaxLife  time.Duration
	ClickHouseUsername     string
	ClickHousePassword     string
	ClickHouseDatabase     string
	ClickHouseTable        string `validate:"required_if=StoreClickHouse true"`

	OTelCollectorURL string
}

func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		BoardURL:       getEnvString("BOARD_URL", "https://www.google.com/search"),
		Query:          getEnvString("SCRAPE_QUERY", "data analyst"),
		Location:       getEnvString("SCRAPE_LOCATION", "United States"),
		Pages:          getEnvInt("SCRAPE_PAGES", 3),
		UserAgent:      getEnvString("SCRAPE_USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"),
		HTTPTimeout:    getEnvDuration("HTTP_TIMEOUT", 10*time.Second),
		RequestDelay:   getEnvDuration("REQUEST_DELAY", 3*time.Second),
		SkillRulesFile: getEnvString("SKILL_RULES_FILE", ""),

		Schedule:   getEnvString("SCRAPE_SCHEDULE", "0 */6 * * *"),
		RunOnStart: getEnvBool("RUN_ON_START", true),
		MaxRetries: getEnvInt("MAX_RETRIES", 3),
		RetryDelay: getEnvDuration("RETRY_DELAY", 30*time.Second),

		NATSURL:         getEnvString("NATS_URL", "nats://localhost:4222"),
		NATSConnTimeout: getEnvDuration("NATS_CONN_TIMEOUT", 10*time.Second),

		CacheBackend:  getEnvString("CACHE_BACKEND", CacheRedis),
		RedisAddr:     getEnvString("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnvString("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheTTL:      getEnvDuration("CACHE_TTL", 24*time.Hour),

		StoreClickHouse:        getEnvBool("STORE_CLICKHOUSE", false),
		ClickHouseDSN:          getEnvString("CLICKHOUSE_DSN", "localhost:9000"),
		ClickHouseMaxOpenConns: getEnvInt("CLICKHOUSE_MAX_OPEN_CONNS", 10),
		ClickHouseMaxIdleConns: getEnvInt("CLICKHOUSE_MAX_IDLE_CONNS", 5),
		ClickHouseConnMaxLife:  getEnvDuration("CLICKHOUSE_CONN_MAX_LIFE", time.Hour),
		ClickHouseUsername:     getEnvString("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword:     getEnvString("CLICKHOUSE_PASSWORD", ""),
		ClickHouseDatabase:     getEnvString("CLICKHOUSE_DATABASE", "skilltrends"),
		ClickHouseTable:        getEnvString("CLICKHOUSE_TABLE", "job_postings"),

		OTelCollectorURL: getEnvString("OTEL_COLLECTOR_URL", ""),
	}

	if err := validate.Struct(config); err != nil {
		return nil, err
	}
	return config, nil
}

var validate = validator.New()

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

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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
