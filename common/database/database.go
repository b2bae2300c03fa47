package database

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"go.uber.org/zap"
)

const (
	defaultDialTimeout      = 30 * time.Second
	defaultMaxExecutionTime = 60
)

type Options struct {
	// DSN is "host:port[,host:port...][?setting=value&...]". The query
	// string accepts dial_timeout, compress and any ClickHouse setting.
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Username        string
	Password        string
	Database        string
}

type Database struct {
	conn   clickhouse.Conn
	logger *zap.Logger
}

type dsnParts struct {
	addrs       []string
	settings    clickhouse.Settings
	dialTimeout time.Duration
	compress    bool
}

func parseDSN(dsn string) (dsnParts, error) {
	parts := dsnParts{
		settings:    clickhouse.Settings{"max_execution_time": defaultMaxExecutionTime},
		dialTimeout: defaultDialTimeout,
	}

	hosts, rawQuery, _ := strings.Cut(dsn, "?")
	for _, h := range strings.Split(hosts, ",") {
		if h = strings.TrimSpace(h); h != "" {
			parts.addrs = append(parts.addrs, h)
		}
	}
	if len(parts.addrs) == 0 {
		return dsnParts{}, fmt.Errorf("dsn %q has no host", dsn)
	}

	params, err := url.ParseQuery(rawQuery)
	if err != nil {
		return dsnParts{}, fmt.Errorf("invalid dsn parameters: %w", err)
	}
	for key, values := range params {
		value := values[len(values)-1]
		switch key {
		case "dial_timeout":
			d, err := time.ParseDuration(value)
			if err != nil {
				return dsnParts{}, fmt.Errorf("invalid dial_timeout %q: %w", value, err)
			}
			parts.dialTimeout = d
		case "compress":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return dsnParts{}, fmt.Errorf("invalid compress %q: %w", value, err)
			}
			parts.compress = b
		default:
			if n, err := strconv.Atoi(value); err == nil {
				parts.settings[key] = n
			} else {
				parts.settings[key] = value
			}
		}
	}
	return parts, nil
}

func New(ctx context.Context, opts Options, logger *zap.Logger) (*Database, error) {
	parts, err := parseDSN(opts.DSN)
	if err != nil {
		return nil, err
	}

	chOpts := &clickhouse.Options{
		Protocol: clickhouse.Native,
		Addr:     parts.addrs,
		Settings: parts.settings,
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.Username,
			Password: opts.Password,
		},
		DialTimeout:     parts.dialTimeout,
		MaxOpenConns:    opts.MaxOpenConns,
		MaxIdleConns:    opts.MaxIdleConns,
		ConnMaxLifetime: opts.ConnMaxLifetime,
	}
	if parts.compress {
		chOpts.Compression = &clickhouse.Compression{Method: clickhouse.CompressionLZ4}
	}

	conn, err := clickhouse.Open(chOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create clickhouse connection: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	logger.Info("Connected to ClickHouse",
		zap.Strings("addrs", parts.addrs),
		zap.String("database", opts.Database),
		zap.Bool("compress", parts.compress),
	)

	return &Database{
		conn:   conn,
		logger: logger,
	}, nil
}

func (db *Database) Close() error {
	db.logger.Debug("Closing ClickHouse connection")
	return db.conn.Close()
}

func (db *Database) Conn() clickhouse.Conn {
	return db.conn
}
