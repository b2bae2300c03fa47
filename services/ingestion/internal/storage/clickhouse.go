// Package storage keeps scraped postings in the job_postings table so the
// processing service can read history through its ClickHouse source.
package storage

import (
	"context"
	"fmt"
	"time"

	"skilltrends/common/salary"
	"skilltrends/common/telemetry"
	"skilltrends/services/ingestion/internal/models"

	"github.com/ClickHouse/clickhouse-go/v2"
	"go.uber.org/zap"
)

var tracer = telemetry.GetTracer("skilltrends/ingestion/storage")

const sourceName = "scrape"

// Batcher is the slice of clickhouse.Conn needed for batch inserts.
type Batcher interface {
	Append(values ...any) error
	Send() error
	Abort() error
}

// Conn prepares batches. clickhouse.Conn satisfies it through NewConn.
type Conn interface {
	PrepareBatch(ctx context.Context, query string) (Batcher, error)
}

type clickHouseConn struct {
	conn clickhouse.Conn
}

func NewConn(conn clickhouse.Conn) Conn {
	return clickHouseConn{conn: conn}
}

func (c clickHouseConn) PrepareBatch(ctx context.Context, query string) (Batcher, error) {
	b, err := c.conn.PrepareBatch(ctx, query)
	if err != nil {
		return nil, err
	}
	return b, nil
}

type Store struct {
	conn   Conn
	table  string
	logger *zap.Logger
	now    func() time.Time
}

func NewStore(conn Conn, table string, logger *zap.Logger) *Store {
	return &Store{conn: conn, table: table, logger: logger, now: time.Now}
}

// SaveBatch inserts every posting of batch in one ClickHouse batch. The
// table is a ReplacingMergeTree keyed on job_id, so re-scraped cards
// collapse on merge.
func (s *Store) SaveBatch(ctx context.Context, batch *models.Batch) error {
	ctx, span := tracer.Start(ctx, "SaveBatch")
	defer span.End()
	span.SetAttributes(telemetry.Int("batch.postings", len(batch.Postings)))

	if len(batch.Postings) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (
			job_id, title, company_name, location, via, description,
			description_tokens, schedule_type, country, experience_level,
			salary_yearly, salary_min, salary_max, salary_text,
			posted_at, source, ingested_at
		)`, s.table)

	b, err := s.conn.PrepareBatch(ctx, query)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("prepare batch: %w", err)
	}

	ingestedAt := s.now().UTC()
	for _, p := range batch.Postings {
		var yearly, lo, hi *float64
		if r, ok := salary.Parse(p.Salary); ok {
			mid := r.Midpoint()
			yearly, lo, hi = &mid, &r.Min, &r.Max
		}
		if err := b.Append(
			p.ID,
			p.Title,
			p.Company,
			p.Location,
			p.Via,
			p.Description,
			p.Skills,
			"",
			"",
			"",
			yearly,
			lo,
			hi,
			p.Salary,
			p.PostedAt,
			sourceName,
			ingestedAt,
		); err != nil {
			_ = b.Abort()
			span.RecordError(err)
			return fmt.Errorf("append posting %s: %w", p.ID, err)
		}
	}

	if err := b.Send(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("insert job postings: %w", err)
	}

	s.logger.Info("stored scraped postings",
		zap.String("table", s.table),
		zap.Int("count", len(batch.Postings)))
	return nil
}
