package messaging

import (
	"context"
	"encoding/json"

	domainerrors "skilltrends/common/errors"
	"skilltrends/common/telemetry"
	"skilltrends/services/ingestion/internal/models"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

var tracer = telemetry.GetTracer("skilltrends/ingestion/messaging")

// ScrapedBatchSubject carries one models.Batch per scrape run to the
// processing service.
const ScrapedBatchSubject = "jobs.scraped"

type Publisher interface {
	PublishBatch(ctx context.Context, batch *models.Batch) error
}

// Conn is the part of *nats.Conn the publisher uses.
type Conn interface {
	Publish(subject string, data []byte) error
	Flush() error
}

type natsPublisher struct {
	conn   Conn
	logger *zap.Logger
}

func NewPublisher(logger *zap.Logger, conn *nats.Conn) Publisher {
	return newPublisher(logger, conn)
}

func newPublisher(logger *zap.Logger, conn Conn) *natsPublisher {
	return &natsPublisher{
		conn:   conn,
		logger: logger,
	}
}

func (p *natsPublisher) PublishBatch(ctx context.Context, batch *models.Batch) error {
	_, span := tracer.Start(ctx, "PublishBatch")
	defer span.End()

	data, err := json.Marshal(batch)
	if err != nil {
		span.RecordError(err)
		return domainerrors.Internal("marshaling batch", err)
	}

	span.SetAttributes(
		telemetry.String("nats.subject", ScrapedBatchSubject),
		telemetry.Int("message.size", len(data)),
		telemetry.Int("batch.postings", len(batch.Postings)),
	)

	if err := p.conn.Publish(ScrapedBatchSubject, data); err != nil {
		span.RecordError(err)
		p.logger.Error("failed to publish batch",
			zap.String("query", batch.Query),
			zap.Error(err))
		return domainerrors.Internal("publishing to NATS", err)
	}
	if err := p.conn.Flush(); err != nil {
		span.RecordError(err)
		return domainerrors.Internal("flushing NATS connection", err)
	}

	p.logger.Info("published scraped batch",
		zap.String("query", batch.Query),
		zap.Int("postings", len(batch.Postings)),
		zap.String("subject", ScrapedBatchSubject))
	return nil
}
