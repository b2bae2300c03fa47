package source

import (
	"context"
	"fmt"
	"net/http"
	"time"

	domainerrors "skilltrends/common/errors"
	"skilltrends/common/telemetry"
	"skilltrends/services/processing/internal/models"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// HTTPSource issues a single GET against a CSV dataset URL and stops
// reading the body once maxRows rows are parsed.
type HTTPSource struct {
	url    string
	client *http.Client
	logger *zap.Logger
	tracer trace.Tracer
}

func NewHTTPSource(url string, timeout time.Duration, logger *zap.Logger) *HTTPSource {
	return &HTTPSource{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
		tracer: telemetry.GetTracer("skilltrends/processing/source"),
	}
}

func (s *HTTPSource) ID() string {
	return "remote:" + s.url
}

func (s *HTTPSource) Fetch(ctx context.Context, maxRows int) (models.RawTable, error) {
	ctx, span := s.tracer.Start(ctx, "HTTPSource.Fetch")
	defer span.End()
	span.SetAttributes(
		telemetry.String("source.url", s.url),
		telemetry.Int("source.max_rows", maxRows),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		span.RecordError(err)
		return models.RawTable{}, domainerrors.SourceUnavailable("build dataset request", err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := s.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return models.RawTable{}, domainerrors.SourceUnavailable("fetch dataset", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(telemetry.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		span.SetStatus(codes.Error, resp.Status)
		return models.RawTable{}, domainerrors.SourceUnavailable(fmt.Sprintf("fetch dataset: unexpected status %d", resp.StatusCode), nil)
	}

	table, err := ReadCSV(resp.Body, maxRows)
	if err != nil {
		span.RecordError(err)
		return models.RawTable{}, err
	}

	s.logger.Debug("Fetched remote dataset",
		zap.String("url", s.url),
		zap.Int("rows", len(table.Rows)),
		zap.Int("columns", len(table.Columns)),
	)
	span.SetAttributes(telemetry.Int("source.rows", len(table.Rows)))
	return table, nil
}
