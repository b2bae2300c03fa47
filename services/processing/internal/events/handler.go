package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	domainerrors "skilltrends/common/errors"
	"skilltrends/common/skills"
	"skilltrends/services/processing/internal/export"
	"skilltrends/services/processing/internal/models"
	"skilltrends/services/processing/internal/pipeline"
	"skilltrends/services/processing/internal/source"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	SubjectTrends             = "skilltrends.trends"
	SubjectPay                = "skilltrends.pay"
	SubjectCategories         = "skilltrends.categories"
	SubjectCategoryComparison = "skilltrends.categories.trends"
	SubjectTop                = "skilltrends.top"
	SubjectOverview           = "skilltrends.overview"
	SubjectSummary            = "skilltrends.summary"
	SubjectRefresh            = "skilltrends.refresh"
	SubjectExportTrends       = "skilltrends.export.trends"
	SubjectExportPay          = "skilltrends.export.pay"

	SubjectJobsScraped = "jobs.scraped"

	queueGroup = "processing-service"
)

// QueryRequest is the JSON body of every query subject. An empty body is
// an unfiltered query.
type QueryRequest struct {
	Countries        []string `json:"countries,omitempty"`
	ExperienceLevels []string `json:"experience_levels,omitempty"`
	TitleContains    string   `json:"title_contains,omitempty"`
	Categories       []string `json:"categories,omitempty"`
	Skills           []string `json:"skills,omitempty"`
	SortBy           string   `json:"sort_by,omitempty"`
	Limit            int      `json:"limit,omitempty"`
}

func (r QueryRequest) Query() pipeline.Query {
	q := pipeline.Query{
		Countries:        r.Countries,
		ExperienceLevels: r.ExperienceLevels,
		TitleContains:    r.TitleContains,
		Skills:           r.Skills,
		SortBy:           pipeline.PaySort(r.SortBy),
		Limit:            r.Limit,
	}
	for _, c := range r.Categories {
		q.Categories = append(q.Categories, skills.Category(c))
	}
	return q
}

type ExportReply struct {
	Provenance pipeline.Provenance `json:"provenance"`
	Notice     string              `json:"notice,omitempty"`
	CSV        string              `json:"csv"`
}

type ErrorReply struct {
	Error string `json:"error"`
	Type  string `json:"type,omitempty"`
}

type Handler struct {
	logger   *zap.Logger
	nc       *nats.Conn
	tracer   trace.Tracer
	pipeline *pipeline.Pipeline
	scrape   *source.ScrapeSource
	subs     []*nats.Subscription
}

// NewHandler builds the NATS handler. scrape may be nil when the service
// does not read scraped batches.
func NewHandler(logger *zap.Logger, nc *nats.Conn, tracer trace.Tracer, p *pipeline.Pipeline, scrape *source.ScrapeSource) *Handler {
	return &Handler{
		logger:   logger,
		nc:       nc,
		tracer:   tracer,
		pipeline: p,
		scrape:   scrape,
	}
}

func (h *Handler) RegisterSubscriptions(lc fx.Lifecycle) error {
	subjects := []string{
		SubjectTrends, SubjectPay, SubjectCategories, SubjectCategoryComparison, SubjectTop,
		SubjectOverview, SubjectSummary, SubjectRefresh, SubjectExportTrends, SubjectExportPay,
	}
	for _, subject := range subjects {
		sub, err := h.nc.QueueSubscribe(subject, queueGroup, h.handleQuery)
		if err != nil {
			return fmt.Errorf("subscribe to %s: %w", subject, err)
		}
		h.subs = append(h.subs, sub)
	}

	if h.scrape != nil {
		sub, err := h.nc.Subscribe(SubjectJobsScraped, h.handleScrapedBatch)
		if err != nil {
			return fmt.Errorf("subscribe to %s: %w", SubjectJobsScraped, err)
		}
		h.subs = append(h.subs, sub)
	}

	h.logger.Info("Registered NATS subscriptions", zap.Int("count", len(h.subs)))

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			for _, sub := range h.subs {
				if err := sub.Unsubscribe(); err != nil {
					return err
				}
			}
			return nil
		},
	})

	return nil
}

func (h *Handler) handleQuery(msg *nats.Msg) {
	ctx, span := h.tracer.Start(context.Background(), "handleQuery")
	defer span.End()

	reply, err := h.Answer(ctx, msg.Subject, msg.Data)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to answer query",
			zap.Error(err),
			zap.String("subject", msg.Subject),
		)
		reply = errorReply(err)
	}

	if msg.Reply == "" {
		return
	}
	if err := msg.Respond(reply); err != nil {
		h.logger.Error("Failed to respond",
			zap.Error(err),
			zap.String("subject", msg.Subject),
		)
	}
}

// Answer computes the JSON reply for a query subject.
func (h *Handler) Answer(ctx context.Context, subject string, data []byte) ([]byte, error) {
	var req QueryRequest
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, domainerrors.InvalidInput("decode query request", err)
		}
	}
	q := req.Query()

	switch subject {
	case SubjectTrends:
		return json.Marshal(h.pipeline.Trends(ctx, q))
	case SubjectPay:
		return json.Marshal(h.pipeline.Pay(ctx, q))
	case SubjectCategories:
		return json.Marshal(h.pipeline.CategoryPay(ctx, q))
	case SubjectCategoryComparison:
		return json.Marshal(h.pipeline.CategoryComparison(ctx, q))
	case SubjectTop:
		return json.Marshal(h.pipeline.TopSkills(ctx, q))
	case SubjectOverview:
		return json.Marshal(h.pipeline.Overview(ctx, q))
	case SubjectSummary:
		return json.Marshal(h.pipeline.Summary(ctx, q))
	case SubjectRefresh:
		res := h.pipeline.Refresh(ctx)
		return json.Marshal(pipeline.Result[int]{Provenance: res.Provenance, Data: len(res.Data.Records), Notice: res.Notice})
	case SubjectExportTrends:
		res := h.pipeline.Trends(ctx, q)
		var buf bytes.Buffer
		if res.Available() {
			if err := export.WriteTrends(&buf, res.Data); err != nil {
				return nil, err
			}
		}
		return json.Marshal(ExportReply{Provenance: res.Provenance, Notice: res.Notice, CSV: buf.String()})
	case SubjectExportPay:
		res := h.pipeline.Pay(ctx, q)
		var buf bytes.Buffer
		if res.Available() {
			if err := export.WritePay(&buf, res.Data); err != nil {
				return nil, err
			}
		}
		return json.Marshal(ExportReply{Provenance: res.Provenance, Notice: res.Notice, CSV: buf.String()})
	default:
		return nil, domainerrors.NotFound("unknown subject "+subject, nil)
	}
}

func (h *Handler) handleScrapedBatch(msg *nats.Msg) {
	_, span := h.tracer.Start(context.Background(), "handleScrapedBatch")
	defer span.End()

	version, err := h.Ingest(msg.Data)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to ingest scraped batch",
			zap.Error(err),
			zap.String("subject", msg.Subject),
		)
		return
	}

	h.logger.Info("Ingested scraped batch",
		zap.String("subject", msg.Subject),
		zap.Int("version", version),
	)
}

// Ingest decodes a scraped batch and installs it as the scrape snapshot.
func (h *Handler) Ingest(data []byte) (int, error) {
	if h.scrape == nil {
		return 0, domainerrors.InvalidInput("scrape source not configured", nil)
	}
	var batch models.ScrapedBatch
	if err := json.Unmarshal(data, &batch); err != nil {
		return 0, domainerrors.InvalidInput("decode scraped batch", err)
	}
	if len(batch.Postings) == 0 {
		return 0, domainerrors.EmptyResult("scraped batch has no postings", nil)
	}
	return h.scrape.Replace(batch.Postings), nil
}

func errorReply(err error) []byte {
	reply := ErrorReply{Error: err.Error()}
	if de, ok := err.(*domainerrors.DomainError); ok {
		reply.Type = string(de.Type)
	}
	data, _ := json.Marshal(reply)
	return data
}
