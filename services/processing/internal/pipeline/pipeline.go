// Package pipeline wires loading, normalization and aggregation together and
// decides, per view, whether real, synthetic or no data is shown.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"skilltrends/common/cache"
	"skilltrends/common/telemetry"
	"skilltrends/services/processing/internal/aggregator"
	"skilltrends/services/processing/internal/bucketer"
	"skilltrends/services/processing/internal/models"
	"skilltrends/services/processing/internal/normalizer"
	"skilltrends/services/processing/internal/source"
	"skilltrends/services/processing/internal/synthetic"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	noticeSourceUnavailable = "Could not load job data (%v). Showing synthetic data for demonstration."
	noticeEmptyDataset      = "The dataset contains no job postings."
	noticeNoMatch           = "No job postings match the current filters."
	noticeShortSpan         = "Not enough dated postings to analyse trends. Showing synthetic trends for demonstration."
	noticeNoTrends          = "Could not extract trend data. Showing synthetic trends for demonstration."
	noticeNoPay             = "Not enough skill and salary data. Showing synthetic skills vs pay data for demonstration."
	noticeNoTopSkills       = "No skill is mentioned often enough to rank."
)

type Options struct {
	MaxRows    int
	CacheTTL   time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

type Pipeline struct {
	source     source.Source
	cache      cache.Cache
	normalizer *normalizer.Normalizer
	bucketer   *bucketer.Bucketer
	aggregator *aggregator.Aggregator
	generator  *synthetic.Generator
	opts       Options
	logger     *zap.Logger
	tracer     trace.Tracer
	sleep      func(ctx context.Context, d time.Duration) error
}

func New(
	src source.Source,
	c cache.Cache,
	n *normalizer.Normalizer,
	b *bucketer.Bucketer,
	a *aggregator.Aggregator,
	g *synthetic.Generator,
	opts Options,
	logger *zap.Logger,
) *Pipeline {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}
	return &Pipeline{
		source:     src,
		cache:      c,
		normalizer: n,
		bucketer:   b,
		aggregator: a,
		generator:  g,
		opts:       opts,
		logger:     logger,
		tracer:     telemetry.GetTracer("skilltrends/processing/pipeline"),
		sleep:      sleepContext,
	}
}

// CacheKey identifies a normalized dataset by source and row limit.
func CacheKey(sourceID string, maxRows int) string {
	return fmt.Sprintf("skilltrends:records:%s:%d", sourceID, maxRows)
}

// Load returns the normalized dataset, from cache when a fresh entry exists.
// A source failure yields synthetic records, which are never cached. A
// source with no rows yields Unavailable.
func (p *Pipeline) Load(ctx context.Context) Result[models.Dataset] {
	ctx, span := p.tracer.Start(ctx, "Pipeline.Load")
	defer span.End()

	key := CacheKey(p.source.ID(), p.opts.MaxRows)
	span.SetAttributes(telemetry.String("cache.key", key))

	var cached models.Dataset
	err := p.cache.Get(ctx, key, &cached)
	if err == nil {
		span.SetAttributes(telemetry.String("cache.result", "hit"))
		p.logger.Debug("cache hit for dataset", zap.String("key", key))
		return Real(cached)
	} else if err != cache.ErrNotFound {
		span.SetAttributes(telemetry.String("cache.result", "error"))
		span.RecordError(err)
		p.logger.Warn("cache error for dataset", zap.String("key", key), zap.Error(err))
	} else {
		span.SetAttributes(telemetry.String("cache.result", "miss"))
	}

	table, err := p.fetch(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(telemetry.Bool("dataset.synthetic", true))
		p.logger.Warn("source unavailable, using synthetic records",
			zap.String("source", p.source.ID()),
			zap.Error(err),
		)
		return Synthetic(p.generator.Records(synthetic.DefaultRecordCount), fmt.Sprintf(noticeSourceUnavailable, err))
	}

	ds := p.normalizer.Normalize(p.source.ID(), table, p.opts.MaxRows)
	span.SetAttributes(telemetry.Int("dataset.rows", len(ds.Records)))
	if len(ds.Records) == 0 {
		return Unavailable[models.Dataset](noticeEmptyDataset)
	}

	if err := p.cache.Set(ctx, key, ds, p.opts.CacheTTL); err != nil {
		p.logger.Warn("failed to cache dataset", zap.String("key", key), zap.Error(err))
	}
	return Real(ds)
}

// Refresh drops the cached dataset and loads it again.
func (p *Pipeline) Refresh(ctx context.Context) Result[models.Dataset] {
	key := CacheKey(p.source.ID(), p.opts.MaxRows)
	if err := p.cache.Delete(ctx, key); err != nil {
		p.logger.Warn("failed to drop cached dataset", zap.String("key", key), zap.Error(err))
	}
	return p.Load(ctx)
}

func (p *Pipeline) fetch(ctx context.Context) (models.RawTable, error) {
	var lastErr error
	for attempt := 1; attempt <= p.opts.MaxRetries; attempt++ {
		table, err := p.source.Fetch(ctx, p.opts.MaxRows)
		if err == nil {
			return table, nil
		}
		lastErr = err
		p.logger.Warn("dataset fetch failed",
			zap.String("source", p.source.ID()),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", p.opts.MaxRetries),
			zap.Error(err),
		)
		if attempt == p.opts.MaxRetries {
			break
		}
		if err := p.sleep(ctx, p.opts.RetryDelay); err != nil {
			return models.RawTable{}, err
		}
	}
	return models.RawTable{}, lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// dataset loads and applies the record filters of q.
func (p *Pipeline) dataset(ctx context.Context, q Query) Result[models.Dataset] {
	res := p.Load(ctx)
	if !res.Available() {
		return res
	}
	if keep, ok := q.recordFilter(); ok {
		res.Data = res.Data.Filter(keep)
	}
	if len(res.Data.Records) == 0 {
		return Unavailable[models.Dataset](noticeNoMatch)
	}
	return res
}

// Trends returns the popularity and growth table. Too short a time span or
// an empty pivot falls back to synthetic trends.
func (p *Pipeline) Trends(ctx context.Context, q Query) Result[models.TrendTable] {
	ctx, span := p.tracer.Start(ctx, "Pipeline.Trends")
	defer span.End()

	ds := p.dataset(ctx, q)
	if !ds.Available() {
		return Unavailable[models.TrendTable](ds.Notice)
	}
	if ds.IsSynthetic() {
		return Synthetic(q.filterTrends(p.generator.Trends()), ds.Notice)
	}

	periods, err := p.bucketer.Bucket(ds.Data.Records)
	if err != nil {
		p.logger.Info("trend analysis skipped", zap.Error(err))
		return Synthetic(q.filterTrends(p.generator.Trends()), noticeShortSpan)
	}
	span.SetAttributes(telemetry.Int("trends.periods", len(periods)))

	table := p.aggregator.Trends(periods, ds.Data.Records)
	if table.Empty() || len(table.Periods) < 2 {
		return Synthetic(q.filterTrends(p.generator.Trends()), noticeNoTrends)
	}
	return Real(q.filterTrends(table))
}

// Summary highlights the notable skills of the Trends view.
func (p *Pipeline) Summary(ctx context.Context, q Query) Result[models.TrendSummary] {
	t := p.Trends(ctx, q)
	if !t.Available() {
		return Unavailable[models.TrendSummary](t.Notice)
	}
	return derive(t, aggregator.Summarize(t.Data))
}

// CategoryComparison averages the Trends view per category.
func (p *Pipeline) CategoryComparison(ctx context.Context, q Query) Result[[]models.CategoryTrendRow] {
	t := p.Trends(ctx, q)
	if !t.Available() {
		return Unavailable[[]models.CategoryTrendRow](t.Notice)
	}
	return derive(t, aggregator.CategoryComparison(t.Data))
}

// Pay returns the skill-vs-pay table. Missing skill or salary data falls
// back to the synthetic pay table.
func (p *Pipeline) Pay(ctx context.Context, q Query) Result[models.PayTable] {
	ctx, span := p.tracer.Start(ctx, "Pipeline.Pay")
	defer span.End()

	ds := p.dataset(ctx, q)
	if !ds.Available() {
		return Unavailable[models.PayTable](ds.Notice)
	}
	if ds.IsSynthetic() {
		return Synthetic(q.filterPay(p.generator.PayTable()), ds.Notice)
	}

	table := p.aggregator.SkillPay(ds.Data)
	span.SetAttributes(telemetry.Int("pay.rows", len(table.Rows)))
	if table.Empty() {
		return Synthetic(q.filterPay(p.generator.PayTable()), noticeNoPay)
	}
	return Real(q.filterPay(table))
}

// CategoryPay rolls the Pay view up per category.
func (p *Pipeline) CategoryPay(ctx context.Context, q Query) Result[[]models.CategoryPayRow] {
	unlimited := q
	unlimited.Limit = 0
	pay := p.Pay(ctx, unlimited)
	if !pay.Available() {
		return Unavailable[[]models.CategoryPayRow](pay.Notice)
	}
	return derive(pay, aggregator.CategoryRollup(pay.Data))
}

// TopSkills ranks skills by mention count.
func (p *Pipeline) TopSkills(ctx context.Context, q Query) Result[[]models.TopSkillRow] {
	ds := p.dataset(ctx, q)
	if !ds.Available() {
		return Unavailable[[]models.TopSkillRow](ds.Notice)
	}

	rows := q.filterTop(p.aggregator.TopSkills(ds.Data, 0))
	if len(rows) == 0 {
		return Unavailable[[]models.TopSkillRow](noticeNoTopSkills)
	}
	return derive(ds, rows)
}

// Overview summarizes the whole dataset.
func (p *Pipeline) Overview(ctx context.Context, q Query) Result[models.Overview] {
	ds := p.dataset(ctx, q)
	if !ds.Available() {
		return Unavailable[models.Overview](ds.Notice)
	}
	return derive(ds, p.aggregator.Overview(ds.Data))
}
