package events

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"testing"
	"time"

	"skilltrends/common/cache"
	"skilltrends/common/cache/memory"
	domainerrors "skilltrends/common/errors"
	"skilltrends/common/skills"
	"skilltrends/common/telemetry"
	"skilltrends/services/processing/internal/aggregator"
	"skilltrends/services/processing/internal/bucketer"
	"skilltrends/services/processing/internal/export"
	"skilltrends/services/processing/internal/models"
	"skilltrends/services/processing/internal/normalizer"
	"skilltrends/services/processing/internal/pipeline"
	"skilltrends/services/processing/internal/source"
	"skilltrends/services/processing/internal/synthetic"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	rules := skills.DefaultRules()
	scrape := source.NewScrapeSource()
	p := pipeline.New(
		scrape,
		memory.New(cache.DefaultOptions()),
		normalizer.New(skills.NewExtractor(rules), 42, zap.NewNop()),
		bucketer.New(90, 180),
		aggregator.New(skills.NewClassifier(rules), aggregator.DefaultOptions()),
		synthetic.New(synthetic.DefaultSeed, aggregator.DefaultGrowthFloor),
		pipeline.Options{MaxRows: 1000, CacheTTL: time.Hour, MaxRetries: 1},
		zap.NewNop(),
	)
	return NewHandler(zap.NewNop(), nil, telemetry.GetTracer("test"), p, scrape)
}

func batch(n int) []byte {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	b := models.ScrapedBatch{Query: "data analyst", ScrapedAt: start}
	for i := 0; i < n; i++ {
		posted := start.AddDate(0, 0, 7*i)
		p := models.ScrapedPosting{
			ID:       strconv.Itoa(i),
			Title:    "Data Analyst",
			Location: "Berlin, Germany",
			Salary:   "$90K a year",
			Skills:   []string{"python"},
			PostedAt: &posted,
		}
		if i%2 == 0 {
			p.Skills = append(p.Skills, "sql")
			p.Salary = "$110K a year"
		}
		b.Postings = append(b.Postings, p)
	}
	data, _ := json.Marshal(b)
	return data
}

func TestAnswerBeforeAnyBatchIsSynthetic(t *testing.T) {
	h := newTestHandler(t)

	data, err := h.Answer(context.Background(), SubjectTrends, nil)
	require.NoError(t, err)

	var res pipeline.Result[models.TrendTable]
	require.NoError(t, json.Unmarshal(data, &res))
	assert.Equal(t, pipeline.ProvenanceSynthetic, res.Provenance)
	assert.NotEmpty(t, res.Notice)
}

func TestIngestThenQuery(t *testing.T) {
	h := newTestHandler(t)
	ctx := context.Background()

	version, err := h.Ingest(batch(40))
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	data, err := h.Answer(ctx, SubjectTrends, []byte(`{"skills":["sql"]}`))
	require.NoError(t, err)
	var trends pipeline.Result[models.TrendTable]
	require.NoError(t, json.Unmarshal(data, &trends))
	assert.Equal(t, pipeline.ProvenanceReal, trends.Provenance)
	require.Len(t, trends.Data.Rows, 1)
	assert.Equal(t, "sql", trends.Data.Rows[0].Skill)

	data, err = h.Answer(ctx, SubjectPay, []byte(`{"sort_by":"skill"}`))
	require.NoError(t, err)
	var pay pipeline.Result[models.PayTable]
	require.NoError(t, json.Unmarshal(data, &pay))
	assert.Equal(t, pipeline.ProvenanceReal, pay.Provenance)
	require.Len(t, pay.Data.Rows, 2)
	assert.Equal(t, "python", pay.Data.Rows[0].Skill)
	assert.Equal(t, 110000.0, pay.Data.Rows[1].AverageSalary)

	data, err = h.Answer(ctx, SubjectOverview, nil)
	require.NoError(t, err)
	var ov pipeline.Result[models.Overview]
	require.NoError(t, json.Unmarshal(data, &ov))
	assert.Equal(t, 40, ov.Data.TotalJobs)
	assert.Equal(t, "Germany", ov.Data.TopCountries[0].Name)
}

func TestAnswerExport(t *testing.T) {
	h := newTestHandler(t)
	_, err := h.Ingest(batch(40))
	require.NoError(t, err)

	data, err := h.Answer(context.Background(), SubjectExportPay, nil)
	require.NoError(t, err)

	var reply ExportReply
	require.NoError(t, json.Unmarshal(data, &reply))
	assert.Equal(t, pipeline.ProvenanceReal, reply.Provenance)

	table, err := export.ReadPay(strings.NewReader(reply.CSV))
	require.NoError(t, err)
	assert.Len(t, table.Rows, 2)
}

func TestAnswerErrors(t *testing.T) {
	h := newTestHandler(t)

	_, err := h.Answer(context.Background(), "skilltrends.nope", nil)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrTypeNotFound))

	_, err = h.Answer(context.Background(), SubjectTrends, []byte("{"))
	assert.True(t, domainerrors.Is(err, domainerrors.ErrTypeInvalidInput))

	var reply ErrorReply
	require.NoError(t, json.Unmarshal(errorReply(err), &reply))
	assert.Equal(t, string(domainerrors.ErrTypeInvalidInput), reply.Type)
}

func TestIngestRejectsBadBatches(t *testing.T) {
	h := newTestHandler(t)

	_, err := h.Ingest([]byte("not json"))
	assert.True(t, domainerrors.Is(err, domainerrors.ErrTypeInvalidInput))

	_, err = h.Ingest([]byte(`{"postings":[]}`))
	assert.True(t, domainerrors.Is(err, domainerrors.ErrTypeEmptyResult))

	noScrape := NewHandler(zap.NewNop(), nil, telemetry.GetTracer("test"), nil, nil)
	_, err = noScrape.Ingest(batch(1))
	assert.Error(t, err)
}
