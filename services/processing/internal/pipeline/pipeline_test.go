package pipeline

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"skilltrends/common/cache"
	"skilltrends/common/cache/memory"
	domainerrors "skilltrends/common/errors"
	"skilltrends/common/skills"
	"skilltrends/services/processing/internal/aggregator"
	"skilltrends/services/processing/internal/bucketer"
	"skilltrends/services/processing/internal/models"
	"skilltrends/services/processing/internal/normalizer"
	"skilltrends/services/processing/internal/synthetic"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSource struct {
	table models.RawTable
	err   error
	calls int
}

func (f *fakeSource) ID() string { return "fake" }

func (f *fakeSource) Fetch(_ context.Context, maxRows int) (models.RawTable, error) {
	f.calls++
	if f.err != nil {
		return models.RawTable{}, f.err
	}
	t := f.table
	if maxRows > 0 && len(t.Rows) > maxRows {
		t.Rows = t.Rows[:maxRows]
	}
	return t, nil
}

// jobsTable spreads n postings three days apart from 2023-01-01. Every
// posting mentions python, even ones also mention sql and pay more.
func jobsTable(n int, withSalary bool) models.RawTable {
	cols := []string{"job_id", "title", "date_time", "description_tokens", "country", "experience_level"}
	if withSalary {
		cols = append(cols, "salary_yearly")
	}
	table := models.RawTable{Columns: cols}
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		row := map[string]string{
			"job_id":             strconv.Itoa(i),
			"title":              "Data Analyst",
			"date_time":          start.AddDate(0, 0, 3*i).Format("2006-01-02"),
			"description_tokens": "['python']",
			"country":            "Germany",
			"experience_level":   "Mid Level",
			"salary_yearly":      "100000",
		}
		if i%2 == 0 {
			row["description_tokens"] = "['python', 'sql']"
			row["salary_yearly"] = "120000"
			row["country"] = "France"
		}
		if !withSalary {
			delete(row, "salary_yearly")
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}

func newPipeline(src *fakeSource, c cache.Cache) *Pipeline {
	rules := skills.DefaultRules()
	p := New(
		src,
		c,
		normalizer.New(skills.NewExtractor(rules), 42, zap.NewNop()),
		bucketer.New(90, 180),
		aggregator.New(skills.NewClassifier(rules), aggregator.DefaultOptions()),
		synthetic.New(synthetic.DefaultSeed, aggregator.DefaultGrowthFloor),
		Options{MaxRows: 1000, CacheTTL: 24 * time.Hour, MaxRetries: 3, RetryDelay: time.Second},
		zap.NewNop(),
	)
	p.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	return p
}

func TestLoadCachesRealData(t *testing.T) {
	src := &fakeSource{table: jobsTable(100, true)}
	c := memory.New(cache.DefaultOptions())
	p := newPipeline(src, c)
	ctx := context.Background()

	first := p.Load(ctx)
	require.Equal(t, ProvenanceReal, first.Provenance)
	assert.Len(t, first.Data.Records, 100)
	assert.Equal(t, 1, src.calls)

	second := p.Load(ctx)
	require.Equal(t, ProvenanceReal, second.Provenance)
	assert.Equal(t, 1, src.calls, "second load is served from cache")
	assert.Equal(t, first.Data.Records[0].ID, second.Data.Records[0].ID)

	var cached models.Dataset
	require.NoError(t, c.Get(ctx, CacheKey("fake", 1000), &cached))

	p.Refresh(ctx)
	assert.Equal(t, 2, src.calls)
}

func TestLoadFallsBackToSynthetic(t *testing.T) {
	src := &fakeSource{err: domainerrors.SourceUnavailable("fetch dataset", errors.New("connection refused"))}
	c := memory.New(cache.DefaultOptions())
	p := newPipeline(src, c)
	ctx := context.Background()

	res := p.Load(ctx)
	assert.Equal(t, ProvenanceSynthetic, res.Provenance)
	assert.NotEmpty(t, res.Notice)
	assert.Equal(t, synthetic.SourceID, res.Data.Source)
	assert.Equal(t, 3, src.calls, "retries up to MaxRetries")

	var cached models.Dataset
	assert.ErrorIs(t, c.Get(ctx, CacheKey("fake", 1000), &cached), cache.ErrNotFound)

	p.Load(ctx)
	assert.Equal(t, 6, src.calls, "synthetic data is not cached")
}

func TestLoadStopsRetryingWhenCancelled(t *testing.T) {
	src := &fakeSource{err: errors.New("boom")}
	p := newPipeline(src, memory.New(cache.DefaultOptions()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := p.Load(ctx)
	assert.Equal(t, ProvenanceSynthetic, res.Provenance)
	assert.Equal(t, 1, src.calls)
}

func TestLoadEmptyDatasetIsUnavailable(t *testing.T) {
	src := &fakeSource{table: models.RawTable{Columns: []string{"title"}}}
	res := newPipeline(src, memory.New(cache.DefaultOptions())).Load(context.Background())

	assert.Equal(t, ProvenanceUnavailable, res.Provenance)
	assert.False(t, res.Available())
	assert.NotEmpty(t, res.Notice)
}

func TestTrendsReal(t *testing.T) {
	p := newPipeline(&fakeSource{table: jobsTable(100, true)}, memory.New(cache.DefaultOptions()))

	res := p.Trends(context.Background(), Query{})
	require.Equal(t, ProvenanceReal, res.Provenance)
	assert.GreaterOrEqual(t, len(res.Data.Periods), 2)
	require.Len(t, res.Data.Rows, 2)
	assert.Equal(t, "python", res.Data.Rows[0].Skill)
	for _, period := range res.Data.Periods {
		assert.Equal(t, 100.0, res.Data.Rows[0].Popularity[period])
	}

	filtered := p.Trends(context.Background(), Query{Categories: []skills.Category{skills.CategoryData}})
	require.Len(t, filtered.Data.Rows, 1)
	assert.Equal(t, "sql", filtered.Data.Rows[0].Skill)

	summary := p.Summary(context.Background(), Query{})
	assert.Equal(t, ProvenanceReal, summary.Provenance)
	require.NotNil(t, summary.Data.HighestAdoption)
	assert.Equal(t, "python", summary.Data.HighestAdoption.Skill)

	byCategory := p.CategoryComparison(context.Background(), Query{})
	assert.Len(t, byCategory.Data, 2)
}

func TestTrendsShortSpanFallsBack(t *testing.T) {
	p := newPipeline(&fakeSource{table: jobsTable(30, true)}, memory.New(cache.DefaultOptions()))

	res := p.Trends(context.Background(), Query{})
	assert.Equal(t, ProvenanceSynthetic, res.Provenance)
	assert.Equal(t, noticeShortSpan, res.Notice)
	assert.Equal(t, synthetic.TrendPeriods, res.Data.Periods)
}

func TestPay(t *testing.T) {
	p := newPipeline(&fakeSource{table: jobsTable(100, true)}, memory.New(cache.DefaultOptions()))

	res := p.Pay(context.Background(), Query{SortBy: SortByAverage})
	require.Equal(t, ProvenanceReal, res.Provenance)
	require.Len(t, res.Data.Rows, 2)
	assert.Equal(t, "sql", res.Data.Rows[0].Skill)
	assert.Equal(t, 120000.0, res.Data.Rows[0].AverageSalary)
	assert.Equal(t, 50, res.Data.Rows[0].JobCount)
	assert.Equal(t, 110000.0, res.Data.OverallAverage)

	limited := p.Pay(context.Background(), Query{SortBy: SortBySkill, Limit: 1})
	require.Len(t, limited.Data.Rows, 1)
	assert.Equal(t, "python", limited.Data.Rows[0].Skill)

	cats := p.CategoryPay(context.Background(), Query{Limit: 1})
	require.Equal(t, ProvenanceReal, cats.Provenance)
	assert.Len(t, cats.Data, 2)
}

func TestPayWithoutSalaryFallsBack(t *testing.T) {
	p := newPipeline(&fakeSource{table: jobsTable(100, false)}, memory.New(cache.DefaultOptions()))

	res := p.Pay(context.Background(), Query{})
	assert.Equal(t, ProvenanceSynthetic, res.Provenance)
	assert.Equal(t, noticeNoPay, res.Notice)
	assert.False(t, res.Data.Empty())
}

func TestRecordFilters(t *testing.T) {
	p := newPipeline(&fakeSource{table: jobsTable(100, true)}, memory.New(cache.DefaultOptions()))
	ctx := context.Background()

	ov := p.Overview(ctx, Query{Countries: []string{"france"}})
	require.Equal(t, ProvenanceReal, ov.Provenance)
	assert.Equal(t, 50, ov.Data.TotalJobs)

	none := p.Overview(ctx, Query{TitleContains: "astronaut"})
	assert.Equal(t, ProvenanceUnavailable, none.Provenance)
	assert.Equal(t, noticeNoMatch, none.Notice)

	top := p.TopSkills(ctx, Query{Skills: []string{"SQL"}})
	require.Equal(t, ProvenanceReal, top.Provenance)
	require.Len(t, top.Data, 1)
	assert.Equal(t, 50, top.Data[0].Count)
}

func TestSyntheticLoadDrivesSyntheticViews(t *testing.T) {
	p := newPipeline(&fakeSource{err: errors.New("offline")}, memory.New(cache.DefaultOptions()))
	ctx := context.Background()

	assert.Equal(t, ProvenanceSynthetic, p.Trends(ctx, Query{}).Provenance)
	assert.Equal(t, ProvenanceSynthetic, p.Pay(ctx, Query{}).Provenance)
	assert.Equal(t, ProvenanceSynthetic, p.TopSkills(ctx, Query{}).Provenance)
	assert.Equal(t, ProvenanceSynthetic, p.Overview(ctx, Query{}).Provenance)
}

func TestResultHelpers(t *testing.T) {
	r := Real(1)
	assert.True(t, r.Available())
	assert.False(t, r.IsSynthetic())

	s := Synthetic("x", "note")
	assert.True(t, s.IsSynthetic())
	assert.Equal(t, "note", s.Notice)

	u := Unavailable[int]("gone")
	assert.False(t, u.Available())
	assert.Equal(t, 0, u.Data)

	d := derive(s, 42)
	assert.Equal(t, ProvenanceSynthetic, d.Provenance)
	assert.Equal(t, "note", d.Notice)
}
