package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	domainerrors "skilltrends/common/errors"
	"skilltrends/services/ingestion/internal/config"
	"skilltrends/services/ingestion/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClient struct {
	mu       sync.Mutex
	pages    map[int]models.Postings
	failures map[int]int
	calls    []int
}

func (c *fakeClient) Search(_ context.Context, _, _ string, page int) (models.Postings, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, page)
	if c.failures[page] > 0 {
		c.failures[page]--
		return nil, domainerrors.SourceUnavailable("rate limited", nil)
	}
	return c.pages[page], nil
}

type fakePublisher struct {
	mu      sync.Mutex
	batches []*models.Batch
	err     error
}

func (p *fakePublisher) PublishBatch(_ context.Context, b *models.Batch) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.batches = append(p.batches, b)
	return nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.batches)
}

type fakeStore struct {
	saved int
}

func (s *fakeStore) SaveBatch(_ context.Context, b *models.Batch) error {
	s.saved += len(b.Postings)
	return nil
}

func posting(id string) models.JobPosting {
	return models.JobPosting{ID: id, Title: "Job " + id}
}

func testConfig() *config.Config {
	return &config.Config{
		Query:        "data analyst",
		Location:     "United States",
		Pages:        3,
		Schedule:     "@every 1h",
		MaxRetries:   2,
		RequestDelay: 3 * time.Second,
		RetryDelay:   30 * time.Second,
	}
}

func newTestScheduler(client *fakeClient, pub *fakePublisher, store Store, cfg *config.Config) (*JobScheduler, *[]time.Duration) {
	s := NewJobScheduler(client, pub, store, zap.NewNop(), cfg)
	var sleeps []time.Duration
	s.sleep = func(_ context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}
	s.now = func() time.Time { return time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC) }
	return s, &sleeps
}

func TestRunOnceSequentialWithDelays(t *testing.T) {
	client := &fakeClient{
		pages: map[int]models.Postings{
			0: {posting("a"), posting("b")},
			1: {posting("b"), posting("c")},
			2: {posting("d")},
		},
		failures: map[int]int{1: 1},
	}
	pub := &fakePublisher{}
	store := &fakeStore{}
	s, sleeps := newTestScheduler(client, pub, store, testConfig())

	batch, err := s.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 1, 2}, client.calls)
	assert.Equal(t, []time.Duration{3 * time.Second, 30 * time.Second, 3 * time.Second}, *sleeps)

	ids := make([]string, len(batch.Postings))
	for i, p := range batch.Postings {
		ids[i] = p.ID
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids)
	assert.Equal(t, "data analyst", batch.Query)
	assert.Equal(t, 1, pub.count())
	assert.Equal(t, 4, store.saved)
}

func TestRunOnceStopsAtEmptyPage(t *testing.T) {
	client := &fakeClient{pages: map[int]models.Postings{0: {posting("a")}}}
	s, _ := newTestScheduler(client, &fakePublisher{}, nil, testConfig())

	batch, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Len(t, batch.Postings, 1)
	assert.Equal(t, []int{0, 1}, client.calls)
}

func TestRunOnceSkipsFailingPage(t *testing.T) {
	client := &fakeClient{
		pages:    map[int]models.Postings{0: {posting("a")}, 2: {posting("c")}},
		failures: map[int]int{1: 5},
	}
	pub := &fakePublisher{}
	s, _ := newTestScheduler(client, pub, nil, testConfig())

	batch, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Len(t, batch.Postings, 2)
	assert.Equal(t, 1, pub.count())
}

func TestRunOnceAllPagesFail(t *testing.T) {
	client := &fakeClient{failures: map[int]int{0: 5, 1: 5, 2: 5}}
	pub := &fakePublisher{}
	s, _ := newTestScheduler(client, pub, nil, testConfig())

	_, err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrTypeSourceUnavailable))
	assert.Zero(t, pub.count())
}

func TestRunOncePublishError(t *testing.T) {
	client := &fakeClient{pages: map[int]models.Postings{0: {posting("a")}}}
	store := &fakeStore{}
	s, _ := newTestScheduler(client, &fakePublisher{err: errors.New("nats down")}, store, testConfig())

	_, err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.Zero(t, store.saved)
}

func TestStartRunsOnStartAndStops(t *testing.T) {
	cfg := testConfig()
	cfg.RunOnStart = true
	client := &fakeClient{pages: map[int]models.Postings{0: {posting("a")}}}
	pub := &fakePublisher{}
	s, _ := newTestScheduler(client, pub, nil, cfg)

	ctx := context.Background()
	require.NoError(t, s.Start(ctx))
	require.NoError(t, s.Start(ctx))

	assert.Eventually(t, func() bool { return pub.count() == 1 }, time.Second, 10*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx))
	require.NoError(t, s.Stop(stopCtx))
}

func TestStartRejectsBadSchedule(t *testing.T) {
	cfg := testConfig()
	cfg.Schedule = "not a schedule"
	s, _ := newTestScheduler(&fakeClient{}, &fakePublisher{}, nil, cfg)

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrTypeInvalidInput))
}
