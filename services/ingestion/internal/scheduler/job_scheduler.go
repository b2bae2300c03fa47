package scheduler

import (
	"context"
	"sync"
	"time"

	domainerrors "skilltrends/common/errors"
	"skilltrends/common/telemetry"
	"skilltrends/services/ingestion/internal/config"
	"skilltrends/services/ingestion/internal/messaging"
	"skilltrends/services/ingestion/internal/models"
	"skilltrends/services/ingestion/internal/scraper"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var tracer = telemetry.GetTracer("skilltrends/ingestion/scheduler")

// Store persists a batch. It is optional.
type Store interface {
	SaveBatch(ctx context.Context, batch *models.Batch) error
}

// JobScheduler runs one scrape per cron tick. Pages are fetched one after
// another with a fixed delay between requests, and a tick that fires while
// a run is still going is skipped.
type JobScheduler struct {
	client    scraper.Client
	publisher messaging.Publisher
	store     Store
	logger    *zap.Logger
	config    *config.Config
	cron      *cron.Cron
	mutex     sync.Mutex
	isActive  bool
	running   sync.Mutex
	sleep     func(ctx context.Context, d time.Duration) error
	now       func() time.Time
}

func NewJobScheduler(client scraper.Client, publisher messaging.Publisher, store Store, logger *zap.Logger, config *config.Config) *JobScheduler {
	return &JobScheduler{
		client:    client,
		publisher: publisher,
		store:     store,
		logger:    logger,
		config:    config,
		sleep:     sleepContext,
		now:       time.Now,
	}
}

// Start registers the scrape job and starts the cron runner. It returns
// once the schedule is installed; ctx bounds every run.
func (s *JobScheduler) Start(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.isActive {
		return nil
	}

	c := cron.New(cron.WithChain(cron.Recover(cronLogger{s.logger})))
	if _, err := c.AddFunc(s.config.Schedule, func() { s.tick(ctx) }); err != nil {
		return domainerrors.InvalidInput("parsing schedule "+s.config.Schedule, err)
	}
	c.Start()
	s.cron = c
	s.isActive = true

	s.logger.Info("scrape schedule installed",
		zap.String("schedule", s.config.Schedule),
		zap.String("query", s.config.Query))

	if s.config.RunOnStart {
		go s.tick(ctx)
	}
	return nil
}

// Stop removes the schedule and waits for a running scrape to finish or
// for ctx to expire.
func (s *JobScheduler) Stop(ctx context.Context) error {
	s.mutex.Lock()
	c := s.cron
	s.cron = nil
	s.isActive = false
	s.mutex.Unlock()

	if c == nil {
		return nil
	}
	select {
	case <-c.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *JobScheduler) tick(ctx context.Context) {
	if !s.running.TryLock() {
		s.logger.Warn("previous scrape still running, skipping tick")
		return
	}
	defer s.running.Unlock()

	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error("scheduled scrape failed", zap.Error(err))
	}
}

// RunOnce scrapes every configured page, publishes the batch and stores it
// when a store is configured. Pages that keep failing are skipped; the run
// fails only when no page could be fetched.
func (s *JobScheduler) RunOnce(ctx context.Context) (*models.Batch, error) {
	ctx, span := tracer.Start(ctx, "JobScheduler.RunOnce")
	defer span.End()

	batch := &models.Batch{Query: s.config.Query, ScrapedAt: s.now().UTC()}
	seen := make(map[string]bool)
	fetched := 0

	for page := 0; page < s.config.Pages; page++ {
		if page > 0 {
			if err := s.sleep(ctx, s.config.RequestDelay); err != nil {
				return nil, err
			}
		}

		postings, err := s.searchWithRetry(ctx, page)
		if err != nil {
			span.RecordError(err)
			s.logger.Warn("giving up on page", zap.Int("page", page), zap.Error(err))
			continue
		}
		fetched++

		for _, p := range postings {
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			batch.Postings = append(batch.Postings, p)
		}
		if len(postings) == 0 {
			break
		}
	}

	span.SetAttributes(
		telemetry.Int("pages.fetched", fetched),
		telemetry.Int("postings.count", len(batch.Postings)),
	)

	if fetched == 0 {
		return nil, domainerrors.SourceUnavailable("no results page could be fetched", nil)
	}
	if len(batch.Postings) == 0 {
		s.logger.Info("scrape found no postings", zap.String("query", s.config.Query))
		return batch, nil
	}

	if err := s.publisher.PublishBatch(ctx, batch); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if s.store != nil {
		if err := s.store.SaveBatch(ctx, batch); err != nil {
			span.RecordError(err)
			s.logger.Error("failed to store batch", zap.Error(err))
		}
	}

	s.logger.Info("completed scrape",
		zap.String("query", s.config.Query),
		zap.Int("pages", fetched),
		zap.Int("postings", len(batch.Postings)))
	return batch, nil
}

func (s *JobScheduler) searchWithRetry(ctx context.Context, page int) (models.Postings, error) {
	var lastErr error
	for attempt := 1; attempt <= s.config.MaxRetries; attempt++ {
		postings, err := s.client.Search(ctx, s.config.Query, s.config.Location, page)
		if err == nil {
			return postings, nil
		}
		lastErr = err
		s.logger.Warn("search attempt failed",
			zap.Int("page", page),
			zap.Int("attempt", attempt),
			zap.Error(err))
		if attempt < s.config.MaxRetries {
			if err := s.sleep(ctx, s.config.RetryDelay); err != nil {
				return nil, err
			}
		}
	}
	return nil, lastErr
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

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
