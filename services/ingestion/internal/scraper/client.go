package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"skilltrends/common/cache"
	domainerrors "skilltrends/common/errors"
	"skilltrends/common/skills"
	"skilltrends/common/telemetry"
	"skilltrends/services/ingestion/internal/config"
	"skilltrends/services/ingestion/internal/models"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

var tracer = telemetry.GetTracer("skilltrends/ingestion/scraper")

const resultsPerPage = 10

type Client interface {
	// Search returns the postings on one results page. page is zero based.
	Search(ctx context.Context, query, location string, page int) (models.Postings, error)
}

type boardClient struct {
	client    *http.Client
	logger    *zap.Logger
	config    *config.Config
	cache     cache.Cache
	extractor *skills.Extractor
	now       func() time.Time
}

func NewClient(logger *zap.Logger, config *config.Config, c cache.Cache, extractor *skills.Extractor) Client {
	return &boardClient{
		client: &http.Client{
			Timeout: config.HTTPTimeout,
		},
		logger:    logger,
		config:    config,
		cache:     c,
		extractor: extractor,
		now:       time.Now,
	}
}

func (c *boardClient) searchURL(query, location string, page int) string {
	params := url.Values{}
	params.Set("q", fmt.Sprintf("%s jobs in %s", query, location))
	params.Set("ibp", "htl;jobs")
	params.Set("tbm", "jobs")
	params.Set("start", strconv.Itoa(page*resultsPerPage))
	return c.config.BoardURL + "?" + params.Encode()
}

func (c *boardClient) Search(ctx context.Context, query, location string, page int) (models.Postings, error) {
	ctx, span := tracer.Start(ctx, "Search")
	defer span.End()
	span.SetAttributes(
		telemetry.String("search.query", query),
		telemetry.String("search.location", location),
		telemetry.Int("search.page", page),
	)

	cacheKey := fmt.Sprintf("board:search:%s:%s:%d", query, location, page)

	var cached models.Postings
	err := c.cache.Get(ctx, cacheKey, &cached)
	if err == nil {
		span.SetAttributes(telemetry.String("cache.result", "hit"))
		c.logger.Debug("cache hit for search page", zap.String("key", cacheKey))
		return cached, nil
	} else if !errors.Is(err, cache.ErrNotFound) {
		span.SetAttributes(telemetry.String("cache.result", "error"))
		span.RecordError(err)
		c.logger.Warn("cache error for search page", zap.Error(err))
	} else {
		span.SetAttributes(telemetry.String("cache.result", "miss"))
	}

	u := c.searchURL(query, location, page)
	c.logger.Debug("cache miss, fetching search page", zap.String("url", u))
	span.SetAttributes(telemetry.String("http.url", u))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		span.RecordError(err)
		return nil, domainerrors.Internal("creating request", err)
	}
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := c.client.Do(req)
	if err != nil {
		span.RecordError(err)
		c.logger.Error("failed to execute request", zap.Error(err))
		return nil, domainerrors.SourceUnavailable("executing request", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("failed to close response body", zap.Error(cerr))
		}
	}()

	span.SetAttributes(
		telemetry.Int("http.status_code", resp.StatusCode),
		telemetry.String("http.method", http.MethodGet),
	)

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("unexpected status code", zap.Int("status_code", resp.StatusCode))
		return nil, domainerrors.SourceUnavailable(fmt.Sprintf("unexpected status code: %d", resp.StatusCode), nil)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		span.RecordError(err)
		c.logger.Error("failed to parse response", zap.Error(err))
		return nil, domainerrors.MalformedField("parsing results page", err)
	}

	postings := models.Postings(ParseCards(doc, c.extractor, c.now()))
	span.SetAttributes(telemetry.Int("postings.count", len(postings)))
	c.logger.Debug("parsed search page",
		zap.Int("page", page),
		zap.Int("postings", len(postings)))

	if len(postings) == 0 {
		return postings, nil
	}
	if err := c.cache.Set(ctx, cacheKey, postings, c.config.CacheTTL); err != nil {
		c.logger.Warn("failed to cache search page", zap.Error(err))
	}

	return postings, nil
}
