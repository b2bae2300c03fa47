package source

import (
	"context"
	"strconv"
	"strings"
	"sync"

	domainerrors "skilltrends/common/errors"
	"skilltrends/services/processing/internal/models"
)

var scrapeColumns = []string{
	"job_id", "title", "company_name", "location", "description", "salary", "skills", "via", "work_from_home", "date_time",
}

// ScrapeSource serves the latest batch published by the ingestion service.
// Replace swaps the whole snapshot so a Fetch never sees a partial batch.
type ScrapeSource struct {
	mu       sync.RWMutex
	postings []models.ScrapedPosting
	version  int
}

func NewScrapeSource() *ScrapeSource {
	return &ScrapeSource{}
}

func (s *ScrapeSource) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return "scrape:v" + strconv.Itoa(s.version)
}

// Replace installs a new snapshot and returns its version.
func (s *ScrapeSource) Replace(postings []models.ScrapedPosting) int {
	snapshot := append([]models.ScrapedPosting(nil), postings...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.postings = snapshot
	s.version++
	return s.version
}

func (s *ScrapeSource) Fetch(_ context.Context, maxRows int) (models.RawTable, error) {
	s.mu.RLock()
	postings := s.postings
	s.mu.RUnlock()

	if len(postings) == 0 {
		return models.RawTable{}, domainerrors.SourceUnavailable("no scraped postings received yet", nil)
	}
	if maxRows > 0 && len(postings) > maxRows {
		postings = postings[:maxRows]
	}

	table := models.RawTable{Columns: scrapeColumns}
	for _, p := range postings {
		table.Rows = append(table.Rows, map[string]string{
			"job_id":         p.ID,
			"title":          p.Title,
			"company_name":   p.Company,
			"location":       p.Location,
			"description":    p.Description,
			"salary":         p.Salary,
			"skills":         "[" + strings.Join(p.Skills, ", ") + "]",
			"via":            p.Via,
			"work_from_home": strconv.FormatBool(p.WorkFromHome),
			"date_time":      formatTime(p.PostedAt),
		})
	}
	return table, nil
}
