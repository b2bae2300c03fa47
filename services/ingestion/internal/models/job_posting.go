package models

import (
	"encoding/json"
	"time"
)

// JobPosting is one scraped job card, already shaped for the processing
// service's scrape source.
type JobPosting struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Company      string     `json:"company"`
	Location     string     `json:"location"`
	Description  string     `json:"description"`
	Salary       string     `json:"salary,omitempty"`
	Skills       []string   `json:"skills"`
	Via          string     `json:"via,omitempty"`
	URL          string     `json:"url,omitempty"`
	WorkFromHome bool       `json:"work_from_home"`
	PostedAt     *time.Time `json:"posted_at,omitempty"`
}

// Postings is one parsed search results page. It is what the scraper caches.
type Postings []JobPosting

func (p Postings) MarshalBinary() ([]byte, error) {
	return json.Marshal(p)
}

func (p *Postings) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, p)
}

// Batch is everything collected by one scheduled run.
type Batch struct {
	Query     string       `json:"query"`
	ScrapedAt time.Time    `json:"scraped_at"`
	Postings  []JobPosting `json:"postings"`
}

func (b Batch) MarshalBinary() ([]byte, error) {
	return json.Marshal(b)
}

func (b *Batch) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, b)
}
