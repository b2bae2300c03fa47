package models

import (
	"encoding/json"
	"time"
)

// RawTable is a row-oriented source with unpredictable column presence.
// Column names are lowercased and trimmed.
type RawTable struct {
	Columns []string
	Rows    []map[string]string
}

func (t RawTable) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

type JobRecord struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Company         string     `json:"company"`
	Location        string     `json:"location"`
	Country         string     `json:"country"`
	Via             string     `json:"via,omitempty"`
	ScheduleType    string     `json:"schedule_type,omitempty"`
	ExperienceLevel string     `json:"experience_level"`
	PostedAt        *time.Time `json:"posted_at,omitempty"`
	Salary          *float64   `json:"salary,omitempty"`
	SalaryMin       *float64   `json:"salary_min,omitempty"`
	SalaryMax       *float64   `json:"salary_max,omitempty"`
	Skills          []string   `json:"skills"`
	Source          string     `json:"source"`
}

func (r JobRecord) HasSkill(skill string) bool {
	for _, s := range r.Skills {
		if s == skill {
			return true
		}
	}
	return false
}

// SchemaInfo records which fields came from the source and which were
// synthesized during normalization.
type SchemaInfo struct {
	HasSkills             bool   `json:"has_skills"`
	SkillsFromTokens      bool   `json:"skills_from_tokens"`
	HasSalary             bool   `json:"has_salary"`
	SalarySynthesized     bool   `json:"salary_synthesized"`
	CountrySynthesized    bool   `json:"country_synthesized"`
	ExperienceSynthesized bool   `json:"experience_synthesized"`
	TimestampColumn       string `json:"timestamp_column,omitempty"`
}

// Dataset is an immutable, normalized snapshot of one source load.
type Dataset struct {
	Source   string      `json:"source"`
	Records  []JobRecord `json:"records"`
	Schema   SchemaInfo  `json:"schema"`
	LoadedAt time.Time   `json:"loaded_at"`
}

func (d Dataset) MarshalBinary() ([]byte, error) {
	return json.Marshal(d)
}

func (d *Dataset) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, d)
}

// Dated returns the records carrying a timestamp.
func (d Dataset) Dated() []JobRecord {
	out := make([]JobRecord, 0, len(d.Records))
	for _, r := range d.Records {
		if r.PostedAt != nil {
			out = append(out, r)
		}
	}
	return out
}

// Filter returns a copy of the dataset holding only records accepted by keep.
func (d Dataset) Filter(keep func(JobRecord) bool) Dataset {
	out := d
	out.Records = make([]JobRecord, 0, len(d.Records))
	for _, r := range d.Records {
		if keep(r) {
			out.Records = append(out.Records, r)
		}
	}
	return out
}

// ScrapedPosting is the wire shape published by the ingestion service.
type ScrapedPosting struct {
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

// ScrapedBatch is one ingestion run.
type ScrapedBatch struct {
	Query     string           `json:"query"`
	ScrapedAt time.Time        `json:"scraped_at"`
	Postings  []ScrapedPosting `json:"postings"`
}
