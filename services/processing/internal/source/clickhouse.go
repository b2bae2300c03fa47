package source

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	domainerrors "skilltrends/common/errors"
	"skilltrends/services/processing/internal/models"

	"github.com/ClickHouse/clickhouse-go/v2"
	"go.uber.org/zap"
)

var clickHouseColumns = []string{
	"job_id", "title", "company_name", "location", "via", "description",
	"description_tokens", "schedule_type", "country", "experience_level",
	"salary_yearly", "salary_min", "salary_max", "date_time",
}

// ClickHouseSource reads ingested postings from the job_postings table.
type ClickHouseSource struct {
	conn   clickhouse.Conn
	table  string
	logger *zap.Logger
}

func NewClickHouseSource(conn clickhouse.Conn, table string, logger *zap.Logger) *ClickHouseSource {
	return &ClickHouseSource{conn: conn, table: table, logger: logger}
}

func (s *ClickHouseSource) ID() string {
	return "clickhouse:" + s.table
}

type postingRow struct {
	JobID           string
	Title           string
	Company         string
	Location        string
	Via             string
	Description     string
	Tokens          []string
	ScheduleType    string
	Country         string
	ExperienceLevel string
	SalaryYearly    *float64
	SalaryMin       *float64
	SalaryMax       *float64
	PostedAt        *time.Time
}

func (s *ClickHouseSource) Fetch(ctx context.Context, maxRows int) (models.RawTable, error) {
	query := fmt.Sprintf(`
		SELECT
			job_id, title, company_name, location, via, description,
			description_tokens, schedule_type, country, experience_level,
			salary_yearly, salary_min, salary_max, posted_at
		FROM %s FINAL
		ORDER BY posted_at`, s.table)
	var args []interface{}
	if maxRows > 0 {
		query += " LIMIT ?"
		args = append(args, maxRows)
	}

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return models.RawTable{}, domainerrors.SourceUnavailable("query job postings", err)
	}
	defer rows.Close()

	table := models.RawTable{Columns: clickHouseColumns}
	for rows.Next() {
		var r postingRow
		if err := rows.Scan(
			&r.JobID, &r.Title, &r.Company, &r.Location, &r.Via, &r.Description,
			&r.Tokens, &r.ScheduleType, &r.Country, &r.ExperienceLevel,
			&r.SalaryYearly, &r.SalaryMin, &r.SalaryMax, &r.PostedAt,
		); err != nil {
			return models.RawTable{}, domainerrors.SourceUnavailable("scan job posting row", err)
		}
		table.Rows = append(table.Rows, r.raw())
	}
	if err := rows.Err(); err != nil {
		return models.RawTable{}, domainerrors.SourceUnavailable("iterate job posting rows", err)
	}

	s.logger.Debug("Read job postings from ClickHouse",
		zap.String("table", s.table),
		zap.Int("rows", len(table.Rows)),
	)
	return table, nil
}

func (r postingRow) raw() map[string]string {
	return map[string]string{
		"job_id":             r.JobID,
		"title":              r.Title,
		"company_name":       r.Company,
		"location":           r.Location,
		"via":                r.Via,
		"description":        r.Description,
		"description_tokens": "[" + strings.Join(r.Tokens, ", ") + "]",
		"schedule_type":      r.ScheduleType,
		"country":            r.Country,
		"experience_level":   r.ExperienceLevel,
		"salary_yearly":      formatFloat(r.SalaryYearly),
		"salary_min":         formatFloat(r.SalaryMin),
		"salary_max":         formatFloat(r.SalaryMax),
		"date_time":          formatTime(r.PostedAt),
	}
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
