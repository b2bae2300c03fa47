// Package normalizer converts a RawTable of unpredictable shape into a
// Dataset of JobRecords. Missing optional columns are synthesized from a
// seeded source so a given input always normalizes to the same output.
package normalizer

import (
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"time"

	"skilltrends/common/salary"
	"skilltrends/common/skills"
	"skilltrends/services/processing/internal/models"

	"github.com/araddon/dateparse"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	syntheticSalaryMean   = 80000
	syntheticSalaryStdDev = 20000
	salaryMinFactor       = 0.8
	salaryMaxFactor       = 1.2
)

var (
	timestampColumns = []string{"date_time", "posted_at", "date"}
	salaryColumns    = []string{"salary_yearly", "salary_standardized", "salary_avg", "salary"}
	tokenColumns     = []string{"description_tokens", "skills"}
	junkColumns      = map[string]bool{"unnamed: 0": true, "index": true, "": true}

	Countries = []string{
		"United States", "United Kingdom", "Canada", "Australia", "Germany",
		"France", "India", "Singapore", "Netherlands", "Switzerland",
	}

	ExperienceLevels = []string{"Entry Level", "Mid Level", "Senior Level", "Executive"}
)

var recordNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

type Normalizer struct {
	extractor *skills.Extractor
	seed      int64
	logger    *zap.Logger
}

func New(extractor *skills.Extractor, seed int64, logger *zap.Logger) *Normalizer {
	return &Normalizer{
		extractor: extractor,
		seed:      seed,
		logger:    logger,
	}
}

// Normalize never fails: malformed cells become nil fields and absent
// columns are synthesized. maxRows <= 0 keeps every row.
func (n *Normalizer) Normalize(source string, table models.RawTable, maxRows int) models.Dataset {
	rows := table.Rows
	if maxRows > 0 && len(rows) > maxRows {
		rows = rows[:maxRows]
	}

	columns := make([]string, 0, len(table.Columns))
	for _, c := range table.Columns {
		if junkColumns[c] {
			continue
		}
		columns = append(columns, c)
	}
	present := models.RawTable{Columns: columns}

	tsCol := firstPresent(present, timestampColumns)
	salaryCol := firstPresent(present, salaryColumns)
	tokenCol := firstPresent(present, tokenColumns)
	hasCountry := present.HasColumn("country")
	hasExperience := present.HasColumn("experience_level")

	schema := models.SchemaInfo{
		HasSkills:             tokenCol != "" || present.HasColumn("description"),
		SkillsFromTokens:      tokenCol != "",
		HasSalary:             salaryCol != "",
		SalarySynthesized:     salaryCol == "",
		CountrySynthesized:    !hasCountry,
		ExperienceSynthesized: !hasExperience,
		TimestampColumn:       tsCol,
	}

	rng := rand.New(rand.NewSource(n.seed))
	records := make([]models.JobRecord, 0, len(rows))
	malformedDates, malformedSalaries := 0, 0

	for i, raw := range rows {
		row := cleanRow(raw)

		rec := models.JobRecord{
			Title:        row["title"],
			Description:  row["description"],
			Company:      firstNonEmpty(row["company_name"], row["company"]),
			Location:     row["location"],
			Via:          row["via"],
			ScheduleType: row["schedule_type"],
			Source:       source,
		}
		rec.ID = recordID(source, row["job_id"], i)

		if tsCol != "" && row[tsCol] != "" {
			if ts, err := dateparse.ParseAny(row[tsCol]); err == nil {
				ts = ts.UTC()
				rec.PostedAt = &ts
			} else {
				malformedDates++
			}
		}

		if tokenCol != "" {
			rec.Skills = ParseTokens(row[tokenCol])
		} else {
			rec.Skills = n.extractor.Extract(rec.Title + " " + rec.Description)
		}

		if salaryCol != "" {
			rec.Salary = parseSalary(row[salaryCol])
			if rec.Salary == nil && row[salaryCol] != "" {
				malformedSalaries++
			}
		} else {
			v := rng.NormFloat64()*syntheticSalaryStdDev + syntheticSalaryMean
			rec.Salary = &v
		}
		rec.SalaryMin = parseSalary(row["salary_min"])
		rec.SalaryMax = parseSalary(row["salary_max"])
		if rec.Salary != nil {
			if rec.SalaryMin == nil {
				rec.SalaryMin = scaled(*rec.Salary, salaryMinFactor)
			}
			if rec.SalaryMax == nil {
				rec.SalaryMax = scaled(*rec.Salary, salaryMaxFactor)
			}
		}

		if hasCountry {
			rec.Country = CanonicalCountry(row["country"])
		}
		if rec.Country == "" {
			if c, ok := InferCountry(rec.Location); ok {
				rec.Country = c
			} else {
				rec.Country = Countries[rng.Intn(len(Countries))]
			}
		}

		if hasExperience {
			rec.ExperienceLevel = strings.TrimSpace(row["experience_level"])
		}
		if rec.ExperienceLevel == "" {
			if lvl, ok := InferExperienceLevel(rec.Title + " " + rec.Description); ok {
				rec.ExperienceLevel = lvl
			} else {
				rec.ExperienceLevel = ExperienceLevels[rng.Intn(len(ExperienceLevels))]
			}
		}

		records = append(records, rec)
	}

	n.logger.Info("Normalized dataset",
		zap.String("source", source),
		zap.Int("rows", len(records)),
		zap.String("timestamp_column", tsCol),
		zap.String("salary_column", salaryCol),
		zap.Bool("skills_from_tokens", schema.SkillsFromTokens),
		zap.Int("malformed_dates", malformedDates),
		zap.Int("malformed_salaries", malformedSalaries),
	)

	return models.Dataset{
		Source:   source,
		Records:  records,
		Schema:   schema,
		LoadedAt: time.Now().UTC(),
	}
}

// ParseTokens splits a bracketed, comma-joined token list such as
// "[python, sql]" into sorted, deduplicated lowercase tokens.
func ParseTokens(cell string) []string {
	cell = strings.TrimSpace(cell)
	cell = strings.TrimPrefix(cell, "[")
	cell = strings.TrimSuffix(cell, "]")

	out := []string{}
	seen := make(map[string]bool)
	for _, part := range strings.Split(cell, ",") {
		tok := strings.ToLower(strings.Trim(part, " \t\"'"))
		if tok == "" || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	sort.Strings(out)
	return out
}

func cleanRow(raw map[string]string) map[string]string {
	row := make(map[string]string, len(raw))
	for k, v := range raw {
		row[k] = strings.TrimSpace(strings.ReplaceAll(v, "'", ""))
	}
	return row
}

func parseSalary(cell string) *float64 {
	if cell == "" {
		return nil
	}
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(cell)
	if v, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return &v
	}
	if r, ok := salary.Parse(cell); ok {
		v := r.Midpoint()
		return &v
	}
	return nil
}

func scaled(v, factor float64) *float64 {
	s := v * factor
	return &s
}

func recordID(source, jobID string, index int) string {
	key := jobID
	if key == "" {
		key = source + "#" + strconv.Itoa(index)
	}
	return uuid.NewSHA1(recordNamespace, []byte(key)).String()
}

func firstPresent(table models.RawTable, candidates []string) string {
	for _, c := range candidates {
		if table.HasColumn(c) {
			return c
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
