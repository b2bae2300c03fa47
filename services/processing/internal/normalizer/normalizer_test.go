package normalizer

import (
	"testing"
	"time"

	"skilltrends/common/skills"
	"skilltrends/services/processing/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newNormalizer() *Normalizer {
	return New(skills.NewExtractor(skills.DefaultRules()), 42, zap.NewNop())
}

func fullTable() models.RawTable {
	return models.RawTable{
		Columns: []string{"unnamed: 0", "index", "job_id", "title", "company_name", "location", "description",
			"date_time", "description_tokens", "salary_yearly", "country", "experience_level"},
		Rows: []map[string]string{
			{
				"unnamed: 0": "0", "index": "0", "job_id": "abc", "title": "Data Analyst",
				"company_name": "Acme", "location": "Austin, TX", "description": "SQL and Python",
				"date_time": "2022-11-04 03:40:11.565444", "description_tokens": "['sql', 'python', 'sql']",
				"salary_yearly": "90000", "country": "USA", "experience_level": "Mid Level",
			},
			{
				"job_id": "def", "title": "Analyst", "date_time": "not a date",
				"description_tokens": "[]", "salary_yearly": "$50K - $70K a year", "country": "Germany",
				"experience_level": "Entry Level",
			},
			{
				"job_id": "ghi", "title": "Engineer", "date_time": "2023-03-01",
				"description_tokens": "[excel]", "salary_yearly": "", "country": "France",
				"experience_level": "Senior Level",
			},
		},
	}
}

func TestNormalizeFullSchema(t *testing.T) {
	ds := newNormalizer().Normalize("file:jobs.csv", fullTable(), 0)
	require.Len(t, ds.Records, 3)

	assert.True(t, ds.Schema.HasSkills)
	assert.True(t, ds.Schema.SkillsFromTokens)
	assert.True(t, ds.Schema.HasSalary)
	assert.False(t, ds.Schema.SalarySynthesized)
	assert.Equal(t, "date_time", ds.Schema.TimestampColumn)

	first := ds.Records[0]
	assert.Equal(t, []string{"python", "sql"}, first.Skills)
	assert.Equal(t, "United States", first.Country)
	assert.Equal(t, "Acme", first.Company)
	require.NotNil(t, first.PostedAt)
	assert.Equal(t, time.Date(2022, 11, 4, 3, 40, 11, 565444000, time.UTC), *first.PostedAt)
	require.NotNil(t, first.Salary)
	assert.Equal(t, 90000.0, *first.Salary)
	assert.InDelta(t, 72000.0, *first.SalaryMin, 1e-6)
	assert.InDelta(t, 108000.0, *first.SalaryMax, 1e-6)

	second := ds.Records[1]
	assert.Nil(t, second.PostedAt, "unparsable date is nulled, row kept")
	assert.Equal(t, []string{}, second.Skills)
	require.NotNil(t, second.Salary)
	assert.Equal(t, 60000.0, *second.Salary)

	third := ds.Records[2]
	assert.Nil(t, third.Salary)
	assert.Nil(t, third.SalaryMin)
}

func TestNormalizeFillsBlankCountryAndExperience(t *testing.T) {
	table := models.RawTable{
		Columns: []string{"title", "location", "country", "experience_level"},
		Rows: []map[string]string{
			{"title": "Senior Analyst", "location": "Berlin, Germany", "country": "", "experience_level": ""},
			{"title": "Analyst", "location": "", "country": "  ", "experience_level": " "},
		},
	}

	ds := newNormalizer().Normalize("file:jobs.csv", table, 0)
	require.Len(t, ds.Records, 2)

	assert.Equal(t, "Germany", ds.Records[0].Country)
	assert.Equal(t, "Senior Level", ds.Records[0].ExperienceLevel)

	second := ds.Records[1]
	assert.Contains(t, Countries, second.Country)
	assert.Contains(t, ExperienceLevels, second.ExperienceLevel)
}

func TestNormalizeTruncatesAndIDsAreStable(t *testing.T) {
	n := newNormalizer()
	a := n.Normalize("s", fullTable(), 2)
	b := n.Normalize("s", fullTable(), 2)

	require.Len(t, a.Records, 2)
	assert.Equal(t, a.Records[0].ID, b.Records[0].ID)
	assert.NotEqual(t, a.Records[0].ID, a.Records[1].ID)
}

func TestNormalizeSynthesizesMissingColumns(t *testing.T) {
	table := models.RawTable{
		Columns: []string{"title", "description", "location"},
		Rows: []map[string]string{
			{"title": "Senior Data Engineer", "description": "We use Python and AWS", "location": "London, UK"},
			{"title": "Analyst", "description": "Excel reporting", "location": "Somewhere"},
		},
	}

	n := newNormalizer()
	ds := n.Normalize("s", table, 0)
	require.Len(t, ds.Records, 2)

	assert.True(t, ds.Schema.SalarySynthesized)
	assert.False(t, ds.Schema.HasSalary)
	assert.True(t, ds.Schema.CountrySynthesized)
	assert.True(t, ds.Schema.ExperienceSynthesized)
	assert.False(t, ds.Schema.SkillsFromTokens)
	assert.True(t, ds.Schema.HasSkills)
	assert.Empty(t, ds.Schema.TimestampColumn)

	first := ds.Records[0]
	assert.Equal(t, []string{"aws", "python"}, first.Skills)
	assert.Equal(t, "United Kingdom", first.Country)
	assert.Equal(t, "Senior Level", first.ExperienceLevel)
	require.NotNil(t, first.Salary)
	assert.InDelta(t, *first.Salary*0.8, *first.SalaryMin, 1e-6)
	assert.InDelta(t, *first.Salary*1.2, *first.SalaryMax, 1e-6)

	second := ds.Records[1]
	assert.Contains(t, Countries, second.Country)
	assert.Contains(t, ExperienceLevels, second.ExperienceLevel)

	again := n.Normalize("s", table, 0)
	assert.Equal(t, *ds.Records[0].Salary, *again.Records[0].Salary)
	assert.Equal(t, second.Country, again.Records[1].Country)
}

func TestNormalizeStripsApostrophes(t *testing.T) {
	table := models.RawTable{
		Columns: []string{"title", "description_tokens"},
		Rows:    []map[string]string{{"title": "Analyst's role", "description_tokens": "['r']"}},
	}
	ds := newNormalizer().Normalize("s", table, 0)
	assert.Equal(t, "Analysts role", ds.Records[0].Title)
	assert.Equal(t, []string{"r"}, ds.Records[0].Skills)
}

func TestParseTokens(t *testing.T) {
	assert.Equal(t, []string{"python", "sql"}, ParseTokens("[sql, python ,  sql]"))
	assert.Equal(t, []string{"power bi"}, ParseTokens(`["Power BI"]`))
	assert.Equal(t, []string{}, ParseTokens("[]"))
	assert.Equal(t, []string{}, ParseTokens(""))
}

func TestInference(t *testing.T) {
	c, ok := InferCountry("Kansas City, MO")
	assert.True(t, ok)
	assert.Equal(t, "United States", c)

	c, ok = InferCountry("Berlin, Germany")
	assert.True(t, ok)
	assert.Equal(t, "Germany", c)

	_, ok = InferCountry("Anywhere")
	assert.False(t, ok)

	assert.Equal(t, "United Kingdom", CanonicalCountry(" uk "))
	assert.Equal(t, "Brazil", CanonicalCountry("Brazil"))

	lvl, ok := InferExperienceLevel("Sr. Data Scientist")
	assert.True(t, ok)
	assert.Equal(t, "Senior Level", lvl)

	lvl, _ = InferExperienceLevel("Director of Analytics")
	assert.Equal(t, "Executive", lvl)

	_, ok = InferExperienceLevel("Data Scientist with leadership skills")
	assert.False(t, ok)
}
