// Package synthetic produces deterministic stand-in data with the same shape
// as the real aggregates. It backs every view when no real data is usable.
package synthetic

import (
	"math/rand"
	"sort"
	"strconv"
	"time"

	"skilltrends/common/skills"
	"skilltrends/services/processing/internal/aggregator"
	"skilltrends/services/processing/internal/models"

	"github.com/google/uuid"
)

const (
	DefaultSeed = 42

	payReferenceSalary = 110000
	DefaultRecordCount = 100
)

var trendSkills = []string{
	"python", "sql", "excel", "data analysis", "machine learning",
	"tableau", "power bi", "r", "aws", "azure", "javascript",
	"java", "c++", "project management", "communication",
}

var trendCategories = map[string]skills.Category{
	"python":             skills.CategoryProgramming,
	"sql":                skills.CategoryData,
	"excel":              skills.CategoryOffice,
	"data analysis":      skills.CategoryData,
	"machine learning":   skills.CategoryAI,
	"tableau":            skills.CategoryVisualization,
	"power bi":           skills.CategoryVisualization,
	"r":                  skills.CategoryProgramming,
	"aws":                skills.CategoryCloud,
	"azure":              skills.CategoryCloud,
	"javascript":         skills.CategoryProgramming,
	"java":               skills.CategoryProgramming,
	"c++":                skills.CategoryProgramming,
	"project management": skills.CategoryUnknown,
	"communication":      skills.CategoryUnknown,
}

var TrendPeriods = []string{
	"2022-Q1", "2022-Q2", "2022-Q3", "2022-Q4", "2023-Q1",
	"2023-Q2", "2024-Q1", "2024-Q2", "2025-Q1",
}

var paySkills = []string{
	"python", "sql", "java", "javascript", "aws", "azure", "machine learning",
	"docker", "kubernetes", "excel", "tableau", "power bi", "go", "c++", "scala",
	"r", "hadoop", "spark", "kafka", "airflow", "tensorflow", "pytorch", "react",
	"angular", "vue.js", "node.js", "git", "linux", "nosql", "mongodb",
}

var payCategories = map[string]skills.Category{
	"python": skills.CategoryProgramming, "sql": skills.CategoryData, "java": skills.CategoryProgramming,
	"javascript": skills.CategoryProgramming, "aws": skills.CategoryCloud, "azure": skills.CategoryCloud,
	"machine learning": skills.CategoryAI, "docker": skills.CategoryDevOps, "kubernetes": skills.CategoryDevOps,
	"excel": skills.CategoryOffice, "tableau": skills.CategoryVisualization, "power bi": skills.CategoryVisualization,
	"go": skills.CategoryProgramming, "c++": skills.CategoryProgramming, "scala": skills.CategoryProgramming,
	"r": skills.CategoryProgramming, "hadoop": skills.CategoryData, "spark": skills.CategoryData,
	"kafka": skills.CategoryData, "airflow": skills.CategoryDevOps, "tensorflow": skills.CategoryAI,
	"pytorch": skills.CategoryAI, "react": skills.CategoryWebDevelopment, "angular": skills.CategoryWebDevelopment,
	"vue.js": skills.CategoryWebDevelopment, "node.js": skills.CategoryProgramming,
	"git": skills.CategoryDevOps, "linux": skills.CategoryDevOps, "nosql": skills.CategoryData, "mongodb": skills.CategoryData,
}

var categoryBaseSalary = map[skills.Category]float64{
	skills.CategoryProgramming:    120000,
	skills.CategoryData:           125000,
	skills.CategoryCloud:          130000,
	skills.CategoryAI:             150000,
	skills.CategoryWebDevelopment: 115000,
	skills.CategoryDevOps:         135000,
	skills.CategoryOffice:         95000,
	skills.CategoryVisualization:  110000,
	skills.CategoryUnknown:        100000,
}

type archetype int

const (
	rising archetype = iota
	stable
	falling
)

type Generator struct {
	seed        int64
	growthFloor float64
}

func New(seed int64, growthFloor float64) *Generator {
	if growthFloor <= 0 {
		growthFloor = aggregator.DefaultGrowthFloor
	}
	return &Generator{seed: seed, growthFloor: growthFloor}
}

func (g *Generator) rng() *rand.Rand {
	return rand.New(rand.NewSource(g.seed))
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// Trends returns a trend table over TrendPeriods. Every call with the same
// seed returns the same table.
func (g *Generator) Trends() models.TrendTable {
	rng := g.rng()

	table := models.TrendTable{Periods: append([]string(nil), TrendPeriods...)}
	for i := 1; i < len(TrendPeriods); i++ {
		table.GrowthKeys = append(table.GrowthKeys, models.GrowthKey(TrendPeriods[i-1], TrendPeriods[i]))
	}

	for _, skill := range trendSkills {
		base := uniform(rng, 10, 50)
		kind := archetype(rng.Intn(3))

		row := models.SkillTrendRow{
			Skill:      skill,
			Category:   trendCategories[skill],
			Popularity: make(map[string]float64, len(TrendPeriods)),
			Growth:     make(map[string]float64, len(table.GrowthKeys)),
		}
		for i, period := range TrendPeriods {
			var v float64
			switch kind {
			case rising:
				v = base + float64(i)*uniform(rng, 2, 5)
			case stable:
				v = base + uniform(rng, -3, 3)
			default:
				v = base - float64(i)*uniform(rng, 1, 3)
			}
			v += uniform(rng, -2, 2)
			if v < 0 {
				v = 0
			}
			row.Popularity[period] = v
		}
		for i := 1; i < len(TrendPeriods); i++ {
			prev, cur := TrendPeriods[i-1], TrendPeriods[i]
			row.Growth[models.GrowthKey(prev, cur)] = aggregator.Growth(row.Popularity[prev], row.Popularity[cur], g.growthFloor)
		}
		table.Rows = append(table.Rows, row)
	}

	sort.Slice(table.Rows, func(i, j int) bool { return table.Rows[i].Skill < table.Rows[j].Skill })
	return table
}

// PayTable returns a skill-vs-pay table built from fixed category base
// salaries plus per-skill noise.
func (g *Generator) PayTable() models.PayTable {
	rng := g.rng()

	table := models.PayTable{OverallAverage: payReferenceSalary}
	for _, skill := range paySkills {
		category, ok := payCategories[skill]
		if !ok {
			category = skills.CategoryUnknown
		}
		avg := categoryBaseSalary[category] + rng.NormFloat64()*15000
		med := avg + rng.NormFloat64()*5000
		jobs := 50 + rng.Intn(950)

		table.Rows = append(table.Rows, models.SkillPayRow{
			Skill:         skill,
			Category:      category,
			AverageSalary: avg,
			MedianSalary:  med,
			Premium:       (avg/payReferenceSalary - 1) * 100,
			JobCount:      jobs,
		})
	}
	return table
}

var (
	recordSkills        = []string{"python", "sql", "r", "excel", "power_bi", "tableau", "sas", "java", "js"}
	recordPlatforms     = []string{"LinkedIn", "Indeed", "Glassdoor", "Monster"}
	recordScheduleTypes = []string{"Full-time", "Part-time", "Contract", "Temporary"}
	recordCountries     = []string{
		"United States", "United Kingdom", "Canada", "Australia", "Germany",
		"France", "India", "Singapore", "Netherlands", "Switzerland",
	}
	recordLevels = []string{"Entry Level", "Mid Level", "Senior Level", "Executive"}

	levelPay = map[string][2]float64{
		"Entry Level":  {60000, 10000},
		"Mid Level":    {90000, 15000},
		"Senior Level": {130000, 20000},
		"Executive":    {180000, 30000},
	}
)

var syntheticNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

const SourceID = "synthetic"

// Records returns n job records dated within 2023. It stands in for a
// source that could not be read.
func (g *Generator) Records(n int) models.Dataset {
	if n <= 0 {
		n = DefaultRecordCount
	}
	rng := g.rng()

	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	days := int(time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC).Sub(start).Hours() / 24)

	records := make([]models.JobRecord, 0, n)
	for i := 0; i < n; i++ {
		level := recordLevels[rng.Intn(len(recordLevels))]
		pay := levelPay[level]
		salary := pay[0] + rng.NormFloat64()*pay[1]
		lo, hi := salary*0.8, salary*1.2
		posted := start.AddDate(0, 0, rng.Intn(days))

		k := 5 + rng.Intn(10)
		if k > len(recordSkills) {
			k = len(recordSkills)
		}
		perm := rng.Perm(len(recordSkills))
		picked := make([]string, 0, k)
		for _, idx := range perm[:k] {
			picked = append(picked, recordSkills[idx])
		}
		sort.Strings(picked)

		records = append(records, models.JobRecord{
			ID:              uuid.NewSHA1(syntheticNamespace, []byte(SourceID+"#"+strconv.Itoa(i))).String(),
			Title:           "Data Analyst",
			Country:         recordCountries[rng.Intn(len(recordCountries))],
			Via:             recordPlatforms[rng.Intn(len(recordPlatforms))],
			ScheduleType:    recordScheduleTypes[rng.Intn(len(recordScheduleTypes))],
			ExperienceLevel: level,
			PostedAt:        &posted,
			Salary:          &salary,
			SalaryMin:       &lo,
			SalaryMax:       &hi,
			Skills:          picked,
			Source:          SourceID,
		})
	}

	return models.Dataset{
		Source:  SourceID,
		Records: records,
		Schema: models.SchemaInfo{
			HasSkills:        true,
			SkillsFromTokens: true,
			HasSalary:        true,
			TimestampColumn:  "date_time",
		},
		LoadedAt: start,
	}
}
