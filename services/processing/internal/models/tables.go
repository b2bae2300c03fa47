package models

import (
	"encoding/json"
	"fmt"
	"time"

	"skilltrends/common/skills"
)

// Period is a half-open interval [Start, End).
type Period struct {
	Label string    `json:"label"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

type SkillStat struct {
	Skill      string          `json:"skill"`
	Category   skills.Category `json:"category"`
	Period     string          `json:"period"`
	Count      int             `json:"count"`
	Popularity float64         `json:"popularity"`
}

func GrowthKey(prev, cur string) string {
	return fmt.Sprintf("%s_to_%s", prev, cur)
}

type SkillTrendRow struct {
	Skill      string             `json:"skill"`
	Category   skills.Category    `json:"category"`
	Popularity map[string]float64 `json:"popularity"`
	Growth     map[string]float64 `json:"growth"`
}

// TrendTable is the pivot of popularity per skill per period plus growth
// between consecutive periods. Growth keys follow GrowthKey.
type TrendTable struct {
	Periods    []string        `json:"periods"`
	GrowthKeys []string        `json:"growth_keys"`
	Rows       []SkillTrendRow `json:"rows"`
}

func (t TrendTable) Empty() bool {
	return len(t.Rows) == 0
}

// LatestGrowthKey returns the growth key ending at the last period.
func (t TrendTable) LatestGrowthKey() (string, bool) {
	if len(t.GrowthKeys) == 0 {
		return "", false
	}
	return t.GrowthKeys[len(t.GrowthKeys)-1], true
}

func (t TrendTable) MarshalBinary() ([]byte, error) {
	return json.Marshal(t)
}

func (t *TrendTable) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, t)
}

type SkillPayRow struct {
	Skill         string          `json:"skill"`
	Category      skills.Category `json:"category"`
	AverageSalary float64         `json:"average_salary"`
	MedianSalary  float64         `json:"median_salary"`
	Premium       float64         `json:"salary_premium_pct"`
	JobCount      int             `json:"job_count"`
}

type PayTable struct {
	OverallAverage float64       `json:"overall_average"`
	Rows           []SkillPayRow `json:"rows"`
}

func (t PayTable) Empty() bool {
	return len(t.Rows) == 0
}

type CategoryPayRow struct {
	Category      skills.Category `json:"category"`
	AverageSalary float64         `json:"average_salary"`
	JobCount      int             `json:"job_count"`
	Skills        int             `json:"skills"`
}

type TopSkillRow struct {
	Skill      string          `json:"skill"`
	Category   skills.Category `json:"category"`
	Count      int             `json:"count"`
	Popularity float64         `json:"popularity"`
}

type CountShare struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type Overview struct {
	TotalJobs     int          `json:"total_jobs"`
	Companies     int          `json:"companies"`
	Countries     int          `json:"countries"`
	AverageSalary *float64     `json:"average_salary,omitempty"`
	MedianSalary  *float64     `json:"median_salary,omitempty"`
	TopCountries  []CountShare `json:"top_countries"`
	TopCompanies  []CountShare `json:"top_companies"`
	ExperienceMix []CountShare `json:"experience_mix"`
	// TopSkill is the most mentioned skill overall. TrendingSkill is the
	// most mentioned skill among records posted in the trending window
	// ending at the latest posting.
	TopSkill        *CountShare `json:"top_skill,omitempty"`
	TrendingSkill   *CountShare `json:"trending_skill,omitempty"`
	SalarySynthetic bool        `json:"salary_synthetic"`
}

type SkillValue struct {
	Skill string  `json:"skill"`
	Value float64 `json:"value"`
}

// TrendSummary highlights notable skills of a TrendTable.
type TrendSummary struct {
	FastestGrowing  *SkillValue `json:"fastest_growing,omitempty"`
	MostConsistent  *SkillValue `json:"most_consistent,omitempty"`
	HighestAdoption *SkillValue `json:"highest_adoption,omitempty"`
	MostDeclining   *SkillValue `json:"most_declining,omitempty"`
}

type CategoryTrendRow struct {
	Category   skills.Category    `json:"category"`
	Popularity map[string]float64 `json:"popularity"`
}
