package aggregator

import (
	"math"
	"sort"
	"time"

	"skilltrends/common/skills"
	"skilltrends/services/processing/internal/models"
)

// TopSkills ranks skills by the number of records mentioning them. Skills
// mentioned fewer than TopMinCount times are left out. limit <= 0 keeps all.
func (a *Aggregator) TopSkills(ds models.Dataset, limit int) []models.TopSkillRow {
	if len(ds.Records) == 0 {
		return nil
	}

	sets := make([][]string, len(ds.Records))
	for i, r := range ds.Records {
		sets[i] = r.Skills
	}

	total := float64(len(ds.Records))
	var out []models.TopSkillRow
	for _, sc := range countSkills(sets) {
		if sc.count < a.opts.TopMinCount {
			break
		}
		out = append(out, models.TopSkillRow{
			Skill:      sc.skill,
			Category:   a.classifier.Classify(sc.skill),
			Count:      sc.count,
			Popularity: float64(sc.count) / total * 100,
		})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// Summarize picks out the highlight skills of a trend table. Ties go to the
// skill listed first.
func Summarize(t models.TrendTable) models.TrendSummary {
	var sum models.TrendSummary
	if t.Empty() {
		return sum
	}

	if key, ok := t.LatestGrowthKey(); ok {
		for _, r := range t.Rows {
			g := r.Growth[key]
			if sum.FastestGrowing == nil || g > sum.FastestGrowing.Value {
				sum.FastestGrowing = &models.SkillValue{Skill: r.Skill, Value: g}
			}
			if g < 0 && (sum.MostDeclining == nil || g < sum.MostDeclining.Value) {
				sum.MostDeclining = &models.SkillValue{Skill: r.Skill, Value: g}
			}
		}
	}

	if len(t.GrowthKeys) >= 2 {
		for _, r := range t.Rows {
			growth := make([]float64, 0, len(t.GrowthKeys))
			for _, k := range t.GrowthKeys {
				growth = append(growth, r.Growth[k])
			}
			sd := sampleStdDev(growth)
			if math.IsNaN(sd) {
				continue
			}
			if sum.MostConsistent == nil || sd < sum.MostConsistent.Value {
				sum.MostConsistent = &models.SkillValue{Skill: r.Skill, Value: sd}
			}
		}
	}

	if len(t.Periods) > 0 {
		latest := t.Periods[len(t.Periods)-1]
		for _, r := range t.Rows {
			v := r.Popularity[latest]
			if sum.HighestAdoption == nil || v > sum.HighestAdoption.Value {
				sum.HighestAdoption = &models.SkillValue{Skill: r.Skill, Value: v}
			}
		}
	}

	return sum
}

// CategoryComparison averages popularity per category for each period,
// ordered by category name.
func CategoryComparison(t models.TrendTable) []models.CategoryTrendRow {
	rowsByCat := make(map[skills.Category][]models.SkillTrendRow)
	for _, r := range t.Rows {
		rowsByCat[r.Category] = append(rowsByCat[r.Category], r)
	}

	out := make([]models.CategoryTrendRow, 0, len(rowsByCat))
	for cat, rows := range rowsByCat {
		row := models.CategoryTrendRow{Category: cat, Popularity: make(map[string]float64, len(t.Periods))}
		for _, p := range t.Periods {
			vals := make([]float64, len(rows))
			for i, r := range rows {
				vals[i] = r.Popularity[p]
			}
			row.Popularity[p] = mean(vals)
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

const (
	overviewTopN   = 10
	trendingWindow = 90 * 24 * time.Hour
)

// Overview summarizes the dataset as a whole.
func (a *Aggregator) Overview(ds models.Dataset) models.Overview {
	ov := models.Overview{
		TotalJobs:       len(ds.Records),
		SalarySynthetic: ds.Schema.SalarySynthesized,
	}

	countries := make(map[string]int)
	companies := make(map[string]int)
	levels := make(map[string]int)
	var pay []float64
	var latest time.Time
	all := make([][]string, len(ds.Records))
	for i, r := range ds.Records {
		all[i] = r.Skills
		if r.PostedAt != nil && r.PostedAt.After(latest) {
			latest = *r.PostedAt
		}
		if r.Country != "" {
			countries[r.Country]++
		}
		if r.Company != "" {
			companies[r.Company]++
		}
		if r.ExperienceLevel != "" {
			levels[r.ExperienceLevel]++
		}
		if r.Salary != nil {
			pay = append(pay, *r.Salary)
		}
	}

	ov.Countries = len(countries)
	ov.Companies = len(companies)
	ov.TopCountries = rank(countries, overviewTopN)
	ov.TopCompanies = rank(companies, overviewTopN)
	ov.ExperienceMix = rank(levels, 0)
	if len(pay) > 0 {
		m, md := mean(pay), median(pay)
		ov.AverageSalary = &m
		ov.MedianSalary = &md
	}

	ov.TopSkill = mostMentioned(all)
	if !latest.IsZero() {
		cutoff := latest.Add(-trendingWindow)
		var recent [][]string
		for _, r := range ds.Records {
			if r.PostedAt != nil && !r.PostedAt.Before(cutoff) {
				recent = append(recent, r.Skills)
			}
		}
		ov.TrendingSkill = mostMentioned(recent)
	}
	return ov
}

func mostMentioned(sets [][]string) *models.CountShare {
	counts := countSkills(sets)
	if len(counts) == 0 {
		return nil
	}
	return &models.CountShare{Name: counts[0].skill, Count: counts[0].count}
}

func rank(counts map[string]int, limit int) []models.CountShare {
	out := make([]models.CountShare, 0, len(counts))
	for name, c := range counts {
		out = append(out, models.CountShare{Name: name, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
