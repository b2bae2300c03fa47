package pipeline

import (
	"sort"
	"strings"

	"skilltrends/common/skills"
	"skilltrends/services/processing/internal/models"
)

type PaySort string

const (
	SortByAverage PaySort = "average"
	SortByMedian  PaySort = "median"
	SortByPremium PaySort = "premium"
	SortByJobs    PaySort = "jobs"
	SortBySkill   PaySort = "skill"
)

// Query narrows a view. Record filters apply before aggregation, skill and
// category filters to the resulting rows. Zero values select everything.
type Query struct {
	Countries        []string
	ExperienceLevels []string
	TitleContains    string

	Categories []skills.Category
	Skills     []string

	SortBy PaySort
	Limit  int
}

func (q Query) recordFilter() (func(models.JobRecord) bool, bool) {
	if len(q.Countries) == 0 && len(q.ExperienceLevels) == 0 && q.TitleContains == "" {
		return nil, false
	}
	countries := foldSet(q.Countries)
	levels := foldSet(q.ExperienceLevels)
	title := strings.ToLower(q.TitleContains)

	return func(r models.JobRecord) bool {
		if len(countries) > 0 && !countries[strings.ToLower(r.Country)] {
			return false
		}
		if len(levels) > 0 && !levels[strings.ToLower(r.ExperienceLevel)] {
			return false
		}
		if title != "" && !strings.Contains(strings.ToLower(r.Title), title) {
			return false
		}
		return true
	}, true
}

func (q Query) keepSkill(skill string, category skills.Category) bool {
	if len(q.Categories) > 0 {
		ok := false
		for _, c := range q.Categories {
			if strings.EqualFold(string(c), string(category)) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if len(q.Skills) > 0 {
		return foldSet(q.Skills)[strings.ToLower(skill)]
	}
	return true
}

func (q Query) filterTrends(t models.TrendTable) models.TrendTable {
	out := t
	out.Rows = nil
	for _, r := range t.Rows {
		if q.keepSkill(r.Skill, r.Category) {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

func (q Query) filterPay(t models.PayTable) models.PayTable {
	out := models.PayTable{OverallAverage: t.OverallAverage}
	for _, r := range t.Rows {
		if q.keepSkill(r.Skill, r.Category) {
			out.Rows = append(out.Rows, r)
		}
	}

	sortPay(out.Rows, q.SortBy)
	if q.Limit > 0 && len(out.Rows) > q.Limit {
		out.Rows = out.Rows[:q.Limit]
	}
	return out
}

func (q Query) filterTop(rows []models.TopSkillRow) []models.TopSkillRow {
	var out []models.TopSkillRow
	for _, r := range rows {
		if q.keepSkill(r.Skill, r.Category) {
			out = append(out, r)
		}
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out
}

func sortPay(rows []models.SkillPayRow, by PaySort) {
	less := func(i, j int) bool { return rows[i].AverageSalary > rows[j].AverageSalary }
	switch by {
	case SortByMedian:
		less = func(i, j int) bool { return rows[i].MedianSalary > rows[j].MedianSalary }
	case SortByPremium:
		less = func(i, j int) bool { return rows[i].Premium > rows[j].Premium }
	case SortByJobs:
		less = func(i, j int) bool { return rows[i].JobCount > rows[j].JobCount }
	case SortBySkill:
		less = func(i, j int) bool { return rows[i].Skill < rows[j].Skill }
	}
	sort.SliceStable(rows, less)
}

func foldSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[strings.ToLower(strings.TrimSpace(v))] = true
	}
	return set
}
