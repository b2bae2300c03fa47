package aggregator

import (
	"sort"

	"skilltrends/common/skills"
	"skilltrends/services/processing/internal/models"
)

// SkillPay relates skills to salary. Only records carrying a salary count.
// Candidates are the CandidateLimit most mentioned skills, and a candidate
// needs MinSupport salaried records to be reported. A dataset without
// skills or real salaries yields an empty table.
func (a *Aggregator) SkillPay(ds models.Dataset) models.PayTable {
	if !ds.Schema.HasSkills || !ds.Schema.HasSalary {
		return models.PayTable{}
	}

	var valid []models.JobRecord
	for _, r := range ds.Records {
		if r.Salary != nil {
			valid = append(valid, r)
		}
	}
	if len(valid) == 0 {
		return models.PayTable{}
	}

	all := make([]float64, len(valid))
	sets := make([][]string, len(valid))
	for i, r := range valid {
		all[i] = *r.Salary
		sets[i] = r.Skills
	}
	overall := mean(all)

	candidates := countSkills(sets)
	if a.opts.CandidateLimit > 0 && len(candidates) > a.opts.CandidateLimit {
		candidates = candidates[:a.opts.CandidateLimit]
	}

	table := models.PayTable{OverallAverage: overall}
	for _, c := range candidates {
		var pay []float64
		for _, r := range valid {
			if r.HasSkill(c.skill) {
				pay = append(pay, *r.Salary)
			}
		}
		if len(pay) < a.opts.MinSupport {
			continue
		}

		avg := mean(pay)
		premium := 0.0
		if overall != 0 {
			premium = (avg/overall - 1) * 100
		}
		table.Rows = append(table.Rows, models.SkillPayRow{
			Skill:         c.skill,
			Category:      a.classifier.Classify(c.skill),
			AverageSalary: avg,
			MedianSalary:  median(pay),
			Premium:       premium,
			JobCount:      len(pay),
		})
	}

	return table
}

// CategoryRollup averages the per-skill average salaries and sums the job
// counts of each category, ordered by category name.
func CategoryRollup(pay models.PayTable) []models.CategoryPayRow {
	type acc struct {
		averages []float64
		jobs     int
	}
	groups := make(map[skills.Category]*acc)
	for _, r := range pay.Rows {
		g, ok := groups[r.Category]
		if !ok {
			g = &acc{}
			groups[r.Category] = g
		}
		g.averages = append(g.averages, r.AverageSalary)
		g.jobs += r.JobCount
	}

	out := make([]models.CategoryPayRow, 0, len(groups))
	for cat, g := range groups {
		out = append(out, models.CategoryPayRow{
			Category:      cat,
			AverageSalary: mean(g.averages),
			JobCount:      g.jobs,
			Skills:        len(g.averages),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}
