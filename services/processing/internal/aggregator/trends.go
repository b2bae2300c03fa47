package aggregator

import (
	"sort"

	"skilltrends/common/skills"
	"skilltrends/services/processing/internal/bucketer"
	"skilltrends/services/processing/internal/models"
)

// Popularity returns, for every skill mentioned in records, the percentage
// of records mentioning it. No noise filter is applied here; Trends drops
// skills that never reach the threshold. The result is sorted by skill and
// independent of record order.
func (a *Aggregator) Popularity(period string, records []models.JobRecord) []models.SkillStat {
	if len(records) == 0 {
		return nil
	}

	sets := make([][]string, len(records))
	for i, r := range records {
		sets[i] = r.Skills
	}

	total := float64(len(records))
	var stats []models.SkillStat
	for _, sc := range countSkills(sets) {
		stats = append(stats, models.SkillStat{
			Skill:      sc.skill,
			Category:   a.classifier.Classify(sc.skill),
			Period:     period,
			Count:      sc.count,
			Popularity: float64(sc.count) / total * 100,
		})
	}

	sort.Slice(stats, func(i, j int) bool { return stats[i].Skill < stats[j].Skill })
	return stats
}

// Growth is the percentage change from prev to cur. A prev below floor is
// replaced by floor, so growth from zero stays finite.
func Growth(prev, cur, floor float64) float64 {
	denom := prev
	if denom < floor {
		denom = floor
	}
	return (cur - prev) / denom * 100
}

// Trends pivots per-period popularity into one row per skill. Periods that
// share a label are merged by averaging. A skill is kept when its popularity
// reaches the noise threshold in at least one label. Only labels with a value
// for some kept skill become columns, and a missing value within a row is
// zero.
func (a *Aggregator) Trends(periods []models.Period, records []models.JobRecord) models.TrendTable {
	groups := bucketer.Assign(periods, records)

	type cell struct {
		sum float64
		n   int
	}
	values := make(map[string]map[string]*cell)
	categories := make(map[string]skills.Category)

	for i, p := range periods {
		for _, st := range a.Popularity(p.Label, groups[i]) {
			row, ok := values[st.Skill]
			if !ok {
				row = make(map[string]*cell)
				values[st.Skill] = row
				categories[st.Skill] = st.Category
			}
			c, ok := row[p.Label]
			if !ok {
				c = &cell{}
				row[p.Label] = c
			}
			c.sum += st.Popularity
			c.n++
		}
	}

	labelSeen := make(map[string]bool)
	for s, row := range values {
		keep := false
		for _, c := range row {
			if c.sum/float64(c.n) >= a.opts.NoiseThreshold {
				keep = true
				break
			}
		}
		if !keep {
			delete(values, s)
			continue
		}
		for l := range row {
			labelSeen[l] = true
		}
	}

	all := make([]string, len(periods))
	for i, p := range periods {
		all[i] = p.Label
	}
	ordered := dedupeKeepOrder(all)

	var labels []string
	for _, l := range ordered {
		if labelSeen[l] {
			labels = append(labels, l)
		}
	}

	table := models.TrendTable{Periods: labels}
	for i := 1; i < len(ordered); i++ {
		prev, cur := ordered[i-1], ordered[i]
		if labelSeen[prev] && labelSeen[cur] {
			table.GrowthKeys = append(table.GrowthKeys, models.GrowthKey(prev, cur))
		}
	}

	skillNames := make([]string, 0, len(values))
	for s := range values {
		skillNames = append(skillNames, s)
	}
	sort.Strings(skillNames)

	for _, s := range skillNames {
		row := models.SkillTrendRow{
			Skill:      s,
			Category:   categories[s],
			Popularity: make(map[string]float64, len(labels)),
			Growth:     make(map[string]float64, len(table.GrowthKeys)),
		}
		for _, l := range labels {
			if c, ok := values[s][l]; ok {
				row.Popularity[l] = c.sum / float64(c.n)
			} else {
				row.Popularity[l] = 0
			}
		}
		for i := 1; i < len(ordered); i++ {
			prev, cur := ordered[i-1], ordered[i]
			if !labelSeen[prev] || !labelSeen[cur] {
				continue
			}
			row.Growth[models.GrowthKey(prev, cur)] = Growth(row.Popularity[prev], row.Popularity[cur], a.opts.GrowthFloor)
		}
		table.Rows = append(table.Rows, row)
	}

	return table
}

func dedupeKeepOrder(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
