package aggregator

import (
	"math"
	"sort"
)

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// sampleStdDev uses the n-1 denominator. Fewer than two values yield NaN.
func sampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return math.NaN()
	}
	m := mean(values)
	ss := 0.0
	for _, v := range values {
		ss += (v - m) * (v - m)
	}
	return math.Sqrt(ss / float64(len(values)-1))
}

type skillCount struct {
	skill string
	count int
}

// countSkills counts the records mentioning each skill, ordered by count
// descending then skill ascending.
func countSkills(skillSets [][]string) []skillCount {
	counts := make(map[string]int)
	for _, set := range skillSets {
		seen := make(map[string]bool, len(set))
		for _, s := range set {
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			counts[s]++
		}
	}

	out := make([]skillCount, 0, len(counts))
	for s, c := range counts {
		out = append(out, skillCount{skill: s, count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].skill < out[j].skill
	})
	return out
}
