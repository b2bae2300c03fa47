// Package salary reads pay figures out of free text such as
// "$50K - $70K a year" or "£25 an hour".
package salary

import (
	"regexp"
	"strconv"
	"strings"
)

type Period string

const (
	PeriodYearly  Period = "yearly"
	PeriodMonthly Period = "monthly"
	PeriodHourly  Period = "hourly"
	PeriodUnknown Period = "unknown"
)

const (
	hoursPerWeek  = 40
	weeksPerYear  = 52
	monthsPerYear = 12
)

type Range struct {
	Min      float64
	Max      float64
	Period   Period
	Currency string
}

// Midpoint is the mean of Min and Max.
func (r Range) Midpoint() float64 {
	return (r.Min + r.Max) / 2
}

var numberPattern = regexp.MustCompile(`[\$£€¥]?\d+(?:,\d+)*(?:\.\d+)?k?`)

// Parse extracts up to two amounts from text. Hourly and monthly figures are
// annualized and reported as PeriodYearly. ok is false when no amount is
// present.
func Parse(text string) (Range, bool) {
	if strings.TrimSpace(text) == "" {
		return Range{}, false
	}
	lower := strings.ToLower(text)

	r := Range{Period: detectPeriod(lower), Currency: detectCurrency(lower)}

	matches := numberPattern.FindAllString(lower, 2)
	switch len(matches) {
	case 0:
		return Range{}, false
	case 1:
		v, ok := parseAmount(matches[0])
		if !ok {
			return Range{}, false
		}
		r.Min, r.Max = v, v
	default:
		lo, ok1 := parseAmount(matches[0])
		hi, ok2 := parseAmount(matches[1])
		if !ok1 || !ok2 {
			return Range{}, false
		}
		r.Min, r.Max = lo, hi
	}

	switch r.Period {
	case PeriodHourly:
		r.Min *= hoursPerWeek * weeksPerYear
		r.Max *= hoursPerWeek * weeksPerYear
		r.Period = PeriodYearly
	case PeriodMonthly:
		r.Min *= monthsPerYear
		r.Max *= monthsPerYear
		r.Period = PeriodYearly
	}

	return r, true
}

func detectPeriod(lower string) Period {
	switch {
	case strings.Contains(lower, "year"), strings.Contains(lower, "annual"):
		return PeriodYearly
	case strings.Contains(lower, "month"):
		return PeriodMonthly
	case strings.Contains(lower, "hour"):
		return PeriodHourly
	default:
		return PeriodUnknown
	}
}

func detectCurrency(lower string) string {
	switch {
	case strings.Contains(lower, "£"):
		return "GBP"
	case strings.Contains(lower, "€"):
		return "EUR"
	case strings.Contains(lower, "¥"):
		return "JPY"
	default:
		return "USD"
	}
}

func parseAmount(token string) (float64, bool) {
	thousands := strings.HasSuffix(token, "k")
	cleaned := strings.NewReplacer("$", "", "£", "", "€", "", "¥", "", ",", "", "k", "").Replace(token)
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	if thousands {
		v *= 1000
	}
	return v, true
}
