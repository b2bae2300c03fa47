package normalizer

import (
	"regexp"
	"strings"
)

var countryAliases = map[string]string{
	"us":                       "United States",
	"usa":                      "United States",
	"u.s.":                     "United States",
	"united states of america": "United States",
	"uk":                       "United Kingdom",
	"u.k.":                     "United Kingdom",
	"england":                  "United Kingdom",
	"great britain":            "United Kingdom",
	"deutschland":              "Germany",
	"the netherlands":          "Netherlands",
	"holland":                  "Netherlands",
}

// CanonicalCountry maps common aliases onto the canonical country name.
// Unknown values pass through trimmed.
func CanonicalCountry(value string) string {
	v := strings.TrimSpace(value)
	if c, ok := countryAliases[strings.ToLower(v)]; ok {
		return c
	}
	for _, c := range Countries {
		if strings.EqualFold(c, v) {
			return c
		}
	}
	return v
}

var usStatePattern = regexp.MustCompile(`,\s*[A-Z]{2}$`)

// InferCountry guesses the country from a free-text location.
func InferCountry(location string) (string, bool) {
	loc := strings.TrimSpace(location)
	if loc == "" {
		return "", false
	}
	lower := strings.ToLower(loc)
	for _, c := range Countries {
		if strings.Contains(lower, strings.ToLower(c)) {
			return c, true
		}
	}
	for _, part := range strings.Split(lower, ",") {
		if c, ok := countryAliases[strings.TrimSpace(part)]; ok {
			return c, true
		}
	}
	if usStatePattern.MatchString(loc) {
		return "United States", true
	}
	return "", false
}

var (
	executivePattern = regexp.MustCompile(`(?i)\b(director|vp|vice president|head of|chief|executive)\b`)
	seniorPattern    = regexp.MustCompile(`(?i)\b(senior|sr\.?|lead|principal|staff)\b`)
	entryPattern     = regexp.MustCompile(`(?i)\b(junior|jr\.?|entry|intern|internship|graduate)\b`)
	midPattern       = regexp.MustCompile(`(?i)\b(mid|mid-level|intermediate)\b`)
)

// InferExperienceLevel reads a seniority hint from a title or description.
func InferExperienceLevel(text string) (string, bool) {
	switch {
	case executivePattern.MatchString(text):
		return "Executive", true
	case seniorPattern.MatchString(text):
		return "Senior Level", true
	case entryPattern.MatchString(text):
		return "Entry Level", true
	case midPattern.MatchString(text):
		return "Mid Level", true
	default:
		return "", false
	}
}
