package skills

import (
	"sort"
	"strings"
)

type Extractor struct {
	terms []Term
}

func NewExtractor(rules Rules) *Extractor {
	terms := make([]Term, 0, len(rules.Vocabulary))
	for _, t := range rules.Vocabulary {
		t.Name = strings.ToLower(strings.TrimSpace(t.Name))
		if t.Name == "" {
			continue
		}
		terms = append(terms, t)
	}
	return &Extractor{terms: terms}
}

// Extract returns the sorted, deduplicated vocabulary terms found in text.
// Empty text yields an empty, non-nil slice.
func (e *Extractor) Extract(text string) []string {
	found := []string{}
	if strings.TrimSpace(text) == "" {
		return found
	}

	lower := strings.ToLower(text)
	seen := make(map[string]bool)
	for _, term := range e.terms {
		if seen[term.Name] || !e.matches(lower, term) {
			continue
		}
		seen[term.Name] = true
		found = append(found, term.Name)
	}

	sort.Strings(found)
	return found
}

func (e *Extractor) matches(lower string, term Term) bool {
	if term.WholeWord {
		if !containsWord(lower, term.Name) {
			return false
		}
	} else if !strings.Contains(lower, term.Name) {
		return false
	}

	for _, ex := range term.ExcludeIf {
		if strings.Contains(lower, ex) {
			return false
		}
	}
	return true
}

// Vocabulary lists the known terms in declaration order.
func (e *Extractor) Vocabulary() []string {
	names := make([]string, len(e.terms))
	for i, t := range e.terms {
		names[i] = t.Name
	}
	return names
}
