package skills

import "strings"

type Classifier struct {
	rules []CategoryRule
}

func NewClassifier(rules Rules) *Classifier {
	return &Classifier{rules: rules.Categories}
}

// Classify returns the category of the first rule with a keyword present in
// skill, or CategoryUnknown.
func (c *Classifier) Classify(skill string) Category {
	s := strings.ToLower(strings.ReplaceAll(skill, "_", " "))
	for _, rule := range c.rules {
		for _, kw := range rule.Keywords {
			kw = strings.ToLower(kw)
			if len(kw) <= 2 {
				if containsWord(s, kw) {
					return rule.Category
				}
				continue
			}
			if strings.Contains(s, kw) {
				return rule.Category
			}
		}
	}
	return CategoryUnknown
}

// Categories lists rule categories in precedence order.
func (c *Classifier) Categories() []Category {
	out := make([]Category, len(c.rules))
	for i, r := range c.rules {
		out[i] = r.Category
	}
	return out
}
