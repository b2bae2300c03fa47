// Package skills turns free text into canonical skill tokens and maps tokens
// onto coarse categories. Both behaviours are driven by a Rules table so the
// vocabulary can be swapped without touching the matching logic.
package skills

import (
	"os"
	"strings"

	"github.com/go-errors/errors"
	"gopkg.in/yaml.v3"
)

type Category string

const (
	CategoryProgramming    Category = "Programming"
	CategoryData           Category = "Data"
	CategoryCloud          Category = "Cloud"
	CategoryAI             Category = "AI"
	CategoryWebDevelopment Category = "Web Development"
	CategoryDevOps         Category = "DevOps"
	CategoryOffice         Category = "Office"
	CategoryVisualization  Category = "Visualization"
	CategoryUnknown        Category = "Unknown"
)

// Term is one vocabulary entry. WholeWord terms only match when bounded by
// non-alphanumeric characters. A term is suppressed when any ExcludeIf
// substring occurs in the text.
type Term struct {
	Name      string   `yaml:"name"`
	WholeWord bool     `yaml:"whole_word,omitempty"`
	ExcludeIf []string `yaml:"exclude_if,omitempty"`
}

// CategoryRule assigns Category to any skill containing one of Keywords.
// Keywords of two characters or fewer must match a whole token.
type CategoryRule struct {
	Category Category `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

type Rules struct {
	Vocabulary []Term         `yaml:"vocabulary"`
	Categories []CategoryRule `yaml:"categories"`
}

var wholeWordTerms = map[string]bool{
	"r": true, "go": true, "ar": true, "vr": true, "c#": true, "ios": true,
	"less": true, "git": true, "iot": true, "express": true, "unity": true,
	"rust": true, "scala": true, "perl": true, "aws": true, "agile": true,
	"swift": true, "excel": true,
}

var defaultVocabulary = []string{
	"python", "java", "javascript", "typescript", "c++", "c#", "ruby", "php", "swift", "kotlin", "go", "rust",
	"r", "matlab", "scala", "perl", "shell", "bash",
	"html", "css", "react", "angular", "vue", "node.js", "express", "django", "flask", "spring", "asp.net",
	"jquery", "bootstrap", "sass", "less", "webpack", "next.js", "nuxt.js",
	"sql", "mysql", "postgresql", "mongodb", "redis", "elasticsearch", "cassandra", "oracle", "sqlite",
	"dynamodb", "neo4j", "firebase", "bigquery", "snowflake",
	"aws", "azure", "gcp", "docker", "kubernetes", "jenkins", "terraform", "ansible", "circleci", "git",
	"prometheus", "grafana", "elk stack", "splunk", "new relic", "datadog",
	"machine learning", "deep learning", "tensorflow", "pytorch", "scikit-learn", "pandas", "numpy",
	"data analysis", "statistics", "spss", "tableau", "power bi", "looker", "d3.js", "matplotlib",
	"seaborn", "jupyter", "hadoop", "spark", "kafka", "airflow", "dbt",
	"react native", "flutter", "ios", "android", "xcode", "android studio",
	"security", "penetration testing", "ethical hacking", "firewall", "vpn", "ssl", "encryption",
	"agile", "scrum", "jira", "confluence", "trello", "asana", "project management",
	"rest api", "graphql", "microservices", "ci/cd", "blockchain", "web3", "solidity",
	"unity", "unreal engine", "game development", "ar", "vr", "iot", "edge computing",
	"excel", "powerpoint", "communication", "leadership", "problem solving", "teamwork", "office",
}

// DefaultRules returns the built-in vocabulary and the category rules in
// precedence order.
func DefaultRules() Rules {
	vocab := make([]Term, 0, len(defaultVocabulary))
	for _, name := range defaultVocabulary {
		term := Term{Name: name, WholeWord: wholeWordTerms[name]}
		if name == "r" {
			term.ExcludeIf = []string{"ruby", "rust", "react"}
		}
		vocab = append(vocab, term)
	}

	return Rules{
		Vocabulary: vocab,
		Categories: []CategoryRule{
			{Category: CategoryProgramming, Keywords: []string{"python", "r", "java", "c++", "javascript"}},
			{Category: CategoryData, Keywords: []string{"sql", "database", "postgresql"}},
			{Category: CategoryCloud, Keywords: []string{"aws", "azure", "gcp", "cloud"}},
			{Category: CategoryAI, Keywords: []string{"ml", "ai", "machine learning", "tensorflow", "pytorch"}},
			{Category: CategoryWebDevelopment, Keywords: []string{"react", "angular", "vue", "html", "css"}},
			{Category: CategoryDevOps, Keywords: []string{"docker", "kubernetes", "devops", "ci/cd"}},
			{Category: CategoryOffice, Keywords: []string{"excel", "word", "powerpoint", "office"}},
			{Category: CategoryVisualization, Keywords: []string{"tableau", "power bi", "looker", "visualization"}},
		},
	}
}

// LoadRules reads a YAML rules file. An empty path yields DefaultRules.
func LoadRules(path string) (Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, errors.Errorf("read skill rules %s: %v", path, err)
	}
	return ParseRules(data)
}

func ParseRules(data []byte) (Rules, error) {
	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, errors.Errorf("parse skill rules: %v", err)
	}
	if err := rules.Validate(); err != nil {
		return Rules{}, err
	}
	return rules, nil
}

func (r Rules) Validate() error {
	if len(r.Vocabulary) == 0 {
		return errors.New("skill rules: vocabulary is empty")
	}
	seen := make(map[string]bool, len(r.Vocabulary))
	for _, term := range r.Vocabulary {
		name := strings.ToLower(strings.TrimSpace(term.Name))
		if name == "" {
			return errors.New("skill rules: blank vocabulary term")
		}
		if seen[name] {
			return errors.Errorf("skill rules: duplicate term %q", name)
		}
		seen[name] = true
	}
	for _, rule := range r.Categories {
		if rule.Category == "" || len(rule.Keywords) == 0 {
			return errors.New("skill rules: category rule needs a name and keywords")
		}
	}
	return nil
}
