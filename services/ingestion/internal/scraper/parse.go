package scraper

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"skilltrends/common/skills"
	"skilltrends/services/ingestion/internal/models"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
)

// Selector sets for job cards. Boards render one of two layouts; the
// fallback set is only tried when the primary one finds no titled cards.
type selectors struct {
	card, title, company, location, description, salary, via, posted, link string
}

var (
	primarySelectors = selectors{
		card:        "div.iFjolb, div.gws-plugins-horizon-jobs__job-card",
		title:       "h2.BjJfJf, h3.BjJfJf, h2.job-title, h3.job-title",
		company:     "div.vNEEBe, span.vNEEBe, .company-name",
		location:    "div.Qk80Jf, span.Qk80Jf, .location",
		description: "div.HBvzbc, span.HBvzbc, .job-description",
		salary:      ".salary, .compensation",
		via:         ".via",
		posted:      ".posted, time",
		link:        "a[href]",
	}
	fallbackSelectors = selectors{
		card:        "div[data-hveid]",
		title:       ".job-title, .title, .heading",
		company:     ".company-name, .employer, .company",
		location:    ".location, .job-location, .address",
		description: ".description, .job-description, .summary",
		salary:      ".salary, .compensation, .pay",
		via:         ".via, .source",
		posted:      ".posted, .date, time",
		link:        "a[href]",
	}
)

var postingNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

var (
	blankLinesPattern = regexp.MustCompile(`\n\s*\n`)
	spacePattern      = regexp.MustCompile(`\s+`)
	dashPattern       = regexp.MustCompile(`[\x{2013}\x{2014}\x{2015}]`)
	companyPattern    = regexp.MustCompile(`(?i)\b(?:company|employer):\s*([^,|\n]+)`)
	locationPattern   = regexp.MustCompile(`(?i)\blocation:\s*([^,|\n]+)`)
	remotePattern     = regexp.MustCompile(`(?i)\b(remote|wfh|work[- ]from[- ]home)\b`)
	salaryPattern     = regexp.MustCompile(`(?i)[\$£€¥]\s?\d[\d,.]*k?(?:\s*(?:-|to)\s*[\$£€¥]?\s?\d[\d,.]*k?)?(?:\s*(?:a|an|per)\s+(?:year|annum|month|hour))?`)
	agePattern        = regexp.MustCompile(`(?i)(\d+)\+?\s*(minute|hour|day|week|month)s?\s+ago`)
)

// ParseCards extracts postings from a search results document. Cards
// without a title are skipped. now anchors relative ages such as
// "3 days ago".
func ParseCards(doc *goquery.Document, extractor *skills.Extractor, now time.Time) []models.JobPosting {
	postings := parseWith(doc, primarySelectors, extractor, now)
	if len(postings) == 0 {
		postings = parseWith(doc, fallbackSelectors, extractor, now)
	}
	return postings
}

func parseWith(doc *goquery.Document, sel selectors, extractor *skills.Extractor, now time.Time) []models.JobPosting {
	var postings []models.JobPosting
	seen := make(map[string]bool)

	doc.Find(sel.card).Each(func(_ int, card *goquery.Selection) {
		title := text(card, sel.title)
		if title == "" {
			return
		}
		description := text(card, sel.description)
		company := text(card, sel.company)
		if company == "" {
			company = labelled(companyPattern, description)
		}
		location := text(card, sel.location)
		if location == "" {
			location = labelled(locationPattern, description)
		}

		salaryText := text(card, sel.salary)
		if salaryText == "" {
			salaryText = salaryPattern.FindString(description)
		}

		id := uuid.NewSHA1(postingNamespace, []byte(strings.ToLower(title+"|"+company+"|"+location))).String()
		if seen[id] {
			return
		}
		seen[id] = true

		p := models.JobPosting{
			ID:           id,
			Title:        title,
			Company:      company,
			Location:     location,
			Description:  description,
			Salary:       strings.TrimSpace(salaryText),
			Skills:       extractor.Extract(title + " " + description),
			Via:          strings.TrimPrefix(text(card, sel.via), "via "),
			WorkFromHome: remotePattern.MatchString(location + " " + description),
		}
		if href, ok := card.Find(sel.link).First().Attr("href"); ok {
			p.URL = href
		}
		if posted, ok := postedAt(card.Find(sel.posted).First(), now); ok {
			p.PostedAt = &posted
		}
		postings = append(postings, p)
	})
	return postings
}

func text(s *goquery.Selection, selector string) string {
	return normalizeText(s.Find(selector).First().Text())
}

func labelled(pattern *regexp.Regexp, s string) string {
	if m := pattern.FindStringSubmatch(s); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func normalizeText(s string) string {
	s = blankLinesPattern.ReplaceAllString(s, "\n")
	s = spacePattern.ReplaceAllString(s, " ")
	s = dashPattern.ReplaceAllString(s, "-")
	return strings.TrimSpace(s)
}

// postedAt reads a datetime attribute when present and otherwise a relative
// age like "2 days ago".
func postedAt(s *goquery.Selection, now time.Time) (time.Time, bool) {
	if s.Length() == 0 {
		return time.Time{}, false
	}
	if attr, ok := s.Attr("datetime"); ok {
		if t, err := time.Parse(time.RFC3339, attr); err == nil {
			return t.UTC(), true
		}
		if t, err := time.Parse(time.DateOnly, attr); err == nil {
			return t.UTC(), true
		}
	}
	return parseAge(s.Text(), now)
}

func parseAge(s string, now time.Time) (time.Time, bool) {
	m := agePattern.FindStringSubmatch(s)
	if m == nil {
		if strings.Contains(strings.ToLower(s), "today") || strings.Contains(strings.ToLower(s), "just posted") {
			return now.UTC(), true
		}
		return time.Time{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, false
	}
	switch strings.ToLower(m[2]) {
	case "minute":
		return now.Add(-time.Duration(n) * time.Minute).UTC(), true
	case "hour":
		return now.Add(-time.Duration(n) * time.Hour).UTC(), true
	case "day":
		return now.AddDate(0, 0, -n).UTC(), true
	case "week":
		return now.AddDate(0, 0, -7*n).UTC(), true
	default:
		return now.AddDate(0, -n, 0).UTC(), true
	}
}
