// Package bucketer slices a dated record set into consecutive fixed-width
// periods labelled by calendar quarter.
package bucketer

import (
	"fmt"
	"time"

	"skilltrends/services/processing/internal/models"

	"github.com/go-errors/errors"
)

const (
	DefaultWidthDays   = 90
	DefaultMinSpanDays = 180
)

// ErrInsufficientSpan means the dated records cover too short a range for a
// multi-period trend.
var ErrInsufficientSpan = errors.New("insufficient time span for trend analysis")

type Bucketer struct {
	width       time.Duration
	minSpanDays int
}

func New(widthDays, minSpanDays int) *Bucketer {
	if widthDays <= 0 {
		widthDays = DefaultWidthDays
	}
	return &Bucketer{
		width:       time.Duration(widthDays) * 24 * time.Hour,
		minSpanDays: minSpanDays,
	}
}

// Label formats the quarter containing t as "YYYY-Qn".
func Label(t time.Time) string {
	return fmt.Sprintf("%d-Q%d", t.Year(), (int(t.Month())-1)/3+1)
}

// Bucket returns half-open periods starting at the earliest timestamp and
// stepping by the configured width until the latest timestamp is covered.
// Records without a timestamp are ignored. The last period may end past the
// latest timestamp.
func (b *Bucketer) Bucket(records []models.JobRecord) ([]models.Period, error) {
	var minT, maxT time.Time
	found := false
	for _, r := range records {
		if r.PostedAt == nil {
			continue
		}
		t := *r.PostedAt
		if !found || t.Before(minT) {
			minT = t
		}
		if !found || t.After(maxT) {
			maxT = t
		}
		found = true
	}
	if !found {
		return nil, ErrInsufficientSpan
	}

	spanDays := int(maxT.Sub(minT).Hours() / 24)
	if spanDays <= b.minSpanDays {
		return nil, ErrInsufficientSpan
	}

	var periods []models.Period
	for current := minT; !current.After(maxT); current = current.Add(b.width) {
		periods = append(periods, models.Period{
			Label: Label(current),
			Start: current,
			End:   current.Add(b.width),
		})
	}
	return periods, nil
}

// Assign groups records into the given periods. A record lands in at most one
// period and undated records are skipped.
func Assign(periods []models.Period, records []models.JobRecord) [][]models.JobRecord {
	out := make([][]models.JobRecord, len(periods))
	for _, r := range records {
		if r.PostedAt == nil {
			continue
		}
		for i, p := range periods {
			if p.Contains(*r.PostedAt) {
				out[i] = append(out[i], r)
				break
			}
		}
	}
	return out
}
