package salary

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Range
		ok   bool
	}{
		{"yearly range with k", "$50K - $70K a year", Range{50000, 70000, PeriodYearly, "USD"}, true},
		{"hourly annualized", "$20–$30 an hour", Range{41600, 62400, PeriodYearly, "USD"}, true},
		{"monthly annualized", "€4,000 a month", Range{48000, 48000, PeriodYearly, "EUR"}, true},
		{"pounds", "£45,000 annual salary", Range{45000, 45000, PeriodYearly, "GBP"}, true},
		{"no period", "120000", Range{120000, 120000, PeriodUnknown, "USD"}, true},
		{"no amount", "competitive salary", Range{}, false},
		{"empty", "", Range{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.text)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want.Min, got.Min, 1e-9)
				assert.InDelta(t, tt.want.Max, got.Max, 1e-9)
				assert.Equal(t, tt.want.Period, got.Period)
				assert.Equal(t, tt.want.Currency, got.Currency)
			}
		})
	}
}

func TestMidpoint(t *testing.T) {
	assert.Equal(t, 60000.0, Range{Min: 50000, Max: 70000}.Midpoint())
}
