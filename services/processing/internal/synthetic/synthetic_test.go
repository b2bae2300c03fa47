package synthetic

import (
	"encoding/json"
	"math"
	"testing"

	"skilltrends/common/skills"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrendsDeterministic(t *testing.T) {
	a, err := json.Marshal(New(DefaultSeed, 0.1).Trends())
	require.NoError(t, err)
	b, err := json.Marshal(New(DefaultSeed, 0.1).Trends())
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := json.Marshal(New(7, 0.1).Trends())
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestTrendsShape(t *testing.T) {
	table := New(DefaultSeed, 0.1).Trends()

	assert.Equal(t, TrendPeriods, table.Periods)
	assert.Len(t, table.GrowthKeys, len(TrendPeriods)-1)
	assert.Equal(t, "2024-Q2_to_2025-Q1", table.GrowthKeys[len(table.GrowthKeys)-1])
	require.Len(t, table.Rows, len(trendSkills))

	for i, row := range table.Rows {
		if i > 0 {
			assert.Less(t, table.Rows[i-1].Skill, row.Skill)
		}
		assert.Len(t, row.Popularity, len(TrendPeriods))
		for _, v := range row.Popularity {
			assert.GreaterOrEqual(t, v, 0.0)
		}
		for _, g := range row.Growth {
			assert.False(t, math.IsInf(g, 0) || math.IsNaN(g))
		}
	}
}

func TestPayTable(t *testing.T) {
	gen := New(DefaultSeed, 0.1)
	a, b := gen.PayTable(), gen.PayTable()
	assert.Equal(t, a, b)

	require.Len(t, a.Rows, len(paySkills))
	for _, row := range a.Rows {
		assert.GreaterOrEqual(t, row.JobCount, 50)
		assert.Less(t, row.JobCount, 1000)
		assert.InDelta(t, (row.AverageSalary/payReferenceSalary-1)*100, row.Premium, 1e-9)
		assert.NotEqual(t, skills.CategoryUnknown, row.Category)
	}
}

func TestRecords(t *testing.T) {
	gen := New(DefaultSeed, 0.1)
	ds := gen.Records(50)

	require.Len(t, ds.Records, 50)
	assert.Equal(t, SourceID, ds.Source)
	assert.True(t, ds.Schema.HasSkills)
	assert.True(t, ds.Schema.HasSalary)

	for _, r := range ds.Records {
		require.NotNil(t, r.PostedAt)
		assert.Equal(t, 2023, r.PostedAt.Year())
		require.NotNil(t, r.Salary)
		assert.InDelta(t, *r.Salary*0.8, *r.SalaryMin, 1e-6)
		assert.GreaterOrEqual(t, len(r.Skills), 5)
		assert.LessOrEqual(t, len(r.Skills), len(recordSkills))
	}

	again := gen.Records(50)
	assert.Equal(t, ds.Records, again.Records)
	assert.Len(t, gen.Records(0).Records, DefaultRecordCount)
}
