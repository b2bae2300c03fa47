package migrations

import (
	"strings"
	"testing"

	"skilltrends/common/database/schema"

	"github.com/stretchr/testify/assert"
)

func TestAllOrderedAndComplete(t *testing.T) {
	all := All()
	for i, m := range all {
		assert.Equal(t, i+1, m.Version)
		assert.NotEmpty(t, m.Description)
		assert.NotEmpty(t, strings.TrimSpace(m.Up))
		assert.NotEmpty(t, strings.TrimSpace(m.Down))
	}
}

func TestJobPostingsColumns(t *testing.T) {
	for _, col := range []string{"description_tokens", "salary_yearly", "country", "experience_level", "posted_at"} {
		assert.Contains(t, CreateJobPostingsTable.Up, col)
	}
}

func TestAllValidates(t *testing.T) {
	assert.NoError(t, schema.Validate(All()))
}
