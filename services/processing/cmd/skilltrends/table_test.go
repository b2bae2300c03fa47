package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	err := renderTable(&buf, []string{"Skill", "Jobs"}, [][]string{
		{"python", "120"},
		{"go"},
	})
	require.NoError(t, err)

	want := "| Skill  | Jobs |\n" +
		"| ------ | ---- |\n" +
		"| python | 120  |\n" +
		"| go     |      |\n"
	assert.Equal(t, want, buf.String())
}

func TestRenderTableWideRunes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderTable(&buf, []string{"Co"}, [][]string{{"日本"}}))
	assert.Equal(t, "| Co   |\n| ---- |\n| 日本 |\n", buf.String())
}

func TestFormatMoney(t *testing.T) {
	tests := map[float64]string{
		0:         "$0",
		999.6:     "$1,000",
		110000:    "$110,000",
		1234567.4: "$1,234,567",
		-45000.2:  "-$45,000",
	}
	for in, want := range tests {
		assert.Equal(t, want, formatMoney(in), "input %v", in)
	}
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "12.5%", formatPercent(12.46))
	assert.Equal(t, "+950.0%", formatSigned(950))
	assert.Equal(t, "-20.0%", formatSigned(-20))
}
