// Package source reads raw job tables from the configured origin.
package source

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	domainerrors "skilltrends/common/errors"
	"skilltrends/services/processing/internal/models"
)

// Source yields a raw table of at most maxRows rows. maxRows <= 0 means no
// limit. A failure to read the origin is a SourceUnavailable error.
type Source interface {
	ID() string
	Fetch(ctx context.Context, maxRows int) (models.RawTable, error)
}

// ReadCSV parses a header row followed by data rows. Headers are trimmed and
// lowercased, short rows leave the missing cells empty and reading stops
// after maxRows data rows.
func ReadCSV(r io.Reader, maxRows int) (models.RawTable, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err == io.EOF {
		return models.RawTable{}, domainerrors.SchemaIncomplete("dataset has no header row", nil)
	}
	if err != nil {
		return models.RawTable{}, domainerrors.SourceUnavailable("read csv header", err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		columns[i] = strings.ToLower(strings.TrimSpace(h))
	}

	table := models.RawTable{Columns: columns}
	for maxRows <= 0 || len(table.Rows) < maxRows {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return models.RawTable{}, domainerrors.SourceUnavailable("read csv row", err)
		}

		row := make(map[string]string, len(columns))
		for i, col := range columns {
			if i < len(record) {
				row[col] = record[i]
			} else {
				row[col] = ""
			}
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}
