// Package export writes trend and pay tables as comma-delimited text with a
// header row and one row per skill, and reads them back.
package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	domainerrors "skilltrends/common/errors"
	"skilltrends/common/skills"
	"skilltrends/services/processing/internal/models"
)

const (
	growthSuffix = "_Growth"

	colSkill    = "Skill"
	colCategory = "Category"
	colAverage  = "Average Salary"
	colMedian   = "Median Salary"
	colPremium  = "Salary Premium (%)"
	colJobs     = "Job Count"
)

var payHeader = []string{colSkill, colCategory, colAverage, colMedian, colPremium, colJobs}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseFloat(s, column string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, domainerrors.MalformedField("parse "+column, err)
	}
	return v, nil
}

// WriteTrends writes Skill, Category, one column per period and one
// "<prev>_to_<cur>_Growth" column per growth key.
func WriteTrends(w io.Writer, t models.TrendTable) error {
	cw := csv.NewWriter(w)

	header := []string{colSkill, colCategory}
	header = append(header, t.Periods...)
	for _, k := range t.GrowthKeys {
		header = append(header, k+growthSuffix)
	}
	if err := cw.Write(header); err != nil {
		return domainerrors.Internal("write trends header", err)
	}

	for _, r := range t.Rows {
		rec := []string{r.Skill, string(r.Category)}
		for _, p := range t.Periods {
			rec = append(rec, formatFloat(r.Popularity[p]))
		}
		for _, k := range t.GrowthKeys {
			rec = append(rec, formatFloat(r.Growth[k]))
		}
		if err := cw.Write(rec); err != nil {
			return domainerrors.Internal("write trends row", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return domainerrors.Internal("flush trends", err)
	}
	return nil
}

// ReadTrends parses the output of WriteTrends.
func ReadTrends(r io.Reader) (models.TrendTable, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return models.TrendTable{}, domainerrors.MalformedField("read trends", err)
	}
	if len(records) == 0 || len(records[0]) < 2 || records[0][0] != colSkill || records[0][1] != colCategory {
		return models.TrendTable{}, domainerrors.SchemaIncomplete("trends header must start with Skill,Category", nil)
	}

	header := records[0]
	var t models.TrendTable
	for _, col := range header[2:] {
		if strings.HasSuffix(col, growthSuffix) {
			t.GrowthKeys = append(t.GrowthKeys, strings.TrimSuffix(col, growthSuffix))
		} else {
			t.Periods = append(t.Periods, col)
		}
	}

	for _, rec := range records[1:] {
		row := models.SkillTrendRow{
			Skill:      rec[0],
			Category:   skills.Category(rec[1]),
			Popularity: make(map[string]float64, len(t.Periods)),
			Growth:     make(map[string]float64, len(t.GrowthKeys)),
		}
		for i, col := range header[2:] {
			v, err := parseFloat(rec[i+2], col)
			if err != nil {
				return models.TrendTable{}, err
			}
			if strings.HasSuffix(col, growthSuffix) {
				row.Growth[strings.TrimSuffix(col, growthSuffix)] = v
			} else {
				row.Popularity[col] = v
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func WritePay(w io.Writer, t models.PayTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(payHeader); err != nil {
		return domainerrors.Internal("write pay header", err)
	}
	for _, r := range t.Rows {
		rec := []string{
			r.Skill,
			string(r.Category),
			formatFloat(r.AverageSalary),
			formatFloat(r.MedianSalary),
			formatFloat(r.Premium),
			strconv.Itoa(r.JobCount),
		}
		if err := cw.Write(rec); err != nil {
			return domainerrors.Internal("write pay row", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return domainerrors.Internal("flush pay", err)
	}
	return nil
}

// ReadPay parses the output of WritePay. OverallAverage is not part of the
// format and stays zero.
func ReadPay(r io.Reader) (models.PayTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(payHeader)
	records, err := cr.ReadAll()
	if err != nil {
		return models.PayTable{}, domainerrors.MalformedField("read pay", err)
	}
	if len(records) == 0 || strings.Join(records[0], ",") != strings.Join(payHeader, ",") {
		return models.PayTable{}, domainerrors.SchemaIncomplete("unexpected pay header", nil)
	}

	var t models.PayTable
	for _, rec := range records[1:] {
		avg, err := parseFloat(rec[2], colAverage)
		if err != nil {
			return models.PayTable{}, err
		}
		med, err := parseFloat(rec[3], colMedian)
		if err != nil {
			return models.PayTable{}, err
		}
		prem, err := parseFloat(rec[4], colPremium)
		if err != nil {
			return models.PayTable{}, err
		}
		jobs, err := strconv.Atoi(strings.TrimSpace(rec[5]))
		if err != nil {
			return models.PayTable{}, domainerrors.MalformedField("parse "+colJobs, err)
		}
		t.Rows = append(t.Rows, models.SkillPayRow{
			Skill:         rec[0],
			Category:      skills.Category(rec[1]),
			AverageSalary: avg,
			MedianSalary:  med,
			Premium:       prem,
			JobCount:      jobs,
		})
	}
	return t, nil
}
