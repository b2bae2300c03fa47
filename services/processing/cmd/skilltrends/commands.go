package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"skilltrends/services/processing/internal/export"
	"skilltrends/services/processing/internal/models"
	"skilltrends/services/processing/internal/pipeline"

	"github.com/spf13/cobra"
)

var exportOutput string

var trendsCmd = &cobra.Command{
	Use:   "trends",
	Short: "Skill popularity per period with growth",
	RunE: run(func(ctx context.Context, p *pipeline.Pipeline, cmd *cobra.Command) error {
		res := p.Trends(ctx, query())
		if err := report(cmd.ErrOrStderr(), res); err != nil {
			return err
		}
		return renderTrends(cmd.OutOrStdout(), res.Data)
	}),
}

var payCmd = &cobra.Command{
	Use:   "pay",
	Short: "Average and median salary per skill with premium over the overall average",
	RunE: run(func(ctx context.Context, p *pipeline.Pipeline, cmd *cobra.Command) error {
		res := p.Pay(ctx, query())
		if err := report(cmd.ErrOrStderr(), res); err != nil {
			return err
		}
		return renderPay(cmd.OutOrStdout(), res.Data)
	}),
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Pay rolled up by skill category",
	RunE: run(func(ctx context.Context, p *pipeline.Pipeline, cmd *cobra.Command) error {
		res := p.CategoryPay(ctx, query())
		if err := report(cmd.ErrOrStderr(), res); err != nil {
			return err
		}
		return renderCategoryPay(cmd.OutOrStdout(), res.Data)
	}),
}

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Average popularity per category per period",
	RunE: run(func(ctx context.Context, p *pipeline.Pipeline, cmd *cobra.Command) error {
		res := p.CategoryComparison(ctx, query())
		if err := report(cmd.ErrOrStderr(), res); err != nil {
			return err
		}
		return renderCategoryTrends(cmd.OutOrStdout(), res.Data)
	}),
}

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Most frequently mentioned skills",
	RunE: run(func(ctx context.Context, p *pipeline.Pipeline, cmd *cobra.Command) error {
		res := p.TopSkills(ctx, query())
		if err := report(cmd.ErrOrStderr(), res); err != nil {
			return err
		}
		return renderTop(cmd.OutOrStdout(), res.Data)
	}),
}

var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Dataset totals, salary and top countries and companies",
	RunE: run(func(ctx context.Context, p *pipeline.Pipeline, cmd *cobra.Command) error {
		res := p.Overview(ctx, query())
		if err := report(cmd.ErrOrStderr(), res); err != nil {
			return err
		}
		return renderOverview(cmd.OutOrStdout(), res.Data)
	}),
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Fastest growing, most consistent, most adopted and declining skills",
	RunE: run(func(ctx context.Context, p *pipeline.Pipeline, cmd *cobra.Command) error {
		res := p.Summary(ctx, query())
		if err := report(cmd.ErrOrStderr(), res); err != nil {
			return err
		}
		return renderSummary(cmd.OutOrStdout(), res.Data)
	}),
}

var exportCmd = &cobra.Command{
	Use:       "export trends|pay",
	Short:     "Write a trend or pay table as CSV",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"trends", "pay"},
	RunE: run(func(ctx context.Context, p *pipeline.Pipeline, cmd *cobra.Command) error {
		w := cmd.OutOrStdout()
		if exportOutput != "" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", exportOutput, err)
			}
			defer f.Close()
			w = f
		}

		if cmd.Flags().Arg(0) == "trends" {
			res := p.Trends(ctx, query())
			if err := report(cmd.ErrOrStderr(), res); err != nil {
				return err
			}
			return export.WriteTrends(w, res.Data)
		}
		res := p.Pay(ctx, query())
		if err := report(cmd.ErrOrStderr(), res); err != nil {
			return err
		}
		return export.WritePay(w, res.Data)
	}),
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "out", "o", "", "Write the CSV to this file instead of stdout")

	rootCmd.AddCommand(trendsCmd, payCmd, categoriesCmd, compareCmd, topCmd, overviewCmd, summaryCmd, exportCmd)
}

func renderTrends(w io.Writer, t models.TrendTable) error {
	header := []string{"Skill", "Category"}
	header = append(header, t.Periods...)
	latest, hasGrowth := t.LatestGrowthKey()
	if hasGrowth {
		header = append(header, "Growth "+latest)
	}

	rows := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		row := []string{r.Skill, string(r.Category)}
		for _, period := range t.Periods {
			row = append(row, formatPercent(r.Popularity[period]))
		}
		if hasGrowth {
			if g, ok := r.Growth[latest]; ok {
				row = append(row, formatSigned(g))
			} else {
				row = append(row, "")
			}
		}
		rows = append(rows, row)
	}
	return renderTable(w, header, rows)
}

func renderPay(w io.Writer, t models.PayTable) error {
	if _, err := fmt.Fprintf(w, "Overall average: %s\n\n", formatMoney(t.OverallAverage)); err != nil {
		return err
	}
	rows := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		rows = append(rows, []string{
			r.Skill,
			string(r.Category),
			formatMoney(r.AverageSalary),
			formatMoney(r.MedianSalary),
			formatSigned(r.Premium),
			strconv.Itoa(r.JobCount),
		})
	}
	return renderTable(w, []string{"Skill", "Category", "Average", "Median", "Premium", "Jobs"}, rows)
}

func renderCategoryPay(w io.Writer, cats []models.CategoryPayRow) error {
	rows := make([][]string, 0, len(cats))
	for _, c := range cats {
		rows = append(rows, []string{
			string(c.Category),
			formatMoney(c.AverageSalary),
			strconv.Itoa(c.JobCount),
			strconv.Itoa(c.Skills),
		})
	}
	return renderTable(w, []string{"Category", "Average", "Jobs", "Skills"}, rows)
}

func renderCategoryTrends(w io.Writer, cats []models.CategoryTrendRow) error {
	var periods []string
	seen := make(map[string]bool)
	for _, c := range cats {
		for p := range c.Popularity {
			if !seen[p] {
				seen[p] = true
				periods = append(periods, p)
			}
		}
	}
	sort.Strings(periods)

	rows := make([][]string, 0, len(cats))
	for _, c := range cats {
		row := []string{string(c.Category)}
		for _, p := range periods {
			row = append(row, formatPercent(c.Popularity[p]))
		}
		rows = append(rows, row)
	}
	return renderTable(w, append([]string{"Category"}, periods...), rows)
}

func renderTop(w io.Writer, top []models.TopSkillRow) error {
	rows := make([][]string, 0, len(top))
	for i, r := range top {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			r.Skill,
			string(r.Category),
			strconv.Itoa(r.Count),
			formatPercent(r.Popularity),
		})
	}
	return renderTable(w, []string{"#", "Skill", "Category", "Mentions", "Share"}, rows)
}

func renderOverview(w io.Writer, o models.Overview) error {
	salary := "n/a"
	if o.AverageSalary != nil {
		salary = formatMoney(*o.AverageSalary)
		if o.MedianSalary != nil {
			salary += " (median " + formatMoney(*o.MedianSalary) + ")"
		}
		if o.SalarySynthetic {
			salary += " estimated"
		}
	}
	if _, err := fmt.Fprintf(w, "Jobs: %d\nCompanies: %d\nCountries: %d\nSalary: %s\n",
		o.TotalJobs, o.Companies, o.Countries, salary); err != nil {
		return err
	}
	for _, hl := range []struct {
		label string
		skill *models.CountShare
	}{{"Top skill", o.TopSkill}, {"Trending skill", o.TrendingSkill}} {
		if hl.skill == nil {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s: %s (%d jobs)\n", hl.label, hl.skill.Name, hl.skill.Count); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}

	sections := []struct {
		title string
		rows  []models.CountShare
	}{
		{"Country", o.TopCountries},
		{"Company", o.TopCompanies},
		{"Experience", o.ExperienceMix},
	}
	for _, s := range sections {
		rows := make([][]string, 0, len(s.rows))
		for _, r := range s.rows {
			rows = append(rows, []string{r.Name, strconv.Itoa(r.Count)})
		}
		if err := renderTable(w, []string{s.title, "Jobs"}, rows); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}

func renderSummary(w io.Writer, s models.TrendSummary) error {
	entries := []struct {
		label  string
		value  *models.SkillValue
		format func(float64) string
	}{
		{"Fastest growing", s.FastestGrowing, formatSigned},
		{"Most consistent", s.MostConsistent, func(v float64) string { return "sd " + strconv.FormatFloat(v, 'f', 2, 64) }},
		{"Highest adoption", s.HighestAdoption, formatPercent},
		{"Most declining", s.MostDeclining, formatSigned},
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		if e.value == nil {
			rows = append(rows, []string{e.label, "", ""})
			continue
		}
		rows = append(rows, []string{e.label, e.value.Skill, e.format(e.value.Value)})
	}
	return renderTable(w, []string{"Highlight", "Skill", "Value"}, rows)
}
