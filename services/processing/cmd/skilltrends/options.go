package main

import (
	"context"
	"fmt"
	"io"

	"skilltrends/common/skills"
	"skilltrends/services/processing/internal/app"
	"skilltrends/services/processing/internal/config"
	"skilltrends/services/processing/internal/pipeline"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagFile       string
	flagURL        string
	flagMaxRows    int
	flagCountries  []string
	flagExperience []string
	flagTitle      string
	flagCategories []string
	flagSkills     []string
	flagSort       string
	flagLimit      int
	flagVerbose    bool
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&flagFile, "file", "f", "", "Read postings from a local CSV file")
	flags.StringVar(&flagURL, "url", "", "Read postings from a remote CSV URL")
	flags.IntVar(&flagMaxRows, "max-rows", 0, "Rows to read from the source (0 keeps the configured value)")
	flags.StringSliceVar(&flagCountries, "country", nil, "Keep postings from these countries")
	flags.StringSliceVar(&flagExperience, "experience", nil, "Keep postings at these experience levels")
	flags.StringVar(&flagTitle, "title", "", "Keep postings whose title contains this text")
	flags.StringSliceVar(&flagCategories, "category", nil, "Keep skills in these categories")
	flags.StringSliceVar(&flagSkills, "skill", nil, "Keep only these skills")
	flags.StringVar(&flagSort, "sort", string(pipeline.SortByAverage), "Pay table order: average, median, premium, jobs or skill")
	flags.IntVarP(&flagLimit, "limit", "n", 0, "Rows to print (0 prints all)")
	flags.BoolVarP(&flagVerbose, "verbose", "v", false, "Log pipeline progress to stderr")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	switch {
	case flagFile != "":
		cfg.Source = config.SourceFile
		cfg.DatasetFile = flagFile
	case flagURL != "":
		cfg.Source = config.SourceRemote
		cfg.DatasetURL = flagURL
	}
	if flagMaxRows > 0 {
		cfg.MaxRows = flagMaxRows
	}
	if cfg.Source == config.SourceScrape {
		return nil, fmt.Errorf("the scrape source is only served by the processing service; use --file or --url")
	}
	// The CLI is a single short-lived process.
	cfg.CacheBackend = config.CacheMemory
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	return cfg, nil
}

func newLogger() (*zap.Logger, error) {
	if flagVerbose {
		return zap.NewDevelopment()
	}
	return zap.NewNop(), nil
}

// buildPipeline returns a pipeline and a func releasing what it opened.
func buildPipeline(ctx context.Context) (*pipeline.Pipeline, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger()
	if err != nil {
		return nil, nil, err
	}
	rules, err := app.NewRules(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load skill rules: %w", err)
	}
	src, release, err := app.NewSource(ctx, cfg, nil, logger)
	if err != nil {
		return nil, nil, err
	}
	c := app.NewCache(cfg)

	cleanup := func() {
		_ = c.Close()
		_ = release()
		_ = logger.Sync()
	}
	return app.NewPipeline(cfg, rules, src, c, logger), cleanup, nil
}

func query() pipeline.Query {
	q := pipeline.Query{
		Countries:        flagCountries,
		ExperienceLevels: flagExperience,
		TitleContains:    flagTitle,
		Skills:           flagSkills,
		SortBy:           pipeline.PaySort(flagSort),
		Limit:            flagLimit,
	}
	for _, c := range flagCategories {
		q.Categories = append(q.Categories, skills.Category(c))
	}
	return q
}

// report prints the notice of a non-real result to stderr and fails when
// nothing is available.
func report[T any](stderr io.Writer, res pipeline.Result[T]) error {
	if res.Notice != "" {
		fmt.Fprintf(stderr, "Note: %s\n", res.Notice)
	}
	if !res.Available() {
		return fmt.Errorf("no data available")
	}
	return nil
}

// run wires a command body to a freshly built pipeline.
func run(body func(ctx context.Context, p *pipeline.Pipeline, cmd *cobra.Command) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		p, cleanup, err := buildPipeline(ctx)
		if err != nil {
			return err
		}
		defer cleanup()
		return body(ctx, p, cmd)
	}
}
