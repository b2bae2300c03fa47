// Package main is the skilltrends command line client. It runs the
// processing pipeline in process and prints tables to stdout.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "skilltrends",
	Short:        "Skill trend analytics over job postings",
	Long:         "skilltrends extracts skills from job postings and reports popularity over time, growth, pay premiums and category roll-ups. Synthetic data is shown, and labelled, when the dataset is unavailable.",
	SilenceUsage: true,
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
