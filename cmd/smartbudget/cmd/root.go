// Package cmd provides CLI commands for the smartbudget tool.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"smartbudget/pkg/config"
	"smartbudget/pkg/pathutil"
)

var (
	cfgFile string
	debug   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "smartbudget",
	Short: "Personal spending ETL pipeline and insights",
	Long: `smartbudget ingests spending CSV exports into an embedded SQLite
database, derives priority scores and savings recommendations, and
exposes the results through reports and a JSON API.

It supports:
- Seeding reference data (categories, labels, weights, rules) from YAML
- Validating and staging CSV rows from a file or a published-sheet URL
- Transforming staged rows into canonical labeled expenses
- Scoring spending with recency-decayed label weights
- Monthly Markdown reports and an HTTP API for dashboards

Example:
  smartbudget run --csv data/sample.csv
  smartbudget report --month 2026-08
  smartbudget serve`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Load the env file before logging setup so LOG_LEVEL and
		// APP_ENV from it take effect.
		if cfgFile != "" {
			_ = godotenv.Load(cfgFile)
		} else {
			_ = godotenv.Load()
		}

		logLevel := slog.LevelInfo
		if level := os.Getenv("LOG_LEVEL"); level != "" {
			_ = logLevel.UnmarshalText([]byte(level))
		}
		if debug {
			logLevel = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{Level: logLevel}
		var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
		if os.Getenv("APP_ENV") == "production" {
			handler = slog.NewJSONHandler(os.Stderr, opts)
		}
		slog.SetDefault(slog.New(handler))
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file path (default: .env)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(transformCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(labelsCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(serveCmd)
}

// Helper functions

// getConfigFile returns the config file path from flag or default
func getConfigFile() string {
	if cfgFile != "" {
		return cfgFile
	}
	return ""
}

// newPathResolver builds the path resolver from loaded configuration.
func newPathResolver(cfg *config.Config) *pathutil.PathResolver {
	return pathutil.New(pathutil.Config{
		DataDir:      cfg.Storage.DataDir,
		DatabasePath: cfg.Storage.DBPath,
		CSVPath:      cfg.Ingest.CSVPath,
		SeedPath:     cfg.Ingest.SeedPath,
		ReportsDir:   cfg.Storage.ReportsDir,
	})
}

// exitOnError logs the error and exits if err is not nil
func exitOnError(err error, msg string) {
	if err != nil {
		slog.Error(msg, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}
