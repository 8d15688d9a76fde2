package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"smartbudget/pkg/config"
	"smartbudget/pkg/db"
	"smartbudget/pkg/etl"
)

var (
	ingestCSVPath string
	ingestCSVURL  string
)

// ingestCmd represents the ingest command
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Validate and stage CSV rows",
	Long: `Read a spending CSV export, validate every row, and stage the valid
ones for transformation. Invalid rows are reported with their row number
and reason but never block the rest of the file.

The CSV comes from the configured file path, the --csv flag, or a
published-sheet export URL via --url.

Example:
  smartbudget ingest
  smartbudget ingest --csv data/sample.csv
  smartbudget ingest --url "https://docs.google.com/spreadsheets/d/KEY/export?format=csv"`,
	Run: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestCSVPath, "csv", "", "CSV file to ingest (default: configured path)")
	ingestCmd.Flags().StringVar(&ingestCSVURL, "url", "", "CSV export URL to ingest instead of a file")
}

func runIngest(cmd *cobra.Command, args []string) {
	slog.Info("Starting ingest")

	// Load configuration
	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	if err := cfg.Validate([]string{"storage", "dataDir"}, []string{"ingest", "source"}); err != nil {
		exitOnError(err, "invalid configuration")
	}

	pathResolver := newPathResolver(cfg)

	// Open database
	dbPath := pathResolver.GetDatabasePath()
	slog.Debug("Opening database", "path", dbPath)
	conn, err := db.Open(dbPath)
	exitOnError(err, "failed to open database")
	defer conn.Close()

	ingester := etl.NewIngester(conn, cfg.Ingest.Source)

	var result *etl.IngestResult
	if ingestCSVURL != "" {
		body, err := etl.NewFetcher(etl.FetcherConfig{}).Fetch(ingestCSVURL)
		exitOnError(err, "failed to fetch CSV")
		defer body.Close()

		result, err = ingester.Run(body)
		exitOnError(err, "failed to ingest CSV")
	} else {
		path := pathResolver.GetCSVPath()
		if ingestCSVPath != "" {
			path = ingestCSVPath
		}

		result, err = ingester.RunFile(path)
		exitOnError(err, "failed to ingest CSV")
	}

	fmt.Printf("Staged %d rows (%d rejected)\n", result.Valid, result.Rejected)
	for _, rowErr := range result.Errors {
		fmt.Printf("  row %d: %v\n", rowErr.RowIndex, rowErr.Err)
	}

	slog.Info("Ingest completed", "valid", result.Valid, "rejected", result.Rejected)
}
