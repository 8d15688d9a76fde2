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
	runCSVPath  string
	runCSVURL   string
	runSeedPath string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline",
	Long: `Run every pipeline stage in order against the local database.

This command:
1. Applies the YAML seed (categories, labels, weights, rules)
2. Validates CSV rows and stages the valid ones
3. Upserts canonical expenses and assigns labels
4. Refreshes priority scores from active label weights
5. Regenerates top-quartile recommendations

Example:
  smartbudget run
  smartbudget run --csv data/sample.csv
  smartbudget run --url "https://docs.google.com/spreadsheets/d/KEY/export?format=csv"`,
	Run: runPipeline,
}

func init() {
	runCmd.Flags().StringVar(&runCSVPath, "csv", "", "CSV file to ingest (default: configured path)")
	runCmd.Flags().StringVar(&runCSVURL, "url", "", "CSV export URL to ingest instead of a file")
	runCmd.Flags().StringVar(&runSeedPath, "seed", "", "Seed file to apply (default: configured path)")
}

func runPipeline(cmd *cobra.Command, args []string) {
	slog.Info("Starting pipeline run")

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

	opts := etl.Options{
		SeedPath: pathResolver.GetSeedPath(),
		CSVPath:  pathResolver.GetCSVPath(),
		CSVURL:   runCSVURL,
	}
	if runCSVPath != "" {
		opts.CSVPath = runCSVPath
	}
	if runSeedPath != "" {
		opts.SeedPath = runSeedPath
	}

	pipeline := etl.NewPipeline(conn, cfg.Ingest.Source)
	result, err := pipeline.Run(opts)
	exitOnError(err, "pipeline run failed")

	// Display results
	fmt.Println("\n=== Pipeline Run ===")
	fmt.Printf("Run ID:          %s\n", result.RunID)
	fmt.Printf("Seed entries:    %d\n", result.Seeded)
	fmt.Printf("Rows staged:     %d (rejected %d)\n", result.Ingest.Valid, result.Ingest.Rejected)
	fmt.Printf("Expenses:        %d\n", result.Transform.Upserted)
	fmt.Printf("Labels assigned: %d\n", result.Transform.LabelsAssigned)
	fmt.Printf("Scored:          %d of %d\n", result.Score.Scored, result.Score.Scorable)
	fmt.Printf("Recommendations: %d\n", result.Recommend.Generated)
	fmt.Println()

	if result.Transform.Unmapped > 0 {
		fmt.Printf("%d raw category value(s) have no mapping; run 'smartbudget stats' for details\n\n", result.Transform.Unmapped)
	}

	slog.Info("Pipeline run completed", "runId", result.RunID)
}
