package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"smartbudget/pkg/config"
	"smartbudget/pkg/db"
	"smartbudget/pkg/etl"
)

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Refresh priority scores",
	Long: `Compute the priority score of every labeled expense from the active
label weights, decayed by 0.6 per month of expense age, and bucket the
results into High, Medium, and Low by normalized score.

Scores are replaced on every run, so re-scoring after a weight change
is safe.

Example:
  smartbudget score`,
	Run: runScore,
}

func runScore(cmd *cobra.Command, args []string) {
	slog.Info("Starting scoring")

	// Load configuration
	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	if err := cfg.Validate([]string{"storage", "dataDir"}); err != nil {
		exitOnError(err, "invalid configuration")
	}

	pathResolver := newPathResolver(cfg)

	// Open database
	dbPath := pathResolver.GetDatabasePath()
	slog.Debug("Opening database", "path", dbPath)
	conn, err := db.Open(dbPath)
	exitOnError(err, "failed to open database")
	defer conn.Close()

	result, err := etl.NewScorer(conn).Run()
	exitOnError(err, "failed to score expenses")

	fmt.Printf("Scored %d of %d scorable expenses\n", result.Scored, result.Scorable)

	slog.Info("Scoring completed", "scored", result.Scored)
}
