package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"smartbudget/pkg/config"
	"smartbudget/pkg/db"
	"smartbudget/pkg/etl"
)

// recommendCmd represents the recommend command
var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Regenerate savings recommendations",
	Long: `Rank expenses by amount weighted with their active label weight and
store one review recommendation per top-quartile expense.

Recommendation ids derive from expense ids, so re-running refreshes the
set in place instead of duplicating it.

Example:
  smartbudget recommend`,
	Run: runRecommend,
}

func runRecommend(cmd *cobra.Command, args []string) {
	slog.Info("Starting recommendation generation")

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

	result, err := etl.NewRecommender(conn).Run()
	exitOnError(err, "failed to generate recommendations")

	fmt.Printf("Generated %d recommendations from %d candidates\n", result.Generated, result.Candidates)

	slog.Info("Recommendation generation completed", "generated", result.Generated)
}
