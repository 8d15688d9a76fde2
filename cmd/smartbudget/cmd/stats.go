package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"smartbudget/pkg/config"
	"smartbudget/pkg/db"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show pipeline statistics",
	Long: `Display statistics about the analytical database:
- Expense, label, score, and recommendation counts
- Raw category values still waiting for a mapping
- The most recent run of every pipeline stage

Example:
  smartbudget stats`,
	Run: runStats,
}

func runStats(cmd *cobra.Command, args []string) {
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

	runs := db.NewRuns(conn)

	stats, err := runs.GetStats()
	exitOnError(err, "failed to get statistics")

	// Display statistics
	fmt.Println("\n=== Pipeline Statistics ===")
	fmt.Printf("Total expenses:       %d\n", stats.TotalExpenses)
	fmt.Printf("Labeled expenses:     %d\n", stats.LabeledExpenses)
	fmt.Printf("Scored expenses:      %d\n", stats.ScoredExpenses)
	fmt.Printf("Recommendations:      %d\n", stats.TotalRecommendations)
	fmt.Printf("Unmapped categories:  %d\n", stats.UnmappedCategories)
	if stats.LastRunStarted.Valid {
		fmt.Printf("Last run started:     %s\n", stats.LastRunStarted.String)
	} else {
		fmt.Printf("Last run started:     (never)\n")
	}
	fmt.Println()

	if stats.UnmappedCategories > 0 {
		unmapped, err := db.NewReference(conn).ListUnmapped()
		exitOnError(err, "failed to list unmapped categories")

		fmt.Println("Unmapped category values:")
		for _, u := range unmapped {
			fmt.Printf("  %-24s source %s, first seen %s\n",
				u.RawValue, u.SourceSystem, u.FirstSeenAt.Format("2006-01-02"))
		}
		fmt.Println()
	}

	lastRuns, err := runs.GetLastRuns()
	exitOnError(err, "failed to get run history")

	if len(lastRuns) > 0 {
		fmt.Println("Latest stage runs:")
		for _, run := range lastRuns {
			finished := "(running)"
			if run.FinishedAt.Valid {
				finished = run.FinishedAt.Time.Format("2006-01-02 15:04:05")
			}
			fmt.Printf("  %-10s %-8s rows %d -> %d  finished %s\n",
				run.Stage, run.Status, run.RowsIn, run.RowsOut, finished)
			if run.Error.Valid {
				fmt.Printf("             error: %s\n", run.Error.String)
			}
		}
		fmt.Println()
	}
}
