package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"smartbudget/pkg/config"
	"smartbudget/pkg/db"
	"smartbudget/pkg/etl"
)

// transformCmd represents the transform command
var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Transform staged rows into expenses",
	Long: `Upsert canonical expenses from the staged CSV rows, resolve raw
category values through the category mappings, and assign labels from
the label rules.

Raw category values with no mapping leave the expense uncategorized and
are recorded for curation; the command lists them when any exist.

Example:
  smartbudget transform`,
	Run: runTransform,
}

func runTransform(cmd *cobra.Command, args []string) {
	slog.Info("Starting transform")

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

	result, err := etl.NewTransformer(conn, cfg.Ingest.Source).Run()
	exitOnError(err, "failed to transform staged rows")

	fmt.Printf("Upserted %d expenses from %d staged rows (%d labels assigned)\n",
		result.Upserted, result.Staged, result.LabelsAssigned)

	if result.Unmapped > 0 {
		unmapped, err := db.NewReference(conn).ListUnmapped()
		exitOnError(err, "failed to list unmapped categories")

		fmt.Println("\nUnmapped category values:")
		for _, u := range unmapped {
			fmt.Printf("  %-24s source %s, first seen %s\n",
				u.RawValue, u.SourceSystem, u.FirstSeenAt.Format("2006-01-02"))
		}
	}

	slog.Info("Transform completed",
		"upserted", result.Upserted,
		"labelsAssigned", result.LabelsAssigned,
		"unmapped", result.Unmapped)
}
