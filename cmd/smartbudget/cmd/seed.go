package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"smartbudget/pkg/config"
	"smartbudget/pkg/db"
	"smartbudget/pkg/etl"
)

var seedFilePath string

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Apply reference data from the seed file",
	Long: `Apply categories, payment modes, category mappings, labels, label
weights, and label rules from the YAML seed file.

Seeding is idempotent: existing rows are kept, missing ones are added,
and label weights already present are not re-opened. When the seed file
does not exist the built-in defaults are applied instead.

Example:
  smartbudget seed
  smartbudget seed --file config/seed.yaml`,
	Run: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedFilePath, "file", "", "Seed file to apply (default: configured path)")
}

func runSeed(cmd *cobra.Command, args []string) {
	slog.Info("Starting seed")

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

	path := pathResolver.GetSeedPath()
	if seedFilePath != "" {
		path = seedFilePath
	}

	seedCfg, err := etl.LoadSeedConfigOrDefault(path)
	exitOnError(err, "failed to load seed file")

	applied, err := etl.NewSeeder(conn).Apply(seedCfg)
	exitOnError(err, "failed to apply seed")

	fmt.Printf("Applied %d seed entries\n", applied)

	slog.Info("Seed completed", "entries", applied)
}
