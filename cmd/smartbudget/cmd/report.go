package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"smartbudget/pkg/config"
	"smartbudget/pkg/db"
	"smartbudget/pkg/report"
)

var (
	reportMonth string
	reportList  bool
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a monthly spending report",
	Long: `Render one month of the analytical tables as a Markdown report under
the reports directory (reports/<year>/<YYYY-MM>.md). Re-running a month
replaces its report.

Example:
  smartbudget report --month 2026-08
  smartbudget report --list`,
	Run: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportMonth, "month", "", "Report month (YYYY-MM)")
	reportCmd.Flags().BoolVar(&reportList, "list", false, "List generated report months")
}

func runReport(cmd *cobra.Command, args []string) {
	// Load configuration
	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	if err := cfg.Validate([]string{"storage", "dataDir"}); err != nil {
		exitOnError(err, "invalid configuration")
	}

	pathResolver := newPathResolver(cfg)
	repo := report.NewFileSystemRepository(pathResolver)

	if reportList {
		months, err := repo.ListMonths()
		exitOnError(err, "failed to list reports")

		if len(months) == 0 {
			fmt.Println("No reports generated yet")
			return
		}
		for _, month := range months {
			fmt.Println(month)
		}
		return
	}

	if reportMonth == "" {
		exitOnError(fmt.Errorf("either --month or --list is required"), "invalid arguments")
	}

	// Open database
	dbPath := pathResolver.GetDatabasePath()
	slog.Debug("Opening database", "path", dbPath)
	conn, err := db.Open(dbPath)
	exitOnError(err, "failed to open database")
	defer conn.Close()

	content, err := report.NewGenerator(conn, repo).Generate(reportMonth)
	exitOnError(err, "failed to generate report")

	path, err := pathResolver.GetReportFilePath(reportMonth)
	exitOnError(err, "failed to resolve report path")

	fmt.Printf("Wrote %s (%d bytes)\n", path, len(content))
}
