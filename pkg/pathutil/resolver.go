// Package pathutil provides centralized path management for the data
// directory, database file, seed file, and generated reports.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathResolver manages paths for the database file, input CSVs, the seed
// file, and monthly spending reports.
type PathResolver struct {
	dataDir      string
	databasePath string
	csvPath      string
	seedPath     string
	reportsDir   string
}

// Config represents the configuration for PathResolver.
type Config struct {
	// DataDir is the root directory for pipeline data (e.g. ./data)
	DataDir string
	// DatabasePath is the path to the SQLite database file
	DatabasePath string
	// CSVPath is the path to the input transaction CSV
	CSVPath string
	// SeedPath is the path to the YAML seed file
	SeedPath string
	// ReportsDir is the directory for generated monthly reports
	ReportsDir string
}

// New creates a new PathResolver with the given configuration.
// If DataDir is empty, it defaults to ./data
// If DatabasePath is empty, it defaults to {DataDir}/smartbudget.db
// If CSVPath is empty, it defaults to {DataDir}/sample.csv
// If SeedPath is empty, it defaults to config/seed.yaml
// If ReportsDir is empty, it defaults to {DataDir}/reports
func New(config Config) *PathResolver {
	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "data"
	}

	dbPath := config.DatabasePath
	if dbPath == "" {
		dbPath = filepath.Join(dataDir, "smartbudget.db")
	}

	csvPath := config.CSVPath
	if csvPath == "" {
		csvPath = filepath.Join(dataDir, "sample.csv")
	}

	seedPath := config.SeedPath
	if seedPath == "" {
		seedPath = filepath.Join("config", "seed.yaml")
	}

	reportsDir := config.ReportsDir
	if reportsDir == "" {
		reportsDir = filepath.Join(dataDir, "reports")
	}

	return &PathResolver{
		dataDir:      dataDir,
		databasePath: dbPath,
		csvPath:      csvPath,
		seedPath:     seedPath,
		reportsDir:   reportsDir,
	}
}

// FromEnv creates a PathResolver from environment variables.
// Expected environment variables (all optional):
//   - SMARTBUDGET_DATA_DIR: Root directory for pipeline data
//   - SMARTBUDGET_DB_PATH: Database file path
//   - SMARTBUDGET_CSV_PATH: Input CSV file path
//   - SMARTBUDGET_SEED_PATH: YAML seed file path
//   - SMARTBUDGET_REPORTS_DIR: Reports directory
func FromEnv() *PathResolver {
	return New(Config{
		DataDir:      os.Getenv("SMARTBUDGET_DATA_DIR"),
		DatabasePath: os.Getenv("SMARTBUDGET_DB_PATH"),
		CSVPath:      os.Getenv("SMARTBUDGET_CSV_PATH"),
		SeedPath:     os.Getenv("SMARTBUDGET_SEED_PATH"),
		ReportsDir:   os.Getenv("SMARTBUDGET_REPORTS_DIR"),
	})
}

// GetDataDir returns the data root directory.
func (p *PathResolver) GetDataDir() string {
	return p.dataDir
}

// GetDatabasePath returns the database file path.
func (p *PathResolver) GetDatabasePath() string {
	return p.databasePath
}

// GetCSVPath returns the input CSV file path.
func (p *PathResolver) GetCSVPath() string {
	return p.csvPath
}

// GetSeedPath returns the YAML seed file path.
func (p *PathResolver) GetSeedPath() string {
	return p.seedPath
}

// GetReportsDir returns the reports root directory.
func (p *PathResolver) GetReportsDir() string {
	return p.reportsDir
}

// GetReportYearDir returns the directory path for a report year.
// Example: data/reports/2026
func (p *PathResolver) GetReportYearDir(year string) string {
	return filepath.Join(p.reportsDir, year)
}

// GetReportFilePath returns the report file path for a month.
// yearMonth should be in YYYY-MM format.
// Example: data/reports/2026/2026-08.md
func (p *PathResolver) GetReportFilePath(yearMonth string) (string, error) {
	parts := strings.Split(yearMonth, "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return "", fmt.Errorf("invalid year-month format: %s. Expected YYYY-MM", yearMonth)
	}

	year := parts[0]
	filename := fmt.Sprintf("%s.md", yearMonth)

	return filepath.Join(p.GetReportYearDir(year), filename), nil
}

// EnsureDir creates a directory if it doesn't exist.
// It creates all parent directories as needed (like mkdir -p).
func (p *PathResolver) EnsureDir(dirPath string) error {
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dirPath, err)
	}
	return nil
}

// EnsureParentDir ensures the parent directory of a file exists.
func (p *PathResolver) EnsureParentDir(filePath string) error {
	dir := filepath.Dir(filePath)
	return p.EnsureDir(dir)
}

// FileExists checks if a file exists.
func (p *PathResolver) FileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return err == nil
}

// IsDir checks if a path is a directory.
func (p *PathResolver) IsDir(dirPath string) bool {
	info, err := os.Stat(dirPath)
	if err != nil {
		return false
	}
	return info.IsDir()
}
