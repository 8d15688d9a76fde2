// Package report renders monthly spending summaries as Markdown files.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"smartbudget/pkg/pathutil"
)

// Repository defines the interface for report file operations.
type Repository interface {
	// WriteMonthReport writes a monthly report, replacing any existing one
	WriteMonthReport(yearMonth, content string) error

	// ReadMonthReport reads the content of a monthly report
	ReadMonthReport(yearMonth string) (string, error)

	// MonthReportExists checks if a monthly report exists
	MonthReportExists(yearMonth string) bool

	// GetMonthsInYear gets all report months in a year
	GetMonthsInYear(year string) ([]string, error)

	// ListMonths gets all report months across years
	ListMonths() ([]string, error)
}

// FileSystemRepository is a file system implementation of Repository.
type FileSystemRepository struct {
	pathResolver *pathutil.PathResolver
}

// NewFileSystemRepository creates a new FileSystemRepository.
func NewFileSystemRepository(pathResolver *pathutil.PathResolver) *FileSystemRepository {
	return &FileSystemRepository{
		pathResolver: pathResolver,
	}
}

// WriteMonthReport writes a monthly report, replacing any existing one.
// The content lands in a temp file first and is renamed into place; rename
// is atomic on the same filesystem, so a reader never sees a partial report.
func (r *FileSystemRepository) WriteMonthReport(yearMonth, content string) error {
	filePath, err := r.pathResolver.GetReportFilePath(yearMonth)
	if err != nil {
		return fmt.Errorf("failed to get report file path: %w", err)
	}

	if err := r.pathResolver.EnsureParentDir(filePath); err != nil {
		return fmt.Errorf("failed to ensure report directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(filePath), "."+yearMonth+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp report file: %w", err)
	}

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write temp report file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp report file: %w", err)
	}

	if err := os.Rename(tmp.Name(), filePath); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to move report into place: %w", err)
	}

	return nil
}

// ReadMonthReport reads the content of a monthly report.
// Returns empty string if the report doesn't exist.
func (r *FileSystemRepository) ReadMonthReport(yearMonth string) (string, error) {
	filePath, err := r.pathResolver.GetReportFilePath(yearMonth)
	if err != nil {
		return "", fmt.Errorf("failed to get report file path: %w", err)
	}

	if !r.pathResolver.FileExists(filePath) {
		return "", nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read report file: %w", err)
	}

	return string(data), nil
}

// MonthReportExists checks if a monthly report exists.
func (r *FileSystemRepository) MonthReportExists(yearMonth string) bool {
	filePath, err := r.pathResolver.GetReportFilePath(yearMonth)
	if err != nil {
		return false
	}

	return r.pathResolver.FileExists(filePath)
}

// GetMonthsInYear gets all report months in a year.
// Returns a slice of year-month strings (e.g., ["2026-01", "2026-02"]).
func (r *FileSystemRepository) GetMonthsInYear(year string) ([]string, error) {
	yearDir := r.pathResolver.GetReportYearDir(year)
	if !r.pathResolver.IsDir(yearDir) {
		return []string{}, nil
	}

	entries, err := os.ReadDir(yearDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read year directory: %w", err)
	}

	var months []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if filepath.Ext(name) == ".md" {
			// Remove .md extension to get YYYY-MM
			months = append(months, name[:len(name)-len(".md")])
		}
	}

	return months, nil
}

// ListMonths gets all report months across years, oldest first.
func (r *FileSystemRepository) ListMonths() ([]string, error) {
	reportsDir := r.pathResolver.GetReportsDir()
	if !r.pathResolver.IsDir(reportsDir) {
		return []string{}, nil
	}

	entries, err := os.ReadDir(reportsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read reports directory: %w", err)
	}

	months := []string{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		yearMonths, err := r.GetMonthsInYear(entry.Name())
		if err != nil {
			return nil, err
		}
		months = append(months, yearMonths...)
	}

	sort.Strings(months)
	return months, nil
}
