package report

import (
	"os"
	"strings"
	"testing"

	"smartbudget/pkg/pathutil"
)

func newTestRepo(t *testing.T) *FileSystemRepository {
	t.Helper()

	resolver := pathutil.New(pathutil.Config{DataDir: t.TempDir()})
	return NewFileSystemRepository(resolver)
}

func TestWriteAndReadMonthReport(t *testing.T) {
	repo := newTestRepo(t)

	content := "# Spending report for 2026-08\n"
	if err := repo.WriteMonthReport("2026-08", content); err != nil {
		t.Fatalf("WriteMonthReport() error = %v", err)
	}

	got, err := repo.ReadMonthReport("2026-08")
	if err != nil {
		t.Fatalf("ReadMonthReport() error = %v", err)
	}
	if got != content {
		t.Errorf("ReadMonthReport() = %q, expected %q", got, content)
	}
}

func TestWriteMonthReportOverwrites(t *testing.T) {
	repo := newTestRepo(t)

	if err := repo.WriteMonthReport("2026-08", "first\n"); err != nil {
		t.Fatalf("WriteMonthReport() error = %v", err)
	}
	if err := repo.WriteMonthReport("2026-08", "second\n"); err != nil {
		t.Fatalf("WriteMonthReport() rerun error = %v", err)
	}

	got, err := repo.ReadMonthReport("2026-08")
	if err != nil {
		t.Fatalf("ReadMonthReport() error = %v", err)
	}
	if got != "second\n" {
		t.Errorf("ReadMonthReport() = %q, expected the rewritten content", got)
	}
}

func TestWriteMonthReportLeavesNoTempFiles(t *testing.T) {
	resolver := pathutil.New(pathutil.Config{DataDir: t.TempDir()})
	repo := NewFileSystemRepository(resolver)

	if err := repo.WriteMonthReport("2026-08", "report\n"); err != nil {
		t.Fatalf("WriteMonthReport() error = %v", err)
	}

	entries, err := os.ReadDir(resolver.GetReportYearDir("2026"))
	if err != nil {
		t.Fatalf("failed to read year directory: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "2026-08.md" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("year directory = %v, expected only 2026-08.md", names)
	}
}

func TestWriteMonthReportInvalidMonth(t *testing.T) {
	repo := newTestRepo(t)

	err := repo.WriteMonthReport("2026-8", "report\n")
	if err == nil {
		t.Fatal("WriteMonthReport() expected error for malformed month")
	}
	if !strings.Contains(err.Error(), "invalid year-month format") {
		t.Errorf("WriteMonthReport() error = %q, expected a format error", err)
	}
}

func TestReadMonthReportMissing(t *testing.T) {
	repo := newTestRepo(t)

	got, err := repo.ReadMonthReport("2026-01")
	if err != nil {
		t.Fatalf("ReadMonthReport() error = %v", err)
	}
	if got != "" {
		t.Errorf("ReadMonthReport() = %q, expected empty string for a missing report", got)
	}
}

func TestMonthReportExists(t *testing.T) {
	repo := newTestRepo(t)

	if repo.MonthReportExists("2026-08") {
		t.Error("MonthReportExists() = true before any write")
	}

	if err := repo.WriteMonthReport("2026-08", "report\n"); err != nil {
		t.Fatalf("WriteMonthReport() error = %v", err)
	}

	if !repo.MonthReportExists("2026-08") {
		t.Error("MonthReportExists() = false after write")
	}
}

func TestGetMonthsInYear(t *testing.T) {
	repo := newTestRepo(t)

	for _, month := range []string{"2025-12", "2026-01", "2026-03"} {
		if err := repo.WriteMonthReport(month, "report\n"); err != nil {
			t.Fatalf("WriteMonthReport(%s) error = %v", month, err)
		}
	}

	months, err := repo.GetMonthsInYear("2026")
	if err != nil {
		t.Fatalf("GetMonthsInYear() error = %v", err)
	}
	if len(months) != 2 || months[0] != "2026-01" || months[1] != "2026-03" {
		t.Errorf("GetMonthsInYear() = %v, expected [2026-01 2026-03]", months)
	}

	empty, err := repo.GetMonthsInYear("2030")
	if err != nil {
		t.Fatalf("GetMonthsInYear() error = %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("GetMonthsInYear() = %v for a year with no reports, expected none", empty)
	}
}

func TestListMonths(t *testing.T) {
	repo := newTestRepo(t)

	for _, month := range []string{"2026-01", "2025-12", "2026-03"} {
		if err := repo.WriteMonthReport(month, "report\n"); err != nil {
			t.Fatalf("WriteMonthReport(%s) error = %v", month, err)
		}
	}

	months, err := repo.ListMonths()
	if err != nil {
		t.Fatalf("ListMonths() error = %v", err)
	}

	expected := []string{"2025-12", "2026-01", "2026-03"}
	if len(months) != len(expected) {
		t.Fatalf("ListMonths() = %v, expected %v", months, expected)
	}
	for i := range expected {
		if months[i] != expected[i] {
			t.Errorf("ListMonths() = %v, expected %v", months, expected)
			break
		}
	}
}

func TestListMonthsEmpty(t *testing.T) {
	repo := newTestRepo(t)

	months, err := repo.ListMonths()
	if err != nil {
		t.Fatalf("ListMonths() error = %v", err)
	}
	if len(months) != 0 {
		t.Errorf("ListMonths() = %v, expected none", months)
	}
}
