package report

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"smartbudget/pkg/db"
	"smartbudget/pkg/etl"
)

// monthLayout is the year-month format reports are keyed by.
const monthLayout = "2006-01"

// Generator builds monthly Markdown reports from the analytical tables.
type Generator struct {
	summary *db.Summary
	repo    Repository
	now     func() time.Time
}

// NewGenerator creates a new Generator.
func NewGenerator(conn *db.Connection, repo Repository) *Generator {
	return &Generator{
		summary: db.NewSummary(conn),
		repo:    repo,
		now:     time.Now,
	}
}

// Generate renders the report for a month (YYYY-MM) and writes it through
// the repository. Returns the rendered content.
func (g *Generator) Generate(yearMonth string) (string, error) {
	from, to, err := monthWindow(yearMonth)
	if err != nil {
		return "", err
	}

	summary, err := g.summary.GetMonthSummary(from, to)
	if err != nil {
		return "", fmt.Errorf("failed to summarize month %s: %w", yearMonth, err)
	}

	content := g.render(yearMonth, summary)

	if err := g.repo.WriteMonthReport(yearMonth, content); err != nil {
		return "", fmt.Errorf("failed to write report for %s: %w", yearMonth, err)
	}

	slog.Info("Report written",
		"month", yearMonth,
		"expenses", summary.ExpenseCount,
		"total", summary.TotalAmount)

	return content, nil
}

// render formats a month summary as Markdown.
func (g *Generator) render(yearMonth string, s *db.MonthSummary) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Spending report for %s\n\n", yearMonth))
	sb.WriteString(fmt.Sprintf("Generated at %s.\n\n", g.now().Format(time.RFC3339)))

	if s.ExpenseCount == 0 {
		sb.WriteString("No expenses recorded for this month.\n")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("Total spend **$%.2f** across **%d** expense(s).\n\n",
		s.TotalAmount, s.ExpenseCount))

	sb.WriteString("## By category\n\n")
	sb.WriteString("| Category | Labels | Expenses | Total |\n")
	sb.WriteString("|----------|--------|---------:|------:|\n")
	for _, cat := range s.Categories {
		sb.WriteString(fmt.Sprintf("| %s | %s | %d | $%.2f |\n",
			cat.CategoryName, formatLabels(cat.Labels), cat.Count, cat.Total))
	}
	sb.WriteString("\n")

	sb.WriteString("## Priority buckets\n\n")
	sb.WriteString("| Bucket | Expenses |\n")
	sb.WriteString("|--------|---------:|\n")
	for _, bucket := range []string{etl.BucketHigh, etl.BucketMedium, etl.BucketLow} {
		sb.WriteString(fmt.Sprintf("| %s | %d |\n", bucket, s.BucketCounts[bucket]))
	}
	sb.WriteString("\n")

	sb.WriteString("## Recommendations\n\n")
	if len(s.Recommendations) == 0 {
		sb.WriteString("None for this month.\n")
		return sb.String()
	}
	for _, rec := range s.Recommendations {
		sb.WriteString(fmt.Sprintf("- %s\n", rec.Message))
	}

	return sb.String()
}

// Helper functions

func monthWindow(yearMonth string) (time.Time, time.Time, error) {
	from, err := time.Parse(monthLayout, yearMonth)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid year-month format: %s. Expected YYYY-MM", yearMonth)
	}
	return from, from.AddDate(0, 1, 0), nil
}

func formatLabels(labels []string) string {
	if len(labels) == 0 {
		return "-"
	}
	return strings.Join(labels, ", ")
}
