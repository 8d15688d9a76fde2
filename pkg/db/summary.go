package db

import (
	"fmt"
	"time"
)

// CategorySpend aggregates one category's spending inside a month window.
type CategorySpend struct {
	CategoryName string // "Uncategorized" when the expense has no category
	Labels       []string
	Count        int
	Total        float64
}

// MonthRecommendation pairs a recommendation with its related expense.
type MonthRecommendation struct {
	Message     string
	Confidence  float64
	ProductName string
	Amount      float64
}

// MonthSummary aggregates one calendar month of the analytical tables.
type MonthSummary struct {
	TotalAmount     float64
	ExpenseCount    int
	Categories      []CategorySpend
	BucketCounts    map[string]int
	Recommendations []MonthRecommendation
}

// Summary reads month-windowed aggregates for reporting.
type Summary struct {
	conn *Connection
}

// NewSummary creates a new Summary instance.
func NewSummary(conn *Connection) *Summary {
	return &Summary{conn: conn}
}

// GetMonthSummary aggregates expenses with occurred_at in [from, to).
func (s *Summary) GetMonthSummary(from, to time.Time) (*MonthSummary, error) {
	summary := &MonthSummary{
		BucketCounts: make(map[string]int),
	}

	err := s.conn.QueryRow(`
		SELECT COALESCE(SUM(amount), 0), COUNT(*)
		FROM expenses
		WHERE occurred_at >= ? AND occurred_at < ?
	`, from, to).Scan(&summary.TotalAmount, &summary.ExpenseCount)
	if err != nil {
		return nil, fmt.Errorf("failed to get month totals: %w", err)
	}

	categories, err := s.categorySpend(from, to)
	if err != nil {
		return nil, err
	}
	summary.Categories = categories

	bucketRows, err := s.conn.Query(`
		SELECT es.bucket, COUNT(*)
		FROM expense_scores es
		JOIN expenses e ON es.expense_id = e.expense_id
		WHERE e.occurred_at >= ? AND e.occurred_at < ?
		GROUP BY es.bucket
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to count month buckets: %w", err)
	}
	defer bucketRows.Close()

	for bucketRows.Next() {
		var bucket string
		var count int

		if err := bucketRows.Scan(&bucket, &count); err != nil {
			return nil, fmt.Errorf("failed to scan month bucket: %w", err)
		}

		summary.BucketCounts[bucket] = count
	}

	recRows, err := s.conn.Query(`
		SELECT r.message, r.confidence, e.product_name, e.amount
		FROM recommendations r
		JOIN expenses e ON r.related_expense_id = e.expense_id
		WHERE e.occurred_at >= ? AND e.occurred_at < ?
		ORDER BY r.confidence DESC, r.recommendation_id
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list month recommendations: %w", err)
	}
	defer recRows.Close()

	for recRows.Next() {
		var rec MonthRecommendation

		if err := recRows.Scan(&rec.Message, &rec.Confidence, &rec.ProductName, &rec.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan month recommendation: %w", err)
		}

		summary.Recommendations = append(summary.Recommendations, rec)
	}

	return summary, nil
}

// categorySpend aggregates totals per category, then attaches label names in
// a second query. Joining expense_labels into the totals query would count an
// expense once per label.
func (s *Summary) categorySpend(from, to time.Time) ([]CategorySpend, error) {
	rows, err := s.conn.Query(`
		SELECT COALESCE(c.name, 'Uncategorized') AS category,
		       COUNT(*), COALESCE(SUM(e.amount), 0)
		FROM expenses e
		LEFT JOIN categories c ON e.category_id = c.category_id
		WHERE e.occurred_at >= ? AND e.occurred_at < ?
		GROUP BY category
		ORDER BY SUM(e.amount) DESC, category
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate category spend: %w", err)
	}
	defer rows.Close()

	var result []CategorySpend
	index := make(map[string]int)

	for rows.Next() {
		var cs CategorySpend

		if err := rows.Scan(&cs.CategoryName, &cs.Count, &cs.Total); err != nil {
			return nil, fmt.Errorf("failed to scan category spend: %w", err)
		}

		index[cs.CategoryName] = len(result)
		result = append(result, cs)
	}

	labelRows, err := s.conn.Query(`
		SELECT DISTINCT COALESCE(c.name, 'Uncategorized') AS category, l.name
		FROM expenses e
		LEFT JOIN categories c ON e.category_id = c.category_id
		JOIN expense_labels el ON e.expense_id = el.expense_id
		JOIN labels l ON el.label_id = l.label_id
		WHERE e.occurred_at >= ? AND e.occurred_at < ?
		ORDER BY category, l.name
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list category labels: %w", err)
	}
	defer labelRows.Close()

	for labelRows.Next() {
		var category, label string

		if err := labelRows.Scan(&category, &label); err != nil {
			return nil, fmt.Errorf("failed to scan category label: %w", err)
		}

		if i, ok := index[category]; ok {
			result[i].Labels = append(result[i].Labels, label)
		}
	}

	return result, nil
}
