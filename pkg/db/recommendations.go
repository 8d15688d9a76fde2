package db

import (
	"database/sql"
	"fmt"
	"time"
)

// RecommendationCandidate is an expense ranked by weighted amount.
// Weight is the expense's active label weight, 1.0 when unlabeled.
type RecommendationCandidate struct {
	ExpenseID   int64
	ProductName string
	Amount      float64
	Weight      float64
}

// Recommendation represents a stored spending recommendation.
type Recommendation struct {
	RecommendationID int64
	GeneratedAt      time.Time
	Message          string
	Confidence       float64
	RelatedExpenseID sql.NullInt64
}

// Recommendations manages spending recommendations.
type Recommendations struct {
	conn *Connection
}

// NewRecommendations creates a new Recommendations instance.
func NewRecommendations(conn *Connection) *Recommendations {
	return &Recommendations{conn: conn}
}

// ListCandidates retrieves every expense with its active label weight,
// ordered by weighted amount descending (expense id breaks ties).
// An expense with several labels contributes once, with its highest
// active weight.
func (r *Recommendations) ListCandidates() ([]RecommendationCandidate, error) {
	query := `
		SELECT e.expense_id, e.product_name, e.amount,
		       COALESCE(MAX(lw.weight), 1.0) AS weight
		FROM expenses e
		LEFT JOIN expense_labels el ON e.expense_id = el.expense_id
		LEFT JOIN label_weights lw
			ON el.label_id = lw.label_id AND lw.effective_to IS NULL
		GROUP BY e.expense_id, e.product_name, e.amount
		ORDER BY e.amount * COALESCE(MAX(lw.weight), 1.0) DESC, e.expense_id
	`

	rows, err := r.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list recommendation candidates: %w", err)
	}
	defer rows.Close()

	var result []RecommendationCandidate
	for rows.Next() {
		var c RecommendationCandidate

		if err := rows.Scan(&c.ExpenseID, &c.ProductName, &c.Amount, &c.Weight); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation candidate: %w", err)
		}

		result = append(result, c)
	}

	return result, nil
}

// UpsertBatch stores recommendations inside a single transaction.
// Re-generating a recommendation refreshes generated_at and confidence
// without duplicating the row; the message is kept as first written.
func (r *Recommendations) UpsertBatch(recs []Recommendation) error {
	return r.conn.Transaction(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO recommendations
				(recommendation_id, generated_at, message, confidence, related_expense_id)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(recommendation_id) DO UPDATE SET
				generated_at = excluded.generated_at,
				confidence = excluded.confidence
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare recommendation upsert: %w", err)
		}
		defer stmt.Close()

		for _, rec := range recs {
			if _, err := stmt.Exec(
				rec.RecommendationID,
				rec.GeneratedAt,
				rec.Message,
				rec.Confidence,
				rec.RelatedExpenseID,
			); err != nil {
				return fmt.Errorf("failed to upsert recommendation %d: %w", rec.RecommendationID, err)
			}
		}

		return nil
	})
}

// List retrieves all recommendations, highest confidence first.
func (r *Recommendations) List() ([]Recommendation, error) {
	query := `
		SELECT recommendation_id, generated_at, message, confidence, related_expense_id
		FROM recommendations
		ORDER BY confidence DESC, recommendation_id
	`

	rows, err := r.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list recommendations: %w", err)
	}
	defer rows.Close()

	var result []Recommendation
	for rows.Next() {
		var rec Recommendation

		if err := rows.Scan(
			&rec.RecommendationID,
			&rec.GeneratedAt,
			&rec.Message,
			&rec.Confidence,
			&rec.RelatedExpenseID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}

		result = append(result, rec)
	}

	return result, nil
}

// Count returns the total number of recommendations.
func (r *Recommendations) Count() (int, error) {
	var count int
	err := r.conn.QueryRow(`SELECT COUNT(*) FROM recommendations`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count recommendations: %w", err)
	}
	return count, nil
}
