package db

import (
	"database/sql"
	"fmt"
	"time"
)

// ScorableExpense is one (expense, active label weight) pair feeding the
// priority score. An expense appears once per label with an active weight.
type ScorableExpense struct {
	ExpenseID  int64
	Amount     float64
	Weight     float64
	OccurredAt time.Time
}

// ExpenseScore represents a derived priority score for an expense.
type ExpenseScore struct {
	ExpenseID     int64
	PriorityScore float64
	ScoreNorm     float64
	Bucket        string
	ScoredAt      time.Time
}

// Scores manages derived priority scores.
type Scores struct {
	conn *Connection
}

// NewScores creates a new Scores instance.
func NewScores(conn *Connection) *Scores {
	return &Scores{conn: conn}
}

// ListScorable retrieves every (expense, active label weight) pair.
// Only weights with effective_to IS NULL participate.
func (s *Scores) ListScorable() ([]ScorableExpense, error) {
	query := `
		SELECT el.expense_id, e.amount, lw.weight, e.occurred_at
		FROM expense_labels el
		JOIN expenses e ON el.expense_id = e.expense_id
		JOIN label_weights lw ON el.label_id = lw.label_id
		WHERE lw.effective_to IS NULL
		ORDER BY el.expense_id
	`

	rows, err := s.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list scorable expenses: %w", err)
	}
	defer rows.Close()

	var result []ScorableExpense
	for rows.Next() {
		var se ScorableExpense

		if err := rows.Scan(&se.ExpenseID, &se.Amount, &se.Weight, &se.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan scorable expense: %w", err)
		}

		result = append(result, se)
	}

	return result, nil
}

// UpsertBatch persists scores inside a single transaction.
// Re-scoring an expense replaces its previous score.
func (s *Scores) UpsertBatch(scores []ExpenseScore) error {
	return s.conn.Transaction(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO expense_scores (expense_id, priority_score, score_norm, bucket, scored_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(expense_id) DO UPDATE SET
				priority_score = excluded.priority_score,
				score_norm = excluded.score_norm,
				bucket = excluded.bucket,
				scored_at = excluded.scored_at
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare score upsert: %w", err)
		}
		defer stmt.Close()

		for _, score := range scores {
			if _, err := stmt.Exec(
				score.ExpenseID,
				score.PriorityScore,
				score.ScoreNorm,
				score.Bucket,
				score.ScoredAt,
			); err != nil {
				return fmt.Errorf("failed to upsert score for expense %d: %w", score.ExpenseID, err)
			}
		}

		return nil
	})
}

// GetByExpense retrieves the score for an expense. Returns nil if not scored.
func (s *Scores) GetByExpense(expenseID int64) (*ExpenseScore, error) {
	query := `
		SELECT expense_id, priority_score, score_norm, bucket, scored_at
		FROM expense_scores
		WHERE expense_id = ?
	`

	var score ExpenseScore
	err := s.conn.QueryRow(query, expenseID).Scan(
		&score.ExpenseID,
		&score.PriorityScore,
		&score.ScoreNorm,
		&score.Bucket,
		&score.ScoredAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense score: %w", err)
	}

	return &score, nil
}

// CountByBucket returns the number of scored expenses per bucket.
func (s *Scores) CountByBucket() (map[string]int, error) {
	rows, err := s.conn.Query(`SELECT bucket, COUNT(*) FROM expense_scores GROUP BY bucket`)
	if err != nil {
		return nil, fmt.Errorf("failed to count scores by bucket: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var bucket string
		var count int

		if err := rows.Scan(&bucket, &count); err != nil {
			return nil, fmt.Errorf("failed to scan bucket count: %w", err)
		}

		counts[bucket] = count
	}

	return counts, nil
}
