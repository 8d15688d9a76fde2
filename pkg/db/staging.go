package db

import (
	"database/sql"
	"fmt"
	"time"
)

// RawTransaction represents one staged source row, values as received.
type RawTransaction struct {
	ID           int64
	IngestedAt   time.Time
	OccurredOn   string
	Item         sql.NullString
	Category     sql.NullString
	Quantity     sql.NullString
	Price        sql.NullString
	Notes        sql.NullString
	PaymentMode  sql.NullString
	SourceSystem string
}

// Staging manages the raw_transactions staging table.
type Staging struct {
	conn *Connection
}

// NewStaging creates a new Staging instance.
func NewStaging(conn *Connection) *Staging {
	return &Staging{conn: conn}
}

// ReplaceAll reloads the staging table for a source system.
// Existing rows for that source are deleted and the given rows inserted,
// all inside a single transaction.
func (s *Staging) ReplaceAll(sourceSystem string, rows []RawTransaction) error {
	return s.conn.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM raw_transactions WHERE source_system = ?`, sourceSystem); err != nil {
			return fmt.Errorf("failed to clear staging table: %w", err)
		}

		stmt, err := tx.Prepare(`
			INSERT INTO raw_transactions
				(id, ingested_at, occurred_on, item, category, quantity, price, notes, payment_mode, source_system)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare staging insert: %w", err)
		}
		defer stmt.Close()

		for _, row := range rows {
			if _, err := stmt.Exec(
				row.ID,
				row.IngestedAt,
				row.OccurredOn,
				row.Item,
				row.Category,
				row.Quantity,
				row.Price,
				row.Notes,
				row.PaymentMode,
				sourceSystem,
			); err != nil {
				return fmt.Errorf("failed to insert staged row %d: %w", row.ID, err)
			}
		}

		return nil
	})
}

// ListBySource retrieves all staged rows for a source system, ordered by id.
func (s *Staging) ListBySource(sourceSystem string) ([]RawTransaction, error) {
	query := `
		SELECT id, ingested_at, occurred_on, item, category, quantity, price, notes, payment_mode, source_system
		FROM raw_transactions
		WHERE source_system = ?
		ORDER BY id
	`

	rows, err := s.conn.Query(query, sourceSystem)
	if err != nil {
		return nil, fmt.Errorf("failed to list staged rows: %w", err)
	}
	defer rows.Close()

	var result []RawTransaction
	for rows.Next() {
		var row RawTransaction
		var occurredOn sql.NullString

		if err := rows.Scan(
			&row.ID,
			&row.IngestedAt,
			&occurredOn,
			&row.Item,
			&row.Category,
			&row.Quantity,
			&row.Price,
			&row.Notes,
			&row.PaymentMode,
			&row.SourceSystem,
		); err != nil {
			return nil, fmt.Errorf("failed to scan staged row: %w", err)
		}

		row.OccurredOn = occurredOn.String
		result = append(result, row)
	}

	return result, nil
}

// Count returns the number of staged rows for a source system.
func (s *Staging) Count(sourceSystem string) (int, error) {
	var count int
	err := s.conn.QueryRow(`SELECT COUNT(*) FROM raw_transactions WHERE source_system = ?`, sourceSystem).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count staged rows: %w", err)
	}
	return count, nil
}
