package db

import (
	"database/sql"
	"fmt"
	"time"
)

// Expense represents a canonical expense record.
type Expense struct {
	ExpenseID     int64
	OccurredAt    time.Time
	ProductName   string
	Quantity      sql.NullFloat64
	UnitPrice     sql.NullFloat64
	Amount        float64
	CategoryID    sql.NullInt64
	PaymentModeID sql.NullInt64
	Notes         sql.NullString
	SourceSystem  sql.NullString
	SourceRowID   sql.NullString
}

// ExpenseFilter narrows List results. Zero values mean "no filter".
type ExpenseFilter struct {
	CategoryName string
	From         time.Time
	To           time.Time
	Limit        int
}

// Expenses manages canonical expense records.
type Expenses struct {
	conn *Connection
}

// NewExpenses creates a new Expenses instance.
func NewExpenses(conn *Connection) *Expenses {
	return &Expenses{conn: conn}
}

const upsertExpenseQuery = `
	INSERT INTO expenses
		(expense_id, occurred_at, product_name, quantity, unit_price, amount,
		 category_id, payment_mode_id, notes, source_system, source_row_id)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(expense_id) DO UPDATE SET
		occurred_at = excluded.occurred_at,
		product_name = excluded.product_name,
		amount = excluded.amount,
		category_id = excluded.category_id
`

// Upsert inserts an expense or, when its stable id already exists, refreshes
// the occurred_at, product_name, amount, and category columns.
func (e *Expenses) Upsert(exp Expense) error {
	_, err := e.conn.Exec(upsertExpenseQuery,
		exp.ExpenseID,
		exp.OccurredAt,
		exp.ProductName,
		exp.Quantity,
		exp.UnitPrice,
		exp.Amount,
		exp.CategoryID,
		exp.PaymentModeID,
		exp.Notes,
		exp.SourceSystem,
		exp.SourceRowID,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert expense %d: %w", exp.ExpenseID, err)
	}

	return nil
}

// UpsertBatch upserts a batch of expenses inside a single transaction.
// Returns the number of rows written.
func (e *Expenses) UpsertBatch(exps []Expense) (int64, error) {
	var written int64

	err := e.conn.Transaction(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(upsertExpenseQuery)
		if err != nil {
			return fmt.Errorf("failed to prepare expense upsert: %w", err)
		}
		defer stmt.Close()

		for _, exp := range exps {
			if _, err := stmt.Exec(
				exp.ExpenseID,
				exp.OccurredAt,
				exp.ProductName,
				exp.Quantity,
				exp.UnitPrice,
				exp.Amount,
				exp.CategoryID,
				exp.PaymentModeID,
				exp.Notes,
				exp.SourceSystem,
				exp.SourceRowID,
			); err != nil {
				return fmt.Errorf("failed to upsert expense %d: %w", exp.ExpenseID, err)
			}
			written++
		}

		return nil
	})

	if err != nil {
		return 0, err
	}

	return written, nil
}

// GetByID retrieves an expense by its id. Returns nil if not found.
func (e *Expenses) GetByID(expenseID int64) (*Expense, error) {
	query := `
		SELECT expense_id, occurred_at, product_name, quantity, unit_price, amount,
		       category_id, payment_mode_id, notes, source_system, source_row_id
		FROM expenses
		WHERE expense_id = ?
	`

	var exp Expense
	err := e.conn.QueryRow(query, expenseID).Scan(
		&exp.ExpenseID,
		&exp.OccurredAt,
		&exp.ProductName,
		&exp.Quantity,
		&exp.UnitPrice,
		&exp.Amount,
		&exp.CategoryID,
		&exp.PaymentModeID,
		&exp.Notes,
		&exp.SourceSystem,
		&exp.SourceRowID,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	return &exp, nil
}

// List retrieves expenses matching the filter, newest first.
func (e *Expenses) List(filter ExpenseFilter) ([]Expense, error) {
	query := `
		SELECT expense_id, occurred_at, product_name, quantity, unit_price, amount,
		       category_id, payment_mode_id, notes, source_system, source_row_id
		FROM expenses
		WHERE 1=1
	`
	var args []interface{}

	if filter.CategoryName != "" {
		query += ` AND category_id = (SELECT category_id FROM categories WHERE name = ?)`
		args = append(args, filter.CategoryName)
	}
	if !filter.From.IsZero() {
		query += ` AND occurred_at >= ?`
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		query += ` AND occurred_at < ?`
		args = append(args, filter.To)
	}

	query += ` ORDER BY occurred_at DESC, expense_id`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := e.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var result []Expense
	for rows.Next() {
		var exp Expense

		if err := rows.Scan(
			&exp.ExpenseID,
			&exp.OccurredAt,
			&exp.ProductName,
			&exp.Quantity,
			&exp.UnitPrice,
			&exp.Amount,
			&exp.CategoryID,
			&exp.PaymentModeID,
			&exp.Notes,
			&exp.SourceSystem,
			&exp.SourceRowID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}

		result = append(result, exp)
	}

	return result, nil
}

// Count returns the total number of expenses.
func (e *Expenses) Count() (int, error) {
	var count int
	err := e.conn.QueryRow(`SELECT COUNT(*) FROM expenses`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count expenses: %w", err)
	}
	return count, nil
}
