package db

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

// openTestDB opens a fresh database in a temp directory with the schema applied.
func openTestDB(t *testing.T) *Connection {
	t.Helper()

	conn, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

// seedReference loads the reference fixtures shared by repository tests:
// two categories, two labels with active weights, mappings, and label rules.
func seedReference(t *testing.T, conn *Connection) {
	t.Helper()

	ref := NewReference(conn)
	labels := NewLabels(conn)
	now := time.Now().UTC()

	fixtures := []error{
		ref.EnsureCategory(Category{CategoryID: 1, Name: "Groceries"}),
		ref.EnsureCategory(Category{CategoryID: 2, Name: "Dining"}),
		ref.EnsureCategoryMapping(CategoryMapping{SourceSystem: "google_sheets", RawValue: "supermarket", CategoryID: 1}),
		ref.EnsureCategoryMapping(CategoryMapping{SourceSystem: "google_sheets", RawValue: "restaurant", CategoryID: 2}),
		ref.EnsureLabelRule(LabelRule{CategoryName: "Groceries", LabelName: "essential"}),
		ref.EnsureLabelRule(LabelRule{CategoryName: "Dining", LabelName: "discretionary"}),
		labels.Ensure(Label{LabelID: 101, Name: "essential"}),
		labels.Ensure(Label{LabelID: 102, Name: "discretionary"}),
		labels.EnsureWeight(LabelWeight{LabelID: 101, Weight: 0.5, EffectiveFrom: now}),
		labels.EnsureWeight(LabelWeight{LabelID: 102, Weight: 1.5, EffectiveFrom: now}),
	}

	for _, err := range fixtures {
		if err != nil {
			t.Fatalf("seed fixture error = %v", err)
		}
	}
}

// insertExpense is a shorthand for loading one canonical expense in tests.
func insertExpense(t *testing.T, conn *Connection, id int64, amount float64, categoryID int64, occurredAt time.Time) {
	t.Helper()

	exp := Expense{
		ExpenseID:   id,
		OccurredAt:  occurredAt,
		ProductName: fmt.Sprintf("item-%d", id),
		Amount:      amount,
	}
	if categoryID != 0 {
		exp.CategoryID = sql.NullInt64{Int64: categoryID, Valid: true}
	}

	if err := NewExpenses(conn).Upsert(exp); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
}

func TestOpenInitializesSchema(t *testing.T) {
	conn := openTestDB(t)

	tables := []string{
		"expenses", "categories", "labels", "expense_labels", "label_weights",
		"payment_modes", "category_mappings", "unmapped_categories",
		"label_rules", "label_mappings", "raw_transactions", "expense_scores",
		"recommendations", "etl_runs",
	}

	for _, table := range tables {
		var name string
		err := conn.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not created: %v", table, err)
		}
	}
}

func TestOpenCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "test.db")

	conn, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer conn.Close()

	if conn.GetPath() != path {
		t.Errorf("GetPath() = %q, expected %q", conn.GetPath(), path)
	}
}

func TestTransactionRollback(t *testing.T) {
	conn := openTestDB(t)

	err := conn.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO categories (category_id, name) VALUES (1, 'Groceries')`); err != nil {
			return err
		}
		return fmt.Errorf("boom")
	})
	if err == nil {
		t.Fatal("Transaction() expected error, got nil")
	}

	var count int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM categories`).Scan(&count); err != nil {
		t.Fatalf("count query error = %v", err)
	}
	if count != 0 {
		t.Errorf("categories count = %d after rollback, expected 0", count)
	}
}

func TestTransactionCommit(t *testing.T) {
	conn := openTestDB(t)

	err := conn.Transaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO categories (category_id, name) VALUES (1, 'Groceries')`)
		return err
	})
	if err != nil {
		t.Fatalf("Transaction() error = %v", err)
	}

	var count int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM categories`).Scan(&count); err != nil {
		t.Fatalf("count query error = %v", err)
	}
	if count != 1 {
		t.Errorf("categories count = %d after commit, expected 1", count)
	}
}
