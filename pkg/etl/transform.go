package etl

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"smartbudget/pkg/db"
)

// Transformer turns staged rows into canonical expenses and assigns labels.
type Transformer struct {
	staging      *db.Staging
	reference    *db.Reference
	expenses     *db.Expenses
	labels       *db.Labels
	sourceSystem string
}

// NewTransformer creates a new Transformer for a source system.
func NewTransformer(conn *db.Connection, sourceSystem string) *Transformer {
	return &Transformer{
		staging:      db.NewStaging(conn),
		reference:    db.NewReference(conn),
		expenses:     db.NewExpenses(conn),
		labels:       db.NewLabels(conn),
		sourceSystem: sourceSystem,
	}
}

// TransformResult summarizes one transform run.
type TransformResult struct {
	Staged         int
	Unmapped       int64
	Upserted       int64
	LabelsAssigned int64
}

// Run executes the three transform steps in order: record staged category
// values that have no mapping, upsert every staged row into expenses, and
// assign labels from the label rules.
func (t *Transformer) Run() (*TransformResult, error) {
	result := &TransformResult{}

	unmapped, err := t.reference.TrackUnmapped(t.sourceSystem)
	if err != nil {
		return nil, err
	}
	result.Unmapped = unmapped
	if unmapped > 0 {
		slog.Warn("Recorded unmapped categories", "count", unmapped, "source_system", t.sourceSystem)
	}

	mapper, err := NewCategoryMapper(t.reference, t.sourceSystem)
	if err != nil {
		return nil, err
	}

	paymentModes, err := t.reference.LoadPaymentModes()
	if err != nil {
		return nil, err
	}

	staged, err := t.staging.ListBySource(t.sourceSystem)
	if err != nil {
		return nil, err
	}
	result.Staged = len(staged)

	expenses := make([]db.Expense, 0, len(staged))
	for _, raw := range staged {
		exp, err := buildExpense(raw, mapper, paymentModes)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, exp)
	}

	written, err := t.expenses.UpsertBatch(expenses)
	if err != nil {
		return nil, err
	}
	result.Upserted = written

	assigned, err := t.labels.ApplyRules()
	if err != nil {
		return nil, err
	}
	result.LabelsAssigned = assigned

	slog.Info("Transform complete",
		"staged", result.Staged,
		"upserted", result.Upserted,
		"labels_assigned", result.LabelsAssigned,
		"unmapped", result.Unmapped,
	)

	return result, nil
}

// buildExpense maps one staged row to a canonical expense. The expense id is
// a stable hash of the row's source identity, so re-transforming updates the
// same record.
func buildExpense(raw db.RawTransaction, mapper *CategoryMapper, paymentModes map[string]int64) (db.Expense, error) {
	occurredAt, err := ParseDate(raw.OccurredOn)
	if err != nil {
		return db.Expense{}, fmt.Errorf("staged row %d: %w", raw.ID, err)
	}

	exp := db.Expense{
		ExpenseID:  ExpenseID(raw.SourceSystem, raw.ID),
		OccurredAt: occurredAt,
		// Row quantities describe the source line, not the expense; every
		// canonical expense counts as one.
		Quantity:     sql.NullFloat64{Float64: 1, Valid: true},
		Notes:        raw.Notes,
		SourceSystem: sql.NullString{String: raw.SourceSystem, Valid: true},
		SourceRowID:  sql.NullString{String: strconv.FormatInt(raw.ID, 10), Valid: true},
	}

	// A row without an item passed validation on its notes; the notes text
	// then stands in as the product name.
	exp.ProductName = raw.Item.String
	if exp.ProductName == "" {
		exp.ProductName = raw.Notes.String
	}

	// A missing price loads as a zero amount rather than NULL, keeping the
	// NOT NULL amount column satisfied.
	if raw.Price.Valid {
		price, err := ParsePrice(raw.Price.String)
		if err != nil {
			return db.Expense{}, fmt.Errorf("staged row %d: %w", raw.ID, err)
		}
		amount, _ := price.Float64()
		exp.Amount = amount
		exp.UnitPrice = sql.NullFloat64{Float64: amount, Valid: true}
	}

	if raw.Category.Valid {
		if categoryID, ok := mapper.Lookup(raw.Category.String); ok {
			exp.CategoryID = sql.NullInt64{Int64: categoryID, Valid: true}
		}
	}

	if raw.PaymentMode.Valid {
		if modeID, ok := paymentModes[strings.ToLower(raw.PaymentMode.String)]; ok {
			exp.PaymentModeID = sql.NullInt64{Int64: modeID, Valid: true}
		}
	}

	return exp, nil
}
