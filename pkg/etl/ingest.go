package etl

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"smartbudget/pkg/db"
)

// maxLoggedRowErrors caps how many rejected rows are logged in full; the
// rest are summarized as a count.
const maxLoggedRowErrors = 5

// Ingester validates a transaction CSV and fully reloads the staging table
// with the valid rows.
type Ingester struct {
	staging      *db.Staging
	sourceSystem string
	now          func() time.Time
}

// NewIngester creates a new Ingester for a source system.
func NewIngester(conn *db.Connection, sourceSystem string) *Ingester {
	return &Ingester{
		staging:      db.NewStaging(conn),
		sourceSystem: sourceSystem,
		now:          time.Now,
	}
}

// IngestResult summarizes one ingest run.
type IngestResult struct {
	Valid    int
	Rejected int
	Errors   []RowError
}

// RunFile ingests a CSV file from disk.
func (i *Ingester) RunFile(csvPath string) (*IngestResult, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	return i.Run(f)
}

// Run reads CSV data, validates every row, and replaces the staging table
// contents for this source system with the valid rows. Rejected rows are
// counted and reported, not loaded. Each staged row keeps its position in
// the file as its id, so a fixed row reloads under the same identity.
func (i *Ingester) Run(r io.Reader) (*IngestResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // a short row is a row error, not a file error

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	// Spreadsheet exports may lead with a BOM.
	header[0] = strings.TrimPrefix(header[0], "\uFEFF")

	columns := make(map[string]int, len(header))
	for idx, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = idx
	}
	if _, ok := columns["date"]; !ok {
		return nil, fmt.Errorf("CSV header has no date column: %v", header)
	}

	result := &IngestResult{}
	var staged []db.RawTransaction
	ingestedAt := i.now()

	// Row 1 is the header; data rows are numbered from 2 like the source
	// spreadsheet shows them.
	for rowIndex := 2; ; rowIndex++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", rowIndex, err)
		}

		raw := RawRow{
			Date:        field(record, columns, "date"),
			Item:        field(record, columns, "item"),
			Category:    field(record, columns, "category"),
			Quantity:    field(record, columns, "quantity"),
			Price:       field(record, columns, "price"),
			Notes:       field(record, columns, "notes"),
			PaymentMode: field(record, columns, "payment_mode"),
		}

		row, err := ValidateRow(raw)
		if err != nil {
			result.Rejected++
			result.Errors = append(result.Errors, RowError{RowIndex: rowIndex, Err: err, Data: record})
			continue
		}

		staged = append(staged, db.RawTransaction{
			ID:           int64(rowIndex - 2),
			IngestedAt:   ingestedAt,
			OccurredOn:   row.Date,
			Item:         nullString(row.Item),
			Category:     nullString(row.Category),
			Quantity:     nullString(row.Quantity),
			Price:        nullString(row.Price),
			Notes:        nullString(row.Notes),
			PaymentMode:  nullString(row.PaymentMode),
			SourceSystem: i.sourceSystem,
		})
	}

	if err := i.staging.ReplaceAll(i.sourceSystem, staged); err != nil {
		return nil, err
	}
	result.Valid = len(staged)

	slog.Info("Ingest complete",
		"source_system", i.sourceSystem,
		"valid", result.Valid,
		"rejected", result.Rejected,
	)
	for idx, rowErr := range result.Errors {
		if idx == maxLoggedRowErrors {
			slog.Warn("Further rejected rows omitted", "count", len(result.Errors)-maxLoggedRowErrors)
			break
		}
		slog.Warn("Rejected row",
			"row", rowErr.RowIndex,
			"error", rowErr.Err,
			"data", strings.Join(rowErr.Data, ","),
		)
	}

	return result, nil
}

// field reads a named column from a record, tolerating short rows.
func field(record []string, columns map[string]int, name string) string {
	idx, ok := columns[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return record[idx]
}
