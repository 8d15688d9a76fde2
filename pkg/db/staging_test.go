package db

import (
	"database/sql"
	"testing"
	"time"
)

func stagedRow(id int64, date, item, category, price string) RawTransaction {
	return RawTransaction{
		ID:         id,
		IngestedAt: time.Now().UTC(),
		OccurredOn: date,
		Item:       sql.NullString{String: item, Valid: item != ""},
		Category:   sql.NullString{String: category, Valid: category != ""},
		Price:      sql.NullString{String: price, Valid: price != ""},
	}
}

func TestStagingReplaceAll(t *testing.T) {
	conn := openTestDB(t)
	staging := NewStaging(conn)

	first := []RawTransaction{
		stagedRow(0, "2026-08-01", "milk", "supermarket", "3.50"),
		stagedRow(1, "2026-08-02", "dinner", "restaurant", "42.00"),
	}
	if err := staging.ReplaceAll("google_sheets", first); err != nil {
		t.Fatalf("ReplaceAll() error = %v", err)
	}

	count, err := staging.Count("google_sheets")
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 2 {
		t.Errorf("Count() = %d, expected 2", count)
	}

	// A second load fully replaces the first
	second := []RawTransaction{
		stagedRow(0, "2026-08-03", "bread", "supermarket", "2.10"),
	}
	if err := staging.ReplaceAll("google_sheets", second); err != nil {
		t.Fatalf("ReplaceAll() second load error = %v", err)
	}

	rows, err := staging.ListBySource("google_sheets")
	if err != nil {
		t.Fatalf("ListBySource() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("ListBySource() returned %d rows, expected 1", len(rows))
	}
	if rows[0].Item.String != "bread" {
		t.Errorf("item = %q, expected %q", rows[0].Item.String, "bread")
	}
	if rows[0].OccurredOn != "2026-08-03" {
		t.Errorf("occurred_on = %q, expected %q", rows[0].OccurredOn, "2026-08-03")
	}
}

func TestStagingReplaceAllKeepsOtherSources(t *testing.T) {
	conn := openTestDB(t)
	staging := NewStaging(conn)

	if err := staging.ReplaceAll("google_sheets", []RawTransaction{
		stagedRow(0, "2026-08-01", "milk", "supermarket", "3.50"),
	}); err != nil {
		t.Fatalf("ReplaceAll(google_sheets) error = %v", err)
	}
	if err := staging.ReplaceAll("bank_export", []RawTransaction{
		stagedRow(0, "2026-08-02", "fuel", "uber", "15.00"),
	}); err != nil {
		t.Fatalf("ReplaceAll(bank_export) error = %v", err)
	}

	count, err := staging.Count("google_sheets")
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("google_sheets count = %d after other source load, expected 1", count)
	}
}

func TestStagingNullFields(t *testing.T) {
	conn := openTestDB(t)
	staging := NewStaging(conn)

	row := RawTransaction{
		ID:         0,
		IngestedAt: time.Now().UTC(),
		OccurredOn: "2026-08-01",
		Notes:      sql.NullString{String: "cash withdrawal", Valid: true},
	}
	if err := staging.ReplaceAll("google_sheets", []RawTransaction{row}); err != nil {
		t.Fatalf("ReplaceAll() error = %v", err)
	}

	rows, err := staging.ListBySource("google_sheets")
	if err != nil {
		t.Fatalf("ListBySource() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("ListBySource() returned %d rows, expected 1", len(rows))
	}
	if rows[0].Item.Valid {
		t.Errorf("item = %v, expected NULL", rows[0].Item)
	}
	if !rows[0].Notes.Valid || rows[0].Notes.String != "cash withdrawal" {
		t.Errorf("notes = %v, expected 'cash withdrawal'", rows[0].Notes)
	}
}
