package etl

import (
	"strings"
	"testing"

	"smartbudget/pkg/db"
)

func TestIngesterRun(t *testing.T) {
	conn := openTestDB(t)
	ingester := NewIngester(conn, "google_sheets")

	csvData := `date,item,category,quantity,price,notes,payment_mode
2026-08-01,Milk,supermarket,1,4.50,,card
2026-08-02,Dinner,restaurant,2,60.00,team dinner,card
not-a-date,Croissant,bakery,1,3.50,,cash
2026-08-04,,,,,,
2026-08-05,Taxi,uber,1,$15.00,,cash
`

	result, err := ingester.Run(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.Valid != 3 {
		t.Errorf("Run() valid = %d, expected 3", result.Valid)
	}
	if result.Rejected != 2 {
		t.Errorf("Run() rejected = %d, expected 2", result.Rejected)
	}

	if len(result.Errors) != 2 {
		t.Fatalf("Run() returned %d row errors, expected 2", len(result.Errors))
	}
	if result.Errors[0].RowIndex != 4 {
		t.Errorf("first row error at row %d, expected 4", result.Errors[0].RowIndex)
	}
	if result.Errors[1].RowIndex != 5 {
		t.Errorf("second row error at row %d, expected 5", result.Errors[1].RowIndex)
	}

	staged, err := db.NewStaging(conn).ListBySource("google_sheets")
	if err != nil {
		t.Fatalf("ListBySource() error = %v", err)
	}
	if len(staged) != 3 {
		t.Fatalf("staging has %d rows, expected 3", len(staged))
	}

	// Ids keep the file positions, so rejected rows leave gaps.
	if staged[0].ID != 0 || staged[1].ID != 1 || staged[2].ID != 4 {
		t.Errorf("staged ids = %d, %d, %d, expected 0, 1, 4", staged[0].ID, staged[1].ID, staged[2].ID)
	}

	// Values are normalized before staging.
	if staged[2].Price.String != "15.00" {
		t.Errorf("staged price = %q, expected %q", staged[2].Price.String, "15.00")
	}
	if !staged[1].Notes.Valid || staged[1].Notes.String != "team dinner" {
		t.Errorf("staged notes = %+v, expected team dinner", staged[1].Notes)
	}
	if staged[0].Notes.Valid {
		t.Errorf("staged notes = %+v, expected NULL for an empty field", staged[0].Notes)
	}
}

func TestIngesterRunReloadsStaging(t *testing.T) {
	conn := openTestDB(t)
	ingester := NewIngester(conn, "google_sheets")

	first := "date,item,category,quantity,price,notes,payment_mode\n" +
		"2026-08-01,Milk,supermarket,1,4.50,,card\n" +
		"2026-08-02,Bread,supermarket,1,2.00,,card\n"
	if _, err := ingester.Run(strings.NewReader(first)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	second := "date,item,category,quantity,price,notes,payment_mode\n" +
		"2026-08-03,Eggs,supermarket,1,3.00,,cash\n"
	if _, err := ingester.Run(strings.NewReader(second)); err != nil {
		t.Fatalf("Run() second load error = %v", err)
	}

	count, err := db.NewStaging(conn).Count("google_sheets")
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 1 {
		t.Errorf("staging has %d rows after reload, expected 1", count)
	}
}

func TestIngesterRunHeaderBOM(t *testing.T) {
	conn := openTestDB(t)
	ingester := NewIngester(conn, "google_sheets")

	csvData := "\uFEFFdate,item,category,quantity,price,notes,payment_mode\n" +
		"2026-08-01,Milk,supermarket,1,4.50,,card\n"

	result, err := ingester.Run(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Valid != 1 {
		t.Errorf("Run() valid = %d, expected 1", result.Valid)
	}
}

func TestIngesterRunMissingDateColumn(t *testing.T) {
	conn := openTestDB(t)
	ingester := NewIngester(conn, "google_sheets")

	_, err := ingester.Run(strings.NewReader("item,price\nMilk,4.50\n"))
	if err == nil {
		t.Fatal("Run() expected error for a header without a date column")
	}
}

func TestIngesterRunFileMissing(t *testing.T) {
	conn := openTestDB(t)
	ingester := NewIngester(conn, "google_sheets")

	if _, err := ingester.RunFile("does-not-exist.csv"); err == nil {
		t.Fatal("RunFile() expected error for a missing file")
	}
}
