package etl

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the expected format of transaction dates.
const DateLayout = "2006-01-02"

// priceSanitizer strips currency symbols and thousands separators, keeping
// digits, the decimal point, and the minus sign.
var priceSanitizer = regexp.MustCompile(`[^\d.\-]`)

// RawRow carries the uncleaned field values of one input row, as read from
// the CSV or an API request.
type RawRow struct {
	Date        string
	Item        string
	Category    string
	Quantity    string
	Price       string
	Notes       string
	PaymentMode string
}

// Row is one validated transaction row, normalized for staging. Quantity and
// Price hold canonical numeric text (empty when the source had no value) so
// the staging table keeps the text shape of the raw feed.
type Row struct {
	Date        string
	Item        string
	Category    string
	Quantity    string
	Price       string
	Notes       string
	PaymentMode string
}

// RowError records one rejected input row for the ingest summary.
type RowError struct {
	RowIndex int // position in the file; data rows start at 2 (row 1 is the header)
	Err      error
	Data     []string
}

// CleanText strips surrounding whitespace. An empty result means the field
// has no value.
func CleanText(value string) string {
	return strings.TrimSpace(value)
}

// ParseQuantity parses a quantity in any of the source formats ("3", "3.0",
// " 3 "). A fractional part is truncated.
func ParseQuantity(value string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid quantity: %q", value)
	}

	return d.IntPart(), nil
}

// ParsePrice parses a price, stripping currency symbols and separators first
// so values like "$10.50" or "1,234.56" parse.
func ParsePrice(value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(priceSanitizer.ReplaceAllString(value, ""))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid price: %q", value)
	}

	return d, nil
}

// ParseDate parses a transaction date in YYYY-MM-DD form.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: %q", value)
	}

	return t, nil
}

// ValidateRow cleans and validates one input row. A field that fails to parse
// or a violated business rule rejects the whole row.
func ValidateRow(raw RawRow) (Row, error) {
	row := Row{
		Date:        CleanText(raw.Date),
		Item:        CleanText(raw.Item),
		Category:    CleanText(raw.Category),
		Notes:       CleanText(raw.Notes),
		PaymentMode: CleanText(raw.PaymentMode),
	}

	if _, err := ParseDate(row.Date); err != nil {
		return Row{}, err
	}

	var (
		quantity    int64
		hasQuantity bool
	)
	if cleaned := CleanText(raw.Quantity); cleaned != "" {
		q, err := ParseQuantity(cleaned)
		if err != nil {
			return Row{}, err
		}
		quantity, hasQuantity = q, true
		row.Quantity = strconv.FormatInt(q, 10)
	}

	var (
		price    decimal.Decimal
		hasPrice bool
	)
	if cleaned := CleanText(raw.Price); cleaned != "" {
		p, err := ParsePrice(cleaned)
		if err != nil {
			return Row{}, err
		}
		price, hasPrice = p, true
		row.Price = p.String()
	}

	if row.Item == "" && row.Notes == "" {
		return Row{}, errors.New("either item or notes must be provided")
	}
	if hasQuantity && quantity < 0 {
		return Row{}, errors.New("quantity cannot be negative")
	}
	if hasPrice && price.IsNegative() {
		return Row{}, errors.New("price cannot be negative")
	}

	return row, nil
}

// nullString maps an empty cleaned value to SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
