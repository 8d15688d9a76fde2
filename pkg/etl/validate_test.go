package etl

import (
	"strings"
	"testing"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "trims surrounding whitespace",
			input:    "  Coffee  ",
			expected: "Coffee",
		},
		{
			name:     "whitespace only becomes empty",
			input:    "   ",
			expected: "",
		},
		{
			name:     "empty stays empty",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CleanText(tt.input)
			if result != tt.expected {
				t.Errorf("CleanText(%q) = %q, expected %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expected  int64
		expectErr bool
	}{
		{
			name:     "plain integer",
			input:    "3",
			expected: 3,
		},
		{
			name:     "spreadsheet float form",
			input:    "3.0",
			expected: 3,
		},
		{
			name:     "fractional part truncated",
			input:    "3.7",
			expected: 3,
		},
		{
			name:     "surrounding whitespace",
			input:    " 3 ",
			expected: 3,
		},
		{
			name:     "negative parses",
			input:    "-2",
			expected: -2,
		},
		{
			name:      "non-numeric",
			input:     "three",
			expectErr: true,
		},
		{
			name:      "empty",
			input:     "",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseQuantity(tt.input)
			if tt.expectErr {
				if err == nil {
					t.Errorf("ParseQuantity(%q) expected error, got %d", tt.input, result)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseQuantity(%q) error = %v", tt.input, err)
			}
			if result != tt.expected {
				t.Errorf("ParseQuantity(%q) = %d, expected %d", tt.input, result, tt.expected)
			}
		})
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expected  string
		expectErr bool
	}{
		{
			name:     "plain price",
			input:    "10.50",
			expected: "10.50",
		},
		{
			name:     "currency symbol stripped",
			input:    "$10.50",
			expected: "10.50",
		},
		{
			name:     "thousands separator stripped",
			input:    "1,234.56",
			expected: "1234.56",
		},
		{
			name:     "negative price parses",
			input:    "-5.00",
			expected: "-5.00",
		},
		{
			name:      "non-numeric",
			input:     "free",
			expectErr: true,
		},
		{
			name:      "empty",
			input:     "",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParsePrice(tt.input)
			if tt.expectErr {
				if err == nil {
					t.Errorf("ParsePrice(%q) expected error, got %s", tt.input, result)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePrice(%q) error = %v", tt.input, err)
			}
			if result.String() != tt.expected {
				t.Errorf("ParsePrice(%q) = %s, expected %s", tt.input, result, tt.expected)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expectErr bool
	}{
		{
			name:  "ISO date",
			input: "2026-08-15",
		},
		{
			name:      "missing zero padding",
			input:     "2026-8-15",
			expectErr: true,
		},
		{
			name:      "slash format",
			input:     "15/08/2026",
			expectErr: true,
		},
		{
			name:      "empty",
			input:     "",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseDate(tt.input)
			if tt.expectErr {
				if err == nil {
					t.Errorf("ParseDate(%q) expected error, got %v", tt.input, result)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate(%q) error = %v", tt.input, err)
			}
			if result.Format(DateLayout) != tt.input {
				t.Errorf("ParseDate(%q) = %v, expected round-trip", tt.input, result)
			}
		})
	}
}

func TestValidateRow(t *testing.T) {
	tests := []struct {
		name      string
		raw       RawRow
		expected  Row
		expectErr string
	}{
		{
			name: "complete row normalized",
			raw: RawRow{
				Date:        "2026-08-01",
				Item:        " Milk ",
				Category:    "supermarket",
				Quantity:    "2.0",
				Price:       "$4.50",
				Notes:       "",
				PaymentMode: " card ",
			},
			expected: Row{
				Date:        "2026-08-01",
				Item:        "Milk",
				Category:    "supermarket",
				Quantity:    "2",
				Price:       "4.50",
				PaymentMode: "card",
			},
		},
		{
			name: "notes satisfy the item-or-notes rule",
			raw: RawRow{
				Date:  "2026-08-01",
				Notes: "cash withdrawal",
			},
			expected: Row{
				Date:  "2026-08-01",
				Notes: "cash withdrawal",
			},
		},
		{
			name: "missing date",
			raw: RawRow{
				Item: "Milk",
			},
			expectErr: "invalid date format",
		},
		{
			name: "bad quantity",
			raw: RawRow{
				Date:     "2026-08-01",
				Item:     "Milk",
				Quantity: "two",
			},
			expectErr: "invalid quantity",
		},
		{
			name: "bad price",
			raw: RawRow{
				Date:  "2026-08-01",
				Item:  "Milk",
				Price: "free",
			},
			expectErr: "invalid price",
		},
		{
			name: "neither item nor notes",
			raw: RawRow{
				Date:     "2026-08-01",
				Category: "supermarket",
			},
			expectErr: "either item or notes",
		},
		{
			name: "negative quantity",
			raw: RawRow{
				Date:     "2026-08-01",
				Item:     "Milk",
				Quantity: "-1",
			},
			expectErr: "quantity cannot be negative",
		},
		{
			name: "negative price",
			raw: RawRow{
				Date:  "2026-08-01",
				Item:  "Milk",
				Price: "-4.50",
			},
			expectErr: "price cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ValidateRow(tt.raw)
			if tt.expectErr != "" {
				if err == nil {
					t.Fatalf("ValidateRow() expected error containing %q, got row %+v", tt.expectErr, result)
				}
				if !strings.Contains(err.Error(), tt.expectErr) {
					t.Errorf("ValidateRow() error = %q, expected it to contain %q", err, tt.expectErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateRow() error = %v", err)
			}
			if result != tt.expected {
				t.Errorf("ValidateRow() = %+v, expected %+v", result, tt.expected)
			}
		})
	}
}
