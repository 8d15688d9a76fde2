package db

import (
	"database/sql"
	"fmt"
	"time"
)

// Category represents a spending category.
type Category struct {
	CategoryID  int64
	Name        string
	Description sql.NullString
}

// PaymentMode represents a payment mode.
type PaymentMode struct {
	PaymentModeID int64
	Name          string
}

// CategoryMapping maps a raw source value to a canonical category.
type CategoryMapping struct {
	SourceSystem string
	RawValue     string
	CategoryID   int64
}

// LabelRule assigns a label to expenses of a category during transform.
type LabelRule struct {
	CategoryName string
	LabelName    string
}

// UnmappedCategory is a raw category value seen with no mapping.
type UnmappedCategory struct {
	RawValue     string
	SourceSystem string
	FirstSeenAt  time.Time
}

// Reference manages reference data: categories, payment modes, category
// mappings, and label rules.
type Reference struct {
	conn *Connection
}

// NewReference creates a new Reference instance.
func NewReference(conn *Connection) *Reference {
	return &Reference{conn: conn}
}

// EnsureCategory inserts a category if it doesn't already exist.
func (r *Reference) EnsureCategory(c Category) error {
	query := `INSERT OR IGNORE INTO categories (category_id, name, description) VALUES (?, ?, ?)`

	if _, err := r.conn.Exec(query, c.CategoryID, c.Name, c.Description); err != nil {
		return fmt.Errorf("failed to ensure category %q: %w", c.Name, err)
	}

	return nil
}

// EnsurePaymentMode inserts a payment mode if it doesn't already exist.
func (r *Reference) EnsurePaymentMode(m PaymentMode) error {
	query := `INSERT OR IGNORE INTO payment_modes (payment_mode_id, name) VALUES (?, ?)`

	if _, err := r.conn.Exec(query, m.PaymentModeID, m.Name); err != nil {
		return fmt.Errorf("failed to ensure payment mode %q: %w", m.Name, err)
	}

	return nil
}

// EnsureCategoryMapping inserts a category mapping if it doesn't already exist.
func (r *Reference) EnsureCategoryMapping(m CategoryMapping) error {
	query := `INSERT OR IGNORE INTO category_mappings (source_system, raw_value, category_id) VALUES (?, ?, ?)`

	if _, err := r.conn.Exec(query, m.SourceSystem, m.RawValue, m.CategoryID); err != nil {
		return fmt.Errorf("failed to ensure category mapping %q: %w", m.RawValue, err)
	}

	return nil
}

// EnsureLabelRule inserts a label rule if it doesn't already exist.
func (r *Reference) EnsureLabelRule(rule LabelRule) error {
	query := `INSERT OR IGNORE INTO label_rules (category_name, label_name) VALUES (?, ?)`

	if _, err := r.conn.Exec(query, rule.CategoryName, rule.LabelName); err != nil {
		return fmt.Errorf("failed to ensure label rule %s -> %s: %w", rule.CategoryName, rule.LabelName, err)
	}

	return nil
}

// GetCategoryByName retrieves a category by name. Returns nil if not found.
func (r *Reference) GetCategoryByName(name string) (*Category, error) {
	query := `SELECT category_id, name, description FROM categories WHERE name = ?`

	var c Category
	err := r.conn.QueryRow(query, name).Scan(&c.CategoryID, &c.Name, &c.Description)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return &c, nil
}

// LoadCategoryMappings returns the raw_value -> category_id map for a source system.
func (r *Reference) LoadCategoryMappings(sourceSystem string) (map[string]int64, error) {
	query := `SELECT raw_value, category_id FROM category_mappings WHERE source_system = ?`

	rows, err := r.conn.Query(query, sourceSystem)
	if err != nil {
		return nil, fmt.Errorf("failed to load category mappings: %w", err)
	}
	defer rows.Close()

	mappings := make(map[string]int64)
	for rows.Next() {
		var rawValue string
		var categoryID int64

		if err := rows.Scan(&rawValue, &categoryID); err != nil {
			return nil, fmt.Errorf("failed to scan category mapping: %w", err)
		}

		mappings[rawValue] = categoryID
	}

	return mappings, nil
}

// LoadPaymentModes returns the name -> id map of payment modes.
func (r *Reference) LoadPaymentModes() (map[string]int64, error) {
	rows, err := r.conn.Query(`SELECT name, payment_mode_id FROM payment_modes`)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment modes: %w", err)
	}
	defer rows.Close()

	modes := make(map[string]int64)
	for rows.Next() {
		var name string
		var modeID int64

		if err := rows.Scan(&name, &modeID); err != nil {
			return nil, fmt.Errorf("failed to scan payment mode: %w", err)
		}

		modes[name] = modeID
	}

	return modes, nil
}

// TrackUnmapped records every distinct staged category value for a source
// system that has no mapping yet. The earliest ingested_at becomes
// first_seen_at; later sightings don't overwrite it.
// Returns the number of newly recorded values.
func (r *Reference) TrackUnmapped(sourceSystem string) (int64, error) {
	query := `
		INSERT OR IGNORE INTO unmapped_categories (raw_value, source_system, first_seen_at)
		SELECT raw.category, raw.source_system, MIN(raw.ingested_at)
		FROM raw_transactions raw
		LEFT JOIN category_mappings cm
			ON raw.category = cm.raw_value AND cm.source_system = raw.source_system
		WHERE cm.category_id IS NULL
			AND raw.category IS NOT NULL
			AND raw.source_system = ?
		GROUP BY raw.category, raw.source_system
	`

	result, err := r.conn.Exec(query, sourceSystem)
	if err != nil {
		return 0, fmt.Errorf("failed to track unmapped categories: %w", err)
	}

	recorded, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return recorded, nil
}

// ListUnmapped retrieves all unmapped category values, oldest first.
func (r *Reference) ListUnmapped() ([]UnmappedCategory, error) {
	query := `
		SELECT raw_value, source_system, first_seen_at
		FROM unmapped_categories
		ORDER BY first_seen_at, raw_value
	`

	rows, err := r.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list unmapped categories: %w", err)
	}
	defer rows.Close()

	var result []UnmappedCategory
	for rows.Next() {
		var u UnmappedCategory

		if err := rows.Scan(&u.RawValue, &u.SourceSystem, &u.FirstSeenAt); err != nil {
			return nil, fmt.Errorf("failed to scan unmapped category: %w", err)
		}

		result = append(result, u)
	}

	return result, nil
}
