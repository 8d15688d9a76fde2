package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrLabelNotFound is returned when a label name doesn't exist.
var ErrLabelNotFound = errors.New("label not found")

// Label represents a label row.
type Label struct {
	LabelID int64
	Name    string
}

// LabelWeight represents one temporal weight row for a label.
// The active row has a NULL EffectiveTo.
type LabelWeight struct {
	LabelID       int64
	Weight        float64
	EffectiveFrom time.Time
	EffectiveTo   sql.NullTime
}

// Labels manages labels, their temporal weights, and expense assignments.
type Labels struct {
	conn *Connection
}

// NewLabels creates a new Labels instance.
func NewLabels(conn *Connection) *Labels {
	return &Labels{conn: conn}
}

// Ensure inserts a label if it doesn't already exist.
func (l *Labels) Ensure(label Label) error {
	query := `INSERT OR IGNORE INTO labels (label_id, name) VALUES (?, ?)`

	if _, err := l.conn.Exec(query, label.LabelID, label.Name); err != nil {
		return fmt.Errorf("failed to ensure label %q: %w", label.Name, err)
	}

	return nil
}

// EnsureWeight inserts a weight row if none exists for the label and
// effective_from pair.
func (l *Labels) EnsureWeight(w LabelWeight) error {
	query := `INSERT OR IGNORE INTO label_weights (label_id, weight, effective_from, effective_to) VALUES (?, ?, ?, ?)`

	if _, err := l.conn.Exec(query, w.LabelID, w.Weight, w.EffectiveFrom, w.EffectiveTo); err != nil {
		return fmt.Errorf("failed to ensure weight for label %d: %w", w.LabelID, err)
	}

	return nil
}

// HasWeight reports whether any weight row exists for the label.
func (l *Labels) HasWeight(labelID int64) (bool, error) {
	var count int
	err := l.conn.QueryRow(`SELECT COUNT(*) FROM label_weights WHERE label_id = ?`, labelID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check label weight: %w", err)
	}

	return count > 0, nil
}

// GetByName retrieves a label by name.
// Returns an error wrapping ErrLabelNotFound when the name doesn't exist.
func (l *Labels) GetByName(name string) (*Label, error) {
	query := `SELECT label_id, name FROM labels WHERE name = ?`

	var label Label
	err := l.conn.QueryRow(query, name).Scan(&label.LabelID, &label.Name)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("label %q: %w", name, ErrLabelNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get label: %w", err)
	}

	return &label, nil
}

// List retrieves all labels ordered by id.
func (l *Labels) List() ([]Label, error) {
	rows, err := l.conn.Query(`SELECT label_id, name FROM labels ORDER BY label_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}
	defer rows.Close()

	var labels []Label
	for rows.Next() {
		var label Label

		if err := rows.Scan(&label.LabelID, &label.Name); err != nil {
			return nil, fmt.Errorf("failed to scan label: %w", err)
		}

		labels = append(labels, label)
	}

	return labels, nil
}

// ApplyRules assigns labels to expenses according to the label_rules table:
// every expense whose category name matches a rule gets the rule's label.
// Existing assignments are left untouched. Returns the number of new
// assignments.
func (l *Labels) ApplyRules() (int64, error) {
	query := `
		INSERT OR IGNORE INTO expense_labels (expense_id, label_id)
		SELECT e.expense_id, lb.label_id
		FROM expenses e
		JOIN categories c ON c.category_id = e.category_id
		JOIN label_rules r ON r.category_name = c.name
		JOIN labels lb ON lb.name = r.label_name
	`

	result, err := l.conn.Exec(query)
	if err != nil {
		return 0, fmt.Errorf("failed to apply label rules: %w", err)
	}

	assigned, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return assigned, nil
}

// Rename renames a label. The label keeps its id, weights, and assignments.
func (l *Labels) Rename(oldName, newName string) error {
	label, err := l.GetByName(oldName)
	if err != nil {
		return err
	}

	if _, err := l.conn.Exec(`UPDATE labels SET name = ? WHERE label_id = ?`, newName, label.LabelID); err != nil {
		return fmt.Errorf("failed to rename label %q: %w", oldName, err)
	}

	return nil
}

// Merge reassigns all expense assignments from the source labels to the
// target label, then deletes the source labels and their weights.
// An expense that already carries the target label keeps a single
// assignment. Each merge is recorded in label_mappings.
func (l *Labels) Merge(targetName string, sourceNames []string) error {
	if len(sourceNames) == 0 {
		return fmt.Errorf("no source labels to merge")
	}

	target, err := l.GetByName(targetName)
	if err != nil {
		return err
	}

	var sourceIDs []int64
	for _, name := range sourceNames {
		label, err := l.GetByName(name)
		if err != nil {
			return err
		}
		if label.LabelID == target.LabelID {
			return fmt.Errorf("cannot merge label %q into itself", name)
		}
		sourceIDs = append(sourceIDs, label.LabelID)
	}

	return l.conn.Transaction(func(tx *sql.Tx) error {
		placeholders := idPlaceholders(len(sourceIDs))
		args := idArgs(sourceIDs)

		// Insert-or-ignore the target assignment first so expenses that
		// already carry the target label don't violate the primary key.
		insertQuery := fmt.Sprintf(`
			INSERT OR IGNORE INTO expense_labels (expense_id, label_id)
			SELECT expense_id, ? FROM expense_labels WHERE label_id IN (%s)
		`, placeholders)
		if _, err := tx.Exec(insertQuery, append([]interface{}{target.LabelID}, args...)...); err != nil {
			return fmt.Errorf("failed to reassign expense labels: %w", err)
		}

		deleteAssignments := fmt.Sprintf(`DELETE FROM expense_labels WHERE label_id IN (%s)`, placeholders)
		if _, err := tx.Exec(deleteAssignments, args...); err != nil {
			return fmt.Errorf("failed to delete source assignments: %w", err)
		}

		deleteWeights := fmt.Sprintf(`DELETE FROM label_weights WHERE label_id IN (%s)`, placeholders)
		if _, err := tx.Exec(deleteWeights, args...); err != nil {
			return fmt.Errorf("failed to delete source weights: %w", err)
		}

		deleteLabels := fmt.Sprintf(`DELETE FROM labels WHERE label_id IN (%s)`, placeholders)
		if _, err := tx.Exec(deleteLabels, args...); err != nil {
			return fmt.Errorf("failed to delete source labels: %w", err)
		}

		for _, sourceID := range sourceIDs {
			if err := recordLabelMapping(tx, sourceID, target.LabelID); err != nil {
				return err
			}
		}

		return nil
	})
}

// Split moves the given expense assignments from a source label to a new
// label, creating the new label when needed. Only assignments of the source
// label move. Returns the number of assignments moved.
func (l *Labels) Split(sourceName, newName string, expenseIDs []int64) (int64, error) {
	source, err := l.GetByName(sourceName)
	if err != nil {
		return 0, err
	}

	if _, err := l.conn.Exec(`INSERT OR IGNORE INTO labels (name) VALUES (?)`, newName); err != nil {
		return 0, fmt.Errorf("failed to create label %q: %w", newName, err)
	}

	newLabel, err := l.GetByName(newName)
	if err != nil {
		return 0, err
	}
	if newLabel.LabelID == source.LabelID {
		return 0, fmt.Errorf("cannot split label %q into itself", sourceName)
	}

	if len(expenseIDs) == 0 {
		return 0, nil
	}

	var moved int64
	err = l.conn.Transaction(func(tx *sql.Tx) error {
		placeholders := idPlaceholders(len(expenseIDs))
		args := idArgs(expenseIDs)

		insertQuery := fmt.Sprintf(`
			INSERT OR IGNORE INTO expense_labels (expense_id, label_id)
			SELECT expense_id, ? FROM expense_labels
			WHERE label_id = ? AND expense_id IN (%s)
		`, placeholders)
		if _, err := tx.Exec(insertQuery, append([]interface{}{newLabel.LabelID, source.LabelID}, args...)...); err != nil {
			return fmt.Errorf("failed to assign new label: %w", err)
		}

		deleteQuery := fmt.Sprintf(`
			DELETE FROM expense_labels WHERE label_id = ? AND expense_id IN (%s)
		`, placeholders)
		result, err := tx.Exec(deleteQuery, append([]interface{}{source.LabelID}, args...)...)
		if err != nil {
			return fmt.Errorf("failed to remove source assignments: %w", err)
		}

		moved, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}

		return recordLabelMapping(tx, source.LabelID, newLabel.LabelID)
	})

	if err != nil {
		return 0, err
	}

	return moved, nil
}

// recordLabelMapping writes one audit row for a label migration.
func recordLabelMapping(tx *sql.Tx, oldID, newID int64) error {
	query := `
		INSERT OR IGNORE INTO label_mappings (old_label_id, new_label_id, mapping_date)
		VALUES (?, ?, DATE('now'))
	`

	if _, err := tx.Exec(query, oldID, newID); err != nil {
		return fmt.Errorf("failed to record label mapping %d -> %d: %w", oldID, newID, err)
	}

	return nil
}

// idPlaceholders builds the "?, ?, ..." fragment for an IN clause.
func idPlaceholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// idArgs converts ids into query arguments.
func idArgs(ids []int64) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
