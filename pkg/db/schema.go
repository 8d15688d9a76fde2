// Package db provides SQLite database management for the SmartBudget
// pipeline: raw staging, canonical expenses, reference data, derived
// scores, recommendations, and run history.
package db

// Schema defines the SQL statements to create database tables.
const Schema = `
-- Canonical expenses table
-- One row per transaction, keyed by a stable hash of its source identity
CREATE TABLE IF NOT EXISTS expenses (
    expense_id INTEGER PRIMARY KEY,
    occurred_at TIMESTAMP NOT NULL,    -- when the expense happened
    product_name TEXT NOT NULL,
    quantity REAL,
    unit_price REAL,
    amount REAL NOT NULL,
    category_id INTEGER,               -- NULL when the raw category is unmapped
    payment_mode_id INTEGER,
    notes TEXT,
    source_system TEXT,                -- e.g. 'google_sheets', 'api'
    source_row_id TEXT                 -- row identity within the source
);

CREATE INDEX IF NOT EXISTS idx_expenses_occurred
    ON expenses(occurred_at);

CREATE INDEX IF NOT EXISTS idx_expenses_category
    ON expenses(category_id);

-- Spending categories (Groceries, Dining, ...)
CREATE TABLE IF NOT EXISTS categories (
    category_id INTEGER PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    description TEXT
);

-- Labels attached to expenses (essential, discretionary, ...)
CREATE TABLE IF NOT EXISTS labels (
    label_id INTEGER PRIMARY KEY,
    name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS expense_labels (
    expense_id INTEGER NOT NULL,
    label_id INTEGER NOT NULL,
    PRIMARY KEY (expense_id, label_id)
);

-- Temporal label weights; the active row has effective_to IS NULL
CREATE TABLE IF NOT EXISTS label_weights (
    label_id INTEGER NOT NULL,
    weight REAL NOT NULL,
    effective_from TIMESTAMP NOT NULL,
    effective_to TIMESTAMP,
    PRIMARY KEY (label_id, effective_from)
);

CREATE TABLE IF NOT EXISTS payment_modes (
    payment_mode_id INTEGER PRIMARY KEY,
    name TEXT NOT NULL UNIQUE
);

-- Maps raw source category strings to canonical categories
CREATE TABLE IF NOT EXISTS category_mappings (
    source_system TEXT NOT NULL,
    raw_value TEXT NOT NULL,
    category_id INTEGER NOT NULL,
    PRIMARY KEY (source_system, raw_value)
);

-- Raw category values seen during transform with no mapping yet
CREATE TABLE IF NOT EXISTS unmapped_categories (
    raw_value TEXT NOT NULL,
    source_system TEXT NOT NULL,
    first_seen_at TIMESTAMP NOT NULL,
    PRIMARY KEY (raw_value, source_system)
);

-- Category name -> label name assignment rules applied during transform
CREATE TABLE IF NOT EXISTS label_rules (
    category_name TEXT NOT NULL,
    label_name TEXT NOT NULL,
    PRIMARY KEY (category_name, label_name)
);

-- Audit trail for label migrations (merge/split)
CREATE TABLE IF NOT EXISTS label_mappings (
    old_label_id INTEGER NOT NULL,
    new_label_id INTEGER NOT NULL,
    mapping_date DATE NOT NULL,
    PRIMARY KEY (old_label_id, new_label_id, mapping_date)
);

-- Raw staging table, fully reloaded on every ingest
CREATE TABLE IF NOT EXISTS raw_transactions (
    id INTEGER PRIMARY KEY,            -- sequential row number within the load
    ingested_at TIMESTAMP NOT NULL,
    occurred_on TEXT,                  -- YYYY-MM-DD as received
    item TEXT,
    category TEXT,
    quantity TEXT,
    price TEXT,
    notes TEXT,
    payment_mode TEXT,
    source_system TEXT NOT NULL
);

-- Derived priority scores, refreshed by the score stage
CREATE TABLE IF NOT EXISTS expense_scores (
    expense_id INTEGER PRIMARY KEY,
    priority_score REAL NOT NULL,
    score_norm REAL NOT NULL,          -- normalized by the max score
    bucket TEXT NOT NULL,              -- 'High', 'Medium', or 'Low'
    scored_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_expense_scores_bucket
    ON expense_scores(bucket);

-- Spending recommendations for top-quartile expenses
CREATE TABLE IF NOT EXISTS recommendations (
    recommendation_id INTEGER PRIMARY KEY,
    generated_at TIMESTAMP NOT NULL,
    message TEXT NOT NULL,
    confidence REAL NOT NULL,          -- weighted amount behind the recommendation
    related_expense_id INTEGER
);

CREATE INDEX IF NOT EXISTS idx_recommendations_expense
    ON recommendations(related_expense_id);

-- Pipeline run history, one row per run stage
CREATE TABLE IF NOT EXISTS etl_runs (
    run_id TEXT NOT NULL,              -- UUID shared by the stages of one run
    stage TEXT NOT NULL,               -- 'seed', 'ingest', 'transform', ...
    started_at TIMESTAMP NOT NULL,
    finished_at TIMESTAMP,
    rows_in INTEGER NOT NULL DEFAULT 0,
    rows_out INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL,              -- 'running', 'ok', or 'failed'
    error TEXT,
    PRIMARY KEY (run_id, stage)
);

CREATE INDEX IF NOT EXISTS idx_etl_runs_stage
    ON etl_runs(stage, started_at);
`

// InitializeSchema initializes the database schema.
// It creates all tables if they don't exist.
func InitializeSchema(conn *Connection) error {
	if _, err := conn.Exec(Schema); err != nil {
		return err
	}
	return nil
}
