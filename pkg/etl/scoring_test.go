package etl

import (
	"database/sql"
	"math"
	"testing"
	"time"

	"smartbudget/pkg/db"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func mustUpsertExpense(t *testing.T, conn *db.Connection, id int64, day string, name string, amount float64, categoryID int64) {
	t.Helper()

	occurredAt, err := time.Parse(DateLayout, day)
	if err != nil {
		t.Fatalf("bad test date %q: %v", day, err)
	}

	exp := db.Expense{
		ExpenseID:   id,
		OccurredAt:  occurredAt,
		ProductName: name,
		Amount:      amount,
	}
	if categoryID != 0 {
		exp.CategoryID = sql.NullInt64{Int64: categoryID, Valid: true}
	}

	if err := db.NewExpenses(conn).Upsert(exp); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
}

func assignLabel(t *testing.T, conn *db.Connection, expenseID, labelID int64) {
	t.Helper()

	if _, err := conn.Exec(`INSERT OR IGNORE INTO expense_labels (expense_id, label_id) VALUES (?, ?)`, expenseID, labelID); err != nil {
		t.Fatalf("failed to assign label: %v", err)
	}
}

func TestMonthsBetween(t *testing.T) {
	tests := []struct {
		name     string
		from     time.Time
		to       time.Time
		expected int
	}{
		{
			name:     "same month",
			from:     date(2026, time.August, 1),
			to:       date(2026, time.August, 31),
			expected: 0,
		},
		{
			name:     "adjacent months count one boundary",
			from:     date(2026, time.July, 31),
			to:       date(2026, time.August, 1),
			expected: 1,
		},
		{
			name:     "across a year boundary",
			from:     date(2025, time.November, 15),
			to:       date(2026, time.February, 15),
			expected: 3,
		},
		{
			name:     "future date clamps to zero",
			from:     date(2026, time.September, 1),
			to:       date(2026, time.August, 1),
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := monthsBetween(tt.from, tt.to)
			if result != tt.expected {
				t.Errorf("monthsBetween(%v, %v) = %d, expected %d", tt.from, tt.to, result, tt.expected)
			}
		})
	}
}

func TestBucketFor(t *testing.T) {
	tests := []struct {
		norm     float64
		expected string
	}{
		{1.0, BucketHigh},
		{0.71, BucketHigh},
		{0.7, BucketMedium},
		{0.41, BucketMedium},
		{0.4, BucketLow},
		{0.0, BucketLow},
	}

	for _, tt := range tests {
		if result := bucketFor(tt.norm); result != tt.expected {
			t.Errorf("bucketFor(%v) = %q, expected %q", tt.norm, result, tt.expected)
		}
	}
}

func TestScorerRun(t *testing.T) {
	conn := openTestDB(t)
	if _, err := NewSeeder(conn).Apply(DefaultSeedConfig()); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	// Current-month groceries and last-month dining, scored as of August 15.
	mustUpsertExpense(t, conn, 1, "2026-08-10", "Milk", 100, 1)
	mustUpsertExpense(t, conn, 2, "2026-07-10", "Dinner", 100, 2)
	assignLabel(t, conn, 1, 101) // essential, weight 0.5
	assignLabel(t, conn, 2, 102) // discretionary, weight 1.5

	scorer := NewScorer(conn)
	scorer.now = func() time.Time { return date(2026, time.August, 15) }

	result, err := scorer.Run()
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Scorable != 2 || result.Scored != 2 {
		t.Errorf("Run() = %+v, expected 2 scorable and 2 scored", result)
	}

	scores := db.NewScores(conn)

	// Dinner: 100 * 1.5 * 0.6^1 = 90 is the maximum.
	dinner, err := scores.GetByExpense(2)
	if err != nil {
		t.Fatalf("GetByExpense() error = %v", err)
	}
	if dinner == nil {
		t.Fatal("no score for expense 2")
	}
	if math.Abs(dinner.PriorityScore-90) > 1e-9 {
		t.Errorf("PriorityScore = %v, expected 90", dinner.PriorityScore)
	}
	if math.Abs(dinner.ScoreNorm-1) > 1e-9 {
		t.Errorf("ScoreNorm = %v, expected 1", dinner.ScoreNorm)
	}
	if dinner.Bucket != BucketHigh {
		t.Errorf("Bucket = %q, expected %q", dinner.Bucket, BucketHigh)
	}

	// Milk: 100 * 0.5 * 0.6^0 = 50, normalized against 90.
	milk, err := scores.GetByExpense(1)
	if err != nil {
		t.Fatalf("GetByExpense() error = %v", err)
	}
	if milk == nil {
		t.Fatal("no score for expense 1")
	}
	if math.Abs(milk.PriorityScore-50) > 1e-9 {
		t.Errorf("PriorityScore = %v, expected 50", milk.PriorityScore)
	}
	if math.Abs(milk.ScoreNorm-50.0/90.0) > 1e-9 {
		t.Errorf("ScoreNorm = %v, expected %v", milk.ScoreNorm, 50.0/90.0)
	}
	if milk.Bucket != BucketMedium {
		t.Errorf("Bucket = %q, expected %q", milk.Bucket, BucketMedium)
	}
}

func TestScorerRunNothingScorable(t *testing.T) {
	conn := openTestDB(t)
	if _, err := NewSeeder(conn).Apply(DefaultSeedConfig()); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	// Unlabeled expenses don't score.
	mustUpsertExpense(t, conn, 1, "2026-08-10", "Milk", 100, 0)

	result, err := NewScorer(conn).Run()
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Scorable != 0 || result.Scored != 0 {
		t.Errorf("Run() = %+v, expected an all-zero result", result)
	}
}

func TestScorerRunZeroMaxScore(t *testing.T) {
	conn := openTestDB(t)
	if _, err := NewSeeder(conn).Apply(DefaultSeedConfig()); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	mustUpsertExpense(t, conn, 1, "2026-08-10", "Freebie", 0, 1)
	assignLabel(t, conn, 1, 101)

	scorer := NewScorer(conn)
	scorer.now = func() time.Time { return date(2026, time.August, 15) }

	if _, err := scorer.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	score, err := db.NewScores(conn).GetByExpense(1)
	if err != nil {
		t.Fatalf("GetByExpense() error = %v", err)
	}
	if score == nil {
		t.Fatal("no score for expense 1")
	}
	if score.PriorityScore != 0 || score.ScoreNorm != 0 {
		t.Errorf("score = %+v, expected zeros when the maximum is zero", score)
	}
	if score.Bucket != BucketLow {
		t.Errorf("Bucket = %q, expected %q", score.Bucket, BucketLow)
	}
}
