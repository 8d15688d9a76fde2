package etl

import "testing"

func TestExpenseID(t *testing.T) {
	id := ExpenseID("google_sheets", 0)

	if id < 0 {
		t.Errorf("ExpenseID() = %d, expected a non-negative id", id)
	}
	if again := ExpenseID("google_sheets", 0); again != id {
		t.Errorf("ExpenseID() = %d on second call, expected %d", again, id)
	}
	if other := ExpenseID("google_sheets", 1); other == id {
		t.Errorf("ExpenseID() = %d for a different row, expected a distinct id", other)
	}
	if other := ExpenseID("bank_export", 0); other == id {
		t.Errorf("ExpenseID() = %d for a different source, expected a distinct id", other)
	}
}

func TestRecommendationID(t *testing.T) {
	id := RecommendationID(42)

	if id < 0 {
		t.Errorf("RecommendationID() = %d, expected a non-negative id", id)
	}
	if again := RecommendationID(42); again != id {
		t.Errorf("RecommendationID() = %d on second call, expected %d", again, id)
	}
	if other := RecommendationID(43); other == id {
		t.Errorf("RecommendationID() = %d for a different expense, expected a distinct id", other)
	}
}
