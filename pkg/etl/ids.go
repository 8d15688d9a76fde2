package etl

import (
	"fmt"
	"hash/fnv"
)

// ExpenseID derives a stable expense identifier from a staged row's source
// identity. Re-transforming the same row always yields the same id, so the
// expense upserts instead of duplicating.
func ExpenseID(sourceSystem string, sourceRowID int64) int64 {
	return ExpenseIDFromKey(sourceSystem, fmt.Sprintf("%d", sourceRowID))
}

// ExpenseIDFromKey derives a stable expense identifier from a string row key,
// for sources whose rows aren't numbered (manual API entries).
func ExpenseIDFromKey(sourceSystem, key string) int64 {
	return stableID(fmt.Sprintf("%s:%s", sourceSystem, key))
}

// RecommendationID derives a stable recommendation identifier for an expense.
func RecommendationID(expenseID int64) int64 {
	return stableID(fmt.Sprintf("rec_%d", expenseID))
}

// stableID hashes a key with FNV-1a and masks the sign bit so the id stays
// positive in SQLite's INTEGER columns.
func stableID(key string) int64 {
	h := fnv.New64a()
	h.Write([]byte(key))
	return int64(h.Sum64() & (1<<63 - 1))
}
