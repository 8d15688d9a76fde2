package etl

import (
	"log/slog"
	"math"
	"time"

	"smartbudget/pkg/db"
)

// Priority scores decay by scoreDecay for every month since the expense, and
// the normalized score maps to a bucket at these thresholds.
const (
	scoreDecay      = 0.6
	highThreshold   = 0.7
	mediumThreshold = 0.4
)

// Priority buckets.
const (
	BucketHigh   = "High"
	BucketMedium = "Medium"
	BucketLow    = "Low"
)

// Scorer computes priority scores for labeled expenses.
type Scorer struct {
	scores *db.Scores
	now    func() time.Time
}

// NewScorer creates a new Scorer.
func NewScorer(conn *db.Connection) *Scorer {
	return &Scorer{
		scores: db.NewScores(conn),
		now:    time.Now,
	}
}

// ScoreResult summarizes one scoring run.
type ScoreResult struct {
	Scorable int
	Scored   int
}

// Run computes the priority score of every expense holding at least one
// label with an active weight:
//
//	priority_score = sum over labels of amount * weight * 0.6^months_old
//
// Scores are normalized against the maximum and bucketed, then persisted.
// With nothing to score the run succeeds with zero rows; a maximum of zero
// normalizes everything to zero (bucket Low).
func (s *Scorer) Run() (*ScoreResult, error) {
	pairs, err := s.scores.ListScorable()
	if err != nil {
		return nil, err
	}

	now := s.now()
	totals := make(map[int64]float64)
	var order []int64
	for _, pair := range pairs {
		if _, seen := totals[pair.ExpenseID]; !seen {
			order = append(order, pair.ExpenseID)
		}
		months := monthsBetween(pair.OccurredAt, now)
		totals[pair.ExpenseID] += pair.Amount * pair.Weight * math.Pow(scoreDecay, float64(months))
	}

	maxScore := 0.0
	for _, total := range totals {
		if total > maxScore {
			maxScore = total
		}
	}

	scores := make([]db.ExpenseScore, 0, len(order))
	for _, expenseID := range order {
		score := totals[expenseID]
		norm := 0.0
		if maxScore > 0 {
			norm = score / maxScore
		}
		scores = append(scores, db.ExpenseScore{
			ExpenseID:     expenseID,
			PriorityScore: score,
			ScoreNorm:     norm,
			Bucket:        bucketFor(norm),
			ScoredAt:      now,
		})
	}

	if err := s.scores.UpsertBatch(scores); err != nil {
		return nil, err
	}

	slog.Info("Scoring complete", "expenses", len(scores), "max_score", maxScore)

	return &ScoreResult{Scorable: len(pairs), Scored: len(scores)}, nil
}

// bucketFor maps a normalized score to its priority bucket.
func bucketFor(norm float64) string {
	switch {
	case norm > highThreshold:
		return BucketHigh
	case norm > mediumThreshold:
		return BucketMedium
	default:
		return BucketLow
	}
}

// monthsBetween counts calendar month boundaries crossed between two times.
// An occurred_at in the future clamps to zero months so the decay never
// amplifies a score.
func monthsBetween(from, to time.Time) int {
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if months < 0 {
		return 0
	}
	return months
}
