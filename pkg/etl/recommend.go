package etl

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"smartbudget/pkg/db"
)

// Recommender generates review recommendations for the highest weighted
// spending.
type Recommender struct {
	recommendations *db.Recommendations
	now             func() time.Time
}

// NewRecommender creates a new Recommender.
func NewRecommender(conn *db.Connection) *Recommender {
	return &Recommender{
		recommendations: db.NewRecommendations(conn),
		now:             time.Now,
	}
}

// RecommendResult summarizes one recommendation run.
type RecommendResult struct {
	Candidates int
	Generated  int
}

// Run ranks every expense by amount times active label weight (1.0 when
// unlabeled) and stores one recommendation per top-quartile expense. The
// recommendation id derives from the expense id, so re-running refreshes
// generated_at and confidence without duplicating rows.
func (r *Recommender) Run() (*RecommendResult, error) {
	candidates, err := r.recommendations.ListCandidates()
	if err != nil {
		return nil, err
	}

	generatedAt := r.now()
	top := topQuartile(len(candidates))

	recs := make([]db.Recommendation, 0, top)
	for _, candidate := range candidates[:top] {
		recs = append(recs, db.Recommendation{
			RecommendationID: RecommendationID(candidate.ExpenseID),
			GeneratedAt:      generatedAt,
			Message:          recommendationMessage(candidate),
			Confidence:       candidate.Amount * candidate.Weight,
			RelatedExpenseID: sql.NullInt64{Int64: candidate.ExpenseID, Valid: true},
		})
	}

	if err := r.recommendations.UpsertBatch(recs); err != nil {
		return nil, err
	}

	slog.Info("Recommendations generated", "candidates", len(candidates), "generated", len(recs))

	return &RecommendResult{Candidates: len(candidates), Generated: len(recs)}, nil
}

// topQuartile returns how many of n ranked candidates fall in the top
// quartile: ceil(n/4), the size NTILE(4) gives its first bucket.
func topQuartile(n int) int {
	if n == 0 {
		return 0
	}
	return (n + 3) / 4
}

// recommendationMessage renders the stored message for a candidate.
func recommendationMessage(c db.RecommendationCandidate) string {
	return fmt.Sprintf("High priority spending detected on '%s' (Amount: $%.2f). Consider reviewing this expense.",
		c.ProductName, c.Amount)
}
