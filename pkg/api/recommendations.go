package api

import (
	"encoding/json"
	"net/http"
	"time"

	"smartbudget/pkg/db"
)

// RecommendationsHandler handles recommendation API endpoints.
type RecommendationsHandler struct {
	recommendations *db.Recommendations
}

// NewRecommendationsHandler creates a new RecommendationsHandler.
func NewRecommendationsHandler(conn *db.Connection) *RecommendationsHandler {
	return &RecommendationsHandler{
		recommendations: db.NewRecommendations(conn),
	}
}

// RecommendationResponse is the JSON shape of one recommendation.
type RecommendationResponse struct {
	RecommendationID int64   `json:"recommendation_id"`
	GeneratedAt      string  `json:"generated_at"`
	Message          string  `json:"message"`
	Confidence       float64 `json:"confidence"`
	RelatedExpenseID *int64  `json:"related_expense_id,omitempty"`
}

// List handles GET /recommendations, highest confidence first.
func (h *RecommendationsHandler) List(w http.ResponseWriter, r *http.Request) {
	recommendations, err := h.recommendations.List()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to list recommendations")
		return
	}

	items := make([]RecommendationResponse, 0, len(recommendations))
	for _, rec := range recommendations {
		items = append(items, RecommendationResponse{
			RecommendationID: rec.RecommendationID,
			GeneratedAt:      rec.GeneratedAt.Format(time.RFC3339),
			Message:          rec.Message,
			Confidence:       rec.Confidence,
			RelatedExpenseID: intPtr(rec.RelatedExpenseID),
		})
	}

	response := map[string]interface{}{
		"recommendations": items,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}
