package handler

import "github.com/actuallystonmai/order-recommender/internal/domain"

type RecommendationResponse struct {
	EmployeeID      int64                         `json:"employee_id"`
	RepeatItems     []domain.RepeatItem           `json:"repeat_items"`
	Recommendations []domain.ScoredRecommendation `json:"recommendations"`
	Metadata        domain.RecommendationMeta     `json:"metadata"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ValidationErrorResponse is returned with 422 for rejected form input.
type ValidationErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Fields  []string `json:"fields"`
}
