package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/actuallystonmai/order-recommender/internal/domain"
	"github.com/actuallystonmai/order-recommender/internal/logging"
	"github.com/actuallystonmai/order-recommender/internal/metrics"
	"github.com/actuallystonmai/order-recommender/internal/model"
)

// GET /api/employees/{employeeID}/recommendations
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	// Parse and validate employee_id
	employeeID, err := strconv.ParseInt(chi.URLParam(r, "employeeID"), 10, 64)
	if err != nil || employeeID <= 0 {
		metrics.ObserveRequest(metrics.ChannelAPI, metrics.OutcomeInvalid, start)
		writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid employee_id parameter")
		return
	}

	result, err := h.service.GetRecommendations(r.Context(), employeeID)
	if err != nil {
		metrics.ObserveRequest(metrics.ChannelAPI, metrics.OutcomeError, start)
		writeServiceError(w, employeeID, err)
		return
	}

	metrics.ObserveRequest(metrics.ChannelAPI, metrics.OutcomeSuccess, start)
	writeJSON(w, http.StatusOK, RecommendationResponse{
		EmployeeID:      employeeID,
		RepeatItems:     result.RepeatItems,
		Recommendations: result.Recommendations,
		Metadata: domain.RecommendationMeta{
			CacheHit:        result.CacheHit,
			GeneratedAt:     time.Now().UTC().Format(time.RFC3339),
			TotalCount:      len(result.Recommendations),
			ModelGeneration: h.service.ModelGeneration(),
		},
	})
}

func writeServiceError(w http.ResponseWriter, employeeID int64, err error) {
	// Request timeout
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		writeError(w, http.StatusServiceUnavailable, "request_timeout",
			"Request timed out, please try again")
		return
	}
	// Model inference failure
	if model.IsModelInferenceError(err) {
		logging.Error().Err(err).Int64("employee_id", employeeID).Msg("model inference failed")
		writeError(w, http.StatusServiceUnavailable, "model_unavailable",
			"Recommendation model failed to generate a response")
		return
	}
	logging.Error().Err(err).Int64("employee_id", employeeID).Msg("recommendation failed")
	writeError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
}
