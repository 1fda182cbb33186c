package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/actuallystonmai/order-recommender/internal/metrics"
)

// GET /api/recommendations/batch
func (h *Handler) GetBatchRecommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	// Parse and validate page
	page := 1
	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		parsed, err := strconv.Atoi(pageStr)
		if err != nil || parsed < 1 || parsed > 10000 {
			metrics.ObserveRequest(metrics.ChannelBatch, metrics.OutcomeInvalid, start)
			writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid page parameter")
			return
		}
		page = parsed
	}

	// Parse and validate limit
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 || parsed > 100 {
			metrics.ObserveRequest(metrics.ChannelBatch, metrics.OutcomeInvalid, start)
			writeError(w, http.StatusBadRequest, "invalid_parameter", "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	result, err := h.service.GetBatchRecommendations(r.Context(), page, limit)
	if err != nil {
		metrics.ObserveRequest(metrics.ChannelBatch, metrics.OutcomeError, start)
		writeError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
		return
	}

	metrics.ObserveRequest(metrics.ChannelBatch, metrics.OutcomeSuccess, start)
	writeJSON(w, http.StatusOK, result)
}
