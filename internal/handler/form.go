package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/actuallystonmai/order-recommender/internal/metrics"
	"github.com/actuallystonmai/order-recommender/internal/validation"
)

type recommendForm struct {
	EmployeeID string `form:"employee_id" validate:"required,numeric"`
}

// GET /
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	render(w, "index", nil)
}

// POST /recommend
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if err := r.ParseForm(); err != nil {
		metrics.ObserveRequest(metrics.ChannelForm, metrics.OutcomeInvalid, start)
		writeError(w, http.StatusBadRequest, "invalid_form", "Request body is not a valid form")
		return
	}

	form := recommendForm{EmployeeID: strings.TrimSpace(r.PostForm.Get("employee_id"))}
	employeeID, err := parseEmployeeID(form)
	if err != nil {
		metrics.ObserveRequest(metrics.ChannelForm, metrics.OutcomeInvalid, start)
		writeValidationError(w, err)
		return
	}

	result, err := h.service.GetRecommendations(r.Context(), employeeID)
	if err != nil {
		metrics.ObserveRequest(metrics.ChannelForm, metrics.OutcomeError, start)
		writeServiceError(w, employeeID, err)
		return
	}

	metrics.ObserveRequest(metrics.ChannelForm, metrics.OutcomeSuccess, start)
	render(w, "result", result)
}

func parseEmployeeID(form recommendForm) (int64, error) {
	if err := validation.Struct(form); err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(form.EmployeeID, 10, 64)
	if err != nil {
		return 0, validation.Errors{{Field: "employee_id", Tag: "numeric"}}
	}
	return id, nil
}

func writeValidationError(w http.ResponseWriter, err error) {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", err.Error())
		return
	}

	fields := make([]string, len(verrs))
	for i, fe := range verrs {
		fields[i] = fe.Field
	}
	writeJSON(w, http.StatusUnprocessableEntity, ValidationErrorResponse{
		Error:   "validation_error",
		Message: verrs.Error(),
		Fields:  fields,
	})
}
