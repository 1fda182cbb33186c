package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/actuallystonmai/order-recommender/internal/bootstrap"
	"github.com/actuallystonmai/order-recommender/internal/domain"
	"github.com/actuallystonmai/order-recommender/internal/model"
	"github.com/actuallystonmai/order-recommender/internal/service"
	"github.com/actuallystonmai/order-recommender/internal/table"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	rows := []domain.Interaction{
		{EmployeeID: 7, ProductID: 10, ProductName: "Pen", OrderCount: 3},
		{EmployeeID: 7, ProductID: 11, ProductName: "Notebook", OrderCount: 5},
		{EmployeeID: 8, ProductID: 10, ProductName: "Pen", OrderCount: 1},
		{EmployeeID: 8, ProductID: 12, ProductName: "Stapler <b>", OrderCount: 4},
		{EmployeeID: 9, ProductID: 13, ProductName: "Tape", OrderCount: 2},
	}
	dir := t.TempDir()
	opts := bootstrap.Options{
		TablePath: filepath.Join(dir, "interaction_df.gob"),
		ModelPath: filepath.Join(dir, "svd_model.gob"),
		Model:     model.Config{Factors: 4, Epochs: 5, Seed: 42},
	}
	if _, err := table.Save(opts.TablePath, table.New(rows)); err != nil {
		t.Fatal(err)
	}
	st, err := bootstrap.Load(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	return NewHandler(service.NewService(st, nil, service.Options{}))
}

func postForm(h http.HandlerFunc, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/recommend", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestIndex(t *testing.T) {
	h := newTestHandler(t)
	rec := httptest.NewRecorder()
	h.Index(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `name="employee_id"`) {
		t.Error("form field missing from index page")
	}
}

func TestRecommendRendersLists(t *testing.T) {
	h := newTestHandler(t)
	rec := postForm(h.Recommend, url.Values{"employee_id": {"7"}})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if strings.Index(body, "Notebook") > strings.Index(body, "Pen") {
		t.Error("repeat items not ordered by count")
	}
	if !strings.Contains(body, "Stapler &lt;b&gt;") {
		t.Error("product names must be escaped")
	}
	if !strings.Contains(body, "Tape") {
		t.Error("expected Tape among recommendations")
	}
}

func TestRecommendValidation(t *testing.T) {
	h := newTestHandler(t)

	for _, v := range []url.Values{
		{},
		{"employee_id": {""}},
		{"employee_id": {"abc"}},
		{"employee_id": {"7.5"}},
		{"employee_id": {"99999999999999999999"}},
	} {
		rec := postForm(h.Recommend, v)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("%v: status = %d, want 422", v, rec.Code)
			continue
		}
		var resp ValidationErrorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Error != "validation_error" || len(resp.Fields) != 1 || resp.Fields[0] != "employee_id" {
			t.Errorf("%v: response = %+v", v, resp)
		}
	}
}

func TestRecommendAcceptsSignedIDs(t *testing.T) {
	h := newTestHandler(t)

	for _, id := range []string{"-3", "+7", " 8 "} {
		rec := postForm(h.Recommend, url.Values{"employee_id": {id}})
		if rec.Code != http.StatusOK {
			t.Errorf("employee_id=%q: status = %d, body = %s", id, rec.Code, rec.Body.String())
		}
	}

	rec := postForm(h.Recommend, url.Values{"employee_id": {"+7"}})
	if !strings.Contains(rec.Body.String(), "Employee 7") {
		t.Error("+7 should resolve to employee 7")
	}
}

func TestGetRecommendationsJSON(t *testing.T) {
	h := newTestHandler(t)

	r := chi.NewRouter()
	r.Get("/api/employees/{employeeID}/recommendations", h.GetRecommendations)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/employees/8/recommendations", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp RecommendationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.EmployeeID != 8 || len(resp.RepeatItems) != 2 || resp.RepeatItems[0].ProductID != 12 {
		t.Errorf("response = %+v", resp)
	}
	if len(resp.Recommendations) != 2 || resp.Metadata.TotalCount != 2 {
		t.Errorf("recommendations = %+v", resp.Recommendations)
	}
	if resp.Metadata.ModelGeneration == "" {
		t.Error("model generation missing")
	}

	for _, bad := range []string{"abc", "0", "-4"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/employees/%s/recommendations", bad), nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", bad, rec.Code)
		}
	}
}

func TestGetBatchRecommendations(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.GetBatchRecommendations(rec, httptest.NewRequest(http.MethodGet, "/api/recommendations/batch?page=1&limit=2", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp domain.BatchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.TotalEmployees != 3 || len(resp.Results) != 2 || resp.Results[0].EmployeeID != 7 {
		t.Errorf("response = %+v", resp)
	}

	for _, q := range []string{"page=0", "page=x", "limit=0", "limit=101"} {
		rec := httptest.NewRecorder()
		h.GetBatchRecommendations(rec, httptest.NewRequest(http.MethodGet, "/api/recommendations/batch?"+q, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", q, rec.Code)
		}
	}
}

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{context.DeadlineExceeded, http.StatusServiceUnavailable},
		{&model.ModelInferenceError{Msg: "nan"}, http.StatusServiceUnavailable},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		writeServiceError(rec, 1, tt.err)
		if rec.Code != tt.status {
			t.Errorf("%v: status = %d, want %d", tt.err, rec.Code, tt.status)
		}
	}
}
