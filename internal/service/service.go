package service

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/actuallystonmai/order-recommender/internal/bootstrap"
	"github.com/actuallystonmai/order-recommender/internal/domain"
	"github.com/actuallystonmai/order-recommender/internal/logging"
	"github.com/actuallystonmai/order-recommender/internal/metrics"
	"github.com/actuallystonmai/order-recommender/internal/model"
)

const (
	defaultLimit            = 5
	defaultBatchConcurrency = 10
)

// Cache stores finished results per model generation. A miss is (nil, nil).
type Cache interface {
	Get(ctx context.Context, generation string, employeeID int64) (*domain.RecommendationResult, error)
	Set(ctx context.Context, generation string, result *domain.RecommendationResult) error
}

type Options struct {
	Limit            int
	BatchConcurrency int
}

type Service struct {
	state       *bootstrap.State
	cache       Cache
	modelClient *model.Client
	limit       int
	concurrency int
}

// NewService wires the service to the startup state. cache may be nil.
func NewService(state *bootstrap.State, cache Cache, opts Options) *Service {
	if opts.Limit <= 0 {
		opts.Limit = defaultLimit
	}
	if opts.BatchConcurrency <= 0 {
		opts.BatchConcurrency = defaultBatchConcurrency
	}
	return &Service{
		state:       state,
		cache:       cache,
		modelClient: model.NewClient(state.Model),
		limit:       opts.Limit,
		concurrency: opts.BatchConcurrency,
	}
}

// ModelGeneration identifies the model serving requests.
func (s *Service) ModelGeneration() string {
	return s.state.ModelHeader.GenerationID
}

// GetRecommendations returns the employee's past items, most ordered
// first, and the top-scoring products they have never ordered.
func (s *Service) GetRecommendations(ctx context.Context, employeeID int64) (*domain.RecommendationResult, error) {
	generation := s.ModelGeneration()

	// Check Cache
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, generation, employeeID)
		switch {
		case err != nil:
			metrics.CacheResults.WithLabelValues("error").Inc()
			logging.Warn().Err(err).Int64("employee_id", employeeID).Msg("cache get failed")
		case cached != nil:
			metrics.CacheResults.WithLabelValues("hit").Inc()
			cached.CacheHit = true
			return cached, nil
		default:
			metrics.CacheResults.WithLabelValues("miss").Inc()
		}
	}

	// Cache miss -> generate recommendations
	result, err := s.generateRecommendations(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if cacheErr := s.cache.Set(ctx, generation, result); cacheErr != nil {
			logging.Warn().Err(cacheErr).Int64("employee_id", employeeID).Msg("cache set failed")
		}
	}
	return result, nil
}

func (s *Service) generateRecommendations(ctx context.Context, employeeID int64) (*domain.RecommendationResult, error) {
	rows := s.state.Table.ByEmployee(employeeID)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].OrderCount > rows[j].OrderCount
	})

	ordered := make(map[int64]struct{}, len(rows))
	repeat := make([]domain.RepeatItem, len(rows))
	for i, row := range rows {
		ordered[row.ProductID] = struct{}{}
		repeat[i] = domain.RepeatItem{
			ProductID:   row.ProductID,
			ProductName: row.ProductName,
			OrderCount:  row.OrderCount,
		}
	}

	var candidates []int64
	for _, productID := range s.state.Table.ProductIDs() {
		if _, seen := ordered[productID]; !seen {
			candidates = append(candidates, productID)
		}
	}
	metrics.RecommendCandidates.Observe(float64(len(candidates)))

	recs, err := s.modelClient.Score(ctx, model.ScoreInput{
		EmployeeID: employeeID,
		Candidates: candidates,
		Limit:      s.limit,
		Names:      s.state.Products.Name,
	})
	if err != nil {
		return nil, err
	}

	return &domain.RecommendationResult{
		EmployeeID:      employeeID,
		RepeatItems:     repeat,
		Recommendations: recs,
	}, nil
}

// GetBatchRecommendations computes recommendations for one page of the
// known employees, ordered by id. Per-employee failures are reported in
// the results rather than failing the batch.
func (s *Service) GetBatchRecommendations(ctx context.Context, page, limit int) (*domain.BatchResponse, error) {
	start := time.Now()
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	employeeIDs := slices.Clone(s.state.Table.EmployeeIDs())
	slices.Sort(employeeIDs)
	total := len(employeeIDs)

	offset := min((page-1)*limit, total)
	pageIDs := employeeIDs[offset:min(offset+limit, total)]

	// Process employees concurrently with bounded worker pool
	results := make([]domain.BatchUserResult, len(pageIDs))
	var wg sync.WaitGroup
	sem := make(chan struct{}, s.concurrency) // semaphore

	for i, employeeID := range pageIDs {
		wg.Add(1)
		go func(idx int, id int64) {
			defer wg.Done()
			sem <- struct{}{}        // acquire
			defer func() { <-sem }() // release

			results[idx] = s.processEmployeeForBatch(ctx, id)
		}(i, employeeID)
	}
	wg.Wait()

	successCount := 0
	failedCount := 0
	for _, r := range results {
		if r.Status == domain.StatusSuccess {
			successCount++
		} else {
			failedCount++
		}
	}

	return &domain.BatchResponse{
		Page:           page,
		Limit:          limit,
		TotalEmployees: total,
		Results:        results,
		Summary: domain.BatchSummary{
			SuccessCount:     successCount,
			FailedCount:      failedCount,
			ProcessingTimeMs: time.Since(start).Milliseconds(),
		},
		Metadata: domain.BatchMeta{
			GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}

func (s *Service) processEmployeeForBatch(ctx context.Context, employeeID int64) domain.BatchUserResult {
	result, err := s.GetRecommendations(ctx, employeeID)
	if err != nil {
		logging.Warn().Err(err).Int64("employee_id", employeeID).Msg("batch: recommendation failed")
		code, msg := categorizeError(err)
		return domain.BatchUserResult{
			EmployeeID: employeeID,
			Status:     domain.StatusFailed,
			Error:      code,
			Message:    msg,
		}
	}

	return domain.BatchUserResult{
		EmployeeID:      employeeID,
		Recommendations: result.Recommendations,
		Status:          domain.StatusSuccess,
	}
}

// categorizeError maps an error to a stable code and a client message.
func categorizeError(err error) (string, string) {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return "timeout", "request was cancelled before recommendations were ready"
	}
	if model.IsModelInferenceError(err) {
		return "model_inference_error", "recommendation model failed to generate a response"
	}
	return "internal_error", "an unexpected error occurred"
}
