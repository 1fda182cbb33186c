package model

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/actuallystonmai/order-recommender/internal/domain"
)

// ctxCheckEvery is how many predictions run between context checks.
const ctxCheckEvery = 256

// Client ranks candidate products for an employee with a trained model.
type Client struct {
	svd *SVD
}

func NewClient(svd *SVD) *Client {
	return &Client{svd: svd}
}

type ModelInferenceError struct {
	Msg string
	Err error
}

func (e *ModelInferenceError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *ModelInferenceError) Unwrap() error {
	return e.Err
}

func IsModelInferenceError(err error) bool {
	var target *ModelInferenceError
	return errors.As(err, &target)
}

type ScoreInput struct {
	EmployeeID int64
	Candidates []int64
	Limit      int

	// Names resolves product ids for display. Nil leaves names empty.
	Names func(productID int64) string
}

// Score predicts every candidate, sorts by score descending keeping
// candidate order for ties, and returns the top Limit with scores rounded
// to two decimals.
func (c *Client) Score(ctx context.Context, input ScoreInput) ([]domain.ScoredRecommendation, error) {
	type scored struct {
		productID int64
		estimate  float64
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	preds := make([]scored, 0, len(input.Candidates))
	for i, productID := range input.Candidates {
		if i > 0 && i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		p := c.svd.Predict(input.EmployeeID, productID)
		if math.IsNaN(p.Estimate) {
			return nil, &ModelInferenceError{Msg: fmt.Sprintf("model returned NaN for product %d", productID)}
		}
		preds = append(preds, scored{productID: productID, estimate: p.Estimate})
	}

	sort.SliceStable(preds, func(i, j int) bool {
		return preds[i].estimate > preds[j].estimate
	})

	if input.Limit > 0 && len(preds) > input.Limit {
		preds = preds[:input.Limit]
	}

	out := make([]domain.ScoredRecommendation, len(preds))
	for i, p := range preds {
		out[i] = domain.ScoredRecommendation{
			ProductID: p.productID,
			Score:     roundScore(p.estimate),
		}
		if input.Names != nil {
			out[i].Name = input.Names(p.productID)
		}
	}
	return out, nil
}

// roundScore rounds to two decimals, ties to even.
func roundScore(x float64) float64 {
	return math.RoundToEven(x*100) / 100
}
