package model

import (
	"context"
	"errors"
	"math"
	"math/rand"

	"github.com/actuallystonmai/order-recommender/internal/domain"
)

type Config struct {
	Factors        int
	Epochs         int
	LearningRate   float64
	Regularization float64
	InitStdDev     float64
	Seed           int64

	// Rating scale used to clip estimates.
	RatingMin float64
	RatingMax float64
}

func DefaultConfig() Config {
	return Config{
		Factors:        100,
		Epochs:         20,
		LearningRate:   0.005,
		Regularization: 0.02,
		InitStdDev:     0.1,
		Seed:           42,
		RatingMin:      domain.MinOrderCount,
		RatingMax:      domain.MaxOrderCount,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Factors <= 0 {
		c.Factors = d.Factors
	}
	if c.Epochs <= 0 {
		c.Epochs = d.Epochs
	}
	if c.LearningRate <= 0 {
		c.LearningRate = d.LearningRate
	}
	if c.Regularization < 0 {
		c.Regularization = d.Regularization
	}
	if c.InitStdDev < 0 {
		c.InitStdDev = d.InitStdDev
	}
	if c.RatingMin == 0 && c.RatingMax == 0 {
		c.RatingMin, c.RatingMax = d.RatingMin, d.RatingMax
	}
	return c
}

type Rating struct {
	User  int64
	Item  int64
	Value float64
}

// RatingsFromInteractions uses order_count as the rating.
func RatingsFromInteractions(rows []domain.Interaction) []Rating {
	ratings := make([]Rating, len(rows))
	for i, row := range rows {
		ratings[i] = Rating{User: row.EmployeeID, Item: row.ProductID, Value: float64(row.OrderCount)}
	}
	return ratings
}

var ErrNoRatings = errors.New("no ratings to train on")

// SVD is immutable after Train or Load and safe for concurrent Predict.
type SVD struct {
	config     Config
	globalMean float64
	numRatings int

	userIndex map[int64]int
	itemIndex map[int64]int
	userIDs   []int64
	itemIDs   []int64

	userBias    []float64
	itemBias    []float64
	userFactors [][]float64
	itemFactors [][]float64
}

// Train fits a model over ratings. Users and items are indexed in order of
// first appearance.
func Train(ctx context.Context, ratings []Rating, cfg Config) (*SVD, error) {
	if len(ratings) == 0 {
		return nil, ErrNoRatings
	}
	cfg = cfg.withDefaults()

	m := &SVD{
		config:     cfg,
		numRatings: len(ratings),
		userIndex:  make(map[int64]int),
		itemIndex:  make(map[int64]int),
	}

	var sum float64
	for _, r := range ratings {
		if _, ok := m.userIndex[r.User]; !ok {
			m.userIndex[r.User] = len(m.userIDs)
			m.userIDs = append(m.userIDs, r.User)
		}
		if _, ok := m.itemIndex[r.Item]; !ok {
			m.itemIndex[r.Item] = len(m.itemIDs)
			m.itemIDs = append(m.itemIDs, r.Item)
		}
		sum += r.Value
	}
	m.globalMean = sum / float64(len(ratings))

	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // reproducible init, not security
	m.userBias = make([]float64, len(m.userIDs))
	m.itemBias = make([]float64, len(m.itemIDs))
	m.userFactors = randomMatrix(rng, len(m.userIDs), cfg.Factors, cfg.InitStdDev)
	m.itemFactors = randomMatrix(rng, len(m.itemIDs), cfg.Factors, cfg.InitStdDev)

	lr, reg := cfg.LearningRate, cfg.Regularization
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for _, r := range ratings {
			u := m.userIndex[r.User]
			i := m.itemIndex[r.Item]
			pu, qi := m.userFactors[u], m.itemFactors[i]

			err := r.Value - (m.globalMean + m.userBias[u] + m.itemBias[i] + dot(pu, qi))

			m.userBias[u] += lr * (err - reg*m.userBias[u])
			m.itemBias[i] += lr * (err - reg*m.itemBias[i])

			for f := range pu {
				puf, qif := pu[f], qi[f]
				pu[f] += lr * (err*qif - reg*puf)
				qi[f] += lr * (err*puf - reg*qif)
			}
		}
	}

	return m, nil
}

func randomMatrix(rng *rand.Rand, rows, cols int, std float64) [][]float64 {
	m := make([][]float64, rows)
	for r := range m {
		m[r] = make([]float64, cols)
		for c := range m[r] {
			m[r][c] = rng.NormFloat64() * std
		}
	}
	return m
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

type Prediction struct {
	User      int64
	Item      int64
	Estimate  float64
	UserKnown bool
	ItemKnown bool
}

// Predict estimates the rating of item by user. It never fails: unknown
// users or items fall back to the bias terms that are known.
func (m *SVD) Predict(user, item int64) Prediction {
	u, userKnown := m.userIndex[user]
	i, itemKnown := m.itemIndex[item]

	est := m.globalMean
	if userKnown {
		est += m.userBias[u]
	}
	if itemKnown {
		est += m.itemBias[i]
	}
	if userKnown && itemKnown {
		est += dot(m.userFactors[u], m.itemFactors[i])
	}

	est = math.Max(m.config.RatingMin, math.Min(m.config.RatingMax, est))
	return Prediction{User: user, Item: item, Estimate: est, UserKnown: userKnown, ItemKnown: itemKnown}
}

func (m *SVD) Config() Config {
	return m.config
}

func (m *SVD) GlobalMean() float64 {
	return m.globalMean
}

func (m *SVD) NumUsers() int {
	return len(m.userIDs)
}

func (m *SVD) NumItems() int {
	return len(m.itemIDs)
}

func (m *SVD) NumRatings() int {
	return m.numRatings
}
