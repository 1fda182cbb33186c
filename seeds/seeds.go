// Package seeds writes synthetic raw order exports for local runs without
// the remote download.
package seeds

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/actuallystonmai/order-recommender/internal/logging"
)

type Config struct {
	Employees int
	Products  int
	Orders    int
	Seed      int64

	// Timestamps are spread over the 180 days before Now.
	Now time.Time
}

func DefaultConfig() Config {
	return Config{
		Employees: 20,
		Products:  50,
		Orders:    200,
		Seed:      42,
		Now:       time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC),
	}
}

var products = []string{
	"Pen", "Notebook", "Stapler", "Sticky Notes", "Highlighter",
	"Masala Tea", "Green Tea", "Filter Coffee", "Cold Coffee", "Lemon Soda",
	"Samosa", "Veg Sandwich", "Pav 1pcs", "Vada Pav", "Poha",
	"Banana", "Apple", "Mixed Nuts", "Protein Bar", "Cookies",
}

var (
	statuses       = []string{"delivered", "cancelled", "pending"}
	statusWeights  = []float64{0.8, 0.12, 0.08}
	orderItemsHead = []string{"id", "order_id", "product_id", "product_name", "quantity"}
	ordersHead     = []string{"id", "created_at", "employee_id", "status"}
)

type Summary struct {
	Orders     int
	OrderLines int
}

// WriteRawExports writes an order items export and a sales order export in
// the same column layout as the real ones. Output is deterministic for a
// given Config.
func WriteRawExports(orderItemsPath, ordersPath string, cfg Config) (Summary, error) {
	if cfg.Employees <= 0 || cfg.Products <= 0 || cfg.Orders <= 0 {
		return Summary{}, fmt.Errorf("seeds: employees, products and orders must be positive")
	}
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // synthetic data

	var orders, lines [][]string
	lineID := 1
	for i := range cfg.Orders {
		orderID := 1000 + i
		employeeID := powerLawID(rng, 1.5, cfg.Employees)
		createdAt := cfg.Now.Add(-time.Duration(rng.Intn(180*24)) * time.Hour)
		status := weightedChoice(rng, statuses, statusWeights)

		orders = append(orders, []string{
			strconv.Itoa(orderID),
			createdAt.Format(time.RFC3339),
			strconv.Itoa(employeeID),
			status,
		})

		for range rng.Intn(4) + 1 {
			productID := powerLawID(rng, 1.3, cfg.Products)
			lines = append(lines, []string{
				strconv.Itoa(lineID),
				strconv.Itoa(orderID),
				strconv.Itoa(productID),
				productName(productID),
				strconv.Itoa(rng.Intn(3) + 1),
			})
			lineID++
		}
	}

	logging.Info().Str("path", ordersPath).Int("rows", len(orders)).Msg("writing synthetic orders")
	if err := writeCSV(ordersPath, ordersHead, orders); err != nil {
		return Summary{}, err
	}
	logging.Info().Str("path", orderItemsPath).Int("rows", len(lines)).Msg("writing synthetic order items")
	if err := writeCSV(orderItemsPath, orderItemsHead, lines); err != nil {
		return Summary{}, err
	}
	return Summary{Orders: len(orders), OrderLines: len(lines)}, nil
}

func productName(id int) string {
	name := products[(id-1)%len(products)]
	if id > len(products) {
		name = fmt.Sprintf("%s %d", name, (id-1)/len(products)+1)
	}
	return name
}

// powerLawID skews picks towards low ids so a few employees and products
// dominate, as in real order data.
func powerLawID(rng *rand.Rand, exp float64, n int) int {
	id := int(math.Ceil(math.Pow(rng.Float64(), exp) * float64(n)))
	return max(1, min(id, n))
}

func weightedChoice(rng *rand.Rand, choices []string, weights []float64) string {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	r := rng.Float64() * total
	cumulative := 0.0
	for i, w := range weights {
		cumulative += w
		if r <= cumulative {
			return choices[i]
		}
	}
	return choices[len(choices)-1]
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
