package preprocess

import (
	"sort"

	"github.com/actuallystonmai/order-recommender/internal/domain"
)

type Options struct {
	// Only orders with exactly this status are counted.
	DeliveredStatus string

	// Counts above this are clipped. Values outside [1, domain.MaxOrderCount]
	// fall back to domain.MaxOrderCount.
	MaxOrderCount int

	// Product names dropped from the result.
	ExcludeProducts []string
}

func DefaultOptions() Options {
	return Options{
		DeliveredStatus: "delivered",
		MaxOrderCount:   domain.MaxOrderCount,
	}
}

type interactionKey struct {
	employeeID  int64
	productID   int64
	productName string
}

// BuildInteractions joins order lines to their orders, keeps delivered
// orders, and counts lines per (employee, product, name). Lines without a
// matching order are dropped. The result is sorted by employee id, product
// id, then product name.
func BuildInteractions(lines []domain.OrderLine, orders []domain.Order, opts Options) []domain.Interaction {
	if opts.MaxOrderCount <= 0 || opts.MaxOrderCount > domain.MaxOrderCount {
		opts.MaxOrderCount = domain.MaxOrderCount
	}

	byID := make(map[int64][]domain.Order, len(orders))
	for _, o := range orders {
		byID[o.ID] = append(byID[o.ID], o)
	}

	excluded := make(map[string]struct{}, len(opts.ExcludeProducts))
	for _, name := range opts.ExcludeProducts {
		excluded[name] = struct{}{}
	}

	counts := make(map[interactionKey]int)
	for _, line := range lines {
		for _, o := range byID[line.OrderID] {
			if o.Status != opts.DeliveredStatus {
				continue
			}
			counts[interactionKey{o.EmployeeID, line.ProductID, line.ProductName}]++
		}
	}

	rows := make([]domain.Interaction, 0, len(counts))
	for k, n := range counts {
		if _, skip := excluded[k.productName]; skip {
			continue
		}
		rows = append(rows, domain.Interaction{
			EmployeeID:  k.employeeID,
			ProductID:   k.productID,
			ProductName: k.productName,
			OrderCount:  min(n, opts.MaxOrderCount),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.EmployeeID != b.EmployeeID {
			return a.EmployeeID < b.EmployeeID
		}
		if a.ProductID != b.ProductID {
			return a.ProductID < b.ProductID
		}
		return a.ProductName < b.ProductName
	})
	return rows
}
