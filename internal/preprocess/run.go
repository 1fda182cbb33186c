// Package preprocess turns the raw order exports into the interaction
// table the service trains on.
package preprocess

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/actuallystonmai/order-recommender/internal/domain"
	"github.com/actuallystonmai/order-recommender/internal/logging"
	"github.com/actuallystonmai/order-recommender/internal/table"
)

// Publisher receives the finished table, e.g. the Postgres mirror.
type Publisher interface {
	PublishTable(ctx context.Context, t *table.Table) error
}

type Job struct {
	OrderItemsPath string
	OrdersPath     string
	OrderItemsURL  string
	OrdersURL      string

	TablePath string
	CSVPath   string

	Options    Options
	HTTPClient *http.Client
	Publisher  Publisher
}

type Result struct {
	Table     *table.Table
	Lines     int
	Orders    int
	Rows      int
	Columns   int
	Published bool
}

// Run fetches missing inputs, builds the interaction table and persists it.
func Run(ctx context.Context, job Job) (*Result, error) {
	client := job.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	if _, err := EnsureFile(ctx, client, job.OrderItemsURL, job.OrderItemsPath); err != nil {
		return nil, fmt.Errorf("fetch order items: %w", err)
	}
	if _, err := EnsureFile(ctx, client, job.OrdersURL, job.OrdersPath); err != nil {
		return nil, fmt.Errorf("fetch orders: %w", err)
	}

	var (
		lines  []domain.OrderLine
		orders []domain.Order
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lines, err = readFile(job.OrderItemsPath, ReadOrderLines)
		return err
	})
	g.Go(func() error {
		var err error
		orders, err = readFile(job.OrdersPath, ReadOrders)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	logging.Info().Int("order_lines", len(lines)).Int("orders", len(orders)).Msg("raw exports read")

	rows := BuildInteractions(lines, orders, job.Options)
	t, err := table.Save(job.TablePath, table.New(rows))
	if err != nil {
		return nil, err
	}
	if job.CSVPath != "" {
		if err := table.WriteCSV(job.CSVPath, t); err != nil {
			return nil, fmt.Errorf("write interaction csv: %w", err)
		}
	}

	result := &Result{
		Table:   t,
		Lines:   len(lines),
		Orders:  len(orders),
		Rows:    t.Len(),
		Columns: len(table.CSVHeader),
	}

	if job.Publisher != nil {
		if err := job.Publisher.PublishTable(ctx, t); err != nil {
			return nil, fmt.Errorf("publish interaction table: %w", err)
		}
		result.Published = true
	}

	logging.Info().
		Str("table", job.TablePath).
		Str("csv", job.CSVPath).
		Str("generation", t.GenerationID()).
		Int("rows", result.Rows).
		Int("columns", result.Columns).
		Msg("preprocessing done")
	return result, nil
}

func readFile[T any](path string, read func(string, io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return read(path, f)
}
