package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"

	"github.com/actuallystonmai/order-recommender/internal/domain"
	"github.com/actuallystonmai/order-recommender/internal/storage"
)

type payload struct {
	Rows []domain.Interaction
}

// CSVHeader is the column order of the human-readable export.
var CSVHeader = []string{"employee_id", "product_id", "product_name", "order_count"}

// Save writes the table with a fresh generation id and returns the table
// bound to the stored header.
func Save(path string, t *Table) (*Table, error) {
	header, err := storage.Write(path, storage.Header{
		Kind:          storage.KindInteractionTable,
		SchemaVersion: SchemaVersion,
		GenerationID:  uuid.NewString(),
		Records:       t.Len(),
	}, payload{Rows: t.rows})
	if err != nil {
		return nil, fmt.Errorf("save interaction table: %w", err)
	}

	saved := *t
	saved.header = header
	return &saved, nil
}

// Load reads a table written by Save. A missing file yields
// domain.ErrTableNotFound wrapped with the path.
func Load(path string) (*Table, error) {
	var p payload
	header, err := storage.Read(path, storage.KindInteractionTable, SchemaVersion, &p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("required data file %q is missing: %w", path, domain.ErrTableNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load interaction table: %w", err)
	}

	return WithHeader(New(p.Rows), header), nil
}

// WithHeader binds a table to a header produced elsewhere, such as the
// Postgres mirror.
func WithHeader(t *Table, header storage.Header) *Table {
	bound := *t
	bound.header = header
	return &bound
}

// WriteCSV writes the table with a header row and no index column.
func WriteCSV(path string, t *Table) error {
	f, err := os.Create(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range t.rows {
		record := []string{
			strconv.FormatInt(row.EmployeeID, 10),
			strconv.FormatInt(row.ProductID, 10),
			row.ProductName,
			strconv.Itoa(row.OrderCount),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}
