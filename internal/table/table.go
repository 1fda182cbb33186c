// Package table holds the interaction table: one row per (employee,
// product, product name) with a clipped delivered-order count.
package table

import (
	"github.com/actuallystonmai/order-recommender/internal/domain"
	"github.com/actuallystonmai/order-recommender/internal/storage"
)

// SchemaVersion is bumped whenever the row layout changes.
const SchemaVersion = 1

// Table is read-only once built.
type Table struct {
	header     storage.Header
	rows       []domain.Interaction
	byEmployee map[int64][]int
	employees  []int64
	products   []int64
}

// New indexes rows. Rows are kept in the given order.
func New(rows []domain.Interaction) *Table {
	t := &Table{
		rows:       rows,
		byEmployee: make(map[int64][]int),
	}

	seenProduct := make(map[int64]struct{})
	for i, row := range rows {
		if _, ok := t.byEmployee[row.EmployeeID]; !ok {
			t.employees = append(t.employees, row.EmployeeID)
		}
		t.byEmployee[row.EmployeeID] = append(t.byEmployee[row.EmployeeID], i)

		if _, ok := seenProduct[row.ProductID]; !ok {
			seenProduct[row.ProductID] = struct{}{}
			t.products = append(t.products, row.ProductID)
		}
	}
	return t
}

func (t *Table) Len() int {
	return len(t.rows)
}

// Rows returns the underlying rows. Callers must not modify them.
func (t *Table) Rows() []domain.Interaction {
	return t.rows
}

// ByEmployee returns a copy of the employee's rows in table order.
func (t *Table) ByEmployee(employeeID int64) []domain.Interaction {
	idx := t.byEmployee[employeeID]
	out := make([]domain.Interaction, len(idx))
	for i, j := range idx {
		out[i] = t.rows[j]
	}
	return out
}

// ProductIDs returns distinct product ids in first-occurrence order.
func (t *Table) ProductIDs() []int64 {
	return t.products
}

// EmployeeIDs returns distinct employee ids in first-occurrence order.
func (t *Table) EmployeeIDs() []int64 {
	return t.employees
}

// Header is the storage header the table was saved or loaded with. It is
// zero for a table that has not been persisted.
func (t *Table) Header() storage.Header {
	return t.header
}

// GenerationID is shorthand for Header().GenerationID.
func (t *Table) GenerationID() string {
	return t.header.GenerationID
}
