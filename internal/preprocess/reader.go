package preprocess

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/actuallystonmai/order-recommender/internal/domain"
)

// Columns read from each export. Everything else in the file is ignored.
var (
	OrderLineColumns = []string{"order_id", "product_id", "product_name"}
	OrderColumns     = []string{"id", "employee_id", "status"}
)

// ColumnError reports a required column missing from a CSV header.
type ColumnError struct {
	Source string
	Column string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("%s: required column %q not found", e.Source, e.Column)
}

// ParseError reports a value that could not be read as an identifier.
type ParseError struct {
	Source string
	Line   int
	Column string
	Value  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s line %d: column %q: %q is not an integer id", e.Source, e.Line, e.Column, e.Value)
}

// ReadOrderLines reads the order items export. Rows with an empty order id,
// product id or product name are skipped.
func ReadOrderLines(source string, r io.Reader) ([]domain.OrderLine, error) {
	var lines []domain.OrderLine
	err := readColumns(source, r, OrderLineColumns, func(line int, v []string) error {
		if v[0] == "" || v[1] == "" || v[2] == "" {
			return nil
		}
		orderID, err := parseID(v[0])
		if err != nil {
			return &ParseError{Source: source, Line: line, Column: "order_id", Value: v[0]}
		}
		productID, err := parseID(v[1])
		if err != nil {
			return &ParseError{Source: source, Line: line, Column: "product_id", Value: v[1]}
		}
		lines = append(lines, domain.OrderLine{OrderID: orderID, ProductID: productID, ProductName: v[2]})
		return nil
	})
	return lines, err
}

// ReadOrders reads the sales order export. Rows with an empty id or
// employee id are skipped.
func ReadOrders(source string, r io.Reader) ([]domain.Order, error) {
	var orders []domain.Order
	err := readColumns(source, r, OrderColumns, func(line int, v []string) error {
		if v[0] == "" || v[1] == "" {
			return nil
		}
		id, err := parseID(v[0])
		if err != nil {
			return &ParseError{Source: source, Line: line, Column: "id", Value: v[0]}
		}
		employeeID, err := parseID(v[1])
		if err != nil {
			return &ParseError{Source: source, Line: line, Column: "employee_id", Value: v[1]}
		}
		orders = append(orders, domain.Order{ID: id, EmployeeID: employeeID, Status: v[2]})
		return nil
	})
	return orders, err
}

// readColumns calls fn with the wanted columns of every data row, in the
// order they were requested. Product names keep their surrounding
// whitespace; other values are trimmed.
func readColumns(source string, r io.Reader, want []string, fn func(line int, values []string) error) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &ColumnError{Source: source, Column: want[0]}
	}
	if err != nil {
		return fmt.Errorf("%s: read header: %w", source, err)
	}

	positions := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := positions[name]; !dup {
			positions[name] = i
		}
	}

	idx := make([]int, len(want))
	for i, col := range want {
		pos, ok := positions[col]
		if !ok {
			return &ColumnError{Source: source, Column: col}
		}
		idx[i] = pos
	}

	values := make([]string, len(want))
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", source, err)
		}
		line, _ := cr.FieldPos(0)

		for i, pos := range idx {
			values[i] = ""
			if pos < len(record) {
				values[i] = record[pos]
			}
			if want[i] != "product_name" {
				values[i] = strings.TrimSpace(values[i])
			}
		}
		if err := fn(line, values); err != nil {
			return err
		}
	}
}

// parseID accepts integers and integral floats such as "7.0", which is how
// id columns come out of exports that contain blanks.
func parseID(s string) (int64, error) {
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return id, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return int64(f), nil
}
