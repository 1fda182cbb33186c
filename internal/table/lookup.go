package table

// UnknownProduct is shown for ids with no name in the table.
const UnknownProduct = "Unknown"

type ProductLookup map[int64]string

// Lookup maps each product id to the name on its first row.
func (t *Table) Lookup() ProductLookup {
	lookup := make(ProductLookup, len(t.products))
	for _, row := range t.rows {
		if _, ok := lookup[row.ProductID]; !ok {
			lookup[row.ProductID] = row.ProductName
		}
	}
	return lookup
}

func (l ProductLookup) Name(productID int64) string {
	if name, ok := l[productID]; ok {
		return name
	}
	return UnknownProduct
}
