package domain

// Interaction is one row of the interaction table: how many delivered orders
// an employee placed for a product, clipped to MaxOrderCount.
type Interaction struct {
	EmployeeID  int64  `json:"employee_id"`
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	OrderCount  int    `json:"order_count"`
}

const (
	MinOrderCount = 1
	MaxOrderCount = 5
)

// Raw order line from the order items export
type OrderLine struct {
	OrderID     int64
	ProductID   int64
	ProductName string
}

// Raw order header from the sales order export
type Order struct {
	ID         int64
	EmployeeID int64
	Status     string
}
