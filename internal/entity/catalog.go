package entity

// Option is a single {id, label} entry of a filter dropdown.
type Option struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

// Product is a sellable product as listed by the backend.
type Product struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Unit        string `json:"unit"`
}

// Employee is the subset of an employee record the console needs for a session.
type Employee struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Role    int64  `json:"role"`
}

// Permission is a menu entry granted to a role.
type Permission struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
}

// StockStatus classifies an available quantity.
type StockStatus string

const (
	StockIn      StockStatus = "in_stock"
	StockLow     StockStatus = "low_stock"
	StockOut     StockStatus = "out_of_stock"
	StockUnknown StockStatus = "unknown"
)

// LowStockThreshold is the quantity under which stock is reported as low.
const LowStockThreshold = 50

// ClassifyStock maps an available quantity onto a stock status.
func ClassifyStock(available float64) StockStatus {
	switch {
	case available <= 0:
		return StockOut
	case available < LowStockThreshold:
		return StockLow
	default:
		return StockIn
	}
}

// StockLevel is the stock view row for one product.
type StockLevel struct {
	Product   Product     `json:"product"`
	Available *float64    `json:"available,omitempty"`
	Status    StockStatus `json:"status"`
}
