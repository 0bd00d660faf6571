package entity

import (
	"strings"
	"time"
)

// Kind distinguishes the two order families handled by the console.
type Kind string

const (
	KindProduction Kind = "production"
	KindSales      Kind = "sales"
)

// Person references an employee (operator or supervisor).
type Person struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
}

// FullName joins name and surname.
func (p Person) FullName() string {
	return strings.TrimSpace(p.Name + " " + p.Surname)
}

// ProductRef references a product.
type ProductRef struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Unit        string `json:"unit,omitempty"`
}

// LineRef references a production line.
type LineRef struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
}

// ClientRef references a customer of a sales order.
type ClientRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// OrderItem is one product line of a sales order.
type OrderItem struct {
	Product  ProductRef `json:"product"`
	Quantity float64    `json:"quantity"`
	Unit     string     `json:"unit"`
}

// Order is the console's read-only copy of a server order. Production orders
// carry product, line and actors; sales orders carry client, priority and items.
type Order struct {
	ID         int64       `json:"id"`
	Kind       Kind        `json:"kind"`
	Status     Status      `json:"status"`
	Quantity   float64     `json:"quantity"`
	Product    *ProductRef `json:"product,omitempty"`
	Line       *LineRef    `json:"line,omitempty"`
	Operator   *Person     `json:"operator,omitempty"`
	Supervisor *Person     `json:"supervisor,omitempty"`
	Client     *ClientRef  `json:"client,omitempty"`
	Priority   string      `json:"priority,omitempty"`
	Items      []OrderItem `json:"items,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	StartedAt  *time.Time  `json:"started_at,omitempty"`
	DeliveryAt *time.Time  `json:"delivery_at,omitempty"`
}

// Priority badges for sales orders; anything unrecognised displays as NORMAL.
func PriorityBadge(priority string) string {
	switch strings.ToLower(strings.TrimSpace(priority)) {
	case "urgente", "urgent":
		return "URGENTE"
	case "alta", "high":
		return "ALTA"
	case "baja", "low":
		return "BAJA"
	default:
		return "NORMAL"
	}
}
