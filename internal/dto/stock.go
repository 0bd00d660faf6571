package dto

import "github.com/Additional-Code/frostline/internal/entity"

// StockLevelResponse is one row of the stock table.
type StockLevelResponse struct {
	ProductID int64    `json:"product_id"`
	Product   string   `json:"product"`
	Unit      string   `json:"unit,omitempty"`
	Available *float64 `json:"available"`
	Status    string   `json:"status"`
}

// MenuEntryResponse is one entry of the role menu.
type MenuEntryResponse struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
}

// NewStockLevels maps stock rows.
func NewStockLevels(levels []entity.StockLevel) []StockLevelResponse {
	out := make([]StockLevelResponse, 0, len(levels))
	for _, l := range levels {
		out = append(out, StockLevelResponse{
			ProductID: l.Product.ID,
			Product:   l.Product.Name,
			Unit:      l.Product.Unit,
			Available: l.Available,
			Status:    string(l.Status),
		})
	}
	return out
}

// NewMenu maps role permissions.
func NewMenu(perms []entity.Permission) []MenuEntryResponse {
	out := make([]MenuEntryResponse, 0, len(perms))
	for _, p := range perms {
		out = append(out, MenuEntryResponse{ID: p.ID, Title: p.Title, Description: p.Description, Link: p.Link})
	}
	return out
}
