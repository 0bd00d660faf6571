package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Additional-Code/frostline/internal/entity"
)

// OrderStatuses lists the statuses an order of res can take.
func (c *Client) OrderStatuses(ctx context.Context, res Resource) ([]entity.Status, error) {
	var env envelope
	if err := c.do(ctx, "statuses.list", http.MethodGet, c.endpoint(nil, res.StatusesPath()), nil, &env); err != nil {
		return nil, err
	}
	return decodeList(env, func(raw json.RawMessage) (entity.Status, error) {
		var w wireStatus
		if err := json.Unmarshal(raw, &w); err != nil {
			return entity.Status{}, malformed("status", err)
		}
		return w.toStatus("status.id")
	})
}

// Operators lists employees holding the given role.
func (c *Client) Operators(ctx context.Context, role int) ([]entity.Person, error) {
	query := url.Values{"role": []string{strconv.Itoa(role)}}
	var env envelope
	if err := c.do(ctx, "operators.list", http.MethodGet, c.endpoint(query, "operators"), nil, &env); err != nil {
		return nil, err
	}
	return decodeList(env, func(raw json.RawMessage) (entity.Person, error) {
		var w struct {
			ID      *int64 `json:"id"`
			Name    string `json:"name"`
			Surname string `json:"surname"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return entity.Person{}, malformed("operator", err)
		}
		if w.ID == nil {
			return entity.Person{}, malformed("operator.id", nil)
		}
		return entity.Person{ID: *w.ID, Name: w.Name, Surname: w.Surname}, nil
	})
}

// Products lists the product catalogue.
func (c *Client) Products(ctx context.Context) ([]entity.Product, error) {
	var env envelope
	if err := c.do(ctx, "products.list", http.MethodGet, c.endpoint(nil, "products"), nil, &env); err != nil {
		return nil, err
	}
	return decodeList(env, func(raw json.RawMessage) (entity.Product, error) {
		var w struct {
			ID          *int64 `json:"id"`
			Name        string `json:"name"`
			Description string `json:"description"`
			Unit        string `json:"unit"`
		}
		if err := json.Unmarshal(raw, &w); err != nil {
			return entity.Product{}, malformed("product", err)
		}
		if w.ID == nil {
			return entity.Product{}, malformed("product.id", nil)
		}
		return entity.Product{ID: *w.ID, Name: w.Name, Description: w.Description, Unit: w.Unit}, nil
	})
}

// AvailableStock returns the available quantity of one product.
func (c *Client) AvailableStock(ctx context.Context, productID int64) (float64, error) {
	var body struct {
		Available *float64 `json:"available"`
	}
	target := c.endpoint(nil, "stock", strconv.FormatInt(productID, 10), "available")
	if err := c.do(ctx, "stock.available", http.MethodGet, target, nil, &body); err != nil {
		return 0, err
	}
	if body.Available == nil {
		return 0, malformed("available", nil)
	}
	return *body.Available, nil
}

// RolePermissions lists the menu entries granted to a role.
func (c *Client) RolePermissions(ctx context.Context, role int64) ([]entity.Permission, error) {
	var env envelope
	target := c.endpoint(nil, "roles", strconv.FormatInt(role, 10), "permissions")
	if err := c.do(ctx, "permissions.list", http.MethodGet, target, nil, &env); err != nil {
		return nil, err
	}
	return decodeList(env, func(raw json.RawMessage) (entity.Permission, error) {
		var p entity.Permission
		if err := json.Unmarshal(raw, &p); err != nil {
			return entity.Permission{}, malformed("permission", err)
		}
		return p, nil
	})
}

// Employee fetches one employee record.
func (c *Client) Employee(ctx context.Context, id int64) (entity.Employee, error) {
	var w struct {
		ID      *int64 `json:"id"`
		Name    string `json:"name"`
		Surname string `json:"surname"`
		Role    *int64 `json:"role"`
	}
	target := c.endpoint(nil, "employees", strconv.FormatInt(id, 10))
	if err := c.do(ctx, "employees.get", http.MethodGet, target, nil, &w); err != nil {
		return entity.Employee{}, err
	}
	if w.ID == nil || w.Role == nil {
		return entity.Employee{}, malformed("employee", nil)
	}
	return entity.Employee{ID: *w.ID, Name: w.Name, Surname: w.Surname, Role: *w.Role}, nil
}
