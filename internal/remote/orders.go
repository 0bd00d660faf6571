package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Additional-Code/frostline/internal/entity"
)

// Resource names an order collection on the backend.
type Resource string

const (
	ProductionOrders Resource = "orders"
	SalesOrders      Resource = "sales-orders"
)

// Kind reports which order family the resource lists.
func (r Resource) Kind() entity.Kind {
	if r == SalesOrders {
		return entity.KindSales
	}
	return entity.KindProduction
}

// StatusesPath is the status catalogue of the resource's order family. The
// two families number their statuses independently.
func (r Resource) StatusesPath() string {
	if r == SalesOrders {
		return "sales-order-statuses"
	}
	return "order-statuses"
}

// FilterAll is the selection sentinel meaning "no constraint"; it is never sent.
const FilterAll = "all"

// OrderQuery is one list request. Empty filter values are omitted.
type OrderQuery struct {
	Filters map[string]string
	Page    int
}

// Values encodes the query. The first page is requested without a page parameter.
func (q OrderQuery) Values() url.Values {
	values := url.Values{}
	for key, value := range q.Filters {
		value = strings.TrimSpace(value)
		if key == "" || value == "" || strings.EqualFold(value, FilterAll) {
			continue
		}
		values.Set(key, value)
	}
	if q.Page > 1 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	return values
}

// OrderPage is one decoded page of orders.
type OrderPage struct {
	Orders   []entity.Order
	Count    int
	Next     string
	Previous string
}

// ListOrders fetches one page of the resource.
func (c *Client) ListOrders(ctx context.Context, res Resource, q OrderQuery) (OrderPage, error) {
	var env envelope
	if err := c.do(ctx, string(res)+".list", http.MethodGet, c.endpoint(q.Values(), string(res)), nil, &env); err != nil {
		return OrderPage{}, err
	}
	return decodeOrderPage(res.Kind(), env)
}

// FollowOrders fetches the page behind a cursor link returned by a previous page.
func (c *Client) FollowOrders(ctx context.Context, res Resource, next string) (OrderPage, error) {
	target, err := c.sameOrigin(next)
	if err != nil {
		return OrderPage{}, err
	}
	var env envelope
	if err := c.do(ctx, string(res)+".follow", http.MethodGet, target, nil, &env); err != nil {
		return OrderPage{}, err
	}
	return decodeOrderPage(res.Kind(), env)
}

type transitionRequest struct {
	StatusID int64 `json:"status_id"`
}

// TransitionOrder asks the backend to move an order to statusID and returns the
// backend's representation of the updated order.
func (c *Client) TransitionOrder(ctx context.Context, res Resource, orderID, statusID int64) (entity.Order, error) {
	target := c.endpoint(nil, string(res), strconv.FormatInt(orderID, 10), "status")

	var raw json.RawMessage
	if err := c.do(ctx, string(res)+".transition", http.MethodPatch, target, transitionRequest{StatusID: statusID}, &raw); err != nil {
		return entity.Order{}, err
	}
	return decodeOrder(res.Kind(), raw)
}
