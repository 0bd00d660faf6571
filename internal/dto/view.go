package dto

import (
	"time"

	"github.com/Additional-Code/frostline/internal/listview"
)

// ActionResponse is a transition offered on a card.
type ActionResponse struct {
	Label  string `json:"label"`
	Target string `json:"target"`
}

// ItemResponse is one line of a sales order.
type ItemResponse struct {
	Product  string  `json:"product"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit,omitempty"`
}

// CardResponse is an order as rendered by a list view.
type CardResponse struct {
	ID         int64            `json:"id"`
	Kind       string           `json:"kind"`
	Badge      string           `json:"badge"`
	Phase      string           `json:"phase"`
	StatusID   int64            `json:"status_id"`
	Product    string           `json:"product,omitempty"`
	Quantity   float64          `json:"quantity"`
	Operator   string           `json:"operator,omitempty"`
	Supervisor string           `json:"supervisor,omitempty"`
	Line       string           `json:"line,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	StartedAt  *time.Time       `json:"started_at,omitempty"`
	Client     string           `json:"client,omitempty"`
	Priority   string           `json:"priority,omitempty"`
	DeliveryAt *time.Time       `json:"delivery_at,omitempty"`
	Items      []ItemResponse   `json:"items,omitempty"`
	Actions    []ActionResponse `json:"actions"`
}

// SnapshotResponse is the JSON form of a list view.
type SnapshotResponse struct {
	State       string            `json:"state"`
	Message     string            `json:"message,omitempty"`
	Discipline  string            `json:"discipline"`
	Total       int               `json:"total"`
	Shown       int               `json:"shown"`
	HasMore     bool              `json:"has_more"`
	HasPrevious bool              `json:"has_previous"`
	Page        int               `json:"page"`
	Filters     map[string]string `json:"filters"`
	Cards       []CardResponse    `json:"cards"`
}

// NewCard maps a rendered card.
func NewCard(card listview.Card) CardResponse {
	o := card.Order
	out := CardResponse{
		ID:         o.ID,
		Kind:       string(o.Kind),
		Badge:      card.Badge,
		Phase:      string(o.Status.Phase()),
		StatusID:   o.Status.ID,
		Quantity:   o.Quantity,
		CreatedAt:  o.CreatedAt,
		StartedAt:  o.StartedAt,
		Priority:   card.Priority,
		DeliveryAt: o.DeliveryAt,
		Actions:    make([]ActionResponse, 0, len(card.Actions)),
	}
	if o.Product != nil {
		out.Product = o.Product.Name
	}
	if o.Operator != nil {
		out.Operator = o.Operator.FullName()
	}
	if o.Supervisor != nil {
		out.Supervisor = o.Supervisor.FullName()
	}
	if o.Line != nil {
		out.Line = o.Line.Description
	}
	if o.Client != nil {
		out.Client = o.Client.Name
	}
	for _, item := range o.Items {
		out.Items = append(out.Items, ItemResponse{Product: item.Product.Name, Quantity: item.Quantity, Unit: item.Unit})
	}
	for _, a := range card.Actions {
		out.Actions = append(out.Actions, ActionResponse{Label: a.Label, Target: string(a.Target)})
	}
	return out
}

// NewSnapshot maps a list view snapshot.
func NewSnapshot(s listview.Snapshot) SnapshotResponse {
	out := SnapshotResponse{
		State:       string(s.State),
		Message:     s.Message,
		Discipline:  string(s.Discipline),
		Total:       s.Total,
		Shown:       s.Shown(),
		HasMore:     s.HasMore,
		HasPrevious: s.HasPrevious,
		Page:        s.Page,
		Filters:     make(map[string]string, len(s.Filters)),
		Cards:       make([]CardResponse, 0, len(s.Orders)),
	}
	for dim, value := range s.Filters {
		out.Filters[string(dim)] = value
	}
	for _, card := range s.Cards() {
		out.Cards = append(out.Cards, NewCard(card))
	}
	return out
}
