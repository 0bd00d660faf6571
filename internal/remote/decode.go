package remote

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Additional-Code/frostline/internal/entity"
	"github.com/Additional-Code/frostline/pkg/errorbank"
)

// ErrMalformed marks a backend payload that could not be normalised.
var ErrMalformed = errors.New("malformed remote payload")

// envelope is the backend's paginated collection shape.
type envelope struct {
	Count    *int            `json:"count"`
	Next     *string         `json:"next"`
	Previous *string         `json:"previous"`
	Results  json.RawMessage `json:"results"`
}

// records splits the results array. A missing or null results field is an empty page.
func (e envelope) records() ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(e.Results)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var out []json.RawMessage
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, malformed("results", err)
	}
	return out, nil
}

func malformed(field string, err error) error {
	cause := fmt.Errorf("%w: %s", ErrMalformed, field)
	if err != nil {
		cause = fmt.Errorf("%w: %s: %v", ErrMalformed, field, err)
	}
	return errorbank.Upstream("malformed response from backend",
		errorbank.WithCause(cause),
		errorbank.WithDetail("field", field))
}

// timestamp accepts the layouts the backend emits, with or without zone.
type timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", raw)
}

func (t *timestamp) ptr() *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}

type wireStatus struct {
	ID          *int64 `json:"id"`
	Description string `json:"description"`
}

func (w *wireStatus) toStatus(field string) (entity.Status, error) {
	if w == nil || w.ID == nil {
		return entity.Status{}, malformed(field, nil)
	}
	return entity.Status{ID: *w.ID, Description: w.Description}, nil
}

// wirePriority is either a bare label ("alta") or a {id,description} object.
type wirePriority struct {
	Description string
}

func (w *wirePriority) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		return json.Unmarshal(trimmed, &w.Description)
	}
	var obj wireStatus
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return err
	}
	w.Description = obj.Description
	return nil
}

type wirePerson struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
}

func (w *wirePerson) toPerson() *entity.Person {
	if w == nil {
		return nil
	}
	return &entity.Person{ID: w.ID, Name: w.Name, Surname: w.Surname}
}

type wireProduct struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Unit        string `json:"unit"`
}

func (w *wireProduct) toRef() *entity.ProductRef {
	if w == nil {
		return nil
	}
	return &entity.ProductRef{ID: w.ID, Name: w.Name, Description: w.Description, Unit: w.Unit}
}

type wireLine struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
}

type wireClient struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type wireItem struct {
	Product  *wireProduct `json:"product"`
	Quantity float64      `json:"quantity"`
	Unit     string       `json:"unit"`
}

type wireProductionOrder struct {
	ID         *int64       `json:"id"`
	Status     *wireStatus  `json:"status"`
	Quantity   float64      `json:"quantity"`
	Product    *wireProduct `json:"product"`
	Line       *wireLine    `json:"line"`
	Operator   *wirePerson  `json:"operator"`
	Supervisor *wirePerson  `json:"supervisor"`
	CreatedAt  *timestamp   `json:"created_at"`
	StartedAt  *timestamp   `json:"started_at"`
}

type wireSalesOrder struct {
	ID         *int64        `json:"id"`
	Status     *wireStatus   `json:"status"`
	Client     *wireClient   `json:"client"`
	Priority   *wirePriority `json:"priority"`
	Items      []wireItem    `json:"items"`
	CreatedAt  *timestamp    `json:"created_at"`
	DeliveryAt *timestamp    `json:"delivery_date"`
}

// decodeOrder normalises one backend record into an entity.Order. Identity and
// status are mandatory; everything else is optional on the wire.
func decodeOrder(kind entity.Kind, raw json.RawMessage) (entity.Order, error) {
	switch kind {
	case entity.KindSales:
		return decodeSalesOrder(raw)
	default:
		return decodeProductionOrder(raw)
	}
}

func decodeProductionOrder(raw json.RawMessage) (entity.Order, error) {
	var w wireProductionOrder
	if err := json.Unmarshal(raw, &w); err != nil {
		return entity.Order{}, malformed("order", err)
	}
	if w.ID == nil {
		return entity.Order{}, malformed("order.id", nil)
	}
	status, err := w.Status.toStatus("order.status")
	if err != nil {
		return entity.Order{}, err
	}

	order := entity.Order{
		ID:         *w.ID,
		Kind:       entity.KindProduction,
		Status:     status,
		Quantity:   w.Quantity,
		Product:    w.Product.toRef(),
		Operator:   w.Operator.toPerson(),
		Supervisor: w.Supervisor.toPerson(),
		StartedAt:  w.StartedAt.ptr(),
	}
	if w.Line != nil {
		order.Line = &entity.LineRef{ID: w.Line.ID, Description: w.Line.Description}
	}
	if w.CreatedAt != nil {
		order.CreatedAt = w.CreatedAt.Time
	}
	return order, nil
}

func decodeSalesOrder(raw json.RawMessage) (entity.Order, error) {
	var w wireSalesOrder
	if err := json.Unmarshal(raw, &w); err != nil {
		return entity.Order{}, malformed("sales_order", err)
	}
	if w.ID == nil {
		return entity.Order{}, malformed("sales_order.id", nil)
	}
	status, err := w.Status.toStatus("sales_order.status")
	if err != nil {
		return entity.Order{}, err
	}

	order := entity.Order{
		ID:         *w.ID,
		Kind:       entity.KindSales,
		Status:     status,
		DeliveryAt: w.DeliveryAt.ptr(),
	}
	if w.Client != nil {
		order.Client = &entity.ClientRef{ID: w.Client.ID, Name: w.Client.Name}
	}
	if w.Priority != nil {
		order.Priority = strings.TrimSpace(w.Priority.Description)
	}
	if w.CreatedAt != nil {
		order.CreatedAt = w.CreatedAt.Time
	}
	for i, item := range w.Items {
		if item.Product == nil {
			return entity.Order{}, malformed(fmt.Sprintf("sales_order.items[%d].product", i), nil)
		}
		order.Items = append(order.Items, entity.OrderItem{
			Product:  *item.Product.toRef(),
			Quantity: item.Quantity,
			Unit:     item.Unit,
		})
		order.Quantity += item.Quantity
	}
	return order, nil
}

func decodeOrderPage(kind entity.Kind, env envelope) (OrderPage, error) {
	records, err := env.records()
	if err != nil {
		return OrderPage{}, err
	}

	page := OrderPage{Orders: make([]entity.Order, 0, len(records))}
	for _, raw := range records {
		order, err := decodeOrder(kind, raw)
		if err != nil {
			return OrderPage{}, err
		}
		page.Orders = append(page.Orders, order)
	}

	if env.Count != nil {
		page.Count = *env.Count
	} else {
		page.Count = len(page.Orders)
	}
	if env.Next != nil {
		page.Next = *env.Next
	}
	if env.Previous != nil {
		page.Previous = *env.Previous
	}
	return page, nil
}

// decodeList decodes every record of a reference collection with fn.
func decodeList[T any](env envelope, fn func(json.RawMessage) (T, error)) ([]T, error) {
	records, err := env.records()
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(records))
	for _, raw := range records {
		item, err := fn(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}
