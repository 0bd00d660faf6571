package listview

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Additional-Code/frostline/internal/entity"
	"github.com/Additional-Code/frostline/internal/reference"
	"github.com/Additional-Code/frostline/internal/remote"
	"github.com/Additional-Code/frostline/pkg/errorbank"
)

var tracer = otel.Tracer("github.com/Additional-Code/frostline/listview")

var (
	ErrNoMorePages       = errors.New("no more pages")
	ErrWrongDiscipline   = errors.New("operation not supported by this view's pagination")
	ErrUnknownDimension  = errors.New("unknown filter dimension")
	ErrUnknownOrder      = errors.New("order not in view")
	ErrInvalidTransition = errors.New("transition not allowed")
)

// Discipline is the pagination style of a view. A view never mixes both.
type Discipline string

const (
	// LoadMore follows the server's next link and appends.
	LoadMore Discipline = "load_more"
	// PageNumbers replaces the list with an explicit page.
	PageNumbers Discipline = "page_numbers"
)

// Dimension is one independently selectable filter.
type Dimension string

const (
	DimensionProduct  Dimension = "product"
	DimensionStatus   Dimension = "status"
	DimensionOperator Dimension = "operator"
)

// All is the sentinel value that clears a dimension.
const All = remote.FilterAll

// State is the render state of a view.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateEmpty   State = "empty"
	StateFailed  State = "failed"
)

const (
	emptyMessage  = "No se encontraron órdenes"
	failedMessage = "No se pudieron cargar las órdenes"
)

// OrderSource fetches and transitions orders.
type OrderSource interface {
	ListOrders(ctx context.Context, res remote.Resource, q remote.OrderQuery) (remote.OrderPage, error)
	FollowOrders(ctx context.Context, res remote.Resource, next string) (remote.OrderPage, error)
	TransitionOrder(ctx context.Context, res remote.Resource, orderID, statusID int64) (entity.Order, error)
}

// FilterSource serves dropdown collections and status resolution.
type FilterSource interface {
	Statuses(ctx context.Context, res remote.Resource) ([]entity.Status, error)
	Operators(ctx context.Context) ([]entity.Person, error)
	Products(ctx context.Context) ([]entity.Product, error)
	StatusFor(ctx context.Context, res remote.Resource, phase entity.Phase) (entity.Status, error)
}

// Options configure a Controller.
type Options struct {
	Resource   remote.Resource
	Discipline Discipline
	Dimensions []Dimension
}

// FilterOptions are the dropdown entries per dimension, in server order.
type FilterOptions struct {
	Products  []entity.Option `json:"products"`
	Statuses  []entity.Option `json:"statuses"`
	Operators []entity.Option `json:"operators"`
}

// Controller owns one order list: its filter selection, page cursor and render
// state. Every load takes a sequence number and only the latest one may commit.
type Controller struct {
	orders  OrderSource
	filters FilterSource
	opts    Options
	logger  *zap.Logger

	mu        sync.Mutex
	seq       uint64
	selection map[Dimension]string
	state     State
	message   string
	records   []entity.Order
	count     int
	next      string
	previous  string
	page      int
	pageSize  int
	options   FilterOptions
}

// New builds an idle Controller.
func New(orders OrderSource, filters FilterSource, opts Options, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Discipline == "" {
		opts.Discipline = LoadMore
	}
	if len(opts.Dimensions) == 0 {
		opts.Dimensions = []Dimension{DimensionProduct, DimensionStatus, DimensionOperator}
	}
	return &Controller{
		orders:    orders,
		filters:   filters,
		opts:      opts,
		logger:    logger.Named("listview").With(zap.String("resource", string(opts.Resource))),
		selection: make(map[Dimension]string),
		state:     StateIdle,
		page:      1,
	}
}

// Discipline reports the pagination style of the view.
func (c *Controller) Discipline() Discipline {
	return c.opts.Discipline
}

// Dimensions reports the filter dimensions the view supports.
func (c *Controller) Dimensions() []Dimension {
	return append([]Dimension(nil), c.opts.Dimensions...)
}

func (c *Controller) supports(dim Dimension) bool {
	for _, d := range c.opts.Dimensions {
		if d == dim {
			return true
		}
	}
	return false
}

// LoadFilters fetches the dropdown collections of the supported dimensions.
// A failed collection leaves its dropdown empty and is only logged.
func (c *Controller) LoadFilters(ctx context.Context) FilterOptions {
	var (
		out FilterOptions
		g   errgroup.Group
	)
	if c.supports(DimensionStatus) {
		g.Go(func() error {
			statuses, err := c.filters.Statuses(ctx, c.opts.Resource)
			if err != nil {
				c.logger.Warn("load status options failed", zap.Error(err))
				return nil
			}
			out.Statuses = reference.StatusOptions(statuses)
			return nil
		})
	}
	if c.supports(DimensionOperator) {
		g.Go(func() error {
			people, err := c.filters.Operators(ctx)
			if err != nil {
				c.logger.Warn("load operator options failed", zap.Error(err))
				return nil
			}
			out.Operators = reference.OperatorOptions(people)
			return nil
		})
	}
	if c.supports(DimensionProduct) {
		g.Go(func() error {
			products, err := c.filters.Products(ctx)
			if err != nil {
				c.logger.Warn("load product options failed", zap.Error(err))
				return nil
			}
			out.Products = reference.ProductOptions(products)
			return nil
		})
	}
	_ = g.Wait()

	c.mu.Lock()
	c.options = out
	c.mu.Unlock()
	return out
}

// FilterOptions returns the last loaded dropdown collections.
func (c *Controller) FilterOptions() FilterOptions {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.options
}

// Load fetches the first page for the current selection.
func (c *Controller) Load(ctx context.Context) (Snapshot, error) {
	return c.load(ctx, fetchFirst, 1)
}

// Reload is the manual retry: it refetches the first page with the current selection.
func (c *Controller) Reload(ctx context.Context) (Snapshot, error) {
	return c.load(ctx, fetchFirst, 1)
}

// EnsureLoaded loads the first page unless the view has been loaded before.
func (c *Controller) EnsureLoaded(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	idle := c.state == StateIdle
	c.mu.Unlock()
	if idle {
		return c.Load(ctx)
	}
	return c.Snapshot(), nil
}

// ApplyFilter sets one dimension and reloads from the first page. The sentinel
// All or an empty value clears the dimension.
func (c *Controller) ApplyFilter(ctx context.Context, dim Dimension, value string) (Snapshot, error) {
	if !c.supports(dim) {
		return c.Snapshot(), errorbank.BadRequest("unsupported filter dimension",
			errorbank.WithCause(ErrUnknownDimension),
			errorbank.WithDetail("dimension", string(dim)))
	}
	value = strings.TrimSpace(value)

	c.mu.Lock()
	if value == "" || strings.EqualFold(value, All) {
		delete(c.selection, dim)
	} else {
		c.selection[dim] = value
	}
	c.mu.Unlock()

	return c.load(ctx, fetchFirst, 1)
}

// ResetFilters clears every dimension and reloads from the first page.
func (c *Controller) ResetFilters(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	c.selection = make(map[Dimension]string)
	c.mu.Unlock()
	return c.load(ctx, fetchFirst, 1)
}

// Selection returns a copy of the active filters.
func (c *Controller) Selection() map[Dimension]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectionLocked()
}

func (c *Controller) selectionLocked() map[Dimension]string {
	out := make(map[Dimension]string, len(c.selection))
	for k, v := range c.selection {
		out[k] = v
	}
	return out
}

// LoadMore appends the page behind the current next link.
func (c *Controller) LoadMore(ctx context.Context) (Snapshot, error) {
	if c.opts.Discipline != LoadMore {
		return c.Snapshot(), wrongDiscipline("load_more")
	}
	c.mu.Lock()
	hasMore := c.next != "" && c.state == StateReady
	c.mu.Unlock()
	if !hasMore {
		return c.Snapshot(), noMorePages()
	}
	return c.load(ctx, fetchNext, 0)
}

// GoToPage replaces the list with page n.
func (c *Controller) GoToPage(ctx context.Context, n int) (Snapshot, error) {
	if c.opts.Discipline != PageNumbers {
		return c.Snapshot(), wrongDiscipline("go_to_page")
	}
	c.mu.Lock()
	last := c.lastPageLocked()
	c.mu.Unlock()
	if n < 1 || (last > 0 && n > last) {
		return c.Snapshot(), noMorePages()
	}
	return c.load(ctx, fetchPage, n)
}

// NextPage moves one page forward.
func (c *Controller) NextPage(ctx context.Context) (Snapshot, error) {
	if c.opts.Discipline != PageNumbers {
		return c.Snapshot(), wrongDiscipline("next_page")
	}
	c.mu.Lock()
	ok, target := c.next != "", c.page+1
	c.mu.Unlock()
	if !ok {
		return c.Snapshot(), noMorePages()
	}
	return c.load(ctx, fetchPage, target)
}

// PreviousPage moves one page back.
func (c *Controller) PreviousPage(ctx context.Context) (Snapshot, error) {
	if c.opts.Discipline != PageNumbers {
		return c.Snapshot(), wrongDiscipline("previous_page")
	}
	c.mu.Lock()
	target := c.page - 1
	c.mu.Unlock()
	if target < 1 {
		return c.Snapshot(), noMorePages()
	}
	return c.load(ctx, fetchPage, target)
}

// lastPageLocked returns the last page number, or 0 when it cannot be known yet.
func (c *Controller) lastPageLocked() int {
	switch {
	case c.state == StateIdle || c.state == StateFailed:
		return 0
	case c.next == "":
		return c.page
	case c.pageSize > 0:
		return int(math.Ceil(float64(c.count) / float64(c.pageSize)))
	default:
		return 0
	}
}

type fetchMode int

const (
	fetchFirst fetchMode = iota
	fetchPage
	fetchNext
)

// load issues exactly one request. Responses whose sequence number is no
// longer current are dropped without touching the view.
func (c *Controller) load(ctx context.Context, mode fetchMode, page int) (Snapshot, error) {
	ctx, span := tracer.Start(ctx, "listview.load")
	defer span.End()

	c.mu.Lock()
	c.seq++
	seq := c.seq
	query := remote.OrderQuery{Filters: make(map[string]string, len(c.selection)), Page: page}
	for dim, value := range c.selection {
		query.Filters[string(dim)] = value
	}
	next := c.next
	if mode != fetchNext {
		c.state = StateLoading
		c.message = ""
	}
	c.mu.Unlock()

	span.SetAttributes(
		attribute.String("listview.resource", string(c.opts.Resource)),
		attribute.Int("listview.page", page),
		attribute.Int64("listview.seq", int64(seq)),
	)

	var (
		result remote.OrderPage
		err    error
	)
	if mode == fetchNext {
		result, err = c.orders.FollowOrders(ctx, c.opts.Resource, next)
	} else {
		result, err = c.orders.ListOrders(ctx, c.opts.Resource, query)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.seq {
		c.logger.Debug("discarding stale response", zap.Uint64("seq", seq), zap.Uint64("current", c.seq))
		span.SetAttributes(attribute.Bool("listview.stale", true))
		return c.snapshotLocked(), nil
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		c.logger.Warn("load orders failed", zap.Error(err))
		c.state = StateFailed
		c.message = failedMessage
		c.records = nil
		c.count = 0
		c.next = ""
		c.previous = ""
		return c.snapshotLocked(), err
	}

	switch mode {
	case fetchNext:
		c.records = append(c.records, result.Orders...)
	default:
		c.records = result.Orders
		c.page = page
		if result.Next != "" && len(result.Orders) > c.pageSize {
			c.pageSize = len(result.Orders)
		}
	}
	c.count = result.Count
	c.next = result.Next
	c.previous = result.Previous

	if len(c.records) == 0 {
		c.state = StateEmpty
		c.message = emptyMessage
	} else {
		c.state = StateReady
		c.message = ""
	}
	return c.snapshotLocked(), nil
}

// TransitionOrder asks the server to move one order to target. Only a
// confirmed transition touches the list, and only the order's status changes.
func (c *Controller) TransitionOrder(ctx context.Context, orderID int64, target entity.Phase) (Snapshot, error) {
	ctx, span := tracer.Start(ctx, "listview.transition")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("order.id", orderID),
		attribute.String("order.target", string(target)),
	)

	c.mu.Lock()
	current, found := c.findLocked(orderID)
	c.mu.Unlock()
	if !found {
		return c.Snapshot(), errorbank.NotFound("order not found in view",
			errorbank.WithCause(ErrUnknownOrder),
			errorbank.WithDetail("order_id", orderID))
	}
	if from := current.Status.Phase(); !from.CanTransition(target) {
		return c.Snapshot(), errorbank.Conflict("order cannot move to the requested status",
			errorbank.WithCause(ErrInvalidTransition),
			errorbank.WithDetail("from", string(from)),
			errorbank.WithDetail("to", string(target)))
	}

	status, err := c.filters.StatusFor(ctx, c.opts.Resource, target)
	if err != nil {
		span.RecordError(err)
		return c.Snapshot(), err
	}

	updated, err := c.orders.TransitionOrder(ctx, c.opts.Resource, orderID, status.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transition failed")
		c.logger.Warn("transition order failed",
			zap.Int64("order_id", orderID),
			zap.String("target", string(target)),
			zap.Error(err))
		return c.Snapshot(), err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.records {
		if c.records[i].ID == orderID {
			c.records[i].Status = updated.Status
		}
	}
	c.logger.Info("order transitioned",
		zap.Int64("order_id", orderID),
		zap.String("status", updated.Status.Description))
	return c.snapshotLocked(), nil
}

// Order returns the view's copy of one order.
func (c *Controller) Order(orderID int64) (entity.Order, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.findLocked(orderID)
}

func (c *Controller) findLocked(orderID int64) (entity.Order, bool) {
	for _, o := range c.records {
		if o.ID == orderID {
			return o, true
		}
	}
	return entity.Order{}, false
}

func noMorePages() error {
	return errorbank.Conflict("no more pages", errorbank.WithCause(ErrNoMorePages))
}

func wrongDiscipline(op string) error {
	return errorbank.BadRequest("operation not supported by this view",
		errorbank.WithCause(ErrWrongDiscipline),
		errorbank.WithDetail("operation", op))
}

// compile-time check that the reference catalog serves filters.
var _ FilterSource = (*reference.Catalog)(nil)
