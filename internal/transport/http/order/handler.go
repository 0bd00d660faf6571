package order

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/frostline/internal/listview"
	"github.com/Additional-Code/frostline/internal/presentation/http/response"
	service "github.com/Additional-Code/frostline/internal/service/order"
	"github.com/Additional-Code/frostline/internal/session"
	"github.com/Additional-Code/frostline/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/frostline/transport/http/order")

// Handler exposes the list views over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs an order Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance. Every route needs a session.
func Register(e *echo.Echo, h *Handler, sessions *session.Manager) {
	g := e.Group("/views/:view", session.Middleware(sessions))
	g.GET("", h.snapshot)
	g.GET("/filters", h.filters)
	g.POST("/filters", h.applyFilter)
	g.DELETE("/filters", h.resetFilters)
	g.POST("/reload", h.reload)
	g.POST("/more", h.loadMore)
	g.POST("/page", h.goToPage)
	g.POST("/orders/:id/transition", h.transition)
}

type viewOp func(c echo.Context, sess session.Session, name service.ViewName) (listview.Snapshot, error)

// render runs op and renders its snapshot.
func (h *Handler) render(c echo.Context, span string, op viewOp) error {
	b := response.New(c)

	sess, ok := session.FromEcho(c)
	if !ok {
		return b.SessionRequired()
	}
	name := service.ViewName(c.Param("view"))

	ctx, s := httpTracer.Start(c.Request().Context(), span, trace.WithAttributes(attribute.String("view", string(name))))
	defer s.End()
	c.SetRequest(c.Request().WithContext(ctx))

	return b.WithSnapshot(op(c, sess, name)).Build()
}

func (h *Handler) snapshot(c echo.Context) error {
	return h.render(c, "views.snapshot", func(c echo.Context, sess session.Session, name service.ViewName) (listview.Snapshot, error) {
		return h.svc.Snapshot(c.Request().Context(), sess, name)
	})
}

func (h *Handler) filters(c echo.Context) error {
	b := response.New(c)
	sess, ok := session.FromEcho(c)
	if !ok {
		return b.SessionRequired()
	}

	opts, err := h.svc.Filters(c.Request().Context(), sess, service.ViewName(c.Param("view")))
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(opts).Build()
}

func (h *Handler) applyFilter(c echo.Context) error {
	var payload struct {
		Dimension string `json:"dimension"`
		Value     string `json:"value"`
	}
	if err := c.Bind(&payload); err != nil {
		return response.New(c).WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if payload.Dimension == "" {
		return response.New(c).WithError(errorbank.BadRequest("dimension is required")).Build()
	}
	if payload.Value == "" {
		payload.Value = listview.All
	}

	return h.render(c, "views.applyFilter", func(c echo.Context, sess session.Session, name service.ViewName) (listview.Snapshot, error) {
		return h.svc.ApplyFilter(c.Request().Context(), sess, name, listview.Dimension(payload.Dimension), payload.Value)
	})
}

func (h *Handler) resetFilters(c echo.Context) error {
	return h.render(c, "views.resetFilters", func(c echo.Context, sess session.Session, name service.ViewName) (listview.Snapshot, error) {
		return h.svc.ResetFilters(c.Request().Context(), sess, name)
	})
}

func (h *Handler) reload(c echo.Context) error {
	return h.render(c, "views.reload", func(c echo.Context, sess session.Session, name service.ViewName) (listview.Snapshot, error) {
		return h.svc.Reload(c.Request().Context(), sess, name)
	})
}

func (h *Handler) loadMore(c echo.Context) error {
	return h.render(c, "views.loadMore", func(c echo.Context, sess session.Session, name service.ViewName) (listview.Snapshot, error) {
		return h.svc.LoadMore(c.Request().Context(), sess, name)
	})
}

func (h *Handler) goToPage(c echo.Context) error {
	var payload struct {
		Page int `json:"page"`
	}
	if err := c.Bind(&payload); err != nil {
		return response.New(c).WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	return h.render(c, "views.goToPage", func(c echo.Context, sess session.Session, name service.ViewName) (listview.Snapshot, error) {
		return h.svc.GoToPage(c.Request().Context(), sess, name, payload.Page)
	})
}

func (h *Handler) transition(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return response.New(c).WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}
	var payload struct {
		Target string `json:"target"`
	}
	if err := c.Bind(&payload); err != nil {
		return response.New(c).WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if payload.Target == "" {
		return response.New(c).WithError(errorbank.BadRequest("target is required")).Build()
	}

	return h.render(c, "views.transition", func(c echo.Context, sess session.Session, name service.ViewName) (listview.Snapshot, error) {
		return h.svc.Transition(c.Request().Context(), sess, name, id, payload.Target)
	})
}
