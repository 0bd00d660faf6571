package catalog

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/Additional-Code/frostline/internal/dto"
	"github.com/Additional-Code/frostline/internal/entity"
	"github.com/Additional-Code/frostline/internal/presentation/http/response"
	"github.com/Additional-Code/frostline/internal/session"
)

// Stock reports the stock table.
type Stock interface {
	Levels(ctx context.Context) ([]entity.StockLevel, error)
}

// Menu resolves the entries a role may open.
type Menu interface {
	Permissions(ctx context.Context, role int64) ([]entity.Permission, error)
}

// Handler serves the read-only screens around the order views.
type Handler struct {
	stock Stock
	menu  Menu
}

// NewHandler constructs a catalog Handler.
func NewHandler(stock Stock, menu Menu) *Handler {
	return &Handler{stock: stock, menu: menu}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler, sessions *session.Manager) {
	auth := session.Middleware(sessions)
	e.GET("/stock", h.levels, auth)
	e.GET("/menu", h.entries, auth)
}

func (h *Handler) levels(c echo.Context) error {
	b := response.New(c)
	levels, err := h.stock.Levels(c.Request().Context())
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewStockLevels(levels)).WithCount(len(levels)).Build()
}

func (h *Handler) entries(c echo.Context) error {
	b := response.New(c)
	sess, ok := session.FromEcho(c)
	if !ok {
		return b.SessionRequired()
	}

	perms, err := h.menu.Permissions(c.Request().Context(), sess.Employee.Role)
	if err != nil {
		return b.WithError(err).Build()
	}
	return b.WithData(dto.NewMenu(perms)).Build()
}
