package catalog

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/Additional-Code/frostline/internal/reference"
	"github.com/Additional-Code/frostline/internal/service/stock"
	"github.com/Additional-Code/frostline/internal/session"
)

// Module wires the stock and menu endpoints.
var Module = fx.Options(
	fx.Provide(func(svc *stock.Service, catalog *reference.Catalog) *Handler {
		return NewHandler(svc, catalog)
	}),
	fx.Invoke(func(e *echo.Echo, h *Handler, sessions *session.Manager) {
		Register(e, h, sessions)
	}),
)
