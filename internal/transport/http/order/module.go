package order

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/Additional-Code/frostline/internal/session"
)

// Module wires HTTP list view handlers.
var Module = fx.Options(
	fx.Provide(NewHandler),
	fx.Invoke(func(e *echo.Echo, h *Handler, sessions *session.Manager) {
		Register(e, h, sessions)
	}),
)
