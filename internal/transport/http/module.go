package http

import (
	"go.uber.org/fx"

	catalogtransport "github.com/Additional-Code/frostline/internal/transport/http/catalog"
	ordertransport "github.com/Additional-Code/frostline/internal/transport/http/order"
	sessiontransport "github.com/Additional-Code/frostline/internal/transport/http/session"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	sessiontransport.Module,
	ordertransport.Module,
	catalogtransport.Module,
)
