package app

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/frostline/internal/cache"
	"github.com/Additional-Code/frostline/internal/config"
	"github.com/Additional-Code/frostline/internal/database"
	"github.com/Additional-Code/frostline/internal/logger"
	"github.com/Additional-Code/frostline/internal/messaging"
	"github.com/Additional-Code/frostline/internal/observability"
	"github.com/Additional-Code/frostline/internal/reference"
	"github.com/Additional-Code/frostline/internal/remote"
	repositorytransition "github.com/Additional-Code/frostline/internal/repository/transition"
	grpcserver "github.com/Additional-Code/frostline/internal/server/grpc"
	httpserver "github.com/Additional-Code/frostline/internal/server/http"
	serviceorder "github.com/Additional-Code/frostline/internal/service/order"
	servicestock "github.com/Additional-Code/frostline/internal/service/stock"
	"github.com/Additional-Code/frostline/internal/session"
	transporthttp "github.com/Additional-Code/frostline/internal/transport/http"
	"github.com/Additional-Code/frostline/internal/worker"
	workerorder "github.com/Additional-Code/frostline/internal/worker/order"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	logger.Module,
	observability.Module,
	cache.Module,
	remote.Module,
	reference.Module,
	session.Module,
	messaging.Module,
	serviceorder.Module,
	servicestock.Module,
)

// Store provides the audit database.
var Store = fx.Options(
	database.Module,
	repositorytransition.Module,
)

// HTTP wires the console API and health server on top of the core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	grpcserver.Module,
	transporthttp.Module,
)

// Background is the audit worker without the core modules.
var Background = fx.Options(
	Store,
	worker.Module,
	workerorder.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	Background,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
