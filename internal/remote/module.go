package remote

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/frostline/internal/config"
)

// Module provides the backend API client to Fx.
var Module = fx.Provide(func(cfg config.Config, logger *zap.Logger) (*Client, error) {
	return NewClient(cfg, logger)
})
