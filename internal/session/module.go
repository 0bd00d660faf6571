package session

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/frostline/internal/cache"
	"github.com/Additional-Code/frostline/internal/config"
	"github.com/Additional-Code/frostline/internal/remote"
)

// Module provides the session manager.
var Module = fx.Provide(func(client *remote.Client, store cache.Store, cfg config.Config, logger *zap.Logger) *Manager {
	return NewManager(client, store, cfg, logger)
})
