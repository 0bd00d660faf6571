package reference

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/frostline/internal/cache"
	"github.com/Additional-Code/frostline/internal/config"
	"github.com/Additional-Code/frostline/internal/remote"
)

// Module provides the reference catalog backed by the remote client.
var Module = fx.Provide(func(client *remote.Client, store cache.Store, cfg config.Config, logger *zap.Logger) *Catalog {
	return NewCatalog(client, store, cfg, logger)
})
