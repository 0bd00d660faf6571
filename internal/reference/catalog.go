package reference

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Additional-Code/frostline/internal/cache"
	"github.com/Additional-Code/frostline/internal/config"
	"github.com/Additional-Code/frostline/internal/entity"
	"github.com/Additional-Code/frostline/internal/remote"
	"github.com/Additional-Code/frostline/pkg/errorbank"
)

// Source is the subset of the remote API serving reference collections.
type Source interface {
	OrderStatuses(ctx context.Context, res remote.Resource) ([]entity.Status, error)
	Operators(ctx context.Context, role int) ([]entity.Person, error)
	Products(ctx context.Context) ([]entity.Product, error)
	RolePermissions(ctx context.Context, role int64) ([]entity.Permission, error)
}

// Catalog serves the small, slow-changing collections behind filter dropdowns
// and the role menu. Order pages are never cached here.
type Catalog struct {
	source       Source
	store        cache.Store
	ttl          time.Duration
	operatorRole int
	logger       *zap.Logger
}

// NewCatalog builds a Catalog reading through store.
func NewCatalog(source Source, store cache.Store, cfg config.Config, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{
		source:       source,
		store:        store,
		ttl:          cfg.Cache.ReferenceTTL,
		operatorRole: cfg.Remote.OperatorRole,
		logger:       logger.Named("reference"),
	}
}

// Statuses lists the statuses of res's order family in server order.
func (c *Catalog) Statuses(ctx context.Context, res remote.Resource) ([]entity.Status, error) {
	key := cache.Key("ref", "statuses", string(res))
	return cache.Remember(ctx, c.store, key, c.ttl, func(ctx context.Context) ([]entity.Status, error) {
		return c.source.OrderStatuses(ctx, res)
	})
}

// Operators lists employees holding the operator role.
func (c *Catalog) Operators(ctx context.Context) ([]entity.Person, error) {
	key := cache.Key("ref", "operators", strconv.Itoa(c.operatorRole))
	return cache.Remember(ctx, c.store, key, c.ttl, func(ctx context.Context) ([]entity.Person, error) {
		return c.source.Operators(ctx, c.operatorRole)
	})
}

// Products lists the product catalogue.
func (c *Catalog) Products(ctx context.Context) ([]entity.Product, error) {
	return cache.Remember(ctx, c.store, cache.Key("ref", "products"), c.ttl, c.source.Products)
}

// Permissions lists the menu entries of role.
func (c *Catalog) Permissions(ctx context.Context, role int64) ([]entity.Permission, error) {
	key := cache.Key("ref", "permissions", strconv.FormatInt(role, 10))
	return cache.Remember(ctx, c.store, key, c.ttl, func(ctx context.Context) ([]entity.Permission, error) {
		return c.source.RolePermissions(ctx, role)
	})
}

// StatusFor resolves a lifecycle phase to the status of res's family carrying it.
func (c *Catalog) StatusFor(ctx context.Context, res remote.Resource, phase entity.Phase) (entity.Status, error) {
	statuses, err := c.Statuses(ctx, res)
	if err != nil {
		return entity.Status{}, err
	}
	for _, s := range statuses {
		if s.Phase() == phase {
			return s, nil
		}
	}
	return entity.Status{}, errorbank.Unprocessable("no server status for target",
		errorbank.WithDetail("target", string(phase)),
		errorbank.WithDetail("resource", string(res)))
}

// StatusOptions maps statuses to dropdown options.
func StatusOptions(statuses []entity.Status) []entity.Option {
	out := make([]entity.Option, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, entity.Option{ID: s.ID, Label: s.Description})
	}
	return out
}

// OperatorOptions maps operators to dropdown options labelled by full name.
func OperatorOptions(people []entity.Person) []entity.Option {
	out := make([]entity.Option, 0, len(people))
	for _, p := range people {
		out = append(out, entity.Option{ID: p.ID, Label: p.FullName()})
	}
	return out
}

// ProductOptions maps products to dropdown options.
func ProductOptions(products []entity.Product) []entity.Option {
	out := make([]entity.Option, 0, len(products))
	for _, p := range products {
		out = append(out, entity.Option{ID: p.ID, Label: p.Name})
	}
	return out
}
