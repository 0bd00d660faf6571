package stock

import (
	"context"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Additional-Code/frostline/internal/entity"
	"github.com/Additional-Code/frostline/internal/reference"
	"github.com/Additional-Code/frostline/internal/remote"
)

var stockTracer = otel.Tracer("github.com/Additional-Code/frostline/service/stock")

const defaultConcurrency = 8

// Products lists the catalogue.
type Products interface {
	Products(ctx context.Context) ([]entity.Product, error)
}

// Availability reports the available quantity of a product.
type Availability interface {
	AvailableStock(ctx context.Context, productID int64) (float64, error)
}

// Service builds the stock table.
type Service struct {
	products     Products
	availability Availability
	concurrency  int
	logger       *zap.Logger
}

// Module provides the stock service to Fx.
var Module = fx.Provide(func(catalog *reference.Catalog, client *remote.Client, logger *zap.Logger) *Service {
	return New(catalog, client, defaultConcurrency, logger)
})

// New builds a Service querying at most concurrency products at once.
func New(products Products, availability Availability, concurrency int, logger *zap.Logger) *Service {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		products:     products,
		availability: availability,
		concurrency:  concurrency,
		logger:       logger.Named("stock"),
	}
}

// Levels returns one row per product, sorted by name. A product whose lookup
// fails is reported with StockUnknown and no quantity.
func (s *Service) Levels(ctx context.Context) ([]entity.StockLevel, error) {
	ctx, span := stockTracer.Start(ctx, "StockService.Levels")
	defer span.End()

	products, err := s.products.Products(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("stock.products", len(products)))

	levels := make([]entity.StockLevel, len(products))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, p := range products {
		levels[i] = entity.StockLevel{Product: p, Status: entity.StockUnknown}
		g.Go(func() error {
			available, err := s.availability.AvailableStock(gctx, p.ID)
			if err != nil {
				s.logger.Warn("stock lookup failed", zap.Int64("product_id", p.ID), zap.Error(err))
				return nil
			}
			levels[i].Available = &available
			levels[i].Status = entity.ClassifyStock(available)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(levels, func(a, b int) bool {
		return levels[a].Product.Name < levels[b].Product.Name
	})
	return levels, nil
}
