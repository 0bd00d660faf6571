package reference

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/frostline/internal/cache"
	"github.com/Additional-Code/frostline/internal/config"
	"github.com/Additional-Code/frostline/internal/entity"
	"github.com/Additional-Code/frostline/internal/remote"
	"github.com/Additional-Code/frostline/pkg/errorbank"
)

type fakeSource struct {
	statusCalls int
	resources   []remote.Resource
	role        int
	err         error
}

func (f *fakeSource) OrderStatuses(_ context.Context, res remote.Resource) ([]entity.Status, error) {
	f.statusCalls++
	f.resources = append(f.resources, res)
	if f.err != nil {
		return nil, f.err
	}
	if res == remote.SalesOrders {
		return []entity.Status{
			{ID: 21, Description: "Pendiente de inicio"},
			{ID: 22, Description: "En progreso"},
			{ID: 23, Description: "Completado"},
		}, nil
	}
	return []entity.Status{
		{ID: 1, Description: "En espera"},
		{ID: 2, Description: "En proceso"},
		{ID: 3, Description: "Finalizado"},
	}, nil
}

func (f *fakeSource) Operators(_ context.Context, role int) ([]entity.Person, error) {
	f.role = role
	return []entity.Person{{ID: 4, Name: "Carlos", Surname: "Rodríguez"}}, nil
}

func (f *fakeSource) Products(context.Context) ([]entity.Product, error) {
	return []entity.Product{{ID: 3, Name: "Empanada de Carne"}}, nil
}

func (f *fakeSource) RolePermissions(_ context.Context, role int64) ([]entity.Permission, error) {
	return []entity.Permission{{ID: role, Title: "Ventas", Link: "/ventas"}}, nil
}

func newCatalog(src *fakeSource) *Catalog {
	cfg := config.Config{}
	cfg.Cache.ReferenceTTL = time.Minute
	cfg.Remote.OperatorRole = 1
	return NewCatalog(src, cache.NewMemoryStore(time.Minute), cfg, nil)
}

func TestStatusesAreCached(t *testing.T) {
	src := &fakeSource{}
	catalog := newCatalog(src)

	for i := 0; i < 3; i++ {
		statuses, err := catalog.Statuses(context.Background(), remote.ProductionOrders)
		require.NoError(t, err)
		assert.Len(t, statuses, 3)
	}
	assert.Equal(t, 1, src.statusCalls)
}

func TestStatusesFailureIsNotCached(t *testing.T) {
	src := &fakeSource{err: errors.New("down")}
	catalog := newCatalog(src)

	_, err := catalog.Statuses(context.Background(), remote.ProductionOrders)
	require.Error(t, err)

	src.err = nil
	statuses, err := catalog.Statuses(context.Background(), remote.ProductionOrders)
	require.NoError(t, err)
	assert.Len(t, statuses, 3)
	assert.Equal(t, 2, src.statusCalls)
}

func TestOperatorsUseConfiguredRole(t *testing.T) {
	src := &fakeSource{}
	catalog := newCatalog(src)

	people, err := catalog.Operators(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, src.role)
	assert.Equal(t, []entity.Option{{ID: 4, Label: "Carlos Rodríguez"}}, OperatorOptions(people))
}

func TestStatusForResolvesPhase(t *testing.T) {
	catalog := newCatalog(&fakeSource{})

	status, err := catalog.StatusFor(context.Background(), remote.ProductionOrders, entity.PhaseInProgress)
	require.NoError(t, err)
	assert.Equal(t, int64(2), status.ID)

	_, err = catalog.StatusFor(context.Background(), remote.ProductionOrders, entity.PhaseCancelled)
	require.Error(t, err)
	assert.True(t, errorbank.IsKind(err, errorbank.KindUnprocessableEntity))
}

func TestStatusesArePerOrderFamily(t *testing.T) {
	src := &fakeSource{}
	catalog := newCatalog(src)
	ctx := context.Background()

	production, err := catalog.StatusFor(ctx, remote.ProductionOrders, entity.PhaseInProgress)
	require.NoError(t, err)
	sales, err := catalog.StatusFor(ctx, remote.SalesOrders, entity.PhaseInProgress)
	require.NoError(t, err)
	assert.Equal(t, int64(2), production.ID)
	assert.Equal(t, int64(22), sales.ID)

	_, err = catalog.Statuses(ctx, remote.SalesOrders)
	require.NoError(t, err)
	assert.Equal(t, 2, src.statusCalls)
	assert.Equal(t, []remote.Resource{remote.ProductionOrders, remote.SalesOrders}, src.resources)
}

func TestOptionsPreserveServerOrder(t *testing.T) {
	catalog := newCatalog(&fakeSource{})

	statuses, err := catalog.Statuses(context.Background(), remote.ProductionOrders)
	require.NoError(t, err)
	assert.Equal(t, []entity.Option{
		{ID: 1, Label: "En espera"},
		{ID: 2, Label: "En proceso"},
		{ID: 3, Label: "Finalizado"},
	}, StatusOptions(statuses))

	products, err := catalog.Products(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []entity.Option{{ID: 3, Label: "Empanada de Carne"}}, ProductOptions(products))

	perms, err := catalog.Permissions(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), perms[0].ID)
}
