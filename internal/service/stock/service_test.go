package stock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Additional-Code/frostline/internal/entity"
)

type fakeProducts struct {
	items []entity.Product
	err   error
}

func (f fakeProducts) Products(context.Context) ([]entity.Product, error) {
	return f.items, f.err
}

type fakeAvailability struct {
	mu       sync.Mutex
	values   map[int64]float64
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeAvailability) AvailableStock(_ context.Context, id int64) (float64, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[id]
	if !ok {
		return 0, errors.New("lookup failed")
	}
	return v, nil
}

func TestLevelsClassifiesEveryProduct(t *testing.T) {
	defer goleak.VerifyNone(t)

	products := fakeProducts{items: []entity.Product{
		{ID: 1, Name: "Pizza de jamón y queso"},
		{ID: 2, Name: "Empanada de Carne"},
		{ID: 3, Name: "Alfajor de Maicena"},
		{ID: 4, Name: "Papas fritas"},
	}}
	availability := &fakeAvailability{values: map[int64]float64{1: 0, 2: 12, 3: 50}}

	levels, err := New(products, availability, 2, nil).Levels(context.Background())
	require.NoError(t, err)
	require.Len(t, levels, 4)

	byName := map[string]entity.StockLevel{}
	for _, l := range levels {
		byName[l.Product.Name] = l
	}
	assert.Equal(t, entity.StockOut, byName["Pizza de jamón y queso"].Status)
	assert.Equal(t, entity.StockLow, byName["Empanada de Carne"].Status)
	assert.Equal(t, entity.StockIn, byName["Alfajor de Maicena"].Status)

	unknown := byName["Papas fritas"]
	assert.Equal(t, entity.StockUnknown, unknown.Status)
	assert.Nil(t, unknown.Available)

	assert.Equal(t, "Alfajor de Maicena", levels[0].Product.Name)
	assert.LessOrEqual(t, availability.peak.Load(), int32(2))
}

func TestLevelsFailsWhenCatalogueFails(t *testing.T) {
	_, err := New(fakeProducts{err: errors.New("down")}, &fakeAvailability{}, 0, nil).Levels(context.Background())
	assert.Error(t, err)
}

func TestLevelsEmptyCatalogue(t *testing.T) {
	levels, err := New(fakeProducts{}, &fakeAvailability{}, 0, nil).Levels(context.Background())
	require.NoError(t, err)
	assert.Empty(t, levels)
}
