package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/frostline/internal/cache"
	"github.com/Additional-Code/frostline/internal/config"
	"github.com/Additional-Code/frostline/internal/dto"
	"github.com/Additional-Code/frostline/internal/entity"
	"github.com/Additional-Code/frostline/internal/session"
	"github.com/Additional-Code/frostline/pkg/errorbank"
)

type employees struct{}

func (employees) Employee(_ context.Context, id int64) (entity.Employee, error) {
	return entity.Employee{ID: id, Name: "Ana", Role: 3}, nil
}

type stubStock struct {
	levels []entity.StockLevel
	err    error
}

func (s stubStock) Levels(context.Context) ([]entity.StockLevel, error) { return s.levels, s.err }

type stubMenu map[int64][]entity.Permission

func (m stubMenu) Permissions(_ context.Context, role int64) ([]entity.Permission, error) {
	return m[role], nil
}

func setup(t *testing.T, stock Stock) (*echo.Echo, string) {
	t.Helper()
	cfg := config.Config{Session: config.Session{Secret: "s3cret", TTL: time.Hour, Issuer: "frostline"}}
	sessions := session.NewManager(employees{}, cache.NewMemoryStore(time.Minute), cfg, nil)
	token, _, err := sessions.Begin(context.Background(), 5)
	require.NoError(t, err)

	menu := stubMenu{3: {{ID: 1, Title: "Órdenes de producción", Link: "/production-orders"}}}
	e := echo.New()
	Register(e, NewHandler(stock, menu), sessions)
	return e, token
}

func get(e *echo.Echo, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestStockLevels(t *testing.T) {
	qty := 12.0
	e, token := setup(t, stubStock{levels: []entity.StockLevel{
		{Product: entity.Product{ID: 2, Name: "Empanada de Carne"}, Available: &qty, Status: entity.StockLow},
		{Product: entity.Product{ID: 4, Name: "Papas fritas"}, Status: entity.StockUnknown},
	}})

	rec := get(e, "/stock", token)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []dto.StockLevelResponse `json:"data"`
		Meta map[string]any           `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	assert.Equal(t, "low_stock", body.Data[0].Status)
	assert.Nil(t, body.Data[1].Available)
	assert.EqualValues(t, 2, body.Meta["count"])
}

func TestStockFailureIsRendered(t *testing.T) {
	e, token := setup(t, stubStock{err: errorbank.Upstream("catalogue unavailable", errorbank.WithCause(errors.New("boom")))})

	rec := get(e, "/stock", token)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestMenuFollowsRole(t *testing.T) {
	e, token := setup(t, stubStock{})

	rec := get(e, "/menu", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/production-orders")

	rec = get(e, "/menu", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
