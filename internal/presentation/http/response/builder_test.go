package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/frostline/internal/dto"
	"github.com/Additional-Code/frostline/internal/entity"
	"github.com/Additional-Code/frostline/internal/listview"
	"github.com/Additional-Code/frostline/pkg/errorbank"
)

func newContext() (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	return c, rec
}

type snapshotEnvelope struct {
	Success bool                  `json:"success"`
	Data    *dto.SnapshotResponse `json:"data"`
	Error   *ErrorBody            `json:"error"`
	Meta    struct {
		View  *dto.SnapshotResponse `json:"view"`
		Count *int                  `json:"count"`
	} `json:"meta"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) snapshotEnvelope {
	t.Helper()
	var env snapshotEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestWithSnapshotRendersCards(t *testing.T) {
	c, rec := newContext()
	snap := listview.Snapshot{
		State:  listview.StateReady,
		Orders: []entity.Order{{ID: 87, Status: entity.Status{ID: 1, Description: "waiting"}}},
		Total:  1,
	}

	require.NoError(t, New(c).WithSnapshot(snap, nil).Build())

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	assert.True(t, env.Success)
	require.NotNil(t, env.Data)
	require.Len(t, env.Data.Cards, 1)
	assert.Equal(t, "WAITING", env.Data.Cards[0].Badge)
	assert.Nil(t, env.Meta.View)
}

func TestWithSnapshotFailureCarriesView(t *testing.T) {
	c, rec := newContext()
	snap := listview.Snapshot{State: listview.StateFailed, Message: "No se pudieron cargar las órdenes"}

	require.NoError(t, New(c).WithSnapshot(snap, errorbank.Upstream("backend unavailable")).Build())

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	env := decode(t, rec)
	assert.False(t, env.Success)
	assert.Nil(t, env.Data)
	require.NotNil(t, env.Error)
	assert.Equal(t, "upstream", env.Error.Kind)
	require.NotNil(t, env.Meta.View)
	assert.Equal(t, "failed", env.Meta.View.State)
	assert.Empty(t, env.Meta.View.Cards)
}

func TestWithSnapshotRejectionWithoutView(t *testing.T) {
	c, rec := newContext()

	require.NoError(t, New(c).WithSnapshot(listview.Snapshot{}, errorbank.NotFound("unknown view")).Build())

	assert.Equal(t, http.StatusNotFound, rec.Code)
	env := decode(t, rec)
	assert.Nil(t, env.Meta.View)
}

func TestWithCount(t *testing.T) {
	c, rec := newContext()

	require.NoError(t, New(c).WithData([]string{"a", "b"}).WithCount(2).Build())

	env := decode(t, rec)
	require.NotNil(t, env.Meta.Count)
	assert.Equal(t, 2, *env.Meta.Count)
}

func TestSessionRequiredAndNoContent(t *testing.T) {
	c, rec := newContext()
	require.NoError(t, New(c).SessionRequired())
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":{"kind":"unauthorized","message":"session required"}}`, rec.Body.String())

	c, rec = newContext()
	require.NoError(t, New(c).NoContent())
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}
