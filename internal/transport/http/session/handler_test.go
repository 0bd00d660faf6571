package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
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
	if id != 9 {
		return entity.Employee{}, errorbank.NotFound("employee not found")
	}
	return entity.Employee{ID: 9, Name: "Thomas", Surname: "Rossi", Role: 2}, nil
}

func newEcho(t *testing.T) (*echo.Echo, *session.Manager) {
	t.Helper()
	cfg := config.Config{Session: config.Session{Secret: "s3cret", TTL: time.Hour, Issuer: "frostline"}}
	m := session.NewManager(employees{}, cache.NewMemoryStore(time.Minute), cfg, nil)
	e := echo.New()
	Register(e, NewHandler(m))
	return e, m
}

func serve(e *echo.Echo, method, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/session", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestSessionLifecycle(t *testing.T) {
	e, _ := newEcho(t)

	rec := serve(e, http.MethodPost, `{"employee_id":9}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Data dto.LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.Data.Token)
	assert.Equal(t, "Thomas Rossi", created.Data.Session.Name)
	assert.Equal(t, int64(2), created.Data.Session.Role)

	rec = serve(e, http.MethodGet, "", created.Data.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), created.Data.Session.ID)

	rec = serve(e, http.MethodDelete, "", created.Data.Token)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(e, http.MethodGet, "", created.Data.Token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBeginUnknownEmployee(t *testing.T) {
	e, _ := newEcho(t)

	rec := serve(e, http.MethodPost, `{"employee_id":12}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(e, http.MethodPost, `{}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
