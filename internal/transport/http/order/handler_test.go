package order

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/frostline/internal/cache"
	"github.com/Additional-Code/frostline/internal/config"
	"github.com/Additional-Code/frostline/internal/dto"
	"github.com/Additional-Code/frostline/internal/entity"
	"github.com/Additional-Code/frostline/internal/messaging"
	"github.com/Additional-Code/frostline/internal/reference"
	"github.com/Additional-Code/frostline/internal/remote"
	service "github.com/Additional-Code/frostline/internal/service/order"
	"github.com/Additional-Code/frostline/internal/session"
	"github.com/Additional-Code/frostline/pkg/errorbank"
)

type employees struct{}

func (employees) Employee(_ context.Context, id int64) (entity.Employee, error) {
	if id != 9 {
		return entity.Employee{}, errorbank.NotFound("employee not found")
	}
	return entity.Employee{ID: 9, Name: "Thomas", Role: 1}, nil
}

type upstream struct {
	failing atomic.Bool
	patched atomic.Bool
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/orders" && r.Method == http.MethodGet:
		if u.failing.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if r.URL.Query().Get("status") == "3" {
			_, _ = io.WriteString(w, `{"count":0,"results":[]}`)
			return
		}
		status := `{"id":1,"description":"Pendiente de inicio"}`
		if u.patched.Load() {
			status = `{"id":2,"description":"En proceso"}`
		}
		_, _ = io.WriteString(w, `{"count":1,"next":null,"results":[{"id":87,"status":`+status+`,"quantity":5,
			"product":{"id":3,"name":"Empanada de Carne"},"operator":{"id":4,"name":"Ana","surname":"Paz"},
			"created_at":"2025-10-01T03:30:56Z"}]}`)
	case r.URL.Path == "/api/order-statuses":
		_, _ = io.WriteString(w, `{"results":[{"id":1,"description":"Pendiente de inicio"},{"id":2,"description":"En proceso"},{"id":3,"description":"Finalizado"}]}`)
	case r.URL.Path == "/api/orders/87/status" && r.Method == http.MethodPatch:
		u.patched.Store(true)
		_, _ = io.WriteString(w, `{"id":87,"status":{"id":2,"description":"En proceso"},"quantity":5}`)
	default:
		http.NotFound(w, r)
	}
}

type envelope struct {
	Success bool                  `json:"success"`
	Data    json.RawMessage       `json:"data"`
	Error   struct{ Kind string } `json:"error"`
	Meta    struct {
		View *dto.SnapshotResponse `json:"view"`
	} `json:"meta"`
}

type harness struct {
	e        *echo.Echo
	upstream *upstream
	token    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	up := &upstream{}
	srv := httptest.NewServer(up)
	t.Cleanup(srv.Close)

	cfg := config.Config{}
	cfg.Remote.BaseURL = srv.URL + "/api"
	cfg.Remote.Timeout = 2 * time.Second
	cfg.Cache.ReferenceTTL = time.Minute
	cfg.Session = config.Session{Secret: "s3cret", TTL: time.Hour, Issuer: "frostline"}

	client, err := remote.NewClient(cfg, nil)
	require.NoError(t, err)
	store := cache.NewMemoryStore(time.Minute)
	catalog := reference.NewCatalog(client, store, cfg, nil)
	sessions := session.NewManager(employees{}, store, cfg, nil)
	svc := service.New(client, catalog, messaging.NewMemoryClient("orders.transitions", 8), nil)
	sessions.OnEnd(svc.Close)

	token, _, err := sessions.Begin(context.Background(), 9)
	require.NoError(t, err)

	e := echo.New()
	Register(e, NewHandler(svc), sessions)
	return &harness{e: e, upstream: up, token: token}
}

func (h *harness) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if h.token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+h.token)
	}
	rec := httptest.NewRecorder()
	h.e.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func decodeSnapshot(t *testing.T, env envelope) dto.SnapshotResponse {
	t.Helper()
	var snap dto.SnapshotResponse
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	return snap
}

func TestSnapshotRequiresSession(t *testing.T) {
	h := newHarness(t)
	h.token = ""

	rec, env := h.do(t, http.MethodGet, "/views/production-orders", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, env.Success)
}

func TestSnapshotRendersCards(t *testing.T) {
	h := newHarness(t)

	rec, env := h.do(t, http.MethodGet, "/views/production-orders", "")
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decodeSnapshot(t, env)

	assert.Equal(t, "ready", snap.State)
	assert.Equal(t, "load_more", snap.Discipline)
	require.Len(t, snap.Cards, 1)
	card := snap.Cards[0]
	assert.Equal(t, int64(87), card.ID)
	assert.Equal(t, "PENDIENTE DE INICIO", card.Badge)
	assert.Equal(t, "Empanada de Carne", card.Product)
	assert.Equal(t, "Ana Paz", card.Operator)
	require.Len(t, card.Actions, 1)
	assert.Equal(t, "Iniciar", card.Actions[0].Label)
	assert.Equal(t, "in_progress", card.Actions[0].Target)
}

func TestFilterWithNoMatchesIsEmpty(t *testing.T) {
	h := newHarness(t)

	rec, env := h.do(t, http.MethodPost, "/views/production-orders/filters", `{"dimension":"status","value":"3"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decodeSnapshot(t, env)
	assert.Equal(t, "empty", snap.State)
	assert.Equal(t, "No se encontraron órdenes", snap.Message)
	assert.Equal(t, "3", snap.Filters["status"])

	rec, env = h.do(t, http.MethodDelete, "/views/production-orders/filters", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decodeSnapshot(t, env).State)
}

func TestTransitionSwapsAction(t *testing.T) {
	h := newHarness(t)
	h.do(t, http.MethodGet, "/views/production-orders", "")

	rec, env := h.do(t, http.MethodPost, "/views/production-orders/orders/87/transition", `{"target":"in_progress"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	card := decodeSnapshot(t, env).Cards[0]
	assert.Equal(t, "EN PROCESO", card.Badge)
	require.Len(t, card.Actions, 1)
	assert.Equal(t, "Finalizar", card.Actions[0].Label)
	assert.True(t, h.upstream.patched.Load())
}

func TestTransitionValidatesInput(t *testing.T) {
	h := newHarness(t)

	rec, _ := h.do(t, http.MethodPost, "/views/production-orders/orders/abc/transition", `{"target":"in_progress"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = h.do(t, http.MethodPost, "/views/production-orders/orders/87/transition", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env := h.do(t, http.MethodPost, "/views/production-orders/orders/42/transition", `{"target":"in_progress"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", env.Error.Kind)
}

func TestFailedLoadCarriesClearedView(t *testing.T) {
	h := newHarness(t)
	h.upstream.failing.Store(true)

	rec, env := h.do(t, http.MethodPost, "/views/production-orders/reload", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "upstream", env.Error.Kind)
	require.NotNil(t, env.Meta.View)
	assert.Equal(t, "failed", env.Meta.View.State)
	assert.Equal(t, "No se pudieron cargar las órdenes", env.Meta.View.Message)
	assert.Empty(t, env.Meta.View.Cards)
}

func TestPageOnLoadMoreViewIsRejected(t *testing.T) {
	h := newHarness(t)

	rec, env := h.do(t, http.MethodPost, "/views/production-orders/page", `{"page":2}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "bad_request", env.Error.Kind)
}

func TestUnknownView(t *testing.T) {
	h := newHarness(t)

	rec, _ := h.do(t, http.MethodGet, "/views/invoices", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
