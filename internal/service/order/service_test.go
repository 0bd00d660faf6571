package order

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Additional-Code/frostline/internal/cache"
	"github.com/Additional-Code/frostline/internal/config"
	"github.com/Additional-Code/frostline/internal/entity"
	"github.com/Additional-Code/frostline/internal/listview"
	"github.com/Additional-Code/frostline/internal/messaging"
	"github.com/Additional-Code/frostline/internal/reference"
	"github.com/Additional-Code/frostline/internal/remote"
	"github.com/Additional-Code/frostline/internal/session"
	"github.com/Additional-Code/frostline/pkg/errorbank"
)

type backend struct {
	listCalls atomic.Int32
	patched   atomic.Int32
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/orders" && r.Method == http.MethodGet:
		b.listCalls.Add(1)
		status := `{"id": 1, "description": "waiting"}`
		if b.patched.Load() > 0 {
			status = `{"id": 2, "description": "in progress"}`
		}
		_, _ = io.WriteString(w, `{"count":1,"next":null,"results":[{"id":87,"status":`+status+`,"quantity":5,
			"product":{"id":3,"name":"Empanada de Carne"},"created_at":"2025-10-01T03:30:56Z"}]}`)
	case r.URL.Path == "/api/sales-orders":
		_, _ = io.WriteString(w, `{"count":0,"results":[]}`)
	case r.URL.Path == "/api/sales-order-statuses":
		_, _ = io.WriteString(w, `{"results":[{"id":11,"description":"En espera"},{"id":12,"description":"En proceso"}]}`)
	case r.URL.Path == "/api/order-statuses":
		_, _ = io.WriteString(w, `{"results":[{"id":1,"description":"waiting"},{"id":2,"description":"in progress"},{"id":3,"description":"finished"}]}`)
	case r.URL.Path == "/api/orders/87/status" && r.Method == http.MethodPatch:
		b.patched.Add(1)
		_, _ = io.WriteString(w, `{"id":87,"status":{"id":2,"description":"in progress"},"quantity":5}`)
	default:
		http.NotFound(w, r)
	}
}

func newTestService(t *testing.T) (*Service, *backend, *messaging.MemoryClient) {
	t.Helper()
	be := &backend{}
	srv := httptest.NewServer(be)
	t.Cleanup(srv.Close)

	cfg := config.Config{}
	cfg.Remote.BaseURL = srv.URL + "/api"
	cfg.Remote.Timeout = 2 * time.Second
	cfg.Remote.OperatorRole = 1
	cfg.Cache.ReferenceTTL = time.Minute

	client, err := remote.NewClient(cfg, nil)
	require.NoError(t, err)
	catalog := reference.NewCatalog(client, cache.NewMemoryStore(time.Minute), cfg, nil)
	bus := messaging.NewMemoryClient("orders.transitions", 8)

	return New(client, catalog, bus, nil), be, bus
}

var operator = session.Session{ID: "s-1", Employee: entity.Employee{ID: 9, Name: "Thomas", Role: 1}}

func TestSnapshotLoadsOncePerSessionView(t *testing.T) {
	svc, be, _ := newTestService(t)
	ctx := context.Background()

	snap, err := svc.Snapshot(ctx, operator, ViewProduction)
	require.NoError(t, err)
	assert.Equal(t, listview.StateReady, snap.State)
	_, err = svc.Snapshot(ctx, operator, ViewProduction)
	require.NoError(t, err)
	assert.Equal(t, int32(1), be.listCalls.Load())

	other := session.Session{ID: "s-2"}
	_, err = svc.Snapshot(ctx, other, ViewProduction)
	require.NoError(t, err)
	assert.Equal(t, int32(2), be.listCalls.Load())
}

func TestUnknownView(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Snapshot(context.Background(), operator, ViewName("invoices"))
	assert.True(t, errorbank.IsKind(err, errorbank.KindNotFound))
}

func TestTransitionPublishesEvent(t *testing.T) {
	svc, _, bus := newTestService(t)
	ctx := context.Background()

	_, err := svc.Snapshot(ctx, operator, ViewProduction)
	require.NoError(t, err)

	snap, err := svc.Transition(ctx, operator, ViewProduction, 87, "in-progress")
	require.NoError(t, err)
	card := snap.Cards()[0]
	assert.Equal(t, "IN PROGRESS", card.Badge)
	assert.True(t, card.HasAction("Finalizar"))

	consumeCtx, cancel := context.WithCancel(ctx)
	got := make(chan messaging.Message, 1)
	go func() {
		_ = bus.Consume(consumeCtx, func(_ context.Context, msg messaging.Message) error {
			got <- msg
			return nil
		})
	}()
	msg := <-got
	cancel()

	assert.Equal(t, EventTransitioned, msg.Headers[messaging.HeaderEvent])
	assert.Equal(t, "production-87", string(msg.Key))

	var event TransitionEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, int64(87), event.OrderID)
	assert.Equal(t, int64(2), event.StatusID)
	assert.Equal(t, entity.PhaseInProgress, event.Phase)
	assert.Equal(t, int64(9), event.EmployeeID)
	assert.Equal(t, "s-1", event.SessionID)
	assert.NotEmpty(t, event.EventID)
}

func TestTransitionRejectsUnknownTarget(t *testing.T) {
	svc, be, _ := newTestService(t)

	_, err := svc.Transition(context.Background(), operator, ViewProduction, 87, "shipped")
	assert.True(t, errorbank.IsKind(err, errorbank.KindBadRequest))
	assert.Zero(t, be.patched.Load())
}

func TestSalesViewUsesPageNumbers(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	snap, err := svc.Snapshot(ctx, operator, ViewSales)
	require.NoError(t, err)
	assert.Equal(t, listview.StateEmpty, snap.State)
	assert.Equal(t, listview.PageNumbers, snap.Discipline)

	_, err = svc.LoadMore(ctx, operator, ViewSales)
	assert.ErrorIs(t, err, listview.ErrWrongDiscipline)

	_, err = svc.ApplyFilter(ctx, operator, ViewSales, listview.DimensionOperator, "4")
	assert.ErrorIs(t, err, listview.ErrUnknownDimension)
}

func TestCloseDiscardsSessionViews(t *testing.T) {
	svc, be, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Snapshot(ctx, operator, ViewProduction)
	require.NoError(t, err)
	_, err = svc.Filters(ctx, operator, ViewSales)
	require.NoError(t, err)
	assert.Equal(t, 2, svc.OpenViews(operator))

	svc.Close(operator)
	assert.Zero(t, svc.OpenViews(operator))

	_, err = svc.Snapshot(ctx, operator, ViewProduction)
	assert.True(t, errorbank.IsKind(err, errorbank.KindUnauthorized))
	assert.ErrorIs(t, err, session.ErrRevoked)
	assert.Zero(t, svc.OpenViews(operator))
	assert.Equal(t, int32(1), be.listCalls.Load())
}

func TestExpiredSessionViewsArePruned(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	now := time.Date(2025, 10, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	shortLived := session.Session{ID: "s-short", ExpiresAt: now.Add(time.Hour)}
	longLived := session.Session{ID: "s-long", ExpiresAt: now.Add(12 * time.Hour)}

	_, err := svc.Snapshot(ctx, shortLived, ViewProduction)
	require.NoError(t, err)
	_, err = svc.Snapshot(ctx, longLived, ViewProduction)
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	assert.Equal(t, 1, svc.Prune())
	assert.Zero(t, svc.OpenViews(shortLived))
	assert.Equal(t, 1, svc.OpenViews(longLived))

	_, err = svc.Snapshot(ctx, shortLived, ViewProduction)
	assert.True(t, errorbank.IsKind(err, errorbank.KindUnauthorized))
	assert.Zero(t, svc.OpenViews(shortLived))
}

func TestViewAccessPrunesExpiredSessions(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	now := time.Date(2025, 10, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	idle := session.Session{ID: "s-idle", ExpiresAt: now.Add(time.Hour)}
	_, err := svc.Filters(ctx, idle, ViewSales)
	require.NoError(t, err)
	require.Equal(t, 1, svc.OpenViews(idle))

	now = now.Add(time.Hour)
	active := session.Session{ID: "s-active", ExpiresAt: now.Add(time.Hour)}
	_, err = svc.Filters(ctx, active, ViewSales)
	require.NoError(t, err)

	assert.Zero(t, svc.OpenViews(idle))
	assert.Equal(t, 1, svc.OpenViews(active))
}

func TestClosedSessionTombstoneExpires(t *testing.T) {
	svc, _, _ := newTestService(t)

	now := time.Date(2025, 10, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	sess := session.Session{ID: "s-closed", ExpiresAt: now.Add(time.Hour)}
	svc.Close(sess)
	require.Contains(t, svc.ended, sess.ID)

	now = now.Add(2 * time.Hour)
	svc.Prune()
	assert.NotContains(t, svc.ended, sess.ID)
}

func TestJanitorStopsCleanly(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	svc := New(nil, nil, nil, nil)
	require.NoError(t, svc.Start(context.Background()))
	require.NoError(t, svc.Stop(context.Background()))
	require.NoError(t, New(nil, nil, nil, nil).Stop(context.Background()))
}
