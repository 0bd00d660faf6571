package order

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/frostline/internal/entity"
	"github.com/Additional-Code/frostline/internal/listview"
	"github.com/Additional-Code/frostline/internal/messaging"
	"github.com/Additional-Code/frostline/internal/reference"
	"github.com/Additional-Code/frostline/internal/remote"
	"github.com/Additional-Code/frostline/internal/session"
	"github.com/Additional-Code/frostline/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/frostline/service/order")

const pruneInterval = time.Minute

// sessionViews holds one session's controllers until its token expires.
type sessionViews struct {
	expiresAt time.Time
	byName    map[ViewName]*listview.Controller
}

// Service owns the list views of every open session. Views live until the
// session ends or its token expires; nothing is shared between sessions.
type Service struct {
	orders    listview.OrderSource
	filters   listview.FilterSource
	publisher messaging.Client
	logger    *zap.Logger
	now       func() time.Time

	mu    sync.Mutex
	views map[string]*sessionViews
	// ended remembers closed sessions until their tokens would have expired,
	// so a request racing the logout cannot reopen views.
	ended map[string]time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Remote    *remote.Client
	Catalog   *reference.Catalog
	Sessions  *session.Manager
	Publisher messaging.Client
	Logger    *zap.Logger
}

// NewService wires a Service and discards a session's views when it ends.
func NewService(p Params) *Service {
	svc := New(p.Remote, p.Catalog, p.Publisher, p.Logger)
	p.Sessions.OnEnd(svc.Close)
	return svc
}

// New builds a Service over explicit collaborators.
func New(orders listview.OrderSource, filters listview.FilterSource, publisher messaging.Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		orders:    orders,
		filters:   filters,
		publisher: publisher,
		logger:    logger.Named("orders"),
		now:       time.Now,
		views:     make(map[string]*sessionViews),
		ended:     make(map[string]time.Time),
	}
}

// Start runs the janitor that discards views of expired sessions.
func (s *Service) Start(context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(pruneInterval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				if n := s.Prune(); n > 0 {
					s.logger.Debug("expired session views discarded", zap.Int("sessions", n))
				}
			}
		}
	}()
	return nil
}

// Stop halts the janitor and waits for it within ctx.
func (s *Service) Stop(ctx context.Context) error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Prune discards the views of every expired session and reports how many
// sessions were dropped.
func (s *Service) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pruneLocked(s.now())
}

func (s *Service) pruneLocked(now time.Time) int {
	dropped := 0
	for id, sv := range s.views {
		if expired(sv.expiresAt, now) {
			delete(s.views, id)
			dropped++
		}
	}
	for id, exp := range s.ended {
		if expired(exp, now) {
			delete(s.ended, id)
		}
	}
	return dropped
}

// expired treats a zero expiry as never expiring.
func expired(at, now time.Time) bool {
	return !at.IsZero() && !now.Before(at)
}

// View returns the session's controller for name, creating it on first use.
func (s *Service) View(sess session.Session, name ViewName) (*listview.Controller, error) {
	opts, ok := viewOptions[name]
	if !ok {
		return nil, errorbank.NotFound("unknown view", errorbank.WithDetail("view", string(name)))
	}

	now := s.now()
	if expired(sess.ExpiresAt, now) {
		return nil, errorbank.Unauthorized("session expired")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	if _, gone := s.ended[sess.ID]; gone {
		return nil, errorbank.Unauthorized("session ended", errorbank.WithCause(session.ErrRevoked))
	}

	sv, ok := s.views[sess.ID]
	if !ok {
		sv = &sessionViews{
			expiresAt: sess.ExpiresAt,
			byName:    make(map[ViewName]*listview.Controller),
		}
		s.views[sess.ID] = sv
	}
	if c, ok := sv.byName[name]; ok {
		return c, nil
	}
	c := listview.New(s.orders, s.filters, opts, s.logger.With(zap.String("session_id", sess.ID)))
	sv.byName[name] = c
	return c, nil
}

// Snapshot returns the view, loading its first page on first access.
func (s *Service) Snapshot(ctx context.Context, sess session.Session, name ViewName) (listview.Snapshot, error) {
	c, err := s.View(sess, name)
	if err != nil {
		return listview.Snapshot{}, err
	}
	return c.EnsureLoaded(ctx)
}

// Filters loads the dropdown options of the view.
func (s *Service) Filters(ctx context.Context, sess session.Session, name ViewName) (listview.FilterOptions, error) {
	c, err := s.View(sess, name)
	if err != nil {
		return listview.FilterOptions{}, err
	}
	return c.LoadFilters(ctx), nil
}

// ApplyFilter sets one filter dimension of the view.
func (s *Service) ApplyFilter(ctx context.Context, sess session.Session, name ViewName, dim listview.Dimension, value string) (listview.Snapshot, error) {
	c, err := s.View(sess, name)
	if err != nil {
		return listview.Snapshot{}, err
	}
	return c.ApplyFilter(ctx, dim, value)
}

// ResetFilters clears the view's filters.
func (s *Service) ResetFilters(ctx context.Context, sess session.Session, name ViewName) (listview.Snapshot, error) {
	c, err := s.View(sess, name)
	if err != nil {
		return listview.Snapshot{}, err
	}
	return c.ResetFilters(ctx)
}

// Reload refetches the first page of the view.
func (s *Service) Reload(ctx context.Context, sess session.Session, name ViewName) (listview.Snapshot, error) {
	c, err := s.View(sess, name)
	if err != nil {
		return listview.Snapshot{}, err
	}
	return c.Reload(ctx)
}

// LoadMore appends the next page of a load-more view.
func (s *Service) LoadMore(ctx context.Context, sess session.Session, name ViewName) (listview.Snapshot, error) {
	c, err := s.View(sess, name)
	if err != nil {
		return listview.Snapshot{}, err
	}
	return c.LoadMore(ctx)
}

// GoToPage moves a page-numbered view to page n.
func (s *Service) GoToPage(ctx context.Context, sess session.Session, name ViewName, n int) (listview.Snapshot, error) {
	c, err := s.View(sess, name)
	if err != nil {
		return listview.Snapshot{}, err
	}
	return c.GoToPage(ctx, n)
}

// Transition moves one order of the view to target and records the change.
func (s *Service) Transition(ctx context.Context, sess session.Session, name ViewName, orderID int64, target string) (listview.Snapshot, error) {
	phase, ok := entity.ParsePhase(target)
	if !ok {
		return listview.Snapshot{}, errorbank.BadRequest("unknown target status", errorbank.WithDetail("target", target))
	}
	c, err := s.View(sess, name)
	if err != nil {
		return listview.Snapshot{}, err
	}

	ctx, span := serviceTracer.Start(ctx, "OrderService.Transition", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.String("order.target", string(phase)),
		attribute.String("view", string(name)),
	))
	defer span.End()

	snap, err := c.TransitionOrder(ctx, orderID, phase)
	if err != nil {
		return snap, err
	}
	if updated, ok := c.Order(orderID); ok {
		s.publishTransition(ctx, sess, updated)
	}
	return snap, nil
}

// Close discards every view of the session. Later requests for the same
// session are refused.
func (s *Service) Close(sess session.Session) {
	s.mu.Lock()
	n := 0
	if sv, ok := s.views[sess.ID]; ok {
		n = len(sv.byName)
	}
	delete(s.views, sess.ID)
	s.ended[sess.ID] = sess.ExpiresAt
	s.mu.Unlock()
	s.logger.Debug("session views discarded", zap.String("session_id", sess.ID), zap.Int("views", n))
}

// OpenViews reports how many views a session holds.
func (s *Service) OpenViews(sess session.Session) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	sv, ok := s.views[sess.ID]
	if !ok {
		return 0
	}
	return len(sv.byName)
}
