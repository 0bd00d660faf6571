package transition

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/frostline/internal/database"
	"github.com/Additional-Code/frostline/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/frostline/repository/transition")

// ErrDuplicate is returned when an event has already been recorded.
var ErrDuplicate = errors.New("transition already recorded")

// Repository persists the order transition audit trail.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
	now    func() time.Time
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
		now:    time.Now,
	}
}

// Create records a transition. Events are idempotent on EventID.
func (r *Repository) Create(ctx context.Context, t *entity.Transition) error {
	if t == nil {
		return errors.New("nil transition")
	}
	if t.EventID == "" {
		return errors.New("transition event id is required")
	}
	ctx, span := repoTracer.Start(ctx, "TransitionRepository.Create", trace.WithAttributes(
		attribute.String("transition.event_id", t.EventID),
		attribute.Int64("order.id", t.OrderID),
	))
	defer span.End()

	exists, err := r.writer.NewSelect().
		Model((*entity.Transition)(nil)).
		Where("event_id = ?", t.EventID).
		Exists(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		return err
	}
	if exists {
		span.SetAttributes(attribute.Bool("transition.duplicate", true))
		return ErrDuplicate
	}

	if t.RecordedAt.IsZero() {
		t.RecordedAt = r.now().UTC()
	}
	if _, err := r.writer.NewInsert().Model(t).Exec(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	return nil
}

// ListByOrder returns the audit trail of one order, oldest first.
func (r *Repository) ListByOrder(ctx context.Context, kind entity.Kind, orderID int64) ([]entity.Transition, error) {
	ctx, span := repoTracer.Start(ctx, "TransitionRepository.ListByOrder", trace.WithAttributes(
		attribute.Int64("order.id", orderID),
		attribute.String("order.kind", string(kind)),
	))
	defer span.End()

	var out []entity.Transition
	err := r.reader.NewSelect().
		Model(&out).
		Where("order_id = ?", orderID).
		Where("order_kind = ?", kind).
		OrderExpr("occurred_at ASC, id ASC").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return out, nil
}

// Recent returns the latest transitions across all orders, newest first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]entity.Transition, error) {
	ctx, span := repoTracer.Start(ctx, "TransitionRepository.Recent")
	defer span.End()

	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []entity.Transition
	err := r.reader.NewSelect().
		Model(&out).
		OrderExpr("occurred_at DESC, id DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return out, nil
}
