package order

import (
	"context"
	"encoding/json"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/frostline/internal/config"
	"github.com/Additional-Code/frostline/internal/entity"
	"github.com/Additional-Code/frostline/internal/messaging"
	transitionrepo "github.com/Additional-Code/frostline/internal/repository/transition"
	ordersvc "github.com/Additional-Code/frostline/internal/service/order"
	"github.com/Additional-Code/frostline/internal/worker"
)

var workerTracer = otel.Tracer("github.com/Additional-Code/frostline/worker/order")

// Recorder stores audit rows.
type Recorder interface {
	Create(ctx context.Context, t *entity.Transition) error
}

// Module registers order-related worker handlers.
var Module = fx.Module("worker_order",
	fx.Provide(
		fx.Annotate(
			func(repo *transitionrepo.Repository, logger *zap.Logger, cfg config.Config) worker.HandlerRegistration {
				return NewTransitionHandler(repo, logger, cfg)
			},
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// NewTransitionHandler persists every order.transitioned event as an audit row.
func NewTransitionHandler(recorder Recorder, logger *zap.Logger, cfg config.Config) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.orders.transitioned", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
			attribute.Int64("messaging.offset", msg.Offset),
		))
		defer span.End()

		if kind := msg.Headers[messaging.HeaderEvent]; kind != "" && kind != ordersvc.EventTransitioned {
			logger.Debug("skipping unrelated event", zap.String("event", kind))
			return nil
		}

		var event ordersvc.TransitionEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("failed to decode order transitioned", zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}
		if event.EventID == "" || event.OrderID == 0 {
			// unusable forever; do not block the partition on it
			logger.Error("dropping incomplete transition event", zap.Int64("offset", msg.Offset))
			return nil
		}

		err := recorder.Create(ctx, event.Transition())
		switch {
		case errors.Is(err, transitionrepo.ErrDuplicate):
			logger.Debug("transition already recorded", zap.String("event_id", event.EventID))
			return nil
		case err != nil:
			span.RecordError(err)
			span.SetStatus(codes.Error, "persist failed")
			return err
		}

		logger.Info("order transition recorded",
			zap.String("event_id", event.EventID),
			zap.Int64("order_id", event.OrderID),
			zap.String("kind", string(event.OrderKind)),
			zap.String("status", event.Status),
		)
		return nil
	}

	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.Topic,
		Handler: handler,
	}
}
