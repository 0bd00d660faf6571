package order

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Additional-Code/frostline/internal/entity"
	"github.com/Additional-Code/frostline/internal/messaging"
	"github.com/Additional-Code/frostline/internal/session"
)

// EventTransitioned is the event header value of TransitionEvent messages.
const EventTransitioned = "order.transitioned"

// TransitionEvent is emitted after the backend confirms a status change.
type TransitionEvent struct {
	EventID    string       `json:"event_id"`
	OrderID    int64        `json:"order_id"`
	OrderKind  entity.Kind  `json:"order_kind"`
	StatusID   int64        `json:"status_id"`
	Status     string       `json:"status"`
	Phase      entity.Phase `json:"phase"`
	EmployeeID int64        `json:"employee_id"`
	SessionID  string       `json:"session_id"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// Transition converts the event into its audit row.
func (e TransitionEvent) Transition() *entity.Transition {
	return &entity.Transition{
		EventID:    e.EventID,
		OrderID:    e.OrderID,
		OrderKind:  e.OrderKind,
		StatusID:   e.StatusID,
		Status:     e.Status,
		EmployeeID: e.EmployeeID,
		SessionID:  e.SessionID,
		OccurredAt: e.OccurredAt,
	}
}

// publishTransition is best effort: the backend already holds the truth.
func (s *Service) publishTransition(ctx context.Context, sess session.Session, order entity.Order) {
	if s.publisher == nil {
		return
	}
	event := TransitionEvent{
		EventID:    uuid.NewString(),
		OrderID:    order.ID,
		OrderKind:  order.Kind,
		StatusID:   order.Status.ID,
		Status:     order.Status.Description,
		Phase:      order.Status.Phase(),
		EmployeeID: sess.Employee.ID,
		SessionID:  sess.ID,
		OccurredAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal order transitioned", zap.Error(err))
		return
	}
	msg := messaging.Message{
		Key:     []byte(fmt.Sprintf("%s-%d", order.Kind, order.ID)),
		Value:   payload,
		Headers: map[string]string{messaging.HeaderEvent: EventTransitioned},
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.logger.Error("publish order transitioned", zap.Int64("order_id", order.ID), zap.Error(err))
	}
}
