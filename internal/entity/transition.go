package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Transition is an audit row for a confirmed order status change.
type Transition struct {
	bun.BaseModel `bun:"table:order_transitions,alias:ot"`

	ID         int64     `bun:"id,pk,autoincrement" json:"id"`
	EventID    string    `bun:"event_id,notnull,unique" json:"event_id"`
	OrderID    int64     `bun:"order_id,notnull" json:"order_id"`
	OrderKind  Kind      `bun:"order_kind,notnull" json:"order_kind"`
	StatusID   int64     `bun:"status_id,notnull" json:"status_id"`
	Status     string    `bun:"status,notnull" json:"status"`
	EmployeeID int64     `bun:"employee_id,notnull" json:"employee_id"`
	SessionID  string    `bun:"session_id" json:"session_id"`
	OccurredAt time.Time `bun:"occurred_at,notnull" json:"occurred_at"`
	RecordedAt time.Time `bun:"recorded_at,notnull" json:"recorded_at"`
}
