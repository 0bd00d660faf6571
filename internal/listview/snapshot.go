package listview

import (
	"slices"

	"github.com/Additional-Code/frostline/internal/entity"
)

// Snapshot is an immutable view of a Controller at one point in time.
// Orders are in display order.
type Snapshot struct {
	State       State
	Message     string
	Discipline  Discipline
	Orders      []entity.Order
	Total       int
	HasMore     bool
	HasPrevious bool
	Page        int
	Filters     map[Dimension]string
}

// Shown is the number of orders rendered.
func (s Snapshot) Shown() int {
	return len(s.Orders)
}

// Cards renders the snapshot's orders.
func (s Snapshot) Cards() []Card {
	out := make([]Card, 0, len(s.Orders))
	for _, o := range s.Orders {
		out = append(out, NewCard(o))
	}
	return out
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{
		State:      c.state,
		Message:    c.message,
		Discipline: c.opts.Discipline,
		Orders:     displayOrder(c.records),
		Total:      c.count,
		HasMore:    c.next != "",
		Page:       c.page,
		Filters:    c.selectionLocked(),
	}
	if c.opts.Discipline == PageNumbers {
		s.HasPrevious = c.page > 1 && (c.state == StateReady || c.state == StateEmpty)
	}
	return s
}

// displayOrder sorts a copy by phase rank, newest first within a phase.
func displayOrder(orders []entity.Order) []entity.Order {
	out := slices.Clone(orders)
	slices.SortStableFunc(out, func(a, b entity.Order) int {
		if ra, rb := a.Status.Phase().Rank(), b.Status.Phase().Rank(); ra != rb {
			return rb - ra
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}
