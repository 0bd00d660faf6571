package listview

import "github.com/Additional-Code/frostline/internal/entity"

// Action is a status transition offered on a card.
type Action struct {
	Label  string
	Target entity.Phase
}

// Card is the rendered form of one order.
type Card struct {
	Order    entity.Order
	Badge    string
	Priority string
	Actions  []Action
}

var phaseActions = map[entity.Phase][]Action{
	entity.PhaseWaiting:    {{Label: "Iniciar", Target: entity.PhaseInProgress}},
	entity.PhaseInProgress: {{Label: "Finalizar", Target: entity.PhaseFinished}},
}

// NewCard renders an order.
func NewCard(o entity.Order) Card {
	card := Card{
		Order:   o,
		Badge:   o.Status.Badge(),
		Actions: append([]Action(nil), phaseActions[o.Status.Phase()]...),
	}
	if o.Kind == entity.KindSales {
		card.Priority = entity.PriorityBadge(o.Priority)
	}
	return card
}

// HasAction reports whether the card offers an action with label.
func (c Card) HasAction(label string) bool {
	for _, a := range c.Actions {
		if a.Label == label {
			return true
		}
	}
	return false
}
