package entity

import "strings"

// Phase is the canonical lifecycle stage behind a server status description.
type Phase string

const (
	PhaseWaiting    Phase = "waiting"
	PhaseInProgress Phase = "in_progress"
	PhaseFinished   Phase = "finished"
	PhaseCancelled  Phase = "cancelled"
	PhaseUnknown    Phase = "unknown"
)

// phaseAliases maps lower-cased server descriptions onto phases. The backend
// reports both Spanish and English labels depending on the resource.
var phaseAliases = map[string]Phase{
	"pendiente de inicio": PhaseWaiting,
	"en espera":           PhaseWaiting,
	"pendiente":           PhaseWaiting,
	"waiting":             PhaseWaiting,
	"pending":             PhaseWaiting,
	"en proceso":          PhaseInProgress,
	"en progreso":         PhaseInProgress,
	"in progress":         PhaseInProgress,
	"in-progress":         PhaseInProgress,
	"in_progress":         PhaseInProgress,
	"finalizado":          PhaseFinished,
	"finalizada":          PhaseFinished,
	"completado":          PhaseFinished,
	"finished":            PhaseFinished,
	"completed":           PhaseFinished,
	"cancelado":           PhaseCancelled,
	"cancelada":           PhaseCancelled,
	"cancelled":           PhaseCancelled,
	"canceled":            PhaseCancelled,
}

// PhaseOf resolves a free-form status description.
func PhaseOf(description string) Phase {
	key := strings.ToLower(strings.TrimSpace(description))
	if p, ok := phaseAliases[key]; ok {
		return p
	}
	return PhaseUnknown
}

// ParsePhase accepts either a canonical phase or any known description.
func ParsePhase(value string) (Phase, bool) {
	p := PhaseOf(value)
	return p, p != PhaseUnknown
}

// Rank orders phases for display; higher ranks are listed first.
func (p Phase) Rank() int {
	switch p {
	case PhaseWaiting:
		return 3
	case PhaseInProgress:
		return 2
	case PhaseFinished:
		return 1
	default:
		return 0
	}
}

// allowedTransitions lists the moves the console can request. Cancellation
// happens on the backend only.
var allowedTransitions = map[Phase][]Phase{
	PhaseWaiting:    {PhaseInProgress},
	PhaseInProgress: {PhaseFinished},
}

// CanTransition reports whether moving from p to target is a valid lifecycle step.
func (p Phase) CanTransition(target Phase) bool {
	for _, next := range allowedTransitions[p] {
		if next == target {
			return true
		}
	}
	return false
}

// Status is the server-owned status of an order.
type Status struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
}

// Phase resolves the status description.
func (s Status) Phase() Phase {
	return PhaseOf(s.Description)
}

// Badge is the upper-cased label shown on cards.
func (s Status) Badge() string {
	return strings.ToUpper(strings.TrimSpace(s.Description))
}
