package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhaseOfNormalizesDescriptions(t *testing.T) {
	cases := map[string]Phase{
		"Pendiente de inicio": PhaseWaiting,
		"En espera":           PhaseWaiting,
		" waiting ":           PhaseWaiting,
		"En proceso":          PhaseInProgress,
		"En progreso":         PhaseInProgress,
		"in-progress":         PhaseInProgress,
		"Finalizado":          PhaseFinished,
		"Completado":          PhaseFinished,
		"Cancelado":           PhaseCancelled,
		"Sin estado":          PhaseUnknown,
		"":                    PhaseUnknown,
	}
	for in, want := range cases {
		assert.Equal(t, want, PhaseOf(in), in)
	}
}

func TestPhaseRankOrdersWaitingFirst(t *testing.T) {
	assert.Greater(t, PhaseWaiting.Rank(), PhaseInProgress.Rank())
	assert.Greater(t, PhaseInProgress.Rank(), PhaseFinished.Rank())
	assert.Greater(t, PhaseFinished.Rank(), PhaseCancelled.Rank())
	assert.Equal(t, PhaseUnknown.Rank(), PhaseCancelled.Rank())
}

func TestCanTransition(t *testing.T) {
	assert.True(t, PhaseWaiting.CanTransition(PhaseInProgress))
	assert.True(t, PhaseInProgress.CanTransition(PhaseFinished))
	assert.False(t, PhaseWaiting.CanTransition(PhaseFinished))
	assert.False(t, PhaseFinished.CanTransition(PhaseInProgress))
	assert.False(t, PhaseWaiting.CanTransition(PhaseCancelled))
	assert.False(t, PhaseInProgress.CanTransition(PhaseCancelled))
	assert.False(t, PhaseCancelled.CanTransition(PhaseWaiting))
	assert.False(t, PhaseWaiting.CanTransition(PhaseWaiting))
}

func TestStatusBadge(t *testing.T) {
	assert.Equal(t, "WAITING", Status{ID: 1, Description: "waiting"}.Badge())
	assert.Equal(t, "EN PROCESO", Status{ID: 2, Description: "En proceso"}.Badge())
}

func TestClassifyStock(t *testing.T) {
	assert.Equal(t, StockOut, ClassifyStock(0))
	assert.Equal(t, StockLow, ClassifyStock(49))
	assert.Equal(t, StockIn, ClassifyStock(50))
}

func TestPriorityBadge(t *testing.T) {
	assert.Equal(t, "URGENTE", PriorityBadge("urgente"))
	assert.Equal(t, "ALTA", PriorityBadge("Alta"))
	assert.Equal(t, "BAJA", PriorityBadge("baja"))
	assert.Equal(t, "NORMAL", PriorityBadge("whatever"))
}
