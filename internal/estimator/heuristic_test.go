package estimator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/queue-service/internal/domain"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// Wednesday afternoon, mid-month: every context factor is neutral.
var quietWednesday = time.Date(2025, time.June, 11, 14, 0, 0, 0, time.UTC)

func TestHeuristicNeutralContext(t *testing.T) {
	h := NewHeuristic(DefaultHeuristicConfig(), fixedClock(quietWednesday))

	estimate := h.Estimate(Snapshot{
		Category:  domain.CategoryBank,
		QueueSize: 15,
	})

	assert.Equal(t, 150, estimate.Minutes)
	assert.InDelta(t, 0.80, estimate.Confidence, 1e-9)
}

func TestHeuristicEmptyQueue(t *testing.T) {
	h := NewHeuristic(DefaultHeuristicConfig(), fixedClock(quietWednesday))

	estimate := h.Estimate(Snapshot{Category: domain.CategoryPost, QueueSize: 0})

	assert.Equal(t, 0, estimate.Minutes)
	assert.Contains(t, estimate.Recommendation, "ideal time")
}

func TestHeuristicMinimumFloor(t *testing.T) {
	// Saturday discount would push one person at a post office below five
	// minutes; the floor holds.
	saturday := time.Date(2025, time.June, 14, 14, 0, 0, 0, time.UTC)
	h := NewHeuristic(DefaultHeuristicConfig(), fixedClock(saturday))

	estimate := h.Estimate(Snapshot{Category: domain.CategoryPost, QueueSize: 1})

	assert.Equal(t, 5, estimate.Minutes)
}

func TestHeuristicSalaryDaySurge(t *testing.T) {
	// September 15th 2025 is both a salary day and a Monday; the 17th is a
	// plain Wednesday. Same queue, same hour.
	salaryMonday := time.Date(2025, time.September, 15, 14, 0, 0, 0, time.UTC)
	plainWednesday := time.Date(2025, time.September, 17, 14, 0, 0, 0, time.UTC)

	snap := Snapshot{Category: domain.CategoryBank, QueueSize: 15}

	surged := NewHeuristic(DefaultHeuristicConfig(), fixedClock(salaryMonday)).Estimate(snap)
	normal := NewHeuristic(DefaultHeuristicConfig(), fixedClock(plainWednesday)).Estimate(snap)

	assert.Greater(t, surged.Minutes, normal.Minutes)
	assert.Equal(t, 150, normal.Minutes)
	// 1.25 (Monday) x 2.2 (bank salary day) = 2.75
	surgeFactor := 2.75
	assert.Equal(t, int(150*surgeFactor), surged.Minutes)
}

func TestHeuristicConfidenceDropsInVolatileContext(t *testing.T) {
	// Morning rush on a bank salary-day Monday pushes the factor past 3.
	volatile := time.Date(2025, time.September, 15, 9, 0, 0, 0, time.UTC)
	h := NewHeuristic(DefaultHeuristicConfig(), fixedClock(volatile))

	estimate := h.Estimate(Snapshot{Category: domain.CategoryBank, QueueSize: 15})

	assert.InDelta(t, 0.70, estimate.Confidence, 1e-9)
}

func TestHeuristicConfidenceStaysClamped(t *testing.T) {
	h := NewHeuristic(DefaultHeuristicConfig(), fixedClock(quietWednesday))
	for _, size := range []int{0, 1, 8, 15, 100} {
		estimate := h.Estimate(Snapshot{Category: domain.CategoryHealth, QueueSize: size})
		assert.GreaterOrEqual(t, estimate.Confidence, 0.60)
		assert.LessOrEqual(t, estimate.Confidence, 0.95)
	}
}

func TestHeuristicBestTimes(t *testing.T) {
	h := NewHeuristic(DefaultHeuristicConfig(), fixedClock(quietWednesday))

	estimate := h.Estimate(Snapshot{Category: domain.CategoryAdministration, QueueSize: 5})

	require.Len(t, estimate.BestTimes, 3)
	for _, slot := range estimate.BestTimes {
		assert.NotEqual(t, time.Saturday, slot.Weekday)
		assert.NotEqual(t, time.Sunday, slot.Weekday)
		assert.GreaterOrEqual(t, slot.Hour, 8)
		assert.LessOrEqual(t, slot.Hour, 17)
	}
	assert.LessOrEqual(t, estimate.BestTimes[0].Factor, estimate.BestTimes[1].Factor)
	assert.LessOrEqual(t, estimate.BestTimes[1].Factor, estimate.BestTimes[2].Factor)
}

func TestHeuristicIsDeterministic(t *testing.T) {
	h := NewHeuristic(DefaultHeuristicConfig(), fixedClock(quietWednesday))
	snap := Snapshot{Category: domain.CategoryTelecom, QueueSize: 7}

	first := h.Estimate(snap)
	second := h.Estimate(snap)
	assert.Equal(t, first, second)
}
