package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saldo27/shiftsched/internal/dateutil"
	"github.com/saldo27/shiftsched/internal/model"
	"github.com/saldo27/shiftsched/internal/state"
)

func TestEvaluateScoresFullCoverageHigherThanEmpty(t *testing.T) {
	h := dateutil.NewHorizon(dateutil.MustParse("2025-01-01"), dateutil.MustParse("2025-01-07"), 1, nil, nil)
	w := model.NewWorker("a", 100, 7)
	st := state.New(h, []*model.Worker{w})

	empty := Evaluate(st, []*model.Worker{w})

	for _, d := range h.Dates() {
		require.NoError(t, st.Assign(d, 0, "a"))
	}
	full := Evaluate(st, []*model.Worker{w})

	assert.Greater(t, full.OverallScore, empty.OverallScore)
	assert.Equal(t, 0, full.EmptyCells)
}

func TestTrackerNoImprovementStreak(t *testing.T) {
	tr := NewTracker()
	tr.RecordIterationResult(1, []string{"fill"}, 10)
	tr.RecordIterationResult(2, []string{"fill"}, 10)
	tr.RecordIterationResult(3, []string{"fill"}, 9)

	assert.Equal(t, 2, tr.NoImprovementStreak())
}

func TestTrackerResetTrendClearsStreak(t *testing.T) {
	tr := NewTracker()
	tr.RecordIterationResult(1, nil, 5)
	tr.RecordIterationResult(2, nil, 5)
	require.Equal(t, 1, tr.NoImprovementStreak())

	tr.ResetTrend()
	assert.Equal(t, 0, tr.NoImprovementStreak())
}

func TestShouldContinueOptimizationStopsAtHardCap(t *testing.T) {
	tr := NewTracker()
	cont, reason := tr.ShouldContinueOptimization(10, 10, Snapshot{})
	assert.False(t, cont)
	assert.Equal(t, "hard_cap_reached", reason)
}

func TestShouldContinueOptimizationStopsOnPlateau(t *testing.T) {
	tr := NewTracker()
	tr.RecordIterationResult(1, nil, 42)
	tr.RecordIterationResult(2, nil, 42)
	tr.RecordIterationResult(3, nil, 42)

	cont, reason := tr.ShouldContinueOptimization(4, 100, Snapshot{EmptyCells: 0, ToleranceBreaches: 0})
	assert.False(t, cont)
	assert.Equal(t, "plateau_converged", reason)
}

func TestShouldContinueOptimizationKeepsGoingWithViolations(t *testing.T) {
	tr := NewTracker()
	tr.RecordIterationResult(1, nil, 42)
	tr.RecordIterationResult(2, nil, 42)
	tr.RecordIterationResult(3, nil, 42)

	cont, _ := tr.ShouldContinueOptimization(4, 100, Snapshot{EmptyCells: 0, ToleranceBreaches: 2})
	assert.True(t, cont)
}
