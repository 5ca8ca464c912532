package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saldo27/shiftsched/internal/dateutil"
	"github.com/saldo27/shiftsched/internal/model"
	"github.com/saldo27/shiftsched/internal/state"
)

func TestBuildReportsEmptyCellsAndViolators(t *testing.T) {
	h := dateutil.NewHorizon(dateutil.MustParse("2025-01-01"), dateutil.MustParse("2025-01-10"), 1, nil, nil)
	w := model.NewWorker("a", 100, 10)
	st := state.New(h, []*model.Worker{w})
	require.NoError(t, st.Assign(dateutil.MustParse("2025-01-01"), 0, "a"))

	r := Build(st, []*model.Worker{w}, "tolerance_optimization")

	assert.Equal(t, "tolerance_optimization", r.ProducingPhase)
	assert.Equal(t, 9, r.EmptyCells)
	require.Len(t, r.Violators, 1)
	assert.Equal(t, "a", r.Violators[0].WorkerID)
}

func TestBuildReportsNoViolatorsWhenWithinTolerance(t *testing.T) {
	h := dateutil.NewHorizon(dateutil.MustParse("2025-01-01"), dateutil.MustParse("2025-01-10"), 1, nil, nil)
	w := model.NewWorker("a", 100, 10)
	st := state.New(h, []*model.Worker{w})
	for _, d := range h.Dates() {
		require.NoError(t, st.Assign(d, 0, "a"))
	}

	r := Build(st, []*model.Worker{w}, "finalization")
	assert.Empty(t, r.Violators)
	assert.Equal(t, 0, r.EmptyCells)
}
