package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saldo27/shiftsched/internal/constraint"
	"github.com/saldo27/shiftsched/internal/dateutil"
	"github.com/saldo27/shiftsched/internal/model"
)

func testParams(h *dateutil.Horizon) constraint.Params {
	return constraint.Params{
		Horizon:                h,
		GapBetweenShifts:       2,
		MaxConsecutiveWeekends: 3,
		WeekendTolerance:       1,
		Enforce7And14Pattern:   true,
	}
}

// TestS1SmokeFill is spec §8's S1: horizon 2025-01-01..2025-01-07,
// num_shifts=1, workers {A target=4, B target=3}, no constraints.
func TestS1SmokeFill(t *testing.T) {
	h := dateutil.NewHorizon(dateutil.MustParse("2025-01-01"), dateutil.MustParse("2025-01-07"), 1, nil, nil)
	a := model.NewWorker("A", 100, 4)
	b := model.NewWorker("B", 100, 3)
	workers := []*model.Worker{a, b}

	out, err := Execute(context.Background(), Run{
		Horizon:                h,
		Workers:                workers,
		Params:                 testParams(h),
		MaxImprovementLoops:    20,
		LastPostAdjustMaxIters: 10,
	})
	require.NoError(t, err)
	require.NoError(t, out.State.Validate())
	assert.Equal(t, 0, out.State.EmptyCellCount())
}

// TestS2MandatoryIncompatibilityIsFatal is spec §8's S2: A and B share a
// mandatory date and are declared incompatible. Expected: fatal
// infeasible mandatory layout naming both ids.
func TestS2MandatoryIncompatibilityIsFatal(t *testing.T) {
	h := dateutil.NewHorizon(dateutil.MustParse("2025-01-01"), dateutil.MustParse("2025-01-07"), 1, nil, nil)
	shared := dateutil.MustParse("2025-01-05")
	a := model.NewWorker("A", 100, 4)
	b := model.NewWorker("B", 100, 4)
	a.MandatoryDates.Insert(shared)
	b.MandatoryDates.Insert(shared)
	a.IncompatibleWith.Insert("B")
	model.SymmetrizeIncompatibilities([]*model.Worker{a, b})

	_, err := Execute(context.Background(), Run{
		Horizon:                h,
		Workers:                []*model.Worker{a, b},
		Params:                 testParams(h),
		MaxImprovementLoops:    10,
		LastPostAdjustMaxIters: 5,
	})
	require.Error(t, err)
	kind, ok := AsFatal(err)
	require.True(t, ok)
	assert.Equal(t, "infeasible_mandatory", kind)
	assert.Contains(t, err.Error(), "A")
}

// TestS3SevenFourteenInviolableNonFatal is spec §8's S3: a 30-day
// horizon, single worker, num_shifts=1, target=30. The 7/14 rule makes a
// full fill impossible; the run completes non-fatally with a report
// naming the deficit.
func TestS3SevenFourteenInviolableNonFatal(t *testing.T) {
	h := dateutil.NewHorizon(dateutil.MustParse("2025-01-01"), dateutil.MustParse("2025-01-30"), 1, nil, nil)
	w := model.NewWorker("solo", 100, 30)

	out, err := Execute(context.Background(), Run{
		Horizon:                h,
		Workers:                []*model.Worker{w},
		Params:                 testParams(h),
		MaxImprovementLoops:    20,
		LastPostAdjustMaxIters: 10,
	})
	require.NoError(t, err)
	require.NoError(t, out.State.Validate())
	assert.Greater(t, out.State.EmptyCellCount(), 0)
}

func TestExecuteRespectsCancellation(t *testing.T) {
	h := dateutil.NewHorizon(dateutil.MustParse("2025-01-01"), dateutil.MustParse("2025-02-01"), 2, nil, nil)
	workers := make([]*model.Worker, 0, 10)
	for i := 0; i < 10; i++ {
		workers = append(workers, model.NewWorker(string(rune('a'+i)), 100, 6))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := Execute(ctx, Run{
		Horizon:                h,
		Workers:                workers,
		Params:                 testParams(h),
		MaxImprovementLoops:    50,
		LastPostAdjustMaxIters: 10,
	})
	require.NoError(t, err)
	require.NotNil(t, out)
}
