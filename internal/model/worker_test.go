package model

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saldo27/shiftsched/internal/dateutil"
)

func TestSymmetrizeIncompatibilities(t *testing.T) {
	a := NewWorker("a", 100, 10)
	b := NewWorker("b", 100, 10)
	a.IncompatibleWith.Insert("b")

	SymmetrizeIncompatibilities([]*Worker{a, b})

	assert.True(t, b.IsIncompatibleWith("a"))
}

func TestValidateTargetConsistencyRejectsUnscaledPartTime(t *testing.T) {
	w := NewWorker("a", 50, 28) // claims full 28-day horizon at half time
	err := w.ValidateTargetConsistency(28, 0.1)
	assert.Error(t, err)
}

func TestValidateTargetConsistencyAcceptsScaledTarget(t *testing.T) {
	w := NewWorker("a", 50, 14)
	err := w.ValidateTargetConsistency(28, 0.1)
	assert.NoError(t, err)
}

func TestWorkPeriodAvailability(t *testing.T) {
	w := NewWorker("a", 100, 10)
	w.WorkPeriods = []WorkPeriod{
		{Start: dateutil.MustParse("2025-01-01"), End: dateutil.MustParse("2025-01-15")},
	}
	assert.True(t, w.IsAvailable(dateutil.MustParse("2025-01-10")))
	assert.False(t, w.IsAvailable(dateutil.MustParse("2025-01-20")))
}

func TestNoWorkPeriodsMeansAlwaysAvailable(t *testing.T) {
	w := NewWorker("a", 100, 10)
	assert.True(t, w.IsAvailable(dateutil.MustParse("2099-12-31")))
}
