// Package model holds the engine's plain data types: workers, schedule
// configuration, and the fixed-grid cell the scheduler fills.
package model

import (
	"fmt"

	hset "github.com/hashicorp/go-set/v3"
	"github.com/saldo27/shiftsched/internal/dateutil"
)

// WorkPeriod is an inclusive availability window. A worker with no
// WorkPeriods is available across the whole horizon.
type WorkPeriod struct {
	Start, End dateutil.Date
}

// Contains reports whether d falls within the window, inclusive.
func (p WorkPeriod) Contains(d dateutil.Date) bool {
	return !d.Before(p.Start) && !d.After(p.End)
}

// Worker is one schedulable person. TargetShifts is already pre-scaled for
// WorkPercentage — spec §9's Open Question resolves this explicitly: the
// engine never re-scales a declared target by work percentage.
type Worker struct {
	ID               string
	WorkPercentage   int
	TargetShifts     int
	MandatoryDates   *hset.Set[dateutil.Date]
	DaysOff          *hset.Set[dateutil.Date]
	WorkPeriods      []WorkPeriod
	IncompatibleWith *hset.Set[string]
}

// NewWorker constructs a Worker with empty collections, mirroring the
// teacher's NewEmployee constructor shape.
func NewWorker(id string, workPercentage, targetShifts int) *Worker {
	return &Worker{
		ID:               id,
		WorkPercentage:   workPercentage,
		TargetShifts:     targetShifts,
		MandatoryDates:   hset.New[dateutil.Date](0),
		DaysOff:          hset.New[dateutil.Date](0),
		IncompatibleWith: hset.New[string](0),
	}
}

// IsAvailable reports whether d is within any declared work period, or true
// if the worker has none declared.
func (w *Worker) IsAvailable(d dateutil.Date) bool {
	if len(w.WorkPeriods) == 0 {
		return true
	}
	for _, p := range w.WorkPeriods {
		if p.Contains(d) {
			return true
		}
	}
	return false
}

// IsDayOff reports whether d is one of the worker's declared days off.
func (w *Worker) IsDayOff(d dateutil.Date) bool {
	return w.DaysOff.Contains(d)
}

// IsMandatory reports whether d is one of the worker's mandatory dates.
func (w *Worker) IsMandatory(d dateutil.Date) bool {
	return w.MandatoryDates.Contains(d)
}

// IsIncompatibleWith reports whether other is in the worker's declared
// incompatibility set.
func (w *Worker) IsIncompatibleWith(other string) bool {
	return w.IncompatibleWith.Contains(other)
}

// SymmetrizeIncompatibilities makes the incompatible_with relation
// commutative across a worker roster, per spec §3: "relation is
// commutative — implementations must symmetrize." Declaring A incompatible
// with B but not the reverse is a common config-authoring mistake; the
// engine treats both declarations as equivalent rather than rejecting one.
func SymmetrizeIncompatibilities(workers []*Worker) {
	byID := make(map[string]*Worker, len(workers))
	for _, w := range workers {
		byID[w.ID] = w
	}
	for _, w := range workers {
		for _, otherID := range w.IncompatibleWith.Slice() {
			if other, ok := byID[otherID]; ok {
				other.IncompatibleWith.Insert(w.ID)
			}
		}
	}
}

// ValidateTargetConsistency rejects a target_shifts value that implies the
// importer re-scaled (or forgot to scale) by work_percentage, per spec §9's
// Open Question: targets arrive pre-scaled and the engine must not guess a
// correction. Two physical bounds catch the common importer mistakes
// without trying to reverse-engineer the importer's arithmetic:
//   - a target can never exceed the number of days in the horizon;
//   - for a part-time worker (work_percentage < 100), a target within
//     slack of the full-time horizon length means the percentage was
//     declared but never applied.
func (w *Worker) ValidateTargetConsistency(horizonDays int, slack float64) error {
	if w.WorkPercentage <= 0 || w.WorkPercentage > 100 {
		return fmt.Errorf("worker %s: work_percentage must be in 1..100, got %d", w.ID, w.WorkPercentage)
	}
	if w.TargetShifts < 0 {
		return fmt.Errorf("worker %s: target_shifts cannot be negative", w.ID)
	}
	if w.TargetShifts > horizonDays {
		return fmt.Errorf(
			"worker %s: target_shifts=%d exceeds the %d-day horizon",
			w.ID, w.TargetShifts, horizonDays,
		)
	}
	if w.WorkPercentage < 100 {
		fullTimeFloor := float64(horizonDays) * (1.0 - slack)
		if float64(w.TargetShifts) >= fullTimeFloor {
			return fmt.Errorf(
				"worker %s: target_shifts=%d matches a full-time target despite work_percentage=%d (looks unscaled)",
				w.ID, w.TargetShifts, w.WorkPercentage,
			)
		}
	}
	return nil
}
