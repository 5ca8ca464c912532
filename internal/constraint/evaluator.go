// Package constraint implements the pure, side-effect-free predicate that
// decides whether a worker may be placed on a given (date, post): spec
// §4.1's ConstraintEvaluator.
package constraint

import (
	"fmt"
	"math"

	"github.com/saldo27/shiftsched/internal/dateutil"
	"github.com/saldo27/shiftsched/internal/model"
	"github.com/saldo27/shiftsched/internal/state"
)

// Reason enumerates every way CanAssign can refuse a placement, in the
// evaluation order of spec §4.1, except LockedMandatory, which step 1
// (cell availability) returns.
type Reason int

const (
	// OK means the placement is legal.
	OK Reason = iota
	CellOccupied
	SameDayConflict
	OutsideWorkPeriod
	DayOff
	GapViolation
	Pattern7And14
	Incompatibility
	WeekendCap
	ConsecutiveWeekendCap
	OverTarget
	LockedMandatory
)

func (r Reason) String() string {
	switch r {
	case OK:
		return "ok"
	case CellOccupied:
		return "cell_occupied"
	case SameDayConflict:
		return "same_day_conflict"
	case OutsideWorkPeriod:
		return "outside_work_period"
	case DayOff:
		return "day_off"
	case GapViolation:
		return "gap_violation"
	case Pattern7And14:
		return "pattern_7_14"
	case Incompatibility:
		return "incompatibility"
	case WeekendCap:
		return "weekend_cap"
	case ConsecutiveWeekendCap:
		return "consecutive_weekend_cap"
	case OverTarget:
		return "over_target"
	case LockedMandatory:
		return "locked_mandatory"
	default:
		return "unknown"
	}
}

// Decision is the result of CanAssign: a Reason plus, for Incompatibility,
// the offending co-assigned worker id (spec §4.1's
// incompatibility(other_worker_id)).
type Decision struct {
	Reason        Reason
	OtherWorkerID string
}

// Ok reports whether the decision allows the placement.
func (d Decision) Ok() bool { return d.Reason == OK }

func (d Decision) Error() string {
	if d.Ok() {
		return ""
	}
	if d.Reason == Incompatibility {
		return fmt.Sprintf("incompatibility(%s)", d.OtherWorkerID)
	}
	return d.Reason.String()
}

func ok() Decision { return Decision{Reason: OK} }

func fail(r Reason) Decision { return Decision{Reason: r} }

// Level is the constraint relaxation level: 0 and 1 share the phase-1
// target ceiling and normal gap requirement; level 2 is the "emergency"
// relaxation of spec §4.1 steps 5 and 9. The 7/14 rule (step 6) is never
// relaxed at any level.
type Level int

const (
	Level0 Level = 0
	Level1 Level = 1
	Level2 Level = 2
)

// Params bundles the configuration CanAssign needs beyond the ScheduleState.
type Params struct {
	Horizon                *dateutil.Horizon
	GapBetweenShifts       int
	MaxConsecutiveWeekends int
	WeekendTolerance       int
	Enforce7And14Pattern   bool
}

// maxWeekendShifts derives the weekend cap from the worker's target and the
// configured weekend_tolerance, per spec §4.1 step 8.
func maxWeekendShifts(target int, weekendTolerance int) int {
	// A worker's weekend share scales with their target the same way their
	// overall shift share does; roughly 2 of every 7 scheduled days are
	// weekend days, plus the configured slack.
	base := int(math.Round(float64(target) * 2.0 / 7.0))
	return base + weekendTolerance
}

// Phase1Ceiling is spec §4.1 step 9's ordinary ceiling: round(target*1.10).
func Phase1Ceiling(target int) int {
	return int(math.Round(float64(target) * 1.10))
}

// Phase2Ceiling is spec §4.1 step 9's emergency, absolute ceiling:
// round(target*1.12). Never exceeded regardless of relaxation level.
func Phase2Ceiling(target int) int {
	return int(math.Round(float64(target) * 1.12))
}

// CanAssign evaluates whether worker may be placed at (date, post) given the
// current state, in the nine-step order of spec §4.1. swapDisplacing, when
// non-empty, is the worker id currently occupying the cell in a swap
// scenario (step 1's "owned by the worker being displaced" carve-out).
func CanAssign(st *state.ScheduleState, p Params, w *model.Worker, date dateutil.Date, post int, level Level, swapDisplacing string) Decision {
	// 1. Cell availability.
	cell, exists := st.Cell(date, post)
	if !exists {
		return fail(CellOccupied)
	}
	if !cell.Empty() {
		if cell.WorkerID != swapDisplacing {
			return fail(CellOccupied)
		}
		if st.IsLockedMandatory(cell.WorkerID, date) {
			return fail(LockedMandatory)
		}
	}

	// 2. Worker-day uniqueness.
	if st.WorkerAssignedOn(w.ID, date) && cell.WorkerID != w.ID {
		return fail(SameDayConflict)
	}

	// 3. Work period.
	if !w.IsAvailable(date) {
		return fail(OutsideWorkPeriod)
	}

	// 4. Days off / exclusions.
	if w.IsDayOff(date) {
		return fail(DayOff)
	}

	// 5. Gap between shifts.
	gap := p.GapBetweenShifts
	if level >= Level2 {
		current := st.ShiftCount(w.ID)
		if current >= w.TargetShifts-3 && gap > 1 {
			gap--
		}
	}
	for _, other := range st.AssignmentDates(w.ID) {
		if other.Equal(date) {
			continue
		}
		if absDays(date.Sub(other)) < gap {
			return fail(GapViolation)
		}
	}

	// 6. 7/14 prohibition — inviolable at every relaxation level.
	if p.Enforce7And14Pattern {
		for _, other := range st.AssignmentDates(w.ID) {
			if other.Equal(date) {
				continue
			}
			diff := absDays(date.Sub(other))
			if (diff == 7 || diff == 14) && date.Weekday() == other.Weekday() {
				return fail(Pattern7And14)
			}
		}
	}

	// 7. Incompatibility.
	if others := st.WorkersOnDate(date); len(others) > 0 {
		for _, otherID := range others {
			if otherID == w.ID || otherID == cell.WorkerID {
				continue
			}
			if w.IsIncompatibleWith(otherID) {
				return Decision{Reason: Incompatibility, OtherWorkerID: otherID}
			}
		}
	}

	// 8. Weekend cap.
	if p.Horizon.IsWeekendOrHoliday(date) {
		maxWeekend := maxWeekendShifts(w.TargetShifts, p.WeekendTolerance)
		current := st.WeekendCount(w.ID)
		if cell.WorkerID == w.ID {
			current--
		}
		if current+1 > maxWeekend {
			return fail(WeekendCap)
		}
		if consecutiveWeekendsExceeded(st, w.ID, date, p.MaxConsecutiveWeekends) {
			return fail(ConsecutiveWeekendCap)
		}
	}

	// 9. Target ceiling.
	ceiling := Phase1Ceiling(w.TargetShifts)
	if level >= Level2 {
		ceiling = Phase2Ceiling(w.TargetShifts)
	}
	current := st.ShiftCount(w.ID)
	if cell.WorkerID == w.ID {
		current--
	}
	if current+1 > ceiling {
		return fail(OverTarget)
	}

	return ok()
}

func absDays(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// consecutiveWeekendsExceeded reports whether adding date would push the
// worker's run of consecutive scheduled weekends beyond the configured
// maximum. Two weekend dates are "consecutive" when no unscheduled weekend
// falls between them (i.e. they are in adjacent calendar weekends).
func consecutiveWeekendsExceeded(st *state.ScheduleState, workerID string, date dateutil.Date, max int) bool {
	weekends := st.WeekendAssignments(workerID)
	run := 1
	// Walk backwards from the candidate date through consecutive weekends.
	candidateWeekStart := weekendStart(date)
	prevWeek := candidateWeekStart.AddDays(-7)
	for {
		found := false
		for _, wd := range weekends {
			if weekendStart(wd).Equal(prevWeek) {
				found = true
				break
			}
		}
		if !found {
			break
		}
		run++
		prevWeek = prevWeek.AddDays(-7)
	}
	return run > max
}

// weekendStart normalizes a weekend date to its Saturday, so two dates in
// the same calendar weekend compare equal.
func weekendStart(d dateutil.Date) dateutil.Date {
	wd := d.Weekday() // Monday=0..Sunday=6
	switch wd {
	case 5: // Saturday
		return d
	case 6: // Sunday
		return d.AddDays(-1)
	default:
		return d
	}
}
