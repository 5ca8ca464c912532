package builder

import (
	"github.com/saldo27/shiftsched/internal/dateutil"
	"github.com/saldo27/shiftsched/internal/model"
	"github.com/saldo27/shiftsched/internal/state"
)

// Scoring weights, named per spec §9: "make them named configuration
// constants, not hard-coded magic numbers, so the suite in §8 can pin
// them." Values are the illustrative weights spec §4.2.2 lists.
const (
	ScoreCriticalDeficitBonus = 25000.0 // worker >= 5 shifts under target
	ScoreMajorDeficitBonus    = 15000.0 // worker >= 3 shifts under target
	ScoreMinorDeficitBonus    = 5000.0  // worker >= 1 shift under target
	ScoreBase                 = 1000.0
	ScoreExcessPenaltyPerUnit = -100.0
	ScorePostBalanceBonus     = 200.0
	ScoreWeekdaySpreadBonus   = 150.0
	ScoreRecencyPenaltyPerDay = -20.0
)

// WorkerScore ranks a candidate (worker, date, post) placement; higher is
// better. It never vetoes a placement — CanAssign already decided
// feasibility — it only orders feasible candidates (spec §4.2.2).
func WorkerScore(st *state.ScheduleState, w *model.Worker, date dateutil.Date, post int) float64 {
	current := st.ShiftCount(w.ID)
	deficit := w.TargetShifts - current

	score := ScoreBase
	switch {
	case deficit >= 5:
		score += ScoreCriticalDeficitBonus
	case deficit >= 3:
		score += ScoreMajorDeficitBonus
	case deficit >= 1:
		score += ScoreMinorDeficitBonus
	}

	excess := current - w.TargetShifts
	if excess > 0 {
		score += ScoreExcessPenaltyPerUnit * float64(excess)
	}

	if postIsUnderRepresented(st, w, post) {
		score += ScorePostBalanceBonus
	}

	if assignmentReducesWeekdaySpread(st, w, date) {
		score += ScoreWeekdaySpreadBonus
	}

	if last, ok := st.LastAssignmentDate(w.ID); ok {
		gap := date.Sub(last)
		if gap < 0 {
			gap = -gap
		}
		// Closer to the last assignment date is penalized more; the
		// penalty shrinks toward zero as the gap widens.
		proximityPenalty := ScoreRecencyPenaltyPerDay * float64(maxInt(0, 14-gap))
		score += proximityPenalty
	}

	return score
}

func postIsUnderRepresented(st *state.ScheduleState, w *model.Worker, post int) bool {
	total := st.ShiftCount(w.ID)
	if total == 0 {
		return true
	}
	// A post is under-represented when its share of this worker's
	// assignments so far is below an even split across the posts they've
	// used.
	thisPost := st.PostCount(w.ID, post)
	return float64(thisPost) < float64(total)/float64(maxInt(1, distinctPostsUsed(st, w)))
}

func distinctPostsUsed(st *state.ScheduleState, w *model.Worker) int {
	n := 0
	for p := 0; p < 64; p++ {
		if st.PostCount(w.ID, p) > 0 {
			n++
		}
	}
	if n == 0 {
		return 1
	}
	return n
}

func assignmentReducesWeekdaySpread(st *state.ScheduleState, w *model.Worker, date dateutil.Date) bool {
	counts := make([]int, 7)
	for wd := 0; wd < 7; wd++ {
		counts[wd] = st.WeekdayCount(w.ID, wd)
	}
	maxBefore, minBefore := spread(counts)
	counts[date.Weekday()]++
	maxAfter, minAfter := spread(counts)
	return (maxAfter - minAfter) <= (maxBefore - minBefore)
}

func spread(counts []int) (max, min int) {
	max, min = counts[0], counts[0]
	for _, c := range counts[1:] {
		if c > max {
			max = c
		}
		if c < min {
			min = c
		}
	}
	return max, min
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
