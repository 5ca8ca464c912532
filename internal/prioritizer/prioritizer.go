// Package prioritizer implements OperationPrioritizer (spec §4.6): a
// ranked list of improvement-loop operations chosen from the current
// state, plus a skip history that avoids re-running an operation that
// produced no net score change against the same state signature.
package prioritizer

import (
	"github.com/saldo27/shiftsched/internal/metrics"
	"github.com/saldo27/shiftsched/internal/state"
)

// Operation names the closed set of improvement-loop primitives the
// prioritizer can schedule.
type Operation string

const (
	OpFillEmptyShifts      Operation = "try_fill_empty_shifts"
	OpBalanceWorkloads     Operation = "balance_workloads"
	OpBalanceWeekends      Operation = "balance_weekend_distribution"
	OpSynchronizeTracking  Operation = "synchronize_tracking_data"

	// weekendImbalanceThreshold is the trigger point for prioritizing the
	// weekend balancer (spec §4.6: "if weekend imbalance > threshold").
	weekendImbalanceThreshold = 1.5

	// syncEveryN controls how often synchronize_tracking_data rides along
	// as a no-cost safety net (spec §4.6).
	syncEveryN = 5
)

// RankedOperation is one entry in the prioritized plan.
type RankedOperation struct {
	Name     Operation
	Priority int // lower runs first
}

// Signature identifies a state's shape for skip-history lookups: exact
// score-affecting counts, not a full snapshot (spec §4.6's "state
// pattern").
type Signature struct {
	EmptyCells int
	Breaches   int
}

// SignatureOf derives a Signature from the current state and metrics
// snapshot.
func SignatureOf(snap metrics.Snapshot) Signature {
	return Signature{EmptyCells: snap.EmptyCells, Breaches: snap.ToleranceBreaches}
}

type skipRecord struct {
	signature  Signature
	zeroResult bool
}

// Prioritizer tracks per-operation skip history across iterations.
type Prioritizer struct {
	history map[Operation]skipRecord
	calls   int
}

// New returns an empty Prioritizer.
func New() *Prioritizer {
	return &Prioritizer{history: make(map[Operation]skipRecord)}
}

// Plan ranks operations for the current iteration, given the state, its
// metrics snapshot, and the iteration number (for the periodic
// synchronize_tracking_data inclusion).
func (p *Prioritizer) Plan(st *state.ScheduleState, snap metrics.Snapshot, iteration int, anyOverPhase1Ceiling bool) []RankedOperation {
	p.calls++
	var plan []RankedOperation
	priority := 0

	if snap.EmptyCells > 0 {
		plan = append(plan, RankedOperation{OpFillEmptyShifts, priority})
		priority++
	}
	if anyOverPhase1Ceiling {
		plan = append(plan, RankedOperation{OpBalanceWorkloads, priority})
		priority++
	}
	if snap.WeekendImbalance > weekendImbalanceThreshold {
		plan = append(plan, RankedOperation{OpBalanceWeekends, priority})
		priority++
	}
	if iteration%syncEveryN == 0 {
		plan = append(plan, RankedOperation{OpSynchronizeTracking, priority})
		priority++
	}

	sig := SignatureOf(snap)
	filtered := plan[:0]
	for _, op := range plan {
		if p.ShouldSkip(op.Name, sig) {
			continue
		}
		filtered = append(filtered, op)
	}
	return filtered
}

// ShouldSkip reports whether op should be skipped this round: it was run
// against the identical state signature last time and produced zero net
// score change. It is a one-time skip — the next call with a *different*
// signature clears the record (spec §4.6: "an operation that produced
// zero net score change against the same ... state signature in its last
// attempt is skipped once, not forever").
func (p *Prioritizer) ShouldSkip(op Operation, sig Signature) bool {
	rec, ok := p.history[op]
	if !ok {
		return false
	}
	delete(p.history, op)
	return rec.signature == sig && rec.zeroResult
}

// RecordResult updates op's skip history after running it against sig
// with scoreDelta net change.
func (p *Prioritizer) RecordResult(op Operation, sig Signature, scoreDelta float64) {
	p.history[op] = skipRecord{signature: sig, zeroResult: scoreDelta == 0}
}
