// Package backtrack implements BacktrackingManager (spec §4.7): bounded
// checkpointing of a ScheduleState, dead-end detection, and rollback to
// the best prior checkpoint. Deep copies go through state.Snapshot's own
// Clone, never through a reflection-based copier over ScheduleState
// itself or over dateutil.Date's unexported time.Time (see
// internal/state/snapshot.go).
package backtrack

import (
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/saldo27/shiftsched/internal/metrics"
	"github.com/saldo27/shiftsched/internal/state"
)

// Dead-end thresholds, recovered from
// original_source/backtracking_manager.py's DEFAULT_CONFIG /
// dead_end_thresholds.
const (
	stagnationThreshold                   = 10
	noImprovementThreshold                = 15
	violationsThreshold                   = 5
	severeImbalanceNoImprovementThreshold = 5
	impossibleThreshold                   = 3

	// severeWorkloadImbalance / severeWeekendImbalance mark "severe
	// imbalance" (original_source/backtracking_manager.py: "workload_imbalance
	// > 4.0 or weekend_imbalance > 3.0").
	severeWorkloadImbalance = 4.0
	severeWeekendImbalance  = 3.0

	// checkpointImprovementRatio is the score-improvement-since-last-checkpoint
	// trigger for an out-of-band checkpoint: a score of at least 1.05x the
	// last checkpoint's.
	checkpointImprovementRatio = 1.05

	// rollback scoring weights, recovered from find_best_rollback_point.
	rollbackAgePenaltyPerSlot   = 0.1
	rollbackViolationPenalty    = 100.0
	rollbackEmptyCellPenalty    = 10.0
	rollbackImbalancePenalty    = 50.0
)

// Checkpoint is one preserved state, deep-copied so later mutation of the
// live ScheduleState never disturbs it.
type Checkpoint struct {
	ID                   string
	Phase                string
	Iteration            int
	Snapshot             *state.Snapshot
	Score                float64
	ConstraintViolations int
	EmptyCells           int
	WorkloadImbalance    float64
}

// DeadEndIndicators tracks the running counters detect_dead_end consults.
type DeadEndIndicators struct {
	StagnationIterations  int
	NoImprovementCycles   int
	ConstraintViolations  int
	SevereImbalance       bool
	ImpossibleAssignments int
}

// IsDeadEnd implements original_source/backtracking_manager.py's
// DeadEndIndicators.is_dead_end.
func (d DeadEndIndicators) IsDeadEnd() bool {
	return d.StagnationIterations >= stagnationThreshold ||
		d.NoImprovementCycles >= noImprovementThreshold ||
		d.ConstraintViolations >= violationsThreshold ||
		(d.SevereImbalance && d.NoImprovementCycles >= severeImbalanceNoImprovementThreshold) ||
		d.ImpossibleAssignments >= impossibleThreshold
}

// Manager owns a bounded ring buffer of checkpoints plus the running
// dead-end indicators.
type Manager struct {
	maxCheckpoints int
	checkpoints    []*Checkpoint
	indicators     DeadEndIndicators
	lastScore      float64
	hasLastScore   bool
	logger         hclog.Logger
	tracker        *metrics.Tracker
}

// New constructs a Manager bounded to maxCheckpoints entries, logging
// through logger and resetting tracker's trend on rollback.
func New(maxCheckpoints int, logger hclog.Logger, tracker *metrics.Tracker) *Manager {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Manager{maxCheckpoints: maxCheckpoints, logger: logger, tracker: tracker}
}

// CreateCheckpoint deep-copies st's snapshot and records it, tagged with
// a fresh uuid for log correlation (spec §4.7 / SPEC_FULL.md's
// checkpoint-ID supplement).
func (m *Manager) CreateCheckpoint(st *state.ScheduleState, phase string, iteration int, score metrics.Snapshot) *Checkpoint {
	cp := &Checkpoint{
		ID:                   uuid.NewString(),
		Phase:                phase,
		Iteration:            iteration,
		Snapshot:             st.Snapshot().Clone(),
		Score:                score.OverallScore,
		ConstraintViolations: score.ToleranceBreaches,
		EmptyCells:           score.EmptyCells,
		WorkloadImbalance:    score.WorkloadImbalance,
	}
	m.checkpoints = append(m.checkpoints, cp)
	if len(m.checkpoints) > m.maxCheckpoints {
		// Keep the first (mandatory-phase baseline) plus the most recent
		// max-1, per original_source's ring-buffer eviction.
		m.checkpoints = append([]*Checkpoint{m.checkpoints[0]}, m.checkpoints[len(m.checkpoints)-(m.maxCheckpoints-1):]...)
	}
	m.logger.Info("checkpoint created", "id", cp.ID, "phase", phase, "score", cp.Score)
	return cp
}

// ShouldCreateCheckpoint reports whether a checkpoint is due: periodic K
// iterations, or a >=5% score improvement since the last checkpoint
// (spec §4.7).
func (m *Manager) ShouldCreateCheckpoint(iteration int, everyK int, currentScore float64) bool {
	if everyK > 0 && iteration%everyK == 0 {
		return true
	}
	if len(m.checkpoints) == 0 {
		return true
	}
	last := m.checkpoints[len(m.checkpoints)-1]
	return currentScore >= last.Score*checkpointImprovementRatio
}

// RecordIteration updates the running dead-end indicators from the
// latest iteration's measurements.
func (m *Manager) RecordIteration(currentScore float64, constraintViolations int, workloadImbalance, weekendImbalance float64, impossibleAssignments int) {
	if m.hasLastScore && currentScore <= m.lastScore {
		m.indicators.StagnationIterations++
	} else {
		m.indicators.StagnationIterations = 0
	}
	m.lastScore = currentScore
	m.hasLastScore = true

	m.indicators.ConstraintViolations = constraintViolations
	m.indicators.ImpossibleAssignments = impossibleAssignments
	m.indicators.SevereImbalance = workloadImbalance > severeWorkloadImbalance || weekendImbalance > severeWeekendImbalance
	if m.tracker != nil {
		m.indicators.NoImprovementCycles = m.tracker.NoImprovementStreak()
	}
}

// DetectDeadEnd reports whether the running indicators constitute a dead
// end.
func (m *Manager) DetectDeadEnd() bool {
	dead := m.indicators.IsDeadEnd()
	if dead {
		m.logger.Warn("dead end detected",
			"stagnation", m.indicators.StagnationIterations,
			"no_improvement", m.indicators.NoImprovementCycles,
			"violations", m.indicators.ConstraintViolations,
			"severe_imbalance", m.indicators.SevereImbalance,
		)
	}
	return dead
}

// FindBestRollbackPoint scores every retained checkpoint per
// original_source/backtracking_manager.py's find_best_rollback_point and
// returns the highest-scoring one, or nil if none are retained.
func (m *Manager) FindBestRollbackPoint() *Checkpoint {
	if len(m.checkpoints) == 0 {
		return nil
	}
	var best *Checkpoint
	var bestScore float64
	for i, cp := range m.checkpoints {
		agePenalty := float64(len(m.checkpoints)-i) * rollbackAgePenaltyPerSlot
		score := cp.Score - agePenalty
		score -= float64(cp.ConstraintViolations) * rollbackViolationPenalty
		score -= float64(cp.EmptyCells) * rollbackEmptyCellPenalty
		score -= cp.WorkloadImbalance * rollbackImbalancePenalty
		if best == nil || score > bestScore {
			best = cp
			bestScore = score
		}
	}
	return best
}

// Rollback atomically restores st to cp's snapshot and resets the
// tracker's trend counters (spec §4.7: "notifies metrics to reset trend
// counters").
func (m *Manager) Rollback(st *state.ScheduleState, cp *Checkpoint) {
	st.Restore(cp.Snapshot)
	m.indicators = DeadEndIndicators{}
	m.hasLastScore = false
	if m.tracker != nil {
		m.tracker.ResetTrend()
	}
	m.logger.Info("rollback complete", "id", cp.ID, "score", cp.Score)
}

// Checkpoints returns the retained checkpoints, oldest first.
func (m *Manager) Checkpoints() []*Checkpoint {
	return m.checkpoints
}
