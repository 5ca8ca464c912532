// Package scheduler implements SchedulerCore (spec §4.8): the six-phase
// orchestration of every other package into one run.
package scheduler

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/saldo27/shiftsched/internal/backtrack"
	"github.com/saldo27/shiftsched/internal/builder"
	"github.com/saldo27/shiftsched/internal/constraint"
	"github.com/saldo27/shiftsched/internal/dateutil"
	"github.com/saldo27/shiftsched/internal/distributor"
	"github.com/saldo27/shiftsched/internal/metrics"
	"github.com/saldo27/shiftsched/internal/model"
	"github.com/saldo27/shiftsched/internal/optimizer"
	"github.com/saldo27/shiftsched/internal/prioritizer"
	"github.com/saldo27/shiftsched/internal/report"
	"github.com/saldo27/shiftsched/internal/state"
)

// strictBalanceConvergenceStreak is the "three consecutive no-change
// iterations" finalization stop rule (spec §4.8 phase 6).
const strictBalanceConvergenceStreak = 3

// checkpointEveryK is the "every K improvement iterations" checkpoint
// cadence (spec §4.7); K itself isn't specified numerically, so it is
// tied to the plateau window used throughout the engine.
const checkpointEveryK = 3

// maxCheckpoints bounds BacktrackingManager's ring buffer.
const maxCheckpoints = 20

// Run bundles one scheduling attempt's parameters.
type Run struct {
	Horizon                *dateutil.Horizon
	Workers                []*model.Worker
	Params                 constraint.Params
	MaxImprovementLoops    int
	LastPostAdjustMaxIters int
	Logger                 hclog.Logger
}

// Outcome is the result of a completed or cancelled run.
type Outcome struct {
	State  *state.ScheduleState
	Report report.Report
}

// fatalError marks a failure that must surface as a non-zero exit code
// rather than a logged, non-fatal condition (spec §4.8's closing
// paragraph / §7's error taxonomy).
type fatalError struct {
	kind string
	err  error
}

func (f *fatalError) Error() string { return fmt.Sprintf("%s: %v", f.kind, f.err) }
func (f *fatalError) Unwrap() error { return f.err }

// Kind reports the fatal error's taxonomy label ("infeasible_mandatory"
// or "runtime"), used by cmd/shiftsched to pick an exit code.
func (f *fatalError) Kind() string { return f.kind }

// AsFatal extracts the taxonomy kind from err, if it is a fatal error
// produced by Execute.
func AsFatal(err error) (kind string, ok bool) {
	fe, ok := err.(*fatalError)
	if !ok {
		return "", false
	}
	return fe.kind, true
}

// Execute runs all six phases of spec §4.8 and returns the best schedule
// seen, restoring it into the returned state. ctx's deadline is the wall-
// clock budget spec §5 describes; it is checked between operations, never
// mid-operation.
func Execute(ctx context.Context, r Run) (*Outcome, error) {
	logger := r.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	st := state.New(r.Horizon, r.Workers)
	tracker := metrics.NewTracker()
	bt := backtrack.New(maxCheckpoints, logger.Named("backtrack"), tracker)

	// Phase 2: Mandatory.
	logger.Info("phase start", "phase", "mandatory")
	b := builder.New(st, r.Params, r.Workers)
	if err := b.AssignMandatoryGuards(); err != nil {
		return nil, &fatalError{kind: "infeasible_mandatory", err: err}
	}
	mandatoryScore := metrics.Evaluate(st, r.Workers)
	bt.CreateCheckpoint(st, "mandatory", 0, mandatoryScore)

	if err := checkCancelled(ctx); err != nil {
		return finalize(st, r.Workers, "mandatory", logger), nil
	}

	// Phase 3: Multi-attempt Initial Fill.
	logger.Info("phase start", "phase", "initial_fill")
	baseline := st.Snapshot()
	complexity := distributor.ComplexityScore(len(r.Workers), r.Horizon.Days(), r.Horizon.NumShifts)
	_, bestSnap := distributor.Run(st, r.Params, r.Workers, baseline, complexity, r.MaxImprovementLoops)
	st.Restore(bestSnap)
	initialScore := metrics.Evaluate(st, r.Workers)
	bt.CreateCheckpoint(st, "initial_fill", 0, initialScore)

	if err := checkCancelled(ctx); err != nil {
		return finalize(st, r.Workers, "initial_fill", logger), nil
	}

	// Phase 4: Improvement Loop.
	logger.Info("phase start", "phase", "improvement_loop")
	prio := prioritizer.New()
	producingPhase := "initial_fill"
	var bestSoFar *state.Snapshot = st.Snapshot()
	bestScore := initialScore

	for iter := 1; iter <= r.MaxImprovementLoops; iter++ {
		if err := checkCancelled(ctx); err != nil {
			break
		}

		score := metrics.Evaluate(st, r.Workers)
		anyOverCeiling := anyWorkerOverPhase1Ceiling(st, r.Workers)
		plan := prio.Plan(st, score, iter, anyOverCeiling)
		if len(plan) == 0 {
			break
		}

		var ops []string
		for _, op := range plan {
			before := metrics.Evaluate(st, r.Workers).OverallScore
			executeOperation(op.Name, b, iter)
			after := metrics.Evaluate(st, r.Workers).OverallScore
			prio.RecordResult(op.Name, prioritizer.SignatureOf(score), after-before)
			ops = append(ops, string(op.Name))
		}

		iterScore := metrics.Evaluate(st, r.Workers)
		tracker.RecordIterationResult(iter, ops, iterScore.OverallScore)

		if iterScore.OverallScore > bestScore.OverallScore {
			bestSoFar = st.Snapshot()
			bestScore = iterScore
			producingPhase = "improvement_loop"
		}

		bt.RecordIteration(iterScore.OverallScore, iterScore.ToleranceBreaches, iterScore.WorkloadImbalance, iterScore.WeekendImbalance, 0)
		if bt.ShouldCreateCheckpoint(iter, checkpointEveryK, iterScore.OverallScore) {
			bt.CreateCheckpoint(st, "improvement_loop", iter, iterScore)
		}
		if bt.DetectDeadEnd() {
			if cp := bt.FindBestRollbackPoint(); cp != nil {
				bt.Rollback(st, cp)
			}
		}

		cont, reason := tracker.ShouldContinueOptimization(iter, r.MaxImprovementLoops, iterScore)
		if !cont {
			logger.Info("improvement loop stopped", "reason", reason, "iteration", iter)
			break
		}
	}
	st.Restore(bestSoFar)
	bestPhase := producingPhase

	if err := checkCancelled(ctx); err != nil {
		return finalize(st, r.Workers, producingPhase, logger), nil
	}

	// Phase 5: Tolerance Optimization.
	logger.Info("phase start", "phase", "tolerance_optimization")
	optRes := optimizer.Run(st, r.Params, r.Workers, tracker, r.MaxImprovementLoops, 42)
	if optRes.Converged {
		producingPhase = "tolerance_optimization"
	}

	if err := checkCancelled(ctx); err != nil {
		return finalize(st, r.Workers, producingPhase, logger), nil
	}

	// Phase 6: Finalization.
	logger.Info("phase start", "phase", "finalization")
	b.AdjustLastPostDistribution(1, r.LastPostAdjustMaxIters)

	noChangeStreak := 0
	for iter := 0; noChangeStreak < strictBalanceConvergenceStreak && iter < r.LastPostAdjustMaxIters; iter++ {
		workloadMoves := b.BalanceWorkloads()
		weekdayMoves := b.BalanceWeekdayDistribution()
		if workloadMoves == 0 && weekdayMoves == 0 {
			noChangeStreak++
		} else {
			noChangeStreak = 0
		}
	}
	finalScore := metrics.Evaluate(st, r.Workers)
	if finalScore.OverallScore > bestScore.OverallScore {
		producingPhase = "finalization"
	} else {
		st.Restore(bestSoFar)
		producingPhase = bestPhase
	}

	return finalize(st, r.Workers, producingPhase, logger), nil
}

func finalize(st *state.ScheduleState, workers []*model.Worker, producingPhase string, logger hclog.Logger) *Outcome {
	rpt := report.Build(st, workers, producingPhase)
	if len(rpt.Violators) > 0 {
		logger.Warn("tolerance violators remain at termination", "count", len(rpt.Violators), "phase", producingPhase)
	}
	return &Outcome{State: st, Report: rpt}
}

func checkCancelled(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func anyWorkerOverPhase1Ceiling(st *state.ScheduleState, workers []*model.Worker) bool {
	for _, w := range workers {
		if st.ShiftCount(w.ID) > constraint.Phase1Ceiling(w.TargetShifts) {
			return true
		}
	}
	return false
}

func executeOperation(op prioritizer.Operation, b *builder.Builder, iter int) {
	switch op {
	case prioritizer.OpFillEmptyShifts:
		b.TryFillEmptyShifts(builder.PolicyAt(iter), int64(iter))
	case prioritizer.OpBalanceWorkloads:
		b.BalanceWorkloads()
	case prioritizer.OpBalanceWeekends:
		b.BalanceWeekdayDistribution()
	case prioritizer.OpSynchronizeTracking:
		b.State.SynchronizeTracking()
	}
}
