// Package report implements spec §7's mandated termination report: empty
// cells, remaining tolerance violators and their tier, and which phase
// produced the returned schedule. Plain data, consumed by cmd/shiftsched
// for console rendering and serializable as JSON for any other caller.
package report

import (
	"github.com/saldo27/shiftsched/internal/model"
	"github.com/saldo27/shiftsched/internal/state"
	"github.com/saldo27/shiftsched/internal/tolerance"
)

// Violator is one worker still outside the objective tolerance band at
// termination.
type Violator struct {
	WorkerID string  `json:"worker_id"`
	Current  int     `json:"current"`
	Target   int     `json:"target"`
	Delta    int     `json:"delta"`
	Tier     string  `json:"tier"`
}

// Report is the termination summary spec §7 requires.
type Report struct {
	ProducingPhase string     `json:"producing_phase"`
	EmptyCells     int        `json:"empty_cells"`
	TotalCells     int        `json:"total_cells"`
	Violators      []Violator `json:"violators"`
}

// Build derives a Report from the final state, worker roster, and the
// name of the phase whose output was retained (spec §4.8's "best
// schedule ... across the run").
func Build(st *state.ScheduleState, workers []*model.Worker, producingPhase string) Report {
	devs := tolerance.Evaluate(st, workers)
	violators := tolerance.Violators(devs, tolerance.WithinPhase1)

	out := make([]Violator, 0, len(violators))
	for _, d := range violators {
		out = append(out, Violator{
			WorkerID: d.WorkerID,
			Current:  d.Current,
			Target:   d.Target,
			Delta:    d.Delta,
			Tier:     d.Tier.String(),
		})
	}

	return Report{
		ProducingPhase: producingPhase,
		EmptyCells:     st.EmptyCellCount(),
		TotalCells:     st.TotalCellCount(),
		Violators:      out,
	}
}
