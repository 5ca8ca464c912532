package builder

import (
	"math/rand"
	"sort"

	"github.com/saldo27/shiftsched/internal/model"
	"github.com/saldo27/shiftsched/internal/state"
)

// OrderPolicy is the closed set of worker-ordering strategies named by
// spec §4.2.1 — expressed as an enum rather than dynamic dispatch, per
// spec §9's design note.
type OrderPolicy int

const (
	BalancedSequential OrderPolicy = iota
	SequentialByID
	ReverseSequential
	Random
	WorkloadPriority
	Alternating
)

var allPolicies = []OrderPolicy{
	BalancedSequential, SequentialByID, ReverseSequential, Random, WorkloadPriority, Alternating,
}

func (p OrderPolicy) String() string {
	switch p {
	case BalancedSequential:
		return "balanced_sequential"
	case SequentialByID:
		return "sequential_by_id"
	case ReverseSequential:
		return "reverse_sequential"
	case Random:
		return "random"
	case WorkloadPriority:
		return "workload_priority"
	case Alternating:
		return "alternating"
	default:
		return "unknown"
	}
}

// PolicyAt returns the i'th policy in round-robin declaration order, the
// scheme InitialDistributor uses to diversify attempts (spec §4.3).
func PolicyAt(i int) OrderPolicy {
	return allPolicies[i%len(allPolicies)]
}

// OrderWorkers returns workers in the order policy prescribes, given the
// current state for policies that depend on live counts. seed makes Random
// deterministic (spec §4.2.1/§5: "the seed parameter makes random
// deterministic per attempt").
func OrderWorkers(policy OrderPolicy, workers []*model.Worker, st *state.ScheduleState, seed int64) []*model.Worker {
	out := make([]*model.Worker, len(workers))
	copy(out, workers)

	switch policy {
	case BalancedSequential:
		sort.SliceStable(out, func(i, j int) bool {
			return st.ShiftCount(out[i].ID) < st.ShiftCount(out[j].ID)
		})
	case SequentialByID:
		sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	case ReverseSequential:
		sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	case Random:
		r := rand.New(rand.NewSource(seed))
		r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	case WorkloadPriority:
		sort.SliceStable(out, func(i, j int) bool { return out[i].TargetShifts > out[j].TargetShifts })
	case Alternating:
		sort.SliceStable(out, func(i, j int) bool { return out[i].TargetShifts < out[j].TargetShifts })
		out = interleaveLowHigh(out)
	}
	return out
}

// interleaveLowHigh reorders an ascending-by-target slice into
// low,high,low,high,... (spec §4.2.1's "alternating (low/high interleaved)").
func interleaveLowHigh(ascending []*model.Worker) []*model.Worker {
	n := len(ascending)
	out := make([]*model.Worker, 0, n)
	lo, hi := 0, n-1
	takeLow := true
	for lo <= hi {
		if takeLow {
			out = append(out, ascending[lo])
			lo++
		} else {
			out = append(out, ascending[hi])
			hi--
		}
		takeLow = !takeLow
	}
	return out
}
