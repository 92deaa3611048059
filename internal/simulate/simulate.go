// Package simulate implements the deterministic discrete-event simulator:
// given a precedence-respecting operation sequence with machine bindings,
// it materializes start/finish times and per-order completion times.
package simulate

import (
	"flexflow/internal/codec"
	"flexflow/internal/errs"
	"flexflow/internal/instance"
)

// Entry is one scheduled (order, stage) on its assigned machine.
type Entry struct {
	Order    int
	Stage    int
	Machine  int
	Start    float64
	Finish   float64
	Duration float64
}

// Schedule is the materialized result of one simulation call.
type Schedule struct {
	Entries    []Entry
	Completion []float64 // Completion[o] = finish time of order o's last stage
}

// Simulator holds pooled state registers (MachineAvail, JobStageAvail) so
// repeated Simulate calls do not allocate fresh slices every time. The
// pool resets its own registers at the start of every call — callers
// never need to reset anything, and Simulate remains a pure function of
// (Simulator's instance, sequence) despite the reused buffers, matching
// spec.md §5 and §9 ("no shared mutable state across evaluations").
type Simulator struct {
	inst          *instance.Instance
	machineAvail  []float64
	jobStageAvail [][]float64
}

// New builds a Simulator bound to inst. inst is read-only and may be
// shared across Simulators/goroutines.
func New(inst *instance.Instance) *Simulator {
	jobStageAvail := make([][]float64, inst.NumOrders)
	for o := range jobStageAvail {
		jobStageAvail[o] = make([]float64, inst.NumStages)
	}
	return &Simulator{
		inst:          inst,
		machineAvail:  make([]float64, inst.NumMachines),
		jobStageAvail: jobStageAvail,
	}
}

// Simulate materializes a Schedule from a precedence-respecting operation
// sequence. Given identical inputs, outputs are bit-identical: no
// randomness, no global state, no time source.
func (sim *Simulator) Simulate(seq []codec.Op) (*Schedule, error) {
	want := sim.inst.NumOrders * sim.inst.NumStages
	if len(seq) != want {
		return nil, errs.Newf(errs.EvaluationFailure, "sequence length must be %d, got %d", want, len(seq))
	}

	for m := range sim.machineAvail {
		sim.machineAvail[m] = 0
	}
	for o := range sim.jobStageAvail {
		for s := range sim.jobStageAvail[o] {
			sim.jobStageAvail[o][s] = 0
		}
	}

	entries := make([]Entry, 0, len(seq))
	completion := make([]float64, sim.inst.NumOrders)

	for _, op := range seq {
		earliestStart := sim.machineAvail[op.Machine]
		if ready := sim.jobStageAvail[op.Order][op.Stage]; ready > earliestStart {
			earliestStart = ready
		}

		start := earliestStart
		finish := start + op.TotalTime

		sim.machineAvail[op.Machine] = finish
		if op.Stage+1 < sim.inst.NumStages {
			sim.jobStageAvail[op.Order][op.Stage+1] = finish
		}

		entries = append(entries, Entry{
			Order:    op.Order,
			Stage:    op.Stage,
			Machine:  op.Machine,
			Start:    start,
			Finish:   finish,
			Duration: op.TotalTime,
		})

		if op.Stage == sim.inst.NumStages-1 {
			completion[op.Order] = finish
		}
	}

	return &Schedule{Entries: entries, Completion: completion}, nil
}
