// Package codec implements the bijection between a flat real-valued
// candidate vector and the (operation-priority, machine-selection) pair
// the rest of the pipeline consumes.
package codec

import (
	"flexflow/internal/errs"
	"flexflow/internal/instance"
)

// Epsilon sets the upper bound every candidate component must respect:
// values live in [0, 1-Epsilon].
const Epsilon = 1e-4

// Op is a decoded (order, stage) operation: its priority key, its
// assigned machine, and its total processing time.
type Op struct {
	Order     int
	Stage     int
	Machine   int
	UnitTime  float64
	Priority  float64
	TotalTime float64
}

// Candidate is a named view over a flat vector: OS holds the O*S
// operation-priority genes, MS holds the O*S machine-selection genes.
// Both are slices into the same backing array as X, so mutating OS/MS
// mutates X and vice versa — this is the "typed view over a flat vector"
// design spec.md §9 calls for: operators may still work on X directly for
// performance.
type Candidate struct {
	X  []float64
	OS []float64
	MS []float64
}

// NewCandidate wraps x (length 2*O*S) into OS/MS views without copying.
func NewCandidate(x []float64, numOrders, numStages int) Candidate {
	half := numOrders * numStages
	return Candidate{X: x, OS: x[:half], MS: x[half:]}
}

// MachineFor applies the codec's bucket rule for operation (o, s):
// k equal-width sub-intervals of [0,1) over E_s, the last bucket
// absorbing a degenerate 1.0 value.
func MachineFor(msValue float64, eligible []int) int {
	k := len(eligible)
	idx := int(msValue * float64(k))
	if idx >= k {
		idx = k - 1
	}
	if idx < 0 {
		idx = 0
	}
	return eligible[idx]
}

// Decode is a total function on vectors of the correct length with
// components in [0, 1): it returns one Op per (order, stage), in
// (order, stage) row-major order (op index = order*S + stage), or an
// IneligibleAssignment error if the selected machine has infinite
// processing time for that (order, stage).
func Decode(x []float64, inst *instance.Instance) ([]Op, error) {
	want := inst.VectorLength()
	if len(x) != want {
		return nil, errs.Newf(errs.EvaluationFailure, "candidate length must be %d, got %d", want, len(x))
	}

	c := NewCandidate(x, inst.NumOrders, inst.NumStages)
	ops := make([]Op, inst.NumOrders*inst.NumStages)

	for o := 0; o < inst.NumOrders; o++ {
		qty := inst.Orders[o].Quantity
		for s := 0; s < inst.NumStages; s++ {
			opIdx := o*inst.NumStages + s
			eligible := inst.Eligible[s]
			machine := MachineFor(c.MS[opIdx], eligible)

			unit := inst.ProcTimeAt(o, s, machine)
			if unit >= instance.Inf {
				return nil, errs.Newf(errs.IneligibleAssignment,
					"order %d stage %d: machine %d has infinite processing time", o, s, machine)
			}

			ops[opIdx] = Op{
				Order:     o,
				Stage:     s,
				Machine:   machine,
				UnitTime:  unit,
				Priority:  c.OS[opIdx],
				TotalTime: unit * float64(qty),
			}
		}
	}
	return ops, nil
}

// MachineAssignment extracts the (order, stage) -> machine map implied by
// a decoded operation list, keyed by op index (order*S + stage). Decoding
// the same x twice yields the same assignment. This package has no encode
// function; the assignment is compared across repeated decodes.
func MachineAssignment(ops []Op) []int {
	out := make([]int, len(ops))
	for i, op := range ops {
		out[i] = op.Machine
	}
	return out
}
