// Package sequence converts decoded operations into a linear order that
// honors intra-order stage precedence while following priority as tightly
// as possible (spec.md §4.2).
package sequence

import (
	"sort"

	"github.com/oleiade/lane/v2"

	"flexflow/internal/codec"
	"flexflow/internal/errs"
	"flexflow/internal/instance"
)

// WarningKind classifies a non-fatal condition raised by the sequencer.
type WarningKind string

// PrecedenceFallback is raised when the ready-queue empties before every
// operation has been scheduled — spec.md says this cannot occur given
// correct inputs, so this is a defensive path, not a normal outcome.
const PrecedenceFallback WarningKind = "precedence_fallback"

// Warning is a recoverable condition the sequencer reports without
// failing the call.
type Warning struct {
	Kind    WarningKind
	Message string
}

// Sequence returns a permutation of ops satisfying, for every order o and
// stages s1 < s2, position(o, s1) < position(o, s2).
//
// Rather than repeatedly scanning the full priority-sorted list (the
// O((O*S)^2) reference algorithm in spec.md §4.2), operations are ranked
// once by (priority, order, stage) — reproducing the spec's tie-break
// exactly — and a ready-frontier of "each order's next unscheduled stage"
// is maintained in a min-priority queue keyed by that rank. Popping the
// minimum-rank ready operation repeatedly is observably identical to the
// restart-the-scan algorithm, because at every step both pick the single
// lowest-priority operation among all currently ready ones.
func Sequence(ops []codec.Op, inst *instance.Instance) ([]codec.Op, *Warning, error) {
	n := len(ops)
	want := inst.NumOrders * inst.NumStages
	if n != want {
		return nil, nil, errs.Newf(errs.EvaluationFailure, "operation count must be %d, got %d", want, n)
	}

	rank := rankByPriority(ops)

	pq := lane.NewMinPriorityQueue[int, int]()
	for o := 0; o < inst.NumOrders; o++ {
		idx := o*inst.NumStages + 0
		pq.Push(idx, rank[idx])
	}

	sequenced := make([]codec.Op, 0, n)
	emitted := make([]bool, n)

	for len(sequenced) < n {
		idx, _, ok := pq.Pop()
		if !ok {
			break
		}
		op := ops[idx]
		sequenced = append(sequenced, op)
		emitted[idx] = true

		if op.Stage+1 < inst.NumStages {
			nextIdx := op.Order*inst.NumStages + op.Stage + 1
			pq.Push(nextIdx, rank[nextIdx])
		}
	}

	var warn *Warning
	if len(sequenced) < n {
		remaining := make([]int, 0, n-len(sequenced))
		for i, done := range emitted {
			if !done {
				remaining = append(remaining, i)
			}
		}
		sort.Slice(remaining, func(i, j int) bool { return rank[remaining[i]] < rank[remaining[j]] })
		for _, idx := range remaining {
			sequenced = append(sequenced, ops[idx])
		}
		warn = &Warning{
			Kind:    PrecedenceFallback,
			Message: "ready queue exhausted before all operations were scheduled",
		}
	}

	return sequenced, warn, nil
}

// rankByPriority assigns each operation (by op index = order*S + stage)
// its position in ascending (priority, order, stage) order — the spec's
// tie-break rule made explicit as a single stable sort.
func rankByPriority(ops []codec.Op) []int {
	n := len(ops)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool {
		a, b := ops[idx[i]], ops[idx[j]]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.Stage < b.Stage
	})
	rank := make([]int, n)
	for pos, opIdx := range idx {
		rank[opIdx] = pos
	}
	return rank
}
