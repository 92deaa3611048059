// Package seed implements the EDD+SPT heuristic seeder (spec.md §4.7):
// a rule-of-thumb initial candidate used to warm-start a fraction of a
// search population.
package seed

import (
	"math/rand"
	"sort"

	"flexflow/internal/instance"
)

// StageOffset preserves intra-order stage order inside a single order's
// OS genes once they share the same order-rank base value.
const StageOffset = 0.001

// MSRangeLow and MSRangeHigh bound the uniform draw used for MS genes,
// deliberately narrow (leaving the actual machine-selection decision to
// search) per spec.md §4.7.
const (
	MSRangeLow  = 0.3
	MSRangeHigh = 0.7
)

// totalProcessingTime sums, over every stage, the minimum eligible
// per-unit processing time times quantity — the same precomputation
// ffs_simulator.py's _precompute_processing_times performs, used here
// purely to break EDD ties by SPT.
func totalProcessingTime(inst *instance.Instance, o int) float64 {
	total := 0.0
	qty := float64(inst.Orders[o].Quantity)
	for s := 0; s < inst.NumStages; s++ {
		min := instance.Inf
		for _, m := range inst.Eligible[s] {
			if t := inst.ProcTimeAt(o, s, m); t < min {
				min = t
			}
		}
		if min < instance.Inf {
			total += min * qty
		}
	}
	return total
}

// rankOrders returns order indices sorted ascending by due-date/weight
// (smaller = more urgent), ties broken by ascending total processing
// time (SPT).
func rankOrders(inst *instance.Instance) []int {
	idx := make([]int, inst.NumOrders)
	score := make([]float64, inst.NumOrders)
	spt := make([]float64, inst.NumOrders)
	for o := range idx {
		idx[o] = o
		score[o] = inst.Orders[o].DueDate / inst.Orders[o].Weight
		spt[o] = totalProcessingTime(inst, o)
	}
	sort.Slice(idx, func(i, j int) bool {
		a, b := idx[i], idx[j]
		if score[a] != score[b] {
			return score[a] < score[b]
		}
		return spt[a] < spt[b]
	})
	return idx
}

// Candidate builds one EDD+SPT seeded candidate vector of length 2*O*S.
// OS genes encode the EDD+SPT rank; MS genes are drawn uniformly from
// [0.3, 0.7], leaving machine selection to the search operators.
func Candidate(inst *instance.Instance, rng *rand.Rand) []float64 {
	order := inst.NumOrders
	stages := inst.NumStages
	x := make([]float64, 2*order*stages)

	rank := rankOrders(inst)
	rankOf := make([]int, order)
	for pos, o := range rank {
		rankOf[o] = pos
	}

	for o := 0; o < order; o++ {
		base := float64(rankOf[o]) / float64(order)
		for s := 0; s < stages; s++ {
			opIdx := o*stages + s
			x[opIdx] = base + StageOffset*float64(s)
			x[order*stages+opIdx] = MSRangeLow + rng.Float64()*(MSRangeHigh-MSRangeLow)
		}
	}
	return x
}
