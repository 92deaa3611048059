package nsga2

import (
	"math"
	"sort"
)

// individual is one population member: its chromosome, its materialized
// objective triple, and the two NSGA-II bookkeeping fields non-dominated
// sorting and crowding distance fill in.
type individual struct {
	X     []float64
	Obj   [3]float64
	Rank  int
	Crowd float64
}

// dominates reports whether a dominates b: component-wise <=, strictly <
// in at least one coordinate. All three coordinates are minimized.
func dominates(a, b [3]float64) bool {
	strictlyLess := false
	for i := 0; i < 3; i++ {
		if a[i] > b[i] {
			return false
		}
		if a[i] < b[i] {
			strictlyLess = true
		}
	}
	return strictlyLess
}

// fastNonDominatedSort peels pop into ranked fronts, assigning Rank on
// every individual as a side effect. Grounded on the reference
// implementation's domination-count / dominated-set peeling loop,
// generalized from map-keyed bookkeeping to index slices since individual
// here is a concrete struct rather than a pointer identity key.
func fastNonDominatedSort(pop []*individual) [][]*individual {
	n := len(pop)
	dominationCount := make([]int, n)
	dominatedSets := make([][]int, n)

	var front0 []int
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if dominates(pop[i].Obj, pop[j].Obj) {
				dominatedSets[i] = append(dominatedSets[i], j)
			} else if dominates(pop[j].Obj, pop[i].Obj) {
				dominationCount[i]++
			}
		}
		if dominationCount[i] == 0 {
			pop[i].Rank = 0
			front0 = append(front0, i)
		}
	}

	fronts := make([][]*individual, 0)
	cur := front0
	rank := 0
	for len(cur) > 0 {
		frontInds := make([]*individual, len(cur))
		for k, idx := range cur {
			frontInds[k] = pop[idx]
		}
		fronts = append(fronts, frontInds)

		var next []int
		for _, i := range cur {
			for _, j := range dominatedSets[i] {
				dominationCount[j]--
				if dominationCount[j] == 0 {
					pop[j].Rank = rank + 1
					next = append(next, j)
				}
			}
		}
		rank++
		cur = next
	}
	return fronts
}

// crowdingDistance assigns Crowd on every member of front: per objective,
// sort by that coordinate, give the two endpoints +Inf, and accumulate
// each interior point's normalized gap between its neighbors.
func crowdingDistance(front []*individual) {
	m := len(front)
	if m == 0 {
		return
	}
	for _, ind := range front {
		ind.Crowd = 0
	}
	if m <= 2 {
		for _, ind := range front {
			ind.Crowd = math.Inf(1)
		}
		return
	}

	for o := 0; o < 3; o++ {
		sort.Slice(front, func(i, j int) bool { return front[i].Obj[o] < front[j].Obj[o] })
		front[0].Crowd = math.Inf(1)
		front[m-1].Crowd = math.Inf(1)

		span := front[m-1].Obj[o] - front[0].Obj[o]
		if span == 0 {
			continue
		}
		for i := 1; i < m-1; i++ {
			front[i].Crowd += (front[i+1].Obj[o] - front[i-1].Obj[o]) / span
		}
	}
}
