package nsga2

import (
	"math"
	"math/rand"

	"flexflow/internal/codec"
	"flexflow/internal/numeric"
)

// sbxCrossover applies Simulated Binary Crossover gene-wise: each gene
// independently either crosses (coin flip) with distribution index eta,
// or passes through unchanged. Children are clipped to [0, 1-epsilon].
func sbxCrossover(p1, p2, c1, c2 []float64, eta float64, rng *rand.Rand) {
	for i := range p1 {
		if rng.Float64() >= 0.5 {
			c1[i], c2[i] = p1[i], p2[i]
			continue
		}
		a, b := p1[i], p2[i]
		u := rng.Float64()
		var beta float64
		if u <= 0.5 {
			beta = math.Pow(2.0*u, 1.0/(eta+1.0))
		} else {
			beta = math.Pow(1.0/(2.0*(1.0-u)), 1.0/(eta+1.0))
		}
		c1[i] = numeric.Clamp(0.5*((1+beta)*a+(1-beta)*b), 0, 1-codec.Epsilon)
		c2[i] = numeric.Clamp(0.5*((1-beta)*a+(1+beta)*b), 0, 1-codec.Epsilon)
	}
}

// polynomialMutate mutates each gene of x with probability pm, per the
// standard bounded polynomial mutation formulation with distribution
// index eta.
func polynomialMutate(x []float64, pm, eta float64, rng *rand.Rand) {
	const lo, hi = 0.0, 1.0 - codec.Epsilon
	span := hi - lo
	for i := range x {
		if rng.Float64() >= pm {
			continue
		}
		u := rng.Float64()
		var deltaq float64
		if u < 0.5 {
			deltaq = math.Pow(2.0*u, 1.0/(eta+1.0)) - 1.0
		} else {
			deltaq = 1.0 - math.Pow(2.0*(1.0-u), 1.0/(eta+1.0))
		}
		x[i] = numeric.Clamp(x[i]+deltaq*span, lo, hi)
	}
}

// tournamentSelect runs binary tournament on (rank, crowding distance):
// lower rank wins; equal rank is broken by larger crowding distance.
func tournamentSelect(pop []*individual, rng *rand.Rand) *individual {
	a := pop[rng.Intn(len(pop))]
	b := pop[rng.Intn(len(pop))]
	if a.Rank != b.Rank {
		if a.Rank < b.Rank {
			return a
		}
		return b
	}
	if a.Crowd >= b.Crowd {
		return a
	}
	return b
}
