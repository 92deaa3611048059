// Package ga implements the single-objective adaptive evolutionary search:
// tournament selection, uniform crossover, random-reset mutation, a
// generation built entirely from children, then strict size-1 elitism
// overwriting slot 0 with a locally-improved incumbent, and adaptive
// p_c/p_m. Structurally it follows the teacher's double-buffered
// population generation loop, generalized from integer job permutations
// scored by makespan to bounded real vectors scored by the pipeline
// oracle.
package ga

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"flexflow/internal/codec"
	"flexflow/internal/config"
	"flexflow/internal/errs"
	"flexflow/internal/instance"
	"flexflow/internal/numeric"
	"flexflow/internal/objective"
	"flexflow/internal/observer"
	"flexflow/internal/opt"
	"flexflow/internal/pipeline"
	"flexflow/internal/seed"
)

// adaptWindow is how many generations back the adaptation step looks for
// improvement before nudging p_c/p_m, per spec.md §4.5 step 5.
const adaptWindow = 10

// seedFraction is the share of the initial population built from the
// EDD+SPT heuristic (seed.Candidate) plus Gaussian jitter; the remainder
// is uniform random, per spec.md §4.7.
const seedFraction = 0.5

// seedJitterSigma is the standard deviation of the Gaussian noise added to
// a heuristic-seeded individual's genes, keeping seeded individuals
// distinct from one another while staying close to the EDD+SPT ranking.
const seedJitterSigma = 0.05

// Solver runs the single-objective search over one Instance.
type Solver struct {
	Cfg config.RunConfig
	Rng *rand.Rand
	// Observer receives one Event per completed generation. Nil means no
	// observation (equivalent to observer.Noop).
	Observer observer.Observer
}

// New builds a Solver with a validated Config and a non-nil RNG.
func New(cfg config.RunConfig, rng *rand.Rand) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("ga: rng must not be nil")
	}
	return &Solver{Cfg: cfg, Rng: rng}, nil
}

// evalFitness evaluates x, mapping the recoverable error kinds the
// pipeline can return (a candidate that decodes to an ineligible
// assignment, or fails evaluation downstream) to the sentinel fitness so
// one bad individual never aborts a generation. Any other error (notably
// InvalidInstance, which cannot occur here since the instance was
// validated once at construction) propagates.
func evalFitness(pl *pipeline.Pipeline, x []float64) (float64, error) {
	f, _, err := pl.Evaluate(x)
	if err == nil {
		return f, nil
	}
	if errs.Is(err, errs.IneligibleAssignment) || errs.Is(err, errs.EvaluationFailure) {
		return objective.SentinelFitness, nil
	}
	return 0, err
}

// localSearch performs a single first-improvement pass over up to radius
// adjacent gene pairs (i, i+1), starting from a random offset so repeated
// calls don't always scan the same prefix first. It mutates x in place
// only when it finds and keeps an improving swap; otherwise x is
// restored to its original content. Grounded on the teacher's sa/ts
// neighbor-generation idiom (swap two positions, score, accept-or-revert)
// adapted from a full annealing/tabu loop to a single bounded pass run
// once per generation against the incumbent.
func localSearch(x []float64, curFitness float64, pl *pipeline.Pipeline, radius int, rng *rand.Rand) (float64, int) {
	n := len(x)
	if radius < 1 || n < 2 {
		return curFitness, 0
	}
	pairs := n - 1
	if radius > pairs {
		radius = pairs
	}
	evals := 0
	start := rng.Intn(pairs)
	for step := 0; step < radius; step++ {
		i := (start + step) % pairs
		j := i + 1
		x[i], x[j] = x[j], x[i]
		f, err := evalFitness(pl, x)
		evals++
		if err == nil && f < curFitness {
			return f, evals
		}
		x[i], x[j] = x[j], x[i]
	}
	return curFitness, evals
}

// initialPopulation builds PopulationSize candidates: a seedFraction
// share from the EDD+SPT heuristic with Gaussian jitter, the rest uniform
// random, per spec.md §4.7.
func (s *Solver) initialPopulation(inst *instance.Instance, pop [][]float64) {
	n := len(pop)
	numSeeded := int(float64(n)*seedFraction + 0.5)
	for i := 0; i < n; i++ {
		x := pop[i]
		if i < numSeeded {
			base := seed.Candidate(inst, s.Rng)
			for g := range x {
				v := base[g] + s.Rng.NormFloat64()*seedJitterSigma
				x[g] = numeric.Clamp(v, 0, 1-codec.Epsilon)
			}
		} else {
			for g := range x {
				x[g] = s.Rng.Float64() * (1 - codec.Epsilon)
			}
		}
	}
}

// Solve runs the full generation loop and returns the best-of-run
// candidate.
func (s *Solver) Solve(ctx context.Context, inst *instance.Instance) (opt.SingleResult, error) {
	start := time.Now()

	if err := s.Cfg.Validate(); err != nil {
		return opt.SingleResult{}, err
	}

	pl := pipeline.New(inst, s.Cfg.Weights)
	obs := s.observerOrNoop()

	popSize := s.Cfg.PopulationSize
	vecLen := inst.VectorLength()

	makePop := func() [][]float64 {
		backing := make([]float64, popSize*vecLen)
		pop := make([][]float64, popSize)
		for i := range pop {
			pop[i] = backing[i*vecLen : (i+1)*vecLen]
		}
		return pop
	}

	popA, popB := makePop(), makePop()
	fitA, fitB := make([]float64, popSize), make([]float64, popSize)

	s.initialPopulation(inst, popA)
	evaluations := 0
	for i := range popA {
		f, err := evalFitness(pl, popA[i])
		if err != nil {
			return opt.SingleResult{}, err
		}
		fitA[i] = f
		evaluations++
	}

	bestX := make([]float64, vecLen)
	bestFitness := fitA[0]
	copy(bestX, popA[0])
	for i := 1; i < popSize; i++ {
		if fitA[i] < bestFitness {
			bestFitness = fitA[i]
			copy(bestX, popA[i])
		}
	}

	radius := s.Cfg.LocalSearchRadius
	if radius == 0 {
		radius = 2*inst.NumOrders*inst.NumStages - 1
		if radius > 200 {
			radius = 200
		}
	}

	mark := make([]int, popSize)
	stamp := 0
	tournSize := s.Cfg.TournamentSize(popSize)

	pc := s.Cfg.CrossoverRate
	pm := s.Cfg.MutationRate
	history := make([]float64, 0, s.Cfg.Generations+1)
	history = append(history, bestFitness)

	gen := 0
	for ; gen < s.Cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			res := s.buildResult(pl, bestX, bestFitness, evaluations, gen, time.Since(start), map[string]any{"stopped": "context"})
			return res, errs.New(errs.Cancelled, err)
		}

		incumbentX := append([]float64(nil), bestX...)
		incumbentFitness := bestFitness

		write := 0
		for write < popSize {
			p1 := tournamentSelect(fitA, tournSize, s.Rng, mark, &stamp)
			p2 := tournamentSelect(fitA, tournSize, s.Rng, mark, &stamp)
			for popSize > 1 && p2 == p1 {
				p2 = tournamentSelect(fitA, tournSize, s.Rng, mark, &stamp)
			}

			child1 := popB[write]
			hasSecond := write+1 < popSize
			var child2 []float64
			if hasSecond {
				child2 = popB[write+1]
			} else {
				child2 = make([]float64, vecLen)
			}

			if s.Rng.Float64() < pc {
				uniformCrossover(popA[p1], popA[p2], child1, child2, s.Rng)
			} else {
				copy(child1, popA[p1])
				copy(child2, popA[p2])
			}

			randomResetMutate(child1, pm, codec.Epsilon, s.Rng)
			if hasSecond {
				randomResetMutate(child2, pm, codec.Epsilon, s.Rng)
			}

			f1, err := evalFitness(pl, child1)
			if err != nil {
				return opt.SingleResult{}, err
			}
			fitB[write] = f1
			evaluations++
			if f1 < bestFitness {
				bestFitness = f1
				copy(bestX, child1)
			}
			write++

			if hasSecond {
				f2, err := evalFitness(pl, child2)
				if err != nil {
					return opt.SingleResult{}, err
				}
				fitB[write] = f2
				evaluations++
				if f2 < bestFitness {
					bestFitness = f2
					copy(bestX, child2)
				}
				write++
			}
		}

		popA, popB = popB, popA
		fitA, fitB = fitB, fitA

		// Local search step 4: refine the pre-existing incumbent (the
		// best-of-run individual going into this generation), independent
		// of whatever the children produced.
		improvedX := incumbentX
		improvedFitness, ls := localSearch(improvedX, incumbentFitness, pl, radius, s.Rng)
		evaluations += ls

		// Replacement step 5: the new generation is entirely children;
		// slot 0 is then overwritten with the locally-improved incumbent
		// (strict elitism of size 1).
		if s.Cfg.Elitism >= 1 {
			copy(popA[0], improvedX)
			fitA[0] = improvedFitness
		}
		if improvedFitness < bestFitness {
			bestFitness = improvedFitness
			copy(bestX, improvedX)
		}

		history = append(history, bestFitness)
		pc, pm = adapt(history, pc, pm)

		obs.Observe(observer.Event{Generation: gen + 1, BestFitness: bestFitness, CrossoverRate: pc, MutationRate: pm})
	}

	res := s.buildResult(pl, bestX, bestFitness, evaluations, gen, time.Since(start), map[string]any{
		"population":  popSize,
		"generations": s.Cfg.Generations,
		"elitism":     s.Cfg.Elitism,
	})
	return res, nil
}

// adaptImprovementFloor is the minimum absolute improvement in best
// fitness over adaptWindow generations required to avoid the stagnation
// ratchet.
const adaptImprovementFloor = 0.01

// adapt implements the stagnation ratchet: if the incumbent's absolute
// improvement over the last adaptWindow generations falls below
// adaptImprovementFloor, push mutation up and crossover down (more
// exploration). An improving streak leaves pc/pm unchanged, so it never
// undoes an earlier widening. From pm <= 0.5 and pc >= 0.6 the ratchet
// only moves one way (pm grows, pc shrinks); a pc below 0.6 is raised to
// 0.6 and a pm above 0.5 is lowered to 0.5 at the first stagnation.
func adapt(history []float64, pc, pm float64) (float64, float64) {
	if len(history) <= adaptWindow {
		return pc, pm
	}
	cur := history[len(history)-1]
	prev := history[len(history)-1-adaptWindow]
	if prev-cur < adaptImprovementFloor {
		pm = numeric.Min(1.2*pm, 0.5)
		pc = numeric.Max(0.9*pc, 0.6)
	}
	return pc, pm
}

func (s *Solver) observerOrNoop() observer.Observer {
	if s.Observer == nil {
		return observer.Noop
	}
	return s.Observer
}

func (s *Solver) buildResult(pl *pipeline.Pipeline, bestX []float64, bestFitness float64, evaluations, generations int, dur time.Duration, meta map[string]any) opt.SingleResult {
	_, sched, err := pl.Evaluate(bestX)
	var kpis objective.KPIs
	if err == nil {
		kpis = pl.KPIs(sched)
	}
	return opt.SingleResult{
		Candidate:   append([]float64(nil), bestX...),
		Fitness:     bestFitness,
		Schedule:    sched,
		KPIs:        kpis,
		Evaluations: evaluations,
		Generations: generations,
		Duration:    dur,
		Meta:        meta,
	}
}
