// Package nsga2 implements the multi-objective Pareto search (spec.md
// §4.6): fast non-dominated sorting, crowding-distance assignment,
// simulated binary crossover and polynomial mutation on bounded real
// vectors, and (mu+lambda) survivor selection. Structurally grounded on
// the pack's NSGA-II reference implementation (fastNonDominatedSort,
// calculateCrowdingDistance, createOffspring/selectNextGeneration),
// adapted from map[string]float64 parameter solutions to this module's
// flat candidate vectors and three-coordinate objective triple.
package nsga2

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
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

// seedFraction and seedJitterSigma mirror internal/ga's heuristic-seeded
// share of the initial population.
const (
	seedFraction    = 0.5
	seedJitterSigma = 0.05
)

// Solver runs the multi-objective search over one Instance.
type Solver struct {
	Cfg config.MOConfig
	Rng *rand.Rand
	// Observer receives one Event per completed generation. Nil means no
	// observation (equivalent to observer.Noop).
	Observer observer.Observer
}

// New builds a Solver with a validated Config and a non-nil RNG.
func New(cfg config.MOConfig, rng *rand.Rand) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("nsga2: rng must not be nil")
	}
	return &Solver{Cfg: cfg, Rng: rng}, nil
}

// sentinelObj is the objective triple assigned to a candidate whose
// decode/sequence/simulate failed with a recoverable error, per spec.md
// §4.8: (1e10, 0, 1e10) — maximally bad tardiness+penalty and makespan,
// zero utilization (the worst value of the minimized -Ubar coordinate).
var sentinelObj = [3]float64{objective.SentinelFitness, 0, objective.SentinelFitness}

func evalObjectives(pl *pipeline.Pipeline, x []float64) ([3]float64, error) {
	obj, _, err := pl.EvaluateMulti(x)
	if err == nil {
		return obj, nil
	}
	if errs.Is(err, errs.IneligibleAssignment) || errs.Is(err, errs.EvaluationFailure) {
		return sentinelObj, nil
	}
	return [3]float64{}, err
}

func (s *Solver) newIndividual(vecLen int) *individual {
	return &individual{X: make([]float64, vecLen)}
}

// initialPopulation mirrors internal/ga's seeding split: half EDD+SPT
// heuristic with Gaussian jitter, half uniform random.
func (s *Solver) initialPopulation(inst *instance.Instance, mu, vecLen int) []*individual {
	numSeeded := int(float64(mu)*seedFraction + 0.5)
	pop := make([]*individual, mu)
	for i := range pop {
		ind := s.newIndividual(vecLen)
		if i < numSeeded {
			base := seed.Candidate(inst, s.Rng)
			for g := range ind.X {
				v := base[g] + s.Rng.NormFloat64()*seedJitterSigma
				ind.X[g] = numeric.Clamp(v, 0, 1-codec.Epsilon)
			}
		} else {
			for g := range ind.X {
				ind.X[g] = s.Rng.Float64() * (1 - codec.Epsilon)
			}
		}
		pop[i] = ind
	}
	return pop
}

// Solve runs the full (mu+lambda) generation loop and returns the final
// Pareto front plus its four representatives.
func (s *Solver) Solve(ctx context.Context, inst *instance.Instance) (opt.MultiResult, error) {
	start := time.Now()

	if err := s.Cfg.Validate(); err != nil {
		return opt.MultiResult{}, err
	}

	pl := pipeline.New(inst, s.Cfg.Weights)
	obs := s.observerOrNoop()

	mu := s.Cfg.PopulationSize
	vecLen := inst.VectorLength()
	pm := s.Cfg.MutationRateFor(vecLen)

	pop := s.initialPopulation(inst, mu, vecLen)
	evaluations := 0
	for _, ind := range pop {
		obj, err := evalObjectives(pl, ind.X)
		if err != nil {
			return opt.MultiResult{}, err
		}
		ind.Obj = obj
		evaluations++
	}

	gen := 0
	for ; gen < s.Cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			res := s.buildResult(pop, evaluations, gen, time.Since(start), map[string]any{"stopped": "context"})
			return res, errs.New(errs.Cancelled, err)
		}

		fronts := fastNonDominatedSort(pop)
		for _, f := range fronts {
			crowdingDistance(f)
		}

		offspring := make([]*individual, 0, mu)
		for len(offspring) < mu {
			p1 := tournamentSelect(pop, s.Rng)
			p2 := tournamentSelect(pop, s.Rng)

			c1, c2 := s.newIndividual(vecLen), s.newIndividual(vecLen)
			if s.Rng.Float64() < s.Cfg.CrossoverRate {
				sbxCrossover(p1.X, p2.X, c1.X, c2.X, s.Cfg.EtaCrossover, s.Rng)
			} else {
				copy(c1.X, p1.X)
				copy(c2.X, p2.X)
			}
			polynomialMutate(c1.X, pm, s.Cfg.EtaMutation, s.Rng)
			polynomialMutate(c2.X, pm, s.Cfg.EtaMutation, s.Rng)

			obj1, err := evalObjectives(pl, c1.X)
			if err != nil {
				return opt.MultiResult{}, err
			}
			c1.Obj = obj1
			evaluations++
			offspring = append(offspring, c1)

			if len(offspring) < mu {
				obj2, err := evalObjectives(pl, c2.X)
				if err != nil {
					return opt.MultiResult{}, err
				}
				c2.Obj = obj2
				evaluations++
				offspring = append(offspring, c2)
			}
		}

		combined := make([]*individual, 0, mu+len(offspring))
		combined = append(combined, pop...)
		combined = append(combined, offspring...)

		var frontZeroSize int
		pop, frontZeroSize = selectNextGeneration(combined, mu)

		obs.Observe(observer.Event{Generation: gen + 1, ParetoFrontSize: frontZeroSize})
	}

	res := s.buildResult(pop, evaluations, gen, time.Since(start), map[string]any{
		"population":  mu,
		"generations": s.Cfg.Generations,
	})
	return res, nil
}

// selectNextGeneration implements the (mu+lambda) survival rule: sort
// combined into fronts, admit whole fronts while they fit, then truncate
// the first front that doesn't by descending crowding distance. Returns
// the survivors and the size of front 0, for progress reporting.
func selectNextGeneration(combined []*individual, mu int) ([]*individual, int) {
	fronts := fastNonDominatedSort(combined)
	for _, f := range fronts {
		crowdingDistance(f)
	}

	next := make([]*individual, 0, mu)
	for _, front := range fronts {
		if len(next)+len(front) <= mu {
			next = append(next, front...)
			continue
		}
		sort.Slice(front, func(i, j int) bool { return front[i].Crowd > front[j].Crowd })
		next = append(next, front[:mu-len(next)]...)
		break
	}
	return next, len(fronts[0])
}

func (s *Solver) observerOrNoop() observer.Observer {
	if s.Observer == nil {
		return observer.Noop
	}
	return s.Observer
}

// buildResult extracts the first Pareto front from pop and derives the
// four named representatives via min-max normalization.
func (s *Solver) buildResult(pop []*individual, evaluations, generations int, dur time.Duration, meta map[string]any) opt.MultiResult {
	fronts := fastNonDominatedSort(pop)
	front := fronts[0]

	members := make([]opt.ParetoMember, len(front))
	for i, ind := range front {
		members[i] = opt.ParetoMember{Candidate: append([]float64(nil), ind.X...), Objectives: ind.Obj}
	}

	return opt.MultiResult{
		Front:           members,
		Representatives: representatives(members),
		Evaluations:     evaluations,
		Generations:     generations,
		Duration:        dur,
		Meta:            meta,
	}
}

// representatives picks the four named solutions from the front: three
// by argmin of a single coordinate, and the balanced pick by argmin of
// the equally-weighted sum of per-objective min-max normalized
// coordinates, per spec.md §4.6 and run_nsga2.py's balanced-pick
// algorithm.
func representatives(front []opt.ParetoMember) opt.Representatives {
	argmin := func(coord int) opt.ParetoMember {
		best := front[0]
		for _, m := range front[1:] {
			if m.Objectives[coord] < best.Objectives[coord] {
				best = m
			}
		}
		return best
	}

	var mins, maxs [3]float64
	mins = front[0].Objectives
	maxs = front[0].Objectives
	for _, m := range front[1:] {
		for c := 0; c < 3; c++ {
			if m.Objectives[c] < mins[c] {
				mins[c] = m.Objectives[c]
			}
			if m.Objectives[c] > maxs[c] {
				maxs[c] = m.Objectives[c]
			}
		}
	}

	balanced := front[0]
	bestScore := normalizedSum(front[0].Objectives, mins, maxs)
	for _, m := range front[1:] {
		if score := normalizedSum(m.Objectives, mins, maxs); score < bestScore {
			bestScore = score
			balanced = m
		}
	}

	return opt.Representatives{
		MinTardiness:   argmin(0),
		MaxUtilization: argmin(1),
		MinMakespan:    argmin(2),
		Balanced:       balanced,
	}
}

func normalizedSum(obj, mins, maxs [3]float64) float64 {
	sum := 0.0
	for c := 0; c < 3; c++ {
		span := maxs[c] - mins[c]
		if span == 0 {
			continue
		}
		sum += (obj[c] - mins[c]) / span
	}
	return sum
}
