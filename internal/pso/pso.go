// Package pso implements a supplementary single-objective engine,
// offered alongside internal/ga as a second opt.SingleObjectiveOptimizer
// over the same bounded real candidate vector and pipeline oracle.
// Structurally it follows the teacher's particle swarm loop (velocity
// update with inertia/cognitive/social terms, clamped velocity,
// personal-best/global-best tracking); the teacher's random-keys
// permutation decode is dropped entirely, since here the candidate
// domain already is the continuous space a particle moves through —
// position is fed straight to the pipeline oracle.
package pso

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"flexflow/internal/codec"
	"flexflow/internal/errs"
	"flexflow/internal/instance"
	"flexflow/internal/numeric"
	"flexflow/internal/objective"
	"flexflow/internal/observer"
	"flexflow/internal/opt"
	"flexflow/internal/pipeline"
	"flexflow/internal/seed"
)

// seedFraction and seedJitterSigma mirror internal/ga's and
// internal/nsga2's heuristic-seeded share of the initial population.
const (
	seedFraction    = 0.5
	seedJitterSigma = 0.05
)

const lo, hi = 0.0, 1.0 - codec.Epsilon

// Solver runs the swarm search over one Instance.
type Solver struct {
	Cfg Config
	Rng *rand.Rand
	// Observer receives one Event per completed iteration. Nil means no
	// observation (equivalent to observer.Noop).
	Observer observer.Observer
}

// New builds a Solver with a validated Config and a non-nil RNG.
func New(cfg Config, rng *rand.Rand) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("pso: rng must not be nil")
	}
	return &Solver{Cfg: cfg, Rng: rng}, nil
}

// particle carries its position directly as the candidate vector; there
// is no permutation-decode buffer since position IS the search space.
type particle struct {
	pos []float64
	vel []float64

	pBestPos   []float64
	pBestScore float64
}

// evalFitness mirrors internal/ga's sentinel mapping: a recoverable
// decode/sequence/simulate failure never aborts the swarm, it just scores
// the particle as badly as possible.
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

// initialSwarm builds Particles particles: a seedFraction share seeded
// from the EDD+SPT heuristic with Gaussian jitter, the rest uniform
// random. Initial velocity is zero, unlike the teacher's random initial
// velocity, since the seeded half should not immediately drift off its
// heuristic starting point before the first personal/global best is even
// known.
func (s *Solver) initialSwarm(inst *instance.Instance, n, vecLen int) []*particle {
	numSeeded := int(float64(n)*seedFraction + 0.5)
	swarm := make([]*particle, n)
	for i := 0; i < n; i++ {
		pos := make([]float64, vecLen)
		if i < numSeeded {
			base := seed.Candidate(inst, s.Rng)
			for g := range pos {
				v := base[g] + s.Rng.NormFloat64()*seedJitterSigma
				pos[g] = numeric.Clamp(v, lo, hi)
			}
		} else {
			for g := range pos {
				pos[g] = s.Rng.Float64() * hi
			}
		}
		swarm[i] = &particle{
			pos:      pos,
			vel:      make([]float64, vecLen),
			pBestPos: append([]float64(nil), pos...),
		}
	}
	return swarm
}

// Solve runs the full swarm loop and returns the best-of-run candidate.
func (s *Solver) Solve(ctx context.Context, inst *instance.Instance) (opt.SingleResult, error) {
	start := time.Now()

	if err := s.Cfg.Validate(); err != nil {
		return opt.SingleResult{}, err
	}

	pl := pipeline.New(inst, objective.DefaultWeights())
	obs := s.observerOrNoop()

	vecLen := inst.VectorLength()
	iterations := s.Cfg.Iterations
	if iterations <= 0 {
		iterations = s.Cfg.IterationsPerChromosome * vecLen
	}

	swarm := s.initialSwarm(inst, s.Cfg.Particles, vecLen)

	evaluations := 0
	gBestPos := make([]float64, vecLen)
	gBestScore := objective.SentinelFitness + 1

	for _, p := range swarm {
		f, err := evalFitness(pl, p.pos)
		if err != nil {
			return opt.SingleResult{}, err
		}
		p.pBestScore = f
		evaluations++
		if f < gBestScore {
			gBestScore = f
			copy(gBestPos, p.pos)
		}
	}

	iter := 0
	for ; iter < iterations; iter++ {
		if err := ctx.Err(); err != nil {
			res := s.buildResult(pl, gBestPos, gBestScore, evaluations, iter, time.Since(start), map[string]any{"stopped": "context"})
			return res, errs.New(errs.Cancelled, err)
		}

		for _, p := range swarm {
			for g := range p.pos {
				r1, r2 := s.Rng.Float64(), s.Rng.Float64()
				cognitive := s.Cfg.C1 * r1 * (p.pBestPos[g] - p.pos[g])
				social := s.Cfg.C2 * r2 * (gBestPos[g] - p.pos[g])
				v := s.Cfg.W*p.vel[g] + cognitive + social
				if s.Cfg.VMax > 0 {
					v = numeric.Clamp(v, -s.Cfg.VMax, s.Cfg.VMax)
				}
				p.vel[g] = v
				p.pos[g] = numeric.Clamp(p.pos[g]+v, lo, hi)
			}

			f, err := evalFitness(pl, p.pos)
			if err != nil {
				return opt.SingleResult{}, err
			}
			evaluations++

			if f < p.pBestScore {
				p.pBestScore = f
				copy(p.pBestPos, p.pos)
			}
			if f < gBestScore {
				gBestScore = f
				copy(gBestPos, p.pos)
			}
		}

		obs.Observe(observer.Event{Generation: iter + 1, BestFitness: gBestScore})
	}

	res := s.buildResult(pl, gBestPos, gBestScore, evaluations, iter, time.Since(start), map[string]any{
		"particles":  s.Cfg.Particles,
		"iterations": iterations,
	})
	return res, nil
}

func (s *Solver) observerOrNoop() observer.Observer {
	if s.Observer == nil {
		return observer.Noop
	}
	return s.Observer
}

func (s *Solver) buildResult(pl *pipeline.Pipeline, bestX []float64, bestFitness float64, evaluations, iterations int, dur time.Duration, meta map[string]any) opt.SingleResult {
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
		Generations: iterations,
		Duration:    dur,
		Meta:        meta,
	}
}
