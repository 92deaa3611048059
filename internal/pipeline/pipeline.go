// Package pipeline composes the codec, sequencer, simulator, and
// evaluator into the single oracle the search engines call once per
// candidate: decode -> sequence -> simulate -> evaluate. It is the
// concrete realization of spec.md §2's "Simulator and Evaluator are pure
// functions of (Instance, candidate vector); search engines treat them as
// an oracle."
package pipeline

import (
	"flexflow/internal/codec"
	"flexflow/internal/errs"
	"flexflow/internal/instance"
	"flexflow/internal/objective"
	"flexflow/internal/sequence"
	"flexflow/internal/simulate"
)

// Pipeline bundles one Instance's Simulator (which pools its own state
// registers) and Evaluator. Safe for reuse across candidates from a
// single goroutine; for parallel evaluation, construct one Pipeline per
// worker over the same (shared, read-only) Instance.
type Pipeline struct {
	inst *instance.Instance
	sim  *simulate.Simulator
	eval *objective.Evaluator
}

// New builds a Pipeline bound to inst and weights.
func New(inst *instance.Instance, weights objective.Weights) *Pipeline {
	return &Pipeline{
		inst: inst,
		sim:  simulate.New(inst),
		eval: objective.New(inst, weights),
	}
}

// Result is everything one oracle call produces.
type Result struct {
	Schedule *simulate.Schedule
	Warning  *sequence.Warning
}

// run decodes, sequences, and simulates x, returning the materialized
// Result. Errors here are always IneligibleAssignment or
// EvaluationFailure — the kinds the search loops are expected to catch
// and convert to sentinel fitness, per spec.md §4.8.
func (p *Pipeline) run(x []float64) (Result, error) {
	ops, err := codec.Decode(x, p.inst)
	if err != nil {
		return Result{}, err
	}
	seq, warn, err := sequence.Sequence(ops, p.inst)
	if err != nil {
		return Result{}, errs.New(errs.EvaluationFailure, err)
	}
	sched, err := p.sim.Simulate(seq)
	if err != nil {
		return Result{}, errs.New(errs.EvaluationFailure, err)
	}
	return Result{Schedule: sched, Warning: warn}, nil
}

// Evaluate returns the single-objective fitness for candidate x, along
// with the materialized Schedule.
func (p *Pipeline) Evaluate(x []float64) (float64, *simulate.Schedule, error) {
	res, err := p.run(x)
	if err != nil {
		return 0, nil, err
	}
	return p.eval.Fitness(res.Schedule), res.Schedule, nil
}

// EvaluateMulti returns the (T+Pi, -Ubar, makespan_days) objective
// triple for candidate x, along with the materialized Schedule.
func (p *Pipeline) EvaluateMulti(x []float64) ([3]float64, *simulate.Schedule, error) {
	res, err := p.run(x)
	if err != nil {
		return [3]float64{}, nil, err
	}
	return p.eval.MultiObjective(res.Schedule), res.Schedule, nil
}

// KPIs computes the reporting KPI map for an already-materialized
// Schedule (typically the final best-of-run candidate's).
func (p *Pipeline) KPIs(sched *simulate.Schedule) objective.KPIs {
	return p.eval.KPIs(sched)
}

// Instance exposes the bound Instance (read-only) for callers that need
// dimensions (e.g. to build an initial population).
func (p *Pipeline) Instance() *instance.Instance { return p.inst }
