// Package opt defines the two optimizer contracts the search engines
// implement and the result shapes they return, generalizing the
// teacher's single opt.Optimizer/opt.Result pair to the single- and
// multi-objective cases spec.md §6 names.
package opt

import (
	"context"
	"time"

	"flexflow/internal/instance"
	"flexflow/internal/objective"
	"flexflow/internal/simulate"
)

// SingleObjectiveOptimizer is implemented by internal/ga.
type SingleObjectiveOptimizer interface {
	Solve(ctx context.Context, inst *instance.Instance) (SingleResult, error)
}

// MultiObjectiveOptimizer is implemented by internal/nsga2.
type MultiObjectiveOptimizer interface {
	Solve(ctx context.Context, inst *instance.Instance) (MultiResult, error)
}

// SingleResult is the best-of-run candidate plus its full Schedule and
// KPI map, per spec.md §6.
type SingleResult struct {
	Candidate   []float64
	Fitness     float64
	Schedule    *simulate.Schedule
	KPIs        objective.KPIs
	Evaluations int
	Generations int
	Duration    time.Duration
	Meta        map[string]any
}

// ParetoMember is one non-dominated candidate and its objective triple.
type ParetoMember struct {
	Candidate  []float64
	Objectives [3]float64
}

// Representatives holds the four named picks spec.md §4.6 defines from
// the final Pareto front.
type Representatives struct {
	MinTardiness   ParetoMember
	MaxUtilization ParetoMember
	MinMakespan    ParetoMember
	Balanced       ParetoMember
}

// MultiResult is the entire Pareto front plus the four representatives.
type MultiResult struct {
	Front           []ParetoMember
	Representatives Representatives
	Evaluations     int
	Generations     int
	Duration        time.Duration
	Meta            map[string]any
}
