// Package objective maps a simulated schedule to scalar fitness
// (single-objective) or an objective triple (multi-objective), including
// the penalty terms spec.md §4.4 defines.
package objective

import (
	"gonum.org/v1/gonum/stat"

	"flexflow/internal/instance"
	"flexflow/internal/simulate"
)

// SecondsPerDay is the fixed days conversion used throughout the core.
const SecondsPerDay = 86400.0

// SentinelFitness is assigned by the search engines (not by this package)
// when a candidate fails to decode or evaluate, so one bad individual
// never kills a generation. Exported here because both engines need the
// same constant; see ffs_simulator.py's `except Exception: return 1e10`.
const SentinelFitness = 1e10

// Weights bundles the tunable penalty coefficients and the two open-
// question knobs (overtime slack, urgent-tardiness threshold) spec.md §9
// leaves to the implementer.
type Weights struct {
	LambdaCap            float64
	LambdaBal            float64
	LambdaUrg            float64
	OvertimeSlackSeconds float64
	UrgentThreshold      float64 // orders with Weight >= this are "urgent"
}

// DefaultWeights returns the coefficients spec.md §4.4 names as defaults.
func DefaultWeights() Weights {
	return Weights{
		LambdaCap:            1e6,
		LambdaBal:            15,
		LambdaUrg:            4,
		OvertimeSlackSeconds: 7200,
		UrgentThreshold:      1.2,
	}
}

// KPIs is the reporting map named in spec.md §6.
type KPIs struct {
	TotalWeightedTardiness float64
	OnTimeDeliveryRate     float64
	AvgTardiness           float64
	MakespanDays           float64
	Utilization            map[string]float64 // machine name -> percent, raw capacity basis
	AvgUtilization         float64
	BottleneckLoad         float64
	LoadBalanceStd         float64
}

// Evaluator computes fitness, the multi-objective triple, and KPIs from a
// Schedule. It holds only a reference to the (read-only) Instance and the
// configured Weights; it caches no per-evaluation state, so one Evaluator
// may be reused (or shared read-only) across any number of Schedules.
type Evaluator struct {
	inst    *instance.Instance
	weights Weights
}

// New builds an Evaluator for inst with the given Weights.
func New(inst *instance.Instance, weights Weights) *Evaluator {
	return &Evaluator{inst: inst, weights: weights}
}

// workloads computes per-machine and per-(stage,machine) total duration
// from a Schedule's entries — the shared basis for every term below.
func (e *Evaluator) workloads(sched *simulate.Schedule) (byMachine []float64, byStageMachine [][]float64) {
	byMachine = make([]float64, e.inst.NumMachines)
	byStageMachine = make([][]float64, e.inst.NumStages)
	for s := range byStageMachine {
		byStageMachine[s] = make([]float64, e.inst.NumMachines)
	}
	for _, entry := range sched.Entries {
		byMachine[entry.Machine] += entry.Duration
		byStageMachine[entry.Stage][entry.Machine] += entry.Duration
	}
	return byMachine, byStageMachine
}

func (e *Evaluator) tardiness(sched *simulate.Schedule) (total float64, perOrder []float64) {
	perOrder = make([]float64, e.inst.NumOrders)
	for o, ord := range e.inst.Orders {
		days := sched.Completion[o] / SecondsPerDay
		t := days - ord.DueDate
		if t < 0 {
			t = 0
		}
		perOrder[o] = t
		total += ord.Weight * t
	}
	return total, perOrder
}

func (e *Evaluator) capacityPenalty(byMachine []float64) float64 {
	penalty := 0.0
	slack := e.weights.OvertimeSlackSeconds
	for m, load := range byMachine {
		limit := e.inst.Capacity[m] + slack
		if over := load - limit; over > 0 {
			penalty += e.weights.LambdaCap * over
		}
	}
	return penalty
}

// balancePenalty sums, over every stage with at least two eligible
// machines, the standard deviation of that stage's per-machine
// utilization (workload over capacity+slack). Eligibility cardinality is
// checked via the Instance's golang-set view rather than a bare len() to
// keep this in step with the eligibility validation path.
func (e *Evaluator) balancePenalty(byStageMachine [][]float64) float64 {
	slack := e.weights.OvertimeSlackSeconds
	total := 0.0
	for s := 0; s < e.inst.NumStages; s++ {
		if e.inst.EligibleSet(s).Cardinality() < 2 {
			continue
		}
		utils := make([]float64, 0, len(e.inst.Eligible[s]))
		for _, m := range e.inst.Eligible[s] {
			limit := e.inst.Capacity[m] + slack
			if limit <= 0 {
				utils = append(utils, 0)
				continue
			}
			utils = append(utils, byStageMachine[s][m]/limit)
		}
		total += stat.StdDev(utils, nil)
	}
	return e.weights.LambdaBal * total
}

func (e *Evaluator) urgencyPenalty(perOrderTardiness []float64) float64 {
	total := 0.0
	for o, ord := range e.inst.Orders {
		if ord.Weight >= e.weights.UrgentThreshold && perOrderTardiness[o] > 0 {
			total += ord.Weight * perOrderTardiness[o]
		}
	}
	return e.weights.LambdaUrg * total
}

// Fitness computes the single-objective scalar F(x) = T(x) + Pi(x).
func (e *Evaluator) Fitness(sched *simulate.Schedule) float64 {
	byMachine, byStageMachine := e.workloads(sched)
	tardiness, perOrder := e.tardiness(sched)
	penalty := e.capacityPenalty(byMachine) + e.balancePenalty(byStageMachine) + e.urgencyPenalty(perOrder)
	return tardiness + penalty
}

// MultiObjective computes (T+Pi, -Ubar, makespan_days); all three
// coordinates are minimized (utilization is negated).
func (e *Evaluator) MultiObjective(sched *simulate.Schedule) [3]float64 {
	byMachine, byStageMachine := e.workloads(sched)
	tardiness, perOrder := e.tardiness(sched)
	penalty := e.capacityPenalty(byMachine) + e.balancePenalty(byStageMachine) + e.urgencyPenalty(perOrder)

	utils := make([]float64, e.inst.NumMachines)
	for m := range utils {
		if e.inst.Capacity[m] > 0 {
			utils[m] = byMachine[m] / e.inst.Capacity[m]
		}
	}
	meanUtil := stat.Mean(utils, nil)

	makespan := 0.0
	for _, c := range sched.Completion {
		if c > makespan {
			makespan = c
		}
	}
	makespan /= SecondsPerDay

	return [3]float64{tardiness + penalty, -meanUtil, makespan}
}

// KPIs computes the reporting KPI map. Utilization here is on a raw-
// capacity basis (no overtime slack), distinct from the balance penalty's
// capacity+slack basis — the two are deliberately different per
// spec.md §9's Open Questions resolution.
func (e *Evaluator) KPIs(sched *simulate.Schedule) KPIs {
	byMachine, _ := e.workloads(sched)
	tardiness, perOrder := e.tardiness(sched)

	onTime := 0
	for _, t := range perOrder {
		if t == 0 {
			onTime++
		}
	}

	makespan := 0.0
	for _, c := range sched.Completion {
		if c > makespan {
			makespan = c
		}
	}
	makespan /= SecondsPerDay

	utilPct := make([]float64, e.inst.NumMachines)
	utilByName := make(map[string]float64, e.inst.NumMachines)
	for m := range utilPct {
		pct := 0.0
		if e.inst.Capacity[m] > 0 {
			pct = byMachine[m] / e.inst.Capacity[m] * 100
		}
		utilPct[m] = pct
		utilByName[e.inst.Machines[m]] = pct
	}

	return KPIs{
		TotalWeightedTardiness: tardiness,
		OnTimeDeliveryRate:     float64(onTime) / float64(e.inst.NumOrders) * 100,
		AvgTardiness:           stat.Mean(perOrder, nil),
		MakespanDays:           makespan,
		Utilization:            utilByName,
		AvgUtilization:         stat.Mean(utilPct, nil),
		BottleneckLoad:         maxOf(utilPct),
		LoadBalanceStd:         stat.StdDev(utilPct, nil),
	}
}

func maxOf(xs []float64) float64 {
	m := 0.0
	for i, x := range xs {
		if i == 0 || x > m {
			m = x
		}
	}
	return m
}
