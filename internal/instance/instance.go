// Package instance holds the immutable problem data for a flexible flow
// shop run: orders, stages, machines, processing times, eligibility, and
// horizon-scaled machine capacity. Once constructed and validated, an
// Instance is read-only and safe to share by reference across goroutines.
package instance

import (
	"math"
	"math/rand"
	"strconv"

	mapset "github.com/deckarep/golang-set/v2"

	"flexflow/internal/errs"
)

// Inf marks a processing-time entry for a (stage, machine) pair the order
// is not eligible for. It must never be indexed by the codec at runtime.
const Inf = math.MaxFloat64

// Order is a single production job.
type Order struct {
	ID       int
	Quantity int     // q >= 0; 0 gives zero-duration operations
	DueDate  float64 // days, may be negative or fractional
	Weight   float64 // w > 0
}

// Instance is the immutable problem description consumed by the codec,
// sequencer, simulator, and evaluator.
type Instance struct {
	Orders   []Order
	Stages   []string
	Machines []string

	// DailyAvail is the per-machine available time in seconds per day.
	DailyAvail []float64
	// HorizonDays is the planning horizon used to scale DailyAvail into
	// Capacity: max(0, max(order due dates)) + horizonBufferDays.
	HorizonDays float64
	// Capacity[m] = DailyAvail[m] * HorizonDays, in seconds.
	Capacity []float64

	// Eligible[s] is the ordered, non-empty list of machine indices
	// eligible for stage s. Order is significant: it is part of the
	// codec's machine-selection mapping.
	Eligible [][]int

	// ProcTime is a flat O*S*M tensor; ProcTime[(o*S+s)*M+m] is the
	// per-unit processing time in seconds, or Inf if machine m is
	// ineligible for stage s.
	ProcTime []float64

	NumOrders   int
	NumStages   int
	NumMachines int
}

// New validates and constructs an Instance. horizonBufferDays is added to
// the maximum due date (days, floored at 0) to derive the planning horizon
// used for machine capacity.
func New(orders []Order, stages, machines []string, dailyAvail []float64, eligible [][]int, procTime []float64, horizonBufferDays float64) (*Instance, error) {
	o, s, m := len(orders), len(stages), len(machines)

	inst := &Instance{
		Orders:      orders,
		Stages:      stages,
		Machines:    machines,
		DailyAvail:  dailyAvail,
		Eligible:    eligible,
		ProcTime:    procTime,
		NumOrders:   o,
		NumStages:   s,
		NumMachines: m,
	}

	if err := inst.validateShape(); err != nil {
		return nil, errs.New(errs.InvalidInstance, err)
	}

	maxDue := 0.0
	for _, ord := range orders {
		if ord.DueDate > maxDue {
			maxDue = ord.DueDate
		}
	}
	horizon := maxDue + horizonBufferDays
	if horizon <= 0 {
		horizon = horizonBufferDays
	}
	inst.HorizonDays = horizon

	capacity := make([]float64, m)
	for i, avail := range dailyAvail {
		capacity[i] = avail * horizon
	}
	inst.Capacity = capacity

	if err := inst.validateEligibility(); err != nil {
		return nil, errs.New(errs.InvalidInstance, err)
	}

	return inst, nil
}

func (inst *Instance) validateShape() error {
	if inst.NumOrders <= 0 {
		return errs.Newf(errs.InvalidInstance, "orders must be non-empty")
	}
	if inst.NumStages <= 0 {
		return errs.Newf(errs.InvalidInstance, "stages must be non-empty")
	}
	if inst.NumMachines <= 0 {
		return errs.Newf(errs.InvalidInstance, "machines must be non-empty")
	}
	if len(inst.DailyAvail) != inst.NumMachines {
		return errs.Newf(errs.InvalidInstance, "dailyAvail length must equal machines (%d), got %d", inst.NumMachines, len(inst.DailyAvail))
	}
	if len(inst.Eligible) != inst.NumStages {
		return errs.Newf(errs.InvalidInstance, "eligible length must equal stages (%d), got %d", inst.NumStages, len(inst.Eligible))
	}
	want := inst.NumOrders * inst.NumStages * inst.NumMachines
	if len(inst.ProcTime) != want {
		return errs.Newf(errs.InvalidInstance, "procTime length must be orders*stages*machines=%d, got %d", want, len(inst.ProcTime))
	}
	for _, ord := range inst.Orders {
		if ord.Quantity < 0 {
			return errs.Newf(errs.InvalidInstance, "order %d: quantity must be >= 0, got %d", ord.ID, ord.Quantity)
		}
		if ord.Weight <= 0 {
			return errs.Newf(errs.InvalidInstance, "order %d: weight must be > 0, got %f", ord.ID, ord.Weight)
		}
	}
	for _, v := range inst.DailyAvail {
		if v < 0 {
			return errs.Newf(errs.InvalidInstance, "dailyAvail entries must be >= 0, got %f", v)
		}
	}
	for i, v := range inst.ProcTime {
		if v < 0 {
			return errs.Newf(errs.InvalidInstance, "procTime entry %d must be >= 0, got %f", i, v)
		}
	}
	return nil
}

// validateEligibility checks every stage has a non-empty, duplicate-free
// eligible-machine list, and that every (order, stage) has at least one
// finite processing time. Duplicate detection uses a set rather than a
// second pass with an ad-hoc map.
func (inst *Instance) validateEligibility() error {
	for s, list := range inst.Eligible {
		if len(list) == 0 {
			return errs.Newf(errs.InvalidInstance, "stage %q has no eligible machines", inst.Stages[s])
		}
		seen := mapset.NewThreadUnsafeSet[int]()
		for _, mi := range list {
			if mi < 0 || mi >= inst.NumMachines {
				return errs.Newf(errs.InvalidInstance, "stage %q: machine index %d out of range", inst.Stages[s], mi)
			}
			if !seen.Add(mi) {
				return errs.Newf(errs.InvalidInstance, "stage %q: duplicate machine index %d in eligible list", inst.Stages[s], mi)
			}
		}
	}

	for o := 0; o < inst.NumOrders; o++ {
		for s := 0; s < inst.NumStages; s++ {
			finite := false
			for _, mi := range inst.Eligible[s] {
				if inst.ProcTimeAt(o, s, mi) < Inf {
					finite = true
					break
				}
			}
			if !finite {
				return errs.Newf(errs.InvalidInstance, "order %d stage %q: no eligible machine has finite processing time", inst.Orders[o].ID, inst.Stages[s])
			}
		}
	}
	return nil
}

// ProcTimeAt returns the per-unit processing time for (order, stage,
// machine). Callers must only index eligible (stage, machine) pairs; the
// codec enforces this via Eligible before ever calling this.
func (inst *Instance) ProcTimeAt(o, s, m int) float64 {
	return inst.ProcTime[(o*inst.NumStages+s)*inst.NumMachines+m]
}

// EligibleSet returns the eligible-machine set for stage s as a
// golang-set, used by the objective evaluator to decide which stages
// participate in the load-balance penalty (|E_s| >= 2).
func (inst *Instance) EligibleSet(s int) mapset.Set[int] {
	return mapset.NewThreadUnsafeSet[int](inst.Eligible[s]...)
}

// VectorLength is the chromosome length 2*O*S this instance's candidates
// must have.
func (inst *Instance) VectorLength() int {
	return 2 * inst.NumOrders * inst.NumStages
}

// Random builds a random, internally consistent Instance for tests and
// benchmarks: every stage gets a random non-empty subset of machines (at
// least one), and processing times are drawn uniformly in
// [minTime, maxTime] for eligible pairs and Inf otherwise.
func Random(orders, stages, machines int, minTime, maxTime float64, horizonBufferDays float64, rng *rand.Rand) *Instance {
	if rng == nil {
		panic("numeric generator not initialized (nil)")
	}
	if minTime < 0 || maxTime < minTime {
		panic("invalid time bounds")
	}

	ords := make([]Order, orders)
	for i := range ords {
		ords[i] = Order{
			ID:       i,
			Quantity: 1 + rng.Intn(20),
			DueDate:  float64(1 + rng.Intn(30)),
			Weight:   1.0,
		}
	}

	stageNames := make([]string, stages)
	for s := range stageNames {
		stageNames[s] = "stage-" + strconv.Itoa(s)
	}
	machineNames := make([]string, machines)
	for m := range machineNames {
		machineNames[m] = "machine-" + strconv.Itoa(m)
	}

	dailyAvail := make([]float64, machines)
	for m := range dailyAvail {
		dailyAvail[m] = 8 * 3600
	}

	eligible := make([][]int, stages)
	for s := range eligible {
		k := 1 + rng.Intn(machines)
		perm := rng.Perm(machines)
		eligible[s] = append([]int{}, perm[:k]...)
	}

	procTime := make([]float64, orders*stages*machines)
	for o := 0; o < orders; o++ {
		for s := 0; s < stages; s++ {
			eligSet := mapset.NewThreadUnsafeSet[int](eligible[s]...)
			for m := 0; m < machines; m++ {
				idx := (o*stages+s)*machines + m
				if eligSet.Contains(m) {
					procTime[idx] = minTime + rng.Float64()*(maxTime-minTime)
				} else {
					procTime[idx] = Inf
				}
			}
		}
	}

	inst, err := New(ords, stageNames, machineNames, dailyAvail, eligible, procTime, horizonBufferDays)
	if err != nil {
		panic(err)
	}
	return inst
}
