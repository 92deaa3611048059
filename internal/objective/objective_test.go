package objective

import (
	"math"
	"testing"

	"flexflow/internal/instance"
	"flexflow/internal/simulate"
)

// TestFitnessScenarioD grounds on spec Scenario D: two orders on one
// machine, zero due dates, distinct weights; checks the weighted
// tardiness sum and the urgency penalty extra term.
func TestFitnessScenarioD(t *testing.T) {
	orders := []instance.Order{
		{ID: 0, Quantity: 1, DueDate: 0, Weight: 1.0},
		{ID: 1, Quantity: 1, DueDate: 0, Weight: 1.2},
	}
	inst, err := instance.New(orders, []string{"s0"}, []string{"m0"}, []float64{8 * 3600}, [][]int{{0}}, []float64{5, 5}, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sched := &simulate.Schedule{
		Entries: []simulate.Entry{
			{Order: 0, Stage: 0, Machine: 0, Start: 0, Finish: 5, Duration: 5},
			{Order: 1, Stage: 0, Machine: 0, Start: 5, Finish: 10, Duration: 5},
		},
		Completion: []float64{5, 10},
	}

	weights := DefaultWeights()
	eval := New(inst, weights)

	completionDays0 := 5.0 / SecondsPerDay
	completionDays1 := 10.0 / SecondsPerDay
	wantTardiness := orders[0].Weight*completionDays0 + orders[1].Weight*completionDays1

	// Only order 1 meets UrgentThreshold=1.2 (weight 1.2 >= 1.2); the
	// urgency penalty applies to order 1 only.
	wantUrgency := weights.LambdaUrg * orders[1].Weight * completionDays1

	got := eval.Fitness(sched)
	want := wantTardiness + wantUrgency // capacity/balance penalties are zero here: load << capacity, single machine per stage
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("Fitness = %v, want %v (tardiness=%v urgency=%v)", got, want, wantTardiness, wantUrgency)
	}
}

func TestSentinelFitnessLargeEnoughToDominate(t *testing.T) {
	// SentinelFitness must be large enough to dominate any realistic
	// fitness value so a failed candidate is always worse.
	if SentinelFitness < 1e6 {
		t.Fatalf("SentinelFitness = %v, too small to reliably dominate", SentinelFitness)
	}
}

func TestCapacityPenaltyTriggersOnOverload(t *testing.T) {
	orders := []instance.Order{{ID: 0, Quantity: 1, DueDate: 30, Weight: 1}}
	inst, err := instance.New(orders, []string{"s0"}, []string{"m0"}, []float64{1}, [][]int{{0}}, []float64{1}, 0.0001)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sched := &simulate.Schedule{
		Entries:    []simulate.Entry{{Order: 0, Stage: 0, Machine: 0, Start: 0, Finish: 1000, Duration: 1000}},
		Completion: []float64{1000},
	}
	weights := DefaultWeights()
	weights.OvertimeSlackSeconds = 0
	eval := New(inst, weights)
	got := eval.Fitness(sched)
	if got <= 0 {
		t.Fatalf("expected positive fitness from capacity overload penalty, got %v", got)
	}
}

func TestKPIsOnTimeDeliveryRate(t *testing.T) {
	orders := []instance.Order{
		{ID: 0, Quantity: 1, DueDate: 30, Weight: 1},
		{ID: 1, Quantity: 1, DueDate: 0, Weight: 1},
	}
	inst, err := instance.New(orders, []string{"s0"}, []string{"m0"}, []float64{8 * 3600}, [][]int{{0}}, []float64{5, 5}, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sched := &simulate.Schedule{
		Entries: []simulate.Entry{
			{Order: 0, Stage: 0, Machine: 0, Start: 0, Finish: 5, Duration: 5},
			{Order: 1, Stage: 0, Machine: 0, Start: 5, Finish: 10, Duration: 5},
		},
		Completion: []float64{5, 10},
	}
	kpis := New(inst, DefaultWeights()).KPIs(sched)
	if kpis.OnTimeDeliveryRate != 50 {
		t.Fatalf("OnTimeDeliveryRate = %v, want 50 (order 0 on time, order 1 late)", kpis.OnTimeDeliveryRate)
	}
}
