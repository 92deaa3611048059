package simulate

import (
	"testing"

	"flexflow/internal/codec"
	"flexflow/internal/instance"
)

func newInstance(t *testing.T, orders []instance.Order, stages, machines []string, dailyAvail []float64, eligible [][]int, procTime []float64) *instance.Instance {
	t.Helper()
	inst, err := instance.New(orders, stages, machines, dailyAvail, eligible, procTime, 30)
	if err != nil {
		t.Fatalf("unexpected error building instance: %v", err)
	}
	return inst
}

// TestSimulateScenarioA grounds on spec Scenario A: single machine, two
// sequential stages of one order.
func TestSimulateScenarioA(t *testing.T) {
	orders := []instance.Order{{ID: 0, Quantity: 1, DueDate: 30, Weight: 1}}
	inst := newInstance(t, orders, []string{"s0", "s1"}, []string{"m0"}, []float64{8 * 3600},
		[][]int{{0}, {0}}, []float64{10, 7})

	seq := []codec.Op{
		{Order: 0, Stage: 0, Machine: 0, UnitTime: 10, TotalTime: 10},
		{Order: 0, Stage: 1, Machine: 0, UnitTime: 7, TotalTime: 7},
	}
	sched, err := New(inst).Simulate(seq)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sched.Entries) != 2 {
		t.Fatalf("len(Entries) = %d, want 2", len(sched.Entries))
	}
	e0, e1 := sched.Entries[0], sched.Entries[1]
	if e0.Start != 0 || e0.Finish != 10 {
		t.Fatalf("stage 0: start=%v finish=%v, want 0,10", e0.Start, e0.Finish)
	}
	if e1.Start != 10 || e1.Finish != 17 {
		t.Fatalf("stage 1: start=%v finish=%v, want 10,17", e1.Start, e1.Finish)
	}
	if sched.Completion[0] != 17 {
		t.Fatalf("Completion[0] = %v, want 17", sched.Completion[0])
	}
}

// TestSimulateScenarioB grounds on spec Scenario B: two orders contend for
// one machine; sequencing order determines start/finish.
func TestSimulateScenarioB(t *testing.T) {
	orders := []instance.Order{
		{ID: 0, Quantity: 1, DueDate: 30, Weight: 1},
		{ID: 1, Quantity: 1, DueDate: 30, Weight: 1},
	}
	inst := newInstance(t, orders, []string{"s0"}, []string{"m0"}, []float64{8 * 3600},
		[][]int{{0}}, []float64{5, 5})

	seq := []codec.Op{
		{Order: 0, Stage: 0, Machine: 0, UnitTime: 5, TotalTime: 5},
		{Order: 1, Stage: 0, Machine: 0, UnitTime: 5, TotalTime: 5},
	}
	sched, err := New(inst).Simulate(seq)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sched.Entries[1].Start != 5 || sched.Entries[1].Finish != 10 {
		t.Fatalf("order 1: start=%v finish=%v, want 5,10", sched.Entries[1].Start, sched.Entries[1].Finish)
	}

	// Swapping the sequence reverses the outcome.
	reversed := []codec.Op{seq[1], seq[0]}
	sched2, err := New(inst).Simulate(reversed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sched2.Entries[1].Start != 5 || sched2.Entries[1].Finish != 10 {
		t.Fatalf("reversed order 0: start=%v finish=%v, want 5,10", sched2.Entries[1].Start, sched2.Entries[1].Finish)
	}
}

// TestSimulateScenarioC grounds on spec Scenario C: two orders on distinct
// eligible machines both start at time zero.
func TestSimulateScenarioC(t *testing.T) {
	orders := []instance.Order{
		{ID: 0, Quantity: 1, DueDate: 30, Weight: 1},
		{ID: 1, Quantity: 1, DueDate: 30, Weight: 1},
	}
	inst := newInstance(t, orders, []string{"s0"}, []string{"m0", "m1"}, []float64{8 * 3600, 8 * 3600},
		[][]int{{0, 1}}, []float64{5, 5, 5, 5})

	seq := []codec.Op{
		{Order: 0, Stage: 0, Machine: 0, UnitTime: 5, TotalTime: 5},
		{Order: 1, Stage: 0, Machine: 1, UnitTime: 5, TotalTime: 5},
	}
	sched, err := New(inst).Simulate(seq)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, e := range sched.Entries {
		if e.Start != 0 {
			t.Fatalf("entry %d: start = %v, want 0", i, e.Start)
		}
	}
}

// TestSimulatePooledBuffersResetPerCall verifies two independent
// Simulate calls on the same Simulator don't leak state (purity despite
// pooling), per spec.md §9.
func TestSimulatePooledBuffersResetPerCall(t *testing.T) {
	orders := []instance.Order{{ID: 0, Quantity: 1, DueDate: 30, Weight: 1}}
	inst := newInstance(t, orders, []string{"s0"}, []string{"m0"}, []float64{8 * 3600}, [][]int{{0}}, []float64{5})
	sim := New(inst)

	seq := []codec.Op{{Order: 0, Stage: 0, Machine: 0, UnitTime: 5, TotalTime: 5}}
	first, err := sim.Simulate(seq)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := sim.Simulate(seq)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Entries[0].Start != second.Entries[0].Start || first.Entries[0].Finish != second.Entries[0].Finish {
		t.Fatalf("repeated Simulate calls diverged: %+v vs %+v", first.Entries[0], second.Entries[0])
	}
}

func TestSimulateRejectsWrongSequenceLength(t *testing.T) {
	orders := []instance.Order{{ID: 0, Quantity: 1, DueDate: 30, Weight: 1}}
	inst := newInstance(t, orders, []string{"s0", "s1"}, []string{"m0"}, []float64{8 * 3600}, [][]int{{0}, {0}}, []float64{5, 5})
	_, err := New(inst).Simulate([]codec.Op{{Order: 0, Stage: 0, Machine: 0, TotalTime: 5}})
	if err == nil {
		t.Fatal("expected error for wrong-length sequence")
	}
}
