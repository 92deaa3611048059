package codec

import (
	"testing"

	"flexflow/internal/errs"
	"flexflow/internal/instance"
)

func twoMachineInstance(t *testing.T) *instance.Instance {
	t.Helper()
	orders := []instance.Order{
		{ID: 0, Quantity: 1, DueDate: 5, Weight: 1},
		{ID: 1, Quantity: 1, DueDate: 5, Weight: 1},
	}
	// one stage, two eligible machines, identical processing times
	procTime := []float64{
		10, 10, // order 0, stage 0, machine 0/1
		10, 10, // order 1, stage 0, machine 0/1
	}
	inst, err := instance.New(orders, []string{"s0"}, []string{"m0", "m1"}, []float64{8 * 3600, 8 * 3600}, [][]int{{0, 1}}, procTime, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return inst
}

func TestMachineForBucketBoundaries(t *testing.T) {
	eligible := []int{10, 20, 30}
	cases := []struct {
		ms   float64
		want int
	}{
		{0.0, 10},
		{0.1, 10},
		{0.5, 20},
		{0.9, 30},
		{1 - Epsilon, 30},
	}
	for _, c := range cases {
		if got := MachineFor(c.ms, eligible); got != c.want {
			t.Errorf("MachineFor(%v) = %d, want %d", c.ms, got, c.want)
		}
	}
}

func TestMachineForSingleEligibleAlwaysSelectsIt(t *testing.T) {
	eligible := []int{7}
	for _, ms := range []float64{0, 0.3, 0.99, 1 - Epsilon} {
		if got := MachineFor(ms, eligible); got != 7 {
			t.Errorf("MachineFor(%v) with single eligible = %d, want 7", ms, got)
		}
	}
}

func TestDecodeProducesOneOpPerOrderStage(t *testing.T) {
	inst := twoMachineInstance(t)
	x := make([]float64, inst.VectorLength())
	x[0], x[1] = 0.1, 0.9 // OS genes
	x[2], x[3] = 0.1, 0.9 // MS genes: order 0 -> machine 0, order 1 -> machine 1

	ops, err := Decode(x, inst)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ops) != inst.NumOrders*inst.NumStages {
		t.Fatalf("len(ops) = %d, want %d", len(ops), inst.NumOrders*inst.NumStages)
	}
	if ops[0].Machine != 0 {
		t.Errorf("order 0 machine = %d, want 0", ops[0].Machine)
	}
	if ops[1].Machine != 1 {
		t.Errorf("order 1 machine = %d, want 1", ops[1].Machine)
	}
}

func TestDecodeRejectsWrongLength(t *testing.T) {
	inst := twoMachineInstance(t)
	_, err := Decode(make([]float64, inst.VectorLength()-1), inst)
	if err == nil {
		t.Fatal("expected error for wrong-length candidate")
	}
}

func TestDecodeReportsIneligibleAssignment(t *testing.T) {
	orders := []instance.Order{{ID: 0, Quantity: 1, DueDate: 5, Weight: 1}}
	// both machines are listed as eligible, but machine 0 has infinite time
	procTime := []float64{instance.Inf, 10}
	inst, err := instance.New(orders, []string{"s0"}, []string{"m0", "m1"}, []float64{8 * 3600, 8 * 3600}, [][]int{{0, 1}}, procTime, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	x := []float64{0.5, 0.1} // MS bucket 0 -> machine 0, which is infinite
	_, err = Decode(x, inst)
	if !errs.Is(err, errs.IneligibleAssignment) {
		t.Fatalf("expected IneligibleAssignment, got %v", err)
	}
}

func TestMachineAssignmentStableAcrossDecodes(t *testing.T) {
	inst := twoMachineInstance(t)
	x := []float64{0.2, 0.8, 0.1, 0.9}
	ops, err := Decode(x, inst)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := MachineAssignment(ops)
	again, err := Decode(x, inst)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := MachineAssignment(again)
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("machine assignment not stable across decode calls at %d: %d != %d", i, got[i], want[i])
		}
	}
}

func TestCandidateViewsShareBackingArray(t *testing.T) {
	x := []float64{0.1, 0.2, 0.3, 0.4}
	c := NewCandidate(x, 2, 1)
	c.OS[0] = 0.9
	if x[0] != 0.9 {
		t.Fatal("OS view must alias the backing vector")
	}
	c.MS[0] = 0.5
	if x[2] != 0.5 {
		t.Fatal("MS view must alias the backing vector")
	}
}
