package seed

import (
	"math/rand"
	"testing"

	"flexflow/internal/instance"
)

func TestCandidateLengthAndBounds(t *testing.T) {
	inst := instance.Random(6, 3, 4, 1, 100, 30, rand.New(rand.NewSource(1)))
	x := Candidate(inst, rand.New(rand.NewSource(2)))
	if got, want := len(x), inst.VectorLength(); got != want {
		t.Fatalf("len(Candidate) = %d, want %d", got, want)
	}
	for i, v := range x {
		if v < 0 || v >= 1 {
			t.Fatalf("gene %d = %v out of [0,1)", i, v)
		}
	}
}

func TestCandidateOrdersUrgentOrdersFirst(t *testing.T) {
	orders := []instance.Order{
		{ID: 0, Quantity: 1, DueDate: 20, Weight: 1}, // less urgent
		{ID: 1, Quantity: 1, DueDate: 1, Weight: 1},  // more urgent
	}
	inst, err := instance.New(orders, []string{"s0"}, []string{"m0"}, []float64{8 * 3600}, [][]int{{0}}, []float64{5, 5}, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	x := Candidate(inst, rand.New(rand.NewSource(3)))
	// OS genes: index o*stages+s, stages=1, so OS[0]=order0, OS[1]=order1.
	if x[1] >= x[0] {
		t.Fatalf("expected order 1 (more urgent) to rank before order 0: OS=%v", x[:2])
	}
}

func TestCandidateMSGenesWithinConfiguredRange(t *testing.T) {
	inst := instance.Random(4, 2, 3, 1, 10, 30, rand.New(rand.NewSource(5)))
	x := Candidate(inst, rand.New(rand.NewSource(6)))
	half := inst.NumOrders * inst.NumStages
	for i, v := range x[half:] {
		if v < MSRangeLow || v > MSRangeHigh {
			t.Fatalf("MS gene %d = %v outside [%v, %v]", i, v, MSRangeLow, MSRangeHigh)
		}
	}
}
