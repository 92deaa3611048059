package instance

import (
	"math/rand"
	"testing"
)

func TestNewRejectsShapeMismatch(t *testing.T) {
	orders := []Order{{ID: 0, Quantity: 1, DueDate: 1, Weight: 1}}
	_, err := New(orders, []string{"s0"}, []string{"m0"}, []float64{8 * 3600}, [][]int{{0}}, []float64{1, 2}, 30)
	if err == nil {
		t.Fatal("expected error for wrong-length ProcTime")
	}
}

func TestNewRejectsEmptyEligibility(t *testing.T) {
	orders := []Order{{ID: 0, Quantity: 1, DueDate: 1, Weight: 1}}
	_, err := New(orders, []string{"s0"}, []string{"m0"}, []float64{8 * 3600}, [][]int{{}}, []float64{Inf}, 30)
	if err == nil {
		t.Fatal("expected error for empty eligible list")
	}
}

func TestNewRejectsNoFiniteProcTime(t *testing.T) {
	orders := []Order{{ID: 0, Quantity: 1, DueDate: 1, Weight: 1}}
	_, err := New(orders, []string{"s0"}, []string{"m0"}, []float64{8 * 3600}, [][]int{{0}}, []float64{Inf}, 30)
	if err == nil {
		t.Fatal("expected error: no eligible machine has finite processing time")
	}
}

func TestCapacityIsHorizonScaled(t *testing.T) {
	orders := []Order{{ID: 0, Quantity: 1, DueDate: 10, Weight: 1}}
	inst, err := New(orders, []string{"s0"}, []string{"m0"}, []float64{100}, [][]int{{0}}, []float64{5}, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantHorizon := 10.0 + 20.0
	if inst.HorizonDays != wantHorizon {
		t.Fatalf("HorizonDays = %v, want %v", inst.HorizonDays, wantHorizon)
	}
	wantCap := 100 * wantHorizon
	if inst.Capacity[0] != wantCap {
		t.Fatalf("Capacity[0] = %v, want %v", inst.Capacity[0], wantCap)
	}
}

func TestVectorLength(t *testing.T) {
	inst := Random(5, 3, 2, 1, 10, 30, rand.New(rand.NewSource(1)))
	if got, want := inst.VectorLength(), 2*5*3; got != want {
		t.Fatalf("VectorLength = %d, want %d", got, want)
	}
}

func TestRandomProducesValidInstance(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		inst := Random(4, 3, 3, 1, 100, 30, rng)
		for s := 0; s < inst.NumStages; s++ {
			if len(inst.Eligible[s]) == 0 {
				t.Fatalf("stage %d has no eligible machines", s)
			}
		}
	}
}
