package ga

import (
	"context"
	"math/rand"
	"testing"

	"flexflow/internal/config"
	"flexflow/internal/instance"
	"flexflow/internal/observer"
)

func smallInstance() *instance.Instance {
	return instance.Random(6, 3, 3, 60, 600, 30, rand.New(rand.NewSource(11)))
}

// TestSolveBestFitnessMonotonicallyNonIncreasing checks property P5: with
// elitism=1, the best-of-run fitness never gets worse across generations.
func TestSolveBestFitnessMonotonicallyNonIncreasing(t *testing.T) {
	inst := smallInstance()
	cfg := config.DefaultRunConfig()
	cfg.PopulationSize = 20
	cfg.Generations = 15
	cfg.Elitism = 1

	var history []float64
	solver, err := New(cfg, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	solver.Observer = observer.Func(func(e observer.Event) { history = append(history, e.BestFitness) })

	_, err = solver.Solve(context.Background(), inst)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < len(history); i++ {
		if history[i] > history[i-1] {
			t.Fatalf("best fitness increased at generation %d: %v -> %v", i, history[i-1], history[i])
		}
	}
}

func TestSolveRespectsContextCancellation(t *testing.T) {
	inst := smallInstance()
	cfg := config.DefaultRunConfig()
	cfg.PopulationSize = 10
	cfg.Generations = 1000

	solver, err := New(cfg, rand.New(rand.NewSource(2)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = solver.Solve(ctx, inst)
	if err == nil {
		t.Fatal("expected Cancelled error from an already-cancelled context")
	}
}

func TestNewRejectsNilRNG(t *testing.T) {
	cfg := config.DefaultRunConfig()
	if _, err := New(cfg, nil); err == nil {
		t.Fatal("expected error for nil rng")
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultRunConfig()
	cfg.PopulationSize = 1
	if _, err := New(cfg, rand.New(rand.NewSource(1))); err == nil {
		t.Fatal("expected error for population size <= 1")
	}
}

func TestSolveResultCandidateHasInstanceVectorLength(t *testing.T) {
	inst := smallInstance()
	cfg := config.DefaultRunConfig()
	cfg.PopulationSize = 10
	cfg.Generations = 3

	solver, err := New(cfg, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err := solver.Solve(context.Background(), inst)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Candidate) != inst.VectorLength() {
		t.Fatalf("len(Candidate) = %d, want %d", len(res.Candidate), inst.VectorLength())
	}
}

