package pso

import (
	"context"
	"math/rand"
	"testing"

	"flexflow/internal/instance"
)

func smallInstance() *instance.Instance {
	return instance.Random(6, 3, 3, 60, 600, 30, rand.New(rand.NewSource(31)))
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Particles = 0
	if _, err := New(cfg, rand.New(rand.NewSource(1))); err == nil {
		t.Fatal("expected error for zero particles")
	}
}

func TestNewRejectsNilRNG(t *testing.T) {
	if _, err := New(DefaultConfig(), nil); err == nil {
		t.Fatal("expected error for nil rng")
	}
}

// TestSolveDeterministic grounds on spec Scenario F applied to the
// supplementary engine: identical seed, instance, and configuration must
// produce identical best fitness and candidate vector across two runs.
func TestSolveDeterministic(t *testing.T) {
	inst := smallInstance()
	cfg := DefaultConfig()
	cfg.Particles = 12
	cfg.IterationsPerChromosome = 1

	run := func() (float64, []float64) {
		solver, err := New(cfg, rand.New(rand.NewSource(99)))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		res, err := solver.Solve(context.Background(), inst)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return res.Fitness, res.Candidate
	}

	f1, x1 := run()
	f2, x2 := run()
	if f1 != f2 {
		t.Fatalf("fitness diverged across identical runs: %v vs %v", f1, f2)
	}
	if len(x1) != len(x2) {
		t.Fatalf("candidate length diverged: %d vs %d", len(x1), len(x2))
	}
	for i := range x1 {
		if x1[i] != x2[i] {
			t.Fatalf("candidate gene %d diverged: %v vs %v", i, x1[i], x2[i])
		}
	}
}

func TestSolveRespectsContextCancellation(t *testing.T) {
	inst := smallInstance()
	cfg := DefaultConfig()
	cfg.Particles = 8
	cfg.Iterations = 10000

	solver, err := New(cfg, rand.New(rand.NewSource(2)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = solver.Solve(ctx, inst)
	if err == nil {
		t.Fatal("expected error from an already-cancelled context")
	}
}

func TestSolveResultCandidateHasInstanceVectorLength(t *testing.T) {
	inst := smallInstance()
	cfg := DefaultConfig()
	cfg.Particles = 8
	cfg.IterationsPerChromosome = 1

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
