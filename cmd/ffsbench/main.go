// Command ffsbench is the benchmark/demo CLI driving the GA, NSGA-II, and
// PSO engines across a configurable set of instance shapes, adapted from the
// teacher's cmd/bench entrypoint: parse flags into per-engine Config
// values, fan out over Algorithm x Case, and write a CSV of Records.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"strings"

	"flexflow/internal/bench"
	"flexflow/internal/config"
	"flexflow/internal/ga"
	"flexflow/internal/nsga2"
	"flexflow/internal/opt"
	"flexflow/internal/pso"
)

func newGAFactory(cfg config.RunConfig) func(seed int64) opt.SingleObjectiveOptimizer {
	return func(seed int64) opt.SingleObjectiveOptimizer {
		solver, err := ga.New(cfg, rand.New(rand.NewSource(seed)))
		if err != nil {
			panic(err)
		}
		return solver
	}
}

func newNSGA2Factory(cfg config.MOConfig) func(seed int64) opt.MultiObjectiveOptimizer {
	return func(seed int64) opt.MultiObjectiveOptimizer {
		solver, err := nsga2.New(cfg, rand.New(rand.NewSource(seed)))
		if err != nil {
			panic(err)
		}
		return solver
	}
}

func newPSOFactory(cfg pso.Config) func(seed int64) opt.SingleObjectiveOptimizer {
	return func(seed int64) opt.SingleObjectiveOptimizer {
		solver, err := pso.New(cfg, rand.New(rand.NewSource(seed)))
		if err != nil {
			panic(err)
		}
		return solver
	}
}

func main() {
	var (
		out          = flag.String("out", "artifacts/results.csv", "output CSV path")
		pairs        = flag.String("pairs", "20x3x5,50x4x10,100x5x20", "instance shapes: ordersxstagesxmachines, comma-separated")
		algos        = flag.String("algos", "GA,NSGA2,PSO", "algorithms to run: GA, NSGA2, PSO (comma-separated)")
		runs         = flag.Int("runs", 10, "number of runs per algorithm (distinct seeds)")
		baseSeed     = flag.Int64("seed", 1000, "base seed for solver runs")
		instanceSeed = flag.Int64("instance_seed", 777, "base seed for instance generation (fixed per shape)")
		perRunTO     = flag.Duration("per_run_timeout", 0, "per-run timeout; 0 = unbounded")

		minProcSeconds    = flag.Float64("min_proc_seconds", 60, "minimum per-unit processing time")
		maxProcSeconds    = flag.Float64("max_proc_seconds", 3600, "maximum per-unit processing time")
		horizonBufferDays = flag.Float64("horizon_buffer_days", 30, "planning horizon buffer in days")

		gaPop   = flag.Int("ga_pop", 100, "GA population size")
		gaGen   = flag.Int("ga_gen", 100, "GA generations")
		gaCx    = flag.Float64("ga_cx", 0.9, "GA crossover probability")
		gaMut   = flag.Float64("ga_mut", 0.1, "GA mutation probability")
		gaTourF = flag.Float64("ga_tournament_fraction", 0.2, "GA tournament fraction of population")
		gaElite = flag.Int("ga_elitism", 1, "GA elitism (0 or 1)")

		moPop = flag.Int("mo_pop", 80, "NSGA-II population size (mu)")
		moGen = flag.Int("mo_gen", 200, "NSGA-II generations")
		moCx  = flag.Float64("mo_cx", 0.9, "NSGA-II crossover probability")

		psoParticles   = flag.Int("pso_particles", 60, "PSO swarm size")
		psoIterPerGene = flag.Int("pso_iter_per_gene", 2, "PSO iterations per candidate gene (used when pso_iter is 0)")
		psoIter        = flag.Int("pso_iter", 0, "PSO iterations; 0 derives from pso_iter_per_gene")
		psoW           = flag.Float64("pso_w", 0.729, "PSO inertia weight")
		psoC1          = flag.Float64("pso_c1", 1.49445, "PSO cognitive coefficient")
		psoC2          = flag.Float64("pso_c2", 1.49445, "PSO social coefficient")
		psoVMax        = flag.Float64("pso_vmax", 0.25, "PSO per-gene velocity clamp; <=0 disables clamping")
	)
	flag.Parse()

	ctx := context.Background()

	cases, err := parseShapes(*pairs, *instanceSeed, *minProcSeconds, *maxProcSeconds, *horizonBufferDays)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}

	gaCfg := config.DefaultRunConfig()
	gaCfg.PopulationSize = *gaPop
	gaCfg.Generations = *gaGen
	gaCfg.CrossoverRate = *gaCx
	gaCfg.MutationRate = *gaMut
	gaCfg.TournamentFraction = *gaTourF
	gaCfg.Elitism = *gaElite
	gaCfg.HorizonBufferDays = *horizonBufferDays
	if err := gaCfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid GA config:", err)
		os.Exit(2)
	}

	moCfg := config.DefaultMOConfig()
	moCfg.PopulationSize = *moPop
	moCfg.Generations = *moGen
	moCfg.CrossoverRate = *moCx
	moCfg.HorizonBufferDays = *horizonBufferDays
	if err := moCfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid NSGA-II config:", err)
		os.Exit(2)
	}

	psoCfg := pso.DefaultConfig()
	psoCfg.Particles = *psoParticles
	psoCfg.IterationsPerChromosome = *psoIterPerGene
	psoCfg.Iterations = *psoIter
	psoCfg.W = *psoW
	psoCfg.C1 = *psoC1
	psoCfg.C2 = *psoC2
	psoCfg.VMax = *psoVMax
	if err := psoCfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid PSO config:", err)
		os.Exit(2)
	}

	available := map[string]bench.Algorithm{
		"GA":    {Name: "GA", Kind: bench.KindSingle, SingleFactory: newGAFactory(gaCfg)},
		"NSGA2": {Name: "NSGA2", Kind: bench.KindMulti, MultiFactory: newNSGA2Factory(moCfg)},
		"PSO":   {Name: "PSO", Kind: bench.KindSingle, SingleFactory: newPSOFactory(psoCfg)},
	}

	var selected []bench.Algorithm
	for _, a := range splitCSV(*algos) {
		al, ok := available[a]
		if !ok {
			fmt.Fprintf(os.Stderr, "unknown algorithm %q; available: %v\n", a, keys(available))
			os.Exit(2)
		}
		selected = append(selected, al)
	}

	runner := bench.Runner{
		Runs:          *runs,
		BaseSeed:      *baseSeed,
		PerRunTimeout: *perRunTO,
	}

	var records []bench.Record
	for _, c := range cases {
		for _, a := range selected {
			fmt.Printf("running %s on %dx%dx%d (orders x stages x machines), runs=%d...\n", a.Name, c.Orders, c.Stages, c.Machines, runner.Runs)

			rec, err := runner.RunCase(ctx, c, a)
			if err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
				os.Exit(1)
			}
			records = append(records, rec)

			if rec.Kind == bench.KindSingle {
				fmt.Printf("  fitness: best=%.2f mean=%.2f std=%.2f | time: mean=%.2fms\n",
					rec.FitnessBest, rec.FitnessMean, rec.FitnessStd, rec.TimeMeanMs)
			} else {
				fmt.Printf("  tardiness: best=%.2f mean=%.2f | front size mean=%.1f | time: mean=%.2fms\n",
					rec.TardinessBest, rec.TardinessMean, rec.FrontSizeMean, rec.TimeMeanMs)
			}
		}
	}

	if err := bench.WriteCSV(*out, records); err != nil {
		fmt.Fprintln(os.Stderr, "error writing CSV:", err)
		os.Exit(1)
	}
	fmt.Println("saved:", *out)
}

func parseShapes(s string, baseInstanceSeed int64, minProc, maxProc, horizonBufferDays float64) ([]bench.Case, error) {
	parts := splitCSV(s)
	cases := make([]bench.Case, 0, len(parts))

	for i, p := range parts {
		dims := strings.Split(p, "x")
		if len(dims) != 3 {
			return nil, fmt.Errorf("shape %q must have form ordersxstagesxmachines, e.g. 50x4x10", p)
		}
		orders, err := atoiStrict(dims[0])
		if err != nil {
			return nil, fmt.Errorf("shape %q: orders: %w", p, err)
		}
		stages, err := atoiStrict(dims[1])
		if err != nil {
			return nil, fmt.Errorf("shape %q: stages: %w", p, err)
		}
		machines, err := atoiStrict(dims[2])
		if err != nil {
			return nil, fmt.Errorf("shape %q: machines: %w", p, err)
		}
		if orders <= 0 || stages <= 0 || machines <= 0 {
			return nil, fmt.Errorf("shape %q: orders, stages, and machines must be > 0", p)
		}

		seed := baseInstanceSeed + int64(i)*10_000 + int64(orders)*100 + int64(stages)*10 + int64(machines)

		cases = append(cases, bench.Case{
			Orders:            orders,
			Stages:            stages,
			Machines:          machines,
			InstanceSeed:      seed,
			MinProcSeconds:    minProc,
			MaxProcSeconds:    maxProc,
			HorizonBufferDays: horizonBufferDays,
		})
	}

	return cases, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func atoiStrict(s string) (int, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	return v, nil
}

func keys(m map[string]bench.Algorithm) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

