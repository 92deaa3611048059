// Package bench adapts the teacher's benchmark harness (Algorithm, Case,
// Record, Runner/RunCase, CSV export) from integer-permutation/makespan
// records to the float candidate/fitness records this module's search
// engines produce. One Runner drives either an
// opt.SingleObjectiveOptimizer or an opt.MultiObjectiveOptimizer,
// repeated across Runs seeds over one randomly generated Instance.
package bench

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"flexflow/internal/instance"
	"flexflow/internal/opt"
)

// Algorithm names one configured optimizer factory. Exactly one of
// SingleFactory/MultiFactory is set, matching Kind.
type Algorithm struct {
	Name string
	Kind Kind

	SingleFactory func(seed int64) opt.SingleObjectiveOptimizer
	MultiFactory  func(seed int64) opt.MultiObjectiveOptimizer
}

// Kind distinguishes the two optimizer contracts a Runner can drive.
type Kind string

const (
	KindSingle Kind = "single"
	KindMulti  Kind = "multi"
)

// Case is one synthetic instance shape: dimensions plus the seed that
// deterministically generates it via instance.Random.
type Case struct {
	Orders            int
	Stages            int
	Machines          int
	InstanceSeed      int64
	MinProcSeconds    float64
	MaxProcSeconds    float64
	HorizonBufferDays float64
}

// Record is one Algorithm x Case summary across Runs seeded runs. Fields
// not meaningful to the Algorithm's Kind are left zero.
type Record struct {
	Algo     string
	Kind     Kind
	Orders   int
	Stages   int
	Machines int
	Runs     int

	TimeBestMs float64
	TimeMeanMs float64
	TimeStdMs  float64

	EvaluationsMean float64

	// Single-objective fields.
	FitnessBest float64
	FitnessMean float64
	FitnessStd  float64
	FitnessCV   float64

	// Multi-objective fields: tardiness coordinate of the min-tardiness
	// representative, and Pareto front size.
	TardinessBest     float64
	TardinessMean     float64
	TardinessCV       float64
	FrontSizeMean     float64
	FrontSizeBestSeed int
}

// Runner repeats one Case/Algorithm pair Runs times, each with a distinct
// solver seed derived from BaseSeed.
type Runner struct {
	Runs          int
	BaseSeed      int64
	PerRunTimeout time.Duration // 0 = no timeout
}

func (c Case) buildInstance() *instance.Instance {
	rng := seededRNG(c.InstanceSeed)
	return instance.Random(c.Orders, c.Stages, c.Machines, c.MinProcSeconds, c.MaxProcSeconds, c.HorizonBufferDays, rng)
}

// RunCase dispatches to runSingle or runMulti per algo.Kind.
func (r Runner) RunCase(ctx context.Context, c Case, algo Algorithm) (Record, error) {
	switch algo.Kind {
	case KindSingle:
		return r.runSingle(ctx, c, algo)
	case KindMulti:
		return r.runMulti(ctx, c, algo)
	default:
		return Record{}, fmt.Errorf("bench: unknown algorithm kind %q", algo.Kind)
	}
}

func (r Runner) runSingle(ctx context.Context, c Case, algo Algorithm) (Record, error) {
	inst := c.buildInstance()

	fitnesses := make([]float64, 0, r.Runs)
	timesMs := make([]float64, 0, r.Runs)
	evals := make([]int, 0, r.Runs)

	for i := 0; i < r.Runs; i++ {
		runSeed := r.BaseSeed + int64(i)
		op := algo.SingleFactory(runSeed)

		runCtx, cancel := r.withTimeout(ctx)
		start := time.Now()
		res, err := op.Solve(runCtx, inst)
		dur := time.Since(start)
		cancel()

		if err != nil && runCtx.Err() != nil {
			return Record{}, fmt.Errorf("run %d: cancelled/timeout: %w", i, err)
		}
		if err != nil {
			return Record{}, fmt.Errorf("run %d: solve error: %w", i, err)
		}
		if len(res.Candidate) != inst.VectorLength() {
			return Record{}, fmt.Errorf("run %d: invalid candidate length %d (want %d)", i, len(res.Candidate), inst.VectorLength())
		}

		fitnesses = append(fitnesses, res.Fitness)
		timesMs = append(timesMs, float64(dur.Microseconds())/1000.0)
		evals = append(evals, res.Evaluations)
	}

	fStats := summarizeRuns(fitnesses)
	tStats := summarizeRuns(timesMs)
	eStats := summarizeEvaluationCounts(evals)

	return Record{
		Algo:     algo.Name,
		Kind:     KindSingle,
		Orders:   c.Orders,
		Stages:   c.Stages,
		Machines: c.Machines,
		Runs:     r.Runs,

		TimeBestMs: tStats.Best,
		TimeMeanMs: tStats.Mean,
		TimeStdMs:  tStats.Std,

		EvaluationsMean: eStats.Mean,

		FitnessBest: fStats.Best,
		FitnessMean: fStats.Mean,
		FitnessStd:  fStats.Std,
		FitnessCV:   fStats.CV,
	}, nil
}

func (r Runner) runMulti(ctx context.Context, c Case, algo Algorithm) (Record, error) {
	inst := c.buildInstance()

	tardiness := make([]float64, 0, r.Runs)
	timesMs := make([]float64, 0, r.Runs)
	evals := make([]int, 0, r.Runs)
	frontSizes := make([]float64, 0, r.Runs)
	bestFrontSize := 0

	for i := 0; i < r.Runs; i++ {
		runSeed := r.BaseSeed + int64(i)
		op := algo.MultiFactory(runSeed)

		runCtx, cancel := r.withTimeout(ctx)
		start := time.Now()
		res, err := op.Solve(runCtx, inst)
		dur := time.Since(start)
		cancel()

		if err != nil && runCtx.Err() != nil {
			return Record{}, fmt.Errorf("run %d: cancelled/timeout: %w", i, err)
		}
		if err != nil {
			return Record{}, fmt.Errorf("run %d: solve error: %w", i, err)
		}
		if len(res.Front) == 0 {
			return Record{}, fmt.Errorf("run %d: empty pareto front", i)
		}

		t := res.Representatives.MinTardiness.Objectives[0]
		tardiness = append(tardiness, t)
		timesMs = append(timesMs, float64(dur.Microseconds())/1000.0)
		evals = append(evals, res.Evaluations)
		frontSizes = append(frontSizes, float64(len(res.Front)))
		if len(res.Front) > bestFrontSize {
			bestFrontSize = len(res.Front)
		}
	}

	tStats := summarizeRuns(tardiness)
	timeStats := summarizeRuns(timesMs)
	eStats := summarizeEvaluationCounts(evals)
	fsStats := summarizeRuns(frontSizes)

	return Record{
		Algo:     algo.Name,
		Kind:     KindMulti,
		Orders:   c.Orders,
		Stages:   c.Stages,
		Machines: c.Machines,
		Runs:     r.Runs,

		TimeBestMs: timeStats.Best,
		TimeMeanMs: timeStats.Mean,
		TimeStdMs:  timeStats.Std,

		EvaluationsMean: eStats.Mean,

		TardinessBest:     tStats.Best,
		TardinessMean:     tStats.Mean,
		TardinessCV:       tStats.CV,
		FrontSizeMean:     fsStats.Mean,
		FrontSizeBestSeed: bestFrontSize,
	}, nil
}

func (r Runner) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.PerRunTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.PerRunTimeout)
}

func WriteCSV(path string, records []Record) error {
	if dir := outputDir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"algo", "kind", "orders", "stages", "machines", "runs",
		"time_best_ms", "time_mean_ms", "time_std_ms", "evaluations_mean",
		"fitness_best", "fitness_mean", "fitness_std", "fitness_cv",
		"tardiness_best", "tardiness_mean", "tardiness_cv", "front_size_mean", "front_size_best_seed",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range records {
		row := []string{
			r.Algo,
			string(r.Kind),
			formatInt(r.Orders),
			formatInt(r.Stages),
			formatInt(r.Machines),
			formatInt(r.Runs),

			formatFloat(r.TimeBestMs),
			formatFloat(r.TimeMeanMs),
			formatFloat(r.TimeStdMs),
			formatFloat(r.EvaluationsMean),

			formatFloat(r.FitnessBest),
			formatFloat(r.FitnessMean),
			formatFloat(r.FitnessStd),
			formatFloat(r.FitnessCV),

			formatFloat(r.TardinessBest),
			formatFloat(r.TardinessMean),
			formatFloat(r.TardinessCV),
			formatFloat(r.FrontSizeMean),
			formatInt(r.FrontSizeBestSeed),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}
