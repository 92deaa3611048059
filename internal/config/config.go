// Package config holds the run configuration for both search engines,
// following the teacher's per-algorithm Config shape: a plain struct, a
// Validate() error method spelling out every precondition, and a
// DefaultConfig() constructor.
package config

import (
	"fmt"

	"flexflow/internal/objective"
)

// Selection, Crossover, and Mutation name the operator families
// recognized by Run configuration (spec.md §6). Only one concrete
// operator is implemented per search engine in this core, but the names
// are part of the accepted configuration surface.
type Selection string
type Crossover string
type Mutation string

const (
	SelectionTournament Selection = "tournament"

	CrossoverUniform Crossover = "uniform"
	CrossoverSBX     Crossover = "sbx"

	MutationRandomReset Mutation = "random-reset"
	MutationPolynomial  Mutation = "polynomial"
)

// PriorityProfile selects which externally-applied priority-string to
// weight mapping produced the Instance's Order.Weight values. The core
// never parses priority strings itself (that belongs to the out-of-scope
// loader); this only names which profile a caller used. No RunConfig or
// MOConfig field holds it and nothing in the core reads it; the "urgent"
// threshold is set separately in Weights.UrgentThreshold.
type PriorityProfile string

const (
	// PriorityProfileStandard maps "P1"/"紧急" -> 1.2, "P4"/"低" -> 0.8.
	PriorityProfileStandard PriorityProfile = "standard"
	// PriorityProfileAlternate maps "P1"/"紧急" -> 1.4, "P4"/"低" -> 0.8.
	PriorityProfileAlternate PriorityProfile = "alternate"
)

// RunConfig configures the single-objective adaptive evolutionary search
// (internal/ga).
type RunConfig struct {
	PopulationSize     int
	Generations        int
	CrossoverRate      float64
	MutationRate       float64
	TournamentFraction float64 // k_frac, default 0.2, minimum 2 candidates
	Elitism            int     // 0 or 1

	Selection Selection
	Crossover Crossover
	Mutation  Mutation

	Weights objective.Weights

	// LocalSearchRadius bounds the adjacent-gene-swap local search in
	// generation step 4; 0 means "derive min(2*O*S-1, 200) from the
	// instance", the spec's default.
	LocalSearchRadius int

	HorizonBufferDays float64
	Seed              int64
}

// DefaultRunConfig returns the defaults named in spec.md §4.5/§6.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		PopulationSize:     100,
		Generations:        100,
		CrossoverRate:      0.9,
		MutationRate:       0.1,
		TournamentFraction: 0.2,
		Elitism:            1,
		Selection:          SelectionTournament,
		Crossover:          CrossoverUniform,
		Mutation:           MutationRandomReset,
		Weights:            objective.DefaultWeights(),
		LocalSearchRadius:  0,
		HorizonBufferDays:  30,
		Seed:               1,
	}
}

func (c RunConfig) Validate() error {
	if c.PopulationSize <= 1 {
		return fmt.Errorf("population size must be > 1, got %d", c.PopulationSize)
	}
	if c.Generations <= 0 {
		return fmt.Errorf("generations must be > 0, got %d", c.Generations)
	}
	if c.CrossoverRate < 0 || c.CrossoverRate > 1 {
		return fmt.Errorf("crossover rate must be in [0,1], got %f", c.CrossoverRate)
	}
	if c.MutationRate < 0 || c.MutationRate > 1 {
		return fmt.Errorf("mutation rate must be in [0,1], got %f", c.MutationRate)
	}
	if c.TournamentFraction <= 0 || c.TournamentFraction > 1 {
		return fmt.Errorf("tournament fraction must be in (0,1], got %f", c.TournamentFraction)
	}
	if c.Elitism < 0 || c.Elitism > 1 {
		return fmt.Errorf("elitism must be 0 or 1, got %d", c.Elitism)
	}
	if c.LocalSearchRadius < 0 {
		return fmt.Errorf("local search radius must be >= 0, got %d", c.LocalSearchRadius)
	}
	if c.HorizonBufferDays <= 0 {
		return fmt.Errorf("horizon buffer days must be > 0, got %f", c.HorizonBufferDays)
	}
	return nil
}

// TournamentSize resolves k_frac into an absolute tournament size,
// enforcing the spec's minimum of 2.
func (c RunConfig) TournamentSize(populationSize int) int {
	k := int(float64(populationSize)*c.TournamentFraction + 0.9999999)
	if k < 2 {
		k = 2
	}
	if k > populationSize {
		k = populationSize
	}
	return k
}

// MOConfig configures the NSGA-II multi-objective search (internal/nsga2).
type MOConfig struct {
	PopulationSize int // mu
	Generations    int
	CrossoverRate  float64 // p_c, default 0.9
	MutationRate   float64 // p_m; 0 means "derive 1/chromosome_length"
	EtaCrossover   float64 // SBX distribution index, default 20
	EtaMutation    float64 // polynomial mutation distribution index, default 20

	Weights objective.Weights

	HorizonBufferDays float64
	Seed              int64
}

// DefaultMOConfig returns the defaults named in spec.md §4.6/§6.
func DefaultMOConfig() MOConfig {
	return MOConfig{
		PopulationSize:    80,
		Generations:       200,
		CrossoverRate:     0.9,
		MutationRate:      0,
		EtaCrossover:      20,
		EtaMutation:       20,
		Weights:           objective.DefaultWeights(),
		HorizonBufferDays: 30,
		Seed:              1,
	}
}

func (c MOConfig) Validate() error {
	if c.PopulationSize <= 1 {
		return fmt.Errorf("population size must be > 1, got %d", c.PopulationSize)
	}
	if c.Generations <= 0 {
		return fmt.Errorf("generations must be > 0, got %d", c.Generations)
	}
	if c.CrossoverRate < 0 || c.CrossoverRate > 1 {
		return fmt.Errorf("crossover rate must be in [0,1], got %f", c.CrossoverRate)
	}
	if c.MutationRate < 0 || c.MutationRate > 1 {
		return fmt.Errorf("mutation rate must be in [0,1], got %f", c.MutationRate)
	}
	if c.EtaCrossover <= 0 {
		return fmt.Errorf("eta crossover must be > 0, got %f", c.EtaCrossover)
	}
	if c.EtaMutation <= 0 {
		return fmt.Errorf("eta mutation must be > 0, got %f", c.EtaMutation)
	}
	if c.HorizonBufferDays <= 0 {
		return fmt.Errorf("horizon buffer days must be > 0, got %f", c.HorizonBufferDays)
	}
	return nil
}

// MutationRateFor resolves MutationRate into an absolute per-gene
// probability, deriving 1/chromosomeLength when unset.
func (c MOConfig) MutationRateFor(chromosomeLength int) float64 {
	if c.MutationRate > 0 {
		return c.MutationRate
	}
	return 1.0 / float64(chromosomeLength)
}
