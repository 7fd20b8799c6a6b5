package genetic

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// ErrNotRanked is returned when breeding is attempted before the current
// population has been ranked.
var ErrNotRanked = errors.New("genetic: population not ranked")

// Config holds the engine parameters. It is fixed once the engine is built.
type Config struct {
	// CrossoverRate is recorded for reporting only. Every selected pair is
	// recombined regardless of its value.
	CrossoverRate float64
	// MutationRate is passed to the Mutation strategy for every child.
	MutationRate float64
	// PopulationSize is the number of genomes per generation.
	PopulationSize int
	// Generations is the exact number of generations a run evaluates.
	Generations int
	// Elitism carries a copy of the best genome into the next generation.
	Elitism bool
	// TournamentSize is the number of draws per selection. Defaults to 2.
	TournamentSize int
	// FilterFeasible rejects initial genomes the Feasible strategy refuses.
	FilterFeasible bool
	// MaxInitAttempts bounds the rejection sampling per slot. Zero means
	// unbounded: an oracle that never accepts stalls the start forever.
	MaxInitAttempts int
	// Seed for the engine's random source (0 for a time based seed).
	Seed int64
}

// Strategies are the problem-specific operators, bound to one engine.
type Strategies[T any] struct {
	// InitGenome creates a fresh random genome.
	InitGenome func(rng *rand.Rand) T
	// Crossover recombines two parents into two new children. Children must
	// not share storage with the parents.
	Crossover func(a, b T, rng *rand.Rand) (T, T)
	// Mutation alters genes in place.
	Mutation func(genes *T, rate float64, rng *rand.Rand)
	// Fitness returns the score of the genome at the given population slot.
	Fitness func(genes T, index int) float64
	// Feasible is only required when Config.FilterFeasible is set.
	Feasible func(genes T) bool
	// Clone deep-copies genes for elitism and seeding. Defaults to DeepCopy.
	Clone func(genes T) T
}

// Ranking is the diagnostic emitted after a generation has been ranked.
type Ranking struct {
	Generation int
	Best       float64
	Worst      float64
	Total      float64
	Mean       float64
}

// Engine runs the generational lifecycle. It does not evaluate genomes
// itself; the Fitness strategy is expected to look up scores recorded
// elsewhere.
type Engine[T any] struct {
	config     Config
	strategies Strategies[T]
	rng        *rand.Rand

	population []Genome[T]
	next       []Genome[T]

	generation   int
	totalFitness float64
	ranked       bool
	ranking      Ranking
}

// NewEngine validates the configuration and strategies and returns an engine
// ready to start.
func NewEngine[T any](cfg Config, strategies Strategies[T]) (*Engine[T], error) {
	var missing []string
	if strategies.InitGenome == nil {
		missing = append(missing, "InitGenome")
	}
	if strategies.Crossover == nil {
		missing = append(missing, "Crossover")
	}
	if strategies.Mutation == nil {
		missing = append(missing, "Mutation")
	}
	if strategies.Fitness == nil {
		missing = append(missing, "Fitness")
	}
	if cfg.FilterFeasible && strategies.Feasible == nil {
		missing = append(missing, "Feasible")
	}
	if len(missing) > 0 {
		return nil, &ConfigurationError{Missing: missing}
	}

	switch {
	case cfg.PopulationSize <= 0:
		return nil, &ConfigurationError{Reason: fmt.Sprintf("population size must be positive, got %d", cfg.PopulationSize)}
	case cfg.Generations <= 0:
		return nil, &ConfigurationError{Reason: fmt.Sprintf("generation count must be positive, got %d", cfg.Generations)}
	case cfg.MutationRate < 0 || cfg.MutationRate > 1:
		return nil, &ConfigurationError{Reason: fmt.Sprintf("mutation rate must be in [0, 1], got %g", cfg.MutationRate)}
	case cfg.MaxInitAttempts < 0:
		return nil, &ConfigurationError{Reason: "max init attempts must not be negative"}
	}

	if cfg.TournamentSize < 1 {
		cfg.TournamentSize = 2
	}
	if strategies.Clone == nil {
		strategies.Clone = DeepCopy[T]
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Engine[T]{
		config:     cfg,
		strategies: strategies,
		rng:        rand.New(rand.NewSource(seed)),
	}, nil
}

// StartEvolution fills a new population from InitGenome. With FilterFeasible
// each slot is resampled until the Feasible strategy accepts it.
func (e *Engine[T]) StartEvolution() error {
	pop := make([]Genome[T], e.config.PopulationSize)
	for i := range pop {
		genes, err := e.initSlot()
		if err != nil {
			return fmt.Errorf("initializing slot %d: %w", i, err)
		}
		pop[i] = Genome[T]{Genes: genes}
	}
	e.reset(pop)
	return nil
}

func (e *Engine[T]) initSlot() (T, error) {
	for attempt := 1; ; attempt++ {
		genes := e.strategies.InitGenome(e.rng)
		if !e.config.FilterFeasible || e.strategies.Feasible(genes) {
			return genes, nil
		}
		if e.config.MaxInitAttempts > 0 && attempt >= e.config.MaxInitAttempts {
			var zero T
			return zero, ErrInitExhausted
		}
	}
}

// StartEvolutionFromSeeds fills slot i with a copy of seeds[i]. Seeds are
// taken as given, without feasibility filtering. Surplus seeds are ignored.
func (e *Engine[T]) StartEvolutionFromSeeds(seeds []T) error {
	if len(seeds) < e.config.PopulationSize {
		return &ConfigurationError{Reason: fmt.Sprintf(
			"%d seeds cannot fill a population of %d", len(seeds), e.config.PopulationSize)}
	}
	pop := make([]Genome[T], e.config.PopulationSize)
	for i := range pop {
		pop[i] = Genome[T]{Genes: e.strategies.Clone(seeds[i])}
	}
	e.reset(pop)
	return nil
}

func (e *Engine[T]) reset(pop []Genome[T]) {
	e.population = pop
	e.next = make([]Genome[T], 0, e.config.PopulationSize+1)
	e.generation = 0
	e.totalFitness = 0
	e.ranked = false
	e.ranking = Ranking{}
}

// RankPopulation scores every slot through the Fitness strategy, then sorts
// the population best first. Slot indices passed to Fitness are the
// unranked positions, i.e. the order NthGenome reported before ranking.
// Ranking an already ranked generation returns the cached result.
func (e *Engine[T]) RankPopulation() (Ranking, error) {
	if e.population == nil {
		return Ranking{}, ErrNotStarted
	}
	if e.ranked {
		return e.ranking, nil
	}

	e.totalFitness = 0
	for i := range e.population {
		f := e.strategies.Fitness(e.population[i].Genes, i)
		e.population[i].Fitness = f
		e.totalFitness += f
	}
	SortByFitness(e.population)

	n := len(e.population)
	e.ranking = Ranking{
		Generation: e.generation,
		Best:       e.population[0].Fitness,
		Worst:      e.population[n-1].Fitness,
		Total:      e.totalFitness,
		Mean:       e.totalFitness / float64(n),
	}
	e.ranked = true
	return e.ranking, nil
}

// TournamentSelection draws k genomes uniformly with replacement and returns
// the fittest. Ties go to the earliest draw.
func (e *Engine[T]) TournamentSelection(k int) (Genome[T], error) {
	n := len(e.population)
	if n == 0 {
		return Genome[T]{}, ErrNotStarted
	}
	if k < 1 {
		k = 1
	}
	best := e.population[e.rng.Intn(n)]
	for i := 1; i < k; i++ {
		candidate := e.population[e.rng.Intn(n)]
		if candidate.Fitness > best.Fitness {
			best = candidate
		}
	}
	return best, nil
}

// CreateNextGeneration breeds a full replacement population from the ranked
// current one and advances the generation counter.
func (e *Engine[T]) CreateNextGeneration() error {
	if e.population == nil {
		return ErrNotStarted
	}
	if !e.ranked {
		return ErrNotRanked
	}

	size := e.config.PopulationSize
	e.next = e.next[:0]
	for len(e.next) < size {
		parentA, err := e.TournamentSelection(e.config.TournamentSize)
		if err != nil {
			return err
		}
		parentB, err := e.TournamentSelection(e.config.TournamentSize)
		if err != nil {
			return err
		}

		childA, childB := e.strategies.Crossover(parentA.Genes, parentB.Genes, e.rng)
		e.strategies.Mutation(&childA, e.config.MutationRate, e.rng)
		e.strategies.Mutation(&childB, e.config.MutationRate, e.rng)

		e.next = append(e.next, Genome[T]{Genes: childA}, Genome[T]{Genes: childB})
	}
	// Odd sizes produce one surplus child
	e.next = e.next[:size]

	if e.config.Elitism {
		slot := e.rng.Intn(size)
		e.next[slot] = Genome[T]{
			Genes:   e.strategies.Clone(e.population[0].Genes),
			Fitness: e.population[0].Fitness,
		}
	}

	// Swap buffers
	e.population, e.next = e.next, e.population
	e.generation++
	e.ranked = false
	e.totalFitness = 0
	return nil
}

// NthGenome returns the genome at position n. Before ranking that is slot
// order; after ranking it is rank order.
func (e *Engine[T]) NthGenome(n int) (Genome[T], error) {
	if n < 0 || n >= len(e.population) {
		return Genome[T]{}, &IndexError{Index: n, Size: len(e.population)}
	}
	return e.population[n], nil
}

// Best returns rank 0 of the ranked population.
func (e *Engine[T]) Best() (Genome[T], error) {
	return e.NthGenome(0)
}

// Worst returns the last rank of the ranked population.
func (e *Engine[T]) Worst() (Genome[T], error) {
	return e.NthGenome(e.config.PopulationSize - 1)
}

// Population returns a copy of the current population slice. Genes are not
// deep-copied.
func (e *Engine[T]) Population() []Genome[T] {
	out := make([]Genome[T], len(e.population))
	copy(out, e.population)
	return out
}

// Generation is the zero-based index of the current generation.
func (e *Engine[T]) Generation() int { return e.generation }

// LastGeneration reports whether the current generation is the final one.
func (e *Engine[T]) LastGeneration() bool {
	return e.generation >= e.config.Generations-1
}

// Config returns the engine configuration with defaults applied.
func (e *Engine[T]) Config() Config { return e.config }
