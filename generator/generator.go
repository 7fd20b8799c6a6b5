// Package generator drives level evolution one tick at a time: it feeds each
// genome of the current generation to the evaluation scheduler, ranks the
// generation once every genome has a fitness, and breeds the next one until
// the configured number of generations has been evaluated.
package generator

import (
	"fmt"

	"github.com/pthm-cable/siege/evaluation"
	"github.com/pthm-cable/siege/genetic"
	"github.com/pthm-cable/siege/level"
)

// Phase is the generator's lifecycle phase.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseEvolving
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseEvolving:
		return "evolving"
	case PhaseFinished:
		return "finished"
	}
	return "idle"
}

// Observer receives progress notifications. Implementations must not retain
// the population slice.
type Observer interface {
	OnEvaluation(generation int, res evaluation.Result)
	OnGeneration(r genetic.Ranking, population []genetic.Genome[level.Genome])
}

// Options configures optional generator behaviour.
type Options struct {
	Observers []Observer
	// OnFinish is called once with the best genome after the last generation
	// has been ranked and the genome has been placed for display.
	OnFinish func(best genetic.Genome[level.Genome])
	// DisplayBest decodes the best genome into the oracle when evolution ends.
	DisplayBest bool
}

// Generator owns the generation and genome cursors.
type Generator struct {
	engine    *genetic.Engine[level.Genome]
	scheduler *evaluation.Scheduler
	table     *evaluation.Table
	oracle    evaluation.Oracle
	opts      Options

	phase  Phase
	cursor int
	best   genetic.Genome[level.Genome]
	last   genetic.Ranking
}

// New creates a generator. The engine's Fitness strategy must read from
// table, which the scheduler fills.
func New(engine *genetic.Engine[level.Genome], scheduler *evaluation.Scheduler, oracle evaluation.Oracle, opts Options) *Generator {
	return &Generator{
		engine:    engine,
		scheduler: scheduler,
		table:     scheduler.Table(),
		oracle:    oracle,
		opts:      opts,
	}
}

// Start creates a random initial population.
func (g *Generator) Start() error {
	if err := g.engine.StartEvolution(); err != nil {
		return fmt.Errorf("starting evolution: %w", err)
	}
	g.begin()
	return nil
}

// StartFromSeeds fills the initial population from a level set.
func (g *Generator) StartFromSeeds(seeds []level.Genome) error {
	if err := g.engine.StartEvolutionFromSeeds(seeds); err != nil {
		return fmt.Errorf("starting evolution from seeds: %w", err)
	}
	g.begin()
	return nil
}

func (g *Generator) begin() {
	g.scheduler.Abort()
	g.table.Reset()
	g.cursor = 0
	g.phase = PhaseEvolving
}

// Update advances the generator by one tick. It returns an error only for
// broken invariants; an infeasible level is a normal outcome.
func (g *Generator) Update() error {
	if g.phase != PhaseEvolving {
		return nil
	}

	if g.scheduler.State() == evaluation.Idle {
		genome, err := g.engine.NthGenome(g.cursor)
		if err != nil {
			return err
		}
		if err := g.scheduler.Begin(g.cursor, genome.Genes); err != nil {
			return err
		}
	}

	res, done := g.scheduler.Poll()
	if !done {
		return nil
	}
	return g.evaluated(res)
}

// SkipGenome ends the current evaluation early and scores it infeasible.
func (g *Generator) SkipGenome() error {
	if g.phase != PhaseEvolving {
		return nil
	}
	res, ok := g.scheduler.Skip()
	if !ok {
		return nil
	}
	return g.evaluated(res)
}

func (g *Generator) evaluated(res evaluation.Result) error {
	for _, o := range g.opts.Observers {
		o.OnEvaluation(g.engine.Generation(), res)
	}

	g.cursor++
	if g.cursor < g.engine.Config().PopulationSize {
		return nil
	}
	return g.endGeneration()
}

func (g *Generator) endGeneration() error {
	ranking, err := g.engine.RankPopulation()
	if err != nil {
		return err
	}
	g.last = ranking

	pop := g.engine.Population()
	for _, o := range g.opts.Observers {
		o.OnGeneration(ranking, pop)
	}

	if g.engine.LastGeneration() {
		g.finish()
		return nil
	}

	if err := g.engine.CreateNextGeneration(); err != nil {
		return err
	}
	g.table.Reset()
	g.cursor = 0
	return nil
}

func (g *Generator) finish() {
	best, err := g.engine.Best()
	if err != nil {
		// The population is never empty once started
		panic(err)
	}
	g.best = genetic.Genome[level.Genome]{Genes: best.Genes.Clone(), Fitness: best.Fitness}
	g.phase = PhaseFinished

	if g.opts.DisplayBest {
		g.oracle.Clear()
		g.oracle.PlaceActors(g.best.Genes.Columns, g.best.Genes.Budget)
	}
	if g.opts.OnFinish != nil {
		g.opts.OnFinish(g.best)
	}
}

// Done reports whether every generation has been evaluated.
func (g *Generator) Done() bool { return g.phase == PhaseFinished }

// Best returns the final best genome. ok is false until Done.
func (g *Generator) Best() (genetic.Genome[level.Genome], bool) {
	return g.best, g.phase == PhaseFinished
}

// Phase returns the lifecycle phase.
func (g *Generator) Phase() Phase { return g.phase }

// GenerationIndex is the zero-based generation being evaluated.
func (g *Generator) GenerationIndex() int { return g.engine.Generation() }

// GenomeIndex is the slot being evaluated within the generation.
func (g *Generator) GenomeIndex() int { return g.cursor }

// LastRanking returns the most recent generation ranking.
func (g *Generator) LastRanking() genetic.Ranking { return g.last }

// Engine exposes the underlying engine.
func (g *Generator) Engine() *genetic.Engine[level.Genome] { return g.engine }

// Scheduler exposes the evaluation scheduler.
func (g *Generator) Scheduler() *evaluation.Scheduler { return g.scheduler }
