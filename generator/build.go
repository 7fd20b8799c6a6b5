package generator

import (
	"context"
	"log/slog"

	"github.com/pthm-cable/siege/config"
	"github.com/pthm-cable/siege/evaluation"
	"github.com/pthm-cable/siege/genetic"
	"github.com/pthm-cable/siege/level"
)

// CodecFromConfig builds the level codec described by cfg.
func CodecFromConfig(cfg *config.Config) *level.Codec {
	rules := level.NewRandomStacks(level.StackRules{
		MaxHeight:        cfg.Level.MaxStackHeight,
		Shapes:           len(cfg.Shapes),
		Materials:        cfg.Derived.LevelMaterials,
		DecorationChance: cfg.Level.DecorationChance,
		MaxOffset:        cfg.Level.MaxOffset,
		BuriedTargets:    cfg.Level.BuriedTargets,
	})
	return level.NewCodec(level.CodecConfig{
		MinColumns:  cfg.Level.MinColumns,
		MaxColumns:  cfg.Level.MaxColumns,
		MinBudget:   cfg.Level.MinBudget,
		MaxBudget:   cfg.Level.MaxBudget,
		ClampBudget: cfg.Level.ClampBudget,
	}, rules)
}

// EngineConfig maps the evolution section of cfg onto the engine.
func EngineConfig(cfg *config.Config, seed int64) genetic.Config {
	ev := cfg.Evolution
	return genetic.Config{
		CrossoverRate:   ev.CrossoverRate,
		MutationRate:    ev.MutationRate,
		PopulationSize:  ev.PopulationSize,
		Generations:     ev.Generations,
		Elitism:         ev.Elitism,
		TournamentSize:  ev.TournamentSize,
		FilterFeasible:  ev.FilterFeasible,
		MaxInitAttempts: ev.MaxInitAttempts,
		Seed:            seed,
	}
}

// Strategies binds the codec, the fitness table and an optional
// feasibility oracle into engine strategies.
func Strategies(codec *level.Codec, table *evaluation.Table, feasibility level.FeasibilityOracle) genetic.Strategies[level.Genome] {
	s := genetic.Strategies[level.Genome]{
		InitGenome: codec.Init,
		Crossover:  codec.Crossover,
		Mutation:   codec.Mutate,
		Fitness: func(_ level.Genome, index int) float64 {
			if !table.Recorded(index) {
				slog.Warn("fitness_missing", "index", index)
			}
			return table.Lookup(index)
		},
		Clone: level.Genome.Clone,
	}
	if feasibility != nil {
		s.Feasible = func(g level.Genome) bool {
			return feasibility.Classify(g.Describe())
		}
	}
	return s
}

// Build wires a generator for cfg around the given oracle. feasibility may
// be nil unless cfg enables feasibility filtering.
func Build(cfg *config.Config, oracle evaluation.Oracle, seed int64, feasibility level.FeasibilityOracle, opts Options) (*Generator, error) {
	table := evaluation.NewTable(cfg.Evolution.PopulationSize)
	engine, err := genetic.NewEngine(EngineConfig(cfg, seed), Strategies(CodecFromConfig(cfg), table, feasibility))
	if err != nil {
		return nil, err
	}
	scheduler := evaluation.NewScheduler(oracle, table, cfg.Evaluation.MaxTicks)
	return New(engine, scheduler, oracle, opts), nil
}

// Run drives g to completion, calling step before every update. It stops
// early when ctx is cancelled.
func Run(ctx context.Context, g *Generator, step func()) error {
	for !g.Done() {
		if err := ctx.Err(); err != nil {
			return err
		}
		step()
		if err := g.Update(); err != nil {
			return err
		}
	}
	return nil
}
