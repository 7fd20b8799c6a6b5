package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/jinzhu/copier"

	"github.com/pthm-cable/siege/config"
	"github.com/pthm-cable/siege/generator"
	"github.com/pthm-cable/siege/level"
	"github.com/pthm-cable/siege/telemetry"
	"github.com/pthm-cable/siege/world"
)

// FitnessEvaluator runs headless generator runs and scores parameter sets.
type FitnessEvaluator struct {
	params      *ParamVector
	seeds       []int64
	baseConfig  *config.Config
	feasibility level.FeasibilityOracle // shared by every run; nil unless filtering

	// Best run tracking
	mu             sync.Mutex
	bestFitness    float64
	bestHallOfFame *telemetry.HallOfFame
	lastFeasible   float64 // feasible fraction from the most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator. baseCfg supplies every value
// the parameter vector does not override. feasibility must be set when
// baseCfg filters the initial population, and must be safe for concurrent
// use since seeds run in parallel.
func NewFitnessEvaluator(params *ParamVector, seeds []int64, baseCfg *config.Config, feasibility level.FeasibilityOracle) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		seeds:       seeds,
		baseConfig:  baseCfg,
		feasibility: feasibility,
		bestFitness: math.Inf(1),
	}
}

// BestHallOfFame returns the hall of fame from the best evaluation.
func (fe *FitnessEvaluator) BestHallOfFame() *telemetry.HallOfFame {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestHallOfFame
}

// LastFeasible returns the feasible fraction from the most recent evaluation.
func (fe *FitnessEvaluator) LastFeasible() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastFeasible
}

// runResult holds the results from a single generator run.
type runResult struct {
	best       float64 // best level fitness, -1 when nothing was feasible
	feasible   float64 // feasible fraction of the final generation
	hallOfFame *telemetry.HallOfFame
	err        error
}

// Evaluate computes fitness for a parameter vector (lower = better). It is
// the negated mean best level fitness across seeds, so runs that find
// richer solvable levels score lower.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]runResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runGenerator(x, s)
		}(i, seed)
	}
	wg.Wait()

	var total, feasible float64
	var bestSeed = math.Inf(-1)
	var bestSeedHall *telemetry.HallOfFame
	for i, r := range results {
		if r.err != nil {
			// A broken configuration is as bad as no feasible level
			slog.Warn("generator_run_failed", "seed", fe.seeds[i], "error", r.err)
			total += -1
			continue
		}
		total += r.best
		feasible += r.feasible
		if r.best > bestSeed {
			bestSeed = r.best
			bestSeedHall = r.hallOfFame
		}
	}

	n := float64(len(fe.seeds))
	fitness := -total / n

	fe.mu.Lock()
	defer fe.mu.Unlock()
	fe.lastFeasible = feasible / n
	if fitness < fe.bestFitness {
		fe.bestFitness = fitness
		fe.bestHallOfFame = bestSeedHall
	}
	return fitness
}

// runGenerator evolves levels for one seed with the given parameters.
func (fe *FitnessEvaluator) runGenerator(x []float64, seed int64) runResult {
	cfg, err := fe.copyConfig()
	if err != nil {
		return runResult{err: err}
	}
	fe.params.ApplyToConfig(cfg, x)
	if err := cfg.Recompute(); err != nil {
		return runResult{err: err}
	}

	w := world.New(cfg, seed)
	collector := telemetry.NewCollector(telemetry.CollectorOptions{Seed: seed})
	gen, err := generator.Build(cfg, w, seed, fe.feasibility, generator.Options{
		Observers: []generator.Observer{collector},
	})
	if err != nil {
		return runResult{err: err}
	}
	if err := gen.Start(); err != nil {
		return runResult{err: err}
	}
	if err := generator.Run(context.Background(), gen, w.Step); err != nil {
		return runResult{err: err}
	}

	best, _ := gen.Best()
	result := runResult{best: best.Fitness, hallOfFame: collector.HallOfFame()}
	if history := collector.History(); len(history) > 0 {
		last := history[len(history)-1]
		if n := last.Feasible + last.Infeasible; n > 0 {
			result.feasible = float64(last.Feasible) / float64(n)
		}
	}
	return result
}

// copyConfig creates a deep copy of the base config.
func (fe *FitnessEvaluator) copyConfig() (*config.Config, error) {
	var cfg config.Config
	if err := copier.CopyWithOption(&cfg, fe.baseConfig, copier.Option{DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("copying config: %w", err)
	}
	return &cfg, nil
}
