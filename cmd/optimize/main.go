// Package main provides CMA-ES optimization for finding generator parameters
// that evolve rich, solvable levels.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/siege/classifier"
	"github.com/pthm-cable/siege/config"
	"github.com/pthm-cable/siege/level"
)

// logRow is one line of optimize_log.csv. Fields follow ParamVector order.
type logRow struct {
	Eval             int     `csv:"eval"`
	Fitness          float64 `csv:"fitness"`
	Feasible         float64 `csv:"feasible"`
	MutationRate     float64 `csv:"mutation_rate"`
	TournamentSize   float64 `csv:"tournament_size"`
	MaxStackHeight   float64 `csv:"max_stack_height"`
	MaxBudget        float64 `csv:"max_budget"`
	DecorationChance float64 `csv:"decoration_chance"`
}

func newLogRow(eval int, fitness, feasible float64, p []float64) logRow {
	return logRow{
		Eval:             eval,
		Fitness:          fitness,
		Feasible:         feasible,
		MutationRate:     p[0],
		TournamentSize:   p[1],
		MaxStackHeight:   p[2],
		MaxBudget:        p[3],
		DecorationChance: p[4],
	}
}

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	maxTicks := flag.Int("max-ticks", 1800, "Evaluation tick limit per level")
	generations := flag.Int("generations", 5, "Generations per generator run")
	popSize := flag.Int("pop", 10, "Generator population size")
	seeds := flag.Int("seeds", 3, "Number of seeds per evaluation")
	maxEvals := flag.Int("max-evals", 100, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}

	// Generator runs log every generation; keep only problems
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	baseCfg := config.Cfg()
	baseCfg.Evaluation.MaxTicks = *maxTicks
	baseCfg.Evolution.Generations = *generations
	baseCfg.Evolution.PopulationSize = *popSize

	params := NewParamVector()

	evalSeeds := make([]int64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}

	// The model is read-only once parsed, so parallel runs share it
	var feasibility level.FeasibilityOracle
	if baseCfg.Evolution.FilterFeasible {
		model, err := classifier.Load(baseCfg.Classifier.ModelPath)
		if err != nil {
			log.Fatalf("failed to load feasibility model: %v", err)
		}
		feasibility = model
	}

	evaluator := NewFitnessEvaluator(params, evalSeeds, baseCfg, feasibility)

	dim := params.Dim()
	initX := params.Normalize(params.ExtractFromConfig(baseCfg))

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			return evaluator.Evaluate(params.Denormalize(x))
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Concurrent:      0, // Sequential evaluation; seeds already run in parallel
	}

	cmaPop := *population
	if cmaPop == 0 {
		cmaPop = 4 + int(3.0*float64(dim)/2.0)
	}

	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   cmaPop,
	}

	logPath := filepath.Join(*outputDir, "optimize_log.csv")
	logFile, err := os.Create(logPath)
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer logFile.Close()

	evalCount := 0
	bestFitness := 1e9
	var bestParams []float64
	startTime := time.Now()

	// Wrap the function to log evaluations
	originalFunc := problem.Func
	problem.Func = func(x []float64) float64 {
		fitness := originalFunc(x)
		evalCount++

		clamped := params.Clamp(params.Denormalize(x))
		if fitness < bestFitness {
			bestFitness = fitness
			bestParams = clamped
		}

		rows := []logRow{newLogRow(evalCount, fitness, evaluator.LastFeasible(), clamped)}
		var werr error
		if evalCount == 1 {
			werr = gocsv.Marshal(rows, logFile)
		} else {
			werr = gocsv.MarshalWithoutHeaders(rows, logFile)
		}
		if werr != nil {
			log.Printf("failed to write log row: %v", werr)
		}

		elapsed := time.Since(startTime)
		avgPerEval := elapsed / time.Duration(evalCount)
		remaining := time.Duration(*maxEvals-evalCount) * avgPerEval

		fmt.Printf("Eval %d/%d: best level=%.1f feasible=%.0f%% (best=%.1f) | elapsed: %s, ETA: %s\n",
			evalCount, *maxEvals, -fitness, evaluator.LastFeasible()*100, -bestFitness,
			formatDuration(elapsed), formatDuration(remaining))

		return fitness
	}

	fmt.Printf("Starting CMA-ES optimization with %d parameters, population=%d, max_evals=%d\n",
		dim, cmaPop, *maxEvals)
	fmt.Printf("Seeds per evaluation: %d, generator: %d x %d, ticks per level: %d\n",
		*seeds, *generations, *popSize, *maxTicks)

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}

	// Use best params found (may be from any evaluation, not just final)
	if bestParams == nil && result != nil {
		bestParams = params.Clamp(params.Denormalize(result.X))
	}
	if bestParams == nil {
		log.Fatal("no evaluations completed")
	}

	fmt.Printf("\nOptimization complete after %d evaluations in %s\n", evalCount, formatDuration(time.Since(startTime)))
	fmt.Printf("Best mean level fitness: %.1f\n", -bestFitness)

	fmt.Println("\nBest parameters:")
	for i, spec := range params.Specs {
		fmt.Printf("  %s (%s): %.4f\n", spec.Name, spec.Path, bestParams[i])
	}

	// Save best config on top of the user's base file, keeping the user's
	// run length rather than the shortened optimization runs
	bestCfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to reload config: %v", err)
	}
	params.ApplyToConfig(bestCfg, bestParams)

	configOutPath := filepath.Join(*outputDir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configOutPath); err != nil {
		log.Printf("failed to write best config: %v", err)
	} else {
		fmt.Printf("\nBest config saved to: %s\n", configOutPath)
	}

	if hof := evaluator.BestHallOfFame(); hof != nil && hof.Size() > 0 {
		hofPath := filepath.Join(*outputDir, "hall_of_fame.json")
		data, err := hof.MarshalJSON()
		if err != nil {
			log.Printf("failed to marshal hall of fame: %v", err)
		} else if err := os.WriteFile(hofPath, data, 0644); err != nil {
			log.Printf("failed to write hall of fame: %v", err)
		} else {
			fmt.Printf("Hall of fame saved to: %s\n", hofPath)
		}
	}
}
