// Package game runs the level generator, either headless or inside a raylib
// window that shows every evaluation as it plays out.
package game

import (
	"context"
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/siege/archive"
	"github.com/pthm-cable/siege/camera"
	"github.com/pthm-cable/siege/classifier"
	"github.com/pthm-cable/siege/config"
	"github.com/pthm-cable/siege/evaluation"
	"github.com/pthm-cable/siege/generator"
	"github.com/pthm-cable/siege/genetic"
	"github.com/pthm-cable/siege/level"
	"github.com/pthm-cable/siege/renderer"
	"github.com/pthm-cable/siege/telemetry"
	"github.com/pthm-cable/siege/ui"
	"github.com/pthm-cable/siege/world"
)

// Options configures a game instance.
type Options struct {
	Seed      int64
	OutputDir string
	Headless  bool

	// SeedSource names where the initial population comes from: empty for
	// random levels, "archive" for the configured level archive, or a path
	// to an archive database, a snapshot or a hall of fame file.
	SeedSource string

	// MetricsAddr overrides the configured Prometheus listen address.
	MetricsAddr string

	// Patience is the number of generations without improvement before a
	// stagnation bookmark fires.
	Patience int
}

// Game holds the complete application state.
type Game struct {
	cfg  *config.Config
	opts Options

	world     *world.World
	gen       *generator.Generator
	collector *telemetry.Collector
	output    *telemetry.OutputManager
	metrics   *telemetry.Metrics
	perf      *telemetry.PerfCollector
	archive   *archive.Archive
	runID     string

	cancel context.CancelFunc

	// Rendering (nil when headless)
	camera *camera.Camera
	levels *renderer.LevelRenderer
	hud    *ui.HUD

	// State
	tick      int
	paused    bool
	timeScale int
	last      evaluation.Result
	hasLast   bool
	bestSoFar float64
	hasBest   bool
	err       error

	screenWidth, screenHeight float32
}

// NewGameWithOptions wires a game from the global configuration and starts
// evolution.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := config.Cfg()
	ctx, cancel := context.WithCancel(context.Background())

	g := &Game{
		cfg:       cfg,
		opts:      opts,
		cancel:    cancel,
		timeScale: max(cfg.Evaluation.TimeScale, 1),
	}
	if err := g.setup(ctx); err != nil {
		g.Unload()
		return nil, err
	}

	if !opts.Headless {
		g.screenWidth = float32(cfg.Screen.Width)
		g.screenHeight = float32(cfg.Screen.Height)
		g.camera = camera.New(g.screenWidth, g.screenHeight, cfg.Derived.WorldW32, cfg.Derived.WorldH32)
		g.levels = renderer.NewLevelRenderer(cfg)
		g.hud = ui.NewHUD()
	}

	if err := g.start(); err != nil {
		g.Unload()
		return nil, err
	}
	return g, nil
}

func (g *Game) setup(ctx context.Context) error {
	cfg := g.cfg

	output, err := telemetry.NewOutputManager(g.opts.OutputDir)
	if err != nil {
		return err
	}
	g.output = output
	if err := g.output.WriteConfig(cfg); err != nil {
		return err
	}

	addr := cfg.Telemetry.MetricsAddr
	if g.opts.MetricsAddr != "" {
		addr = g.opts.MetricsAddr
	}
	if addr != "" {
		g.metrics = telemetry.NewMetrics()
		g.metrics.Serve(ctx, addr)
	}

	if cfg.Archive.Path != "" {
		a, err := archive.Open(cfg.Archive.Path)
		if err != nil {
			return err
		}
		g.archive = a
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}
		if g.runID, err = a.StartRun(g.opts.Seed, data); err != nil {
			return err
		}
	}

	g.world = world.New(cfg, g.opts.Seed)
	if cfg.Telemetry.PerfEvery > 0 {
		g.perf = telemetry.NewPerfCollector(cfg.Telemetry.PerfEvery)
		g.world.SetPerf(g.perf)
	}

	g.collector = telemetry.NewCollector(telemetry.CollectorOptions{
		Output:            g.output,
		Metrics:           g.metrics,
		Patience:          g.opts.Patience,
		LogEvaluations:    cfg.Telemetry.LogEvaluations,
		SnapshotBookmarks: g.output != nil,
		Seed:              g.opts.Seed,
		SkipPlot:          !cfg.Telemetry.Plot,
	})

	var feasibility level.FeasibilityOracle
	if cfg.Evolution.FilterFeasible {
		model, err := classifier.Load(cfg.Classifier.ModelPath)
		if err != nil {
			return err
		}
		feasibility = model
	}

	gen, err := generator.Build(cfg, g.world, g.opts.Seed, feasibility, generator.Options{
		Observers:   []generator.Observer{g.collector, g},
		OnFinish:    g.onFinish,
		DisplayBest: !g.opts.Headless,
	})
	if err != nil {
		return err
	}
	g.gen = gen
	return nil
}

// Update handles input and runs TimeScale simulation steps.
func (g *Game) Update() {
	g.handleInput()
	if g.paused {
		return
	}
	steps := g.timeScale
	if g.gen.Done() {
		steps = 1
	}
	for i := 0; i < steps; i++ {
		g.step()
	}
	if g.perf != nil {
		g.perf.RecordFrame()
	}
}

// RunHeadless drives evolution to completion or until ctx is cancelled.
func (g *Game) RunHeadless(ctx context.Context) error {
	if err := generator.Run(ctx, g.gen, g.stepWorld); err != nil {
		return err
	}
	return g.err
}

// step advances the world and then the generator by one tick.
func (g *Game) step() {
	g.stepWorld()
	if g.gen.Done() {
		return
	}
	if err := g.gen.Update(); err != nil {
		g.fail(err)
	}
}

// stepWorld runs one physics tick. The generator update that follows is
// timed as the evaluation phase.
func (g *Game) stepWorld() {
	g.world.Step()
	g.tick++
	if g.perf == nil {
		return
	}
	g.perf.StartPhase(telemetry.PhaseEvaluation)
	if g.tick%g.cfg.Telemetry.PerfEvery == 0 {
		g.collector.PerfWindow(g.perf.Stats(), g.tick)
	}
}

// skipGenome abandons the level being evaluated.
func (g *Game) skipGenome() {
	if err := g.gen.SkipGenome(); err != nil {
		g.fail(err)
	}
}

func (g *Game) fail(err error) {
	if g.err == nil {
		g.err = err
		slog.Error("generator_failed", "error", err)
	}
}

// OnEvaluation tracks the latest result for the HUD.
func (g *Game) OnEvaluation(_ int, res evaluation.Result) {
	g.last = res
	g.hasLast = true
	if !g.hasBest || res.Fitness > g.bestSoFar {
		g.bestSoFar = res.Fitness
		g.hasBest = true
	}
}

// OnGeneration implements generator.Observer.
func (g *Game) OnGeneration(genetic.Ranking, []genetic.Genome[level.Genome]) {}

// Tick returns the number of simulation steps taken.
func (g *Game) Tick() int { return g.tick }

// Done reports whether evolution has finished.
func (g *Game) Done() bool { return g.gen.Done() }

// Err returns the first error that stopped the generator.
func (g *Game) Err() error { return g.err }

// Generator exposes the underlying generator.
func (g *Game) Generator() *generator.Generator { return g.gen }

// Collector exposes the telemetry collector.
func (g *Game) Collector() *telemetry.Collector { return g.collector }

// Unload releases the archive, output files and metrics server.
func (g *Game) Unload() {
	if g.cancel != nil {
		g.cancel()
	}
	if err := g.output.Close(); err != nil {
		slog.Error("closing output", "error", err)
	}
	if g.archive != nil {
		if err := g.archive.Close(); err != nil {
			slog.Error("closing archive", "error", err)
		}
	}
}
