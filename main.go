package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/siege/config"
	"github.com/pthm-cable/siege/game"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, snapshots and the best level")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	seedSource := flag.String("seeds", "", "Seed the first generation from \"archive\", an archive .db, a snapshot or a hall of fame .json")
	archivePath := flag.String("archive", "", "Level archive database (overrides config)")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus listen address (overrides config)")
	maxTicks := flag.Int("max-ticks", -1, "Evaluation tick limit (-1 = use config, 0 = unlimited)")
	generations := flag.Int("generations", 0, "Number of generations (0 = use config)")
	patience := flag.Int("patience", 5, "Generations without improvement before a stagnation bookmark")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *archivePath != "" {
		cfg.Archive.Path = *archivePath
	}
	if *maxTicks >= 0 {
		cfg.Evaluation.MaxTicks = *maxTicks
	}
	if *generations > 0 {
		cfg.Evolution.Generations = *generations
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	opts := game.Options{
		Seed:        rngSeed,
		OutputDir:   *outputDir,
		Headless:    *headless,
		SeedSource:  *seedSource,
		MetricsAddr: *metricsAddr,
		Patience:    *patience,
	}

	if *headless {
		if err := runHeadless(opts); err != nil {
			slog.Error("run failed", "error", err)
			os.Exit(1)
		}
		return
	}

	// Graphical mode
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Siege Level Generator")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	g, err := game.NewGameWithOptions(opts)
	if err != nil {
		slog.Error("failed to start", "error", err)
		return
	}
	defer g.Unload()

	for !rl.WindowShouldClose() {
		g.Update()
		g.Draw()
		if g.Err() != nil {
			break
		}
	}
}

// runHeadless evolves without a window until done or interrupted.
func runHeadless(opts game.Options) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, err := game.NewGameWithOptions(opts)
	if err != nil {
		return err
	}
	defer g.Unload()

	start := time.Now()
	err = g.RunHeadless(ctx)
	if errors.Is(err, context.Canceled) {
		slog.Info("interrupted", "tick", g.Tick())
		return nil
	}
	if err != nil {
		return err
	}
	slog.Info("headless run complete", "ticks", g.Tick(), "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}
