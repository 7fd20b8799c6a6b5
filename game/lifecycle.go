package game

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/siege/archive"
	"github.com/pthm-cable/siege/level"
	"github.com/pthm-cable/siege/telemetry"
)

// SeedSourceArchive selects the configured level archive as seed source.
const SeedSourceArchive = "archive"

// start creates the initial population, from seeds when a source is set.
func (g *Game) start() error {
	if g.opts.SeedSource == "" {
		slog.Info("evolution_started",
			"seed", g.opts.Seed,
			"population", g.cfg.Evolution.PopulationSize,
			"generations", g.cfg.Evolution.Generations,
		)
		return g.gen.Start()
	}

	source, closeFn, err := g.openSeedSource(g.opts.SeedSource)
	if err != nil {
		return err
	}
	defer closeFn()

	seeds, err := source.LoadAllSeeds()
	if err != nil {
		return fmt.Errorf("loading seeds from %s: %w", g.opts.SeedSource, err)
	}
	slog.Info("evolution_started",
		"seed", g.opts.Seed,
		"seed_source", g.opts.SeedSource,
		"seeds", len(seeds),
		"population", g.cfg.Evolution.PopulationSize,
		"generations", g.cfg.Evolution.Generations,
	)
	return g.gen.StartFromSeeds(seeds)
}

// openSeedSource resolves a seed source name. The returned close function is
// never nil.
func (g *Game) openSeedSource(name string) (level.SeedSource, func(), error) {
	noop := func() {}

	if name == SeedSourceArchive {
		if g.archive == nil {
			return nil, noop, errors.New("seed source archive requires archive.path")
		}
		return g.archive, noop, nil
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".db", ".sqlite", ".sqlite3":
		a, err := archive.Open(name)
		if err != nil {
			return nil, noop, err
		}
		return a, func() {
			if err := a.Close(); err != nil {
				slog.Error("closing seed archive", "error", err)
			}
		}, nil
	case ".json":
		return loadJSONSeeds(name)
	}
	return nil, noop, fmt.Errorf("unrecognized seed source %q", name)
}

// loadJSONSeeds accepts either a snapshot or a hall of fame file.
func loadJSONSeeds(path string) (level.SeedSource, func(), error) {
	noop := func() {}
	snap, snapErr := telemetry.LoadSnapshot(path)
	if snapErr == nil {
		return snap, noop, nil
	}
	hall, hallErr := telemetry.LoadHallOfFameFromFile(path)
	if hallErr == nil {
		return hall, noop, nil
	}
	return nil, noop, errors.Join(snapErr, hallErr)
}
