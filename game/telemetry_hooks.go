package game

import (
	"log/slog"

	"github.com/pthm-cable/siege/genetic"
	"github.com/pthm-cable/siege/level"
)

// onFinish runs once after the last generation has been ranked. The best
// level is already placed in the world when the generator displays it.
func (g *Game) onFinish(best genetic.Genome[level.Genome]) {
	g.timeScale = 1
	g.world.SetLauncherEnabled(false)

	slog.Info("evolution_finished",
		"generations", g.gen.GenerationIndex()+1,
		"best_fitness", best.Fitness,
		"budget", best.Genes.Budget,
		"columns", len(best.Genes.Columns),
		"targets", best.Genes.Count(level.KindTarget),
		"blocks", best.Genes.Count(level.KindBlock),
	)

	g.archiveFinalGeneration()

	if err := g.collector.Finish(best); err != nil {
		slog.Error("writing run artifacts", "error", err)
	}
}

// archiveFinalGeneration stores the top levels of the last generation.
func (g *Game) archiveFinalGeneration() {
	if g.archive == nil || g.cfg.Archive.SaveTopN <= 0 {
		return
	}

	ranked := g.gen.Engine().Population()
	genetic.SortByFitness(ranked)

	n, err := g.archive.SaveRanked(g.runID, g.gen.GenerationIndex(), ranked, g.cfg.Archive.SaveTopN)
	if err != nil {
		slog.Error("archiving levels", "error", err)
		return
	}
	slog.Info("levels_archived", "run_id", g.runID, "count", n, "path", g.cfg.Archive.Path)
}
