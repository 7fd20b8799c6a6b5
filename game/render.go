package game

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/siege/ui"
)

// hudBounds is the screen area owned by the HUD panel.
var hudBounds = rl.Rectangle{X: 10, Y: 10, Width: 280, Height: 236}

// Draw renders the level view and the HUD.
func (g *Game) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	g.levels.Draw(g.world, g.camera)

	actions := g.hud.Draw(g.hudData())
	if actions.TogglePause {
		g.paused = !g.paused
	}
	if actions.Skip {
		g.skipGenome()
	}
	g.setTimeScale(actions.TimeScale)

	if best, ok := g.gen.Best(); ok {
		text := fmt.Sprintf("Best level: fitness %.0f, %d shots", best.Fitness, best.Genes.Budget)
		g.hud.DrawBanner(int32(g.screenWidth), text)
	}
	g.hud.DrawControls(int32(g.screenHeight), controlsText)

	rl.EndDrawing()
}

func (g *Game) hudData() ui.HUDData {
	ev := g.cfg.Evolution
	return ui.HUDData{
		Title:       "Siege Level Generator",
		Phase:       g.gen.Phase().String(),
		Generation:  g.gen.GenerationIndex(),
		Generations: ev.Generations,
		Genome:      g.gen.GenomeIndex(),
		Population:  ev.PopulationSize,
		Tick:        g.gen.Scheduler().Ticks(),
		Fired:       g.world.Launcher().Fired(),
		Offensive:   g.world.OffensiveUnitsRemaining(),
		Targets:     g.world.TargetUnitsRemaining(),
		Structural:  g.world.StructuralUnitsRemaining(),
		LastFitness: g.last.Fitness,
		HasLast:     g.hasLast,
		BestFitness: g.bestSoFar,
		HasBest:     g.hasBest,
		TimeScale:   g.timeScale,
		FPS:         rl.GetFPS(),
		Paused:      g.paused,
	}
}

// overHUD reports whether a screen point falls on the HUD panel.
func (g *Game) overHUD(p rl.Vector2) bool {
	return rl.CheckCollisionPointRec(p, hudBounds)
}
