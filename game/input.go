package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/siege/ui"
)

// controlsText is the key legend shown at the bottom of the screen.
const controlsText = "SPACE pause | < > speed | S skip | arrows pan | wheel/+/- zoom | HOME reset | click fire (final level)"

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	g.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
	}

	// Time scale with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) {
		g.setTimeScale(g.timeScale / 2)
	}
	if rl.IsKeyPressed(rl.KeyPeriod) {
		g.setTimeScale(g.timeScale * 2)
	}

	if rl.IsKeyPressed(rl.KeyS) {
		g.skipGenome()
	}

	g.handleCameraInput()
	g.handleFire()
}

func (g *Game) setTimeScale(v int) {
	g.timeScale = min(max(v, 1), ui.MaxTimeScale)
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == g.screenWidth && h == g.screenHeight {
		return
	}
	g.screenWidth = w
	g.screenHeight = h
	g.camera.Resize(w, h)
}

// handleCameraInput processes camera pan/zoom controls.
func (g *Game) handleCameraInput() {
	// Pan speed in screen pixels per frame
	const panSpeed = 8

	if rl.IsKeyDown(rl.KeyRight) {
		g.camera.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		g.camera.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		g.camera.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		g.camera.Pan(0, -panSpeed)
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		g.camera.ZoomBy(1 + wheel*0.1)
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		g.camera.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		g.camera.ZoomBy(0.8)
	}

	if rl.IsKeyPressed(rl.KeyHome) {
		g.camera.Reset()
	}
}

// handleFire lets the player shoot at the final level. Right click takes the
// high arc.
func (g *Game) handleFire() {
	if !g.gen.Done() || g.world.Launcher().Queued() == 0 {
		return
	}
	left := rl.IsMouseButtonPressed(rl.MouseButtonLeft)
	right := rl.IsMouseButtonPressed(rl.MouseButtonRight)
	if !left && !right {
		return
	}
	mouse := rl.GetMousePosition()
	if g.overHUD(mouse) {
		return
	}
	wx, wy := g.camera.ScreenToWorld(mouse.X, mouse.Y)
	g.world.Launcher().Fire(wx, wy, right)
}
