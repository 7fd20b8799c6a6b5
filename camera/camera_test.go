package camera

import (
	"math"
	"testing"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 0.01
}

func TestNew(t *testing.T) {
	cam := New(1280, 720, 1600, 900)

	// Should be centered on world
	if cam.X != 800 || cam.Y != 450 {
		t.Errorf("expected camera at (800, 450), got (%f, %f)", cam.X, cam.Y)
	}
	// MinZoom = min(1280/1600, 720/900) = 0.8
	if !near(cam.MinZoom, 0.8) || !near(cam.Zoom, 0.8) {
		t.Errorf("expected zoom 0.8, got zoom %f min %f", cam.Zoom, cam.MinZoom)
	}
}

func TestWorldToScreenYUp(t *testing.T) {
	cam := New(1280, 720, 1600, 900)

	// Camera center should map to screen center
	sx, sy := cam.WorldToScreen(800, 450)
	if !near(sx, 640) || !near(sy, 360) {
		t.Errorf("expected screen center (640, 360), got (%f, %f)", sx, sy)
	}

	// Ground is at the bottom of the screen, higher world y is further up
	_, groundY := cam.WorldToScreen(800, 0)
	_, highY := cam.WorldToScreen(800, 800)
	if !near(groundY, 720) {
		t.Errorf("ground at screen y %f, want 720", groundY)
	}
	if highY >= groundY {
		t.Errorf("higher world point drawn below ground: %f >= %f", highY, groundY)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := New(1280, 720, 1600, 900)
	cam.SetZoom(1.7)
	cam.X, cam.Y = 700, 200

	testCases := []struct{ sx, sy float32 }{
		{640, 360},  // center
		{100, 100},  // top-left
		{1200, 600}, // near bottom-right
	}

	for _, tc := range testCases {
		wx, wy := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(wx, wy)
		if !near(sx, tc.sx) || !near(sy, tc.sy) {
			t.Errorf("roundtrip failed: (%f,%f) -> (%f,%f) -> (%f,%f)",
				tc.sx, tc.sy, wx, wy, sx, sy)
		}
	}
}

func TestPanStaysInWorld(t *testing.T) {
	cam := New(1280, 720, 1600, 900)
	cam.SetZoom(2)

	cam.Pan(-10000, 0)
	if cam.X != 0 {
		t.Errorf("expected X clamped to 0, got %f", cam.X)
	}

	// Dragging down on screen moves the view up in world space
	y := cam.Y
	cam.Pan(0, -100)
	if !near(cam.Y, y+50) {
		t.Errorf("expected Y %f, got %f", y+50, cam.Y)
	}
}

func TestZoomClamp(t *testing.T) {
	cam := New(1280, 720, 1600, 900)

	cam.SetZoom(0.1) // Below min
	if !near(cam.Zoom, 0.8) {
		t.Errorf("expected zoom clamped to 0.8, got %f", cam.Zoom)
	}

	cam.SetZoom(10.0) // Above max
	if cam.Zoom != 4.0 {
		t.Errorf("expected zoom clamped to 4.0, got %f", cam.Zoom)
	}
}

func TestFit(t *testing.T) {
	cam := New(1280, 720, 1600, 900)

	// A 400x200 box with 20 margin: zoom = min(1280/440, 720/240) = 2.909
	cam.Fit(600, 0, 1000, 200, 20)
	if !near(cam.X, 800) || !near(cam.Y, 100) {
		t.Errorf("expected center (800, 100), got (%f, %f)", cam.X, cam.Y)
	}
	if !near(cam.Zoom, 1280.0/440.0) {
		t.Errorf("expected zoom %f, got %f", 1280.0/440.0, cam.Zoom)
	}

	minX, minY, maxX, maxY := cam.VisibleWorldBounds()
	if minX > 580.5 || maxX < 1019.5 || minY > -19.5 || maxY < 219.5 {
		t.Errorf("fitted box not visible: (%f, %f)-(%f, %f)", minX, minY, maxX, maxY)
	}

	// Degenerate boxes leave the camera alone
	cam.Fit(5, 5, 5, 5, 0)
	if !near(cam.X, 800) {
		t.Error("degenerate fit moved the camera")
	}
}

func TestIsVisible(t *testing.T) {
	cam := New(1280, 720, 1600, 900)
	cam.SetZoom(2)
	// Visible range: x in [480, 1120], y in [270, 630]

	if !cam.IsVisible(800, 450, 10, 10) {
		t.Error("center should be visible")
	}
	if cam.IsVisible(1500, 850, 10, 10) {
		t.Error("far point should not be visible")
	}
	if !cam.IsVisible(450, 450, 40, 10) {
		t.Error("box overlapping the edge should be visible")
	}
}

func TestResize(t *testing.T) {
	cam := New(1280, 720, 1600, 900)
	cam.Resize(640, 360)
	if !near(cam.MinZoom, 0.4) || !near(cam.Zoom, 0.8) {
		t.Errorf("after resize: zoom %f min %f", cam.Zoom, cam.MinZoom)
	}
	cam.Resize(3200, 1800)
	if !near(cam.Zoom, 2) {
		t.Errorf("zoom should rise to new minimum 2, got %f", cam.Zoom)
	}
}

func TestReset(t *testing.T) {
	cam := New(1280, 720, 1600, 900)
	cam.X = 500
	cam.Y = 500
	cam.Zoom = 2.5

	cam.Reset()

	if cam.X != 800 || cam.Y != 450 {
		t.Errorf("expected position (800, 450), got (%f, %f)", cam.X, cam.Y)
	}
	if cam.Zoom != cam.MinZoom {
		t.Errorf("expected zoom %f, got %f", cam.MinZoom, cam.Zoom)
	}
}
