package components

// Body holds the physical properties of an axis-aligned box.
type Body struct {
	HalfW    float32
	HalfH    float32
	InvMass  float32 // 0 for immovable bodies
	Friction float32
	Still    int32 // Consecutive ticks below the sleep velocity
	Asleep   bool  // Sleeping bodies do not integrate and act as static
}

// NewBody creates a sleeping box body from its size and density.
func NewBody(width, height, density, friction float32) Body {
	var inv float32
	if mass := width * height * density; mass > 0 {
		inv = 1 / mass
	}
	return Body{
		HalfW:    width / 2,
		HalfH:    height / 2,
		InvMass:  inv,
		Friction: friction,
		Asleep:   true,
	}
}

// Wake makes the body dynamic again.
func (b *Body) Wake() {
	b.Asleep = false
	b.Still = 0
}

// Bottom returns the y of the body's lower edge for a centre at y.
func (b *Body) Bottom(y float32) float32 { return y - b.HalfH }

// Top returns the y of the body's upper edge for a centre at y.
func (b *Body) Top(y float32) float32 { return y + b.HalfH }
