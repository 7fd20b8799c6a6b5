// Package components defines ECS components for the level simulation.
package components

import "github.com/pthm-cable/siege/level"

// Position represents an entity's world position (y-up, ground at 0).
type Position struct {
	X, Y float32
}

// Velocity represents an entity's velocity in units per second.
type Velocity struct {
	X, Y float32
}

// ActorKind distinguishes what an entity is in the level.
type ActorKind uint8

const (
	ActorBlock      ActorKind = iota // Structural unit
	ActorTarget                      // Must be eliminated to win
	ActorDecoration                  // Prop, neither structural nor a target
	ActorProjectile                  // Launched offensive unit
)

// String returns the display name for an ActorKind.
func (k ActorKind) String() string {
	switch k {
	case ActorBlock:
		return "Block"
	case ActorTarget:
		return "Target"
	case ActorDecoration:
		return "Decoration"
	case ActorProjectile:
		return "Projectile"
	}
	return "Unknown"
}

// KindFromObject maps a genome object kind to its actor kind.
func KindFromObject(k level.ObjectKind) ActorKind {
	switch k {
	case level.KindTarget:
		return ActorTarget
	case level.KindDecoration:
		return ActorDecoration
	}
	return ActorBlock
}

// Actor holds gameplay state.
type Actor struct {
	Kind      ActorKind
	Material  level.Material
	Shape     int32
	Health    float32
	MaxHealth float32
	Age       int32 // Ticks since spawn
}

// Alive reports whether the actor still has health left.
func (a *Actor) Alive() bool {
	return a.Health > 0
}
