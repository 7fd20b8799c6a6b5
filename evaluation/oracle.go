// Package evaluation scores level genomes by playing them out in a
// tick-driven simulation. A Scheduler owns the simulation for one genome at
// a time and is polled once per tick until the outcome is known.
package evaluation

import "github.com/pthm-cable/siege/level"

// Oracle is the simulation environment a genome is evaluated in.
type Oracle interface {
	// Clear removes every actor. Clearing an empty environment is a no-op.
	Clear()
	// PlaceActors decodes columns into the environment and arms the player
	// with budget offensive units.
	PlaceActors(columns []level.ColumnStack, budget int)
	// IsSettled reports whether nothing in the environment is moving.
	IsSettled() bool
	OffensiveUnitsRemaining() int
	TargetUnitsRemaining() int
	StructuralUnitsRemaining() int
}

// Counts is a snapshot of the environment's unit tallies.
type Counts struct {
	Offensive  int `csv:"offensive"`
	Targets    int `csv:"targets"`
	Structural int `csv:"structural"`
}

// Sample reads the current counts from an oracle.
func Sample(o Oracle) Counts {
	return Counts{
		Offensive:  o.OffensiveUnitsRemaining(),
		Targets:    o.TargetUnitsRemaining(),
		Structural: o.StructuralUnitsRemaining(),
	}
}

// Infeasible is the fitness of a level that cannot be won as placed.
const Infeasible = -1.0

// Fitness scores an evaluation from its baseline and final counts. A level
// scores Infeasible when it had no targets to begin with or when targets
// survived. Otherwise the score rewards rich levels: the structural units
// plus the targets the level started with. Offensive units do not
// contribute.
func Fitness(initial, final Counts) float64 {
	if final.Targets != 0 || initial.Targets == 0 {
		return Infeasible
	}
	return float64(initial.Structural + initial.Targets)
}
