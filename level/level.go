// Package level defines the structural genome of a slingshot puzzle level:
// an ordered row of column stacks plus the number of offensive units granted
// to the player.
package level

import (
	"fmt"

	"github.com/jinzhu/copier"
)

// ObjectKind tags what a placed object is.
type ObjectKind uint8

const (
	KindBlock      ObjectKind = iota // Structural block
	KindTarget                       // Target unit that must be eliminated
	KindDecoration                   // Non-structural prop
)

var kindNames = [...]string{"block", "target", "decoration"}

// String returns the lowercase name of the kind.
func (k ObjectKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// MarshalText implements encoding.TextMarshaler so level files stay readable.
func (k ObjectKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ObjectKind) UnmarshalText(text []byte) error {
	for i, name := range kindNames {
		if name == string(text) {
			*k = ObjectKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown object kind %q", text)
}

// Material is the substance of a block. It drives mass and strength in the
// simulation and is otherwise opaque to the genome.
type Material uint8

const (
	MaterialWood Material = iota
	MaterialStone
	MaterialIce
)

// MaterialCount is the number of defined materials.
const MaterialCount = 3

var materialNames = [...]string{"wood", "stone", "ice"}

// String returns the lowercase name of the material.
func (m Material) String() string {
	if int(m) < len(materialNames) {
		return materialNames[m]
	}
	return fmt.Sprintf("material(%d)", uint8(m))
}

// MarshalText implements encoding.TextMarshaler.
func (m Material) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Material) UnmarshalText(text []byte) error {
	for i, name := range materialNames {
		if name == string(text) {
			*m = Material(i)
			return nil
		}
	}
	return fmt.Errorf("unknown material %q", text)
}

// PlacedObject is one object in a column. Shape indexes the simulation's
// shape table; Offset nudges the object horizontally inside its column.
type PlacedObject struct {
	Kind     ObjectKind `yaml:"kind" json:"kind"`
	Shape    int        `yaml:"shape" json:"shape"`
	Material Material   `yaml:"material" json:"material"`
	Offset   float64    `yaml:"offset" json:"offset"`
}

// ColumnStack is the bottom-to-top list of objects at one horizontal slot.
type ColumnStack []PlacedObject

// Clone returns an independently owned copy of the stack.
func (s ColumnStack) Clone() ColumnStack {
	out := make(ColumnStack, 0, len(s))
	if err := copier.CopyWithOption(&out, &s, copier.Option{DeepCopy: true}); err != nil {
		// copier only fails on invalid destinations; a slice of plain structs is always valid
		panic(fmt.Sprintf("level: cloning column stack: %v", err))
	}
	return out
}

// Count returns how many objects of the given kind the stack holds.
func (s ColumnStack) Count(kind ObjectKind) int {
	n := 0
	for _, obj := range s {
		if obj.Kind == kind {
			n++
		}
	}
	return n
}

// Equal reports whether two stacks hold the same objects in the same order.
// Nil and empty stacks are equal.
func (s ColumnStack) Equal(other ColumnStack) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Genome is the genetic payload of one candidate level.
type Genome struct {
	// Budget is the number of offensive units granted to the level. It is not
	// clamped: crossover may produce negative values.
	Budget  int           `yaml:"budget" json:"budget"`
	Columns []ColumnStack `yaml:"columns" json:"columns"`
}

// Clone returns a deep copy: no column of the result shares storage with g.
func (g Genome) Clone() Genome {
	out := Genome{Budget: g.Budget, Columns: make([]ColumnStack, len(g.Columns))}
	for i, col := range g.Columns {
		out.Columns[i] = col.Clone()
	}
	return out
}

// Equal reports value equality of two genomes.
func (g Genome) Equal(other Genome) bool {
	if g.Budget != other.Budget || len(g.Columns) != len(other.Columns) {
		return false
	}
	for i := range g.Columns {
		if !g.Columns[i].Equal(other.Columns[i]) {
			return false
		}
	}
	return true
}

// Count returns how many objects of the given kind the level holds.
func (g Genome) Count(kind ObjectKind) int {
	n := 0
	for _, col := range g.Columns {
		n += col.Count(kind)
	}
	return n
}

// Tallest returns the height of the tallest column in objects.
func (g Genome) Tallest() int {
	tallest := 0
	for _, col := range g.Columns {
		if len(col) > tallest {
			tallest = len(col)
		}
	}
	return tallest
}
