package level

import (
	"math"
	"math/rand"
)

// StackGenerator produces column content. Implementations decide shapes,
// materials and where targets go; the codec only decides which columns to
// regenerate.
type StackGenerator interface {
	// GenerateStack builds a fresh stack for the given column index.
	GenerateStack(rng *rand.Rand, column int) ColumnStack
	// InsertTargets places target units into a freshly generated stack.
	InsertTargets(rng *rand.Rand, column int, stack ColumnStack) ColumnStack
}

// FeasibilityOracle decides whether a level is worth evaluating at all.
type FeasibilityOracle interface {
	Classify(d Description) bool
}

// SeedSource supplies a pre-built level set for seeded starts.
type SeedSource interface {
	LoadAllSeeds() ([]Genome, error)
}

// CodecConfig bounds the levels the codec synthesizes.
type CodecConfig struct {
	MinColumns int
	MaxColumns int
	MinBudget  int
	MaxBudget  int
	// ClampBudget keeps crossover children inside [0, MaxBudget]. Off by
	// default, in which case budget arithmetic may drift negative or grow.
	ClampBudget bool
}

// Codec implements the genetic operators for level genomes.
type Codec struct {
	cfg   CodecConfig
	Rules StackGenerator
}

// NewCodec creates a codec. Column and budget bounds are normalized so that
// min never exceeds max.
func NewCodec(cfg CodecConfig, rules StackGenerator) *Codec {
	if cfg.MinColumns < 1 {
		cfg.MinColumns = 1
	}
	if cfg.MaxColumns < cfg.MinColumns {
		cfg.MaxColumns = cfg.MinColumns
	}
	if cfg.MinBudget < 0 {
		cfg.MinBudget = 0
	}
	if cfg.MaxBudget < cfg.MinBudget {
		cfg.MaxBudget = cfg.MinBudget
	}
	return &Codec{cfg: cfg, Rules: rules}
}

// Config returns the normalized codec configuration.
func (c *Codec) Config() CodecConfig {
	return c.cfg
}

// Init synthesizes a fresh random genome.
func (c *Codec) Init(rng *rand.Rand) Genome {
	n := c.cfg.MinColumns + rng.Intn(c.cfg.MaxColumns-c.cfg.MinColumns+1)
	g := Genome{
		Budget:  c.cfg.MinBudget + rng.Intn(c.cfg.MaxBudget-c.cfg.MinBudget+1),
		Columns: make([]ColumnStack, n),
	}
	for i := range g.Columns {
		g.Columns[i] = c.regenerate(rng, i)
	}
	return g
}

// Crossover recombines two parents column by column. Each child picks
// independently at every index, so the children are not complements of each
// other. Indices present in only one parent are inherited or left empty with
// equal probability. Inherited stacks are always deep copies.
func (c *Codec) Crossover(a, b Genome, rng *rand.Rand) (Genome, Genome) {
	maxColumns := max(len(a.Columns), len(b.Columns))

	childA := Genome{Columns: make([]ColumnStack, maxColumns)}
	childB := Genome{Columns: make([]ColumnStack, maxColumns)}

	for i := 0; i < maxColumns; i++ {
		childA.Columns[i] = pickColumn(a.Columns, b.Columns, i, rng)
		childB.Columns[i] = pickColumn(a.Columns, b.Columns, i, rng)
	}

	childA.Budget, childB.Budget = c.CrossBudgets(a.Budget, b.Budget)
	return childA, childB
}

// pickColumn chooses the stack a child inherits at index i.
func pickColumn(a, b []ColumnStack, i int, rng *rand.Rand) ColumnStack {
	inA, inB := i < len(a), i < len(b)
	switch {
	case inA && inB:
		if rng.Float64() < 0.5 {
			return a[i].Clone()
		}
		return b[i].Clone()
	case inA:
		if rng.Float64() < 0.5 {
			return a[i].Clone()
		}
	case inB:
		if rng.Float64() < 0.5 {
			return b[i].Clone()
		}
	}
	return ColumnStack{}
}

// CrossBudgets computes the children's budgets from the parents':
// the midpoint and a linear extrapolation past the first parent.
//
//	childA = floor(0.5*a + 0.5*b)
//	childB = floor(1.5*a - 0.5*b)
func (c *Codec) CrossBudgets(a, b int) (int, int) {
	fa, fb := float64(a), float64(b)
	childA := int(math.Floor(0.5*fa + 0.5*fb))
	childB := int(math.Floor(1.5*fa - 0.5*fb))
	if c.cfg.ClampBudget {
		childA = clampInt(childA, 0, c.cfg.MaxBudget)
		childB = clampInt(childB, 0, c.cfg.MaxBudget)
	}
	return childA, childB
}

// Mutate regenerates whole columns in place, each with independent
// probability rate. The budget is never mutated.
func (c *Codec) Mutate(g *Genome, rate float64, rng *rand.Rand) {
	if rate <= 0 {
		return
	}
	for i := range g.Columns {
		if rng.Float64() < rate {
			g.Columns[i] = c.regenerate(rng, i)
		}
	}
}

func (c *Codec) regenerate(rng *rand.Rand, column int) ColumnStack {
	stack := c.Rules.GenerateStack(rng, column)
	return c.Rules.InsertTargets(rng, column, stack)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
