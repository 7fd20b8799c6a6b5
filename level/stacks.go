package level

import "math/rand"

// StackRules parameterizes RandomStacks.
type StackRules struct {
	MaxHeight        int        // Blocks per column, targets excluded
	Shapes           int        // Size of the shape table
	Materials        []Material // Materials to draw from; empty means all
	DecorationChance float64    // Chance to top a column with a decoration
	MaxOffset        float64    // Horizontal jitter bound, in column widths
	BuriedTargets    bool       // Allow targets inside a stack, not only on top
}

// RandomStacks is the stock StackGenerator: uniform shapes and materials,
// with every regenerated column holding at least one target.
type RandomStacks struct {
	Rules StackRules
}

// NewRandomStacks creates a generator, filling unset rules with sane values.
func NewRandomStacks(rules StackRules) *RandomStacks {
	if rules.MaxHeight < 1 {
		rules.MaxHeight = 1
	}
	if rules.Shapes < 1 {
		rules.Shapes = 1
	}
	if len(rules.Materials) == 0 {
		rules.Materials = []Material{MaterialWood, MaterialStone, MaterialIce}
	}
	return &RandomStacks{Rules: rules}
}

// GenerateStack builds between zero and MaxHeight blocks, optionally capped
// with a decoration.
func (r *RandomStacks) GenerateStack(rng *rand.Rand, column int) ColumnStack {
	height := rng.Intn(r.Rules.MaxHeight + 1)
	stack := make(ColumnStack, 0, height+2)
	for i := 0; i < height; i++ {
		stack = append(stack, PlacedObject{
			Kind:     KindBlock,
			Shape:    rng.Intn(r.Rules.Shapes),
			Material: r.Rules.Materials[rng.Intn(len(r.Rules.Materials))],
			Offset:   r.offset(rng),
		})
	}
	if r.Rules.DecorationChance > 0 && rng.Float64() < r.Rules.DecorationChance {
		stack = append(stack, PlacedObject{Kind: KindDecoration, Offset: r.offset(rng)})
	}
	return stack
}

// InsertTargets places one target on top of the stack, or at a random
// height when buried targets are allowed. Decorations always stay on top.
func (r *RandomStacks) InsertTargets(rng *rand.Rand, column int, stack ColumnStack) ColumnStack {
	target := PlacedObject{Kind: KindTarget, Offset: r.offset(rng)}

	top := len(stack)
	for top > 0 && stack[top-1].Kind == KindDecoration {
		top--
	}
	at := top
	if r.Rules.BuriedTargets && top > 0 {
		at = rng.Intn(top + 1)
	}

	stack = append(stack, PlacedObject{})
	copy(stack[at+1:], stack[at:])
	stack[at] = target
	return stack
}

func (r *RandomStacks) offset(rng *rand.Rand) float64 {
	if r.Rules.MaxOffset <= 0 {
		return 0
	}
	return (rng.Float64()*2 - 1) * r.Rules.MaxOffset
}
