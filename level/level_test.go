package level

import (
	"math"
	"math/rand"
	"path/filepath"
	"testing"
)

func sampleGenome() Genome {
	return Genome{
		Budget: 3,
		Columns: []ColumnStack{
			{
				{Kind: KindBlock, Shape: 1, Material: MaterialStone},
				{Kind: KindBlock, Shape: 0, Material: MaterialWood, Offset: 0.1},
				{Kind: KindTarget},
			},
			{},
			{
				{Kind: KindTarget, Offset: -0.2},
				{Kind: KindDecoration},
			},
		},
	}
}

func TestGenomeCloneIsDeep(t *testing.T) {
	g := sampleGenome()
	c := g.Clone()

	if !c.Equal(g) {
		t.Fatalf("clone differs from original")
	}

	c.Columns[0][0].Material = MaterialIce
	c.Columns[2] = append(c.Columns[2], PlacedObject{Kind: KindBlock})
	c.Budget = 9

	if g.Columns[0][0].Material != MaterialStone {
		t.Error("clone shares column storage with original")
	}
	if len(g.Columns[2]) != 2 {
		t.Error("appending to clone changed original")
	}
	if g.Budget != 3 {
		t.Error("clone shares budget with original")
	}
}

func TestDescribe(t *testing.T) {
	d := sampleGenome().Describe()

	want := Description{
		Columns:          3,
		Blocks:           2,
		Targets:          2,
		Decorations:      1,
		Tallest:          3,
		MeanHeight:       5.0 / 3.0,
		Budget:           3,
		TargetsPerBudget: 2.0 / 3.0,
	}

	if d.Columns != want.Columns || d.Blocks != want.Blocks || d.Targets != want.Targets ||
		d.Decorations != want.Decorations || d.Tallest != want.Tallest || d.Budget != want.Budget {
		t.Errorf("Describe() = %+v, want %+v", d, want)
	}
	if math.Abs(d.MeanHeight-want.MeanHeight) > 1e-9 {
		t.Errorf("MeanHeight = %v, want %v", d.MeanHeight, want.MeanHeight)
	}
	if math.Abs(d.TargetsPerBudget-want.TargetsPerBudget) > 1e-9 {
		t.Errorf("TargetsPerBudget = %v, want %v", d.TargetsPerBudget, want.TargetsPerBudget)
	}

	features := d.Features()
	if len(features) != len(FeatureNames) {
		t.Fatalf("Features() has %d entries, FeatureNames has %d", len(features), len(FeatureNames))
	}
	if v, ok := d.Feature("tallest"); !ok || v != 3 {
		t.Errorf("Feature(tallest) = %v, %v; want 3, true", v, ok)
	}
	if _, ok := d.Feature("nope"); ok {
		t.Error("Feature(nope) reported ok")
	}
}

func TestDescribeZeroBudget(t *testing.T) {
	g := Genome{Columns: []ColumnStack{{{Kind: KindTarget}}, {{Kind: KindTarget}}}}
	if got := g.Describe().TargetsPerBudget; got != 2 {
		t.Errorf("TargetsPerBudget with zero budget = %v, want 2", got)
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "level.yaml")
	g := sampleGenome()

	if err := WriteFile(path, g); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !got.Equal(g) {
		t.Errorf("round trip = %+v, want %+v", got, g)
	}
}

func TestUnmarshalRejectsUnknownKind(t *testing.T) {
	_, err := Unmarshal([]byte("budget: 1\ncolumns:\n  - - kind: boulder\n"))
	if err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestRandomStacksAlwaysHoldTarget(t *testing.T) {
	tests := []struct {
		name  string
		rules StackRules
	}{
		{"targets on top", StackRules{MaxHeight: 4, Shapes: 3, DecorationChance: 0.5}},
		{"buried targets", StackRules{MaxHeight: 4, Shapes: 3, DecorationChance: 0.5, BuriedTargets: true}},
		{"zero height", StackRules{MaxHeight: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRandomStacks(tt.rules)
			rng := rand.New(rand.NewSource(42))

			for i := 0; i < 200; i++ {
				s := r.InsertTargets(rng, i, r.GenerateStack(rng, i))
				if s.Count(KindTarget) != 1 {
					t.Fatalf("stack %v has %d targets, want 1", s, s.Count(KindTarget))
				}
				if s.Count(KindBlock) > r.Rules.MaxHeight {
					t.Fatalf("stack has %d blocks, max %d", s.Count(KindBlock), r.Rules.MaxHeight)
				}
				for j, obj := range s {
					if obj.Kind == KindDecoration && j != len(s)-1 {
						t.Fatalf("decoration at %d of %d, want on top", j, len(s))
					}
					if obj.Shape < 0 || obj.Shape >= r.Rules.Shapes {
						t.Fatalf("shape %d outside table of %d", obj.Shape, r.Rules.Shapes)
					}
				}
			}
		})
	}
}
