package level

// Description summarizes a level as a flat feature vector for feasibility
// classification.
type Description struct {
	Columns          int     `yaml:"columns"`
	Blocks           int     `yaml:"blocks"`
	Targets          int     `yaml:"targets"`
	Decorations      int     `yaml:"decorations"`
	Tallest          int     `yaml:"tallest"`
	MeanHeight       float64 `yaml:"mean_height"`
	Budget           int     `yaml:"budget"`
	TargetsPerBudget float64 `yaml:"targets_per_budget"`
}

// FeatureNames lists the features in the order Features returns them.
var FeatureNames = []string{
	"columns",
	"blocks",
	"targets",
	"decorations",
	"tallest",
	"mean_height",
	"budget",
	"targets_per_budget",
}

// Describe computes the level's feature summary.
func (g Genome) Describe() Description {
	d := Description{
		Columns:     len(g.Columns),
		Blocks:      g.Count(KindBlock),
		Targets:     g.Count(KindTarget),
		Decorations: g.Count(KindDecoration),
		Tallest:     g.Tallest(),
		Budget:      g.Budget,
	}
	if d.Columns > 0 {
		total := 0
		for _, col := range g.Columns {
			total += len(col)
		}
		d.MeanHeight = float64(total) / float64(d.Columns)
	}
	if g.Budget > 0 {
		d.TargetsPerBudget = float64(d.Targets) / float64(g.Budget)
	} else {
		// No ammunition: any target makes the level unwinnable.
		d.TargetsPerBudget = float64(d.Targets)
	}
	return d
}

// Features returns the description as a vector ordered like FeatureNames.
func (d Description) Features() []float64 {
	return []float64{
		float64(d.Columns),
		float64(d.Blocks),
		float64(d.Targets),
		float64(d.Decorations),
		float64(d.Tallest),
		d.MeanHeight,
		float64(d.Budget),
		d.TargetsPerBudget,
	}
}

// Feature looks a single feature up by name.
func (d Description) Feature(name string) (float64, bool) {
	values := d.Features()
	for i, n := range FeatureNames {
		if n == name {
			return values[i], true
		}
	}
	return 0, false
}
