// Package classifier decides whether a synthesized level is worth
// simulating, using a logistic model over the level's description.
package classifier

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/siege/level"
)

//go:embed default_model.yaml
var defaultModel []byte

// Model is a logistic regression over named level features.
type Model struct {
	Features  []string  `yaml:"features"`
	Weights   []float64 `yaml:"weights"`
	Bias      float64   `yaml:"bias"`
	Threshold float64   `yaml:"threshold"`

	// index maps each feature to its position in level.Description.Features
	index []int
}

// Parse decodes and validates a model from YAML.
func Parse(data []byte) (*Model, error) {
	var m Model
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing model: %w", err)
	}
	if err := m.init(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Load reads a model file. An empty path loads the built-in model.
func Load(path string) (*Model, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Default returns the built-in model.
func Default() (*Model, error) {
	return Parse(defaultModel)
}

func (m *Model) init() error {
	if len(m.Features) == 0 {
		return errors.New("model has no features")
	}
	if len(m.Features) != len(m.Weights) {
		return fmt.Errorf("model has %d features but %d weights", len(m.Features), len(m.Weights))
	}
	if m.Threshold == 0 {
		m.Threshold = 0.5
	}
	if m.Threshold <= 0 || m.Threshold >= 1 {
		return fmt.Errorf("threshold %v outside (0, 1)", m.Threshold)
	}

	m.index = make([]int, len(m.Features))
	for i, name := range m.Features {
		m.index[i] = -1
		for j, known := range level.FeatureNames {
			if name == known {
				m.index[i] = j
				break
			}
		}
		if m.index[i] < 0 {
			return fmt.Errorf("unknown feature %q", name)
		}
	}
	return nil
}

// Probability returns the modelled probability that the level is playable.
func (m *Model) Probability(d level.Description) float64 {
	all := d.Features()
	x := make([]float64, len(m.index))
	for i, j := range m.index {
		x[i] = all[j]
	}
	z := m.Bias + floats.Dot(m.Weights, x)
	return 1 / (1 + math.Exp(-z))
}

// Classify reports whether the level clears the model threshold.
func (m *Model) Classify(d level.Description) bool {
	return m.Probability(d) >= m.Threshold
}
