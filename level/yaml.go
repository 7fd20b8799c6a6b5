package level

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Marshal encodes a genome as YAML.
func Marshal(g Genome) ([]byte, error) {
	data, err := yaml.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("marshaling level: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a genome from YAML.
func Unmarshal(data []byte) (Genome, error) {
	var g Genome
	if err := yaml.Unmarshal(data, &g); err != nil {
		return Genome{}, fmt.Errorf("parsing level: %w", err)
	}
	for i, col := range g.Columns {
		if col == nil {
			g.Columns[i] = ColumnStack{}
		}
	}
	return g, nil
}

// WriteFile writes a genome to path as YAML.
func WriteFile(path string, g Genome) error {
	data, err := Marshal(g)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing level file: %w", err)
	}
	return nil
}

// ReadFile reads a YAML genome from path.
func ReadFile(path string) (Genome, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Genome{}, fmt.Errorf("reading level file: %w", err)
	}
	return Unmarshal(data)
}
