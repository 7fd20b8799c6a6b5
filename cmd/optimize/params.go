// Package main provides CMA-ES optimization for level generator parameters.
package main

import (
	"math"

	"github.com/pthm-cable/siege/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "mutation_rate", Path: "evolution.mutation_rate", Min: 0.01, Max: 0.5, Default: 0.1},
			{Name: "tournament_size", Path: "evolution.tournament_size", Min: 2, Max: 6, Default: 2},
			{Name: "max_stack_height", Path: "level.max_stack_height", Min: 2, Max: 10, Default: 5},
			{Name: "max_budget", Path: "level.max_budget", Min: 2, Max: 12, Default: 6},
			{Name: "decoration_chance", Path: "level.decoration_chance", Min: 0, Max: 0.5, Default: 0.15},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = math.Min(math.Max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct. Integer
// parameters are rounded. The minimum budget is lowered when it would exceed
// the new maximum.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	// Order must match Specs order
	c := pv.Clamp(values)

	cfg.Evolution.MutationRate = c[0]
	cfg.Evolution.TournamentSize = int(math.Round(c[1]))
	cfg.Level.MaxStackHeight = int(math.Round(c[2]))
	cfg.Level.MaxBudget = int(math.Round(c[3]))
	cfg.Level.DecorationChance = c[4]

	if cfg.Level.MinBudget > cfg.Level.MaxBudget {
		cfg.Level.MinBudget = cfg.Level.MaxBudget
	}
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Evolution.MutationRate,
		float64(cfg.Evolution.TournamentSize),
		float64(cfg.Level.MaxStackHeight),
		float64(cfg.Level.MaxBudget),
		cfg.Level.DecorationChance,
	}
}
