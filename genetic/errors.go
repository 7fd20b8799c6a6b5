package genetic

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInitExhausted is returned when feasibility filtering hits MaxInitAttempts.
	ErrInitExhausted = errors.New("genetic: no feasible genome within attempt limit")
	// ErrNotStarted is returned by operations that need a population.
	ErrNotStarted = errors.New("genetic: evolution not started")
)

// ConfigurationError reports an engine that cannot run as configured.
type ConfigurationError struct {
	Missing []string // Required strategies that were not supplied
	Reason  string
}

func (e *ConfigurationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing strategies: "+strings.Join(e.Missing, ", "))
	}
	if e.Reason != "" {
		parts = append(parts, e.Reason)
	}
	if len(parts) == 0 {
		return "genetic: invalid configuration"
	}
	return "genetic: " + strings.Join(parts, "; ")
}

// IndexError reports an accessor called with a rank outside the population.
type IndexError struct {
	Index int
	Size  int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("genetic: index %d out of range [0, %d)", e.Index, e.Size)
}
