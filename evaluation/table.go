package evaluation

import "math"

// Table holds one generation's fitness values by population slot. Slots that
// have not been evaluated hold NaN.
type Table struct {
	values []float64
	filled int
}

// NewTable creates a table for a population of the given size.
func NewTable(size int) *Table {
	t := &Table{values: make([]float64, size)}
	t.Reset()
	return t
}

// Record stores the fitness of slot index. It returns false when index is
// out of range.
func (t *Table) Record(index int, fitness float64) bool {
	if index < 0 || index >= len(t.values) {
		return false
	}
	if math.IsNaN(t.values[index]) {
		t.filled++
	}
	t.values[index] = fitness
	return true
}

// Lookup returns the fitness recorded for slot index, or Infeasible when the
// slot is empty or out of range.
func (t *Table) Lookup(index int) float64 {
	if index < 0 || index >= len(t.values) || math.IsNaN(t.values[index]) {
		return Infeasible
	}
	return t.values[index]
}

// Recorded reports whether slot index holds a value.
func (t *Table) Recorded(index int) bool {
	return index >= 0 && index < len(t.values) && !math.IsNaN(t.values[index])
}

// Complete reports whether every slot has been recorded.
func (t *Table) Complete() bool {
	return t.filled == len(t.values)
}

// Len is the number of slots.
func (t *Table) Len() int { return len(t.values) }

// Reset empties every slot for a new generation.
func (t *Table) Reset() {
	for i := range t.values {
		t.values[i] = math.NaN()
	}
	t.filled = 0
}
