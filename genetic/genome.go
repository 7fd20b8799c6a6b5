// Package genetic implements a generational genetic algorithm over an
// arbitrary gene type. Fitness is supplied by the caller, so evaluation can
// happen anywhere, including across many ticks of an external simulation.
package genetic

import (
	"fmt"
	"sort"

	"github.com/jinzhu/copier"
)

// Genome is one candidate: its genes plus the fitness assigned at ranking.
type Genome[T any] struct {
	Genes   T
	Fitness float64
}

// SortByFitness orders genomes by descending fitness. Equal fitness keeps
// the original relative order.
func SortByFitness[T any](genomes []Genome[T]) {
	sort.SliceStable(genomes, func(i, j int) bool {
		return genomes[i].Fitness > genomes[j].Fitness
	})
}

// DeepCopy clones genes reflectively. It is the default Clone strategy for
// gene types that do not provide their own.
func DeepCopy[T any](genes T) T {
	var out T
	if err := copier.CopyWithOption(&out, &genes, copier.Option{DeepCopy: true}); err != nil {
		panic(fmt.Sprintf("genetic: deep copy of %T: %v", genes, err))
	}
	return out
}
