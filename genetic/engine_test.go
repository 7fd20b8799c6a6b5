package genetic

import (
	"errors"
	"math"
	"math/rand"
	"reflect"
	"testing"
)

type testGenes struct {
	ID     int
	Values []int
}

// testStrategies returns strategies whose fitness is looked up from table by
// slot index, the way a scheduler-filled table is consumed in a real run.
func testStrategies(table []float64) Strategies[testGenes] {
	next := 0
	return Strategies[testGenes]{
		InitGenome: func(rng *rand.Rand) testGenes {
			next++
			return testGenes{ID: next, Values: []int{next, next * 10}}
		},
		Crossover: func(a, b testGenes, rng *rand.Rand) (testGenes, testGenes) {
			return testGenes{ID: -1, Values: []int{a.Values[0] + 1000}},
				testGenes{ID: -2, Values: []int{b.Values[0] + 2000}}
		},
		Mutation: func(genes *testGenes, rate float64, rng *rand.Rand) {},
		Fitness: func(genes testGenes, index int) float64 {
			return table[index]
		},
	}
}

func newTestEngine(t *testing.T, cfg Config, s Strategies[testGenes]) *Engine[testGenes] {
	t.Helper()
	e, err := NewEngine(cfg, s)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func mustStart(t *testing.T, e *Engine[testGenes]) {
	t.Helper()
	if err := e.StartEvolution(); err != nil {
		t.Fatalf("StartEvolution: %v", err)
	}
}

func startRanked(t *testing.T, e *Engine[testGenes]) {
	t.Helper()
	mustStart(t, e)
	if _, err := e.RankPopulation(); err != nil {
		t.Fatalf("RankPopulation: %v", err)
	}
}

func TestNewEngineMissingStrategies(t *testing.T) {
	_, err := NewEngine(Config{PopulationSize: 4, Generations: 1, FilterFeasible: true}, Strategies[testGenes]{
		InitGenome: func(rng *rand.Rand) testGenes { return testGenes{} },
	})

	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	want := []string{"Crossover", "Mutation", "Fitness", "Feasible"}
	if !reflect.DeepEqual(cfgErr.Missing, want) {
		t.Errorf("Missing = %v, want %v", cfgErr.Missing, want)
	}
}

func TestNewEngineRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero population", Config{PopulationSize: 0, Generations: 1}},
		{"zero generations", Config{PopulationSize: 2, Generations: 0}},
		{"mutation rate above one", Config{PopulationSize: 2, Generations: 1, MutationRate: 1.5}},
		{"negative attempts", Config{PopulationSize: 2, Generations: 1, MaxInitAttempts: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine(tt.cfg, testStrategies(nil))
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Errorf("expected ConfigurationError, got %v", err)
			}
		})
	}
}

func TestRankPopulationOrdersByFitness(t *testing.T) {
	table := []float64{3, -1, 7, 2}
	e, err := NewEngine(Config{PopulationSize: 4, Generations: 1, Seed: 1}, testStrategies(table))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if err := e.StartEvolution(); err != nil {
		t.Fatalf("StartEvolution: %v", err)
	}

	ranking, err := e.RankPopulation()
	if err != nil {
		t.Fatalf("RankPopulation: %v", err)
	}

	// Slot i was initialized with ID i+1
	wantIDs := []int{3, 1, 4, 2}
	wantFitness := []float64{7, 3, 2, -1}
	for n := range wantIDs {
		g, err := e.NthGenome(n)
		if err != nil {
			t.Fatalf("NthGenome(%d): %v", n, err)
		}
		if g.Genes.ID != wantIDs[n] || g.Fitness != wantFitness[n] {
			t.Errorf("rank %d = (id %d, fitness %v), want (id %d, fitness %v)",
				n, g.Genes.ID, g.Fitness, wantIDs[n], wantFitness[n])
		}
	}

	if ranking.Best != 7 || ranking.Worst != -1 || ranking.Total != 11 {
		t.Errorf("ranking = %+v, want best 7 worst -1 total 11", ranking)
	}
	if math.Abs(ranking.Mean-2.75) > 1e-9 {
		t.Errorf("Mean = %v, want 2.75", ranking.Mean)
	}
	if !e.LastGeneration() {
		t.Error("single generation run should be on its last generation")
	}

	best, _ := e.Best()
	worst, _ := e.Worst()
	if best.Fitness != 7 || worst.Fitness != -1 {
		t.Errorf("Best/Worst = %v/%v, want 7/-1", best.Fitness, worst.Fitness)
	}
}

func TestRankedPopulationNonIncreasing(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	table := make([]float64, 25)
	for i := range table {
		table[i] = math.Floor(rng.Float64()*20) - 5
	}

	e := newTestEngine(t, Config{PopulationSize: len(table), Generations: 1, Seed: 2}, testStrategies(table))
	startRanked(t, e)

	pop := e.Population()
	for i := 1; i < len(pop); i++ {
		if pop[i].Fitness > pop[i-1].Fitness {
			t.Fatalf("rank %d fitness %v exceeds rank %d fitness %v", i, pop[i].Fitness, i-1, pop[i-1].Fitness)
		}
	}
}

func TestNthGenomeOutOfRange(t *testing.T) {
	e := newTestEngine(t, Config{PopulationSize: 3, Generations: 1, Seed: 1}, testStrategies([]float64{1, 2, 3}))
	startRanked(t, e)
	before := e.Population()

	for _, n := range []int{-1, 3, 100} {
		_, err := e.NthGenome(n)
		var idxErr *IndexError
		if !errors.As(err, &idxErr) {
			t.Errorf("NthGenome(%d): expected IndexError, got %v", n, err)
			continue
		}
		if idxErr.Index != n || idxErr.Size != 3 {
			t.Errorf("IndexError = %+v, want index %d size 3", idxErr, n)
		}
	}

	if !reflect.DeepEqual(before, e.Population()) {
		t.Error("failed accessor changed engine state")
	}
}

func TestElitismCopiesChampion(t *testing.T) {
	table := []float64{1, 9, 4, 2}
	e := newTestEngine(t, Config{PopulationSize: 4, Generations: 2, Elitism: true, Seed: 4}, testStrategies(table))
	startRanked(t, e)

	champion, _ := e.Best()
	if err := e.CreateNextGeneration(); err != nil {
		t.Fatalf("CreateNextGeneration: %v", err)
	}

	found := 0
	for _, g := range e.Population() {
		if reflect.DeepEqual(g.Genes, champion.Genes) {
			found++
			if &g.Genes.Values[0] == &champion.Genes.Values[0] {
				t.Error("champion aliased into next generation")
			}
		}
	}
	if found != 1 {
		t.Errorf("champion appears %d times in next generation, want 1", found)
	}
	if e.Generation() != 1 {
		t.Errorf("Generation() = %d, want 1", e.Generation())
	}
	if err := e.CreateNextGeneration(); !errors.Is(err, ErrNotRanked) {
		t.Errorf("new generation should not be ranked, got %v", err)
	}
}

func TestNoElitismReplacesEverything(t *testing.T) {
	e := newTestEngine(t, Config{PopulationSize: 4, Generations: 2, Seed: 4}, testStrategies([]float64{1, 9, 4, 2}))
	startRanked(t, e)
	if err := e.CreateNextGeneration(); err != nil {
		t.Fatalf("CreateNextGeneration: %v", err)
	}

	for i, g := range e.Population() {
		if g.Genes.ID >= 0 {
			t.Errorf("slot %d holds an initial genome, want a child", i)
		}
	}
}

func TestOddPopulationTruncates(t *testing.T) {
	for _, size := range []int{1, 3, 5} {
		table := make([]float64, size)
		e := newTestEngine(t, Config{PopulationSize: size, Generations: 3, Seed: 8}, testStrategies(table))
		mustStart(t, e)
		for gen := 0; gen < 2; gen++ {
			if _, err := e.RankPopulation(); err != nil {
				t.Fatalf("size %d: RankPopulation: %v", size, err)
			}
			if err := e.CreateNextGeneration(); err != nil {
				t.Fatalf("size %d: CreateNextGeneration: %v", size, err)
			}
			if n := len(e.Population()); n != size {
				t.Fatalf("size %d: next generation has %d genomes", size, n)
			}
		}
	}
}

func TestCreateNextGenerationRequiresRanking(t *testing.T) {
	e := newTestEngine(t, Config{PopulationSize: 2, Generations: 2, Seed: 1}, testStrategies([]float64{1, 2}))

	if _, err := e.RankPopulation(); !errors.Is(err, ErrNotStarted) {
		t.Errorf("RankPopulation before start: got %v, want ErrNotStarted", err)
	}

	mustStart(t, e)
	if err := e.CreateNextGeneration(); !errors.Is(err, ErrNotRanked) {
		t.Errorf("CreateNextGeneration before ranking: got %v, want ErrNotRanked", err)
	}
}

func TestTournamentSelectionFavorsFittest(t *testing.T) {
	e := newTestEngine(t, Config{PopulationSize: 4, Generations: 1, Seed: 3}, testStrategies([]float64{5, 1, 8, 2}))
	startRanked(t, e)

	got, err := e.TournamentSelection(200)
	if err != nil {
		t.Fatalf("TournamentSelection: %v", err)
	}
	if got.Fitness != 8 {
		t.Errorf("large tournament picked fitness %v, want 8", got.Fitness)
	}
	for i := 0; i < 20; i++ {
		got, err := e.TournamentSelection(0)
		if err != nil {
			t.Fatalf("TournamentSelection: %v", err)
		}
		if got.Genes.ID < 1 || got.Genes.ID > 4 {
			t.Fatalf("selection returned genome %d outside population", got.Genes.ID)
		}
	}
}

func TestTournamentSelectionTiesGoToFirstDraw(t *testing.T) {
	tests := []struct {
		name  string
		table []float64
		k     int
		seed  int64
	}{
		{"all equal pairs", []float64{5, 5, 5, 5}, 2, 11},
		{"all equal wide", []float64{5, 5, 5, 5, 5, 5}, 4, 12},
		{"two tied leaders", []float64{3, 9, 9, 1}, 3, 13},
		{"two tied leaders again", []float64{3, 9, 9, 1}, 3, 14},
		{"tied tail", []float64{7, 2, 2, 2}, 2, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, Config{PopulationSize: len(tt.table), Generations: 1, Seed: 1}, testStrategies(tt.table))
			startRanked(t, e)
			pop := e.Population()

			for round := 0; round < 10; round++ {
				seed := tt.seed*100 + int64(round)
				e.rng = rand.New(rand.NewSource(seed))
				twin := rand.New(rand.NewSource(seed))

				// The first drawn genome holding the highest fitness wins
				want := pop[twin.Intn(len(pop))]
				for i := 1; i < tt.k; i++ {
					if c := pop[twin.Intn(len(pop))]; c.Fitness > want.Fitness {
						want = c
					}
				}

				got, err := e.TournamentSelection(tt.k)
				if err != nil {
					t.Fatalf("TournamentSelection: %v", err)
				}
				if got.Genes.ID != want.Genes.ID {
					t.Fatalf("seed %d: picked genome %d (fitness %v), want first drawn %d (fitness %v)",
						seed, got.Genes.ID, got.Fitness, want.Genes.ID, want.Fitness)
				}
			}
		})
	}
}

func TestTournamentSelectionBeforeStart(t *testing.T) {
	e := newTestEngine(t, Config{PopulationSize: 2, Generations: 1, Seed: 1}, testStrategies([]float64{1, 2}))
	if _, err := e.TournamentSelection(2); !errors.Is(err, ErrNotStarted) {
		t.Errorf("TournamentSelection before start: got %v, want ErrNotStarted", err)
	}
}

func TestFeasibilityRejectionSampling(t *testing.T) {
	s := testStrategies(make([]float64, 4))
	calls := 0
	init := s.InitGenome
	s.InitGenome = func(rng *rand.Rand) testGenes {
		calls++
		return init(rng)
	}
	s.Feasible = func(g testGenes) bool { return g.ID%3 == 0 }

	e, err := NewEngine(Config{PopulationSize: 4, Generations: 1, FilterFeasible: true, Seed: 1}, s)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if err := e.StartEvolution(); err != nil {
		t.Fatalf("StartEvolution: %v", err)
	}

	for i, g := range e.Population() {
		if g.Genes.ID%3 != 0 {
			t.Errorf("slot %d holds infeasible genome %d", i, g.Genes.ID)
		}
	}
	if calls != 12 {
		t.Errorf("InitGenome called %d times, want 12", calls)
	}
}

func TestFeasibilityAttemptLimit(t *testing.T) {
	s := testStrategies(make([]float64, 2))
	s.Feasible = func(testGenes) bool { return false }

	e := newTestEngine(t, Config{PopulationSize: 2, Generations: 1, FilterFeasible: true, MaxInitAttempts: 3, Seed: 1}, s)
	if err := e.StartEvolution(); !errors.Is(err, ErrInitExhausted) {
		t.Errorf("StartEvolution: got %v, want ErrInitExhausted", err)
	}
}

func TestStartEvolutionFromSeeds(t *testing.T) {
	seeds := []testGenes{
		{ID: 10, Values: []int{1}},
		{ID: 20, Values: []int{2}},
		{ID: 30, Values: []int{3}},
	}

	e := newTestEngine(t, Config{PopulationSize: 2, Generations: 1, Seed: 1}, testStrategies(make([]float64, 2)))
	if err := e.StartEvolutionFromSeeds(seeds); err != nil {
		t.Fatalf("StartEvolutionFromSeeds: %v", err)
	}

	seeds[0].Values[0] = 99
	g, _ := e.NthGenome(0)
	if g.Genes.ID != 10 || g.Genes.Values[0] != 1 {
		t.Errorf("slot 0 = %+v, want independent copy of first seed", g.Genes)
	}
	g, _ = e.NthGenome(1)
	if g.Genes.ID != 20 {
		t.Errorf("slot 1 id = %d, want 20", g.Genes.ID)
	}

	var cfgErr *ConfigurationError
	e2 := newTestEngine(t, Config{PopulationSize: 5, Generations: 1, Seed: 1}, testStrategies(nil))
	if err := e2.StartEvolutionFromSeeds(seeds); !errors.As(err, &cfgErr) {
		t.Errorf("too few seeds: got %v, want ConfigurationError", err)
	}
}

func TestSortByFitnessIsStable(t *testing.T) {
	genomes := []Genome[int]{{Genes: 1, Fitness: 2}, {Genes: 2, Fitness: 5}, {Genes: 3, Fitness: 2}, {Genes: 4, Fitness: 5}}
	SortByFitness(genomes)

	want := []int{2, 4, 1, 3}
	for i, g := range genomes {
		if g.Genes != want[i] {
			t.Fatalf("order = %v, want genes %v", genomes, want)
		}
	}
}
