package evaluation

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/siege/level"
)

// ErrBusy is returned by Begin while another genome owns the environment.
var ErrBusy = errors.New("evaluation: scheduler busy")

// State is the scheduler's lifecycle state.
type State uint8

const (
	Idle State = iota
	Evaluating
)

func (s State) String() string {
	if s == Evaluating {
		return "evaluating"
	}
	return "idle"
}

// Result describes one finished evaluation.
type Result struct {
	Index    int
	Fitness  float64
	Initial  Counts
	Final    Counts
	Ticks    int  // Polls spent waiting, including the resolving one
	TimedOut bool // Resolved by the tick limit rather than by settling
	Skipped  bool // Cut short by the caller and scored Infeasible
}

// Scheduler runs one evaluation at a time against a shared Oracle and
// records the outcome in a Table.
type Scheduler struct {
	oracle   Oracle
	table    *Table
	maxTicks int

	state   State
	index   int
	initial Counts
	ticks   int
}

// NewScheduler creates an idle scheduler. maxTicks bounds how many polls an
// evaluation may take; zero waits for settlement indefinitely.
func NewScheduler(oracle Oracle, table *Table, maxTicks int) *Scheduler {
	if maxTicks < 0 {
		maxTicks = 0
	}
	return &Scheduler{oracle: oracle, table: table, maxTicks: maxTicks}
}

// Begin places genome into the environment and starts waiting on it. The
// fitness will be recorded at slot index of the table.
func (s *Scheduler) Begin(index int, genome level.Genome) error {
	if s.state == Evaluating {
		return ErrBusy
	}
	if index < 0 || index >= s.table.Len() {
		return fmt.Errorf("evaluation: slot %d outside table of %d", index, s.table.Len())
	}

	s.oracle.Clear()
	s.oracle.PlaceActors(genome.Columns, genome.Budget)
	s.initial = Sample(s.oracle)
	s.index = index
	s.ticks = 0
	s.state = Evaluating
	return nil
}

// Poll checks the environment once. It never blocks. The second return value
// is true when this poll finished the evaluation.
func (s *Scheduler) Poll() (Result, bool) {
	if s.state != Evaluating {
		return Result{}, false
	}
	s.ticks++

	ready := s.oracle.IsSettled() &&
		(s.oracle.OffensiveUnitsRemaining() == 0 || s.oracle.TargetUnitsRemaining() == 0)
	timedOut := !ready && s.maxTicks > 0 && s.ticks >= s.maxTicks
	if !ready && !timedOut {
		return Result{}, false
	}

	final := Sample(s.oracle)
	res := Result{
		Index:    s.index,
		Fitness:  Fitness(s.initial, final),
		Initial:  s.initial,
		Final:    final,
		Ticks:    s.ticks,
		TimedOut: timedOut,
	}
	s.table.Record(s.index, res.Fitness)
	s.finish()
	return res, true
}

// Skip ends the current evaluation early, scoring it Infeasible.
func (s *Scheduler) Skip() (Result, bool) {
	if s.state != Evaluating {
		return Result{}, false
	}
	res := Result{
		Index:   s.index,
		Fitness: Infeasible,
		Initial: s.initial,
		Final:   Sample(s.oracle),
		Ticks:   s.ticks,
		Skipped: true,
	}
	s.table.Record(s.index, res.Fitness)
	s.finish()
	return res, true
}

// Abort abandons the current evaluation without recording anything.
func (s *Scheduler) Abort() {
	if s.state != Evaluating {
		return
	}
	s.finish()
}

func (s *Scheduler) finish() {
	s.oracle.Clear()
	s.state = Idle
}

// State returns the current state.
func (s *Scheduler) State() State { return s.state }

// Index returns the slot being evaluated, or the last one evaluated.
func (s *Scheduler) Index() int { return s.index }

// Ticks returns the polls spent on the current evaluation.
func (s *Scheduler) Ticks() int { return s.ticks }

// Table returns the fitness table the scheduler records into.
func (s *Scheduler) Table() *Table { return s.table }
