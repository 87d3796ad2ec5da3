// Package solver runs the two-stage feasibility solve over a built scheduling
// model: Stage 1 searches for any assignment satisfying the exactly-one and
// capacity constraints, Stage 2 diagnoses proven infeasibility by minimizing
// the total capacity slack needed to make the plan satisfiable.
//
// The search is an exact backtracking / branch-and-bound procedure with a
// deterministic exploration order: occurrences are handled fewest-candidates
// first (stable on input order) and candidate start slots ascending, so equal
// inputs always produce equal outputs.
package solver

import (
	"context"
	"fmt"
	"time"

	"github.com/parkops/workplan/core/model"
	"github.com/parkops/workplan/core/schedule"
)

// DefaultStageLimit bounds each solve stage.
const DefaultStageLimit = 30 * time.Second

// checkInterval is the node count between deadline/cancellation checks.
const checkInterval = 1024

// Stage identifies a phase of the solve state machine.
type Stage int

const (
	StagePending Stage = iota
	Stage1Running
	Stage2Running
)

func (s Stage) String() string {
	switch s {
	case Stage1Running:
		return "stage1"
	case Stage2Running:
		return "stage2"
	default:
		return "pending"
	}
}

// Limits bounds the wall time of each stage. Zero values fall back to
// DefaultStageLimit; negative values expire immediately.
type Limits struct {
	Stage1 time.Duration
	Stage2 time.Duration
}

func (l Limits) stage1() time.Duration {
	if l.Stage1 == 0 {
		return DefaultStageLimit
	}
	return l.Stage1
}

func (l Limits) stage2() time.Duration {
	if l.Stage2 == 0 {
		return DefaultStageLimit
	}
	return l.Stage2
}

// Progress is a periodic snapshot of a running search.
type Progress struct {
	Stage        Stage
	Elapsed      time.Duration
	Nodes        int64
	BestOverload int // lowest total slack found so far, Stage 2 only
}

// Hooks receive stage transitions and periodic progress updates. Either field
// may be nil. Hooks are invoked from the solving goroutine.
type Hooks struct {
	OnStage    func(Stage)
	OnProgress func(Progress)
}

func (h Hooks) stage(s Stage) {
	if h.OnStage != nil {
		h.OnStage(s)
	}
}

func (h Hooks) progress(p Progress) {
	if h.OnProgress != nil {
		h.OnProgress(p)
	}
}

// Outcome is the structured result of a solve.
type Outcome struct {
	Verdict       model.Verdict
	Structural    bool
	Assignment    []int // start slot per occurrence (input order); Feasible only
	Overloads     []model.Overload
	TotalOverload int
	Stats         model.SolverStats
}

// SolverError reports an internal solver failure. It is fatal for the run and
// is never retried automatically.
type SolverError struct {
	Stage Stage
	Err   error
}

func (e *SolverError) Error() string {
	return fmt.Sprintf("solver failure in %s: %v", e.Stage, e.Err)
}

func (e *SolverError) Unwrap() error { return e.Err }

// Solve executes the two-stage state machine over the model. Cancellation is
// cooperative: the context is checked at stage boundaries and every
// checkInterval search nodes. A cancellation during Stage 1 never lets
// Stage 2 start.
func Solve(ctx context.Context, m *schedule.Model, limits Limits, hooks Hooks) (Outcome, error) {
	start := time.Now()
	s := &search{model: m, hooks: hooks}

	hooks.stage(Stage1Running)
	timer := stageTimer(solveDuration.WithLabelValues(Stage1Running.String()))
	res1 := s.stage1(ctx, limits.stage1())
	timer()
	defer func() { searchNodes.Add(float64(s.nodes)) }()

	stats := model.SolverStats{StageReached: 1, Nodes: s.nodes}
	switch res1.status {
	case searchCancelled:
		stats.WallTime = time.Since(start)
		stats.Status = "cancelled"
		return Outcome{Verdict: model.VerdictCancelled, Stats: stats}, nil
	case searchTimeout:
		stats.WallTime = time.Since(start)
		stats.Status = "inconclusive"
		return Outcome{Verdict: model.VerdictInconclusive, Stats: stats}, nil
	case searchFound:
		stats.WallTime = time.Since(start)
		stats.Status = "feasible"
		// ProvenOptimal stays false: it describes the Stage 2 objective and
		// carries no meaning for a feasibility witness.
		return Outcome{Verdict: model.VerdictFeasible, Assignment: res1.assignment, Stats: stats}, nil
	case searchExhausted:
		// Proven infeasible: fall through to the overload diagnosis.
	default:
		return Outcome{}, &SolverError{Stage: Stage1Running, Err: fmt.Errorf("unknown search status %d", res1.status)}
	}

	hooks.stage(Stage2Running)
	timer = stageTimer(solveDuration.WithLabelValues(Stage2Running.String()))
	res2 := s.stage2(ctx, limits.stage2())
	timer()

	stats.StageReached = 2
	stats.Nodes = s.nodes
	stats.WallTime = time.Since(start)
	switch res2.status {
	case searchCancelled:
		stats.Status = "cancelled"
		return Outcome{Verdict: model.VerdictCancelled, Stats: stats}, nil
	case searchFound, searchTimeout:
		stats.ProvenOptimal = res2.status == searchFound
		stats.Status = "infeasible"
		if res2.assignment == nil {
			return Outcome{}, &SolverError{Stage: Stage2Running, Err: fmt.Errorf("relaxed model produced no assignment")}
		}
		overloads, total := extractOverloads(m, res2.assignment)
		if total == 0 && res2.status == searchFound {
			// Zero minimal slack contradicts the Stage 1 infeasibility proof.
			return Outcome{}, &SolverError{Stage: Stage2Running, Err: fmt.Errorf("zero slack for a model proven infeasible")}
		}
		return Outcome{
			Verdict:       model.VerdictInfeasible,
			Overloads:     overloads,
			TotalOverload: total,
			Stats:         stats,
		}, nil
	default:
		return Outcome{}, &SolverError{Stage: Stage2Running, Err: fmt.Errorf("unknown search status %d", res2.status)}
	}
}

// extractOverloads rebuilds per-slot usage for the relaxed assignment and
// emits one entry per (date, slot, role) with positive slack, ordered by slot
// then role.
func extractOverloads(m *schedule.Model, assignment []int) ([]model.Overload, int) {
	grid := m.Grid
	usage := newUsage(grid.TotalSlots(), len(m.Roles))
	for i, start := range assignment {
		usage.add(start, m.Occurrences[i].DurationSlots, m.Demand[i], 1)
	}
	var overloads []model.Overload
	total := 0
	for slot := 0; slot < grid.TotalSlots(); slot++ {
		for r := range m.Roles {
			extra := usage.at(slot, r) - m.Capacity[r]
			if extra > 0 {
				overloads = append(overloads, model.Overload{
					Date:        grid.DateOf(grid.DayOf(slot)).Format(model.HolidayDateLayout),
					Slot:        grid.SlotLabel(grid.OffsetOf(slot)),
					Role:        m.Roles[r],
					ExtraNeeded: extra,
				})
				total += extra
			}
		}
	}
	return overloads, total
}

// stageTimer observes the elapsed stage duration on the given histogram.
func stageTimer(obs interface{ Observe(float64) }) func() {
	begin := time.Now()
	return func() { obs.Observe(time.Since(begin).Seconds()) }
}
