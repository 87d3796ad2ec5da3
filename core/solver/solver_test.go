package solver

import (
	"context"
	"testing"
	"time"

	"github.com/parkops/workplan/core/model"
	"github.com/parkops/workplan/core/plan"
	"github.com/parkops/workplan/core/schedule"
)

var quarterStart = time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

func buildModel(t *testing.T, activities []model.Activity, capacity map[string]int, days int, holidays ...string) *schedule.Model {
	t.Helper()
	rs, err := model.NewResourceSet(capacity, 4, holidays)
	if err != nil {
		t.Fatalf("resource set: %v", err)
	}
	occ, err := plan.Expand(activities, rs.SlotsPerDay)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	grid, err := schedule.NewGrid(quarterStart, days, rs)
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	m, err := schedule.Build(occ, rs, grid)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return m
}

func TestSolveFeasibleWhenAggregateFits(t *testing.T) {
	// Aggregate demand fits capacity even with full overlap, so any
	// placement satisfies the model and Stage 1 must succeed.
	activities := []model.Activity{
		{ID: "patrol", Frequency: 4, Duration: 1.0, Demand: map[string]int{"Ranger": 2}},
		{ID: "survey", Frequency: 2, Duration: 0.5, Demand: map[string]int{"Ranger": 1, "SeniorRanger": 1}},
	}
	m := buildModel(t, activities, map[string]int{"Ranger": 9, "SeniorRanger": 1}, 10)
	out, err := Solve(context.Background(), m, Limits{}, Hooks{})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if out.Verdict != model.VerdictFeasible {
		t.Fatalf("expected feasible, got %s", out.Verdict)
	}
	if out.Stats.StageReached != 1 {
		t.Fatalf("expected stage 1, got %d", out.Stats.StageReached)
	}
	if out.Stats.ProvenOptimal {
		t.Fatalf("a feasibility witness must not claim stage 2 optimality")
	}
	verifyAssignment(t, m, out.Assignment)
}

// verifyAssignment checks exactly-one placement per occurrence, day-boundary
// containment and capacity at every slot.
func verifyAssignment(t *testing.T, m *schedule.Model, assignment []int) {
	t.Helper()
	if len(assignment) != len(m.Occurrences) {
		t.Fatalf("expected %d placements, got %d", len(m.Occurrences), len(assignment))
	}
	grid := m.Grid
	used := make(map[int]int)
	for i, start := range assignment {
		o := m.Occurrences[i]
		if grid.OffsetOf(start)+o.DurationSlots > grid.SlotsPerDay {
			t.Fatalf("occurrence %s crosses a day boundary from slot %d", o.ID, start)
		}
		found := false
		for _, c := range m.Candidates[i] {
			if c == start {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("occurrence %s placed at non-candidate slot %d", o.ID, start)
		}
		for s := start; s < start+o.DurationSlots; s++ {
			for r, d := range m.Demand[i] {
				used[s*len(m.Roles)+r] += d
			}
		}
	}
	for key, n := range used {
		r := key % len(m.Roles)
		if n > m.Capacity[r] {
			t.Fatalf("capacity exceeded for role %s: %d > %d", m.Roles[r], n, m.Capacity[r])
		}
	}
}

func TestSolveInfeasibleReportsMinimalOverload(t *testing.T) {
	// Two full-day occurrences demanding one ranger each against a
	// single-ranger roster on a one-day horizon: both must overlap, so
	// the minimal slack is one extra ranger for all four slots.
	activities := []model.Activity{
		{ID: "burn", Frequency: 2, Duration: 1.0, Demand: map[string]int{"Ranger": 1}},
	}
	m := buildModel(t, activities, map[string]int{"Ranger": 1}, 1)
	out, err := Solve(context.Background(), m, Limits{}, Hooks{})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if out.Verdict != model.VerdictInfeasible {
		t.Fatalf("expected infeasible, got %s", out.Verdict)
	}
	if out.Stats.StageReached != 2 || !out.Stats.ProvenOptimal {
		t.Fatalf("expected proven stage 2 result, got %+v", out.Stats)
	}
	if out.TotalOverload != 4 {
		t.Fatalf("expected total overload 4, got %d", out.TotalOverload)
	}
	if len(out.Overloads) != 4 {
		t.Fatalf("expected 4 overload entries, got %d", len(out.Overloads))
	}
	sum := 0
	for _, o := range out.Overloads {
		if o.Role != "Ranger" || o.Date != "2026-07-01" {
			t.Fatalf("unexpected overload entry %+v", o)
		}
		sum += o.ExtraNeeded
	}
	if sum != out.TotalOverload {
		t.Fatalf("overload entries sum %d != objective %d", sum, out.TotalOverload)
	}
}

func TestSolveInconclusiveWhenStage1Expires(t *testing.T) {
	activities := []model.Activity{
		{ID: "a", Frequency: 1, Duration: 1.0, Demand: map[string]int{"Ranger": 1}},
	}
	m := buildModel(t, activities, map[string]int{"Ranger": 1}, 5)
	out, err := Solve(context.Background(), m, Limits{Stage1: -time.Nanosecond}, Hooks{})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if out.Verdict != model.VerdictInconclusive {
		t.Fatalf("expected inconclusive, got %s", out.Verdict)
	}
	if out.Assignment != nil || out.Overloads != nil {
		t.Fatalf("inconclusive result must carry no assignment or overloads")
	}
}

func TestSolveStage2BestEffortOnTimeout(t *testing.T) {
	activities := []model.Activity{
		{ID: "burn", Frequency: 2, Duration: 1.0, Demand: map[string]int{"Ranger": 1}},
	}
	m := buildModel(t, activities, map[string]int{"Ranger": 1}, 1)
	out, err := Solve(context.Background(), m, Limits{Stage2: -time.Nanosecond}, Hooks{})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if out.Verdict != model.VerdictInfeasible {
		t.Fatalf("expected infeasible, got %s", out.Verdict)
	}
	if out.Stats.ProvenOptimal {
		t.Fatalf("expired stage 2 must not claim optimality")
	}
	if len(out.Overloads) == 0 {
		t.Fatalf("best-effort result must still report overloads")
	}
}

func TestSolveCancelledBeforeStart(t *testing.T) {
	activities := []model.Activity{
		{ID: "a", Frequency: 1, Duration: 0.25, Demand: map[string]int{"Ranger": 1}},
	}
	m := buildModel(t, activities, map[string]int{"Ranger": 1}, 5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out, err := Solve(ctx, m, Limits{}, Hooks{})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if out.Verdict != model.VerdictCancelled {
		t.Fatalf("expected cancelled, got %s", out.Verdict)
	}
}

func TestSolveCancelledDuringStage2(t *testing.T) {
	activities := []model.Activity{
		{ID: "burn", Frequency: 2, Duration: 1.0, Demand: map[string]int{"Ranger": 1}},
	}
	m := buildModel(t, activities, map[string]int{"Ranger": 1}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	hooks := Hooks{OnStage: func(st Stage) {
		if st == Stage2Running {
			cancel()
		}
	}}
	out, err := Solve(ctx, m, Limits{}, hooks)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if out.Verdict != model.VerdictCancelled {
		t.Fatalf("expected cancelled, got %s", out.Verdict)
	}
	if out.Stats.StageReached != 2 {
		t.Fatalf("expected cancellation in stage 2, got stage %d", out.Stats.StageReached)
	}
}

func TestStage2ZeroSlackMatchesStage1Feasibility(t *testing.T) {
	// Internal consistency: a model Stage 1 accepts has a Stage 2 minimum
	// of zero, and a model Stage 1 rejects has a strictly positive one.
	feasible := buildModel(t, []model.Activity{
		{ID: "a", Frequency: 2, Duration: 0.5, Demand: map[string]int{"Ranger": 1}},
	}, map[string]int{"Ranger": 1}, 2)
	s := &search{model: feasible}
	if res := s.stage1(context.Background(), time.Minute); res.status != searchFound {
		t.Fatalf("stage1 should find an assignment")
	}
	s = &search{model: feasible}
	res := s.stage2(context.Background(), time.Minute)
	if res.status != searchFound {
		t.Fatalf("stage2 should complete")
	}
	if _, total := extractOverloads(feasible, res.assignment); total != 0 {
		t.Fatalf("feasible model must have zero minimal slack, got %d", total)
	}

	infeasible := buildModel(t, []model.Activity{
		{ID: "a", Frequency: 2, Duration: 1.0, Demand: map[string]int{"Ranger": 1}},
	}, map[string]int{"Ranger": 1}, 1)
	s = &search{model: infeasible}
	if res := s.stage1(context.Background(), time.Minute); res.status != searchExhausted {
		t.Fatalf("stage1 should prove infeasibility")
	}
	s = &search{model: infeasible}
	res = s.stage2(context.Background(), time.Minute)
	if res.status != searchFound {
		t.Fatalf("stage2 should complete")
	}
	if _, total := extractOverloads(infeasible, res.assignment); total == 0 {
		t.Fatalf("infeasible model must have positive minimal slack")
	}
}

func TestSolveDeterministic(t *testing.T) {
	activities := []model.Activity{
		{ID: "patrol", Frequency: 6, Duration: 0.5, Demand: map[string]int{"Ranger": 2}},
		{ID: "survey", Frequency: 3, Duration: 1.0, Demand: map[string]int{"Ranger": 1, "SeniorRanger": 1}},
		{ID: "brief", Frequency: 4, Duration: 0.25, Demand: map[string]int{"RangerCoordinator": 1}},
	}
	caps := map[string]int{"RangerCoordinator": 1, "SeniorRanger": 1, "Ranger": 3}
	first := buildModel(t, activities, caps, 4)
	second := buildModel(t, activities, caps, 4)

	out1, err := Solve(context.Background(), first, Limits{}, Hooks{})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	out2, err := Solve(context.Background(), second, Limits{}, Hooks{})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if out1.Verdict != out2.Verdict {
		t.Fatalf("verdicts differ: %s vs %s", out1.Verdict, out2.Verdict)
	}
	if len(out1.Assignment) != len(out2.Assignment) {
		t.Fatalf("assignment lengths differ")
	}
	for i := range out1.Assignment {
		if out1.Assignment[i] != out2.Assignment[i] {
			t.Fatalf("placement %d differs: %d vs %d", i, out1.Assignment[i], out2.Assignment[i])
		}
	}
}
