package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/parkops/workplan/core/model"
)

var quarterStart = time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

func resources(t *testing.T, capacity map[string]int, holidays ...string) model.ResourceSet {
	t.Helper()
	rs, err := model.NewResourceSet(capacity, 4, holidays)
	if err != nil {
		t.Fatalf("resource set: %v", err)
	}
	return rs
}

func TestGridSlotIndexing(t *testing.T) {
	g, err := NewGrid(quarterStart, 60, resources(t, nil))
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	if g.TotalSlots() != 240 {
		t.Fatalf("expected 240 slots, got %d", g.TotalSlots())
	}
	slot := g.SlotIndex(3, 2)
	if slot != 14 {
		t.Fatalf("expected slot 14, got %d", slot)
	}
	if g.DayOf(slot) != 3 || g.OffsetOf(slot) != 2 {
		t.Fatalf("round trip failed: day %d offset %d", g.DayOf(slot), g.OffsetOf(slot))
	}
	if got := g.DateOf(3).Format(model.HolidayDateLayout); got != "2026-07-04" {
		t.Fatalf("expected 2026-07-04, got %s", got)
	}
}

func TestGridMarksHolidays(t *testing.T) {
	g, err := NewGrid(quarterStart, 10, resources(t, nil, "2026-07-03"))
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	if !g.IsHoliday(2) {
		t.Fatalf("day 2 should be a holiday")
	}
	if g.WorkingDays() != 9 {
		t.Fatalf("expected 9 working days, got %d", g.WorkingDays())
	}
}

func TestGridSlotLabels(t *testing.T) {
	g, err := NewGrid(quarterStart, 1, resources(t, nil))
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	want := []string{"AM1", "AM2", "PM1", "PM2"}
	for k, w := range want {
		if got := g.SlotLabel(k); got != w {
			t.Fatalf("offset %d: expected %s got %s", k, w, got)
		}
	}
}

func occ(id string, slots int, demand map[string]int) model.Occurrence {
	return model.Occurrence{ID: id, ActivityID: id, Index: 0, DurationSlots: slots, Demand: demand}
}

func TestBuildCandidatesRespectDayBoundary(t *testing.T) {
	rs := resources(t, map[string]int{"Ranger": 1})
	g, err := NewGrid(quarterStart, 2, rs)
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	m, err := Build([]model.Occurrence{occ("o1", 2, map[string]int{"Ranger": 1})}, rs, g)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	// Two-slot occurrence over two days: offsets 0..2 per day.
	want := []int{0, 1, 2, 4, 5, 6}
	got := m.Candidates[0]
	if len(got) != len(want) {
		t.Fatalf("expected %d candidates, got %d", len(want), len(got))
	}
	for i, s := range want {
		if got[i] != s {
			t.Fatalf("candidate %d: expected %d got %d", i, s, got[i])
		}
	}
}

func TestBuildOmitsHolidayDays(t *testing.T) {
	rs := resources(t, map[string]int{"Ranger": 1}, "2026-07-01")
	g, err := NewGrid(quarterStart, 2, rs)
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	m, err := Build([]model.Occurrence{occ("o1", 4, map[string]int{"Ranger": 1})}, rs, g)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(m.Candidates[0]) != 1 || m.Candidates[0][0] != 4 {
		t.Fatalf("expected single candidate on day 1, got %v", m.Candidates[0])
	}
}

func TestBuildStructuralTooLong(t *testing.T) {
	rs := resources(t, map[string]int{"Ranger": 1})
	g, err := NewGrid(quarterStart, 60, rs)
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	_, err = Build([]model.Occurrence{occ("o1", 5, map[string]int{"Ranger": 1})}, rs, g)
	var serr *StructuralInfeasibleError
	if !errors.As(err, &serr) {
		t.Fatalf("expected StructuralInfeasibleError, got %v", err)
	}
	if len(serr.OccurrenceIDs) != 1 || serr.OccurrenceIDs[0] != "o1" {
		t.Fatalf("unexpected offenders: %v", serr.OccurrenceIDs)
	}
}

func TestBuildStructuralAllHolidays(t *testing.T) {
	rs := resources(t, map[string]int{"Ranger": 1}, "2026-07-01", "2026-07-02")
	g, err := NewGrid(quarterStart, 2, rs)
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	_, err = Build([]model.Occurrence{occ("o1", 1, map[string]int{"Ranger": 1})}, rs, g)
	var serr *StructuralInfeasibleError
	if !errors.As(err, &serr) {
		t.Fatalf("expected StructuralInfeasibleError, got %v", err)
	}
}

func TestBuildVarCount(t *testing.T) {
	rs := resources(t, map[string]int{"Ranger": 1})
	g, err := NewGrid(quarterStart, 60, rs)
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	m, err := Build([]model.Occurrence{
		occ("o1", 4, map[string]int{"Ranger": 1}), // one start per day
		occ("o2", 1, map[string]int{"Ranger": 1}), // four starts per day
	}, rs, g)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if m.VarCount() != 60+240 {
		t.Fatalf("expected 300 variables, got %d", m.VarCount())
	}
}
