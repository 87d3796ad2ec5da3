package schedule

import (
	"fmt"
	"strings"

	"github.com/parkops/workplan/core/model"
)

// StructuralInfeasibleError reports occurrences with no valid placement under
// any capacity regime: either too long for a single day or squeezed out by
// holidays. It is distinct from capacity-driven infeasibility because adding
// staff cannot fix it.
type StructuralInfeasibleError struct {
	OccurrenceIDs []string
}

func (e *StructuralInfeasibleError) Error() string {
	return fmt.Sprintf("no valid placement for occurrences: %s", strings.Join(e.OccurrenceIDs, ", "))
}

// Model is the constraint model for one occurrence set against one resource
// snapshot. For every occurrence o a boolean start variable exists per
// candidate absolute slot; the solver must pick exactly one per occurrence
// while per-slot per-role usage stays within capacity. Holiday days carry no
// candidates at all, shrinking the search space instead of zeroing capacity.
type Model struct {
	Grid        Grid
	Occurrences []model.Occurrence
	Roles       []string
	Capacity    []int   // aligned with Roles
	Demand      [][]int // [occurrence][role index]
	Candidates  [][]int // [occurrence] ascending absolute start slots
}

// Build constructs the model as a pure function of its inputs. It returns a
// StructuralInfeasibleError naming every occurrence that has zero candidate
// start slots.
func Build(occurrences []model.Occurrence, rs model.ResourceSet, grid Grid) (*Model, error) {
	if grid.SlotsPerDay != rs.SlotsPerDay {
		return nil, fmt.Errorf("grid has %d slots per day but resource set has %d", grid.SlotsPerDay, rs.SlotsPerDay)
	}
	roles := rs.Roles()
	m := &Model{
		Grid:        grid,
		Occurrences: occurrences,
		Roles:       roles,
		Capacity:    make([]int, len(roles)),
		Demand:      make([][]int, len(occurrences)),
		Candidates:  make([][]int, len(occurrences)),
	}
	for i, role := range roles {
		m.Capacity[i] = rs.CapacityFor(role)
	}

	var structural []string
	for i, o := range occurrences {
		m.Demand[i] = make([]int, len(roles))
		for r, role := range roles {
			m.Demand[i][r] = o.DemandFor(role)
		}
		m.Candidates[i] = candidateStarts(grid, o.DurationSlots)
		if len(m.Candidates[i]) == 0 {
			structural = append(structural, o.ID)
		}
	}
	if len(structural) > 0 {
		return nil, &StructuralInfeasibleError{OccurrenceIDs: structural}
	}
	return m, nil
}

// candidateStarts enumerates the absolute start slots keeping the occupied
// range [start, start+length) inside one non-holiday day.
func candidateStarts(grid Grid, length int) []int {
	if length > grid.SlotsPerDay || length < 1 {
		return nil
	}
	var starts []int
	for d := 0; d < grid.Days; d++ {
		if grid.IsHoliday(d) {
			continue
		}
		for k := 0; k+length <= grid.SlotsPerDay; k++ {
			starts = append(starts, grid.SlotIndex(d, k))
		}
	}
	return starts
}

// VarCount is the number of boolean start variables in the model.
func (m *Model) VarCount() int {
	n := 0
	for _, c := range m.Candidates {
		n += len(c)
	}
	return n
}

// RoleIndex returns the index of role in Roles, or -1.
func (m *Model) RoleIndex(role string) int {
	for i, r := range m.Roles {
		if r == role {
			return i
		}
	}
	return -1
}
