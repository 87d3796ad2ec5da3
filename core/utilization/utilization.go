// Package utilization computes aggregate per-role load percentages. The
// figures are independent of the solver outcome: they are a demand-to-capacity
// indicator, not a per-slot feasibility statement, and may exceed 100%.
package utilization

import (
	"gonum.org/v1/gonum/floats"

	"github.com/parkops/workplan/core/model"
	"github.com/parkops/workplan/core/schedule"
)

// Compute returns the utilization percentage per role:
//
//	sum over occurrences of demand(role) * durationSlots
//	--------------------------------------------------- * 100
//	capacity(role) * non-holiday slots in the horizon
//
// Holiday slots carry no capacity and are excluded from the denominator.
// Roles with zero capacity report 0 to keep the figure finite; their shortage
// shows up in the overload report instead.
func Compute(occurrences []model.Occurrence, rs model.ResourceSet, grid schedule.Grid) map[string]float64 {
	effectiveSlots := float64(grid.WorkingDays() * grid.SlotsPerDay)
	util := make(map[string]float64, len(rs.Capacity))
	for _, role := range rs.Roles() {
		capacity := float64(rs.CapacityFor(role))
		if capacity == 0 || effectiveSlots == 0 {
			util[role] = 0
			continue
		}
		demand := make([]float64, 0, len(occurrences))
		for _, o := range occurrences {
			if d := o.DemandFor(role); d > 0 {
				demand = append(demand, float64(d*o.DurationSlots))
			}
		}
		util[role] = floats.Sum(demand) / (capacity * effectiveSlots) * 100
	}
	return util
}
