package model

// Activity is one planned work item from the quarterly work-plan. It is
// accepted once, validated by the expander, and never mutated afterwards.
type Activity struct {
	ID        string         // unique within a work-plan
	Name      string         // human readable label
	Quarter   string         // quarter label, e.g. "Q3"
	Frequency int            // number of independent repetitions, >= 1
	Duration  float64        // fraction of a day: 0.25, 0.5 or 1.0
	Demand    map[string]int // role name -> simultaneous staff required
}

// Durations permitted for an activity, expressed as day fractions.
var ValidDurations = []float64{0.25, 0.5, 1.0}

// ValidDuration reports whether d is one of the permitted day fractions.
func ValidDuration(d float64) bool {
	for _, v := range ValidDurations {
		if d == v {
			return true
		}
	}
	return false
}

// DemandFor returns the demand count for role, zero when the activity does not
// use the role.
func (a Activity) DemandFor(role string) int {
	return a.Demand[role]
}

// CloneDemand returns an independent copy of the demand vector. Occurrences
// carry their own copy so a later edit of the activity cannot alias into a
// running analysis.
func (a Activity) CloneDemand() map[string]int {
	cp := make(map[string]int, len(a.Demand))
	for r, n := range a.Demand {
		cp[r] = n
	}
	return cp
}
