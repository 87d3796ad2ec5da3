package model

import "fmt"

// Occurrence is one concrete execution instance of an activity after frequency
// expansion. It is the atomic unit placed by the scheduling model and is never
// subdivided or allowed to span a day boundary.
type Occurrence struct {
	ID            string         // activity id + repetition index
	ActivityID    string
	ActivityName  string
	Index         int            // 0-based repetition index
	DurationSlots int            // duration in slots, exact integer
	Demand        map[string]int // role -> staff required, copied from the activity
}

// OccurrenceID derives the identifier for repetition idx of an activity.
func OccurrenceID(activityID string, idx int) string {
	return fmt.Sprintf("%s#%d", activityID, idx)
}

// DemandFor returns the demand count for role, zero when unused.
func (o Occurrence) DemandFor(role string) int {
	return o.Demand[role]
}
