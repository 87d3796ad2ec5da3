// Package plan expands a validated work-plan into the occurrence list consumed
// by the scheduling model.
package plan

import (
	"fmt"

	"github.com/parkops/workplan/core/model"
)

// ValidationError reports a work-plan record that violates a model
// precondition. Syntactic parsing happens upstream; these checks remain in the
// core because the model is only correct for durations, frequencies and
// demands in range.
type ValidationError struct {
	ActivityID string
	Field      string
	Reason     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("activity %s: invalid %s: %s", e.ActivityID, e.Field, e.Reason)
}

// Expand turns each activity into exactly Frequency occurrences. Output order
// follows input activity order with repetitions grouped and indexed from 0.
// Demand vectors are copied so occurrences stay valid if the source activity
// is later edited.
func Expand(activities []model.Activity, slotsPerDay int) ([]model.Occurrence, error) {
	if slotsPerDay < 1 {
		return nil, fmt.Errorf("slots per day must be positive, got %d", slotsPerDay)
	}
	var occurrences []model.Occurrence
	for _, a := range activities {
		if !model.ValidDuration(a.Duration) {
			return nil, &ValidationError{ActivityID: a.ID, Field: "duration",
				Reason: fmt.Sprintf("%g is not one of 0.25, 0.5, 1.0", a.Duration)}
		}
		if a.Frequency < 1 {
			return nil, &ValidationError{ActivityID: a.ID, Field: "frequency",
				Reason: fmt.Sprintf("%d is below 1", a.Frequency)}
		}
		for role, n := range a.Demand {
			if n < 0 {
				return nil, &ValidationError{ActivityID: a.ID, Field: "demand",
					Reason: fmt.Sprintf("role %s has negative demand %d", role, n)}
			}
		}
		slots, ok := durationSlots(a.Duration, slotsPerDay)
		if !ok {
			return nil, &ValidationError{ActivityID: a.ID, Field: "duration",
				Reason: fmt.Sprintf("%g days is not a whole number of slots at %d slots per day", a.Duration, slotsPerDay)}
		}
		for i := 0; i < a.Frequency; i++ {
			occurrences = append(occurrences, model.Occurrence{
				ID:            model.OccurrenceID(a.ID, i),
				ActivityID:    a.ID,
				ActivityName:  a.Name,
				Index:         i,
				DurationSlots: slots,
				Demand:        a.CloneDemand(),
			})
		}
	}
	return occurrences, nil
}

// durationSlots converts a day fraction into whole slots. The product must be
// an exact positive integer: a 0.25-day activity at two slots per day has no
// representable length and is rejected rather than rounded. Valid durations
// are binary fractions, so the float comparison is exact.
func durationSlots(duration float64, slotsPerDay int) (int, bool) {
	exact := duration * float64(slotsPerDay)
	slots := int(exact + 0.5)
	if slots < 1 || float64(slots) != exact {
		return 0, false
	}
	return slots, true
}
