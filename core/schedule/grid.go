// Package schedule maps the planning horizon onto discrete slots and builds
// the constraint model solved by core/solver.
package schedule

import (
	"fmt"
	"time"

	"github.com/parkops/workplan/core/model"
)

// DefaultHorizonDays is the planning horizon of one quarter.
const DefaultHorizonDays = 60

// Grid is the discrete planning horizon: Days consecutive days starting at
// Start, each split into SlotsPerDay slots. A slot has the absolute index
// day*SlotsPerDay+offset.
type Grid struct {
	Start       time.Time
	Days        int
	SlotsPerDay int
	holiday     []bool
}

// NewGrid builds the horizon grid, marking the days whose date appears in the
// resource set's holiday list.
func NewGrid(start time.Time, days int, rs model.ResourceSet) (Grid, error) {
	if days < 1 {
		return Grid{}, fmt.Errorf("horizon must cover at least one day, got %d", days)
	}
	if rs.SlotsPerDay < 1 {
		return Grid{}, fmt.Errorf("slots per day must be positive, got %d", rs.SlotsPerDay)
	}
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	g := Grid{Start: start, Days: days, SlotsPerDay: rs.SlotsPerDay, holiday: make([]bool, days)}
	for d := 0; d < days; d++ {
		g.holiday[d] = rs.IsHoliday(g.DateOf(d))
	}
	return g, nil
}

// TotalSlots is the horizon length in slots, holidays included.
func (g Grid) TotalSlots() int { return g.Days * g.SlotsPerDay }

// SlotIndex converts a day and intra-day offset to an absolute slot index.
func (g Grid) SlotIndex(day, offset int) int { return day*g.SlotsPerDay + offset }

// DayOf returns the day index containing the absolute slot.
func (g Grid) DayOf(slot int) int { return slot / g.SlotsPerDay }

// OffsetOf returns the intra-day offset of the absolute slot.
func (g Grid) OffsetOf(slot int) int { return slot % g.SlotsPerDay }

// DateOf returns the calendar date of a day index.
func (g Grid) DateOf(day int) time.Time { return g.Start.AddDate(0, 0, day) }

// IsHoliday reports whether the day carries zero capacity for every role.
func (g Grid) IsHoliday(day int) bool { return g.holiday[day] }

// WorkingDays counts the non-holiday days in the horizon.
func (g Grid) WorkingDays() int {
	n := 0
	for _, h := range g.holiday {
		if !h {
			n++
		}
	}
	return n
}

// SlotLabel renders a human readable intra-day label for reports. With the
// default four slots per day the labels follow the morning/afternoon halves.
func (g Grid) SlotLabel(offset int) string {
	if g.SlotsPerDay == 4 {
		return [...]string{"AM1", "AM2", "PM1", "PM2"}[offset]
	}
	return fmt.Sprintf("S%d", offset+1)
}
