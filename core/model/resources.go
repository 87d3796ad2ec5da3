package model

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// DefaultSlotsPerDay divides a working day into four two-hour slots.
const DefaultSlotsPerDay = 4

// HolidayDateLayout is the wire format for public holiday dates.
const HolidayDateLayout = "2006-01-02"

// ResourceSet describes the roster available to a work-plan: per-role capacity,
// the slot granularity and the public holidays on which every capacity drops to
// zero. A ResourceSet may be edited between analyses; a run always binds a
// Snapshot so later edits cannot leak into a stored Analysis.
type ResourceSet struct {
	Version     string         // snapshot identity, assigned by Snapshot
	Capacity    map[string]int // role -> simultaneous staff available per slot
	SlotsPerDay int
	Holidays    map[string]struct{} // dates formatted with HolidayDateLayout
}

// DefaultRoster mirrors the roster shipped with the original ranger work-plans.
func DefaultRoster() map[string]int {
	return map[string]int{
		"RangerCoordinator": 1,
		"SeniorRanger":      2,
		"Ranger":            5,
	}
}

// NewResourceSet builds a ResourceSet with defaults applied: the default roster
// when capacity is empty and DefaultSlotsPerDay when slotsPerDay is zero.
func NewResourceSet(capacity map[string]int, slotsPerDay int, holidays []string) (ResourceSet, error) {
	if len(capacity) == 0 {
		capacity = DefaultRoster()
	}
	if slotsPerDay == 0 {
		slotsPerDay = DefaultSlotsPerDay
	}
	if slotsPerDay < 1 {
		return ResourceSet{}, fmt.Errorf("slots per day must be positive, got %d", slotsPerDay)
	}
	for role, c := range capacity {
		if c < 0 {
			return ResourceSet{}, fmt.Errorf("capacity for role %s must be non-negative, got %d", role, c)
		}
	}
	hs := make(map[string]struct{}, len(holidays))
	for _, h := range holidays {
		if _, err := time.Parse(HolidayDateLayout, h); err != nil {
			return ResourceSet{}, fmt.Errorf("holiday %q: %w", h, err)
		}
		hs[h] = struct{}{}
	}
	return ResourceSet{Capacity: capacity, SlotsPerDay: slotsPerDay, Holidays: hs}, nil
}

// Roles returns the configured role names in deterministic order.
func (r ResourceSet) Roles() []string {
	roles := make([]string, 0, len(r.Capacity))
	for role := range r.Capacity {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}

// CapacityFor returns the per-slot capacity of role, zero when unknown.
func (r ResourceSet) CapacityFor(role string) int {
	return r.Capacity[role]
}

// IsHoliday reports whether the given date carries zero capacity for all roles.
func (r ResourceSet) IsHoliday(date time.Time) bool {
	_, ok := r.Holidays[date.Format(HolidayDateLayout)]
	return ok
}

// Snapshot returns a deep copy with a fresh version identifier. The copy is the
// value an Analysis binds to; the original stays editable.
func (r ResourceSet) Snapshot() ResourceSet {
	cp := ResourceSet{
		Version:     uuid.NewString(),
		Capacity:    make(map[string]int, len(r.Capacity)),
		SlotsPerDay: r.SlotsPerDay,
		Holidays:    make(map[string]struct{}, len(r.Holidays)),
	}
	for role, c := range r.Capacity {
		cp.Capacity[role] = c
	}
	for h := range r.Holidays {
		cp.Holidays[h] = struct{}{}
	}
	return cp
}

// HolidayList returns the holiday dates in deterministic order.
func (r ResourceSet) HolidayList() []string {
	hs := make([]string, 0, len(r.Holidays))
	for h := range r.Holidays {
		hs = append(hs, h)
	}
	sort.Strings(hs)
	return hs
}
