package solver

import (
	"context"
	"sort"
	"time"

	"github.com/parkops/workplan/core/schedule"
)

type searchStatus int

const (
	searchFound searchStatus = iota
	searchExhausted
	searchTimeout
	searchCancelled
)

// usage tracks per-slot per-role staff counts for the partial assignment.
type usage struct {
	data  []int
	roles int
}

func newUsage(slots, roles int) *usage {
	return &usage{data: make([]int, slots*roles), roles: roles}
}

func (u *usage) at(slot, role int) int { return u.data[slot*u.roles+role] }

// add applies (sign=+1) or retracts (sign=-1) an occurrence occupying
// [start, start+length) with the given demand vector.
func (u *usage) add(start, length int, demand []int, sign int) {
	for s := start; s < start+length; s++ {
		base := s * u.roles
		for r, d := range demand {
			if d != 0 {
				u.data[base+r] += sign * d
			}
		}
	}
}

type searchResult struct {
	status     searchStatus
	assignment []int
}

// search holds the mutable state shared by both stages.
type search struct {
	model *schedule.Model
	hooks Hooks
	nodes int64

	order    []int // occurrence indices, fewest candidates first
	usage    *usage
	assign   []int
	started  time.Time
	deadline time.Time
	ctx      context.Context
	stage    Stage

	// Stage 2 incumbent.
	bestCost   int
	bestAssign []int
}

// prepare resets the per-stage state. The occurrence order is a stable sort on
// candidate count so the most constrained occurrences are decided first.
func (s *search) prepare(ctx context.Context, stage Stage, limit time.Duration) {
	m := s.model
	s.ctx = ctx
	s.stage = stage
	s.started = time.Now()
	s.deadline = s.started.Add(limit)
	s.usage = newUsage(m.Grid.TotalSlots(), len(m.Roles))
	s.assign = make([]int, len(m.Occurrences))
	s.order = make([]int, len(m.Occurrences))
	for i := range s.order {
		s.order[i] = i
	}
	sort.SliceStable(s.order, func(a, b int) bool {
		return len(m.Candidates[s.order[a]]) < len(m.Candidates[s.order[b]])
	})
}

// checkpoint polls cancellation and the stage deadline, emitting a progress
// snapshot at every node-count boundary.
func (s *search) checkpoint() searchStatus {
	s.nodes++
	if s.nodes%checkInterval != 0 {
		return searchExhausted
	}
	if s.ctx.Err() != nil {
		return searchCancelled
	}
	if !time.Now().Before(s.deadline) {
		return searchTimeout
	}
	s.hooks.progress(Progress{
		Stage:        s.stage,
		Elapsed:      time.Since(s.started),
		Nodes:        s.nodes,
		BestOverload: s.bestCost,
	})
	return searchExhausted
}

// fits reports whether placing demand over [start, start+length) keeps every
// role within capacity.
func (s *search) fits(start, length int, demand []int) bool {
	m := s.model
	for slot := start; slot < start+length; slot++ {
		base := slot * s.usage.roles
		for r, d := range demand {
			if d != 0 && s.usage.data[base+r]+d > m.Capacity[r] {
				return false
			}
		}
	}
	return true
}

// stage1 runs the pure feasibility search: depth-first over occurrences in
// prepared order, candidate start slots ascending. It is exact: exhausting the
// tree proves no satisfying assignment exists.
func (s *search) stage1(ctx context.Context, limit time.Duration) searchResult {
	s.prepare(ctx, Stage1Running, limit)
	if ctx.Err() != nil {
		return searchResult{status: searchCancelled}
	}
	if limit <= 0 {
		return searchResult{status: searchTimeout}
	}
	status := s.dfs1(0)
	if status == searchFound {
		out := make([]int, len(s.assign))
		copy(out, s.assign)
		return searchResult{status: searchFound, assignment: out}
	}
	return searchResult{status: status}
}

func (s *search) dfs1(depth int) searchStatus {
	if st := s.checkpoint(); st != searchExhausted {
		return st
	}
	if depth == len(s.order) {
		return searchFound
	}
	m := s.model
	i := s.order[depth]
	length := m.Occurrences[i].DurationSlots
	demand := m.Demand[i]
	for _, start := range m.Candidates[i] {
		if !s.fits(start, length, demand) {
			continue
		}
		s.usage.add(start, length, demand, 1)
		s.assign[i] = start
		st := s.dfs1(depth + 1)
		if st != searchExhausted {
			return st
		}
		s.usage.add(start, length, demand, -1)
	}
	return searchExhausted
}

// stage2 relaxes the capacity constraints and minimizes the total slack via
// branch and bound. The incumbent is seeded greedily so a timeout still
// returns the best assignment found.
func (s *search) stage2(ctx context.Context, limit time.Duration) searchResult {
	s.prepare(ctx, Stage2Running, limit)
	if ctx.Err() != nil {
		return searchResult{status: searchCancelled}
	}
	s.seedIncumbent()
	if limit <= 0 {
		return searchResult{status: searchTimeout, assignment: s.bestAssign}
	}
	status := s.dfs2(0, 0)
	switch status {
	case searchExhausted:
		// Tree fully explored: the incumbent is the proven minimum.
		return searchResult{status: searchFound, assignment: s.bestAssign}
	case searchCancelled:
		return searchResult{status: searchCancelled}
	default:
		return searchResult{status: searchTimeout, assignment: s.bestAssign}
	}
}

// seedIncumbent places every occurrence at its cheapest candidate in order,
// ties broken by lowest slot, to establish an upper bound before branching.
func (s *search) seedIncumbent() {
	m := s.model
	total := 0
	for _, i := range s.order {
		length := m.Occurrences[i].DurationSlots
		demand := m.Demand[i]
		bestStart, bestInc := -1, 0
		for _, start := range m.Candidates[i] {
			inc := s.increment(start, length, demand)
			if bestStart < 0 || inc < bestInc {
				bestStart, bestInc = start, inc
			}
		}
		s.usage.add(bestStart, length, demand, 1)
		s.assign[i] = bestStart
		total += bestInc
	}
	s.bestCost = total
	s.bestAssign = make([]int, len(s.assign))
	copy(s.bestAssign, s.assign)
	// Retract everything so the branch-and-bound starts from an empty grid.
	for _, i := range s.order {
		s.usage.add(s.assign[i], m.Occurrences[i].DurationSlots, m.Demand[i], -1)
	}
}

// increment is the additional slack incurred by placing demand at start given
// the current usage. Placements only ever add load, so partial cost is a valid
// lower bound for pruning.
func (s *search) increment(start, length int, demand []int) int {
	m := s.model
	inc := 0
	for slot := start; slot < start+length; slot++ {
		base := slot * s.usage.roles
		for r, d := range demand {
			if d == 0 {
				continue
			}
			over := s.usage.data[base+r] + d - m.Capacity[r]
			if over <= 0 {
				continue
			}
			if already := s.usage.data[base+r] - m.Capacity[r]; already > 0 {
				over -= already
			}
			inc += over
		}
	}
	return inc
}

type stage2Choice struct {
	start int
	inc   int
}

func (s *search) dfs2(depth, cost int) searchStatus {
	if st := s.checkpoint(); st != searchExhausted {
		return st
	}
	if cost >= s.bestCost {
		return searchExhausted
	}
	if depth == len(s.order) {
		s.bestCost = cost
		copy(s.bestAssign, s.assign)
		return searchExhausted
	}
	m := s.model
	i := s.order[depth]
	length := m.Occurrences[i].DurationSlots
	demand := m.Demand[i]

	choices := make([]stage2Choice, 0, len(m.Candidates[i]))
	for _, start := range m.Candidates[i] {
		choices = append(choices, stage2Choice{start: start, inc: s.increment(start, length, demand)})
	}
	sort.SliceStable(choices, func(a, b int) bool { return choices[a].inc < choices[b].inc })

	for _, c := range choices {
		if cost+c.inc >= s.bestCost {
			// Choices are sorted by increment, nothing cheaper follows.
			break
		}
		s.usage.add(c.start, length, demand, 1)
		s.assign[i] = c.start
		st := s.dfs2(depth+1, cost+c.inc)
		s.usage.add(c.start, length, demand, -1)
		if st != searchExhausted {
			return st
		}
	}
	return searchExhausted
}
