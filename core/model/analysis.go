package model

import (
	"time"

	"github.com/google/uuid"
)

// Verdict is the terminal outcome of a feasibility run.
type Verdict int

const (
	VerdictPending Verdict = iota
	VerdictFeasible
	VerdictInfeasible
	// VerdictInconclusive means the time budget ran out with neither an
	// assignment nor a proof of impossibility. It must never be collapsed
	// into Feasible or Infeasible by callers.
	VerdictInconclusive
	VerdictCancelled
)

func (v Verdict) String() string {
	switch v {
	case VerdictFeasible:
		return "feasible"
	case VerdictInfeasible:
		return "infeasible"
	case VerdictInconclusive:
		return "inconclusive"
	case VerdictCancelled:
		return "cancelled"
	default:
		return "pending"
	}
}

// Terminal reports whether the verdict ends a run.
func (v Verdict) Terminal() bool {
	return v == VerdictFeasible || v == VerdictInfeasible || v == VerdictInconclusive || v == VerdictCancelled
}

// Overload is the minimal extra capacity needed for one role at one slot to
// make the plan satisfiable, aggregated to a calendar date and slot label.
type Overload struct {
	Date        string `json:"date"` // ISO date
	Slot        string `json:"slot"` // intra-day slot label
	Role        string `json:"role"`
	ExtraNeeded int    `json:"extra_needed"`
}

// SolverStats captures how a run terminated.
type SolverStats struct {
	StageReached    int           `json:"stage_reached"` // 1 or 2
	WallTime        time.Duration `json:"-"`
	WallTimeSeconds float64       `json:"wall_time_seconds"`
	ProvenOptimal   bool          `json:"proven_optimal"`
	Nodes           int64         `json:"nodes"`
	Status          string        `json:"status"`
}

// Analysis is the immutable record of one feasibility run: verdict,
// diagnostics, utilization and solver statistics against one occurrence set
// and one ResourceSet snapshot. Once created it is never mutated; it is only
// appended to a project's history.
type Analysis struct {
	ID                 string
	CreatedAt          time.Time
	ResourceSetVersion string
	Verdict            Verdict
	Structural         bool // infeasibility independent of capacity
	Utilisation        map[string]float64
	Overloads          []Overload
	Stats              SolverStats
}

// NewAnalysis stamps identity and creation time on a finished run.
func NewAnalysis(rsVersion string, verdict Verdict, structural bool, util map[string]float64, overloads []Overload, stats SolverStats) Analysis {
	stats.WallTimeSeconds = stats.WallTime.Seconds()
	return Analysis{
		ID:                 uuid.NewString(),
		CreatedAt:          time.Now().UTC(),
		ResourceSetVersion: rsVersion,
		Verdict:            verdict,
		Structural:         structural,
		Utilisation:        util,
		Overloads:          overloads,
		Stats:              stats,
	}
}

// TotalOverload sums the extra capacity across all overload entries. For an
// infeasible run with proven optimality it equals the Stage 2 objective.
func (a Analysis) TotalOverload() int {
	total := 0
	for _, o := range a.Overloads {
		total += o.ExtraNeeded
	}
	return total
}
