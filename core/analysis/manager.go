// Package analysis runs feasibility analyses off the interactive thread:
// expansion, model build and the two-stage solve execute on a worker
// goroutine, reporting progress on the event bus and honoring cancellation.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/parkops/workplan/core/events"
	"github.com/parkops/workplan/core/logger"
	coremetrics "github.com/parkops/workplan/core/metrics"
	"github.com/parkops/workplan/core/model"
	"github.com/parkops/workplan/core/plan"
	"github.com/parkops/workplan/core/project"
	"github.com/parkops/workplan/core/schedule"
	"github.com/parkops/workplan/core/solver"
	"github.com/parkops/workplan/core/utilization"
	"github.com/parkops/workplan/internal/eventbus"
)

// ErrAnalysisInFlight is returned when a project already has a running
// analysis. Concurrent runs against one project are rejected, not interleaved,
// because a run must read a consistent work-plan/resource snapshot.
var ErrAnalysisInFlight = errors.New("analysis already in flight for project")

// Manager coordinates analysis workers: one in-flight run per project,
// snapshot isolation of inputs, stage-ordered notifications and append-only
// history updates on terminal non-cancelled verdicts.
type Manager struct {
	bus    eventbus.EventBus
	sink   coremetrics.MetricsSink
	log    logger.Logger
	limits solver.Limits
	days   int
	start  time.Time

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewManager creates a manager from the configuration. A nil sink records
// nothing; a nil bus suppresses notifications.
func NewManager(cfg Config, bus eventbus.EventBus, sink coremetrics.MetricsSink, log logger.Logger) (*Manager, error) {
	if log == nil {
		return nil, fmt.Errorf("analysis: nil logger provided to NewManager")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = coremetrics.NopSink{}
	}
	return &Manager{
		bus:      bus,
		sink:     sink,
		log:      log,
		limits:   cfg.Limits(),
		days:     cfg.HorizonDays,
		start:    cfg.Start(),
		inflight: make(map[string]struct{}),
	}, nil
}

func (m *Manager) acquire(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.inflight[name]; busy {
		return ErrAnalysisInFlight
	}
	m.inflight[name] = struct{}{}
	return nil
}

func (m *Manager) release(name string) {
	m.mu.Lock()
	delete(m.inflight, name)
	m.mu.Unlock()
}

// Start launches an asynchronous run for the project. The in-flight slot is
// reserved before the worker starts, so a second request fails immediately
// with ErrAnalysisInFlight. The returned channel closes once the run reaches
// a terminal state.
func (m *Manager) Start(ctx context.Context, p *project.Project) (<-chan struct{}, error) {
	if err := m.acquire(p.Name); err != nil {
		return nil, err
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer m.release(p.Name)
		if _, err := m.run(ctx, p); err != nil {
			m.log.Errorf("analysis run for %s failed: %v", p.Name, err)
		}
	}()
	return done, nil
}

// Run executes one analysis synchronously, still honoring the one-in-flight
// rule. It returns the terminal analysis; cancelled runs return an analysis
// with a cancelled verdict that is never persisted.
func (m *Manager) Run(ctx context.Context, p *project.Project) (model.Analysis, error) {
	if err := m.acquire(p.Name); err != nil {
		return model.Analysis{}, err
	}
	defer m.release(p.Name)
	return m.run(ctx, p)
}

func (m *Manager) run(ctx context.Context, p *project.Project) (model.Analysis, error) {
	// Immutable snapshot of inputs: the worker never sees edits made while
	// it solves.
	snapshot := p.Resources().Snapshot()
	activities := p.Activities()
	runID := uuid.NewString()

	occurrences, err := plan.Expand(activities, snapshot.SlotsPerDay)
	if err != nil {
		return model.Analysis{}, err
	}
	grid, err := schedule.NewGrid(m.start, m.days, snapshot)
	if err != nil {
		return model.Analysis{}, err
	}

	// Utilization is a pure function of the inputs and is reported even for
	// infeasible and inconclusive runs.
	util := utilization.Compute(occurrences, snapshot, grid)

	mdl, err := schedule.Build(occurrences, snapshot, grid)
	if err != nil {
		var serr *schedule.StructuralInfeasibleError
		if errors.As(err, &serr) {
			// No placement exists under any capacity regime; Stage 2
			// diagnosis would mislead, so it is skipped entirely.
			m.log.Warnf("project %s structurally infeasible: %v", p.Name, serr)
			a := model.NewAnalysis(snapshot.Version, model.VerdictInfeasible, true, util, nil,
				model.SolverStats{StageReached: 1, Status: "structurally infeasible"})
			return m.finish(p, snapshot, runID, a)
		}
		return model.Analysis{}, err
	}

	hooks := solver.Hooks{
		OnStage: func(st solver.Stage) {
			m.publish(events.StageEvent{Project: p.Name, RunID: runID, Stage: st})
		},
		OnProgress: func(pr solver.Progress) {
			m.publish(events.ProgressEvent{
				Project:      p.Name,
				RunID:        runID,
				Stage:        pr.Stage,
				Elapsed:      pr.Elapsed,
				Nodes:        pr.Nodes,
				BestOverload: pr.BestOverload,
			})
		},
	}

	m.log.Infof("solving %s: %d occurrences, %d variables", p.Name, len(occurrences), mdl.VarCount())
	out, err := solver.Solve(ctx, mdl, m.limits, hooks)
	if err != nil {
		// SolverError is fatal for the run and surfaced as-is; the caller
		// may re-invoke with adjusted limits.
		return model.Analysis{}, err
	}

	a := model.NewAnalysis(snapshot.Version, out.Verdict, out.Structural, util, out.Overloads, out.Stats)
	if out.Verdict == model.VerdictCancelled {
		m.log.Infof("analysis for %s cancelled after %.2fs", p.Name, out.Stats.WallTime.Seconds())
		m.publish(events.ResultEvent{Project: p.Name, RunID: runID, Analysis: a})
		return a, nil
	}
	return m.finish(p, snapshot, runID, a)
}

// finish persists a terminal non-cancelled analysis, then emits the result
// event after all progress notifications and records metrics.
func (m *Manager) finish(p *project.Project, snapshot model.ResourceSet, runID string, a model.Analysis) (model.Analysis, error) {
	p.BindSnapshot(snapshot)
	if err := p.AppendAnalysis(a); err != nil {
		return model.Analysis{}, err
	}
	m.publish(events.ResultEvent{Project: p.Name, RunID: runID, Analysis: a})
	m.record(p.Name, runID, a)
	m.log.Infof("analysis for %s: %s (stage %d, %.2fs)", p.Name, a.Verdict, a.Stats.StageReached, a.Stats.WallTimeSeconds)
	return a, nil
}

func (m *Manager) publish(e eventbus.Event) {
	if m.bus != nil {
		m.bus.Publish(e)
	}
}

func (m *Manager) record(projectName, runID string, a model.Analysis) {
	ev := coremetrics.AnalysisEvent{
		Project:         projectName,
		RunID:           runID,
		Verdict:         a.Verdict.String(),
		Structural:      a.Structural,
		StageReached:    a.Stats.StageReached,
		WallTimeSeconds: a.Stats.WallTimeSeconds,
		ProvenOptimal:   a.Stats.ProvenOptimal,
		TotalOverload:   a.TotalOverload(),
		Time:            a.CreatedAt,
	}
	if err := m.sink.RecordAnalysis(ev); err != nil {
		m.log.Errorf("metrics error: %v", err)
	}
	if ur, ok := m.sink.(coremetrics.UtilizationRecorder); ok {
		var evs []coremetrics.UtilizationEvent
		for _, role := range sortedRoles(a.Utilisation) {
			evs = append(evs, coremetrics.UtilizationEvent{
				Project: projectName,
				RunID:   runID,
				Role:    role,
				Percent: a.Utilisation[role],
				Time:    a.CreatedAt,
			})
		}
		if err := ur.RecordUtilization(evs); err != nil {
			m.log.Errorf("utilization metrics error: %v", err)
		}
	}
}

func sortedRoles(util map[string]float64) []string {
	roles := make([]string, 0, len(util))
	for role := range util {
		roles = append(roles, role)
	}
	sort.Strings(roles)
	return roles
}
