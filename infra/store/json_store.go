// Package store persists projects as JSON documents under an injected root
// directory. The storage root is explicit configuration; the core engine never
// touches the filesystem.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/parkops/workplan/core/model"
	"github.com/parkops/workplan/core/project"
)

const docExt = ".json"

// JSONStore stores one <name>.json document per project.
type JSONStore struct {
	root string
	mu   sync.Mutex
}

// NewJSONStore creates the storage root if needed and returns a store over it.
func NewJSONStore(root string) (*JSONStore, error) {
	if root == "" {
		return nil, fmt.Errorf("storage root must not be empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &JSONStore{root: root}, nil
}

type activityDoc struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Quarter   string         `json:"quarter"`
	Frequency int            `json:"frequency"`
	Duration  float64        `json:"duration"`
	Demand    map[string]int `json:"demand"`
}

type resourceDoc struct {
	Version     string         `json:"version,omitempty"`
	Capacity    map[string]int `json:"capacity"`
	SlotsPerDay int            `json:"slots_per_day"`
	Holidays    []string       `json:"public_holidays,omitempty"`
}

type analysisDoc struct {
	ID                 string             `json:"id"`
	CreatedAt          time.Time          `json:"created_at"`
	ResourceSetVersion string             `json:"resource_set_version"`
	Verdict            string             `json:"verdict"`
	Structural         bool               `json:"structural_infeasibility"`
	Utilisation        map[string]float64 `json:"utilisation"`
	Overloads          []model.Overload   `json:"overloads,omitempty"`
	Stats              model.SolverStats  `json:"solver_stats"`
}

type projectDoc struct {
	Name       string        `json:"name"`
	Activities []activityDoc `json:"activities"`
	Resources  resourceDoc   `json:"resources"`
	Versions   []resourceDoc `json:"resource_versions,omitempty"`
	Analyses   []analysisDoc `json:"analyses,omitempty"`
}

// Save writes the project document atomically: a temp file in the same
// directory is renamed over the target.
func (s *JSONStore) Save(p *project.Project) error {
	if err := validName(p.Name); err != nil {
		return err
	}
	doc := projectDoc{Name: p.Name, Resources: toResourceDoc(p.Resources())}
	for _, a := range p.Activities() {
		doc.Activities = append(doc.Activities, activityDoc(a))
	}
	for _, rs := range p.Versions() {
		doc.Versions = append(doc.Versions, toResourceDoc(rs))
	}
	for _, a := range p.History() {
		doc.Analyses = append(doc.Analyses, toAnalysisDoc(a))
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tmp, err := os.CreateTemp(s.root, p.Name+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path(p.Name))
}

// Load rebuilds a project, history included, from its document.
func (s *JSONStore) Load(name string) (*project.Project, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	s.mu.Lock()
	data, err := os.ReadFile(s.path(name))
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	var doc projectDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("project %s: %w", name, err)
	}

	acts := make([]model.Activity, 0, len(doc.Activities))
	for _, a := range doc.Activities {
		acts = append(acts, model.Activity(a))
	}
	rs, err := fromResourceDoc(doc.Resources)
	if err != nil {
		return nil, fmt.Errorf("project %s: %w", name, err)
	}
	versions := make([]model.ResourceSet, 0, len(doc.Versions))
	for _, v := range doc.Versions {
		mv, err := fromResourceDoc(v)
		if err != nil {
			return nil, fmt.Errorf("project %s: %w", name, err)
		}
		versions = append(versions, mv)
	}
	analyses := make([]model.Analysis, 0, len(doc.Analyses))
	for _, a := range doc.Analyses {
		ma, err := fromAnalysisDoc(a)
		if err != nil {
			return nil, fmt.Errorf("project %s: %w", name, err)
		}
		analyses = append(analyses, ma)
	}
	return project.Restore(doc.Name, acts, rs, versions, analyses), nil
}

// List returns the names of all stored projects in sorted order.
func (s *JSONStore) List() ([]string, error) {
	s.mu.Lock()
	entries, err := os.ReadDir(s.root)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), docExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), docExt))
	}
	sort.Strings(names)
	return names, nil
}

func (s *JSONStore) path(name string) string {
	return filepath.Join(s.root, name+docExt)
}

func validName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("invalid project name %q", name)
	}
	return nil
}

func toResourceDoc(rs model.ResourceSet) resourceDoc {
	return resourceDoc{
		Version:     rs.Version,
		Capacity:    rs.Capacity,
		SlotsPerDay: rs.SlotsPerDay,
		Holidays:    rs.HolidayList(),
	}
}

func fromResourceDoc(d resourceDoc) (model.ResourceSet, error) {
	rs, err := model.NewResourceSet(d.Capacity, d.SlotsPerDay, d.Holidays)
	if err != nil {
		return model.ResourceSet{}, err
	}
	rs.Version = d.Version
	return rs, nil
}

func toAnalysisDoc(a model.Analysis) analysisDoc {
	return analysisDoc{
		ID:                 a.ID,
		CreatedAt:          a.CreatedAt,
		ResourceSetVersion: a.ResourceSetVersion,
		Verdict:            a.Verdict.String(),
		Structural:         a.Structural,
		Utilisation:        a.Utilisation,
		Overloads:          a.Overloads,
		Stats:              a.Stats,
	}
}

func fromAnalysisDoc(d analysisDoc) (model.Analysis, error) {
	v, err := parseVerdict(d.Verdict)
	if err != nil {
		return model.Analysis{}, fmt.Errorf("analysis %s: %w", d.ID, err)
	}
	stats := d.Stats
	stats.WallTime = time.Duration(stats.WallTimeSeconds * float64(time.Second))
	return model.Analysis{
		ID:                 d.ID,
		CreatedAt:          d.CreatedAt,
		ResourceSetVersion: d.ResourceSetVersion,
		Verdict:            v,
		Structural:         d.Structural,
		Utilisation:        d.Utilisation,
		Overloads:          d.Overloads,
		Stats:              stats,
	}, nil
}

func parseVerdict(s string) (model.Verdict, error) {
	switch s {
	case "feasible":
		return model.VerdictFeasible, nil
	case "infeasible":
		return model.VerdictInfeasible, nil
	case "inconclusive":
		return model.VerdictInconclusive, nil
	default:
		return model.VerdictPending, fmt.Errorf("unknown verdict %q", s)
	}
}
