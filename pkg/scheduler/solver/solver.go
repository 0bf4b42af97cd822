// Package solver turns scenes into shooting days.
package solver

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rodaje/rodaje/pkg/distance"
	apperrors "github.com/rodaje/rodaje/pkg/errors"
	"github.com/rodaje/rodaje/pkg/model"
)

// Solver builds a plan from a request.
type Solver interface {
	// Solve packs req.Scenes into days. Invalid input fails the whole call.
	Solve(ctx context.Context, req Request) (*Result, error)

	// Name is the strategy name callers select the solver by.
	Name() string
}

// Request is the input of a solver.
type Request struct {
	ProjectID string           `json:"projectId,omitempty"`
	Scenes    []model.Scene    `json:"scenes"`
	Locations []model.Location `json:"locations"`
	Options   model.Options    `json:"options"`

	// Distances may be nil; proximity ordering is then skipped.
	Distances *distance.Index `json:"-"`
}

// Result is a solver's output.
type Result struct {
	Plan       model.Plan    `json:"plan"`
	Statistics *Statistics   `json:"statistics"`
	Duration   time.Duration `json:"duration"`
	Message    string        `json:"message,omitempty"`
}

// Statistics describe one packing run.
type Statistics struct {
	Groups           int     `json:"groups"`
	Days             int     `json:"days"`
	Scenes           int     `json:"scenes"`
	OversizedScenes  int     `json:"oversizedScenes"`
	TotalEighths     int     `json:"totalEighths"`
	TotalHours       float64 `json:"totalHours"`
	ProximityApplied bool    `json:"proximityApplied"`
	Iterations       int     `json:"iterations,omitempty"`
}

// Registry maps strategy names to solvers.
type Registry struct {
	mu       sync.RWMutex
	solvers  map[string]Solver
	fallback string
}

// NewRegistry creates an empty registry. The first registered solver becomes the default.
func NewRegistry() *Registry {
	return &Registry{solvers: make(map[string]Solver)}
}

// Register adds s, replacing a solver of the same name.
func (r *Registry) Register(s Solver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fallback == "" {
		r.fallback = s.Name()
	}
	r.solvers[s.Name()] = s
}

// Get returns the solver for name; the empty name selects the default.
func (r *Registry) Get(name string) (Solver, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name == "" {
		name = r.fallback
	}
	s, ok := r.solvers[name]
	if !ok {
		return nil, apperrors.New(apperrors.CodeUnknownStrategy, fmt.Sprintf("unknown strategy %q", name)).
			WithField("available", r.namesLocked())
	}
	return s, nil
}

// Names lists the registered strategies in alphabetical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.solvers))
	for n := range r.solvers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry holds the greedy packer (default) and the cast-concentration strategy.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewGreedySolver())
	r.Register(NewConcentratedSolver(nil))
	return r
}
