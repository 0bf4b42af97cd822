// Package scheduler is the entry point for plan generation: it resolves the packing strategy,
// prepares distances, then validates and summarizes the result.
package scheduler

import (
	"context"
	"time"

	"github.com/rodaje/rodaje/pkg/distance"
	"github.com/rodaje/rodaje/pkg/logger"
	"github.com/rodaje/rodaje/pkg/model"
	"github.com/rodaje/rodaje/pkg/scheduler/solver"
	"github.com/rodaje/rodaje/pkg/stats"
	"github.com/rodaje/rodaje/pkg/validator"
)

// Request asks for a plan.
type Request struct {
	ProjectID string           `json:"projectId,omitempty"`
	Strategy  string           `json:"strategy,omitempty"`
	Scenes    []model.Scene    `json:"scenes"`
	Locations []model.Location `json:"locations"`
	Options   model.Options    `json:"options"`

	// ManualDistances are loaded before coordinates are used and are never overwritten.
	ManualDistances []distance.PairEntry `json:"manualDistances,omitempty"`
	// Rules overrides validation rule parameters, keyed like the rule catalog.
	Rules map[string]interface{} `json:"rules,omitempty"`

	// Distances replaces the index the planner would build.
	Distances *distance.Index `json:"-"`
}

// Result is a validated plan with its statistics.
type Result struct {
	Plan       model.Plan          `json:"plan"`
	Report     *validator.Report   `json:"report"`
	Summary    *stats.Summary      `json:"summary"`
	Statistics *solver.Statistics  `json:"statistics"`
	Distances  distance.AutoResult `json:"distances"`
	Message    string              `json:"message,omitempty"`
	Duration   time.Duration       `json:"duration"`
}

// Planner generates plans. Safe for concurrent use.
type Planner struct {
	registry *solver.Registry
	provider distance.Provider
	speedKmh float64
}

// Option configures a Planner.
type Option func(*Planner)

// WithRegistry replaces the default strategies.
func WithRegistry(r *solver.Registry) Option {
	return func(p *Planner) { p.registry = r }
}

// WithDistanceProvider makes the planner ask p for road distances when proximity ordering is
// requested. Failures fall back to great-circle estimates.
func WithDistanceProvider(dp distance.Provider) Option {
	return func(p *Planner) { p.provider = dp }
}

// WithAverageSpeed sets the speed used to estimate travel minutes.
func WithAverageSpeed(kmh float64) Option {
	return func(p *Planner) { p.speedKmh = kmh }
}

// NewPlanner creates a planner with the greedy and concentrated strategies.
func NewPlanner(opts ...Option) *Planner {
	p := &Planner{speedKmh: distance.DefaultAverageSpeedKmh}
	for _, o := range opts {
		o(p)
	}
	if p.registry == nil {
		p.registry = solver.DefaultRegistry()
	}
	return p
}

// Strategies lists the selectable strategies.
func (p *Planner) Strategies() []string {
	return p.registry.Names()
}

// Generate packs the scenes, then annotates the plan with the validation findings.
func (p *Planner) Generate(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	s, err := p.registry.Get(req.Strategy)
	if err != nil {
		return nil, err
	}

	idx := req.Distances
	var distRes distance.AutoResult
	if idx == nil {
		idx, distRes, err = p.buildIndex(ctx, req)
		if err != nil {
			return nil, err
		}
	}

	res, err := s.Solve(ctx, solver.Request{
		ProjectID: req.ProjectID,
		Scenes:    req.Scenes,
		Locations: req.Locations,
		Options:   req.Options,
		Distances: idx,
	})
	if err != nil {
		return nil, err
	}

	opts := req.Options.WithDefaults()
	v := validator.New(&validator.Config{Options: opts, Rules: req.Rules})
	plan, report := v.Annotate(res.Plan)

	return &Result{
		Plan:       plan,
		Report:     report,
		Summary:    stats.AnalyzeWithOptions(plan, opts),
		Statistics: res.Statistics,
		Distances:  distRes,
		Message:    res.Message,
		Duration:   time.Since(start),
	}, nil
}

func (p *Planner) buildIndex(ctx context.Context, req Request) (*distance.Index, distance.AutoResult, error) {
	idx := distance.NewIndex()
	for _, e := range req.ManualDistances {
		if err := idx.Set(e.A, e.B, e.DistanceKm, e.DurationMinutes, distance.SourceManual); err != nil {
			return nil, distance.AutoResult{}, err
		}
	}

	opts := req.Options.WithDefaults()
	if p.provider != nil && opts.OptimizeByProximity {
		res, err := idx.Fill(ctx, p.provider, req.Locations, false)
		if err == nil {
			return idx, res, nil
		}
		if ctx.Err() != nil {
			return nil, res, ctx.Err()
		}
		logger.WithContext(ctx).Warn().Err(err).Str("provider", p.provider.Name()).
			Msg("routing provider failed, using great-circle distances")
	}
	return idx, idx.AutoCalculate(req.Locations, distance.AutoOptions{AverageSpeedKmh: p.speedKmh}), nil
}

var defaultPlanner = NewPlanner()

// GeneratePlan packs scenes into annotated shooting days with the default strategy.
func GeneratePlan(scenes []model.Scene, locations []model.Location, options model.Options) ([]model.ShootingDay, error) {
	res, err := defaultPlanner.Generate(context.Background(), Request{
		Scenes:    scenes,
		Locations: locations,
		Options:   options,
	})
	if err != nil {
		return nil, err
	}
	return res.Plan.Days, nil
}
