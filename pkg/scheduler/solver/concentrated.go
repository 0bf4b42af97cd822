package solver

import (
	"context"
	"fmt"
	"time"

	"github.com/rodaje/rodaje/pkg/model"
	"github.com/rodaje/rodaje/pkg/scheduler/optimizer"
)

// StrategyConcentrated is the name of the greedy packer followed by day reordering.
const StrategyConcentrated = "concentrated"

// ConcentratedSolver packs days greedily, then reorders whole days to shorten each
// character's span and the company moves between days. Day contents are never changed.
type ConcentratedSolver struct {
	greedy *GreedySolver
	config *optimizer.OptimizationConfig
}

// NewConcentratedSolver creates the solver. A nil config selects optimizer.DefaultOptConfig.
func NewConcentratedSolver(config *optimizer.OptimizationConfig) *ConcentratedSolver {
	if config == nil {
		config = optimizer.DefaultOptConfig()
	}
	return &ConcentratedSolver{greedy: NewGreedySolver(), config: config}
}

// Name returns the strategy name.
func (s *ConcentratedSolver) Name() string {
	return StrategyConcentrated
}

// Solve runs the greedy packer and optimizes the resulting day order.
func (s *ConcentratedSolver) Solve(ctx context.Context, req Request) (*Result, error) {
	startTime := time.Now()
	result, err := s.greedy.Solve(ctx, req)
	if err != nil {
		return nil, err
	}
	result.Plan.Strategy = s.Name()
	days := result.Plan.Days
	if len(days) < 3 {
		return result, nil
	}

	lookup := newLocationLookup(req.Locations)
	eval := optimizer.NewCastTravelEvaluator(req.Distances)
	eval.LocationKey = func(d model.ShootingDay) string {
		key := d.LocationID
		if key == "" {
			key = model.NormalizeLocationName(d.Location)
		}
		if loc, ok := lookup.resolve(key); ok {
			return loc.Key()
		}
		return key
	}

	opt := optimizer.NewLocalSearchOptimizer(s.config, eval)
	best, iterations, err := opt.Optimize(ctx, days)
	if err != nil {
		return nil, err
	}

	before := eval.IdleDays(days, optimizer.Identity(len(days)).Order)
	reordered := best.Apply(days)
	for i := range reordered {
		reordered[i].Date = ""
	}
	assignDates(reordered, req.Options.WithDefaults())

	result.Plan.Days = reordered
	result.Statistics.Iterations = iterations
	result.Duration = time.Since(startTime)
	result.Message = fmt.Sprintf("%s; días de espera del reparto: %d → %d",
		result.Message, before, eval.IdleDays(days, best.Order))
	return result, nil
}
