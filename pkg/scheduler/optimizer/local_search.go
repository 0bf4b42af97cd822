// Package optimizer reorders packed shooting days to keep each character's days together
// and shorten company moves between consecutive days.
package optimizer

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/rodaje/rodaje/pkg/logger"
	"github.com/rodaje/rodaje/pkg/model"
)

// OptimizationConfig tunes the local search.
type OptimizationConfig struct {
	MaxIterations    int           `json:"maxIterations"`
	MaxTime          time.Duration `json:"maxTime"` // 0 disables the wall-clock cutoff; a cutoff makes results timing dependent
	InitialTemp      float64       `json:"initialTemp"`
	CoolingRate      float64       `json:"coolingRate"`
	TabuSize         int           `json:"tabuSize"`
	NeighborhoodSize int           `json:"neighborhoodSize"`
	ParallelWorkers  int           `json:"parallelWorkers"`
	StopOnPlateau    bool          `json:"stopOnPlateau"`
	PlateauThreshold int           `json:"plateauThreshold"` // iterations without improvement
	Seed             int64         `json:"seed"`
}

// DefaultOptConfig returns the default search settings. The seed is fixed so that equal
// input produces an equal plan.
func DefaultOptConfig() *OptimizationConfig {
	return &OptimizationConfig{
		MaxIterations:    2000,
		InitialTemp:      20.0,
		CoolingRate:      0.995,
		TabuSize:         50,
		NeighborhoodSize: 16,
		ParallelWorkers:  4,
		StopOnPlateau:    true,
		PlateauThreshold: 300,
		Seed:             1,
	}
}

// Solution is a day order: Order[i] is the index of the day shot i-th.
type Solution struct {
	Order []int
	Score float64
}

// Clone deep-copies the solution.
func (s *Solution) Clone() *Solution {
	return &Solution{Order: append([]int(nil), s.Order...), Score: s.Score}
}

// Identity returns the solution keeping days in their current order.
func Identity(n int) *Solution {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return &Solution{Order: order}
}

// Apply returns days rearranged by the solution, renumbered from 1.
func (s *Solution) Apply(days []model.ShootingDay) []model.ShootingDay {
	out := make([]model.ShootingDay, len(s.Order))
	for i, idx := range s.Order {
		out[i] = days[idx].Clone()
		out[i].DayNumber = i + 1
	}
	return out
}

// Evaluator scores a day order; lower is better.
type Evaluator interface {
	Evaluate(days []model.ShootingDay, order []int) float64
}

// LocalSearchOptimizer runs simulated annealing with a tabu list over day orders.
type LocalSearchOptimizer struct {
	config    *OptimizationConfig
	evaluator *ParallelEvaluator
	neighbors *NeighborhoodGenerator
	tabuList  *TabuList
	rng       *rand.Rand
	logger    *logger.PlannerLogger
	mu        sync.Mutex
}

// NewLocalSearchOptimizer creates an optimizer. A nil config selects DefaultOptConfig.
func NewLocalSearchOptimizer(config *OptimizationConfig, evaluator Evaluator) *LocalSearchOptimizer {
	if config == nil {
		config = DefaultOptConfig()
	}
	return &LocalSearchOptimizer{
		config:    config,
		evaluator: NewParallelEvaluator(config.ParallelWorkers, evaluator),
		neighbors: NewNeighborhoodGenerator(config.Seed + 1),
		tabuList:  NewTabuList(config.TabuSize),
		rng:       rand.New(rand.NewSource(config.Seed)),
		logger:    logger.NewPlannerLogger(),
	}
}

// Optimize improves the order of days starting from their current order. It returns the
// best solution found; on cancellation that solution is returned with the context error.
func (o *LocalSearchOptimizer) Optimize(ctx context.Context, days []model.ShootingDay) (*Solution, int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	initial := Identity(len(days))
	if len(days) < 3 {
		initial.Score = o.evaluator.Score(days, initial.Order)
		return initial, 0, nil
	}

	start := time.Now()
	initial.Score = o.evaluator.Score(days, initial.Order)
	current := initial.Clone()
	best := current.Clone()
	o.tabuList.Clear()

	temperature := o.config.InitialTemp
	noImprovementCount := 0
	iterations := 0

	for i := 0; i < o.config.MaxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return best, iterations, err
		}
		if o.config.MaxTime > 0 && time.Since(start) > o.config.MaxTime {
			break
		}
		iterations++

		candidates := o.neighbors.GenerateBatch(current, o.config.NeighborhoodSize)
		results := o.evaluator.EvaluateBatch(ctx, days, candidates)
		bestNeighbor := o.evaluator.FindBest(results)
		if bestNeighbor == nil {
			continue
		}

		moveKey := hashOrder(bestNeighbor.Solution.Order)
		inTabu := o.tabuList.Contains(moveKey)

		accept := false
		if bestNeighbor.Score < current.Score {
			accept = true
		} else if !inTabu {
			delta := bestNeighbor.Score - current.Score
			if o.rng.Float64() < boltzmannProbability(delta, temperature) {
				accept = true
			}
		}

		if accept {
			current = bestNeighbor.Solution
			current.Score = bestNeighbor.Score
			o.tabuList.Add(moveKey)
			if current.Score < best.Score {
				best = current.Clone()
				noImprovementCount = 0
			} else {
				noImprovementCount++
			}
		} else {
			noImprovementCount++
		}

		if o.config.StopOnPlateau && noImprovementCount >= o.config.PlateauThreshold {
			break
		}
		temperature *= o.config.CoolingRate
	}

	o.logger.Optimized(initial.Score, best.Score, iterations, time.Since(start))
	return best, iterations, nil
}

// hashOrder hashes a day order with FNV-1a.
func hashOrder(order []int) uint64 {
	h := fnv.New64a()
	for _, i := range order {
		h.Write([]byte(strconv.Itoa(i)))
		h.Write([]byte{','})
	}
	return h.Sum64()
}

// boltzmannProbability is the annealing acceptance probability of a worse solution.
func boltzmannProbability(delta, temperature float64) float64 {
	if delta <= 0 {
		return 1.0
	}
	if temperature <= 0 {
		return 0.0
	}
	return math.Exp(-delta / temperature)
}

// TabuList is a bounded FIFO set of recently accepted solutions.
type TabuList struct {
	items   map[uint64]struct{}
	order   []uint64
	maxSize int
	mu      sync.RWMutex
}

// NewTabuList creates a tabu list holding at most size entries.
func NewTabuList(size int) *TabuList {
	if size <= 0 {
		size = 1
	}
	return &TabuList{
		items:   make(map[uint64]struct{}),
		order:   make([]uint64, 0, size),
		maxSize: size,
	}
}

// Add inserts key, evicting the oldest entry when full.
func (t *TabuList) Add(key uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.items[key]; exists {
		return
	}
	if len(t.order) >= t.maxSize {
		oldest := t.order[0]
		t.order = t.order[1:]
		delete(t.items, oldest)
	}
	t.items[key] = struct{}{}
	t.order = append(t.order, key)
}

// Contains reports whether key is tabu.
func (t *TabuList) Contains(key uint64) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, exists := t.items[key]
	return exists
}

// Clear empties the list.
func (t *TabuList) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = make(map[uint64]struct{})
	t.order = t.order[:0]
}
