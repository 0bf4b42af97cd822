package optimizer

import (
	"context"
	"sync"

	"github.com/rodaje/rodaje/pkg/model"
)

// ParallelEvaluator scores batches of candidate orders on a worker pool.
type ParallelEvaluator struct {
	workers   int
	evaluator Evaluator
}

// NewParallelEvaluator creates an evaluator with the given number of workers (default 4).
func NewParallelEvaluator(workers int, evaluator Evaluator) *ParallelEvaluator {
	if workers <= 0 {
		workers = 4
	}
	return &ParallelEvaluator{
		workers:   workers,
		evaluator: evaluator,
	}
}

// EvaluationResult is the score of one candidate.
type EvaluationResult struct {
	Index    int
	Solution *Solution
	Score    float64
	Done     bool
}

// Score evaluates a single order.
func (p *ParallelEvaluator) Score(days []model.ShootingDay, order []int) float64 {
	if p.evaluator == nil {
		return 0
	}
	return p.evaluator.Evaluate(days, order)
}

// EvaluateBatch scores solutions concurrently. Results keep the input order; entries left
// unscored because ctx was cancelled have Done false.
func (p *ParallelEvaluator) EvaluateBatch(ctx context.Context, days []model.ShootingDay, solutions []*Solution) []EvaluationResult {
	if len(solutions) == 0 {
		return nil
	}

	results := make([]EvaluationResult, len(solutions))
	jobs := make(chan int, len(solutions))
	for i := range solutions {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					return
				}
				results[i] = EvaluationResult{
					Index:    i,
					Solution: solutions[i],
					Score:    p.Score(days, solutions[i].Order),
					Done:     true,
				}
			}
		}()
	}
	wg.Wait()
	return results
}

// FindBest returns the lowest-scoring finished result; ties go to the lowest index.
func (p *ParallelEvaluator) FindBest(results []EvaluationResult) *EvaluationResult {
	var best *EvaluationResult
	for i := range results {
		if !results[i].Done {
			continue
		}
		if best == nil || results[i].Score < best.Score {
			best = &results[i]
		}
	}
	return best
}
