package stats

import (
	"math"

	"github.com/rodaje/rodaje/pkg/model"
)

// Summary is the overview returned alongside a generated or edited plan.
type Summary struct {
	TotalDays        int              `json:"totalDays"`
	TotalScenes      int              `json:"totalScenes"`
	TotalEighths     int              `json:"totalEighths"`
	TotalHours       float64          `json:"totalHours"`
	AvgHoursPerDay   float64          `json:"avgHoursPerDay"`
	Balance          *BalanceMetrics  `json:"balance"`
	Coverage         *CoverageMetrics `json:"coverage"`
	UnassignedScenes int              `json:"unassignedScenes"`
}

// Analyze summarizes plan with the default targets.
func Analyze(plan model.Plan) *Summary {
	return AnalyzeWithOptions(plan, model.DefaultOptions())
}

// AnalyzeWithOptions summarizes plan; opts supplies the target hours and rest weekdays used for
// idle-day counting.
func AnalyzeWithOptions(plan model.Plan, opts model.Options) *Summary {
	opts = opts.WithDefaults()
	balance := NewBalanceAnalyzer(opts.TargetHoursPerDay).Analyze(plan.Days)
	coverage := NewCoverageAnalyzer().Analyze(plan, opts)

	return &Summary{
		TotalDays:        len(plan.Days),
		TotalScenes:      coverage.ScheduledScenes,
		TotalEighths:     coverage.TotalEighths,
		TotalHours:       round1(plan.TotalHours()),
		AvgHoursPerDay:   round1(balance.AvgHoursPerDay),
		Balance:          balance,
		Coverage:         coverage,
		UnassignedScenes: len(plan.Unassigned),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
