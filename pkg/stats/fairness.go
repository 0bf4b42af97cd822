// Package stats summarizes shooting plans: workload balance across days, cast schedules and
// scene coverage.
package stats

import (
	"math"
	"sort"

	"github.com/rodaje/rodaje/pkg/model"
)

// BalanceMetrics describe how evenly work is spread over the shooting days.
type BalanceMetrics struct {
	HoursGini        float64 `json:"hoursGini"` // 0 = every day equally long
	HoursVariance    float64 `json:"hoursVariance"`
	HoursStdDev      float64 `json:"hoursStdDev"`
	AvgHoursPerDay   float64 `json:"avgHoursPerDay"`
	MaxHours         float64 `json:"maxHours"`
	MinHours         float64 `json:"minHours"`
	HoursRange       float64 `json:"hoursRange"`
	EighthsGini      float64 `json:"eighthsGini"`
	HighComplexity   []int   `json:"highComplexityPerDay"`
	NightDays        int     `json:"nightDays"`
	MixedDays        int     `json:"mixedDays"`
	DaysOverTarget   int     `json:"daysOverTarget"`
	OverallScore     float64 `json:"overallScore"` // 0-100
	TargetHoursOfDay float64 `json:"targetHoursPerDay"`
}

// BalanceAnalyzer computes BalanceMetrics.
type BalanceAnalyzer struct {
	targetHours float64
}

// NewBalanceAnalyzer creates an analyzer measuring days against targetHours (default 10).
func NewBalanceAnalyzer(targetHours float64) *BalanceAnalyzer {
	if targetHours <= 0 {
		targetHours = model.DefaultTargetHoursPerDay
	}
	return &BalanceAnalyzer{targetHours: targetHours}
}

// Analyze computes the balance of days.
func (b *BalanceAnalyzer) Analyze(days []model.ShootingDay) *BalanceMetrics {
	m := &BalanceMetrics{
		HighComplexity:   make([]int, len(days)),
		TargetHoursOfDay: b.targetHours,
		OverallScore:     100,
	}
	if len(days) == 0 {
		return m
	}

	hours := make([]float64, len(days))
	eighths := make([]float64, len(days))
	for i, d := range days {
		hours[i] = d.EstimatedHours
		eighths[i] = float64(d.TotalEighths)
		for _, s := range d.Scenes {
			if s.Complexity.Normalize() == model.ComplexityHigh {
				m.HighComplexity[i]++
			}
		}
		switch d.TimeOfDay {
		case model.TimeNight:
			m.NightDays++
		case model.TimeMixed:
			m.MixedDays++
		}
		if d.EstimatedHours > b.targetHours {
			m.DaysOverTarget++
		}
	}

	m.AvgHoursPerDay = calculateMean(hours)
	m.HoursVariance = calculateVariance(hours, m.AvgHoursPerDay)
	m.HoursStdDev = math.Sqrt(m.HoursVariance)
	m.MaxHours, m.MinHours = calculateRange(hours)
	m.HoursRange = m.MaxHours - m.MinHours
	m.HoursGini = calculateGini(hours)
	m.EighthsGini = calculateGini(eighths)
	m.OverallScore = b.overallScore(m, len(days))
	return m
}

// overallScore starts at 100 and deducts for uneven days and days over target.
func (b *BalanceAnalyzer) overallScore(m *BalanceMetrics, days int) float64 {
	score := 100.0
	score -= m.HoursGini * 60
	if m.AvgHoursPerDay > 0 {
		score -= math.Min(20, m.HoursStdDev/m.AvgHoursPerDay*20)
	}
	score -= 20 * float64(m.DaysOverTarget) / float64(days)
	return math.Max(0, math.Min(100, score))
}

// CompareDays contrasts two plans' balance (b minus a) for what-if comparisons.
func (b *BalanceAnalyzer) CompareDays(a, c []model.ShootingDay) map[string]float64 {
	ma, mc := b.Analyze(a), b.Analyze(c)
	return map[string]float64{
		"hoursGini":      mc.HoursGini - ma.HoursGini,
		"hoursStdDev":    mc.HoursStdDev - ma.HoursStdDev,
		"avgHoursPerDay": mc.AvgHoursPerDay - ma.AvgHoursPerDay,
		"daysOverTarget": float64(mc.DaysOverTarget - ma.DaysOverTarget),
		"overallScore":   mc.OverallScore - ma.OverallScore,
	}
}

func calculateMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func calculateVariance(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sumSquares := 0.0
	for _, v := range values {
		diff := v - mean
		sumSquares += diff * diff
	}
	return sumSquares / float64(len(values))
}

func calculateRange(values []float64) (max, min float64) {
	if len(values) == 0 {
		return 0, 0
	}
	max, min = values[0], values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return
}

// calculateGini is the Gini coefficient of values, clamped to [0, 1].
func calculateGini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	if sum == 0 {
		return 0
	}

	gini := 0.0
	for i, v := range sorted {
		gini += (2*float64(i+1) - float64(n) - 1) * v
	}
	gini = gini / (float64(n) * sum)
	return math.Max(0, math.Min(1, gini))
}
