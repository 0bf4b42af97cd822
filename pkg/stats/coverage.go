package stats

import (
	"sort"

	"github.com/rodaje/rodaje/pkg/model"
	"github.com/rodaje/rodaje/pkg/scheduler/constraint"
	"github.com/rodaje/rodaje/pkg/scheduler/constraint/builtin"
)

// CoverageMetrics describe how much of the script is scheduled and where.
type CoverageMetrics struct {
	TotalScenes     int             `json:"totalScenes"`
	ScheduledScenes int             `json:"scheduledScenes"`
	Unassigned      []string        `json:"unassigned,omitempty"`
	Coverage        float64         `json:"coverage"` // % of scenes scheduled
	TotalEighths    int             `json:"totalEighths"`
	Locations       []LocationUsage `json:"locations"`
	Cast            []CastReport    `json:"cast"`
}

// LocationUsage is how a location is used across the plan.
type LocationUsage struct {
	Location string `json:"location"`
	Days     []int  `json:"days"`
	Scenes   int    `json:"scenes"`
	Eighths  int    `json:"eighths"`
	// Visits counts separate stays: days at the location that do not follow another day there.
	Visits int `json:"visits"`
}

// CastReport is one character's schedule.
type CastReport struct {
	Character  string `json:"character"`
	Scenes     int    `json:"scenes"`
	DaysWorked int    `json:"daysWorked"`
	FirstDay   int    `json:"firstDay"`
	LastDay    int    `json:"lastDay"`
	IdleDays   int    `json:"idleDays"`
	NightDays  int    `json:"nightDays"`
}

// CoverageAnalyzer computes CoverageMetrics.
type CoverageAnalyzer struct{}

// NewCoverageAnalyzer creates the analyzer.
func NewCoverageAnalyzer() *CoverageAnalyzer {
	return &CoverageAnalyzer{}
}

// Analyze computes coverage of plan.
func (c *CoverageAnalyzer) Analyze(plan model.Plan, opts model.Options) *CoverageMetrics {
	m := &CoverageMetrics{
		ScheduledScenes: plan.SceneCount(),
		Locations:       []LocationUsage{},
		Cast:            []CastReport{},
	}
	m.TotalScenes = m.ScheduledScenes + len(plan.Unassigned)
	for _, s := range plan.Unassigned {
		m.Unassigned = append(m.Unassigned, s.ID)
	}
	if m.TotalScenes > 0 {
		m.Coverage = float64(m.ScheduledScenes) / float64(m.TotalScenes) * 100
	}
	for _, d := range plan.Days {
		m.TotalEighths += d.TotalEighths
	}

	m.Locations = c.locationUsage(plan.Days)
	m.Cast = c.castReports(plan.Days, opts)
	return m
}

func (c *CoverageAnalyzer) locationUsage(days []model.ShootingDay) []LocationUsage {
	byKey := make(map[string]*LocationUsage)
	var order []string
	lastDay := make(map[string]int)

	for i, d := range days {
		seenToday := make(map[string]bool)
		for _, s := range d.Scenes {
			key := s.LocationKey()
			if key == "" {
				continue
			}
			u, ok := byKey[key]
			if !ok {
				u = &LocationUsage{Location: s.LocationLabel(), Days: []int{}}
				byKey[key] = u
				order = append(order, key)
			}
			u.Scenes++
			u.Eighths += s.PageEighths
			if seenToday[key] {
				continue
			}
			seenToday[key] = true
			u.Days = append(u.Days, d.DayNumber)
			if prev, ok := lastDay[key]; !ok || prev != i-1 {
				u.Visits++
			}
			lastDay[key] = i
		}
	}

	out := make([]LocationUsage, 0, len(order))
	for _, k := range order {
		out = append(out, *byKey[k])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Eighths > out[j].Eighths })
	return out
}

func (c *CoverageAnalyzer) castReports(days []model.ShootingDay, opts model.Options) []CastReport {
	ctx := constraint.NewContext(days, opts)
	out := make([]CastReport, 0)
	for _, ch := range ctx.Characters() {
		idx := ctx.CharacterDays(ch)
		r := CastReport{Character: ch, DaysWorked: len(idx)}
		idle, first, last := builtin.IdleDays(ctx, ch)
		r.IdleDays = idle
		r.FirstDay = days[first].DayNumber
		r.LastDay = days[last].DayNumber
		for _, i := range idx {
			night := false
			for _, s := range days[i].Scenes {
				if !hasCharacter(s, ch) {
					continue
				}
				r.Scenes++
				if s.IsNight() {
					night = true
				}
			}
			if night {
				r.NightDays++
			}
		}
		out = append(out, r)
	}
	return out
}

func hasCharacter(s model.Scene, ch string) bool {
	for _, c := range s.Characters {
		if c == ch {
			return true
		}
	}
	return false
}
