package builtin

import (
	"fmt"

	"github.com/rodaje/rodaje/pkg/model"
	"github.com/rodaje/rodaje/pkg/scheduler/constraint"
)

// consecutiveRuns splits day indexes (in plan order) into runs of consecutive ordinals.
func consecutiveRuns(ctx *constraint.Context, idx []int) [][]int {
	var runs [][]int
	var cur []int
	for _, i := range idx {
		if len(cur) > 0 && ctx.Ordinal(i) != ctx.Ordinal(cur[len(cur)-1])+1 {
			runs = append(runs, cur)
			cur = nil
		}
		cur = append(cur, i)
	}
	if len(cur) > 0 {
		runs = append(runs, cur)
	}
	return runs
}

func allDayIndexes(ctx *constraint.Context) []int {
	idx := make([]int, len(ctx.Days))
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// WeeklyRestConstraint requires a rest day at least every maxDays shooting days.
// Undated plans have no rest days, so every day counts as consecutive.
type WeeklyRestConstraint struct {
	*BaseConstraint
	maxDays int
}

// NewWeeklyRestConstraint creates the rule.
func NewWeeklyRestConstraint(maxDays int) *WeeklyRestConstraint {
	return &WeeklyRestConstraint{
		BaseConstraint: NewBaseConstraint(
			"Descanso semanal",
			constraint.TypeWeeklyRest,
			constraint.CategoryHard,
			90,
		),
		maxDays: maxDays,
	}
}

func (c *WeeklyRestConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0

	for _, r := range consecutiveRuns(ctx, allDayIndexes(ctx)) {
		if len(r) <= c.maxDays {
			continue
		}
		first, last := ctx.Days[r[0]], ctx.Days[r[len(r)-1]]
		penalty := c.Weight() * (len(r) - c.maxDays)
		totalPenalty += penalty

		// attached to the first day past the limit
		breach := &ctx.Days[r[c.maxDays]]
		violations = append(violations, c.CreateViolation(breach, model.SeverityWarning,
			fmt.Sprintf("sin día de descanso en %d días consecutivos (días %d-%d, máx. %d)",
				len(r), first.DayNumber, last.DayNumber, c.maxDays),
			penalty))
	}
	return len(violations) == 0, totalPenalty, violations
}

// ConsecutiveNightsConstraint limits runs of consecutive night days per character.
type ConsecutiveNightsConstraint struct {
	*BaseConstraint
	warningAfter  int
	advisoryAfter int
}

// NewConsecutiveNightsConstraint creates the rule: runs longer than warningAfter warn,
// longer than advisoryAfter advise.
func NewConsecutiveNightsConstraint(warningAfter, advisoryAfter int) *ConsecutiveNightsConstraint {
	return &ConsecutiveNightsConstraint{
		BaseConstraint: NewBaseConstraint(
			"Noches consecutivas",
			constraint.TypeConsecutiveNights,
			constraint.CategoryHard,
			80,
		),
		warningAfter:  warningAfter,
		advisoryAfter: advisoryAfter,
	}
}

// worksNight reports whether character appears in a night scene of day.
func worksNight(day model.ShootingDay, character string) bool {
	for _, s := range day.Scenes {
		if !s.IsNight() && day.TimeOfDay != model.TimeNight {
			continue
		}
		for _, ch := range s.Characters {
			if ch == character {
				return true
			}
		}
	}
	return false
}

func (c *ConsecutiveNightsConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0

	for _, ch := range ctx.Characters() {
		var nights []int
		for _, i := range ctx.CharacterDays(ch) {
			if worksNight(ctx.Days[i], ch) {
				nights = append(nights, i)
			}
		}

		for _, r := range consecutiveRuns(ctx, nights) {
			n := len(r)
			var sev model.Severity
			var limit int
			switch {
			case n > c.warningAfter:
				sev, limit = model.SeverityWarning, c.warningAfter
			case n > c.advisoryAfter:
				sev, limit = model.SeverityAdvisory, c.advisoryAfter
			default:
				continue
			}
			penalty := c.Weight() * (n - limit)
			if sev == model.SeverityAdvisory {
				penalty /= 10
			}
			totalPenalty += penalty

			last := &ctx.Days[r[n-1]]
			v := c.CreateViolation(last, sev,
				fmt.Sprintf("%s: %d noches consecutivas (días %d-%d, recomendado máx. %d)",
					ch, n, ctx.Days[r[0]].DayNumber, last.DayNumber, limit),
				penalty)
			v.Character = ch
			violations = append(violations, v)
		}
	}
	return len(violations) == 0, totalPenalty, violations
}
