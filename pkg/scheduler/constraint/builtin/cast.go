package builtin

import (
	"fmt"

	"github.com/rodaje/rodaje/pkg/model"
	"github.com/rodaje/rodaje/pkg/scheduler/constraint"
)

// MinorsAtNightConstraint forbids minors in night shooting.
type MinorsAtNightConstraint struct {
	*BaseConstraint
}

// NewMinorsAtNightConstraint creates the rule.
func NewMinorsAtNightConstraint() *MinorsAtNightConstraint {
	return &MinorsAtNightConstraint{
		BaseConstraint: NewBaseConstraint(
			"Menores en nocturna",
			constraint.TypeMinorsAtNight,
			constraint.CategoryHard,
			100,
		),
	}
}

func minorsAtNight(day model.ShootingDay) []model.Scene {
	var out []model.Scene
	for _, s := range day.Scenes {
		if s.InvolvesMinors() && (s.IsNight() || day.TimeOfDay == model.TimeNight) {
			out = append(out, s)
		}
	}
	return out
}

func (c *MinorsAtNightConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0

	for i := range ctx.Days {
		day := &ctx.Days[i]
		for _, s := range minorsAtNight(*day) {
			totalPenalty += c.Weight()
			v := c.CreateViolation(day, model.SeverityWarning,
				fmt.Sprintf("menores en rodaje nocturno: escena %s en %s", s.ID, ctx.DayLabel(i)),
				c.Weight())
			v.SceneID = s.ID
			violations = append(violations, v)
		}
	}
	return len(violations) == 0, totalPenalty, violations
}

// IdleDaysConstraint flags characters who wait too long between their first and last day.
type IdleDaysConstraint struct {
	*BaseConstraint
	maxIdle int
}

// NewIdleDaysConstraint creates the rule.
func NewIdleDaysConstraint(maxIdle int) *IdleDaysConstraint {
	return &IdleDaysConstraint{
		BaseConstraint: NewBaseConstraint(
			"Días de espera",
			constraint.TypeIdleDays,
			constraint.CategorySoft,
			50,
		),
		maxIdle: maxIdle,
	}
}

// IdleDays counts the days between a character's first and last day on which they do not work.
// On dated plans these are calendar days, otherwise shooting days.
func IdleDays(ctx *constraint.Context, character string) (idle, first, last int) {
	days := ctx.CharacterDays(character)
	if len(days) == 0 {
		return 0, 0, 0
	}
	worked := make(map[int]bool)
	lo, hi := ctx.Ordinal(days[0]), ctx.Ordinal(days[0])
	first, last = days[0], days[0]
	for _, i := range days {
		o := ctx.Ordinal(i)
		worked[o] = true
		if o < lo {
			lo, first = o, i
		}
		if o > hi {
			hi, last = o, i
		}
	}
	return (hi - lo + 1) - len(worked), first, last
}

func (c *IdleDaysConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0

	for _, ch := range ctx.Characters() {
		idle, first, last := IdleDays(ctx, ch)
		if idle <= c.maxIdle {
			continue
		}
		penalty := c.Weight() * (idle - c.maxIdle) / 10
		totalPenalty += penalty
		v := c.CreateViolation(nil, model.SeverityAdvisory,
			fmt.Sprintf("%s: %d días de espera entre el día %d y el día %d (máx. %d)",
				ch, idle, ctx.Days[first].DayNumber, ctx.Days[last].DayNumber, c.maxIdle),
			penalty)
		v.Character = ch
		violations = append(violations, v)
	}
	return len(violations) == 0, totalPenalty, violations
}
