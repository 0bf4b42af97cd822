package builtin

import (
	"fmt"
	"math"

	"github.com/rodaje/rodaje/pkg/model"
	"github.com/rodaje/rodaje/pkg/scheduler/constraint"
)

// MaxWorkdayHoursConstraint limits the estimated length of a shooting day.
// Above maxHours the day breaks the statutory limit; above advisoryHours it is only long.
type MaxWorkdayHoursConstraint struct {
	*BaseConstraint
	maxHours      float64
	advisoryHours float64
}

// NewMaxWorkdayHoursConstraint creates the rule.
func NewMaxWorkdayHoursConstraint(maxHours, advisoryHours float64) *MaxWorkdayHoursConstraint {
	return &MaxWorkdayHoursConstraint{
		BaseConstraint: NewBaseConstraint(
			"Jornada máxima",
			constraint.TypeMaxWorkdayHours,
			constraint.CategoryHard,
			100,
		),
		maxHours:      maxHours,
		advisoryHours: advisoryHours,
	}
}

func (c *MaxWorkdayHoursConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0
	isValid := true

	for i := range ctx.Days {
		day := &ctx.Days[i]
		hours := day.EstimatedHours
		switch {
		case hours > c.maxHours:
			isValid = false
			penalty := c.Weight() * int(math.Ceil(hours-c.maxHours))
			totalPenalty += penalty
			violations = append(violations, c.CreateViolation(day, model.SeverityFatal,
				fmt.Sprintf("jornada máxima excedida: %s, %.1f h (máx. %.0f h)", ctx.DayLabel(i), hours, c.maxHours),
				penalty))
		case hours > c.advisoryHours:
			isValid = false
			penalty := int(math.Ceil((hours - c.advisoryHours) * 10))
			totalPenalty += penalty
			violations = append(violations, c.CreateViolation(day, model.SeverityAdvisory,
				fmt.Sprintf("jornada larga: %s, %.1f h (más de %.0f h)", ctx.DayLabel(i), hours, c.advisoryHours),
				penalty))
		}
	}

	return isValid, totalPenalty, violations
}

// DayCapacityConstraint re-checks the packer's capacity limit. Edited plans can break it.
type DayCapacityConstraint struct {
	*BaseConstraint
	maxEighths int
}

// NewDayCapacityConstraint creates the rule.
func NewDayCapacityConstraint(maxEighths int) *DayCapacityConstraint {
	return &DayCapacityConstraint{
		BaseConstraint: NewBaseConstraint(
			"Capacidad diaria",
			constraint.TypeDayCapacity,
			constraint.CategorySoft,
			70,
		),
		maxEighths: maxEighths,
	}
}

func (c *DayCapacityConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0

	for i := range ctx.Days {
		day := &ctx.Days[i]
		if day.TotalEighths <= c.maxEighths {
			continue
		}
		if len(day.Scenes) == 1 {
			v := constraint.OversizedScene(*day, day.Scenes[0], day.TotalEighths, c.maxEighths)
			violations = append(violations, v)
			continue
		}
		penalty := c.Weight() * (day.TotalEighths - c.maxEighths) / 8
		totalPenalty += penalty
		violations = append(violations, c.CreateViolation(day, model.SeverityWarning,
			fmt.Sprintf("capacidad excedida: %s suma %d octavos (máx. %d)", ctx.DayLabel(i), day.TotalEighths, c.maxEighths),
			penalty))
	}
	return len(violations) == 0, totalPenalty, violations
}

