package builtin

import (
	"fmt"

	"github.com/rodaje/rodaje/pkg/model"
	"github.com/rodaje/rodaje/pkg/scheduler/constraint"
)

func distinctLocationCount(day model.ShootingDay) int {
	seen := make(map[string]bool)
	for _, s := range day.Scenes {
		if k := s.LocationKey(); k != "" {
			seen[k] = true
		}
	}
	return len(seen)
}

// MaxLocationsPerDayConstraint advises against company moves beyond maxLocations a day.
type MaxLocationsPerDayConstraint struct {
	*BaseConstraint
	maxLocations int
}

// NewMaxLocationsPerDayConstraint creates the rule.
func NewMaxLocationsPerDayConstraint(maxLocations int) *MaxLocationsPerDayConstraint {
	return &MaxLocationsPerDayConstraint{
		BaseConstraint: NewBaseConstraint(
			"Localizaciones por día",
			constraint.TypeMaxLocationsPerDay,
			constraint.CategorySoft,
			40,
		),
		maxLocations: maxLocations,
	}
}

func (c *MaxLocationsPerDayConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0

	for i := range ctx.Days {
		day := &ctx.Days[i]
		n := distinctLocationCount(*day)
		if n <= c.maxLocations {
			continue
		}
		penalty := c.Weight() * (n - c.maxLocations)
		totalPenalty += penalty
		violations = append(violations, c.CreateViolation(day, model.SeverityAdvisory,
			fmt.Sprintf("demasiadas localizaciones en un día: %s tiene %d (máx. %d)", ctx.DayLabel(i), n, c.maxLocations),
			penalty))
	}
	return len(violations) == 0, totalPenalty, violations
}

// ComplexityBalanceConstraint advises against stacking high-complexity scenes.
type ComplexityBalanceConstraint struct {
	*BaseConstraint
	maxHigh int
}

// NewComplexityBalanceConstraint creates the rule.
func NewComplexityBalanceConstraint(maxHigh int) *ComplexityBalanceConstraint {
	return &ComplexityBalanceConstraint{
		BaseConstraint: NewBaseConstraint(
			"Equilibrio de complejidad",
			constraint.TypeComplexityBalance,
			constraint.CategorySoft,
			30,
		),
		maxHigh: maxHigh,
	}
}

func highCount(day model.ShootingDay) int {
	n := 0
	for _, s := range day.Scenes {
		if s.Complexity.Normalize() == model.ComplexityHigh {
			n++
		}
	}
	return n
}

func (c *ComplexityBalanceConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0

	for i := range ctx.Days {
		day := &ctx.Days[i]
		n := highCount(*day)
		if n <= c.maxHigh {
			continue
		}
		penalty := c.Weight() * (n - c.maxHigh)
		totalPenalty += penalty
		violations = append(violations, c.CreateViolation(day, model.SeverityAdvisory,
			fmt.Sprintf("demasiadas escenas de alta complejidad: %s tiene %d (máx. %d)", ctx.DayLabel(i), n, c.maxHigh),
			penalty))
	}
	return len(violations) == 0, totalPenalty, violations
}

// DayNightSeparationConstraint flags days mixing day and night scenes. Only registered when
// the plan was generated with day/night separation.
type DayNightSeparationConstraint struct {
	*BaseConstraint
}

// NewDayNightSeparationConstraint creates the rule.
func NewDayNightSeparationConstraint() *DayNightSeparationConstraint {
	return &DayNightSeparationConstraint{
		BaseConstraint: NewBaseConstraint(
			"Separación día/noche",
			constraint.TypeDayNightSeparation,
			constraint.CategorySoft,
			60,
		),
	}
}

func mixesDayNight(day model.ShootingDay) bool {
	var night, dayScene bool
	for _, s := range day.Scenes {
		if s.IsNight() {
			night = true
		} else {
			dayScene = true
		}
	}
	return night && dayScene
}

func (c *DayNightSeparationConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0

	for i := range ctx.Days {
		day := &ctx.Days[i]
		if !mixesDayNight(*day) {
			continue
		}
		totalPenalty += c.Weight()
		violations = append(violations, c.CreateViolation(day, model.SeverityWarning,
			fmt.Sprintf("%s mezcla escenas de día y de noche", ctx.DayLabel(i)),
			c.Weight()))
	}
	return len(violations) == 0, totalPenalty, violations
}

