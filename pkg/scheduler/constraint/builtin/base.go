// Package builtin implements the plan rules: Spanish film labor law plus coherence checks.
package builtin

import (
	"github.com/rodaje/rodaje/pkg/model"
	"github.com/rodaje/rodaje/pkg/scheduler/constraint"
)

// BaseConstraint carries the identity shared by every rule.
type BaseConstraint struct {
	name     string
	typ      constraint.Type
	category constraint.Category
	weight   int
}

// NewBaseConstraint creates the shared part of a rule.
func NewBaseConstraint(name string, typ constraint.Type, cat constraint.Category, weight int) *BaseConstraint {
	return &BaseConstraint{
		name:     name,
		typ:      typ,
		category: cat,
		weight:   weight,
	}
}

func (c *BaseConstraint) Name() string                  { return c.name }
func (c *BaseConstraint) Type() constraint.Type         { return c.typ }
func (c *BaseConstraint) Category() constraint.Category { return c.category }
func (c *BaseConstraint) Weight() int                   { return c.weight }

// CreateViolation builds a finding attached to day (nil for plan-wide findings).
func (c *BaseConstraint) CreateViolation(day *model.ShootingDay, severity model.Severity, message string, penalty int) constraint.ViolationDetail {
	v := constraint.ViolationDetail{
		ConstraintType: c.typ,
		ConstraintName: c.name,
		Message:        message,
		Severity:       severity,
		Penalty:        penalty,
	}
	if day != nil {
		v.DayNumber = day.DayNumber
		v.Date = day.Date
	}
	return v
}

// Evaluate default: nothing to report.
func (c *BaseConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	return true, 0, nil
}

