// Package validator checks a finished plan against labor rules and coherence rules.
// Validation only reads the plan; Annotate returns an annotated copy.
package validator

import (
	apperrors "github.com/rodaje/rodaje/pkg/errors"
	"github.com/rodaje/rodaje/pkg/model"
	"github.com/rodaje/rodaje/pkg/scheduler/constraint"
	"github.com/rodaje/rodaje/pkg/scheduler/constraint/builtin"
)

// Finding is one rule outcome as reported to callers.
type Finding struct {
	Rule      constraint.Type `json:"rule"`
	Name      string          `json:"name"`
	Severity  model.Severity  `json:"severity"`
	DayNumber int             `json:"dayNumber,omitempty"` // 0 for plan-wide findings
	Date      string          `json:"date,omitempty"`
	Character string          `json:"character,omitempty"`
	SceneID   string          `json:"sceneId,omitempty"`
	Message   string          `json:"message"`
	Hard      bool            `json:"hard"`
	// Code is OVERSIZED_SCENE or CONSTRAINT_VIOLATION for findings that make the plan invalid
	// or flag an oversized scene; empty otherwise.
	Code      apperrors.Code  `json:"code,omitempty"`
}

// Text renders the finding the way it is attached to days.
func (f Finding) Text() string {
	return constraint.ViolationDetail{Severity: f.Severity, Message: f.Message}.Text()
}

// Report is the outcome of a validation.
type Report struct {
	Valid        bool                   `json:"valid"`
	Score        float64                `json:"score"`
	TotalPenalty int                    `json:"totalPenalty"`
	Findings     []Finding              `json:"findings"`
	Counts       map[model.Severity]int `json:"counts"`
}

// Count returns the number of findings of severity s.
func (r *Report) Count(s model.Severity) int {
	return r.Counts[s]
}

// ForDay returns the findings attached to dayNumber.
func (r *Report) ForDay(dayNumber int) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.DayNumber == dayNumber {
			out = append(out, f)
		}
	}
	return out
}

// Config selects the generation options the rules read (capacity, location limit, day/night
// separation) and optional per-rule overrides keyed like builtin's config keys.
type Config struct {
	Options model.Options
	Rules   map[string]interface{}
}

// DefaultConfig returns the statutory defaults.
func DefaultConfig() *Config {
	return &Config{Options: model.DefaultOptions()}
}

// Validator runs the registered rules.
type Validator struct {
	config  *Config
	manager *constraint.Manager
}

// New creates a validator with every default rule registered. A nil config selects
// DefaultConfig.
func New(config *Config) *Validator {
	if config == nil {
		config = DefaultConfig()
	}
	ruleConfig := builtin.ConfigFromOptions(config.Options)
	for k, v := range config.Rules {
		ruleConfig[k] = v
	}
	m := constraint.NewManager()
	builtin.RegisterDefaultConstraints(m, ruleConfig)
	return &Validator{config: config, manager: m}
}

// Manager exposes the rule set, e.g. to list it or to register extra rules.
func (v *Validator) Manager() *constraint.Manager {
	return v.manager
}

// Validate evaluates the plan's days.
func (v *Validator) Validate(plan model.Plan) *Report {
	return v.ValidateDays(plan.Days)
}

// ValidateDays evaluates an ordered list of days.
func (v *Validator) ValidateDays(days []model.ShootingDay) *Report {
	ctx := constraint.NewContext(days, v.config.Options)
	res := v.manager.Evaluate(ctx)

	report := &Report{
		Valid:        res.IsValid,
		Score:        res.Score,
		TotalPenalty: res.TotalPenalty,
		Findings:     make([]Finding, 0, len(res.HardViolations)+len(res.SoftViolations)),
		Counts:       res.CountBySeverity(),
	}
	for _, d := range res.All() {
		hard := isHard(v.manager, d)
		report.Findings = append(report.Findings, Finding{
			Rule:      d.ConstraintType,
			Name:      d.ConstraintName,
			Severity:  d.Severity,
			DayNumber: d.DayNumber,
			Date:      d.Date,
			Character: d.Character,
			SceneID:   d.SceneID,
			Message:   d.Message,
			Hard:      hard,
			Code:      findingCode(d, hard),
		})
	}
	return report
}

func findingCode(d constraint.ViolationDetail, hard bool) apperrors.Code {
	switch {
	case d.ConstraintType == constraint.TypeOversizedScene:
		return apperrors.CodeOversizedScene
	case hard:
		return apperrors.CodeConstraintViolation
	}
	return ""
}

func isHard(m *constraint.Manager, d constraint.ViolationDetail) bool {
	if d.Severity == model.SeverityAdvisory {
		return false
	}
	c := m.GetConstraint(d.ConstraintType)
	return c != nil && c.Category() == constraint.CategoryHard
}

// Annotate returns a copy of plan whose warnings are exactly the findings of this
// validation: day findings on their day, the rest on the plan. Scene assignment is untouched.
func (v *Validator) Annotate(plan model.Plan) (model.Plan, *Report) {
	out := plan.Clone()
	report := v.Validate(out)

	out.Warnings = nil
	for i := range out.Days {
		out.Days[i].Warnings = nil
	}
	for _, f := range report.Findings {
		if i := out.DayIndex(f.DayNumber); f.DayNumber > 0 && i >= 0 {
			out.Days[i].AddWarning(f.Text())
			continue
		}
		out.Warnings = appendUnique(out.Warnings, f.Text())
	}
	return out, report
}

func appendUnique(list []string, s string) []string {
	for _, x := range list {
		if x == s {
			return list
		}
	}
	return append(list, s)
}
