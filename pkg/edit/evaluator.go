package edit

import (
	"fmt"
	"math"

	"github.com/rodaje/rodaje/pkg/model"
	"github.com/rodaje/rodaje/pkg/validator"
)

// MoveEvaluation is the simulated outcome of moving a scene.
type MoveEvaluation struct {
	Feasible         bool                `json:"feasible"`
	Score            float64             `json:"score"`
	ScoreChange      float64             `json:"scoreChange"`
	NewFindings      []validator.Finding `json:"newFindings"`
	ResolvedFindings []validator.Finding `json:"resolvedFindings"`
	Impact           *MoveImpact         `json:"impact"`
	Recommendation   string              `json:"recommendation"`
}

// MoveImpact compares the two days involved before and after the move.
type MoveImpact struct {
	SourceDay DayImpact `json:"sourceDay"`
	TargetDay DayImpact `json:"targetDay"`
}

// DayImpact is the change of one day.
type DayImpact struct {
	DayNumber     int     `json:"dayNumber"`
	HoursBefore   float64 `json:"hoursBefore"`
	HoursAfter    float64 `json:"hoursAfter"`
	HoursChange   float64 `json:"hoursChange"`
	EighthsChange int     `json:"eighthsChange"`
}

// Evaluator simulates edits against a validator.
type Evaluator struct {
	validator *validator.Validator
}

// NewEvaluator creates an evaluator; a nil validator uses the default rules.
func NewEvaluator(v *validator.Validator) *Evaluator {
	if v == nil {
		v = validator.New(nil)
	}
	return &Evaluator{validator: v}
}

// EvaluateMove simulates MoveScene and reports the findings it introduces or resolves. A move
// that introduces a hard finding is not feasible.
func (e *Evaluator) EvaluateMove(plan model.Plan, sceneID string, toDay, position int) (*MoveEvaluation, error) {
	moved, err := MoveScene(plan, sceneID, toDay, position)
	if err != nil {
		return nil, err
	}
	di, _, _ := plan.Locate(sceneID)
	ti := plan.DayIndex(toDay)

	before := e.validator.Validate(plan)
	after := e.validator.Validate(moved)

	result := &MoveEvaluation{
		Feasible:         true,
		Score:            after.Score,
		ScoreChange:      after.Score - before.Score,
		NewFindings:      diffFindings(after.Findings, before.Findings),
		ResolvedFindings: diffFindings(before.Findings, after.Findings),
		Impact: &MoveImpact{
			SourceDay: dayImpact(plan.Days[di], moved.Days[di]),
			TargetDay: dayImpact(plan.Days[ti], moved.Days[ti]),
		},
	}
	for _, f := range result.NewFindings {
		if f.Hard {
			result.Feasible = false
			break
		}
	}
	result.Recommendation = recommendation(result)
	return result, nil
}

// CanMove is a quick feasibility check returning the first blocking message.
func (e *Evaluator) CanMove(plan model.Plan, sceneID string, toDay int) (bool, string) {
	result, err := e.EvaluateMove(plan, sceneID, toDay, -1)
	if err != nil {
		return false, err.Error()
	}
	if !result.Feasible {
		for _, f := range result.NewFindings {
			if f.Hard {
				return false, f.Message
			}
		}
	}
	return true, ""
}

func dayImpact(before, after model.ShootingDay) DayImpact {
	return DayImpact{
		DayNumber:     before.DayNumber,
		HoursBefore:   before.EstimatedHours,
		HoursAfter:    after.EstimatedHours,
		HoursChange:   round1(after.EstimatedHours - before.EstimatedHours),
		EighthsChange: after.TotalEighths - before.TotalEighths,
	}
}

// findingKey ignores the message so that a finding whose numbers changed counts as the same.
func findingKey(f validator.Finding) string {
	return fmt.Sprintf("%s|%s|%d|%s|%s", f.Rule, f.Severity, f.DayNumber, f.Character, f.SceneID)
}

// diffFindings returns the findings of a that have no counterpart in b.
func diffFindings(a, b []validator.Finding) []validator.Finding {
	seen := make(map[string]int, len(b))
	for _, f := range b {
		seen[findingKey(f)]++
	}
	out := make([]validator.Finding, 0)
	for _, f := range a {
		k := findingKey(f)
		if seen[k] > 0 {
			seen[k]--
			continue
		}
		out = append(out, f)
	}
	return out
}

func recommendation(r *MoveEvaluation) string {
	if !r.Feasible {
		return "no recomendado: el cambio incumple una norma obligatoria"
	}
	switch {
	case r.ScoreChange > 0:
		return "recomendado: el plan mejora"
	case r.ScoreChange == 0 && len(r.NewFindings) == 0:
		return "neutral: el cambio no afecta a las normas"
	case r.Score >= 70:
		return "aceptable: aparecen avisos menores"
	default:
		return "con precaución: empeora notablemente la calidad del plan"
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
