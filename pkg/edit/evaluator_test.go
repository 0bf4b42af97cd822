package edit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodaje/rodaje/pkg/model"
	"github.com/rodaje/rodaje/pkg/scheduler/constraint"
	"github.com/rodaje/rodaje/pkg/scheduler/timing"
)

func minorsPlan() model.Plan {
	minor := newScene("m", "CASA", model.TimeDay, 4, "NIÑA")
	minor.ComplexityFactors = map[string]interface{}{model.FactorMinors: true}

	plan := model.Plan{}
	for i, scenes := range [][]model.Scene{
		{newScene("a", "CASA", model.TimeDay, 8), minor},
		{newScene("c", "PUERTO", model.TimeNight, 8), newScene("c2", "PUERTO", model.TimeNight, 8)},
		{newScene("d", "CASA", model.TimeDay, 8)},
	} {
		d := model.NewShootingDay(i + 1)
		d.Scenes = scenes
		plan.Days = append(plan.Days, timing.RecalculateDay(d))
	}
	return plan
}

func TestEvaluator_MoveIntoNightDayIsInfeasible(t *testing.T) {
	e := NewEvaluator(nil)
	res, err := e.EvaluateMove(minorsPlan(), "m", 2, -1)
	require.NoError(t, err)

	assert.False(t, res.Feasible)
	require.Len(t, res.NewFindings, 1)
	assert.Equal(t, constraint.TypeMinorsAtNight, res.NewFindings[0].Rule)
	assert.Empty(t, res.ResolvedFindings)
	assert.Less(t, res.ScoreChange, 0.0)
	assert.Contains(t, res.Recommendation, "no recomendado")

	assert.Equal(t, 1, res.Impact.SourceDay.DayNumber)
	assert.Equal(t, -4, res.Impact.SourceDay.EighthsChange)
	assert.Equal(t, 4, res.Impact.TargetDay.EighthsChange)
	assert.Greater(t, res.Impact.TargetDay.HoursChange, 0.0)

	ok, msg := e.CanMove(minorsPlan(), "m", 2)
	assert.False(t, ok)
	assert.NotEmpty(t, msg)
}

func TestEvaluator_NeutralMove(t *testing.T) {
	e := NewEvaluator(nil)
	res, err := e.EvaluateMove(minorsPlan(), "m", 3, -1)
	require.NoError(t, err)

	assert.True(t, res.Feasible)
	assert.Empty(t, res.NewFindings)
	assert.Contains(t, res.Recommendation, "neutral")

	ok, _ := e.CanMove(minorsPlan(), "m", 3)
	assert.True(t, ok)
}

func TestEvaluator_ResolvesFinding(t *testing.T) {
	plan, err := MoveScene(minorsPlan(), "m", 2, -1)
	require.NoError(t, err)

	res, err := NewEvaluator(nil).EvaluateMove(plan, "m", 1, -1)
	require.NoError(t, err)
	assert.True(t, res.Feasible)
	require.Len(t, res.ResolvedFindings, 1)
	assert.Equal(t, constraint.TypeMinorsAtNight, res.ResolvedFindings[0].Rule)
	assert.Greater(t, res.ScoreChange, 0.0)
}

func TestEvaluator_UnknownScene(t *testing.T) {
	_, err := NewEvaluator(nil).EvaluateMove(minorsPlan(), "nope", 1, 0)
	assert.Error(t, err)
}
