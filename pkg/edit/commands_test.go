package edit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/rodaje/rodaje/pkg/errors"
	"github.com/rodaje/rodaje/pkg/model"
	"github.com/rodaje/rodaje/pkg/scheduler/timing"
)

func newScene(id, location string, tod model.TimeOfDay, eighths int, cast ...string) model.Scene {
	return model.Scene{ID: id, LocationName: location, TimeOfDay: tod, PageEighths: eighths, Characters: cast}
}

// basePlan: day 1 CASA (a, b), day 2 PUERTO at night (c), day 3 CASA (d), dated from Monday.
func basePlan() model.Plan {
	scenes := [][]model.Scene{
		{newScene("a", "CASA", model.TimeDay, 8, "ANA"), newScene("b", "CASA", model.TimeDay, 8)},
		{newScene("c", "PUERTO", model.TimeNight, 8, "LUIS")},
		{newScene("d", "CASA", model.TimeDay, 8, "ANA")},
	}
	dates := []string{"2026-03-02", "2026-03-03", "2026-03-04"}
	plan := model.Plan{}
	for i, s := range scenes {
		d := model.NewShootingDay(i + 1)
		d.Scenes = s
		d.Date = dates[i]
		plan.Days = append(plan.Days, timing.RecalculateDay(d))
	}
	return plan
}

func ids(d model.ShootingDay) []string {
	out := make([]string, 0, len(d.Scenes))
	for _, s := range d.Scenes {
		out = append(out, s.ID)
	}
	return out
}

// assertDerived checks that every day's derived fields match a fresh recalculation.
func assertDerived(t *testing.T, plan model.Plan) {
	t.Helper()
	for i, d := range plan.Days {
		assert.Equal(t, i+1, d.DayNumber)
		fresh := timing.RecalculateDay(d)
		assert.Equal(t, fresh.TotalEighths, d.TotalEighths, "day %d eighths", d.DayNumber)
		assert.Equal(t, fresh.EstimatedHours, d.EstimatedHours, "day %d hours", d.DayNumber)
		assert.Equal(t, fresh.Characters, d.Characters, "day %d characters", d.DayNumber)
	}
}

func TestMoveScene(t *testing.T) {
	plan := basePlan()
	out, err := MoveScene(plan, "b", 2, 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, ids(out.Days[0]))
	assert.Equal(t, []string{"b", "c"}, ids(out.Days[1]))
	assert.Equal(t, 8, out.Days[0].TotalEighths)
	assert.Equal(t, 16, out.Days[1].TotalEighths)
	assert.Equal(t, model.TimeMixed, out.Days[1].TimeOfDay)
	assertDerived(t, out)

	// the input is untouched
	assert.Equal(t, []string{"a", "b"}, ids(plan.Days[0]))
	assert.Equal(t, 16, plan.Days[0].TotalEighths)
}

func TestMoveScene_Errors(t *testing.T) {
	plan := basePlan()

	_, err := MoveScene(plan, "zz", 2, 0)
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidEdit))

	_, err = MoveScene(plan, "a", 9, 0)
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidEdit))
}

func TestReorderScene(t *testing.T) {
	out, err := ReorderScene(basePlan(), "b", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, ids(out.Days[0]))
	assertDerived(t, out)
}

func TestRemoveAndAddScene(t *testing.T) {
	removed, err := RemoveScene(basePlan(), "a")
	require.NoError(t, err)
	require.Len(t, removed.Unassigned, 1)
	assert.Equal(t, "a", removed.Unassigned[0].ID)
	assert.Equal(t, []string{"b"}, ids(removed.Days[0]))
	assert.Empty(t, removed.Days[0].Characters)

	back, err := AddSceneToDay(removed, 3, removed.Unassigned[0], 0)
	require.NoError(t, err)
	assert.Empty(t, back.Unassigned)
	assert.Equal(t, []string{"a", "d"}, ids(back.Days[2]))
	assertDerived(t, back)

	_, err = AddSceneToDay(back, 1, newScene("a", "CASA", model.TimeDay, 1), -1)
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidEdit), "already scheduled")

	_, err = AddSceneToDay(back, 1, newScene("new", "CASA", model.TimeDay, 0), -1)
	assert.Error(t, err, "invalid scene")
}

func TestMoveDay_DatesStayWithSlots(t *testing.T) {
	out, err := MoveDay(basePlan(), 3, 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"d"}, ids(out.Days[0]))
	assert.Equal(t, []string{"a", "b"}, ids(out.Days[1]))
	assert.Equal(t, "2026-03-02", out.Days[0].Date)
	assert.Equal(t, "2026-03-04", out.Days[2].Date)
	assertDerived(t, out)

	_, err = MoveDay(basePlan(), 1, 4)
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidEdit))
}

func TestSwapDays(t *testing.T) {
	out, err := SwapDays(basePlan(), 1, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"d"}, ids(out.Days[0]))
	assert.Equal(t, []string{"a", "b"}, ids(out.Days[2]))
	assert.Equal(t, "2026-03-02", out.Days[0].Date)

	_, err = SwapDays(basePlan(), 1, 7)
	assert.Error(t, err)
}

func TestDeleteAndInsertDay(t *testing.T) {
	out, err := DeleteDay(basePlan(), 2)
	require.NoError(t, err)
	require.Len(t, out.Days, 2)
	assert.Equal(t, []string{"d"}, ids(out.Days[1]))
	require.Len(t, out.Unassigned, 1)
	assert.Equal(t, "c", out.Unassigned[0].ID)
	assertDerived(t, out)

	_, err = InsertDay(out, 2, "03/03/2026")
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidEdit))

	inserted, err := InsertDay(out, 2, "2026-03-03")
	require.NoError(t, err)
	require.Len(t, inserted.Days, 3)
	assert.Empty(t, inserted.Days[1].Scenes)
	assert.Equal(t, "2026-03-03", inserted.Days[1].Date)
	assert.Equal(t, 0, inserted.Days[1].TotalEighths)
	assertDerived(t, inserted)

	_, err = InsertDay(out, 5, "")
	assert.Error(t, err)
}

func TestSetDayLocation_PinSurvivesEdits(t *testing.T) {
	out, err := SetDayLocation(basePlan(), 1, "PLATÓ 2", "")
	require.NoError(t, err)
	assert.Equal(t, "PLATÓ 2", out.Days[0].Location)
	assert.True(t, out.Days[0].LocationPinned)

	out, err = MoveScene(out, "c", 1, -1)
	require.NoError(t, err)
	assert.Equal(t, "PLATÓ 2", out.Days[0].Location)

	out, err = SetDayLocation(out, 1, "", "")
	require.NoError(t, err)
	assert.False(t, out.Days[0].LocationPinned)
	assert.Equal(t, "CASA", out.Days[0].Location)
}

func TestSetDayTimeOfDayAndNotes(t *testing.T) {
	out, err := SetDayTimeOfDay(basePlan(), 1, "noche")
	require.NoError(t, err)
	assert.Equal(t, model.TimeNight, out.Days[0].TimeOfDay)
	assert.True(t, out.Days[0].TimeOfDayPinned)

	out, err = SetDayTimeOfDay(out, 1, "")
	require.NoError(t, err)
	assert.Equal(t, model.TimeDay, out.Days[0].TimeOfDay)

	out, err = SetDayNotes(out, 2, "grúa confirmada")
	require.NoError(t, err)
	assert.Equal(t, "grúa confirmada", out.Days[1].Notes)

	_, err = SetDayNotes(out, 8, "x")
	assert.Error(t, err)
}

func TestCommand_Apply(t *testing.T) {
	pos := 0
	out, err := Command{Op: OpMoveScene, SceneID: "b", ToDay: 3, Position: &pos}.Apply(basePlan())
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "d"}, ids(out.Days[2]))

	out, err = Command{Op: OpRemoveScene, SceneID: "c"}.Apply(out)
	require.NoError(t, err)
	out, err = Command{Op: OpAddScene, SceneID: "c", DayNumber: 1}.Apply(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, ids(out.Days[0]))

	out, err = Command{Op: OpInsertDay}.Apply(out)
	require.NoError(t, err)
	assert.Len(t, out.Days, 4)

	_, err = Command{Op: OpReorderScene, SceneID: "a"}.Apply(out)
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidEdit))

	_, err = Command{Op: "explode"}.Apply(out)
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidInput))

	assert.Len(t, Ops(), 11)
}
