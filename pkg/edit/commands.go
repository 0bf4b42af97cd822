// Package edit holds the commands that change a plan after generation. Every command
// takes a plan and returns a new one with the touched days recalculated; the input is never
// modified and a failing command returns no plan.
package edit

import (
	"fmt"
	"strings"

	apperrors "github.com/rodaje/rodaje/pkg/errors"
	"github.com/rodaje/rodaje/pkg/model"
	"github.com/rodaje/rodaje/pkg/scheduler/timing"
)

// Command names, as accepted by Command.Op.
const (
	OpAddScene     = "add_scene"
	OpRemoveScene  = "remove_scene"
	OpMoveScene    = "move_scene"
	OpReorderScene = "reorder_scene"
	OpMoveDay      = "move_day"
	OpSwapDays     = "swap_days"
	OpDeleteDay    = "delete_day"
	OpInsertDay    = "insert_day"
	OpSetLocation  = "set_location"
	OpSetTimeOfDay = "set_time_of_day"
	OpSetDayNotes  = "set_notes"
)

const (
	errDayNotFound  = "day %d not found"
	errSceneMissing = "scene %q is not scheduled"
)

// AddSceneToDay places scene in dayNumber at position (0-based; out of range appends). A scene
// waiting in Unassigned is taken from there; a scene already scheduled is rejected.
func AddSceneToDay(plan model.Plan, dayNumber int, scene model.Scene, position int) (model.Plan, error) {
	if err := model.ValidateScenes([]model.Scene{scene}); err != nil {
		return model.Plan{}, err
	}
	if _, _, ok := plan.Locate(scene.ID); ok {
		return model.Plan{}, apperrors.InvalidEdit(OpAddScene, fmt.Sprintf("scene %q is already scheduled", scene.ID))
	}
	out := plan.Clone()
	di := out.DayIndex(dayNumber)
	if di < 0 {
		return model.Plan{}, apperrors.InvalidEdit(OpAddScene, fmt.Sprintf(errDayNotFound, dayNumber))
	}
	if ui := out.UnassignedIndex(scene.ID); ui >= 0 {
		out.Unassigned = append(out.Unassigned[:ui], out.Unassigned[ui+1:]...)
	}
	out.Days[di].Scenes = insertScene(out.Days[di].Scenes, scene.Clone(), position)
	out.Days[di] = timing.RecalculateDay(out.Days[di])
	return out, nil
}

// RemoveScene takes a scheduled scene out of its day and appends it to Unassigned.
func RemoveScene(plan model.Plan, sceneID string) (model.Plan, error) {
	out := plan.Clone()
	di, si, ok := out.Locate(sceneID)
	if !ok {
		return model.Plan{}, apperrors.InvalidEdit(OpRemoveScene, fmt.Sprintf(errSceneMissing, sceneID))
	}
	s := out.Days[di].Scenes[si]
	out.Days[di].Scenes = append(out.Days[di].Scenes[:si], out.Days[di].Scenes[si+1:]...)
	out.Days[di] = timing.RecalculateDay(out.Days[di])
	out.Unassigned = append(out.Unassigned, s)
	return out, nil
}

// MoveScene moves a scheduled scene to toDay at position. Both days are recalculated
// together; the source day stays in the plan even when it becomes empty.
func MoveScene(plan model.Plan, sceneID string, toDay, position int) (model.Plan, error) {
	out := plan.Clone()
	di, si, ok := out.Locate(sceneID)
	if !ok {
		return model.Plan{}, apperrors.InvalidEdit(OpMoveScene, fmt.Sprintf(errSceneMissing, sceneID))
	}
	ti := out.DayIndex(toDay)
	if ti < 0 {
		return model.Plan{}, apperrors.InvalidEdit(OpMoveScene, fmt.Sprintf(errDayNotFound, toDay))
	}
	s := out.Days[di].Scenes[si]
	out.Days[di].Scenes = append(out.Days[di].Scenes[:si], out.Days[di].Scenes[si+1:]...)
	out.Days[ti].Scenes = insertScene(out.Days[ti].Scenes, s, position)
	out.Days[di] = timing.RecalculateDay(out.Days[di])
	if ti != di {
		out.Days[ti] = timing.RecalculateDay(out.Days[ti])
	}
	return out, nil
}

// ReorderScene moves a scene to position within its own day. Hours change with the order
// because setups depend on the previous scene.
func ReorderScene(plan model.Plan, sceneID string, position int) (model.Plan, error) {
	di, _, ok := plan.Locate(sceneID)
	if !ok {
		return model.Plan{}, apperrors.InvalidEdit(OpReorderScene, fmt.Sprintf(errSceneMissing, sceneID))
	}
	return MoveScene(plan, sceneID, plan.Days[di].DayNumber, position)
}

// MoveDay moves dayNumber to the 1-based position toPosition. Dates stay with their calendar
// slot, so the moved days take the dates of the slots they land in.
func MoveDay(plan model.Plan, dayNumber, toPosition int) (model.Plan, error) {
	out := plan.Clone()
	from := out.DayIndex(dayNumber)
	if from < 0 {
		return model.Plan{}, apperrors.InvalidEdit(OpMoveDay, fmt.Sprintf(errDayNotFound, dayNumber))
	}
	to := toPosition - 1
	if to < 0 || to >= len(out.Days) {
		return model.Plan{}, apperrors.InvalidEdit(OpMoveDay, fmt.Sprintf("position %d out of range 1..%d", toPosition, len(out.Days)))
	}
	dates := dateSlots(out.Days)
	d := out.Days[from]
	out.Days = append(out.Days[:from], out.Days[from+1:]...)
	out.Days = append(out.Days[:to], append([]model.ShootingDay{d}, out.Days[to:]...)...)
	restoreDates(out.Days, dates)
	out.Renumber()
	return out, nil
}

// SwapDays exchanges two days; like MoveDay, dates stay with their slots.
func SwapDays(plan model.Plan, a, b int) (model.Plan, error) {
	out := plan.Clone()
	i, j := out.DayIndex(a), out.DayIndex(b)
	if i < 0 {
		return model.Plan{}, apperrors.InvalidEdit(OpSwapDays, fmt.Sprintf(errDayNotFound, a))
	}
	if j < 0 {
		return model.Plan{}, apperrors.InvalidEdit(OpSwapDays, fmt.Sprintf(errDayNotFound, b))
	}
	dates := dateSlots(out.Days)
	out.Days[i], out.Days[j] = out.Days[j], out.Days[i]
	restoreDates(out.Days, dates)
	out.Renumber()
	return out, nil
}

// DeleteDay removes a day; its scenes move to Unassigned in their shooting order.
func DeleteDay(plan model.Plan, dayNumber int) (model.Plan, error) {
	out := plan.Clone()
	i := out.DayIndex(dayNumber)
	if i < 0 {
		return model.Plan{}, apperrors.InvalidEdit(OpDeleteDay, fmt.Sprintf(errDayNotFound, dayNumber))
	}
	out.Unassigned = append(out.Unassigned, out.Days[i].Scenes...)
	out.Days = append(out.Days[:i], out.Days[i+1:]...)
	out.Renumber()
	return out, nil
}

// InsertDay adds an empty day at the 1-based position (len+1 appends), optionally dated.
func InsertDay(plan model.Plan, position int, date string) (model.Plan, error) {
	if position < 1 || position > len(plan.Days)+1 {
		return model.Plan{}, apperrors.InvalidEdit(OpInsertDay, fmt.Sprintf("position %d out of range 1..%d", position, len(plan.Days)+1))
	}
	if date != "" {
		if _, err := model.ParseDate(date); err != nil {
			return model.Plan{}, apperrors.InvalidEdit(OpInsertDay, "date must be YYYY-MM-DD")
		}
	}
	out := plan.Clone()
	d := timing.RecalculateDay(model.NewShootingDay(position))
	d.Date = date
	i := position - 1
	out.Days = append(out.Days[:i], append([]model.ShootingDay{d}, out.Days[i:]...)...)
	out.Renumber()
	return out, nil
}

// SetDayLocation pins the day's headline location. An empty name unpins it and the location
// is derived from the scenes again.
func SetDayLocation(plan model.Plan, dayNumber int, name, locationID string) (model.Plan, error) {
	out := plan.Clone()
	i := out.DayIndex(dayNumber)
	if i < 0 {
		return model.Plan{}, apperrors.InvalidEdit(OpSetLocation, fmt.Sprintf(errDayNotFound, dayNumber))
	}
	name = strings.TrimSpace(name)
	d := &out.Days[i]
	d.LocationPinned = name != ""
	d.Location, d.LocationID = name, strings.TrimSpace(locationID)
	out.Days[i] = timing.RecalculateDay(*d)
	return out, nil
}

// SetDayTimeOfDay pins the day's time of day; an empty value unpins it.
func SetDayTimeOfDay(plan model.Plan, dayNumber int, tod model.TimeOfDay) (model.Plan, error) {
	out := plan.Clone()
	i := out.DayIndex(dayNumber)
	if i < 0 {
		return model.Plan{}, apperrors.InvalidEdit(OpSetTimeOfDay, fmt.Sprintf(errDayNotFound, dayNumber))
	}
	d := &out.Days[i]
	d.TimeOfDayPinned = strings.TrimSpace(string(tod)) != ""
	if d.TimeOfDayPinned {
		d.TimeOfDay = tod.Normalize()
	}
	out.Days[i] = timing.RecalculateDay(*d)
	return out, nil
}

// SetDayNotes replaces the day's free-text notes.
func SetDayNotes(plan model.Plan, dayNumber int, notes string) (model.Plan, error) {
	out := plan.Clone()
	i := out.DayIndex(dayNumber)
	if i < 0 {
		return model.Plan{}, apperrors.InvalidEdit(OpSetDayNotes, fmt.Sprintf(errDayNotFound, dayNumber))
	}
	out.Days[i].Notes = notes
	return out, nil
}

func insertScene(scenes []model.Scene, s model.Scene, position int) []model.Scene {
	if position < 0 || position >= len(scenes) {
		return append(scenes, s)
	}
	scenes = append(scenes, model.Scene{})
	copy(scenes[position+1:], scenes[position:])
	scenes[position] = s
	return scenes
}

func dateSlots(days []model.ShootingDay) []string {
	dates := make([]string, len(days))
	for i, d := range days {
		dates[i] = d.Date
	}
	return dates
}

func restoreDates(days []model.ShootingDay, dates []string) {
	for i := range days {
		days[i].Date = dates[i]
	}
}
