package edit

import (
	"fmt"

	apperrors "github.com/rodaje/rodaje/pkg/errors"
	"github.com/rodaje/rodaje/pkg/model"
)

// Command is the serialized form of an edit, as posted by clients.
type Command struct {
	Op         string          `json:"op"`
	SceneID    string          `json:"sceneId,omitempty"`
	Scene      *model.Scene    `json:"scene,omitempty"`
	DayNumber  int             `json:"dayNumber,omitempty"`
	ToDay      int             `json:"toDay,omitempty"`
	Position   *int            `json:"position,omitempty"` // 0-based in a day, 1-based among days
	Date       string          `json:"date,omitempty"`
	Location   string          `json:"location,omitempty"`
	LocationID string          `json:"locationId,omitempty"`
	TimeOfDay  model.TimeOfDay `json:"timeOfDay,omitempty"`
	Notes      string          `json:"notes,omitempty"`
}

func (c Command) scenePosition() int {
	if c.Position == nil {
		return -1
	}
	return *c.Position
}

func (c Command) dayPosition(fallback int) int {
	if c.Position == nil {
		return fallback
	}
	return *c.Position
}

// Apply runs the command against plan.
func (c Command) Apply(plan model.Plan) (model.Plan, error) {
	switch c.Op {
	case OpAddScene:
		if c.Scene != nil {
			return AddSceneToDay(plan, c.DayNumber, *c.Scene, c.scenePosition())
		}
		i := plan.UnassignedIndex(c.SceneID)
		if i < 0 {
			return model.Plan{}, apperrors.InvalidEdit(c.Op, fmt.Sprintf("scene %q is not unassigned", c.SceneID))
		}
		return AddSceneToDay(plan, c.DayNumber, plan.Unassigned[i], c.scenePosition())
	case OpRemoveScene:
		return RemoveScene(plan, c.SceneID)
	case OpMoveScene:
		return MoveScene(plan, c.SceneID, c.ToDay, c.scenePosition())
	case OpReorderScene:
		if c.Position == nil {
			return model.Plan{}, apperrors.InvalidEdit(c.Op, "position is required")
		}
		return ReorderScene(plan, c.SceneID, *c.Position)
	case OpMoveDay:
		if c.Position == nil {
			return model.Plan{}, apperrors.InvalidEdit(c.Op, "position is required")
		}
		return MoveDay(plan, c.DayNumber, *c.Position)
	case OpSwapDays:
		return SwapDays(plan, c.DayNumber, c.ToDay)
	case OpDeleteDay:
		return DeleteDay(plan, c.DayNumber)
	case OpInsertDay:
		return InsertDay(plan, c.dayPosition(len(plan.Days)+1), c.Date)
	case OpSetLocation:
		return SetDayLocation(plan, c.DayNumber, c.Location, c.LocationID)
	case OpSetTimeOfDay:
		return SetDayTimeOfDay(plan, c.DayNumber, c.TimeOfDay)
	case OpSetDayNotes:
		return SetDayNotes(plan, c.DayNumber, c.Notes)
	default:
		return model.Plan{}, apperrors.InvalidInput("op", fmt.Sprintf("unknown edit %q", c.Op))
	}
}

// Ops lists the accepted command names.
func Ops() []string {
	return []string{
		OpAddScene, OpRemoveScene, OpMoveScene, OpReorderScene,
		OpMoveDay, OpSwapDays, OpDeleteDay, OpInsertDay,
		OpSetLocation, OpSetTimeOfDay, OpSetDayNotes,
	}
}
