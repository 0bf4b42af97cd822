package model

import (
	"github.com/google/uuid"
)

// ShootingDay is one scheduled day. Everything except Scenes, Date, Notes and the pinned
// fields is derived from Scenes and must be recalculated after any edit.
type ShootingDay struct {
	ID             uuid.UUID `json:"id"`
	DayNumber      int       `json:"dayNumber"`
	Date           string    `json:"date,omitempty"`
	Scenes         []Scene   `json:"scenes"`
	Location       string    `json:"location"`
	LocationID     string    `json:"locationId,omitempty"`
	Locations      []string  `json:"locations"`
	TimeOfDay      TimeOfDay `json:"timeOfDay"`
	TotalEighths   int       `json:"totalEighths"`
	EstimatedHours float64   `json:"estimatedHours"`
	Characters     []string  `json:"characters"`
	Warnings       []string  `json:"warnings,omitempty"`
	Notes          string    `json:"notes,omitempty"`

	// Set by explicit edits; recalculation keeps the pinned value.
	LocationPinned  bool `json:"locationPinned,omitempty"`
	TimeOfDayPinned bool `json:"timeOfDayPinned,omitempty"`
}

// NewShootingDay returns an empty day with a fresh id.
func NewShootingDay(number int) ShootingDay {
	return ShootingDay{
		ID:         uuid.New(),
		DayNumber:  number,
		Scenes:     []Scene{},
		Locations:  []string{},
		Characters: []string{},
	}
}

// Clone deep-copies the day.
func (d ShootingDay) Clone() ShootingDay {
	c := d
	c.Scenes = CloneScenes(d.Scenes)
	if c.Scenes == nil {
		c.Scenes = []Scene{}
	}
	c.Locations = append([]string{}, d.Locations...)
	c.Characters = append([]string{}, d.Characters...)
	if d.Warnings != nil {
		c.Warnings = append([]string(nil), d.Warnings...)
	}
	return c
}

// HasNight reports whether any scene is NIGHT.
func (d ShootingDay) HasNight() bool {
	for _, s := range d.Scenes {
		if s.IsNight() {
			return true
		}
	}
	return false
}

// IsNightDay reports a day that is NIGHT by dominant value or by containing a night scene.
func (d ShootingDay) IsNightDay() bool {
	return d.TimeOfDay == TimeNight || d.HasNight()
}

// HasCharacter reports whether name appears in the day.
func (d ShootingDay) HasCharacter(name string) bool {
	for _, c := range d.Characters {
		if c == name {
			return true
		}
	}
	return false
}

// SceneIndex returns the position of sceneID in the day, or -1.
func (d ShootingDay) SceneIndex(sceneID string) int {
	for i, s := range d.Scenes {
		if s.ID == sceneID {
			return i
		}
	}
	return -1
}

// AddWarning appends msg unless it is already present.
func (d *ShootingDay) AddWarning(msg string) {
	for _, w := range d.Warnings {
		if w == msg {
			return
		}
	}
	d.Warnings = append(d.Warnings, msg)
}

// Plan is an ordered list of days plus the scenes not yet placed.
type Plan struct {
	ID         uuid.UUID     `json:"id"`
	ProjectID  string        `json:"projectId,omitempty"`
	Strategy   string        `json:"strategy,omitempty"`
	Days       []ShootingDay `json:"days"`
	Unassigned []Scene       `json:"unassigned,omitempty"`
	Warnings   []string      `json:"warnings,omitempty"`
}

// Clone deep-copies the plan.
func (p Plan) Clone() Plan {
	c := p
	c.Days = make([]ShootingDay, len(p.Days))
	for i, d := range p.Days {
		c.Days[i] = d.Clone()
	}
	c.Unassigned = CloneScenes(p.Unassigned)
	if p.Warnings != nil {
		c.Warnings = append([]string(nil), p.Warnings...)
	}
	return c
}

// Renumber makes day numbers contiguous from 1 in slice order.
func (p *Plan) Renumber() {
	for i := range p.Days {
		p.Days[i].DayNumber = i + 1
	}
}

// SceneCount counts scheduled scenes.
func (p Plan) SceneCount() int {
	n := 0
	for _, d := range p.Days {
		n += len(d.Scenes)
	}
	return n
}

// Locate finds a scheduled scene. ok is false when the scene is not in any day.
func (p Plan) Locate(sceneID string) (dayIdx, sceneIdx int, ok bool) {
	for i, d := range p.Days {
		if j := d.SceneIndex(sceneID); j >= 0 {
			return i, j, true
		}
	}
	return -1, -1, false
}

// UnassignedIndex returns the position of sceneID among unassigned scenes, or -1.
func (p Plan) UnassignedIndex(sceneID string) int {
	for i, s := range p.Unassigned {
		if s.ID == sceneID {
			return i
		}
	}
	return -1
}

// DayIndex returns the slice index of dayNumber, or -1.
func (p Plan) DayIndex(dayNumber int) int {
	for i, d := range p.Days {
		if d.DayNumber == dayNumber {
			return i
		}
	}
	return -1
}

// TotalHours sums estimated hours over all days.
func (p Plan) TotalHours() float64 {
	var h float64
	for _, d := range p.Days {
		h += d.EstimatedHours
	}
	return h
}
