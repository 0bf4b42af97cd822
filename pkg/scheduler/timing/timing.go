// Package timing estimates shooting time from script length.
//
// A page is eight eighths and an eighth costs 13 minutes of camera time. On top of that a
// scene pays a setup (full when the unit moves to a new location, a mini setup when it stays),
// a flat transition at each scene boundary, and coverage surcharges for action and heavy dialogue.
package timing

import (
	"math"

	"github.com/rodaje/rodaje/pkg/model"
)

const (
	MinutesPerEighth       = 13.0
	InteriorSetupMinutes   = 30.0
	ExteriorSetupMinutes   = 45.0
	NightSetupExtraMinutes = 15.0
	MiniSetupMinutes       = 10.0
	TransitionMinutes      = 5.0

	ActionSurcharge   = 0.5
	DialogueSurcharge = 0.3
)

// eps keeps ceil from rounding up float noise such as 10*1.3 = 13.000000000000002.
const eps = 1e-9

// ComplexityMultiplier scales page length by scene complexity.
func ComplexityMultiplier(c model.Complexity) float64 {
	switch c.Normalize() {
	case model.ComplexityHigh:
		return 1.5
	default:
		return 1.0
	}
}

// SurchargeFactor is the additive coverage surcharge of a scene, e.g. 0.8 for action plus dialogue.
func SurchargeFactor(s model.Scene) float64 {
	f := 0.0
	if s.HasAction() {
		f += ActionSurcharge
	}
	if s.HasExtendedDialogue() {
		f += DialogueSurcharge
	}
	return f
}

// scaledEighths is page length after complexity only.
func scaledEighths(s model.Scene) int {
	v := int(math.Ceil(float64(s.PageEighths)*ComplexityMultiplier(s.Complexity) - eps))
	if v < s.PageEighths {
		return s.PageEighths
	}
	return v
}

// EffectiveEighths is page length scaled by complexity and coverage. Never below PageEighths.
func EffectiveEighths(s model.Scene) int {
	v := int(math.Ceil(float64(s.PageEighths)*ComplexityMultiplier(s.Complexity)*(1+SurchargeFactor(s)) - eps))
	if v < s.PageEighths {
		return s.PageEighths
	}
	return v
}

// BaseShootMinutes is camera time before surcharges.
func BaseShootMinutes(s model.Scene) float64 {
	return float64(scaledEighths(s)) * MinutesPerEighth
}

// SurchargeMinutes is the coverage surcharge, a percentage of base time.
func SurchargeMinutes(s model.Scene) float64 {
	return BaseShootMinutes(s) * SurchargeFactor(s)
}

// FullSetupMinutes is the setup paid when the unit arrives at a location.
func FullSetupMinutes(s model.Scene) float64 {
	m := InteriorSetupMinutes
	if s.IntExt.Normalize() == model.Exterior {
		m = ExteriorSetupMinutes
	}
	if s.IsNight() {
		m += NightSetupExtraMinutes
	}
	return m
}

// SceneTime itemizes one scene's contribution to its day.
type SceneTime struct {
	SceneID           string  `json:"sceneId"`
	EffectiveEighths  int     `json:"effectiveEighths"`
	FullSetup         bool    `json:"fullSetup"`
	SetupMinutes      float64 `json:"setupMinutes"`
	BaseMinutes       float64 `json:"baseMinutes"`
	SurchargeMinutes  float64 `json:"surchargeMinutes"`
	TransitionMinutes float64 `json:"transitionMinutes"`
}

// TotalMinutes sums the items.
func (st SceneTime) TotalMinutes() float64 {
	return st.SetupMinutes + st.BaseMinutes + st.SurchargeMinutes + st.TransitionMinutes
}

// sceneTime prices s given the scene shot immediately before it (nil for the first of the day).
func sceneTime(prev *model.Scene, s model.Scene) SceneTime {
	st := SceneTime{
		SceneID:          s.ID,
		EffectiveEighths: EffectiveEighths(s),
		BaseMinutes:      BaseShootMinutes(s),
		SurchargeMinutes: SurchargeMinutes(s),
	}
	if prev == nil || prev.LocationKey() != s.LocationKey() {
		st.FullSetup = true
		st.SetupMinutes = FullSetupMinutes(s)
	} else {
		st.SetupMinutes = MiniSetupMinutes
	}
	if prev != nil {
		st.TransitionMinutes = TransitionMinutes
	}
	return st
}

// SceneBreakdown prices every scene of a day in shooting order.
func SceneBreakdown(scenes []model.Scene) []SceneTime {
	out := make([]SceneTime, len(scenes))
	var prev *model.Scene
	for i := range scenes {
		out[i] = sceneTime(prev, scenes[i])
		prev = &scenes[i]
	}
	return out
}

// DayMinutes is the unrounded total for scenes in the given order.
func DayMinutes(scenes []model.Scene) float64 {
	var total float64
	for _, st := range SceneBreakdown(scenes) {
		total += st.TotalMinutes()
	}
	return total
}

// RecalculateDayTime returns estimated hours rounded to one decimal.
// It depends only on the scenes and their order.
func RecalculateDayTime(scenes []model.Scene) float64 {
	return ToHours(DayMinutes(scenes))
}

// ToHours converts minutes to hours rounded to one decimal.
func ToHours(minutes float64) float64 {
	return math.Round(minutes/60*10) / 10
}

// TotalEffectiveEighths sums effective eighths.
func TotalEffectiveEighths(scenes []model.Scene) int {
	n := 0
	for _, s := range scenes {
		n += EffectiveEighths(s)
	}
	return n
}

// DayClock accumulates a day's time scene by scene while the packer fills it.
type DayClock struct {
	minutes float64
	eighths int
	high    int
	last    *model.Scene
}

// Peek returns the day's minutes if s were appended.
func (c *DayClock) Peek(s model.Scene) float64 {
	return c.minutes + sceneTime(c.last, s).TotalMinutes()
}

// Add appends s.
func (c *DayClock) Add(s model.Scene) {
	c.minutes += sceneTime(c.last, s).TotalMinutes()
	c.eighths += EffectiveEighths(s)
	if s.Complexity.Normalize() == model.ComplexityHigh {
		c.high++
	}
	sc := s
	c.last = &sc
}

// Empty reports whether no scene was added.
func (c *DayClock) Empty() bool { return c.last == nil }

func (c *DayClock) Minutes() float64 { return c.minutes }
func (c *DayClock) Hours() float64   { return ToHours(c.minutes) }
func (c *DayClock) Eighths() int     { return c.eighths }
func (c *DayClock) HighCount() int   { return c.high }

// RecalculateDay returns a copy of day with every derived field recomputed from its scenes.
func RecalculateDay(day model.ShootingDay) model.ShootingDay {
	d := day.Clone()
	d.TotalEighths = TotalEffectiveEighths(d.Scenes)
	d.EstimatedHours = RecalculateDayTime(d.Scenes)
	d.Characters = model.CharacterUnion(d.Scenes)
	d.Locations = distinctLocations(d.Scenes)

	if !d.LocationPinned {
		d.Location, d.LocationID = primaryLocation(d.Scenes)
	}
	if !d.TimeOfDayPinned {
		d.TimeOfDay = DominantTimeOfDay(d.Scenes)
	}
	return d
}

func distinctLocations(scenes []model.Scene) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, s := range scenes {
		label := s.LocationLabel()
		if label == "" || seen[s.LocationKey()] {
			continue
		}
		seen[s.LocationKey()] = true
		out = append(out, label)
	}
	return out
}

// primaryLocation is the location holding the most effective eighths; ties go to the first seen.
func primaryLocation(scenes []model.Scene) (name, id string) {
	weight := make(map[string]int)
	var order []string
	first := make(map[string]model.Scene)
	for _, s := range scenes {
		k := s.LocationKey()
		if k == "" {
			continue
		}
		if _, ok := first[k]; !ok {
			first[k] = s
			order = append(order, k)
		}
		weight[k] += EffectiveEighths(s)
	}
	best := ""
	for _, k := range order {
		if best == "" || weight[k] > weight[best] {
			best = k
		}
	}
	if best == "" {
		return "", ""
	}
	s := first[best]
	return s.LocationLabel(), s.LocationID
}

// DominantTimeOfDay returns the value held by a strict majority of scenes, else MIXED.
// An empty day is DAY.
func DominantTimeOfDay(scenes []model.Scene) model.TimeOfDay {
	if len(scenes) == 0 {
		return model.TimeDay
	}
	counts := make(map[model.TimeOfDay]int)
	for _, s := range scenes {
		counts[s.TimeOfDay.Normalize()]++
	}
	for t, n := range counts {
		if n*2 > len(scenes) {
			return t
		}
	}
	return model.TimeMixed
}
