package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	apperrors "github.com/rodaje/rodaje/pkg/errors"
)

// TimeOfDay of a scene or a day. MIXED only appears on days.
type TimeOfDay string

const (
	TimeDay   TimeOfDay = "DAY"
	TimeNight TimeOfDay = "NIGHT"
	TimeDawn  TimeOfDay = "DAWN"
	TimeDusk  TimeOfDay = "DUSK"
	TimeMixed TimeOfDay = "MIXED"
)

// Normalize maps free text (including the Spanish script headings) onto a TimeOfDay.
// Empty or unrecognized values become DAY.
func (t TimeOfDay) Normalize() TimeOfDay {
	switch strings.ToUpper(strings.TrimSpace(string(t))) {
	case "NIGHT", "NOCHE", "N":
		return TimeNight
	case "DAWN", "AMANECER":
		return TimeDawn
	case "DUSK", "ATARDECER", "ANOCHECER":
		return TimeDusk
	case "MIXED", "MIXTO":
		return TimeMixed
	default:
		return TimeDay
	}
}

// IsNight reports whether t is NIGHT.
func (t TimeOfDay) IsNight() bool {
	return t.Normalize() == TimeNight
}

// DayClass is the day/night bucket used for separation. DAWN and DUSK shoot with the day crew.
type DayClass int

const (
	ClassDay DayClass = iota
	ClassNight
)

func (c DayClass) String() string {
	if c == ClassNight {
		return "night"
	}
	return "day"
}

// Class returns the day/night class of t.
func (t TimeOfDay) Class() DayClass {
	if t.IsNight() {
		return ClassNight
	}
	return ClassDay
}

// Complexity of a scene.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// Normalize maps free text onto a Complexity; empty or unknown values become medium.
func (c Complexity) Normalize() Complexity {
	switch strings.ToLower(strings.TrimSpace(string(c))) {
	case "low", "baja", "bajo":
		return ComplexityLow
	case "high", "alta", "alto":
		return ComplexityHigh
	default:
		return ComplexityMedium
	}
}

// IntExt tags interior or exterior scenes.
type IntExt string

const (
	Interior IntExt = "INT"
	Exterior IntExt = "EXT"
)

// Normalize returns INT, EXT or "". Mixed headings like INT/EXT count as exterior.
func (ie IntExt) Normalize() IntExt {
	s := strings.ToUpper(strings.TrimSpace(string(ie)))
	switch {
	case s == "":
		return ""
	case strings.Contains(s, "EXT"):
		return Exterior
	case strings.Contains(s, "INT"):
		return Interior
	}
	return ""
}

// Complexity factor names recognized by the engine.
const (
	FactorAction           = "action"
	FactorStunts           = "stunts"
	FactorDialogue         = "dialogue"
	FactorExtendedDialogue = "extended_dialogue"
	FactorMinors           = "minors"
	FactorVFX              = "vfx"
	FactorAnimals          = "animals"
	FactorNight            = "night"
)

// Scene is one script scene as it arrives from the breakdown.
type Scene struct {
	ID                string                 `json:"id"`
	SequenceNumber    int                    `json:"sequenceNumber"`
	Title             string                 `json:"title,omitempty"`
	LocationName      string                 `json:"locationName,omitempty"`
	LocationID        string                 `json:"locationId,omitempty"`
	TimeOfDay         TimeOfDay              `json:"timeOfDay"`
	PageEighths       int                    `json:"pageEighths"`
	Complexity        Complexity             `json:"complexity,omitempty"`
	Characters        []string               `json:"characters,omitempty"`
	IntExt            IntExt                 `json:"intExt,omitempty"`
	ComplexityFactors map[string]interface{} `json:"complexityFactors,omitempty"`
}

// LocationKey is the grouping key: the location id, else the normalized name, else "" for unknown.
func (s Scene) LocationKey() string {
	if id := strings.TrimSpace(s.LocationID); id != "" {
		return id
	}
	return NormalizeLocationName(s.LocationName)
}

// LocationLabel is the human-readable location of the scene.
func (s Scene) LocationLabel() string {
	if name := strings.TrimSpace(s.LocationName); name != "" {
		return name
	}
	return strings.TrimSpace(s.LocationID)
}

// HasFactor reports whether the named complexity factor is set (true, a positive number, or "true"/"si").
func (s Scene) HasFactor(name string) bool {
	v, ok := s.ComplexityFactors[name]
	if !ok {
		return false
	}
	switch f := v.(type) {
	case bool:
		return f
	case int:
		return f > 0
	case int64:
		return f > 0
	case float64:
		return f > 0
	case json.Number:
		n, err := f.Float64()
		return err == nil && n > 0
	case string:
		switch strings.ToLower(strings.TrimSpace(f)) {
		case "true", "yes", "si", "sí":
			return true
		}
		n, err := strconv.ParseFloat(f, 64)
		return err == nil && n > 0
	}
	return false
}

// HasAction reports the action/stunts surcharge.
func (s Scene) HasAction() bool {
	return s.HasFactor(FactorAction) || s.HasFactor(FactorStunts)
}

// HasExtendedDialogue reports the heavy-dialogue surcharge.
func (s Scene) HasExtendedDialogue() bool {
	return s.HasFactor(FactorExtendedDialogue) || s.HasFactor(FactorDialogue)
}

// InvolvesMinors reports whether minors are in the scene.
func (s Scene) InvolvesMinors() bool {
	return s.HasFactor(FactorMinors)
}

// IsNight reports a NIGHT scene.
func (s Scene) IsNight() bool {
	return s.TimeOfDay.IsNight()
}

// Clone returns a copy that shares no slices or maps with s.
func (s Scene) Clone() Scene {
	c := s
	if s.Characters != nil {
		c.Characters = append([]string(nil), s.Characters...)
	}
	if s.ComplexityFactors != nil {
		c.ComplexityFactors = make(map[string]interface{}, len(s.ComplexityFactors))
		for k, v := range s.ComplexityFactors {
			c.ComplexityFactors[k] = v
		}
	}
	return c
}

// CloneScenes deep-copies a scene list.
func CloneScenes(scenes []Scene) []Scene {
	if scenes == nil {
		return nil
	}
	out := make([]Scene, len(scenes))
	for i, s := range scenes {
		out[i] = s.Clone()
	}
	return out
}

// CharacterUnion returns the sorted set of characters across scenes.
func CharacterUnion(scenes []Scene) []string {
	seen := make(map[string]struct{})
	for _, s := range scenes {
		for _, c := range s.Characters {
			c = strings.TrimSpace(c)
			if c == "" {
				continue
			}
			seen[c] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// ValidateScenes rejects scenes the packer cannot place: missing or duplicate ids and
// non-positive lengths. All problems are reported together.
func ValidateScenes(scenes []Scene) error {
	var ve apperrors.ValidationErrors
	seen := make(map[string]int, len(scenes))
	for i, s := range scenes {
		field := fmt.Sprintf("scenes[%d]", i)
		id := strings.TrimSpace(s.ID)
		if id == "" {
			ve.Add(field+".id", "required")
		} else if j, dup := seen[id]; dup {
			ve.Add(field+".id", fmt.Sprintf("duplicate of scenes[%d]", j))
		} else {
			seen[id] = i
		}
		if s.PageEighths < 1 {
			ve.Add(field+".pageEighths", "must be at least 1")
		}
	}
	if ve.HasErrors() {
		return &ve
	}
	return nil
}
