package model

import (
	"fmt"
	"time"

	apperrors "github.com/rodaje/rodaje/pkg/errors"
)

// GroupBy selects the primary grouping of the packer.
type GroupBy string

const (
	GroupByLocation  GroupBy = "location"
	GroupByTimeOfDay GroupBy = "time_of_day"
	GroupByProximity GroupBy = "proximity"
)

// Defaults applied by Options.WithDefaults.
const (
	DefaultMaxEighthsPerDay        = 40
	DefaultTargetHoursPerDay       = 10.0
	DefaultHoursSlack              = 0.10
	DefaultMaxLocationsPerDay      = 3
	DefaultMaxHighComplexityPerDay = 3
)

// Options drive plan generation.
type Options struct {
	GroupBy                 GroupBy           `json:"groupBy,omitempty"`
	MaxEighthsPerDay        int               `json:"maxEighthsPerDay,omitempty"`
	TargetHoursPerDay       float64           `json:"targetHoursPerDay,omitempty"`
	HoursSlack              *float64          `json:"hoursSlack,omitempty"` // nil selects the default; 0 is no slack
	SeparateDayNight        bool              `json:"separateDayNight"`
	OptimizeByProximity     bool              `json:"optimizeByProximity"`
	LocationZones           map[string]string `json:"locationZones,omitempty"`
	MaxLocationsPerDay      int               `json:"maxLocationsPerDay,omitempty"`
	MaxHighComplexityPerDay int               `json:"maxHighComplexityPerDay,omitempty"`
	StartDate               string            `json:"startDate,omitempty"`
	RestWeekdays            []time.Weekday    `json:"restWeekdays,omitempty"`
}

// DefaultOptions returns location grouping with the default limits.
func DefaultOptions() Options {
	return Options{}.WithDefaults()
}

// WithDefaults fills zero values. GroupBy proximity forces OptimizeByProximity.
func (o Options) WithDefaults() Options {
	if o.GroupBy == "" {
		o.GroupBy = GroupByLocation
	}
	if o.MaxEighthsPerDay <= 0 {
		o.MaxEighthsPerDay = DefaultMaxEighthsPerDay
	}
	if o.TargetHoursPerDay <= 0 {
		o.TargetHoursPerDay = DefaultTargetHoursPerDay
	}
	if o.HoursSlack == nil {
		o.HoursSlack = Float(DefaultHoursSlack)
	}
	if o.MaxLocationsPerDay <= 0 {
		o.MaxLocationsPerDay = DefaultMaxLocationsPerDay
	}
	if o.MaxHighComplexityPerDay <= 0 {
		o.MaxHighComplexityPerDay = DefaultMaxHighComplexityPerDay
	}
	if o.GroupBy == GroupByProximity {
		o.OptimizeByProximity = true
	}
	if o.StartDate != "" && o.RestWeekdays == nil {
		o.RestWeekdays = []time.Weekday{time.Sunday}
	}
	return o
}

// HoursCeiling is the soft daily limit including slack.
func (o Options) HoursCeiling() float64 {
	return o.TargetHoursPerDay * (1 + o.Slack())
}

// Slack is the configured hours slack, or the default when unset.
func (o Options) Slack() float64 {
	if o.HoursSlack == nil {
		return DefaultHoursSlack
	}
	return *o.HoursSlack
}

// Float returns a pointer to v, for optional option fields.
func Float(v float64) *float64 {
	return &v
}

// Validate rejects option values that cannot be defaulted.
func (o Options) Validate() error {
	var ve apperrors.ValidationErrors
	switch o.GroupBy {
	case "", GroupByLocation, GroupByTimeOfDay, GroupByProximity:
	default:
		ve.Add("options.groupBy", fmt.Sprintf("unknown value %q", o.GroupBy))
	}
	if o.MaxEighthsPerDay < 0 {
		ve.Add("options.maxEighthsPerDay", "must not be negative")
	}
	if o.TargetHoursPerDay < 0 {
		ve.Add("options.targetHoursPerDay", "must not be negative")
	}
	if o.HoursSlack != nil && *o.HoursSlack < 0 {
		ve.Add("options.hoursSlack", "must not be negative")
	}
	if o.StartDate != "" {
		if _, err := ParseDate(o.StartDate); err != nil {
			ve.Add("options.startDate", "expected YYYY-MM-DD")
		}
	}
	if len(o.RestWeekdays) >= 7 {
		ve.Add("options.restWeekdays", "at least one weekday must be a shooting day")
	}
	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// ZoneOf returns the zone of loc, letting LocationZones override the location's own label.
func (o Options) ZoneOf(loc Location) string {
	if z, ok := o.LocationZones[loc.Key()]; ok {
		return z
	}
	if z, ok := o.LocationZones[loc.ID]; ok {
		return z
	}
	return loc.Zone
}

// IsRestWeekday reports whether wd is a configured rest day.
func (o Options) IsRestWeekday(wd time.Weekday) bool {
	for _, r := range o.RestWeekdays {
		if r == wd {
			return true
		}
	}
	return false
}
