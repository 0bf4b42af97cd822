package builtin

import (
	"github.com/rodaje/rodaje/pkg/model"
	"github.com/rodaje/rodaje/pkg/scheduler/constraint"
)

// Config keys understood by RegisterDefaultConstraints.
const (
	KeyMaxWorkdayHours         = "max_workday_hours"
	KeyAdvisoryWorkdayHours    = "advisory_workday_hours"
	KeyNightsWarning           = "consecutive_nights_warning"
	KeyNightsAdvisory          = "consecutive_nights_advisory"
	KeyMaxConsecutiveDays      = "max_consecutive_days"
	KeyMaxIdleDays             = "max_idle_days"
	KeyMaxLocationsPerDay      = "max_locations_per_day"
	KeyMaxEighthsPerDay        = "max_eighths_per_day"
	KeyMaxHighComplexityPerDay = "max_high_complexity_per_day"
	KeySeparateDayNight        = "separate_day_night"
)

// ConfigFromOptions maps generation options onto rule configuration.
func ConfigFromOptions(opts model.Options) map[string]interface{} {
	opts = opts.WithDefaults()
	return map[string]interface{}{
		KeyAdvisoryWorkdayHours:    opts.TargetHoursPerDay,
		KeyMaxLocationsPerDay:      opts.MaxLocationsPerDay,
		KeyMaxEighthsPerDay:        opts.MaxEighthsPerDay,
		KeyMaxHighComplexityPerDay: opts.MaxHighComplexityPerDay,
		KeySeparateDayNight:        opts.SeparateDayNight,
	}
}

// RegisterDefaultConstraints registers every rule with values from config, falling back to
// the statutory defaults.
func RegisterDefaultConstraints(manager *constraint.Manager, config map[string]interface{}) {
	maxHours := getConfigFloat(config, KeyMaxWorkdayHours, 12)
	advisoryHours := getConfigFloat(config, KeyAdvisoryWorkdayHours, 10)
	nightsWarning := getConfigInt(config, KeyNightsWarning, 5)
	nightsAdvisory := getConfigInt(config, KeyNightsAdvisory, 3)
	maxConsecutive := getConfigInt(config, KeyMaxConsecutiveDays, 6)
	maxIdle := getConfigInt(config, KeyMaxIdleDays, 7)
	maxLocations := getConfigInt(config, KeyMaxLocationsPerDay, model.DefaultMaxLocationsPerDay)
	maxEighths := getConfigInt(config, KeyMaxEighthsPerDay, model.DefaultMaxEighthsPerDay)
	maxHigh := getConfigInt(config, KeyMaxHighComplexityPerDay, model.DefaultMaxHighComplexityPerDay)

	// labor law
	manager.Register(NewMaxWorkdayHoursConstraint(maxHours, advisoryHours))
	manager.Register(NewMinorsAtNightConstraint())
	manager.Register(NewWeeklyRestConstraint(maxConsecutive))
	manager.Register(NewConsecutiveNightsConstraint(nightsWarning, nightsAdvisory))

	// coherence
	manager.Register(NewDayCapacityConstraint(maxEighths))
	manager.Register(NewIdleDaysConstraint(maxIdle))
	manager.Register(NewMaxLocationsPerDayConstraint(maxLocations))
	manager.Register(NewComplexityBalanceConstraint(maxHigh))
	if getConfigBool(config, KeySeparateDayNight, false) {
		manager.Register(NewDayNightSeparationConstraint())
	}
}

func getConfigInt(config map[string]interface{}, key string, defaultVal int) int {
	if config == nil {
		return defaultVal
	}
	if val, ok := config[key]; ok {
		switch v := val.(type) {
		case int:
			return v
		case float64:
			return int(v)
		case int64:
			return int(v)
		}
	}
	return defaultVal
}

func getConfigFloat(config map[string]interface{}, key string, defaultVal float64) float64 {
	if config == nil {
		return defaultVal
	}
	if val, ok := config[key]; ok {
		switch v := val.(type) {
		case float64:
			return v
		case int:
			return float64(v)
		}
	}
	return defaultVal
}

func getConfigBool(config map[string]interface{}, key string, defaultVal bool) bool {
	if val, ok := config[key].(bool); ok {
		return val
	}
	return defaultVal
}
