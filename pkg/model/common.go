// Package model defines the data model of the shooting-plan engine.
package model

import "time"

// Severity of a plan finding.
type Severity string

const (
	SeverityFatal    Severity = "fatal"
	SeverityWarning  Severity = "warning"
	SeverityAdvisory Severity = "advisory"
)

// Rank orders severities, fatal highest.
func (s Severity) Rank() int {
	switch s {
	case SeverityFatal:
		return 3
	case SeverityWarning:
		return 2
	case SeverityAdvisory:
		return 1
	}
	return 0
}

// DateLayout is the calendar date format used for shooting dates.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
