// Package recurrence expands recurring class rules into calendar days.
package recurrence

import (
	"errors"
	"time"
)

// MaxOccurrences caps how many days a single rule may expand to.
const MaxOccurrences = 1000

// Frequency represents supported recurrence intervals.
type Frequency int

const (
	// FrequencyUnspecified indicates the rule frequency is not set.
	FrequencyUnspecified Frequency = iota
	// FrequencyDaily generates a day for each date within the range.
	FrequencyDaily
	// FrequencyWeekly generates days for the selected weekdays.
	FrequencyWeekly
)

// Rule describes which calendar days a class meets on.
type Rule struct {
	Frequency Frequency
	Weekdays  []time.Weekday
	// StartsOn and EndsOn are inclusive; only their calendar dates are used.
	StartsOn time.Time
	EndsOn   time.Time
}

// Engine expands recurrence rules into dates.
type Engine struct {
	location *time.Location
}

// NewEngine constructs an Engine that returns dates at midnight in loc.
// If loc is nil, UTC is used.
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{location: loc}
}

var (
	// ErrInvalidFrequency indicates the recurrence frequency is not supported.
	ErrInvalidFrequency = errors.New("recurrence: invalid frequency")
	// ErrInvalidWindow indicates the rule has no usable date range.
	ErrInvalidWindow = errors.New("recurrence: rule requires StartsOn on or before EndsOn")
	// ErrTooManyOccurrences indicates the rule expands past MaxOccurrences.
	ErrTooManyOccurrences = errors.New("recurrence: rule expands to too many occurrences")
)

// Dates returns the calendar days selected by rule in chronological order.
//
//   - Daily rules include every day, filtered by Weekdays when any are given.
//   - Weekly rules include the selected Weekdays; with none selected, the
//     weekday of StartsOn is used.
func (e *Engine) Dates(rule Rule) ([]time.Time, error) {
	if rule.StartsOn.IsZero() || rule.EndsOn.IsZero() {
		return nil, ErrInvalidWindow
	}

	first := e.midnight(rule.StartsOn)
	last := e.midnight(rule.EndsOn)
	if last.Before(first) {
		return nil, ErrInvalidWindow
	}

	weekdays := rule.Weekdays
	if rule.Frequency == FrequencyWeekly && len(weekdays) == 0 {
		weekdays = []time.Weekday{first.Weekday()}
	}
	weekdaySet := make(map[time.Weekday]struct{}, len(weekdays))
	for _, day := range weekdays {
		weekdaySet[day] = struct{}{}
	}

	var dates []time.Time
	for current := first; !current.After(last); current = current.AddDate(0, 0, 1) {
		include, err := shouldInclude(rule.Frequency, weekdaySet, current.Weekday())
		if err != nil {
			return nil, err
		}
		if !include {
			continue
		}
		if len(dates) == MaxOccurrences {
			return nil, ErrTooManyOccurrences
		}
		dates = append(dates, current)
	}

	return dates, nil
}

// midnight keeps the calendar date of t as written and places it in the
// engine's location.
func (e *Engine) midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, e.location)
}

func shouldInclude(freq Frequency, weekdaySet map[time.Weekday]struct{}, day time.Weekday) (bool, error) {
	switch freq {
	case FrequencyDaily:
		if len(weekdaySet) == 0 {
			return true, nil
		}
		_, ok := weekdaySet[day]
		return ok, nil
	case FrequencyWeekly:
		_, ok := weekdaySet[day]
		return ok, nil
	case FrequencyUnspecified:
		fallthrough
	default:
		return false, ErrInvalidFrequency
	}
}
