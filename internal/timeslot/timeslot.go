// Package timeslot converts between the "HH:MM - HH:MM" text used by callers
// and pairs of time-of-day values.
package timeslot

import (
	"fmt"
	"strings"
	"time"
)

const (
	// Separator joins the start and end halves of a slot.
	Separator = " - "
	// Unknown replaces a half whose time is unavailable.
	Unknown = "Unknown"
)

// TimeOfDay is a wall-clock time with minute precision on a 24-hour clock.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// Midnight is the fallback used when slot text cannot be decoded.
var Midnight = TimeOfDay{}

// Of returns the time of day of t in t's location.
func Of(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}
}

// String renders the value as zero-padded HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// On combines the calendar date of day with t in loc.
func (t TimeOfDay) On(day time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = day.Location()
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, t.Hour, t.Minute, 0, 0, loc)
}

// Before reports whether t is strictly earlier than other.
func (t TimeOfDay) Before(other TimeOfDay) bool {
	return t.minutes() < other.minutes()
}

func (t TimeOfDay) minutes() int {
	return t.Hour*60 + t.Minute
}

// Parse splits text on Separator and decodes both halves as HH:MM.
// A false ok means the text was not a well-formed slot; the returned times are
// then meaningless and callers fall back to their own default.
func Parse(text string) (start, end TimeOfDay, ok bool) {
	parts := strings.Split(text, Separator)
	if len(parts) != 2 {
		return TimeOfDay{}, TimeOfDay{}, false
	}
	start, ok = parseClock(parts[0])
	if !ok {
		return TimeOfDay{}, TimeOfDay{}, false
	}
	end, ok = parseClock(parts[1])
	if !ok {
		return TimeOfDay{}, TimeOfDay{}, false
	}
	return start, end, true
}

// MustParse is Parse for literals known to be valid.
func MustParse(text string) (TimeOfDay, TimeOfDay) {
	start, end, ok := Parse(text)
	if !ok {
		panic(fmt.Sprintf("timeslot: invalid slot %q", text))
	}
	return start, end
}

// Format renders a slot. A nil half is rendered as Unknown.
func Format(start, end *TimeOfDay) string {
	return formatHalf(start) + Separator + formatHalf(end)
}

// FormatTimes renders the time-of-day parts of two instants.
func FormatTimes(start, end time.Time) string {
	s, e := Of(start), Of(end)
	return Format(&s, &e)
}

func formatHalf(t *TimeOfDay) string {
	if t == nil {
		return Unknown
	}
	return t.String()
}

// parseClock accepts exactly two hour digits, a colon and two minute digits.
func parseClock(value string) (TimeOfDay, bool) {
	value = strings.TrimSpace(value)
	if len(value) != 5 || value[2] != ':' {
		return TimeOfDay{}, false
	}
	hour, ok := twoDigits(value[0:2])
	if !ok || hour > 23 {
		return TimeOfDay{}, false
	}
	minute, ok := twoDigits(value[3:5])
	if !ok || minute > 59 {
		return TimeOfDay{}, false
	}
	return TimeOfDay{Hour: hour, Minute: minute}, true
}

func twoDigits(s string) (int, bool) {
	if s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, false
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), true
}
