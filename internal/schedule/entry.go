package schedule

import (
	"cmp"
	"fmt"
	"time"
)

// Range limits for schedule keys.
const (
	daysPerWeek    = 7
	hoursPerDay    = 24
	minutesPerHour = 60
	minutesPerDay  = hoursPerDay * minutesPerHour
)

// Moment is a position inside the recurring week, resolved to the minute.
//
// Weekday follows time.Weekday (0 = Sunday, the first day of the week).
type Moment struct {
	Weekday time.Weekday `json:"day"`
	Hour    int          `json:"hour"`
	Minute  int          `json:"minute"`
}

// Validate reports whether every field of the moment is in range.
func (m Moment) Validate() error {
	if m.Weekday < time.Sunday || m.Weekday > time.Saturday {
		return fmt.Errorf("%w: day %d out of range 0-6", ErrInvalidEntry, m.Weekday)
	}
	if m.Hour < 0 || m.Hour >= hoursPerDay {
		return fmt.Errorf("%w: hour %d out of range 0-23", ErrInvalidEntry, m.Hour)
	}
	if m.Minute < 0 || m.Minute >= minutesPerHour {
		return fmt.Errorf("%w: minute %d out of range 0-59", ErrInvalidEntry, m.Minute)
	}
	return nil
}

// MinuteOfDay returns hour*60 + minute.
func (m Moment) MinuteOfDay() int {
	return m.Hour*minutesPerHour + m.Minute
}

// minuteOfWeek orders moments lexicographically by (weekday, hour, minute).
func (m Moment) minuteOfWeek() int {
	return int(m.Weekday)*minutesPerDay + m.MinuteOfDay()
}

// String renders the moment as "Mon 07:00".
func (m Moment) String() string {
	return fmt.Sprintf("%s %02d:%02d", m.Weekday.String()[:3], m.Hour, m.Minute)
}

// Entry is one recurring weekly relay transition.
//
// The identity key is the embedded Moment; the Store guarantees at most one
// entry per key.
type Entry struct {
	Moment
	On bool `json:"on"`
}

// Key returns the identity of the entry.
func (e Entry) Key() Moment {
	return e.Moment
}

// compareEntries orders entries by (weekday, hour, minute). The key is unique,
// so no secondary key is needed.
func compareEntries(a, b Entry) int {
	return cmp.Compare(a.minuteOfWeek(), b.minuteOfWeek())
}
