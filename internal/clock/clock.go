package clock

import (
	"fmt"
	"sync"
	"time"
	_ "time/tzdata" // Embedded zone database for hosts without /usr/share/zoneinfo

	"github.com/nerrad567/shabbat-clock/internal/schedule"
)

// DefaultMinValidYear is the earliest year a system clock reading is trusted.
// An unsynchronised RTC or a board without battery backup boots far before it.
const DefaultMinValidYear = 2020

// Reading is one sample of the local wall clock.
//
// When Valid is false the other fields must not drive an actuator.
type Reading struct {
	Valid bool
	schedule.Moment
	Time time.Time
}

// HHMM renders the reading as "07:05", or "" when the time is not valid.
func (r Reading) HHMM() string {
	if !r.Valid {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", r.Hour, r.Minute)
}

// Source supplies the current wall-clock reading.
type Source interface {
	Now() Reading
}

// Config controls how the system clock is interpreted.
type Config struct {
	// Timezone is an IANA location name; empty means the host's local zone.
	Timezone string

	// TrustSystemClock marks host time valid without a manual set, provided
	// it is not earlier than MinValidYear.
	TrustSystemClock bool

	// MinValidYear is the earliest trusted year. Zero means DefaultMinValidYear.
	MinValidYear int
}

// System reads the host clock, localised to the configured timezone, with an
// optional operator-supplied offset from Set.
type System struct {
	mu      sync.RWMutex
	loc     *time.Location
	offset  time.Duration
	manual  bool
	trust   bool
	minYear int
	nowFunc func() time.Time
}

// NewSystem creates a system clock.
//
// Returns:
//   - *System: The clock
//   - error: If the timezone cannot be loaded
func NewSystem(cfg Config) (*System, error) {
	loc := time.Local
	if cfg.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("loading timezone %q: %w", cfg.Timezone, err)
		}
	}

	minYear := cfg.MinValidYear
	if minYear == 0 {
		minYear = DefaultMinValidYear
	}

	return &System{
		loc:     loc,
		trust:   cfg.TrustSystemClock,
		minYear: minYear,
		nowFunc: time.Now,
	}, nil
}

// Location returns the timezone readings are localised to.
func (c *System) Location() *time.Location {
	return c.loc
}

// Now returns the current localised reading.
func (c *System) Now() Reading {
	c.mu.RLock()
	t := c.nowFunc().Add(c.offset).In(c.loc)
	valid := c.manual || (c.trust && t.Year() >= c.minYear)
	c.mu.RUnlock()

	return Reading{
		Valid: valid,
		Moment: schedule.Moment{
			Weekday: t.Weekday(),
			Hour:    t.Hour(),
			Minute:  t.Minute(),
		},
		Time: t,
	}
}

// Set fixes the wall clock to the given local date and time and marks it valid.
//
// Returns ErrInvalidTime when a field is out of range or the date does not
// exist (e.g. 31 April).
func (c *System) Set(year, month, day, hour, minute, second int) error {
	if year < c.minYear || month < 1 || month > 12 || day < 1 || day > 31 ||
		hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 59 {
		return fmt.Errorf("%w: %04d-%02d-%02d %02d:%02d:%02d", ErrInvalidTime, year, month, day, hour, minute, second)
	}

	target := time.Date(year, time.Month(month), day, hour, minute, second, 0, c.loc)
	if target.Day() != day {
		return fmt.Errorf("%w: %04d-%02d-%02d does not exist", ErrInvalidTime, year, month, day)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.offset = target.Sub(c.nowFunc())
	c.manual = true
	return nil
}
