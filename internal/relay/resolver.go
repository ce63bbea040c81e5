package relay

import (
	"time"

	"github.com/nerrad567/shabbat-clock/internal/clock"
	"github.com/nerrad567/shabbat-clock/internal/schedule"
)

// lookaround is how many days beyond today the forward and backward scans visit.
const lookaround = 6

// ApplyDue returns the state of the latest entry on today's weekday at or
// before now. ok is false when nothing is due yet today, the schedule is
// empty, or the reading is invalid.
func ApplyDue(entries []schedule.Entry, now clock.Reading) (on, ok bool) {
	if !now.Valid || len(entries) == 0 {
		return false, false
	}

	best := -1
	for i, e := range entries {
		if e.Weekday != now.Weekday || e.MinuteOfDay() > now.MinuteOfDay() {
			continue
		}
		if best < 0 || e.MinuteOfDay() > entries[best].MinuteOfDay() {
			best = i
		}
	}
	if best < 0 {
		return false, false
	}
	return entries[best].On, true
}

// AnticipateNext returns the negation of the first entry strictly after now,
// scanning the rest of today and then up to six following days.
//
// Entering AUTO with this state makes the next scheduled event a real
// transition. Entries earlier today (reachable only a full week ahead) are not
// considered.
func AnticipateNext(entries []schedule.Entry, now clock.Reading) (on, ok bool) {
	if !now.Valid || len(entries) == 0 {
		return false, false
	}

	for offset := 0; offset <= lookaround; offset++ {
		day := (now.Weekday + time.Weekday(offset)) % 7
		best := -1
		for i, e := range entries {
			if e.Weekday != day {
				continue
			}
			if offset == 0 && e.MinuteOfDay() <= now.MinuteOfDay() {
				continue
			}
			if best < 0 || e.MinuteOfDay() < entries[best].MinuteOfDay() {
				best = i
			}
		}
		if best >= 0 {
			return !entries[best].On, true
		}
	}
	return false, false
}

// ResumeLast returns the state of the most recent entry at or before now,
// scanning today and then up to six preceding days.
//
// Used once the clock first becomes valid after power-on, so the relay
// resumes the state it would already hold had it been running.
func ResumeLast(entries []schedule.Entry, now clock.Reading) (on, ok bool) {
	if !now.Valid || len(entries) == 0 {
		return false, false
	}

	for offset := 0; offset <= lookaround; offset++ {
		day := (now.Weekday + 7 - time.Weekday(offset)) % 7
		best := -1
		for i, e := range entries {
			if e.Weekday != day {
				continue
			}
			if offset == 0 && e.MinuteOfDay() > now.MinuteOfDay() {
				continue
			}
			if best < 0 || e.MinuteOfDay() > entries[best].MinuteOfDay() {
				best = i
			}
		}
		if best >= 0 {
			return entries[best].On, true
		}
	}
	return false, false
}
