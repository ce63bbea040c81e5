package schedule

import (
	"fmt"
	"time"
)

// recordSize is the persisted size of one entry: hour, minute, state, weekday.
const recordSize = 4

// MaxCapacity is the largest capacity the one-byte count prefix can describe.
const MaxCapacity = 255

// Encode serialises entries as a count byte followed by fixed-size records.
// Entries beyond MaxCapacity are not written.
func Encode(entries []Entry) []byte {
	n := min(len(entries), MaxCapacity)
	buf := make([]byte, 1+n*recordSize)
	buf[0] = byte(n)
	for i, e := range entries[:n] {
		rec := buf[1+i*recordSize:]
		rec[0] = byte(e.Hour)
		rec[1] = byte(e.Minute)
		if e.On {
			rec[2] = 1
		}
		rec[3] = byte(e.Weekday)
	}
	return buf
}

// Decode parses a blob produced by Encode.
//
// A stored count above capacity is clamped to capacity so a blob written by a
// build with a larger table still loads. A blob shorter than its (clamped)
// count requires decodes to an empty schedule with no error, matching a
// missing record. Out-of-range fields or duplicate keys return ErrCorrupt.
//
// The returned entries are sorted.
func Decode(data []byte, capacity int) ([]Entry, error) {
	if len(data) == 0 {
		return nil, nil
	}

	count := min(int(data[0]), capacity)
	if count <= 0 || len(data) < 1+count*recordSize {
		return nil, nil
	}

	entries := make([]Entry, 0, count)
	for i := range count {
		rec := data[1+i*recordSize : 1+(i+1)*recordSize]
		if rec[2] > 1 {
			return nil, fmt.Errorf("%w: record %d has state byte %d", ErrCorrupt, i, rec[2])
		}
		e := Entry{
			Moment: Moment{
				Weekday: time.Weekday(rec[3]),
				Hour:    int(rec[0]),
				Minute:  int(rec[1]),
			},
			On: rec[2] == 1,
		}
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", ErrCorrupt, i, err)
		}
		entries = append(entries, e)
	}

	Sort(entries)
	for i := 1; i < len(entries); i++ {
		if entries[i].Key() == entries[i-1].Key() {
			return nil, fmt.Errorf("%w: duplicate key %s", ErrCorrupt, entries[i].Key())
		}
	}
	return entries, nil
}
