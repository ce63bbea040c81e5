// Package schedule holds the weekly relay timetable.
//
// A schedule is a capacity-bounded, ordered list of recurring weekly
// transitions. Each Entry says "at this weekday, hour and minute, switch the
// relay on (or off)". The Store owns the ordering and compaction rules:
//
//   - entries are always sorted by (weekday, hour, minute) ascending
//   - no two entries share the same (weekday, hour, minute) key
//   - within a day, an entry whose state repeats the previous kept entry of
//     that day is discarded; the first entry of every day is always kept
//
// # Persistence
//
// The Store never touches a disk itself. After every structural change it
// hands an opaque blob to a Persister:
//
//	byte 0        entry count
//	bytes 1..     count × 4-byte records: hour, minute, state (0/1), weekday
//
// Restoring clamps a stored count above the capacity instead of failing, and
// treats a short blob as "nothing saved".
//
// # Thread Safety
//
// All Store methods are safe for concurrent use. Readers always observe a fully
// sorted and normalised snapshot; mutations are swapped in atomically.
package schedule
