package schedule

import "slices"

// Sort orders entries in place by (weekday, hour, minute) ascending.
func Sort(entries []Entry) {
	slices.SortStableFunc(entries, compareEntries)
}

// Normalize drops same-day entries that repeat the state of the previously
// kept entry of that day. The first entry of every day is kept regardless of
// the previous day's trailing state.
//
// The input must already be sorted. A new slice is returned; the input is not
// modified. Normalize is idempotent.
func Normalize(entries []Entry) []Entry {
	out := make([]Entry, 0, len(entries))
	for i, e := range entries {
		if i == 0 || e.Weekday != out[len(out)-1].Weekday {
			out = append(out, e)
			continue
		}
		if e.On != out[len(out)-1].On {
			out = append(out, e)
		}
	}
	return out
}
