package schedule

import (
	"slices"
	"testing"
	"time"
)

func entry(day time.Weekday, hour, minute int, on bool) Entry {
	return Entry{Moment: Moment{Weekday: day, Hour: hour, Minute: minute}, On: on}
}

func TestSort(t *testing.T) {
	entries := []Entry{
		entry(time.Friday, 18, 0, true),
		entry(time.Monday, 22, 0, false),
		entry(time.Sunday, 9, 30, true),
		entry(time.Monday, 7, 0, true),
	}
	Sort(entries)

	want := []Entry{
		entry(time.Sunday, 9, 30, true),
		entry(time.Monday, 7, 0, true),
		entry(time.Monday, 22, 0, false),
		entry(time.Friday, 18, 0, true),
	}
	if !slices.Equal(entries, want) {
		t.Errorf("Sort() = %v, want %v", entries, want)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   []Entry
		want []Entry
	}{
		{
			name: "empty",
			in:   nil,
			want: []Entry{},
		},
		{
			name: "alternating flips kept",
			in: []Entry{
				entry(time.Monday, 7, 0, true),
				entry(time.Monday, 12, 0, false),
				entry(time.Monday, 18, 0, true),
			},
			want: []Entry{
				entry(time.Monday, 7, 0, true),
				entry(time.Monday, 12, 0, false),
				entry(time.Monday, 18, 0, true),
			},
		},
		{
			name: "same-day repeat dropped",
			in: []Entry{
				entry(time.Monday, 7, 0, true),
				entry(time.Monday, 8, 0, true),
				entry(time.Monday, 22, 0, false),
				entry(time.Monday, 23, 0, false),
			},
			want: []Entry{
				entry(time.Monday, 7, 0, true),
				entry(time.Monday, 22, 0, false),
			},
		},
		{
			name: "first of day kept despite previous day's state",
			in: []Entry{
				entry(time.Monday, 22, 0, false),
				entry(time.Tuesday, 6, 0, false),
				entry(time.Tuesday, 7, 0, true),
			},
			want: []Entry{
				entry(time.Monday, 22, 0, false),
				entry(time.Tuesday, 6, 0, false),
				entry(time.Tuesday, 7, 0, true),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Normalize() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	in := []Entry{
		entry(time.Sunday, 1, 0, true),
		entry(time.Sunday, 2, 0, true),
		entry(time.Sunday, 3, 0, false),
		entry(time.Sunday, 4, 0, false),
		entry(time.Sunday, 5, 0, true),
		entry(time.Wednesday, 8, 0, true),
		entry(time.Wednesday, 9, 0, true),
		entry(time.Saturday, 23, 59, false),
	}

	once := Normalize(in)
	twice := Normalize(once)
	if !slices.Equal(once, twice) {
		t.Errorf("Normalize not idempotent:\n once  = %v\n twice = %v", once, twice)
	}
}

func TestNormalizeDoesNotModifyInput(t *testing.T) {
	in := []Entry{
		entry(time.Monday, 7, 0, true),
		entry(time.Monday, 8, 0, true),
	}
	orig := slices.Clone(in)
	_ = Normalize(in)
	if !slices.Equal(in, orig) {
		t.Errorf("input modified: %v", in)
	}
}
