// Package interval holds the half-open [Start, End) time interval rules shared by slot listing
// and the booking transaction, so overlap is defined in exactly one place.
package interval

import (
	"sort"
	"time"
)

type Interval struct {
	Start time.Time
	End   time.Time
}

func New(start time.Time, d time.Duration) Interval {
	return Interval{Start: start, End: start.Add(d)}
}

func (i Interval) Empty() bool {
	return !i.End.After(i.Start)
}

// Overlaps reports whether [a.Start,a.End) and [b.Start,b.End) share any instant.
// Touching intervals (a.End == b.Start) do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Merge sorts set and coalesces overlapping or touching intervals. Empty intervals are dropped.
func Merge(set []Interval) []Interval {
	in := make([]Interval, 0, len(set))
	for _, s := range set {
		if !s.Empty() {
			in = append(in, s)
		}
	}
	if len(in) == 0 {
		return nil
	}
	sort.Slice(in, func(i, j int) bool {
		if in[i].Start.Equal(in[j].Start) {
			return in[i].End.Before(in[j].End)
		}
		return in[i].Start.Before(in[j].Start)
	})

	merged := in[:1]
	for _, cur := range in[1:] {
		last := &merged[len(merged)-1]
		if cur.Start.After(last.End) {
			merged = append(merged, cur)
			continue
		}
		if cur.End.After(last.End) {
			last.End = cur.End
		}
	}
	return merged
}

// Sorted is a merged, ascending set that answers overlap queries in O(log n).
type Sorted []Interval

func NewSorted(set []Interval) Sorted {
	return Sorted(Merge(set))
}

func (s Sorted) Overlaps(candidate Interval) bool {
	if candidate.Empty() {
		return false
	}
	// First interval ending after the candidate starts; it is the only one that can overlap
	// without an earlier one also ending after candidate.Start.
	i := sort.Search(len(s), func(i int) bool { return s[i].End.After(candidate.Start) })
	return i < len(s) && s[i].Start.Before(candidate.End)
}
