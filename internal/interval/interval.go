// Package interval provides a sorted, non-overlapping set of time intervals
// with merge and gap-finding primitives.
package interval

import (
	"sort"
	"time"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// IsZero reports whether the interval is empty or inverted.
func (iv Interval) IsZero() bool { return !iv.Start.Before(iv.End) }

// Duration returns End - Start, or zero for an empty interval.
func (iv Interval) Duration() time.Duration {
	if iv.IsZero() {
		return 0
	}
	return iv.End.Sub(iv.Start)
}

// Overlaps reports whether two half-open intervals share any instant.
// Touching intervals (a.End == b.Start) do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Intersect returns the overlap of two intervals and whether it is non-empty.
func Intersect(a, b Interval) (Interval, bool) {
	out := Interval{Start: maxTime(a.Start, b.Start), End: minTime(a.End, b.End)}
	if out.IsZero() {
		return Interval{}, false
	}
	return out, true
}

// Set is a sorted collection of non-overlapping intervals. The zero value is
// an empty set ready for use.
type Set struct {
	ivs []Interval
}

// Add inserts an interval, merging it with any intervals it overlaps or
// touches. Empty intervals are ignored.
func (s *Set) Add(iv Interval) {
	if iv.IsZero() {
		return
	}
	ivs := append(s.ivs, iv)
	sort.Slice(ivs, func(i, j int) bool { return ivs[i].Start.Before(ivs[j].Start) })

	merged := ivs[:1]
	for _, next := range ivs[1:] {
		last := &merged[len(merged)-1]
		if !next.Start.After(last.End) {
			if next.End.After(last.End) {
				last.End = next.End
			}
			continue
		}
		merged = append(merged, next)
	}
	s.ivs = merged
}

// Intervals returns the intervals in ascending order. The caller must not
// mutate the returned slice.
func (s *Set) Intervals() []Interval { return s.ivs }

// Len returns the number of disjoint intervals in the set.
func (s *Set) Len() int { return len(s.ivs) }

// Total returns the summed duration of all intervals.
func (s *Set) Total() time.Duration {
	var total time.Duration
	for _, iv := range s.ivs {
		total += iv.Duration()
	}
	return total
}

// Gaps returns the complement of the set within a window: the sorted intervals
// of the window not covered by any member. An empty set yields the whole
// window; an empty window yields nothing.
func (s *Set) Gaps(window Interval) []Interval {
	if window.IsZero() {
		return nil
	}
	var gaps []Interval
	cursor := window.Start
	for _, iv := range s.ivs {
		if !iv.End.After(window.Start) {
			continue
		}
		if !iv.Start.Before(window.End) {
			break
		}
		if iv.Start.After(cursor) {
			gaps = append(gaps, Interval{Start: cursor, End: iv.Start})
		}
		cursor = maxTime(cursor, iv.End)
	}
	if cursor.Before(window.End) {
		gaps = append(gaps, Interval{Start: cursor, End: window.End})
	}
	return gaps
}

// Clamp returns the members of the set intersected with a window, dropping
// whatever falls outside it.
func (s *Set) Clamp(window Interval) []Interval {
	if window.IsZero() {
		return nil
	}
	var out []Interval
	for _, iv := range s.ivs {
		if clamped, ok := Intersect(iv, window); ok {
			out = append(out, clamped)
		}
	}
	return out
}

// Covers reports whether the instant lies inside a member interval.
func (s *Set) Covers(t time.Time) bool {
	for _, iv := range s.ivs {
		if !t.Before(iv.Start) && t.Before(iv.End) {
			return true
		}
	}
	return false
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
