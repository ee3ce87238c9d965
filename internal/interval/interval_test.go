package interval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(t *testing.T, hhmm string) time.Time {
	t.Helper()
	out, err := time.Parse(time.RFC3339, "2025-03-10T"+hhmm+":00Z")
	require.NoError(t, err)
	return out
}

func TestAddMergesOverlapping(t *testing.T) {
	var s Set
	s.Add(Interval{Start: at(t, "09:00"), End: at(t, "10:00")})
	s.Add(Interval{Start: at(t, "09:30"), End: at(t, "11:00")})
	s.Add(Interval{Start: at(t, "13:00"), End: at(t, "14:00")})

	ivs := s.Intervals()
	require.Len(t, ivs, 2)
	assert.Equal(t, at(t, "09:00"), ivs[0].Start)
	assert.Equal(t, at(t, "11:00"), ivs[0].End)
	assert.Equal(t, at(t, "13:00"), ivs[1].Start)
}

func TestAddMergesTouching(t *testing.T) {
	var s Set
	s.Add(Interval{Start: at(t, "09:00"), End: at(t, "10:00")})
	s.Add(Interval{Start: at(t, "10:00"), End: at(t, "11:00")})
	require.Equal(t, 1, s.Len())
	assert.Equal(t, 2*time.Hour, s.Total())
}

func TestAddIgnoresEmpty(t *testing.T) {
	var s Set
	s.Add(Interval{Start: at(t, "09:00"), End: at(t, "09:00")})
	s.Add(Interval{Start: at(t, "10:00"), End: at(t, "09:00")})
	assert.Equal(t, 0, s.Len())
}

func TestGaps(t *testing.T) {
	var s Set
	s.Add(Interval{Start: at(t, "09:00"), End: at(t, "10:00")})
	s.Add(Interval{Start: at(t, "12:00"), End: at(t, "13:00")})

	gaps := s.Gaps(Interval{Start: at(t, "08:00"), End: at(t, "17:00")})
	require.Len(t, gaps, 3)
	assert.Equal(t, Interval{Start: at(t, "08:00"), End: at(t, "09:00")}, gaps[0])
	assert.Equal(t, Interval{Start: at(t, "10:00"), End: at(t, "12:00")}, gaps[1])
	assert.Equal(t, Interval{Start: at(t, "13:00"), End: at(t, "17:00")}, gaps[2])
}

func TestGapsEmptySetReturnsWindow(t *testing.T) {
	var s Set
	window := Interval{Start: at(t, "08:00"), End: at(t, "12:00")}
	gaps := s.Gaps(window)
	require.Len(t, gaps, 1)
	assert.Equal(t, window, gaps[0])
}

func TestGapsEmptyWindow(t *testing.T) {
	var s Set
	s.Add(Interval{Start: at(t, "09:00"), End: at(t, "10:00")})
	assert.Nil(t, s.Gaps(Interval{Start: at(t, "12:00"), End: at(t, "12:00")}))
	assert.Nil(t, s.Gaps(Interval{Start: at(t, "12:00"), End: at(t, "11:00")}))
}

func TestGapsMemberOutsideWindow(t *testing.T) {
	var s Set
	s.Add(Interval{Start: at(t, "06:00"), End: at(t, "07:00")})
	s.Add(Interval{Start: at(t, "18:00"), End: at(t, "19:00")})
	gaps := s.Gaps(Interval{Start: at(t, "08:00"), End: at(t, "12:00")})
	require.Len(t, gaps, 1)
	assert.Equal(t, at(t, "08:00"), gaps[0].Start)
	assert.Equal(t, at(t, "12:00"), gaps[0].End)
}

func TestGapsCoverWindowExactly(t *testing.T) {
	// Union of members and gaps must tile the window with no overlap.
	var s Set
	s.Add(Interval{Start: at(t, "09:00"), End: at(t, "10:00")})
	s.Add(Interval{Start: at(t, "09:30"), End: at(t, "09:45")})
	s.Add(Interval{Start: at(t, "11:00"), End: at(t, "12:30")})

	window := Interval{Start: at(t, "08:00"), End: at(t, "14:00")}
	var tiled Set
	for _, iv := range s.Clamp(window) {
		tiled.Add(iv)
	}
	for _, g := range s.Gaps(window) {
		tiled.Add(g)
	}
	ivs := tiled.Intervals()
	require.Len(t, ivs, 1)
	assert.Equal(t, window, ivs[0])
}

func TestClamp(t *testing.T) {
	var s Set
	s.Add(Interval{Start: at(t, "06:00"), End: at(t, "09:30")})
	s.Add(Interval{Start: at(t, "11:00"), End: at(t, "12:00")})
	s.Add(Interval{Start: at(t, "15:00"), End: at(t, "16:00")})

	out := s.Clamp(Interval{Start: at(t, "09:00"), End: at(t, "13:00")})
	require.Len(t, out, 2)
	assert.Equal(t, Interval{Start: at(t, "09:00"), End: at(t, "09:30")}, out[0])
	assert.Equal(t, Interval{Start: at(t, "11:00"), End: at(t, "12:00")}, out[1])

	assert.Nil(t, s.Clamp(Interval{Start: at(t, "13:00"), End: at(t, "13:00")}))
}

func TestIntersect(t *testing.T) {
	a := Interval{Start: at(t, "09:00"), End: at(t, "11:00")}
	b := Interval{Start: at(t, "10:00"), End: at(t, "12:00")}
	out, ok := Intersect(a, b)
	require.True(t, ok)
	assert.Equal(t, at(t, "10:00"), out.Start)
	assert.Equal(t, at(t, "11:00"), out.End)

	_, ok = Intersect(a, Interval{Start: at(t, "11:00"), End: at(t, "12:00")})
	assert.False(t, ok, "touching intervals have no intersection")
}

func TestCovers(t *testing.T) {
	var s Set
	s.Add(Interval{Start: at(t, "09:00"), End: at(t, "10:00")})
	assert.True(t, s.Covers(at(t, "09:00")))
	assert.True(t, s.Covers(at(t, "09:59")))
	assert.False(t, s.Covers(at(t, "10:00")), "end is exclusive")
}
