package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callward/callward/internal/interval"
	"github.com/callward/callward/internal/model"
)

func ts(t *testing.T, value string) time.Time {
	t.Helper()
	out, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return out
}

func timed(t *testing.T, id, start, end string) model.CalendarEvent {
	t.Helper()
	s := ts(t, start)
	e := ts(t, end)
	return model.CalendarEvent{
		ID:     id,
		Title:  "event " + id,
		Start:  model.EventTime{DateTime: &s},
		End:    model.EventTime{DateTime: &e},
		Status: model.EventStatusConfirmed,
	}
}

func TestComputeNestedEventContributesNoGap(t *testing.T) {
	events := []model.CalendarEvent{
		timed(t, "a", "2025-03-10T09:00:00Z", "2025-03-10T10:00:00Z"),
		timed(t, "b", "2025-03-10T09:30:00Z", "2025-03-10T09:45:00Z"),
	}
	res := Compute(events, ts(t, "2025-03-10T08:00:00Z"), ts(t, "2025-03-10T12:00:00Z"), Options{})

	require.Len(t, res.BusyPeriods, 2, "overlapping periods stay distinct")
	require.Len(t, res.FreeSlots, 2)
	assert.Equal(t, ts(t, "2025-03-10T08:00:00Z"), res.FreeSlots[0].Start)
	assert.Equal(t, ts(t, "2025-03-10T09:00:00Z"), res.FreeSlots[0].End)
	assert.Equal(t, 60, res.FreeSlots[0].DurationMinutes)
	assert.Equal(t, ts(t, "2025-03-10T10:00:00Z"), res.FreeSlots[1].Start)
	assert.Equal(t, ts(t, "2025-03-10T12:00:00Z"), res.FreeSlots[1].End)
	assert.Equal(t, 120, res.FreeSlots[1].DurationMinutes)
	assert.Equal(t, 120, res.Stats.LongestFreeSlotMinutes)
}

func TestComputeNoEventsYieldsWholeWindow(t *testing.T) {
	res := Compute(nil, ts(t, "2025-03-10T08:00:00Z"), ts(t, "2025-03-10T12:00:00Z"), Options{})
	require.Len(t, res.FreeSlots, 1)
	assert.Equal(t, 240, res.FreeSlots[0].DurationMinutes)
	assert.Equal(t, 0, res.Stats.TotalBusyPeriods)
}

func TestComputeCancelledAndTransparentFiltered(t *testing.T) {
	cancelled := timed(t, "c", "2025-03-10T09:00:00Z", "2025-03-10T10:00:00Z")
	cancelled.Status = model.EventStatusCancelled
	transparent := timed(t, "t", "2025-03-10T10:00:00Z", "2025-03-10T11:00:00Z")
	transparent.Transparency = model.TransparencyTransparent

	res := Compute([]model.CalendarEvent{cancelled, transparent},
		ts(t, "2025-03-10T08:00:00Z"), ts(t, "2025-03-10T12:00:00Z"), Options{})

	assert.Empty(t, res.BusyPeriods)
	// Cancelled events are dropped from the raw list; transparent ones stay.
	require.Len(t, res.Events, 1)
	assert.Equal(t, "t", res.Events[0].ID)
	assert.Equal(t, 1, res.Stats.TotalEvents)
}

func TestComputeZeroLengthEventDropped(t *testing.T) {
	res := Compute([]model.CalendarEvent{
		timed(t, "z", "2025-03-10T09:00:00Z", "2025-03-10T09:00:00Z"),
	}, ts(t, "2025-03-10T08:00:00Z"), ts(t, "2025-03-10T12:00:00Z"), Options{})
	assert.Empty(t, res.BusyPeriods)
	require.Len(t, res.FreeSlots, 1)
}

func TestComputeTouchingPeriodsNoDegenerateSlot(t *testing.T) {
	res := Compute([]model.CalendarEvent{
		timed(t, "a", "2025-03-10T09:00:00Z", "2025-03-10T10:00:00Z"),
		timed(t, "b", "2025-03-10T10:00:00Z", "2025-03-10T11:00:00Z"),
	}, ts(t, "2025-03-10T09:00:00Z"), ts(t, "2025-03-10T11:00:00Z"), Options{})
	assert.Empty(t, res.FreeSlots)
}

func TestComputeMinimumSlotFilter(t *testing.T) {
	res := Compute([]model.CalendarEvent{
		timed(t, "a", "2025-03-10T08:00:00Z", "2025-03-10T09:00:00Z"),
		timed(t, "b", "2025-03-10T09:10:00Z", "2025-03-10T12:00:00Z"),
	}, ts(t, "2025-03-10T08:00:00Z"), ts(t, "2025-03-10T12:00:00Z"), Options{})
	assert.Empty(t, res.FreeSlots, "10-minute gap is under the minimum")

	for _, s := range res.FreeSlots {
		assert.GreaterOrEqual(t, s.DurationMinutes, 15)
	}
}

func TestComputeEmptyWindow(t *testing.T) {
	events := []model.CalendarEvent{timed(t, "a", "2025-03-10T09:00:00Z", "2025-03-10T10:00:00Z")}
	res := Compute(events, ts(t, "2025-03-10T12:00:00Z"), ts(t, "2025-03-10T12:00:00Z"), Options{})
	assert.Empty(t, res.BusyPeriods)
	assert.Empty(t, res.FreeSlots)

	res = Compute(events, ts(t, "2025-03-10T12:00:00Z"), ts(t, "2025-03-10T08:00:00Z"), Options{})
	assert.Empty(t, res.FreeSlots)
}

func TestComputeAllDayEventSpansFullLocalDay(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	allDay := model.CalendarEvent{
		ID:     "ad",
		Title:  "offsite",
		Start:  model.EventTime{Date: "2025-03-10"},
		End:    model.EventTime{Date: "2025-03-11"},
		Status: model.EventStatusConfirmed,
	}
	start := time.Date(2025, 3, 10, 0, 0, 0, 0, loc)
	end := time.Date(2025, 3, 11, 0, 0, 0, 0, loc)
	res := Compute([]model.CalendarEvent{allDay}, start, end, Options{Location: loc})

	require.Len(t, res.BusyPeriods, 1)
	bp := res.BusyPeriods[0]
	assert.True(t, bp.AllDay)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, loc), bp.Start)
	assert.Equal(t, time.Date(2025, 3, 10, 23, 59, 59, 0, loc), bp.End)
	assert.Empty(t, res.FreeSlots, "all-day busy leaves no usable slot")
}

func TestComputeAllDayCoexistsWithTimedEvents(t *testing.T) {
	allDay := model.CalendarEvent{
		ID:     "ad",
		Start:  model.EventTime{Date: "2025-03-10"},
		End:    model.EventTime{Date: "2025-03-11"},
		Status: model.EventStatusConfirmed,
	}
	events := []model.CalendarEvent{
		timed(t, "a", "2025-03-10T09:00:00Z", "2025-03-10T10:00:00Z"),
		allDay,
	}
	res := Compute(events, ts(t, "2025-03-10T08:00:00Z"), ts(t, "2025-03-10T12:00:00Z"), Options{})
	require.Len(t, res.BusyPeriods, 2)
	for _, bp := range res.BusyPeriods {
		if bp.AllDay {
			assert.Equal(t, 0, bp.Start.Hour())
			assert.Equal(t, 23, bp.End.Hour())
		}
	}
}

func TestComputeBusinessHoursTrim(t *testing.T) {
	events := []model.CalendarEvent{
		timed(t, "a", "2025-03-10T10:00:00Z", "2025-03-10T11:00:00Z"),
	}
	res := Compute(events, ts(t, "2025-03-10T00:00:00Z"), ts(t, "2025-03-11T00:00:00Z"), Options{
		BusinessHours: &BusinessHours{StartHour: 9, EndHour: 17},
	})

	require.Len(t, res.FreeSlots, 2)
	assert.Equal(t, ts(t, "2025-03-10T09:00:00Z"), res.FreeSlots[0].Start)
	assert.Equal(t, ts(t, "2025-03-10T10:00:00Z"), res.FreeSlots[0].End)
	assert.True(t, res.FreeSlots[0].BusinessHours)
	assert.Equal(t, ts(t, "2025-03-10T11:00:00Z"), res.FreeSlots[1].Start)
	assert.Equal(t, ts(t, "2025-03-10T17:00:00Z"), res.FreeSlots[1].End)
}

func TestComputeBusinessHoursReappliesMinimum(t *testing.T) {
	// Free slot 08:50-09:10 overlaps business hours by only 10 minutes.
	events := []model.CalendarEvent{
		timed(t, "a", "2025-03-10T00:00:00Z", "2025-03-10T08:50:00Z"),
		timed(t, "b", "2025-03-10T09:10:00Z", "2025-03-11T00:00:00Z"),
	}
	res := Compute(events, ts(t, "2025-03-10T00:00:00Z"), ts(t, "2025-03-11T00:00:00Z"), Options{
		BusinessHours: &BusinessHours{StartHour: 9, EndHour: 17},
	})
	assert.Empty(t, res.FreeSlots)
}

func TestComputeCoverageProperty(t *testing.T) {
	// Without business-hours trimming and with no minimum, busy periods plus
	// free slots tile the query window exactly.
	events := []model.CalendarEvent{
		timed(t, "a", "2025-03-10T09:00:00Z", "2025-03-10T10:00:00Z"),
		timed(t, "b", "2025-03-10T09:30:00Z", "2025-03-10T09:45:00Z"),
		timed(t, "c", "2025-03-10T11:00:00Z", "2025-03-10T13:00:00Z"),
		timed(t, "d", "2025-03-10T12:30:00Z", "2025-03-10T14:00:00Z"),
	}
	winStart := ts(t, "2025-03-10T08:00:00Z")
	winEnd := ts(t, "2025-03-10T16:00:00Z")
	res := Compute(events, winStart, winEnd, Options{MinSlot: time.Nanosecond})

	var tiled interval.Set
	window := interval.Interval{Start: winStart, End: winEnd}
	for _, bp := range res.BusyPeriods {
		if clamped, ok := interval.Intersect(interval.Interval{Start: bp.Start, End: bp.End}, window); ok {
			tiled.Add(clamped)
		}
	}
	for _, fs := range res.FreeSlots {
		assert.Positive(t, fs.End.Sub(fs.Start))
		tiled.Add(interval.Interval{Start: fs.Start, End: fs.End})
	}
	ivs := tiled.Intervals()
	require.Len(t, ivs, 1)
	assert.Equal(t, window, ivs[0])
}
