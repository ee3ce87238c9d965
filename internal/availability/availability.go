// Package availability turns raw calendar events into busy periods, free
// slots, and summary statistics for a query window.
package availability

import (
	"sort"
	"time"

	"github.com/callward/callward/internal/interval"
	"github.com/callward/callward/internal/model"
)

// DefaultMinSlot is the minimum free-slot duration. Gaps shorter than this are
// dropped, both in the base scan and after business-hours trimming.
const DefaultMinSlot = 15 * time.Minute

// BusinessHours is a daily local-time window, e.g. 09:00-17:00.
type BusinessHours struct {
	StartHour   int
	StartMinute int
	EndHour     int
	EndMinute   int
}

// Options tunes a Compute call. The zero value uses UTC for all-day expansion,
// the default minimum slot, and no business-hours trim.
type Options struct {
	// Location resolves date-only event boundaries to a local calendar day
	// and anchors business-hours windows. Defaults to UTC.
	Location *time.Location

	// MinSlot overrides DefaultMinSlot when positive.
	MinSlot time.Duration

	// BusinessHours, when set, adds a second pass that intersects free slots
	// with the daily window.
	BusinessHours *BusinessHours
}

// Stats summarizes a computation.
type Stats struct {
	TotalEvents            int `json:"totalEvents"`
	TotalBusyPeriods       int `json:"totalBusyPeriods"`
	TotalFreeSlots         int `json:"totalFreeSlots"`
	LongestFreeSlotMinutes int `json:"longestFreeSlot"`
}

// Result is the full availability picture for a query window.
type Result struct {
	Events      []model.CalendarEvent `json:"events"`
	BusyPeriods []model.BusyPeriod    `json:"busyPeriods"`
	FreeSlots   []model.FreeSlot      `json:"freeSlots"`
	Stats       Stats                 `json:"stats"`
}

// Compute derives busy periods and free slots from raw events over
// [queryStart, queryEnd). Cancelled events are excluded before any other
// processing; transparent events stay in the raw event list but never
// contribute busy periods. A window with queryStart >= queryEnd yields an
// empty result.
func Compute(events []model.CalendarEvent, queryStart, queryEnd time.Time, opts Options) Result {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	minSlot := opts.MinSlot
	if minSlot <= 0 {
		minSlot = DefaultMinSlot
	}

	var kept []model.CalendarEvent
	for _, ev := range events {
		if ev.Status == model.EventStatusCancelled {
			continue
		}
		kept = append(kept, ev)
	}

	out := Result{Events: kept}
	if !queryStart.Before(queryEnd) {
		return out
	}

	for _, ev := range kept {
		if ev.Transparency == model.TransparencyTransparent {
			continue
		}
		start, end, allDay, ok := resolveSpan(ev, loc)
		if !ok || !start.Before(end) {
			continue
		}
		out.BusyPeriods = append(out.BusyPeriods, model.BusyPeriod{
			EventID:  ev.ID,
			Title:    ev.Title,
			Start:    start,
			End:      end,
			AllDay:   allDay,
			Location: ev.Location,
		})
	}
	sort.Slice(out.BusyPeriods, func(i, j int) bool {
		return out.BusyPeriods[i].Start.Before(out.BusyPeriods[j].Start)
	})

	out.FreeSlots = freeSlots(out.BusyPeriods, queryStart, queryEnd, minSlot)
	if opts.BusinessHours != nil {
		out.FreeSlots = trimToBusinessHours(out.FreeSlots, *opts.BusinessHours, loc, minSlot)
	}

	out.Stats = Stats{
		TotalEvents:      len(kept),
		TotalBusyPeriods: len(out.BusyPeriods),
		TotalFreeSlots:   len(out.FreeSlots),
	}
	for _, s := range out.FreeSlots {
		if s.DurationMinutes > out.Stats.LongestFreeSlotMinutes {
			out.Stats.LongestFreeSlotMinutes = s.DurationMinutes
		}
	}
	return out
}

// freeSlots performs a single left-to-right scan over sorted busy periods.
// The cursor only moves forward, so a period nested inside an earlier one
// contributes no gap and cannot move the cursor backward.
func freeSlots(busy []model.BusyPeriod, queryStart, queryEnd time.Time, minSlot time.Duration) []model.FreeSlot {
	var slots []model.FreeSlot
	emit := func(start, end time.Time) {
		if end.Sub(start) < minSlot {
			return
		}
		slots = append(slots, model.FreeSlot{
			Start:           start,
			End:             end,
			DurationMinutes: int(end.Sub(start) / time.Minute),
		})
	}

	cursor := queryStart
	for _, bp := range busy {
		if !bp.End.After(queryStart) || !bp.Start.Before(queryEnd) {
			continue
		}
		if bp.Start.After(cursor) {
			emit(cursor, minTime(bp.Start, queryEnd))
		}
		if bp.End.After(cursor) {
			cursor = bp.End
		}
	}
	if cursor.Before(queryEnd) {
		emit(cursor, queryEnd)
	}
	return slots
}

// trimToBusinessHours intersects each slot with the daily window for every
// day the slot spans, re-applying the minimum duration to the trimmed pieces.
func trimToBusinessHours(slots []model.FreeSlot, bh BusinessHours, loc *time.Location, minSlot time.Duration) []model.FreeSlot {
	var out []model.FreeSlot
	for _, slot := range slots {
		sIv := interval.Interval{Start: slot.Start, End: slot.End}
		for _, window := range businessWindows(slot.Start, slot.End, bh, loc) {
			trimmed, ok := interval.Intersect(sIv, window)
			if !ok || trimmed.Duration() < minSlot {
				continue
			}
			out = append(out, model.FreeSlot{
				Start:           trimmed.Start,
				End:             trimmed.End,
				DurationMinutes: int(trimmed.Duration() / time.Minute),
				BusinessHours:   true,
			})
		}
	}
	return out
}

// businessWindows enumerates the daily business-hours intervals covering
// every local day between start and end inclusive.
func businessWindows(start, end time.Time, bh BusinessHours, loc *time.Location) []interval.Interval {
	var windows []interval.Interval
	day := time.Date(start.In(loc).Year(), start.In(loc).Month(), start.In(loc).Day(), 0, 0, 0, 0, loc)
	for !day.After(end.In(loc)) {
		windows = append(windows, interval.Interval{
			Start: time.Date(day.Year(), day.Month(), day.Day(), bh.StartHour, bh.StartMinute, 0, 0, loc),
			End:   time.Date(day.Year(), day.Month(), day.Day(), bh.EndHour, bh.EndMinute, 0, 0, loc),
		})
		day = day.AddDate(0, 0, 1)
	}
	return windows
}

// resolveSpan turns an event's boundaries into absolute instants. All-day
// events expand to the full local day: 00:00:00 of the start date through
// 23:59:59 of the last covered date (the provider's end date is exclusive).
func resolveSpan(ev model.CalendarEvent, loc *time.Location) (start, end time.Time, allDay, ok bool) {
	if ev.Start.IsDateOnly() || ev.End.IsDateOnly() {
		startDay, err1 := parseLocalDate(ev.Start, loc)
		endDay, err2 := parseLocalDate(ev.End, loc)
		if err1 != nil || err2 != nil {
			return time.Time{}, time.Time{}, false, false
		}
		if !endDay.After(startDay) {
			endDay = startDay.AddDate(0, 0, 1)
		}
		return startDay, endDay.Add(-time.Second), true, true
	}
	if ev.Start.DateTime == nil || ev.End.DateTime == nil {
		return time.Time{}, time.Time{}, false, false
	}
	return *ev.Start.DateTime, *ev.End.DateTime, false, true
}

// parseLocalDate resolves a date-only boundary to midnight in the event's own
// zone when named, otherwise the caller's local calendar day. Never UTC-day
// unless that is the caller's zone.
func parseLocalDate(t model.EventTime, loc *time.Location) (time.Time, error) {
	useLoc := loc
	if t.TimeZone != "" {
		if l, err := time.LoadLocation(t.TimeZone); err == nil {
			useLoc = l
		}
	}
	return time.ParseInLocation("2006-01-02", t.Date, useLoc)
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
