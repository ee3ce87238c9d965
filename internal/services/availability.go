package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/callward/callward/internal/availability"
	"github.com/callward/callward/internal/calendar"
	"github.com/callward/callward/internal/model"
	"github.com/callward/callward/internal/store"
)

// AvailabilityQuery selects the window and options for a computation.
type AvailabilityQuery struct {
	Start         time.Time
	End           time.Time
	TimeZone      string // overrides the user's zone when set
	BusinessHours bool
}

// SlotCheck is the answer to "is this slot open".
type SlotCheck struct {
	Available    bool               `json:"available"`
	Conflicts    []model.BusyPeriod `json:"conflicts,omitempty"`
	Alternatives []model.FreeSlot   `json:"alternatives,omitempty"`
}

// AvailabilityService computes availability from a user's calendar.
type AvailabilityService struct {
	store    store.Store
	provider calendar.Provider
	minSlot  time.Duration
	bh       availability.BusinessHours
	log      zerolog.Logger
}

func NewAvailabilityService(s store.Store, provider calendar.Provider, minSlot time.Duration, bh availability.BusinessHours, log zerolog.Logger) *AvailabilityService {
	return &AvailabilityService{
		store:    s,
		provider: provider,
		minSlot:  minSlot,
		bh:       bh,
		log:      log.With().Str("component", "availability_service").Logger(),
	}
}

// ComputeAvailability fetches the user's events for the query window and
// derives busy periods and free slots.
func (s *AvailabilityService) ComputeAvailability(ctx context.Context, userID string, q AvailabilityQuery) (availability.Result, error) {
	user, loc, err := s.userLocation(ctx, userID, q.TimeZone)
	if err != nil {
		return availability.Result{}, err
	}
	if !user.CalendarConnected {
		return availability.Result{}, fmt.Errorf("%w: user %s has no connected calendar", model.ErrValidation, userID)
	}
	if !q.Start.Before(q.End) {
		return availability.Result{}, fmt.Errorf("%w: start must be before end", model.ErrValidation)
	}

	events, err := s.provider.ListEvents(ctx, userID, q.Start, q.End)
	if err != nil {
		return availability.Result{}, fmt.Errorf("list events: %w", err)
	}

	opts := availability.Options{Location: loc, MinSlot: s.minSlot}
	if q.BusinessHours {
		bh := s.bh
		opts.BusinessHours = &bh
	}
	return availability.Compute(events, q.Start, q.End, opts), nil
}

// IsSlotAvailable checks [start, end) against the user's calendar. When the
// slot is taken it returns the conflicting busy periods and up to three free
// slots on the same local day long enough to hold the request.
func (s *AvailabilityService) IsSlotAvailable(ctx context.Context, userID string, start, end time.Time) (SlotCheck, error) {
	if !start.Before(end) {
		return SlotCheck{}, fmt.Errorf("%w: start must be before end", model.ErrValidation)
	}
	_, loc, err := s.userLocation(ctx, userID, "")
	if err != nil {
		return SlotCheck{}, err
	}

	// Scan the full local day so alternatives can come from anywhere in it.
	local := start.In(loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	result, err := s.ComputeAvailability(ctx, userID, AvailabilityQuery{Start: dayStart, End: dayEnd})
	if err != nil {
		return SlotCheck{}, err
	}

	var conflicts []model.BusyPeriod
	for _, bp := range result.BusyPeriods {
		if bp.Start.Before(end) && bp.End.After(start) {
			conflicts = append(conflicts, bp)
		}
	}
	if len(conflicts) == 0 {
		return SlotCheck{Available: true}, nil
	}

	need := end.Sub(start)
	var alts []model.FreeSlot
	for _, slot := range result.FreeSlots {
		if slot.End.Sub(slot.Start) >= need {
			alts = append(alts, slot)
			if len(alts) == 3 {
				break
			}
		}
	}
	return SlotCheck{Conflicts: conflicts, Alternatives: alts}, nil
}

// CallVariables builds the dynamic variables for a user's daily call: their
// name, today's busy schedule, and the open slots. It satisfies the dispatch
// worker's variable source.
func (s *AvailabilityService) CallVariables(ctx context.Context, user *model.User) (map[string]string, error) {
	loc, err := time.LoadLocation(user.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("load location %q: %w", user.TimeZone, err)
	}
	now := time.Now().In(loc)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	result, err := s.ComputeAvailability(ctx, user.UserID, AvailabilityQuery{Start: dayStart, End: dayStart.AddDate(0, 0, 1)})
	if err != nil {
		return nil, err
	}

	vars := map[string]string{
		"current_date":     now.Format("Monday, January 2"),
		"schedule_summary": scheduleSummary(result.BusyPeriods, loc),
		"free_summary":     freeSummary(result.FreeSlots, loc),
	}
	if user.DisplayName != nil {
		vars["user_name"] = *user.DisplayName
	}
	return vars, nil
}

func (s *AvailabilityService) userLocation(ctx context.Context, userID, tzOverride string) (*model.User, *time.Location, error) {
	user, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	tz := user.TimeZone
	if tzOverride != "" {
		tz = tzOverride
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: unknown time zone %q", model.ErrValidation, tz)
	}
	return user, loc, nil
}

func scheduleSummary(busy []model.BusyPeriod, loc *time.Location) string {
	if len(busy) == 0 {
		return "No events on the calendar today."
	}
	var b strings.Builder
	for i, bp := range busy {
		if i > 0 {
			b.WriteString("; ")
		}
		if bp.AllDay {
			fmt.Fprintf(&b, "%s (all day)", bp.Title)
			continue
		}
		fmt.Fprintf(&b, "%s from %s to %s", bp.Title,
			bp.Start.In(loc).Format("3:04 PM"), bp.End.In(loc).Format("3:04 PM"))
	}
	return b.String()
}

func freeSummary(slots []model.FreeSlot, loc *time.Location) string {
	if len(slots) == 0 {
		return "No open slots today."
	}
	var b strings.Builder
	for i, slot := range slots {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s to %s", slot.Start.In(loc).Format("3:04 PM"), slot.End.In(loc).Format("3:04 PM"))
	}
	return b.String()
}
