package dispatch

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/callward/callward/internal/model"
	"github.com/callward/callward/internal/store"
)

// DueSelector finds the work a dispatch pass should execute: one-shot
// scheduled calls that have come due, and users whose recurring call time
// falls in the current firing window.
type DueSelector struct {
	store  store.Store
	window time.Duration
	log    zerolog.Logger
}

// NewDueSelector builds a selector. window is both the lookback for one-shot
// calls and the width of the recurring firing window.
func NewDueSelector(s store.Store, window time.Duration, log zerolog.Logger) *DueSelector {
	return &DueSelector{
		store:  s,
		window: window,
		log:    log.With().Str("component", "due_selector").Logger(),
	}
}

// DueCalls returns scheduled calls with scheduledAt inside
// [now-window, now+1s). Calls older than the window stay untouched for
// operator inspection.
func (s *DueSelector) DueCalls(ctx context.Context, now time.Time) ([]*model.ScheduledCall, error) {
	calls, err := s.store.Calls().Due(ctx, now.Add(-s.window), now.Add(time.Second))
	if err != nil {
		return nil, fmt.Errorf("select due calls: %w", err)
	}
	return calls, nil
}

// DueRecurringUsers returns users whose configured daily call time falls in
// the window starting at now, evaluated in each user's own time zone. Users
// missing any required field are skipped. The result may repeat across polls
// inside one window; callers dedupe with HasCallToday before creating a call.
func (s *DueSelector) DueRecurringUsers(ctx context.Context, now time.Time) ([]*model.User, error) {
	candidates, err := s.store.Users().ListCallCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list call candidates: %w", err)
	}

	windowMinutes := int(s.window / time.Minute)
	var due []*model.User
	for _, u := range candidates {
		hour, minute, err := parseCallTime(*u.CallTime)
		if err != nil {
			s.log.Warn().Str("user_id", u.UserID).Str("call_time", *u.CallTime).Msg("unparseable call time, skipping user")
			continue
		}
		loc, err := time.LoadLocation(u.TimeZone)
		if err != nil {
			s.log.Warn().Str("user_id", u.UserID).Str("time_zone", u.TimeZone).Msg("unknown time zone, skipping user")
			continue
		}

		local := now.In(loc)
		if local.Hour() != hour {
			continue
		}
		elapsed := local.Minute() - minute
		if elapsed < 0 || elapsed >= windowMinutes {
			continue
		}
		due = append(due, u)
	}
	return due, nil
}

// HasCallToday reports whether the user already has a non-failed call for
// their current local day. It is the same-day guard for recurring dispatch.
func (s *DueSelector) HasCallToday(ctx context.Context, user *model.User, now time.Time) (bool, error) {
	loc, err := time.LoadLocation(user.TimeZone)
	if err != nil {
		return false, fmt.Errorf("load location %q: %w", user.TimeZone, err)
	}
	local := now.In(loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return s.store.Calls().ExistsForUserBetween(ctx, user.UserID, dayStart.UTC(), dayStart.AddDate(0, 0, 1).UTC())
}

func parseCallTime(v string) (hour, minute int, err error) {
	parts := strings.SplitN(v, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("call time %q is not HH:MM", v)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("call time %q has invalid hour", v)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("call time %q has invalid minute", v)
	}
	return hour, minute, nil
}
