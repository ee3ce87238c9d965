package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callward/callward/internal/model"
	"github.com/callward/callward/internal/store"
)

func seedCandidate(t *testing.T, st store.Store, tz, callTime string) *model.User {
	t.Helper()
	phone := "+15551230000"
	u, err := st.Users().Create(context.Background(), &model.User{
		UserID:            uuid.NewString(),
		Email:             uuid.NewString()[:8] + "@example.com",
		TimeZone:          tz,
		PhoneNumber:       &phone,
		CallTime:          &callTime,
		CalendarConnected: true,
	})
	require.NoError(t, err)
	return u
}

func TestDueCalls_WindowBounds(t *testing.T) {
	st := newTestStore(t)
	user := seedUser(t, st)
	now := time.Now().UTC().Truncate(time.Second)

	mk := func(at time.Time) *model.ScheduledCall {
		c, err := st.Calls().Create(context.Background(), &model.ScheduledCall{UserID: user.UserID, ScheduledAt: at})
		require.NoError(t, err)
		return c
	}
	inWindow := mk(now.Add(-2 * time.Minute))
	atNow := mk(now)
	tooOld := mk(now.Add(-10 * time.Minute))
	future := mk(now.Add(30 * time.Minute))

	sel := NewDueSelector(st, 5*time.Minute, zerolog.Nop())
	due, err := sel.DueCalls(context.Background(), now)
	require.NoError(t, err)

	ids := make(map[string]bool, len(due))
	for _, c := range due {
		ids[c.ID] = true
	}
	assert.True(t, ids[inWindow.ID])
	assert.True(t, ids[atNow.ID])
	assert.False(t, ids[tooOld.ID])
	assert.False(t, ids[future.ID])
}

func TestDueRecurringUsers_LocalTimeMatch(t *testing.T) {
	st := newTestStore(t)
	ny := seedCandidate(t, st, "America/New_York", "08:00")
	la := seedCandidate(t, st, "America/Los_Angeles", "08:00")

	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	// 08:02 in New York is 05:02 in Los Angeles.
	now := time.Date(2026, 3, 2, 8, 2, 0, 0, loc)

	sel := NewDueSelector(st, 5*time.Minute, zerolog.Nop())
	due, err := sel.DueRecurringUsers(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, ny.UserID, due[0].UserID)

	// Three hours later it is Los Angeles's turn.
	due, err = sel.DueRecurringUsers(context.Background(), now.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, la.UserID, due[0].UserID)
}

func TestDueRecurringUsers_OutsideFiringWindow(t *testing.T) {
	st := newTestStore(t)
	seedCandidate(t, st, "America/New_York", "08:00")

	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	sel := NewDueSelector(st, 5*time.Minute, zerolog.Nop())

	for _, now := range []time.Time{
		time.Date(2026, 3, 2, 7, 59, 0, 0, loc),
		time.Date(2026, 3, 2, 8, 5, 0, 0, loc),
		time.Date(2026, 3, 2, 9, 0, 0, 0, loc),
	} {
		due, err := sel.DueRecurringUsers(context.Background(), now)
		require.NoError(t, err)
		assert.Empty(t, due, "no user should be due at %v", now)
	}
}

func TestDueRecurringUsers_SkipsIncompleteUsers(t *testing.T) {
	st := newTestStore(t)
	// No phone number, so never a candidate.
	callTime := "08:00"
	_, err := st.Users().Create(context.Background(), &model.User{
		UserID:            uuid.NewString(),
		Email:             "nophone@example.com",
		TimeZone:          "America/New_York",
		CallTime:          &callTime,
		CalendarConnected: true,
	})
	require.NoError(t, err)
	// Unparseable call time.
	seedCandidate(t, st, "America/New_York", "not-a-time")

	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	sel := NewDueSelector(st, 5*time.Minute, zerolog.Nop())
	due, err := sel.DueRecurringUsers(context.Background(), time.Date(2026, 3, 2, 8, 0, 0, 0, loc))
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestHasCallToday(t *testing.T) {
	st := newTestStore(t)
	user := seedCandidate(t, st, "America/New_York", "08:00")
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	now := time.Date(2026, 3, 2, 8, 1, 0, 0, loc)

	sel := NewDueSelector(st, 5*time.Minute, zerolog.Nop())
	has, err := sel.HasCallToday(context.Background(), user, now)
	require.NoError(t, err)
	assert.False(t, has)

	_, err = st.Calls().Create(context.Background(), &model.ScheduledCall{UserID: user.UserID, ScheduledAt: now.UTC()})
	require.NoError(t, err)

	has, err = sel.HasCallToday(context.Background(), user, now)
	require.NoError(t, err)
	assert.True(t, has)

	// Yesterday's call does not count for today.
	has, err = sel.HasCallToday(context.Background(), user, now.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.False(t, has)
}
