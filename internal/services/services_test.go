package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/callward/callward/internal/dispatch"
	"github.com/callward/callward/internal/model"
	"github.com/callward/callward/internal/store"
	sqlitestore "github.com/callward/callward/internal/store/sqlite"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	db, err := sqlitestore.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	st, err := sqlitestore.NewWithDB(db)
	require.NoError(t, err)
	return st
}

func newTestPlanner(st store.Store) *dispatch.Planner {
	return dispatch.NewPlanner(st, zerolog.Nop())
}

func seedUser(t *testing.T, st store.Store, connected bool) *model.User {
	t.Helper()
	phone := "+15551230000"
	callTime := "08:00"
	name := "Ada"
	u, err := st.Users().Create(context.Background(), &model.User{
		UserID:            uuid.NewString(),
		Email:             uuid.NewString()[:8] + "@example.com",
		DisplayName:       &name,
		TimeZone:          "America/New_York",
		PhoneNumber:       &phone,
		CallTime:          &callTime,
		CalendarConnected: connected,
	})
	require.NoError(t, err)
	return u
}

func pendingReminders(t *testing.T, st store.Store, horizon time.Time) []*model.Reminder {
	t.Helper()
	rems, err := st.Reminders().Due(context.Background(), horizon)
	require.NoError(t, err)
	return rems
}
