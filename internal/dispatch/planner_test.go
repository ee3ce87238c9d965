package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callward/callward/internal/model"
)

func TestPlan_CreatesReminderAtOffset(t *testing.T) {
	st := newTestStore(t)
	user := seedUser(t, st)
	due := time.Now().UTC().Add(2 * time.Hour).Truncate(time.Second)
	task, err := st.Tasks().Create(context.Background(), &model.Task{
		UserID:                &user.UserID,
		Title:                 "pay rent",
		Due:                   due,
		TimeZone:              user.TimeZone,
		ReminderMinutesBefore: 30,
	})
	require.NoError(t, err)

	p := NewPlanner(st, zerolog.Nop())
	rem, err := p.Plan(context.Background(), task)
	require.NoError(t, err)
	assert.Equal(t, model.ReminderStatusPending, rem.Status)
	assert.True(t, rem.FireAt.Equal(due.Add(-30*time.Minute)))
}

func TestPlan_ReplacesPendingReminder(t *testing.T) {
	st := newTestStore(t)
	user := seedUser(t, st)
	due := time.Now().UTC().Add(2 * time.Hour).Truncate(time.Second)
	task, err := st.Tasks().Create(context.Background(), &model.Task{
		UserID:                &user.UserID,
		Title:                 "pay rent",
		Due:                   due,
		TimeZone:              user.TimeZone,
		ReminderMinutesBefore: 30,
	})
	require.NoError(t, err)

	p := NewPlanner(st, zerolog.Nop())
	_, err = p.Plan(context.Background(), task)
	require.NoError(t, err)

	newDue := due.Add(3 * time.Hour)
	task, err = st.Tasks().Reschedule(context.Background(), model.TaskReschedule{TaskID: task.ID, Due: &newDue})
	require.NoError(t, err)
	rem, err := p.Plan(context.Background(), task)
	require.NoError(t, err)

	pending, err := st.Reminders().Due(context.Background(), newDue)
	require.NoError(t, err)
	require.Len(t, pending, 1, "re-planning must leave exactly one pending reminder")
	assert.Equal(t, rem.ID, pending[0].ID)
	assert.True(t, pending[0].FireAt.Equal(newDue.Add(-30*time.Minute)))
}

func TestCancel_RemovesPendingOnly(t *testing.T) {
	st := newTestStore(t)
	user := seedUser(t, st)
	due := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
	task, err := st.Tasks().Create(context.Background(), &model.Task{
		UserID:                &user.UserID,
		Title:                 "pay rent",
		Due:                   due,
		TimeZone:              user.TimeZone,
		ReminderMinutesBefore: 15,
	})
	require.NoError(t, err)

	p := NewPlanner(st, zerolog.Nop())
	_, err = p.Plan(context.Background(), task)
	require.NoError(t, err)
	require.NoError(t, p.Cancel(context.Background(), task.ID))

	pending, err := st.Reminders().Due(context.Background(), due)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
