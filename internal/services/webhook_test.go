package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callward/callward/internal/model"
	"github.com/callward/callward/internal/transcript"
	"github.com/callward/callward/internal/voice"
)

func postCallEvent(convID string, turns []transcript.Turn) voice.WebhookEvent {
	return voice.WebhookEvent{
		Type: "post_call_transcription",
		Data: voice.WebhookData{ConversationID: convID, Status: "done", Transcript: turns},
	}
}

func createTaskTurn(requestID, title string, due time.Time) transcript.Turn {
	return transcript.Turn{
		Role: "agent",
		ToolCalls: []transcript.ToolCall{{
			RequestID:    requestID,
			ToolName:     CreateTaskTool,
			ParamsAsJSON: fmt.Sprintf(`{"title":%q,"due":%q}`, title, due.Format(time.RFC3339)),
		}},
	}
}

func TestHandlePostCall_CompletesReminderCallTask(t *testing.T) {
	st := newTestStore(t)
	svc := NewWebhookService(st, newTestPlanner(st), zerolog.Nop())
	user := seedUser(t, st, true)

	due := time.Now().UTC().Add(time.Hour)
	task, err := st.Tasks().Create(context.Background(), &model.Task{
		UserID: &user.UserID, Title: "water plants", Due: due, TimeZone: "UTC", ReminderMinutesBefore: 30,
	})
	require.NoError(t, err)
	require.NoError(t, st.Tasks().Claim(context.Background(), model.TaskClaim{TaskID: task.ID}))
	require.NoError(t, st.Tasks().SetCallInfo(context.Background(), model.TaskCallInfo{
		TaskID: task.ID, CallSID: "CA1", ConversationID: "conv_rem",
	}))

	require.NoError(t, svc.HandlePostCall(context.Background(), postCallEvent("conv_rem", nil)))

	got, err := st.Tasks().Get(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusCompleted, got.Status)
}

func TestHandlePostCall_CapturesTasksFromDailyCall(t *testing.T) {
	st := newTestStore(t)
	svc := NewWebhookService(st, newTestPlanner(st), zerolog.Nop())
	user := seedUser(t, st, true)

	call, err := st.Calls().Create(context.Background(), &model.ScheduledCall{
		UserID: user.UserID, ScheduledAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	require.NoError(t, st.Calls().Claim(context.Background(), model.CallClaim{CallID: call.ID}))
	require.NoError(t, st.Calls().Complete(context.Background(), model.CallCompletion{
		CallID: call.ID, CallSID: "CA1", ConversationID: "conv_daily",
	}))

	due := time.Now().UTC().Add(4 * time.Hour).Truncate(time.Second)
	turns := []transcript.Turn{
		createTaskTurn("r1", "buy milk", due),
		createTaskTurn("r2", "buy milk", due), // duplicate, dropped
		createTaskTurn("r3", "call dentist", due.Add(time.Hour)),
		{Role: "agent", ToolCalls: []transcript.ToolCall{{
			RequestID: "r4", ToolName: CreateTaskTool, ParamsAsJSON: `{"title": "broken`,
		}}},
	}

	require.NoError(t, svc.HandlePostCall(context.Background(), postCallEvent("conv_daily", turns)))

	tasksList, err := st.Tasks().ListByUser(context.Background(), user.UserID, 10)
	require.NoError(t, err)
	require.Len(t, tasksList, 2)

	titles := map[string]bool{}
	for _, task := range tasksList {
		titles[task.Title] = true
		assert.Equal(t, model.TaskStatusScheduled, task.Status)
		assert.Equal(t, "call:conv_daily", task.Source)
		assert.Equal(t, DefaultReminderMinutes, task.ReminderMinutesBefore)
	}
	assert.True(t, titles["buy milk"])
	assert.True(t, titles["call dentist"])

	rems := pendingReminders(t, st, due.Add(2*time.Hour))
	assert.Len(t, rems, 2, "every captured task gets a reminder")
}

func TestHandlePostCall_UnknownConversationIsNoOp(t *testing.T) {
	st := newTestStore(t)
	svc := NewWebhookService(st, newTestPlanner(st), zerolog.Nop())
	user := seedUser(t, st, true)

	turns := []transcript.Turn{createTaskTurn("r1", "orphan task", time.Now().Add(time.Hour))}
	require.NoError(t, svc.HandlePostCall(context.Background(), postCallEvent("conv_unknown", turns)))

	tasksList, err := st.Tasks().ListByUser(context.Background(), user.UserID, 10)
	require.NoError(t, err)
	assert.Empty(t, tasksList, "transcripts from unknown conversations create nothing")
}

func TestHandlePostCall_IgnoresOtherEventTypes(t *testing.T) {
	st := newTestStore(t)
	svc := NewWebhookService(st, newTestPlanner(st), zerolog.Nop())
	require.NoError(t, svc.HandlePostCall(context.Background(), voice.WebhookEvent{Type: "post_call_audio"}))
}
