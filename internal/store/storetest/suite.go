// Package storetest exercises a compliance suite against a store.Store
// implementation. Drivers provide a clean, isolated store from makeStore.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/callward/callward/internal/model"
	"github.com/callward/callward/internal/store"
)

func strptr(s string) *string { return &s }

// Run exercises the full compliance suite.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	userID := "u-" + uuid.New().String()[:8]
	u := &model.User{
		UserID:   userID,
		Email:    userID + "@example.test",
		TimeZone: "America/New_York",
	}
	if _, err := s.Users().Create(ctx, u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if got, err := s.Users().Get(ctx, userID); err != nil || got.UserID != userID || got.Status != "ACTIVE" {
		t.Fatalf("GetUser: got=%v err=%v", got, err)
	}
	if _, err := s.Users().Get(ctx, "missing"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetUser missing: want ErrNotFound, got %v", err)
	}

	// Call settings and recurring-call candidate selection.
	if cands, err := s.Users().ListCallCandidates(ctx); err != nil || len(cands) != 0 {
		t.Fatalf("ListCallCandidates before settings: n=%d err=%v", len(cands), err)
	}
	connected := true
	if _, err := s.Users().UpdateCallSettings(ctx, userID, model.CallSettings{
		PhoneNumber:       strptr("+15550100"),
		CallTime:          strptr("08:30"),
		CalendarID:        strptr("primary"),
		CalendarConnected: &connected,
	}); err != nil {
		t.Fatalf("UpdateCallSettings: %v", err)
	}
	cands, err := s.Users().ListCallCandidates(ctx)
	if err != nil || len(cands) != 1 || cands[0].UserID != userID {
		t.Fatalf("ListCallCandidates: n=%d err=%v", len(cands), err)
	}
	if cands[0].CallTime == nil || *cands[0].CallTime != "08:30" {
		t.Fatalf("candidate call time: %v", cands[0].CallTime)
	}

	runCalls(t, ctx, s, userID)
	runTasks(t, ctx, s, userID)
	runReminders(t, ctx, s, userID)
	runTokens(t, ctx, s, userID)
}

func runCalls(t *testing.T, ctx context.Context, s store.Store, userID string) {
	t.Helper()

	at := time.Now().UTC().Add(2 * time.Minute).Truncate(time.Second)
	c, err := s.Calls().Create(ctx, &model.ScheduledCall{UserID: userID, ScheduledAt: at})
	if err != nil {
		t.Fatalf("CreateCall: %v", err)
	}
	if c.ID == "" || c.Status != model.CallStatusScheduled {
		t.Fatalf("CreateCall: %+v", c)
	}

	got, err := s.Calls().Get(ctx, c.ID)
	if err != nil || !got.ScheduledAt.Equal(at) {
		t.Fatalf("GetCall: got=%+v err=%v", got, err)
	}

	due, err := s.Calls().Due(ctx, at.Add(-time.Minute), at.Add(time.Minute))
	if err != nil || len(due) != 1 || due[0].ID != c.ID {
		t.Fatalf("Due: n=%d err=%v", len(due), err)
	}
	if due, err := s.Calls().Due(ctx, at.Add(time.Minute), at.Add(2*time.Minute)); err != nil || len(due) != 0 {
		t.Fatalf("Due outside window: n=%d err=%v", len(due), err)
	}

	exists, err := s.Calls().ExistsForUserBetween(ctx, userID, at.Add(-time.Hour), at.Add(time.Hour))
	if err != nil || !exists {
		t.Fatalf("ExistsForUserBetween: exists=%v err=%v", exists, err)
	}

	// Guarded claim: first succeeds, second observes already_claimed.
	if err := s.Calls().Claim(ctx, model.CallClaim{CallID: c.ID}); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if err := s.Calls().Claim(ctx, model.CallClaim{CallID: c.ID}); !errors.Is(err, model.ErrAlreadyClaimed) {
		t.Fatalf("second Claim: want ErrAlreadyClaimed, got %v", err)
	}
	if err := s.Calls().Claim(ctx, model.CallClaim{CallID: uuid.New().String()}); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Claim missing: want ErrNotFound, got %v", err)
	}

	if err := s.Calls().Complete(ctx, model.CallCompletion{CallID: c.ID, CallSID: "CA123", ConversationID: "conv-1"}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	got, err = s.Calls().Get(ctx, c.ID)
	if err != nil || got.Status != model.CallStatusCompleted || got.CallSID == nil || *got.CallSID != "CA123" {
		t.Fatalf("after Complete: got=%+v err=%v", got, err)
	}
	// Completing again fails the guard; the record never leaves its terminal state.
	if err := s.Calls().Complete(ctx, model.CallCompletion{CallID: c.ID}); !errors.Is(err, model.ErrAlreadyClaimed) {
		t.Fatalf("second Complete: want ErrAlreadyClaimed, got %v", err)
	}

	byConv, err := s.Calls().GetByConversationID(ctx, "conv-1")
	if err != nil || byConv.ID != c.ID {
		t.Fatalf("GetByConversationID: got=%v err=%v", byConv, err)
	}
	if _, err := s.Calls().GetByConversationID(ctx, "conv-missing"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("GetByConversationID missing: want ErrNotFound, got %v", err)
	}

	// Failure path on a fresh record.
	c2, err := s.Calls().Create(ctx, &model.ScheduledCall{UserID: userID, ScheduledAt: at, RetryCount: 1})
	if err != nil {
		t.Fatalf("CreateCall c2: %v", err)
	}
	if err := s.Calls().Claim(ctx, model.CallClaim{CallID: c2.ID}); err != nil {
		t.Fatalf("Claim c2: %v", err)
	}
	if err := s.Calls().Fail(ctx, model.CallFailure{CallID: c2.ID, ErrorMessage: "dial timeout"}); err != nil {
		t.Fatalf("Fail c2: %v", err)
	}
	got, err = s.Calls().Get(ctx, c2.ID)
	if err != nil || got.Status != model.CallStatusFailed || got.ErrorMessage == nil || *got.ErrorMessage != "dial timeout" {
		t.Fatalf("after Fail: got=%+v err=%v", got, err)
	}
	if got.RetryCount != 1 {
		t.Fatalf("retry count: %d", got.RetryCount)
	}

	lst, err := s.Calls().ListByUser(ctx, userID, 10)
	if err != nil || len(lst) != 2 {
		t.Fatalf("ListByUser: n=%d err=%v", len(lst), err)
	}
}

func runTasks(t *testing.T, ctx context.Context, s store.Store, userID string) {
	t.Helper()

	due := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
	task, err := s.Tasks().Create(ctx, &model.Task{
		UserID:                &userID,
		Title:                 "file the report",
		Due:                   due,
		TimeZone:              "America/New_York",
		ReminderMinutesBefore: 5,
	})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if task.ID == "" || task.Status != model.TaskStatusScheduled || task.Source != "api" {
		t.Fatalf("CreateTask: %+v", task)
	}

	// Reschedule while still scheduled.
	newDue := due.Add(30 * time.Minute)
	updated, err := s.Tasks().Reschedule(ctx, model.TaskReschedule{TaskID: task.ID, Due: &newDue})
	if err != nil || !updated.Due.Equal(newDue) || updated.Title != "file the report" {
		t.Fatalf("Reschedule: got=%+v err=%v", updated, err)
	}

	// Claim exactly once, concurrently.
	const claimers = 8
	var wg sync.WaitGroup
	okCh := make(chan struct{}, claimers)
	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Tasks().Claim(ctx, model.TaskClaim{TaskID: task.ID})
			if err == nil {
				okCh <- struct{}{}
			} else if !errors.Is(err, model.ErrAlreadyClaimed) {
				t.Errorf("concurrent Claim: %v", err)
			}
		}()
	}
	wg.Wait()
	close(okCh)
	var wins int
	for range okCh {
		wins++
	}
	if wins != 1 {
		t.Fatalf("concurrent Claim: %d winners, want exactly 1", wins)
	}

	// Rescheduling after claim is a conflict.
	if _, err := s.Tasks().Reschedule(ctx, model.TaskReschedule{TaskID: task.ID, Due: &newDue}); !errors.Is(err, model.ErrConflict) {
		t.Fatalf("Reschedule after claim: want ErrConflict, got %v", err)
	}

	if err := s.Tasks().SetCallInfo(ctx, model.TaskCallInfo{TaskID: task.ID, CallSID: "CA9", ConversationID: "conv-9"}); err != nil {
		t.Fatalf("SetCallInfo: %v", err)
	}
	byConv, err := s.Tasks().GetByConversationID(ctx, "conv-9")
	if err != nil || byConv.ID != task.ID {
		t.Fatalf("GetByConversationID: got=%v err=%v", byConv, err)
	}

	if err := s.Tasks().Complete(ctx, model.TaskCompletion{TaskID: task.ID}); err != nil {
		t.Fatalf("CompleteTask: %v", err)
	}

	// Early completion directly from scheduled.
	task2, err := s.Tasks().Create(ctx, &model.Task{UserID: &userID, Title: "t2", Due: due, TimeZone: "UTC"})
	if err != nil {
		t.Fatalf("CreateTask t2: %v", err)
	}
	if err := s.Tasks().Complete(ctx, model.TaskCompletion{TaskID: task2.ID, FromScheduled: true}); err != nil {
		t.Fatalf("early Complete: %v", err)
	}
	// The reminder claim guard now no-ops.
	if err := s.Tasks().Claim(ctx, model.TaskClaim{TaskID: task2.ID}); !errors.Is(err, model.ErrAlreadyClaimed) {
		t.Fatalf("Claim completed task: want ErrAlreadyClaimed, got %v", err)
	}

	lst, err := s.Tasks().ListByUser(ctx, userID, 10)
	if err != nil || len(lst) != 2 {
		t.Fatalf("ListTasks: n=%d err=%v", len(lst), err)
	}

	if err := s.Tasks().Delete(ctx, task2.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if err := s.Tasks().Delete(ctx, task2.ID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("DeleteTask again: want ErrNotFound, got %v", err)
	}
}

func runReminders(t *testing.T, ctx context.Context, s store.Store, userID string) {
	t.Helper()

	due := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
	task, err := s.Tasks().Create(ctx, &model.Task{UserID: &userID, Title: "with reminder", Due: due, TimeZone: "UTC", ReminderMinutesBefore: 10})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	fireAt := due.Add(-10 * time.Minute)
	rem, err := s.Reminders().Create(ctx, &model.Reminder{TaskID: task.ID, FireAt: fireAt})
	if err != nil || rem.ID == "" || rem.Status != model.ReminderStatusPending {
		t.Fatalf("CreateReminder: got=%+v err=%v", rem, err)
	}

	if lst, err := s.Reminders().Due(ctx, fireAt.Add(-time.Minute)); err != nil || len(lst) != 0 {
		t.Fatalf("Due before fireAt: n=%d err=%v", len(lst), err)
	}
	lst, err := s.Reminders().Due(ctx, fireAt)
	if err != nil || len(lst) != 1 || lst[0].ID != rem.ID {
		t.Fatalf("Due at fireAt: n=%d err=%v", len(lst), err)
	}

	if err := s.Reminders().MarkFired(ctx, rem.ID); err != nil {
		t.Fatalf("MarkFired: %v", err)
	}
	if err := s.Reminders().MarkSkipped(ctx, rem.ID); !errors.Is(err, model.ErrAlreadyClaimed) {
		t.Fatalf("MarkSkipped after fired: want ErrAlreadyClaimed, got %v", err)
	}
	if lst, err := s.Reminders().Due(ctx, fireAt); err != nil || len(lst) != 0 {
		t.Fatalf("Due after fired: n=%d err=%v", len(lst), err)
	}

	// Re-planning removes only pending rows.
	rem2, err := s.Reminders().Create(ctx, &model.Reminder{TaskID: task.ID, FireAt: fireAt.Add(time.Minute)})
	if err != nil {
		t.Fatalf("CreateReminder rem2: %v", err)
	}
	if err := s.Reminders().DeletePendingForTask(ctx, task.ID); err != nil {
		t.Fatalf("DeletePendingForTask: %v", err)
	}
	if lst, err := s.Reminders().Due(ctx, fireAt.Add(time.Hour)); err != nil || len(lst) != 0 {
		t.Fatalf("Due after delete: n=%d err=%v", len(lst), err)
	}
	if err := s.Reminders().MarkFired(ctx, rem2.ID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("MarkFired deleted: want ErrNotFound, got %v", err)
	}
}

func runTokens(t *testing.T, ctx context.Context, s store.Store, userID string) {
	t.Helper()

	if _, err := s.Tokens().Get(ctx, userID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("Tokens.Get empty: want ErrNotFound, got %v", err)
	}
	tok := &oauth2.Token{AccessToken: "at-1", RefreshToken: "rt-1", Expiry: time.Now().Add(time.Hour).UTC()}
	if err := s.Tokens().Save(ctx, userID, tok); err != nil {
		t.Fatalf("Tokens.Save: %v", err)
	}
	got, err := s.Tokens().Get(ctx, userID)
	if err != nil || got.AccessToken != "at-1" || got.RefreshToken != "rt-1" {
		t.Fatalf("Tokens.Get: got=%+v err=%v", got, err)
	}
	tok.AccessToken = "at-2"
	if err := s.Tokens().Save(ctx, userID, tok); err != nil {
		t.Fatalf("Tokens.Save upsert: %v", err)
	}
	got, err = s.Tokens().Get(ctx, userID)
	if err != nil || got.AccessToken != "at-2" {
		t.Fatalf("Tokens.Get after upsert: got=%+v err=%v", got, err)
	}
}
