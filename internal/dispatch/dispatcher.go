// Package dispatch executes due scheduled calls and task reminders.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/callward/callward/internal/model"
	"github.com/callward/callward/internal/store"
	"github.com/callward/callward/internal/voice"
)

// VariableSource builds the dynamic variables for a user's recurring call
// prompt (name, today's schedule, free slots).
type VariableSource interface {
	CallVariables(ctx context.Context, user *model.User) (map[string]string, error)
}

// Dispatcher drives the claim-then-execute lifecycle for calls and reminders.
// A record is claimed with a guarded store transition before any side effect;
// a lost claim race is a no-op. Every successful claim ends in a terminal
// transition, completed or failed.
type Dispatcher struct {
	store     store.Store
	dialer    voice.Dialer
	vars      VariableSource
	tolerance time.Duration
	log       zerolog.Logger
}

// NewDispatcher builds a Dispatcher. tolerance bounds how far a reminder's
// planned fire time may drift from the task's current schedule before the
// reminder is treated as stale.
func NewDispatcher(s store.Store, dialer voice.Dialer, vars VariableSource, tolerance time.Duration, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		store:     s,
		dialer:    dialer,
		vars:      vars,
		tolerance: tolerance,
		log:       log.With().Str("component", "dispatcher").Logger(),
	}
}

// ExecuteCall claims and places one scheduled call. A claim lost to a
// concurrent worker returns nil without side effects.
func (d *Dispatcher) ExecuteCall(ctx context.Context, call *model.ScheduledCall) error {
	if err := d.store.Calls().Claim(ctx, model.CallClaim{CallID: call.ID}); err != nil {
		if errors.Is(err, model.ErrAlreadyClaimed) || errors.Is(err, model.ErrNotFound) {
			d.log.Debug().Str("call_id", call.ID).Msg("call already claimed, skipping")
			return nil
		}
		return fmt.Errorf("claim call %s: %w", call.ID, err)
	}

	user, err := d.store.Users().Get(ctx, call.UserID)
	if err != nil {
		return d.failCall(ctx, call.ID, fmt.Errorf("load user %s: %w", call.UserID, err))
	}
	if user.PhoneNumber == nil {
		return d.failCall(ctx, call.ID, fmt.Errorf("user %s has no phone number", call.UserID))
	}

	vars, err := d.vars.CallVariables(ctx, user)
	if err != nil {
		d.log.Warn().Err(err).Str("user_id", user.UserID).Msg("call variables unavailable, placing call without schedule context")
		vars = map[string]string{}
	}

	res, err := d.dialer.PlaceCall(ctx, *user.PhoneNumber, vars)
	if err != nil {
		return d.failCall(ctx, call.ID, fmt.Errorf("place call: %w", err))
	}

	if err := d.store.Calls().Complete(ctx, model.CallCompletion{
		CallID:         call.ID,
		CallSID:        res.CallSID,
		ConversationID: res.ConversationID,
	}); err != nil {
		return fmt.Errorf("complete call %s: %w", call.ID, err)
	}

	d.log.Info().Str("call_id", call.ID).Str("conversation_id", res.ConversationID).Msg("call dispatched")
	return nil
}

// ExecuteReminder fires one due reminder. The reminder is re-validated against
// the task's current schedule first: if the task moved, was completed, or is
// gone, the reminder is marked skipped and the task is untouched.
func (d *Dispatcher) ExecuteReminder(ctx context.Context, rem *model.Reminder) error {
	task, err := d.store.Tasks().Get(ctx, rem.TaskID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			d.log.Debug().Str("reminder_id", rem.ID).Str("task_id", rem.TaskID).Msg("task gone, skipping reminder")
			return d.store.Reminders().MarkSkipped(ctx, rem.ID)
		}
		return fmt.Errorf("load task %s: %w", rem.TaskID, err)
	}

	if task.Status != model.TaskStatusScheduled {
		d.log.Debug().Str("reminder_id", rem.ID).Str("task_status", string(task.Status)).Msg("task no longer scheduled, skipping reminder")
		return d.store.Reminders().MarkSkipped(ctx, rem.ID)
	}

	expected := task.Due.Add(-time.Duration(task.ReminderMinutesBefore) * time.Minute)
	if drift := absDuration(expected.Sub(rem.FireAt)); drift > d.tolerance {
		d.log.Info().
			Str("reminder_id", rem.ID).
			Str("task_id", task.ID).
			Dur("drift", drift).
			Msg("task schedule moved since reminder was planned, skipping")
		return d.store.Reminders().MarkSkipped(ctx, rem.ID)
	}

	if err := d.store.Tasks().Claim(ctx, model.TaskClaim{TaskID: task.ID}); err != nil {
		if errors.Is(err, model.ErrAlreadyClaimed) || errors.Is(err, model.ErrNotFound) {
			d.log.Debug().Str("task_id", task.ID).Msg("task already claimed, skipping reminder")
			return d.store.Reminders().MarkSkipped(ctx, rem.ID)
		}
		return fmt.Errorf("claim task %s: %w", task.ID, err)
	}

	if task.UserID == nil {
		return d.failReminder(ctx, rem.ID, task.ID, fmt.Errorf("task %s has no user", task.ID))
	}
	user, err := d.store.Users().Get(ctx, *task.UserID)
	if err != nil {
		return d.failReminder(ctx, rem.ID, task.ID, fmt.Errorf("load user %s: %w", *task.UserID, err))
	}
	if user.PhoneNumber == nil {
		return d.failReminder(ctx, rem.ID, task.ID, fmt.Errorf("user %s has no phone number", user.UserID))
	}

	res, err := d.dialer.PlaceCall(ctx, *user.PhoneNumber, taskVariables(task, user))
	if err != nil {
		return d.failReminder(ctx, rem.ID, task.ID, fmt.Errorf("place call: %w", err))
	}

	if err := d.store.Tasks().SetCallInfo(ctx, model.TaskCallInfo{
		TaskID:         task.ID,
		CallSID:        res.CallSID,
		ConversationID: res.ConversationID,
	}); err != nil {
		return fmt.Errorf("record call info for task %s: %w", task.ID, err)
	}
	if err := d.store.Reminders().MarkFired(ctx, rem.ID); err != nil {
		return fmt.Errorf("mark reminder %s fired: %w", rem.ID, err)
	}

	d.log.Info().Str("task_id", task.ID).Str("conversation_id", res.ConversationID).Msg("reminder call dispatched")
	return nil
}

func (d *Dispatcher) failCall(ctx context.Context, callID string, cause error) error {
	if err := d.store.Calls().Fail(ctx, model.CallFailure{CallID: callID, ErrorMessage: cause.Error()}); err != nil {
		d.log.Error().Err(err).Str("call_id", callID).Msg("failed to record call failure")
	}
	return cause
}

func (d *Dispatcher) failReminder(ctx context.Context, reminderID, taskID string, cause error) error {
	if err := d.store.Tasks().Fail(ctx, model.TaskFailure{TaskID: taskID, ErrorMessage: cause.Error()}); err != nil {
		d.log.Error().Err(err).Str("task_id", taskID).Msg("failed to record task failure")
	}
	if err := d.store.Reminders().MarkFailed(ctx, reminderID); err != nil {
		d.log.Error().Err(err).Str("reminder_id", reminderID).Msg("failed to record reminder failure")
	}
	return cause
}

func taskVariables(task *model.Task, user *model.User) map[string]string {
	vars := map[string]string{
		"task_title": task.Title,
		"task_due":   task.Due.Format(time.RFC3339),
	}
	if loc, err := time.LoadLocation(task.TimeZone); err == nil {
		vars["task_due_local"] = task.Due.In(loc).Format("Monday, January 2 at 3:04 PM")
	}
	if user.DisplayName != nil {
		vars["user_name"] = *user.DisplayName
	}
	return vars
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
