package model

import "time"

// Transition structs expose only the fields legal to mutate in each guarded
// state transition. The store implements each as a single conditional
// read-modify-write so a claim is atomic with respect to the database.

// CallClaim moves a scheduled call from "scheduled" to "in_progress".
type CallClaim struct {
	CallID string
}

// CallCompletion moves a claimed call from "in_progress" to "completed".
type CallCompletion struct {
	CallID         string
	CallSID        string
	ConversationID string
}

// CallFailure moves a claimed call from "in_progress" to "failed".
type CallFailure struct {
	CallID       string
	ErrorMessage string
}

// TaskClaim moves a task from "scheduled" to "calling".
type TaskClaim struct {
	TaskID string
}

// TaskCompletion moves a task from "calling" to "completed". When
// FromScheduled is set the guard also accepts "scheduled", so a user can
// complete a task early; the pending reminder then no-ops on its claim guard.
type TaskCompletion struct {
	TaskID        string
	FromScheduled bool
}

// TaskFailure moves a task from "calling" to "failed".
type TaskFailure struct {
	TaskID       string
	ErrorMessage string
}

// TaskCallInfo attaches provider identifiers to a task in "calling".
type TaskCallInfo struct {
	TaskID         string
	CallSID        string
	ConversationID string
}

// TaskReschedule updates the due time and reminder offset of a task still in
// "scheduled". The caller is responsible for re-planning the reminder.
type TaskReschedule struct {
	TaskID                string
	Title                 *string
	Due                   *time.Time
	TimeZone              *string
	ReminderMinutesBefore *int
}
