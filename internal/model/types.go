package model

import "time"

// User represents an account in the system.
type User struct {
	UserID            string     `json:"userId"`
	Email             string     `json:"email"`
	DisplayName       *string    `json:"displayName,omitempty"`
	TimeZone          string     `json:"timeZone"`
	PhoneNumber       *string    `json:"phoneNumber,omitempty"`
	CallTime          *string    `json:"callTime,omitempty"` // "HH:MM" in the user's zone
	CalendarID        *string    `json:"calendarId,omitempty"`
	CalendarConnected bool       `json:"calendarConnected"`
	Status            string     `json:"status"`
	CreationTime      time.Time  `json:"creationTime"`
	LastActiveTime    *time.Time `json:"lastActiveTime,omitempty"`
}

// CallSettings carries the mutable recurring-call preferences for a user.
type CallSettings struct {
	PhoneNumber       *string `json:"phoneNumber,omitempty"`
	CallTime          *string `json:"callTime,omitempty"`
	TimeZone          *string `json:"timeZone,omitempty"`
	CalendarID        *string `json:"calendarId,omitempty"`
	CalendarConnected *bool   `json:"calendarConnected,omitempty"`
}

// EventTime is a calendar event boundary: either a timestamp with offset or a
// date-only value for all-day events.
type EventTime struct {
	DateTime *time.Time `json:"dateTime,omitempty"`
	Date     string     `json:"date,omitempty"` // "2006-01-02"
	TimeZone string     `json:"timeZone,omitempty"`
}

// IsDateOnly reports whether the boundary carries a date with no time of day.
func (t EventTime) IsDateOnly() bool { return t.DateTime == nil && t.Date != "" }

// Calendar event status and transparency values as the provider reports them.
const (
	EventStatusConfirmed = "confirmed"
	EventStatusTentative = "tentative"
	EventStatusCancelled = "cancelled"

	TransparencyOpaque      = "opaque"
	TransparencyTransparent = "transparent"
)

// CalendarEvent is a raw event from the calendar provider.
type CalendarEvent struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  *string   `json:"description,omitempty"`
	Location     *string   `json:"location,omitempty"`
	Start        EventTime `json:"start"`
	End          EventTime `json:"end"`
	Status       string    `json:"status"`
	Transparency string    `json:"transparency"` // empty is treated as opaque
	Visibility   string    `json:"visibility,omitempty"`
}

// BusyPeriod is a concrete interval during which the user is unavailable.
type BusyPeriod struct {
	EventID  string    `json:"eventId"`
	Title    string    `json:"title"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	AllDay   bool      `json:"isAllDay"`
	Location *string   `json:"location,omitempty"`
}

// FreeSlot is an open interval within a query window, at least the minimum
// slot duration long.
type FreeSlot struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationMinutes int       `json:"durationMinutes"`
	BusinessHours   bool      `json:"isBusinessHours,omitempty"`
}

// CallStatus is the lifecycle state of a scheduled call.
type CallStatus string

const (
	CallStatusScheduled  CallStatus = "scheduled"
	CallStatusInProgress CallStatus = "in_progress"
	CallStatusCompleted  CallStatus = "completed"
	CallStatusFailed     CallStatus = "failed"
)

// ScheduledCall is a one-shot call dispatch record. It is created in
// "scheduled", enters "in_progress" exactly once, and terminates in
// "completed" or "failed". It never returns to "scheduled"; retries are new
// records with an incremented RetryCount.
type ScheduledCall struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	ScheduledAt    time.Time  `json:"scheduledAtUtc"`
	Status         CallStatus `json:"status"`
	RetryCount     int        `json:"retryCount"`
	ErrorMessage   *string    `json:"errorMessage,omitempty"`
	CallSID        *string    `json:"callSid,omitempty"`
	ConversationID *string    `json:"conversationId,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskStatusScheduled TaskStatus = "scheduled"
	TaskStatusCalling   TaskStatus = "calling"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusCancelled TaskStatus = "cancelled"
	TaskStatusFailed    TaskStatus = "failed"
)

// Task is a user-created item with a reminder call placed ahead of its due
// time. A task owns at most one pending reminder, scheduled at
// Due - ReminderMinutesBefore.
type Task struct {
	ID                    string     `json:"id"`
	UserID                *string    `json:"userId,omitempty"`
	Title                 string     `json:"title"`
	Due                   time.Time  `json:"due"`
	TimeZone              string     `json:"timezone"`
	Status                TaskStatus `json:"status"`
	ReminderMinutesBefore int        `json:"reminderMinutesBefore"`
	CallSID               *string    `json:"callSid,omitempty"`
	ConversationID        *string    `json:"conversationId,omitempty"`
	Source                string     `json:"source"`
	ErrorMessage          *string    `json:"errorMessage,omitempty"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

// ReminderStatus is the lifecycle state of a planned reminder fire.
type ReminderStatus string

const (
	ReminderStatusPending ReminderStatus = "pending"
	ReminderStatusFired   ReminderStatus = "fired"
	ReminderStatusSkipped ReminderStatus = "skipped"
	ReminderStatusFailed  ReminderStatus = "failed"
)

// Reminder is the durable "run at time T" row for a task. The dispatch worker
// polls pending reminders whose FireAt has arrived and re-validates against
// the task's current due time before claiming.
type Reminder struct {
	ID        string         `json:"id"`
	TaskID    string         `json:"taskId"`
	FireAt    time.Time      `json:"fireAt"`
	Status    ReminderStatus `json:"status"`
	CreatedAt time.Time      `json:"createdAt"`
}

// ToolInvocation is a structured tool call lifted out of a conversation
// transcript. It is never persisted; it exists only during post-call
// processing.
type ToolInvocation struct {
	RequestID      string                 `json:"requestId"`
	ToolName       string                 `json:"toolName"`
	RawParams      string                 `json:"rawParams"`
	Params         map[string]interface{} `json:"parsedParams,omitempty"`
	MessageIndex   int                    `json:"messageIndex"`
	CallIndex      int                    `json:"callIndex"`
	TimeInCallSecs float64                `json:"timeInCallSecs"`
}
