package store

import (
	"context"
	"time"

	"golang.org/x/oauth2"

	"github.com/callward/callward/internal/model"
)

// Store exposes persistence operations required by services and the dispatch
// worker. Implementations live under internal/store/<driver>/.
//
// Claim and the other transition methods are guarded: each is a single
// conditional read-modify-write against the database. A failed guard returns
// model.ErrAlreadyClaimed (record exists but already advanced) so callers can
// treat the race as a no-op.
type Store interface {
	Users() Users
	Calls() Calls
	Tasks() Tasks
	Reminders() Reminders
	Tokens() Tokens
}

type Users interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	Get(ctx context.Context, userID string) (*model.User, error)
	UpdateCallSettings(ctx context.Context, userID string, s model.CallSettings) (*model.User, error)
	// ListCallCandidates returns users with a call time, time zone, phone
	// number, and connected calendar all present.
	ListCallCandidates(ctx context.Context) ([]*model.User, error)
}

type Calls interface {
	Create(ctx context.Context, c *model.ScheduledCall) (*model.ScheduledCall, error)
	Get(ctx context.Context, callID string) (*model.ScheduledCall, error)
	GetByConversationID(ctx context.Context, conversationID string) (*model.ScheduledCall, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*model.ScheduledCall, error)
	// Due returns calls still in "scheduled" with scheduledAt inside
	// [from, to).
	Due(ctx context.Context, from, to time.Time) ([]*model.ScheduledCall, error)
	// ExistsForUserBetween reports whether the user has any non-failed call
	// scheduled inside [from, to). Used as the same-day guard for recurring
	// calls.
	ExistsForUserBetween(ctx context.Context, userID string, from, to time.Time) (bool, error)

	Claim(ctx context.Context, t model.CallClaim) error
	Complete(ctx context.Context, t model.CallCompletion) error
	Fail(ctx context.Context, t model.CallFailure) error
}

type Tasks interface {
	Create(ctx context.Context, task *model.Task) (*model.Task, error)
	Get(ctx context.Context, taskID string) (*model.Task, error)
	GetByConversationID(ctx context.Context, conversationID string) (*model.Task, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*model.Task, error)
	Delete(ctx context.Context, taskID string) error

	Claim(ctx context.Context, t model.TaskClaim) error
	Complete(ctx context.Context, t model.TaskCompletion) error
	Fail(ctx context.Context, t model.TaskFailure) error
	SetCallInfo(ctx context.Context, t model.TaskCallInfo) error
	Reschedule(ctx context.Context, t model.TaskReschedule) (*model.Task, error)
}

type Reminders interface {
	Create(ctx context.Context, r *model.Reminder) (*model.Reminder, error)
	// Due returns pending reminders with fireAt <= asOf.
	Due(ctx context.Context, asOf time.Time) ([]*model.Reminder, error)
	// MarkFired, MarkSkipped and MarkFailed are guarded pending-to-terminal
	// transitions.
	MarkFired(ctx context.Context, reminderID string) error
	MarkSkipped(ctx context.Context, reminderID string) error
	MarkFailed(ctx context.Context, reminderID string) error
	DeletePendingForTask(ctx context.Context, taskID string) error
}

// Tokens persists per-user OAuth tokens for the calendar provider.
type Tokens interface {
	Get(ctx context.Context, userID string) (*oauth2.Token, error)
	Save(ctx context.Context, userID string, tok *oauth2.Token) error
}
