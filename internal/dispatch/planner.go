package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/callward/callward/internal/model"
	"github.com/callward/callward/internal/store"
)

// Planner maintains the single pending reminder for a task.
type Planner struct {
	store store.Store
	log   zerolog.Logger
}

// NewPlanner builds a Planner.
func NewPlanner(s store.Store, log zerolog.Logger) *Planner {
	return &Planner{store: s, log: log.With().Str("component", "reminder_planner").Logger()}
}

// Plan replaces any pending reminder for the task with one at
// due - reminderMinutesBefore. A fire time already in the past still gets a
// row; the next poll picks it up immediately.
func (p *Planner) Plan(ctx context.Context, task *model.Task) (*model.Reminder, error) {
	if err := p.store.Reminders().DeletePendingForTask(ctx, task.ID); err != nil {
		return nil, fmt.Errorf("clear pending reminders for task %s: %w", task.ID, err)
	}

	fireAt := task.Due.Add(-time.Duration(task.ReminderMinutesBefore) * time.Minute)
	rem, err := p.store.Reminders().Create(ctx, &model.Reminder{
		TaskID: task.ID,
		FireAt: fireAt,
	})
	if err != nil {
		return nil, fmt.Errorf("create reminder for task %s: %w", task.ID, err)
	}

	p.log.Debug().Str("task_id", task.ID).Time("fire_at", fireAt).Msg("reminder planned")
	return rem, nil
}

// Cancel removes any pending reminder for the task. Fired and skipped rows
// are history and stay.
func (p *Planner) Cancel(ctx context.Context, taskID string) error {
	return p.store.Reminders().DeletePendingForTask(ctx, taskID)
}
