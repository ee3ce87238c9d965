package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/callward/callward/internal/dispatch"
	"github.com/callward/callward/internal/model"
	"github.com/callward/callward/internal/store"
)

// DefaultReminderMinutes is used when a task arrives without an offset.
const DefaultReminderMinutes = 30

// TaskService manages tasks and keeps each task's pending reminder in step
// with its schedule.
type TaskService struct {
	store   store.Store
	planner *dispatch.Planner
	now     func() time.Time
	log     zerolog.Logger
}

func NewTaskService(s store.Store, planner *dispatch.Planner, log zerolog.Logger) *TaskService {
	return &TaskService{
		store:   s,
		planner: planner,
		now:     time.Now,
		log:     log.With().Str("component", "task_service").Logger(),
	}
}

// CreateTask validates and persists a task, then plans its reminder.
func (s *TaskService) CreateTask(ctx context.Context, task *model.Task) (*model.Task, error) {
	if task.Title == "" {
		return nil, fmt.Errorf("%w: title is required", model.ErrValidation)
	}
	if task.Due.IsZero() || !task.Due.After(s.now()) {
		return nil, fmt.Errorf("%w: due time must be in the future", model.ErrValidation)
	}
	if task.TimeZone == "" {
		task.TimeZone = "UTC"
	}
	if _, err := time.LoadLocation(task.TimeZone); err != nil {
		return nil, fmt.Errorf("%w: unknown time zone %q", model.ErrValidation, task.TimeZone)
	}
	if task.ReminderMinutesBefore < 0 {
		return nil, fmt.Errorf("%w: reminder offset must not be negative", model.ErrValidation)
	}
	if task.ReminderMinutesBefore == 0 {
		task.ReminderMinutesBefore = DefaultReminderMinutes
	}

	created, err := s.store.Tasks().Create(ctx, task)
	if err != nil {
		return nil, err
	}
	if _, err := s.planner.Plan(ctx, created); err != nil {
		return nil, fmt.Errorf("plan reminder: %w", err)
	}
	return created, nil
}

func (s *TaskService) GetTask(ctx context.Context, taskID string) (*model.Task, error) {
	return s.store.Tasks().Get(ctx, taskID)
}

func (s *TaskService) ListTasks(ctx context.Context, userID string, limit int) ([]*model.Task, error) {
	return s.store.Tasks().ListByUser(ctx, userID, limit)
}

// UpdateTask applies a partial update to a task still in "scheduled". A
// change to the due time or reminder offset re-plans the reminder; the old
// pending row is removed and the stale fire time can no longer claim the task.
func (s *TaskService) UpdateTask(ctx context.Context, upd model.TaskReschedule) (*model.Task, error) {
	if upd.Title != nil && *upd.Title == "" {
		return nil, fmt.Errorf("%w: title must not be empty", model.ErrValidation)
	}
	if upd.Due != nil && !upd.Due.After(s.now()) {
		return nil, fmt.Errorf("%w: due time must be in the future", model.ErrValidation)
	}
	if upd.TimeZone != nil {
		if _, err := time.LoadLocation(*upd.TimeZone); err != nil {
			return nil, fmt.Errorf("%w: unknown time zone %q", model.ErrValidation, *upd.TimeZone)
		}
	}
	if upd.ReminderMinutesBefore != nil && *upd.ReminderMinutesBefore < 0 {
		return nil, fmt.Errorf("%w: reminder offset must not be negative", model.ErrValidation)
	}

	task, err := s.store.Tasks().Reschedule(ctx, upd)
	if err != nil {
		return nil, err
	}
	if upd.Due != nil || upd.ReminderMinutesBefore != nil {
		if _, err := s.planner.Plan(ctx, task); err != nil {
			return nil, fmt.Errorf("re-plan reminder: %w", err)
		}
	}
	return task, nil
}

// CompleteTask marks a task done before its reminder fires. The pending
// reminder is removed; a reminder already in flight no-ops on its claim guard.
func (s *TaskService) CompleteTask(ctx context.Context, taskID string) error {
	if err := s.store.Tasks().Complete(ctx, model.TaskCompletion{TaskID: taskID, FromScheduled: true}); err != nil {
		return err
	}
	return s.planner.Cancel(ctx, taskID)
}

// DeleteTask removes a task and its pending reminder.
func (s *TaskService) DeleteTask(ctx context.Context, taskID string) error {
	if err := s.planner.Cancel(ctx, taskID); err != nil {
		return err
	}
	return s.store.Tasks().Delete(ctx, taskID)
}
