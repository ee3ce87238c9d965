package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/callward/callward/internal/dispatch"
	"github.com/callward/callward/internal/model"
	"github.com/callward/callward/internal/store"
	"github.com/callward/callward/internal/transcript"
	"github.com/callward/callward/internal/voice"
)

// CreateTaskTool is the tool name the voice agent uses to capture tasks
// during a call.
const CreateTaskTool = "create_task"

// WebhookService processes post-call webhooks: it records the call outcome
// on the task that triggered the call, then lifts any tasks the user dictated
// during the conversation out of the transcript.
type WebhookService struct {
	store   store.Store
	planner *dispatch.Planner
	now     func() time.Time
	log     zerolog.Logger
}

func NewWebhookService(s store.Store, planner *dispatch.Planner, log zerolog.Logger) *WebhookService {
	return &WebhookService{
		store:   s,
		planner: planner,
		now:     time.Now,
		log:     log.With().Str("component", "webhook_service").Logger(),
	}
}

// HandlePostCall processes one webhook event. Events other than the post-call
// transcript are ignored.
func (s *WebhookService) HandlePostCall(ctx context.Context, ev voice.WebhookEvent) error {
	if !ev.Done() {
		s.log.Debug().Str("type", ev.Type).Msg("ignoring webhook event")
		return nil
	}
	convID := ev.Data.ConversationID
	if convID == "" {
		return fmt.Errorf("%w: webhook event has no conversation id", model.ErrValidation)
	}

	userID, err := s.recordOutcome(ctx, convID, ev.Data.Status)
	if err != nil {
		return err
	}
	if userID == "" {
		s.log.Warn().Str("conversation_id", convID).Msg("webhook for unknown conversation, transcript dropped")
		return nil
	}

	return s.captureTasks(ctx, userID, convID, ev.Data.Transcript)
}

// recordOutcome finds the record behind the conversation and returns its
// user. A reminder call resolves to a task, a daily call to a scheduled call.
func (s *WebhookService) recordOutcome(ctx context.Context, convID, status string) (string, error) {
	task, err := s.store.Tasks().GetByConversationID(ctx, convID)
	switch {
	case err == nil:
		if task.Status == model.TaskStatusCalling {
			if err := s.store.Tasks().Complete(ctx, model.TaskCompletion{TaskID: task.ID}); err != nil && !errors.Is(err, model.ErrAlreadyClaimed) {
				return "", fmt.Errorf("complete task %s: %w", task.ID, err)
			}
		}
		if task.UserID == nil {
			return "", nil
		}
		return *task.UserID, nil
	case !errors.Is(err, model.ErrNotFound):
		return "", fmt.Errorf("look up task by conversation: %w", err)
	}

	call, err := s.store.Calls().GetByConversationID(ctx, convID)
	switch {
	case err == nil:
		return call.UserID, nil
	case errors.Is(err, model.ErrNotFound):
		return "", nil
	default:
		return "", fmt.Errorf("look up call by conversation: %w", err)
	}
}

// captureTasks extracts create_task invocations from the transcript, drops
// duplicates by (title, due), and creates a task plus reminder for each
// survivor.
func (s *WebhookService) captureTasks(ctx context.Context, userID, convID string, turns []transcript.Turn) error {
	invocations := transcript.Extract(CreateTaskTool, turns, s.log)
	if len(invocations) == 0 {
		return nil
	}

	user, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user %s: %w", userID, err)
	}

	seen := make(map[string]bool)
	for _, inv := range invocations {
		title := stringParam(inv.Params, "title")
		dueRaw := stringParam(inv.Params, "due")
		if title == "" || dueRaw == "" {
			s.log.Warn().Str("request_id", inv.RequestID).Msg("create_task invocation missing title or due, skipping")
			continue
		}
		due, err := time.Parse(time.RFC3339, dueRaw)
		if err != nil {
			s.log.Warn().Str("request_id", inv.RequestID).Str("due", dueRaw).Msg("create_task invocation has unparseable due time, skipping")
			continue
		}

		key := title + "|" + due.UTC().Format(time.RFC3339)
		if seen[key] {
			s.log.Debug().Str("request_id", inv.RequestID).Msg("duplicate create_task invocation, skipping")
			continue
		}
		seen[key] = true

		tz := stringParam(inv.Params, "timezone")
		if tz == "" {
			tz = user.TimeZone
		}
		offset := intParam(inv.Params, "reminder_minutes_before")
		if offset <= 0 {
			offset = DefaultReminderMinutes
		}

		task, err := s.store.Tasks().Create(ctx, &model.Task{
			UserID:                &user.UserID,
			Title:                 title,
			Due:                   due,
			TimeZone:              tz,
			ReminderMinutesBefore: offset,
			Source:                "call:" + convID,
		})
		if err != nil {
			return fmt.Errorf("create task from transcript: %w", err)
		}
		if _, err := s.planner.Plan(ctx, task); err != nil {
			return fmt.Errorf("plan reminder for transcript task: %w", err)
		}
		s.log.Info().Str("task_id", task.ID).Str("conversation_id", convID).Msg("task captured from transcript")
	}
	return nil
}

func stringParam(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		switch t := v.(type) {
		case string:
			return t
		}
	}
	return ""
}

func intParam(m map[string]interface{}, key string) int {
	if v, ok := m[key]; ok {
		switch t := v.(type) {
		case float64:
			return int(t)
		case int:
			return t
		}
	}
	return 0
}
