package services

import (
	"context"
	"fmt"
	"time"

	"github.com/callward/callward/internal/model"
	"github.com/callward/callward/internal/store"
)

// CallService manages one-shot scheduled calls.
type CallService struct {
	store store.Store
	now   func() time.Time
}

func NewCallService(s store.Store) *CallService {
	return &CallService{store: s, now: time.Now}
}

// ScheduleCall creates a call for userID at scheduledAt. The time must be in
// the future and the user must have a phone number and a connected calendar.
func (s *CallService) ScheduleCall(ctx context.Context, userID string, scheduledAt time.Time) (*model.ScheduledCall, error) {
	if !scheduledAt.After(s.now()) {
		return nil, fmt.Errorf("%w: scheduled time must be in the future", model.ErrValidation)
	}
	user, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.PhoneNumber == nil {
		return nil, fmt.Errorf("%w: user has no phone number", model.ErrValidation)
	}
	if !user.CalendarConnected {
		return nil, fmt.Errorf("%w: user has no connected calendar", model.ErrValidation)
	}
	return s.store.Calls().Create(ctx, &model.ScheduledCall{
		UserID:      userID,
		ScheduledAt: scheduledAt.UTC(),
	})
}

func (s *CallService) GetCall(ctx context.Context, callID string) (*model.ScheduledCall, error) {
	return s.store.Calls().Get(ctx, callID)
}

func (s *CallService) ListCalls(ctx context.Context, userID string, limit int) ([]*model.ScheduledCall, error) {
	return s.store.Calls().ListByUser(ctx, userID, limit)
}

// RetryCall creates a fresh scheduled record for a failed call with an
// incremented retry count. Failed records themselves never change state.
func (s *CallService) RetryCall(ctx context.Context, callID string, at time.Time) (*model.ScheduledCall, error) {
	call, err := s.store.Calls().Get(ctx, callID)
	if err != nil {
		return nil, err
	}
	if call.Status != model.CallStatusFailed {
		return nil, fmt.Errorf("%w: only failed calls can be retried", model.ErrValidation)
	}
	if at.IsZero() {
		at = s.now()
	}
	return s.store.Calls().Create(ctx, &model.ScheduledCall{
		UserID:      call.UserID,
		ScheduledAt: at.UTC(),
		RetryCount:  call.RetryCount + 1,
	})
}
