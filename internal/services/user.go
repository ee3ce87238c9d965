// Package services implements the use cases behind the HTTP handlers and the
// dispatch worker.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/callward/callward/internal/model"
	"github.com/callward/callward/internal/store"
)

// UserService handles user accounts and their recurring-call settings.
type UserService struct {
	store store.Store
}

func NewUserService(s store.Store) *UserService { return &UserService{store: s} }

func (s *UserService) CreateUser(ctx context.Context, u *model.User) (*model.User, error) {
	if u.Email == "" {
		return nil, fmt.Errorf("%w: email is required", model.ErrValidation)
	}
	if u.TimeZone == "" {
		u.TimeZone = "UTC"
	}
	if _, err := time.LoadLocation(u.TimeZone); err != nil {
		return nil, fmt.Errorf("%w: unknown time zone %q", model.ErrValidation, u.TimeZone)
	}
	return s.store.Users().Create(ctx, u)
}

func (s *UserService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return s.store.Users().Get(ctx, userID)
}

// UpdateCallSettings applies a partial update to the user's recurring-call
// preferences.
func (s *UserService) UpdateCallSettings(ctx context.Context, userID string, settings model.CallSettings) (*model.User, error) {
	if settings.TimeZone != nil {
		if _, err := time.LoadLocation(*settings.TimeZone); err != nil {
			return nil, fmt.Errorf("%w: unknown time zone %q", model.ErrValidation, *settings.TimeZone)
		}
	}
	return s.store.Users().UpdateCallSettings(ctx, userID, settings)
}
