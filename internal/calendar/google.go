package calendar

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	googlecal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/callward/callward/internal/model"
	"github.com/callward/callward/internal/store"
)

// Provider lists a user's calendar events inside a window.
type Provider interface {
	ListEvents(ctx context.Context, userID string, timeMin, timeMax time.Time) ([]model.CalendarEvent, error)
}

// GoogleProvider reads events from the Google Calendar API using per-user
// OAuth tokens. Users with a configured calendar ID read from it; everyone
// else falls back to defaultCalendarID ("primary" normally).
type GoogleProvider struct {
	tokens            *Tokens
	users             store.Users
	defaultCalendarID string
}

func NewGoogleProvider(tokens *Tokens, users store.Users, defaultCalendarID string) *GoogleProvider {
	return &GoogleProvider{tokens: tokens, users: users, defaultCalendarID: defaultCalendarID}
}

// ListEvents fetches single (recurrence-expanded) events overlapping
// [timeMin, timeMax), following pagination.
func (g *GoogleProvider) ListEvents(ctx context.Context, userID string, timeMin, timeMax time.Time) ([]model.CalendarEvent, error) {
	tok, err := g.tokens.Valid(ctx, userID)
	if err != nil {
		return nil, err
	}

	calendarID, err := g.calendarFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	svc, err := googlecal.NewService(ctx, option.WithTokenSource(oauth2.StaticTokenSource(tok)))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}

	var out []model.CalendarEvent
	pageToken := ""
	for {
		call := svc.Events.List(calendarID).
			TimeMin(timeMin.Format(time.RFC3339)).
			TimeMax(timeMax.Format(time.RFC3339)).
			SingleEvents(true).
			OrderBy("startTime").
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		events, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("list events for user %s: %w", userID, err)
		}

		for _, ev := range events.Items {
			out = append(out, mapEvent(ev))
		}

		if events.NextPageToken == "" {
			break
		}
		pageToken = events.NextPageToken
	}
	return out, nil
}

func (g *GoogleProvider) calendarFor(ctx context.Context, userID string) (string, error) {
	u, err := g.users.Get(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("resolve calendar for user %s: %w", userID, err)
	}
	if u.CalendarID != nil && *u.CalendarID != "" {
		return *u.CalendarID, nil
	}
	return g.defaultCalendarID, nil
}

func mapEvent(ev *googlecal.Event) model.CalendarEvent {
	e := model.CalendarEvent{
		ID:           ev.Id,
		Title:        ev.Summary,
		Status:       ev.Status,
		Transparency: ev.Transparency,
		Visibility:   ev.Visibility,
		Start:        mapEventTime(ev.Start),
		End:          mapEventTime(ev.End),
	}
	if ev.Description != "" {
		d := ev.Description
		e.Description = &d
	}
	if ev.Location != "" {
		l := ev.Location
		e.Location = &l
	}
	return e
}

func mapEventTime(t *googlecal.EventDateTime) model.EventTime {
	if t == nil {
		return model.EventTime{}
	}
	et := model.EventTime{Date: t.Date, TimeZone: t.TimeZone}
	if t.DateTime != "" {
		if ts, err := time.Parse(time.RFC3339, t.DateTime); err == nil {
			et.DateTime = &ts
		}
	}
	return et
}
