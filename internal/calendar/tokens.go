// Package calendar fetches user calendar events from Google Calendar.
package calendar

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/sync/singleflight"

	"github.com/callward/callward/internal/store"
)

// Tokens hands out valid OAuth tokens for users, refreshing expired ones
// through the stored refresh token. Concurrent callers for the same user
// share one refresh.
type Tokens struct {
	cfg   *oauth2.Config
	store store.Tokens

	group singleflight.Group

	mu    sync.Mutex
	cache map[string]*oauth2.Token
}

// NewTokens builds a Tokens backed by st.
func NewTokens(clientID, clientSecret string, st store.Tokens) *Tokens {
	return &Tokens{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"https://www.googleapis.com/auth/calendar.readonly"},
		},
		store: st,
		cache: make(map[string]*oauth2.Token),
	}
}

// Valid returns an unexpired token for userID, refreshing and persisting
// a new one when the cached or stored token has expired.
func (t *Tokens) Valid(ctx context.Context, userID string) (*oauth2.Token, error) {
	t.mu.Lock()
	tok := t.cache[userID]
	t.mu.Unlock()
	if tok != nil && tok.Expiry.After(time.Now().Add(30*time.Second)) {
		return tok, nil
	}

	v, err, _ := t.group.Do(userID, func() (interface{}, error) {
		return t.refresh(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*oauth2.Token), nil
}

func (t *Tokens) refresh(ctx context.Context, userID string) (*oauth2.Token, error) {
	stored, err := t.store.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load token for user %s: %w", userID, err)
	}

	fresh, err := t.cfg.TokenSource(ctx, stored).Token()
	if err != nil {
		return nil, fmt.Errorf("refresh token for user %s: %w", userID, err)
	}

	if fresh.AccessToken != stored.AccessToken {
		if err := t.store.Save(ctx, userID, fresh); err != nil {
			return nil, fmt.Errorf("persist refreshed token for user %s: %w", userID, err)
		}
	}

	t.mu.Lock()
	t.cache[userID] = fresh
	t.mu.Unlock()
	return fresh, nil
}

// Save persists a token (e.g. from the OAuth callback) and primes the cache.
func (t *Tokens) Save(ctx context.Context, userID string, tok *oauth2.Token) error {
	if err := t.store.Save(ctx, userID, tok); err != nil {
		return err
	}
	t.mu.Lock()
	t.cache[userID] = tok
	t.mu.Unlock()
	return nil
}
