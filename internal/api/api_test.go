package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/callward/callward/internal/availability"
	"github.com/callward/callward/internal/dispatch"
	"github.com/callward/callward/internal/model"
	"github.com/callward/callward/internal/services"
	sqlitestore "github.com/callward/callward/internal/store/sqlite"
)

type stubProvider struct {
	events []model.CalendarEvent
}

func (p *stubProvider) ListEvents(_ context.Context, _ string, _, _ time.Time) ([]model.CalendarEvent, error) {
	return p.events, nil
}

func newTestServer(t *testing.T, provider *stubProvider) *httptest.Server {
	t.Helper()
	db, err := sqlitestore.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	st, err := sqlitestore.NewWithDB(db)
	require.NoError(t, err)

	log := zerolog.Nop()
	planner := dispatch.NewPlanner(st, log)
	router := NewRouter(Handlers{
		Users: services.NewUserService(st),
		Availability: services.NewAvailabilityService(st, provider, 15*time.Minute,
			availability.BusinessHours{StartHour: 9, EndHour: 17}, log),
		Calls:    services.NewCallService(st),
		Tasks:    services.NewTaskService(st, planner, log),
		Webhooks: services.NewWebhookService(st, planner, log),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body interface{}, out interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func createTestUser(t *testing.T, srv *httptest.Server) model.User {
	t.Helper()
	var user model.User
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/users", map[string]interface{}{
		"userId":      "u_test",
		"email":       "ada@example.com",
		"displayName": "Ada",
		"timeZone":    "America/New_York",
		"phoneNumber": "+15551230000",
		"callTime":    "08:00",
	}, &user)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return user
}

func connectCalendar(t *testing.T, srv *httptest.Server, userID string) {
	t.Helper()
	connected := true
	resp := doJSON(t, http.MethodPatch, srv.URL+"/api/users/"+userID+"/call-settings",
		model.CallSettings{CalendarConnected: &connected}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUserLifecycle(t *testing.T) {
	srv := newTestServer(t, &stubProvider{})
	user := createTestUser(t, srv)
	assert.Equal(t, "ada@example.com", user.Email)
	require.NotNil(t, user.PhoneNumber)

	var got model.User
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/users/"+user.UserID, nil, &got)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, user.UserID, got.UserID)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/users/nobody", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateUser_RejectsBadFields(t *testing.T) {
	srv := newTestServer(t, &stubProvider{})
	for name, body := range map[string]map[string]interface{}{
		"bad email": {"email": "not-an-email", "timeZone": "UTC"},
		"bad phone": {"email": "a@b.co", "timeZone": "UTC", "phoneNumber": "555-1234"},
		"bad zone":  {"email": "a@b.co", "timeZone": "Mars/Olympus"},
		"bad time":  {"email": "a@b.co", "timeZone": "UTC", "callTime": "25:00"},
	} {
		resp := doJSON(t, http.MethodPost, srv.URL+"/api/users", body, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, name)
	}
}

func TestAvailabilityEndpoint(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, loc)
	start, end := day.Add(10*time.Hour), day.Add(10*time.Hour+30*time.Minute)

	srv := newTestServer(t, &stubProvider{events: []model.CalendarEvent{{
		ID:     "e1",
		Title:  "standup",
		Status: model.EventStatusConfirmed,
		Start:  model.EventTime{DateTime: &start},
		End:    model.EventTime{DateTime: &end},
	}}})
	user := createTestUser(t, srv)
	connectCalendar(t, srv, user.UserID)

	url := fmt.Sprintf("%s/api/users/%s/availability?start=%s&end=%s",
		srv.URL, user.UserID,
		day.Add(9*time.Hour).Format(time.RFC3339),
		day.Add(12*time.Hour).Format(time.RFC3339))
	var result availability.Result
	resp := doJSON(t, http.MethodGet, url, nil, &result)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, result.Stats.TotalBusyPeriods)
	assert.Equal(t, 2, result.Stats.TotalFreeSlots)

	// Slot check straight through the meeting.
	var check services.SlotCheck
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/users/"+user.UserID+"/availability/check",
		map[string]string{
			"start": start.Format(time.RFC3339),
			"end":   end.Format(time.RFC3339),
		}, &check)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, check.Available)
	require.Len(t, check.Conflicts, 1)
}

func TestAvailability_RequiresConnectedCalendar(t *testing.T) {
	srv := newTestServer(t, &stubProvider{})
	user := createTestUser(t, srv)

	url := fmt.Sprintf("%s/api/users/%s/availability?start=%s&end=%s",
		srv.URL, user.UserID,
		time.Now().Format(time.RFC3339),
		time.Now().Add(time.Hour).Format(time.RFC3339))
	resp := doJSON(t, http.MethodGet, url, nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCallEndpoints(t *testing.T) {
	srv := newTestServer(t, &stubProvider{})
	user := createTestUser(t, srv)
	connectCalendar(t, srv, user.UserID)

	// Past time rejected.
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/users/"+user.UserID+"/calls",
		map[string]interface{}{"scheduledAt": time.Now().Add(-time.Hour)}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var call model.ScheduledCall
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/users/"+user.UserID+"/calls",
		map[string]interface{}{"scheduledAt": time.Now().Add(time.Hour)}, &call)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, model.CallStatusScheduled, call.Status)

	var got model.ScheduledCall
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/calls/"+call.ID, nil, &got)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, call.ID, got.ID)

	var list struct {
		Calls []model.ScheduledCall `json:"calls"`
		Count int                   `json:"count"`
	}
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/users/"+user.UserID+"/calls", nil, &list)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, list.Count)

	// Retry of a non-failed call conflicts with the state machine.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/calls/"+call.ID+"/retry", nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTaskEndpoints(t *testing.T) {
	srv := newTestServer(t, &stubProvider{})
	user := createTestUser(t, srv)

	due := time.Now().UTC().Add(3 * time.Hour).Truncate(time.Second)
	var task model.Task
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/users/"+user.UserID+"/tasks",
		map[string]interface{}{"title": "buy milk", "due": due, "timezone": "UTC"}, &task)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, model.TaskStatusScheduled, task.Status)
	assert.Equal(t, services.DefaultReminderMinutes, task.ReminderMinutesBefore)

	// Patch the due time.
	newDue := due.Add(time.Hour)
	var updated model.Task
	resp = doJSON(t, http.MethodPatch, srv.URL+"/api/tasks/"+task.ID,
		map[string]interface{}{"due": newDue}, &updated)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, updated.Due.Equal(newDue))

	// Complete it.
	var completed model.Task
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/tasks/"+task.ID+"/complete", nil, &completed)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, model.TaskStatusCompleted, completed.Status)

	// Further patches conflict with the terminal state.
	resp = doJSON(t, http.MethodPatch, srv.URL+"/api/tasks/"+task.ID,
		map[string]interface{}{"due": newDue.Add(time.Hour)}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/tasks/"+task.ID, nil, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/tasks/"+task.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestVoiceWebhookEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubProvider{})
	createTestUser(t, srv)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/webhooks/voice", map[string]interface{}{
		"type": "post_call_audio",
		"data": map[string]interface{}{"conversation_id": "conv_x"},
	}, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubProvider{})
	BindServiceHealth(func() bool { return true })
	t.Cleanup(func() { BindServiceHealth(func() bool { return false }) })

	var body map[string]interface{}
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/health", nil, &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
}
