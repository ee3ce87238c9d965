package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/callward/callward/internal/api/respond"
	"github.com/callward/callward/internal/services"
)

type CallHandler struct {
	svc *services.CallService
}

func NewCallHandler(svc *services.CallService) *CallHandler { return &CallHandler{svc: svc} }

// ScheduleCall handles POST /api/users/{userId}/calls.
func (h *CallHandler) ScheduleCall(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	var in struct {
		ScheduledAt time.Time `json:"scheduledAt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	if in.ScheduledAt.IsZero() {
		respond.WriteBadRequest(w, "scheduledAt is required")
		return
	}

	call, err := h.svc.ScheduleCall(r.Context(), userID, in.ScheduledAt)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, call)
}

// ListCalls handles GET /api/users/{userId}/calls.
func (h *CallHandler) ListCalls(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	calls, err := h.svc.ListCalls(r.Context(), userID, limit)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"calls": calls,
		"count": len(calls),
	})
}

// GetCall handles GET /api/calls/{callId}.
func (h *CallHandler) GetCall(w http.ResponseWriter, r *http.Request) {
	call, err := h.svc.GetCall(r.Context(), mux.Vars(r)["callId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, call)
}

// RetryCall handles POST /api/calls/{callId}/retry.
func (h *CallHandler) RetryCall(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ScheduledAt time.Time `json:"scheduledAt,omitempty"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			respond.WriteBadRequest(w, "invalid json")
			return
		}
	}

	call, err := h.svc.RetryCall(r.Context(), mux.Vars(r)["callId"], in.ScheduledAt)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, call)
}
