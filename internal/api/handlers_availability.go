package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/callward/callward/internal/api/respond"
	"github.com/callward/callward/internal/services"
)

type AvailabilityHandler struct {
	svc *services.AvailabilityService
}

func NewAvailabilityHandler(svc *services.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{svc: svc}
}

// GetAvailability handles GET /api/users/{userId}/availability.
// Query: start, end (RFC3339, required), timezone (optional override),
// businessHours=true to trim to working hours.
func (h *AvailabilityHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	q := r.URL.Query()

	start, err := time.Parse(time.RFC3339, q.Get("start"))
	if err != nil {
		respond.WriteBadRequest(w, "start must be RFC3339")
		return
	}
	end, err := time.Parse(time.RFC3339, q.Get("end"))
	if err != nil {
		respond.WriteBadRequest(w, "end must be RFC3339")
		return
	}

	result, err := h.svc.ComputeAvailability(r.Context(), userID, services.AvailabilityQuery{
		Start:         start,
		End:           end,
		TimeZone:      q.Get("timezone"),
		BusinessHours: q.Get("businessHours") == "true",
	})
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, result)
}

// CheckSlot handles POST /api/users/{userId}/availability/check.
func (h *AvailabilityHandler) CheckSlot(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	var in struct {
		Start time.Time `json:"start"`
		End   time.Time `json:"end"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}

	check, err := h.svc.IsSlotAvailable(r.Context(), userID, in.Start, in.End)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, check)
}
