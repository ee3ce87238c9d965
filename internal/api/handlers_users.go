// Package api contains the HTTP handlers and router for the Callward REST
// surface.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/callward/callward/internal/api/respond"
	"github.com/callward/callward/internal/api/validate"
	"github.com/callward/callward/internal/model"
	"github.com/callward/callward/internal/services"
)

type UserHandler struct {
	svc *services.UserService
}

func NewUserHandler(svc *services.UserService) *UserHandler { return &UserHandler{svc: svc} }

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in struct {
		UserID      string  `json:"userId"`
		Email       string  `json:"email"`
		DisplayName *string `json:"displayName,omitempty"`
		TimeZone    string  `json:"timeZone"`
		PhoneNumber *string `json:"phoneNumber,omitempty"`
		CallTime    *string `json:"callTime,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	if err := validate.CreateUser(in.Email, in.TimeZone, in.DisplayName, in.PhoneNumber); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if in.CallTime != nil {
		if err := validate.CallTime(*in.CallTime); err != nil {
			respond.WriteBadRequest(w, err.Error())
			return
		}
	}

	out, err := h.svc.CreateUser(r.Context(), &model.User{
		UserID:      in.UserID,
		Email:       in.Email,
		DisplayName: in.DisplayName,
		TimeZone:    in.TimeZone,
		PhoneNumber: in.PhoneNumber,
		CallTime:    in.CallTime,
	})
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	if userID == "" {
		respond.WriteBadRequest(w, "userId required")
		return
	}
	u, err := h.svc.GetUser(r.Context(), userID)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, u)
}

// UpdateCallSettings handles PATCH /api/users/{userId}/call-settings.
func (h *UserHandler) UpdateCallSettings(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	var in model.CallSettings
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	if err := validate.CallSettings(in.PhoneNumber, in.CallTime, in.TimeZone); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	u, err := h.svc.UpdateCallSettings(r.Context(), userID, in)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, u)
}
