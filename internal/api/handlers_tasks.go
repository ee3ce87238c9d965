package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/callward/callward/internal/api/respond"
	"github.com/callward/callward/internal/api/validate"
	"github.com/callward/callward/internal/model"
	"github.com/callward/callward/internal/services"
)

type TaskHandler struct {
	svc *services.TaskService
}

func NewTaskHandler(svc *services.TaskService) *TaskHandler { return &TaskHandler{svc: svc} }

// CreateTask handles POST /api/users/{userId}/tasks.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	var in struct {
		Title                 string    `json:"title"`
		Due                   time.Time `json:"due"`
		TimeZone              string    `json:"timezone"`
		ReminderMinutesBefore int       `json:"reminderMinutesBefore"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	if err := validate.CreateTask(in.Title, in.Due, in.TimeZone); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	task, err := h.svc.CreateTask(r.Context(), &model.Task{
		UserID:                &userID,
		Title:                 in.Title,
		Due:                   in.Due,
		TimeZone:              in.TimeZone,
		ReminderMinutesBefore: in.ReminderMinutesBefore,
	})
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, task)
}

// ListTasks handles GET /api/users/{userId}/tasks.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	tasks, err := h.svc.ListTasks(r.Context(), userID, limit)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"tasks": tasks,
		"count": len(tasks),
	})
}

// GetTask handles GET /api/tasks/{taskId}.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.svc.GetTask(r.Context(), mux.Vars(r)["taskId"])
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, task)
}

// UpdateTask handles PATCH /api/tasks/{taskId}.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Title                 *string    `json:"title,omitempty"`
		Due                   *time.Time `json:"due,omitempty"`
		TimeZone              *string    `json:"timezone,omitempty"`
		ReminderMinutesBefore *int       `json:"reminderMinutesBefore,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	if in.Title != nil {
		if err := validate.Title(*in.Title); err != nil {
			respond.WriteBadRequest(w, err.Error())
			return
		}
	}
	if in.TimeZone != nil {
		if err := validate.TimeZone(*in.TimeZone); err != nil {
			respond.WriteBadRequest(w, err.Error())
			return
		}
	}

	task, err := h.svc.UpdateTask(r.Context(), model.TaskReschedule{
		TaskID:                mux.Vars(r)["taskId"],
		Title:                 in.Title,
		Due:                   in.Due,
		TimeZone:              in.TimeZone,
		ReminderMinutesBefore: in.ReminderMinutesBefore,
	})
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, task)
}

// CompleteTask handles POST /api/tasks/{taskId}/complete.
func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["taskId"]
	if err := h.svc.CompleteTask(r.Context(), taskID); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	task, err := h.svc.GetTask(r.Context(), taskID)
	if err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, task)
}

// DeleteTask handles DELETE /api/tasks/{taskId}.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteTask(r.Context(), mux.Vars(r)["taskId"]); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
