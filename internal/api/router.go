package api

import (
	"github.com/gorilla/mux"

	"github.com/callward/callward/internal/api/recovery"
	"github.com/callward/callward/internal/services"
)

// Handlers groups the service dependencies the router wires up.
type Handlers struct {
	Users        *services.UserService
	Availability *services.AvailabilityService
	Calls        *services.CallService
	Tasks        *services.TaskService
	Webhooks     *services.WebhookService
}

// NewRouter creates the HTTP router with all API routes.
func NewRouter(h Handlers) *mux.Router {
	router := mux.NewRouter()
	router.Use(recovery.Middleware)

	healthHandler := NewHealthHandler()
	userHandler := NewUserHandler(h.Users)
	availabilityHandler := NewAvailabilityHandler(h.Availability)
	callHandler := NewCallHandler(h.Calls)
	taskHandler := NewTaskHandler(h.Tasks)
	webhookHandler := NewWebhookHandler(h.Webhooks)

	// Health endpoint
	router.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")

	// User endpoints
	router.HandleFunc("/api/users", userHandler.CreateUser).Methods("POST")
	router.HandleFunc("/api/users/{userId}", userHandler.GetUser).Methods("GET")
	router.HandleFunc("/api/users/{userId}/call-settings", userHandler.UpdateCallSettings).Methods("PATCH")

	// Availability endpoints
	router.HandleFunc("/api/users/{userId}/availability", availabilityHandler.GetAvailability).Methods("GET")
	router.HandleFunc("/api/users/{userId}/availability/check", availabilityHandler.CheckSlot).Methods("POST")

	// Scheduled call endpoints
	router.HandleFunc("/api/users/{userId}/calls", callHandler.ScheduleCall).Methods("POST")
	router.HandleFunc("/api/users/{userId}/calls", callHandler.ListCalls).Methods("GET")
	router.HandleFunc("/api/calls/{callId}", callHandler.GetCall).Methods("GET")
	router.HandleFunc("/api/calls/{callId}/retry", callHandler.RetryCall).Methods("POST")

	// Task endpoints
	router.HandleFunc("/api/users/{userId}/tasks", taskHandler.CreateTask).Methods("POST")
	router.HandleFunc("/api/users/{userId}/tasks", taskHandler.ListTasks).Methods("GET")
	router.HandleFunc("/api/tasks/{taskId}", taskHandler.GetTask).Methods("GET")
	router.HandleFunc("/api/tasks/{taskId}", taskHandler.UpdateTask).Methods("PATCH")
	router.HandleFunc("/api/tasks/{taskId}", taskHandler.DeleteTask).Methods("DELETE")
	router.HandleFunc("/api/tasks/{taskId}/complete", taskHandler.CompleteTask).Methods("POST")

	// Voice provider webhook
	router.HandleFunc("/api/webhooks/voice", webhookHandler.HandleVoiceWebhook).Methods("POST")

	return router
}
