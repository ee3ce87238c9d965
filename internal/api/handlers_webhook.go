package api

import (
	"encoding/json"
	"net/http"

	"github.com/callward/callward/internal/api/respond"
	"github.com/callward/callward/internal/services"
	"github.com/callward/callward/internal/voice"
)

type WebhookHandler struct {
	svc *services.WebhookService
}

func NewWebhookHandler(svc *services.WebhookService) *WebhookHandler {
	return &WebhookHandler{svc: svc}
}

// HandleVoiceWebhook handles POST /api/webhooks/voice. The provider retries
// on non-2xx, so processing errors other than bad payloads return 500.
func (h *WebhookHandler) HandleVoiceWebhook(w http.ResponseWriter, r *http.Request) {
	var ev voice.WebhookEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}

	if err := h.svc.HandlePostCall(r.Context(), ev); err != nil {
		respond.WriteServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
