package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/courseloop/academy-server-go/internal/middleware"
	"github.com/courseloop/academy-server-go/internal/service"
)

type WebhookHandler struct {
	webhookService *service.WebhookService
}

func NewWebhookHandler(webhookService *service.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhookService: webhookService}
}

func (h *WebhookHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/commerce", h.Commerce)
	return r
}

// Commerce ingests one purchase delivery. The signature middleware has
// already authenticated the body when a secret is configured.
func (h *WebhookHandler) Commerce(w http.ResponseWriter, r *http.Request) {
	raw := middleware.GetRawBody(r.Context())
	if raw == nil {
		var err error
		raw, err = io.ReadAll(r.Body)
		if err != nil {
			log.Error().Err(err).Msg("commerce webhook: failed to read body")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to read request body"})
			return
		}
	}

	var event service.PurchaseEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		log.Warn().Err(err).Msg("commerce webhook: invalid JSON body")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON body"})
		return
	}

	result, err := h.webhookService.ProcessPurchase(r.Context(), event, raw)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
