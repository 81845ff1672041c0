package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/siriwatk/bookstore-backend/internal/order"
	"github.com/siriwatk/bookstore-backend/internal/payment"
)

const signatureHeader = "Stripe-Signature"

// WebhookHandler receives asynchronous payment events from the gateway. It
// must see the raw, unparsed request body: signature verification runs over
// the exact bytes the gateway signed.
type WebhookHandler struct {
	gateway    payment.Gateway
	reconciler order.Reconciler
}

func NewWebhookHandler(gateway payment.Gateway, reconciler order.Reconciler) *WebhookHandler {
	return &WebhookHandler{gateway: gateway, reconciler: reconciler}
}

// HandleEvent acknowledges with 200 on success or idempotent replay, 400 on
// verification failure (no processing, no retry), and 500 on processing
// failure so the gateway redelivers later.
func (h *WebhookHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	conf, err := h.gateway.VerifyEvent(payload, r.Header.Get(signatureHeader))
	if err != nil {
		if errors.Is(err, payment.ErrNotConfirmation) {
			// Verified, but not an event we act on.
			respondWithJSON(w, http.StatusOK, map[string]bool{"received": true})
			return
		}
		log.Warn().Err(err).Msg("Webhook event rejected")
		respondWithError(w, http.StatusBadRequest, "Webhook signature verification failed")
		return
	}

	result, err := h.reconciler.HandleConfirmation(r.Context(), conf)
	if err != nil {
		if errors.Is(err, order.ErrBadEventMetadata) {
			respondWithError(w, http.StatusBadRequest, "Missing user id in event metadata")
			return
		}
		log.Error().Err(err).Str("payment_intent_id", conf.IntentID).Msg("Failed to process confirmation event")
		respondWithError(w, http.StatusInternalServerError, "Failed to process order")
		return
	}

	if result.AlreadyProcessed {
		log.Info().Str("payment_intent_id", conf.IntentID).Msg("Confirmation replay acknowledged")
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"received": true})
}
