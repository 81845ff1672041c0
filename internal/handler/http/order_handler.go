package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/siriwatk/bookstore-backend/internal/order"
)

type CreateIntentRequest struct {
	ShippingDetails ShippingDetailsPayload `json:"shipping_details" validate:"required"`
}

type ShippingDetailsPayload struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone" validate:"required"`
	Address string `json:"address" validate:"required"`
}

type CreateIntentResponse struct {
	ClientSecret string `json:"client_secret"`
}

type OrderHandler struct {
	reconciler order.Reconciler
	service    order.Service
	validate   *validator.Validate
}

func NewOrderHandler(reconciler order.Reconciler, service order.Service) *OrderHandler {
	return &OrderHandler{
		reconciler: reconciler,
		service:    service,
		validate:   validator.New(),
	}
}

// HandleCreateIntent prices the caller's cart and opens a payment intent with
// the gateway. The returned client secret drives the out-of-band payment step.
func (h *OrderHandler) HandleCreateIntent(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CreateIntentRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	clientSecret, err := h.reconciler.CreateIntent(r.Context(), principal.UserID, order.ShippingDetails{
		Name:    req.ShippingDetails.Name,
		Phone:   req.ShippingDetails.Phone,
		Address: req.ShippingDetails.Address,
	})
	if err != nil {
		switch {
		case errors.Is(err, order.ErrCartEmpty):
			respondWithError(w, http.StatusBadRequest, "Cart is empty")
		case errors.Is(err, order.ErrMissingShippingDetails):
			respondWithError(w, http.StatusBadRequest, "Shipping details are required")
		default:
			log.Error().Err(err).Msg("Failed to create payment intent")
			respondWithError(w, http.StatusInternalServerError, "Payment intent creation failed")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, CreateIntentResponse{ClientSecret: clientSecret})
}

// HandleGetOrderByIntent is the client-side polling endpoint: 404 until the
// reconciler has converted the confirmed payment into an order.
func (h *OrderHandler) HandleGetOrderByIntent(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	paymentIntentID := chi.URLParam(r, "paymentIntentID")
	if paymentIntentID == "" {
		respondWithError(w, http.StatusBadRequest, "Payment intent id is required")
		return
	}

	orderID, err := h.service.GetOrderIDByPaymentIntent(r.Context(), principal.UserID, paymentIntentID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			respondWithError(w, http.StatusNotFound, "Order not found yet")
			return
		}
		log.Error().Err(err).Msg("Failed to get order by payment intent")
		respondWithError(w, http.StatusInternalServerError, "Failed to get order")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]uuid.UUID{"order_id": orderID})
}

func (h *OrderHandler) HandleListUserOrders(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	orders, err := h.service.ListUserOrders(r.Context(), principal.UserID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list user orders")
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch orders")
		return
	}

	respondWithJSON(w, http.StatusOK, orders)
}
