package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/siriwatk/bookstore-backend/internal/cart"
)

type AddCartItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid4"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

type SetCartQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

type CartHandler struct {
	service  cart.Service
	validate *validator.Validate
}

func NewCartHandler(service cart.Service) *CartHandler {
	return &CartHandler{service: service, validate: validator.New()}
}

func (h *CartHandler) HandleListItems(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	items, err := h.service.ListItems(r.Context(), principal.UserID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list cart items")
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch cart")
		return
	}

	respondWithJSON(w, http.StatusOK, items)
}

func (h *CartHandler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req AddCartItemRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	productID, err := uuid.FromString(req.ProductID)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	if err := h.service.AddItem(r.Context(), principal.UserID, productID, req.Quantity); err != nil {
		h.respondCartError(w, err, "Failed to add cart item")
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]string{"message": "Item added to cart"})
}

func (h *CartHandler) HandleSetQuantity(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	productID, err := uuid.FromString(chi.URLParam(r, "productID"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	var req SetCartQuantityRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	if err := h.service.SetQuantity(r.Context(), principal.UserID, productID, req.Quantity); err != nil {
		h.respondCartError(w, err, "Failed to update cart item")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Cart item updated"})
}

func (h *CartHandler) HandleRemoveItem(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	productID, err := uuid.FromString(chi.URLParam(r, "productID"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	if err := h.service.RemoveItem(r.Context(), principal.UserID, productID); err != nil {
		h.respondCartError(w, err, "Failed to remove cart item")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Cart item removed"})
}

func (h *CartHandler) respondCartError(w http.ResponseWriter, err error, fallback string) {
	code := mapErrorToStatusCode(err)
	switch {
	case errors.Is(err, cart.ErrProductNotFound):
		respondWithError(w, code, "Product not found")
	case errors.Is(err, cart.ErrItemNotInCart):
		respondWithError(w, code, "Item not found in cart")
	case errors.Is(err, cart.ErrStockExceeded):
		respondWithError(w, code, "Not enough product in stock")
	case errors.Is(err, cart.ErrInvalidQuantity):
		respondWithError(w, code, "Invalid quantity")
	default:
		log.Error().Err(err).Msg(fallback)
		respondWithError(w, code, fallback)
	}
}
