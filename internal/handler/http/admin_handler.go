package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/siriwatk/bookstore-backend/internal/catalog"
	"github.com/siriwatk/bookstore-backend/internal/order"
)

type ProductRequest struct {
	Title       string `json:"title" validate:"required"`
	Author      string `json:"author" validate:"required"`
	Category    string `json:"category" validate:"required"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url" validate:"required"`
	Price       int64  `json:"price" validate:"required,gte=0"`
	OldPrice    *int64 `json:"old_price,omitempty" validate:"omitempty,gte=0"`
	Stock       int    `json:"stock" validate:"gte=0"`
	IsActive    *bool  `json:"is_active,omitempty"`
}

type SetTrackingRequest struct {
	TrackingNumber string `json:"tracking_number" validate:"required"`
}

type AdminHandler struct {
	products catalog.Service
	orders   order.Service
	validate *validator.Validate
}

func NewAdminHandler(products catalog.Service, orders order.Service) *AdminHandler {
	return &AdminHandler{
		products: products,
		orders:   orders,
		validate: validator.New(),
	}
}

func (h *AdminHandler) HandleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListAllProducts(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list products")
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch products")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"products": products})
}

func (h *AdminHandler) HandleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	p := req.toProduct()
	created, err := h.products.CreateProduct(r.Context(), p)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create product")
		respondWithError(w, http.StatusInternalServerError, "Failed to create product")
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]interface{}{"product": created})
}

func (h *AdminHandler) HandleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.FromString(chi.URLParam(r, "productID"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	var req ProductRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	p := req.toProduct()
	p.ID = productID

	if err := h.products.UpdateProduct(r.Context(), p); err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			respondWithError(w, http.StatusNotFound, "Product not found")
			return
		}
		log.Error().Err(err).Msg("Failed to update product")
		respondWithError(w, http.StatusInternalServerError, "Failed to update product")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Product updated"})
}

func (h *AdminHandler) HandleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.FromString(chi.URLParam(r, "productID"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	if err := h.products.DeleteProduct(r.Context(), productID); err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			respondWithError(w, http.StatusNotFound, "Product not found")
			return
		}
		log.Error().Err(err).Msg("Failed to delete product")
		respondWithError(w, http.StatusInternalServerError, "Failed to delete product")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Product deleted"})
}

func (h *AdminHandler) HandleListPaidOrders(w http.ResponseWriter, r *http.Request) {
	h.listByStatus(w, r, order.StatusPaid)
}

func (h *AdminHandler) HandleListShippedOrders(w http.ResponseWriter, r *http.Request) {
	h.listByStatus(w, r, order.StatusShipped)
}

func (h *AdminHandler) listByStatus(w http.ResponseWriter, r *http.Request, status order.OrderStatus) {
	summaries, err := h.orders.ListByStatus(r.Context(), status)
	if err != nil {
		log.Error().Err(err).Stringer("status", status).Msg("Failed to list orders by status")
		respondWithError(w, http.StatusInternalServerError, "Failed to fetch orders")
		return
	}

	respondWithJSON(w, http.StatusOK, summaries)
}

func (h *AdminHandler) HandleGetOrderDetail(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.FromString(chi.URLParam(r, "orderID"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	detail, err := h.orders.GetOrderDetail(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			respondWithError(w, http.StatusNotFound, "Order not found")
			return
		}
		log.Error().Err(err).Msg("Failed to get order detail")
		respondWithError(w, http.StatusInternalServerError, "Failed to get order detail")
		return
	}

	respondWithJSON(w, http.StatusOK, detail)
}

// HandleSetTracking records the parcel number and moves the order from paid
// to shipped in one step.
func (h *AdminHandler) HandleSetTracking(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.FromString(chi.URLParam(r, "orderID"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid order id")
		return
	}

	var req SetTrackingRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	if err := h.orders.ShipOrder(r.Context(), orderID, req.TrackingNumber); err != nil {
		switch {
		case errors.Is(err, order.ErrOrderNotFound):
			respondWithError(w, http.StatusNotFound, "Order not found")
		case errors.Is(err, order.ErrInvalidStatusTransition):
			respondWithError(w, http.StatusConflict, "Order cannot be shipped from its current status")
		default:
			log.Error().Err(err).Msg("Failed to set tracking number")
			respondWithError(w, http.StatusInternalServerError, "Failed to update tracking number")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Order has been marked as shipped"})
}

func (h *AdminHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.orders.Dashboard(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to load dashboard summary")
		respondWithError(w, http.StatusInternalServerError, "Failed to get summary")
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}

func (h *AdminHandler) HandleRecentOrders(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.orders.ListRecent(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list recent orders")
		respondWithError(w, http.StatusInternalServerError, "Failed to get recent orders")
		return
	}

	respondWithJSON(w, http.StatusOK, summaries)
}

func (req *ProductRequest) toProduct() *catalog.Product {
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	return &catalog.Product{
		Title:       req.Title,
		Author:      req.Author,
		Category:    req.Category,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Price:       req.Price,
		OldPrice:    req.OldPrice,
		Stock:       req.Stock,
		IsActive:    isActive,
	}
}
