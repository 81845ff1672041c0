package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/siriwatk/bookstore-backend/internal/auth"
)

const (
	loginRateLimit  = 5
	loginRateWindow = 15 * time.Minute
)

type Handlers struct {
	Auth    *AuthHandler
	Catalog *CatalogHandler
	Cart    *CartHandler
	Order   *OrderHandler
	Admin   *AdminHandler
	Webhook *WebhookHandler
}

// NewRouter wires all routes. The webhook route is mounted without any
// body-touching middleware so signature verification sees the raw payload.
func NewRouter(tokens *auth.TokenManager, h Handlers) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/stripe-webhook", h.Webhook.HandleEvent)

		r.Post("/register", h.Auth.HandleRegister)
		r.With(httprate.LimitByIP(loginRateLimit, loginRateWindow)).Post("/login", h.Auth.HandleLogin)
		r.Post("/refresh", h.Auth.HandleRefresh)
		r.Post("/logout", h.Auth.HandleLogout)

		r.Get("/books", h.Catalog.HandleListBooks)

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(tokens))

			r.Get("/user/auth", h.Auth.HandleAuthInfo)
			r.Get("/profile", h.Auth.HandleGetProfile)
			r.Put("/profile", h.Auth.HandleUpdateProfile)

			r.Get("/cart", h.Cart.HandleListItems)
			r.Post("/cart", h.Cart.HandleAddItem)
			r.Put("/cart/{productID}", h.Cart.HandleSetQuantity)
			r.Delete("/cart/{productID}", h.Cart.HandleRemoveItem)

			r.Post("/payment-intents", h.Order.HandleCreateIntent)
			r.Get("/orders", h.Order.HandleListUserOrders)
			r.Get("/orders/by-payment-intent/{paymentIntentID}", h.Order.HandleGetOrderByIntent)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireAuth(tokens))
			r.Use(RequireAdmin)

			r.Get("/products", h.Admin.HandleListProducts)
			r.Post("/products", h.Admin.HandleCreateProduct)
			r.Put("/products/{productID}", h.Admin.HandleUpdateProduct)
			r.Delete("/products/{productID}", h.Admin.HandleDeleteProduct)

			r.Get("/orders/paid", h.Admin.HandleListPaidOrders)
			r.Get("/orders/shipped", h.Admin.HandleListShippedOrders)
			r.Get("/orders/recent", h.Admin.HandleRecentOrders)
			r.Get("/orders/{orderID}", h.Admin.HandleGetOrderDetail)
			r.Put("/orders/{orderID}/tracking", h.Admin.HandleSetTracking)

			r.Get("/dashboard", h.Admin.HandleDashboard)
		})
	})

	return r
}
