package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/siriwatk/bookstore-backend/internal/auth"
	"github.com/siriwatk/bookstore-backend/internal/cart"
	"github.com/siriwatk/bookstore-backend/internal/catalog"
	"github.com/siriwatk/bookstore-backend/internal/config"
	"github.com/siriwatk/bookstore-backend/internal/db"
	handlerHttp "github.com/siriwatk/bookstore-backend/internal/handler/http"
	"github.com/siriwatk/bookstore-backend/internal/order"
	"github.com/siriwatk/bookstore-backend/internal/payment"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Logger = log.With().Str("service", "bookstore").Logger()

	log.Info().Msg("Bookstore backend starting...")

	cfg, err := config.NewConfig(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	if err := db.ApplyMigrations(cfg.Postgres, "migrations"); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	dbPool, err := db.New(context.Background(), cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)
	gateway := payment.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, cfg.Stripe.Currency)

	authRepo := auth.NewRepository(dbPool.Pool)
	catalogRepo := catalog.NewRepository(dbPool.Pool)
	cartRepo := cart.NewRepository(dbPool.Pool)
	orderRepo := order.NewRepository(dbPool.Pool)

	authSvc := auth.NewService(authRepo, tokens)
	catalogSvc := catalog.NewService(catalogRepo)
	cartSvc := cart.NewService(cartRepo, catalogRepo)
	orderSvc := order.NewService(orderRepo)
	reconciler := order.NewReconciler(orderRepo, cartRepo, gateway)

	router := handlerHttp.NewRouter(tokens, handlerHttp.Handlers{
		Auth:    handlerHttp.NewAuthHandler(authSvc, tokens, cfg.App.CookieSecure),
		Catalog: handlerHttp.NewCatalogHandler(catalogSvc),
		Cart:    handlerHttp.NewCartHandler(cartSvc),
		Order:   handlerHttp.NewOrderHandler(reconciler, orderSvc),
		Admin:   handlerHttp.NewAdminHandler(catalogSvc, orderSvc),
		Webhook: handlerHttp.NewWebhookHandler(gateway, reconciler),
	})

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	dbPool.Close()

	log.Info().Msg("Bookstore backend stopped gracefully")
}
