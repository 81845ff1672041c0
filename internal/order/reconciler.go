package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/siriwatk/bookstore-backend/internal/cart"
	"github.com/siriwatk/bookstore-backend/internal/payment"
)

var (
	// ErrBadEventMetadata means a verified confirmation carries metadata the
	// reconciler cannot act on (missing or malformed user id). The gateway
	// should not redeliver such an event.
	ErrBadEventMetadata = errors.New("confirmation event metadata is invalid")

	ErrMissingShippingDetails = errors.New("shipping details are required")
)

// ShippingDetails is captured at intent creation and travels to the
// confirmation event as gateway metadata.
type ShippingDetails struct {
	Name    string
	Phone   string
	Address string
}

// ConfirmationResult reports how a confirmation event was settled.
// AlreadyProcessed is true on idempotent replay: no new order, no side
// effects, still a success for the gateway.
type ConfirmationResult struct {
	OrderID          uuid.UUID
	AlreadyProcessed bool
}

// Reconciler owns the checkout-to-order workflow: it prices the cart into a
// payment intent and, on confirmed payment, converts the cart into a durable
// order exactly once.
type Reconciler interface {
	CreateIntent(ctx context.Context, userID uuid.UUID, details ShippingDetails) (clientSecret string, err error)
	HandleConfirmation(ctx context.Context, conf *payment.Confirmation) (*ConfirmationResult, error)
}

type reconciler struct {
	orders  Repository
	carts   cart.Repository
	gateway payment.Gateway
}

func NewReconciler(orders Repository, carts cart.Repository, gateway payment.Gateway) Reconciler {
	return &reconciler{
		orders:  orders,
		carts:   carts,
		gateway: gateway,
	}
}

// CreateIntent computes the cart total and registers an expected charge with
// the payment gateway. No database transaction is held across the gateway
// call.
func (r *reconciler) CreateIntent(ctx context.Context, userID uuid.UUID, details ShippingDetails) (string, error) {
	if details.Name == "" || details.Phone == "" || details.Address == "" {
		return "", ErrMissingShippingDetails
	}

	total, err := r.carts.Total(ctx, userID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("reconciler: failed to compute cart total")
		return "", fmt.Errorf("reconciler: failed to compute cart total: %w", err)
	}
	if total <= 0 {
		return "", ErrCartEmpty
	}

	intent, err := r.gateway.CreateIntent(ctx, total, payment.IntentMetadata{
		UserID:          userID.String(),
		RecipientName:   details.Name,
		RecipientPhone:  details.Phone,
		ShippingAddress: details.Address,
	})
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Int64("amount", total).Msg("reconciler: failed to create payment intent")
		return "", fmt.Errorf("reconciler: failed to create payment intent: %w", err)
	}

	log.Info().Stringer("user_id", userID).Str("payment_intent_id", intent.ID).Int64("amount", total).Msg("reconciler: payment intent created")

	return intent.ClientSecret, nil
}

// HandleConfirmation converts a verified confirmation into an order. The
// caller has already checked the event signature; everything here is
// idempotent with respect to redelivery.
func (r *reconciler) HandleConfirmation(ctx context.Context, conf *payment.Confirmation) (*ConfirmationResult, error) {
	userID, err := uuid.FromString(conf.Metadata.UserID)
	if err != nil || userID == uuid.Nil {
		log.Error().Str("payment_intent_id", conf.IntentID).Str("user_id", conf.Metadata.UserID).Msg("reconciler: confirmation carries no usable user id")
		return nil, fmt.Errorf("%w: user id %q", ErrBadEventMetadata, conf.Metadata.UserID)
	}

	conv := &Conversion{
		PaymentIntentID: conf.IntentID,
		UserID:          userID,
		TotalAmount:     conf.Amount,
		RecipientName:   conf.Metadata.RecipientName,
		RecipientPhone:  conf.Metadata.RecipientPhone,
		ShippingAddress: conf.Metadata.ShippingAddress,
	}

	orderID, err := r.orders.ConvertCartToOrder(ctx, conv)
	if err != nil {
		if errors.Is(err, ErrAlreadyProcessed) {
			log.Info().Str("payment_intent_id", conf.IntentID).Msg("reconciler: confirmation already processed, acknowledging as no-op")
			return &ConfirmationResult{AlreadyProcessed: true}, nil
		}
		log.Error().Err(err).Str("payment_intent_id", conf.IntentID).Stringer("user_id", userID).Msg("reconciler: failed to convert cart to order")
		return nil, fmt.Errorf("reconciler: failed to convert cart to order: %w", err)
	}

	log.Info().Stringer("order_id", orderID).Str("payment_intent_id", conf.IntentID).Stringer("user_id", userID).Msg("reconciler: order created from confirmed payment")

	return &ConfirmationResult{OrderID: orderID}, nil
}
