package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
)

var ErrInvalidStatusTransition = errors.New("invalid order status transition")

// Status transitions move forward only. Tracking is set exactly once, at the
// shipped transition.
var allowedTransitions = map[OrderStatus]map[OrderStatus]bool{
	StatusPaid: {
		StatusShipped: true,
	},
	StatusShipped: {},
}

// Service covers order lookups and fulfillment. Order creation is the
// Reconciler's job; nothing here writes new orders.
type Service interface {
	GetOrderIDByPaymentIntent(ctx context.Context, userID uuid.UUID, paymentIntentID string) (uuid.UUID, error)
	GetOrderDetail(ctx context.Context, orderID uuid.UUID) (*Order, error)
	ListUserOrders(ctx context.Context, userID uuid.UUID) ([]Order, error)
	ListByStatus(ctx context.Context, status OrderStatus) ([]AdminSummary, error)
	ListRecent(ctx context.Context) ([]AdminSummary, error)
	ShipOrder(ctx context.Context, orderID uuid.UUID, trackingNumber string) error
	Dashboard(ctx context.Context) (*DashboardSummary, error)
}

const recentOrdersLimit = 5

type service struct {
	orders Repository
}

func NewService(orders Repository) Service {
	return &service{orders: orders}
}

func (s *service) GetOrderIDByPaymentIntent(ctx context.Context, userID uuid.UUID, paymentIntentID string) (uuid.UUID, error) {
	orderID, err := s.orders.GetIDByPaymentIntent(ctx, userID, paymentIntentID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return uuid.Nil, ErrOrderNotFound
		}
		log.Error().Err(err).Str("payment_intent_id", paymentIntentID).Msg("service: failed to get order by payment intent")
		return uuid.Nil, fmt.Errorf("service: failed to get order by payment intent: %w", err)
	}

	return orderID, nil
}

func (s *service) GetOrderDetail(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", orderID).Msg("service: failed to get order detail")
		return nil, fmt.Errorf("service: failed to get order detail: %w", err)
	}

	return o, nil
}

func (s *service) ListUserOrders(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	orders, err := s.orders.ListByUserID(ctx, userID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to list user orders")
		return nil, fmt.Errorf("service: failed to list user orders: %w", err)
	}

	return orders, nil
}

func (s *service) ListByStatus(ctx context.Context, status OrderStatus) ([]AdminSummary, error) {
	summaries, err := s.orders.ListByStatus(ctx, status)
	if err != nil {
		log.Error().Err(err).Stringer("status", status).Msg("service: failed to list orders by status")
		return nil, fmt.Errorf("service: failed to list orders by status: %w", err)
	}

	return summaries, nil
}

func (s *service) ListRecent(ctx context.Context) ([]AdminSummary, error) {
	summaries, err := s.orders.ListRecent(ctx, recentOrdersLimit)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list recent orders")
		return nil, fmt.Errorf("service: failed to list recent orders: %w", err)
	}

	return summaries, nil
}

func (s *service) ShipOrder(ctx context.Context, orderID uuid.UUID, trackingNumber string) error {
	current, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		log.Error().Err(err).Stringer("order_id", orderID).Msg("service: failed to get order for shipping")
		return fmt.Errorf("service: failed to get order for shipping: %w", err)
	}

	if !allowedTransitions[current.Status][StatusShipped] {
		log.Warn().
			Stringer("order_id", orderID).
			Stringer("current_status", current.Status).
			Msg("service: invalid status transition attempt")
		return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, current.Status, StatusShipped)
	}

	err = s.orders.UpdateTracking(ctx, orderID, trackingNumber)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			// Status moved between the read and the guarded update.
			return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, current.Status, StatusShipped)
		}
		log.Error().Err(err).Stringer("order_id", orderID).Msg("service: failed to update tracking")
		return fmt.Errorf("service: failed to update tracking: %w", err)
	}

	log.Info().Stringer("order_id", orderID).Str("tracking_number", trackingNumber).Msg("service: order marked as shipped")
	return nil
}

func (s *service) Dashboard(ctx context.Context) (*DashboardSummary, error) {
	summary, err := s.orders.Dashboard(ctx)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to load dashboard summary")
		return nil, fmt.Errorf("service: failed to load dashboard summary: %w", err)
	}

	return summary, nil
}
