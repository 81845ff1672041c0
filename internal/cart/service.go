package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/siriwatk/bookstore-backend/internal/catalog"
)

var (
	ErrProductNotFound = errors.New("product not found or inactive")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrStockExceeded   = errors.New("requested quantity exceeds available stock")
	ErrItemNotInCart   = errors.New("item not found in cart")
)

type Service interface {
	AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) error
	SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) error
	ListItems(ctx context.Context, userID uuid.UUID) ([]Item, error)
}

type service struct {
	carts    Repository
	products catalog.Repository
}

func NewService(carts Repository, products catalog.Repository) Service {
	return &service{carts: carts, products: products}
}

// AddItem adds or increments a cart line. The resulting quantity is capped at
// the product's current stock. Stock can still change before payment
// confirms; the authoritative check happens again at order conversion.
func (s *service) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	product, err := s.activeProduct(ctx, productID)
	if err != nil {
		return err
	}

	current, err := s.carts.GetQuantity(ctx, userID, productID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Stringer("product_id", productID).Msg("service: failed to read current cart quantity")
		return fmt.Errorf("service: failed to read cart line: %w", err)
	}

	if current+quantity > product.Stock {
		return fmt.Errorf("%w: %d in stock", ErrStockExceeded, product.Stock)
	}

	if err := s.carts.Upsert(ctx, userID, productID, quantity); err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Stringer("product_id", productID).Msg("service: failed to upsert cart line")
		return fmt.Errorf("service: failed to add cart item: %w", err)
	}

	return nil
}

func (s *service) SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	product, err := s.activeProduct(ctx, productID)
	if err != nil {
		return err
	}
	if quantity > product.Stock {
		return fmt.Errorf("%w: %d in stock", ErrStockExceeded, product.Stock)
	}

	err = s.carts.SetQuantity(ctx, userID, productID, quantity)
	if err != nil {
		if errors.Is(err, ErrLineNotFound) {
			return ErrItemNotInCart
		}
		log.Error().Err(err).Stringer("user_id", userID).Stringer("product_id", productID).Msg("service: failed to set cart quantity")
		return fmt.Errorf("service: failed to set cart quantity: %w", err)
	}

	return nil
}

func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) error {
	err := s.carts.Remove(ctx, userID, productID)
	if err != nil {
		if errors.Is(err, ErrLineNotFound) {
			return ErrItemNotInCart
		}
		log.Error().Err(err).Stringer("user_id", userID).Stringer("product_id", productID).Msg("service: failed to remove cart item")
		return fmt.Errorf("service: failed to remove cart item: %w", err)
	}

	return nil
}

func (s *service) ListItems(ctx context.Context, userID uuid.UUID) ([]Item, error) {
	items, err := s.carts.ListItems(ctx, userID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to list cart items")
		return nil, fmt.Errorf("service: failed to list cart items: %w", err)
	}

	return items, nil
}

func (s *service) activeProduct(ctx context.Context, productID uuid.UUID) (*catalog.Product, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			return nil, ErrProductNotFound
		}
		log.Error().Err(err).Stringer("product_id", productID).Msg("service: failed to get product for cart mutation")
		return nil, fmt.Errorf("service: failed to get product: %w", err)
	}
	if !product.IsActive {
		return nil, ErrProductNotFound
	}

	return product, nil
}
