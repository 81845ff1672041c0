package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrLineNotFound = errors.New("cart line not found")

// Repository persists cart lines. Clearing a cart on successful payment is
// not part of this interface: it happens inside the order conversion
// transaction, owned by the order repository.
type Repository interface {
	GetQuantity(ctx context.Context, userID, productID uuid.UUID) (int, error)
	Upsert(ctx context.Context, userID, productID uuid.UUID, quantity int) error
	SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	ListItems(ctx context.Context, userID uuid.UUID) ([]Item, error)
	Total(ctx context.Context, userID uuid.UUID) (int64, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) GetQuantity(ctx context.Context, userID, productID uuid.UUID) (int, error) {
	query := `SELECT quantity FROM cart_items WHERE user_id = $1 AND product_id = $2`

	var quantity int
	err := r.db.QueryRow(ctx, query, userID, productID).Scan(&quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("repository: failed to select cart line quantity: %w", err)
	}

	return quantity, nil
}

func (r *postgresRepository) Upsert(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	query := `
		INSERT INTO cart_items (user_id, product_id, quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.Exec(ctx, query, userID, productID, quantity, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("repository: failed to upsert cart line: %w", err)
	}

	return nil
}

func (r *postgresRepository) SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	query := `
		UPDATE cart_items
		SET quantity = $1, updated_at = $2
		WHERE user_id = $3 AND product_id = $4
	`
	cmdTag, err := r.db.Exec(ctx, query, quantity, time.Now().UTC(), userID, productID)
	if err != nil {
		return fmt.Errorf("repository: failed to update cart line quantity: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrLineNotFound
	}

	return nil
}

func (r *postgresRepository) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	query := `DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`

	cmdTag, err := r.db.Exec(ctx, query, userID, productID)
	if err != nil {
		return fmt.Errorf("repository: failed to delete cart line: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrLineNotFound
	}

	return nil
}

func (r *postgresRepository) ListItems(ctx context.Context, userID uuid.UUID) ([]Item, error) {
	query := `
		SELECT ci.product_id, p.title, p.price, p.image_url, p.stock, ci.quantity
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1 AND p.is_active = TRUE
		ORDER BY ci.created_at ASC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query cart items for user %s: %w", userID, err)
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		var item Item
		err := rows.Scan(
			&item.ProductID,
			&item.Title,
			&item.Price,
			&item.ImageURL,
			&item.Stock,
			&item.Quantity,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan cart item for user %s: %w", userID, err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating cart items for user %s: %w", userID, err)
	}

	return items, nil
}

func (r *postgresRepository) Total(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `
		SELECT COALESCE(SUM(p.price * ci.quantity), 0)
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1 AND p.is_active = TRUE
	`

	var total int64
	if err := r.db.QueryRow(ctx, query, userID).Scan(&total); err != nil {
		return 0, fmt.Errorf("repository: failed to compute cart total for user %s: %w", userID, err)
	}

	return total, nil
}
