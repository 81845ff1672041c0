package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var (
	ErrOrderNotFound = errors.New("order not found")

	// ErrAlreadyProcessed means an order for this payment intent already
	// exists. Callers treat it as an idempotent no-op, not a failure.
	ErrAlreadyProcessed = errors.New("payment already converted to an order")

	// ErrCartEmpty means a payment confirmed but the user has nothing to
	// fulfill. This is an inconsistency that must be surfaced, not dropped.
	ErrCartEmpty = errors.New("cart is empty at order conversion")

	// ErrInsufficientStock means stock was depleted between intent creation
	// and confirmation. The whole conversion is rolled back.
	ErrInsufficientStock = errors.New("insufficient stock for cart line")
)

type Repository interface {
	// ConvertCartToOrder performs the atomic cart-to-order conversion in a
	// single transaction: idempotency check, stock validation, order and
	// line inserts, stock decrement, cart clear.
	ConvertCartToOrder(ctx context.Context, conv *Conversion) (uuid.UUID, error)

	GetIDByPaymentIntent(ctx context.Context, userID uuid.UUID, paymentIntentID string) (uuid.UUID, error)
	GetByID(ctx context.Context, orderID uuid.UUID) (*Order, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]Order, error)
	ListByStatus(ctx context.Context, status OrderStatus) ([]AdminSummary, error)
	ListRecent(ctx context.Context, limit int) ([]AdminSummary, error)
	UpdateTracking(ctx context.Context, orderID uuid.UUID, trackingNumber string) error
	Dashboard(ctx context.Context) (*DashboardSummary, error)
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

type cartSnapshotLine struct {
	productID uuid.UUID
	quantity  int
	price     int64
	stock     int
}

func (r *postgresRepository) ConvertCartToOrder(ctx context.Context, conv *Conversion) (orderID uuid.UUID, err error) {
	tx, beginErr := r.db.Begin(ctx)
	if beginErr != nil {
		return uuid.Nil, fmt.Errorf("repository: failed to begin transaction: %w", beginErr)
	}
	defer func() {
		if p := recover(); p != nil {
			log.Error().Interface("panic_value", p).Str("payment_intent_id", conv.PaymentIntentID).Msg("Panic recovered during ConvertCartToOrder, rolling back")
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Str("payment_intent_id", conv.PaymentIntentID).Msg("Failed to rollback transaction after panic")
			}
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				log.Error().Err(rbErr).Str("payment_intent_id", conv.PaymentIntentID).Msg("Failed to rollback transaction")
			}
		} else {
			if commitErr := tx.Commit(ctx); commitErr != nil {
				log.Error().Err(commitErr).Stringer("order_id", orderID).Msg("Failed to commit transaction")
				err = fmt.Errorf("repository: failed to commit transaction: %w", commitErr)
			}
		}
	}()

	// Idempotency guard. The same confirmation may be delivered more than
	// once; only the first delivery creates an order.
	var existingID uuid.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM orders WHERE payment_intent_id = $1`, conv.PaymentIntentID).Scan(&existingID)
	if err == nil {
		err = ErrAlreadyProcessed
		return uuid.Nil, err
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("repository: failed to check existing order for intent %s: %w", conv.PaymentIntentID, err)
	}
	err = nil

	// Cart snapshot joined with live stock. FOR UPDATE locks both the
	// product rows (decrement contention) and the cart lines (user mutation
	// must not interleave with read-then-clear). Deactivated products are
	// included: the charge was priced with them in the cart, so every line
	// must either become an order line or fail the whole conversion.
	snapshotQuery := `
		SELECT ci.product_id, ci.quantity, p.price, p.stock
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
		FOR UPDATE
	`
	rows, queryErr := tx.Query(ctx, snapshotQuery, conv.UserID)
	if queryErr != nil {
		err = fmt.Errorf("repository: failed to query cart snapshot for user %s: %w", conv.UserID, queryErr)
		return uuid.Nil, err
	}

	var snapshot []cartSnapshotLine
	for rows.Next() {
		var line cartSnapshotLine
		if scanErr := rows.Scan(&line.productID, &line.quantity, &line.price, &line.stock); scanErr != nil {
			rows.Close()
			err = fmt.Errorf("repository: failed to scan cart snapshot line: %w", scanErr)
			return uuid.Nil, err
		}
		snapshot = append(snapshot, line)
	}
	rows.Close()
	if rowsErr := rows.Err(); rowsErr != nil {
		err = fmt.Errorf("repository: error iterating cart snapshot: %w", rowsErr)
		return uuid.Nil, err
	}

	if len(snapshot) == 0 {
		err = ErrCartEmpty
		return uuid.Nil, err
	}

	for _, line := range snapshot {
		if line.quantity > line.stock {
			err = fmt.Errorf("%w: product %s wants %d, has %d", ErrInsufficientStock, line.productID, line.quantity, line.stock)
			return uuid.Nil, err
		}
	}

	newOrderID, genErr := uuid.NewV4()
	if genErr != nil {
		err = fmt.Errorf("repository: failed to generate order ID: %w", genErr)
		return uuid.Nil, err
	}

	now := time.Now().UTC()
	insertOrder := `
		INSERT INTO orders (id, user_id, total_amount, payment_intent_id, status, recipient_name, recipient_phone, shipping_address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
	`
	_, err = tx.Exec(ctx, insertOrder,
		newOrderID,
		conv.UserID,
		conv.TotalAmount,
		conv.PaymentIntentID,
		string(StatusPaid),
		conv.RecipientName,
		conv.RecipientPhone,
		conv.ShippingAddress,
		now,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			// Lost the race against a concurrent delivery of the same event.
			err = ErrAlreadyProcessed
			return uuid.Nil, err
		}
		err = fmt.Errorf("repository: failed to insert order: %w", err)
		return uuid.Nil, err
	}

	for _, line := range snapshot {
		lineID, lineGenErr := uuid.NewV4()
		if lineGenErr != nil {
			err = fmt.Errorf("repository: failed to generate order line ID: %w", lineGenErr)
			return uuid.Nil, err
		}

		insertLine := `
			INSERT INTO order_items (id, order_id, product_id, quantity, price_at_purchase, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`
		_, err = tx.Exec(ctx, insertLine, lineID, newOrderID, line.productID, line.quantity, line.price, now)
		if err != nil {
			err = fmt.Errorf("repository: failed to insert order line for product %s: %w", line.productID, err)
			return uuid.Nil, err
		}

		// Conditional decrement: check and write are one statement, so two
		// concurrent confirmations cannot both take the last unit.
		decrement := `
			UPDATE products
			SET stock = stock - $1, updated_at = $2
			WHERE id = $3 AND stock >= $1
		`
		cmdTag, decErr := tx.Exec(ctx, decrement, line.quantity, now, line.productID)
		if decErr != nil {
			err = fmt.Errorf("repository: failed to decrement stock for product %s: %w", line.productID, decErr)
			return uuid.Nil, err
		}
		if cmdTag.RowsAffected() == 0 {
			err = fmt.Errorf("%w: product %s", ErrInsufficientStock, line.productID)
			return uuid.Nil, err
		}
	}

	_, err = tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, conv.UserID)
	if err != nil {
		err = fmt.Errorf("repository: failed to clear cart for user %s: %w", conv.UserID, err)
		return uuid.Nil, err
	}

	return newOrderID, nil
}

func (r *postgresRepository) GetIDByPaymentIntent(ctx context.Context, userID uuid.UUID, paymentIntentID string) (uuid.UUID, error) {
	query := `
		SELECT id FROM orders
		WHERE payment_intent_id = $1 AND user_id = $2
		ORDER BY created_at DESC
		LIMIT 1
	`

	var orderID uuid.UUID
	err := r.db.QueryRow(ctx, query, paymentIntentID, userID).Scan(&orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrOrderNotFound
		}
		return uuid.Nil, fmt.Errorf("repository: failed to select order by payment intent %s: %w", paymentIntentID, err)
	}

	return orderID, nil
}

const orderColumns = `id, user_id, total_amount, payment_intent_id, status, recipient_name, recipient_phone, shipping_address, tracking_number, created_at, updated_at`

func scanOrder(row pgx.Row, o *Order) error {
	return row.Scan(
		&o.ID,
		&o.UserID,
		&o.TotalAmount,
		&o.PaymentIntentID,
		&o.Status,
		&o.RecipientName,
		&o.RecipientPhone,
		&o.ShippingAddress,
		&o.TrackingNumber,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
}

func (r *postgresRepository) GetByID(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	var o Order
	if err := scanOrder(r.db.QueryRow(ctx, query, orderID), &o); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("repository: failed to select order by id %s: %w", orderID, err)
	}

	lines, err := r.queryLines(ctx, `oi.order_id = $1`, orderID)
	if err != nil {
		return nil, err
	}
	o.Lines = lines[o.ID]
	if o.Lines == nil {
		o.Lines = make([]Line, 0)
	}

	return &o, nil
}

func (r *postgresRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders for user %s: %w", userID, err)
	}
	defer rows.Close()

	ordersMap := make(map[uuid.UUID]*Order)
	var orderIDs []uuid.UUID

	for rows.Next() {
		var o Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, fmt.Errorf("repository: failed to scan order for user %s: %w", userID, err)
		}
		o.Lines = make([]Line, 0)
		ordersMap[o.ID] = &o
		orderIDs = append(orderIDs, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating orders for user %s: %w", userID, err)
	}

	if len(orderIDs) == 0 {
		return []Order{}, nil
	}

	lines, err := r.queryLines(ctx, `oi.order_id = ANY($1)`, orderIDs)
	if err != nil {
		return nil, err
	}
	for orderID, orderLines := range lines {
		if o, ok := ordersMap[orderID]; ok {
			o.Lines = orderLines
		}
	}

	result := make([]Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		result = append(result, *ordersMap[id])
	}

	return result, nil
}

func (r *postgresRepository) queryLines(ctx context.Context, where string, arg any) (map[uuid.UUID][]Line, error) {
	query := `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.price_at_purchase, p.title, p.image_url
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE ` + where

	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query order lines: %w", err)
	}
	defer rows.Close()

	lines := make(map[uuid.UUID][]Line)
	for rows.Next() {
		var line Line
		err := rows.Scan(
			&line.ID,
			&line.OrderID,
			&line.ProductID,
			&line.Quantity,
			&line.PriceAtPurchase,
			&line.Title,
			&line.ImageURL,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order line: %w", err)
		}
		lines[line.OrderID] = append(lines[line.OrderID], line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order lines: %w", err)
	}

	return lines, nil
}

func (r *postgresRepository) ListByStatus(ctx context.Context, status OrderStatus) ([]AdminSummary, error) {
	query := `
		SELECT o.id, u.email, o.total_amount, o.status, o.tracking_number, o.created_at
		FROM orders o
		JOIN users u ON u.id = o.user_id
		WHERE o.status = $1
		ORDER BY o.created_at DESC
	`

	rows, err := r.db.Query(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query orders by status %s: %w", status, err)
	}
	defer rows.Close()

	return collectSummaries(rows)
}

func (r *postgresRepository) ListRecent(ctx context.Context, limit int) ([]AdminSummary, error) {
	query := `
		SELECT o.id, u.email, o.total_amount, o.status, o.tracking_number, o.created_at
		FROM orders o
		JOIN users u ON u.id = o.user_id
		ORDER BY o.created_at DESC
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query recent orders: %w", err)
	}
	defer rows.Close()

	return collectSummaries(rows)
}

func collectSummaries(rows pgx.Rows) ([]AdminSummary, error) {
	summaries := make([]AdminSummary, 0)
	for rows.Next() {
		var s AdminSummary
		err := rows.Scan(&s.OrderID, &s.Email, &s.TotalAmount, &s.Status, &s.TrackingNumber, &s.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan order summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating order summaries: %w", err)
	}

	return summaries, nil
}

func (r *postgresRepository) UpdateTracking(ctx context.Context, orderID uuid.UUID, trackingNumber string) error {
	query := `
		UPDATE orders
		SET tracking_number = $1, status = $2, updated_at = $3
		WHERE id = $4 AND status = $5
	`

	cmdTag, err := r.db.Exec(ctx, query, trackingNumber, string(StatusShipped), time.Now().UTC(), orderID, string(StatusPaid))
	if err != nil {
		log.Error().Err(err).Stringer("order_id", orderID).Msg("repository: failed to update tracking number")
		return fmt.Errorf("repository: failed to update tracking for order %s: %w", orderID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}

	return nil
}

func (r *postgresRepository) Dashboard(ctx context.Context) (*DashboardSummary, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM products),
			(SELECT COUNT(*) FROM orders),
			(SELECT COUNT(*) FROM users),
			(SELECT COALESCE(SUM(total_amount), 0) FROM orders WHERE status IN ($1, $2))
	`

	var s DashboardSummary
	err := r.db.QueryRow(ctx, query, string(StatusPaid), string(StatusShipped)).
		Scan(&s.TotalBooks, &s.TotalOrders, &s.TotalUsers, &s.TotalRevenue)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query dashboard summary: %w", err)
	}

	return &s, nil
}
