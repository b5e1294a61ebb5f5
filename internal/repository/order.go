package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, order_number, user_id, status, subtotal, tax, shipping, discount, total,
	shipping_address, billing_address, tracking_number, carrier, notes, created_at, updated_at`

func scanOrder(row interface{ Scan(dest ...any) error }) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID,
		&o.OrderNumber,
		&o.UserID,
		&o.Status,
		&o.Subtotal,
		&o.Tax,
		&o.Shipping,
		&o.Discount,
		&o.Total,
		&o.ShippingAddress,
		&o.BillingAddress,
		&o.TrackingNumber,
		&o.Carrier,
		&o.Notes,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	return o, err
}

// NextOrderSequence atomically advances and returns the per-day order
// counter. Two concurrent orders in the same instant get distinct sequence
// numbers; a same-day count query would not guarantee that.
func (q *Queries) NextOrderSequence(ctx context.Context, day pgtype.Date) (int32, error) {
	var seq int32
	err := q.db.QueryRow(ctx, `
		INSERT INTO order_counters (day, seq)
		VALUES ($1, 1)
		ON CONFLICT (day) DO UPDATE SET seq = order_counters.seq + 1
		RETURNING seq`,
		day,
	).Scan(&seq)
	return seq, err
}

// CreateOrderParams holds the insert values for an order row.
type CreateOrderParams struct {
	OrderNumber     string
	UserID          pgtype.UUID
	Status          string
	Subtotal        int64
	Tax             int64
	Shipping        int64
	Discount        int64
	Total           int64
	ShippingAddress []byte
	BillingAddress  []byte
	Notes           pgtype.Text
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO orders (order_number, user_id, status, subtotal, tax, shipping, discount, total,
			shipping_address, billing_address, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+orderColumns,
		arg.OrderNumber,
		arg.UserID,
		arg.Status,
		arg.Subtotal,
		arg.Tax,
		arg.Shipping,
		arg.Discount,
		arg.Total,
		arg.ShippingAddress,
		arg.BillingAddress,
		arg.Notes,
	)
	return scanOrder(row)
}

// CreateOrderItemParams holds one immutable item snapshot.
type CreateOrderItemParams struct {
	OrderID   pgtype.UUID
	ProductID pgtype.UUID
	Name      string
	Sku       string
	Price     int64
	Quantity  int32
	Variant   []byte
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	var it OrderItem
	err := q.db.QueryRow(ctx, `
		INSERT INTO order_items (order_id, product_id, name, sku, price, quantity, variant)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, '{}'::jsonb))
		RETURNING id, order_id, product_id, name, sku, price, quantity, variant`,
		arg.OrderID, arg.ProductID, arg.Name, arg.Sku, arg.Price, arg.Quantity, arg.Variant,
	).Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.Sku, &it.Price, &it.Quantity, &it.Variant)
	return it, err
}

func (q *Queries) GetOrderByID(ctx context.Context, id pgtype.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return scanOrder(row)
}

func (q *Queries) GetOrderByNumber(ctx context.Context, orderNumber string) (Order, error) {
	row := q.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_number = $1`, orderNumber)
	return scanOrder(row)
}

func (q *Queries) GetOrderItems(ctx context.Context, orderID pgtype.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, order_id, product_id, name, sku, price, quantity, variant
		FROM order_items
		WHERE order_id = $1
		ORDER BY id`,
		orderID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.Sku, &it.Price, &it.Quantity, &it.Variant); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ListOrdersParams filters and pages an order listing. SortBy must come
// from a caller-side allow-list.
type ListOrdersParams struct {
	UserID    pgtype.UUID
	Status    pgtype.Text
	StartDate pgtype.Timestamptz
	EndDate   pgtype.Timestamptz
	MinTotal  *int64
	MaxTotal  *int64
	SortBy    string
	SortDesc  bool
	Limit     int32
	Offset    int32
}

func orderWhere(arg ListOrdersParams) (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, val any) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if arg.UserID.Valid {
		add("user_id = $%d", arg.UserID)
	}
	if arg.Status.Valid {
		add("status = $%d", arg.Status)
	}
	if arg.StartDate.Valid {
		add("created_at >= $%d", arg.StartDate)
	}
	if arg.EndDate.Valid {
		add("created_at <= $%d", arg.EndDate)
	}
	if arg.MinTotal != nil {
		add("total >= $%d", *arg.MinTotal)
	}
	if arg.MaxTotal != nil {
		add("total <= $%d", *arg.MaxTotal)
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	where, args := orderWhere(arg)

	sortBy := arg.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	dir := "ASC"
	if arg.SortDesc {
		dir = "DESC"
	}

	args = append(args, arg.Limit, arg.Offset)
	query := fmt.Sprintf(
		`SELECT %s FROM orders%s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		orderColumns, where, sortBy, dir, len(args)-1, len(args),
	)

	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (q *Queries) CountOrders(ctx context.Context, arg ListOrdersParams) (int64, error) {
	where, args := orderWhere(arg)

	var count int64
	err := q.db.QueryRow(ctx, `SELECT count(*) FROM orders`+where, args...).Scan(&count)
	return count, err
}

// UpdateOrderParams is a partial order patch; invalid (null) fields keep
// their current column values.
type UpdateOrderParams struct {
	ID             pgtype.UUID
	Status         pgtype.Text
	TrackingNumber pgtype.Text
	Carrier        pgtype.Text
	Notes          pgtype.Text
}

func (q *Queries) UpdateOrder(ctx context.Context, arg UpdateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders SET
			status          = COALESCE($2, status),
			tracking_number = COALESCE($3, tracking_number),
			carrier         = COALESCE($4, carrier),
			notes           = COALESCE($5, notes),
			updated_at      = now()
		WHERE id = $1
		RETURNING `+orderColumns,
		arg.ID, arg.Status, arg.TrackingNumber, arg.Carrier, arg.Notes,
	)
	return scanOrder(row)
}

// GetOrderStats computes the dashboard aggregates in one round-trip.
// Revenue figures exclude CANCELLED and REFUNDED orders.
func (q *Queries) GetOrderStats(ctx context.Context) (GetOrderStatsRow, error) {
	var s GetOrderStatsRow
	err := q.db.QueryRow(ctx, `
		SELECT
			count(*),
			count(*) FILTER (WHERE status IN ('PENDING', 'PAYMENT_PENDING', 'PROCESSING')),
			count(*) FILTER (WHERE status = 'DELIVERED'),
			count(*) FILTER (WHERE status IN ('CANCELLED', 'REFUNDED')),
			COALESCE(sum(total) FILTER (WHERE status NOT IN ('CANCELLED', 'REFUNDED')), 0),
			COALESCE(avg(total) FILTER (WHERE status NOT IN ('CANCELLED', 'REFUNDED')), 0),
			count(*) FILTER (WHERE created_at >= date_trunc('day', now()) AND status NOT IN ('CANCELLED', 'REFUNDED')),
			COALESCE(sum(total) FILTER (WHERE created_at >= date_trunc('day', now()) AND status NOT IN ('CANCELLED', 'REFUNDED')), 0)
		FROM orders`,
	).Scan(
		&s.TotalOrders,
		&s.PendingOrders,
		&s.CompletedOrders,
		&s.CancelledOrders,
		&s.TotalRevenue,
		&s.AverageRevenue,
		&s.TodayOrders,
		&s.TodayRevenue,
	)
	return s, err
}
