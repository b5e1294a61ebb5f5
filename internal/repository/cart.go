package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const cartColumns = `id, user_id, session_id, created_at, updated_at`

func scanCart(row interface{ Scan(dest ...any) error }) (Cart, error) {
	var c Cart
	err := row.Scan(&c.ID, &c.UserID, &c.SessionID, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// CreateCartParams identifies the cart owner. Exactly one of UserID and
// SessionID must be valid; the table CHECK rejects anything else.
type CreateCartParams struct {
	UserID    pgtype.UUID
	SessionID pgtype.Text
}

func (q *Queries) CreateCart(ctx context.Context, arg CreateCartParams) (Cart, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO carts (user_id, session_id)
		VALUES ($1, $2)
		RETURNING `+cartColumns,
		arg.UserID, arg.SessionID,
	)
	return scanCart(row)
}

func (q *Queries) GetCartByID(ctx context.Context, id pgtype.UUID) (Cart, error) {
	row := q.db.QueryRow(ctx, `SELECT `+cartColumns+` FROM carts WHERE id = $1`, id)
	return scanCart(row)
}

func (q *Queries) GetCartByUserID(ctx context.Context, userID pgtype.UUID) (Cart, error) {
	row := q.db.QueryRow(ctx, `SELECT `+cartColumns+` FROM carts WHERE user_id = $1`, userID)
	return scanCart(row)
}

func (q *Queries) GetCartBySessionID(ctx context.Context, sessionID string) (Cart, error) {
	row := q.db.QueryRow(ctx, `SELECT `+cartColumns+` FROM carts WHERE session_id = $1`, sessionID)
	return scanCart(row)
}

// DeleteCart removes a cart; cart_items cascade.
func (q *Queries) DeleteCart(ctx context.Context, id pgtype.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM carts WHERE id = $1`, id)
	return err
}

// GetCartItems returns a cart's lines joined with live product fields,
// oldest line first.
func (q *Queries) GetCartItems(ctx context.Context, cartID pgtype.UUID) ([]GetCartItemsRow, error) {
	rows, err := q.db.Query(ctx, `
		SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.variant,
		       p.name, p.sku, p.price, p.stock, p.track_stock, p.status, p.image_url
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.created_at`,
		cartID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []GetCartItemsRow
	for rows.Next() {
		var it GetCartItemsRow
		if err := rows.Scan(
			&it.ID,
			&it.CartID,
			&it.ProductID,
			&it.Quantity,
			&it.Variant,
			&it.ProductName,
			&it.Sku,
			&it.Price,
			&it.Stock,
			&it.TrackStock,
			&it.Status,
			&it.ImageUrl,
		); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// GetCartItemParams identifies a line by its (cart, product) pair.
type GetCartItemParams struct {
	CartID    pgtype.UUID
	ProductID pgtype.UUID
}

func (q *Queries) GetCartItem(ctx context.Context, arg GetCartItemParams) (CartItem, error) {
	var it CartItem
	err := q.db.QueryRow(ctx, `
		SELECT id, cart_id, product_id, quantity, variant, created_at, updated_at
		FROM cart_items
		WHERE cart_id = $1 AND product_id = $2`,
		arg.CartID, arg.ProductID,
	).Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity, &it.Variant, &it.CreatedAt, &it.UpdatedAt)
	return it, err
}

func (q *Queries) GetCartItemByID(ctx context.Context, id pgtype.UUID) (GetCartItemByIDRow, error) {
	var it GetCartItemByIDRow
	err := q.db.QueryRow(ctx, `
		SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.variant, p.stock, p.track_stock
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.id = $1`,
		id,
	).Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity, &it.Variant, &it.Stock, &it.TrackStock)
	return it, err
}

// UpsertCartItemParams carries a line insert that increments quantity when
// the (cart, product) pair already exists.
type UpsertCartItemParams struct {
	CartID    pgtype.UUID
	ProductID pgtype.UUID
	Quantity  int32
	Variant   []byte
}

// UpsertCartItem relies on the UNIQUE(cart_id, product_id) constraint so
// that concurrent adds can never produce a duplicate line. A provided
// variant replaces the stored one; a null variant keeps it.
func (q *Queries) UpsertCartItem(ctx context.Context, arg UpsertCartItemParams) (CartItem, error) {
	var it CartItem
	err := q.db.QueryRow(ctx, `
		INSERT INTO cart_items (cart_id, product_id, quantity, variant)
		VALUES ($1, $2, $3, COALESCE($4, '{}'::jsonb))
		ON CONFLICT (cart_id, product_id) DO UPDATE SET
			quantity   = cart_items.quantity + EXCLUDED.quantity,
			variant    = COALESCE($4, cart_items.variant),
			updated_at = now()
		RETURNING id, cart_id, product_id, quantity, variant, created_at, updated_at`,
		arg.CartID, arg.ProductID, arg.Quantity, arg.Variant,
	).Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity, &it.Variant, &it.CreatedAt, &it.UpdatedAt)
	return it, err
}

// SetCartItemQuantityParams overwrites a line's quantity.
type SetCartItemQuantityParams struct {
	ID       pgtype.UUID
	Quantity int32
}

func (q *Queries) SetCartItemQuantity(ctx context.Context, arg SetCartItemQuantityParams) error {
	_, err := q.db.Exec(ctx, `
		UPDATE cart_items SET quantity = $2, updated_at = now() WHERE id = $1`,
		arg.ID, arg.Quantity,
	)
	return err
}

// DeleteCartItemParams identifies the line to remove.
type DeleteCartItemParams struct {
	CartID    pgtype.UUID
	ProductID pgtype.UUID
}

// DeleteCartItem removes a line and reports how many rows matched.
func (q *Queries) DeleteCartItem(ctx context.Context, arg DeleteCartItemParams) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`,
		arg.CartID, arg.ProductID,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ClearCartItems removes every line from a cart, keeping the cart row.
func (q *Queries) ClearCartItems(ctx context.Context, cartID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	return err
}
