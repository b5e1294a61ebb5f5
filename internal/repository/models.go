package repository

import (
	"github.com/jackc/pgx/v5/pgtype"
)

// Product is a row in the products table. Price is in minor currency units.
type Product struct {
	ID          pgtype.UUID
	Name        string
	Description pgtype.Text
	Sku         string
	Price       int64
	Stock       int32
	TrackStock  bool
	Status      string
	Category    pgtype.Text
	ImageUrl    pgtype.Text
	CreatedAt   pgtype.Timestamptz
	UpdatedAt   pgtype.Timestamptz
}

// Cart is a row in the carts table. Exactly one of UserID/SessionID is set,
// enforced by a table CHECK constraint.
type Cart struct {
	ID        pgtype.UUID
	UserID    pgtype.UUID
	SessionID pgtype.Text
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

// CartItem is a row in the cart_items table. (CartID, ProductID) is unique.
// Variant holds the raw JSONB variant selection.
type CartItem struct {
	ID        pgtype.UUID
	CartID    pgtype.UUID
	ProductID pgtype.UUID
	Quantity  int32
	Variant   []byte
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

// GetCartItemsRow joins a cart line with current catalog truth for display
// and validation.
type GetCartItemsRow struct {
	ID          pgtype.UUID
	CartID      pgtype.UUID
	ProductID   pgtype.UUID
	Quantity    int32
	Variant     []byte
	ProductName string
	Sku         string
	Price       int64
	Stock       int32
	TrackStock  bool
	Status      string
	ImageUrl    pgtype.Text
}

// GetCartItemByIDRow joins a single cart line with the product fields needed
// for a quantity update.
type GetCartItemByIDRow struct {
	ID         pgtype.UUID
	CartID     pgtype.UUID
	ProductID  pgtype.UUID
	Quantity   int32
	Variant    []byte
	Stock      int32
	TrackStock bool
}

// Order is a row in the orders table. Addresses are embedded JSONB
// snapshots, not foreign keys.
type Order struct {
	ID              pgtype.UUID
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
	TrackingNumber  pgtype.Text
	Carrier         pgtype.Text
	Notes           pgtype.Text
	CreatedAt       pgtype.Timestamptz
	UpdatedAt       pgtype.Timestamptz
}

// OrderItem is a row in the order_items table: the immutable product
// snapshot captured at order time.
type OrderItem struct {
	ID        pgtype.UUID
	OrderID   pgtype.UUID
	ProductID pgtype.UUID
	Name      string
	Sku       string
	Price     int64
	Quantity  int32
	Variant   []byte
}

// GetOrderStatsRow carries the dashboard aggregates computed in SQL.
type GetOrderStatsRow struct {
	TotalOrders     int64
	PendingOrders   int64
	CompletedOrders int64
	CancelledOrders int64
	TotalRevenue    int64
	AverageRevenue  float64
	TodayOrders     int64
	TodayRevenue    int64
}
