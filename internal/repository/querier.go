package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

// Querier is the query surface of the store. Services depend on this
// interface so tests can substitute hand-rolled mocks; SQLStore and Tx both
// provide it.
type Querier interface {
	// Products
	CreateProduct(ctx context.Context, arg CreateProductParams) (Product, error)
	GetProductByID(ctx context.Context, id pgtype.UUID) (Product, error)
	ListProducts(ctx context.Context, arg ListProductsParams) ([]Product, error)
	CountProducts(ctx context.Context, arg ListProductsParams) (int64, error)
	UpdateProduct(ctx context.Context, arg UpdateProductParams) (Product, error)

	// DecrementProductStock conditionally decrements stock. Returns the
	// number of rows affected: zero means the product was missing or lacked
	// stock, and the caller must treat the order as rejected.
	DecrementProductStock(ctx context.Context, arg AdjustStockParams) (int64, error)
	IncrementProductStock(ctx context.Context, arg AdjustStockParams) error

	// Carts
	CreateCart(ctx context.Context, arg CreateCartParams) (Cart, error)
	GetCartByID(ctx context.Context, id pgtype.UUID) (Cart, error)
	GetCartByUserID(ctx context.Context, userID pgtype.UUID) (Cart, error)
	GetCartBySessionID(ctx context.Context, sessionID string) (Cart, error)
	DeleteCart(ctx context.Context, id pgtype.UUID) error

	GetCartItems(ctx context.Context, cartID pgtype.UUID) ([]GetCartItemsRow, error)
	GetCartItem(ctx context.Context, arg GetCartItemParams) (CartItem, error)
	GetCartItemByID(ctx context.Context, id pgtype.UUID) (GetCartItemByIDRow, error)

	// UpsertCartItem inserts a cart line or, when the (cart, product) pair
	// already exists, adds the quantity to the existing line.
	UpsertCartItem(ctx context.Context, arg UpsertCartItemParams) (CartItem, error)
	SetCartItemQuantity(ctx context.Context, arg SetCartItemQuantityParams) error
	DeleteCartItem(ctx context.Context, arg DeleteCartItemParams) (int64, error)
	ClearCartItems(ctx context.Context, cartID pgtype.UUID) error

	// Orders
	NextOrderSequence(ctx context.Context, day pgtype.Date) (int32, error)
	CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error)
	CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error)
	GetOrderByID(ctx context.Context, id pgtype.UUID) (Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (Order, error)
	GetOrderItems(ctx context.Context, orderID pgtype.UUID) ([]OrderItem, error)
	ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error)
	CountOrders(ctx context.Context, arg ListOrdersParams) (int64, error)
	UpdateOrder(ctx context.Context, arg UpdateOrderParams) (Order, error)
	GetOrderStats(ctx context.Context) (GetOrderStatsRow, error)
}

// Compile-time check that Queries implements Querier.
var _ Querier = (*Queries)(nil)
