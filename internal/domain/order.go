package domain

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Order domain errors.
var (
	ErrOrderNotFound       = &Error{Code: ENOTFOUND, Message: "Order not found"}
	ErrOrderNotCancellable = &Error{Code: ECONFLICT, Message: "Order cannot be cancelled in its current state"}
	ErrOrderNotRefundable  = &Error{Code: ECONFLICT, Message: "Order cannot be refunded in its current state"}
	ErrShippingInfoMissing = &Error{Code: EINVALID, Message: "Tracking number and carrier are required to mark an order shipped"}
	ErrEmptyOrder          = &Error{Code: EINVALID, Message: "Order must contain at least one item"}
	ErrTotalMismatch       = &Error{Code: EINVALID, Message: "Order total does not match subtotal - discount + tax + shipping"}
	ErrInvalidOrderStatus  = &Error{Code: EINVALID, Message: "Unknown order status"}
)

// OrderStatus is the workflow state of an order. Transitions are driven only
// by explicit customer or administrative action.
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "PENDING"
	OrderStatusPaymentPending OrderStatus = "PAYMENT_PENDING"
	OrderStatusPaymentFailed  OrderStatus = "PAYMENT_FAILED"
	OrderStatusProcessing     OrderStatus = "PROCESSING"
	OrderStatusShipped        OrderStatus = "SHIPPED"
	OrderStatusDelivered      OrderStatus = "DELIVERED"
	OrderStatusCancelled      OrderStatus = "CANCELLED"
	OrderStatusRefunded       OrderStatus = "REFUNDED"
)

// Valid reports whether s is a member of the canonical status set.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaymentPending, OrderStatusPaymentFailed,
		OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered,
		OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// Cancellable reports whether an order in this status may be cancelled by
// the given caller. PROCESSING orders may only be cancelled by an
// administrator; customers are directed to support.
func (s OrderStatus) Cancellable(asAdmin bool) bool {
	switch s {
	case OrderStatusPending, OrderStatusPaymentPending, OrderStatusPaymentFailed:
		return true
	case OrderStatusProcessing:
		return asAdmin
	}
	return false
}

// Refundable reports whether an order in this status may be refunded.
// Refunds are an administrative action with no stock effect.
func (s OrderStatus) Refundable() bool {
	switch s {
	case OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered:
		return true
	}
	return false
}

// Address is a point-in-time shipping or billing address embedded on an
// order. It is a snapshot, not a reference to a mutable address book entry.
type Address struct {
	FullName   string `json:"fullName" validate:"required,min=2,max=50"`
	Phone      string `json:"phone" validate:"required,max=20"`
	Email      string `json:"email" validate:"required,email"`
	Address1   string `json:"address1" validate:"required,max=100"`
	Address2   string `json:"address2,omitempty" validate:"max=100"`
	City       string `json:"city" validate:"required,max=50"`
	State      string `json:"state,omitempty" validate:"max=50"`
	PostalCode string `json:"postalCode" validate:"required,max=10"`
	Country    string `json:"country" validate:"required,max=2"`
}

// Order is the durable order record. Item snapshots live in OrderItem; all
// amounts are minor currency units. Orders are never hard-deleted.
type Order struct {
	ID              pgtype.UUID
	OrderNumber     string
	UserID          pgtype.UUID
	Status          OrderStatus
	Subtotal        int64
	Tax             int64
	Shipping        int64
	Discount        int64
	Total           int64
	ShippingAddress Address
	BillingAddress  Address
	TrackingNumber  string
	Carrier         string
	Notes           string
	CreatedAt       pgtype.Timestamptz
	UpdatedAt       pgtype.Timestamptz
}

// OrderItem captures a product at order time. Name, SKU and Price are
// decoupled from the live product so historical orders stay immutable.
type OrderItem struct {
	ID        pgtype.UUID
	OrderID   pgtype.UUID
	ProductID pgtype.UUID
	Name      string
	SKU       string
	Price     int64
	Quantity  int32
	Variant   map[string]string
}

// OrderDetail aggregates an order with its item snapshots.
type OrderDetail struct {
	Order Order
	Items []OrderItem
}

// CreateOrderItemInput is one client-declared order line.
type CreateOrderItemInput struct {
	ProductID string
	Name      string
	SKU       string
	Price     int64
	Quantity  int32
	Variant   map[string]string
}

// CreateOrderInput carries everything needed to place an order. UserID is
// empty for guest orders.
type CreateOrderInput struct {
	UserID          string
	Items           []CreateOrderItemInput
	Subtotal        int64
	Tax             int64
	Shipping        int64
	Discount        int64
	Total           int64
	ShippingAddress Address
	BillingAddress  Address
	Notes           string
}

// OrderPatch is a partial order update. Nil fields are left unchanged.
// Status changes are validated for enum membership and for the
// SHIPPED-requires-tracking rule; other workflow gating is the caller's
// responsibility.
type OrderPatch struct {
	Status         *OrderStatus
	TrackingNumber *string
	Carrier        *string
	Notes          *string
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	UserID    string
	Status    *OrderStatus
	StartDate *time.Time
	EndDate   *time.Time
	MinTotal  *int64
	MaxTotal  *int64
}

// OrderPage is one page of an order listing.
type OrderPage struct {
	Orders     []Order
	Pagination PageInfo
}

// OrderStats is the admin dashboard aggregate. Revenue figures exclude
// cancelled and refunded orders.
type OrderStats struct {
	TotalOrders       int64 `json:"totalOrders"`
	PendingOrders     int64 `json:"pendingOrders"`
	CompletedOrders   int64 `json:"completedOrders"`
	CancelledOrders   int64 `json:"cancelledOrders"`
	TotalRevenue      int64 `json:"totalRevenue"`
	AverageOrderValue int64 `json:"averageOrderValue"`
	TodayOrders       int64 `json:"todayOrders"`
	TodayRevenue      int64 `json:"todayRevenue"`
}

// OrderService provides business logic for order operations.
//
// Order creation and cancellation run inside a single database transaction:
// the order row, its item snapshots, and every stock adjustment commit
// together or not at all.
type OrderService interface {
	// CreateOrder validates every line against live catalog truth, assigns
	// an order number, inserts the order with an immutable item snapshot,
	// and decrements stock. Rejects the whole order if any line fails.
	CreateOrder(ctx context.Context, input CreateOrderInput) (*OrderDetail, error)

	// GetOrders returns a page of orders matching the filter.
	GetOrders(ctx context.Context, filter OrderFilter, sort Sort, page Pagination) (*OrderPage, error)

	// GetOrderByID retrieves a single order with its items.
	GetOrderByID(ctx context.Context, orderID string) (*OrderDetail, error)

	// GetOrderByNumber retrieves a single order by its human-readable number.
	GetOrderByNumber(ctx context.Context, orderNumber string) (*OrderDetail, error)

	// UpdateOrder applies a partial status/tracking/notes patch.
	UpdateOrder(ctx context.Context, orderID string, patch OrderPatch) (*OrderDetail, error)

	// UpdateShipping marks an order shipped with tracking details.
	UpdateShipping(ctx context.Context, orderID, trackingNumber, carrier string) (*OrderDetail, error)

	// CompleteOrder marks an order delivered.
	CompleteOrder(ctx context.Context, orderID string) (*OrderDetail, error)

	// CancelOrder cancels an order if its status permits and restores the
	// stock of every ordered item.
	CancelOrder(ctx context.Context, orderID, reason string, asAdmin bool) (*OrderDetail, error)

	// GetOrderStats returns dashboard aggregates.
	GetOrderStats(ctx context.Context) (*OrderStats, error)
}
