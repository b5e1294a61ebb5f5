package domain

import (
	"context"
	"math"

	"github.com/jackc/pgx/v5/pgtype"
)

// Cart domain errors.
var (
	ErrCartNotFound     = &Error{Code: ENOTFOUND, Message: "Cart not found"}
	ErrCartItemNotFound = &Error{Code: ENOTFOUND, Message: "Cart item not found"}
	ErrInvalidQuantity  = &Error{Code: EINVALID, Message: "Quantity must be between 1 and 99"}
	ErrIdentityRequired = &Error{Code: EUNAUTHORIZED, Message: "A user or session identity is required"}
)

// MaxLineQuantity is the largest quantity a single cart or order line may
// carry.
const MaxLineQuantity = 99

// Identity names the owner of a cart: an authenticated user or an anonymous
// session. Exactly one of the two fields is trusted per request; the user id
// takes precedence when both are present.
type Identity struct {
	UserID    string
	SessionID string
}

// IsUser reports whether the identity is an authenticated user.
func (i Identity) IsUser() bool {
	return i.UserID != ""
}

// IsZero reports whether no identity was resolved at all.
func (i Identity) IsZero() bool {
	return i.UserID == "" && i.SessionID == ""
}

// Cart is a lightweight cart view model. Exactly one of UserID/SessionID is
// set.
type Cart struct {
	ID        pgtype.UUID
	UserID    pgtype.UUID
	SessionID pgtype.Text
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

// CartItem is a cart line with a denormalized snapshot of its product at
// read time. Stock and TrackStock reflect catalog truth as of the query, not
// a reservation.
type CartItem struct {
	ID          pgtype.UUID
	ProductID   pgtype.UUID
	ProductName string
	SKU         string
	UnitPrice   int64
	Quantity    int32
	Variant     map[string]string
	ImageURL    string
	Stock       int32
	TrackStock  bool
	LineTotal   int64
}

// CartDetail aggregates a cart with its items and derived totals.
type CartDetail struct {
	Cart      Cart
	Items     []CartItem
	ItemCount int
	Subtotal  int64
}

// CartSummary is the checkout-facing totals block. It is recomputed from
// current items and prices on every call and never persisted.
type CartSummary struct {
	ItemCount int   `json:"itemCount"`
	Subtotal  int64 `json:"subtotal"`
	Tax       int64 `json:"tax"`
	Shipping  int64 `json:"shipping"`
	Total     int64 `json:"total"`
}

// Pricing holds the storefront pricing rules used to derive cart summaries.
type Pricing struct {
	// TaxRate is applied to the item subtotal, e.g. 0.10 for 10%.
	TaxRate float64

	// FreeShippingThreshold is the subtotal at or above which shipping is
	// free, in minor currency units.
	FreeShippingThreshold int64

	// FlatShippingFee is charged below the free-shipping threshold.
	FlatShippingFee int64
}

// DefaultPricing returns the storefront defaults: 10% tax, free shipping at
// 50,000, flat 3,000 fee below it.
func DefaultPricing() Pricing {
	return Pricing{
		TaxRate:               0.10,
		FreeShippingThreshold: 50_000,
		FlatShippingFee:       3_000,
	}
}

// Summarize computes totals for a set of cart items. Pure function: no I/O,
// deterministic for a given item slice.
func (p Pricing) Summarize(items []CartItem) CartSummary {
	var itemCount int
	var subtotal int64

	for _, item := range items {
		itemCount += int(item.Quantity)
		subtotal += item.UnitPrice * int64(item.Quantity)
	}

	tax := int64(math.Round(float64(subtotal) * p.TaxRate))

	var shipping int64
	if subtotal < p.FreeShippingThreshold {
		shipping = p.FlatShippingFee
	}

	return CartSummary{
		ItemCount: itemCount,
		Subtotal:  subtotal,
		Tax:       tax,
		Shipping:  shipping,
		Total:     subtotal + tax + shipping,
	}
}

// CartService provides business logic for shopping cart operations.
//
// All stock checks and multi-row mutations run inside a single database
// transaction; transaction isolation is the only concurrency-correctness
// mechanism.
type CartService interface {
	// GetCart retrieves the cart for an identity with its items.
	// Returns (nil, nil) when the identity has no cart yet.
	GetCart(ctx context.Context, identity Identity) (*CartDetail, error)

	// AddItem adds a product to the identity's cart, creating the cart on
	// first use. Adding an already-present product increments the line
	// quantity; the stock check runs against the resulting total.
	AddItem(ctx context.Context, identity Identity, productID string, quantity int, variant map[string]string) (*CartDetail, error)

	// UpdateItemQuantity overwrites a line's quantity after re-checking
	// stock.
	UpdateItemQuantity(ctx context.Context, cartItemID string, quantity int) (*CartDetail, error)

	// RemoveItem deletes the line for productID from the identity's cart.
	RemoveItem(ctx context.Context, identity Identity, productID string) (*CartDetail, error)

	// ClearCart deletes all lines from the identity's cart. No-op when no
	// cart exists.
	ClearCart(ctx context.Context, identity Identity) error

	// MergeSessionIntoUser folds a session cart into a user cart, summing
	// quantities for overlapping products, then deletes the session cart.
	// Atomic: partial merges are never observable. Returns (nil, nil) when
	// the session cart is absent or empty.
	MergeSessionIntoUser(ctx context.Context, sessionID, userID string) (*CartDetail, error)

	// ItemCount returns the total quantity across the identity's cart, or 0
	// when no cart exists.
	ItemCount(ctx context.Context, identity Identity) (int, error)
}
