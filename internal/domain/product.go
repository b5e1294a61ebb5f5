package domain

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

// Product domain errors.
var (
	ErrProductNotFound  = &Error{Code: ENOTFOUND, Message: "Product not found"}
	ErrProductNotActive = &Error{Code: ENOTFOUND, Message: "Product is not available for sale"}
)

// ProductStatus is the catalog lifecycle state of a product.
// Only ACTIVE products can be added to carts or ordered.
type ProductStatus string

const (
	ProductStatusDraft    ProductStatus = "DRAFT"
	ProductStatusActive   ProductStatus = "ACTIVE"
	ProductStatusInactive ProductStatus = "INACTIVE"
	ProductStatusArchived ProductStatus = "ARCHIVED"
)

// Valid reports whether s is a known product status.
func (s ProductStatus) Valid() bool {
	switch s {
	case ProductStatusDraft, ProductStatusActive, ProductStatusInactive, ProductStatusArchived:
		return true
	}
	return false
}

// Sellable reports whether a product in this status may enter a cart or order.
func (s ProductStatus) Sellable() bool {
	return s == ProductStatusActive
}

// Product is the catalog view of a product.
// Price is in minor currency units. Stock is only enforced when TrackStock
// is true.
type Product struct {
	ID          pgtype.UUID
	Name        string
	Description string
	SKU         string
	Price       int64
	Stock       int32
	TrackStock  bool
	Status      ProductStatus
	Category    string
	ImageURL    string
	CreatedAt   pgtype.Timestamptz
	UpdatedAt   pgtype.Timestamptz
}

// ProductFilter narrows catalog listings. Zero values mean "no constraint".
// Status defaults to ACTIVE at the service layer; admins may ask for any
// status explicitly.
type ProductFilter struct {
	Status   *ProductStatus
	Category string
	Search   string
	MinPrice *int64
	MaxPrice *int64
	InStock  bool
}

// ProductPage is one page of a catalog listing.
type ProductPage struct {
	Products   []Product
	Pagination PageInfo
}

// CreateProductInput carries the fields for catalog administration.
type CreateProductInput struct {
	Name        string
	Description string
	SKU         string
	Price       int64
	Stock       int32
	TrackStock  bool
	Status      ProductStatus
	Category    string
	ImageURL    string
}

// UpdateProductInput is a partial catalog update. Nil fields are left as-is.
type UpdateProductInput struct {
	Name        *string
	Description *string
	SKU         *string
	Price       *int64
	Stock       *int32
	TrackStock  *bool
	Status      *ProductStatus
	Category    *string
	ImageURL    *string
}

// ProductService provides catalog operations. Stock mutation during the
// order lifecycle is owned by OrderService, not by this interface.
type ProductService interface {
	// ListProducts returns a page of products matching the filter.
	// Non-admin callers are limited to ACTIVE products.
	ListProducts(ctx context.Context, filter ProductFilter, sort Sort, page Pagination) (*ProductPage, error)

	// GetProduct retrieves a single product by ID.
	GetProduct(ctx context.Context, productID string) (*Product, error)

	// CreateProduct inserts a new catalog record.
	CreateProduct(ctx context.Context, input CreateProductInput) (*Product, error)

	// UpdateProduct applies a partial update to a catalog record.
	UpdateProduct(ctx context.Context, productID string, input UpdateProductInput) (*Product, error)
}
