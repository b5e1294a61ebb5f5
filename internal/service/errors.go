package service

import (
	"github.com/dungeun/codeB-core-engine/internal/domain"
)

// Catalog errors - domain.ENOTFOUND.
var (
	ErrProductNotFound  = domain.ErrProductNotFound
	ErrProductNotActive = domain.ErrProductNotActive
)

// Cart errors.
var (
	ErrCartNotFound      = domain.ErrCartNotFound
	ErrCartItemNotFound  = domain.ErrCartItemNotFound
	ErrInvalidQuantity   = domain.ErrInvalidQuantity
	ErrIdentityRequired  = domain.ErrIdentityRequired
	ErrInsufficientStock = domain.Errorf(domain.ECONFLICT, "", "Insufficient stock for one or more items")
)

// Order errors.
var (
	ErrOrderNotFound       = domain.ErrOrderNotFound
	ErrOrderNotCancellable = domain.ErrOrderNotCancellable
	ErrOrderNotRefundable  = domain.ErrOrderNotRefundable
	ErrShippingInfoMissing = domain.ErrShippingInfoMissing
	ErrEmptyOrder          = domain.ErrEmptyOrder
	ErrTotalMismatch       = domain.ErrTotalMismatch
	ErrInvalidOrderStatus  = domain.ErrInvalidOrderStatus
)
