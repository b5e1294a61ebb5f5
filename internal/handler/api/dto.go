package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dungeun/codeB-core-engine/internal/domain"
)

// uuidString formats a pgtype.UUID for JSON responses. Invalid UUIDs render
// as the empty string.
func uuidString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	return uuid.UUID(id.Bytes).String()
}

func timestamp(ts pgtype.Timestamptz) string {
	if !ts.Valid {
		return ""
	}
	return ts.Time.UTC().Format(time.RFC3339)
}

// pageInfoResponse mirrors domain.PageInfo with JSON field names.
type pageInfoResponse struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

func toPageInfoResponse(p domain.PageInfo) pageInfoResponse {
	return pageInfoResponse{
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      p.Total,
		TotalPages: p.TotalPages,
	}
}

// productResponse is the catalog view returned to clients.
type productResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	SKU         string `json:"sku"`
	Price       int64  `json:"price"`
	Stock       int32  `json:"stock"`
	TrackStock  bool   `json:"trackStock"`
	Status      string `json:"status"`
	Category    string `json:"category,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

func toProductResponse(p domain.Product) productResponse {
	return productResponse{
		ID:          uuidString(p.ID),
		Name:        p.Name,
		Description: p.Description,
		SKU:         p.SKU,
		Price:       p.Price,
		Stock:       p.Stock,
		TrackStock:  p.TrackStock,
		Status:      string(p.Status),
		Category:    p.Category,
		ImageURL:    p.ImageURL,
		CreatedAt:   timestamp(p.CreatedAt),
		UpdatedAt:   timestamp(p.UpdatedAt),
	}
}

// cartItemResponse is one cart line with its product snapshot.
type cartItemResponse struct {
	ID          string            `json:"id"`
	ProductID   string            `json:"productId"`
	ProductName string            `json:"productName"`
	SKU         string            `json:"sku"`
	UnitPrice   int64             `json:"unitPrice"`
	Quantity    int32             `json:"quantity"`
	Variant     map[string]string `json:"variant,omitempty"`
	ImageURL    string            `json:"imageUrl,omitempty"`
	Stock       int32             `json:"stock"`
	TrackStock  bool              `json:"trackStock"`
	LineTotal   int64             `json:"lineTotal"`
}

// cartResponse is the full cart payload with derived totals.
type cartResponse struct {
	ID      string             `json:"id,omitempty"`
	Items   []cartItemResponse `json:"items"`
	Summary domain.CartSummary `json:"summary"`
}

func toCartResponse(detail *domain.CartDetail, pricing domain.Pricing) cartResponse {
	if detail == nil {
		return cartResponse{
			Items:   []cartItemResponse{},
			Summary: pricing.Summarize(nil),
		}
	}

	items := make([]cartItemResponse, 0, len(detail.Items))
	for _, item := range detail.Items {
		items = append(items, cartItemResponse{
			ID:          uuidString(item.ID),
			ProductID:   uuidString(item.ProductID),
			ProductName: item.ProductName,
			SKU:         item.SKU,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			Variant:     item.Variant,
			ImageURL:    item.ImageURL,
			Stock:       item.Stock,
			TrackStock:  item.TrackStock,
			LineTotal:   item.LineTotal,
		})
	}

	return cartResponse{
		ID:      uuidString(detail.Cart.ID),
		Items:   items,
		Summary: pricing.Summarize(detail.Items),
	}
}

// orderItemResponse is one immutable order line.
type orderItemResponse struct {
	ID        string            `json:"id"`
	ProductID string            `json:"productId"`
	Name      string            `json:"name"`
	SKU       string            `json:"sku"`
	Price     int64             `json:"price"`
	Quantity  int32             `json:"quantity"`
	Variant   map[string]string `json:"variant,omitempty"`
}

// orderResponse is the order payload, with items when loaded as a detail.
type orderResponse struct {
	ID              string              `json:"id"`
	OrderNumber     string              `json:"orderNumber"`
	UserID          string              `json:"userId,omitempty"`
	Status          string              `json:"status"`
	Subtotal        int64               `json:"subtotal"`
	Tax             int64               `json:"tax"`
	Shipping        int64               `json:"shipping"`
	Discount        int64               `json:"discount"`
	Total           int64               `json:"total"`
	ShippingAddress domain.Address      `json:"shippingAddress"`
	BillingAddress  domain.Address      `json:"billingAddress"`
	TrackingNumber  string              `json:"trackingNumber,omitempty"`
	Carrier         string              `json:"carrier,omitempty"`
	Notes           string              `json:"notes,omitempty"`
	Items           []orderItemResponse `json:"items,omitempty"`
	CreatedAt       string              `json:"createdAt"`
	UpdatedAt       string              `json:"updatedAt"`
}

func toOrderResponse(o domain.Order) orderResponse {
	return orderResponse{
		ID:              uuidString(o.ID),
		OrderNumber:     o.OrderNumber,
		UserID:          uuidString(o.UserID),
		Status:          string(o.Status),
		Subtotal:        o.Subtotal,
		Tax:             o.Tax,
		Shipping:        o.Shipping,
		Discount:        o.Discount,
		Total:           o.Total,
		ShippingAddress: o.ShippingAddress,
		BillingAddress:  o.BillingAddress,
		TrackingNumber:  o.TrackingNumber,
		Carrier:         o.Carrier,
		Notes:           o.Notes,
		CreatedAt:       timestamp(o.CreatedAt),
		UpdatedAt:       timestamp(o.UpdatedAt),
	}
}

func toOrderDetailResponse(detail *domain.OrderDetail) orderResponse {
	resp := toOrderResponse(detail.Order)
	resp.Items = make([]orderItemResponse, 0, len(detail.Items))
	for _, item := range detail.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ID:        uuidString(item.ID),
			ProductID: uuidString(item.ProductID),
			Name:      item.Name,
			SKU:       item.SKU,
			Price:     item.Price,
			Quantity:  item.Quantity,
			Variant:   item.Variant,
		})
	}
	return resp
}
