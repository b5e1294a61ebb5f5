package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dungeun/codeB-core-engine/internal/domain"
	"github.com/dungeun/codeB-core-engine/internal/handler"
	"github.com/dungeun/codeB-core-engine/internal/middleware"
)

// ProductHandler serves the /api/products surface.
type ProductHandler struct {
	products domain.ProductService
	logger   *slog.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(products domain.ProductService, logger *slog.Logger) *ProductHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProductHandler{
		products: products,
		logger:   logger,
	}
}

// ListProducts handles GET /api/products. Non-admin callers only ever see
// ACTIVE products, whatever status they ask for.
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := domain.ProductFilter{
		Category: query.Get("category"),
		Search:   query.Get("search"),
		InStock:  query.Get("inStock") == "true",
	}
	if v, err := strconv.ParseInt(query.Get("minPrice"), 10, 64); err == nil {
		filter.MinPrice = &v
	}
	if v, err := strconv.ParseInt(query.Get("maxPrice"), 10, 64); err == nil {
		filter.MaxPrice = &v
	}

	if middleware.IsAdmin(r.Context()) {
		if raw := query.Get("status"); raw != "" {
			status := domain.ProductStatus(raw)
			filter.Status = &status
		}
	} else {
		active := domain.ProductStatusActive
		filter.Status = &active
	}

	page, err := h.products.ListProducts(r.Context(), filter, parseSort(query), parsePagination(query))
	if err != nil {
		handler.Error(w, r, err)
		return
	}

	products := make([]productResponse, 0, len(page.Products))
	for _, product := range page.Products {
		products = append(products, toProductResponse(product))
	}

	handler.RespondJSON(w, http.StatusOK, map[string]any{
		"products":   products,
		"pagination": toPageInfoResponse(page.Pagination),
	})
}

// GetProduct handles GET /api/products/{id}. Non-sellable products are
// hidden from non-admin callers.
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.products.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		handler.Error(w, r, err)
		return
	}

	if !product.Status.Sellable() && !middleware.IsAdmin(r.Context()) {
		handler.Error(w, r, domain.ErrProductNotFound)
		return
	}

	handler.RespondJSON(w, http.StatusOK, toProductResponse(*product))
}

type createProductRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description,omitempty" validate:"max=2000"`
	SKU         string `json:"sku" validate:"required,max=100"`
	Price       int64  `json:"price" validate:"gte=0"`
	Stock       int32  `json:"stock" validate:"gte=0"`
	TrackStock  bool   `json:"trackStock"`
	Status      string `json:"status,omitempty"`
	Category    string `json:"category,omitempty" validate:"max=100"`
	ImageURL    string `json:"imageUrl,omitempty" validate:"omitempty,url"`
}

// CreateProduct handles POST /api/products. Admin only.
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.Error(w, r, err)
		return
	}

	product, err := h.products.CreateProduct(r.Context(), domain.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		SKU:         req.SKU,
		Price:       req.Price,
		Stock:       req.Stock,
		TrackStock:  req.TrackStock,
		Status:      domain.ProductStatus(req.Status),
		Category:    req.Category,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		handler.Error(w, r, err)
		return
	}

	handler.RespondJSON(w, http.StatusCreated, toProductResponse(*product))
}

type updateProductRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	SKU         *string `json:"sku,omitempty" validate:"omitempty,max=100"`
	Price       *int64  `json:"price,omitempty" validate:"omitempty,gte=0"`
	Stock       *int32  `json:"stock,omitempty" validate:"omitempty,gte=0"`
	TrackStock  *bool   `json:"trackStock,omitempty"`
	Status      *string `json:"status,omitempty"`
	Category    *string `json:"category,omitempty" validate:"omitempty,max=100"`
	ImageURL    *string `json:"imageUrl,omitempty" validate:"omitempty,url"`
}

// UpdateProduct handles PATCH /api/products/{id}. Admin only.
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req updateProductRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.Error(w, r, err)
		return
	}

	input := domain.UpdateProductInput{
		Name:        req.Name,
		Description: req.Description,
		SKU:         req.SKU,
		Price:       req.Price,
		Stock:       req.Stock,
		TrackStock:  req.TrackStock,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
	}
	if req.Status != nil {
		status := domain.ProductStatus(*req.Status)
		input.Status = &status
	}

	product, err := h.products.UpdateProduct(r.Context(), r.PathValue("id"), input)
	if err != nil {
		handler.Error(w, r, err)
		return
	}

	handler.RespondJSON(w, http.StatusOK, toProductResponse(*product))
}
