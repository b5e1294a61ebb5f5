package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dungeun/codeB-core-engine/internal/domain"
	"github.com/dungeun/codeB-core-engine/internal/repository"
)

// productSortColumns is the allow-list mapping API sort fields to columns.
var productSortColumns = map[string]string{
	"createdAt": "created_at",
	"name":      "name",
	"price":     "price",
	"stock":     "stock",
}

type productService struct {
	store repository.Store
}

// Compile-time check that productService implements domain.ProductService.
var _ domain.ProductService = (*productService)(nil)

// NewProductService creates a ProductService backed by the given store.
func NewProductService(store repository.Store) domain.ProductService {
	return &productService{store: store}
}

// ListProducts returns one page of the catalog matching the filter.
func (s *productService) ListProducts(ctx context.Context, filter domain.ProductFilter, sort domain.Sort, page domain.Pagination) (*domain.ProductPage, error) {
	page = page.Normalize(20, 100)

	sortBy, ok := productSortColumns[sort.Field]
	if sort.Field == "" {
		sortBy, sort.Desc = "created_at", true
	} else if !ok {
		return nil, domain.Invalid("product.list", fmt.Sprintf("unsupported sort field %q", sort.Field))
	}

	params := repository.ListProductsParams{
		MinPrice: filter.MinPrice,
		MaxPrice: filter.MaxPrice,
		InStock:  filter.InStock,
		SortBy:   sortBy,
		SortDesc: sort.Desc,
		Limit:    int32(page.Limit),
		Offset:   int32(page.Offset()),
	}
	if filter.Status != nil {
		if !filter.Status.Valid() {
			return nil, domain.Invalid("product.list", "unknown product status")
		}
		params.Status = pgtype.Text{String: string(*filter.Status), Valid: true}
	}
	if filter.Category != "" {
		params.Category = pgtype.Text{String: filter.Category, Valid: true}
	}
	if filter.Search != "" {
		params.Search = pgtype.Text{String: filter.Search, Valid: true}
	}

	rows, err := s.store.ListProducts(ctx, params)
	if err != nil {
		return nil, domain.Internal(err, "product.list", "failed to list products")
	}
	total, err := s.store.CountProducts(ctx, params)
	if err != nil {
		return nil, domain.Internal(err, "product.list", "failed to count products")
	}

	products := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, toDomainProduct(row))
	}

	return &domain.ProductPage{
		Products:   products,
		Pagination: domain.NewPageInfo(page, total),
	}, nil
}

// GetProduct retrieves a single product by ID.
func (s *productService) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	productUUID, err := parseUUID(productID, "product ID")
	if err != nil {
		return nil, err
	}

	row, err := s.store.GetProductByID(ctx, productUUID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, domain.Internal(err, "product.get", "failed to get product")
	}

	product := toDomainProduct(row)
	return &product, nil
}

// CreateProduct inserts a new catalog record. The status defaults to DRAFT
// so new products never leak into the storefront unreviewed.
func (s *productService) CreateProduct(ctx context.Context, input domain.CreateProductInput) (*domain.Product, error) {
	if input.Name == "" || input.SKU == "" {
		return nil, domain.Invalid("product.create", "name and SKU are required")
	}
	if input.Price < 0 || input.Stock < 0 {
		return nil, domain.Invalid("product.create", "price and stock must not be negative")
	}

	status := input.Status
	if status == "" {
		status = domain.ProductStatusDraft
	}
	if !status.Valid() {
		return nil, domain.Invalid("product.create", "unknown product status")
	}

	row, err := s.store.CreateProduct(ctx, repository.CreateProductParams{
		Name:        input.Name,
		Description: optionalText(input.Description),
		Sku:         input.SKU,
		Price:       input.Price,
		Stock:       input.Stock,
		TrackStock:  input.TrackStock,
		Status:      string(status),
		Category:    optionalText(input.Category),
		ImageUrl:    optionalText(input.ImageURL),
	})
	if err != nil {
		return nil, domain.Internal(err, "product.create", "failed to create product")
	}

	product := toDomainProduct(row)
	return &product, nil
}

// UpdateProduct applies a partial update to a catalog record.
func (s *productService) UpdateProduct(ctx context.Context, productID string, input domain.UpdateProductInput) (*domain.Product, error) {
	productUUID, err := parseUUID(productID, "product ID")
	if err != nil {
		return nil, err
	}

	params := repository.UpdateProductParams{
		ID:         productUUID,
		Price:      input.Price,
		Stock:      input.Stock,
		TrackStock: input.TrackStock,
	}
	if input.Price != nil && *input.Price < 0 {
		return nil, domain.Invalid("product.update", "price must not be negative")
	}
	if input.Stock != nil && *input.Stock < 0 {
		return nil, domain.Invalid("product.update", "stock must not be negative")
	}
	if input.Name != nil {
		params.Name = pgtype.Text{String: *input.Name, Valid: true}
	}
	if input.Description != nil {
		params.Description = pgtype.Text{String: *input.Description, Valid: true}
	}
	if input.SKU != nil {
		params.Sku = pgtype.Text{String: *input.SKU, Valid: true}
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, domain.Invalid("product.update", "unknown product status")
		}
		params.Status = pgtype.Text{String: string(*input.Status), Valid: true}
	}
	if input.Category != nil {
		params.Category = pgtype.Text{String: *input.Category, Valid: true}
	}
	if input.ImageURL != nil {
		params.ImageUrl = pgtype.Text{String: *input.ImageURL, Valid: true}
	}

	row, err := s.store.UpdateProduct(ctx, params)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, domain.Internal(err, "product.update", "failed to update product")
	}

	product := toDomainProduct(row)
	return &product, nil
}

// toDomainProduct maps a product row into the domain view.
func toDomainProduct(row repository.Product) domain.Product {
	return domain.Product{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description.String,
		SKU:         row.Sku,
		Price:       row.Price,
		Stock:       row.Stock,
		TrackStock:  row.TrackStock,
		Status:      domain.ProductStatus(row.Status),
		Category:    row.Category.String,
		ImageURL:    row.ImageUrl.String,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

// optionalText maps an empty string to SQL NULL.
func optionalText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}
