package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dungeun/codeB-core-engine/internal/domain"
	"github.com/dungeun/codeB-core-engine/internal/repository"
)

// orderSortColumns is the allow-list mapping API sort fields to columns.
var orderSortColumns = map[string]string{
	"createdAt":   "created_at",
	"total":       "total",
	"status":      "status",
	"orderNumber": "order_number",
}

type orderService struct {
	store repository.Store
}

// Compile-time check that orderService implements domain.OrderService.
var _ domain.OrderService = (*orderService)(nil)

// NewOrderService creates an OrderService backed by the given store.
func NewOrderService(store repository.Store) domain.OrderService {
	return &orderService{store: store}
}

// CreateOrder places an order. Every line is validated against the live
// catalog, the order number is assigned from the daily counter, and stock
// is decremented, all inside one transaction.
func (s *orderService) CreateOrder(ctx context.Context, input domain.CreateOrderInput) (*domain.OrderDetail, error) {
	if len(input.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	for _, line := range input.Items {
		if line.Quantity < 1 || line.Quantity > domain.MaxLineQuantity {
			return nil, ErrInvalidQuantity
		}
	}
	if input.Total != input.Subtotal-input.Discount+input.Tax+input.Shipping {
		return nil, ErrTotalMismatch
	}

	var userID pgtype.UUID
	if input.UserID != "" {
		var err error
		userID, err = parseUUID(input.UserID, "user ID")
		if err != nil {
			return nil, err
		}
	}

	shippingJSON, err := json.Marshal(input.ShippingAddress)
	if err != nil {
		return nil, domain.Internal(err, "order.create", "failed to encode shipping address")
	}
	billingJSON, err := json.Marshal(input.BillingAddress)
	if err != nil {
		return nil, domain.Internal(err, "order.create", "failed to encode billing address")
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, domain.Internal(err, "order.create", "failed to begin transaction")
	}
	defer tx.Rollback(ctx)
	q := tx.Queries()

	// Validate every line against catalog truth before touching anything.
	type checkedLine struct {
		product  repository.Product
		quantity int32
		variant  []byte
	}
	lines := make([]checkedLine, 0, len(input.Items))
	var subtotal int64

	for _, line := range input.Items {
		productUUID, err := parseUUID(line.ProductID, "product ID")
		if err != nil {
			return nil, err
		}

		product, err := q.GetProductByID(ctx, productUUID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, domain.Errorf(domain.ENOTFOUND, "order.create",
					"product not found: %s", line.ProductID)
			}
			return nil, domain.Internal(err, "order.create", "failed to get product")
		}

		if !domain.ProductStatus(product.Status).Sellable() {
			return nil, domain.Errorf(domain.ECONFLICT, "order.create",
				"product not available: %s", product.Name)
		}
		if product.TrackStock && product.Stock < line.Quantity {
			return nil, domain.Errorf(domain.ECONFLICT, "order.create",
				"insufficient stock: %s (%d left, %d requested)",
				product.Name, product.Stock, line.Quantity)
		}

		variantJSON, err := encodeVariant(line.Variant)
		if err != nil {
			return nil, domain.Invalid("order.create", "invalid variant selection")
		}

		subtotal += product.Price * int64(line.Quantity)
		lines = append(lines, checkedLine{
			product:  product,
			quantity: line.Quantity,
			variant:  variantJSON,
		})
	}

	if subtotal != input.Subtotal {
		return nil, ErrTotalMismatch
	}

	orderNumber, err := s.nextOrderNumber(ctx, q, time.Now())
	if err != nil {
		return nil, err
	}

	notes := pgtype.Text{}
	if input.Notes != "" {
		notes = pgtype.Text{String: input.Notes, Valid: true}
	}

	order, err := q.CreateOrder(ctx, repository.CreateOrderParams{
		OrderNumber:     orderNumber,
		UserID:          userID,
		Status:          string(domain.OrderStatusPending),
		Subtotal:        input.Subtotal,
		Tax:             input.Tax,
		Shipping:        input.Shipping,
		Discount:        input.Discount,
		Total:           input.Total,
		ShippingAddress: shippingJSON,
		BillingAddress:  billingJSON,
		Notes:           notes,
	})
	if err != nil {
		return nil, domain.Internal(err, "order.create", "failed to create order")
	}

	for _, line := range lines {
		if _, err := q.CreateOrderItem(ctx, repository.CreateOrderItemParams{
			OrderID:   order.ID,
			ProductID: line.product.ID,
			Name:      line.product.Name,
			Sku:       line.product.Sku,
			Price:     line.product.Price,
			Quantity:  line.quantity,
			Variant:   line.variant,
		}); err != nil {
			return nil, domain.Internal(err, "order.create", "failed to create order item")
		}

		affected, err := q.DecrementProductStock(ctx, repository.AdjustStockParams{
			ID:       line.product.ID,
			Quantity: line.quantity,
		})
		if err != nil {
			return nil, domain.Internal(err, "order.create", "failed to decrement stock")
		}
		// Zero rows means a concurrent order won the remaining stock.
		if affected == 0 {
			return nil, domain.Errorf(domain.ECONFLICT, "order.create",
				"insufficient stock: %s", line.product.Name)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.Internal(err, "order.create", "failed to commit transaction")
	}

	return s.loadOrderDetail(ctx, s.store, order)
}

// GetOrders returns one page of orders matching the filter.
func (s *orderService) GetOrders(ctx context.Context, filter domain.OrderFilter, sort domain.Sort, page domain.Pagination) (*domain.OrderPage, error) {
	page = page.Normalize(20, 100)

	sortBy, ok := orderSortColumns[sort.Field]
	if sort.Field == "" {
		sortBy, sort.Desc = "created_at", true
	} else if !ok {
		return nil, domain.Invalid("order.list", fmt.Sprintf("unsupported sort field %q", sort.Field))
	}

	params := repository.ListOrdersParams{
		MinTotal: filter.MinTotal,
		MaxTotal: filter.MaxTotal,
		SortBy:   sortBy,
		SortDesc: sort.Desc,
		Limit:    int32(page.Limit),
		Offset:   int32(page.Offset()),
	}
	if filter.UserID != "" {
		userUUID, err := parseUUID(filter.UserID, "user ID")
		if err != nil {
			return nil, err
		}
		params.UserID = userUUID
	}
	if filter.Status != nil {
		if !filter.Status.Valid() {
			return nil, ErrInvalidOrderStatus
		}
		params.Status = pgtype.Text{String: string(*filter.Status), Valid: true}
	}
	if filter.StartDate != nil {
		params.StartDate = pgtype.Timestamptz{Time: *filter.StartDate, Valid: true}
	}
	if filter.EndDate != nil {
		params.EndDate = pgtype.Timestamptz{Time: *filter.EndDate, Valid: true}
	}

	rows, err := s.store.ListOrders(ctx, params)
	if err != nil {
		return nil, domain.Internal(err, "order.list", "failed to list orders")
	}
	total, err := s.store.CountOrders(ctx, params)
	if err != nil {
		return nil, domain.Internal(err, "order.list", "failed to count orders")
	}

	orders := make([]domain.Order, 0, len(rows))
	for _, row := range rows {
		order, err := toDomainOrder(row)
		if err != nil {
			return nil, domain.Internal(err, "order.list", "failed to decode order")
		}
		orders = append(orders, order)
	}

	return &domain.OrderPage{
		Orders:     orders,
		Pagination: domain.NewPageInfo(page, total),
	}, nil
}

// GetOrderByID retrieves an order with its item snapshots.
func (s *orderService) GetOrderByID(ctx context.Context, orderID string) (*domain.OrderDetail, error) {
	orderUUID, err := parseUUID(orderID, "order ID")
	if err != nil {
		return nil, err
	}

	order, err := s.store.GetOrderByID(ctx, orderUUID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, domain.Internal(err, "order.get", "failed to get order")
	}
	return s.loadOrderDetail(ctx, s.store, order)
}

// GetOrderByNumber retrieves an order by its human-readable number.
func (s *orderService) GetOrderByNumber(ctx context.Context, orderNumber string) (*domain.OrderDetail, error) {
	order, err := s.store.GetOrderByNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, domain.Internal(err, "order.get", "failed to get order")
	}
	return s.loadOrderDetail(ctx, s.store, order)
}

// UpdateOrder applies a partial patch. Status values are checked for enum
// membership, and a move to SHIPPED requires tracking details either in the
// patch or already on the order.
func (s *orderService) UpdateOrder(ctx context.Context, orderID string, patch domain.OrderPatch) (*domain.OrderDetail, error) {
	orderUUID, err := parseUUID(orderID, "order ID")
	if err != nil {
		return nil, err
	}

	current, err := s.store.GetOrderByID(ctx, orderUUID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, domain.Internal(err, "order.update", "failed to get order")
	}

	params := repository.UpdateOrderParams{ID: orderUUID}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, ErrInvalidOrderStatus
		}
		if *patch.Status == domain.OrderStatusShipped {
			tracking := current.TrackingNumber.String
			carrier := current.Carrier.String
			if patch.TrackingNumber != nil {
				tracking = *patch.TrackingNumber
			}
			if patch.Carrier != nil {
				carrier = *patch.Carrier
			}
			if tracking == "" || carrier == "" {
				return nil, ErrShippingInfoMissing
			}
		}
		params.Status = pgtype.Text{String: string(*patch.Status), Valid: true}
	}
	if patch.TrackingNumber != nil {
		params.TrackingNumber = pgtype.Text{String: *patch.TrackingNumber, Valid: true}
	}
	if patch.Carrier != nil {
		params.Carrier = pgtype.Text{String: *patch.Carrier, Valid: true}
	}
	if patch.Notes != nil {
		params.Notes = pgtype.Text{String: *patch.Notes, Valid: true}
	}

	order, err := s.store.UpdateOrder(ctx, params)
	if err != nil {
		return nil, domain.Internal(err, "order.update", "failed to update order")
	}
	return s.loadOrderDetail(ctx, s.store, order)
}

// UpdateShipping marks an order shipped with tracking details.
func (s *orderService) UpdateShipping(ctx context.Context, orderID, trackingNumber, carrier string) (*domain.OrderDetail, error) {
	if trackingNumber == "" || carrier == "" {
		return nil, ErrShippingInfoMissing
	}
	status := domain.OrderStatusShipped
	return s.UpdateOrder(ctx, orderID, domain.OrderPatch{
		Status:         &status,
		TrackingNumber: &trackingNumber,
		Carrier:        &carrier,
	})
}

// CompleteOrder marks an order delivered.
func (s *orderService) CompleteOrder(ctx context.Context, orderID string) (*domain.OrderDetail, error) {
	status := domain.OrderStatusDelivered
	return s.UpdateOrder(ctx, orderID, domain.OrderPatch{Status: &status})
}

// CancelOrder cancels an order if its status permits and restores the
// stock of every line, atomically with the status change.
func (s *orderService) CancelOrder(ctx context.Context, orderID, reason string, asAdmin bool) (*domain.OrderDetail, error) {
	orderUUID, err := parseUUID(orderID, "order ID")
	if err != nil {
		return nil, err
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, domain.Internal(err, "order.cancel", "failed to begin transaction")
	}
	defer tx.Rollback(ctx)
	q := tx.Queries()

	current, err := q.GetOrderByID(ctx, orderUUID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, domain.Internal(err, "order.cancel", "failed to get order")
	}

	if !domain.OrderStatus(current.Status).Cancellable(asAdmin) {
		return nil, ErrOrderNotCancellable
	}

	note := "Order cancelled"
	if reason != "" {
		note = "Cancelled: " + reason
	}
	if current.Notes.Valid && current.Notes.String != "" {
		note = current.Notes.String + "\n" + note
	}

	order, err := q.UpdateOrder(ctx, repository.UpdateOrderParams{
		ID:     orderUUID,
		Status: pgtype.Text{String: string(domain.OrderStatusCancelled), Valid: true},
		Notes:  pgtype.Text{String: note, Valid: true},
	})
	if err != nil {
		return nil, domain.Internal(err, "order.cancel", "failed to update order")
	}

	items, err := q.GetOrderItems(ctx, orderUUID)
	if err != nil {
		return nil, domain.Internal(err, "order.cancel", "failed to get order items")
	}
	for _, item := range items {
		if err := q.IncrementProductStock(ctx, repository.AdjustStockParams{
			ID:       item.ProductID,
			Quantity: item.Quantity,
		}); err != nil {
			return nil, domain.Internal(err, "order.cancel", "failed to restore stock")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.Internal(err, "order.cancel", "failed to commit transaction")
	}

	return s.loadOrderDetail(ctx, s.store, order)
}

// GetOrderStats returns the admin dashboard aggregates.
func (s *orderService) GetOrderStats(ctx context.Context) (*domain.OrderStats, error) {
	row, err := s.store.GetOrderStats(ctx)
	if err != nil {
		return nil, domain.Internal(err, "order.stats", "failed to compute order stats")
	}
	return &domain.OrderStats{
		TotalOrders:       row.TotalOrders,
		PendingOrders:     row.PendingOrders,
		CompletedOrders:   row.CompletedOrders,
		CancelledOrders:   row.CancelledOrders,
		TotalRevenue:      row.TotalRevenue,
		AverageOrderValue: int64(math.Round(row.AverageRevenue)),
		TodayOrders:       row.TodayOrders,
		TodayRevenue:      row.TodayRevenue,
	}, nil
}

// nextOrderNumber assigns the next ORD{YYYYMMDD}{NNNN} number from the
// daily counter.
func (s *orderService) nextOrderNumber(ctx context.Context, q repository.Querier, now time.Time) (string, error) {
	day := pgtype.Date{Time: now, Valid: true}
	seq, err := q.NextOrderSequence(ctx, day)
	if err != nil {
		return "", domain.Internal(err, "order.create", "failed to advance order counter")
	}
	return fmt.Sprintf("ORD%s%04d", now.Format("20060102"), seq), nil
}

// loadOrderDetail fetches the order's items and maps everything into the
// domain view.
func (s *orderService) loadOrderDetail(ctx context.Context, q repository.Querier, row repository.Order) (*domain.OrderDetail, error) {
	order, err := toDomainOrder(row)
	if err != nil {
		return nil, domain.Internal(err, "order.load", "failed to decode order")
	}

	itemRows, err := q.GetOrderItems(ctx, row.ID)
	if err != nil {
		return nil, domain.Internal(err, "order.load", "failed to get order items")
	}

	items := make([]domain.OrderItem, 0, len(itemRows))
	for _, it := range itemRows {
		variant, err := decodeVariant(it.Variant)
		if err != nil {
			return nil, domain.Internal(err, "order.load", "failed to decode variant")
		}
		items = append(items, domain.OrderItem{
			ID:        it.ID,
			OrderID:   it.OrderID,
			ProductID: it.ProductID,
			Name:      it.Name,
			SKU:       it.Sku,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Variant:   variant,
		})
	}

	return &domain.OrderDetail{Order: order, Items: items}, nil
}

// toDomainOrder maps an order row into the domain view, decoding the
// address snapshots.
func toDomainOrder(row repository.Order) (domain.Order, error) {
	var shipping, billing domain.Address
	if len(row.ShippingAddress) > 0 {
		if err := json.Unmarshal(row.ShippingAddress, &shipping); err != nil {
			return domain.Order{}, err
		}
	}
	if len(row.BillingAddress) > 0 {
		if err := json.Unmarshal(row.BillingAddress, &billing); err != nil {
			return domain.Order{}, err
		}
	}

	return domain.Order{
		ID:              row.ID,
		OrderNumber:     row.OrderNumber,
		UserID:          row.UserID,
		Status:          domain.OrderStatus(row.Status),
		Subtotal:        row.Subtotal,
		Tax:             row.Tax,
		Shipping:        row.Shipping,
		Discount:        row.Discount,
		Total:           row.Total,
		ShippingAddress: shipping,
		BillingAddress:  billing,
		TrackingNumber:  row.TrackingNumber.String,
		Carrier:         row.Carrier.String,
		Notes:           row.Notes.String,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}, nil
}
