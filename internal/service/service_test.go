package service

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dungeun/codeB-core-engine/internal/repository"
)

// =============================================================================
// MOCK STORE
// =============================================================================

// mockQuerier implements repository.Querier with overridable func fields.
// Unset funcs return pgx.ErrNoRows for point lookups and zero values
// elsewhere.
type mockQuerier struct {
	createProductFunc         func(ctx context.Context, arg repository.CreateProductParams) (repository.Product, error)
	getProductByIDFunc        func(ctx context.Context, id pgtype.UUID) (repository.Product, error)
	listProductsFunc          func(ctx context.Context, arg repository.ListProductsParams) ([]repository.Product, error)
	countProductsFunc         func(ctx context.Context, arg repository.ListProductsParams) (int64, error)
	updateProductFunc         func(ctx context.Context, arg repository.UpdateProductParams) (repository.Product, error)
	decrementProductStockFunc func(ctx context.Context, arg repository.AdjustStockParams) (int64, error)
	incrementProductStockFunc func(ctx context.Context, arg repository.AdjustStockParams) error

	createCartFunc         func(ctx context.Context, arg repository.CreateCartParams) (repository.Cart, error)
	getCartByIDFunc        func(ctx context.Context, id pgtype.UUID) (repository.Cart, error)
	getCartByUserIDFunc    func(ctx context.Context, userID pgtype.UUID) (repository.Cart, error)
	getCartBySessionIDFunc func(ctx context.Context, sessionID string) (repository.Cart, error)
	deleteCartFunc         func(ctx context.Context, id pgtype.UUID) error

	getCartItemsFunc        func(ctx context.Context, cartID pgtype.UUID) ([]repository.GetCartItemsRow, error)
	getCartItemFunc         func(ctx context.Context, arg repository.GetCartItemParams) (repository.CartItem, error)
	getCartItemByIDFunc     func(ctx context.Context, id pgtype.UUID) (repository.GetCartItemByIDRow, error)
	upsertCartItemFunc      func(ctx context.Context, arg repository.UpsertCartItemParams) (repository.CartItem, error)
	setCartItemQuantityFunc func(ctx context.Context, arg repository.SetCartItemQuantityParams) error
	deleteCartItemFunc      func(ctx context.Context, arg repository.DeleteCartItemParams) (int64, error)
	clearCartItemsFunc      func(ctx context.Context, cartID pgtype.UUID) error

	nextOrderSequenceFunc func(ctx context.Context, day pgtype.Date) (int32, error)
	createOrderFunc       func(ctx context.Context, arg repository.CreateOrderParams) (repository.Order, error)
	createOrderItemFunc   func(ctx context.Context, arg repository.CreateOrderItemParams) (repository.OrderItem, error)
	getOrderByIDFunc      func(ctx context.Context, id pgtype.UUID) (repository.Order, error)
	getOrderByNumberFunc  func(ctx context.Context, orderNumber string) (repository.Order, error)
	getOrderItemsFunc     func(ctx context.Context, orderID pgtype.UUID) ([]repository.OrderItem, error)
	listOrdersFunc        func(ctx context.Context, arg repository.ListOrdersParams) ([]repository.Order, error)
	countOrdersFunc       func(ctx context.Context, arg repository.ListOrdersParams) (int64, error)
	updateOrderFunc       func(ctx context.Context, arg repository.UpdateOrderParams) (repository.Order, error)
	getOrderStatsFunc     func(ctx context.Context) (repository.GetOrderStatsRow, error)
}

func (m *mockQuerier) CreateProduct(ctx context.Context, arg repository.CreateProductParams) (repository.Product, error) {
	if m.createProductFunc != nil {
		return m.createProductFunc(ctx, arg)
	}
	return repository.Product{}, nil
}

func (m *mockQuerier) GetProductByID(ctx context.Context, id pgtype.UUID) (repository.Product, error) {
	if m.getProductByIDFunc != nil {
		return m.getProductByIDFunc(ctx, id)
	}
	return repository.Product{}, pgx.ErrNoRows
}

func (m *mockQuerier) ListProducts(ctx context.Context, arg repository.ListProductsParams) ([]repository.Product, error) {
	if m.listProductsFunc != nil {
		return m.listProductsFunc(ctx, arg)
	}
	return nil, nil
}

func (m *mockQuerier) CountProducts(ctx context.Context, arg repository.ListProductsParams) (int64, error) {
	if m.countProductsFunc != nil {
		return m.countProductsFunc(ctx, arg)
	}
	return 0, nil
}

func (m *mockQuerier) UpdateProduct(ctx context.Context, arg repository.UpdateProductParams) (repository.Product, error) {
	if m.updateProductFunc != nil {
		return m.updateProductFunc(ctx, arg)
	}
	return repository.Product{}, pgx.ErrNoRows
}

func (m *mockQuerier) DecrementProductStock(ctx context.Context, arg repository.AdjustStockParams) (int64, error) {
	if m.decrementProductStockFunc != nil {
		return m.decrementProductStockFunc(ctx, arg)
	}
	return 1, nil
}

func (m *mockQuerier) IncrementProductStock(ctx context.Context, arg repository.AdjustStockParams) error {
	if m.incrementProductStockFunc != nil {
		return m.incrementProductStockFunc(ctx, arg)
	}
	return nil
}

func (m *mockQuerier) CreateCart(ctx context.Context, arg repository.CreateCartParams) (repository.Cart, error) {
	if m.createCartFunc != nil {
		return m.createCartFunc(ctx, arg)
	}
	return repository.Cart{ID: newUUID("cart-new"), UserID: arg.UserID, SessionID: arg.SessionID}, nil
}

func (m *mockQuerier) GetCartByID(ctx context.Context, id pgtype.UUID) (repository.Cart, error) {
	if m.getCartByIDFunc != nil {
		return m.getCartByIDFunc(ctx, id)
	}
	return repository.Cart{}, pgx.ErrNoRows
}

func (m *mockQuerier) GetCartByUserID(ctx context.Context, userID pgtype.UUID) (repository.Cart, error) {
	if m.getCartByUserIDFunc != nil {
		return m.getCartByUserIDFunc(ctx, userID)
	}
	return repository.Cart{}, pgx.ErrNoRows
}

func (m *mockQuerier) GetCartBySessionID(ctx context.Context, sessionID string) (repository.Cart, error) {
	if m.getCartBySessionIDFunc != nil {
		return m.getCartBySessionIDFunc(ctx, sessionID)
	}
	return repository.Cart{}, pgx.ErrNoRows
}

func (m *mockQuerier) DeleteCart(ctx context.Context, id pgtype.UUID) error {
	if m.deleteCartFunc != nil {
		return m.deleteCartFunc(ctx, id)
	}
	return nil
}

func (m *mockQuerier) GetCartItems(ctx context.Context, cartID pgtype.UUID) ([]repository.GetCartItemsRow, error) {
	if m.getCartItemsFunc != nil {
		return m.getCartItemsFunc(ctx, cartID)
	}
	return nil, nil
}

func (m *mockQuerier) GetCartItem(ctx context.Context, arg repository.GetCartItemParams) (repository.CartItem, error) {
	if m.getCartItemFunc != nil {
		return m.getCartItemFunc(ctx, arg)
	}
	return repository.CartItem{}, pgx.ErrNoRows
}

func (m *mockQuerier) GetCartItemByID(ctx context.Context, id pgtype.UUID) (repository.GetCartItemByIDRow, error) {
	if m.getCartItemByIDFunc != nil {
		return m.getCartItemByIDFunc(ctx, id)
	}
	return repository.GetCartItemByIDRow{}, pgx.ErrNoRows
}

func (m *mockQuerier) UpsertCartItem(ctx context.Context, arg repository.UpsertCartItemParams) (repository.CartItem, error) {
	if m.upsertCartItemFunc != nil {
		return m.upsertCartItemFunc(ctx, arg)
	}
	return repository.CartItem{CartID: arg.CartID, ProductID: arg.ProductID, Quantity: arg.Quantity}, nil
}

func (m *mockQuerier) SetCartItemQuantity(ctx context.Context, arg repository.SetCartItemQuantityParams) error {
	if m.setCartItemQuantityFunc != nil {
		return m.setCartItemQuantityFunc(ctx, arg)
	}
	return nil
}

func (m *mockQuerier) DeleteCartItem(ctx context.Context, arg repository.DeleteCartItemParams) (int64, error) {
	if m.deleteCartItemFunc != nil {
		return m.deleteCartItemFunc(ctx, arg)
	}
	return 0, nil
}

func (m *mockQuerier) ClearCartItems(ctx context.Context, cartID pgtype.UUID) error {
	if m.clearCartItemsFunc != nil {
		return m.clearCartItemsFunc(ctx, cartID)
	}
	return nil
}

func (m *mockQuerier) NextOrderSequence(ctx context.Context, day pgtype.Date) (int32, error) {
	if m.nextOrderSequenceFunc != nil {
		return m.nextOrderSequenceFunc(ctx, day)
	}
	return 1, nil
}

func (m *mockQuerier) CreateOrder(ctx context.Context, arg repository.CreateOrderParams) (repository.Order, error) {
	if m.createOrderFunc != nil {
		return m.createOrderFunc(ctx, arg)
	}
	return repository.Order{
		ID:              newUUID("order-new"),
		OrderNumber:     arg.OrderNumber,
		UserID:          arg.UserID,
		Status:          arg.Status,
		Subtotal:        arg.Subtotal,
		Tax:             arg.Tax,
		Shipping:        arg.Shipping,
		Discount:        arg.Discount,
		Total:           arg.Total,
		ShippingAddress: arg.ShippingAddress,
		BillingAddress:  arg.BillingAddress,
		Notes:           arg.Notes,
	}, nil
}

func (m *mockQuerier) CreateOrderItem(ctx context.Context, arg repository.CreateOrderItemParams) (repository.OrderItem, error) {
	if m.createOrderItemFunc != nil {
		return m.createOrderItemFunc(ctx, arg)
	}
	return repository.OrderItem{
		OrderID:   arg.OrderID,
		ProductID: arg.ProductID,
		Name:      arg.Name,
		Sku:       arg.Sku,
		Price:     arg.Price,
		Quantity:  arg.Quantity,
		Variant:   arg.Variant,
	}, nil
}

func (m *mockQuerier) GetOrderByID(ctx context.Context, id pgtype.UUID) (repository.Order, error) {
	if m.getOrderByIDFunc != nil {
		return m.getOrderByIDFunc(ctx, id)
	}
	return repository.Order{}, pgx.ErrNoRows
}

func (m *mockQuerier) GetOrderByNumber(ctx context.Context, orderNumber string) (repository.Order, error) {
	if m.getOrderByNumberFunc != nil {
		return m.getOrderByNumberFunc(ctx, orderNumber)
	}
	return repository.Order{}, pgx.ErrNoRows
}

func (m *mockQuerier) GetOrderItems(ctx context.Context, orderID pgtype.UUID) ([]repository.OrderItem, error) {
	if m.getOrderItemsFunc != nil {
		return m.getOrderItemsFunc(ctx, orderID)
	}
	return nil, nil
}

func (m *mockQuerier) ListOrders(ctx context.Context, arg repository.ListOrdersParams) ([]repository.Order, error) {
	if m.listOrdersFunc != nil {
		return m.listOrdersFunc(ctx, arg)
	}
	return nil, nil
}

func (m *mockQuerier) CountOrders(ctx context.Context, arg repository.ListOrdersParams) (int64, error) {
	if m.countOrdersFunc != nil {
		return m.countOrdersFunc(ctx, arg)
	}
	return 0, nil
}

func (m *mockQuerier) UpdateOrder(ctx context.Context, arg repository.UpdateOrderParams) (repository.Order, error) {
	if m.updateOrderFunc != nil {
		return m.updateOrderFunc(ctx, arg)
	}
	return repository.Order{}, pgx.ErrNoRows
}

func (m *mockQuerier) GetOrderStats(ctx context.Context) (repository.GetOrderStatsRow, error) {
	if m.getOrderStatsFunc != nil {
		return m.getOrderStatsFunc(ctx)
	}
	return repository.GetOrderStatsRow{}, nil
}

// mockTx satisfies repository.Tx over the same mockQuerier so statements
// "inside" the transaction hit the same func fields.
type mockTx struct {
	q         repository.Querier
	commits   int
	rollbacks int
}

func (t *mockTx) Queries() repository.Querier { return t.q }

func (t *mockTx) Commit(ctx context.Context) error {
	t.commits++
	return nil
}

func (t *mockTx) Rollback(ctx context.Context) error {
	t.rollbacks++
	return nil
}

// mockStore combines the mock querier with single-transaction bookkeeping.
type mockStore struct {
	mockQuerier
	tx *mockTx
}

var _ repository.Store = (*mockStore)(nil)

func newMockStore() *mockStore {
	s := &mockStore{}
	s.tx = &mockTx{q: &s.mockQuerier}
	return s
}

func (s *mockStore) BeginTx(ctx context.Context) (repository.Tx, error) {
	return s.tx, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// newUUID derives a deterministic valid pgtype.UUID from a label.
func newUUID(label string) pgtype.UUID {
	var id pgtype.UUID
	copy(id.Bytes[:], []byte(label))
	id.Valid = true
	return id
}

func textVal(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: true}
}
