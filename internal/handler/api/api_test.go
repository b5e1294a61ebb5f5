package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/dungeun/codeB-core-engine/internal/domain"
	"github.com/dungeun/codeB-core-engine/internal/middleware"
	"github.com/dungeun/codeB-core-engine/internal/telemetry"
)

// Business metrics register against the default Prometheus registry, so the
// test package shares a single instance.
var testMetrics = telemetry.NewBusinessMetrics("commerce_handler_test")

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

const (
	testUserID    = "f47ac10b-58cc-4372-a567-0e02b2c3d479"
	otherUserID   = "9e107d9d-372b-4f2a-9207-1b1a2c3d4e5f"
	testProductID = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
	testSessionID = "6e1a2f9c-bb4d-4c35-9d0e-0b7f4a6b1c2d"
)

// newRequest builds a request carrying a resolved identity and role, the way
// the identity middleware would.
func newRequest(method, target, body string, identity domain.Identity, role string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	ctx := context.WithValue(req.Context(), middleware.IdentityContextKey, identity)
	ctx = context.WithValue(ctx, middleware.RoleContextKey, role)
	return req.WithContext(ctx)
}

// =============================================================================
// MOCK SERVICES
// =============================================================================

var (
	_ domain.CartService    = (*mockCartService)(nil)
	_ domain.OrderService   = (*mockOrderService)(nil)
	_ domain.ProductService = (*mockProductService)(nil)
)

// mockCartService is a mock implementation of domain.CartService for testing.
type mockCartService struct {
	getCartFunc            func(ctx context.Context, identity domain.Identity) (*domain.CartDetail, error)
	addItemFunc            func(ctx context.Context, identity domain.Identity, productID string, quantity int, variant map[string]string) (*domain.CartDetail, error)
	updateItemQuantityFunc func(ctx context.Context, cartItemID string, quantity int) (*domain.CartDetail, error)
	removeItemFunc         func(ctx context.Context, identity domain.Identity, productID string) (*domain.CartDetail, error)
	clearCartFunc          func(ctx context.Context, identity domain.Identity) error
	mergeFunc              func(ctx context.Context, sessionID, userID string) (*domain.CartDetail, error)
	itemCountFunc          func(ctx context.Context, identity domain.Identity) (int, error)
}

func (m *mockCartService) GetCart(ctx context.Context, identity domain.Identity) (*domain.CartDetail, error) {
	if m.getCartFunc != nil {
		return m.getCartFunc(ctx, identity)
	}
	return nil, nil
}

func (m *mockCartService) AddItem(ctx context.Context, identity domain.Identity, productID string, quantity int, variant map[string]string) (*domain.CartDetail, error) {
	if m.addItemFunc != nil {
		return m.addItemFunc(ctx, identity, productID, quantity, variant)
	}
	return nil, errors.New("not implemented")
}

func (m *mockCartService) UpdateItemQuantity(ctx context.Context, cartItemID string, quantity int) (*domain.CartDetail, error) {
	if m.updateItemQuantityFunc != nil {
		return m.updateItemQuantityFunc(ctx, cartItemID, quantity)
	}
	return nil, errors.New("not implemented")
}

func (m *mockCartService) RemoveItem(ctx context.Context, identity domain.Identity, productID string) (*domain.CartDetail, error) {
	if m.removeItemFunc != nil {
		return m.removeItemFunc(ctx, identity, productID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockCartService) ClearCart(ctx context.Context, identity domain.Identity) error {
	if m.clearCartFunc != nil {
		return m.clearCartFunc(ctx, identity)
	}
	return errors.New("not implemented")
}

func (m *mockCartService) MergeSessionIntoUser(ctx context.Context, sessionID, userID string) (*domain.CartDetail, error) {
	if m.mergeFunc != nil {
		return m.mergeFunc(ctx, sessionID, userID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockCartService) ItemCount(ctx context.Context, identity domain.Identity) (int, error) {
	if m.itemCountFunc != nil {
		return m.itemCountFunc(ctx, identity)
	}
	return 0, errors.New("not implemented")
}

// mockOrderService is a mock implementation of domain.OrderService for testing.
type mockOrderService struct {
	createOrderFunc      func(ctx context.Context, input domain.CreateOrderInput) (*domain.OrderDetail, error)
	getOrdersFunc        func(ctx context.Context, filter domain.OrderFilter, sort domain.Sort, page domain.Pagination) (*domain.OrderPage, error)
	getOrderByIDFunc     func(ctx context.Context, orderID string) (*domain.OrderDetail, error)
	getOrderByNumberFunc func(ctx context.Context, orderNumber string) (*domain.OrderDetail, error)
	updateOrderFunc      func(ctx context.Context, orderID string, patch domain.OrderPatch) (*domain.OrderDetail, error)
	updateShippingFunc   func(ctx context.Context, orderID, trackingNumber, carrier string) (*domain.OrderDetail, error)
	completeOrderFunc    func(ctx context.Context, orderID string) (*domain.OrderDetail, error)
	cancelOrderFunc      func(ctx context.Context, orderID, reason string, asAdmin bool) (*domain.OrderDetail, error)
	getOrderStatsFunc    func(ctx context.Context) (*domain.OrderStats, error)
}

func (m *mockOrderService) CreateOrder(ctx context.Context, input domain.CreateOrderInput) (*domain.OrderDetail, error) {
	if m.createOrderFunc != nil {
		return m.createOrderFunc(ctx, input)
	}
	return nil, errors.New("not implemented")
}

func (m *mockOrderService) GetOrders(ctx context.Context, filter domain.OrderFilter, sort domain.Sort, page domain.Pagination) (*domain.OrderPage, error) {
	if m.getOrdersFunc != nil {
		return m.getOrdersFunc(ctx, filter, sort, page)
	}
	return nil, errors.New("not implemented")
}

func (m *mockOrderService) GetOrderByID(ctx context.Context, orderID string) (*domain.OrderDetail, error) {
	if m.getOrderByIDFunc != nil {
		return m.getOrderByIDFunc(ctx, orderID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockOrderService) GetOrderByNumber(ctx context.Context, orderNumber string) (*domain.OrderDetail, error) {
	if m.getOrderByNumberFunc != nil {
		return m.getOrderByNumberFunc(ctx, orderNumber)
	}
	return nil, errors.New("not implemented")
}

func (m *mockOrderService) UpdateOrder(ctx context.Context, orderID string, patch domain.OrderPatch) (*domain.OrderDetail, error) {
	if m.updateOrderFunc != nil {
		return m.updateOrderFunc(ctx, orderID, patch)
	}
	return nil, errors.New("not implemented")
}

func (m *mockOrderService) UpdateShipping(ctx context.Context, orderID, trackingNumber, carrier string) (*domain.OrderDetail, error) {
	if m.updateShippingFunc != nil {
		return m.updateShippingFunc(ctx, orderID, trackingNumber, carrier)
	}
	return nil, errors.New("not implemented")
}

func (m *mockOrderService) CompleteOrder(ctx context.Context, orderID string) (*domain.OrderDetail, error) {
	if m.completeOrderFunc != nil {
		return m.completeOrderFunc(ctx, orderID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockOrderService) CancelOrder(ctx context.Context, orderID, reason string, asAdmin bool) (*domain.OrderDetail, error) {
	if m.cancelOrderFunc != nil {
		return m.cancelOrderFunc(ctx, orderID, reason, asAdmin)
	}
	return nil, errors.New("not implemented")
}

func (m *mockOrderService) GetOrderStats(ctx context.Context) (*domain.OrderStats, error) {
	if m.getOrderStatsFunc != nil {
		return m.getOrderStatsFunc(ctx)
	}
	return nil, errors.New("not implemented")
}

// mockProductService is a mock implementation of domain.ProductService for
// testing.
type mockProductService struct {
	listProductsFunc  func(ctx context.Context, filter domain.ProductFilter, sort domain.Sort, page domain.Pagination) (*domain.ProductPage, error)
	getProductFunc    func(ctx context.Context, productID string) (*domain.Product, error)
	createProductFunc func(ctx context.Context, input domain.CreateProductInput) (*domain.Product, error)
	updateProductFunc func(ctx context.Context, productID string, input domain.UpdateProductInput) (*domain.Product, error)
}

func (m *mockProductService) ListProducts(ctx context.Context, filter domain.ProductFilter, sort domain.Sort, page domain.Pagination) (*domain.ProductPage, error) {
	if m.listProductsFunc != nil {
		return m.listProductsFunc(ctx, filter, sort, page)
	}
	return nil, errors.New("not implemented")
}

func (m *mockProductService) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	if m.getProductFunc != nil {
		return m.getProductFunc(ctx, productID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockProductService) CreateProduct(ctx context.Context, input domain.CreateProductInput) (*domain.Product, error) {
	if m.createProductFunc != nil {
		return m.createProductFunc(ctx, input)
	}
	return nil, errors.New("not implemented")
}

func (m *mockProductService) UpdateProduct(ctx context.Context, productID string, input domain.UpdateProductInput) (*domain.Product, error) {
	if m.updateProductFunc != nil {
		return m.updateProductFunc(ctx, productID, input)
	}
	return nil, errors.New("not implemented")
}
