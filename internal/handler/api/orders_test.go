package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dungeun/codeB-core-engine/internal/domain"
)

func newOrderHandler(orders *mockOrderService) *OrderHandler {
	return NewOrderHandler(orders, testMetrics, testLogger)
}

func ownedOrderDetail(userID string) *domain.OrderDetail {
	var id pgtype.UUID
	_ = id.Scan(userID)
	return &domain.OrderDetail{
		Order: domain.Order{
			OrderNumber: "ORD202608310001",
			UserID:      id,
			Status:      domain.OrderStatusPending,
			Subtotal:    29_000,
			Tax:         2_900,
			Shipping:    3_000,
			Total:       34_900,
		},
		Items: []domain.OrderItem{
			{Name: "Ceramic Mug", SKU: "MUG-001", Price: 12_000, Quantity: 2},
		},
	}
}

const createOrderBody = `{
	"items": [{"productId": "6ba7b810-9dad-11d1-80b4-00c04fd430c8", "quantity": 2}],
	"subtotal": 24000,
	"tax": 2400,
	"shipping": 3000,
	"total": 29400,
	"shippingAddress": {
		"fullName": "Jamie Park",
		"phone": "010-1234-5678",
		"email": "jamie@example.com",
		"address1": "12 Teheran-ro",
		"city": "Seoul",
		"postalCode": "06234",
		"country": "KR"
	}
}`

func Test_OrderHandler_CreateOrder(t *testing.T) {
	var gotInput domain.CreateOrderInput
	orders := &mockOrderService{
		createOrderFunc: func(ctx context.Context, input domain.CreateOrderInput) (*domain.OrderDetail, error) {
			gotInput = input
			return ownedOrderDetail(testUserID), nil
		},
	}
	h := newOrderHandler(orders)

	req := newRequest(http.MethodPost, "/api/orders", createOrderBody, domain.Identity{UserID: testUserID}, "")
	w := httptest.NewRecorder()
	h.CreateOrder(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, testUserID, gotInput.UserID)
	require.Len(t, gotInput.Items, 1)
	assert.Equal(t, int32(2), gotInput.Items[0].Quantity)
	// Billing defaults to the shipping address when omitted.
	assert.Equal(t, gotInput.ShippingAddress, gotInput.BillingAddress)

	var resp orderResponse
	decodeBody(t, w, &resp)
	assert.Equal(t, "ORD202608310001", resp.OrderNumber)
	assert.Equal(t, string(domain.OrderStatusPending), resp.Status)
	require.Len(t, resp.Items, 1)
}

func Test_OrderHandler_CreateOrder_GuestAllowed(t *testing.T) {
	var gotInput domain.CreateOrderInput
	orders := &mockOrderService{
		createOrderFunc: func(ctx context.Context, input domain.CreateOrderInput) (*domain.OrderDetail, error) {
			gotInput = input
			return ownedOrderDetail(""), nil
		},
	}
	h := newOrderHandler(orders)

	req := newRequest(http.MethodPost, "/api/orders", createOrderBody, domain.Identity{SessionID: testSessionID}, "")
	w := httptest.NewRecorder()
	h.CreateOrder(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, gotInput.UserID)
}

func Test_OrderHandler_CreateOrder_ValidationErrors(t *testing.T) {
	h := newOrderHandler(&mockOrderService{})

	tests := []struct {
		name string
		body string
	}{
		{name: "empty body", body: ""},
		{name: "no items", body: `{"items": [], "total": 0, "shippingAddress": {}}`},
		{name: "missing address", body: `{"items": [{"productId": "6ba7b810-9dad-11d1-80b4-00c04fd430c8", "quantity": 1}], "total": 100}`},
		{name: "negative total", body: `{"items": [{"productId": "6ba7b810-9dad-11d1-80b4-00c04fd430c8", "quantity": 1}], "total": -5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newRequest(http.MethodPost, "/api/orders", tt.body, domain.Identity{UserID: testUserID}, "")
			w := httptest.NewRecorder()
			h.CreateOrder(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func Test_OrderHandler_CreateOrder_StockConflict(t *testing.T) {
	orders := &mockOrderService{
		createOrderFunc: func(ctx context.Context, input domain.CreateOrderInput) (*domain.OrderDetail, error) {
			return nil, domain.Errorf(domain.ECONFLICT, "order.create", "insufficient stock: Ceramic Mug")
		},
	}
	h := newOrderHandler(orders)

	req := newRequest(http.MethodPost, "/api/orders", createOrderBody, domain.Identity{UserID: testUserID}, "")
	w := httptest.NewRecorder()
	h.CreateOrder(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func Test_OrderHandler_ListOrders_AnonymousRejected(t *testing.T) {
	h := newOrderHandler(&mockOrderService{})

	req := newRequest(http.MethodGet, "/api/orders", "", domain.Identity{SessionID: testSessionID}, "")
	w := httptest.NewRecorder()
	h.ListOrders(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func Test_OrderHandler_ListOrders_CustomerScopedToOwnOrders(t *testing.T) {
	var gotFilter domain.OrderFilter
	orders := &mockOrderService{
		getOrdersFunc: func(ctx context.Context, filter domain.OrderFilter, sort domain.Sort, page domain.Pagination) (*domain.OrderPage, error) {
			gotFilter = filter
			return &domain.OrderPage{}, nil
		},
	}
	h := newOrderHandler(orders)

	// A customer asking for someone else's orders still only gets their own.
	req := newRequest(http.MethodGet, "/api/orders?userId="+otherUserID, "", domain.Identity{UserID: testUserID}, "customer")
	w := httptest.NewRecorder()
	h.ListOrders(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, testUserID, gotFilter.UserID)
}

func Test_OrderHandler_ListOrders_AdminMayFilterByUser(t *testing.T) {
	var gotFilter domain.OrderFilter
	var gotSort domain.Sort
	var gotPage domain.Pagination
	orders := &mockOrderService{
		getOrdersFunc: func(ctx context.Context, filter domain.OrderFilter, sort domain.Sort, page domain.Pagination) (*domain.OrderPage, error) {
			gotFilter = filter
			gotSort = sort
			gotPage = page
			return &domain.OrderPage{}, nil
		},
	}
	h := newOrderHandler(orders)

	target := "/api/orders?userId=" + otherUserID + "&status=SHIPPED&startDate=2026-08-01&minTotal=10000&sortBy=total&sortDesc=true&page=2&limit=50"
	req := newRequest(http.MethodGet, target, "", domain.Identity{UserID: testUserID}, "admin")
	w := httptest.NewRecorder()
	h.ListOrders(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, otherUserID, gotFilter.UserID)
	require.NotNil(t, gotFilter.Status)
	assert.Equal(t, domain.OrderStatusShipped, *gotFilter.Status)
	require.NotNil(t, gotFilter.StartDate)
	require.NotNil(t, gotFilter.MinTotal)
	assert.Equal(t, int64(10_000), *gotFilter.MinTotal)
	assert.Equal(t, domain.Sort{Field: "total", Desc: true}, gotSort)
	assert.Equal(t, domain.Pagination{Page: 2, Limit: 50}, gotPage)
}

func Test_OrderHandler_GetOrder_OwnerReads(t *testing.T) {
	orders := &mockOrderService{
		getOrderByIDFunc: func(ctx context.Context, orderID string) (*domain.OrderDetail, error) {
			return ownedOrderDetail(testUserID), nil
		},
	}
	h := newOrderHandler(orders)

	req := newRequest(http.MethodGet, "/api/orders/abc", "", domain.Identity{UserID: testUserID}, "customer")
	req.SetPathValue("id", "abc")
	w := httptest.NewRecorder()
	h.GetOrder(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func Test_OrderHandler_GetOrder_ForeignOrderHiddenAs404(t *testing.T) {
	orders := &mockOrderService{
		getOrderByIDFunc: func(ctx context.Context, orderID string) (*domain.OrderDetail, error) {
			return ownedOrderDetail(otherUserID), nil
		},
	}
	h := newOrderHandler(orders)

	req := newRequest(http.MethodGet, "/api/orders/abc", "", domain.Identity{UserID: testUserID}, "customer")
	req.SetPathValue("id", "abc")
	w := httptest.NewRecorder()
	h.GetOrder(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func Test_OrderHandler_GetOrder_AdminReadsAny(t *testing.T) {
	orders := &mockOrderService{
		getOrderByIDFunc: func(ctx context.Context, orderID string) (*domain.OrderDetail, error) {
			return ownedOrderDetail(otherUserID), nil
		},
	}
	h := newOrderHandler(orders)

	req := newRequest(http.MethodGet, "/api/orders/abc", "", domain.Identity{UserID: testUserID}, "admin")
	req.SetPathValue("id", "abc")
	w := httptest.NewRecorder()
	h.GetOrder(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func Test_OrderHandler_GetOrderByNumber(t *testing.T) {
	var gotNumber string
	orders := &mockOrderService{
		getOrderByNumberFunc: func(ctx context.Context, orderNumber string) (*domain.OrderDetail, error) {
			gotNumber = orderNumber
			return ownedOrderDetail(testUserID), nil
		},
	}
	h := newOrderHandler(orders)

	req := newRequest(http.MethodGet, "/api/orders/number/ORD202608310001", "", domain.Identity{UserID: testUserID}, "customer")
	req.SetPathValue("number", "ORD202608310001")
	w := httptest.NewRecorder()
	h.GetOrderByNumber(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ORD202608310001", gotNumber)
}

func Test_OrderHandler_CancelOrder_CustomerCancelsOwn(t *testing.T) {
	var gotReason string
	var gotAsAdmin bool
	orders := &mockOrderService{
		getOrderByIDFunc: func(ctx context.Context, orderID string) (*domain.OrderDetail, error) {
			return ownedOrderDetail(testUserID), nil
		},
		cancelOrderFunc: func(ctx context.Context, orderID, reason string, asAdmin bool) (*domain.OrderDetail, error) {
			gotReason = reason
			gotAsAdmin = asAdmin
			detail := ownedOrderDetail(testUserID)
			detail.Order.Status = domain.OrderStatusCancelled
			return detail, nil
		},
	}
	h := newOrderHandler(orders)

	req := newRequest(http.MethodPost, "/api/orders/abc/cancel", `{"reason":"changed my mind"}`, domain.Identity{UserID: testUserID}, "customer")
	req.SetPathValue("id", "abc")
	w := httptest.NewRecorder()
	h.CancelOrder(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "changed my mind", gotReason)
	assert.False(t, gotAsAdmin)
}

func Test_OrderHandler_CancelOrder_CustomerCannotCancelForeign(t *testing.T) {
	cancelled := false
	orders := &mockOrderService{
		getOrderByIDFunc: func(ctx context.Context, orderID string) (*domain.OrderDetail, error) {
			return ownedOrderDetail(otherUserID), nil
		},
		cancelOrderFunc: func(ctx context.Context, orderID, reason string, asAdmin bool) (*domain.OrderDetail, error) {
			cancelled = true
			return nil, nil
		},
	}
	h := newOrderHandler(orders)

	req := newRequest(http.MethodPost, "/api/orders/abc/cancel", "", domain.Identity{UserID: testUserID}, "customer")
	req.SetPathValue("id", "abc")
	w := httptest.NewRecorder()
	h.CancelOrder(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, cancelled)
}

func Test_OrderHandler_CancelOrder_AdminSkipsOwnershipCheck(t *testing.T) {
	var gotAsAdmin bool
	orders := &mockOrderService{
		cancelOrderFunc: func(ctx context.Context, orderID, reason string, asAdmin bool) (*domain.OrderDetail, error) {
			gotAsAdmin = asAdmin
			detail := ownedOrderDetail(otherUserID)
			detail.Order.Status = domain.OrderStatusCancelled
			return detail, nil
		},
	}
	h := newOrderHandler(orders)

	req := newRequest(http.MethodPost, "/api/orders/abc/cancel", "", domain.Identity{UserID: testUserID}, "admin")
	req.SetPathValue("id", "abc")
	w := httptest.NewRecorder()
	h.CancelOrder(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, gotAsAdmin)
}

func Test_OrderHandler_CancelOrder_NotCancellable(t *testing.T) {
	orders := &mockOrderService{
		cancelOrderFunc: func(ctx context.Context, orderID, reason string, asAdmin bool) (*domain.OrderDetail, error) {
			return nil, domain.ErrOrderNotCancellable
		},
	}
	h := newOrderHandler(orders)

	req := newRequest(http.MethodPost, "/api/orders/abc/cancel", "", domain.Identity{UserID: testUserID}, "admin")
	req.SetPathValue("id", "abc")
	w := httptest.NewRecorder()
	h.CancelOrder(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func Test_OrderHandler_UpdateOrder(t *testing.T) {
	var gotPatch domain.OrderPatch
	orders := &mockOrderService{
		updateOrderFunc: func(ctx context.Context, orderID string, patch domain.OrderPatch) (*domain.OrderDetail, error) {
			gotPatch = patch
			detail := ownedOrderDetail(testUserID)
			detail.Order.Status = domain.OrderStatusProcessing
			return detail, nil
		},
	}
	h := newOrderHandler(orders)

	req := newRequest(http.MethodPatch, "/api/orders/abc", `{"status":"PROCESSING","notes":"expedite"}`, domain.Identity{UserID: testUserID}, "admin")
	req.SetPathValue("id", "abc")
	w := httptest.NewRecorder()
	h.UpdateOrder(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, gotPatch.Status)
	assert.Equal(t, domain.OrderStatusProcessing, *gotPatch.Status)
	require.NotNil(t, gotPatch.Notes)
	assert.Equal(t, "expedite", *gotPatch.Notes)
	assert.Nil(t, gotPatch.TrackingNumber)
}

func Test_OrderHandler_ShipOrder(t *testing.T) {
	var gotTracking, gotCarrier string
	orders := &mockOrderService{
		updateShippingFunc: func(ctx context.Context, orderID, trackingNumber, carrier string) (*domain.OrderDetail, error) {
			gotTracking = trackingNumber
			gotCarrier = carrier
			detail := ownedOrderDetail(testUserID)
			detail.Order.Status = domain.OrderStatusShipped
			return detail, nil
		},
	}
	h := newOrderHandler(orders)

	req := newRequest(http.MethodPost, "/api/orders/abc/ship", `{"trackingNumber":"CJ123456789KR","carrier":"CJ Logistics"}`, domain.Identity{UserID: testUserID}, "admin")
	req.SetPathValue("id", "abc")
	w := httptest.NewRecorder()
	h.ShipOrder(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "CJ123456789KR", gotTracking)
	assert.Equal(t, "CJ Logistics", gotCarrier)
}

func Test_OrderHandler_ShipOrder_RequiresTracking(t *testing.T) {
	h := newOrderHandler(&mockOrderService{})

	req := newRequest(http.MethodPost, "/api/orders/abc/ship", `{"carrier":"UPS"}`, domain.Identity{UserID: testUserID}, "admin")
	req.SetPathValue("id", "abc")
	w := httptest.NewRecorder()
	h.ShipOrder(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func Test_OrderHandler_GetOrderStats(t *testing.T) {
	orders := &mockOrderService{
		getOrderStatsFunc: func(ctx context.Context) (*domain.OrderStats, error) {
			return &domain.OrderStats{TotalOrders: 12, TotalRevenue: 420_000, AverageOrderValue: 35_000}, nil
		},
	}
	h := newOrderHandler(orders)

	req := newRequest(http.MethodGet, "/api/orders/stats", "", domain.Identity{UserID: testUserID}, "admin")
	w := httptest.NewRecorder()
	h.GetOrderStats(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp domain.OrderStats
	decodeBody(t, w, &resp)
	assert.Equal(t, int64(12), resp.TotalOrders)
	assert.Equal(t, int64(35_000), resp.AverageOrderValue)
}
