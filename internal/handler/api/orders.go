package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dungeun/codeB-core-engine/internal/domain"
	"github.com/dungeun/codeB-core-engine/internal/handler"
	"github.com/dungeun/codeB-core-engine/internal/middleware"
	"github.com/dungeun/codeB-core-engine/internal/telemetry"
)

// OrderHandler serves the /api/orders surface.
type OrderHandler struct {
	orders  domain.OrderService
	metrics *telemetry.BusinessMetrics
	logger  *slog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(orders domain.OrderService, metrics *telemetry.BusinessMetrics, logger *slog.Logger) *OrderHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderHandler{
		orders:  orders,
		metrics: metrics,
		logger:  logger,
	}
}

type createOrderItemRequest struct {
	ProductID string            `json:"productId" validate:"required,uuid"`
	Quantity  int32             `json:"quantity" validate:"required,min=1,max=99"`
	Variant   map[string]string `json:"variant,omitempty"`
}

type createOrderRequest struct {
	Items           []createOrderItemRequest `json:"items" validate:"required,min=1,dive"`
	Subtotal        int64                    `json:"subtotal" validate:"gte=0"`
	Tax             int64                    `json:"tax" validate:"gte=0"`
	Shipping        int64                    `json:"shipping" validate:"gte=0"`
	Discount        int64                    `json:"discount" validate:"gte=0"`
	Total           int64                    `json:"total" validate:"gte=0"`
	ShippingAddress domain.Address           `json:"shippingAddress" validate:"required"`
	BillingAddress  *domain.Address          `json:"billingAddress,omitempty"`
	Notes           string                   `json:"notes,omitempty" validate:"max=500"`
}

// CreateOrder handles POST /api/orders. Guests may order; signed-in users
// get the order attached to their account.
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	var req createOrderRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.Error(w, r, err)
		return
	}

	billing := req.ShippingAddress
	if req.BillingAddress != nil {
		billing = *req.BillingAddress
	}

	items := make([]domain.CreateOrderItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, domain.CreateOrderItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Variant:   item.Variant,
		})
	}

	detail, err := h.orders.CreateOrder(r.Context(), domain.CreateOrderInput{
		UserID:          identity.UserID,
		Items:           items,
		Subtotal:        req.Subtotal,
		Tax:             req.Tax,
		Shipping:        req.Shipping,
		Discount:        req.Discount,
		Total:           req.Total,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  billing,
		Notes:           req.Notes,
	})
	if err != nil {
		if domain.IsCode(err, domain.ECONFLICT) {
			h.metrics.StockConflicts.WithLabelValues("order_create").Inc()
		}
		handler.Error(w, r, err)
		return
	}

	kind := identityKind(identity)
	h.metrics.OrdersCreated.WithLabelValues(kind).Inc()
	h.metrics.OrderValue.WithLabelValues(kind).Observe(float64(detail.Order.Total))
	h.metrics.OrderItemCount.WithLabelValues(kind).Observe(float64(len(detail.Items)))

	handler.RespondJSON(w, http.StatusCreated, toOrderDetailResponse(detail))
}

// ListOrders handles GET /api/orders. Customers see only their own orders;
// admins may filter across all of them.
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	isAdmin := middleware.IsAdmin(r.Context())
	query := r.URL.Query()

	filter := domain.OrderFilter{}
	if isAdmin {
		filter.UserID = query.Get("userId")
	} else {
		if !identity.IsUser() {
			handler.Error(w, r, domain.Unauthorized("order.list", "Sign in to view your orders"))
			return
		}
		filter.UserID = identity.UserID
	}

	if raw := query.Get("status"); raw != "" {
		status := domain.OrderStatus(raw)
		filter.Status = &status
	}
	if t, ok := parseDate(query.Get("startDate")); ok {
		filter.StartDate = &t
	}
	if t, ok := parseDate(query.Get("endDate")); ok {
		filter.EndDate = &t
	}
	if v, err := strconv.ParseInt(query.Get("minTotal"), 10, 64); err == nil {
		filter.MinTotal = &v
	}
	if v, err := strconv.ParseInt(query.Get("maxTotal"), 10, 64); err == nil {
		filter.MaxTotal = &v
	}

	page, err := h.orders.GetOrders(r.Context(), filter, parseSort(query), parsePagination(query))
	if err != nil {
		handler.Error(w, r, err)
		return
	}

	orders := make([]orderResponse, 0, len(page.Orders))
	for _, order := range page.Orders {
		orders = append(orders, toOrderResponse(order))
	}

	handler.RespondJSON(w, http.StatusOK, map[string]any{
		"orders":     orders,
		"pagination": toPageInfoResponse(page.Pagination),
	})
}

// GetOrder handles GET /api/orders/{id}.
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	detail, err := h.orders.GetOrderByID(r.Context(), r.PathValue("id"))
	if err != nil {
		handler.Error(w, r, err)
		return
	}
	if err := h.authorizeRead(r, detail); err != nil {
		handler.Error(w, r, err)
		return
	}

	handler.RespondJSON(w, http.StatusOK, toOrderDetailResponse(detail))
}

// GetOrderByNumber handles GET /api/orders/number/{number}.
func (h *OrderHandler) GetOrderByNumber(w http.ResponseWriter, r *http.Request) {
	detail, err := h.orders.GetOrderByNumber(r.Context(), r.PathValue("number"))
	if err != nil {
		handler.Error(w, r, err)
		return
	}
	if err := h.authorizeRead(r, detail); err != nil {
		handler.Error(w, r, err)
		return
	}

	handler.RespondJSON(w, http.StatusOK, toOrderDetailResponse(detail))
}

type cancelOrderRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=500"`
}

// CancelOrder handles POST /api/orders/{id}/cancel.
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	isAdmin := middleware.IsAdmin(r.Context())

	// Customers may only cancel their own orders.
	if !isAdmin {
		detail, err := h.orders.GetOrderByID(r.Context(), r.PathValue("id"))
		if err != nil {
			handler.Error(w, r, err)
			return
		}
		if err := h.authorizeRead(r, detail); err != nil {
			handler.Error(w, r, err)
			return
		}
	}

	var req cancelOrderRequest
	if r.ContentLength > 0 {
		if err := handler.DecodeJSON(r, &req); err != nil {
			handler.Error(w, r, err)
			return
		}
	}

	detail, err := h.orders.CancelOrder(r.Context(), r.PathValue("id"), req.Reason, isAdmin)
	if err != nil {
		handler.Error(w, r, err)
		return
	}

	actor := "customer"
	if isAdmin {
		actor = "admin"
	}
	h.metrics.OrdersCancelled.WithLabelValues(actor).Inc()

	handler.RespondJSON(w, http.StatusOK, toOrderDetailResponse(detail))
}

type updateOrderRequest struct {
	Status         *string `json:"status,omitempty"`
	TrackingNumber *string `json:"trackingNumber,omitempty" validate:"omitempty,max=100"`
	Carrier        *string `json:"carrier,omitempty" validate:"omitempty,max=50"`
	Notes          *string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// UpdateOrder handles PATCH /api/orders/{id}. Admin only.
func (h *OrderHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	var req updateOrderRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.Error(w, r, err)
		return
	}

	patch := domain.OrderPatch{
		TrackingNumber: req.TrackingNumber,
		Carrier:        req.Carrier,
		Notes:          req.Notes,
	}
	if req.Status != nil {
		status := domain.OrderStatus(*req.Status)
		patch.Status = &status
	}

	detail, err := h.orders.UpdateOrder(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		handler.Error(w, r, err)
		return
	}

	if patch.Status != nil {
		h.metrics.OrderStatusSet.WithLabelValues(string(*patch.Status)).Inc()
	}

	handler.RespondJSON(w, http.StatusOK, toOrderDetailResponse(detail))
}

type shipOrderRequest struct {
	TrackingNumber string `json:"trackingNumber" validate:"required,max=100"`
	Carrier        string `json:"carrier" validate:"required,max=50"`
}

// ShipOrder handles POST /api/orders/{id}/ship. Admin only.
func (h *OrderHandler) ShipOrder(w http.ResponseWriter, r *http.Request) {
	var req shipOrderRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.Error(w, r, err)
		return
	}

	detail, err := h.orders.UpdateShipping(r.Context(), r.PathValue("id"), req.TrackingNumber, req.Carrier)
	if err != nil {
		handler.Error(w, r, err)
		return
	}

	h.metrics.OrderStatusSet.WithLabelValues(string(domain.OrderStatusShipped)).Inc()

	handler.RespondJSON(w, http.StatusOK, toOrderDetailResponse(detail))
}

// CompleteOrder handles POST /api/orders/{id}/complete. Admin only.
func (h *OrderHandler) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	detail, err := h.orders.CompleteOrder(r.Context(), r.PathValue("id"))
	if err != nil {
		handler.Error(w, r, err)
		return
	}

	h.metrics.OrderStatusSet.WithLabelValues(string(domain.OrderStatusDelivered)).Inc()

	handler.RespondJSON(w, http.StatusOK, toOrderDetailResponse(detail))
}

// GetOrderStats handles GET /api/orders/stats. Admin only.
func (h *OrderHandler) GetOrderStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.orders.GetOrderStats(r.Context())
	if err != nil {
		handler.Error(w, r, err)
		return
	}

	handler.RespondJSON(w, http.StatusOK, stats)
}

// authorizeRead hides other users' orders from non-admin callers. The
// response is a 404, not a 403, so order IDs cannot be probed.
func (h *OrderHandler) authorizeRead(r *http.Request, detail *domain.OrderDetail) error {
	if middleware.IsAdmin(r.Context()) {
		return nil
	}

	identity := middleware.GetIdentity(r.Context())
	if identity.IsUser() && uuidString(detail.Order.UserID) == identity.UserID {
		return nil
	}
	return domain.ErrOrderNotFound
}

// parseDate accepts YYYY-MM-DD or RFC 3339 values.
func parseDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func parseSort(query map[string][]string) domain.Sort {
	sort := domain.Sort{}
	if v, ok := query["sortBy"]; ok && len(v) > 0 {
		sort.Field = v[0]
	}
	if v, ok := query["sortDesc"]; ok && len(v) > 0 {
		sort.Desc = v[0] == "true" || v[0] == "1"
	}
	return sort
}

func parsePagination(query map[string][]string) domain.Pagination {
	page := domain.Pagination{}
	if v, ok := query["page"]; ok && len(v) > 0 {
		page.Page, _ = strconv.Atoi(v[0])
	}
	if v, ok := query["limit"]; ok && len(v) > 0 {
		page.Limit, _ = strconv.Atoi(v[0])
	}
	return page
}
