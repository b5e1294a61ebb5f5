package api

import (
	"log/slog"
	"net/http"

	"github.com/dungeun/codeB-core-engine/internal/domain"
	"github.com/dungeun/codeB-core-engine/internal/handler"
	"github.com/dungeun/codeB-core-engine/internal/middleware"
	"github.com/dungeun/codeB-core-engine/internal/telemetry"
)

// CartHandler serves the /api/cart surface.
type CartHandler struct {
	carts   domain.CartService
	pricing domain.Pricing
	metrics *telemetry.BusinessMetrics
	logger  *slog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(carts domain.CartService, pricing domain.Pricing, metrics *telemetry.BusinessMetrics, logger *slog.Logger) *CartHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CartHandler{
		carts:   carts,
		pricing: pricing,
		metrics: metrics,
		logger:  logger,
	}
}

// identityKind labels metrics by caller type.
func identityKind(identity domain.Identity) string {
	if identity.IsUser() {
		return "user"
	}
	return "session"
}

// GetCart handles GET /api/cart.
// A caller without a cart gets an empty cart payload, not a 404.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	detail, err := h.carts.GetCart(r.Context(), identity)
	if err != nil {
		handler.Error(w, r, err)
		return
	}

	handler.RespondJSON(w, http.StatusOK, toCartResponse(detail, h.pricing))
}

type addCartItemRequest struct {
	ProductID string            `json:"productId" validate:"required,uuid"`
	Quantity  int               `json:"quantity" validate:"required,min=1,max=99"`
	Variant   map[string]string `json:"variant,omitempty"`
}

// AddItem handles POST /api/cart/items.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	var req addCartItemRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.Error(w, r, err)
		return
	}

	detail, err := h.carts.AddItem(r.Context(), identity, req.ProductID, req.Quantity, req.Variant)
	if err != nil {
		if domain.IsCode(err, domain.ECONFLICT) {
			h.metrics.StockConflicts.WithLabelValues("cart_add").Inc()
		}
		handler.Error(w, r, err)
		return
	}

	kind := identityKind(identity)
	h.metrics.CartItemsAdded.WithLabelValues(kind).Inc()
	h.metrics.CartValue.WithLabelValues(kind).Observe(float64(detail.Subtotal))

	handler.RespondJSON(w, http.StatusCreated, toCartResponse(detail, h.pricing))
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1,max=99"`
}

// UpdateItem handles PATCH /api/cart/items/{id}.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID := r.PathValue("id")

	var req updateCartItemRequest
	if err := handler.DecodeJSON(r, &req); err != nil {
		handler.Error(w, r, err)
		return
	}

	detail, err := h.carts.UpdateItemQuantity(r.Context(), itemID, req.Quantity)
	if err != nil {
		if domain.IsCode(err, domain.ECONFLICT) {
			h.metrics.StockConflicts.WithLabelValues("cart_update").Inc()
		}
		handler.Error(w, r, err)
		return
	}

	handler.RespondJSON(w, http.StatusOK, toCartResponse(detail, h.pricing))
}

// RemoveItem handles DELETE /api/cart/items/{productID}.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	productID := r.PathValue("productID")

	detail, err := h.carts.RemoveItem(r.Context(), identity, productID)
	if err != nil {
		handler.Error(w, r, err)
		return
	}

	h.metrics.CartItemsRemoved.WithLabelValues(identityKind(identity)).Inc()

	handler.RespondJSON(w, http.StatusOK, toCartResponse(detail, h.pricing))
}

// ClearCart handles DELETE /api/cart. Clearing an absent cart succeeds.
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	if err := h.carts.ClearCart(r.Context(), identity); err != nil {
		handler.Error(w, r, err)
		return
	}

	h.metrics.CartsCleared.WithLabelValues(identityKind(identity)).Inc()

	w.WriteHeader(http.StatusNoContent)
}

// ItemCount handles GET /api/cart/count.
func (h *CartHandler) ItemCount(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	count, err := h.carts.ItemCount(r.Context(), identity)
	if err != nil {
		handler.Error(w, r, err)
		return
	}

	handler.RespondJSON(w, http.StatusOK, map[string]int{"count": count})
}

type mergeCartRequest struct {
	SessionID string `json:"sessionId,omitempty"`
}

// MergeCart handles POST /api/cart/merge. Called after login to fold the
// anonymous session cart into the user's cart. The session comes from the
// cart cookie unless the client names one explicitly.
func (h *CartHandler) MergeCart(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	var req mergeCartRequest
	if r.ContentLength > 0 {
		if err := handler.DecodeJSON(r, &req); err != nil {
			handler.Error(w, r, err)
			return
		}
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = identity.SessionID
	}
	if sessionID == "" {
		// Nothing to merge; respond with the user's current cart.
		h.metrics.CartsMerged.WithLabelValues("empty").Inc()
		detail, err := h.carts.GetCart(r.Context(), domain.Identity{UserID: identity.UserID})
		if err != nil {
			handler.Error(w, r, err)
			return
		}
		handler.RespondJSON(w, http.StatusOK, toCartResponse(detail, h.pricing))
		return
	}

	detail, err := h.carts.MergeSessionIntoUser(r.Context(), sessionID, identity.UserID)
	if err != nil {
		handler.Error(w, r, err)
		return
	}

	if detail == nil {
		h.metrics.CartsMerged.WithLabelValues("empty").Inc()
		detail, err = h.carts.GetCart(r.Context(), domain.Identity{UserID: identity.UserID})
		if err != nil {
			handler.Error(w, r, err)
			return
		}
	} else {
		h.metrics.CartsMerged.WithLabelValues("merged").Inc()
	}

	handler.RespondJSON(w, http.StatusOK, toCartResponse(detail, h.pricing))
}
