package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus metrics for business-level observability.
type BusinessMetrics struct {
	// Cart funnel
	CartItemsAdded   *prometheus.CounterVec
	CartItemsRemoved *prometheus.CounterVec
	CartsCleared     *prometheus.CounterVec
	CartsMerged      *prometheus.CounterVec
	CartValue        *prometheus.HistogramVec

	// Orders
	OrdersCreated   *prometheus.CounterVec
	OrdersCancelled *prometheus.CounterVec
	OrderStatusSet  *prometheus.CounterVec
	OrderValue      *prometheus.HistogramVec
	OrderItemCount  *prometheus.HistogramVec

	// Stock contention
	StockConflicts *prometheus.CounterVec
}

// NewBusinessMetrics creates and registers all business metrics
func NewBusinessMetrics(namespace string) *BusinessMetrics {
	if namespace == "" {
		namespace = "commerce"
	}

	subsystem := "business"

	return &BusinessMetrics{
		CartItemsAdded: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_items_added_total",
				Help:      "Total add to cart actions",
			},
			[]string{"identity_kind"}, // identity_kind: user, session
		),
		CartItemsRemoved: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_items_removed_total",
				Help:      "Total cart line removals",
			},
			[]string{"identity_kind"},
		),
		CartsCleared: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "carts_cleared_total",
				Help:      "Total carts emptied in one action",
			},
			[]string{"identity_kind"},
		),
		CartsMerged: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "carts_merged_total",
				Help:      "Total session carts folded into user carts at login",
			},
			[]string{"outcome"}, // outcome: merged, empty
		),
		CartValue: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_value",
				Help:      "Cart subtotal after mutation, in minor currency units",
				Buckets:   prometheus.ExponentialBuckets(1000, 4, 8),
			},
			[]string{"identity_kind"},
		),
		OrdersCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orders_created_total",
				Help:      "Total orders placed",
			},
			[]string{"identity_kind"},
		),
		OrdersCancelled: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orders_cancelled_total",
				Help:      "Total orders cancelled",
			},
			[]string{"actor"}, // actor: customer, admin
		),
		OrderStatusSet: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_status_set_total",
				Help:      "Total administrative order status changes",
			},
			[]string{"status"},
		),
		OrderValue: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_value",
				Help:      "Order total at creation, in minor currency units",
				Buckets:   prometheus.ExponentialBuckets(1000, 4, 8),
			},
			[]string{"identity_kind"},
		),
		OrderItemCount: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_item_count",
				Help:      "Distinct lines per order at creation",
				Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
			},
			[]string{"identity_kind"},
		),
		StockConflicts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "stock_conflicts_total",
				Help:      "Requests rejected because stock ran out",
			},
			[]string{"operation"}, // operation: cart_add, cart_update, order_create
		),
	}
}
