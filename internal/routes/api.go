package routes

import (
	"github.com/dungeun/codeB-core-engine/internal/middleware"
	"github.com/dungeun/codeB-core-engine/internal/router"
)

// RegisterAPIRoutes registers the storefront API: cart, orders, and catalog.
// Identity resolution happens in the global middleware chain; the groups
// here only add authorization gates.
func RegisterAPIRoutes(r *router.Router, deps APIDeps) {
	// Cart: available to anonymous sessions and signed-in users alike.
	r.Get("/api/cart", deps.CartHandler.GetCart)
	r.Post("/api/cart/items", deps.CartHandler.AddItem)
	r.Patch("/api/cart/items/{id}", deps.CartHandler.UpdateItem)
	r.Delete("/api/cart/items/{productID}", deps.CartHandler.RemoveItem)
	r.Delete("/api/cart", deps.CartHandler.ClearCart)
	r.Get("/api/cart/count", deps.CartHandler.ItemCount)
	r.Post("/api/cart/merge", deps.CartHandler.MergeCart, middleware.RequireUser)

	// Orders: creation is open to guests; reads are owner-scoped in the
	// handler; workflow transitions are admin-gated.
	r.Post("/api/orders", deps.OrderHandler.CreateOrder)
	r.Get("/api/orders", deps.OrderHandler.ListOrders)
	r.Get("/api/orders/stats", deps.OrderHandler.GetOrderStats, middleware.RequireAdmin)
	r.Get("/api/orders/number/{number}", deps.OrderHandler.GetOrderByNumber)
	r.Get("/api/orders/{id}", deps.OrderHandler.GetOrder)
	r.Post("/api/orders/{id}/cancel", deps.OrderHandler.CancelOrder)
	r.Patch("/api/orders/{id}", deps.OrderHandler.UpdateOrder, middleware.RequireAdmin)
	r.Post("/api/orders/{id}/ship", deps.OrderHandler.ShipOrder, middleware.RequireAdmin)
	r.Post("/api/orders/{id}/complete", deps.OrderHandler.CompleteOrder, middleware.RequireAdmin)

	// Catalog: public reads, admin writes.
	r.Get("/api/products", deps.ProductHandler.ListProducts)
	r.Get("/api/products/{id}", deps.ProductHandler.GetProduct)
	r.Post("/api/products", deps.ProductHandler.CreateProduct, middleware.RequireAdmin)
	r.Patch("/api/products/{id}", deps.ProductHandler.UpdateProduct, middleware.RequireAdmin)
}
