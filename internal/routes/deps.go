package routes

import (
	"github.com/dungeun/codeB-core-engine/internal/handler/api"
)

// APIDeps carries the handlers the API route group needs.
type APIDeps struct {
	CartHandler    *api.CartHandler
	OrderHandler   *api.OrderHandler
	ProductHandler *api.ProductHandler
}
