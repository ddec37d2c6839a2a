package router

import (
	"github.com/retail/sales/internal/interfaces/http/handler"
)

// SaleRoutes builds the /sales route group.
// Static segments (by-number, date-range, customer, branch) are matched before :id by gin's tree.
func SaleRoutes(h *handler.SaleHandler) *DomainGroup {
	g := NewDomainGroup("sales", "/sales")

	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/date-range", h.ListByDateRange)
	g.GET("/by-number/:number", h.GetByNumber)
	g.GET("/customer/:customerId", h.ListByCustomer)
	g.GET("/branch/:branchId", h.ListByBranch)
	g.GET("/:id", h.GetByID)
	g.PUT("/:id", h.Update)
	g.POST("/:id/cancel", h.Cancel)
	g.POST("/:id/items/:itemId/cancel", h.CancelItem)

	return g
}
