package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	salesapp "github.com/retail/sales/internal/application/sales"
	"github.com/retail/sales/internal/domain/shared"
	"github.com/retail/sales/internal/interfaces/http/dto"
)

// SaleHandler handles sale-related API endpoints
type SaleHandler struct {
	BaseHandler
	saleService *salesapp.SaleService
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(saleService *salesapp.SaleService) *SaleHandler {
	return &SaleHandler{
		saleService: saleService,
	}
}

// Create godoc
// @Summary      Record a new sale
// @Description  Creates a sale with its items; discounts are derived from each item's quantity
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        request body salesapp.CreateSaleRequest true "Sale creation request"
// @Success      201 {object} dto.Response{data=salesapp.SaleResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /sales [post]
func (h *SaleHandler) Create(c *gin.Context) {
	var req salesapp.CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	sale, err := h.saleService.CreateSale(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, sale)
}

// Update godoc
// @Summary      Replace a sale
// @Description  Replaces the sale's header fields and its whole item collection
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Param        request body salesapp.UpdateSaleRequest true "Sale update request"
// @Success      200 {object} dto.Response{data=salesapp.SaleResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /sales/{id} [put]
func (h *SaleHandler) Update(c *gin.Context) {
	saleID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req salesapp.UpdateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	sale, err := h.saleService.UpdateSale(c.Request.Context(), saleID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sale)
}

// GetByID godoc
// @Summary      Get sale by ID
// @Tags         sales
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Success      200 {object} dto.Response{data=salesapp.SaleResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /sales/{id} [get]
func (h *SaleHandler) GetByID(c *gin.Context) {
	saleID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	sale, err := h.saleService.GetSaleByID(c.Request.Context(), saleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if sale == nil {
		h.HandleError(c, shared.NewNotFoundError(salesapp.KindSale, saleID))
		return
	}

	h.Success(c, sale)
}

// GetByNumber godoc
// @Summary      Get sale by sale number
// @Tags         sales
// @Produce      json
// @Param        number path string true "Sale number"
// @Success      200 {object} dto.Response{data=salesapp.SaleResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /sales/by-number/{number} [get]
func (h *SaleHandler) GetByNumber(c *gin.Context) {
	number := c.Param("number")

	sale, err := h.saleService.GetSaleByNumber(c.Request.Context(), number)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if sale == nil {
		h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, "Sale with number "+number+" not found")
		return
	}

	h.Success(c, sale)
}

// List godoc
// @Summary      List sales
// @Description  Lists all sales, newest sale date first
// @Tags         sales
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(10) maximum(100)
// @Success      200 {object} dto.Response{data=[]salesapp.SaleListItemResponse,meta=dto.Meta}
// @Router       /sales [get]
func (h *SaleHandler) List(c *gin.Context) {
	var req salesapp.PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	page, err := h.saleService.ListSales(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// ListByDateRange godoc
// @Summary      List sales in a date range
// @Description  Lists sales whose sale date lies within [start_date, end_date] (RFC3339, inclusive)
// @Tags         sales
// @Produce      json
// @Param        start_date query string true "Range start" format(date-time)
// @Param        end_date query string true "Range end" format(date-time)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(10) maximum(100)
// @Success      200 {object} dto.Response{data=[]salesapp.SaleListItemResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /sales/date-range [get]
func (h *SaleHandler) ListByDateRange(c *gin.Context) {
	var req salesapp.DateRangeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	page, err := h.saleService.ListSalesByDateRange(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// ListByCustomer godoc
// @Summary      List sales of a customer
// @Tags         sales
// @Produce      json
// @Param        customerId path string true "Customer ID" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(10) maximum(100)
// @Success      200 {object} dto.Response{data=[]salesapp.SaleListItemResponse,meta=dto.Meta}
// @Router       /sales/customer/{customerId} [get]
func (h *SaleHandler) ListByCustomer(c *gin.Context) {
	h.listByOwner(c, "customerId", h.saleService.ListSalesByCustomer)
}

// ListByBranch godoc
// @Summary      List sales of a branch
// @Tags         sales
// @Produce      json
// @Param        branchId path string true "Branch ID" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(10) maximum(100)
// @Success      200 {object} dto.Response{data=[]salesapp.SaleListItemResponse,meta=dto.Meta}
// @Router       /sales/branch/{branchId} [get]
func (h *SaleHandler) ListByBranch(c *gin.Context) {
	h.listByOwner(c, "branchId", h.saleService.ListSalesByBranch)
}

type ownerListFunc func(ctx context.Context, ownerID uuid.UUID, req salesapp.PageRequest) (*shared.Paginated[salesapp.SaleListItemResponse], error)

func (h *SaleHandler) listByOwner(c *gin.Context, param string, list ownerListFunc) {
	ownerID, ok := h.parseUUIDParam(c, param)
	if !ok {
		return
	}

	var req salesapp.PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	page, err := list(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Cancel godoc
// @Summary      Cancel a sale
// @Tags         sales
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Success      200 {object} dto.Response{data=salesapp.CancelSaleResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /sales/{id}/cancel [post]
func (h *SaleHandler) Cancel(c *gin.Context) {
	saleID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.saleService.CancelSale(c.Request.Context(), saleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// CancelItem godoc
// @Summary      Cancel one item of a sale
// @Description  Cancels the item and recalculates the sale total
// @Tags         sales
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Param        itemId path string true "Item ID" format(uuid)
// @Success      200 {object} dto.Response{data=salesapp.SaleResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /sales/{id}/items/{itemId}/cancel [post]
func (h *SaleHandler) CancelItem(c *gin.Context) {
	saleID, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.parseUUIDParam(c, "itemId")
	if !ok {
		return
	}

	sale, err := h.saleService.CancelItem(c.Request.Context(), saleID, itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sale)
}
