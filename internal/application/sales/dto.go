package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/retail/sales/internal/domain/sales"
	"github.com/shopspring/decimal"
)

// ==================== Sale Requests ====================

// CreateSaleRequest represents a request to record a new sale
type CreateSaleRequest struct {
	SaleNumber string                `json:"sale_number" binding:"required,max=50"`
	SaleDate   time.Time             `json:"sale_date" binding:"required"`
	CustomerID uuid.UUID             `json:"customer_id" binding:"required"`
	BranchID   uuid.UUID             `json:"branch_id" binding:"required"`
	Items      []CreateSaleItemInput `json:"items" binding:"required,min=1,dive"`
}

// CreateSaleItemInput represents an item in the create sale request
type CreateSaleItemInput struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1,max=20"`
}

// UpdateSaleRequest represents a request to replace a sale's details and items.
// Items carrying the id of an existing line update that line in place.
type UpdateSaleRequest struct {
	SaleNumber string                `json:"sale_number" binding:"required,max=50"`
	SaleDate   time.Time             `json:"sale_date" binding:"required"`
	CustomerID uuid.UUID             `json:"customer_id" binding:"required"`
	BranchID   uuid.UUID             `json:"branch_id" binding:"required"`
	Items      []UpdateSaleItemInput `json:"items" binding:"required,min=1,dive"`
}

// UpdateSaleItemInput represents an item in the update sale request
type UpdateSaleItemInput struct {
	ItemID    *uuid.UUID `json:"item_id"`
	ProductID uuid.UUID  `json:"product_id" binding:"required"`
	Quantity  int        `json:"quantity" binding:"required,min=1,max=20"`
}

// PageRequest represents page options for sale listings
type PageRequest struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// DateRangeRequest represents an inclusive sale date window
type DateRangeRequest struct {
	PageRequest
	StartDate time.Time `form:"start_date" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	EndDate   time.Time `form:"end_date" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
}

// ==================== Sale Responses ====================

// CustomerInfo is the customer block of a sale response
type CustomerInfo struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// BranchInfo is the branch block of a sale response
type BranchInfo struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Address string    `json:"address"`
}

// ProductInfo is the product block of a sale item response
type ProductInfo struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
}

// SaleItemResponse represents a sale item in API responses
type SaleItemResponse struct {
	ID           uuid.UUID       `json:"id"`
	Product      ProductInfo     `json:"product"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	DiscountRate decimal.Decimal `json:"discount_rate"`
	LineTotal    decimal.Decimal `json:"line_total"`
	IsCancelled  bool            `json:"is_cancelled"`
}

// SaleResponse represents a sale in API responses
type SaleResponse struct {
	ID          uuid.UUID          `json:"id"`
	SaleNumber  string             `json:"sale_number"`
	SaleDate    time.Time          `json:"sale_date"`
	Customer    CustomerInfo       `json:"customer"`
	Branch      BranchInfo         `json:"branch"`
	Items       []SaleItemResponse `json:"items"`
	ItemCount   int                `json:"item_count"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
	IsCancelled bool               `json:"is_cancelled"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   *time.Time         `json:"updated_at,omitempty"`
	Version     int                `json:"version"`
}

// SaleListItemResponse represents a sale in list responses (less detail)
type SaleListItemResponse struct {
	ID           uuid.UUID       `json:"id"`
	SaleNumber   string          `json:"sale_number"`
	SaleDate     time.Time       `json:"sale_date"`
	CustomerID   uuid.UUID       `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	BranchID     uuid.UUID       `json:"branch_id"`
	BranchName   string          `json:"branch_name"`
	ItemCount    int             `json:"item_count"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	IsCancelled  bool            `json:"is_cancelled"`
}

// CancelSaleResponse represents the outcome of cancelling a sale
type CancelSaleResponse struct {
	ID          uuid.UUID       `json:"id"`
	SaleNumber  string          `json:"sale_number"`
	IsCancelled bool            `json:"is_cancelled"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// ==================== Mapping ====================

// ToSaleResponse converts domain Sale to response DTO
func ToSaleResponse(sale *sales.Sale) SaleResponse {
	items := make([]SaleItemResponse, len(sale.Items))
	for i := range sale.Items {
		items[i] = ToSaleItemResponse(&sale.Items[i])
	}

	return SaleResponse{
		ID:         sale.ID,
		SaleNumber: sale.SaleNumber,
		SaleDate:   sale.SaleDate,
		Customer: CustomerInfo{
			ID:    sale.Customer.ID,
			Name:  sale.Customer.Name,
			Email: sale.Customer.Email,
		},
		Branch: BranchInfo{
			ID:      sale.Branch.ID,
			Name:    sale.Branch.Name,
			Address: sale.Branch.Address,
		},
		Items:       items,
		ItemCount:   sale.ItemCount(),
		TotalAmount: sale.TotalAmount,
		IsCancelled: sale.Cancelled,
		CreatedAt:   sale.CreatedAt,
		UpdatedAt:   sale.UpdatedAt,
		Version:     sale.Version,
	}
}

// ToSaleItemResponse converts domain SaleItem to response DTO
func ToSaleItemResponse(item *sales.SaleItem) SaleItemResponse {
	return SaleItemResponse{
		ID: item.ID,
		Product: ProductInfo{
			ID:          item.Product.ID,
			Name:        item.Product.Name,
			Description: item.Product.Description,
			Price:       item.Product.Price,
		},
		Quantity:     item.Quantity,
		UnitPrice:    item.UnitPrice,
		DiscountRate: item.DiscountRate,
		LineTotal:    item.LineTotal,
		IsCancelled:  item.Cancelled,
	}
}

// ToSaleListItemResponse converts domain Sale to list response DTO
func ToSaleListItemResponse(sale *sales.Sale) SaleListItemResponse {
	return SaleListItemResponse{
		ID:           sale.ID,
		SaleNumber:   sale.SaleNumber,
		SaleDate:     sale.SaleDate,
		CustomerID:   sale.Customer.ID,
		CustomerName: sale.Customer.Name,
		BranchID:     sale.Branch.ID,
		BranchName:   sale.Branch.Name,
		ItemCount:    sale.ItemCount(),
		TotalAmount:  sale.TotalAmount,
		IsCancelled:  sale.Cancelled,
	}
}

// ToSaleListItemResponses converts a slice of domain Sales to list response DTOs
func ToSaleListItemResponses(list []sales.Sale) []SaleListItemResponse {
	responses := make([]SaleListItemResponse, len(list))
	for i := range list {
		responses[i] = ToSaleListItemResponse(&list[i])
	}
	return responses
}

// ToCancelSaleResponse converts domain Sale to cancel response DTO
func ToCancelSaleResponse(sale *sales.Sale) CancelSaleResponse {
	return CancelSaleResponse{
		ID:          sale.ID,
		SaleNumber:  sale.SaleNumber,
		IsCancelled: sale.Cancelled,
		TotalAmount: sale.TotalAmount,
	}
}
