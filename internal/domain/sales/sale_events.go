package sales

import (
	"time"

	"github.com/google/uuid"
	"github.com/retail/sales/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeSale = "Sale"

// Event type constants
const (
	EventTypeSaleCreated   = "SaleCreated"
	EventTypeSaleModified  = "SaleModified"
	EventTypeSaleCancelled = "SaleCancelled"
	EventTypeItemCancelled = "ItemCancelled"
)

// SaleEventTypes lists every event type raised by the Sale aggregate
var SaleEventTypes = []string{
	EventTypeSaleCreated,
	EventTypeSaleModified,
	EventTypeSaleCancelled,
	EventTypeItemCancelled,
}

// SaleSummary is the denormalized sale data carried by every sale event,
// enough for a consumer to log or forward without re-querying.
type SaleSummary struct {
	SaleID       uuid.UUID       `json:"sale_id"`
	SaleNumber   string          `json:"sale_number"`
	SaleDate     time.Time       `json:"sale_date"`
	CustomerID   uuid.UUID       `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	BranchID     uuid.UUID       `json:"branch_id"`
	BranchName   string          `json:"branch_name"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	ItemsCount   int             `json:"items_count"`
	IsCancelled  bool            `json:"is_cancelled"`
}

func newSaleSummary(sale *Sale) SaleSummary {
	return SaleSummary{
		SaleID:       sale.ID,
		SaleNumber:   sale.SaleNumber,
		SaleDate:     sale.SaleDate,
		CustomerID:   sale.Customer.ID,
		CustomerName: sale.Customer.Name,
		BranchID:     sale.Branch.ID,
		BranchName:   sale.Branch.Name,
		TotalAmount:  sale.TotalAmount,
		ItemsCount:   sale.ItemCount(),
		IsCancelled:  sale.Cancelled,
	}
}

// SaleCreatedEvent is raised when a new sale has been recorded
type SaleCreatedEvent struct {
	shared.BaseDomainEvent
	SaleSummary
}

// NewSaleCreatedEvent creates a new SaleCreatedEvent
func NewSaleCreatedEvent(sale *Sale) *SaleCreatedEvent {
	return &SaleCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCreated, AggregateTypeSale, sale.ID),
		SaleSummary:     newSaleSummary(sale),
	}
}

// EventType returns the event type name
func (e *SaleCreatedEvent) EventType() string {
	return EventTypeSaleCreated
}

// SaleModifiedEvent is raised when a sale's details or items were replaced
type SaleModifiedEvent struct {
	shared.BaseDomainEvent
	SaleSummary
}

// NewSaleModifiedEvent creates a new SaleModifiedEvent
func NewSaleModifiedEvent(sale *Sale) *SaleModifiedEvent {
	return &SaleModifiedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleModified, AggregateTypeSale, sale.ID),
		SaleSummary:     newSaleSummary(sale),
	}
}

// EventType returns the event type name
func (e *SaleModifiedEvent) EventType() string {
	return EventTypeSaleModified
}

// SaleCancelledEvent is raised when a sale is cancelled
type SaleCancelledEvent struct {
	shared.BaseDomainEvent
	SaleSummary
}

// NewSaleCancelledEvent creates a new SaleCancelledEvent
func NewSaleCancelledEvent(sale *Sale) *SaleCancelledEvent {
	return &SaleCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCancelled, AggregateTypeSale, sale.ID),
		SaleSummary:     newSaleSummary(sale),
	}
}

// EventType returns the event type name
func (e *SaleCancelledEvent) EventType() string {
	return EventTypeSaleCancelled
}

// SaleItemInfo represents item information for events
type SaleItemInfo struct {
	ItemID       uuid.UUID       `json:"item_id"`
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	DiscountRate decimal.Decimal `json:"discount_rate"`
	LineTotal    decimal.Decimal `json:"line_total"`
	IsCancelled  bool            `json:"is_cancelled"`
}

// ItemCancelledEvent is raised when a single line of a sale is cancelled.
// It carries both the sale and the cancelled line.
type ItemCancelledEvent struct {
	shared.BaseDomainEvent
	SaleSummary
	Item SaleItemInfo `json:"item"`
}

// NewItemCancelledEvent creates a new ItemCancelledEvent
func NewItemCancelledEvent(sale *Sale, item *SaleItem) *ItemCancelledEvent {
	return &ItemCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeItemCancelled, AggregateTypeSale, sale.ID),
		SaleSummary:     newSaleSummary(sale),
		Item: SaleItemInfo{
			ItemID:       item.ID,
			ProductID:    item.Product.ID,
			ProductName:  item.Product.Name,
			Quantity:     item.Quantity,
			UnitPrice:    item.UnitPrice,
			DiscountRate: item.DiscountRate,
			LineTotal:    item.LineTotal,
			IsCancelled:  item.Cancelled,
		},
	}
}

// EventType returns the event type name
func (e *ItemCancelledEvent) EventType() string {
	return EventTypeItemCancelled
}
