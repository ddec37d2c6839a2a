package sales

import (
	"context"
	"fmt"

	"github.com/retail/sales/internal/domain/sales"
	"github.com/retail/sales/internal/domain/shared"
	"go.uber.org/zap"
)

// SaleCreatedHandler logs SaleCreatedEvent with its denormalized sale data
type SaleCreatedHandler struct {
	logger *zap.Logger
}

// NewSaleCreatedHandler creates a new handler for sale created events
func NewSaleCreatedHandler(logger *zap.Logger) *SaleCreatedHandler {
	return &SaleCreatedHandler{logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *SaleCreatedHandler) EventTypes() []string {
	return []string{sales.EventTypeSaleCreated}
}

// Handle processes a SaleCreatedEvent
func (h *SaleCreatedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	createdEvent, ok := event.(*sales.SaleCreatedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", sales.EventTypeSaleCreated),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			sales.EventTypeSaleCreated, event.EventType())
	}

	h.logger.Info("sale created",
		summaryFields(createdEvent.SaleSummary)...,
	)
	return nil
}

// summaryFields renders the sale summary shared by all sale events as log fields
func summaryFields(summary sales.SaleSummary) []zap.Field {
	return []zap.Field{
		zap.String("sale_id", summary.SaleID.String()),
		zap.String("sale_number", summary.SaleNumber),
		zap.String("customer_name", summary.CustomerName),
		zap.String("branch_name", summary.BranchName),
		zap.String("total_amount", summary.TotalAmount.StringFixed(2)),
		zap.Int("items_count", summary.ItemsCount),
		zap.Time("sale_date", summary.SaleDate),
	}
}

// Ensure SaleCreatedHandler implements shared.EventHandler
var _ shared.EventHandler = (*SaleCreatedHandler)(nil)
