package sales

import (
	"context"
	"fmt"

	"github.com/retail/sales/internal/domain/sales"
	"github.com/retail/sales/internal/domain/shared"
	"go.uber.org/zap"
)

// ItemCancelledHandler logs ItemCancelledEvent with both sale and line data
type ItemCancelledHandler struct {
	logger *zap.Logger
}

// NewItemCancelledHandler creates a new handler for item cancelled events
func NewItemCancelledHandler(logger *zap.Logger) *ItemCancelledHandler {
	return &ItemCancelledHandler{logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *ItemCancelledHandler) EventTypes() []string {
	return []string{sales.EventTypeItemCancelled}
}

// Handle processes an ItemCancelledEvent
func (h *ItemCancelledHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	cancelledEvent, ok := event.(*sales.ItemCancelledEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", sales.EventTypeItemCancelled),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			sales.EventTypeItemCancelled, event.EventType())
	}

	item := cancelledEvent.Item
	h.logger.Info("sale item cancelled",
		zap.String("sale_id", cancelledEvent.SaleID.String()),
		zap.String("sale_number", cancelledEvent.SaleNumber),
		zap.String("item_id", item.ItemID.String()),
		zap.String("product_name", item.ProductName),
		zap.Int("quantity", item.Quantity),
		zap.String("unit_price", item.UnitPrice.StringFixed(2)),
		zap.String("discount_rate", item.DiscountRate.String()),
		zap.String("line_total", item.LineTotal.StringFixed(2)),
		zap.String("sale_total_amount", cancelledEvent.TotalAmount.StringFixed(2)),
	)
	return nil
}

// Ensure ItemCancelledHandler implements shared.EventHandler
var _ shared.EventHandler = (*ItemCancelledHandler)(nil)
