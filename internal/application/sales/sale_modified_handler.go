package sales

import (
	"context"
	"fmt"

	"github.com/retail/sales/internal/domain/sales"
	"github.com/retail/sales/internal/domain/shared"
	"go.uber.org/zap"
)

// SaleModifiedHandler logs SaleModifiedEvent
type SaleModifiedHandler struct {
	logger *zap.Logger
}

// NewSaleModifiedHandler creates a new handler for sale modified events
func NewSaleModifiedHandler(logger *zap.Logger) *SaleModifiedHandler {
	return &SaleModifiedHandler{logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *SaleModifiedHandler) EventTypes() []string {
	return []string{sales.EventTypeSaleModified}
}

// Handle processes a SaleModifiedEvent
func (h *SaleModifiedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	modifiedEvent, ok := event.(*sales.SaleModifiedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", sales.EventTypeSaleModified),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			sales.EventTypeSaleModified, event.EventType())
	}

	h.logger.Info("sale modified",
		summaryFields(modifiedEvent.SaleSummary)...,
	)
	return nil
}

// Ensure SaleModifiedHandler implements shared.EventHandler
var _ shared.EventHandler = (*SaleModifiedHandler)(nil)
