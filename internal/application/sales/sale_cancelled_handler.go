package sales

import (
	"context"
	"fmt"

	"github.com/retail/sales/internal/domain/sales"
	"github.com/retail/sales/internal/domain/shared"
	"go.uber.org/zap"
)

// SaleCancelledHandler logs SaleCancelledEvent
type SaleCancelledHandler struct {
	logger *zap.Logger
}

// NewSaleCancelledHandler creates a new handler for sale cancelled events
func NewSaleCancelledHandler(logger *zap.Logger) *SaleCancelledHandler {
	return &SaleCancelledHandler{logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *SaleCancelledHandler) EventTypes() []string {
	return []string{sales.EventTypeSaleCancelled}
}

// Handle processes a SaleCancelledEvent
func (h *SaleCancelledHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	cancelledEvent, ok := event.(*sales.SaleCancelledEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", sales.EventTypeSaleCancelled),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			sales.EventTypeSaleCancelled, event.EventType())
	}

	h.logger.Info("sale cancelled",
		summaryFields(cancelledEvent.SaleSummary)...,
	)
	return nil
}

// Ensure SaleCancelledHandler implements shared.EventHandler
var _ shared.EventHandler = (*SaleCancelledHandler)(nil)
