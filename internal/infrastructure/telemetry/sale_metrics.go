package telemetry

import (
	"context"
	"fmt"

	"github.com/retail/sales/internal/domain/sales"
	"github.com/retail/sales/internal/domain/shared"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SaleMetricsHandler turns sale events into OpenTelemetry counters, labelled by branch
type SaleMetricsHandler struct {
	salesCreated   *Counter
	salesModified  *Counter
	salesCancelled *Counter
	itemsCancelled *Counter
	saleAmount     *FloatCounter
}

// NewSaleMetricsHandler creates the sale counters on meter
func NewSaleMetricsHandler(meter metric.Meter) (*SaleMetricsHandler, error) {
	salesCreated, err := NewCounter(meter, "sales_created_total", "Number of sales recorded", "{sale}")
	if err != nil {
		return nil, err
	}
	salesModified, err := NewCounter(meter, "sales_modified_total", "Number of sale updates", "{sale}")
	if err != nil {
		return nil, err
	}
	salesCancelled, err := NewCounter(meter, "sales_cancelled_total", "Number of sale cancellations", "{sale}")
	if err != nil {
		return nil, err
	}
	itemsCancelled, err := NewCounter(meter, "sale_items_cancelled_total", "Number of cancelled sale lines", "{item}")
	if err != nil {
		return nil, err
	}
	saleAmount, err := NewFloatCounter(meter, "sales_amount_total", "Sum of total amounts of recorded sales", "{currency}")
	if err != nil {
		return nil, err
	}

	return &SaleMetricsHandler{
		salesCreated:   salesCreated,
		salesModified:  salesModified,
		salesCancelled: salesCancelled,
		itemsCancelled: itemsCancelled,
		saleAmount:     saleAmount,
	}, nil
}

// EventTypes returns the sale event types that are counted
func (h *SaleMetricsHandler) EventTypes() []string {
	return sales.SaleEventTypes
}

// Handle increments the counter matching the event
func (h *SaleMetricsHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *sales.SaleCreatedEvent:
		attrs := branchAttributes(e.SaleSummary)
		h.salesCreated.Inc(ctx, attrs...)
		h.saleAmount.Add(ctx, e.TotalAmount.InexactFloat64(), attrs...)
	case *sales.SaleModifiedEvent:
		h.salesModified.Inc(ctx, branchAttributes(e.SaleSummary)...)
	case *sales.SaleCancelledEvent:
		h.salesCancelled.Inc(ctx, branchAttributes(e.SaleSummary)...)
	case *sales.ItemCancelledEvent:
		h.itemsCancelled.Inc(ctx, branchAttributes(e.SaleSummary)...)
	default:
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}
	return nil
}

func branchAttributes(summary sales.SaleSummary) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrBranchID.String(summary.BranchID.String()),
		AttrBranchName.String(summary.BranchName),
	}
}

// Ensure SaleMetricsHandler implements shared.EventHandler
var _ shared.EventHandler = (*SaleMetricsHandler)(nil)
