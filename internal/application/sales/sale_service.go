package sales

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/retail/sales/internal/domain/sales"
	"github.com/retail/sales/internal/domain/shared"
	"github.com/retail/sales/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Entity kinds named in not-found errors
const (
	KindSale     = "Sale"
	KindItem     = "Item"
	KindCustomer = "Customer"
	KindBranch   = "Branch"
	KindProduct  = "Product"
)

// SaleService handles sale business operations.
// Each operation validates, loads, mutates, persists and then publishes events;
// publish failures are logged and never returned.
type SaleService struct {
	saleRepo       sales.SaleRepository
	customerRepo   sales.CustomerRepository
	branchRepo     sales.BranchRepository
	productRepo    sales.ProductRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewSaleService creates a new SaleService
func NewSaleService(
	saleRepo sales.SaleRepository,
	customerRepo sales.CustomerRepository,
	branchRepo sales.BranchRepository,
	productRepo sales.ProductRepository,
	logger *zap.Logger,
) *SaleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SaleService{
		saleRepo:     saleRepo,
		customerRepo: customerRepo,
		branchRepo:   branchRepo,
		productRepo:  productRepo,
		logger:       logger.Named("sale_service"),
	}
}

// SetEventPublisher sets the event publisher
func (s *SaleService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// CreateSale records a new sale
func (s *SaleService) CreateSale(ctx context.Context, req CreateSaleRequest) (_ *SaleResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale", "create")
	defer func() { telemetry.EndSpan(span, err) }()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSaleNumber, req.SaleNumber,
		telemetry.SpanAttrCustomerID, req.CustomerID,
		telemetry.SpanAttrBranchID, req.BranchID,
		telemetry.SpanAttrItemsCount, len(req.Items),
	)

	if err := validateSaleNumber(req.SaleNumber); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	productIDs := make([]uuid.UUID, len(req.Items))
	for i, item := range req.Items {
		productIDs[i] = item.ProductID
	}
	customer, branch, products, err := s.loadReferences(ctx, req.CustomerID, req.BranchID, productIDs)
	if err != nil {
		return nil, err
	}

	sale, err := sales.NewSale(req.SaleNumber, req.SaleDate, customer, branch)
	if err != nil {
		return nil, err
	}
	for i, input := range req.Items {
		item, err := sales.NewSaleItem(products[i], input.Quantity)
		if err != nil {
			return nil, err
		}
		if err := sale.AddItem(item); err != nil {
			return nil, err
		}
	}
	sale.MarkCreated()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.saleRepo.Create(ctx, sale); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, sale)

	response := ToSaleResponse(sale)
	return &response, nil
}

// UpdateSale replaces a sale's details and its entire item collection.
// An input item whose id matches an existing line updates that line in place;
// every other input item becomes a new line, and omitted lines are dropped.
func (s *SaleService) UpdateSale(ctx context.Context, saleID uuid.UUID, req UpdateSaleRequest) (_ *SaleResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale", "update")
	defer func() { telemetry.EndSpan(span, err) }()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSaleID, saleID,
		telemetry.SpanAttrItemsCount, len(req.Items),
	)

	if saleID == uuid.Nil {
		return nil, shared.NewValidationError("id is required")
	}
	if err := validateSaleNumber(req.SaleNumber); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	sale, err := s.findSale(ctx, saleID)
	if err != nil {
		return nil, err
	}

	productIDs := make([]uuid.UUID, len(req.Items))
	for i, item := range req.Items {
		productIDs[i] = item.ProductID
	}
	customer, branch, products, err := s.loadReferences(ctx, req.CustomerID, req.BranchID, productIDs)
	if err != nil {
		return nil, err
	}

	existing := make(map[uuid.UUID]sales.SaleItem, len(sale.Items))
	for _, item := range sale.Items {
		existing[item.ID] = item
	}

	rebuilt := make([]sales.SaleItem, 0, len(req.Items))
	for i, input := range req.Items {
		if input.ItemID != nil {
			if previous, ok := existing[*input.ItemID]; ok {
				if err := previous.ChangeProduct(products[i], input.Quantity); err != nil {
					return nil, err
				}
				rebuilt = append(rebuilt, previous)
				delete(existing, *input.ItemID)
				continue
			}
		}
		item, err := sales.NewSaleItem(products[i], input.Quantity)
		if err != nil {
			return nil, err
		}
		rebuilt = append(rebuilt, *item)
	}

	if err := sale.ReplaceDetails(req.SaleNumber, req.SaleDate, customer, branch); err != nil {
		return nil, err
	}
	sale.ReplaceItems(rebuilt)
	sale.MarkModified()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.saleRepo.SaveWithLock(ctx, sale); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, sale)

	response := ToSaleResponse(sale)
	return &response, nil
}

// CancelSale cancels a whole sale. Its items keep their own state.
func (s *SaleService) CancelSale(ctx context.Context, saleID uuid.UUID) (_ *CancelSaleResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale", "cancel")
	defer func() { telemetry.EndSpan(span, err) }()
	telemetry.SetAttributes(span, telemetry.SpanAttrSaleID, saleID)

	sale, err := s.findSale(ctx, saleID)
	if err != nil {
		return nil, err
	}

	sale.Cancel()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.saleRepo.SaveWithLock(ctx, sale); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, sale)

	response := ToCancelSaleResponse(sale)
	return &response, nil
}

// CancelItem cancels one line of a sale and recalculates the sale total
func (s *SaleService) CancelItem(ctx context.Context, saleID, itemID uuid.UUID) (_ *SaleResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale", "cancel_item")
	defer func() { telemetry.EndSpan(span, err) }()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSaleID, saleID,
		telemetry.SpanAttrItemID, itemID,
	)

	sale, err := s.findSale(ctx, saleID)
	if err != nil {
		return nil, err
	}

	if !sale.CancelItem(itemID) {
		return nil, shared.NewNotFoundError(KindItem, itemID)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.saleRepo.SaveWithLock(ctx, sale); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, sale)

	response := ToSaleResponse(sale)
	return &response, nil
}

// GetSaleByID retrieves a sale by ID. It returns (nil, nil) if the sale does not exist.
func (s *SaleService) GetSaleByID(ctx context.Context, saleID uuid.UUID) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByID(ctx, saleID)
	if err != nil || sale == nil {
		return nil, err
	}
	response := ToSaleResponse(sale)
	return &response, nil
}

// GetSaleByNumber retrieves a sale by its number. It returns (nil, nil) if the sale does not exist.
func (s *SaleService) GetSaleByNumber(ctx context.Context, saleNumber string) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindBySaleNumber(ctx, saleNumber)
	if err != nil || sale == nil {
		return nil, err
	}
	response := ToSaleResponse(sale)
	return &response, nil
}

// ListSales lists all sales, newest sale date first
func (s *SaleService) ListSales(ctx context.Context, req PageRequest) (*shared.Paginated[SaleListItemResponse], error) {
	filter := req.toFilter()
	list, total, err := s.saleRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	return paginate(list, total, filter), nil
}

// ListSalesByDateRange lists sales whose sale date lies within the inclusive range
func (s *SaleService) ListSalesByDateRange(ctx context.Context, req DateRangeRequest) (*shared.Paginated[SaleListItemResponse], error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, shared.NewValidationError("end_date must not be before start_date")
	}

	filter := req.toFilter()
	list, total, err := s.saleRepo.FindByDateRange(ctx, req.StartDate, req.EndDate, filter)
	if err != nil {
		return nil, err
	}
	return paginate(list, total, filter), nil
}

// ListSalesByCustomer lists the sales of one customer
func (s *SaleService) ListSalesByCustomer(ctx context.Context, customerID uuid.UUID, req PageRequest) (*shared.Paginated[SaleListItemResponse], error) {
	filter := req.toFilter()
	list, total, err := s.saleRepo.FindByCustomer(ctx, customerID, filter)
	if err != nil {
		return nil, err
	}
	return paginate(list, total, filter), nil
}

// ListSalesByBranch lists the sales of one branch
func (s *SaleService) ListSalesByBranch(ctx context.Context, branchID uuid.UUID, req PageRequest) (*shared.Paginated[SaleListItemResponse], error) {
	filter := req.toFilter()
	list, total, err := s.saleRepo.FindByBranch(ctx, branchID, filter)
	if err != nil {
		return nil, err
	}
	return paginate(list, total, filter), nil
}

// findSale loads a sale and maps absence to NotFound(Sale)
func (s *SaleService) findSale(ctx context.Context, saleID uuid.UUID) (*sales.Sale, error) {
	sale, err := s.saleRepo.FindByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, shared.NewNotFoundError(KindSale, saleID)
	}
	return sale, nil
}

// loadReferences resolves customer, branch and then each product in input order.
// The first unresolvable id short-circuits with a NotFound error.
func (s *SaleService) loadReferences(
	ctx context.Context,
	customerID, branchID uuid.UUID,
	productIDs []uuid.UUID,
) (*sales.Customer, *sales.Branch, []*sales.Product, error) {
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return nil, nil, nil, err
	}
	if customer == nil {
		return nil, nil, nil, shared.NewNotFoundError(KindCustomer, customerID)
	}

	branch, err := s.branchRepo.FindByID(ctx, branchID)
	if err != nil {
		return nil, nil, nil, err
	}
	if branch == nil {
		return nil, nil, nil, shared.NewNotFoundError(KindBranch, branchID)
	}

	products := make([]*sales.Product, len(productIDs))
	for i, productID := range productIDs {
		product, err := s.productRepo.FindByID(ctx, productID)
		if err != nil {
			return nil, nil, nil, err
		}
		if product == nil {
			return nil, nil, nil, shared.NewNotFoundError(KindProduct, productID)
		}
		products[i] = product
	}

	return customer, branch, products, nil
}

// publishEvents drains the sale's pending events and publishes them one by one.
// Failures are logged and do not affect the already persisted sale.
func (s *SaleService) publishEvents(ctx context.Context, sale *sales.Sale) {
	events := sale.GetDomainEvents()
	sale.ClearDomainEvents()
	if s.eventPublisher == nil {
		return
	}

	for _, event := range events {
		if err := s.publishEvent(ctx, event); err != nil {
			s.logger.Error("Failed to publish event",
				zap.String("event_type", event.EventType()),
				zap.String("event_id", event.EventID().String()),
				zap.String("sale_id", sale.ID.String()),
				zap.Error(err),
			)
			continue
		}
		s.logger.Debug(event.EventType()+" published",
			zap.String("event_id", event.EventID().String()),
			zap.String("sale_id", sale.ID.String()),
		)
	}
}

func (s *SaleService) publishEvent(ctx context.Context, event shared.DomainEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("event publisher panicked: %v", r)
		}
	}()
	return s.eventPublisher.Publish(ctx, event)
}

func validateSaleNumber(saleNumber string) error {
	if strings.TrimSpace(saleNumber) == "" {
		return shared.NewValidationError("sale_number is required")
	}
	return nil
}

func (r PageRequest) toFilter() shared.Filter {
	return shared.Filter{
		Page:     r.Page,
		PageSize: r.PageSize,
		OrderBy:  "sale_date",
		OrderDir: "desc",
	}.Normalize()
}

func paginate(list []sales.Sale, total int64, filter shared.Filter) *shared.Paginated[SaleListItemResponse] {
	result := shared.NewPaginated(ToSaleListItemResponses(list), total, filter.Page, filter.PageSize)
	return &result
}
