package sales

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/retail/sales/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MaxSaleNumberLength is the longest sale number accepted
const MaxSaleNumberLength = 50

// Sale is the aggregate root for one commercial transaction.
// TotalAmount is derived from Items and is recomputed after every item mutation.
type Sale struct {
	shared.BaseAggregateRoot
	SaleNumber  string
	SaleDate    time.Time
	Customer    CustomerRef
	Branch      BranchRef
	Items       []SaleItem
	TotalAmount decimal.Decimal
	Cancelled   bool
}

// NewSale creates an empty, active sale.
// A zero saleDate defaults to the current time.
func NewSale(saleNumber string, saleDate time.Time, customer *Customer, branch *Branch) (*Sale, error) {
	if err := validateSaleDetails(saleNumber, customer, branch); err != nil {
		return nil, err
	}

	sale := &Sale{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SaleNumber:        saleNumber,
		SaleDate:          normalizeSaleDate(saleDate),
		Customer:          customer.Ref(),
		Branch:            branch.Ref(),
		Items:             make([]SaleItem, 0),
		TotalAmount:       decimal.Zero,
	}

	return sale, nil
}

// ReplaceDetails overwrites the scalar fields of the sale
func (s *Sale) ReplaceDetails(saleNumber string, saleDate time.Time, customer *Customer, branch *Branch) error {
	if err := validateSaleDetails(saleNumber, customer, branch); err != nil {
		return err
	}

	s.SaleNumber = saleNumber
	s.SaleDate = normalizeSaleDate(saleDate)
	s.Customer = customer.Ref()
	s.Branch = branch.Ref()
	s.Touch()

	return nil
}

// CalculateTotalAmount sets TotalAmount to the sum of all line totals.
// Cancelled lines already carry a zero total.
func (s *Sale) CalculateTotalAmount() {
	total := decimal.Zero
	for _, item := range s.Items {
		total = total.Add(item.LineTotal)
	}
	s.TotalAmount = total
	s.Touch()
}

// AddItem appends a line and recalculates the total
func (s *Sale) AddItem(item *SaleItem) error {
	if item == nil {
		return shared.NewDomainError("INVALID_ITEM", "Item cannot be empty")
	}
	s.Items = append(s.Items, *item)
	s.CalculateTotalAmount()
	return nil
}

// RemoveItem removes the line with the given id and recalculates the total.
// It returns false if no such line exists.
func (s *Sale) RemoveItem(itemID uuid.UUID) bool {
	for idx := range s.Items {
		if s.Items[idx].ID == itemID {
			s.Items = append(s.Items[:idx], s.Items[idx+1:]...)
			s.CalculateTotalAmount()
			return true
		}
	}
	return false
}

// UpdateItemQuantity changes the quantity of one line and recalculates the total.
// On error the sale is left unchanged.
func (s *Sale) UpdateItemQuantity(itemID uuid.UUID, quantity int) error {
	item := s.GetItem(itemID)
	if item == nil {
		return shared.NewNotFoundError("Item", itemID)
	}
	if err := item.UpdateQuantity(quantity); err != nil {
		return err
	}
	s.CalculateTotalAmount()
	return nil
}

// ReplaceItems swaps the whole item collection and recalculates the total
func (s *Sale) ReplaceItems(items []SaleItem) {
	s.Items = make([]SaleItem, len(items))
	copy(s.Items, items)
	s.CalculateTotalAmount()
}

// Cancel marks the sale cancelled. Items and TotalAmount are not affected.
// Every call records a SaleCancelled event.
func (s *Sale) Cancel() {
	s.Cancelled = true
	s.Touch()
	s.AddDomainEvent(NewSaleCancelledEvent(s))
}

// CancelItem cancels one line and recalculates the total.
// It returns false, with no side effect, when the line does not belong to the sale.
func (s *Sale) CancelItem(itemID uuid.UUID) bool {
	item := s.GetItem(itemID)
	if item == nil {
		return false
	}
	item.Cancel()
	s.CalculateTotalAmount()
	s.AddDomainEvent(NewItemCancelledEvent(s, item))
	return true
}

// MarkCreated records a SaleCreated event for the sale in its current state
func (s *Sale) MarkCreated() {
	s.AddDomainEvent(NewSaleCreatedEvent(s))
}

// MarkModified records a SaleModified event for the sale in its current state
func (s *Sale) MarkModified() {
	s.AddDomainEvent(NewSaleModifiedEvent(s))
}

// GetItem returns the line with the given id, or nil
func (s *Sale) GetItem(itemID uuid.UUID) *SaleItem {
	for idx := range s.Items {
		if s.Items[idx].ID == itemID {
			return &s.Items[idx]
		}
	}
	return nil
}

// ItemCount returns the number of lines, cancelled ones included
func (s *Sale) ItemCount() int {
	return len(s.Items)
}

// ActiveItemCount returns the number of lines that are not cancelled
func (s *Sale) ActiveItemCount() int {
	count := 0
	for _, item := range s.Items {
		if !item.Cancelled {
			count++
		}
	}
	return count
}

// IsCancelled returns true if the sale was cancelled
func (s *Sale) IsCancelled() bool {
	return s.Cancelled
}

func validateSaleDetails(saleNumber string, customer *Customer, branch *Branch) error {
	if strings.TrimSpace(saleNumber) == "" {
		return shared.NewDomainError("INVALID_SALE_NUMBER", "Sale number cannot be empty")
	}
	if utf8.RuneCountInString(saleNumber) > MaxSaleNumberLength {
		return shared.NewDomainError("INVALID_SALE_NUMBER", "Sale number cannot exceed 50 characters")
	}
	if customer == nil {
		return shared.NewDomainError("INVALID_CUSTOMER", "Customer cannot be empty")
	}
	if branch == nil {
		return shared.NewDomainError("INVALID_BRANCH", "Branch cannot be empty")
	}
	return nil
}

func normalizeSaleDate(saleDate time.Time) time.Time {
	if saleDate.IsZero() {
		return time.Now().UTC()
	}
	return saleDate.UTC()
}
