package sales

import (
	"github.com/google/uuid"
	"github.com/retail/sales/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SaleItem is one product line within a sale.
// DiscountRate and LineTotal are derived and only change through the item's methods.
type SaleItem struct {
	ID           uuid.UUID
	Product      ProductRef
	UnitPrice    decimal.Decimal
	Quantity     int
	DiscountRate decimal.Decimal
	LineTotal    decimal.Decimal
	Cancelled    bool
}

// NewSaleItem binds a product and quantity into a new line.
// The unit price is captured from the product at this point.
func NewSaleItem(product *Product, quantity int) (*SaleItem, error) {
	if product == nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product cannot be empty")
	}
	if err := ValidateQuantity(quantity); err != nil {
		return nil, err
	}

	item := &SaleItem{
		ID:        uuid.New(),
		Product:   product.Ref(),
		UnitPrice: product.Price,
		Quantity:  quantity,
	}
	item.recalculate()

	return item, nil
}

// UpdateQuantity changes the quantity and recomputes discount and total.
// The item is left untouched if the quantity is rejected.
func (i *SaleItem) UpdateQuantity(quantity int) error {
	if err := ValidateQuantity(quantity); err != nil {
		return err
	}
	i.Quantity = quantity
	i.recalculate()
	return nil
}

// ChangeProduct re-binds the line to another product and quantity, keeping its identity
// and cancellation flag.
func (i *SaleItem) ChangeProduct(product *Product, quantity int) error {
	if product == nil {
		return shared.NewDomainError("INVALID_PRODUCT", "Product cannot be empty")
	}
	if err := ValidateQuantity(quantity); err != nil {
		return err
	}
	i.Product = product.Ref()
	i.UnitPrice = product.Price
	i.Quantity = quantity
	i.recalculate()
	return nil
}

// Cancel marks the line cancelled; its total drops to zero. Repeating it is harmless.
func (i *SaleItem) Cancel() {
	i.Cancelled = true
	i.recalculate()
}

// IsCancelled returns true if the line was cancelled
func (i *SaleItem) IsCancelled() bool {
	return i.Cancelled
}

// Subtotal returns unit price times quantity before discount
func (i *SaleItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i *SaleItem) recalculate() {
	i.DiscountRate = DiscountRateFor(i.Quantity)
	i.LineTotal = LineTotal(i.UnitPrice, i.Quantity, i.DiscountRate, i.Cancelled)
}
