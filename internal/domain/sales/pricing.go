package sales

import (
	"github.com/retail/sales/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Quantity limits for a single sale item
const (
	MinItemQuantity = 1
	MaxItemQuantity = 20
)

// Error codes raised by the pricing policy
const (
	CodeInvalidQuantity       = "INVALID_QUANTITY"
	CodeQuantityLimitExceeded = "QUANTITY_LIMIT_EXCEEDED"
)

// discountTier is a quantity band with a flat discount rate.
// Bounds are inclusive.
type discountTier struct {
	MinQuantity int
	MaxQuantity int
	Rate        decimal.Decimal
}

// discountTiers is sorted by MinQuantity ascending and covers [1, MaxItemQuantity]
var discountTiers = []discountTier{
	{MinQuantity: 1, MaxQuantity: 3, Rate: decimal.Zero},
	{MinQuantity: 4, MaxQuantity: 9, Rate: decimal.NewFromFloat(0.10)},
	{MinQuantity: 10, MaxQuantity: MaxItemQuantity, Rate: decimal.NewFromFloat(0.20)},
}

// ValidateQuantity checks that quantity is within [MinItemQuantity, MaxItemQuantity].
// The two failure cases carry distinct codes and messages.
func ValidateQuantity(quantity int) error {
	if quantity < MinItemQuantity {
		return shared.NewDomainError(CodeInvalidQuantity, "Quantity must be greater than zero")
	}
	if quantity > MaxItemQuantity {
		return shared.NewDomainError(CodeQuantityLimitExceeded, "Cannot sell more than 20 identical items")
	}
	return nil
}

// DiscountRateFor returns the discount rate for a line quantity:
// below 4 items no discount, 4 to 9 items 10%, 10 to 20 items 20%.
func DiscountRateFor(quantity int) decimal.Decimal {
	if quantity < discountTiers[0].MinQuantity {
		return decimal.Zero
	}
	for _, tier := range discountTiers {
		if quantity >= tier.MinQuantity && quantity <= tier.MaxQuantity {
			return tier.Rate
		}
	}
	return discountTiers[len(discountTiers)-1].Rate
}

// LineTotal computes unitPrice * quantity * (1 - discountRate) without rounding;
// storage narrows it to the column's two decimal places. A cancelled line is always worth zero.
func LineTotal(unitPrice decimal.Decimal, quantity int, discountRate decimal.Decimal, cancelled bool) decimal.Decimal {
	if cancelled {
		return decimal.Zero
	}
	subtotal := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	return subtotal.Mul(decimal.NewFromInt(1).Sub(discountRate))
}
