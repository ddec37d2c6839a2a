package sales

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/retail/sales/internal/domain/shared"
)

// SaleRepository defines the interface for sale persistence.
// Lookups return (nil, nil) when the sale does not exist.
type SaleRepository interface {
	// FindByID finds a sale by ID with its items, customer and branch loaded
	FindByID(ctx context.Context, id uuid.UUID) (*Sale, error)

	// FindBySaleNumber finds a sale by its caller-supplied number
	FindBySaleNumber(ctx context.Context, saleNumber string) (*Sale, error)

	// Create inserts a new sale with its items
	Create(ctx context.Context, sale *Sale) error

	// Save updates a sale; items missing from the aggregate are deleted in the same transaction
	Save(ctx context.Context, sale *Sale) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, sale *Sale) error

	// FindAll lists sales ordered by sale date, newest first, with the total count
	FindAll(ctx context.Context, filter shared.Filter) ([]Sale, int64, error)

	// FindByDateRange lists sales whose sale date falls within [start, end]
	FindByDateRange(ctx context.Context, start, end time.Time, filter shared.Filter) ([]Sale, int64, error)

	// FindByCustomer lists sales for a customer
	FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]Sale, int64, error)

	// FindByBranch lists sales for a branch
	FindByBranch(ctx context.Context, branchID uuid.UUID, filter shared.Filter) ([]Sale, int64, error)

	// ExistsBySaleNumber checks if a sale number is already taken
	ExistsBySaleNumber(ctx context.Context, saleNumber string) (bool, error)
}

// CustomerRepository defines the interface for customer reference data.
// Lookups return (nil, nil) when the customer does not exist.
type CustomerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	FindByExternalID(ctx context.Context, externalID string) (*Customer, error)
	Save(ctx context.Context, customer *Customer) error
}

// BranchRepository defines the interface for branch reference data.
// Lookups return (nil, nil) when the branch does not exist.
type BranchRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Branch, error)
	FindByExternalID(ctx context.Context, externalID string) (*Branch, error)
	Save(ctx context.Context, branch *Branch) error
}

// ProductRepository defines the interface for product reference data.
// Lookups return (nil, nil) when the product does not exist.
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindByExternalID(ctx context.Context, externalID string) (*Product, error)
	Save(ctx context.Context, product *Product) error
}
