package sales

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/retail/sales/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Field length limits for reference data
const (
	MaxExternalIDLength  = 100
	MaxNameLength        = 255
	MaxEmailLength       = 255
	MaxPhoneLength       = 50
	MaxAddressLength     = 500
	MaxDescriptionLength = 1000
)

// Customer is a read-only mirror of a customer owned by an external system of record
type Customer struct {
	shared.BaseEntity
	ExternalID   string
	Name         string
	Email        string
	Phone        string
	LastSyncedAt time.Time
}

// NewCustomer creates a customer mirror
func NewCustomer(externalID, name, email, phone string) (*Customer, error) {
	if err := validateReference(externalID, name); err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(email) > MaxEmailLength {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 255 characters")
	}
	if utf8.RuneCountInString(phone) > MaxPhoneLength {
		return nil, shared.NewDomainError("INVALID_PHONE", "Phone cannot exceed 50 characters")
	}
	return &Customer{
		BaseEntity:   shared.NewBaseEntity(),
		ExternalID:   externalID,
		Name:         name,
		Email:        email,
		Phone:        phone,
		LastSyncedAt: time.Now().UTC(),
	}, nil
}

// Ref returns the snapshot of the customer held by a sale
func (c *Customer) Ref() CustomerRef {
	return CustomerRef{ID: c.ID, Name: c.Name, Email: c.Email}
}

// Branch is a read-only mirror of a store branch
type Branch struct {
	shared.BaseEntity
	ExternalID   string
	Name         string
	Address      string
	LastSyncedAt time.Time
}

// NewBranch creates a branch mirror
func NewBranch(externalID, name, address string) (*Branch, error) {
	if err := validateReference(externalID, name); err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(address) > MaxAddressLength {
		return nil, shared.NewDomainError("INVALID_ADDRESS", "Address cannot exceed 500 characters")
	}
	return &Branch{
		BaseEntity:   shared.NewBaseEntity(),
		ExternalID:   externalID,
		Name:         name,
		Address:      address,
		LastSyncedAt: time.Now().UTC(),
	}, nil
}

// Ref returns the snapshot of the branch held by a sale
func (b *Branch) Ref() BranchRef {
	return BranchRef{ID: b.ID, Name: b.Name, Address: b.Address}
}

// Product is a read-only mirror of a sellable product
type Product struct {
	shared.BaseEntity
	ExternalID   string
	Name         string
	Description  string
	Price        decimal.Decimal
	LastSyncedAt time.Time
}

// NewProduct creates a product mirror
func NewProduct(externalID, name, description string, price decimal.Decimal) (*Product, error) {
	if err := validateReference(externalID, name); err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot exceed 1000 characters")
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	return &Product{
		BaseEntity:   shared.NewBaseEntity(),
		ExternalID:   externalID,
		Name:         name,
		Description:  description,
		Price:        price,
		LastSyncedAt: time.Now().UTC(),
	}, nil
}

// Ref returns the snapshot of the product captured by a sale item
func (p *Product) Ref() ProductRef {
	return ProductRef{ID: p.ID, Name: p.Name, Description: p.Description, Price: p.Price}
}

func validateReference(externalID, name string) error {
	if strings.TrimSpace(externalID) == "" {
		return shared.NewDomainError("INVALID_EXTERNAL_ID", "External ID cannot be empty")
	}
	if utf8.RuneCountInString(externalID) > MaxExternalIDLength {
		return shared.NewDomainError("INVALID_EXTERNAL_ID", "External ID cannot exceed 100 characters")
	}
	if strings.TrimSpace(name) == "" {
		return shared.NewDomainError("INVALID_NAME", "Name cannot be empty")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return shared.NewDomainError("INVALID_NAME", "Name cannot exceed 255 characters")
	}
	return nil
}

// CustomerRef is the customer data a sale carries for display and events
type CustomerRef struct {
	ID    uuid.UUID
	Name  string
	Email string
}

// BranchRef is the branch data a sale carries for display and events
type BranchRef struct {
	ID      uuid.UUID
	Name    string
	Address string
}

// ProductRef is the product data captured by a sale item when it is bound
type ProductRef struct {
	ID          uuid.UUID
	Name        string
	Description string
	Price       decimal.Decimal
}
