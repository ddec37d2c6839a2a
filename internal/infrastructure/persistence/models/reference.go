package models

import (
	"time"

	"github.com/retail/sales/internal/domain/sales"
	"github.com/shopspring/decimal"
)

// CustomerModel mirrors a customer from the customer system of record
type CustomerModel struct {
	BaseModel
	ExternalID   string    `gorm:"type:varchar(100);not null;uniqueIndex"`
	Name         string    `gorm:"type:varchar(255);not null"`
	Email        string    `gorm:"type:varchar(255)"`
	Phone        string    `gorm:"type:varchar(50)"`
	LastSyncedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer
func (m *CustomerModel) ToDomain() *sales.Customer {
	return &sales.Customer{
		BaseEntity:   m.BaseModel.ToDomain(),
		ExternalID:   m.ExternalID,
		Name:         m.Name,
		Email:        m.Email,
		Phone:        m.Phone,
		LastSyncedAt: m.LastSyncedAt,
	}
}

// CustomerModelFromDomain creates a persistence model from a domain Customer
func CustomerModelFromDomain(c *sales.Customer) *CustomerModel {
	m := &CustomerModel{
		ExternalID:   c.ExternalID,
		Name:         c.Name,
		Email:        c.Email,
		Phone:        c.Phone,
		LastSyncedAt: c.LastSyncedAt,
	}
	m.FromDomainBaseEntity(c.BaseEntity)
	return m
}

// BranchModel mirrors a store branch
type BranchModel struct {
	BaseModel
	ExternalID   string    `gorm:"type:varchar(100);not null;uniqueIndex"`
	Name         string    `gorm:"type:varchar(255);not null"`
	Address      string    `gorm:"type:varchar(500)"`
	LastSyncedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (BranchModel) TableName() string {
	return "branches"
}

// ToDomain converts the persistence model to a domain Branch
func (m *BranchModel) ToDomain() *sales.Branch {
	return &sales.Branch{
		BaseEntity:   m.BaseModel.ToDomain(),
		ExternalID:   m.ExternalID,
		Name:         m.Name,
		Address:      m.Address,
		LastSyncedAt: m.LastSyncedAt,
	}
}

// BranchModelFromDomain creates a persistence model from a domain Branch
func BranchModelFromDomain(b *sales.Branch) *BranchModel {
	m := &BranchModel{
		ExternalID:   b.ExternalID,
		Name:         b.Name,
		Address:      b.Address,
		LastSyncedAt: b.LastSyncedAt,
	}
	m.FromDomainBaseEntity(b.BaseEntity)
	return m
}

// ProductModel mirrors a sellable product
type ProductModel struct {
	BaseModel
	ExternalID   string          `gorm:"type:varchar(100);not null;uniqueIndex"`
	Name         string          `gorm:"type:varchar(255);not null"`
	Description  string          `gorm:"type:varchar(1000)"`
	Price        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	LastSyncedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() *sales.Product {
	return &sales.Product{
		BaseEntity:   m.BaseModel.ToDomain(),
		ExternalID:   m.ExternalID,
		Name:         m.Name,
		Description:  m.Description,
		Price:        m.Price,
		LastSyncedAt: m.LastSyncedAt,
	}
}

// ProductModelFromDomain creates a persistence model from a domain Product
func ProductModelFromDomain(p *sales.Product) *ProductModel {
	m := &ProductModel{
		ExternalID:   p.ExternalID,
		Name:         p.Name,
		Description:  p.Description,
		Price:        p.Price,
		LastSyncedAt: p.LastSyncedAt,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}

// AllModels returns every model in dependency order, for AutoMigrate in tests and local sqlite runs
func AllModels() []any {
	return []any{
		&CustomerModel{},
		&BranchModel{},
		&ProductModel{},
		&SaleModel{},
		&SaleItemModel{},
	}
}
