package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/retail/sales/internal/domain/sales"
	"github.com/shopspring/decimal"
)

// SaleModel is the persistence model for the Sale aggregate root.
// Customer and branch data are stored as the snapshot the sale was written with.
type SaleModel struct {
	AggregateModel
	SaleNumber    string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	SaleDate      time.Time       `gorm:"not null;index"`
	CustomerID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	CustomerName  string          `gorm:"type:varchar(255);not null"`
	CustomerEmail string          `gorm:"type:varchar(255)"`
	BranchID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	BranchName    string          `gorm:"type:varchar(255);not null"`
	BranchAddress string          `gorm:"type:varchar(500)"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Cancelled     bool            `gorm:"not null;default:false"`
	Items         []SaleItemModel `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// ToDomain converts the persistence model to a domain Sale
func (m *SaleModel) ToDomain() *sales.Sale {
	sale := &sales.Sale{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		SaleNumber:        m.SaleNumber,
		SaleDate:          m.SaleDate.UTC(),
		Customer: sales.CustomerRef{
			ID:    m.CustomerID,
			Name:  m.CustomerName,
			Email: m.CustomerEmail,
		},
		Branch: sales.BranchRef{
			ID:      m.BranchID,
			Name:    m.BranchName,
			Address: m.BranchAddress,
		},
		Items:       make([]sales.SaleItem, len(m.Items)),
		TotalAmount: m.TotalAmount,
		Cancelled:   m.Cancelled,
	}
	for i := range m.Items {
		sale.Items[i] = m.Items[i].ToDomain()
	}
	return sale
}

// FromDomain populates the persistence model from a domain Sale
func (m *SaleModel) FromDomain(s *sales.Sale) {
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.SaleNumber = s.SaleNumber
	m.SaleDate = s.SaleDate
	m.CustomerID = s.Customer.ID
	m.CustomerName = s.Customer.Name
	m.CustomerEmail = s.Customer.Email
	m.BranchID = s.Branch.ID
	m.BranchName = s.Branch.Name
	m.BranchAddress = s.Branch.Address
	m.TotalAmount = s.TotalAmount
	m.Cancelled = s.Cancelled
	m.Items = make([]SaleItemModel, len(s.Items))
	for i := range s.Items {
		m.Items[i] = SaleItemModelFromDomain(s.ID, i+1, &s.Items[i])
	}
}

// SaleModelFromDomain creates a new persistence model from a domain Sale
func SaleModelFromDomain(s *sales.Sale) *SaleModel {
	m := &SaleModel{}
	m.FromDomain(s)
	return m
}

// SaleItemModel is the persistence model for one line of a sale.
// The product columns hold the snapshot captured when the line was bound.
type SaleItemModel struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primary_key"`
	SaleID             uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNumber         int             `gorm:"not null"`
	ProductID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName        string          `gorm:"type:varchar(255);not null"`
	ProductDescription string          `gorm:"type:varchar(1000)"`
	ProductPrice       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	UnitPrice          decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Quantity           int             `gorm:"not null"`
	DiscountRate       decimal.Decimal `gorm:"type:decimal(5,4);not null;default:0"`
	LineTotal          decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Cancelled          bool            `gorm:"not null;default:false"`
	CreatedAt          time.Time       `gorm:"not null"`
	UpdatedAt          time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SaleItemModel) TableName() string {
	return "sale_items"
}

// ToDomain converts the persistence model to a domain SaleItem
func (m *SaleItemModel) ToDomain() sales.SaleItem {
	return sales.SaleItem{
		ID: m.ID,
		Product: sales.ProductRef{
			ID:          m.ProductID,
			Name:        m.ProductName,
			Description: m.ProductDescription,
			Price:       m.ProductPrice,
		},
		UnitPrice:    m.UnitPrice,
		Quantity:     m.Quantity,
		DiscountRate: m.DiscountRate,
		LineTotal:    m.LineTotal,
		Cancelled:    m.Cancelled,
	}
}

// SaleItemModelFromDomain creates a persistence model for the lineNumber-th item owned by saleID
func SaleItemModelFromDomain(saleID uuid.UUID, lineNumber int, item *sales.SaleItem) SaleItemModel {
	return SaleItemModel{
		ID:                 item.ID,
		SaleID:             saleID,
		LineNumber:         lineNumber,
		ProductID:          item.Product.ID,
		ProductName:        item.Product.Name,
		ProductDescription: item.Product.Description,
		ProductPrice:       item.Product.Price,
		UnitPrice:          item.UnitPrice,
		Quantity:           item.Quantity,
		DiscountRate:       item.DiscountRate,
		LineTotal:          item.LineTotal,
		Cancelled:          item.Cancelled,
	}
}
