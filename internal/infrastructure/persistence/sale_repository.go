package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/retail/sales/internal/domain/sales"
	"github.com/retail/sales/internal/domain/shared"
	"github.com/retail/sales/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSaleRepository implements sales.SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// FindByID finds a sale by its ID with all items loaded
func (r *GormSaleRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.Sale, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindBySaleNumber finds a sale by its sale number
func (r *GormSaleRepository) FindBySaleNumber(ctx context.Context, saleNumber string) (*sales.Sale, error) {
	return r.findOne(ctx, "sale_number = ?", saleNumber)
}

func (r *GormSaleRepository) findOne(ctx context.Context, query string, arg any) (*sales.Sale, error) {
	var model models.SaleModel
	if err := r.db.WithContext(ctx).
		Preload("Items", orderItems).
		Where(query, arg).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts a new sale and its items in one transaction
func (r *GormSaleRepository) Create(ctx context.Context, sale *sales.Sale) error {
	model := models.SaleModelFromDomain(sale)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			return err
		}
		if len(model.Items) == 0 {
			return nil
		}
		return tx.Create(&model.Items).Error
	})
	return translateSaleError(err, sale.SaleNumber)
}

// Save overwrites a sale without a version check.
// Items missing from the aggregate are deleted in the same transaction.
func (r *GormSaleRepository) Save(ctx context.Context, sale *sales.Sale) error {
	sale.Touch()
	sale.Version++
	model := models.SaleModelFromDomain(sale)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return err
		}
		return replaceItems(tx, sale.ID, model.Items)
	})
	if err != nil {
		sale.Version--
	}
	return translateSaleError(err, sale.SaleNumber)
}

// SaveWithLock saves with optimistic locking (version check).
// On success sale.Version holds the new stored version.
func (r *GormSaleRepository) SaveWithLock(ctx context.Context, sale *sales.Sale) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current struct{ Version int }
		res := tx.Model(&models.SaleModel{}).
			Select("version").
			Where("id = ?", sale.ID).
			Limit(1).
			Scan(&current)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return shared.NewNotFoundError("Sale", sale.ID)
		}
		if current.Version != sale.Version {
			return errConcurrentSale
		}

		sale.Touch()
		model := models.SaleModelFromDomain(sale)
		model.Version = current.Version + 1

		result := tx.Model(&models.SaleModel{}).
			Where("id = ? AND version = ?", sale.ID, current.Version).
			Updates(map[string]any{
				"sale_number":    model.SaleNumber,
				"sale_date":      model.SaleDate,
				"customer_id":    model.CustomerID,
				"customer_name":  model.CustomerName,
				"customer_email": model.CustomerEmail,
				"branch_id":      model.BranchID,
				"branch_name":    model.BranchName,
				"branch_address": model.BranchAddress,
				"total_amount":   model.TotalAmount,
				"cancelled":      model.Cancelled,
				"version":        model.Version,
				"updated_at":     model.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errConcurrentSale
		}

		if err := replaceItems(tx, sale.ID, model.Items); err != nil {
			return err
		}
		sale.Version = model.Version
		return nil
	})
	return translateSaleError(err, sale.SaleNumber)
}

// FindAll lists every sale
func (r *GormSaleRepository) FindAll(ctx context.Context, filter shared.Filter) ([]sales.Sale, int64, error) {
	return r.list(ctx, filter, nil)
}

// FindByDateRange lists sales whose sale date falls within [start, end]
func (r *GormSaleRepository) FindByDateRange(ctx context.Context, start, end time.Time, filter shared.Filter) ([]sales.Sale, int64, error) {
	return r.list(ctx, filter, func(q *gorm.DB) *gorm.DB {
		return q.Where("sale_date >= ? AND sale_date <= ?", start.UTC(), end.UTC())
	})
}

// FindByCustomer lists sales for a customer
func (r *GormSaleRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]sales.Sale, int64, error) {
	return r.list(ctx, filter, func(q *gorm.DB) *gorm.DB {
		return q.Where("customer_id = ?", customerID)
	})
}

// FindByBranch lists sales for a branch
func (r *GormSaleRepository) FindByBranch(ctx context.Context, branchID uuid.UUID, filter shared.Filter) ([]sales.Sale, int64, error) {
	return r.list(ctx, filter, func(q *gorm.DB) *gorm.DB {
		return q.Where("branch_id = ?", branchID)
	})
}

// ExistsBySaleNumber checks if a sale number is already taken
func (r *GormSaleRepository) ExistsBySaleNumber(ctx context.Context, saleNumber string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.SaleModel{}).
		Where("sale_number = ?", saleNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormSaleRepository) list(ctx context.Context, filter shared.Filter, scope func(*gorm.DB) *gorm.DB) ([]sales.Sale, int64, error) {
	filter = filter.Normalize()

	query := r.db.WithContext(ctx).Model(&models.SaleModel{})
	if scope != nil {
		query = scope(query)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []sales.Sale{}, 0, nil
	}

	var rows []models.SaleModel
	if err := r.applyFilter(query, filter).
		Preload("Items", orderItems).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	result := make([]sales.Sale, len(rows))
	for i := range rows {
		result[i] = *rows[i].ToDomain()
	}
	return result, total, nil
}

// applyFilter applies ordering and pagination; id breaks ties so pages stay stable
func (r *GormSaleRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	sortField := ValidateSortField(filter.OrderBy, SaleSortFields, "sale_date")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	return query.
		Order(sortField + " " + sortOrder).
		Order("id " + sortOrder).
		Offset(filter.Offset()).
		Limit(filter.PageSize)
}

func orderItems(db *gorm.DB) *gorm.DB {
	return db.Order("line_number ASC")
}

// replaceItems deletes items no longer on the sale and upserts the rest
func replaceItems(tx *gorm.DB, saleID uuid.UUID, items []models.SaleItemModel) error {
	del := tx.Where("sale_id = ?", saleID)
	if len(items) > 0 {
		ids := make([]uuid.UUID, len(items))
		for i := range items {
			ids[i] = items[i].ID
		}
		del = del.Where("id NOT IN ?", ids)
	}
	if err := del.Delete(&models.SaleItemModel{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(saleItemUpdateColumns),
	}).Create(&items).Error
}

var saleItemUpdateColumns = []string{
	"line_number", "product_id", "product_name", "product_description", "product_price",
	"unit_price", "quantity", "discount_rate", "line_total", "cancelled", "updated_at",
}

var errConcurrentSale = shared.NewDomainError(shared.CodeConcurrencyConflict, "The sale has been modified by another request")

func translateSaleError(err error, saleNumber string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.NewDomainError(shared.CodeAlreadyExists, fmt.Sprintf("Sale number %s already exists", saleNumber))
	}
	return err
}

var _ sales.SaleRepository = (*GormSaleRepository)(nil)
