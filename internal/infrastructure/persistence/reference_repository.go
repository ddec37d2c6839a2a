package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/retail/sales/internal/domain/sales"
	"github.com/retail/sales/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCustomerRepository implements sales.CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByID finds a customer by its ID
func (r *GormCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.Customer, error) {
	var model models.CustomerModel
	if err := first(ctx, r.db, &model, "id = ?", id); err != nil || model.ID == uuid.Nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByExternalID finds a customer by the identifier of its system of record
func (r *GormCustomerRepository) FindByExternalID(ctx context.Context, externalID string) (*sales.Customer, error) {
	var model models.CustomerModel
	if err := first(ctx, r.db, &model, "external_id = ?", externalID); err != nil || model.ID == uuid.Nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save inserts or refreshes a customer mirror, keyed by external ID
func (r *GormCustomerRepository) Save(ctx context.Context, customer *sales.Customer) error {
	model := models.CustomerModelFromDomain(customer)
	if err := upsertByExternalID(ctx, r.db, model.TableName(), model, &model.BaseModel, model.ExternalID, "name", "email", "phone", "last_synced_at", "updated_at"); err != nil {
		return err
	}
	customer.BaseEntity = model.BaseModel.ToDomain()
	return nil
}

// GormBranchRepository implements sales.BranchRepository using GORM
type GormBranchRepository struct {
	db *gorm.DB
}

// NewGormBranchRepository creates a new GormBranchRepository
func NewGormBranchRepository(db *gorm.DB) *GormBranchRepository {
	return &GormBranchRepository{db: db}
}

// FindByID finds a branch by its ID
func (r *GormBranchRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.Branch, error) {
	var model models.BranchModel
	if err := first(ctx, r.db, &model, "id = ?", id); err != nil || model.ID == uuid.Nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByExternalID finds a branch by the identifier of its system of record
func (r *GormBranchRepository) FindByExternalID(ctx context.Context, externalID string) (*sales.Branch, error) {
	var model models.BranchModel
	if err := first(ctx, r.db, &model, "external_id = ?", externalID); err != nil || model.ID == uuid.Nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save inserts or refreshes a branch mirror, keyed by external ID
func (r *GormBranchRepository) Save(ctx context.Context, branch *sales.Branch) error {
	model := models.BranchModelFromDomain(branch)
	if err := upsertByExternalID(ctx, r.db, model.TableName(), model, &model.BaseModel, model.ExternalID, "name", "address", "last_synced_at", "updated_at"); err != nil {
		return err
	}
	branch.BaseEntity = model.BaseModel.ToDomain()
	return nil
}

// GormProductRepository implements sales.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*sales.Product, error) {
	var model models.ProductModel
	if err := first(ctx, r.db, &model, "id = ?", id); err != nil || model.ID == uuid.Nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByExternalID finds a product by the identifier of its system of record
func (r *GormProductRepository) FindByExternalID(ctx context.Context, externalID string) (*sales.Product, error) {
	var model models.ProductModel
	if err := first(ctx, r.db, &model, "external_id = ?", externalID); err != nil || model.ID == uuid.Nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save inserts or refreshes a product mirror, keyed by external ID
func (r *GormProductRepository) Save(ctx context.Context, product *sales.Product) error {
	model := models.ProductModelFromDomain(product)
	if err := upsertByExternalID(ctx, r.db, model.TableName(), model, &model.BaseModel, model.ExternalID, "name", "description", "price", "last_synced_at", "updated_at"); err != nil {
		return err
	}
	product.BaseEntity = model.BaseModel.ToDomain()
	return nil
}

// first loads one row into dest; a missing row leaves dest untouched and returns nil
func first(ctx context.Context, db *gorm.DB, dest any, query string, arg any) error {
	err := db.WithContext(ctx).Where(query, arg).First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

// upsertByExternalID inserts model or, when its external ID is already mirrored, refreshes the given columns.
// base is rewritten to the stored identity so callers keep referencing the existing row.
func upsertByExternalID(ctx context.Context, db *gorm.DB, table string, model any, base *models.BaseModel, externalID string, columns ...string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.BaseModel
		res := tx.Table(table).
			Select("id", "created_at").
			Where("external_id = ?", externalID).
			Limit(1).
			Scan(&existing)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			now := time.Now().UTC()
			base.ID = existing.ID
			base.CreatedAt = existing.CreatedAt
			base.UpdatedAt = &now
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_id"}},
			DoUpdates: clause.AssignmentColumns(columns),
		}).Create(model).Error
	})
}

var (
	_ sales.CustomerRepository = (*GormCustomerRepository)(nil)
	_ sales.BranchRepository   = (*GormBranchRepository)(nil)
	_ sales.ProductRepository  = (*GormProductRepository)(nil)
)
