package persistence

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/retail/sales/internal/domain/sales"
	"github.com/retail/sales/internal/domain/shared"
	"github.com/retail/sales/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var saleDay = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func TestGormSaleRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewGormSaleRepository(newSQLiteDB(t))
	fx := newSaleFixture(t)

	sale := fx.newSale(t, "S-001", saleDay, 5, 12)
	require.NoError(t, repo.Create(ctx, sale))

	t.Run("by id", func(t *testing.T) {
		found, err := repo.FindByID(ctx, sale.ID)
		require.NoError(t, err)
		require.NotNil(t, found)

		assert.Equal(t, "S-001", found.SaleNumber)
		assert.True(t, saleDay.Equal(found.SaleDate))
		assert.Equal(t, fx.customer.Ref(), found.Customer)
		assert.Equal(t, fx.branch.Ref(), found.Branch)
		assert.Equal(t, 1, found.Version)
		require.Len(t, found.Items, 2)

		// 5 x 10 at 10% and 12 x 20 at 20%
		assert.True(t, decimal.RequireFromString("45").Equal(found.Items[0].LineTotal))
		assert.True(t, decimal.RequireFromString("192").Equal(found.Items[1].LineTotal))
		assert.True(t, decimal.RequireFromString("237").Equal(found.TotalAmount), found.TotalAmount.String())
		assert.Equal(t, sale.Items[0].ID, found.Items[0].ID)
		assert.Equal(t, "Widget", found.Items[0].Product.Name)
		assert.Empty(t, found.GetDomainEvents())
	})

	t.Run("by sale number", func(t *testing.T) {
		found, err := repo.FindBySaleNumber(ctx, "S-001")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, sale.ID, found.ID)
	})

	t.Run("absent sale yields nil without error", func(t *testing.T) {
		found, err := repo.FindByID(ctx, uuid.New())
		assert.NoError(t, err)
		assert.Nil(t, found)

		found, err = repo.FindBySaleNumber(ctx, "S-404")
		assert.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("exists by sale number", func(t *testing.T) {
		exists, err := repo.ExistsBySaleNumber(ctx, "S-001")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsBySaleNumber(ctx, "S-002")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestGormSaleRepository_Create_DuplicateNumber(t *testing.T) {
	ctx := context.Background()
	repo := NewGormSaleRepository(newSQLiteDB(t))
	fx := newSaleFixture(t)

	require.NoError(t, repo.Create(ctx, fx.newSale(t, "S-001", saleDay, 1)))

	err := repo.Create(ctx, fx.newSale(t, "S-001", saleDay, 2))
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestGormSaleRepository_SaveWithLock(t *testing.T) {
	ctx := context.Background()
	repo := NewGormSaleRepository(newSQLiteDB(t))
	fx := newSaleFixture(t)

	sale := fx.newSale(t, "S-001", saleDay, 5, 12)
	require.NoError(t, repo.Create(ctx, sale))

	t.Run("replaces items and bumps version", func(t *testing.T) {
		loaded, err := repo.FindByID(ctx, sale.ID)
		require.NoError(t, err)

		kept := loaded.Items[1]
		require.NoError(t, kept.UpdateQuantity(2))
		added, err := sales.NewSaleItem(fx.widget, 1)
		require.NoError(t, err)
		loaded.ReplaceItems([]sales.SaleItem{kept, *added})

		require.NoError(t, repo.SaveWithLock(ctx, loaded))
		assert.Equal(t, 2, loaded.Version)

		reloaded, err := repo.FindByID(ctx, sale.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, reloaded.Version)
		require.Len(t, reloaded.Items, 2)
		assert.Equal(t, kept.ID, reloaded.Items[0].ID)
		assert.Equal(t, 2, reloaded.Items[0].Quantity)
		assert.Equal(t, added.ID, reloaded.Items[1].ID)
		assert.True(t, decimal.NewFromInt(50).Equal(reloaded.TotalAmount), reloaded.TotalAmount.String())
		assert.NotNil(t, reloaded.UpdatedAt)

		var itemRows int64
		require.NoError(t, repo.db.Model(&models.SaleItemModel{}).Where("sale_id = ?", sale.ID).Count(&itemRows).Error)
		assert.Equal(t, int64(2), itemRows)
	})

	t.Run("stale version is rejected", func(t *testing.T) {
		first, err := repo.FindByID(ctx, sale.ID)
		require.NoError(t, err)
		second, err := repo.FindByID(ctx, sale.ID)
		require.NoError(t, err)

		first.Cancel()
		require.NoError(t, repo.SaveWithLock(ctx, first))

		second.CancelItem(second.Items[0].ID)
		err = repo.SaveWithLock(ctx, second)
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

		reloaded, err := repo.FindByID(ctx, sale.ID)
		require.NoError(t, err)
		assert.True(t, reloaded.Cancelled)
		assert.False(t, reloaded.Items[0].Cancelled)
	})

	t.Run("unknown sale is not found", func(t *testing.T) {
		ghost := fx.newSale(t, "S-999", saleDay, 1)
		err := repo.SaveWithLock(ctx, ghost)
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormSaleRepository_Save(t *testing.T) {
	ctx := context.Background()
	repo := NewGormSaleRepository(newSQLiteDB(t))
	fx := newSaleFixture(t)

	sale := fx.newSale(t, "S-001", saleDay, 3, 4)
	require.NoError(t, repo.Create(ctx, sale))

	sale.ReplaceItems(sale.Items[:1])
	require.NoError(t, repo.Save(ctx, sale))
	assert.Equal(t, 2, sale.Version)

	reloaded, err := repo.FindByID(ctx, sale.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 1)
	assert.Equal(t, 2, reloaded.Version)
}

func TestGormSaleRepository_Lists(t *testing.T) {
	ctx := context.Background()
	repo := NewGormSaleRepository(newSQLiteDB(t))
	fx := newSaleFixture(t)

	otherBranch, err := sales.NewBranch("BR-2", "Uptown", "9 High St")
	require.NoError(t, err)
	otherCustomer, err := sales.NewCustomer("CUST-2", "Bob", "bob@example.com", "")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		sale := fx.newSale(t, fmt.Sprintf("S-%03d", i+1), saleDay.AddDate(0, 0, i), 1)
		require.NoError(t, repo.Create(ctx, sale))
	}
	elsewhere, err := sales.NewSale("S-100", saleDay.AddDate(0, 0, 10), otherCustomer, otherBranch)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, elsewhere))

	t.Run("all sales newest first", func(t *testing.T) {
		list, total, err := repo.FindAll(ctx, shared.Filter{Page: 1, PageSize: 4})
		require.NoError(t, err)
		assert.Equal(t, int64(6), total)
		require.Len(t, list, 4)
		assert.Equal(t, "S-100", list[0].SaleNumber)
		assert.Equal(t, "S-005", list[1].SaleNumber)

		page2, _, err := repo.FindAll(ctx, shared.Filter{Page: 2, PageSize: 4})
		require.NoError(t, err)
		require.Len(t, page2, 2)
		assert.Equal(t, "S-001", page2[1].SaleNumber)
	})

	t.Run("date range is inclusive", func(t *testing.T) {
		list, total, err := repo.FindByDateRange(ctx, saleDay.AddDate(0, 0, 1), saleDay.AddDate(0, 0, 3), shared.DefaultFilter())
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, list, 3)
		assert.Equal(t, "S-004", list[0].SaleNumber)
		assert.Equal(t, "S-002", list[2].SaleNumber)
	})

	t.Run("by customer", func(t *testing.T) {
		list, total, err := repo.FindByCustomer(ctx, otherCustomer.ID, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, list, 1)
		assert.Equal(t, "Bob", list[0].Customer.Name)
	})

	t.Run("by branch", func(t *testing.T) {
		_, total, err := repo.FindByBranch(ctx, fx.branch.ID, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
	})

	t.Run("no match yields empty page", func(t *testing.T) {
		list, total, err := repo.FindByBranch(ctx, uuid.New(), shared.DefaultFilter())
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
		assert.Empty(t, list)
	})

	t.Run("unknown sort field falls back to sale date", func(t *testing.T) {
		list, _, err := repo.FindAll(ctx, shared.Filter{Page: 1, PageSize: 1, OrderBy: "1; DROP TABLE sales", OrderDir: "desc"})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "S-100", list[0].SaleNumber)
	})
}

func TestGormSaleRepository_SaveWithLock_SQL(t *testing.T) {
	fx := newSaleFixture(t)

	t.Run("version mismatch rolls back", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormSaleRepository(db)
		sale := fx.newSale(t, "S-001", saleDay, 1)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT version FROM "sales" WHERE id = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(4))
		mock.ExpectRollback()

		err := repo.SaveWithLock(context.Background(), sale)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.Equal(t, 1, sale.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lost update race rolls back", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormSaleRepository(db)
		sale := fx.newSale(t, "S-001", saleDay, 1)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT version FROM "sales" WHERE id = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(1))
		mock.ExpectExec(`UPDATE "sales" SET .* WHERE id = \$\d+ AND version = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.SaveWithLock(context.Background(), sale)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row is not found", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormSaleRepository(db)
		sale := fx.newSale(t, "S-001", saleDay, 1)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT version FROM "sales" WHERE id = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"version"}))
		mock.ExpectRollback()

		err := repo.SaveWithLock(context.Background(), sale)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormSaleRepository_FindByID_SQL(t *testing.T) {
	db, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewGormSaleRepository(db)

	id := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "sales" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	sale, err := repo.FindByID(context.Background(), id)
	assert.NoError(t, err)
	assert.Nil(t, sale)
	assert.NoError(t, mock.ExpectationsWereMet())
}
