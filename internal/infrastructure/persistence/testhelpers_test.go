package persistence

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/retail/sales/internal/domain/sales"
	"github.com/retail/sales/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newMockDB creates a postgres-dialect GORM handle backed by sqlmock
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

// newSQLiteDB opens a migrated in-memory database private to the test
func newSQLiteDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

type saleFixture struct {
	customer *sales.Customer
	branch   *sales.Branch
	widget   *sales.Product
	gadget   *sales.Product
}

func newSaleFixture(t *testing.T) saleFixture {
	customer, err := sales.NewCustomer("CUST-1", "Alice", "alice@example.com", "555-0100")
	require.NoError(t, err)
	branch, err := sales.NewBranch("BR-1", "Downtown", "1 Main St")
	require.NoError(t, err)
	widget, err := sales.NewProduct("SKU-W", "Widget", "A widget", decimal.NewFromInt(10))
	require.NoError(t, err)
	gadget, err := sales.NewProduct("SKU-G", "Gadget", "A gadget", decimal.NewFromInt(20))
	require.NoError(t, err)
	return saleFixture{customer: customer, branch: branch, widget: widget, gadget: gadget}
}

// newSale builds a sale with one line per quantity, alternating widget and gadget
func (f saleFixture) newSale(t *testing.T, number string, date time.Time, quantities ...int) *sales.Sale {
	sale, err := sales.NewSale(number, date, f.customer, f.branch)
	require.NoError(t, err)
	for i, qty := range quantities {
		product := f.widget
		if i%2 == 1 {
			product = f.gadget
		}
		item, err := sales.NewSaleItem(product, qty)
		require.NoError(t, err)
		require.NoError(t, sale.AddItem(item))
	}
	return sale
}
