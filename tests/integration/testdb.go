// Package integration runs the sales service against a real PostgreSQL database.
// Each test gets its own container, migrated with the embedded schema.
package integration

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/retail/sales/internal/infrastructure/config"
	"github.com/retail/sales/internal/infrastructure/logger"
	"github.com/retail/sales/internal/infrastructure/migration"
	"github.com/retail/sales/internal/infrastructure/persistence"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// salesTables lists the schema's tables, children first
var salesTables = []string{"sale_items", "sales", "products", "branches", "customers"}

// TestDB is a migrated database inside a throwaway container
type TestDB struct {
	DB        *gorm.DB
	Config    config.DatabaseConfig
	database  *persistence.Database
	container testcontainers.Container
	t         *testing.T
}

// NewTestDB starts PostgreSQL, connects through persistence.NewDatabase and applies the
// embedded migrations. Everything is torn down when the test finishes.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("sales_test"),
		tcpostgres.WithUsername("sales"),
		tcpostgres.WithPassword("sales"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "start postgres container")

	tdb := &TestDB{container: container, t: t}
	t.Cleanup(tdb.Close)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	tdb.Config = config.DatabaseConfig{
		Driver:          config.DriverPostgres,
		Host:            host,
		Port:            port.Int(),
		User:            "sales",
		Password:        "sales",
		DBName:          "sales_test",
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5,
		ConnMaxIdleTime: 1,
	}

	level := gormlogger.Silent
	if os.Getenv("TEST_DB_DEBUG") != "" {
		level = gormlogger.Info
	}
	tdb.database, err = persistence.NewDatabase(&tdb.Config,
		persistence.WithGormLogger(logger.NewGormLogger(zaptest.NewLogger(t), level)))
	require.NoError(t, err, "connect to postgres")
	tdb.DB = tdb.database.DB

	sqlDB, err := tdb.DB.DB()
	require.NoError(t, err)
	migrator, err := migration.New(sqlDB, config.DriverPostgres, zaptest.NewLogger(t))
	require.NoError(t, err, "create migrator")
	require.NoError(t, migrator.Up(), "apply migrations")

	return tdb
}

// Close releases the connection pool and terminates the container
func (tdb *TestDB) Close() {
	if tdb.database != nil {
		_ = tdb.database.Close()
	}
	if err := tdb.container.Terminate(context.Background()); err != nil {
		tdb.t.Logf("terminate postgres container: %v", err)
	}
}

// CleanTables empties every sales table between subtests
func (tdb *TestDB) CleanTables() {
	tdb.t.Helper()
	stmt := "TRUNCATE TABLE " + strings.Join(salesTables, ", ") + " CASCADE"
	require.NoError(tdb.t, tdb.DB.Exec(stmt).Error)
}
